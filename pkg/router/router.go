// Package router resolves the analyzer model to an ordered provider chain.
package router

import (
	"errors"
	"fmt"

	"github.com/pario-ai/memogate/pkg/config"
)

// ErrNoProviders is returned when no provider can serve a model.
var ErrNoProviders = errors.New("no providers configured")

// Route is one provider and model to try, in fallback order.
type Route struct {
	Provider config.ProviderConfig
	Model    string
}

// Router maps a model alias to a fallback chain of providers.
type Router struct {
	providers map[string]config.ProviderConfig
	first     config.ProviderConfig
	routes    map[string][]config.RouteTarget
}

// New indexes providers and routes. The first provider serves models with no
// explicit route.
func New(providers []config.ProviderConfig, routes []config.RouteConfig) *Router {
	r := &Router{
		providers: make(map[string]config.ProviderConfig, len(providers)),
		routes:    make(map[string][]config.RouteTarget, len(routes)),
	}
	for i, p := range providers {
		if i == 0 {
			r.first = p
		}
		r.providers[p.Name] = p
	}
	for _, rc := range routes {
		r.routes[rc.Model] = rc.Targets
	}
	return r
}

// Resolve returns the routes to try for model, in order.
func (r *Router) Resolve(model string) ([]Route, error) {
	if len(r.providers) == 0 {
		return nil, ErrNoProviders
	}

	targets, ok := r.routes[model]
	if !ok {
		return []Route{{Provider: r.first, Model: model}}, nil
	}

	var out []Route
	for _, t := range targets {
		p, ok := r.providers[t.Provider]
		if !ok {
			continue
		}
		m := t.Model
		if m == "" {
			m = model
		}
		out = append(out, Route{Provider: p, Model: m})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: route %q has no known providers", ErrNoProviders, model)
	}
	return out, nil
}
