package router

import (
	"errors"
	"testing"

	"github.com/pario-ai/memogate/pkg/config"
)

var providers = []config.ProviderConfig{
	{Name: "openai", URL: "https://api.openai.com", APIKey: "sk-1"},
	{Name: "backup", URL: "https://llm.internal", APIKey: "sk-2"},
}

func TestResolveNoRoutes(t *testing.T) {
	r := New(providers, nil)
	routes, err := r.Resolve("gpt-4o-mini")
	if err != nil {
		t.Fatal(err)
	}
	if len(routes) != 1 {
		t.Fatalf("expected 1 route, got %d", len(routes))
	}
	if routes[0].Provider.Name != "openai" || routes[0].Model != "gpt-4o-mini" {
		t.Errorf("unexpected route: %+v", routes[0])
	}
}

func TestResolveWithAlias(t *testing.T) {
	r := New(providers, []config.RouteConfig{
		{
			Model: "fast",
			Targets: []config.RouteTarget{
				{Provider: "openai", Model: "gpt-4o-mini"},
				{Provider: "backup"},
			},
		},
	})
	routes, err := r.Resolve("fast")
	if err != nil {
		t.Fatal(err)
	}
	if len(routes) != 2 {
		t.Fatalf("expected 2 routes, got %d", len(routes))
	}
	if routes[0].Provider.Name != "openai" || routes[0].Model != "gpt-4o-mini" {
		t.Errorf("unexpected first route: %+v", routes[0])
	}
	// Empty target model falls back to the alias.
	if routes[1].Provider.Name != "backup" || routes[1].Model != "fast" {
		t.Errorf("unexpected second route: %+v", routes[1])
	}
}

func TestResolveSkipsUnknownProviders(t *testing.T) {
	r := New(providers, []config.RouteConfig{
		{Model: "fast", Targets: []config.RouteTarget{{Provider: "missing"}, {Provider: "backup"}}},
	})
	routes, err := r.Resolve("fast")
	if err != nil {
		t.Fatal(err)
	}
	if len(routes) != 1 || routes[0].Provider.Name != "backup" {
		t.Errorf("expected only backup route, got %+v", routes)
	}
}

func TestResolveAllUnknown(t *testing.T) {
	r := New(providers, []config.RouteConfig{
		{Model: "fast", Targets: []config.RouteTarget{{Provider: "missing"}}},
	})
	if _, err := r.Resolve("fast"); !errors.Is(err, ErrNoProviders) {
		t.Errorf("expected ErrNoProviders, got %v", err)
	}
}

func TestResolveNoProviders(t *testing.T) {
	r := New(nil, nil)
	if _, err := r.Resolve("gpt-4o-mini"); !errors.Is(err, ErrNoProviders) {
		t.Errorf("expected ErrNoProviders, got %v", err)
	}
}
