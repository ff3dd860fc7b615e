// Package server is the memogate HTTP API: admission-controlled analysis
// plus health, cache and limiter endpoints.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/pario-ai/memogate/pkg/cache/lru"
	"github.com/pario-ai/memogate/pkg/config"
	"github.com/pario-ai/memogate/pkg/metrics"
	"github.com/pario-ai/memogate/pkg/models"
	"github.com/pario-ai/memogate/pkg/pipeline"
	"github.com/pario-ai/memogate/pkg/ratelimit"
	"github.com/pario-ai/memogate/pkg/tracker"
)

// Server is the memogate HTTP server.
type Server struct {
	cfg      *config.Config
	limiter  *ratelimit.Limiter
	cache    *lru.Cache[models.Analysis]
	pipeline *pipeline.Pipeline
	tracker  tracker.Tracker
	metrics  *metrics.Metrics
	log      zerolog.Logger
	mux      chi.Router
}

// New creates a Server wired with all dependencies. tr and m may be nil.
func New(
	cfg *config.Config,
	l *ratelimit.Limiter,
	c *lru.Cache[models.Analysis],
	p *pipeline.Pipeline,
	tr tracker.Tracker,
	m *metrics.Metrics,
	log zerolog.Logger,
) *Server {
	s := &Server{
		cfg:      cfg,
		limiter:  l,
		cache:    c,
		pipeline: p,
		tracker:  tr,
		metrics:  m,
		log:      log,
	}
	s.mux = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(requestID)

	// Health and admin endpoints bypass admission control.
	r.Get("/", s.handleHealth)
	r.Group(func(r chi.Router) {
		r.Use(s.requireAdmin)
		r.Get("/cache/stats", s.handleCacheStats)
		r.Delete("/cache", s.handleCacheClear)
		r.Get("/limit/stats", s.handleLimitStats)
	})
	if s.metrics != nil && s.cfg.Metrics.Enabled {
		r.Method(http.MethodGet, s.cfg.Metrics.Path, s.metrics.Handler())
	}

	r.Group(func(r chi.Router) {
		r.Use(s.admit)
		r.Post("/analyze", s.handleAnalyze)
	})
	return r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// ListenAndServe starts the server and shuts it down gracefully when ctx ends.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.cfg.Listen).Msg("memogate listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	fmt.Fprintf(w, `{"error":{"message":%q,"type":"memogate_error","code":%d}}`, message, code)
}
