package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/pario-ai/memogate/pkg/cache/lru"
	"github.com/pario-ai/memogate/pkg/models"
	"github.com/pario-ai/memogate/pkg/ratelimit"
)

const maxBodyBytes = 1 << 20

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy", "service": "memogate"})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	client := clientIDFrom(ctx)

	var req models.AnalysisRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		s.observe(ctx, client, "", models.OutcomeError, start)
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		s.observe(ctx, client, "", models.OutcomeError, start)
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	fp := lru.Fingerprint(req.Question, req.Answer)
	resp, outcome, err := s.pipeline.Analyze(ctx, req)
	s.observe(ctx, client, fp, outcome, start)
	if err != nil {
		s.log.Error().Err(err).Str("request_id", requestIDFrom(ctx)).Str("client", client).Msg("analysis failed")
		if errors.Is(err, models.ErrInvalidRequest) {
			writeJSONError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeJSONError(w, http.StatusBadGateway, "analysis failed")
		return
	}

	w.Header().Set("X-Memogate-Cache", string(outcome))
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCacheStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.cache.Stats())
}

func (s *Server) handleCacheClear(w http.ResponseWriter, r *http.Request) {
	s.cache.Clear()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleLimitStats(w http.ResponseWriter, r *http.Request) {
	client := r.URL.Query().Get("client")
	if client == "" {
		client = s.clientID(r)
	}
	st, err := s.limiter.Stats(client)
	if errors.Is(err, ratelimit.ErrInvalidClient) {
		writeJSONError(w, http.StatusBadRequest, "client is required")
		return
	}
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "limit stats failed")
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// observe logs, counts and records one analyze request.
func (s *Server) observe(ctx context.Context, client, fingerprint string, outcome models.Outcome, start time.Time) {
	elapsed := time.Since(start)
	s.metrics.ObserveRequest(outcome, elapsed)
	s.log.Info().
		Str("request_id", requestIDFrom(ctx)).
		Str("client", client).
		Str("outcome", string(outcome)).
		Dur("latency", elapsed).
		Msg("analyze")

	if s.tracker == nil {
		return
	}
	err := s.tracker.Record(ctx, models.RequestRecord{
		RequestID:   requestIDFrom(ctx),
		ClientID:    client,
		Fingerprint: fingerprint,
		Outcome:     outcome,
		LatencyMs:   elapsed.Milliseconds(),
		CreatedAt:   time.Now().UTC(),
	})
	if err != nil {
		s.log.Error().Err(err).Msg("record request")
	}
}
