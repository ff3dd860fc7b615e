// Package pipeline serves analyses from the result cache, computing and
// storing them on a miss.
package pipeline

import (
	"context"
	"fmt"
	"slices"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/pario-ai/memogate/pkg/analyzer"
	"github.com/pario-ai/memogate/pkg/cache/lru"
	"github.com/pario-ai/memogate/pkg/models"
)

// Pipeline combines the result cache with the analyzer. Admission control is
// applied by the caller before Analyze.
type Pipeline struct {
	cache    *lru.Cache[models.Analysis]
	analyzer analyzer.Analyzer
	flights  singleflight.Group
	log      zerolog.Logger
}

// New creates a Pipeline.
func New(c *lru.Cache[models.Analysis], a analyzer.Analyzer, log zerolog.Logger) *Pipeline {
	return &Pipeline{cache: c, analyzer: a, log: log}
}

// Analyze returns the analysis for req and whether it came from the cache.
// Concurrent misses for the same question/answer share a single analyzer
// call; no cache lock is held while it runs.
func (p *Pipeline) Analyze(ctx context.Context, req models.AnalysisRequest) (models.AnalysisResponse, models.Outcome, error) {
	if err := req.Validate(); err != nil {
		return models.AnalysisResponse{}, models.OutcomeError, err
	}

	key := lru.Fingerprint(req.Question, req.Answer)
	if cached, ok := p.cache.GetKey(key); ok {
		return respond(req.UserID, cached), models.OutcomeHit, nil
	}

	// The flight outlives any single caller's cancellation so that waiters
	// and the cache still get the result.
	flightCtx := context.WithoutCancel(ctx)
	v, err, shared := p.flights.Do(key, func() (any, error) {
		res, err := p.analyzer.Analyze(flightCtx, req.Question, req.Answer)
		if err != nil {
			return nil, err
		}
		p.cache.SetKey(key, res)
		return res, nil
	})
	if err != nil {
		return models.AnalysisResponse{}, models.OutcomeError, fmt.Errorf("analyze: %w", err)
	}
	if shared {
		p.log.Debug().Str("user_id", req.UserID).Msg("joined in-flight analysis")
	}
	return respond(req.UserID, v.(models.Analysis)), models.OutcomeMiss, nil
}

// respond stamps the caller's user onto a copy of the shared analysis.
func respond(userID string, a models.Analysis) models.AnalysisResponse {
	insight := a.Insight
	insight.Keywords = slices.Clone(insight.Keywords)
	return models.AnalysisResponse{
		UserID:  userID,
		Insight: insight,
		Traits:  slices.Clone(a.Traits),
	}
}
