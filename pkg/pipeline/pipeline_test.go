package pipeline

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/pario-ai/memogate/pkg/analyzer"
	"github.com/pario-ai/memogate/pkg/cache/lru"
	"github.com/pario-ai/memogate/pkg/models"
)

func newTestPipeline(t *testing.T, a analyzer.Analyzer) (*Pipeline, *lru.Cache[models.Analysis]) {
	t.Helper()
	c, err := lru.New[models.Analysis](10, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(c.Close)
	return New(c, a, zerolog.Nop()), c
}

func countingAnalyzer(calls *atomic.Int64) analyzer.Func {
	return func(ctx context.Context, q, a string) (models.Analysis, error) {
		calls.Add(1)
		return models.Analysis{
			Insight: models.Insight{Summary: "summary of " + a, Keywords: []string{"k1"}},
			Traits:  []models.Trait{{Name: "openness", Score: 0.5, Reason: "r"}},
		}, nil
	}
}

func TestAnalyzeMissThenHit(t *testing.T) {
	var calls atomic.Int64
	p, c := newTestPipeline(t, countingAnalyzer(&calls))
	ctx := context.Background()

	req := models.AnalysisRequest{UserID: "u1", Question: "q", Answer: "a"}
	resp, outcome, err := p.Analyze(ctx, req)
	if err != nil {
		t.Fatal(err)
	}
	if outcome != models.OutcomeMiss {
		t.Errorf("expected miss, got %s", outcome)
	}
	if resp.UserID != "u1" || resp.Insight.Summary != "summary of a" {
		t.Errorf("unexpected response: %+v", resp)
	}

	// Same question/answer from another user is served from the cache.
	req.UserID = "u2"
	resp, outcome, err = p.Analyze(ctx, req)
	if err != nil {
		t.Fatal(err)
	}
	if outcome != models.OutcomeHit {
		t.Errorf("expected hit, got %s", outcome)
	}
	if resp.UserID != "u2" {
		t.Errorf("expected response stamped with u2, got %s", resp.UserID)
	}
	if calls.Load() != 1 {
		t.Errorf("expected 1 analyzer call, got %d", calls.Load())
	}

	stats := c.Stats()
	if stats.Hits != 1 || stats.Misses != 1 || stats.Size != 1 {
		t.Errorf("unexpected cache stats: %+v", stats)
	}
}

func TestAnalyzeResponseIsACopy(t *testing.T) {
	var calls atomic.Int64
	p, _ := newTestPipeline(t, countingAnalyzer(&calls))
	ctx := context.Background()
	req := models.AnalysisRequest{UserID: "u1", Question: "q", Answer: "a"}

	resp, _, _ := p.Analyze(ctx, req)
	resp.Traits[0].Score = -1
	resp.Insight.Keywords[0] = "changed"

	resp, _, _ = p.Analyze(ctx, req)
	if resp.Traits[0].Score != 0.5 || resp.Insight.Keywords[0] != "k1" {
		t.Errorf("cached analysis was mutated through a response: %+v", resp)
	}
}

func TestAnalyzeInvalidRequest(t *testing.T) {
	var calls atomic.Int64
	p, _ := newTestPipeline(t, countingAnalyzer(&calls))

	_, _, err := p.Analyze(context.Background(), models.AnalysisRequest{UserID: "u1", Question: "q"})
	if !errors.Is(err, models.ErrInvalidRequest) {
		t.Errorf("expected ErrInvalidRequest, got %v", err)
	}
	if calls.Load() != 0 {
		t.Error("analyzer should not run for invalid input")
	}
}

func TestAnalyzeErrorNotCached(t *testing.T) {
	boom := errors.New("boom")
	var calls atomic.Int64
	p, c := newTestPipeline(t, analyzer.Func(func(ctx context.Context, q, a string) (models.Analysis, error) {
		calls.Add(1)
		return models.Analysis{}, boom
	}))

	req := models.AnalysisRequest{UserID: "u1", Question: "q", Answer: "a"}
	for range 2 {
		_, outcome, err := p.Analyze(context.Background(), req)
		if !errors.Is(err, boom) {
			t.Errorf("expected wrapped analyzer error, got %v", err)
		}
		if outcome != models.OutcomeError {
			t.Errorf("expected error outcome, got %s", outcome)
		}
	}
	if calls.Load() != 2 {
		t.Errorf("failed results must not be cached, got %d calls", calls.Load())
	}
	if c.Len() != 0 {
		t.Errorf("expected empty cache, got %d", c.Len())
	}
}

func TestAnalyzeSingleFlight(t *testing.T) {
	var calls atomic.Int64
	release := make(chan struct{})
	p, _ := newTestPipeline(t, analyzer.Func(func(ctx context.Context, q, a string) (models.Analysis, error) {
		calls.Add(1)
		<-release
		return models.Analysis{Insight: models.Insight{Summary: "s"}}, nil
	}))

	const n = 5
	var wg sync.WaitGroup
	started := make(chan struct{}, n)
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			started <- struct{}{}
			req := models.AnalysisRequest{UserID: string(rune('a' + i)), Question: "q", Answer: "a"}
			if _, _, err := p.Analyze(context.Background(), req); err != nil {
				t.Error(err)
			}
		}()
	}
	for range n {
		<-started
	}
	// Give the goroutines time to join the flight before releasing it.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if calls.Load() != 1 {
		t.Errorf("expected concurrent misses to share one call, got %d", calls.Load())
	}
}
