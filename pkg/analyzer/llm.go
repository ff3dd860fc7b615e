package analyzer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/pario-ai/memogate/pkg/config"
	"github.com/pario-ai/memogate/pkg/models"
	"github.com/pario-ai/memogate/pkg/router"
)

// LLM runs the insight and trait prompts against OpenAI-compatible providers,
// falling back along the router's chain on transport errors and 5xx replies.
type LLM struct {
	router  *router.Router
	cfg     config.AnalyzerConfig
	client  *http.Client
	limiter *rate.Limiter
	log     zerolog.Logger
}

// NewLLM creates an LLM analyzer. A zero cfg.RPS disables outbound pacing.
func NewLLM(r *router.Router, cfg config.AnalyzerConfig, log zerolog.Logger) *LLM {
	a := &LLM{
		router: r,
		cfg:    cfg,
		client: &http.Client{},
		log:    log,
	}
	if cfg.RPS > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		a.limiter = rate.NewLimiter(rate.Limit(cfg.RPS), burst)
	}
	return a
}

// Analyze runs both prompts concurrently and merges the results.
func (a *LLM) Analyze(ctx context.Context, question, answer string) (models.Analysis, error) {
	if a.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.cfg.Timeout)
		defer cancel()
	}

	user := userPrompt(question, answer)
	var (
		insight models.Insight
		traits  struct {
			Traits []models.Trait `json:"traits"`
		}
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.complete(gctx, insightSystemPrompt, user, &insight)
	})
	g.Go(func() error {
		return a.complete(gctx, traitSystemPrompt, user, &traits)
	})
	if err := g.Wait(); err != nil {
		return models.Analysis{}, err
	}

	for i := range traits.Traits {
		traits.Traits[i].Score = max(-1, min(1, traits.Traits[i].Score))
	}
	return models.Analysis{Insight: insight, Traits: traits.Traits}, nil
}

// complete sends one chat completion and decodes the JSON reply into out.
func (a *LLM) complete(ctx context.Context, system, user string, out any) error {
	routes, err := a.router.Resolve(a.cfg.Model)
	if err != nil {
		return fmt.Errorf("resolve model: %w", err)
	}

	temp := a.cfg.Temperature
	var lastErr error
	for _, route := range routes {
		if a.limiter != nil {
			if err := a.limiter.Wait(ctx); err != nil {
				return fmt.Errorf("%w: %v", ErrUpstream, err)
			}
		}

		body, err := json.Marshal(models.ChatCompletionRequest{
			Model: route.Model,
			Messages: []models.ChatMessage{
				{Role: "system", Content: system},
				{Role: "user", Content: user},
			},
			Temperature:    &temp,
			ResponseFormat: &models.ResponseFormat{Type: "json_object"},
		})
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}

		status, respBody, err := a.post(ctx, route.Provider, body)
		if err != nil {
			a.log.Warn().Err(err).Str("provider", route.Provider.Name).Msg("upstream failed, trying next")
			lastErr = err
			continue
		}
		if status >= 500 {
			a.log.Warn().Int("status", status).Str("provider", route.Provider.Name).Msg("upstream error, trying next")
			lastErr = fmt.Errorf("provider %s returned %d", route.Provider.Name, status)
			continue
		}
		if status != http.StatusOK {
			return fmt.Errorf("%w: provider %s returned %d", ErrUpstream, route.Provider.Name, status)
		}
		usage, err := decodeContent(respBody, out)
		if usage != nil {
			a.log.Debug().
				Str("provider", route.Provider.Name).
				Str("model", route.Model).
				Int("prompt_tokens", usage.PromptTokens).
				Int("completion_tokens", usage.CompletionTokens).
				Int("total_tokens", usage.TotalTokens).
				Msg("completion usage")
		}
		return err
	}
	return fmt.Errorf("%w: all providers failed: %v", ErrUpstream, lastErr)
}

func (a *LLM) post(ctx context.Context, p config.ProviderConfig, body []byte) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimRight(p.URL, "/")+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return 0, nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.APIKey)

	resp, err := a.client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("read response: %w", err)
	}
	return resp.StatusCode, respBody, nil
}

// decodeContent unmarshals the first choice's content into out and returns
// the reported token usage, which may be nil.
func decodeContent(body []byte, out any) (*models.Usage, error) {
	var chat models.ChatCompletionResponse
	if err := json.Unmarshal(body, &chat); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrUpstream, err)
	}
	if len(chat.Choices) == 0 {
		return chat.Usage, fmt.Errorf("%w: empty choices", ErrUpstream)
	}
	content := chat.Choices[0].Message.Content
	if err := json.Unmarshal([]byte(content), out); err != nil {
		return chat.Usage, fmt.Errorf("%w: decode content: %v", ErrUpstream, err)
	}
	return chat.Usage, nil
}
