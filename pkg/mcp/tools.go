package mcp

import (
	"context"
	"encoding/json"

	"github.com/pario-ai/memogate/pkg/cache/lru"
)

type clientArgs struct {
	Client string `json:"client"`
	Limit  int    `json:"limit"`
}

type fingerprintArgs struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

type toolHandler func(ctx context.Context, s *Server, args json.RawMessage) toolCallResult

var handlers = map[string]toolHandler{
	"memogate_stats":           handleStats,
	"memogate_recent_requests": handleRecent,
	"memogate_cache_stats":     handleCacheStats,
	"memogate_limit_status":    handleLimitStatus,
	"memogate_fingerprint":     handleFingerprint,
}

func stringProp(desc string) map[string]any {
	return map[string]any{"type": "string", "description": desc}
}

var tools = []Tool{
	{
		Name:        "memogate_stats",
		Description: "Summarize logged analyze requests by client and outcome (hit, miss, denied, error).",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"client": stringProp("Filter by client (optional)"),
			},
		},
	},
	{
		Name:        "memogate_recent_requests",
		Description: "List the most recent analyze requests from the request log.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"client": stringProp("Filter by client (optional)"),
				"limit":  map[string]any{"type": "integer", "description": "Maximum rows (default 20)"},
			},
		},
	},
	{
		Name:        "memogate_cache_stats",
		Description: "Show live result cache statistics from the running server.",
		InputSchema: map[string]any{
			"type":       "object",
			"properties": map[string]any{},
		},
	},
	{
		Name:        "memogate_limit_status",
		Description: "Show a client's minute and hour window usage on the running server without consuming quota.",
		InputSchema: map[string]any{
			"type":     "object",
			"required": []string{"client"},
			"properties": map[string]any{
				"client": stringProp("Client identity (IP address)"),
			},
		},
	},
	{
		Name:        "memogate_fingerprint",
		Description: "Compute the cache key for a question and answer.",
		InputSchema: map[string]any{
			"type":     "object",
			"required": []string{"question", "answer"},
			"properties": map[string]any{
				"question": stringProp("Question text"),
				"answer":   stringProp("Answer text"),
			},
		},
	},
}

func textResult(text string) toolCallResult {
	return toolCallResult{Content: []contentBlock{{Type: "text", Text: text}}}
}

func errorResult(text string) toolCallResult {
	return toolCallResult{Content: []contentBlock{{Type: "text", Text: text}}, IsError: true}
}

func decodeArgs(raw json.RawMessage, v any) bool {
	if len(raw) == 0 {
		return true
	}
	return json.Unmarshal(raw, v) == nil
}

func handleStats(ctx context.Context, s *Server, raw json.RawMessage) toolCallResult {
	if s.tracker == nil {
		return textResult("Request log is not configured.")
	}
	var args clientArgs
	if !decodeArgs(raw, &args) {
		return errorResult("invalid arguments")
	}
	rows, err := s.tracker.Summary(ctx, args.Client)
	if err != nil {
		return errorResult("Error fetching stats: " + err.Error())
	}
	return textResult(formatSummary(rows))
}

func handleRecent(ctx context.Context, s *Server, raw json.RawMessage) toolCallResult {
	if s.tracker == nil {
		return textResult("Request log is not configured.")
	}
	var args clientArgs
	if !decodeArgs(raw, &args) {
		return errorResult("invalid arguments")
	}
	if args.Limit <= 0 {
		args.Limit = 20
	}
	recs, err := s.tracker.Recent(ctx, args.Client, args.Limit)
	if err != nil {
		return errorResult("Error fetching requests: " + err.Error())
	}
	return textResult(formatRecent(recs))
}

func handleCacheStats(ctx context.Context, s *Server, _ json.RawMessage) toolCallResult {
	if s.status == nil {
		return textResult("No memogate server is configured.")
	}
	stats, err := s.status.CacheStats(ctx)
	if err != nil {
		return errorResult("Error fetching cache stats: " + err.Error())
	}
	return textResult(formatCacheStats(stats))
}

func handleLimitStatus(ctx context.Context, s *Server, raw json.RawMessage) toolCallResult {
	if s.status == nil {
		return textResult("No memogate server is configured.")
	}
	var args clientArgs
	if !decodeArgs(raw, &args) {
		return errorResult("invalid arguments")
	}
	if args.Client == "" {
		return errorResult("client is required")
	}
	st, err := s.status.LimitStatus(ctx, args.Client)
	if err != nil {
		return errorResult("Error fetching limit status: " + err.Error())
	}
	return textResult(formatLimitStatus(st))
}

func handleFingerprint(_ context.Context, _ *Server, raw json.RawMessage) toolCallResult {
	var args fingerprintArgs
	if !decodeArgs(raw, &args) {
		return errorResult("invalid arguments")
	}
	return textResult(lru.Fingerprint(args.Question, args.Answer))
}
