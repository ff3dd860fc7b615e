package models

import "time"

// Outcome classifies how a request to /analyze was served.
type Outcome string

const (
	OutcomeHit    Outcome = "hit"
	OutcomeMiss   Outcome = "miss"
	OutcomeDenied Outcome = "denied"
	OutcomeError  Outcome = "error"
)

// RequestRecord is one row of the request log.
type RequestRecord struct {
	ID          int64     `json:"id"`
	RequestID   string    `json:"request_id"`
	ClientID    string    `json:"client_id"`
	Fingerprint string    `json:"fingerprint,omitempty"`
	Outcome     Outcome   `json:"outcome"`
	LatencyMs   int64     `json:"latency_ms"`
	CreatedAt   time.Time `json:"created_at"`
}

// RequestSummary aggregates request log rows per client and outcome.
type RequestSummary struct {
	ClientID     string  `json:"client_id"`
	Outcome      Outcome `json:"outcome"`
	RequestCount int     `json:"request_count"`
	AvgLatencyMs float64 `json:"avg_latency_ms"`
}
