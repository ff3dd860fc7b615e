package models

import (
	"errors"
	"strings"
)

// ErrInvalidRequest is returned by AnalysisRequest.Validate.
var ErrInvalidRequest = errors.New("invalid request")

// AnalysisRequest is the body of POST /analyze.
type AnalysisRequest struct {
	UserID   string `json:"user_id"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Validate checks that every field carries text.
func (r AnalysisRequest) Validate() error {
	switch {
	case strings.TrimSpace(r.UserID) == "":
		return errors.Join(ErrInvalidRequest, errors.New("user_id is required"))
	case strings.TrimSpace(r.Question) == "":
		return errors.Join(ErrInvalidRequest, errors.New("question is required"))
	case strings.TrimSpace(r.Answer) == "":
		return errors.Join(ErrInvalidRequest, errors.New("answer is required"))
	}
	return nil
}

// Insight is a short summary of an answer plus its key phrases.
type Insight struct {
	Summary  string   `json:"summary"`
	Keywords []string `json:"keywords"`
}

// Trait is one personality trait score in [-1, 1] with a one-line reason.
type Trait struct {
	Name   string  `json:"name"`
	Score  float64 `json:"score"`
	Reason string  `json:"reason"`
}

// Analysis is the computed, user-independent result that gets cached.
type Analysis struct {
	Insight Insight `json:"insight"`
	Traits  []Trait `json:"traits"`
}

// AnalysisResponse is the body returned from POST /analyze.
type AnalysisResponse struct {
	UserID  string  `json:"user_id"`
	Insight Insight `json:"insight"`
	Traits  []Trait `json:"traits"`
}
