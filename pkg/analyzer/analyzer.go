// Package analyzer produces an Analysis for a question/answer pair by asking
// an upstream LLM. It is the slow, paid operation the cache sits in front of.
package analyzer

import (
	"context"
	"errors"

	"github.com/pario-ai/memogate/pkg/models"
)

// ErrUpstream is returned when no provider produced a usable reply.
var ErrUpstream = errors.New("upstream analysis failed")

// Analyzer computes an analysis. Implementations may be slow and may fail.
type Analyzer interface {
	Analyze(ctx context.Context, question, answer string) (models.Analysis, error)
}

// Func adapts a function to the Analyzer interface.
type Func func(ctx context.Context, question, answer string) (models.Analysis, error)

// Analyze calls f.
func (f Func) Analyze(ctx context.Context, question, answer string) (models.Analysis, error) {
	return f(ctx, question, answer)
}
