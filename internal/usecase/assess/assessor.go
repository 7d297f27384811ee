package assess

import (
	"context"
	"log/slog"
	"time"

	"github.com/wang2-lat/my-personal-bloomberg/internal/domain/entity"
	"github.com/wang2-lat/my-personal-bloomberg/internal/observability/logging"
	"github.com/wang2-lat/my-personal-bloomberg/internal/observability/metrics"
)

// Assessor produces AI assessments for news items.
type Assessor struct {
	analyst Analyst
}

// NewAssessor creates an Assessor backed by the given AI backend.
func NewAssessor(analyst Analyst) *Assessor {
	return &Assessor{analyst: analyst}
}

// Assess builds the prompt, calls the backend, and parses the response.
// A backend failure or an unparseable response degrades to the default
// assessment; the caller always gets something deliverable.
func (a *Assessor) Assess(ctx context.Context, title, symbol string, snap entity.MarketSnapshot, derived entity.DerivedMetrics) entity.AIAssessment {
	logger := logging.FromContext(ctx)

	prompt := BuildPrompt(title, symbol, snap, derived)

	start := time.Now()
	raw, err := a.analyst.Analyze(ctx, prompt)
	elapsed := time.Since(start)

	if err != nil {
		logger.Warn("AI assessment failed, using defaults",
			slog.String("backend", a.analyst.Name()),
			slog.String("symbol", symbol),
			slog.Any("error", err))
		result := FailureAssessment()
		metrics.RecordAssessment(true, result.Score, elapsed)
		return result
	}

	result := Extract(raw)
	if result.Defaulted {
		logger.Warn("AI response had no extractable fields",
			slog.String("backend", a.analyst.Name()),
			slog.String("symbol", symbol))
	}
	metrics.RecordAssessment(result.Defaulted, result.Score, elapsed)

	logger.Info("AI assessment completed",
		slog.String("backend", a.analyst.Name()),
		slog.String("symbol", symbol),
		slog.Int("score", result.Score),
		slog.Duration("duration", elapsed))
	return result
}
