package dataprocessing

import (
	"context"
	"log/slog"
	"math"

	apperrors "github.com/tsmathis/Dilatometry-Analyst/internal/errors"
	"github.com/tsmathis/Dilatometry-Analyst/pkg/contracts/domain"
)

// NewBaselineStrategy returns the estimator registered under name.
func NewBaselineStrategy(name string, opts BaselineOptions, logger *slog.Logger) (BaselineStrategy, error) {
	switch name {
	case StrategySpline, "":
		return NewSplineBaseline(logger), nil
	case StrategyPolynomial:
		return NewPolynomialBaseline(opts, logger)
	default:
		return nil, apperrors.NewValueError(StageBaseline, "unknown baseline strategy %q", name)
	}
}

// RemoveBaseline runs strategy on table.
func RemoveBaseline(ctx context.Context, table *domain.NormalizedTable, strategy BaselineStrategy) (*domain.CorrectedTable, error) {
	if strategy == nil {
		return nil, apperrors.NewValueError(StageBaseline, "no baseline strategy configured")
	}
	if table.Len() == 0 || table.Raw == nil {
		return nil, apperrors.NewInsufficientDataError(StageBaseline, "table has no samples")
	}
	return strategy.EstimateAndSubtract(ctx, table)
}

// percentOf scales values to percent of the absolute reference.
func percentOf(values []float64, ref float64) []float64 {
	denom := math.Abs(ref)
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = v / denom * 100
	}
	return out
}
