package dataprocessing

import (
	"context"
	"log/slog"

	"gonum.org/v1/gonum/interp"

	apperrors "github.com/tsmathis/Dilatometry-Analyst/internal/errors"
	"github.com/tsmathis/Dilatometry-Analyst/pkg/contracts/domain"
)

// SplineBaseline fits a cubic spline through the displacement maximum of
// every cycle after the first and subtracts it from those cycles.
type SplineBaseline struct {
	logger *slog.Logger
}

// NewSplineBaseline creates a spline-through-maxima estimator
func NewSplineBaseline(logger *slog.Logger) *SplineBaseline {
	if logger == nil {
		logger = slog.Default()
	}
	return &SplineBaseline{logger: logger}
}

// Name implements BaselineStrategy
func (s *SplineBaseline) Name() string { return StrategySpline }

// EstimateAndSubtract implements BaselineStrategy
func (s *SplineBaseline) EstimateAndSubtract(ctx context.Context, table *domain.NormalizedTable) (*domain.CorrectedTable, error) {
	raw := table.Raw
	if len(raw.Cycles) < 3 {
		return nil, apperrors.NewInsufficientDataError(StageBaseline,
			"spline baseline needs at least 2 cycles after the first, file has %d cycles", len(raw.Cycles))
	}
	fitCycles := raw.Cycles[1:]

	knotX := make([]float64, 0, len(fitCycles))
	knotY := make([]float64, 0, len(fitCycles))
	for _, g := range GroupByCycle(raw, fitCycles) {
		best := g.Rows[0]
		for _, r := range g.Rows[1:] {
			if table.Normalized[r] > table.Normalized[best] {
				best = r
			}
		}
		knotX = append(knotX, raw.Samples[best].Time)
		knotY = append(knotY, table.Normalized[best])
	}
	if len(knotX) < 2 {
		return nil, apperrors.NewInsufficientDataError(StageBaseline,
			"spline baseline needs at least 2 maxima, found %d", len(knotX))
	}

	baseline, order, err := fitMaxima(knotX, knotY)
	if err != nil {
		return nil, err
	}
	if order < 3 {
		s.logger.WarnContext(ctx, "too few maxima for a cubic spline, lowering fit order",
			"file", raw.Source,
			"maxima", len(knotX),
			"order", order)
	}

	rows := rowsInCycles(raw, fitCycles)
	corrected := make([]float64, len(rows))
	for i, r := range rows {
		corrected[i] = table.Normalized[r] - baseline(raw.Samples[r].Time)
	}
	offset := corrected[0]
	for i := range corrected {
		corrected[i] -= offset
	}

	s.logger.DebugContext(ctx, "spline baseline removed",
		"file", raw.Source,
		"maxima", len(knotX),
		"rows", len(rows))

	return &domain.CorrectedTable{
		Source:                    table,
		Strategy:                  StrategySpline,
		FitOrder:                  order,
		Rows:                      rows,
		DisplacementMinusBaseline: corrected,
		PercentMinusBaseline:      percentOf(corrected, table.RefThickness),
	}, nil
}

// fitMaxima returns an interpolant through the knots that also extrapolates
// beyond them, together with its polynomial order. Four or more knots give a
// not-a-knot cubic spline; fewer knots fall back to the interpolating
// polynomial of degree len-1.
func fitMaxima(xs, ys []float64) (func(float64) float64, int, error) {
	for i := 1; i < len(xs); i++ {
		if !(xs[i] > xs[i-1]) {
			return nil, 0, apperrors.NewValueError(StageBaseline,
				"cycle maxima times must be strictly increasing (%v after %v)", xs[i], xs[i-1])
		}
	}

	if len(xs) < 4 {
		px := append([]float64(nil), xs...)
		py := append([]float64(nil), ys...)
		return func(x float64) float64 { return lagrange(px, py, x) }, len(xs) - 1, nil
	}

	var spline interp.NotAKnotCubic
	if err := spline.Fit(xs, ys); err != nil {
		return nil, 0, apperrors.NewValueError(StageBaseline, "spline fit failed: %v", err)
	}
	return extrapolating(&spline, xs), 3, nil
}

// extrapolating continues the first and last cubic pieces past the knot
// range; gonum predictors clamp there instead.
func extrapolating(p interp.Predictor, xs []float64) func(float64) float64 {
	lo, hi := xs[0], xs[len(xs)-1]
	head := segmentCubic(p, xs[0], xs[1])
	tail := segmentCubic(p, xs[len(xs)-2], hi)
	return func(x float64) float64 {
		switch {
		case x < lo:
			return head(x)
		case x > hi:
			return tail(x)
		}
		return p.Predict(x)
	}
}

// segmentCubic recovers the cubic piece on [a, b] from four samples.
func segmentCubic(p interp.Predictor, a, b float64) func(float64) float64 {
	h := (b - a) / 3
	px := []float64{a, a + h, a + 2*h, b}
	py := make([]float64, len(px))
	for i, x := range px {
		py[i] = p.Predict(x)
	}
	return func(x float64) float64 { return lagrange(px, py, x) }
}

func lagrange(xs, ys []float64, x float64) float64 {
	var sum float64
	for i := range xs {
		term := ys[i]
		for j := range xs {
			if j != i {
				term *= (x - xs[j]) / (xs[i] - xs[j])
			}
		}
		sum += term
	}
	return sum
}
