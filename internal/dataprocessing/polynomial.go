package dataprocessing

import (
	"context"
	"log/slog"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	apperrors "github.com/tsmathis/Dilatometry-Analyst/internal/errors"
	"github.com/tsmathis/Dilatometry-Analyst/pkg/contracts/domain"
)

// pinvRcond is the relative singular value cutoff of the pseudo-inverse.
const pinvRcond = 1e-15

// PolynomialBaseline estimates the baseline by repeatedly fitting a
// polynomial and clipping the signal to it, so peaks stop pulling the fit
// upwards. It runs on the interior cycles of a file.
type PolynomialBaseline struct {
	opts   BaselineOptions
	logger *slog.Logger
}

// NewPolynomialBaseline creates an iterative polynomial estimator
func NewPolynomialBaseline(opts BaselineOptions, logger *slog.Logger) (*PolynomialBaseline, error) {
	if opts.PolynomialDegree < 0 {
		return nil, apperrors.NewValueError(StageBaseline, "polynomial degree must be >= 0, got %d", opts.PolynomialDegree)
	}
	if opts.MaxIterations < 1 {
		return nil, apperrors.NewValueError(StageBaseline, "max iterations must be >= 1, got %d", opts.MaxIterations)
	}
	if !(opts.Tolerance > 0) {
		return nil, apperrors.NewValueError(StageBaseline, "tolerance must be positive, got %v", opts.Tolerance)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PolynomialBaseline{opts: opts, logger: logger}, nil
}

// Name implements BaselineStrategy
func (p *PolynomialBaseline) Name() string { return StrategyPolynomial }

// EstimateAndSubtract implements BaselineStrategy
func (p *PolynomialBaseline) EstimateAndSubtract(ctx context.Context, table *domain.NormalizedTable) (*domain.CorrectedTable, error) {
	raw := table.Raw
	if len(raw.Cycles) < 3 {
		return nil, apperrors.NewInsufficientDataError(StageBaseline,
			"polynomial baseline needs an interior cycle, file has %d cycles", len(raw.Cycles))
	}
	rows := rowsInCycles(raw, raw.Cycles[1:len(raw.Cycles)-1])
	if len(rows) < p.opts.PolynomialDegree+1 {
		return nil, apperrors.NewInsufficientDataError(StageBaseline,
			"polynomial baseline of degree %d needs %d points, got %d",
			p.opts.PolynomialDegree, p.opts.PolynomialDegree+1, len(rows))
	}

	zero := raw.Samples[rows[0]].DisplacementRaw
	if zero == 0 {
		return nil, apperrors.NewValueError(StageBaseline,
			"first raw displacement of the interior cycles is zero, cannot express it as a percentage")
	}

	y := make([]float64, len(rows))
	yPct := make([]float64, len(rows))
	for i, r := range rows {
		y[i] = table.Normalized[r] - table.Normalized[rows[0]]
		yPct[i] = (raw.Samples[r].DisplacementRaw - zero) / math.Abs(zero) * 100
	}

	base, iters, err := iterativeBaseline(y, p.opts)
	if err != nil {
		return nil, err
	}
	basePct, _, err := iterativeBaseline(yPct, p.opts)
	if err != nil {
		return nil, err
	}

	floats.Sub(y, base)
	floats.Sub(yPct, basePct)

	p.logger.DebugContext(ctx, "polynomial baseline removed",
		"file", raw.Source,
		"degree", p.opts.PolynomialDegree,
		"iterations", iters,
		"rows", len(rows))

	return &domain.CorrectedTable{
		Source:                    table,
		Strategy:                  StrategyPolynomial,
		FitOrder:                  p.opts.PolynomialDegree,
		Rows:                      rows,
		DisplacementMinusBaseline: y,
		PercentMinusBaseline:      yPct,
	}, nil
}

// iterativeBaseline fits the baseline of y on an abscissa spanning
// [0, max|y|^(1/(degree+1))]. It returns the baseline and the number of
// iterations run.
func iterativeBaseline(y []float64, opts BaselineOptions) ([]float64, int, error) {
	n := len(y)
	order := opts.PolynomialDegree + 1

	maxAbs := 0.0
	for _, v := range y {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, 0, apperrors.NewValueError(StageBaseline, "signal contains non-finite values")
		}
		maxAbs = math.Max(maxAbs, math.Abs(v))
	}
	if maxAbs == 0 {
		return make([]float64, n), 0, nil
	}

	x := make([]float64, n)
	if n > 1 {
		floats.Span(x, 0, math.Pow(maxAbs, 1/float64(order)))
	}

	vander := mat.NewDense(n, order, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < order; j++ {
			vander.Set(i, j, math.Pow(x[i], float64(order-1-j)))
		}
	}

	var svd mat.SVD
	if ok := svd.Factorize(vander, mat.SVDThin); !ok {
		return nil, 0, apperrors.NewValueError(StageBaseline, "polynomial baseline: SVD factorization failed")
	}
	rank := svd.Rank(pinvRcond)
	if rank == 0 {
		return nil, 0, apperrors.NewValueError(StageBaseline, "polynomial baseline: design matrix is singular")
	}

	work := append([]float64(nil), y...)
	base := append([]float64(nil), y...)
	coeffs := make([]float64, order)
	for i := range coeffs {
		coeffs[i] = 1
	}

	iters := 0
	for iters < opts.MaxIterations {
		iters++
		var next mat.VecDense
		svd.SolveVecTo(&next, mat.NewVecDense(n, work), rank)
		nextCoeffs := append([]float64(nil), next.RawVector().Data...)

		norm := floats.Norm(coeffs, 2)
		if norm > 0 && floats.Distance(nextCoeffs, coeffs, 2)/norm < opts.Tolerance {
			break
		}
		coeffs = nextCoeffs

		var fitted mat.VecDense
		fitted.MulVec(vander, mat.NewVecDense(order, coeffs))
		for i := 0; i < n; i++ {
			base[i] = fitted.AtVec(i)
			work[i] = math.Min(work[i], base[i])
		}
	}
	return base, iters, nil
}
