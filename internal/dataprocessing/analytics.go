package dataprocessing

import (
	apperrors "github.com/tsmathis/Dilatometry-Analyst/internal/errors"
	"github.com/tsmathis/Dilatometry-Analyst/pkg/contracts/domain"
)

// Gradient returns dy/dx for samples on a possibly non-uniform grid.
// Interior points use the second-order central difference; the two end
// points use one-sided first differences.
func Gradient(y, x []float64) ([]float64, error) {
	if len(y) != len(x) {
		return nil, apperrors.NewValueError(StageDerive,
			"gradient needs equal lengths, got %d values and %d coordinates", len(y), len(x))
	}
	n := len(y)
	if n < 2 {
		return nil, apperrors.NewInsufficientDataError(StageDerive, "gradient needs at least 2 points, got %d", n)
	}

	for i := 1; i < n; i++ {
		if !(x[i] > x[i-1]) {
			return nil, apperrors.NewValueError(StageDerive,
				"coordinates must be strictly increasing, got %v after %v at index %d", x[i], x[i-1], i)
		}
	}

	out := make([]float64, n)
	out[0] = (y[1] - y[0]) / (x[1] - x[0])
	out[n-1] = (y[n-1] - y[n-2]) / (x[n-1] - x[n-2])
	for i := 1; i < n-1; i++ {
		hs := x[i] - x[i-1]
		hd := x[i+1] - x[i]
		out[i] = (hs*hs*y[i+1] + (hd*hd-hs*hs)*y[i] - hd*hd*y[i-1]) / (hs * hd * (hd + hs))
	}
	return out, nil
}

// DeriveRate returns a copy of res with the displacement rate, and the
// charge rate when charge is present, filled in.
func DeriveRate(res *domain.AveragedResult) (*domain.AveragedResult, error) {
	if res == nil {
		return nil, apperrors.NewInsufficientDataError(StageDerive, "no averaged result")
	}
	out := *res
	var err error
	if out.DisplacementRate, err = Gradient(res.Displacement, res.Time); err != nil {
		return nil, err
	}
	if res.HasCharge {
		if out.ChargeRate, err = Gradient(res.Charge, res.Time); err != nil {
			return nil, err
		}
	}
	return &out, nil
}
