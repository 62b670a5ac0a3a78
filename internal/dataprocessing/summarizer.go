package dataprocessing

import (
	"context"
	"log/slog"

	"github.com/montanaflynn/stats"

	apperrors "github.com/tsmathis/Dilatometry-Analyst/internal/errors"
	"github.com/tsmathis/Dilatometry-Analyst/pkg/contracts/domain"
)

// Averager collapses the interior cycles of a corrected table into one
// averaged cycle with per-position spread.
type Averager struct {
	opts   AverageOptions
	logger *slog.Logger
}

// NewAverager creates a cycle averager
func NewAverager(opts AverageOptions, logger *slog.Logger) (*Averager, error) {
	if opts.MinContributors < 1 {
		return nil, apperrors.NewValueError(StageAverage, "min contributors must be >= 1, got %d", opts.MinContributors)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Averager{opts: opts, logger: logger}, nil
}

// TolerantMeanStd computes, for every position reached by at least one of
// arrs, the mean and population standard deviation of the values present
// there. counts holds the number of arrays contributing to each position.
func TolerantMeanStd(arrs [][]float64) (mean, std []float64, counts []int, err error) {
	if len(arrs) == 0 {
		return nil, nil, nil, apperrors.NewInsufficientDataError(StageAverage, "no sequences to average")
	}
	maxLen := 0
	for _, a := range arrs {
		if len(a) > maxLen {
			maxLen = len(a)
		}
	}

	mean = make([]float64, maxLen)
	std = make([]float64, maxLen)
	counts = make([]int, maxLen)
	values := make([]float64, 0, len(arrs))
	for k := 0; k < maxLen; k++ {
		values = values[:0]
		for _, a := range arrs {
			if k < len(a) {
				values = append(values, a[k])
			}
		}
		if mean[k], err = stats.Mean(values); err != nil {
			return nil, nil, nil, apperrors.NewValueError(StageAverage, "mean at position %d: %v", k, err)
		}
		if std[k], err = stats.StandardDeviationPopulation(values); err != nil {
			return nil, nil, nil, apperrors.NewValueError(StageAverage, "std at position %d: %v", k, err)
		}
		counts[k] = len(values)
	}
	return mean, std, counts, nil
}

// cycleSeries holds one cycle's columns with time re-zeroed.
type cycleSeries struct {
	time, potential, current, charge, displacement, percent []float64
}

// Average averages the cycles strictly between the first and last cycle of
// the originating file. Displacement and percent averages are re-referenced
// to their first position.
func (a *Averager) Average(ctx context.Context, table *domain.CorrectedTable) (*domain.AveragedResult, error) {
	if table.Len() == 0 {
		return nil, apperrors.NewInsufficientDataError(StageAverage, "corrected table is empty")
	}
	cycles := table.Cycles()
	if len(cycles) < 3 {
		return nil, apperrors.NewInsufficientDataError(StageAverage,
			"averaging needs at least 3 cycles, file has %d", len(cycles))
	}
	interior := cycles[1 : len(cycles)-1]

	byCycle := make(map[int]*cycleSeries, len(interior))
	for _, c := range interior {
		byCycle[c] = nil
	}
	var order []int
	for i := 0; i < table.Len(); i++ {
		s := table.Sample(i)
		cs, want := byCycle[s.Cycle]
		if !want {
			continue
		}
		if cs == nil {
			cs = &cycleSeries{}
			byCycle[s.Cycle] = cs
			order = append(order, s.Cycle)
		}
		cs.time = append(cs.time, s.Time)
		cs.potential = append(cs.potential, s.Potential)
		cs.current = append(cs.current, s.Current)
		cs.charge = append(cs.charge, s.Charge)
		cs.displacement = append(cs.displacement, table.DisplacementMinusBaseline[i])
		cs.percent = append(cs.percent, table.PercentMinusBaseline[i])
	}
	if len(order) == 0 {
		return nil, apperrors.NewInsufficientDataError(StageAverage,
			"none of the interior cycles %v are present in the corrected table", interior)
	}

	series := make([]*cycleSeries, len(order))
	for i, c := range order {
		cs := byCycle[c]
		t0 := cs.time[0]
		for k := range cs.time {
			cs.time[k] -= t0
		}
		series[i] = cs
	}
	collect := func(get func(*cycleSeries) []float64) [][]float64 {
		out := make([][]float64, len(series))
		for i, cs := range series {
			out[i] = get(cs)
		}
		return out
	}

	res := &domain.AveragedResult{
		CyclesAveraged: order,
		HasCharge:      table.HasCharge(),
	}
	var err error
	if res.Time, _, res.Contributors, err = TolerantMeanStd(collect(func(c *cycleSeries) []float64 { return c.time })); err != nil {
		return nil, err
	}
	if res.Potential, _, _, err = TolerantMeanStd(collect(func(c *cycleSeries) []float64 { return c.potential })); err != nil {
		return nil, err
	}
	if res.Current, res.CurrentStdDev, _, err = TolerantMeanStd(collect(func(c *cycleSeries) []float64 { return c.current })); err != nil {
		return nil, err
	}
	if res.HasCharge {
		if res.Charge, res.ChargeStdDev, _, err = TolerantMeanStd(collect(func(c *cycleSeries) []float64 { return c.charge })); err != nil {
			return nil, err
		}
	}
	if res.Displacement, res.DisplacementStdDev, _, err = TolerantMeanStd(collect(func(c *cycleSeries) []float64 { return c.displacement })); err != nil {
		return nil, err
	}
	if res.Percent, res.PercentStdDev, _, err = TolerantMeanStd(collect(func(c *cycleSeries) []float64 { return c.percent })); err != nil {
		return nil, err
	}

	rezero(res.Displacement)
	rezero(res.Percent)

	if cut := a.cutoff(res.Contributors); cut < res.Len() {
		if cut == 0 {
			return nil, apperrors.NewInsufficientDataError(StageAverage,
				"no position is reached by %d cycles", a.opts.MinContributors)
		}
		a.logger.InfoContext(ctx, "truncating averaged cycle",
			"file", table.Source.Raw.Source,
			"min_contributors", a.opts.MinContributors,
			"from", res.Len(),
			"to", cut)
		truncateResult(res, cut)
	}

	a.logger.DebugContext(ctx, "cycles averaged",
		"file", table.Source.Raw.Source,
		"cycles", order,
		"length", res.Len())
	return res, nil
}

// cutoff returns the first position reached by fewer than MinContributors
// cycles. Contributor counts never increase along the cycle.
func (a *Averager) cutoff(counts []int) int {
	for i, c := range counts {
		if c < a.opts.MinContributors {
			return i
		}
	}
	return len(counts)
}

func rezero(values []float64) {
	if len(values) == 0 {
		return
	}
	ref := values[0]
	for i := range values {
		values[i] -= ref
	}
}

func truncateResult(res *domain.AveragedResult, n int) {
	cut := func(v []float64) []float64 {
		if len(v) > n {
			return v[:n]
		}
		return v
	}
	res.Time = cut(res.Time)
	res.Potential = cut(res.Potential)
	res.Current = cut(res.Current)
	res.CurrentStdDev = cut(res.CurrentStdDev)
	res.Charge = cut(res.Charge)
	res.ChargeStdDev = cut(res.ChargeStdDev)
	res.Displacement = cut(res.Displacement)
	res.DisplacementStdDev = cut(res.DisplacementStdDev)
	res.Percent = cut(res.Percent)
	res.PercentStdDev = cut(res.PercentStdDev)
	res.Contributors = res.Contributors[:n]
}
