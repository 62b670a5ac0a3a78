package dataprocessing

import (
	"math"

	apperrors "github.com/tsmathis/Dilatometry-Analyst/internal/errors"
	"github.com/tsmathis/Dilatometry-Analyst/pkg/contracts/domain"
)

// Normalize references displacement to the first sample of the file and
// expresses it as a percentage of the electrode thickness.
func Normalize(raw *domain.RawTable, refThickness float64) (*domain.NormalizedTable, error) {
	if raw.Len() == 0 {
		return nil, apperrors.NewInsufficientDataError(StageNormalize, "table has no samples")
	}
	if refThickness == 0 || math.IsNaN(refThickness) || math.IsInf(refThickness, 0) {
		return nil, apperrors.NewValueError(StageNormalize,
			"reference thickness must be a finite non-zero number, got %v", refThickness)
	}

	n := raw.Len()
	denom := math.Abs(refThickness)
	out := &domain.NormalizedTable{
		Raw:             raw,
		RefThickness:    refThickness,
		Normalized:      make([]float64, n),
		PercentTotal:    make([]float64, n),
		PercentPerCycle: make([]float64, n),
	}

	for i, s := range raw.Samples {
		out.Normalized[i] = s.DisplacementRaw - raw.ZeroValue
		out.PercentTotal[i] = out.Normalized[i] / denom * 100
	}

	for _, g := range GroupByCycle(raw, raw.Cycles) {
		zero := raw.Samples[g.Rows[0]].DisplacementRaw
		for _, r := range g.Rows {
			out.PercentPerCycle[r] = (raw.Samples[r].DisplacementRaw - zero) / denom * 100
		}
	}
	return out, nil
}

// GroupByCycle returns the row indices of each requested cycle, in the order
// the cycles are listed. Cycles with no rows are omitted.
func GroupByCycle(raw *domain.RawTable, cycles []int) []domain.CycleGroup {
	rows := make(map[int][]int, len(cycles))
	for i, s := range raw.Samples {
		rows[s.Cycle] = append(rows[s.Cycle], i)
	}

	groups := make([]domain.CycleGroup, 0, len(cycles))
	for _, c := range cycles {
		if r, ok := rows[c]; ok {
			groups = append(groups, domain.CycleGroup{Cycle: c, Rows: r})
		}
	}
	return groups
}

// rowsInCycles returns, in acquisition order, the rows whose cycle is listed.
func rowsInCycles(raw *domain.RawTable, cycles []int) []int {
	want := make(map[int]bool, len(cycles))
	for _, c := range cycles {
		want[c] = true
	}
	var rows []int
	for i, s := range raw.Samples {
		if want[s.Cycle] {
			rows = append(rows, i)
		}
	}
	return rows
}
