package dataprocessing

import (
	"context"
	stderrors "errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/tsmathis/Dilatometry-Analyst/internal/errors"
	"github.com/tsmathis/Dilatometry-Analyst/internal/shared/testutil"
	"github.com/tsmathis/Dilatometry-Analyst/pkg/contracts/domain"
)

var approx = cmpopts.EquateApprox(0, 1e-12)

func TestTolerantMeanStd_EqualLengths(t *testing.T) {
	arrs := [][]float64{
		{1, 2, 3, 10},
		{3, 4, 5, 20},
		{5, 9, 1, 30},
	}

	mean, std, counts, err := TolerantMeanStd(arrs)
	require.NoError(t, err)

	for k := range arrs[0] {
		var sum float64
		for _, a := range arrs {
			sum += a[k]
		}
		m := sum / 3
		var ss float64
		for _, a := range arrs {
			ss += (a[k] - m) * (a[k] - m)
		}
		assert.InDelta(t, m, mean[k], 1e-12)
		assert.InDelta(t, math.Sqrt(ss/3), std[k], 1e-12)
		assert.Equal(t, 3, counts[k])
	}
}

func TestTolerantMeanStd_Ragged(t *testing.T) {
	arrs := [][]float64{
		{1, 2, 3, 4, 5},
		{3, 4, 5, 6, 9},
		{2, 3, 4},
	}

	mean, std, counts, err := TolerantMeanStd(arrs)
	require.NoError(t, err)

	require.Len(t, mean, 5)
	assert.Equal(t, []int{3, 3, 3, 2, 2}, counts)
	assert.InDelta(t, 7.0, mean[4], 1e-12)
	assert.InDelta(t, 2.0, std[4], 1e-12)
	assert.InDelta(t, 5.0, mean[3], 1e-12)
	assert.InDelta(t, 1.0, std[3], 1e-12)
	assert.InDelta(t, 2.0, mean[0], 1e-12)
}

func TestTolerantMeanStd_Empty(t *testing.T) {
	_, _, _, err := TolerantMeanStd(nil)
	assert.True(t, stderrors.Is(err, apperrors.ErrInsufficientData))
}

// correctedFromRows builds a corrected table over every row with the
// displacement set to cycle*100 + position.
func correctedFromRows(t *testing.T, rows []testutil.Row) *domain.CorrectedTable {
	t.Helper()
	norm := normalizedRows(t, rows, 1)
	ct := &domain.CorrectedTable{Source: norm, Strategy: "test"}
	pos := 0
	for i, s := range norm.Raw.Samples {
		if i > 0 && s.Cycle != norm.Raw.Samples[i-1].Cycle {
			pos = 0
		}
		ct.Rows = append(ct.Rows, i)
		v := float64(s.Cycle*100 + pos)
		ct.DisplacementMinusBaseline = append(ct.DisplacementMinusBaseline, v)
		ct.PercentMinusBaseline = append(ct.PercentMinusBaseline, v/2)
		pos++
	}
	return ct
}

func TestAverager_ExcludesFirstAndLastCycle(t *testing.T) {
	averager, err := NewAverager(DefaultAverageOptions(), nil)
	require.NoError(t, err)
	ct := correctedFromRows(t, testutil.Ramp(4, 3, 1))

	res, err := averager.Average(context.Background(), ct)
	require.NoError(t, err)

	assert.Equal(t, []int{2, 3}, res.CyclesAveraged)
	assert.Equal(t, []int{2, 2, 2}, res.Contributors)
	if diff := cmp.Diff([]float64{0, 1, 2}, res.Time, approx); diff != "" {
		t.Errorf("time mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]float64{0, 1, 2}, res.Displacement, approx); diff != "" {
		t.Errorf("displacement mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]float64{0, 0.5, 1}, res.Percent, approx); diff != "" {
		t.Errorf("percent mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]float64{50, 50, 50}, res.DisplacementStdDev, approx); diff != "" {
		t.Errorf("displacement std mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]float64{0, 0.1, 0.2}, res.Potential, approx); diff != "" {
		t.Errorf("potential mismatch (-want +got):\n%s", diff)
	}
	assert.True(t, res.HasCharge)
	assert.Len(t, res.Charge, 3)
	assert.Equal(t, []float64{0, 0, 0}, res.CurrentStdDev)
}

func TestAverager_RaggedCycles(t *testing.T) {
	var rows []testutil.Row
	lengths := []int{4, 4, 2, 4, 4}
	for c, n := range lengths {
		for j := 0; j < n; j++ {
			rows = append(rows, testutil.Row{
				Time:         float64(len(rows)),
				Cycle:        float64(c + 1),
				Displacement: float64(j),
			})
		}
	}
	ct := correctedFromRows(t, rows)

	t.Run("keeps tail by default", func(t *testing.T) {
		averager, err := NewAverager(DefaultAverageOptions(), nil)
		require.NoError(t, err)

		res, err := averager.Average(context.Background(), ct)
		require.NoError(t, err)
		assert.Equal(t, 4, res.Len())
		assert.Equal(t, []int{3, 3, 2, 2}, res.Contributors)
	})

	t.Run("truncates below min contributors", func(t *testing.T) {
		averager, err := NewAverager(AverageOptions{MinContributors: 3}, nil)
		require.NoError(t, err)

		res, err := averager.Average(context.Background(), ct)
		require.NoError(t, err)
		assert.Equal(t, 2, res.Len())
		assert.Len(t, res.DisplacementStdDev, 2)
		assert.Len(t, res.Charge, 2)
		assert.Equal(t, []int{3, 3}, res.Contributors)
	})

	t.Run("fails when nothing is left", func(t *testing.T) {
		averager, err := NewAverager(AverageOptions{MinContributors: 4}, nil)
		require.NoError(t, err)

		_, err = averager.Average(context.Background(), ct)
		assert.True(t, stderrors.Is(err, apperrors.ErrInsufficientData))
	})
}

func TestAverager_Errors(t *testing.T) {
	_, err := NewAverager(AverageOptions{MinContributors: 0}, nil)
	assert.True(t, stderrors.Is(err, apperrors.ErrValue))

	averager, err := NewAverager(DefaultAverageOptions(), nil)
	require.NoError(t, err)

	_, err = averager.Average(context.Background(), correctedFromRows(t, testutil.Ramp(2, 3, 1)))
	assert.True(t, stderrors.Is(err, apperrors.ErrInsufficientData))

	_, err = averager.Average(context.Background(), &domain.CorrectedTable{})
	assert.True(t, stderrors.Is(err, apperrors.ErrInsufficientData))
}
