package dataprocessing

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/tsmathis/Dilatometry-Analyst/internal/errors"
	"github.com/tsmathis/Dilatometry-Analyst/internal/shared/testutil"
	"github.com/tsmathis/Dilatometry-Analyst/pkg/contracts/domain"
)

func TestParse_ValidFile(t *testing.T) {
	rows := testutil.Ramp(3, 4, 0.5)
	rows[0].Displacement = 2.5

	table, err := Parse(strings.NewReader(testutil.MeasurementText(rows, true)), "run1.txt", DefaultLoaderOptions())
	require.NoError(t, err)

	assert.Equal(t, "run1.txt", table.Source)
	assert.Equal(t, 12, table.Len())
	assert.Equal(t, []int{1, 2, 3}, table.Cycles)
	assert.True(t, table.HasCharge)
	assert.Equal(t, 2.5, table.ZeroValue)

	s := table.Samples[5]
	assert.Equal(t, 2, s.Cycle)
	assert.InDelta(t, 5.0, s.Time, 1e-12)
	assert.InDelta(t, 0.1, s.Potential, 1e-12)
	assert.InDelta(t, 1.0, s.Current, 1e-12)
	assert.InDelta(t, 0.01, s.Charge, 1e-12)
	assert.InDelta(t, 0.5, s.DisplacementRaw, 1e-12)
}

func TestParse_WithoutChargeColumn(t *testing.T) {
	text := testutil.MeasurementText(testutil.Ramp(3, 2, 1), false)

	table, err := Parse(strings.NewReader(text), "nocharge.txt", DefaultLoaderOptions())
	require.NoError(t, err)
	assert.False(t, table.HasCharge)
	assert.Zero(t, table.Samples[1].Charge)
}

func TestParse_CyclesInFirstAppearanceOrder(t *testing.T) {
	text := "cycle number\ttime/s\tEwe/V\t<I>/mA\tAnalog IN 1/V\n" +
		"2\t0\t0\t0\t1\n" +
		"2\t1\t0\t0\t2\n" +
		"3\t2\t0\t0\t3\n" +
		"5\t3\t0\t0\t4\n"

	table, err := Parse(strings.NewReader(text), "order.txt", DefaultLoaderOptions())
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3, 5}, table.Cycles)
	assert.Equal(t, 1.0, table.ZeroValue)
}

func TestParse_DecreasingCycleNumber(t *testing.T) {
	text := "cycle number\ttime/s\tEwe/V\t<I>/mA\tAnalog IN 1/V\n"
	for i, c := range []int{1, 1, 2, 2, 3, 3, 2, 2, 4, 4} {
		text += fmt.Sprintf("%d\t%d\t0\t0\t%d\n", c, i, i)
	}

	table, err := Parse(strings.NewReader(text), "restart.txt", DefaultLoaderOptions())
	require.Error(t, err)
	assert.Nil(t, table)
	assert.True(t, stderrors.Is(err, apperrors.ErrSchema), "got %v", err)

	var pe *apperrors.PipelineError
	require.True(t, stderrors.As(err, &pe))
	assert.Equal(t, domain.ColumnCycle, pe.Column)
	assert.Contains(t, pe.Message, "line 8")
}

func TestParse_HeaderWithBOMAndCustomDisplacementColumn(t *testing.T) {
	text := "\uFEFFcycle number\ttime/s\tEwe/V\t<I>/mA\tAnalog IN 2/V\n" +
		"1\t0\t0.5\t0.1\t7\n"

	table, err := Parse(strings.NewReader(text), "bom.txt", LoaderOptions{DisplacementColumn: "Analog IN 2/V"})
	require.NoError(t, err)
	assert.Equal(t, "Analog IN 2/V", table.DisplacementColumn)
	assert.Equal(t, 7.0, table.ZeroValue)
}

func TestParse_SchemaErrors(t *testing.T) {
	header := "cycle number\ttime/s\tEwe/V\t<I>/mA\tAnalog IN 1/V\n"
	tests := []struct {
		name       string
		input      string
		wantColumn string
	}{
		{
			name:       "missing cycle number column",
			input:      "time/s\tEwe/V\t<I>/mA\tAnalog IN 1/V\n0\t0\t0\t0\n",
			wantColumn: domain.ColumnCycle,
		},
		{
			name:       "missing displacement column",
			input:      "cycle number\ttime/s\tEwe/V\t<I>/mA\n1\t0\t0\t0\n",
			wantColumn: domain.ColumnDisplacement,
		},
		{
			name:       "non numeric time",
			input:      header + "1\tabc\t0\t0\t0\n",
			wantColumn: domain.ColumnTime,
		},
		{
			name:       "fractional cycle number",
			input:      header + "1.5\t0\t0\t0\t0\n",
			wantColumn: domain.ColumnCycle,
		},
		{
			name:       "cycle number below one",
			input:      header + "0\t0\t0\t0\t0\n",
			wantColumn: domain.ColumnCycle,
		},
		{
			name:       "truncated row",
			input:      header + "1\t0\t0\n",
			wantColumn: domain.ColumnDisplacement,
		},
		{
			name:       "empty file",
			input:      "",
			wantColumn: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, err := Parse(strings.NewReader(tt.input), "bad.txt", DefaultLoaderOptions())
			require.Error(t, err)
			assert.Nil(t, table)
			assert.True(t, stderrors.Is(err, apperrors.ErrSchema), "got %v", err)

			var pe *apperrors.PipelineError
			require.True(t, stderrors.As(err, &pe))
			assert.Equal(t, tt.wantColumn, pe.Column)
			assert.Equal(t, "bad.txt", pe.File)
			assert.Equal(t, StageLoad, pe.Stage)
		})
	}
}

func TestParse_HeaderOnly(t *testing.T) {
	_, err := Parse(strings.NewReader("cycle number\ttime/s\tEwe/V\t<I>/mA\tAnalog IN 1/V\n"), "empty.txt", DefaultLoaderOptions())
	assert.True(t, stderrors.Is(err, apperrors.ErrInsufficientData))
}

func TestLoad(t *testing.T) {
	fs := afero.NewMemMapFs()
	testutil.WriteMeasurement(t, fs, "/data/run1.txt", testutil.Ramp(3, 5, 1), true)

	t.Run("reads file from filesystem", func(t *testing.T) {
		table, err := Load(fs, "/data/run1.txt", DefaultLoaderOptions())
		require.NoError(t, err)
		assert.Equal(t, 15, table.Len())
	})

	t.Run("missing file is an io error", func(t *testing.T) {
		_, err := Load(fs, "/data/missing.txt", DefaultLoaderOptions())
		assert.True(t, stderrors.Is(err, apperrors.ErrIO))
		assert.Contains(t, err.Error(), "missing.txt")
	})
}
