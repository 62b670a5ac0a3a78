package testutil

import (
	"fmt"
	"strconv"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

// MeasurementHeader is the column order written by the potentiostat.
var MeasurementHeader = []string{"time/s", "Ewe/V", "<I>/mA", "(Q-Qo)/C", "cycle number", "Analog IN 1/V"}

// Row is one synthetic instrument sample
type Row struct {
	Time         float64
	Potential    float64
	Current      float64
	Charge       float64
	Cycle        float64
	Displacement float64
}

// Ramp builds cycles of perCycle samples each. Within every cycle the
// displacement rises linearly from 0 to (perCycle-1)*step; time advances
// by one second per sample across the whole file.
func Ramp(cycles, perCycle int, step float64) []Row {
	rows := make([]Row, 0, cycles*perCycle)
	for c := 1; c <= cycles; c++ {
		for j := 0; j < perCycle; j++ {
			rows = append(rows, Row{
				Time:         float64(len(rows)),
				Potential:    0.1 * float64(j),
				Current:      1,
				Charge:       0.01 * float64(j),
				Cycle:        float64(c),
				Displacement: step * float64(j),
			})
		}
	}
	return rows
}

// MeasurementText renders rows as a tab-delimited export. Each line ends
// with a trailing tab, as the instrument software writes it.
func MeasurementText(rows []Row, withCharge bool) string {
	var b strings.Builder
	for i, h := range MeasurementHeader {
		if !withCharge && i == 3 {
			continue
		}
		b.WriteString(h)
		b.WriteByte('\t')
	}
	b.WriteByte('\n')

	f := func(v float64) string { return strconv.FormatFloat(v, 'E', 15, 64) }
	for _, r := range rows {
		fields := []string{f(r.Time), f(r.Potential), f(r.Current)}
		if withCharge {
			fields = append(fields, f(r.Charge))
		}
		fields = append(fields, f(r.Cycle), f(r.Displacement))
		fmt.Fprintf(&b, "%s\t\n", strings.Join(fields, "\t"))
	}
	return b.String()
}

// WriteMeasurement stores a synthetic export at path on fsys.
func WriteMeasurement(t *testing.T, fsys afero.Fs, path string, rows []Row, withCharge bool) {
	t.Helper()
	require.NoError(t, afero.WriteFile(fsys, path, []byte(MeasurementText(rows, withCharge)), 0o644))
}
