package exporter

import (
	"math"
	"strconv"
)

// formatFloat formats a value with the shortest representation that
// round-trips. Non-finite values become empty cells.
func formatFloat(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return ""
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// cellValue returns the workbook value for f, nil for non-finite values.
func cellValue(f float64) interface{} {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return f
}
