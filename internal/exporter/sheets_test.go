package exporter

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeSheetName(t *testing.T) {
	tests := []struct {
		name  string
		label string
		want  string
	}{
		{"plain", "run1", "run1"},
		{"forbidden characters", `a/b\c[d]e*f:g?h`, "abcdefgh"},
		{"only forbidden", "/:*?", "Sheet"},
		{"quotes trimmed", "'cell'", "cell"},
		{"truncated", strings.Repeat("x", 40), strings.Repeat("x", 31)},
		{"multibyte truncation", strings.Repeat("é", 35), strings.Repeat("é", 31)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SanitizeSheetName(tt.label)
			assert.Equal(t, tt.want, got)
			assert.LessOrEqual(t, utf8.RuneCountInString(got), MaxSheetNameLength)
		})
	}
}

func TestSheetNames(t *testing.T) {
	long := strings.Repeat("y", 35)
	got := SheetNames([]string{"a/b", "ab", "AB", long, long})

	assert.Equal(t, "ab", got[0])
	assert.Equal(t, "ab (2)", got[1])
	assert.Equal(t, "AB (3)", got[2])
	assert.Equal(t, strings.Repeat("y", 31), got[3])
	assert.Equal(t, strings.Repeat("y", 27)+" (2)", got[4])
}
