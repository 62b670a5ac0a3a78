package exporter

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// MaxSheetNameLength is the longest sheet name Excel accepts
const MaxSheetNameLength = 31

var sheetNameReplacer = strings.NewReplacer(
	"/", "", "\\", "", "[", "", "]", "", "*", "", ":", "", "?", "",
)

// SanitizeSheetName strips the characters Excel forbids in sheet names and
// truncates the result to MaxSheetNameLength runes.
func SanitizeSheetName(label string) string {
	name := strings.Trim(strings.TrimSpace(sheetNameReplacer.Replace(label)), "'")
	if name == "" {
		name = "Sheet"
	}
	return truncateRunes(name, MaxSheetNameLength)
}

// SheetNames sanitizes labels and makes them unique, case-insensitively, by
// appending " (n)".
func SheetNames(labels []string) []string {
	names := make([]string, len(labels))
	used := make(map[string]bool, len(labels))
	for i, label := range labels {
		base := SanitizeSheetName(label)
		name := base
		for n := 2; used[strings.ToLower(name)]; n++ {
			suffix := fmt.Sprintf(" (%d)", n)
			name = truncateRunes(base, MaxSheetNameLength-len(suffix)) + suffix
		}
		used[strings.ToLower(name)] = true
		names[i] = name
	}
	return names
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
