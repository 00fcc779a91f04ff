package patterns

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Fold returns the lookup form of s: NFC, Italian upper case, single spaces.
// A fresh Caser is built per call because Casers carry state.
func Fold(s string) string {
	s = norm.NFC.String(s)
	s = cases.Upper(language.Italian).String(s)
	s = strings.ReplaceAll(s, "’", "'")
	return strings.Join(strings.Fields(s), " ")
}

// stripDots removes dots so "S.R.L." and "SRL" compare equal.
func stripDots(s string) string {
	return strings.ReplaceAll(s, ".", "")
}
