// Package extract holds single-purpose field extractors. Extractors read the
// document lines and return a value or its zero value; absence is never an
// error.
package extract

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/a3tai/mcp-ddt-reader/internal/patterns"
)

// NormalizeDate converts "15/01/2024", "15.1.24" or "15 gennaio 2024" to
// ISO "2024-01-15". Two-digit years are read as 20YY.
func NormalizeDate(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if m := patterns.MonthNameDate.FindStringSubmatch(s); m != nil {
		month := patterns.Months[strings.ToUpper(m[2])]
		return isoDate(m[1], month, m[3])
	}
	if m := patterns.NumericDate.FindStringSubmatch(s); m != nil {
		month, err := strconv.Atoi(m[2])
		if err != nil {
			return "", false
		}
		return isoDate(m[1], month, m[3])
	}
	return "", false
}

func isoDate(dayStr string, month int, yearStr string) (string, bool) {
	day, err := strconv.Atoi(dayStr)
	if err != nil {
		return "", false
	}
	year, err := strconv.Atoi(yearStr)
	if err != nil {
		return "", false
	}
	switch len(yearStr) {
	case 2:
		year += 2000
	case 4:
	default:
		return "", false
	}
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return "", false
	}
	return fmt.Sprintf("%04d-%02d-%02d", year, month, day), true
}

// FirstDate returns the first valid date found in s.
func FirstDate(s string) string {
	for _, m := range patterns.MonthNameDate.FindAllString(s, -1) {
		if d, ok := NormalizeDate(m); ok {
			return d
		}
	}
	for _, m := range patterns.NumericDate.FindAllString(s, -1) {
		if d, ok := NormalizeDate(m); ok {
			return d
		}
	}
	return ""
}

// DeliveryDate returns the labeled delivery date, or "".
func DeliveryDate(lines []string) string {
	for _, line := range lines {
		if m := patterns.DeliveryDate.FindStringSubmatch(line); m != nil {
			if d, ok := NormalizeDate(m[1]); ok {
				return d
			}
		}
	}
	return ""
}
