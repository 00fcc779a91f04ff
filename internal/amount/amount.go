// Package amount parses the number formats found on Italian business documents.
package amount

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	// LineTolerance is the maximum accepted gap between an extracted and a
	// computed line total.
	LineTolerance = decimal.RequireFromString("0.01")

	// TotalsTolerance is the maximum accepted gap between the grand total and
	// subtotal plus VAT.
	TotalsTolerance = decimal.RequireFromString("0.10")

	hundred = decimal.NewFromInt(100)

	thousandsOnly = regexp.MustCompile(`^\d{1,3}(\.\d{3})+$`)
	numberShape   = regexp.MustCompile(`^-?(?:\d{1,3}(?:\.\d{3})+|\d+)(?:[.,]\d+)?-?$`)
)

// ErrEmpty is returned when the input holds no digits.
var ErrEmpty = errors.New("empty number")

// Parse converts "1.234,56", "50,00", "5.5" or "€ 12" into a decimal.
// A dot followed by exactly three digit groups is read as a thousands separator.
func Parse(s string) (decimal.Decimal, error) {
	clean := strings.TrimSpace(s)
	clean = strings.TrimPrefix(clean, "€")
	clean = strings.TrimPrefix(strings.TrimSpace(clean), "EUR")
	clean = strings.ReplaceAll(strings.TrimSpace(clean), " ", "")
	if clean == "" {
		return decimal.Zero, ErrEmpty
	}

	negative := false
	if strings.HasPrefix(clean, "-") {
		negative = true
		clean = clean[1:]
	} else if strings.HasSuffix(clean, "-") {
		negative = true
		clean = clean[:len(clean)-1]
	}

	switch {
	case strings.Contains(clean, ",") && strings.Contains(clean, "."):
		clean = strings.ReplaceAll(clean, ".", "")
		clean = strings.Replace(clean, ",", ".", 1)
	case strings.Contains(clean, ","):
		clean = strings.Replace(clean, ",", ".", 1)
	case thousandsOnly.MatchString(clean):
		clean = strings.ReplaceAll(clean, ".", "")
	}

	d, err := decimal.NewFromString(clean)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse %q: %w", s, err)
	}
	if negative {
		d = d.Neg()
	}
	return d, nil
}

// ParsePercent parses "10", "10%", "10,5 %" into a decimal percentage.
func ParsePercent(s string) (decimal.Decimal, error) {
	return Parse(strings.TrimSuffix(strings.TrimSpace(s), "%"))
}

// IsNumber reports whether s is shaped like a document number token.
func IsNumber(s string) bool {
	return numberShape.MatchString(strings.TrimSuffix(s, "%"))
}

// LineTotal returns quantity × price × (1 − discount/100), rounded to cents.
func LineTotal(quantity, price, discountPercent decimal.Decimal) decimal.Decimal {
	factor := decimal.NewFromInt(1).Sub(discountPercent.Div(hundred))
	return quantity.Mul(price).Mul(factor).Round(2)
}

// Percentage returns base × rate / 100 rounded to cents.
func Percentage(base decimal.Decimal, rate int) decimal.Decimal {
	return base.Mul(decimal.NewFromInt(int64(rate))).Div(hundred).Round(2)
}

// Within reports whether |a − b| <= tolerance.
func Within(a, b, tolerance decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(tolerance)
}
