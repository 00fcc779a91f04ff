package extract

import (
	"strings"
	"unicode"

	"github.com/a3tai/mcp-ddt-reader/internal/patterns"
)

// OrderReference is a validated order reference and the pattern that found it.
type OrderReference struct {
	Value   string
	Pattern string
	Line    int
}

// FindOrderReference tries the order patterns from strictest to loosest and
// returns the first candidate that validates. Operator lines and carrier
// lines are skipped. Nothing valid yields the zero value.
func FindOrderReference(lines []string, t *patterns.Tables, documentNumber string) OrderReference {
	for _, op := range patterns.OrderReferences {
		for i, line := range lines {
			if patterns.Operator.MatchString(line) || t.IsCarrierMarker(line) {
				continue
			}
			for _, m := range op.Re.FindAllStringSubmatch(line, -1) {
				if v, ok := validOrder(m[1], t, documentNumber); ok {
					return OrderReference{Value: v, Pattern: op.Name, Line: i}
				}
			}
		}
	}
	return OrderReference{}
}

func validOrder(raw string, t *patterns.Tables, documentNumber string) (string, bool) {
	v := strings.TrimRight(strings.TrimSpace(raw), ".-/")
	switch {
	case v == "":
		return "", false
	case !strings.ContainsFunc(v, unicode.IsDigit):
		return "", false
	case patterns.BareDate.MatchString(v):
		return "", false
	case t.IsExcludedOrderWord(v):
		return "", false
	case documentNumber != "" && v == documentNumber:
		return "", false
	}
	return strings.ToUpper(v), true
}
