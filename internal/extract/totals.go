package extract

import (
	"regexp"

	"github.com/a3tai/mcp-ddt-reader/internal/patterns"
)

// RawTotals holds the document totals in document notation. Empty fields
// were not found.
type RawTotals struct {
	Subtotal     string
	VAT          string
	GrandTotal   string
	VATBreakdown []RawVATLine
}

// RawVATLine is one row of a VAT summary.
type RawVATLine struct {
	Rate    string
	Taxable string
	Tax     string
}

// FindTotals reads the labeled totals. The last occurrence of each label
// wins since running totals precede the final one on multi-page documents.
func FindTotals(lines []string) RawTotals {
	var out RawTotals
	for _, line := range lines {
		if v := lastGroup(patterns.GrandTotal, line); v != "" {
			out.GrandTotal = v
		}
		if v := lastGroup(patterns.Subtotal, line); v != "" {
			out.Subtotal = v
		}
		if v := lastGroup(patterns.VATTotal, line); v != "" {
			out.VAT = v
		}
		for _, m := range patterns.VATBreakdown.FindAllStringSubmatch(line, -1) {
			out.VATBreakdown = append(out.VATBreakdown, RawVATLine{Rate: m[1], Taxable: m[2], Tax: m[3]})
		}
	}
	return out
}

func lastGroup(re *regexp.Regexp, line string) string {
	ms := re.FindAllStringSubmatch(line, -1)
	if len(ms) == 0 {
		return ""
	}
	return ms[len(ms)-1][1]
}
