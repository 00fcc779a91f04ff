package extract

import (
	"sort"
	"strings"

	"github.com/a3tai/mcp-ddt-reader/internal/patterns"
)

// Fiscal holds the customer's fiscal identifiers.
type Fiscal struct {
	VATNumber string
	TaxCode   string
}

type fiscalCandidate struct {
	value   string
	line    int
	labeled bool
}

// noMarkerDistance ranks candidates that follow no customer marker after
// every candidate that does.
const noMarkerDistance = 1 << 20

// FindFiscal extracts the customer's VAT number and tax code. The issuer's
// own identifiers and any line naming the issuer are ignored. Among the
// remaining candidates the one closest below a customer marker wins, labeled
// before bare.
func FindFiscal(lines []string, t *patterns.Tables) Fiscal {
	var vats, codes []fiscalCandidate
	var markers []int

	for i, line := range lines {
		if t.CustomerMarker(line) != nil {
			markers = append(markers, i)
		}
		if t.HasIssuerTerm(line) {
			continue
		}
		for _, m := range patterns.VATLabeled.FindAllStringSubmatch(line, -1) {
			vats = addCandidate(vats, t, m[1], i, true)
		}
		for _, m := range patterns.VATBare.FindAllStringSubmatch(line, -1) {
			vats = addCandidate(vats, t, m[1], i, false)
		}
		for _, m := range patterns.TaxCodeLabeled.FindAllStringSubmatch(line, -1) {
			codes = addCandidate(codes, t, strings.ToUpper(m[1]), i, true)
		}
		for _, m := range patterns.TaxCode.FindAllStringSubmatch(line, -1) {
			codes = addCandidate(codes, t, strings.ToUpper(m[1]), i, false)
		}
	}

	return Fiscal{
		VATNumber: pickCandidate(vats, markers),
		TaxCode:   pickCandidate(codes, markers),
	}
}

func addCandidate(list []fiscalCandidate, t *patterns.Tables, value string, line int, labeled bool) []fiscalCandidate {
	if t.IsIssuerVAT(value) {
		return list
	}
	for i, c := range list {
		if c.value == value {
			if labeled && !c.labeled {
				list[i].labeled = true
			}
			return list
		}
	}
	return append(list, fiscalCandidate{value: value, line: line, labeled: labeled})
}

func pickCandidate(list []fiscalCandidate, markers []int) string {
	if len(list) == 0 {
		return ""
	}
	distance := func(line int) int {
		best := noMarkerDistance + line
		for _, m := range markers {
			if m <= line && line-m < best {
				best = line - m
			}
		}
		return best
	}
	sort.SliceStable(list, func(i, j int) bool {
		di, dj := distance(list[i].line), distance(list[j].line)
		if di != dj {
			return di < dj
		}
		if list[i].labeled != list[j].labeled {
			return list[i].labeled
		}
		return list[i].line < list[j].line
	})
	return list[0].value
}
