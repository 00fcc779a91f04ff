package extract

import (
	"strings"

	"github.com/a3tai/mcp-ddt-reader/internal/document"
	"github.com/a3tai/mcp-ddt-reader/internal/patterns"
)

// Identity is the document header.
type Identity struct {
	Kind         document.Kind
	Number       string
	Date         string
	CustomerCode string // set by header rows that carry one
	Pattern      string
	Line         int
}

// dateLookahead is how many lines after a header are searched for its date.
const dateLookahead = 2

// FindIdentity tries the header patterns in priority order. Patterns of the
// hinted kind go first. Loose patterns, which carry no type keyword, are only
// tried when the hint is a delivery note or unknown.
func FindIdentity(lines []string, hint document.Kind) (Identity, bool) {
	for _, hp := range orderedHeaders(hint) {
		for i, line := range lines {
			m := hp.Re.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			number := strings.TrimLeft(m[hp.NumberGroup], " ")
			if number == "" {
				continue
			}
			id := Identity{
				Kind:    hp.Kind,
				Number:  number,
				Pattern: hp.Name,
				Line:    i,
			}
			if hp.CodeGroup > 0 {
				id.CustomerCode = m[hp.CodeGroup]
			}
			if hp.DateGroup > 0 && m[hp.DateGroup] != "" {
				id.Date, _ = NormalizeDate(m[hp.DateGroup])
			}
			if id.Date == "" {
				id.Date = headerDate(lines, i, m[0])
			}
			return id, true
		}
	}
	return Identity{}, false
}

func orderedHeaders(hint document.Kind) []patterns.HeaderPattern {
	loose := hint == document.KindDeliveryNote || hint == document.KindUnknown
	out := make([]patterns.HeaderPattern, 0, len(patterns.Headers))
	for _, pass := range []bool{true, false} {
		for _, hp := range patterns.Headers {
			if (hp.Kind == hint) != pass {
				continue
			}
			if hp.Loose && !loose {
				continue
			}
			out = append(out, hp)
		}
	}
	return out
}

// headerDate looks for a date after the matched header text, then on the
// following lines.
func headerDate(lines []string, at int, matched string) string {
	line := lines[at]
	if idx := strings.Index(line, matched); idx >= 0 {
		if d := FirstDate(line[idx+len(matched):]); d != "" {
			return d
		}
	}
	for i := at + 1; i < len(lines) && i <= at+dateLookahead; i++ {
		if d := FirstDate(lines[i]); d != "" {
			return d
		}
	}
	return ""
}
