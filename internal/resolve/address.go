package resolve

import (
	"math"
	"strings"

	"github.com/a3tai/mcp-ddt-reader/internal/document"
	"github.com/a3tai/mcp-ddt-reader/internal/layout"
	"github.com/a3tai/mcp-ddt-reader/internal/patterns"
)

// Address strategy names.
const (
	StrategyTwoColumn     = "two_column"
	StrategyKnownMapping  = "known_mapping"
	StrategySectionMarker = "section_marker"
)

// Strategy confidences.
const (
	confPositional    = 0.90
	confTextColumns   = 0.85
	confKnownMapping  = 0.95
	confSectionMarker = 0.80
	confPartial       = 0.50
)

// sectionWindow is how many lines after a delivery marker may hold the address.
const sectionWindow = 6

// DefaultAddressStrategies returns the address strategies in priority order.
func DefaultAddressStrategies() []Strategy[document.Address] {
	return []Strategy[document.Address]{TwoColumn{}, KnownMapping{}, SectionMarker{}}
}

// AddressStrategiesByName maps strategy names to implementations.
var AddressStrategiesByName = map[string]Strategy[document.Address]{
	StrategyTwoColumn:     TwoColumn{},
	StrategyKnownMapping:  KnownMapping{},
	StrategySectionMarker: SectionMarker{},
}

// AddressStrategies returns the named address strategies in order.
func AddressStrategies(names []string) ([]Strategy[document.Address], error) {
	return Select(AddressStrategiesByName, names, DefaultAddressStrategies())
}

// TwoColumn reads the column of the section opened by a delivery marker.
// That is the right column unless the marker opens the line and another
// section header (typically the carrier) sits to its right. Positional rows
// are used when present, the text split chain otherwise. Reading stops at the
// first carrier marker in the column.
type TwoColumn struct{}

func (TwoColumn) Name() string { return StrategyTwoColumn }

func (s TwoColumn) Resolve(in *Input) (Candidate[document.Address], bool) {
	if len(in.Rows) > 0 {
		if c, ok := s.positional(in); ok {
			return c, true
		}
	}
	return s.text(in)
}

func (TwoColumn) positional(in *Input) (Candidate[document.Address], bool) {
	t := in.Tables
	for h, row := range in.Rows {
		sorted := row.Sorted()
		k := -1
		for i, tok := range sorted {
			if t.DeliveryMarker(tok.Text) != nil {
				k = i
				break
			}
		}
		if k < 0 {
			continue
		}
		from, to := sorted[k].X, 0.0
		for _, tok := range sorted[k+1:] {
			if t.IsCarrierMarker(tok.Text) || t.CustomerMarker(tok.Text) != nil {
				to = tok.X
				break
			}
		}
		// a marker opening its row with no header beside it gives no
		// column, the text chain handles it
		if k == 0 && to == 0 {
			continue
		}
		limit := math.Inf(1)
		if to > 0 {
			limit = to - in.Splitter.ColumnTolerance
		}

		var segments []string
		for _, next := range in.Rows[h+1:] {
			if patterns.ItemHeader.MatchString(next.Text()) || carrierBefore(t, next, limit) {
				break
			}
			col := in.Splitter.Column(next, from, to)
			if excludedSegment(t, col) {
				continue
			}
			segments = append(segments, col)
			if len(segments) == sectionWindow {
				break
			}
		}
		if addr, complete, ok := parseAddress(segments, t); ok {
			return scored(addr, complete, confPositional), true
		}
	}
	return Candidate[document.Address]{}, false
}

func (TwoColumn) text(in *Input) (Candidate[document.Address], bool) {
	t := in.Tables
	for i, line := range in.Lines {
		loc := t.DeliveryMarker(line)
		if loc == nil {
			continue
		}
		left := deliveryOnLeft(t, line, loc)

		var segments []string
		double := false
		for _, next := range in.Lines[i+1:] {
			if strings.TrimSpace(next) == "" {
				continue
			}
			if t.IsCarrierMarker(next) || patterns.ItemHeader.MatchString(next) {
				break
			}
			sp := in.Splitter.SplitLine(next)
			if sp.Double() {
				double = true
			}
			seg := sp.Right
			if left {
				seg = sp.Left
			}
			if excludedSegment(t, seg) {
				continue
			}
			segments = append(segments, seg)
			if len(segments) == sectionWindow {
				break
			}
		}
		// without a two-column line this is a plain section
		if !double {
			continue
		}
		if addr, complete, ok := parseAddress(segments, t); ok {
			return scored(addr, complete, confTextColumns), true
		}
	}
	return Candidate[document.Address]{}, false
}

// carrierBefore reports whether a carrier marker starts in row left of limit.
// Carrier headers further right belong to another column.
func carrierBefore(t *patterns.Tables, row layout.Row, limit float64) bool {
	for _, tok := range row {
		if tok.X < limit && t.IsCarrierMarker(tok.Text) {
			return true
		}
	}
	return false
}

// deliveryOnLeft reports whether the delivery section opened at loc is the
// left column of its line: the marker opens the line and a carrier or
// customer header follows it.
func deliveryOnLeft(t *patterns.Tables, line string, loc []int) bool {
	if strings.TrimSpace(line[:loc[0]]) != "" {
		return false
	}
	rest := line[loc[1]:]
	return t.CarrierMarker(rest) != nil || t.CustomerMarker(rest) != nil
}

// KnownMapping looks the address up by internal customer code, then by
// order reference.
type KnownMapping struct{}

func (KnownMapping) Name() string { return StrategyKnownMapping }

func (KnownMapping) Resolve(in *Input) (Candidate[document.Address], bool) {
	t := in.Tables
	var raw string
	var ok bool
	for _, code := range []string{in.InternalCode, in.ClientCode} {
		if code == "" {
			continue
		}
		if raw, ok = t.AddressForInternalCode(code); ok {
			break
		}
	}
	if !ok && in.OrderReference != "" {
		raw, ok = t.AddressForOrderCode(in.OrderReference)
	}
	if !ok {
		return Candidate[document.Address]{}, false
	}
	addr, full := ParseFullAddress(raw)
	if !full {
		addr = document.Address{Street: strings.TrimSpace(raw)}
	}
	return Candidate[document.Address]{Value: addr, Confidence: confKnownMapping}, true
}

// SectionMarker reads a window of lines after a delivery marker, including
// the marker line's own remainder.
type SectionMarker struct{}

func (SectionMarker) Name() string { return StrategySectionMarker }

func (SectionMarker) Resolve(in *Input) (Candidate[document.Address], bool) {
	t := in.Tables
	var partial *Candidate[document.Address]

	for i, line := range in.Lines {
		loc := t.DeliveryMarker(line)
		if loc == nil {
			continue
		}
		left := deliveryOnLeft(t, line, loc)
		var window []string
		if rest := strings.Trim(line[loc[1]:], " :.-\t"); rest != "" && !left && !t.IsCarrierMarker(rest) {
			window = append(window, rest)
		}
		for _, next := range in.Lines[i+1:] {
			if len(window) == sectionWindow {
				break
			}
			next = strings.TrimSpace(next)
			if next == "" {
				continue
			}
			if t.IsCarrierMarker(next) || patterns.ItemHeader.MatchString(next) || t.DeliveryMarker(next) != nil {
				break
			}
			window = append(window, next)
		}

		var segments []string
		for _, w := range window {
			if sp := in.Splitter.SplitLine(w); sp.Double() {
				w = sp.Right
				if left {
					w = sp.Left
				}
			}
			if !excludedSegment(t, w) {
				segments = append(segments, w)
			}
		}
		addr, complete, ok := parseAddress(segments, t)
		if !ok {
			continue
		}
		c := scored(addr, complete, confSectionMarker)
		if complete {
			return c, true
		}
		if partial == nil {
			partial = &c
		}
	}
	if partial != nil {
		return *partial, true
	}
	return Candidate[document.Address]{}, false
}

// excludedSegment drops carrier and issuer text.
func excludedSegment(t *patterns.Tables, s string) bool {
	s = strings.TrimSpace(s)
	return s == "" || t.HasCarrierKeyword(s) || t.HasIssuerTerm(s) || t.IsCarrierMarker(s)
}

func scored(addr document.Address, complete bool, conf float64) Candidate[document.Address] {
	if !complete {
		conf = confPartial
	}
	return Candidate[document.Address]{Value: addr, Confidence: conf}
}

// parseAddress builds an address from candidate lines. The street is the
// first line opening with a street type or locality; postal code, city and
// province come from the first CAP line. complete is true when both street
// and postal code were found; ok is false when neither was.
func parseAddress(lines []string, t *patterns.Tables) (addr document.Address, complete, ok bool) {
	streetAt := -1
	for i, l := range lines {
		l = strings.TrimSpace(l)
		if t.StartsWithStreet(l) {
			if full, isFull := ParseFullAddress(l); isFull {
				full.AdditionalInfo = additionalInfo(lines, t)
				return full, true, true
			}
			addr.Street = strings.TrimRight(l, " ,")
			streetAt = i
			break
		}
	}

	for i, l := range lines {
		if i <= streetAt {
			continue
		}
		if m := patterns.CityLine.FindStringSubmatch(strings.TrimSpace(l)); m != nil {
			addr.PostalCode = m[1]
			addr.City = strings.TrimSpace(m[2])
			addr.Province = m[3]
			break
		}
	}
	addr.AdditionalInfo = additionalInfo(lines, t)

	if addr.Street == "" && addr.PostalCode == "" {
		return document.Address{}, false, false
	}
	return addr, addr.Complete(), true
}

func additionalInfo(lines []string, t *patterns.Tables) string {
	for _, l := range lines {
		if loc := t.AdditionalInfo(l); loc != nil {
			return strings.TrimSpace(l[loc[0]:])
		}
	}
	return ""
}

// ParseFullAddress parses "STREET CAP CITY PR" written on one line.
func ParseFullAddress(s string) (document.Address, bool) {
	m := patterns.FullAddress.FindStringSubmatch(s)
	if m == nil || strings.TrimSpace(m[1]) == "" {
		return document.Address{}, false
	}
	return document.Address{
		Street:     strings.TrimRight(strings.TrimSpace(m[1]), ","),
		PostalCode: m[2],
		City:       strings.TrimSpace(m[3]),
		Province:   m[4],
	}, true
}
