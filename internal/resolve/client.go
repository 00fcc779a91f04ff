package resolve

import (
	"strings"
	"unicode"

	"github.com/a3tai/mcp-ddt-reader/internal/extract"
	"github.com/a3tai/mcp-ddt-reader/internal/layout"
	"github.com/a3tai/mcp-ddt-reader/internal/patterns"
)

// Client-name strategy names.
const (
	StrategyMarkerLine   = "marker_line"
	StrategyAliasTable   = "alias_table"
	StrategyFileNameCode = "filename_code"
)

const (
	confMarkerLine  = 0.90
	confClientCode  = 0.80
	confAliasFound  = 0.75
	confSynthesized = 0.30
)

// markerLookahead is how many lines after a customer marker may hold the name.
const markerLookahead = 3

// ClientName is a resolved customer name before canonicalization.
type ClientName struct {
	Raw       string
	Synthetic bool
}

// DefaultClientStrategies returns the client-name strategies in priority order.
func DefaultClientStrategies() []Strategy[ClientName] {
	return []Strategy[ClientName]{MarkerLine{}, AliasTable{}, FileNameCode{}}
}

// ClientStrategiesByName maps strategy names to implementations.
var ClientStrategiesByName = map[string]Strategy[ClientName]{
	StrategyMarkerLine:   MarkerLine{},
	StrategyAliasTable:   AliasTable{},
	StrategyFileNameCode: FileNameCode{},
}

// ClientStrategies returns the named client-name strategies in order.
func ClientStrategies(names []string) ([]Strategy[ClientName], error) {
	return Select(ClientStrategiesByName, names, DefaultClientStrategies())
}

// MarkerLine takes the text after a customer marker, on the same line or on
// the next lines. With positional rows the name is read from the column
// under the marker; otherwise two-column lines contribute their left column.
type MarkerLine struct{}

func (MarkerLine) Name() string { return StrategyMarkerLine }

func (s MarkerLine) Resolve(in *Input) (Candidate[ClientName], bool) {
	if len(in.Rows) > 0 {
		return s.positional(in)
	}
	return s.text(in)
}

func (MarkerLine) positional(in *Input) (Candidate[ClientName], bool) {
	t := in.Tables
	for h, row := range in.Rows {
		sorted := row.Sorted()
		k := customerToken(t, sorted)
		if k < 0 {
			continue
		}
		marker := sorted[k]

		// text sharing the header row up to the next section header
		rest := marker.Text[t.CustomerMarker(marker.Text)[1]:]
		if d := t.DeliveryMarker(rest); d != nil {
			rest = rest[:d[0]]
		}
		to := 0.0
		for _, tok := range sorted[k+1:] {
			if isSectionHeader(t, tok.Text) {
				to = tok.X
				break
			}
			rest += " " + tok.Text
		}
		if name, ok := nameCandidate(rest, t); ok {
			return Candidate[ClientName]{Value: ClientName{Raw: name}, Confidence: confMarkerLine}, true
		}

		for j := h + 1; j < len(in.Rows) && j <= h+markerLookahead; j++ {
			var text string
			switch {
			case to > 0 || k > 0:
				text = in.Splitter.Column(in.Rows[j], marker.X, to)
			default:
				// marker alone on its row, the widest gap marks the column break
				if sp, ok := in.Splitter.SplitRow(in.Rows[j], 0); ok {
					text = sp.Left
				} else {
					text = in.Rows[j].Text()
				}
			}
			if name, ok := nameCandidate(text, t); ok {
				return Candidate[ClientName]{Value: ClientName{Raw: name}, Confidence: confMarkerLine}, true
			}
		}
	}
	return Candidate[ClientName]{}, false
}

// customerToken returns the index of the first token opening a customer
// section, or -1. "Destinatario merce" and the like are delivery markers.
func customerToken(t *patterns.Tables, row layout.Row) int {
	for k, tok := range row {
		loc := t.CustomerMarker(tok.Text)
		if loc == nil || isCodeLine(tok.Text) {
			continue
		}
		if d := t.DeliveryMarker(tok.Text); d != nil && d[0] <= loc[0] {
			continue
		}
		return k
	}
	return -1
}

// isSectionHeader reports whether s opens a delivery, carrier or customer block.
func isSectionHeader(t *patterns.Tables, s string) bool {
	return t.DeliveryMarker(s) != nil || t.IsCarrierMarker(s) || t.CustomerMarker(s) != nil
}

func (MarkerLine) text(in *Input) (Candidate[ClientName], bool) {
	t := in.Tables
	for i, line := range in.Lines {
		loc := t.CustomerMarker(line)
		if loc == nil || isCodeLine(line) {
			continue
		}
		if d := t.DeliveryMarker(line); d != nil && d[0] <= loc[0] {
			continue
		}

		rest := line[loc[1]:]
		if d := t.DeliveryMarker(rest); d != nil {
			rest = rest[:d[0]]
		}
		if name, ok := nameCandidate(rest, t); ok {
			return Candidate[ClientName]{Value: ClientName{Raw: name}, Confidence: confMarkerLine}, true
		}

		for k := i + 1; k < len(in.Lines) && k <= i+markerLookahead; k++ {
			next := strings.TrimSpace(in.Lines[k])
			if next == "" {
				continue
			}
			if sp := in.Splitter.SplitLine(next); sp.Double() {
				next = sp.Left
			}
			if name, ok := nameCandidate(next, t); ok {
				return Candidate[ClientName]{Value: ClientName{Raw: name}, Confidence: confMarkerLine}, true
			}
		}
	}
	return Candidate[ClientName]{}, false
}

// nameCandidate rejects text that cannot be a customer name and cleans the rest.
func nameCandidate(s string, t *patterns.Tables) (string, bool) {
	s = strings.TrimRight(strings.TrimLeft(s, " \t:.-"), " \t:-")
	switch {
	case s == "":
		return "", false
	case t.DeliveryMarker(s) != nil, t.CustomerMarker(s) != nil:
		return "", false
	case t.HasIssuerTerm(s), t.IsCarrierMarker(s), t.HasCarrierKeyword(s):
		return "", false
	case t.StartsWithStreet(s), patterns.CityLine.MatchString(s), patterns.VATLabeled.MatchString(s):
		return "", false
	case !startsWithLetter(s):
		return "", false
	}
	name := CleanName(s, t)
	if countLetters(name) < 2 {
		return "", false
	}
	return name, true
}

func isCodeLine(line string) bool {
	for _, re := range patterns.ClientCodes {
		if re.MatchString(line) {
			return true
		}
	}
	return false
}

// AliasTable maps the customer code to its known name, then searches the
// text for a known alias.
type AliasTable struct{}

func (AliasTable) Name() string { return StrategyAliasTable }

func (AliasTable) Resolve(in *Input) (Candidate[ClientName], bool) {
	t := in.Tables
	if in.ClientCode != "" {
		if raw, ok := t.ClientByCode(in.ClientCode); ok {
			return Candidate[ClientName]{Value: ClientName{Raw: CleanName(raw, t)}, Confidence: confClientCode}, true
		}
	}
	for _, line := range in.Lines {
		if t.HasIssuerTerm(line) || t.HasCarrierKeyword(line) {
			continue
		}
		if key, _, ok := t.FindAlias(line); ok {
			return Candidate[ClientName]{Value: ClientName{Raw: key}, Confidence: confAliasFound}, true
		}
	}
	return Candidate[ClientName]{}, false
}

// FileNameCode synthesizes "Cliente {code}" from the customer code embedded
// in the file name.
type FileNameCode struct{}

func (FileNameCode) Name() string { return StrategyFileNameCode }

func (FileNameCode) Resolve(in *Input) (Candidate[ClientName], bool) {
	fn, ok := extract.ParseFileName(in.FileName)
	if !ok || fn.CustomerCode == "" {
		return Candidate[ClientName]{}, false
	}
	return Candidate[ClientName]{
		Value:      ClientName{Raw: "Cliente " + fn.CustomerCode, Synthetic: true},
		Confidence: confSynthesized,
	}, true
}

func startsWithLetter(s string) bool {
	for _, r := range s {
		return unicode.IsLetter(r)
	}
	return false
}

func countLetters(s string) int {
	n := 0
	for _, r := range s {
		if unicode.IsLetter(r) {
			n++
		}
	}
	return n
}
