package layout

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/a3tai/mcp-ddt-reader/internal/patterns"
)

// Split strategy names, in the order the text chain tries them.
const (
	StrategyPositional       = "positional"
	StrategyExactDuplication = "exact_duplication"
	StrategyDoubleStreet     = "double_street"
	StrategyDoublePostalCode = "double_postal_code"
	StrategyGenericGap       = "generic_gap"
	StrategySingle           = "single"
)

// Split is the result of splitting one line into its left and right columns.
// Single-column lines carry the same text on both sides.
type Split struct {
	Left     string
	Right    string
	Strategy string
}

// Double reports whether the line held two distinct columns.
func (s Split) Double() bool { return s.Strategy != StrategySingle }

var wideGap = regexp.MustCompile(`\s{2,}`)

// Splitter separates side-by-side fields. It is stateless and safe for
// concurrent use.
type Splitter struct {
	tables *patterns.Tables

	// MinColumnGap is the smallest x distance between two tokens that is
	// read as a column break when no boundary is known.
	MinColumnGap float64
	// ColumnTolerance widens an explicit column boundary to the left.
	ColumnTolerance float64
	// MinRightLength is the minimum right-hand length for the generic gap split.
	MinRightLength int
}

// NewSplitter returns a Splitter using the street types of t.
func NewSplitter(t *patterns.Tables) *Splitter {
	return &Splitter{
		tables:          t,
		MinColumnGap:    100,
		ColumnTolerance: 50,
		MinRightLength:  10,
	}
}

// SplitLine runs the text-only chain; the first matching strategy wins.
func (s *Splitter) SplitLine(line string) Split {
	line = strings.TrimSpace(line)
	if line == "" {
		return Split{Strategy: StrategySingle}
	}
	if half, ok := exactDuplication(line); ok {
		return Split{Left: half, Right: half, Strategy: StrategyExactDuplication}
	}
	if sp, ok := s.doubleStreet(line); ok {
		return sp
	}
	if sp, ok := doublePostalCode(line); ok {
		return sp
	}
	if sp, ok := s.genericGap(line); ok {
		return sp
	}
	return Split{Left: line, Right: line, Strategy: StrategySingle}
}

// SplitRow separates a positioned row into columns. With boundary > 0 every
// token starting at or after boundary−ColumnTolerance belongs to the right
// column; otherwise the widest gap of at least MinColumnGap is used. The
// second result is false when the positions do not show two columns.
func (s *Splitter) SplitRow(row Row, boundary float64) (Split, bool) {
	if len(row) == 0 {
		return Split{}, false
	}
	sorted := row.Sorted()

	if boundary > 0 {
		var left, right Row
		for _, t := range sorted {
			if t.X >= boundary-s.ColumnTolerance {
				right = append(right, t)
			} else {
				left = append(left, t)
			}
		}
		return Split{Left: left.Text(), Right: right.Text(), Strategy: StrategyPositional}, true
	}

	if len(sorted) < 2 {
		return Split{}, false
	}
	cut, widest := 0, 0.0
	for i := 1; i < len(sorted); i++ {
		if gap := sorted[i].X - sorted[i-1].X; gap > widest {
			cut, widest = i, gap
		}
	}
	if widest < s.MinColumnGap {
		return Split{}, false
	}
	return Split{
		Left:     sorted[:cut].Text(),
		Right:    sorted[cut:].Text(),
		Strategy: StrategyPositional,
	}, true
}

// Column returns the text of the tokens of row starting inside [from, to),
// both bounds widened left by ColumnTolerance. to <= 0 leaves the column
// open to the right.
func (s *Splitter) Column(row Row, from, to float64) string {
	var col Row
	for _, t := range row.Sorted() {
		if t.X < from-s.ColumnTolerance {
			continue
		}
		if to > 0 && t.X >= to-s.ColumnTolerance {
			continue
		}
		col = append(col, t)
	}
	return col.Text()
}

// Split prefers positions when the row shows two columns and falls back to
// the text chain on the row's text.
func (s *Splitter) Split(row Row, boundary float64) Split {
	if sp, ok := s.SplitRow(row, boundary); ok {
		return sp
	}
	return s.SplitLine(row.Text())
}

// exactDuplication matches `^(.+?)\s+\1$`.
func exactDuplication(line string) (string, bool) {
	for i, r := range line {
		if !unicode.IsSpace(r) || i == 0 {
			continue
		}
		if prev := line[i-1]; prev == ' ' || prev == '\t' {
			continue
		}
		left := line[:i]
		right := strings.TrimLeftFunc(line[i:], unicode.IsSpace)
		if left == right {
			return left, true
		}
	}
	return "", false
}

func (s *Splitter) doubleStreet(line string) (Split, bool) {
	idx := s.tables.StreetPrefixes(line)
	if len(idx) < 2 {
		return Split{}, false
	}
	last := idx[len(idx)-1]
	left := strings.TrimSpace(line[:last])
	right := strings.TrimSpace(line[last:])
	if left == "" || right == "" {
		return Split{}, false
	}
	return Split{Left: left, Right: right, Strategy: StrategyDoubleStreet}, true
}

func doublePostalCode(line string) (Split, bool) {
	locs := patterns.PostalCode.FindAllStringIndex(line, -1)
	if len(locs) < 2 {
		return Split{}, false
	}
	at := locs[1][0]
	left := strings.TrimSpace(strings.TrimRight(strings.TrimSpace(line[:at]), "-"))
	right := strings.TrimSpace(line[at:])
	if left == "" {
		return Split{}, false
	}
	return Split{Left: left, Right: right, Strategy: StrategyDoublePostalCode}, true
}

func (s *Splitter) genericGap(line string) (Split, bool) {
	for _, loc := range wideGap.FindAllStringIndex(line, -1) {
		left := strings.TrimSpace(line[:loc[0]])
		right := strings.TrimSpace(line[loc[1]:])
		if left != "" && len(right) > s.MinRightLength {
			return Split{Left: left, Right: right, Strategy: StrategyGenericGap}, true
		}
	}
	return Split{}, false
}
