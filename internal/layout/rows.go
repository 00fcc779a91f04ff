// Package layout models positioned text and splits two-column lines.
package layout

import (
	"math"
	"sort"
	"strings"
)

// Token is a run of text with the x coordinate where it starts.
type Token struct {
	Text string  `json:"text"`
	X    float64 `json:"x"`
}

// Row is one visual line of a page, tokens ordered left to right.
type Row []Token

// Text joins the row tokens with single spaces.
func (r Row) Text() string {
	parts := make([]string, 0, len(r))
	for _, t := range r {
		if s := strings.TrimSpace(t.Text); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}

// Sorted returns a copy of r ordered by x.
func (r Row) Sorted() Row {
	out := append(Row(nil), r...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].X < out[j].X })
	return out
}

// Fragment is a positioned glyph run as reported by a PDF text layer.
// Y grows upward, so the top of the page has the highest Y.
type Fragment struct {
	Text     string
	X, Y     float64
	Width    float64
	FontSize float64
}

// RowConfig tunes BuildRows.
type RowConfig struct {
	RowTolerance float64 // max Y distance for fragments of the same row
	WordGap      float64 // gaps up to WordGap×font size join without a space
	TokenGap     float64 // gaps up to TokenGap×font size join with a space
}

// DefaultRowConfig returns the settings used for invoice-style layouts.
func DefaultRowConfig() RowConfig {
	return RowConfig{RowTolerance: 3.0, WordGap: 0.15, TokenGap: 2.5}
}

// BuildRows groups fragments into rows (top to bottom) and merges adjacent
// glyphs into tokens. Wide horizontal gaps start a new token, which keeps the
// columns of a two-column header apart.
func BuildRows(fragments []Fragment, cfg RowConfig) []Row {
	type bucket struct {
		yMin, yMax float64
		frags      []Fragment
	}

	var buckets []bucket
	for _, f := range fragments {
		if strings.TrimSpace(f.Text) == "" && f.Text != " " {
			continue
		}
		placed := false
		for i := range buckets {
			if f.Y >= buckets[i].yMin-cfg.RowTolerance && f.Y <= buckets[i].yMax+cfg.RowTolerance {
				buckets[i].frags = append(buckets[i].frags, f)
				buckets[i].yMin = math.Min(buckets[i].yMin, f.Y)
				buckets[i].yMax = math.Max(buckets[i].yMax, f.Y)
				placed = true
				break
			}
		}
		if !placed {
			buckets = append(buckets, bucket{yMin: f.Y, yMax: f.Y, frags: []Fragment{f}})
		}
	}

	sort.SliceStable(buckets, func(i, j int) bool { return buckets[i].yMax > buckets[j].yMax })

	rows := make([]Row, 0, len(buckets))
	for _, b := range buckets {
		if row := mergeFragments(b.frags, cfg); len(row) > 0 {
			rows = append(rows, row)
		}
	}
	return rows
}

func mergeFragments(frags []Fragment, cfg RowConfig) Row {
	sort.SliceStable(frags, func(i, j int) bool { return frags[i].X < frags[j].X })

	var (
		row   Row
		cur   strings.Builder
		start float64
		end   float64
		size  float64
		open  bool
	)
	flush := func() {
		if text := strings.TrimSpace(cur.String()); text != "" {
			row = append(row, Token{Text: text, X: start})
		}
		cur.Reset()
		open = false
	}

	for _, f := range frags {
		fs := f.FontSize
		if fs <= 0 {
			fs = 10
		}
		if !open {
			start, end, size, open = f.X, f.X+f.Width, fs, true
			cur.WriteString(f.Text)
			continue
		}
		gap := f.X - end
		switch {
		case gap <= cfg.WordGap*size:
			cur.WriteString(f.Text)
		case gap <= cfg.TokenGap*size:
			if !strings.HasSuffix(cur.String(), " ") && !strings.HasPrefix(f.Text, " ") {
				cur.WriteByte(' ')
			}
			cur.WriteString(f.Text)
		default:
			flush()
			start, size, open = f.X, fs, true
			cur.WriteString(f.Text)
		}
		end = math.Max(end, f.X+f.Width)
	}
	if open {
		flush()
	}
	return row
}

// Lines returns the text of every row.
func Lines(rows []Row) []string {
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Text())
	}
	return out
}
