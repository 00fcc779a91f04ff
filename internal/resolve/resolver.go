// Package resolve picks a value for ambiguous fields by running an ordered
// list of strategies and scoring their candidates.
package resolve

import (
	"fmt"
	"strings"

	"github.com/a3tai/mcp-ddt-reader/internal/document"
	"github.com/a3tai/mcp-ddt-reader/internal/layout"
	"github.com/a3tai/mcp-ddt-reader/internal/patterns"
)

// DefaultThreshold is the confidence a candidate needs to win outright.
const DefaultThreshold = 0.7

// State is the position of a field in the resolution state machine.
type State int

const (
	Pending State = iota
	Attempted
	Resolved
	Exhausted
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Attempted:
		return "attempted"
	case Resolved:
		return "resolved"
	case Exhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

// Input is everything a strategy may look at. It is built once per document
// and only read by strategies.
type Input struct {
	Lines          []string
	Rows           []layout.Row
	FileName       string
	ClientCode     string
	InternalCode   string
	OrderReference string
	Tables         *patterns.Tables
	Splitter       *layout.Splitter
}

// Candidate is a strategy's proposal.
type Candidate[T any] struct {
	Value      T
	Confidence float64
	Strategy   string
}

// Strategy proposes a value for one field. The boolean is false when the
// strategy found nothing.
type Strategy[T any] interface {
	Name() string
	Resolve(in *Input) (Candidate[T], bool)
}

// Attempt records one strategy run.
type Attempt struct {
	Strategy   string  `json:"strategy"`
	Matched    bool    `json:"matched"`
	Confidence float64 `json:"confidence,omitempty"`
}

// Resolution is the outcome of Run.
type Resolution[T any] struct {
	Value         T
	Confidence    float64
	Strategy      string
	State         State
	LowConfidence bool
	// Reason is set when the field is unresolved or below threshold.
	Reason   string
	Attempts []Attempt
	// Step is the index of the last strategy attempted.
	Step int
}

// Found reports whether any strategy produced a value.
func (r Resolution[T]) Found() bool { return r.State == Resolved }

// Run tries strategies in order. The first candidate at or above threshold
// wins. Otherwise the best candidate is returned marked low confidence, and
// when no strategy matched the resolution is Exhausted.
func Run[T any](strategies []Strategy[T], in *Input, threshold float64) Resolution[T] {
	res := Resolution[T]{State: Pending, Step: -1}
	var best *Candidate[T]

	for i, s := range strategies {
		res.State, res.Step = Attempted, i
		c, ok := s.Resolve(in)
		att := Attempt{Strategy: s.Name(), Matched: ok}
		if ok {
			att.Confidence = c.Confidence
			if c.Strategy == "" {
				c.Strategy = s.Name()
			}
		}
		res.Attempts = append(res.Attempts, att)
		if !ok {
			continue
		}
		if c.Confidence >= threshold {
			res.Value, res.Confidence, res.Strategy = c.Value, c.Confidence, c.Strategy
			res.State = Resolved
			return res
		}
		if best == nil || c.Confidence > best.Confidence {
			cc := c
			best = &cc
		}
	}

	if best == nil {
		res.State = Exhausted
		res.Reason = document.ReasonNoStrategyMatched
		return res
	}
	res.Value, res.Confidence, res.Strategy = best.Value, best.Confidence, best.Strategy
	res.State = Resolved
	res.LowConfidence = true
	res.Reason = document.ReasonLowConfidence
	return res
}

// Select returns the strategies named in names, in that order. An empty list
// selects defaults.
func Select[T any](byName map[string]Strategy[T], names []string, defaults []Strategy[T]) ([]Strategy[T], error) {
	if len(names) == 0 {
		return defaults, nil
	}
	out := make([]Strategy[T], 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		s, ok := byName[n]
		if !ok {
			return nil, fmt.Errorf("unknown strategy %q", n)
		}
		if seen[n] {
			return nil, fmt.Errorf("strategy %q listed twice", n)
		}
		seen[n] = true
		out = append(out, s)
	}
	return out, nil
}
