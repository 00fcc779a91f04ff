package intelligence

import (
	"github.com/a3tai/mcp-ddt-reader/internal/document"
)

// ClassificationRule scores one document kind from keywords and patterns
type ClassificationRule struct {
	Name            string        `json:"name"`
	Kind            document.Kind `json:"kind"`
	Category        string        `json:"category"` // signature, keyword
	Keywords        []string      `json:"keywords,omitempty"`
	KeywordPatterns []string      `json:"keyword_patterns,omitempty"`
	Weight          float64       `json:"weight"`
	MinConfidence   float64       `json:"min_confidence"`
	Priority        int           `json:"priority"`
	Enabled         bool          `json:"enabled"`
	Description     string        `json:"description,omitempty"`
}

// ClassificationConfig holds classifier thresholds
type ClassificationConfig struct {
	// Minimum weighted score for the best kind to be accepted
	MinConfidenceThreshold float64 `json:"min_confidence_threshold"`

	// Score contributed by each matching pattern and keyword
	PatternScore float64 `json:"pattern_score"`
	KeywordScore float64 `json:"keyword_score"`

	MaxAlternatives int `json:"max_alternatives"`
}

// DefaultClassificationConfig returns the default classifier configuration
func DefaultClassificationConfig() ClassificationConfig {
	return ClassificationConfig{
		MinConfidenceThreshold: 0.2,
		PatternScore:           0.5,
		KeywordScore:           0.15,
		MaxAlternatives:        2,
	}
}

// Classification is the outcome of classifying one text
type Classification struct {
	Kind         document.Kind               `json:"kind"`
	Confidence   float64                     `json:"confidence"` // 0.0 to 1.0
	Alternatives []ClassificationAlternative `json:"alternatives,omitempty"`
	Reasons      []ClassificationReason      `json:"reasons,omitempty"`
	RulesApplied []string                    `json:"rules_applied,omitempty"`
}

// Recognized reports whether any kind was accepted
func (c Classification) Recognized() bool {
	return c.Kind != document.KindUnknown
}

// ClassificationAlternative is a lower-scoring kind
type ClassificationAlternative struct {
	Kind       document.Kind `json:"kind"`
	Confidence float64       `json:"confidence"`
}

// ClassificationReason explains a rule's contribution
type ClassificationReason struct {
	Rule       string  `json:"rule"`
	Category   string  `json:"category"` // keyword, pattern
	Evidence   string  `json:"evidence"`
	Confidence float64 `json:"confidence"`
	Weight     float64 `json:"weight"`
}

// kindOrder breaks score ties: credit notes quote invoices, invoices quote
// delivery notes, never the other way round.
var kindOrder = []document.Kind{
	document.KindCreditNote,
	document.KindInvoice,
	document.KindDeliveryNote,
}
