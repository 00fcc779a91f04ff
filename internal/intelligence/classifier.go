package intelligence

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/a3tai/mcp-ddt-reader/internal/document"
)

// DocumentClassifier performs rule-based document kind classification.
// Rules are compiled once; a classifier is safe for concurrent use.
type DocumentClassifier struct {
	config ClassificationConfig
	rules  []compiledRule
}

type compiledRule struct {
	ClassificationRule
	patterns []*regexp.Regexp
	keywords []string
}

// NewDocumentClassifier creates a new document classifier with default configuration
func NewDocumentClassifier() *DocumentClassifier {
	dc, err := NewDocumentClassifierWithRules(DefaultClassificationConfig(), getDefaultRules())
	if err != nil {
		panic(fmt.Sprintf("intelligence: default rules: %v", err))
	}
	return dc
}

// NewDocumentClassifierWithRules creates a classifier from a custom rule set
func NewDocumentClassifierWithRules(config ClassificationConfig, rules []ClassificationRule) (*DocumentClassifier, error) {
	dc := &DocumentClassifier{config: config}

	for _, rule := range rules {
		if !rule.Enabled {
			continue
		}
		cr := compiledRule{ClassificationRule: rule}
		for _, p := range rule.KeywordPatterns {
			re, err := regexp.Compile("(?im)" + p)
			if err != nil {
				return nil, fmt.Errorf("rule %s: pattern %q: %w", rule.Name, p, err)
			}
			cr.patterns = append(cr.patterns, re)
		}
		for _, k := range rule.Keywords {
			cr.keywords = append(cr.keywords, strings.ToLower(k))
		}
		dc.rules = append(dc.rules, cr)
	}

	sort.SliceStable(dc.rules, func(i, j int) bool {
		return dc.rules[i].Priority < dc.rules[j].Priority
	})
	return dc, nil
}

// Rules returns the names of the active rules in evaluation order
func (dc *DocumentClassifier) Rules() []string {
	names := make([]string, len(dc.rules))
	for i, r := range dc.rules {
		names[i] = r.Name
	}
	return names
}

// Classify scores every kind and returns the best one. Kind is
// KindUnknown when no kind reaches the configured threshold.
func (dc *DocumentClassifier) Classify(content string) Classification {
	scores := make(map[document.Kind]float64)
	reasons := make(map[document.Kind][]ClassificationReason)
	var applied []string

	lower := strings.ToLower(content)
	for _, rule := range dc.rules {
		confidence, ruleReasons := dc.evaluateRule(rule, content, lower)
		if confidence < rule.MinConfidence {
			continue
		}
		scores[rule.Kind] += confidence * rule.Weight
		reasons[rule.Kind] = append(reasons[rule.Kind], ruleReasons...)
		applied = append(applied, rule.Name)
	}

	kind, best, total := dc.determinePrimaryClassification(scores)
	if best < dc.config.MinConfidenceThreshold {
		return Classification{
			Kind:         document.KindUnknown,
			Alternatives: dc.generateAlternatives(scores, document.KindUnknown, total),
			RulesApplied: applied,
		}
	}

	return Classification{
		Kind:         kind,
		Confidence:   best / total,
		Alternatives: dc.generateAlternatives(scores, kind, total),
		Reasons:      reasons[kind],
		RulesApplied: applied,
	}
}

// evaluateRule counts distinct matching patterns and keywords
func (dc *DocumentClassifier) evaluateRule(rule compiledRule, content, lower string) (float64, []ClassificationReason) {
	var confidence float64
	var reasons []ClassificationReason

	for _, re := range rule.patterns {
		m := re.FindString(content)
		if m == "" {
			continue
		}
		confidence += dc.config.PatternScore
		reasons = append(reasons, ClassificationReason{
			Rule:       rule.Name,
			Category:   "pattern",
			Evidence:   fmt.Sprintf("Pattern matched %q", strings.TrimSpace(m)),
			Confidence: dc.config.PatternScore,
			Weight:     rule.Weight,
		})
	}

	for _, k := range rule.keywords {
		if !strings.Contains(lower, k) {
			continue
		}
		confidence += dc.config.KeywordScore
		reasons = append(reasons, ClassificationReason{
			Rule:       rule.Name,
			Category:   "keyword",
			Evidence:   fmt.Sprintf("Found keyword '%s'", k),
			Confidence: dc.config.KeywordScore,
			Weight:     rule.Weight,
		})
	}

	if confidence > 1 {
		confidence = 1
	}
	return confidence, reasons
}

// determinePrimaryClassification picks the highest score; ties go to the
// earlier kind in kindOrder.
func (dc *DocumentClassifier) determinePrimaryClassification(scores map[document.Kind]float64) (document.Kind, float64, float64) {
	kind := document.KindUnknown
	var best, total float64
	for _, k := range kindOrder {
		s := scores[k]
		total += s
		if s > best {
			kind, best = k, s
		}
	}
	return kind, best, total
}

// generateAlternatives lists the other scored kinds by descending confidence
func (dc *DocumentClassifier) generateAlternatives(scores map[document.Kind]float64, primary document.Kind, total float64) []ClassificationAlternative {
	if total == 0 {
		return nil
	}
	var alts []ClassificationAlternative
	for _, k := range kindOrder {
		if k == primary || scores[k] == 0 {
			continue
		}
		alts = append(alts, ClassificationAlternative{Kind: k, Confidence: scores[k] / total})
	}
	sort.SliceStable(alts, func(i, j int) bool {
		return alts[i].Confidence > alts[j].Confidence
	})
	if len(alts) > dc.config.MaxAlternatives {
		alts = alts[:dc.config.MaxAlternatives]
	}
	return alts
}
