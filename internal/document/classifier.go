// classifier.go - Rule-ordered document type classification

package document

import (
	"sort"
	"strings"
)

// Rule assigns Type when Match reports true.
// Match receives the original text and its lowercase form so keyword
// cues can be checked case-insensitively without re-lowering per rule.
type Rule struct {
	Name     string
	Priority int
	Type     DocumentType
	Match    func(text, lower string) bool
}

// Priorities of the built-in rules. Gaps leave room for rules inserted in between.
const (
	PriorityPAN      = 100
	PriorityAadhaar  = 200
	PriorityPassport = 300
)

// DefaultRules is the built-in cascade, highest priority first.
func DefaultRules() []Rule {
	return []Rule{
		{
			Name:     "pan",
			Priority: PriorityPAN,
			Type:     PANCard,
			Match: func(text, lower string) bool {
				return strings.Contains(lower, "income tax") || PANPattern.MatchString(text)
			},
		},
		{
			// "male" alone is weak; it only counts next to a grouped 12-digit number.
			Name:     "aadhaar",
			Priority: PriorityAadhaar,
			Type:     AadhaarCard,
			Match: func(text, lower string) bool {
				return strings.Contains(lower, "male") && AadhaarPattern.MatchString(text)
			},
		},
		{
			Name:     "passport",
			Priority: PriorityPassport,
			Type:     Passport,
			Match: func(_, lower string) bool {
				return strings.Contains(lower, "passport")
			},
		},
	}
}

// Classifier evaluates its rules in priority order; the first match wins.
// It is immutable after construction and safe for concurrent use.
type Classifier struct {
	rules    []Rule
	fallback DocumentType
}

// NewClassifier orders rules by ascending priority. Rules sharing a priority
// keep the order they were given in.
func NewClassifier(rules ...Rule) *Classifier {
	ordered := make([]Rule, len(rules))
	copy(ordered, rules)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority < ordered[j].Priority
	})
	return &Classifier{rules: ordered, fallback: GeneralID}
}

// DefaultClassifier returns the built-in PAN -> Aadhaar -> Passport cascade.
func DefaultClassifier() *Classifier {
	return NewClassifier(DefaultRules()...)
}

// WithRule returns a new classifier with rule inserted at its priority.
// A rule with the same priority as existing ones is evaluated after them.
// The receiver is not modified.
func (c *Classifier) WithRule(rule Rule) *Classifier {
	rules := make([]Rule, 0, len(c.rules)+1)
	rules = append(rules, c.rules...)
	rules = append(rules, rule)
	next := NewClassifier(rules...)
	next.fallback = c.fallback
	return next
}

// Rules returns the cascade in evaluation order.
func (c *Classifier) Rules() []Rule {
	out := make([]Rule, len(c.rules))
	copy(out, c.rules)
	return out
}

// Classify never fails: text that matches no rule is GeneralID.
func (c *Classifier) Classify(text string) DocumentType {
	lower := strings.ToLower(text)
	for _, rule := range c.rules {
		if rule.Match != nil && rule.Match(text, lower) {
			return rule.Type
		}
	}
	return c.fallback
}

var defaultClassifier = DefaultClassifier()

// Classify labels text with the default cascade.
func Classify(text string) DocumentType {
	return defaultClassifier.Classify(text)
}
