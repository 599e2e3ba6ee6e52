package retriever

import (
	"strings"
)

// MonitoringFocus is appended to monitoring questions so retrieval favours
// monitoring parameters over treatment sections.
const MonitoringFocus = " Focus on monitoring parameters only."

// AugmentRule rewrites a query when Match reports true.
type AugmentRule struct {
	Name  string
	Match func(query string) bool
	Apply func(query string) string
}

// KeywordRule appends suffix to any query containing keyword, ignoring case.
// A query that already ends with suffix is left alone, so the suffix is
// never added twice.
func KeywordRule(name, keyword, suffix string) AugmentRule {
	keyword = strings.ToLower(keyword)
	return AugmentRule{
		Name: name,
		Match: func(query string) bool {
			return strings.Contains(strings.ToLower(query), keyword)
		},
		Apply: func(query string) string {
			if strings.HasSuffix(query, suffix) {
				return query
			}
			return query + suffix
		},
	}
}

// DefaultAugmentRules returns the built-in rewrite rules.
func DefaultAugmentRules() []AugmentRule {
	return []AugmentRule{
		KeywordRule("monitoring", "monitoring", MonitoringFocus),
	}
}

// Augmenter biases retrieval by rewriting queries. Every matching rule is
// applied, in order, each seeing the output of the previous one.
type Augmenter struct {
	rules []AugmentRule
}

func NewAugmenter(rules ...AugmentRule) *Augmenter {
	return &Augmenter{rules: rules}
}

func (a *Augmenter) Augment(query string) string {
	if a == nil {
		return query
	}
	out := query
	for _, rule := range a.rules {
		if rule.Match(out) {
			out = rule.Apply(out)
		}
	}
	return out
}

// Matched returns the names of the rules that fire for query, for logging.
func (a *Augmenter) Matched(query string) []string {
	if a == nil {
		return nil
	}
	var names []string
	out := query
	for _, rule := range a.rules {
		if rule.Match(out) {
			names = append(names, rule.Name)
			out = rule.Apply(out)
		}
	}
	return names
}
