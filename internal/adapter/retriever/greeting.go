package retriever

import (
	"strings"
	"unicode"
)

var greetings = map[string]struct{}{
	"hi":             {},
	"hello":          {},
	"hey":            {},
	"good morning":   {},
	"good afternoon": {},
	"good evening":   {},
}

// IsGreeting reports whether query is a bare greeting such as "  Hi!! ".
// Punctuation is dropped and case ignored before matching.
func IsGreeting(query string) bool {
	var b strings.Builder
	b.Grow(len(query))
	for _, r := range query {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	_, ok := greetings[strings.ToLower(strings.TrimSpace(b.String()))]
	return ok
}
