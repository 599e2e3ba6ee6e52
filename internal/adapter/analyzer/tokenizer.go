package analyzer

import (
	"strings"
	"unicode"
)

// Tokenizer splits passage text into comparable terms.
type Tokenizer struct {
	stopwords   map[string]struct{}
	foldPlurals bool
}

// NewTokenizer creates a new Tokenizer. With foldPlurals, regular English
// plurals are reduced to their singular ("infants" -> "infant").
func NewTokenizer(foldPlurals bool) *Tokenizer {
	return &Tokenizer{
		stopwords:   defaultStopwords(),
		foldPlurals: foldPlurals,
	}
}

// Tokenize lowercases text and returns its terms, minus stopwords and
// one-letter words. Hyphenated terms such as "beta-blocker" stay whole.
func (t *Tokenizer) Tokenize(text string) []string {
	words := splitWords(text)
	tokens := make([]string, 0, len(words))

	for _, word := range words {
		word = strings.ToLower(strings.Trim(word, "-"))
		if len(word) < 2 {
			continue
		}
		if _, isStop := t.stopwords[word]; isStop {
			continue
		}
		if t.foldPlurals {
			word = singular(word)
		}
		tokens = append(tokens, word)
	}

	return tokens
}

// singular strips common plural endings. It is deliberately shallow; words
// ending in "ss" or "us" ("abscess", "virus") are left alone.
func singular(word string) string {
	switch {
	case len(word) <= 3:
		return word
	case strings.HasSuffix(word, "ies") && len(word) > 4:
		return word[:len(word)-3] + "y"
	case strings.HasSuffix(word, "ss"), strings.HasSuffix(word, "us"), strings.HasSuffix(word, "is"):
		return word
	case strings.HasSuffix(word, "s"):
		return word[:len(word)-1]
	}
	return word
}

// splitWords splits text on anything but letters, digits and inner hyphens.
func splitWords(text string) []string {
	var words []string
	var current strings.Builder

	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || (r == '-' && current.Len() > 0) {
			current.WriteRune(r)
		} else {
			if current.Len() > 0 {
				words = append(words, current.String())
				current.Reset()
			}
		}
	}
	if current.Len() > 0 {
		words = append(words, current.String())
	}

	return words
}

// defaultStopwords returns a set of common English stopwords.
func defaultStopwords() map[string]struct{} {
	stops := []string{
		"a", "an", "and", "are", "as", "at", "be", "by", "for",
		"from", "has", "he", "in", "is", "it", "its", "of", "on",
		"that", "the", "to", "was", "were", "will", "with", "this",
		"have", "had", "but", "not", "you", "your", "we", "our",
		"they", "their", "she", "her", "his", "if", "or", "so",
		"no", "can", "do", "does", "did", "been", "being", "would",
		"could", "should", "may", "might", "must", "shall", "which",
		"who", "whom", "what", "when", "where", "why", "how", "all",
		"each", "every", "both", "few", "more", "most", "other",
		"some", "such", "than", "too", "very", "just", "also",
		"patient", "patients",
	}
	m := make(map[string]struct{}, len(stops))
	for _, s := range stops {
		m[s] = struct{}{}
	}
	return m
}
