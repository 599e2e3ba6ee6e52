package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"medrag/internal/domain"
)

func TestMapCitations_NilAndEmpty(t *testing.T) {
	got := MapCitations("answer", nil)
	assert.NotNil(t, got)
	assert.Empty(t, got)

	got = MapCitations("answer", []domain.RawCitation{})
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestMapCitations_InBoundsSlices(t *testing.T) {
	answer := "Fever is common in infants."
	for start := 0; start <= len(answer); start++ {
		for end := start; end <= len(answer); end++ {
			got := MapCitations(answer, []domain.RawCitation{{Start: start, End: end, DocumentIDs: []string{"doc_0"}}})
			if assert.Len(t, got, 1) {
				assert.Equal(t, answer[start:end], got[0].SpanText)
			}
		}
	}
}

func TestMapCitations_RuneOffsets(t *testing.T) {
	got := MapCitations("Fièvre élevée", []domain.RawCitation{{Start: 7, End: 13, DocumentIDs: []string{"doc_1"}}})
	assert.Equal(t, []domain.Citation{{SpanText: "élevée", DocumentIDs: []string{"doc_1"}}}, got)
}

func TestMapCitations_ClampsAndSkips(t *testing.T) {
	answer := "Fever is common."
	got := MapCitations(answer, []domain.RawCitation{
		{Start: -4, End: 5, DocumentIDs: []string{"a"}},
		{Start: 9, End: 400, DocumentIDs: []string{"b"}},
		{Start: 10, End: 3, DocumentIDs: []string{"c"}},
		{Start: 500, End: 600, DocumentIDs: []string{"d"}},
	})

	assert.Equal(t, []domain.Citation{
		{SpanText: "Fever", DocumentIDs: []string{"a"}},
		{SpanText: "common.", DocumentIDs: []string{"b"}},
		{SpanText: "", DocumentIDs: []string{"d"}},
	}, got)
}

func TestMapCitations_DuplicatesPassThrough(t *testing.T) {
	got := MapCitations("Fever is common.", []domain.RawCitation{
		{Start: 0, End: 5, DocumentIDs: []string{"doc_2", "doc_0", "doc_2"}},
		{Start: 0, End: 5, DocumentIDs: []string{"doc_2"}},
		{Start: 3, End: 8, DocumentIDs: nil},
	})

	assert.Equal(t, []domain.Citation{
		{SpanText: "Fever", DocumentIDs: []string{"doc_2", "doc_0"}},
		{SpanText: "Fever", DocumentIDs: []string{"doc_2"}},
		{SpanText: "er is", DocumentIDs: []string{}},
	}, got)
}
