package retriever

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"medrag/internal/domain"
	"medrag/internal/port"
)

func makeChunks(n int) []domain.Chunk {
	chunks := make([]domain.Chunk, n)
	for i := range chunks {
		chunks[i] = domain.Chunk{ID: fmt.Sprintf("doc_%d", i), Text: fmt.Sprintf("passage %d", i)}
	}
	return chunks
}

func TestPassThroughSelector_BoundsAndOrder(t *testing.T) {
	s := NewPassThroughSelector()
	ctx := context.Background()

	for n := 0; n <= 6; n++ {
		for topN := 0; topN <= 5; topN++ {
			chunks := makeChunks(n)
			got := s.Select(ctx, "q", chunks, topN)
			assert.LessOrEqual(t, len(got), topN)
			assert.Equal(t, min(n, topN), len(got))
			for i := range got {
				assert.Equal(t, chunks[i], got[i])
			}
		}
	}
}

func TestPassThroughSelector_DoesNotAlias(t *testing.T) {
	chunks := makeChunks(4)
	got := NewPassThroughSelector().Select(context.Background(), "q", chunks, DefaultTopN)
	got[0].ID = "changed"
	assert.Equal(t, "doc_0", chunks[0].ID)
}

type fakeReranker struct {
	results []port.RerankedResult
	err     error
	docs    []string
}

func (f *fakeReranker) Rerank(_ context.Context, _ string, documents []string) ([]port.RerankedResult, error) {
	f.docs = documents
	return f.results, f.err
}

func (f *fakeReranker) ModelName() string { return "fake-rerank" }

func TestRerankSelector_Reorders(t *testing.T) {
	rr := &fakeReranker{results: []port.RerankedResult{
		{Index: 3, Score: 0.9},
		{Index: 9, Score: 0.8},
		{Index: 0, Score: 0.7},
		{Index: 3, Score: 0.6},
		{Index: 1, Score: 0.5},
		{Index: 2, Score: 0.4},
	}}
	s := NewRerankSelector(rr, nil, nil)

	got := s.Select(context.Background(), "q", makeChunks(4), 3)

	assert.Equal(t, []string{"passage 0", "passage 1", "passage 2", "passage 3"}, rr.docs)
	ids := make([]string, len(got))
	for i, c := range got {
		ids[i] = c.ID
	}
	assert.Equal(t, []string{"doc_3", "doc_0", "doc_1"}, ids)
}

func TestRerankSelector_FallsBackOnError(t *testing.T) {
	s := NewRerankSelector(&fakeReranker{err: errors.New("boom")}, nil, nil)

	got := s.Select(context.Background(), "q", makeChunks(5), 3)
	assert.Equal(t, makeChunks(3), got)
}

func TestRerankSelector_Empty(t *testing.T) {
	rr := &fakeReranker{}
	s := NewRerankSelector(rr, nil, nil)

	assert.Nil(t, s.Select(context.Background(), "q", nil, 3))
	assert.Nil(t, rr.docs, "reranker must not be called without candidates")
}
