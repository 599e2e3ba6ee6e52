package retriever

import (
	"context"

	"medrag/internal/domain"
)

// DefaultTopN is the number of passages handed to the model by default.
const DefaultTopN = 3

// PassThroughSelector keeps the backend's ranking and truncates it.
type PassThroughSelector struct{}

func NewPassThroughSelector() PassThroughSelector {
	return PassThroughSelector{}
}

func (PassThroughSelector) Select(_ context.Context, _ string, chunks []domain.Chunk, topN int) []domain.Chunk {
	return truncate(chunks, topN)
}

// truncate returns a copy of the first topN chunks.
func truncate(chunks []domain.Chunk, topN int) []domain.Chunk {
	if topN <= 0 || len(chunks) == 0 {
		return nil
	}
	if len(chunks) > topN {
		chunks = chunks[:topN]
	}
	out := make([]domain.Chunk, len(chunks))
	copy(out, chunks)
	return out
}
