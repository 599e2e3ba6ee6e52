package port

import (
	"context"

	"medrag/internal/domain"
)

// Retriever turns a query into ranked candidate chunks. Backend failures are
// absorbed: an unreachable backend yields an empty slice, never an error.
type Retriever interface {
	Retrieve(ctx context.Context, query string, limit int) []domain.Chunk
}

// Selector reduces a ranked candidate list to a bounded, still-ranked subset
// of at most topN chunks drawn from the input.
type Selector interface {
	Select(ctx context.Context, query string, chunks []domain.Chunk, topN int) []domain.Chunk
}
