package retriever

import (
	"context"

	"medrag/internal/domain"
	"medrag/internal/metrics"
	"medrag/internal/platform/logger"
	"medrag/internal/port"
)

// RerankSelector orders passages with a cross-encoder before truncating.
// If the reranker fails the backend order is kept.
type RerankSelector struct {
	reranker port.Reranker
	log      *logger.Logger
	metrics  *metrics.Pipeline
}

func NewRerankSelector(reranker port.Reranker, log *logger.Logger, m *metrics.Pipeline) *RerankSelector {
	if log == nil {
		log = logger.Nop()
	}
	return &RerankSelector{
		reranker: reranker,
		log:      log.With("component", "selector", "model", reranker.ModelName()),
		metrics:  m,
	}
}

func (s *RerankSelector) Select(ctx context.Context, query string, chunks []domain.Chunk, topN int) []domain.Chunk {
	if topN <= 0 || len(chunks) == 0 {
		return nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	ranked, err := s.reranker.Rerank(ctx, query, texts)
	if err != nil {
		s.metrics.BackendError("rerank")
		s.log.Warn("rerank failed, keeping backend order", "error", err.Error())
		return truncate(chunks, topN)
	}

	out := make([]domain.Chunk, 0, min(topN, len(ranked)))
	used := make(map[int]struct{}, len(ranked))
	for _, r := range ranked {
		if len(out) == topN {
			break
		}
		if r.Index < 0 || r.Index >= len(chunks) {
			continue
		}
		if _, dup := used[r.Index]; dup {
			continue
		}
		used[r.Index] = struct{}{}
		out = append(out, chunks[r.Index])
	}
	return out
}
