package retriever

import (
	"context"
	"fmt"
	"time"

	"medrag/internal/domain"
	"medrag/internal/metrics"
	"medrag/internal/platform/logger"
	"medrag/internal/port"
)

// DefaultLimit is the number of hits requested when the caller passes none.
const DefaultLimit = 8

// SearchRetriever wraps a search backend and absorbs its failures.
type SearchRetriever struct {
	backend   port.SearchBackend
	indexName string
	timeout   time.Duration
	log       *logger.Logger
	metrics   *metrics.Pipeline
}

func NewSearchRetriever(
	backend port.SearchBackend,
	indexName string,
	timeout time.Duration,
	log *logger.Logger,
	m *metrics.Pipeline,
) *SearchRetriever {
	if log == nil {
		log = logger.Nop()
	}
	return &SearchRetriever{
		backend:   backend,
		indexName: indexName,
		timeout:   timeout,
		log:       log.With("component", "retriever"),
		metrics:   m,
	}
}

// Retrieve calls the backend once. Errors and timeouts are logged and yield
// an empty slice. Hits without an id, or whose id repeats within this call,
// get the positional label doc_<n>.
func (r *SearchRetriever) Retrieve(ctx context.Context, query string, limit int) []domain.Chunk {
	if limit <= 0 {
		limit = DefaultLimit
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	hits, err := r.backend.Search(ctx, r.indexName, query, limit)
	if err != nil {
		r.metrics.BackendError("search")
		r.log.Warn("error retrieving documents", "index", r.indexName, "error", err.Error())
		return nil
	}

	if len(hits) > limit {
		hits = hits[:limit]
	}

	chunks := make([]domain.Chunk, 0, len(hits))
	seen := make(map[string]struct{}, len(hits))
	for idx, hit := range hits {
		id := hit.ID
		if _, dup := seen[id]; id == "" || dup {
			id = fmt.Sprintf("doc_%d", idx)
			for n := 1; ; n++ {
				if _, taken := seen[id]; !taken {
					break
				}
				id = fmt.Sprintf("doc_%d_%d", idx, n)
			}
		}
		seen[id] = struct{}{}
		chunks = append(chunks, domain.Chunk{ID: id, Text: hit.Text()})
	}
	return chunks
}
