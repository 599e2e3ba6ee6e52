package retriever

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medrag/internal/domain"
	"medrag/internal/metrics"
	"medrag/internal/port"
)

type fakeBackend struct {
	hits  []port.SearchHit
	err   error
	delay time.Duration

	calls     int
	lastIndex string
	lastQuery string
	lastTopK  int
}

func (f *fakeBackend) Search(ctx context.Context, indexName, query string, topK int) ([]port.SearchHit, error) {
	f.calls++
	f.lastIndex, f.lastQuery, f.lastTopK = indexName, query, topK
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.hits, f.err
}

func hit(id, text string) port.SearchHit {
	return port.SearchHit{ID: id, Content: map[string]any{"text": text}}
}

func TestSearchRetriever_PositionalIDs(t *testing.T) {
	backend := &fakeBackend{hits: []port.SearchHit{
		hit("", "first"),
		hit("", "second"),
		{ID: "", Content: map[string]any{"title": "no text"}},
	}}
	r := NewSearchRetriever(backend, "childrens_hospital_index", 0, nil, nil)

	chunks := r.Retrieve(context.Background(), "fever", 0)

	assert.Equal(t, 1, backend.calls)
	assert.Equal(t, "childrens_hospital_index", backend.lastIndex)
	assert.Equal(t, "fever", backend.lastQuery)
	assert.Equal(t, DefaultLimit, backend.lastTopK)
	assert.Equal(t, []domain.Chunk{
		{ID: "doc_0", Text: "first"},
		{ID: "doc_1", Text: "second"},
		{ID: "doc_2", Text: ""},
	}, chunks)
}

func TestSearchRetriever_BackendIDsAndCollisions(t *testing.T) {
	backend := &fakeBackend{hits: []port.SearchHit{
		hit("doc_1", "a"),
		hit("chunk-7", "b"),
		hit("chunk-7", "c"),
		hit("", "d"),
	}}
	r := NewSearchRetriever(backend, "idx", 0, nil, nil)

	chunks := r.Retrieve(context.Background(), "q", 8)

	ids := make([]string, len(chunks))
	for i, c := range chunks {
		ids[i] = c.ID
	}
	assert.Equal(t, []string{"doc_1", "chunk-7", "doc_2", "doc_3"}, ids)
}

func TestSearchRetriever_PositionalCollision(t *testing.T) {
	backend := &fakeBackend{hits: []port.SearchHit{
		hit("doc_1", "a"),
		hit("", "b"),
	}}
	r := NewSearchRetriever(backend, "idx", 0, nil, nil)

	chunks := r.Retrieve(context.Background(), "q", 8)
	require.Len(t, chunks, 2)
	assert.Equal(t, "doc_1", chunks[0].ID)
	assert.Equal(t, "doc_1_1", chunks[1].ID)
}

func TestSearchRetriever_TruncatesToLimit(t *testing.T) {
	backend := &fakeBackend{hits: []port.SearchHit{hit("", "a"), hit("", "b"), hit("", "c")}}
	r := NewSearchRetriever(backend, "idx", 0, nil, nil)

	chunks := r.Retrieve(context.Background(), "q", 2)
	assert.Len(t, chunks, 2)
	assert.Equal(t, 2, backend.lastTopK)
}

func TestSearchRetriever_ErrorYieldsEmpty(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewPipeline(reg)
	backend := &fakeBackend{err: errors.New("401 unauthorized")}
	r := NewSearchRetriever(backend, "idx", 0, nil, m)

	chunks := r.Retrieve(context.Background(), "q", 8)

	assert.Empty(t, chunks)
	count, err := testutil.GatherAndCount(reg, "medrag_backend_errors_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestSearchRetriever_TimeoutYieldsEmpty(t *testing.T) {
	backend := &fakeBackend{hits: []port.SearchHit{hit("", "late")}, delay: time.Second}
	r := NewSearchRetriever(backend, "idx", 20*time.Millisecond, nil, nil)

	start := time.Now()
	chunks := r.Retrieve(context.Background(), "q", 8)

	assert.Empty(t, chunks)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}
