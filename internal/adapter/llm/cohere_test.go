package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medrag/internal/platform/logger"
	"medrag/internal/port"
)

func newTestClient(t *testing.T, url string, retries int) *Client {
	t.Helper()
	c, err := NewClient(logger.Nop(), Config{
		APIKey:         "test-key",
		BaseURL:        url,
		MaxRetries:     retries,
		InitialBackoff: time.Millisecond,
	})
	require.NoError(t, err)
	return c
}

func TestNewClient_RequiresKey(t *testing.T) {
	_, err := NewClient(logger.Nop(), Config{})
	assert.Error(t, err)
}

func TestChat_RequestAndResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "What causes fever?", req.Message)
		assert.Equal(t, "command-r-08-2024", req.Model)
		assert.Equal(t, "be precise", req.Preamble)
		assert.InDelta(t, 0.3, req.Temperature, 1e-9)
		require.Len(t, req.Documents, 1)
		assert.Equal(t, "doc_0", req.Documents[0].ID)
		assert.Equal(t, "doc_0", req.Documents[0].Title)

		_, _ = w.Write([]byte(`{"text":"Fever is common.","citations":[{"start":0,"end":5,"text":"Fever","document_ids":["doc_0"]}]}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, 0)
	resp, err := c.Chat(context.Background(), port.ChatRequest{
		Message:     "What causes fever?",
		Documents:   []port.ChatDocument{{ID: "doc_0", Title: "doc_0", Snippet: "Fever..."}},
		Preamble:    "be precise",
		Temperature: 0.3,
	})
	require.NoError(t, err)
	assert.Equal(t, "Fever is common.", resp.Text)
	require.Len(t, resp.Citations, 1)
	assert.Equal(t, 0, resp.Citations[0].Start)
	assert.Equal(t, 5, resp.Citations[0].End)
	assert.Equal(t, []string{"doc_0"}, resp.Citations[0].DocumentIDs)
}

func TestChat_NullCitations(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"text":"No sources.","citations":null}`))
	}))
	defer srv.Close()

	resp, err := newTestClient(t, srv.URL, 0).Chat(context.Background(), port.ChatRequest{Message: "q"})
	require.NoError(t, err)
	assert.Nil(t, resp.Citations)
}

func TestChat_RetriesRateLimit(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"message":"slow down"}`))
			return
		}
		_, _ = w.Write([]byte(`{"text":"ok"}`))
	}))
	defer srv.Close()

	resp, err := newTestClient(t, srv.URL, 2).Chat(context.Background(), port.ChatRequest{Message: "q"})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Text)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestChat_AuthFailureNotRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"invalid api token"}`))
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv.URL, 3).Chat(context.Background(), port.ChatRequest{Message: "q"})
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.HTTPStatus())
	assert.Equal(t, "invalid api token", apiErr.Message)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestRerank(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/rerank", r.URL.Path)
		var req rerankRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "rerank-english-v3.0", req.Model)
		assert.Len(t, req.Documents, 3)
		_, _ = w.Write([]byte(`{"results":[{"index":0,"relevance_score":0.2},{"index":2,"relevance_score":0.9},{"index":7,"relevance_score":0.99}]}`))
	}))
	defer srv.Close()

	r := NewReranker(newTestClient(t, srv.URL, 0), "")
	results, err := r.Rerank(context.Background(), "fever", []string{"a", "b", "c"})
	require.NoError(t, err)
	require.Len(t, results, 2, "out-of-range indices are dropped")
	assert.Equal(t, 2, results[0].Index)
	assert.Equal(t, 0, results[1].Index)
}
