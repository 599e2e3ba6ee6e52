package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"medrag/internal/platform/logger"
	"medrag/internal/port"
)

// ErrCircuitOpen is returned while the breaker refuses calls to Compass.
var ErrCircuitOpen = errors.New("compass circuit breaker is open")

// HTTPError is a non-2xx response from Compass.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("compass http %d: %s", e.StatusCode, e.Body)
}

type Config struct {
	BaseURL         string
	Token           string
	Timeout         time.Duration
	BreakerFailures uint32
	BreakerCooldown time.Duration
}

// CompassClient searches a Compass chunk index over HTTP.
type CompassClient struct {
	cfg     Config
	http    *http.Client
	breaker *gobreaker.CircuitBreaker
	log     *logger.Logger
}

type searchChunksRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k"`
}

type searchChunksResponse struct {
	Hits []compassHit `json:"hits"`
}

type compassHit struct {
	ChunkID    string         `json:"chunk_id"`
	DocumentID string         `json:"document_id"`
	Score      float64        `json:"score"`
	Content    map[string]any `json:"content"`
}

func NewCompassClient(log *logger.Logger, cfg Config) (*CompassClient, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, fmt.Errorf("compass base URL required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.BreakerFailures == 0 {
		cfg.BreakerFailures = 5
	}
	if cfg.BreakerCooldown <= 0 {
		cfg.BreakerCooldown = 30 * time.Second
	}

	log = log.With("client", "CompassClient")
	failures := cfg.BreakerFailures
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "compass",
		MaxRequests: 1,
		Timeout:     cfg.BreakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	})

	return &CompassClient{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		breaker: breaker,
		log:     log,
	}, nil
}

// Search implements port.SearchBackend.
func (c *CompassClient) Search(ctx context.Context, indexName, query string, topK int) ([]port.SearchHit, error) {
	indexName = strings.TrimSpace(indexName)
	if indexName == "" {
		return nil, fmt.Errorf("index name required")
	}
	if topK <= 0 {
		topK = 8
	}

	out, err := c.breaker.Execute(func() (interface{}, error) {
		return c.searchChunks(ctx, indexName, query, topK)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %v", ErrCircuitOpen, err)
		}
		return nil, err
	}
	return out.([]port.SearchHit), nil
}

func (c *CompassClient) searchChunks(ctx context.Context, indexName, query string, topK int) ([]port.SearchHit, error) {
	body, err := json.Marshal(searchChunksRequest{Query: query, TopK: topK})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	u := strings.TrimRight(c.cfg.BaseURL, "/") + "/api/v1/indexes/" + url.PathEscape(indexName) + "/_search_chunks"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &HTTPError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	var parsed searchChunksResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	hits := make([]port.SearchHit, 0, len(parsed.Hits))
	for _, h := range parsed.Hits {
		hits = append(hits, port.SearchHit{ID: h.ChunkID, Content: h.Content})
	}
	c.log.Debug("compass search complete", "index", indexName, "top_k", topK, "hits", len(hits))
	return hits, nil
}
