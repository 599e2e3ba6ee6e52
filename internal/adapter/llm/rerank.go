package llm

import (
	"context"
	"sort"

	"medrag/internal/port"
)

// Cohere has a limit of 1000 documents per rerank request.
const maxRerankDocs = 1000

type rerankRequest struct {
	Query     string   `json:"query"`
	Documents []string `json:"documents"`
	Model     string   `json:"model"`
	TopN      int      `json:"top_n,omitempty"`
}

type rerankResponse struct {
	Results []rerankResult `json:"results"`
}

type rerankResult struct {
	Index          int     `json:"index"`
	RelevanceScore float64 `json:"relevance_score"`
}

// Reranker adapts Client to port.Reranker with its own model name.
type Reranker struct {
	client *Client
	model  string
}

func NewReranker(client *Client, model string) *Reranker {
	if model == "" {
		model = "rerank-english-v3.0"
	}
	return &Reranker{client: client, model: model}
}

// Rerank scores and reorders documents based on query relevance.
func (r *Reranker) Rerank(ctx context.Context, query string, documents []string) ([]port.RerankedResult, error) {
	if len(documents) == 0 {
		return nil, nil
	}
	if len(documents) > maxRerankDocs {
		documents = documents[:maxRerankDocs]
	}

	var resp rerankResponse
	if err := r.client.do(ctx, "/v1/rerank", rerankRequest{
		Query:     query,
		Documents: documents,
		Model:     r.model,
	}, &resp); err != nil {
		return nil, err
	}

	results := make([]port.RerankedResult, 0, len(resp.Results))
	for _, res := range resp.Results {
		if res.Index < 0 || res.Index >= len(documents) {
			continue
		}
		results = append(results, port.RerankedResult{
			Index: res.Index,
			Score: res.RelevanceScore,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	return results, nil
}

func (r *Reranker) ModelName() string {
	return r.model
}
