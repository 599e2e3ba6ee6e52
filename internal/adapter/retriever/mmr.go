package retriever

import (
	"context"

	"medrag/internal/adapter/analyzer"
	"medrag/internal/domain"
)

// MMRSelector implements Maximal Marginal Relevance for result diversification.
// The backend returns no scores, so relevance is derived from rank.
type MMRSelector struct {
	lambda       float64
	dedupJaccard float64
	tokenizer    *analyzer.Tokenizer
}

// NewMMRSelector creates a new MMR selector.
func NewMMRSelector(lambda, dedupJaccard float64, tokenizer *analyzer.Tokenizer) *MMRSelector {
	if tokenizer == nil {
		tokenizer = analyzer.NewTokenizer(true)
	}
	return &MMRSelector{
		lambda:       lambda,
		dedupJaccard: dedupJaccard,
		tokenizer:    tokenizer,
	}
}

// Select applies MMR to diversify the results.
// MMR(c) = λ * relevance(c) - (1-λ) * max_similarity(c, selected)
func (s *MMRSelector) Select(_ context.Context, _ string, chunks []domain.Chunk, topN int) []domain.Chunk {
	if topN <= 0 || len(chunks) == 0 {
		return nil
	}

	k := min(topN, len(chunks))
	n := float64(len(chunks))

	type candidate struct {
		chunk     domain.Chunk
		relevance float64
		tokens    []string
	}

	remaining := make([]candidate, len(chunks))
	for i, c := range chunks {
		remaining[i] = candidate{
			chunk:     c,
			relevance: 1 - float64(i)/n,
			tokens:    s.tokenizer.Tokenize(c.Text),
		}
	}

	selected := make([]candidate, 0, k)
	for len(selected) < k && len(remaining) > 0 {
		bestIdx := -1
		bestMMR := -1e9

		for i, cand := range remaining {
			maxSim := 0.0
			for _, sel := range selected {
				if sim := jaccardSimilarity(cand.tokens, sel.tokens); sim > maxSim {
					maxSim = sim
				}
			}

			// near-duplicates of something already chosen are dropped
			if maxSim > s.dedupJaccard {
				continue
			}

			mmr := s.lambda*cand.relevance - (1-s.lambda)*maxSim
			if mmr > bestMMR {
				bestMMR = mmr
				bestIdx = i
			}
		}

		if bestIdx == -1 {
			break
		}

		selected = append(selected, remaining[bestIdx])
		remaining = append(remaining[:bestIdx], remaining[bestIdx+1:]...)
	}

	out := make([]domain.Chunk, len(selected))
	for i, c := range selected {
		out[i] = c.chunk
	}
	return out
}

// jaccardSimilarity computes the Jaccard similarity between two token sets.
func jaccardSimilarity(a, b []string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1.0
	}
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}

	setA := make(map[string]struct{}, len(a))
	for _, t := range a {
		setA[t] = struct{}{}
	}

	setB := make(map[string]struct{}, len(b))
	for _, t := range b {
		setB[t] = struct{}{}
	}

	intersection := 0
	for t := range setA {
		if _, exists := setB[t]; exists {
			intersection++
		}
	}

	union := len(setA) + len(setB) - intersection
	return float64(intersection) / float64(union)
}
