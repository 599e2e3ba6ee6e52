package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"medrag/config"
	"medrag/internal/adapter/analyzer"
	"medrag/internal/adapter/retriever"
	"medrag/internal/adapter/search"
	"medrag/internal/domain"
	"medrag/internal/platform/logger"
	"medrag/internal/port"
)

func main() {
	dir := flag.String("dir", ".", "Directory holding medrag.yaml")
	query := flag.String("q", "", "Query to test")
	runs := flag.Int("n", 5, "Number of timed retrievals")
	topN := flag.Int("top-n", 3, "Passages kept by each selector")
	flag.Parse()

	if *query == "" {
		fmt.Println("Usage: go run cmd/benchmark/main.go -dir . -q \"query\"")
		fmt.Println("\nReports:")
		fmt.Println("  1. Compass retrieval latency over repeated calls")
		fmt.Println("  2. Retrieved passages for the augmented query")
		fmt.Println("  3. Redundancy of the passages each selector keeps")
		os.Exit(1)
	}

	cfg, err := config.LoadFromDir(*dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New("development", "warn")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	compass, err := search.NewCompassClient(log, search.Config{
		BaseURL:         cfg.Search.URL,
		Token:           cfg.Search.Token,
		Timeout:         cfg.Search.Timeout,
		BreakerFailures: cfg.Search.BreakerFailures,
		BreakerCooldown: cfg.Search.BreakerCooldown,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Search client not available: %v\n", err)
		os.Exit(1)
	}

	augmented := retriever.NewAugmenter(retriever.DefaultAugmentRules()...).Augment(*query)
	ret := retriever.NewSearchRetriever(compass, cfg.Search.IndexName, cfg.Search.Timeout, log, nil)

	fmt.Println("RETRIEVAL BENCHMARK")
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("Backend: %s\n", cfg.Search.URL)
	fmt.Printf("Index:   %s\n", cfg.Search.IndexName)
	fmt.Printf("Query:   \"%s\"\n", *query)
	if augmented != *query {
		fmt.Printf("Sent as: \"%s\"\n", augmented)
	}
	fmt.Println(strings.Repeat("-", 70))

	ctx := context.Background()
	var chunks []domain.Chunk
	latencies := make([]time.Duration, 0, *runs)
	for i := 0; i < *runs; i++ {
		start := time.Now()
		chunks = ret.Retrieve(ctx, augmented, cfg.Retrieve.Limit)
		latencies = append(latencies, time.Since(start))
	}

	if len(chunks) == 0 {
		fmt.Println("No passages retrieved; check credentials and index name.")
		os.Exit(1)
	}

	fmt.Printf("Retrieved %d passages:\n\n", len(chunks))
	for i, c := range chunks {
		fmt.Printf("%d. [%s] %s\n", i+1, c.ID, preview(c.Text, 150))
	}

	tok := analyzer.NewTokenizer(true)
	selectors := []struct {
		name string
		sel  port.Selector
	}{
		{"passthrough", retriever.NewPassThroughSelector()},
		{"mmr", retriever.NewMMRSelector(cfg.Select.MMRLambda, cfg.Select.DedupJaccard, tok)},
	}

	fmt.Println()
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("LATENCY (%d runs):\n", len(latencies))
	fmt.Printf("  p50: %s\n", percentile(latencies, 0.50))
	fmt.Printf("  p95: %s\n", percentile(latencies, 0.95))
	fmt.Println()
	fmt.Printf("SELECTION (top %d):\n", *topN)
	for _, s := range selectors {
		kept := s.sel.Select(ctx, *query, chunks, *topN)
		ids := make([]string, len(kept))
		for i, c := range kept {
			ids[i] = c.ID
		}
		fmt.Printf("  %-12s %-30s redundancy %.3f\n", s.name, strings.Join(ids, ","), redundancy(tok, kept))
	}
}

// redundancy is the mean pairwise token overlap of the kept passages.
func redundancy(tok *analyzer.Tokenizer, chunks []domain.Chunk) float64 {
	if len(chunks) < 2 {
		return 0
	}
	sets := make([]map[string]struct{}, len(chunks))
	for i, c := range chunks {
		sets[i] = make(map[string]struct{})
		for _, t := range tok.Tokenize(c.Text) {
			sets[i][t] = struct{}{}
		}
	}

	total, pairs := 0.0, 0
	for i := 0; i < len(sets); i++ {
		for j := i + 1; j < len(sets); j++ {
			inter := 0
			for t := range sets[i] {
				if _, ok := sets[j][t]; ok {
					inter++
				}
			}
			union := len(sets[i]) + len(sets[j]) - inter
			if union > 0 {
				total += float64(inter) / float64(union)
			}
			pairs++
		}
	}
	return total / float64(pairs)
}

func percentile(ds []time.Duration, p float64) time.Duration {
	sorted := append([]time.Duration(nil), ds...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	idx := int(float64(len(sorted)-1) * p)
	return sorted[idx].Round(time.Millisecond)
}

func preview(text string, n int) string {
	text = strings.ReplaceAll(text, "\n", " ")
	if len(text) > n {
		return text[:n] + "..."
	}
	return text
}
