package cli

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"medrag/config"
	"medrag/internal/adapter/analyzer"
	"medrag/internal/adapter/cache"
	"medrag/internal/adapter/llm"
	"medrag/internal/adapter/retriever"
	"medrag/internal/adapter/search"
	"medrag/internal/adapter/store"
	"medrag/internal/metrics"
	"medrag/internal/platform/logger"
	"medrag/internal/port"
	"medrag/internal/usecase"
)

// app is the wired pipeline and the registry its metrics live in.
type app struct {
	pipeline *usecase.Pipeline
	registry *prometheus.Registry
}

func buildApp(c *config.Config, log *logger.Logger) (*app, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	reg := prometheus.NewRegistry()
	m := metrics.NewPipeline(reg)

	compass, err := search.NewCompassClient(log, search.Config{
		BaseURL:         c.Search.URL,
		Token:           c.Search.Token,
		Timeout:         c.Search.Timeout,
		BreakerFailures: c.Search.BreakerFailures,
		BreakerCooldown: c.Search.BreakerCooldown,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create search client: %w", err)
	}
	var backend port.SearchBackend = compass
	if c.Search.CacheSize > 0 {
		backend = cache.NewCachedBackend(compass, cache.NewQueryCache(c.Search.CacheSize, c.Search.CacheTTL))
	}

	cohere, err := llm.NewClient(log, llm.Config{
		APIKey:            c.Chat.APIKey,
		BaseURL:           c.Chat.BaseURL,
		Model:             c.Chat.Model,
		Timeout:           c.Chat.Timeout,
		MaxRetries:        c.Chat.MaxRetries,
		RequestsPerSecond: c.Chat.RequestsPerSecond,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create chat client: %w", err)
	}

	rules := retriever.DefaultAugmentRules()
	for _, r := range c.Augment.Rules {
		rules = append(rules, retriever.KeywordRule(r.Keyword, r.Keyword, r.Suffix))
	}

	p := usecase.NewPipeline(
		retriever.NewAugmenter(rules...),
		retriever.NewSearchRetriever(backend, c.Search.IndexName, c.Search.Timeout, log, m),
		newSelector(c.Select, cohere, log, m),
		usecase.NewSynthesizer(cohere, c.Chat.Model, c.Chat.Temperature, c.Chat.Timeout, log),
		usecase.PipelineOptions{RetrieveLimit: c.Retrieve.Limit, TopN: c.Select.TopN},
		log,
		m,
	)
	return &app{pipeline: p, registry: reg}, nil
}

func newSelector(c config.SelectConfig, cohere *llm.Client, log *logger.Logger, m *metrics.Pipeline) port.Selector {
	switch c.Strategy {
	case "mmr":
		return retriever.NewMMRSelector(c.MMRLambda, c.DedupJaccard, analyzer.NewTokenizer(true))
	case "rerank":
		return retriever.NewRerankSelector(llm.NewReranker(cohere, c.RerankModel), log, m)
	default:
		return retriever.NewPassThroughSelector()
	}
}

func openHistory(c *config.Config, dir string) (*store.BoltStore, error) {
	dbPath := c.HistoryDBPath(dir)
	if err := config.EnsureDataDir(dbPath); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}
	st, err := store.NewBoltStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open history: %w", err)
	}
	return st, nil
}
