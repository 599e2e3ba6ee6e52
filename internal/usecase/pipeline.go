package usecase

import (
	"context"
	"time"

	"medrag/internal/adapter/retriever"
	"medrag/internal/domain"
	"medrag/internal/metrics"
	"medrag/internal/platform/logger"
	"medrag/internal/port"
)

// Canned replies for the terminal states that do not reach the model.
const (
	GreetingMessage    = "Hello! How can I help with your medical questions today?"
	NoResultsMessage   = "I'm sorry, I couldn't find any relevant medical information about that. Please try rephrasing your question."
	NoSelectionMessage = "I'm sorry, I couldn't find any relevant medical information. Please consider consulting a healthcare professional for personalized advice."
)

// PipelineOptions bounds each stage.
type PipelineOptions struct {
	RetrieveLimit int
	TopN          int
}

// Pipeline turns a user query into a cited answer. It holds no per-call
// state and may be shared between goroutines.
type Pipeline struct {
	augmenter   *retriever.Augmenter
	retriever   port.Retriever
	selector    port.Selector
	synthesizer *Synthesizer
	opts        PipelineOptions
	log         *logger.Logger
	metrics     *metrics.Pipeline
}

func NewPipeline(
	augmenter *retriever.Augmenter,
	ret port.Retriever,
	selector port.Selector,
	synthesizer *Synthesizer,
	opts PipelineOptions,
	log *logger.Logger,
	m *metrics.Pipeline,
) *Pipeline {
	if opts.RetrieveLimit <= 0 {
		opts.RetrieveLimit = retriever.DefaultLimit
	}
	if opts.TopN <= 0 {
		opts.TopN = retriever.DefaultTopN
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Pipeline{
		augmenter:   augmenter,
		retriever:   ret,
		selector:    selector,
		synthesizer: synthesizer,
		opts:        opts,
		log:         log.With("component", "pipeline"),
		metrics:     m,
	}
}

// Process answers query given the prior conversation. The error is non-nil
// only for a *SynthesisError; empty retrieval or selection yields a
// fallback result instead.
func (p *Pipeline) Process(ctx context.Context, query string, history []domain.ConversationTurn) (domain.PipelineResult, error) {
	if retriever.IsGreeting(query) {
		p.log.Debug("greeting short-circuit")
		return p.finish(query, GreetingMessage, nil, domain.OutcomeGreeting), nil
	}

	augmented := p.augmenter.Augment(query)
	if augmented != query {
		p.log.Debug("query augmented", "rules", p.augmenter.Matched(query))
	}

	start := time.Now()
	chunks := p.retriever.Retrieve(ctx, augmented, p.opts.RetrieveLimit)
	p.metrics.ObserveStage("retrieve", time.Since(start))
	p.log.Debug("retrieved", "chunks", len(chunks))
	if len(chunks) == 0 {
		return p.finish(query, NoResultsMessage, nil, domain.OutcomeNoResults), nil
	}

	start = time.Now()
	selected := p.selector.Select(ctx, query, chunks, p.opts.TopN)
	p.metrics.ObserveStage("select", time.Since(start))
	p.log.Debug("selected", "chunks", len(selected))
	if len(selected) == 0 {
		return p.finish(query, NoSelectionMessage, nil, domain.OutcomeNoSelection), nil
	}

	start = time.Now()
	answer, raw, err := p.synthesizer.Synthesize(ctx, query, selected, history)
	p.metrics.ObserveStage("synthesize", time.Since(start))
	if err != nil {
		p.metrics.BackendError("chat")
		p.log.Error("synthesis failed", "error", err.Error())
		return domain.PipelineResult{}, err
	}

	return p.finish(query, answer, MapCitations(answer, raw), domain.OutcomeAnswered), nil
}

func (p *Pipeline) finish(query, answer string, citations []domain.Citation, outcome domain.Outcome) domain.PipelineResult {
	if citations == nil {
		citations = []domain.Citation{}
	}
	p.metrics.ObserveOutcome(outcome)
	return domain.PipelineResult{
		Query:     query,
		Answer:    answer,
		Citations: citations,
		Outcome:   outcome,
	}
}
