// Package metrics exposes Prometheus collectors for the answer pipeline.
// All methods are safe on a nil *Pipeline so callers can run without metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"medrag/internal/domain"
)

// Pipeline groups the collectors recorded by the orchestrator and its backends.
type Pipeline struct {
	outcomes      *prometheus.CounterVec
	stageLatency  *prometheus.HistogramVec
	backendErrors *prometheus.CounterVec
}

// NewPipeline creates the collectors and registers them with reg.
func NewPipeline(reg prometheus.Registerer) *Pipeline {
	p := &Pipeline{
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "medrag",
			Name:      "pipeline_outcomes_total",
			Help:      "Pipeline calls by terminal outcome",
		}, []string{"outcome"}),
		stageLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "medrag",
			Name:      "stage_duration_seconds",
			Help:      "Duration of each pipeline stage",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"stage"}),
		backendErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "medrag",
			Name:      "backend_errors_total",
			Help:      "Failed calls to external backends",
		}, []string{"backend"}),
	}
	if reg != nil {
		reg.MustRegister(p.outcomes, p.stageLatency, p.backendErrors)
	}
	return p
}

func (p *Pipeline) ObserveOutcome(outcome domain.Outcome) {
	if p == nil {
		return
	}
	p.outcomes.WithLabelValues(string(outcome)).Inc()
}

func (p *Pipeline) ObserveStage(stage string, d time.Duration) {
	if p == nil {
		return
	}
	p.stageLatency.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *Pipeline) BackendError(backend string) {
	if p == nil {
		return
	}
	p.backendErrors.WithLabelValues(backend).Inc()
}
