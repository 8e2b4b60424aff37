// Package metrics exposes prometheus collectors for the analysis pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	OutcomeOK               = "ok"
	OutcomeDegraded         = "degraded"
	OutcomeExtractionFailed = "extraction_failed"

	StatusSuccess = "success"
	StatusError   = "error"
)

// Recorder receives pipeline events.
type Recorder interface {
	AnalysisCompleted(outcome string)
	ModelRequest(status string, took time.Duration)
}

// Nop discards everything.
type Nop struct{}

func (Nop) AnalysisCompleted(string)           {}
func (Nop) ModelRequest(string, time.Duration) {}

// Prometheus is a Recorder backed by prometheus collectors.
type Prometheus struct {
	analyses      *prometheus.CounterVec
	modelRequests *prometheus.CounterVec
	modelDuration prometheus.Histogram
}

// NewPrometheus creates the collectors and registers them in reg.
func NewPrometheus(reg prometheus.Registerer) (*Prometheus, error) {
	p := &Prometheus{
		analyses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "analyses_total",
				Help: "Total number of resume analyses by outcome",
			},
			[]string{"outcome"},
		),
		modelRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "model_requests_total",
				Help: "Total number of language model requests by status",
			},
			[]string{"status"},
		),
		modelDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "model_request_duration_seconds",
				Help:    "Language model request duration in seconds",
				Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 30, 60},
			},
		),
	}

	for _, c := range []prometheus.Collector{p.analyses, p.modelRequests, p.modelDuration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	return p, nil
}

func (p *Prometheus) AnalysisCompleted(outcome string) {
	p.analyses.WithLabelValues(outcome).Inc()
}

func (p *Prometheus) ModelRequest(status string, took time.Duration) {
	p.modelRequests.WithLabelValues(status).Inc()
	p.modelDuration.Observe(took.Seconds())
}
