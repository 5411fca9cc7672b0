// Package metrics declares the Prometheus collectors exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	GenerationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "splashgen_generations_total",
		Help: "Generation requests handled by the dispatcher.",
	}, []string{"artifact_type", "operation", "status"})

	GenerationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "splashgen_generation_duration_seconds",
		Help:    "Time spent in the dispatcher, including fetch and completion.",
		Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 40, 60, 120, 180},
	}, []string{"artifact_type"})

	HTMLExtractionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "splashgen_html_extractions_total",
		Help: "HTML extraction outcomes: matched or fallback to raw text.",
	}, []string{"result"})

	ScrapesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "splashgen_scrapes_total",
		Help: "Website content fetches.",
	}, []string{"status"})

	ScrapeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "splashgen_scrape_duration_seconds",
		Help:    "Time to fetch and extract a website.",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	})

	LLMRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "splashgen_llm_requests_total",
		Help: "Completion requests sent to the LLM provider.",
	}, []string{"provider", "model", "status"})

	LLMRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "splashgen_llm_request_duration_seconds",
		Help:    "Completion request latency.",
		Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 40, 60, 120, 180},
	}, []string{"provider", "model"})

	LLMTokensTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "splashgen_llm_tokens_total",
		Help: "Tokens reported by the provider.",
	}, []string{"model", "kind"})

	ArtifactWritesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "splashgen_artifact_writes_total",
		Help: "Artifact rows written, by operation and outcome.",
	}, []string{"operation", "status"})
)
