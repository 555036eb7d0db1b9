package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Pipeline metrics
	PipelineRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "research_pipeline_runs_total",
			Help: "Total number of pipeline runs",
		},
		[]string{"status"},
	)

	PipelineDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "research_pipeline_duration_seconds",
			Help:    "End-to-end pipeline duration in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300},
		},
	)

	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "research_stage_duration_seconds",
			Help:    "Per-stage duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"stage"},
	)

	// Query generation metrics
	QueryGenerations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "research_query_generations_total",
			Help: "Total query generation attempts by outcome",
		},
		[]string{"outcome"}, // "llm" or "fallback"
	)

	// Search metrics
	SearchRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "research_search_requests_total",
			Help: "Total provider search requests",
		},
		[]string{"status"},
	)

	SearchResultsKept = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "research_search_results_kept",
			Help:    "Number of results surviving filtering and dedupe per run",
			Buckets: []float64{0, 1, 3, 5, 10, 15},
		},
	)

	// Extraction metrics
	PageFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "research_page_fetches_total",
			Help: "Total page fetch attempts",
		},
		[]string{"status"}, // "ok", "http_error", "non_html", "fetch_error"
	)

	GateRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "research_quality_gate_rejections_total",
			Help: "Extracted documents rejected by the quality gate, by reason",
		},
		[]string{"reason"}, // "word_count", "uniqueness", "relevance"
	)

	// Summarization metrics
	SourcesSummarized = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "research_sources_summarized_total",
			Help: "Per-source summaries produced, by outcome",
		},
		[]string{"outcome"}, // "ok" or "fallback"
	)

	SynthesisRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "research_synthesis_runs_total",
			Help: "Synthesis calls by outcome",
		},
		[]string{"outcome"}, // "ok" or "fallback"
	)

	// LLM client metrics
	LLMCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "research_llm_calls_total",
			Help: "Total LLM completion calls",
		},
		[]string{"model", "status"},
	)

	LLMCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "research_llm_call_duration_seconds",
			Help:    "LLM completion call duration in seconds",
			Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"model"},
	)
)
