package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Session metrics
	SessionsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "advista_research_sessions_created_total",
			Help: "Total number of research sessions created",
		},
	)

	SessionsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "advista_research_sessions_completed_total",
			Help: "Total number of research sessions reaching a terminal status",
		},
		[]string{"status"},
	)

	SessionStatusTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "advista_session_status_transitions_total",
			Help: "Total number of session status transitions",
		},
		[]string{"from", "to"},
	)

	SessionCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "advista_session_cache_hits_total",
			Help: "Total number of session cache hits",
		},
	)

	SessionCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "advista_session_cache_misses_total",
			Help: "Total number of session cache misses",
		},
	)

	// Pipeline metrics
	PipelineDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "advista_pipeline_duration_seconds",
			Help:    "End-to-end research pipeline duration in seconds",
			Buckets: []float64{5, 15, 30, 60, 120, 300, 600},
		},
		[]string{"status"},
	)

	PipelineStageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "advista_pipeline_stage_duration_seconds",
			Help:    "Per-stage pipeline duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"stage"},
	)

	// Dispatch metrics
	SearchesDispatched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "advista_searches_dispatched_total",
			Help: "Total number of category searches dispatched",
		},
		[]string{"category", "engine", "mode"},
	)

	SearchFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "advista_search_failures_total",
			Help: "Total number of per-category search failures",
		},
		[]string{"category", "reason"},
	)

	TaskPollTimeouts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "advista_task_poll_timeouts_total",
			Help: "Total number of queued search tasks dropped at the poll deadline",
		},
	)

	TasksSubmitted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "advista_tasks_submitted_total",
			Help: "Total number of tasks submitted to the queue",
		},
	)

	// Video metrics
	TranscriptFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "advista_transcript_fetches_total",
			Help: "Total number of transcript fetch attempts",
		},
		[]string{"status"},
	)

	// Synthesis metrics
	SynthesisCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "advista_synthesis_calls_total",
			Help: "Total number of synthesis LLM calls",
		},
		[]string{"section", "status"},
	)

	SynthesisParseFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "advista_synthesis_parse_failures_total",
			Help: "Total number of synthesis responses that failed schema parsing",
		},
		[]string{"section"},
	)

	// Provider metrics
	ProviderLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "advista_provider_latency_seconds",
			Help:    "Outbound provider call latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider", "status"},
	)
)

// RecordProviderCall records one outbound provider call.
func RecordProviderCall(provider, status string, seconds float64) {
	ProviderLatency.WithLabelValues(provider, status).Observe(seconds)
}

// RecordStage records one pipeline stage duration.
func RecordStage(stage string, seconds float64) {
	PipelineStageDuration.WithLabelValues(stage).Observe(seconds)
}
