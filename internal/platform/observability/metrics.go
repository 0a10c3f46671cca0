package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TweetsIngested = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "skeptic_tweets_ingested_total",
		Help: "The total number of tweets received from ingestion sources",
	}, []string{"source"})

	TweetsInvalid = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "skeptic_tweets_invalid_total",
		Help: "Payloads rejected at the ingestion boundary",
	}, []string{"source"})

	DispatchDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "skeptic_dispatch_dropped_total",
		Help: "Tweets dropped because intake stopped while every worker was busy",
	})

	FilterRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "skeptic_filter_rejections_total",
		Help: "Tweets rejected by the admission filters",
	}, []string{"reason"})

	IntakeOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "skeptic_intake_outcomes_total",
		Help: "Outcome of tweet intake",
	}, []string{"outcome"})

	EnrichDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "skeptic_enrich_duration_seconds",
		Help:    "Time spent enriching a single tweet",
		Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
	})

	DoubtRating = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "skeptic_doubt_rating",
		Help:    "Distribution of assigned doubt ratings",
		Buckets: []float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10},
	})

	ToolMentions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "skeptic_tool_mentions_total",
		Help: "Detected tool mentions in enriched tweets",
	}, []string{"tool"})

	CatalogSize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "skeptic_tool_catalog_size",
		Help: "Number of tools in the active catalog snapshot",
	})

	CatalogRefreshes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "skeptic_catalog_refreshes_total",
		Help: "Tool catalog refresh attempts",
	}, []string{"status"})

	DraftRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "skeptic_draft_requests_total",
		Help: "Response draft attempts by drafter and status",
	}, []string{"drafter", "status"})

	LLMRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "skeptic_llm_request_duration_seconds",
		Help:    "Duration of LLM requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"model"})

	ReviewQueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "skeptic_review_queue_depth",
		Help: "Items currently submitted or in review",
	})

	ReviewTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "skeptic_review_transitions_total",
		Help: "Review items moved into a state",
	}, []string{"state"})

	ReviewStorageFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "skeptic_review_storage_failures_total",
		Help: "Review workflow operations that failed to persist",
	}, []string{"operation"})

	WorkerPanics = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "skeptic_worker_panics_total",
		Help: "Recovered panics in background workers",
	}, []string{"worker"})
)
