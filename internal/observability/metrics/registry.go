// Package metrics provides centralized Prometheus metrics for the
// enrichment pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Pipeline metrics track the per-run enrichment flow.
var (
	// NewsItemsTotal counts news items entering the pipeline.
	NewsItemsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pulse_news_items_total",
			Help: "Total number of news items processed by the pipeline",
		},
	)

	// SymbolsResolvedTotal counts resolved symbols by match origin.
	SymbolsResolvedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pulse_symbols_resolved_total",
			Help: "Total number of symbol resolutions by origin",
		},
		[]string{"origin"},
	)

	// ProviderErrorsTotal counts failed provider sub-fetches.
	ProviderErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pulse_provider_errors_total",
			Help: "Total number of market data provider errors",
		},
		[]string{"provider", "field"},
	)

	// ProviderFetchDuration measures provider sub-fetch durations.
	ProviderFetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pulse_provider_fetch_duration_seconds",
			Help:    "Time taken by a market data sub-fetch",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		},
		[]string{"provider", "field"},
	)

	// AssessmentsTotal counts assessments by outcome (parsed or defaulted).
	AssessmentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pulse_assessments_total",
			Help: "Total number of AI assessments by outcome",
		},
		[]string{"outcome"},
	)

	// AssessmentScores observes the distribution of assessment scores.
	AssessmentScores = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pulse_assessment_scores",
			Help:    "Distribution of AI assessment scores (1-10)",
			Buckets: prometheus.LinearBuckets(1, 1, 10),
		},
	)

	// AssessmentDuration measures AI backend call durations.
	AssessmentDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pulse_assessment_duration_seconds",
			Help:    "Time taken by an AI assessment call",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		},
	)

	// DeliveriesTotal counts notification deliveries by channel and status.
	DeliveriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pulse_deliveries_total",
			Help: "Total number of notification deliveries",
		},
		[]string{"channel", "status"},
	)

	// DeliveryDuration measures per-channel delivery durations.
	DeliveryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pulse_delivery_duration_seconds",
			Help:    "Time taken to deliver a notification",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		},
		[]string{"channel"},
	)

	// RunDuration measures full pipeline run durations.
	RunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pulse_run_duration_seconds",
			Help:    "Time taken by a full pipeline run",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		},
	)
)
