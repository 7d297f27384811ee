package metrics

import "time"

// RecordNewsItem records one news item entering the pipeline.
func RecordNewsItem() {
	NewsItemsTotal.Inc()
}

// RecordSymbolResolved records a symbol resolution by its match origin
// (lookup, pattern, fallback).
func RecordSymbolResolved(origin string) {
	SymbolsResolvedTotal.WithLabelValues(origin).Inc()
}

// RecordProviderError records a failed provider sub-fetch.
// Field identifies which piece of the snapshot failed
// (quote, fundamentals, consensus, technical, history, macro).
func RecordProviderError(provider, field string) {
	ProviderErrorsTotal.WithLabelValues(provider, field).Inc()
}

// RecordProviderFetch records the duration of a provider sub-fetch.
func RecordProviderFetch(provider, field string, duration time.Duration) {
	ProviderFetchDuration.WithLabelValues(provider, field).Observe(duration.Seconds())
}

// RecordAssessment records the outcome and score of an AI assessment.
// Defaulted assessments still carry a (neutral) score.
func RecordAssessment(defaulted bool, score int, duration time.Duration) {
	outcome := "parsed"
	if defaulted {
		outcome = "defaulted"
	}
	AssessmentsTotal.WithLabelValues(outcome).Inc()
	AssessmentScores.Observe(float64(score))
	AssessmentDuration.Observe(duration.Seconds())
}

// RecordDelivery records a notification delivery attempt result.
func RecordDelivery(channel string, success bool, duration time.Duration) {
	status := "success"
	if !success {
		status = "failure"
	}
	DeliveriesTotal.WithLabelValues(channel, status).Inc()
	DeliveryDuration.WithLabelValues(channel).Observe(duration.Seconds())
}

// RecordRunDuration records the duration of a full pipeline run.
func RecordRunDuration(duration time.Duration) {
	RunDuration.Observe(duration.Seconds())
}
