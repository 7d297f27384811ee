package worker

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestWorkerMetricsInitialized(t *testing.T) {
	metrics := globalTestMetrics

	if metrics.ConfigMetrics == nil {
		t.Error("ConfigMetrics is nil")
	}
	if metrics.PipelineRunsTotal == nil {
		t.Error("PipelineRunsTotal is nil")
	}
	if metrics.PipelineRunDurationSeconds == nil {
		t.Error("PipelineRunDurationSeconds is nil")
	}
	if metrics.PipelineItemsEnrichedTotal == nil {
		t.Error("PipelineItemsEnrichedTotal is nil")
	}
	if metrics.PipelineLastSuccessTimestamp == nil {
		t.Error("PipelineLastSuccessTimestamp is nil")
	}

	// MustRegister is a no-op but must not panic.
	metrics.MustRegister()
}

func TestRecordRun(t *testing.T) {
	metrics := globalTestMetrics

	before := testutil.ToFloat64(metrics.PipelineRunsTotal.WithLabelValues("success"))
	metrics.RecordRun("success")
	after := testutil.ToFloat64(metrics.PipelineRunsTotal.WithLabelValues("success"))

	if after != before+1 {
		t.Errorf("success counter went %v -> %v, want +1", before, after)
	}

	before = testutil.ToFloat64(metrics.PipelineRunsTotal.WithLabelValues("failure"))
	metrics.RecordRun("failure")
	after = testutil.ToFloat64(metrics.PipelineRunsTotal.WithLabelValues("failure"))

	if after != before+1 {
		t.Errorf("failure counter went %v -> %v, want +1", before, after)
	}
}

func TestRecordItemsEnriched(t *testing.T) {
	metrics := globalTestMetrics

	before := testutil.ToFloat64(metrics.PipelineItemsEnrichedTotal)
	metrics.RecordItemsEnriched(4)
	after := testutil.ToFloat64(metrics.PipelineItemsEnrichedTotal)

	if after != before+4 {
		t.Errorf("items counter went %v -> %v, want +4", before, after)
	}
}

func TestRecordLastSuccess(t *testing.T) {
	metrics := globalTestMetrics

	metrics.RecordLastSuccess()
	value := testutil.ToFloat64(metrics.PipelineLastSuccessTimestamp)
	if value <= 0 {
		t.Errorf("last success timestamp = %v, want > 0", value)
	}
}

func TestRecordRunDurationDoesNotPanic(t *testing.T) {
	globalTestMetrics.RecordRunDuration(12.5)
}
