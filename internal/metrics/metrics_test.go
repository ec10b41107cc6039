package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordPipelineRun(t *testing.T) {
	before := testutil.ToFloat64(PipelineRuns.WithLabelValues("complete"))
	RecordPipelineRun("complete", 2*time.Second)
	if got := testutil.ToFloat64(PipelineRuns.WithLabelValues("complete")); got != before+1 {
		t.Errorf("PipelineRuns = %v, want %v", got, before+1)
	}
}

func TestRecordProviderCall(t *testing.T) {
	ok := ProviderCalls.WithLabelValues("openai", "embed", "success")
	fail := ProviderCalls.WithLabelValues("openai", "embed", "failure")
	okBefore, failBefore := testutil.ToFloat64(ok), testutil.ToFloat64(fail)

	RecordProviderCall("openai", "embed", time.Millisecond, nil)
	RecordProviderCall("openai", "embed", time.Millisecond, errors.New("boom"))

	if got := testutil.ToFloat64(ok); got != okBefore+1 {
		t.Errorf("success = %v, want %v", got, okBefore+1)
	}
	if got := testutil.ToFloat64(fail); got != failBefore+1 {
		t.Errorf("failure = %v, want %v", got, failBefore+1)
	}
}
