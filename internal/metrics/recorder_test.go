package metrics

import (
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoopRecorder_IsSafe(t *testing.T) {
	var r Recorder = NoopRecorder{}
	r.ObserveFetchDuration(time.Second, true)
	r.ObserveBatchDuration(time.Second)
	r.IncPageOutcome("function", "slua", ActionWritten)
	r.IncBatchOutcome("success")
}

func TestPrometheusRecorder_CountsPageOutcomes(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)

	pr.IncPageOutcome("function", "slua", ActionWritten)
	pr.IncPageOutcome("function", "slua", ActionWritten)
	pr.IncPageOutcome("constant", "lsl", ActionFailed)

	assert.Equal(t, 2.0, testutil.ToFloat64(pr.pageOutcomes.WithLabelValues("function", "slua", "written")))
	assert.Equal(t, 1.0, testutil.ToFloat64(pr.pageOutcomes.WithLabelValues("constant", "lsl", "failed")))
}

func TestPrometheusRecorder_NilReceiverIsSafe(t *testing.T) {
	var pr *PrometheusRecorder
	pr.ObserveFetchDuration(time.Second, false)
	pr.ObserveBatchDuration(time.Second)
	pr.IncPageOutcome("event", "lsl", ActionSkipped)
	pr.IncBatchOutcome("failed")
}

func TestHTTPHandler_Serves(t *testing.T) {
	reg := prom.NewRegistry()
	NewPrometheusRecorder(reg)
	require.NotNil(t, HTTPHandler(reg))
}
