// Package metrics defines observability hooks for the definitions pipeline.
package metrics

import "time"

// PageAction labels the outcome of a single page generation.
type PageAction string

const (
	ActionWritten   PageAction = "written"
	ActionUnchanged PageAction = "unchanged"
	ActionSkipped   PageAction = "skipped"
	ActionFailed    PageAction = "failed"
)

// Recorder defines observability hooks for fetch and generation metrics.
// Implementations may forward to Prometheus; the NoopRecorder allows optional
// injection.
type Recorder interface {
	ObserveFetchDuration(d time.Duration, success bool)
	ObserveBatchDuration(d time.Duration)
	IncPageOutcome(kind, variant string, action PageAction)
	IncBatchOutcome(outcome string) // outcome: success|failed
}

// NoopRecorder is a Recorder that does nothing (default when metrics are not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveFetchDuration(time.Duration, bool)  {}
func (NoopRecorder) ObserveBatchDuration(time.Duration)        {}
func (NoopRecorder) IncPageOutcome(string, string, PageAction) {}
func (NoopRecorder) IncBatchOutcome(string)                    {}
