package metrics

import (
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	fetchDuration *prom.HistogramVec
	batchDuration prom.Histogram
	pageOutcomes  *prom.CounterVec
	batchOutcomes *prom.CounterVec
}

// NewPrometheusRecorder constructs and registers Prometheus metrics on the
// provided registry (a fresh registry when nil).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		fetchDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "createdocs",
			Name:      "fetch_duration_seconds",
			Help:      "Duration of definitions fetch operations",
			Buckets:   prom.DefBuckets,
		}, []string{"result"}),
		batchDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: "createdocs",
			Name:      "generate_batch_duration_seconds",
			Help:      "Total duration of a page generation batch",
			Buckets:   prom.DefBuckets,
		}),
		pageOutcomes: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "createdocs",
			Name:      "page_outcomes_total",
			Help:      "Page generation outcomes by kind, variant and action",
		}, []string{"kind", "variant", "action"}),
		batchOutcomes: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "createdocs",
			Name:      "generate_batch_outcomes_total",
			Help:      "Generation batch outcomes by final status",
		}, []string{"outcome"}),
	}
	reg.MustRegister(pr.fetchDuration, pr.batchDuration, pr.pageOutcomes, pr.batchOutcomes)
	return pr
}

func (p *PrometheusRecorder) ObserveFetchDuration(d time.Duration, success bool) {
	if p == nil || p.fetchDuration == nil {
		return
	}
	res := "failed"
	if success {
		res = "success"
	}
	p.fetchDuration.WithLabelValues(res).Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveBatchDuration(d time.Duration) {
	if p == nil || p.batchDuration == nil {
		return
	}
	p.batchDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncPageOutcome(kind, variant string, action PageAction) {
	if p == nil || p.pageOutcomes == nil {
		return
	}
	p.pageOutcomes.WithLabelValues(kind, variant, string(action)).Inc()
}

func (p *PrometheusRecorder) IncBatchOutcome(outcome string) {
	if p == nil || p.batchOutcomes == nil {
		return
	}
	p.batchOutcomes.WithLabelValues(outcome).Inc()
}

// HTTPHandler returns an http.Handler serving Prometheus metrics for the registry.
func HTTPHandler(reg *prom.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{EnableOpenMetrics: true})
}
