// Package metrics exposes prometheus counters and histograms for the
// moderation engine's mutation, query, and count operations.
//
// The teacher carries its own metrics surface under the dropped
// storage/binary/metrics_instrumentation.go and async_metrics_collector.go
// (hand-rolled atomic counters sampled periodically). This package
// replaces that hand-rolled approach with
// github.com/prometheus/client_golang, the way both aistore and
// kubernaut instrument their hot paths, registered against a
// caller-supplied *prometheus.Registry rather than the global default
// registry so multiple engine instances in one process don't collide.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder records mutation/query/count outcomes. A nil *Recorder is
// valid everywhere it's used — every method is a no-op on a nil
// receiver, so instrumentation is always optional.
type Recorder struct {
	mutationsTotal  *prometheus.CounterVec
	queryDuration   *prometheus.HistogramVec
	countsTotal     *prometheus.CounterVec
	retriesTotal    *prometheus.CounterVec
}

// New registers the moderation engine's metrics against reg and
// returns a Recorder. Pass a fresh prometheus.NewRegistry() per engine
// instance, or prometheus.DefaultRegisterer wrapped appropriately for
// a single-instance process.
func New(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		mutationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "modstore",
			Name:      "mutations_total",
			Help:      "Count of successful mutation engine operations by name.",
		}, []string{"operation"}),
		queryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "modstore",
			Name:      "query_duration_seconds",
			Help:      "Query planner operation latency by chosen index.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"index"}),
		countsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "modstore",
			Name:      "counts_total",
			Help:      "Count of countModerationItemsByStatus / getAllModerationCounts calls by status.",
		}, []string{"status"}),
		retriesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "modstore",
			Name:      "retries_total",
			Help:      "Retry attempts by layer (optimistic, transient).",
		}, []string{"layer"}),
	}
	reg.MustRegister(r.mutationsTotal, r.queryDuration, r.countsTotal, r.retriesTotal)
	return r
}

// MutationSucceeded records one successful mutation of the given
// operation name.
func (r *Recorder) MutationSucceeded(operation string) {
	if r == nil {
		return
	}
	r.mutationsTotal.WithLabelValues(operation).Inc()
}

// QueryTimer starts a timer that records into the query_duration
// histogram under indexName when the returned func is called.
func (r *Recorder) QueryTimer(indexName string) func() {
	if r == nil {
		return func() {}
	}
	start := time.Now()
	return func() {
		r.queryDuration.WithLabelValues(indexName).Observe(time.Since(start).Seconds())
	}
}

// CountRecorded records one countModerationItemsByStatus/
// getAllModerationCounts observation for status.
func (r *Recorder) CountRecorded(status string) {
	if r == nil {
		return
	}
	r.countsTotal.WithLabelValues(status).Inc()
}

// RetryAttempted records one retry attempt in the named layer
// ("optimistic" or "transient").
func (r *Recorder) RetryAttempted(layer string) {
	if r == nil {
		return
	}
	r.retriesTotal.WithLabelValues(layer).Inc()
}
