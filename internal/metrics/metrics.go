// Package metrics exports the observability surface spec.md §6 calls out:
// queue depth, active watches, and managed-resource gauges; reconcile,
// drift, watch-restart, and error counters; a reconcile-duration histogram.
// Registration happens once at process start; every field is safe for
// concurrent use since prometheus.Collector values already are.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "qdrant_operator"

// Collectors bundles every metric the operator publishes. Built once by
// New and written by the cluster reconciler (drift), the resync sweeper
// (queue depth, managed counts) and cmd/qdrant-operator (leader, active
// watches, reconcile counts and duration, errors, watch restarts).
type Collectors struct {
	QueueDepth    prometheus.Gauge
	ActiveWatches prometheus.Gauge
	ManagedCount  *prometheus.GaugeVec
	Leader        prometheus.Gauge

	ReconcileTotal  *prometheus.CounterVec
	DriftDetected   prometheus.Counter
	WatchRestarts   *prometheus.CounterVec
	ErrorsTotal     *prometheus.CounterVec
	ReconcileDuration *prometheus.HistogramVec
}

// New builds and registers every collector against reg. Passing a fresh
// prometheus.NewRegistry() (rather than the global DefaultRegisterer) keeps
// repeated construction in tests from panicking on duplicate registration.
func New(reg prometheus.Registerer) *Collectors {
	c := &Collectors{
		QueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "queue_depth",
			Help:      "Number of resource keys currently waiting in the work queue.",
		}),
		ActiveWatches: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_watches",
			Help:      "Number of resource watch loops running (cluster, collection, backup, and restore).",
		}),
		ManagedCount: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "managed_resources",
			Help:      "Number of resources currently known to the operator, by kind.",
		}, []string{"kind"}),
		Leader: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "leader",
			Help:      "1 if this process currently holds the leader lease, 0 otherwise.",
		}),
		ReconcileTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconcile_total",
			Help:      "Total reconcile attempts, by kind and result.",
		}, []string{"kind", "result"}),
		DriftDetected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "drift_detected_total",
			Help:      "Total number of reconciles that found the observed spec had drifted from the last applied hash.",
		}),
		WatchRestarts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "watch_restarts_total",
			Help:      "Total watch stream restarts, by resource kind.",
		}, []string{"kind"}),
		ErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "Total errors observed, by taxonomy kind.",
		}, []string{"kind"}),
		ReconcileDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "reconcile_duration_seconds",
			Help:      "Reconcile wall-clock duration, by kind.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind"}),
	}

	reg.MustRegister(
		c.QueueDepth,
		c.ActiveWatches,
		c.ManagedCount,
		c.Leader,
		c.ReconcileTotal,
		c.DriftDetected,
		c.WatchRestarts,
		c.ErrorsTotal,
		c.ReconcileDuration,
	)

	return c
}

// SetLeader records this process's leadership state as 0 or 1.
func (c *Collectors) SetLeader(leading bool) {
	if leading {
		c.Leader.Set(1)
		return
	}
	c.Leader.Set(0)
}

// ObserveReconcile records the outcome and duration of one reconcile.
func (c *Collectors) ObserveReconcile(kind, result string, seconds float64) {
	c.ReconcileTotal.WithLabelValues(kind, result).Inc()
	c.ReconcileDuration.WithLabelValues(kind).Observe(seconds)
}
