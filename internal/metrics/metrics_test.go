package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestSetLeaderTogglesGauge(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(reg)

	c.SetLeader(true)
	if got := testutil.ToFloat64(c.Leader); got != 1 {
		t.Fatalf("expected leader gauge 1, got %v", got)
	}

	c.SetLeader(false)
	if got := testutil.ToFloat64(c.Leader); got != 0 {
		t.Fatalf("expected leader gauge 0, got %v", got)
	}
}

func TestObserveReconcileIncrementsCounterAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(reg)

	c.ObserveReconcile("QdrantCluster", "success", 0.25)

	if got := testutil.ToFloat64(c.ReconcileTotal.WithLabelValues("QdrantCluster", "success")); got != 1 {
		t.Fatalf("expected reconcile_total 1, got %v", got)
	}
}

func TestDuplicateRegistrationOnFreshRegistryDoesNotPanic(t *testing.T) {
	reg1 := prometheus.NewRegistry()
	reg2 := prometheus.NewRegistry()

	New(reg1)
	New(reg2)
}
