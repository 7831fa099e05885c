package leaselock

import "testing"

func TestDefaultConfigTimings(t *testing.T) {
	cfg := DefaultConfig("qdrant-system", "qdrant-operator-lock", "pod-a")

	if cfg.LeaseDuration <= cfg.RenewDeadline {
		t.Fatalf("lease duration %v must exceed renew deadline %v", cfg.LeaseDuration, cfg.RenewDeadline)
	}
	if cfg.RetryPeriod >= cfg.RenewDeadline {
		t.Fatalf("retry period %v should be well under renew deadline %v", cfg.RetryPeriod, cfg.RenewDeadline)
	}
}

func TestIsLeadingDefaultsFalse(t *testing.T) {
	l := New(DefaultConfig("ns", "name", "id"))

	if l.IsLeading() {
		t.Fatal("new lock should not report leading before Run")
	}
	if l.LeaderIdentity() != "" {
		t.Fatal("new lock should not report a leader identity before Run")
	}
}

func TestSetLeadingRoundTrip(t *testing.T) {
	l := New(DefaultConfig("ns", "name", "id"))

	l.setLeading(true)
	if !l.IsLeading() {
		t.Fatal("expected IsLeading true after setLeading(true)")
	}

	l.setLeaderID("id")
	if l.LeaderIdentity() != "id" {
		t.Fatal("expected LeaderIdentity to reflect setLeaderID")
	}
}
