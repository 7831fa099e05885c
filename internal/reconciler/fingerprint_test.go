package reconciler

import (
	"testing"

	"github.com/qdrant-operator/operator/api/v1alpha1"
)

type fixtureSpec struct {
	Replicas int32  `json:"replicas"`
	Image    string `json:"image"`
}

func TestFingerprintStableAcrossFieldOrder(t *testing.T) {
	a, err := Fingerprint(fixtureSpec{Replicas: 3, Image: "qdrant:v1.9.0"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	b, err := Fingerprint(struct {
		Image    string `json:"image"`
		Replicas int32  `json:"replicas"`
	}{Image: "qdrant:v1.9.0", Replicas: 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if a != b {
		t.Fatalf("expected matching fingerprints for equivalent content, got %s vs %s", a, b)
	}
}

func TestFingerprintChangesWithContent(t *testing.T) {
	a, _ := Fingerprint(fixtureSpec{Replicas: 3, Image: "qdrant:v1.9.0"})
	b, _ := Fingerprint(fixtureSpec{Replicas: 5, Image: "qdrant:v1.9.0"})

	if a == b {
		t.Fatal("expected different fingerprints for different replica counts")
	}
}

func TestFingerprintLength(t *testing.T) {
	h, err := Fingerprint(fixtureSpec{Replicas: 1, Image: "x"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(h) != 16 {
		t.Fatalf("expected 16-hex fingerprint, got length %d (%s)", len(h), h)
	}
}

func TestClusterFingerprintUnaffectedByFieldsOutsideCanonicalSubset(t *testing.T) {
	base := v1alpha1.ClusterSpec{Replicas: 3, Image: "qdrant/qdrant:v1.9.0"}

	suspend := true
	withExtras := base
	withExtras.Suspend = &suspend
	withExtras.Snapshots = &v1alpha1.SnapshotSpec{Schedule: "0 */6 * * *"}
	withExtras.Placement = v1alpha1.PlacementSpec{NodeSelector: map[string]string{"disk": "ssd"}}

	a, err := ClusterFingerprint(base)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := ClusterFingerprint(withExtras)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if a != b {
		t.Fatalf("expected fingerprint to ignore suspend/snapshots/placement, got %s vs %s", a, b)
	}
}

func TestClusterFingerprintChangesWithCanonicalField(t *testing.T) {
	a, err := ClusterFingerprint(v1alpha1.ClusterSpec{Replicas: 3, Image: "qdrant/qdrant:v1.9.0"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := ClusterFingerprint(v1alpha1.ClusterSpec{Replicas: 5, Image: "qdrant/qdrant:v1.9.0"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if a == b {
		t.Fatal("expected different fingerprints for different replica counts")
	}
}

func TestDriftReportsNoChanges(t *testing.T) {
	s := fixtureSpec{Replicas: 3, Image: "qdrant:v1.9.0"}
	msg, err := Drift(s, s)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msg != "no field-level changes detected" {
		t.Fatalf("expected no-change message, got %q", msg)
	}
}

func TestDriftReportsFieldChange(t *testing.T) {
	msg, err := Drift(fixtureSpec{Replicas: 3, Image: "qdrant:v1.9.0"}, fixtureSpec{Replicas: 5, Image: "qdrant:v1.9.0"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msg == "no field-level changes detected" || msg == "" {
		t.Fatalf("expected a non-empty diff summary, got %q", msg)
	}
}
