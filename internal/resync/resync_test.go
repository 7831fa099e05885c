package resync

import (
	"context"
	"testing"
	"time"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"sigs.k8s.io/controller-runtime/pkg/client/fake"

	"github.com/qdrant-operator/operator/api/v1alpha1"
	"github.com/qdrant-operator/operator/internal/state"
	"github.com/qdrant-operator/operator/internal/workqueue"
)

func newScheme(t *testing.T) *runtime.Scheme {
	t.Helper()
	scheme := runtime.NewScheme()
	if err := v1alpha1.AddToScheme(scheme); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return scheme
}

func TestSweepClustersSchedulesEveryKnownCluster(t *testing.T) {
	a := &v1alpha1.QdrantCluster{ObjectMeta: metav1.ObjectMeta{Name: "a", Namespace: "ns"}}
	b := &v1alpha1.QdrantCluster{ObjectMeta: metav1.ObjectMeta{Name: "b", Namespace: "ns"}}
	c := fake.NewClientBuilder().WithScheme(newScheme(t)).WithObjects(a, b).Build()

	q := workqueue.New("test")
	s := &Sweeper{Client: c, Queue: q, Store: state.New()}

	n := s.sweepClusters(context.Background())
	if n != 2 {
		t.Fatalf("expected 2 clusters swept, got %d", n)
	}
	if q.Len() != 2 {
		t.Fatalf("expected 2 scheduled reconciles, got %d", q.Len())
	}
}

func TestSweepCollectionsSchedulesEveryKnownCollection(t *testing.T) {
	a := &v1alpha1.QdrantCollection{ObjectMeta: metav1.ObjectMeta{Name: "a", Namespace: "ns"}}
	c := fake.NewClientBuilder().WithScheme(newScheme(t)).WithObjects(a).Build()

	q := workqueue.New("test")
	s := &Sweeper{Client: c, Queue: q, Store: state.New()}

	n := s.sweepCollections(context.Background())
	if n != 1 {
		t.Fatalf("expected 1 collection swept, got %d", n)
	}
	if q.Len() != 1 {
		t.Fatalf("expected 1 scheduled reconcile, got %d", q.Len())
	}
}

func TestRunExitsOnContextCancel(t *testing.T) {
	c := fake.NewClientBuilder().WithScheme(newScheme(t)).Build()
	s := &Sweeper{Client: c, Queue: workqueue.New("test"), Store: state.New()}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not exit after ctx cancellation")
	}
}

func TestSweepSkippedWhenShuttingDown(t *testing.T) {
	a := &v1alpha1.QdrantCluster{ObjectMeta: metav1.ObjectMeta{Name: "a", Namespace: "ns"}}
	c := fake.NewClientBuilder().WithScheme(newScheme(t)).WithObjects(a).Build()

	store := state.New()
	store.SetShuttingDown()

	q := workqueue.New("test")
	s := &Sweeper{Client: c, Queue: q, Store: store}

	s.tick(context.Background())

	if q.Len() != 0 {
		t.Fatalf("expected sweep to be skipped while shutting down, queue len=%d", q.Len())
	}
}
