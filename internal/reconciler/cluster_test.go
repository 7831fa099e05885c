package reconciler

import (
	"context"
	"testing"

	appsv1 "k8s.io/api/apps/v1"
	batchv1 "k8s.io/api/batch/v1"
	corev1 "k8s.io/api/core/v1"
	policyv1 "k8s.io/api/policy/v1"
	k8serrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/client/fake"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/qdrant-operator/operator/api/v1alpha1"
	"github.com/qdrant-operator/operator/internal/finalizer"
	"github.com/qdrant-operator/operator/internal/metrics"
	"github.com/qdrant-operator/operator/internal/state"
)

func newTrackerForTest(c client.Client) *finalizer.Tracker {
	return finalizer.NewTracker(c, state.New())
}

func clusterScheme(t *testing.T) *runtime.Scheme {
	t.Helper()
	scheme := runtime.NewScheme()
	for _, add := range []func(*runtime.Scheme) error{
		v1alpha1.AddToScheme, corev1.AddToScheme, appsv1.AddToScheme,
		policyv1.AddToScheme, batchv1.AddToScheme,
	} {
		if err := add(scheme); err != nil {
			t.Fatalf("unexpected error adding scheme: %v", err)
		}
	}
	return scheme
}

type fakeStatusWriter struct{}

func (f *fakeStatusWriter) Write(ctx context.Context, key state.Key, obj client.Object, mutate func(client.Object)) error {
	mutate(obj)
	return nil
}

type fakeReadiness struct {
	starts          int
	stops           int
	desiredReplicas int32
}

func (f *fakeReadiness) Start(ctx context.Context, key state.Key, namespace, workloadName string, desiredReplicas int32) {
	f.starts++
	f.desiredReplicas = desiredReplicas
}

func (f *fakeReadiness) Stop(key state.Key) { f.stops++ }

func newTestCluster(name string, replicas int32) *v1alpha1.QdrantCluster {
	return &v1alpha1.QdrantCluster{
		ObjectMeta: metav1.ObjectMeta{Name: name, Namespace: "ns", Generation: 1},
		Spec: v1alpha1.ClusterSpec{
			Replicas: replicas,
			Image:    "qdrant/qdrant:v1.9.0",
			Apikey:   "false",
		},
	}
}

func TestReconcileClusterFirstApplyCreatesWorkloadAndStartsReadiness(t *testing.T) {
	cr := newTestCluster("demo", 3)
	c := fake.NewClientBuilder().WithScheme(clusterScheme(t)).WithObjects(cr).WithStatusSubresource(cr).Build()

	readiness := &fakeReadiness{}
	r := &ClusterReconciler{Client: c, Status: &fakeStatusWriter{}, Readiness: readiness}
	key := state.Key{Kind: "QdrantCluster", Namespace: "ns", Name: "demo"}

	if err := r.ReconcileCluster(context.Background(), key, cr); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var workload appsv1.StatefulSet
	if err := c.Get(context.Background(), client.ObjectKey{Namespace: "ns", Name: "demo"}, &workload); err != nil {
		t.Fatalf("expected workload to be created: %v", err)
	}

	if readiness.starts != 1 {
		t.Fatalf("expected readiness tracker to be started once, got %d", readiness.starts)
	}
	if readiness.desiredReplicas != 3 {
		t.Fatalf("expected desired replicas 3, got %d", readiness.desiredReplicas)
	}
	if cr.Status.LastAppliedHash == "" {
		t.Fatal("expected lastAppliedHash to be set after first apply")
	}
	if cr.Status.QdrantStatus != v1alpha1.PhasePending {
		t.Fatalf("expected phase Pending after first apply, got %q", cr.Status.QdrantStatus)
	}
}

func TestReconcileClusterSkipsWorkloadReapplyWhenHashUnchanged(t *testing.T) {
	cr := newTestCluster("demo", 3)
	c := fake.NewClientBuilder().WithScheme(clusterScheme(t)).WithObjects(cr).WithStatusSubresource(cr).Build()

	readiness := &fakeReadiness{}
	r := &ClusterReconciler{Client: c, Status: &fakeStatusWriter{}, Readiness: readiness}
	key := state.Key{Kind: "QdrantCluster", Namespace: "ns", Name: "demo"}

	if err := r.ReconcileCluster(context.Background(), key, cr); err != nil {
		t.Fatalf("unexpected error on first apply: %v", err)
	}

	var workload appsv1.StatefulSet
	if err := c.Get(context.Background(), client.ObjectKey{Namespace: "ns", Name: "demo"}, &workload); err != nil {
		t.Fatalf("unexpected error fetching workload: %v", err)
	}
	firstGeneration := workload.GetGeneration()

	if err := r.ReconcileCluster(context.Background(), key, cr); err != nil {
		t.Fatalf("unexpected error on second reconcile: %v", err)
	}

	if readiness.starts != 1 {
		t.Fatalf("expected readiness tracker not to restart on an unchanged spec, got %d starts", readiness.starts)
	}

	if err := c.Get(context.Background(), client.ObjectKey{Namespace: "ns", Name: "demo"}, &workload); err != nil {
		t.Fatalf("unexpected error refetching workload: %v", err)
	}
	if workload.GetGeneration() != firstGeneration {
		t.Fatalf("expected workload generation to stay %d, got %d", firstGeneration, workload.GetGeneration())
	}
}

func TestReconcileClusterReappliesWorkloadOnDrift(t *testing.T) {
	cr := newTestCluster("demo", 3)
	c := fake.NewClientBuilder().WithScheme(clusterScheme(t)).WithObjects(cr).WithStatusSubresource(cr).Build()

	readiness := &fakeReadiness{}
	r := &ClusterReconciler{Client: c, Status: &fakeStatusWriter{}, Readiness: readiness}
	key := state.Key{Kind: "QdrantCluster", Namespace: "ns", Name: "demo"}

	if err := r.ReconcileCluster(context.Background(), key, cr); err != nil {
		t.Fatalf("unexpected error on first apply: %v", err)
	}

	cr.Spec.Replicas = 5
	if err := r.ReconcileCluster(context.Background(), key, cr); err != nil {
		t.Fatalf("unexpected error on drifted reconcile: %v", err)
	}

	if readiness.starts != 2 {
		t.Fatalf("expected readiness tracker to restart after drift, got %d starts", readiness.starts)
	}
	if readiness.desiredReplicas != 5 {
		t.Fatalf("expected desired replicas 5 after drift, got %d", readiness.desiredReplicas)
	}

	var workload appsv1.StatefulSet
	if err := c.Get(context.Background(), client.ObjectKey{Namespace: "ns", Name: "demo"}, &workload); err != nil {
		t.Fatalf("unexpected error fetching workload: %v", err)
	}
	if *workload.Spec.Replicas != 5 {
		t.Fatalf("expected workload replicas updated to 5, got %d", *workload.Spec.Replicas)
	}
}

func TestReconcileClusterIncrementsDriftDetectedOnRealDrift(t *testing.T) {
	cr := newTestCluster("demo", 3)
	c := fake.NewClientBuilder().WithScheme(clusterScheme(t)).WithObjects(cr).WithStatusSubresource(cr).Build()

	mc := metrics.New(prometheus.NewRegistry())
	r := &ClusterReconciler{Client: c, Status: &fakeStatusWriter{}, Readiness: &fakeReadiness{}, Metrics: mc}
	key := state.Key{Kind: "QdrantCluster", Namespace: "ns", Name: "demo"}

	if err := r.ReconcileCluster(context.Background(), key, cr); err != nil {
		t.Fatalf("unexpected error on first apply: %v", err)
	}
	if got := testutil.ToFloat64(mc.DriftDetected); got != 0 {
		t.Fatalf("expected no drift counted on first apply, got %v", got)
	}

	cr.Spec.Replicas = 5
	if err := r.ReconcileCluster(context.Background(), key, cr); err != nil {
		t.Fatalf("unexpected error on drifted reconcile: %v", err)
	}
	if got := testutil.ToFloat64(mc.DriftDetected); got != 1 {
		t.Fatalf("expected drift_detected_total incremented once, got %v", got)
	}
}

func TestReconcileClusterIgnoresFieldsOutsideCanonicalSubset(t *testing.T) {
	cr := newTestCluster("demo", 3)
	c := fake.NewClientBuilder().WithScheme(clusterScheme(t)).WithObjects(cr).WithStatusSubresource(cr).Build()

	mc := metrics.New(prometheus.NewRegistry())
	r := &ClusterReconciler{Client: c, Status: &fakeStatusWriter{}, Readiness: &fakeReadiness{}, Metrics: mc}
	key := state.Key{Kind: "QdrantCluster", Namespace: "ns", Name: "demo"}

	if err := r.ReconcileCluster(context.Background(), key, cr); err != nil {
		t.Fatalf("unexpected error on first apply: %v", err)
	}

	suspend := true
	cr.Spec.Suspend = &suspend
	cr.Spec.Snapshots = &v1alpha1.SnapshotSpec{Schedule: "0 */6 * * *"}

	if err := r.ReconcileCluster(context.Background(), key, cr); err != nil {
		t.Fatalf("unexpected error on second reconcile: %v", err)
	}

	if got := testutil.ToFloat64(mc.DriftDetected); got != 0 {
		t.Fatalf("expected fields outside the canonical fingerprint subset not to count as drift, got %v", got)
	}
}

func TestReconcileClusterSkipsTerminatingObject(t *testing.T) {
	cr := newTestCluster("demo", 3)
	now := metav1.Now()
	cr.DeletionTimestamp = &now
	cr.Finalizers = []string{v1alpha1.Finalizer}

	c := fake.NewClientBuilder().WithScheme(clusterScheme(t)).WithObjects(cr).WithStatusSubresource(cr).Build()

	r := &ClusterReconciler{Client: c, Status: &fakeStatusWriter{}, Readiness: &fakeReadiness{}}
	key := state.Key{Kind: "QdrantCluster", Namespace: "ns", Name: "demo"}

	if err := r.ReconcileCluster(context.Background(), key, cr); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var workload appsv1.StatefulSet
	if err := c.Get(context.Background(), client.ObjectKey{Namespace: "ns", Name: "demo"}, &workload); !k8serrors.IsNotFound(err) {
		t.Fatalf("expected a terminating cluster not to have its workload applied, got err=%v", err)
	}
}

func TestClusterFinalizerStopsReadinessAndScalesToZero(t *testing.T) {
	cr := newTestCluster("demo", 3)
	workload := &appsv1.StatefulSet{
		ObjectMeta: metav1.ObjectMeta{Name: "demo", Namespace: "ns", Finalizers: []string{v1alpha1.Finalizer}},
	}
	cr.Finalizers = []string{v1alpha1.Finalizer}

	c := fake.NewClientBuilder().WithScheme(clusterScheme(t)).WithObjects(cr, workload).WithStatusSubresource(cr).Build()

	readiness := &fakeReadiness{}
	tr := newTrackerForTest(c)
	f := &ClusterFinalizer{Client: c, Tracker: tr, Readiness: readiness}
	key := state.Key{Kind: "QdrantCluster", Namespace: "ns", Name: "demo"}

	if err := f.Cleanup(context.Background(), key, cr); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if readiness.stops != 1 {
		t.Fatalf("expected readiness tracker to be stopped once, got %d", readiness.stops)
	}

	var got appsv1.StatefulSet
	if err := c.Get(context.Background(), client.ObjectKey{Namespace: "ns", Name: "demo"}, &got); err != nil {
		t.Fatalf("unexpected error fetching workload: %v", err)
	}
	if *got.Spec.Replicas != 0 {
		t.Fatalf("expected workload scaled to zero, got %d", *got.Spec.Replicas)
	}

	var gotCR v1alpha1.QdrantCluster
	if err := c.Get(context.Background(), client.ObjectKey{Namespace: "ns", Name: "demo"}, &gotCR); err != nil {
		t.Fatalf("unexpected error fetching cluster: %v", err)
	}
	for _, fn := range gotCR.Finalizers {
		if fn == v1alpha1.Finalizer {
			t.Fatal("expected finalizer to be removed after successful cleanup")
		}
	}
}
