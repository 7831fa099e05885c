package reconciler

import (
	"context"
	"errors"
	"testing"

	batchv1 "k8s.io/api/batch/v1"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/client/fake"

	"github.com/qdrant-operator/operator/api/v1alpha1"
	"github.com/qdrant-operator/operator/internal/apierrors"
	"github.com/qdrant-operator/operator/internal/state"
	"github.com/qdrant-operator/operator/internal/workqueue"
)

func newTestCollection(name, cluster string) *v1alpha1.QdrantCollection {
	return &v1alpha1.QdrantCollection{
		ObjectMeta: metav1.ObjectMeta{Name: name, Namespace: "ns", Generation: 2},
		Spec: v1alpha1.CollectionSpec{
			Cluster:           cluster,
			VectorSize:        128,
			ShardNumber:       1,
			ReplicationFactor: 1,
		},
	}
}

func TestReconcileCollectionWaitsWhenClusterMissing(t *testing.T) {
	col := newTestCollection("demo", "absent-cluster")
	c := fake.NewClientBuilder().WithScheme(clusterScheme(t)).WithObjects(col).WithStatusSubresource(col).Build()

	q := workqueue.New("test")
	r := &CollectionReconciler{Client: c, Status: &fakeStatusWriter{}, Queue: q}
	key := state.Key{Kind: "QdrantCollection", Namespace: "ns", Name: "demo"}

	if err := r.ReconcileCollection(context.Background(), key, col); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if col.Status.Reason != v1alpha1.ReasonClusterNotReady {
		t.Fatalf("expected reason ClusterNotReady, got %q", col.Status.Reason)
	}
	if q.Len() != 1 {
		t.Fatalf("expected a retry to be scheduled, queue len=%d", q.Len())
	}
}

func TestReconcileCollectionWaitsWhenClusterNotReady(t *testing.T) {
	cluster := newTestCluster("cl", 3)
	cluster.Status.QdrantStatus = v1alpha1.PhasePending
	col := newTestCollection("demo", "cl")

	c := fake.NewClientBuilder().WithScheme(clusterScheme(t)).WithObjects(cluster, col).WithStatusSubresource(cluster, col).Build()

	q := workqueue.New("test")
	r := &CollectionReconciler{Client: c, Status: &fakeStatusWriter{}, Queue: q}
	key := state.Key{Kind: "QdrantCollection", Namespace: "ns", Name: "demo"}

	if err := r.ReconcileCollection(context.Background(), key, col); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if col.Status.Reason != v1alpha1.ReasonClusterNotReady {
		t.Fatalf("expected reason ClusterNotReady, got %q", col.Status.Reason)
	}
	if q.Len() != 1 {
		t.Fatalf("expected a retry to be scheduled, queue len=%d", q.Len())
	}
}

func TestReconcileCollectionSkipsTerminatingObject(t *testing.T) {
	col := newTestCollection("demo", "absent-cluster")
	now := metav1.Now()
	col.DeletionTimestamp = &now
	col.Finalizers = []string{v1alpha1.Finalizer}

	c := fake.NewClientBuilder().WithScheme(clusterScheme(t)).WithObjects(col).WithStatusSubresource(col).Build()

	q := workqueue.New("test")
	r := &CollectionReconciler{Client: c, Status: &fakeStatusWriter{}, Queue: q}
	key := state.Key{Kind: "QdrantCollection", Namespace: "ns", Name: "demo"}

	if err := r.ReconcileCollection(context.Background(), key, col); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if q.Len() != 0 {
		t.Fatalf("expected a terminating collection not to schedule a cluster-wait retry, queue len=%d", q.Len())
	}

	var got v1alpha1.QdrantCollection
	if err := c.Get(context.Background(), client.ObjectKey{Namespace: "ns", Name: "demo"}, &got); err != nil {
		t.Fatalf("unexpected error fetching collection: %v", err)
	}
	if got.Status.Reason != "" {
		t.Fatalf("expected a terminating collection's status to be left untouched, got reason %q", got.Status.Reason)
	}
}

func TestHandleUpsertFailureRetriesTransientErrors(t *testing.T) {
	col := newTestCollection("demo", "cl")
	c := fake.NewClientBuilder().WithScheme(clusterScheme(t)).WithObjects(col).WithStatusSubresource(col).Build()

	q := workqueue.New("test")
	r := &CollectionReconciler{Client: c, Status: &fakeStatusWriter{}, Queue: q}
	key := state.Key{Kind: "QdrantCollection", Namespace: "ns", Name: "demo"}

	err := r.handleUpsertFailure(context.Background(), key, col, apierrors.New(apierrors.KindTransient, errors.New("boom"), "upsert"))
	if err != nil {
		t.Fatalf("expected transient failure to be swallowed (retry scheduled), got %v", err)
	}
	if q.Len() != 1 {
		t.Fatalf("expected a retry to be scheduled, queue len=%d", q.Len())
	}
	if col.Status.QdrantStatus == v1alpha1.PhaseError {
		t.Fatal("expected status not to become Error for a transient failure")
	}
}

func TestHandleUpsertFailureSurfacesPermanentErrors(t *testing.T) {
	col := newTestCollection("demo", "cl")
	c := fake.NewClientBuilder().WithScheme(clusterScheme(t)).WithObjects(col).WithStatusSubresource(col).Build()

	q := workqueue.New("test")
	r := &CollectionReconciler{Client: c, Status: &fakeStatusWriter{}, Queue: q}
	key := state.Key{Kind: "QdrantCollection", Namespace: "ns", Name: "demo"}

	err := r.handleUpsertFailure(context.Background(), key, col, apierrors.New(apierrors.KindPermanent, errors.New("bad request"), "upsert"))
	if err != nil {
		t.Fatalf("unexpected error from status write: %v", err)
	}
	if col.Status.QdrantStatus != v1alpha1.PhaseError {
		t.Fatalf("expected status Error for a permanent failure, got %q", col.Status.QdrantStatus)
	}
	if col.Status.Reason != v1alpha1.ReasonOperationalError {
		t.Fatalf("expected reason OperationalError, got %q", col.Status.Reason)
	}
}

func TestApplyAncillaryJobsCreatesCronJobWhenScheduled(t *testing.T) {
	cluster := newTestCluster("cl", 3)
	col := newTestCollection("demo", "cl")
	col.Spec.Snapshots = &v1alpha1.SnapshotSpec{Schedule: "0 0 * * *"}

	c := fake.NewClientBuilder().WithScheme(clusterScheme(t)).WithObjects(cluster, col).Build()
	r := &CollectionReconciler{Client: c, Status: &fakeStatusWriter{}, JobImage: "qdrant-operator/jobs:latest"}

	if err := r.applyAncillaryJobs(context.Background(), cluster, col); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var cron batchv1.CronJob
	if err := c.Get(context.Background(), client.ObjectKey{Namespace: "ns", Name: "cl-backup-schedule"}, &cron); err != nil {
		t.Fatalf("expected backup cronjob to be created: %v", err)
	}
}

func TestApplyAncillaryJobsNoopsWithoutSchedule(t *testing.T) {
	cluster := newTestCluster("cl", 3)
	col := newTestCollection("demo", "cl")

	c := fake.NewClientBuilder().WithScheme(clusterScheme(t)).WithObjects(cluster, col).Build()
	r := &CollectionReconciler{Client: c, Status: &fakeStatusWriter{}, JobImage: "qdrant-operator/jobs:latest"}

	if err := r.applyAncillaryJobs(context.Background(), cluster, col); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var cron batchv1.CronJob
	err := c.Get(context.Background(), client.ObjectKey{Namespace: "ns", Name: "cl-backup-schedule"}, &cron)
	if err == nil {
		t.Fatal("expected no cronjob to be created without a snapshot schedule")
	}
}

func TestReconcileBackupAppliesJobForKnownCollection(t *testing.T) {
	col := newTestCollection("demo", "cl")
	backup := &v1alpha1.QdrantCollectionBackup{
		ObjectMeta: metav1.ObjectMeta{Name: "demo-backup-1", Namespace: "ns"},
		Spec:       v1alpha1.QdrantCollectionBackupSpec{Collection: "demo"},
	}

	c := fake.NewClientBuilder().WithScheme(clusterScheme(t)).WithObjects(col, backup).WithStatusSubresource(backup).Build()
	r := &CollectionReconciler{Client: c, Status: &fakeStatusWriter{}, JobImage: "qdrant-operator/jobs:latest"}
	key := state.Key{Kind: "QdrantCollectionBackup", Namespace: "ns", Name: "demo-backup-1"}

	if err := r.ReconcileBackup(context.Background(), key, backup); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if backup.Status.Phase != v1alpha1.PhaseRunning {
		t.Fatalf("expected phase Running, got %q", backup.Status.Phase)
	}
}

func TestReconcileBackupErrorsWhenCollectionMissing(t *testing.T) {
	backup := &v1alpha1.QdrantCollectionBackup{
		ObjectMeta: metav1.ObjectMeta{Name: "demo-backup-1", Namespace: "ns"},
		Spec:       v1alpha1.QdrantCollectionBackupSpec{Collection: "missing"},
	}

	c := fake.NewClientBuilder().WithScheme(clusterScheme(t)).WithObjects(backup).WithStatusSubresource(backup).Build()
	r := &CollectionReconciler{Client: c, Status: &fakeStatusWriter{}, JobImage: "qdrant-operator/jobs:latest"}
	key := state.Key{Kind: "QdrantCollectionBackup", Namespace: "ns", Name: "demo-backup-1"}

	if err := r.ReconcileBackup(context.Background(), key, backup); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if backup.Status.Phase != v1alpha1.PhaseError {
		t.Fatalf("expected phase Error when the collection is missing, got %q", backup.Status.Phase)
	}
}

func TestCollectionFinalizerToleratesMissingCluster(t *testing.T) {
	col := newTestCollection("demo", "absent-cluster")
	col.Finalizers = []string{v1alpha1.Finalizer}

	c := fake.NewClientBuilder().WithScheme(clusterScheme(t)).WithObjects(col).WithStatusSubresource(col).Build()

	f := &CollectionFinalizer{Client: c, Tracker: newTrackerForTest(c)}
	key := state.Key{Kind: "QdrantCollection", Namespace: "ns", Name: "demo"}

	if err := f.Cleanup(context.Background(), key, col); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var got v1alpha1.QdrantCollection
	if err := c.Get(context.Background(), client.ObjectKey{Namespace: "ns", Name: "demo"}, &got); err != nil {
		t.Fatalf("unexpected error fetching collection: %v", err)
	}
	for _, fn := range got.Finalizers {
		if fn == v1alpha1.Finalizer {
			t.Fatal("expected finalizer to be removed when the referenced cluster is already gone")
		}
	}
}

var _ = corev1.Secret{}
