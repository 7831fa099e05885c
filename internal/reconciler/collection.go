package reconciler

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	corev1 "k8s.io/api/core/v1"
	k8serrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"sigs.k8s.io/controller-runtime/pkg/client"

	"github.com/qdrant-operator/operator/api/v1alpha1"
	"github.com/qdrant-operator/operator/internal/apierrors"
	"github.com/qdrant-operator/operator/internal/finalizer"
	"github.com/qdrant-operator/operator/internal/manifests"
	"github.com/qdrant-operator/operator/internal/state"
	"github.com/qdrant-operator/operator/internal/vectordb"
	"github.com/qdrant-operator/operator/internal/workqueue"
)

// ClusterWaitRetry and TransientRetry are the fixed 10s retry delays spec.md
// §4.5's collection algorithm assigns to "cluster not ready" and
// "transient upsert failure" respectively.
const (
	ClusterWaitRetry = 10 * time.Second
	TransientRetry   = 10 * time.Second
)

// CollectionReconciler implements the collection reconcile algorithm
// (spec.md §4.5), grounded on the teacher's single-child-resource
// readiness gate in controllers/service/controller.go, generalized to gate
// on a sibling cluster's status instead of a parent Workflow's phase.
type CollectionReconciler struct {
	Client   client.Client
	Status   StatusWriter
	Queue    *workqueue.Queue
	JobImage string
}

// ReconcileCollection converges a QdrantCollection against its cluster's
// HTTP surface.
func (r *CollectionReconciler) ReconcileCollection(ctx context.Context, key state.Key, col *v1alpha1.QdrantCollection) error {
	var fresh v1alpha1.QdrantCollection
	if err := r.Client.Get(ctx, client.ObjectKey{Namespace: col.Namespace, Name: col.Name}, &fresh); err != nil {
		return err
	}
	col = &fresh

	if !col.GetDeletionTimestamp().IsZero() {
		// finalizer cleanup (CollectionFinalizer.Cleanup) owns a terminating
		// collection; the normal reconcile path leaves it alone (spec.md §4.6).
		return nil
	}

	var cluster v1alpha1.QdrantCluster
	if err := r.Client.Get(ctx, client.ObjectKey{Namespace: col.Namespace, Name: col.Spec.Cluster}, &cluster); err != nil {
		if k8serrors.IsNotFound(err) {
			return r.waitForCluster(ctx, key, col)
		}
		return err
	}

	if cluster.Status.QdrantStatus != v1alpha1.PhaseRunning && cluster.Status.QdrantStatus != v1alpha1.PhaseHealthy {
		return r.waitForCluster(ctx, key, col)
	}

	vdb, err := BuildVectorDBClient(ctx, r.Client, &cluster)
	if err != nil {
		return err
	}

	req, err := vectordb.DecodeConfig(col.Spec.VectorSize, col.Spec.ShardNumber, col.Spec.ReplicationFactor, col.Spec.OnDisk, "", col.Spec.Config)
	if err != nil {
		return r.Status.Write(ctx, key, col, func(o client.Object) {
			setCollectionError(o, v1alpha1.ReasonOperationalError, err.Error())
		})
	}

	if err := vdb.UpsertCollection(ctx, col.Name, req); err != nil {
		return r.handleUpsertFailure(ctx, key, col, err)
	}

	if err := r.applyAncillaryJobs(ctx, &cluster, col); err != nil {
		logrus.Warnf("%s/%s: ancillary job apply failed: %v", col.Namespace, col.Name, err)
	}

	return r.Status.Write(ctx, key, col, func(o client.Object) {
		c := o.(*v1alpha1.QdrantCollection)
		c.Status.QdrantStatus = v1alpha1.PhaseHealthy
		c.Status.ObservedGeneration = c.GetGeneration()
		c.Status.Reason = ""
		c.Status.ErrorMessage = ""
	})
}

// waitForCluster implements step 2: the referenced cluster isn't answering
// yet, so retry in 10s instead of attempting the HTTP call.
func (r *CollectionReconciler) waitForCluster(ctx context.Context, key state.Key, col *v1alpha1.QdrantCollection) error {
	if r.Queue != nil {
		r.Queue.ScheduleAfter(key, ClusterWaitRetry)
	}

	return r.Status.Write(ctx, key, col, func(o client.Object) {
		c := o.(*v1alpha1.QdrantCollection)
		if c.Status.QdrantStatus == "" {
			c.Status.QdrantStatus = v1alpha1.PhasePending
		}
		c.Status.Reason = v1alpha1.ReasonClusterNotReady
	})
}

// handleUpsertFailure implements step 5: transient failures are retried,
// permanent failures become a terminal status.Error.
func (r *CollectionReconciler) handleUpsertFailure(ctx context.Context, key state.Key, col *v1alpha1.QdrantCollection, err error) error {
	if apierrors.IsRetryable(err) {
		if r.Queue != nil {
			r.Queue.ScheduleAfter(key, TransientRetry)
		}
		logrus.Warnf("%s/%s: transient collection upsert failure, retrying: %v", col.Namespace, col.Name, err)
		return nil
	}

	return r.Status.Write(ctx, key, col, func(o client.Object) {
		setCollectionError(o, v1alpha1.ReasonOperationalError, err.Error())
	})
}

// applyAncillaryJobs implements step 4: a scheduled backup CronJob if
// spec.snapshots names a schedule. On-demand backup/restore are driven by
// their own CRs (ReconcileBackup/ReconcileRestore below), not from here.
func (r *CollectionReconciler) applyAncillaryJobs(ctx context.Context, cluster *v1alpha1.QdrantCluster, col *v1alpha1.QdrantCollection) error {
	if col.Spec.Snapshots == nil || col.Spec.Snapshots.Schedule == "" {
		return nil
	}

	cron := manifests.RenderBackupCronJob(col.Namespace, cluster.Name, col.Name, col.Spec.Snapshots.Schedule, r.JobImage)
	return apply(ctx, r.Client, col, cron)
}

// ReconcileBackup applies the one-shot backup Job for a
// QdrantCollectionBackup resource.
func (r *CollectionReconciler) ReconcileBackup(ctx context.Context, key state.Key, backup *v1alpha1.QdrantCollectionBackup) error {
	var col v1alpha1.QdrantCollection
	if err := r.Client.Get(ctx, client.ObjectKey{Namespace: backup.Namespace, Name: backup.Spec.Collection}, &col); err != nil {
		return r.Status.Write(ctx, key, backup, func(o client.Object) {
			b := o.(*v1alpha1.QdrantCollectionBackup)
			b.Status.Phase = v1alpha1.PhaseError
			b.Status.ErrorMessage = fmt.Sprintf("collection %s not found: %v", backup.Spec.Collection, err)
		})
	}

	job := manifests.RenderBackupJob(backup.Namespace, col.Spec.Cluster, backup.Name, col.Name, r.JobImage)
	if err := apply(ctx, r.Client, backup, job); err != nil {
		return err
	}

	return r.Status.Write(ctx, key, backup, func(o client.Object) {
		o.(*v1alpha1.QdrantCollectionBackup).Status.Phase = v1alpha1.PhaseRunning
	})
}

// ReconcileRestore applies the one-shot restore Job for a
// QdrantCollectionRestore resource.
func (r *CollectionReconciler) ReconcileRestore(ctx context.Context, key state.Key, restore *v1alpha1.QdrantCollectionRestore) error {
	var col v1alpha1.QdrantCollection
	if err := r.Client.Get(ctx, client.ObjectKey{Namespace: restore.Namespace, Name: restore.Spec.Collection}, &col); err != nil {
		return r.Status.Write(ctx, key, restore, func(o client.Object) {
			rs := o.(*v1alpha1.QdrantCollectionRestore)
			rs.Status.Phase = v1alpha1.PhaseError
			rs.Status.ErrorMessage = fmt.Sprintf("collection %s not found: %v", restore.Spec.Collection, err)
		})
	}

	job := manifests.RenderRestoreJob(restore.Namespace, col.Spec.Cluster, restore.Name, col.Name, restore.Spec.SnapshotName, r.JobImage)
	if err := apply(ctx, r.Client, restore, job); err != nil {
		return err
	}

	return r.Status.Write(ctx, key, restore, func(o client.Object) {
		o.(*v1alpha1.QdrantCollectionRestore).Status.Phase = v1alpha1.PhaseRunning
	})
}

// BuildVectorDBClient resolves a cluster's client-Service DNS name and
// primary API key into an internal/vectordb.Client, shared by the
// collection reconciler and its finalizer.
func BuildVectorDBClient(ctx context.Context, c client.Client, cluster *v1alpha1.QdrantCluster) (*vectordb.Client, error) {
	host := fmt.Sprintf("%s.%s.svc.cluster.local", manifests.ClientServiceName(cluster.Name), cluster.Namespace)

	apiKey := ""
	if cluster.Spec.Apikey != "false" && cluster.Spec.Apikey != "" {
		var secret corev1.Secret
		if err := c.Get(ctx, client.ObjectKey{Namespace: cluster.Namespace, Name: manifests.PrimaryAPIKeySecretName(cluster.Name)}, &secret); err != nil {
			return nil, fmt.Errorf("read primary api key secret: %w", err)
		}
		apiKey = string(secret.Data["api-key"])
	}

	return vectordb.New(host, cluster.Spec.TLS.Enabled, apiKey), nil
}

func setCollectionError(obj client.Object, reason, detail string) {
	c, ok := obj.(*v1alpha1.QdrantCollection)
	if !ok {
		return
	}
	c.Status.QdrantStatus = v1alpha1.PhaseError
	c.Status.Reason = reason
	c.Status.ErrorMessage = detail
	c.Status.ObservedGeneration = c.GetGeneration()
	c.Status.Conditions = upsertReadyCondition(c.Status.Conditions, reason, detail, c.GetGeneration())
}

func upsertReadyCondition(conditions []metav1.Condition, reason, detail string, generation int64) []metav1.Condition {
	cond := v1alpha1.NewReadyCondition(metav1.ConditionFalse, reason, detail, generation)
	for i, existing := range conditions {
		if existing.Type == cond.Type {
			conditions[i] = cond
			return conditions
		}
	}
	return append(conditions, cond)
}

// CollectionFinalizer implements router.Finalizer for QdrantCollection
// deletion (spec.md §4.6): delete the remote collection, tolerating
// not-found as success.
type CollectionFinalizer struct {
	Client  client.Client
	Tracker *finalizer.Tracker
}

func (f *CollectionFinalizer) Cleanup(ctx context.Context, key state.Key, obj client.Object) error {
	deleteRemote := func(ctx context.Context, obj client.Object) error {
		col, ok := obj.(*v1alpha1.QdrantCollection)
		if !ok {
			return nil
		}

		var cluster v1alpha1.QdrantCluster
		if err := f.Client.Get(ctx, client.ObjectKey{Namespace: col.Namespace, Name: col.Spec.Cluster}, &cluster); err != nil {
			if k8serrors.IsNotFound(err) {
				return nil
			}
			return err
		}

		vdb, err := BuildVectorDBClient(ctx, f.Client, &cluster)
		if err != nil {
			return err
		}

		if err := vdb.DeleteCollection(ctx, col.Name); err != nil && apierrors.KindOf(err) != apierrors.KindNotFound {
			return err
		}
		return nil
	}

	return f.Tracker.Cleanup(ctx, key, obj, deleteRemote)
}
