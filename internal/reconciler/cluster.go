package reconciler

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	k8serrors "k8s.io/apimachinery/pkg/api/errors"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/controller/controllerutil"

	"github.com/qdrant-operator/operator/api/v1alpha1"
	"github.com/qdrant-operator/operator/internal/finalizer"
	"github.com/qdrant-operator/operator/internal/manifests"
	"github.com/qdrant-operator/operator/internal/metrics"
	"github.com/qdrant-operator/operator/internal/state"
)

// StatusWriter is the narrow slice of the status-writer component (C7) the
// reconciler needs: write a status mutation under the settingStatus lock.
type StatusWriter interface {
	Write(ctx context.Context, key state.Key, obj client.Object, mutate func(client.Object)) error
}

// ReadinessTracker is the narrow slice of the readiness tracker (C8) the
// cluster reconciler drives: start watching a workload toward the desired
// replica count, and abort that watch (used by cleanup).
type ReadinessTracker interface {
	Start(ctx context.Context, key state.Key, namespace, workloadName string, desiredReplicas int32)
	Stop(key state.Key)
}

// ClusterReconciler implements the cluster reconcile algorithm (spec.md
// §4.5), grounded on the teacher's status-then-world ordering in
// controllers/cluster/controller.go, generalized from a child-Service
// classifier to this system's fixed apply-order manifest set.
type ClusterReconciler struct {
	Client    client.Client
	Status    StatusWriter
	Readiness ReadinessTracker

	// Metrics, if set, receives the drift-detected counter increment
	// (spec.md §4.5/§6) on every reconcile that finds real spec drift or a
	// workload whose replica count no longer matches the spec.
	Metrics *metrics.Collectors
}

// ReconcileCluster converges a QdrantCluster's workload and supporting
// objects to its spec, publishing status transitions along the way. A
// cluster already marked for deletion is left alone: its finalizer cleanup
// (ClusterFinalizer.Cleanup) owns it from here, not the normal reconcile
// path (spec.md §4.6).
func (r *ClusterReconciler) ReconcileCluster(ctx context.Context, key state.Key, cr *v1alpha1.QdrantCluster) error {
	if !cr.GetDeletionTimestamp().IsZero() {
		return nil
	}

	var workload appsv1.StatefulSet
	err := r.Client.Get(ctx, client.ObjectKey{Namespace: cr.Namespace, Name: cr.Name}, &workload)

	switch {
	case k8serrors.IsNotFound(err):
		return r.reconcileCreate(ctx, key, cr)
	case err != nil:
		return err
	default:
		return r.reconcileExisting(ctx, key, cr, &workload)
	}
}

// reconcileCreate is step 2: first apply of a cluster with no observed
// workload.
func (r *ClusterReconciler) reconcileCreate(ctx context.Context, key state.Key, cr *v1alpha1.QdrantCluster) error {
	if err := r.Status.Write(ctx, key, cr, func(o client.Object) {
		o.(*v1alpha1.QdrantCluster).Status.QdrantStatus = v1alpha1.PhasePending
	}); err != nil {
		return err
	}

	if err := r.applyAncillary(ctx, cr); err != nil {
		return err
	}

	workload := manifests.RenderWorkload(cr.Namespace, cr.Name, cr.Spec)
	if err := apply(ctx, r.Client, cr, workload); err != nil {
		return fmt.Errorf("apply workload: %w", err)
	}

	h, err := ClusterFingerprint(cr.Spec)
	if err != nil {
		return err
	}

	if err := r.Status.Write(ctx, key, cr, func(o client.Object) {
		o.(*v1alpha1.QdrantCluster).Status.LastAppliedHash = h
	}); err != nil {
		return err
	}

	r.Readiness.Start(ctx, key, cr.Namespace, cr.Name, cr.Spec.Replicas)
	return nil
}

// reconcileExisting is steps 3-4: drift check against the prior fingerprint
// and the workload's replica count, then a readiness verification when
// nothing changed.
func (r *ClusterReconciler) reconcileExisting(ctx context.Context, key state.Key, cr *v1alpha1.QdrantCluster, workload *appsv1.StatefulSet) error {
	previousHash := cr.Status.LastAppliedHash
	currentHash, err := ClusterFingerprint(cr.Spec)
	if err != nil {
		return err
	}

	if err := r.applyAncillary(ctx, cr); err != nil {
		return err
	}

	observedReplicas := int32(1)
	if workload.Spec.Replicas != nil {
		observedReplicas = *workload.Spec.Replicas
	}

	if previousHash != "" && previousHash == currentHash && observedReplicas == cr.Spec.Replicas {
		return r.verifyReadiness(ctx, key, cr, workload)
	}

	if previousHash != "" {
		logrus.Infof("%s/%s: spec drift detected, re-applying workload", cr.Namespace, cr.Name)
		if r.Metrics != nil {
			r.Metrics.DriftDetected.Inc()
		}
	}

	if err := r.Status.Write(ctx, key, cr, func(o client.Object) {
		o.(*v1alpha1.QdrantCluster).Status.QdrantStatus = v1alpha1.PhasePending
	}); err != nil {
		return err
	}

	desired := manifests.RenderWorkload(cr.Namespace, cr.Name, cr.Spec)
	if err := apply(ctx, r.Client, cr, desired); err != nil {
		return fmt.Errorf("apply workload: %w", err)
	}

	if err := r.Status.Write(ctx, key, cr, func(o client.Object) {
		o.(*v1alpha1.QdrantCluster).Status.LastAppliedHash = currentHash
	}); err != nil {
		return err
	}

	r.Readiness.Start(ctx, key, cr.Namespace, cr.Name, cr.Spec.Replicas)
	return nil
}

// verifyReadiness is step 4's no-drift branch: a direct read of the
// workload's own status, promoting to Healthy without involving the
// readiness tracker when the cluster was already stable.
func (r *ClusterReconciler) verifyReadiness(ctx context.Context, key state.Key, cr *v1alpha1.QdrantCluster, workload *appsv1.StatefulSet) error {
	if cr.Status.QdrantStatus == v1alpha1.PhaseRunning || cr.Status.QdrantStatus == v1alpha1.PhaseHealthy {
		if workload.Status.ReadyReplicas >= cr.Spec.Replicas && workload.Status.UpdatedReplicas >= cr.Spec.Replicas {
			if cr.Status.QdrantStatus != v1alpha1.PhaseHealthy {
				return r.Status.Write(ctx, key, cr, func(o client.Object) {
					o.(*v1alpha1.QdrantCluster).Status.QdrantStatus = v1alpha1.PhaseHealthy
				})
			}
		}
		return nil
	}

	if workload.Status.ReadyReplicas >= cr.Spec.Replicas {
		return r.Status.Write(ctx, key, cr, func(o client.Object) {
			o.(*v1alpha1.QdrantCluster).Status.QdrantStatus = v1alpha1.PhaseHealthy
		})
	}

	return nil
}

// applyAncillary applies every cheap, idempotent object that can never
// trigger a workload rollout: config, secrets, services, disruption budget.
func (r *ClusterReconciler) applyAncillary(ctx context.Context, cr *v1alpha1.QdrantCluster) error {
	config := manifests.RenderConfigObject(cr.Namespace, cr.Name, cr.Spec)
	if err := apply(ctx, r.Client, cr, config); err != nil {
		return fmt.Errorf("apply config object: %w", err)
	}

	readOnlySecret := manifests.RenderReadOnlySecret(cr.Namespace, cr.Name)
	if err := createIfAbsent(ctx, r.Client, cr, readOnlySecret); err != nil {
		return fmt.Errorf("create read-only secret: %w", err)
	}

	primarySecret := manifests.RenderPrimarySecret(cr.Namespace, cr.Name)
	if err := createIfAbsent(ctx, r.Client, cr, primarySecret); err != nil {
		return fmt.Errorf("create primary secret: %w", err)
	}

	var storedReadOnly, storedPrimary corev1.Secret
	if err := r.Client.Get(ctx, client.ObjectKey{Namespace: cr.Namespace, Name: manifests.ReadOnlyAPIKeySecretName(cr.Name)}, &storedReadOnly); err != nil {
		return fmt.Errorf("read back read-only secret: %w", err)
	}
	if err := r.Client.Get(ctx, client.ObjectKey{Namespace: cr.Namespace, Name: manifests.PrimaryAPIKeySecretName(cr.Name)}, &storedPrimary); err != nil {
		return fmt.Errorf("read back primary secret: %w", err)
	}

	composite := manifests.RenderCompositeAuthSecret(cr.Namespace, cr.Name, storedReadOnly.Data["api-key"], storedPrimary.Data["api-key"])
	if err := apply(ctx, r.Client, cr, composite); err != nil {
		return fmt.Errorf("apply composite auth secret: %w", err)
	}

	headless := manifests.RenderHeadlessService(cr.Namespace, cr.Name, cr.Spec)
	if err := apply(ctx, r.Client, cr, headless); err != nil {
		return fmt.Errorf("apply headless service: %w", err)
	}

	clientSvc := manifests.RenderClientService(cr.Namespace, cr.Name, cr.Spec)
	if err := apply(ctx, r.Client, cr, clientSvc); err != nil {
		return fmt.Errorf("apply client service: %w", err)
	}

	pdb := manifests.RenderDisruptionBudget(cr.Namespace, cr.Name)
	if err := apply(ctx, r.Client, cr, pdb); err != nil {
		return fmt.Errorf("apply disruption budget: %w", err)
	}

	return nil
}

// createIfAbsent creates desired only if no object with its name exists
// yet, and never overwrites it. Used for the API-key secrets, whose content
// is randomly generated at Render time: applying them through the normal
// create-or-update path would rotate credentials on every reconcile.
func createIfAbsent(ctx context.Context, c client.Client, owner client.Object, desired client.Object) error {
	if err := controllerutil.SetControllerReference(owner, desired, c.Scheme()); err != nil {
		return err
	}

	err := c.Create(ctx, desired)
	if err == nil || k8serrors.IsAlreadyExists(err) {
		return nil
	}
	return err
}

// ClusterFinalizer implements router.Finalizer for QdrantCluster deletion
// (spec.md §4.6): abort the readiness watch, then scale the workload to
// zero, tolerating not-found as success.
type ClusterFinalizer struct {
	Client    client.Client
	Tracker   *finalizer.Tracker
	Readiness ReadinessTracker
}

func (f *ClusterFinalizer) Cleanup(ctx context.Context, key state.Key, obj client.Object) error {
	stopReadiness := func(ctx context.Context, obj client.Object) error {
		f.Readiness.Stop(key)
		return nil
	}

	scaleToZero := func(ctx context.Context, obj client.Object) error {
		cr, ok := obj.(*v1alpha1.QdrantCluster)
		if !ok {
			return nil
		}

		var workload appsv1.StatefulSet
		err := f.Client.Get(ctx, client.ObjectKey{Namespace: cr.Namespace, Name: cr.Name}, &workload)
		if k8serrors.IsNotFound(err) {
			return nil
		}
		if err != nil {
			return err
		}

		zero := int32(0)
		workload.Spec.Replicas = &zero
		return f.Client.Update(ctx, &workload)
	}

	return f.Tracker.Cleanup(ctx, key, obj, stopReadiness, scaleToZero)
}
