// Package statuswriter publishes status updates without losing concurrent
// watch events or fighting the API server's optimistic concurrency,
// per spec.md §4.7 (C7).
package statuswriter

import (
	"context"
	"time"

	k8serrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"sigs.k8s.io/controller-runtime/pkg/client"

	"github.com/qdrant-operator/operator/api/v1alpha1"
	"github.com/qdrant-operator/operator/internal/state"
)

// NotFoundRetries and ConflictRetries are the bounded retry counts from
// spec.md §4.7.
const (
	NotFoundRetries = 5
	ConflictRetries = 3
)

// StatusLockHold is how long settingStatus[key] stays set after a write
// completes, so a burst of events immediately following a status update
// still buffers correctly instead of racing the lock's release.
const StatusLockHold = 300 * time.Millisecond

// ReplayFunc re-dispatches a buffered pending event back through the
// router once the status lock for its key clears.
type ReplayFunc func(ctx context.Context, key state.Key, ev state.PendingEvent)

// Writer publishes status sub-resource updates as replaces
// (Status().Update), retried on 404 with growing delays and, on 409, by
// refetching the object and replacing again a bounded number of times. It
// does not issue merge patches.
type Writer struct {
	Client client.Client
	Store  *state.Store
	Replay ReplayFunc
}

// Write applies mutate to obj's status and persists it, honoring the
// settingStatus lock and buffered-event replay contract.
func (w *Writer) Write(ctx context.Context, key state.Key, obj client.Object, mutate func(client.Object)) error {
	w.Store.LockStatus(key)
	defer func() {
		go func() {
			time.Sleep(StatusLockHold)
			w.Store.UnlockStatus(key)
			w.replayBuffered(ctx, key)
		}()
	}()

	mutate(obj)

	return w.persist(ctx, key, obj, mutate)
}

func (w *Writer) persist(ctx context.Context, key state.Key, obj client.Object, mutate func(client.Object)) error {
	var lastErr error

	for attempt := 0; attempt < NotFoundRetries; attempt++ {
		err := w.Client.Status().Update(ctx, obj)
		if err == nil {
			return nil
		}

		if k8serrors.IsConflict(err) {
			return w.retryOnConflict(ctx, key, obj, mutate)
		}

		if !k8serrors.IsNotFound(err) {
			return err
		}

		lastErr = err
		delay := time.Duration(attempt+1) * 200 * time.Millisecond
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}

	return lastErr
}

func (w *Writer) retryOnConflict(ctx context.Context, key state.Key, obj client.Object, mutate func(client.Object)) error {
	var lastErr error

	for attempt := 0; attempt < ConflictRetries; attempt++ {
		delay := time.Duration(attempt) * 100 * time.Millisecond
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}

		if err := w.Client.Get(ctx, client.ObjectKey{Namespace: key.Namespace, Name: key.Name}, obj); err != nil {
			lastErr = err
			continue
		}

		mutate(obj)

		if err := w.Client.Status().Update(ctx, obj); err != nil {
			lastErr = err
			if k8serrors.IsConflict(err) {
				continue
			}
			return err
		}

		return nil
	}

	return lastErr
}

func (w *Writer) replayBuffered(ctx context.Context, key state.Key) {
	events := w.Store.DrainEvents(key)
	if w.Replay == nil {
		return
	}
	for _, ev := range events {
		w.Replay(ctx, key, ev)
	}
}

// WriteValidationError implements router.StatusWriter: a terminal
// InvalidSpec status, independent of the full reconcile path.
func (w *Writer) WriteValidationError(ctx context.Context, key state.Key, obj client.Object, detail string) error {
	return w.Write(ctx, key, obj, func(o client.Object) {
		setErrorCondition(o, v1alpha1.ReasonInvalidSpec, detail)
	})
}

// setErrorCondition applies the common error-status fields spec.md §4.7
// requires: qdrantStatus=Error, reason, errorMessage, observedGeneration,
// and a Ready=False condition with a transition timestamp. It dispatches
// on concrete type since ClusterStatus and CollectionStatus don't share a
// settable interface for these fields (only a read-only
// GetReconcileStatus()).
func setErrorCondition(obj client.Object, reason, detail string) {
	now := metav1.Now()
	cond := v1alpha1.NewReadyCondition(metav1.ConditionFalse, reason, detail, obj.GetGeneration())
	cond.LastTransitionTime = now

	switch o := obj.(type) {
	case *v1alpha1.QdrantCluster:
		o.Status.QdrantStatus = v1alpha1.PhaseError
		o.Status.Reason = reason
		o.Status.ErrorMessage = detail
		o.Status.ObservedGeneration = o.GetGeneration()
		o.Status.Conditions = upsertCondition(o.Status.Conditions, cond)
	case *v1alpha1.QdrantCollection:
		o.Status.QdrantStatus = v1alpha1.PhaseError
		o.Status.Reason = reason
		o.Status.ErrorMessage = detail
		o.Status.ObservedGeneration = o.GetGeneration()
		o.Status.Conditions = upsertCondition(o.Status.Conditions, cond)
	case *v1alpha1.QdrantCollectionBackup:
		o.Status.Phase = v1alpha1.PhaseError
		o.Status.ErrorMessage = detail
	case *v1alpha1.QdrantCollectionRestore:
		o.Status.Phase = v1alpha1.PhaseError
		o.Status.ErrorMessage = detail
	}
}

func upsertCondition(conditions []metav1.Condition, cond metav1.Condition) []metav1.Condition {
	for i, c := range conditions {
		if c.Type == cond.Type {
			conditions[i] = cond
			return conditions
		}
	}
	return append(conditions, cond)
}
