// Package finalizer implements the bounded cleanup state machine from
// spec.md §4.6 (C6): finalizer add/remove follows controller-runtime's
// usual idiom, but cleanup retries are bounded (the finalizer is removed
// anyway after ForceAttempts failed attempts or once MaxTimeout has passed)
// instead of retried forever. The cleanup status fields are not written.
package finalizer

import (
	"context"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"

	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/controller/controllerutil"

	"github.com/qdrant-operator/operator/api/v1alpha1"
	"github.com/qdrant-operator/operator/internal/backoff"
	"github.com/qdrant-operator/operator/internal/state"
)

// Attempt caps from spec.md §4.6. Cleanup consults only ForceAttempts;
// RegularAttempts does not change its behavior.
const (
	RegularAttempts = 5
	ForceAttempts   = 10
)

// MaxTimeout returns the hard per-kind cleanup deadline (spec.md §4.6):
// 5 minutes for a cluster, 2 minutes for a collection.
func MaxTimeout(kind string) time.Duration {
	if kind == "QdrantCollection" {
		return 2 * time.Minute
	}
	return 5 * time.Minute
}

// CleanupStep performs one idempotent unit of external cleanup work
// (scale workload to zero, delete remote collection, ...). It must treat
// not-found as success.
type CleanupStep func(ctx context.Context, obj client.Object) error

// Tracker records per-resource cleanup progress (attempts, start time)
// across calls; the router invokes Cleanup once per observed deletion
// event, so this state must survive between those calls.
type Tracker struct {
	Client client.Client
	Store  *state.Store

	// startedAt records when cleanup first began for a key, to enforce
	// MAX_TIMEOUT independent of attempt count.
	startedAt map[state.Key]time.Time
	attempts  map[state.Key]int
}

func NewTracker(c client.Client, store *state.Store) *Tracker {
	return &Tracker{
		Client:    c,
		Store:     store,
		startedAt: make(map[state.Key]time.Time),
		attempts:  make(map[state.Key]int),
	}
}

// Cleanup runs steps against obj, advancing the state machine described in
// spec.md §4.6. On Completed or Failed (force-delete escape hatch), it
// removes the finalizer. On Retrying, the caller (router) is expected to
// re-invoke Cleanup on the next watch event or resync tick; Cleanup itself
// does not self-schedule retries.
func (t *Tracker) Cleanup(ctx context.Context, key state.Key, obj client.Object, steps ...CleanupStep) error {
	start, seen := t.startedAt[key]
	if !seen {
		start = time.Now()
		t.startedAt[key] = start
	}

	attempt := t.attempts[key]

	if time.Since(start) > MaxTimeout(key.Kind) {
		logrus.Warnf("%s/%s cleanup exceeded max timeout, forcing removal", key.Namespace, key.Name)
		return t.forceComplete(ctx, key, obj, "cleanup-exceeded-max-timeout")
	}

	var result *multierror.Error
	for _, step := range steps {
		if err := step(ctx, obj); err != nil {
			result = multierror.Append(result, err)
		}
	}

	if result == nil {
		delete(t.startedAt, key)
		delete(t.attempts, key)
		return t.removeFinalizer(ctx, obj)
	}

	t.attempts[key] = attempt + 1

	if attempt+1 >= ForceAttempts {
		logrus.Warnf("%s/%s cleanup exhausted %d attempts, forcing removal: %v", key.Namespace, key.Name, ForceAttempts, result)
		return t.forceComplete(ctx, key, obj, "cleanup-force-delete")
	}

	logrus.Warnf("%s/%s cleanup attempt %d failed, will retry: %v", key.Namespace, key.Name, attempt+1, result)
	return result
}

func (t *Tracker) forceComplete(ctx context.Context, key state.Key, obj client.Object, reason string) error {
	delete(t.startedAt, key)
	delete(t.attempts, key)
	logrus.Warnf("%s/%s: exercising finalizer escape hatch (%s)", key.Namespace, key.Name, reason)
	return t.removeFinalizer(ctx, obj)
}

func (t *Tracker) removeFinalizer(ctx context.Context, obj client.Object) error {
	if !controllerutil.RemoveFinalizer(obj, v1alpha1.Finalizer) {
		return nil
	}
	return t.Client.Update(ctx, obj)
}

// RetryDelay returns the backoff delay for the given attempt count, using
// the shared Cleanup policy (1s initial, cap 30s, per spec.md §4.6).
func RetryDelay(attempt int) time.Duration {
	return backoff.Cleanup.Delay(attempt)
}
