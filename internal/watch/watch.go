// Package watch runs a reconnecting dynamic-client watch loop over a single
// GroupVersionResource, translating apiserver watch.Events into typed
// callbacks with the reconnect/backoff contract from spec.md §4.2. It backs
// the cluster, collection, backup and restore watchers (C2); the workload
// readiness tracker (C8) runs its own loop in internal/readiness.
package watch

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	k8serrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/apimachinery/pkg/watch"
	"k8s.io/client-go/dynamic"

	"github.com/qdrant-operator/operator/internal/backoff"
)

// EventHandler receives translated watch events. evType is an apimachinery
// watch.EventType such as Added, Modified or Deleted; Error events end the
// stream inside Loop and are never delivered here.
type EventHandler func(evType watch.EventType, obj *unstructured.Unstructured)

// Loop watches a single namespaced GroupVersionResource, restarting the
// underlying watch.Interface with backoff whenever it closes or errors,
// until ctx is cancelled.
type Loop struct {
	Client    dynamic.Interface
	GVR       schema.GroupVersionResource
	Namespace string
	Handler   EventHandler

	// Policy overrides the default backoff.Watch policy; zero value uses it.
	Policy backoff.Policy

	// OnRestart, if set, is called each time the watch stream is
	// re-established after closing or erroring, for the watch_restarts_total
	// metric (spec.md §6). cause is nil when the channel closed cleanly.
	OnRestart func(cause error)
}

// Run blocks until ctx is cancelled. It never returns an error: a watch
// that cannot be (re)established is retried forever with backoff, per
// spec.md §4.2 ("the watcher does not give up").
func (l *Loop) Run(ctx context.Context) {
	policy := l.Policy
	if policy.Cap == 0 {
		policy = backoff.Watch
	}

	attempt := 0

	for {
		if ctx.Err() != nil {
			return
		}

		w, err := l.startWatch(ctx)
		if err != nil {
			l.sleepBackoff(ctx, policy, attempt, err)
			attempt++
			continue
		}

		restartReason := l.consume(ctx, w)
		w.Stop()

		if ctx.Err() != nil {
			return
		}

		if l.OnRestart != nil {
			l.OnRestart(restartReason)
		}

		if restartReason == nil {
			// channel closed cleanly (e.g. apiserver-initiated timeout); restart
			// immediately at attempt 0, this is expected steady-state behavior.
			attempt = 0
			continue
		}

		l.sleepBackoff(ctx, policy, attempt, restartReason)
		attempt++
	}
}

func (l *Loop) startWatch(ctx context.Context) (watch.Interface, error) {
	var rc dynamic.ResourceInterface = l.Client.Resource(l.GVR)
	if l.Namespace != "" {
		rc = l.Client.Resource(l.GVR).Namespace(l.Namespace)
	}

	return rc.Watch(ctx, metav1.ListOptions{})
}

// consume drains w's ResultChan, dispatching to Handler, until the channel
// closes or an Error event arrives. It returns the error that ended the
// watch, or nil if the channel simply closed.
func (l *Loop) consume(ctx context.Context, w watch.Interface) error {
	ch := w.ResultChan()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-ch:
			if !ok {
				return nil
			}

			if ev.Type == watch.Error {
				return interpretStatusError(ev.Object)
			}

			obj, ok := ev.Object.(*unstructured.Unstructured)
			if !ok {
				continue
			}

			l.Handler(ev.Type, obj)
		}
	}
}

func interpretStatusError(obj interface{}) error {
	if status, ok := obj.(*metav1.Status); ok {
		return k8serrors.FromObject(status)
	}
	return errWatchClosed
}

var errWatchClosed = &watchClosedError{}

type watchClosedError struct{}

func (*watchClosedError) Error() string { return "watch channel closed with an error event" }

func (l *Loop) sleepBackoff(ctx context.Context, policy backoff.Policy, attempt int, cause error) {
	cap := backoff.OtherCap
	if k8serrors.IsTooManyRequests(cause) {
		cap = backoff.RateLimitCap
	}

	loggedAttempt := attempt
	if loggedAttempt > cap {
		loggedAttempt = cap
		logrus.Warnf("watch on %s still failing after %d attempts: %v", l.GVR.Resource, attempt, cause)
	} else {
		logrus.Warnf("watch on %s failed (attempt %d): %v", l.GVR.Resource, attempt, cause)
	}

	d := policy.Delay(loggedAttempt)

	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}
