// Package workqueue implements the debounced per-key scheduler described in
// spec.md §4.4 (C4): repeated enqueues of the same resource within the
// debounce window collapse into a single delayed item, atop client-go's
// DelayingInterface.
package workqueue

import (
	"sync"
	"time"

	"k8s.io/client-go/util/workqueue"

	"github.com/qdrant-operator/operator/internal/state"
)

// DebounceWindow is the fixed delay spec.md §4.4 assigns to every enqueue:
// 1 second.
const DebounceWindow = time.Second

// Queue debounces Schedule calls for the same key: a key already pending
// within the debounce window is not re-added, so a burst of watch events
// for one resource triggers exactly one reconcile. Schedule is called from
// watch-handler goroutines while Get/Done run on the worker goroutines, so
// the dedup set carries its own mutex independent of the underlying
// workqueue's own synchronization.
type Queue struct {
	q workqueue.DelayingInterface

	mu     sync.Mutex
	inWait map[state.Key]struct{}
}

// New builds a Queue. name is used as the underlying workqueue's metrics
// name.
func New(name string) *Queue {
	return &Queue{
		q:      workqueue.NewNamedDelayingQueue(name),
		inWait: make(map[state.Key]struct{}),
	}
}

// Schedule enqueues key for reconciliation after DebounceWindow, unless an
// enqueue for the same key is already pending.
func (q *Queue) Schedule(key state.Key) {
	q.mu.Lock()
	_, pending := q.inWait[key]
	if !pending {
		q.inWait[key] = struct{}{}
	}
	q.mu.Unlock()

	if pending {
		return
	}

	q.q.AddAfter(key, DebounceWindow)
}

// ScheduleAfter enqueues key after an explicit delay, bypassing debounce
// dedup entirely; used for scheduled retries (backoff delays, readiness
// polling) that must not be swallowed by an in-flight debounce window.
func (q *Queue) ScheduleAfter(key state.Key, delay time.Duration) {
	q.q.AddAfter(key, delay)
}

// Get blocks until an item is available or the queue is shutting down. The
// second return reports whether the queue has been shut down.
func (q *Queue) Get() (state.Key, bool) {
	item, shutdown := q.q.Get()
	if shutdown {
		return state.Key{}, true
	}

	key := item.(state.Key)

	q.mu.Lock()
	delete(q.inWait, key)
	q.mu.Unlock()

	return key, false
}

// Done must be called once processing of a key returned by Get completes.
func (q *Queue) Done(key state.Key) {
	q.q.Done(key)
}

// Len reports the number of items waiting, for the queue-depth gauge
// (spec.md §6).
func (q *Queue) Len() int {
	return q.q.Len()
}

// ShutDown drains and stops accepting new work.
func (q *Queue) ShutDown() {
	q.q.ShutDown()
}
