// Package readiness implements the Readiness Tracker (spec.md §4.8, C8):
// turning "workload applied" into "status Healthy" without polling, by
// opening a per-resource watch on the workload object and reacting to its
// status fields directly rather than re-reconciling the owning resource.
package readiness

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	appsv1 "k8s.io/api/apps/v1"
	k8serrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/apimachinery/pkg/watch"
	"k8s.io/client-go/dynamic"

	"github.com/qdrant-operator/operator/internal/state"
)

// PollInterval is the fallback polling cadence used when a watch stream on
// the workload cannot be established at all (spec.md §4.8).
const PollInterval = 5 * time.Second

// ReconnectDelay is how long the tracker waits before re-establishing a
// watch stream that failed for a reason other than "workload deleted".
const ReconnectDelay = 5 * time.Second

var statefulSetGVR = schema.GroupVersionResource{Group: "apps", Version: "v1", Resource: "statefulsets"}

// StatusUpdateFunc reports a readiness transition back to the caller. The
// tracker stays agnostic of the concrete resource type it is tracking
// readiness for, so it reports via this narrow callback rather than
// depending on api/v1alpha1 directly.
type StatusUpdateFunc func(ctx context.Context, key state.Key, running, healthy bool) error

// Tracker watches workload objects and calls back into the cluster
// reconciler's status path as their readiness changes, per spec.md §4.8.
type Tracker struct {
	Dynamic dynamic.Interface
	OnUpdate StatusUpdateFunc

	mu      sync.Mutex
	cancels map[state.Key]context.CancelFunc
}

// NewTracker builds a Tracker. onUpdate is called whenever the tracked
// workload's availability crosses into Running or Healthy.
func NewTracker(dyn dynamic.Interface, onUpdate StatusUpdateFunc) *Tracker {
	return &Tracker{
		Dynamic:  dyn,
		OnUpdate: onUpdate,
		cancels:  make(map[state.Key]context.CancelFunc),
	}
}

// Start begins tracking namespace/workloadName toward desiredReplicas for
// key, replacing any watch already running for key.
func (t *Tracker) Start(ctx context.Context, key state.Key, namespace, workloadName string, desiredReplicas int32) {
	t.Stop(key)

	runCtx, cancel := context.WithCancel(ctx)

	t.mu.Lock()
	t.cancels[key] = cancel
	t.mu.Unlock()

	go t.run(runCtx, key, namespace, workloadName, desiredReplicas)
}

// Stop aborts any watch running for key. Safe to call when none is running.
func (t *Tracker) Stop(key state.Key) {
	t.mu.Lock()
	cancel, ok := t.cancels[key]
	delete(t.cancels, key)
	t.mu.Unlock()

	if ok {
		cancel()
	}
}

func (t *Tracker) run(ctx context.Context, key state.Key, namespace, workloadName string, desiredReplicas int32) {
	log := logrus.WithField("component", "readiness").WithField("workload", workloadName)

	w, err := t.startWatch(ctx, namespace, workloadName)
	if err != nil {
		if k8serrors.IsNotFound(err) {
			log.Debugf("workload not found at tracker start, exiting")
			return
		}
		log.Warnf("could not establish readiness watch, falling back to polling: %v", err)
		t.poll(ctx, key, namespace, workloadName, desiredReplicas, log)
		return
	}

	t.consume(ctx, key, workloadName, w, desiredReplicas, log, func() {
		w.Stop()
		t.reconnectOrStop(ctx, key, namespace, workloadName, desiredReplicas, log)
	})
}

func (t *Tracker) reconnectOrStop(ctx context.Context, key state.Key, namespace, workloadName string, desiredReplicas int32, log *logrus.Entry) {
	select {
	case <-ctx.Done():
		return
	case <-time.After(ReconnectDelay):
	}

	if ctx.Err() != nil {
		return
	}

	t.run(ctx, key, namespace, workloadName, desiredReplicas)
}

func (t *Tracker) startWatch(ctx context.Context, namespace, workloadName string) (watch.Interface, error) {
	opts := metav1.ListOptions{FieldSelector: "metadata.name=" + workloadName}
	return t.Dynamic.Resource(statefulSetGVR).Namespace(namespace).Watch(ctx, opts)
}

// consume drains a watch stream, invoking onReconnect when it closes for a
// reason other than ctx cancellation or the workload's deletion. workloadName
// filters the stream client-side, since a field selector on metadata.name is
// not guaranteed to be honored by every watch implementation.
func (t *Tracker) consume(ctx context.Context, key state.Key, workloadName string, w watch.Interface, desiredReplicas int32, log *logrus.Entry, onReconnect func()) {
	ch := w.ResultChan()
	lastRatio := ""

	for {
		select {
		case <-ctx.Done():
			w.Stop()
			return
		case ev, ok := <-ch:
			if !ok {
				onReconnect()
				return
			}

			if ev.Type == watch.Deleted {
				log.Debugf("workload deleted, exiting readiness watch")
				w.Stop()
				return
			}

			if ev.Type == watch.Error {
				if status, ok := ev.Object.(*metav1.Status); ok && k8serrors.IsNotFound(k8serrors.FromObject(status)) {
					w.Stop()
					return
				}
				onReconnect()
				return
			}

			obj, ok := ev.Object.(*unstructured.Unstructured)
			if !ok || obj.GetName() != workloadName {
				continue
			}

			done := t.handle(ctx, key, obj, desiredReplicas, &lastRatio, log)
			if done {
				w.Stop()
				return
			}
		}
	}
}

// handle applies one workload event; returns true once the workload has
// reached Healthy, since no further transitions are possible after that.
func (t *Tracker) handle(ctx context.Context, key state.Key, obj *unstructured.Unstructured, desiredReplicas int32, lastRatio *string, log *logrus.Entry) bool {
	var sts appsv1.StatefulSet
	if err := runtime.DefaultUnstructuredConverter.FromUnstructured(obj.Object, &sts); err != nil {
		log.Warnf("could not decode workload status: %v", err)
		return false
	}

	ratio := ratioKey(sts.Status.AvailableReplicas, sts.Status.UpdatedReplicas, sts.Status.ReadyReplicas, desiredReplicas)
	if ratio != *lastRatio {
		log.Infof("workload availability changed: %s", ratio)
		*lastRatio = ratio
	}

	running := sts.Status.AvailableReplicas >= desiredReplicas && sts.Status.UpdatedReplicas >= desiredReplicas
	if !running {
		return false
	}

	healthy := sts.Status.ReadyReplicas >= desiredReplicas

	if t.OnUpdate != nil {
		if err := t.OnUpdate(ctx, key, running, healthy); err != nil {
			log.Warnf("status update from readiness tracker failed: %v", err)
		}
	}

	return healthy
}

// poll is the 5s-interval fallback used when the initial Watch call itself
// fails, rather than a stream that was established and later broke.
func (t *Tracker) poll(ctx context.Context, key state.Key, namespace, workloadName string, desiredReplicas int32, log *logrus.Entry) {
	ticker := time.NewTicker(PollInterval)
	defer ticker.Stop()

	lastRatio := ""

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			obj, err := t.Dynamic.Resource(statefulSetGVR).Namespace(namespace).Get(ctx, workloadName, metav1.GetOptions{})
			if k8serrors.IsNotFound(err) {
				log.Debugf("workload not found during poll, exiting")
				return
			}
			if err != nil {
				log.Warnf("poll of workload status failed: %v", err)
				continue
			}

			if t.handle(ctx, key, obj, desiredReplicas, &lastRatio, log) {
				return
			}
		}
	}
}

func ratioKey(available, updated, ready, desired int32) string {
	return formatRatio(available, desired) + "/" + formatRatio(updated, desired) + "/" + formatRatio(ready, desired)
}

func formatRatio(n, d int32) string {
	return strconv.Itoa(int(n)) + "o" + strconv.Itoa(int(d))
}
