// Package router implements the event-ordering algorithm from spec.md §4.3
// (C3): translating raw watch events into validate/dedup/cache/finalize/
// enqueue actions in the exact order the invariants require.
package router

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/watch"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/controller/controllerutil"

	"github.com/qdrant-operator/operator/api/v1alpha1"
	"github.com/qdrant-operator/operator/internal/schedule"
	"github.com/qdrant-operator/operator/internal/state"
	"github.com/qdrant-operator/operator/internal/workqueue"
)

// Validator decodes and validates an unstructured object, returning a
// human-readable error on failure. Registered per-kind by the caller.
type Validator func(obj *unstructured.Unstructured) error

// StatusWriter is the narrow slice of the status-writer component the
// router needs: writing a terminal validation-failure status without going
// through the full reconcile path.
type StatusWriter interface {
	WriteValidationError(ctx context.Context, key state.Key, obj client.Object, detail string) error
}

// Finalizer is the narrow slice of the finalizer/cleanup component (C6).
type Finalizer interface {
	Cleanup(ctx context.Context, key state.Key, obj client.Object) error
}

// Router dispatches translated watch events for a single kind.
type Router struct {
	Kind      string
	Client    client.Client
	Store     *state.Store
	Queue     *workqueue.Queue
	Validate  Validator
	Status    StatusWriter
	Finalizer Finalizer

	// Default merges template defaults into obj before validation, used
	// only by the collection router (spec.md §12 supplement). Nil for
	// kinds with no templating concept.
	Default func(ctx context.Context, obj *unstructured.Unstructured) error
}

// Handle is the per-event entry point for a single GroupVersionResource.
// cmd/qdrant-operator adapts it to internal/watch's EventHandler so each
// Loop calls it.
func (r *Router) Handle(ctx context.Context, evType watch.EventType, obj *unstructured.Unstructured) {
	key := state.Key{Kind: r.Kind, Namespace: obj.GetNamespace(), Name: obj.GetName()}
	correlationID := uuid.NewString()
	log := logrus.WithField("correlation-id", correlationID)

	// step 1: status-write-in-flight buffering
	if r.Store.IsSettingStatus(key) {
		r.Store.BufferEvent(key, state.PendingEvent{Phase: string(evType), Object: obj.DeepCopyObject()})
		return
	}

	r.dispatch(ctx, log, key, evType, obj)
}

func (r *Router) dispatch(ctx context.Context, log *logrus.Entry, key state.Key, evType watch.EventType, obj *unstructured.Unstructured) {
	if r.Default != nil && (evType == watch.Added || evType == watch.Modified) {
		if err := r.Default(ctx, obj); err != nil {
			log.Warnf("%s: defaulting from template failed: %v", key.Name, err)
		}
	}

	// step 2: validation before dedup, so the first ADDED event is never
	// silently dropped by the resourceVersion check below.
	if evType == watch.Added || evType == watch.Modified {
		if err := r.Validate(obj); err != nil {
			r.Store.SetLastObservedVersion(key, obj.GetResourceVersion())

			if werr := r.Status.WriteValidationError(ctx, key, obj, err.Error()); werr != nil {
				log.Warnf("%s: failed to write validation-error status: %v", key.Name, werr)
			}
			return
		}
	}

	// step 3: dedup on resourceVersion
	if last, ok := r.Store.LastObservedVersion(key); ok && last == obj.GetResourceVersion() {
		return
	}

	// step 4: advance cache + observed version
	r.Store.SetLastObservedVersion(key, obj.GetResourceVersion())
	r.Store.SetCache(key, obj.DeepCopyObject())

	// step 5: deletion dispatch
	if !obj.GetDeletionTimestamp().IsZero() {
		if r.Finalizer != nil {
			if err := r.Finalizer.Cleanup(ctx, key, obj); err != nil {
				log.Warnf("%s: cleanup error: %v", key.Name, err)
			}
		}
		r.Store.Forget(key)
		return
	}

	// step 6: ensure finalizer present, then enqueue
	if controllerutil.AddFinalizer(obj, v1alpha1.Finalizer) {
		if err := r.Client.Update(ctx, obj); err != nil {
			log.Warnf("%s: failed to add finalizer: %v", key.Name, err)
			r.Queue.Schedule(key)
			return
		}
	}

	r.Queue.Schedule(key)
}

// ValidateCluster implements Validator for QdrantCluster objects per
// spec.md §4.3: replicas >= 1, image non-empty.
func ValidateCluster(obj *unstructured.Unstructured) error {
	replicas, found, err := nestedInt64(obj.Object, "spec", "replicas")
	if err != nil {
		return err
	}
	if !found || replicas < 1 {
		return fmt.Errorf("spec.replicas must be >= 1")
	}

	image, found, err := nestedString(obj.Object, "spec", "image")
	if err != nil {
		return err
	}
	if !found || image == "" {
		return fmt.Errorf("spec.image must not be empty")
	}

	if scheduleExpr, found, err := nestedString(obj.Object, "spec", "snapshots", "schedule"); err == nil && found && scheduleExpr != "" {
		if err := schedule.ValidateExpr(scheduleExpr); err != nil {
			return err
		}
	}

	return nil
}

// ValidateCollection implements Validator for QdrantCollection objects per
// spec.md §4.3: vectorSize >= 1, cluster non-empty, shardNumber >= 1,
// replicationFactor >= 1.
func ValidateCollection(obj *unstructured.Unstructured) error {
	vectorSize, found, err := nestedInt64(obj.Object, "spec", "vectorSize")
	if err != nil {
		return err
	}
	if !found || vectorSize < 1 {
		return fmt.Errorf("spec.vectorSize must be >= 1")
	}

	cluster, found, err := nestedString(obj.Object, "spec", "cluster")
	if err != nil {
		return err
	}
	if !found || cluster == "" {
		return fmt.Errorf("spec.cluster must not be empty")
	}

	shardNumber, found, err := nestedInt64(obj.Object, "spec", "shardNumber")
	if err != nil {
		return err
	}
	if !found || shardNumber < 1 {
		return fmt.Errorf("spec.shardNumber must be >= 1")
	}

	replicationFactor, found, err := nestedInt64(obj.Object, "spec", "replicationFactor")
	if err != nil {
		return err
	}
	if !found || replicationFactor < 1 {
		return fmt.Errorf("spec.replicationFactor must be >= 1")
	}

	if scheduleExpr, found, err := nestedString(obj.Object, "spec", "snapshots", "schedule"); err == nil && found && scheduleExpr != "" {
		if err := schedule.ValidateExpr(scheduleExpr); err != nil {
			return err
		}
	}

	return nil
}

// ValidateCollectionBackup implements Validator for QdrantCollectionBackup
// objects: the target collection must be named.
func ValidateCollectionBackup(obj *unstructured.Unstructured) error {
	collection, found, err := nestedString(obj.Object, "spec", "collection")
	if err != nil {
		return err
	}
	if !found || collection == "" {
		return fmt.Errorf("spec.collection must not be empty")
	}
	return nil
}

// ValidateCollectionRestore implements Validator for QdrantCollectionRestore
// objects: both the target collection and the source snapshot must be named.
func ValidateCollectionRestore(obj *unstructured.Unstructured) error {
	collection, found, err := nestedString(obj.Object, "spec", "collection")
	if err != nil {
		return err
	}
	if !found || collection == "" {
		return fmt.Errorf("spec.collection must not be empty")
	}

	snapshotName, found, err := nestedString(obj.Object, "spec", "snapshotName")
	if err != nil {
		return err
	}
	if !found || snapshotName == "" {
		return fmt.Errorf("spec.snapshotName must not be empty")
	}

	return nil
}

func nestedInt64(obj map[string]interface{}, fields ...string) (int64, bool, error) {
	v, found, err := unstructured.NestedInt64(obj, fields...)
	if err == nil {
		return v, found, nil
	}

	// fall back to float64, since decoded JSON numbers without an explicit
	// int64 schema type land as float64 in unstructured content.
	f, found2, ferr := unstructured.NestedFloat64(obj, fields...)
	if ferr != nil {
		return 0, false, err
	}
	return int64(f), found2, nil
}

func nestedString(obj map[string]interface{}, fields ...string) (string, bool, error) {
	return unstructured.NestedString(obj, fields...)
}

// DefaultFromTemplate builds the Default hook for collection routing
// (spec.md §12): when spec.template names a QdrantCollectionTemplate, any
// field the collection itself left unset is filled in from the template's
// spec before validation runs. It never overwrites a field the user set
// explicitly.
func DefaultFromTemplate(c client.Client, namespace string) func(ctx context.Context, obj *unstructured.Unstructured) error {
	return func(ctx context.Context, obj *unstructured.Unstructured) error {
		templateName, found, err := unstructured.NestedString(obj.Object, "spec", "template")
		if err != nil || !found || templateName == "" {
			return nil
		}

		tmpl := &unstructured.Unstructured{}
		tmpl.SetGroupVersionKind(obj.GroupVersionKind().GroupKind().WithVersion(obj.GroupVersionKind().Version))
		tmpl.SetKind("QdrantCollectionTemplate")

		if err := c.Get(ctx, client.ObjectKey{Namespace: namespace, Name: templateName}, tmpl); err != nil {
			return fmt.Errorf("fetch template %s: %w", templateName, err)
		}

		tmplSpec, found, err := unstructured.NestedMap(tmpl.Object, "spec")
		if err != nil || !found {
			return nil
		}

		objSpec, _, err := unstructured.NestedMap(obj.Object, "spec")
		if err != nil {
			return err
		}
		if objSpec == nil {
			objSpec = map[string]interface{}{}
		}

		for k, v := range tmplSpec {
			if _, set := objSpec[k]; !set {
				objSpec[k] = v
			}
		}

		return unstructured.SetNestedMap(obj.Object, objSpec, "spec")
	}
}
