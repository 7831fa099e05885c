package reconciler

import (
	"context"

	k8serrors "k8s.io/apimachinery/pkg/api/errors"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/controller/controllerutil"
)

// apply creates desired if absent, or updates it in place (preserving its
// resourceVersion) if an equivalent object already exists. Idempotent: two
// successive applies of the same desired object do not change its
// generation (spec.md §4.5 idempotence guarantee).
func apply(ctx context.Context, c client.Client, owner client.Object, desired client.Object) error {
	if err := controllerutil.SetControllerReference(owner, desired, c.Scheme()); err != nil {
		return err
	}

	err := c.Create(ctx, desired)
	if err == nil {
		return nil
	}
	if !k8serrors.IsAlreadyExists(err) {
		return err
	}

	existing := desired.DeepCopyObject().(client.Object)
	if err := c.Get(ctx, client.ObjectKeyFromObject(desired), existing); err != nil {
		return err
	}

	desired.SetResourceVersion(existing.GetResourceVersion())
	return c.Update(ctx, desired)
}
