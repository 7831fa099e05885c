// Package apierrors classifies failures encountered during reconciliation
// into the taxonomy described in spec.md §7, so that callers branch on
// error *kind* instead of re-deriving it from an HTTP status code at every
// call site.
package apierrors

import (
	"errors"
	"net"
	"net/url"

	pkgerrors "github.com/pkg/errors"

	k8serrors "k8s.io/apimachinery/pkg/api/errors"
)

// Kind is the coarse classification used by the reconciler, status writer,
// and finalizer to decide whether to retry, back off, or surface a terminal
// error to status.
type Kind string

const (
	// KindValidation is rejected before any side effects; no retry.
	KindValidation Kind = "validation"
	// KindTransient covers network errors, 5xx, and 429; backoff + retry.
	KindTransient Kind = "transient"
	// KindConflict is a 409 resourceVersion conflict; refetch and retry.
	KindConflict Kind = "conflict"
	// KindNotFound is context-dependent; see spec.md §7.
	KindNotFound Kind = "not-found"
	// KindPermanent is a stable 4xx that will not resolve on retry.
	KindPermanent Kind = "permanent"
	// KindFatal is a configuration error that should terminate the process.
	KindFatal Kind = "fatal"
)

// Classified wraps an underlying error with its Kind.
type Classified struct {
	Kind Kind
	Err  error
}

func (c *Classified) Error() string { return c.Err.Error() }
func (c *Classified) Unwrap() error { return c.Err }

// New builds a Classified error, wrapped with a message like errors.Wrapf.
func New(kind Kind, err error, msg string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return &Classified{Kind: kind, Err: pkgerrors.Wrapf(err, msg, args...)}
}

// KindOf inspects err and returns its Kind, consulting the Kubernetes API
// error helpers first and falling back to network-level classification for
// errors from the vector-database HTTP surface.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}

	var c *Classified
	if errors.As(err, &c) {
		return c.Kind
	}

	switch {
	case k8serrors.IsNotFound(err):
		return KindNotFound
	case k8serrors.IsConflict(err):
		return KindConflict
	case k8serrors.IsInvalid(err), k8serrors.IsBadRequest(err):
		return KindValidation
	case k8serrors.IsServerTimeout(err), k8serrors.IsTimeout(err),
		k8serrors.IsTooManyRequests(err), k8serrors.IsServiceUnavailable(err),
		k8serrors.IsInternalError(err):
		return KindTransient
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return KindTransient
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return KindTransient
	}

	return KindPermanent
}

// IsRetryable reports whether the reconciler should schedule a retry rather
// than surface a terminal status.Error.
func IsRetryable(err error) bool {
	switch KindOf(err) {
	case KindTransient, KindConflict, KindNotFound:
		return true
	default:
		return false
	}
}
