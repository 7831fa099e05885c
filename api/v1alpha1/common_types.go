package v1alpha1

import (
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// Finalizer is the sentinel string attached to every resource this operator
// manages, so that deletion is observable (deletionTimestamp set) before the
// object is actually garbage collected.
const Finalizer = "qdrant.operator/finalizer"

// Phase is the coarse-grained lifecycle phase reported in status.qdrantStatus.
//
// Valid transitions (see internal/reconciler):
//
//	"" -> Pending
//	Pending -> Running -> Healthy
//	* -> OperationInProgress (rollout in flight)
//	* -> Error
//	Error -> Pending (valid spec observed after edit)
type Phase string

const (
	PhasePending             Phase = "Pending"
	PhaseRunning             Phase = "Running"
	PhaseHealthy             Phase = "Healthy"
	PhaseOperationInProgress Phase = "OperationInProgress"
	PhaseError               Phase = "Error"
)

// CleanupPhase is the state of the finalizer cleanup state machine (§4.6).
type CleanupPhase string

const (
	CleanupRetrying  CleanupPhase = "Retrying"
	CleanupCompleted CleanupPhase = "Completed"
	CleanupFailed    CleanupPhase = "Failed"
)

// Reason values set on status.reason. InvalidSpec is load-bearing: the
// router and tests key off this literal string.
const (
	ReasonInvalidSpec      = "InvalidSpec"
	ReasonOperationalError = "OperationalError"
	ReasonClusterNotReady  = "ClusterNotReady"
)

// ConditionReady is the well-known condition type this operator writes.
const ConditionReady = "Ready"

// ReconcileStatus is a small log-correlation projection of a resource's
// status, used by internal/statuswriter when it logs "become: <phase>" the
// way the teacher's UpdateStatus helper does.
type ReconcileStatus struct {
	Phase string
}

// ReconcileStatusAware is implemented by every status type in this package.
type ReconcileStatusAware interface {
	GetReconcileStatus() ReconcileStatus
}

// NewReadyCondition builds the Ready condition for a status write, following
// the teacher's preference for small pure constructors over scattered
// literal struct creation.
func NewReadyCondition(status metav1.ConditionStatus, reason, message string, observedGeneration int64) metav1.Condition {
	return metav1.Condition{
		Type:               ConditionReady,
		Status:             status,
		Reason:             reason,
		Message:            message,
		ObservedGeneration: observedGeneration,
		LastTransitionTime: metav1.Now(),
	}
}

// PersistenceSpec describes the volume backing a cluster's data directory.
type PersistenceSpec struct {
	// +optional
	Size string `json:"size,omitempty"`
	// +optional
	StorageClassName string `json:"storageClassName,omitempty"`
}

// AdditionalVolume is a named volume + mount the operator adds to the
// workload verbatim, for sidecar or init-container use.
type AdditionalVolume struct {
	Name       string              `json:"name"`
	VolumeSource NamedVolumeSource `json:"volumeSource"`
	MountPath  string              `json:"mountPath"`
}

// NamedVolumeSource is a trimmed mirror of corev1.VolumeSource carrying only
// the sources this operator needs to pass through untouched.
type NamedVolumeSource struct {
	// +optional
	ConfigMap *CoreObjectReference `json:"configMap,omitempty"`
	// +optional
	Secret *CoreObjectReference `json:"secret,omitempty"`
	// +optional
	EmptyDir *struct{} `json:"emptyDir,omitempty"`
}

// CoreObjectReference names a ConfigMap/Secret by name, mirroring
// corev1.LocalObjectReference.
type CoreObjectReference struct {
	Name string `json:"name"`
}

// PlacementSpec carries scheduling hints passed through to the workload
// unmodified (this operator does not interpret them).
type PlacementSpec struct {
	// +optional
	NodeSelector map[string]string `json:"nodeSelector,omitempty"`
	// +optional
	Tolerations []CoreToleration `json:"tolerations,omitempty"`
}

// CoreToleration mirrors corev1.Toleration's fields this operator passes
// through.
type CoreToleration struct {
	Key      string `json:"key,omitempty"`
	Operator string `json:"operator,omitempty"`
	Value    string `json:"value,omitempty"`
	Effect   string `json:"effect,omitempty"`
}

// ResourceRequirements mirrors corev1.ResourceRequirements' string-keyed
// quantities, avoiding a hard dependency on the exact corev1 quantity type
// in the CRD spec surface (preserve-on-update semantics, §9).
type ResourceRequirements struct {
	// +optional
	Requests map[string]string `json:"requests,omitempty"`
	// +optional
	Limits map[string]string `json:"limits,omitempty"`
}

// ServiceType enumerates the allowed values of spec.service.
type ServiceType string

const (
	ServiceClusterIP    ServiceType = "ClusterIP"
	ServiceNodePort     ServiceType = "NodePort"
	ServiceLoadBalancer ServiceType = "LoadBalancer"
)

// SnapshotSpec configures periodic and on-demand snapshots of a cluster or
// collection.
type SnapshotSpec struct {
	// Schedule is a standard 5-field cron expression.
	// +optional
	Schedule string `json:"schedule,omitempty"`
	// +optional
	RetentionCount int `json:"retentionCount,omitempty"`
	// +optional
	StartingDeadlineSeconds *int64 `json:"startingDeadlineSeconds,omitempty"`
}
