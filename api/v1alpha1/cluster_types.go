package v1alpha1

import (
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// ClusterSpec is the desired state of a vector-search cluster (spec.md §3).
type ClusterSpec struct {
	// +kubebuilder:validation:Minimum=1
	Replicas int32 `json:"replicas"`

	Image string `json:"image"`

	// Apikey is either the literal string "false" (disabled) or the name of
	// a secret key holding the write API key.
	// +optional
	Apikey string `json:"apikey,omitempty"`

	// ReadApikey is either "false" or the name of a secret key holding the
	// read-only API key.
	// +optional
	ReadApikey string `json:"readApikey,omitempty"`

	// +optional
	TLS TLSSpec `json:"tls,omitempty"`

	// +optional
	Persistence PersistenceSpec `json:"persistence,omitempty"`

	// +optional
	Resources ResourceRequirements `json:"resources,omitempty"`

	// +kubebuilder:validation:Enum=ClusterIP;NodePort;LoadBalancer
	// +optional
	Service ServiceType `json:"service,omitempty"`

	// +optional
	Placement PlacementSpec `json:"placement,omitempty"`

	// +optional
	AdditionalVolumes []AdditionalVolume `json:"additionalVolumes,omitempty"`

	// +optional
	SidecarContainers []corev1.Container `json:"sidecarContainers,omitempty"`

	// +optional
	Snapshots *SnapshotSpec `json:"snapshots,omitempty"`

	// Suspend pauses reconciliation without deleting the cluster.
	// +optional
	Suspend *bool `json:"suspend,omitempty"`
}

// TLSSpec toggles HTTPS for the vector-database HTTP surface (spec.md §6).
type TLSSpec struct {
	// +optional
	Enabled bool `json:"enabled,omitempty"`
	// +optional
	SecretName string `json:"secretName,omitempty"`
}

// ClusterStatus is the observed state of a vector-search cluster (spec.md §3).
type ClusterStatus struct {
	// +optional
	QdrantStatus Phase `json:"qdrantStatus,omitempty"`

	// LastAppliedHash is the 16-hex fingerprint of the spec that produced
	// the current workload (spec.md §3 Fingerprint).
	// +optional
	LastAppliedHash string `json:"lastAppliedHash,omitempty"`

	// +optional
	ObservedGeneration int64 `json:"observedGeneration,omitempty"`

	// +optional
	ErrorMessage string `json:"errorMessage,omitempty"`

	// +optional
	Reason string `json:"reason,omitempty"`

	// +optional
	Conditions []metav1.Condition `json:"conditions,omitempty"`

	// +optional
	CleanupPhase CleanupPhase `json:"cleanupPhase,omitempty"`

	// +optional
	CleanupAttempts int `json:"cleanupAttempts,omitempty"`

	// +optional
	CleanupError string `json:"cleanupError,omitempty"`
}

// GetReconcileStatus satisfies the teacher-derived ReconcileStatusAware
// interface used by the status writer for log correlation.
func (s *ClusterStatus) GetReconcileStatus() ReconcileStatus {
	return ReconcileStatus{Phase: string(s.QdrantStatus)}
}

// +kubebuilder:object:root=true
// +kubebuilder:subresource:status
// +kubebuilder:printcolumn:name="Status",type=string,JSONPath=`.status.qdrantStatus`
// +kubebuilder:printcolumn:name="Replicas",type=integer,JSONPath=`.spec.replicas`

// QdrantCluster is the Schema for the qdrantclusters API.
type QdrantCluster struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec   ClusterSpec   `json:"spec,omitempty"`
	Status ClusterStatus `json:"status,omitempty"`
}

// +kubebuilder:object:root=true

// QdrantClusterList contains a list of QdrantCluster.
type QdrantClusterList struct {
	metav1.TypeMeta `json:",inline"`
	metav1.ListMeta `json:"metadata,omitempty"`
	Items           []QdrantCluster `json:"items"`
}
