package v1alpha1

import (
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// CollectionSpec is the desired state of a collection hosted inside a
// cluster (spec.md §3).
type CollectionSpec struct {
	// Cluster names the QdrantCluster in the same namespace that hosts this
	// collection.
	Cluster string `json:"cluster"`

	// +kubebuilder:validation:Minimum=1
	VectorSize int64 `json:"vectorSize"`

	// +optional
	ShardNumber int `json:"shardNumber,omitempty"`

	// +optional
	ReplicationFactor int `json:"replicationFactor,omitempty"`

	// +optional
	OnDisk bool `json:"onDisk,omitempty"`

	// Config is a free-form set of vector-database collection options,
	// decoded into the HTTP client's typed request body by
	// internal/vectordb using mitchellh/mapstructure.
	// +optional
	Config map[string]interface{} `json:"config,omitempty"`

	// +optional
	Snapshots *SnapshotSpec `json:"snapshots,omitempty"`

	// Template optionally names a QdrantCollectionTemplate whose fields are
	// merged in as defaults before validation (SPEC_FULL §12).
	// +optional
	Template string `json:"template,omitempty"`
}

// CollectionStatus mirrors ClusterStatus's envelope (spec.md §3).
type CollectionStatus struct {
	// +optional
	QdrantStatus Phase `json:"qdrantStatus,omitempty"`

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

func (s *CollectionStatus) GetReconcileStatus() ReconcileStatus {
	return ReconcileStatus{Phase: string(s.QdrantStatus)}
}

// +kubebuilder:object:root=true
// +kubebuilder:subresource:status
// +kubebuilder:printcolumn:name="Status",type=string,JSONPath=`.status.qdrantStatus`
// +kubebuilder:printcolumn:name="Cluster",type=string,JSONPath=`.spec.cluster`

// QdrantCollection is the Schema for the qdrantcollections API.
type QdrantCollection struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec   CollectionSpec   `json:"spec,omitempty"`
	Status CollectionStatus `json:"status,omitempty"`
}

// +kubebuilder:object:root=true

// QdrantCollectionList contains a list of QdrantCollection.
type QdrantCollectionList struct {
	metav1.TypeMeta `json:",inline"`
	metav1.ListMeta `json:"metadata,omitempty"`
	Items           []QdrantCollection `json:"items"`
}
