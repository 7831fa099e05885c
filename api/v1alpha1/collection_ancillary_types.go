package v1alpha1

import (
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// QdrantCollectionTemplate holds default CollectionSpec fields that a
// QdrantCollection may reference by name (SPEC_FULL §12). Purely a
// defaulting source; the operator never reconciles a workload from it.
//
// +kubebuilder:object:root=true
type QdrantCollectionTemplate struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec CollectionSpec `json:"spec,omitempty"`
}

// +kubebuilder:object:root=true

type QdrantCollectionTemplateList struct {
	metav1.TypeMeta `json:",inline"`
	metav1.ListMeta `json:"metadata,omitempty"`
	Items           []QdrantCollectionTemplate `json:"items"`
}

// QdrantCollectionBackupSpec requests an on-demand snapshot of a collection.
type QdrantCollectionBackupSpec struct {
	Collection string `json:"collection"`
}

// QdrantCollectionBackupStatus reports the outcome of the backup job.
type QdrantCollectionBackupStatus struct {
	// +optional
	Phase Phase `json:"phase,omitempty"`
	// +optional
	SnapshotName string `json:"snapshotName,omitempty"`
	// +optional
	ErrorMessage string `json:"errorMessage,omitempty"`
	// +optional
	CompletionTime *metav1.Time `json:"completionTime,omitempty"`
}

// +kubebuilder:object:root=true
// +kubebuilder:subresource:status

// QdrantCollectionBackup is the Schema for the qdrantcollectionbackups API.
type QdrantCollectionBackup struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec   QdrantCollectionBackupSpec   `json:"spec,omitempty"`
	Status QdrantCollectionBackupStatus `json:"status,omitempty"`
}

// +kubebuilder:object:root=true

type QdrantCollectionBackupList struct {
	metav1.TypeMeta `json:",inline"`
	metav1.ListMeta `json:"metadata,omitempty"`
	Items           []QdrantCollectionBackup `json:"items"`
}

// QdrantCollectionRestoreSpec requests a restore of a collection from a
// named snapshot.
type QdrantCollectionRestoreSpec struct {
	Collection   string `json:"collection"`
	SnapshotName string `json:"snapshotName"`
}

// QdrantCollectionRestoreStatus reports the outcome of the restore job.
type QdrantCollectionRestoreStatus struct {
	// +optional
	Phase Phase `json:"phase,omitempty"`
	// +optional
	ErrorMessage string `json:"errorMessage,omitempty"`
	// +optional
	CompletionTime *metav1.Time `json:"completionTime,omitempty"`
}

// +kubebuilder:object:root=true
// +kubebuilder:subresource:status

// QdrantCollectionRestore is the Schema for the qdrantcollectionrestores API.
type QdrantCollectionRestore struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec   QdrantCollectionRestoreSpec   `json:"spec,omitempty"`
	Status QdrantCollectionRestoreStatus `json:"status,omitempty"`
}

// +kubebuilder:object:root=true

type QdrantCollectionRestoreList struct {
	metav1.TypeMeta `json:",inline"`
	metav1.ListMeta `json:"metadata,omitempty"`
	Items           []QdrantCollectionRestore `json:"items"`
}
