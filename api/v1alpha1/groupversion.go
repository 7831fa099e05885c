/*
Copyright 2021 ICS-FORTH.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package v1alpha1 contains the qdrant.operator/v1alpha1 API group: the
// custom resources this operator watches and reconciles.
package v1alpha1

import (
	"k8s.io/apimachinery/pkg/runtime/schema"
	"sigs.k8s.io/controller-runtime/pkg/scheme"
)

const GroupName = "qdrant.operator"

// GroupVersion is group version used to register these objects.
var GroupVersion = schema.GroupVersion{Group: GroupName, Version: "v1alpha1"}

// SchemeBuilder is used to add go types to the GroupVersionKind scheme.
var SchemeBuilder = &scheme.Builder{GroupVersion: GroupVersion}

// AddToScheme adds the types in this group-version to the given scheme.
var AddToScheme = SchemeBuilder.AddToScheme

func init() {
	SchemeBuilder.Register(
		&QdrantCluster{}, &QdrantClusterList{},
		&QdrantCollection{}, &QdrantCollectionList{},
		&QdrantCollectionBackup{}, &QdrantCollectionBackupList{},
		&QdrantCollectionRestore{}, &QdrantCollectionRestoreList{},
		&QdrantCollectionTemplate{}, &QdrantCollectionTemplateList{},
	)
}
