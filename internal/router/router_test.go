package router

import (
	"testing"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
)

func clusterFixture(replicas int64, image string) *unstructured.Unstructured {
	return &unstructured.Unstructured{Object: map[string]interface{}{
		"spec": map[string]interface{}{
			"replicas": replicas,
			"image":    image,
		},
	}}
}

func collectionFixture(vectorSize int64, cluster string, shards, repl int64) *unstructured.Unstructured {
	return &unstructured.Unstructured{Object: map[string]interface{}{
		"spec": map[string]interface{}{
			"vectorSize":        vectorSize,
			"cluster":           cluster,
			"shardNumber":       shards,
			"replicationFactor": repl,
		},
	}}
}

func TestValidateClusterRejectsZeroReplicas(t *testing.T) {
	if err := ValidateCluster(clusterFixture(0, "qdrant:v1.9.0")); err == nil {
		t.Fatal("expected error for replicas < 1")
	}
}

func TestValidateClusterRejectsEmptyImage(t *testing.T) {
	if err := ValidateCluster(clusterFixture(3, "")); err == nil {
		t.Fatal("expected error for empty image")
	}
}

func TestValidateClusterAcceptsValidSpec(t *testing.T) {
	if err := ValidateCluster(clusterFixture(3, "qdrant:v1.9.0")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateCollectionRejectsMissingCluster(t *testing.T) {
	if err := ValidateCollection(collectionFixture(128, "", 1, 1)); err == nil {
		t.Fatal("expected error for empty cluster reference")
	}
}

func TestValidateCollectionRejectsZeroShardNumber(t *testing.T) {
	if err := ValidateCollection(collectionFixture(128, "demo", 0, 1)); err == nil {
		t.Fatal("expected error for shardNumber < 1")
	}
}

func TestValidateCollectionAcceptsValidSpec(t *testing.T) {
	if err := ValidateCollection(collectionFixture(128, "demo", 1, 1)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateCollectionRejectsMalformedSchedule(t *testing.T) {
	obj := collectionFixture(128, "demo", 1, 1)
	obj.Object["spec"].(map[string]interface{})["snapshots"] = map[string]interface{}{"schedule": "not a cron expression"}

	if err := ValidateCollection(obj); err == nil {
		t.Fatal("expected error for malformed snapshots.schedule")
	}
}

func TestValidateCollectionAcceptsValidSchedule(t *testing.T) {
	obj := collectionFixture(128, "demo", 1, 1)
	obj.Object["spec"].(map[string]interface{})["snapshots"] = map[string]interface{}{"schedule": "0 */6 * * *"}

	if err := ValidateCollection(obj); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
