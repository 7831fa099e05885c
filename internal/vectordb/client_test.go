package vectordb

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/qdrant-operator/operator/internal/apierrors"
)

func TestUpsertCollectionSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Fatalf("expected PUT, got %s", r.Method)
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}))
	defer srv.Close()

	c := newTestClient(srv)

	err := c.UpsertCollection(context.Background(), "demo", CollectionRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestUpsertCollectionServerErrorIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"status":{"error":"overloaded"}}`))
	}))
	defer srv.Close()

	c := newTestClient(srv)

	err := c.UpsertCollection(context.Background(), "demo", CollectionRequest{})
	if err == nil {
		t.Fatal("expected an error for 503 response")
	}
	if apierrors.KindOf(err) != apierrors.KindTransient {
		t.Fatalf("expected transient kind, got %s", apierrors.KindOf(err))
	}
}

func TestUpsertCollectionNotFoundMapsToNotFoundKind(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := newTestClient(srv)

	err := c.UpsertCollection(context.Background(), "demo", CollectionRequest{})
	if apierrors.KindOf(err) != apierrors.KindNotFound {
		t.Fatalf("expected not-found kind, got %s", apierrors.KindOf(err))
	}
}

func TestUpsertCollectionBadRequestIsPermanent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	c := newTestClient(srv)

	err := c.UpsertCollection(context.Background(), "demo", CollectionRequest{})
	if apierrors.KindOf(err) != apierrors.KindPermanent {
		t.Fatalf("expected permanent kind, got %s", apierrors.KindOf(err))
	}
}

func TestDecodeConfigMergesFreeFormConfig(t *testing.T) {
	req, err := DecodeConfig(128, 2, 1, true, "Cosine", map[string]interface{}{
		"hnsw_config": map[string]interface{}{"m": 16},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.Vectors.Size != 128 {
		t.Fatalf("expected vector size 128, got %d", req.Vectors.Size)
	}
	if req.ShardNumber != 2 {
		t.Fatalf("expected shard number 2, got %d", req.ShardNumber)
	}
	if _, ok := req.Extra["hnsw_config"]; !ok {
		t.Fatal("expected hnsw_config to be preserved in the remainder map")
	}
}

func newTestClient(srv *httptest.Server) *Client {
	c := New(srv.Listener.Addr().String(), false, "")
	c.baseURL = srv.URL
	return c
}
