// Package vectordb is the HTTP client for the per-cluster vector-database
// surface described in spec.md §6: collection create/update/delete and
// snapshot management. HTTP failures map onto the internal/apierrors kinds
// (transient, conflict, not-found, permanent); DNS failure, connection
// refused, timeout, and abort are all transient and differ only in the
// wrapped error message.
package vectordb

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/mitchellh/mapstructure"

	"github.com/qdrant-operator/operator/internal/apierrors"
)

// RequestTimeout is the hard cap spec.md §6 imposes on every call.
const RequestTimeout = 30 * time.Second

// Client talks to a single cluster's HTTP surface at host:6333 (or 6334
// for TLS is not used; TLS still terminates on 6333 per spec.md §6).
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// New builds a Client for the given cluster host (typically the client
// Service's DNS name) with TLS toggled per the cluster's spec.tls.enabled.
func New(host string, tlsEnabled bool, apiKey string) *Client {
	scheme := "http"
	transport := http.DefaultTransport

	if tlsEnabled {
		scheme = "https"
		transport = &http.Transport{
			TLSClientConfig: &tls.Config{MinVersion: tls.VersionTLS12},
		}
	}

	return &Client{
		httpClient: &http.Client{Timeout: RequestTimeout, Transport: transport},
		baseURL:    fmt.Sprintf("%s://%s:6333", scheme, host),
		apiKey:     apiKey,
	}
}

// CollectionRequest is the request body decoded from spec.config via
// mapstructure, with the well-known fields spec.md §6 always carries
// promoted to typed struct fields.
type CollectionRequest struct {
	Vectors struct {
		Size     int64  `json:"size" mapstructure:"size"`
		Distance string `json:"distance" mapstructure:"distance"`
		OnDisk   bool   `json:"on_disk" mapstructure:"on_disk"`
	} `json:"vectors" mapstructure:"vectors"`
	ShardNumber       int                    `json:"shard_number" mapstructure:"shard_number"`
	ReplicationFactor int                    `json:"replication_factor" mapstructure:"replication_factor"`
	Extra             map[string]interface{} `json:"-" mapstructure:",remain"`
}

// MarshalJSON writes the typed fields plus every Extra entry whose key does
// not collide with one of them, so spec.config options reach the body.
func (r CollectionRequest) MarshalJSON() ([]byte, error) {
	type plain CollectionRequest
	typed, err := json.Marshal(plain(r))
	if err != nil || len(r.Extra) == 0 {
		return typed, err
	}
	merged := make(map[string]interface{}, len(r.Extra))
	for k, v := range r.Extra {
		merged[k] = v
	}
	if err := json.Unmarshal(typed, &merged); err != nil {
		return nil, err
	}
	return json.Marshal(merged)
}

// DecodeConfig merges a CollectionResource's vectorSize/shardNumber/
// replicationFactor/onDisk with its free-form spec.config map into a
// single CollectionRequest, using mapstructure for the free-form half
// since spec.config's shape is only known at the vector-database's own
// schema, not this operator's CRD schema.
func DecodeConfig(vectorSize int64, shardNumber, replicationFactor int, onDisk bool, distance string, config map[string]interface{}) (CollectionRequest, error) {
	var req CollectionRequest
	req.Vectors.Size = vectorSize
	req.Vectors.OnDisk = onDisk
	req.Vectors.Distance = distance
	req.ShardNumber = shardNumber
	req.ReplicationFactor = replicationFactor

	if config == nil {
		return req, nil
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &req,
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
	})
	if err != nil {
		return req, err
	}

	if err := decoder.Decode(config); err != nil {
		return req, apierrors.New(apierrors.KindValidation, err, "decode collection config")
	}

	return req, nil
}

// UpsertCollection issues the idempotent PUT /collections/{name} call
// (spec.md §6: "creates if absent, succeeds if present with the same
// shape").
func (c *Client) UpsertCollection(ctx context.Context, name string, req CollectionRequest) error {
	body, err := json.Marshal(req)
	if err != nil {
		return apierrors.New(apierrors.KindValidation, err, "marshal collection request")
	}

	return c.do(ctx, http.MethodPut, "/collections/"+name, body)
}

// UpdateCollection issues PATCH /collections/{name} (spec.md §6).
func (c *Client) UpdateCollection(ctx context.Context, name string, req CollectionRequest) error {
	body, err := json.Marshal(req)
	if err != nil {
		return apierrors.New(apierrors.KindValidation, err, "marshal collection request")
	}

	return c.do(ctx, http.MethodPatch, "/collections/"+name, body)
}

// DeleteCollection issues DELETE /collections/{name}, idempotent.
func (c *Client) DeleteCollection(ctx context.Context, name string) error {
	return c.do(ctx, http.MethodDelete, "/collections/"+name, nil)
}

// CreateSnapshot issues POST /collections/{name}/snapshots.
func (c *Client) CreateSnapshot(ctx context.Context, collection string) error {
	return c.do(ctx, http.MethodPost, "/collections/"+collection+"/snapshots", nil)
}

// RecoverSnapshot issues PUT /collections/{name}/snapshots/recover against
// the named snapshot.
func (c *Client) RecoverSnapshot(ctx context.Context, collection, snapshot string) error {
	body, err := json.Marshal(map[string]string{"location": snapshot})
	if err != nil {
		return apierrors.New(apierrors.KindValidation, err, "marshal recover request")
	}
	return c.do(ctx, http.MethodPut, "/collections/"+collection+"/snapshots/recover", body)
}

type statusResponse struct {
	Status interface{} `json:"status"`
}

func (c *Client) do(ctx context.Context, method, path string, body []byte) error {
	ctx, cancel := context.WithTimeout(ctx, RequestTimeout)
	defer cancel()

	correlationID := uuid.NewString()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return apierrors.New(apierrors.KindFatal, err, "build request")
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Correlation-Id", correlationID)
	if c.apiKey != "" {
		httpReq.Header.Set("api-key", c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return classifyTransportError(err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	var parsed statusResponse
	_ = json.Unmarshal(respBody, &parsed)

	detail := fmt.Sprintf("%s %s: HTTP %d: %v", method, path, resp.StatusCode, parsed.Status)

	switch {
	case resp.StatusCode == http.StatusTooManyRequests, resp.StatusCode >= 500:
		return apierrors.New(apierrors.KindTransient, fmt.Errorf(detail), "vector database request")
	case resp.StatusCode == http.StatusConflict:
		return apierrors.New(apierrors.KindConflict, fmt.Errorf(detail), "vector database request")
	case resp.StatusCode == http.StatusNotFound:
		return apierrors.New(apierrors.KindNotFound, fmt.Errorf(detail), "vector database request")
	default:
		return apierrors.New(apierrors.KindPermanent, fmt.Errorf(detail), "vector database request")
	}
}

// classifyTransportError tells DNS failure, connection refused, timeout, and
// generic abort apart by the message it wraps the error with. All four are
// apierrors.KindTransient, so retry eligibility and the errors_total metric,
// which is labeled by kind, treat them the same.
func classifyTransportError(err error) error {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return apierrors.New(apierrors.KindTransient, err, "dns resolution failed")
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return apierrors.New(apierrors.KindTransient, err, "request timed out")
	}

	var syscallErr syscall.Errno
	if errors.As(err, &syscallErr) && syscallErr == syscall.ECONNREFUSED {
		return apierrors.New(apierrors.KindTransient, err, "connection refused")
	}

	return apierrors.New(apierrors.KindTransient, err, "request aborted")
}
