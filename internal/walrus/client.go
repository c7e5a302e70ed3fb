// Package walrus is the dumb transport layer for the Walrus storage network:
// raw HTTP against the publisher (writes) and aggregator (reads) endpoints.
// No retries, no caching, no fallback — resilience lives one level up in
// the hybrid store.
package walrus

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/nocap-labs/factstore/internal/domain"
	"github.com/nocap-labs/factstore/internal/metrics"
)

// Defaults for client configuration.
const (
	// DefaultMaxBlobSize is the maximum accepted blob size (10 MiB).
	DefaultMaxBlobSize = 10 << 20
	// DefaultProbeTimeout bounds each health-check probe.
	DefaultProbeTimeout = 5 * time.Second
)

// EndpointStatus is the probed state of one endpoint.
type EndpointStatus string

// Endpoint status values.
const (
	StatusHealthy   EndpointStatus = "healthy"
	StatusUnhealthy EndpointStatus = "unhealthy"
)

// EndpointHealth is the probe outcome for one endpoint.
type EndpointHealth struct {
	Status  EndpointStatus
	Latency time.Duration
}

// Health is the probe outcome for both endpoints.
type Health struct {
	Publisher  EndpointHealth
	Aggregator EndpointHealth
}

// OK reports whether both endpoints answered within the probe timeout.
func (h Health) OK() bool {
	return h.Publisher.Status == StatusHealthy && h.Aggregator.Status == StatusHealthy
}

// StoreReceipt is the network's acknowledgement of a stored blob.
type StoreReceipt struct {
	BlobID      string
	EncodedSize int64
	Cost        int64
}

// BlobContent is a retrieved blob.
type BlobContent struct {
	Data        []byte
	ContentType string
	Size        int64
}

// Config holds the Walrus client settings.
type Config struct {
	PublisherURL  string
	AggregatorURL string
	MaxBlobSize   int
	ProbeTimeout  time.Duration
	Logger        *zap.Logger
}

// Client issues store/retrieve/exists/health calls against a Walrus
// publisher/aggregator pair.
type Client struct {
	publisherURL  string
	aggregatorURL string
	maxBlobSize   int
	probeTimeout  time.Duration
	httpClient    *http.Client
	logger        *zap.Logger
}

// NewClient creates a Walrus client.
func NewClient(cfg Config) *Client {
	maxSize := cfg.MaxBlobSize
	if maxSize <= 0 {
		maxSize = DefaultMaxBlobSize
	}
	probeTimeout := cfg.ProbeTimeout
	if probeTimeout <= 0 {
		probeTimeout = DefaultProbeTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		publisherURL:  strings.TrimRight(cfg.PublisherURL, "/"),
		aggregatorURL: strings.TrimRight(cfg.AggregatorURL, "/"),
		maxBlobSize:   maxSize,
		probeTimeout:  probeTimeout,
		httpClient:    &http.Client{},
		logger:        logger,
	}
}

// MaxBlobSize returns the configured size limit in bytes.
func (c *Client) MaxBlobSize() int { return c.maxBlobSize }

// storeResponse covers both response shapes of PUT /v1/store: a fresh write
// returns newlyCreated, a deduplicated one returns alreadyCertified.
type storeResponse struct {
	NewlyCreated *struct {
		BlobObject struct {
			BlobID string `json:"blobId"`
			Size   int64  `json:"size"`
		} `json:"blobObject"`
		Cost int64 `json:"cost"`
	} `json:"newlyCreated"`
	AlreadyCertified *struct {
		BlobID string `json:"blobId"`
	} `json:"alreadyCertified"`
}

// Store writes data to the publisher for the given number of epochs.
func (c *Client) Store(ctx context.Context, data []byte, epochs int) (StoreReceipt, error) {
	if len(data) > c.maxBlobSize {
		return StoreReceipt{}, domain.NewBlobTooLarge(len(data), c.maxBlobSize)
	}

	url := fmt.Sprintf("%s/v1/store?epochs=%d", c.publisherURL, epochs)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(data))
	if err != nil {
		return StoreReceipt{}, fmt.Errorf("build store request: %w", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.WalrusRequestsTotal.WithLabelValues("publisher", "store", "error").Inc()
		return StoreReceipt{}, fmt.Errorf("store blob: %v: %w", err, domain.ErrNetwork)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.WalrusRequestsTotal.WithLabelValues("publisher", "store", "error").Inc()
		return StoreReceipt{}, fmt.Errorf("store blob: status %d: %w", resp.StatusCode, domain.ErrNetwork)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.WalrusRequestsTotal.WithLabelValues("publisher", "store", "error").Inc()
		return StoreReceipt{}, fmt.Errorf("read store response: %v: %w", err, domain.ErrNetwork)
	}

	receipt, err := parseStoreResponse(body, int64(len(data)))
	if err != nil {
		metrics.WalrusRequestsTotal.WithLabelValues("publisher", "store", "error").Inc()
		return StoreReceipt{}, err
	}

	metrics.WalrusRequestsTotal.WithLabelValues("publisher", "store", "success").Inc()
	metrics.WalrusRequestDuration.WithLabelValues("store").Observe(time.Since(start).Seconds())
	c.logger.Debug("blob stored",
		zap.String("blob_id", receipt.BlobID),
		zap.Int("size", len(data)),
		zap.Int("epochs", epochs),
	)
	return receipt, nil
}

func parseStoreResponse(body []byte, rawSize int64) (StoreReceipt, error) {
	var sr storeResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		return StoreReceipt{}, fmt.Errorf("parse store response: %v: %w", err, domain.ErrNetwork)
	}
	switch {
	case sr.NewlyCreated != nil && sr.NewlyCreated.BlobObject.BlobID != "":
		return StoreReceipt{
			BlobID:      sr.NewlyCreated.BlobObject.BlobID,
			EncodedSize: sr.NewlyCreated.BlobObject.Size,
			Cost:        sr.NewlyCreated.Cost,
		}, nil
	case sr.AlreadyCertified != nil && sr.AlreadyCertified.BlobID != "":
		return StoreReceipt{
			BlobID:      sr.AlreadyCertified.BlobID,
			EncodedSize: rawSize,
		}, nil
	default:
		return StoreReceipt{}, fmt.Errorf("store response carries no blob id: %w", domain.ErrNetwork)
	}
}

// Retrieve reads a blob from the aggregator.
func (c *Client) Retrieve(ctx context.Context, blobID string) (BlobContent, error) {
	if blobID == "" {
		return BlobContent{}, fmt.Errorf("blob id is required: %w", domain.ErrValidation)
	}

	url := fmt.Sprintf("%s/v1/%s", c.aggregatorURL, blobID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return BlobContent{}, fmt.Errorf("build retrieve request: %w", err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.WalrusRequestsTotal.WithLabelValues("aggregator", "retrieve", "error").Inc()
		return BlobContent{}, fmt.Errorf("retrieve blob %s: %v: %w", blobID, err, domain.ErrNetwork)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		metrics.WalrusRequestsTotal.WithLabelValues("aggregator", "retrieve", "not_found").Inc()
		return BlobContent{}, fmt.Errorf("blob %s: %w", blobID, domain.ErrBlobNotFound)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		metrics.WalrusRequestsTotal.WithLabelValues("aggregator", "retrieve", "error").Inc()
		return BlobContent{}, fmt.Errorf("retrieve blob %s: status %d: %w", blobID, resp.StatusCode, domain.ErrNetwork)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.WalrusRequestsTotal.WithLabelValues("aggregator", "retrieve", "error").Inc()
		return BlobContent{}, fmt.Errorf("read blob %s: %v: %w", blobID, err, domain.ErrNetwork)
	}

	metrics.WalrusRequestsTotal.WithLabelValues("aggregator", "retrieve", "success").Inc()
	metrics.WalrusRequestDuration.WithLabelValues("retrieve").Observe(time.Since(start).Seconds())

	return BlobContent{
		Data:        data,
		ContentType: resp.Header.Get("Content-Type"),
		Size:        int64(len(data)),
	}, nil
}

// Exists probes the aggregator for a blob. It never returns an error:
// any failure reads as false.
func (c *Client) Exists(ctx context.Context, blobID string) bool {
	if blobID == "" {
		return false
	}
	url := fmt.Sprintf("%s/v1/%s", c.aggregatorURL, blobID)
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return false
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer func() { _ = resp.Body.Close() }()
	return resp.StatusCode >= 200 && resp.StatusCode <= 299
}

// HealthCheck probes both endpoints with time-boxed HEAD requests.
func (c *Client) HealthCheck(ctx context.Context) Health {
	return Health{
		Publisher:  c.probe(ctx, c.publisherURL+"/v1/store"),
		Aggregator: c.probe(ctx, c.aggregatorURL+"/v1/"),
	}
}

func (c *Client) probe(ctx context.Context, url string) EndpointHealth {
	probeCtx, cancel := context.WithTimeout(ctx, c.probeTimeout)
	defer cancel()

	start := time.Now()
	req, err := http.NewRequestWithContext(probeCtx, http.MethodHead, url, nil)
	if err != nil {
		return EndpointHealth{Status: StatusUnhealthy}
	}
	resp, err := c.httpClient.Do(req)
	latency := time.Since(start)
	if err != nil {
		return EndpointHealth{Status: StatusUnhealthy, Latency: latency}
	}
	defer func() { _ = resp.Body.Close() }()

	// Any answered request counts: a 405 on HEAD still proves the endpoint
	// is up and reachable.
	if resp.StatusCode >= 500 {
		return EndpointHealth{Status: StatusUnhealthy, Latency: latency}
	}
	return EndpointHealth{Status: StatusHealthy, Latency: latency}
}
