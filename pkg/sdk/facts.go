package sdk

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// CreateFact stores a new fact and returns it with the storage receipt.
func (c *Client) CreateFact(ctx context.Context, req CreateFactRequest) (CreatedFact, error) {
	var out CreatedFact
	if err := c.do(ctx, http.MethodPost, "/api/v1/facts", req, &out); err != nil {
		return CreatedFact{}, err
	}
	return out, nil
}

// GetFact retrieves a fact's full content by id.
func (c *Client) GetFact(ctx context.Context, id string) (Fact, error) {
	var out Fact
	if err := c.do(ctx, http.MethodGet, "/api/v1/facts/"+url.PathEscape(id), nil, &out); err != nil {
		return Fact{}, err
	}
	return out, nil
}

// PatchFact applies a partial update, producing a new fact version.
func (c *Client) PatchFact(ctx context.Context, id string, req PatchFactRequest) (Fact, error) {
	var out Fact
	if err := c.do(ctx, http.MethodPatch, "/api/v1/facts/"+url.PathEscape(id), req, &out); err != nil {
		return Fact{}, err
	}
	return out, nil
}

// DeleteFact removes a fact from the index.
func (c *Client) DeleteFact(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/facts/"+url.PathEscape(id), nil, nil)
}

// ListFacts pages over all facts, most recent first.
func (c *Client) ListFacts(ctx context.Context, limit, offset int) (SearchPage, error) {
	path := fmt.Sprintf("/api/v1/facts?limit=%d&offset=%d", limit, offset)
	var out SearchPage
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return SearchPage{}, err
	}
	return out, nil
}

// SearchFacts runs a metadata query against the index.
func (c *Client) SearchFacts(ctx context.Context, req SearchRequest) (SearchPage, error) {
	var out SearchPage
	if err := c.do(ctx, http.MethodPost, "/api/v1/facts/search", req, &out); err != nil {
		return SearchPage{}, err
	}
	return out, nil
}

// BatchGetFacts retrieves several facts in one call. Individual misses land
// in the per-item Error field; the call itself only fails on transport or
// request-level problems.
func (c *Client) BatchGetFacts(ctx context.Context, ids []string) (BatchPage, error) {
	var out BatchPage
	body := struct {
		IDs []string `json:"ids"`
	}{IDs: ids}
	if err := c.do(ctx, http.MethodPost, "/api/v1/facts/batch/retrieve", body, &out); err != nil {
		return BatchPage{}, err
	}
	return out, nil
}

// Stats returns index and storage counters.
func (c *Client) Stats(ctx context.Context) (Stats, error) {
	var out Stats
	if err := c.do(ctx, http.MethodGet, "/api/v1/stats", nil, &out); err != nil {
		return Stats{}, err
	}
	return out, nil
}

// Health reports service health. The endpoint answers 200 even when storage
// is degraded; inspect Status for the verdict.
func (c *Client) Health(ctx context.Context) (Health, error) {
	var out Health
	if err := c.do(ctx, http.MethodGet, "/health", nil, &out); err != nil {
		return Health{}, err
	}
	return out, nil
}
