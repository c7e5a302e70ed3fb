// Package factstore provides an embedded client for the factstore hybrid
// content-addressed fact store: full documents live as blobs on the Walrus
// network (with a local in-memory fallback during outages) while a derived
// in-memory index serves metadata search.
//
//	client, _ := factstore.New(
//	    factstore.WithWalrus(publisherURL, aggregatorURL),
//	    factstore.WithPersistence("data/index.json"),
//	)
//	defer client.Close()
//
//	f, receipt, _ := client.CreateFact(ctx, factstore.Params{
//	    ID:    "btc-etf-inflows",
//	    Title: "Spot Bitcoin ETFs recorded net inflows for six straight weeks",
//	    Tags:  []factstore.Tag{{Name: "bitcoin", Category: factstore.CategoryTopic}},
//	})
//
//	page, _ := client.Search().Keywords("bitcoin").Statuses(factstore.StatusVerified).Do(ctx)
package factstore

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/nocap-labs/factstore/internal/domain"
	"github.com/nocap-labs/factstore/internal/index"
	"github.com/nocap-labs/factstore/internal/storage/hybrid"
	"github.com/nocap-labs/factstore/internal/usecase/facts"
	healthuc "github.com/nocap-labs/factstore/internal/usecase/health"
	"github.com/nocap-labs/factstore/internal/walrus"
)

// Sentinel errors re-exported from the domain layer. Use errors.Is to check.
var (
	ErrValidation         = domain.ErrValidation
	ErrFactNotFound       = domain.ErrFactNotFound
	ErrBlobNotFound       = domain.ErrBlobNotFound
	ErrBlobUnavailable    = domain.ErrBlobUnavailable
	ErrStorageUnavailable = domain.ErrStorageUnavailable
	ErrIntegrity          = domain.ErrIntegrity
)

// Client is the embedded factstore entry point.
type Client struct {
	idx     *index.Index
	facts   *facts.Service
	store   *hybrid.Store // nil when a custom blob store is injected
	health  *healthuc.Service
	persist string
}

// New creates a Client wired to the configured Walrus endpoints.
func New(opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		fallback: true,
	}
	for _, o := range opts {
		o.apply(cfg)
	}
	if cfg.logger == nil {
		cfg.logger = zap.NewNop()
	}

	blobs := cfg.blobs
	var store *hybrid.Store
	if blobs == nil {
		if cfg.publisherURL == "" || cfg.aggregatorURL == "" {
			return nil, errors.New("factstore: walrus endpoints required (use WithWalrus)")
		}
		wc := walrus.NewClient(walrus.Config{
			PublisherURL:  cfg.publisherURL,
			AggregatorURL: cfg.aggregatorURL,
			MaxBlobSize:   cfg.maxBlobSize,
			ProbeTimeout:  cfg.probeTimeout,
			Logger:        cfg.logger,
		})
		store = hybrid.NewStore(wc, hybrid.Config{
			Epochs:          cfg.epochs,
			HealthInterval:  cfg.healthInterval,
			FallbackEnabled: cfg.fallback,
			Logger:          cfg.logger,
		})
		blobs = store
	}

	idx := index.New()
	if cfg.persistPath != "" {
		if _, err := idx.Load(cfg.persistPath); err != nil {
			return nil, fmt.Errorf("factstore: load index snapshot: %w", err)
		}
	}

	svc, err := facts.New(blobs, idx, cfg.logger)
	if err != nil {
		return nil, fmt.Errorf("factstore: %w", err)
	}
	if cfg.persistPath != "" {
		svc.WithPersistence(cfg.persistPath)
	}
	if cfg.now != nil {
		svc.WithClock(cfg.now)
	}

	var hs *healthuc.Service
	if store != nil {
		hs = healthuc.New(store, idx)
	}

	return &Client{
		idx:     idx,
		facts:   svc,
		store:   store,
		health:  hs,
		persist: cfg.persistPath,
	}, nil
}

// Close releases client resources.
func (c *Client) Close() {
	c.facts.Close()
}

// CreateFact validates params and stores a new version-1 fact.
func (c *Client) CreateFact(ctx context.Context, p Params) (Fact, Receipt, error) {
	f, receipt, err := c.facts.CreateFact(ctx, toDomainParams(p))
	if err != nil {
		return Fact{}, Receipt{}, err
	}
	return fromDomainFact(f), fromReceipt(receipt), nil
}

// GetFact retrieves a fact's full content by id.
func (c *Client) GetFact(ctx context.Context, id string) (Fact, error) {
	f, err := c.facts.RetrieveFact(ctx, id)
	if err != nil {
		return Fact{}, err
	}
	return fromDomainFact(f), nil
}

// UpdateFact applies a partial update, producing a new version and blob.
func (c *Client) UpdateFact(ctx context.Context, id string, p Patch) (Fact, error) {
	f, err := c.facts.UpdateFact(ctx, id, toDomainPatch(p))
	if err != nil {
		return Fact{}, err
	}
	return fromDomainFact(f), nil
}

// DeleteFact removes a fact from the index.
func (c *Client) DeleteFact(ctx context.Context, id string) error {
	return c.facts.DeleteFact(ctx, id)
}

// GetMany retrieves facts in parallel. Each input id gets a result slot, in
// input order; individual failures never abort the batch.
func (c *Client) GetMany(ctx context.Context, ids []string) []BatchResult {
	results := c.facts.RetrieveMany(ctx, ids)
	out := make([]BatchResult, len(results))
	for i, r := range results {
		out[i] = BatchResult{ID: r.ID(), Err: r.Err()}
		if r.Err() == nil {
			out[i].Fact = fromDomainFact(r.Fact())
		}
	}
	return out
}

// List pages over all facts, most recent first. limit 0 returns everything.
func (c *Client) List(ctx context.Context, limit, offset int) Page {
	return fromSearchResult(c.facts.ListFacts(ctx, limit, offset))
}

// Stats returns index size counters.
func (c *Client) Stats(ctx context.Context) Stats {
	s := c.facts.IndexStats(ctx)
	return Stats{
		Facts:     s.Facts,
		Keywords:  s.Keywords,
		Tags:      s.Tags,
		Authors:   s.Authors,
		SizeBytes: s.SizeBytes,
	}
}

// Seed populates an empty index: first from knownBlobIDs still resolvable on
// the network, otherwise from the built-in sample corpus. A non-empty index
// is left untouched.
func (c *Client) Seed(ctx context.Context, knownBlobIDs []string) error {
	return c.facts.Seed(ctx, knownBlobIDs)
}

// Health reports component health. With an injected blob store only the
// index check is available.
func (c *Client) Health(ctx context.Context) HealthStatus {
	if c.health == nil {
		return HealthStatus{
			Status: string(healthuc.Healthy),
			Checks: map[string]string{"index": "ok"},
			Facts:  c.idx.Len(),
		}
	}
	report := c.health.Check(ctx)
	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}
	return HealthStatus{Status: string(report.Status), Checks: checks, Facts: report.Facts}
}

// LocalBlobCount reports how many blobs the local fallback store holds.
// Zero when a custom blob store is injected.
func (c *Client) LocalBlobCount() int {
	if c.store == nil {
		return 0
	}
	return c.store.LocalCount()
}
