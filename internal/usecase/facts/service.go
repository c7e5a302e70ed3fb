// Package facts is the index manager: the only component touching both the
// hybrid blob store and the derived fact index, keeping the two consistent.
package facts

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/nocap-labs/factstore/internal/domain"
	"github.com/nocap-labs/factstore/internal/domain/fact"
	"github.com/nocap-labs/factstore/internal/domain/search"
	"github.com/nocap-labs/factstore/internal/index"
	"github.com/nocap-labs/factstore/internal/storage/hybrid"
)

// StoreReceipt is the outcome of persisting one fact version.
type StoreReceipt struct {
	FactID  string
	BlobID  string
	Size    int
	Version int
	Source  hybrid.Source
}

// Service coordinates blob storage and the search index for facts.
type Service struct {
	blobs       BlobStore
	idx         Indexer
	persistPath string
	now         func() time.Time
	pool        *ants.Pool
	logger      *zap.Logger
}

// New creates a facts service. The worker pool backs bulk retrieval fan-out.
func New(blobs BlobStore, idx Indexer, logger *zap.Logger) (*Service, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	poolSize := runtime.NumCPU()
	if poolSize < 2 {
		poolSize = 2
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, fmt.Errorf("create worker pool: %w", err)
	}

	return &Service{
		blobs:  blobs,
		idx:    idx,
		now:    time.Now,
		pool:   pool,
		logger: logger,
	}, nil
}

// Close releases the worker pool.
func (s *Service) Close() {
	if s.pool != nil {
		s.pool.Release()
	}
}

// WithPersistence enables index snapshots at path after every mutation.
func (s *Service) WithPersistence(path string) *Service {
	s.persistPath = path
	return s
}

// WithClock injects a clock for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	if now != nil {
		s.now = now
	}
	return s
}

// CreateFact validates caller input and stores it as a new version-1 fact.
func (s *Service) CreateFact(ctx context.Context, p fact.Params) (fact.Fact, StoreReceipt, error) {
	f, err := fact.New(p, s.now())
	if err != nil {
		return fact.Fact{}, StoreReceipt{}, fmt.Errorf("%w: %w", domain.ErrValidation, err)
	}
	stored, receipt, err := s.storeFact(ctx, f)
	if err != nil {
		return fact.Fact{}, StoreReceipt{}, err
	}
	return stored, receipt, nil
}

// StoreFact serializes and stores a fact, then indexes its metadata.
// The index update always follows a successful store: callers never observe
// an index entry pointing at a blob that was not written.
func (s *Service) StoreFact(ctx context.Context, f fact.Fact) (StoreReceipt, error) {
	_, receipt, err := s.storeFact(ctx, f)
	return receipt, err
}

func (s *Service) storeFact(ctx context.Context, f fact.Fact) (fact.Fact, StoreReceipt, error) {
	data, hash, err := serializeFact(&f)
	if err != nil {
		return fact.Fact{}, StoreReceipt{}, fmt.Errorf("serialize fact %s: %w", f.ID(), err)
	}

	res, err := s.blobs.StoreBlob(ctx, data)
	if err != nil {
		return fact.Fact{}, StoreReceipt{}, fmt.Errorf("store fact %s: %w", f.ID(), err)
	}

	stored := f.WithStorage(res.BlobID, hash)
	s.idx.Put(indexRecord(&stored))
	s.persist()

	s.logger.Info("fact stored",
		zap.String("fact_id", stored.ID()),
		zap.String("blob_id", res.BlobID),
		zap.Int("version", stored.Version()),
		zap.String("source", string(res.Source)),
	)
	return stored, StoreReceipt{
		FactID:  stored.ID(),
		BlobID:  res.BlobID,
		Size:    res.Size,
		Version: stored.Version(),
		Source:  res.Source,
	}, nil
}

// RetrieveFact resolves id through the index and fetches the full document.
// An id the index does not know fails fast without touching storage.
func (s *Service) RetrieveFact(ctx context.Context, id string) (fact.Fact, error) {
	rec, ok := s.idx.Get(id)
	if !ok {
		return fact.Fact{}, fmt.Errorf("fact %s: %w", id, domain.ErrFactNotFound)
	}

	res, err := s.blobs.RetrieveBlob(ctx, rec.BlobID)
	if err != nil {
		return fact.Fact{}, fmt.Errorf("retrieve fact %s: %w", id, err)
	}

	if rec.ContentHash != "" && contentHashOf(res.Data) != rec.ContentHash {
		return fact.Fact{}, fmt.Errorf("fact %s content hash mismatch: %w", id, domain.ErrIntegrity)
	}

	blob, err := parseBlobRecord(res.Data)
	if err != nil {
		return fact.Fact{}, fmt.Errorf("fact %s: %v: %w", id, err, domain.ErrIntegrity)
	}
	if blob.ID != id {
		return fact.Fact{}, fmt.Errorf("fact %s blob holds id %q: %w", id, blob.ID, domain.ErrIntegrity)
	}

	return hydrateFact(blob, rec.BlobID, rec.ContentHash), nil
}

// UpdateFact retrieves the current version, merges the patch, bumps the
// version, stores a new blob and re-indexes. If the current version cannot
// be read the update fails whole: no new blob is written and the index
// keeps pointing at the old one.
func (s *Service) UpdateFact(ctx context.Context, id string, p fact.Patch) (fact.Fact, error) {
	if err := p.Validate(); err != nil {
		return fact.Fact{}, fmt.Errorf("%w: %w", domain.ErrValidation, err)
	}

	current, err := s.RetrieveFact(ctx, id)
	if err != nil {
		return fact.Fact{}, fmt.Errorf("update fact %s: %w", id, err)
	}

	updated, err := current.Apply(p, s.now())
	if err != nil {
		return fact.Fact{}, fmt.Errorf("update fact %s: %w: %w", id, domain.ErrValidation, err)
	}

	stored, _, err := s.storeFact(ctx, updated)
	if err != nil {
		return fact.Fact{}, err
	}
	return stored, nil
}

// DeleteFact removes all index entries for id. The underlying blob may stay
// orphaned on the network; reclamation is out of scope.
func (s *Service) DeleteFact(ctx context.Context, id string) error {
	if !s.idx.Remove(id) {
		return fmt.Errorf("fact %s: %w", id, domain.ErrFactNotFound)
	}
	s.persist()
	s.logger.Info("fact removed from index", zap.String("fact_id", id))
	return nil
}

// SearchFacts evaluates a query against the index. The index holds full
// metadata for result display; full content retrieval stays a separate call.
func (s *Service) SearchFacts(ctx context.Context, q *search.Query) index.SearchResult {
	return s.idx.Search(q)
}

// ListFacts pages over all facts, most recent first.
func (s *Service) ListFacts(ctx context.Context, limit, offset int) index.SearchResult {
	return s.idx.List(limit, offset)
}

// IndexStats returns index size counters.
func (s *Service) IndexStats(ctx context.Context) index.Stats {
	return s.idx.Stats()
}

// persist writes the index snapshot. Snapshot failure never fails the
// mutation that triggered it: the blobs stay authoritative and the index is
// rebuildable.
func (s *Service) persist() {
	if s.persistPath == "" {
		return
	}
	if err := s.idx.Save(s.persistPath); err != nil {
		s.logger.Warn("index snapshot failed", zap.Error(err))
	}
}
