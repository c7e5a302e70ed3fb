package facts

import (
	"context"

	"github.com/nocap-labs/factstore/internal/domain/search"
	"github.com/nocap-labs/factstore/internal/index"
	"github.com/nocap-labs/factstore/internal/storage/hybrid"
)

// BlobStore is the storage contract the service depends on.
type BlobStore interface {
	StoreBlob(ctx context.Context, data []byte) (hybrid.StoreResult, error)
	RetrieveBlob(ctx context.Context, blobID string) (hybrid.RetrieveResult, error)
	BlobExists(ctx context.Context, blobID string) bool
}

// Indexer is the derived-index contract the service depends on.
type Indexer interface {
	Put(rec index.Record)
	Remove(id string) bool
	Get(id string) (index.Record, bool)
	Len() int
	AllIDs() []string
	Search(q *search.Query) index.SearchResult
	List(limit, offset int) index.SearchResult
	Stats() index.Stats
	Save(path string) error
}
