package facts

import (
	"context"
	"fmt"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/nocap-labs/factstore/internal/domain/fact"
	"github.com/nocap-labs/factstore/internal/index"
	"github.com/nocap-labs/factstore/internal/storage/hybrid"
)

var testNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

// fakeBlobStore is an in-memory BlobStore double with switchable failures.
type fakeBlobStore struct {
	blobs map[string][]byte
	seq   int

	failStore    bool
	failRetrieve bool
	// corrupt flips a byte on every read, leaving stored data intact.
	corrupt bool
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{blobs: make(map[string][]byte)}
}

func (f *fakeBlobStore) StoreBlob(_ context.Context, data []byte) (hybrid.StoreResult, error) {
	if f.failStore {
		return hybrid.StoreResult{}, fmt.Errorf("blob store down")
	}
	f.seq++
	id := fmt.Sprintf("blob-%d", f.seq)
	cp := make([]byte, len(data))
	copy(cp, data)
	f.blobs[id] = cp
	return hybrid.StoreResult{BlobID: id, Size: len(data), Source: hybrid.SourceRemote}, nil
}

func (f *fakeBlobStore) RetrieveBlob(_ context.Context, blobID string) (hybrid.RetrieveResult, error) {
	if f.failRetrieve {
		return hybrid.RetrieveResult{}, fmt.Errorf("blob store down")
	}
	data, ok := f.blobs[blobID]
	if !ok {
		return hybrid.RetrieveResult{}, fmt.Errorf("blob %s missing", blobID)
	}
	out := make([]byte, len(data))
	copy(out, data)
	if f.corrupt && len(out) > 0 {
		out[len(out)/2] ^= 0xff
	}
	return hybrid.RetrieveResult{Data: out, Size: len(out), Source: hybrid.SourceRemote}, nil
}

func (f *fakeBlobStore) BlobExists(_ context.Context, blobID string) bool {
	_, ok := f.blobs[blobID]
	return ok
}

func newTestService(t *testing.T, blobs *fakeBlobStore) (*Service, *index.Index) {
	t.Helper()
	idx := index.New()
	svc, err := New(blobs, idx, zap.NewNop())
	if err != nil {
		t.Fatalf("create service: %v", err)
	}
	t.Cleanup(svc.Close)
	svc.WithClock(func() time.Time { return testNow })
	return svc, idx
}

func validParams(id string) fact.Params {
	return fact.Params{
		ID:      id,
		Title:   "Spot Bitcoin ETFs recorded net inflows for six straight weeks",
		Summary: "Issuer disclosures show six consecutive weeks of net inflows.",
		Sources: []string{"https://farside.co.uk/btc/"},
		Author:  "marketdesk",
		Tags: []fact.Tag{
			{Name: "bitcoin", Category: fact.CategoryTopic},
			{Name: "finance", Category: fact.CategoryTopic},
		},
		Importance: 0.7,
		Status:     fact.StatusVerified,
	}
}
