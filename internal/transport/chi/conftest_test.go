package chi

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	chiv5 "github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/nocap-labs/factstore/internal/index"
	"github.com/nocap-labs/factstore/internal/storage/hybrid"
	factsuc "github.com/nocap-labs/factstore/internal/usecase/facts"
	healthuc "github.com/nocap-labs/factstore/internal/usecase/health"
)

// fakeBlobStore is an in-memory facts.BlobStore.
type fakeBlobStore struct {
	mu    sync.Mutex
	blobs map[string][]byte
	seq   int
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{blobs: make(map[string][]byte)}
}

func (f *fakeBlobStore) StoreBlob(_ context.Context, data []byte) (hybrid.StoreResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	id := fmt.Sprintf("blob-%d", f.seq)
	cp := make([]byte, len(data))
	copy(cp, data)
	f.blobs[id] = cp
	return hybrid.StoreResult{BlobID: id, Size: len(data), Source: hybrid.SourceRemote}, nil
}

func (f *fakeBlobStore) RetrieveBlob(_ context.Context, blobID string) (hybrid.RetrieveResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.blobs[blobID]
	if !ok {
		return hybrid.RetrieveResult{}, fmt.Errorf("blob %s: not held", blobID)
	}
	return hybrid.RetrieveResult{Data: data, Size: len(data), Source: hybrid.SourceRemote}, nil
}

func (f *fakeBlobStore) BlobExists(_ context.Context, blobID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.blobs[blobID]
	return ok
}

// fakeStorageInfo satisfies StorageInfo for stats and health wiring.
type fakeStorageInfo struct {
	state hybrid.State
	local int
}

func (f *fakeStorageInfo) State() hybrid.State { return f.state }
func (f *fakeStorageInfo) LocalCount() int     { return f.local }

type testEnv struct {
	router  http.Handler
	facts   *factsuc.Service
	idx     *index.Index
	storage *fakeStorageInfo
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	idx := index.New()
	svc, err := factsuc.New(newFakeBlobStore(), idx, zap.NewNop())
	if err != nil {
		t.Fatalf("create facts service: %v", err)
	}
	t.Cleanup(svc.Close)

	storage := &fakeStorageInfo{state: hybrid.StateHealthy}
	healthSvc := healthuc.New(storage, idx)

	srv := NewServer(svc, healthSvc, storage, zap.NewNop())
	r := chiv5.NewRouter()
	srv.Register(r)

	return &testEnv{router: r, facts: svc, idx: idx, storage: storage}
}

func (e *testEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, http.NoBody)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}
