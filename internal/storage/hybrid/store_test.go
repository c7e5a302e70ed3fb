package hybrid

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/nocap-labs/factstore/internal/domain"
	"github.com/nocap-labs/factstore/internal/walrus"
)

// --- Mocks ---

// mockClient scripts the walrus transport: healthy reports what probes see,
// failStore/failRetrieve break the live calls.
type mockClient struct {
	healthy      bool
	failStore    bool
	failRetrieve bool

	blobs map[string][]byte
	seq   int

	storeCalls  int
	healthCalls int
}

func newMockClient() *mockClient {
	return &mockClient{healthy: true, blobs: make(map[string][]byte)}
}

func (m *mockClient) Store(_ context.Context, data []byte, _ int) (walrus.StoreReceipt, error) {
	m.storeCalls++
	if m.failStore {
		return walrus.StoreReceipt{}, fmt.Errorf("publisher exploded: %w", domain.ErrNetwork)
	}
	m.seq++
	id := fmt.Sprintf("walrus-%d", m.seq)
	cp := make([]byte, len(data))
	copy(cp, data)
	m.blobs[id] = cp
	return walrus.StoreReceipt{BlobID: id, EncodedSize: int64(len(data))}, nil
}

func (m *mockClient) Retrieve(_ context.Context, blobID string) (walrus.BlobContent, error) {
	if m.failRetrieve {
		return walrus.BlobContent{}, fmt.Errorf("aggregator exploded: %w", domain.ErrNetwork)
	}
	data, ok := m.blobs[blobID]
	if !ok {
		return walrus.BlobContent{}, fmt.Errorf("blob %s: %w", blobID, domain.ErrBlobNotFound)
	}
	return walrus.BlobContent{Data: data, Size: int64(len(data))}, nil
}

func (m *mockClient) Exists(_ context.Context, blobID string) bool {
	_, ok := m.blobs[blobID]
	return ok
}

func (m *mockClient) HealthCheck(_ context.Context) walrus.Health {
	m.healthCalls++
	status := walrus.StatusUnhealthy
	if m.healthy {
		status = walrus.StatusHealthy
	}
	return walrus.Health{
		Publisher:  walrus.EndpointHealth{Status: status},
		Aggregator: walrus.EndpointHealth{Status: status},
	}
}

func (m *mockClient) MaxBlobSize() int { return 1 << 20 }

// fakeClock is an adjustable clock for probe throttling tests.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestStore(client BlobClient, clock *fakeClock) *Store {
	cfg := Config{FallbackEnabled: true}
	if clock != nil {
		cfg.Now = clock.now
	}
	return NewStore(client, cfg)
}

// --- Tests ---

func TestStoreBlob_RemoteWhenHealthy(t *testing.T) {
	client := newMockClient()
	s := newTestStore(client, nil)

	res, err := s.StoreBlob(context.Background(), []byte("payload"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Source != SourceRemote {
		t.Errorf("source: got %q", res.Source)
	}
	if IsLocalID(res.BlobID) {
		t.Errorf("remote write minted local id %q", res.BlobID)
	}
	if s.State() != StateHealthy {
		t.Errorf("state: got %q", s.State())
	}
}

func TestStoreBlob_EmptyRejected(t *testing.T) {
	s := newTestStore(newMockClient(), nil)

	_, err := s.StoreBlob(context.Background(), nil)
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("want ErrValidation, got %v", err)
	}
}

func TestStoreBlob_TooLargeRejected(t *testing.T) {
	s := newTestStore(newMockClient(), nil)

	_, err := s.StoreBlob(context.Background(), make([]byte, 1<<20+1))
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("want ErrValidation, got %v", err)
	}
	var btl *domain.BlobTooLargeError
	if !errors.As(err, &btl) {
		t.Fatal("want BlobTooLargeError")
	}
	if s.State() != StateUnknown {
		t.Errorf("validation failure must not touch health state, got %q", s.State())
	}
}

func TestStoreBlob_FallsBackOnStoreFailure(t *testing.T) {
	client := newMockClient()
	client.failStore = true
	s := newTestStore(client, nil)

	data := []byte("fallback payload")
	res, err := s.StoreBlob(context.Background(), data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Source != SourceLocal {
		t.Fatalf("source: got %q", res.Source)
	}
	if !IsLocalID(res.BlobID) {
		t.Errorf("local write minted id %q", res.BlobID)
	}
	if s.State() != StateDegraded {
		t.Errorf("state after store failure: got %q", s.State())
	}

	// the local copy reads back byte-identical
	got, err := s.RetrieveBlob(context.Background(), res.BlobID)
	if err != nil {
		t.Fatalf("retrieve local: %v", err)
	}
	if !bytes.Equal(got.Data, data) {
		t.Errorf("data mismatch: %q", got.Data)
	}
	if got.Source != SourceLocal {
		t.Errorf("retrieve source: got %q", got.Source)
	}
}

func TestStoreBlob_DistinctLocalIDs(t *testing.T) {
	client := newMockClient()
	client.healthy = false
	s := newTestStore(client, nil)

	a, err := s.StoreBlob(context.Background(), []byte("one"))
	if err != nil {
		t.Fatal(err)
	}
	b, err := s.StoreBlob(context.Background(), []byte("two"))
	if err != nil {
		t.Fatal(err)
	}
	if a.BlobID == b.BlobID {
		t.Errorf("local ids collide: %q", a.BlobID)
	}
	if s.LocalCount() != 2 {
		t.Errorf("local count: got %d", s.LocalCount())
	}
}

func TestStoreBlob_FallbackDisabled(t *testing.T) {
	client := newMockClient()
	client.healthy = false
	s := NewStore(client, Config{FallbackEnabled: false})

	_, err := s.StoreBlob(context.Background(), []byte("x"))
	if !errors.Is(err, domain.ErrStorageUnavailable) {
		t.Fatalf("want ErrStorageUnavailable, got %v", err)
	}
}

func TestRetrieveBlob_LocalIDNeverHitsNetwork(t *testing.T) {
	client := newMockClient()
	s := newTestStore(client, nil)

	_, err := s.RetrieveBlob(context.Background(), "mock-123-deadbeef")
	if !errors.Is(err, domain.ErrBlobNotFound) {
		t.Fatalf("want ErrBlobNotFound, got %v", err)
	}
	if client.healthCalls != 0 {
		t.Error("local id lookup must not probe the network")
	}
}

func TestRetrieveBlob_UnavailableWhileDegraded(t *testing.T) {
	client := newMockClient()
	client.healthy = false
	s := newTestStore(client, nil)

	_, err := s.RetrieveBlob(context.Background(), "walrus-1")
	if !errors.Is(err, domain.ErrBlobUnavailable) {
		t.Fatalf("want ErrBlobUnavailable, got %v", err)
	}
	if errors.Is(err, domain.ErrBlobNotFound) {
		t.Error("outage must not read as non-existence")
	}
}

func TestRetrieveBlob_NotFoundPassesThrough(t *testing.T) {
	s := newTestStore(newMockClient(), nil)

	_, err := s.RetrieveBlob(context.Background(), "walrus-unknown")
	if !errors.Is(err, domain.ErrBlobNotFound) {
		t.Fatalf("want ErrBlobNotFound, got %v", err)
	}
	if s.State() != StateHealthy {
		t.Errorf("not-found must not degrade, state %q", s.State())
	}
}

func TestRetrieveBlob_FailureDegrades(t *testing.T) {
	client := newMockClient()
	s := newTestStore(client, nil)
	if _, err := s.StoreBlob(context.Background(), []byte("warm up")); err != nil {
		t.Fatal(err)
	}
	client.failRetrieve = true

	_, err := s.RetrieveBlob(context.Background(), "walrus-1")
	if !errors.Is(err, domain.ErrBlobUnavailable) {
		t.Fatalf("want ErrBlobUnavailable, got %v", err)
	}
	if s.State() != StateDegraded {
		t.Errorf("state: got %q", s.State())
	}
}

func TestProbeThrottling(t *testing.T) {
	client := newMockClient()
	clock := &fakeClock{t: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)}
	s := newTestStore(client, clock)

	// first call probes (state unknown)
	if _, err := s.StoreBlob(context.Background(), []byte("a")); err != nil {
		t.Fatal(err)
	}
	if client.healthCalls != 1 {
		t.Fatalf("health calls: got %d, want 1", client.healthCalls)
	}

	// inside the window the cached state is reused
	clock.advance(time.Minute)
	if _, err := s.StoreBlob(context.Background(), []byte("b")); err != nil {
		t.Fatal(err)
	}
	if client.healthCalls != 1 {
		t.Errorf("probe not throttled: %d calls", client.healthCalls)
	}

	// past the window it probes again
	clock.advance(DefaultHealthInterval + time.Second)
	if _, err := s.StoreBlob(context.Background(), []byte("c")); err != nil {
		t.Fatal(err)
	}
	if client.healthCalls != 2 {
		t.Errorf("stale state not re-probed: %d calls", client.healthCalls)
	}
}

func TestRecovery_AfterOutage(t *testing.T) {
	client := newMockClient()
	client.healthy = false
	clock := &fakeClock{t: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)}
	s := newTestStore(client, clock)

	res, err := s.StoreBlob(context.Background(), []byte("offline write"))
	if err != nil || res.Source != SourceLocal {
		t.Fatalf("offline write: res=%+v err=%v", res, err)
	}

	client.healthy = true
	clock.advance(DefaultHealthInterval + time.Second)

	res, err = s.StoreBlob(context.Background(), []byte("online write"))
	if err != nil || res.Source != SourceRemote {
		t.Fatalf("online write: res=%+v err=%v", res, err)
	}
	if s.State() != StateHealthy {
		t.Errorf("state after recovery: %q", s.State())
	}

	// the local copy written during the outage is still readable
	if s.LocalCount() != 1 {
		t.Errorf("local count: got %d", s.LocalCount())
	}
}

func TestOnFallback_FiresOncePerTransition(t *testing.T) {
	client := newMockClient()
	client.healthy = false
	s := newTestStore(client, nil)

	var events []FallbackEvent
	s.OnFallback(func(ev FallbackEvent) { events = append(events, ev) })

	// two writes during one outage: a single degrade transition
	if _, err := s.StoreBlob(context.Background(), []byte("a")); err != nil {
		t.Fatal(err)
	}
	if _, err := s.StoreBlob(context.Background(), []byte("b")); err != nil {
		t.Fatal(err)
	}

	if len(events) != 1 {
		t.Fatalf("events: got %d, want 1", len(events))
	}
	if events[0].Reason != ReasonHealthCheckFailed {
		t.Errorf("reason: got %q", events[0].Reason)
	}
}

func TestBlobExists(t *testing.T) {
	client := newMockClient()
	s := newTestStore(client, nil)

	remote, err := s.StoreBlob(context.Background(), []byte("remote"))
	if err != nil {
		t.Fatal(err)
	}

	client.failStore = true
	local, err := s.StoreBlob(context.Background(), []byte("local"))
	if err != nil {
		t.Fatal(err)
	}

	if !s.BlobExists(context.Background(), remote.BlobID) {
		t.Error("remote blob must exist")
	}
	if !s.BlobExists(context.Background(), local.BlobID) {
		t.Error("local blob must exist")
	}
	if s.BlobExists(context.Background(), "mock-0-00000000") {
		t.Error("unknown local id must not exist")
	}
	if s.BlobExists(context.Background(), "") {
		t.Error("empty id must not exist")
	}
}

func TestJSONRoundTrip(t *testing.T) {
	s := newTestStore(newMockClient(), nil)

	type doc struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}

	res, err := s.StoreJSON(context.Background(), doc{Name: "x", Count: 3})
	if err != nil {
		t.Fatalf("store: %v", err)
	}

	var got doc
	src, err := s.RetrieveJSON(context.Background(), res.BlobID, &got)
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if src != SourceRemote {
		t.Errorf("source: got %q", src)
	}
	if got.Name != "x" || got.Count != 3 {
		t.Errorf("round trip: %+v", got)
	}
}

func TestIsLocalID(t *testing.T) {
	if !IsLocalID("mock-123-abcd1234") {
		t.Error("mock prefix must read local")
	}
	if IsLocalID("walrus-abc") {
		t.Error("network id must not read local")
	}
}
