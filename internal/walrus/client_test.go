package walrus

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/nocap-labs/factstore/internal/domain"
)

func newTestClient(publisher, aggregator *httptest.Server) *Client {
	cfg := Config{MaxBlobSize: 1 << 20}
	if publisher != nil {
		cfg.PublisherURL = publisher.URL
	}
	if aggregator != nil {
		cfg.AggregatorURL = aggregator.URL
	}
	return NewClient(cfg)
}

func TestStore_NewlyCreated(t *testing.T) {
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("method: got %s", r.Method)
		}
		if r.URL.Path != "/v1/store" {
			t.Errorf("path: got %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("epochs"); got != "5" {
			t.Errorf("epochs: got %s", got)
		}
		gotBody, _ = io.ReadAll(r.Body)
		fmt.Fprint(w, `{"newlyCreated":{"blobObject":{"blobId":"walrus-abc","size":1234},"cost":77}}`)
	}))
	defer srv.Close()

	receipt, err := newTestClient(srv, nil).Store(context.Background(), []byte("payload"), 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if receipt.BlobID != "walrus-abc" {
		t.Errorf("blob id: got %q", receipt.BlobID)
	}
	if receipt.EncodedSize != 1234 || receipt.Cost != 77 {
		t.Errorf("receipt: %+v", receipt)
	}
	if string(gotBody) != "payload" {
		t.Errorf("body: got %q", gotBody)
	}
}

func TestStore_AlreadyCertified(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"alreadyCertified":{"blobId":"walrus-dup"}}`)
	}))
	defer srv.Close()

	receipt, err := newTestClient(srv, nil).Store(context.Background(), []byte("same bytes"), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if receipt.BlobID != "walrus-dup" {
		t.Errorf("blob id: got %q", receipt.BlobID)
	}
	if receipt.EncodedSize != int64(len("same bytes")) {
		t.Errorf("encoded size: got %d", receipt.EncodedSize)
	}
}

func TestStore_TooLarge(t *testing.T) {
	c := NewClient(Config{PublisherURL: "http://publisher", MaxBlobSize: 4})

	_, err := c.Store(context.Background(), []byte("too big"), 1)
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("want ErrValidation, got %v", err)
	}
	var btl *domain.BlobTooLargeError
	if !errors.As(err, &btl) {
		t.Fatal("want BlobTooLargeError")
	}
	if btl.Size != 7 || btl.MaxSize != 4 {
		t.Errorf("sizes: %+v", btl)
	}
}

func TestStore_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := newTestClient(srv, nil).Store(context.Background(), []byte("x"), 1)
	if !errors.Is(err, domain.ErrNetwork) {
		t.Fatalf("want ErrNetwork, got %v", err)
	}
}

func TestStore_EmptyResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{}`)
	}))
	defer srv.Close()

	_, err := newTestClient(srv, nil).Store(context.Background(), []byte("x"), 1)
	if !errors.Is(err, domain.ErrNetwork) {
		t.Fatalf("want ErrNetwork, got %v", err)
	}
}

func TestRetrieve_OK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/walrus-abc" {
			t.Errorf("path: got %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/octet-stream")
		fmt.Fprint(w, "blob bytes")
	}))
	defer srv.Close()

	content, err := newTestClient(nil, srv).Retrieve(context.Background(), "walrus-abc")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(content.Data) != "blob bytes" {
		t.Errorf("data: got %q", content.Data)
	}
	if content.Size != int64(len("blob bytes")) {
		t.Errorf("size: got %d", content.Size)
	}
	if content.ContentType != "application/octet-stream" {
		t.Errorf("content type: got %q", content.ContentType)
	}
}

func TestRetrieve_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := newTestClient(nil, srv).Retrieve(context.Background(), "gone")
	if !errors.Is(err, domain.ErrBlobNotFound) {
		t.Fatalf("want ErrBlobNotFound, got %v", err)
	}
}

func TestRetrieve_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := newTestClient(nil, srv).Retrieve(context.Background(), "x")
	if !errors.Is(err, domain.ErrNetwork) {
		t.Fatalf("want ErrNetwork, got %v", err)
	}
}

func TestRetrieve_EmptyID(t *testing.T) {
	c := NewClient(Config{AggregatorURL: "http://aggregator"})
	_, err := c.Retrieve(context.Background(), "")
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("want ErrValidation, got %v", err)
	}
}

func TestExists(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodHead {
			t.Errorf("method: got %s", r.Method)
		}
		if r.URL.Path == "/v1/held" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := newTestClient(nil, srv)
	if !c.Exists(context.Background(), "held") {
		t.Error("held blob must exist")
	}
	if c.Exists(context.Background(), "missing") {
		t.Error("missing blob must not exist")
	}
	if c.Exists(context.Background(), "") {
		t.Error("empty id must read false")
	}
}

func TestExists_NetworkFailureReadsFalse(t *testing.T) {
	c := NewClient(Config{AggregatorURL: "http://127.0.0.1:1"})
	if c.Exists(context.Background(), "any") {
		t.Error("unreachable endpoint must read false")
	}
}

func TestHealthCheck_BothHealthy(t *testing.T) {
	pub := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// HEAD on the store route answers 405; the endpoint is still up
		w.WriteHeader(http.StatusMethodNotAllowed)
	}))
	defer pub.Close()
	agg := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer agg.Close()

	h := newTestClient(pub, agg).HealthCheck(context.Background())
	if !h.OK() {
		t.Errorf("want healthy, got %+v", h)
	}
}

func TestHealthCheck_PublisherDown(t *testing.T) {
	agg := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer agg.Close()

	c := NewClient(Config{PublisherURL: "http://127.0.0.1:1", AggregatorURL: agg.URL})
	h := c.HealthCheck(context.Background())
	if h.OK() {
		t.Error("want unhealthy")
	}
	if h.Publisher.Status != StatusUnhealthy {
		t.Errorf("publisher: got %q", h.Publisher.Status)
	}
	if h.Aggregator.Status != StatusHealthy {
		t.Errorf("aggregator: got %q", h.Aggregator.Status)
	}
}

func TestHealthCheck_ServerErrorIsUnhealthy(t *testing.T) {
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer bad.Close()

	h := newTestClient(bad, bad).HealthCheck(context.Background())
	if h.OK() {
		t.Error("5xx probes must read unhealthy")
	}
}
