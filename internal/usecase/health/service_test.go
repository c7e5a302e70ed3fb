package health

import (
	"context"
	"testing"

	"github.com/nocap-labs/factstore/internal/storage/hybrid"
)

// --- Mocks ---

type mockStorage struct {
	state hybrid.State
}

func (m *mockStorage) State() hybrid.State { return m.state }

type mockIndex struct {
	n int
}

func (m *mockIndex) Len() int { return m.n }

// --- Tests ---

func TestCheck_AllHealthy(t *testing.T) {
	svc := New(&mockStorage{state: hybrid.StateHealthy}, &mockIndex{n: 42})
	r := svc.Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
	if r.Checks["storage"] != CheckOK {
		t.Errorf("expected storage %q, got %q", CheckOK, r.Checks["storage"])
	}
	if r.Checks["index"] != CheckOK {
		t.Errorf("expected index %q, got %q", CheckOK, r.Checks["index"])
	}
	if r.Facts != 42 {
		t.Errorf("expected 42 facts, got %d", r.Facts)
	}
}

func TestCheck_UnknownStorageIsHealthy(t *testing.T) {
	svc := New(&mockStorage{state: hybrid.StateUnknown}, &mockIndex{})
	r := svc.Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
	if r.Checks["storage"] != CheckOK {
		t.Errorf("expected storage %q, got %q", CheckOK, r.Checks["storage"])
	}
}

func TestCheck_DegradedStorage(t *testing.T) {
	svc := New(&mockStorage{state: hybrid.StateDegraded}, &mockIndex{n: 3})
	r := svc.Check(context.Background())

	if r.Status != Degraded {
		t.Errorf("expected %q, got %q", Degraded, r.Status)
	}
	if r.Checks["storage"] != CheckError {
		t.Errorf("expected storage %q, got %q", CheckError, r.Checks["storage"])
	}
	if r.Checks["index"] != CheckOK {
		t.Errorf("expected index %q, got %q", CheckOK, r.Checks["index"])
	}
}

func TestCheck_NoIndex(t *testing.T) {
	svc := New(&mockStorage{state: hybrid.StateHealthy}, nil)
	r := svc.Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
	if _, ok := r.Checks["index"]; ok {
		t.Error("index check should be absent when index is nil")
	}
	if r.Facts != 0 {
		t.Errorf("expected 0 facts, got %d", r.Facts)
	}
}
