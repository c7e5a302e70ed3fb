package facts

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/nocap-labs/factstore/internal/domain"
)

func TestRetrieveMany_OrderPreserved(t *testing.T) {
	svc, _ := newTestService(t, newFakeBlobStore())

	ids := []string{"batch-a", "batch-b", "batch-c"}
	for _, id := range ids {
		if _, _, err := svc.CreateFact(context.Background(), validParams(id)); err != nil {
			t.Fatal(err)
		}
	}

	results := svc.RetrieveMany(context.Background(), ids)
	if len(results) != 3 {
		t.Fatalf("results: %d", len(results))
	}
	for i, r := range results {
		if r.Err() != nil {
			t.Errorf("slot %d: %v", i, r.Err())
		}
		if r.ID() != ids[i] {
			t.Errorf("slot %d: got %q, want %q", i, r.ID(), ids[i])
		}
		if got := r.Fact(); got.ID() != ids[i] {
			t.Errorf("slot %d fact: %q", i, got.ID())
		}
	}
}

func TestRetrieveMany_MixedResults(t *testing.T) {
	svc, _ := newTestService(t, newFakeBlobStore())

	if _, _, err := svc.CreateFact(context.Background(), validParams("present")); err != nil {
		t.Fatal(err)
	}

	results := svc.RetrieveMany(context.Background(), []string{"present", "absent", "present"})
	if results[0].Err() != nil || results[2].Err() != nil {
		t.Errorf("known ids failed: %v / %v", results[0].Err(), results[2].Err())
	}
	if !errors.Is(results[1].Err(), domain.ErrFactNotFound) {
		t.Errorf("slot 1: want ErrFactNotFound, got %v", results[1].Err())
	}
	if results[1].ID() != "absent" {
		t.Errorf("failed slot keeps its id: %q", results[1].ID())
	}
}

func TestRetrieveMany_OversizeBatch(t *testing.T) {
	svc, _ := newTestService(t, newFakeBlobStore())

	ids := make([]string, MaxBatchSize+1)
	for i := range ids {
		ids[i] = fmt.Sprintf("id-%d", i)
	}

	results := svc.RetrieveMany(context.Background(), ids)
	if len(results) != len(ids) {
		t.Fatalf("results: %d", len(results))
	}
	for i, r := range results {
		if !errors.Is(r.Err(), domain.ErrValidation) {
			t.Fatalf("slot %d: want ErrValidation, got %v", i, r.Err())
		}
	}
}

func TestRetrieveMany_Empty(t *testing.T) {
	svc, _ := newTestService(t, newFakeBlobStore())

	results := svc.RetrieveMany(context.Background(), nil)
	if len(results) != 0 {
		t.Errorf("results: %d", len(results))
	}
}
