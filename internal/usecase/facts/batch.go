package facts

import (
	"context"
	"fmt"
	"sync"

	"github.com/nocap-labs/factstore/internal/domain"
	"github.com/nocap-labs/factstore/internal/domain/fact"
)

// MaxBatchSize is the maximum number of ids per bulk retrieval.
const MaxBatchSize = 100

// Result is the outcome of one item in a bulk operation.
type Result struct {
	id   string
	fact fact.Fact
	err  error
}

// NewOK creates a successful bulk result.
func NewOK(id string, f fact.Fact) Result { return Result{id: id, fact: f} }

// NewError creates a failed bulk result.
func NewError(id string, err error) Result { return Result{id: id, err: err} }

// ID returns the item identifier.
func (r Result) ID() string { return r.id }

// Fact returns the retrieved fact; zero value when Err is set.
func (r Result) Fact() fact.Fact { return r.fact }

// Err returns the error, if any.
func (r Result) Err() error { return r.err }

// RetrieveMany fetches facts in parallel on the worker pool. Individual
// failures never abort the batch; each input id gets its own result slot,
// in input order.
func (s *Service) RetrieveMany(ctx context.Context, ids []string) []Result {
	results := make([]Result, len(ids))

	if len(ids) > MaxBatchSize {
		for i, id := range ids {
			results[i] = NewError(id, fmt.Errorf("batch size exceeds %d: %w", MaxBatchSize, domain.ErrValidation))
		}
		return results
	}

	var wg sync.WaitGroup
	for i, id := range ids {
		wg.Add(1)
		submitErr := s.pool.Submit(func() {
			defer wg.Done()
			f, err := s.RetrieveFact(ctx, id)
			if err != nil {
				results[i] = NewError(id, err)
				return
			}
			results[i] = NewOK(id, f)
		})
		if submitErr != nil {
			wg.Done()
			results[i] = NewError(id, fmt.Errorf("submit retrieval: %w", submitErr))
		}
	}
	wg.Wait()

	return results
}
