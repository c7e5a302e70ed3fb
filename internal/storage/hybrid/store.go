// Package hybrid presents a single store/retrieve API over the Walrus
// network with transparent fallback to an in-process store when the network
// is degraded. Callers always learn which path served them via Source.
//
// Fallback entries live only in process memory and are never replayed to
// the network after it recovers; content written locally during an outage
// stays local for the lifetime of the process.
package hybrid

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/nocap-labs/factstore/internal/domain"
	"github.com/nocap-labs/factstore/internal/metrics"
	"github.com/nocap-labs/factstore/internal/walrus"
)

// Defaults for hybrid store configuration.
const (
	// DefaultEpochs is the storage duration passed to the network per write.
	DefaultEpochs = 5
	// DefaultHealthInterval throttles health probes: within the window the
	// cached health flag is reused.
	DefaultHealthInterval = 5 * time.Minute
)

// State is the cached view of network health.
type State string

// Health states. Unknown holds until the first probe; a failed probe or a
// failed live call moves to Degraded; a successful probe moves back to
// Healthy.
const (
	StateUnknown  State = "unknown"
	StateHealthy  State = "healthy"
	StateDegraded State = "degraded"
)

// Source identifies which backend served a request.
type Source string

// Serving sources.
const (
	SourceRemote Source = "remote"
	SourceLocal  Source = "local"
)

// FallbackReason explains a degrade transition.
type FallbackReason string

// Degrade reasons.
const (
	ReasonHealthCheckFailed FallbackReason = "health-check-failed"
	ReasonStoreFailed       FallbackReason = "store-failed"
	ReasonRetrieveFailed    FallbackReason = "retrieve-failed"
)

// FallbackEvent is delivered to registered listeners on every degrade
// transition. Monitoring only, never control flow.
type FallbackEvent struct {
	Reason    FallbackReason
	Timestamp time.Time
}

// FallbackListener observes degrade transitions.
type FallbackListener func(FallbackEvent)

// BlobClient is the consumer interface over the Walrus transport.
type BlobClient interface {
	Store(ctx context.Context, data []byte, epochs int) (walrus.StoreReceipt, error)
	Retrieve(ctx context.Context, blobID string) (walrus.BlobContent, error)
	Exists(ctx context.Context, blobID string) bool
	HealthCheck(ctx context.Context) walrus.Health
	MaxBlobSize() int
}

// StoreResult is the outcome of a blob write, with provenance.
type StoreResult struct {
	BlobID      string
	Size        int
	EncodedSize int64
	Cost        int64
	Source      Source
}

// RetrieveResult is a retrieved blob, with provenance.
type RetrieveResult struct {
	Data        []byte
	ContentType string
	Size        int
	Source      Source
}

// Config holds hybrid store settings.
type Config struct {
	Epochs          int
	HealthInterval  time.Duration
	FallbackEnabled bool
	// Now is the clock used for probe throttling; nil means time.Now.
	Now    func() time.Time
	Logger *zap.Logger
}

// Store routes blob operations between the Walrus network and the local
// fallback store based on cached health state.
type Store struct {
	client          BlobClient
	epochs          int
	healthInterval  time.Duration
	fallbackEnabled bool
	now             func() time.Time
	logger          *zap.Logger

	mu        sync.Mutex
	state     State
	lastProbe time.Time
	local     *localStore
	listeners []FallbackListener
}

// NewStore creates a hybrid store over the given blob client.
func NewStore(client BlobClient, cfg Config) *Store {
	epochs := cfg.Epochs
	if epochs <= 0 {
		epochs = DefaultEpochs
	}
	interval := cfg.HealthInterval
	if interval <= 0 {
		interval = DefaultHealthInterval
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		client:          client,
		epochs:          epochs,
		healthInterval:  interval,
		fallbackEnabled: cfg.FallbackEnabled,
		now:             now,
		logger:          logger,
		state:           StateUnknown,
		local:           newLocalStore(),
	}
}

// OnFallback registers a listener for degrade transitions.
func (s *Store) OnFallback(fn FallbackListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// State returns the cached health state.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// StoreBlob writes data, preferring the network and falling back to the
// local store on any remote failure. With fallback disabled a failed remote
// write surfaces ErrStorageUnavailable.
func (s *Store) StoreBlob(ctx context.Context, data []byte) (StoreResult, error) {
	if len(data) == 0 {
		return StoreResult{}, fmt.Errorf("empty blob: %w", domain.ErrValidation)
	}
	if len(data) > s.client.MaxBlobSize() {
		return StoreResult{}, domain.NewBlobTooLarge(len(data), s.client.MaxBlobSize())
	}

	if s.ensureHealthy(ctx) {
		receipt, err := s.client.Store(ctx, data, s.epochs)
		if err == nil {
			metrics.StorageBlobsServed.WithLabelValues("store", string(SourceRemote)).Inc()
			return StoreResult{
				BlobID:      receipt.BlobID,
				Size:        len(data),
				EncodedSize: receipt.EncodedSize,
				Cost:        receipt.Cost,
				Source:      SourceRemote,
			}, nil
		}
		if errors.Is(err, domain.ErrValidation) {
			// Bad input is the caller's problem, not the network's.
			return StoreResult{}, err
		}
		s.degrade(ReasonStoreFailed)
		if !s.fallbackEnabled {
			return StoreResult{}, fmt.Errorf("remote store failed: %v: %w", err, domain.ErrStorageUnavailable)
		}
		s.logger.Warn("remote store failed, writing to local fallback", zap.Error(err))
		return s.storeLocal(data), nil
	}

	if !s.fallbackEnabled {
		return StoreResult{}, fmt.Errorf("network degraded and fallback disabled: %w", domain.ErrStorageUnavailable)
	}
	return s.storeLocal(data), nil
}

func (s *Store) storeLocal(data []byte) StoreResult {
	id := s.local.put(data, s.now())
	metrics.StorageBlobsServed.WithLabelValues("store", string(SourceLocal)).Inc()
	s.logger.Debug("blob stored locally", zap.String("blob_id", id), zap.Int("size", len(data)))
	return StoreResult{
		BlobID:      id,
		Size:        len(data),
		EncodedSize: int64(len(data)),
		Source:      SourceLocal,
	}
}

// RetrieveBlob reads a blob. Local ids are served from the fallback store
// and never reach the network. Remote-addressed content during an outage
// surfaces ErrBlobUnavailable: there is no fallback copy to serve, and the
// condition is transient rather than authoritative non-existence.
func (s *Store) RetrieveBlob(ctx context.Context, blobID string) (RetrieveResult, error) {
	if blobID == "" {
		return RetrieveResult{}, fmt.Errorf("blob id is required: %w", domain.ErrValidation)
	}

	if IsLocalID(blobID) {
		e, ok := s.local.get(blobID)
		if !ok {
			return RetrieveResult{}, fmt.Errorf("local blob %s: %w", blobID, domain.ErrBlobNotFound)
		}
		metrics.StorageBlobsServed.WithLabelValues("retrieve", string(SourceLocal)).Inc()
		return RetrieveResult{Data: e.data, Size: len(e.data), Source: SourceLocal}, nil
	}

	if !s.ensureHealthy(ctx) {
		return RetrieveResult{}, fmt.Errorf("blob %s: %w", blobID, domain.ErrBlobUnavailable)
	}

	content, err := s.client.Retrieve(ctx, blobID)
	if err != nil {
		if errors.Is(err, domain.ErrBlobNotFound) {
			return RetrieveResult{}, err
		}
		s.degrade(ReasonRetrieveFailed)
		return RetrieveResult{}, fmt.Errorf("blob %s: %v: %w", blobID, err, domain.ErrBlobUnavailable)
	}

	metrics.StorageBlobsServed.WithLabelValues("retrieve", string(SourceRemote)).Inc()
	return RetrieveResult{
		Data:        content.Data,
		ContentType: content.ContentType,
		Size:        len(content.Data),
		Source:      SourceRemote,
	}, nil
}

// StoreJSON marshals v and stores the bytes.
func (s *Store) StoreJSON(ctx context.Context, v any) (StoreResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return StoreResult{}, fmt.Errorf("marshal blob: %v: %w", err, domain.ErrValidation)
	}
	return s.StoreBlob(ctx, data)
}

// RetrieveJSON retrieves a blob and unmarshals it into v.
func (s *Store) RetrieveJSON(ctx context.Context, blobID string, v any) (Source, error) {
	res, err := s.RetrieveBlob(ctx, blobID)
	if err != nil {
		return "", err
	}
	if err := json.Unmarshal(res.Data, v); err != nil {
		return "", fmt.Errorf("unmarshal blob %s: %v: %w", blobID, err, domain.ErrIntegrity)
	}
	return res.Source, nil
}

// BlobExists reports whether a blob is resolvable right now. Local ids are
// checked against the fallback map, remote ids against the aggregator;
// a degraded network reads as false.
func (s *Store) BlobExists(ctx context.Context, blobID string) bool {
	if blobID == "" {
		return false
	}
	if IsLocalID(blobID) {
		_, ok := s.local.get(blobID)
		return ok
	}
	if !s.ensureHealthy(ctx) {
		return false
	}
	return s.client.Exists(ctx, blobID)
}

// LocalCount returns the number of entries held by the fallback store.
func (s *Store) LocalCount() int {
	return s.local.count()
}

// ensureHealthy returns the cached health flag, re-probing only when the
// throttle window has elapsed or the state is still unknown.
func (s *Store) ensureHealthy(ctx context.Context) bool {
	s.mu.Lock()
	state := s.state
	stale := state == StateUnknown || s.now().Sub(s.lastProbe) > s.healthInterval
	s.mu.Unlock()

	if !stale {
		return state == StateHealthy
	}
	return s.probe(ctx)
}

// probe runs one health check and records the transition.
func (s *Store) probe(ctx context.Context) bool {
	health := s.client.HealthCheck(ctx)

	s.mu.Lock()
	prev := s.state
	s.lastProbe = s.now()
	if health.OK() {
		s.state = StateHealthy
	} else {
		s.state = StateDegraded
	}
	next := s.state
	s.mu.Unlock()

	if next == StateDegraded && prev != StateDegraded {
		s.notifyFallback(ReasonHealthCheckFailed)
	}
	if next == StateHealthy && prev == StateDegraded {
		s.logger.Info("walrus network recovered",
			zap.Duration("publisher_latency", health.Publisher.Latency),
			zap.Duration("aggregator_latency", health.Aggregator.Latency),
		)
	}
	return next == StateHealthy
}

// degrade flips the health flag after a live-call failure.
func (s *Store) degrade(reason FallbackReason) {
	s.mu.Lock()
	prev := s.state
	s.state = StateDegraded
	s.lastProbe = s.now()
	s.mu.Unlock()

	if prev != StateDegraded {
		s.notifyFallback(reason)
	}
}

// notifyFallback fires listeners outside the lock.
func (s *Store) notifyFallback(reason FallbackReason) {
	event := FallbackEvent{Reason: reason, Timestamp: s.now()}
	metrics.StorageFallbacksTotal.WithLabelValues(string(reason)).Inc()
	s.logger.Warn("storage degraded", zap.String("reason", string(reason)))

	s.mu.Lock()
	listeners := make([]FallbackListener, len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(event)
	}
}
