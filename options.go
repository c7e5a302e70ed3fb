package factstore

import (
	"time"

	"go.uber.org/zap"

	"github.com/nocap-labs/factstore/internal/usecase/facts"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	publisherURL  string
	aggregatorURL string
	epochs        int
	maxBlobSize   int
	probeTimeout  time.Duration

	fallback       bool
	healthInterval time.Duration

	persistPath string
	logger      *zap.Logger
	now         func() time.Time

	// test seam: replaces the wired walrus-backed hybrid store
	blobs facts.BlobStore
}

// WithWalrus configures the Walrus publisher and aggregator endpoints.
func WithWalrus(publisherURL, aggregatorURL string) Option {
	return optionFunc(func(c *clientConfig) {
		c.publisherURL = publisherURL
		c.aggregatorURL = aggregatorURL
	})
}

// WithEpochs sets the storage duration for new blobs in Walrus epochs.
func WithEpochs(epochs int) Option {
	return optionFunc(func(c *clientConfig) {
		c.epochs = epochs
	})
}

// WithMaxBlobSize caps the size of a single stored blob in bytes.
func WithMaxBlobSize(size int) Option {
	return optionFunc(func(c *clientConfig) {
		c.maxBlobSize = size
	})
}

// WithProbeTimeout bounds each endpoint health probe.
func WithProbeTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.probeTimeout = d
	})
}

// WithoutFallback disables the local in-memory fallback store. Writes fail
// with a storage error while the network is unreachable.
func WithoutFallback() Option {
	return optionFunc(func(c *clientConfig) {
		c.fallback = false
	})
}

// WithHealthInterval sets how long a cached health verdict is trusted before
// the network is probed again.
func WithHealthInterval(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.healthInterval = d
	})
}

// WithPersistence enables index snapshots at path after every mutation.
func WithPersistence(path string) Option {
	return optionFunc(func(c *clientConfig) {
		c.persistPath = path
	})
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = logger
	})
}

// withBlobStore injects a blob store, bypassing the Walrus wiring. Test seam.
func withBlobStore(blobs facts.BlobStore) Option {
	return optionFunc(func(c *clientConfig) {
		c.blobs = blobs
	})
}

// withClock injects a clock. Test seam.
func withClock(now func() time.Time) Option {
	return optionFunc(func(c *clientConfig) {
		c.now = now
	})
}
