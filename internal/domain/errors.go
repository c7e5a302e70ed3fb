package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation signals malformed input (bad shape, bad size). Never retried.
	ErrValidation = errors.New("validation failed")
	// ErrNetwork signals a transport-level failure talking to the storage network.
	ErrNetwork = errors.New("network error")
	// ErrFactNotFound signals a fact id unknown to the index.
	ErrFactNotFound = errors.New("fact not found")
	// ErrBlobNotFound signals a blob id the storage layer does not hold.
	ErrBlobNotFound = errors.New("blob not found")
	// ErrBlobUnavailable signals remote-addressed content that cannot be served
	// while the network is degraded. Callers must treat it as transient,
	// not as authoritative non-existence.
	ErrBlobUnavailable = errors.New("blob temporarily unavailable")
	// ErrStorageUnavailable signals that both the remote network and the
	// local fallback are out of reach for this call.
	ErrStorageUnavailable = errors.New("storage unavailable")
	// ErrIntegrity signals a retrieved record failing its content hash check.
	ErrIntegrity = errors.New("integrity check failed")
)

// BlobTooLargeError wraps ErrValidation with the offending and allowed sizes.
type BlobTooLargeError struct {
	Size    int
	MaxSize int
}

func (e *BlobTooLargeError) Error() string {
	return fmt.Sprintf("%s: blob size %d exceeds maximum %d", ErrValidation.Error(), e.Size, e.MaxSize)
}

func (e *BlobTooLargeError) Unwrap() error { return ErrValidation }

// NewBlobTooLarge creates a blob size violation error.
func NewBlobTooLarge(size, maxSize int) error {
	return &BlobTooLargeError{Size: size, MaxSize: maxSize}
}
