package health

import "github.com/nocap-labs/factstore/internal/storage/hybrid"

// StorageStater reports the blob storage health state.
type StorageStater interface {
	State() hybrid.State
}

// IndexCounter reports the number of indexed facts.
type IndexCounter interface {
	Len() int
}
