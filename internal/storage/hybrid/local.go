package hybrid

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// localIDPrefix marks blob ids minted by the fallback store. Such ids are
// never valid on the network, so retrieval of them never falls through to
// the aggregator.
const localIDPrefix = "mock-"

// IsLocalID reports whether blobID was minted by the local fallback store.
func IsLocalID(blobID string) bool {
	return strings.HasPrefix(blobID, localIDPrefix)
}

// entry is one fallback-held blob. Entries have no identity beyond their id
// and are lost on process restart.
type entry struct {
	data     []byte
	storedAt time.Time
	size     int
}

// localStore is the in-memory fallback backend.
type localStore struct {
	mu      sync.RWMutex
	entries map[string]entry
}

func newLocalStore() *localStore {
	return &localStore{entries: make(map[string]entry)}
}

// put stores a copy of data under a fresh mock id.
func (l *localStore) put(data []byte, now time.Time) string {
	id := fmt.Sprintf("%s%d-%s", localIDPrefix, now.UnixMilli(), uuid.NewString()[:8])

	buf := make([]byte, len(data))
	copy(buf, data)

	l.mu.Lock()
	l.entries[id] = entry{data: buf, storedAt: now, size: len(buf)}
	l.mu.Unlock()
	return id
}

func (l *localStore) get(id string) (entry, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	e, ok := l.entries[id]
	return e, ok
}

func (l *localStore) count() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}
