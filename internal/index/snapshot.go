package index

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/nocap-labs/factstore/internal/domain/fact"
)

// snapshotVersion guards the on-disk format.
const snapshotVersion = 1

// snapshot is the persisted form of the index: only the primary table.
// The derived multi-maps are rebuilt on load, so they never round-trip
// through disk.
type snapshot struct {
	Version int       `json:"version"`
	SavedAt time.Time `json:"saved_at"`
	Records []Record  `json:"records"`
}

// Save writes the primary table to path as JSON. The snapshot is a
// durability convenience: the storage-layer blobs remain authoritative and
// the index is fully rebuildable without it.
func (ix *Index) Save(path string) error {
	ix.mu.RLock()
	snap := snapshot{Version: snapshotVersion, SavedAt: time.Now().UTC()}
	snap.Records = make([]Record, 0, len(ix.records))
	for _, rec := range ix.records {
		snap.Records = append(snap.Records, rec)
	}
	ix.mu.RUnlock()

	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create snapshot dir: %w", err)
		}
	}

	// Write-then-rename so a crash mid-write never truncates the snapshot.
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename snapshot: %w", err)
	}
	return nil
}

// Load reads a snapshot from path and rebuilds the whole index from it.
// A missing file is not an error: the index stays empty. Malformed records
// are rejected explicitly rather than indexed half-parsed.
func (ix *Index) Load(path string) (int, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("read snapshot: %w", err)
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return 0, fmt.Errorf("parse snapshot: %w", err)
	}
	if snap.Version != snapshotVersion {
		return 0, fmt.Errorf("unsupported snapshot version %d", snap.Version)
	}

	for i, rec := range snap.Records {
		if err := validateRecord(rec); err != nil {
			return 0, fmt.Errorf("snapshot record %d: %w", i, err)
		}
	}
	for _, rec := range snap.Records {
		ix.Put(rec)
	}
	return len(snap.Records), nil
}

// validateRecord is the validate-on-read gate for persisted records.
func validateRecord(rec Record) error {
	if rec.ID == "" {
		return fmt.Errorf("missing id")
	}
	if rec.BlobID == "" {
		return fmt.Errorf("record %q has no blob address", rec.ID)
	}
	if !fact.Status(rec.Status).IsValid() {
		return fmt.Errorf("record %q has invalid status %q", rec.ID, rec.Status)
	}
	if rec.Version < 1 {
		return fmt.Errorf("record %q has invalid version %d", rec.ID, rec.Version)
	}
	if rec.Created.IsZero() {
		return fmt.Errorf("record %q has no creation time", rec.ID)
	}
	for _, t := range rec.Tags {
		if t.Name == "" || !fact.Category(t.Category).IsValid() {
			return fmt.Errorf("record %q has invalid tag %q/%q", rec.ID, t.Name, t.Category)
		}
	}
	return nil
}
