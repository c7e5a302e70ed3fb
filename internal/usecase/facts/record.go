package facts

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nocap-labs/factstore/internal/domain/fact"
	"github.com/nocap-labs/factstore/internal/index"
)

// blobRecord is the wire format of a fact as stored on the network.
// Updates re-serialize the whole record, never a diff.
type blobRecord struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Summary     string         `json:"summary,omitempty"`
	FullContent string         `json:"full_content,omitempty"`
	Sources     []string       `json:"sources,omitempty"`
	Author      string         `json:"author,omitempty"`
	Created     time.Time      `json:"created"`
	Updated     time.Time      `json:"updated"`
	Version     int            `json:"version"`
	Tags        []index.TagRef `json:"tags,omitempty"`
	Importance  float64        `json:"importance,omitempty"`
	Region      string         `json:"region,omitempty"`
	Status      string         `json:"status"`
	Votes       int            `json:"votes"`
	Comments    int            `json:"comments"`
}

// serializeFact produces the canonical blob bytes and their content hash.
func serializeFact(f *fact.Fact) ([]byte, string, error) {
	rec := blobRecord{
		ID:          f.ID(),
		Title:       f.Title(),
		Summary:     f.Summary(),
		FullContent: f.FullContent(),
		Sources:     f.Sources(),
		Author:      f.Author(),
		Created:     f.Created(),
		Updated:     f.Updated(),
		Version:     f.Version(),
		Tags:        tagRefs(f.Tags()),
		Importance:  f.Importance(),
		Region:      f.Region(),
		Status:      string(f.Status()),
		Votes:       f.Votes(),
		Comments:    f.Comments(),
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, "", fmt.Errorf("marshal fact %s: %w", f.ID(), err)
	}
	sum := sha256.Sum256(data)
	return data, hex.EncodeToString(sum[:]), nil
}

// parseBlobRecord is the validate-on-read gate at the storage boundary:
// persisted bytes that do not form a well-formed fact are rejected, not
// half-hydrated.
func parseBlobRecord(data []byte) (blobRecord, error) {
	var rec blobRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return blobRecord{}, fmt.Errorf("parse fact blob: %w", err)
	}
	if rec.ID == "" {
		return blobRecord{}, fmt.Errorf("fact blob has no id")
	}
	if rec.Title == "" {
		return blobRecord{}, fmt.Errorf("fact blob %q has no title", rec.ID)
	}
	if !fact.Status(rec.Status).IsValid() {
		return blobRecord{}, fmt.Errorf("fact blob %q has invalid status %q", rec.ID, rec.Status)
	}
	if rec.Version < 1 {
		return blobRecord{}, fmt.Errorf("fact blob %q has invalid version %d", rec.ID, rec.Version)
	}
	if rec.Created.IsZero() {
		return blobRecord{}, fmt.Errorf("fact blob %q has no creation time", rec.ID)
	}
	for _, t := range rec.Tags {
		if t.Name == "" || !fact.Category(t.Category).IsValid() {
			return blobRecord{}, fmt.Errorf("fact blob %q has invalid tag %q/%q", rec.ID, t.Name, t.Category)
		}
	}
	return rec, nil
}

// hydrateFact rebuilds the domain aggregate from a parsed blob record.
func hydrateFact(rec blobRecord, blobID, contentHash string) fact.Fact {
	return fact.Reconstruct(
		fact.Params{
			ID:          rec.ID,
			Title:       rec.Title,
			Summary:     rec.Summary,
			FullContent: rec.FullContent,
			Sources:     rec.Sources,
			Author:      rec.Author,
			Tags:        domainTags(rec.Tags),
			Importance:  rec.Importance,
			Region:      rec.Region,
			Status:      fact.Status(rec.Status),
		},
		rec.Created, rec.Updated, rec.Version, rec.Votes, rec.Comments,
		blobID, contentHash,
	)
}

// indexRecord builds the searchable metadata entry for a stored fact.
func indexRecord(f *fact.Fact) index.Record {
	return index.Record{
		ID:          f.ID(),
		BlobID:      f.BlobID(),
		ContentHash: f.ContentHash(),
		Title:       f.Title(),
		Summary:     f.Summary(),
		Author:      f.Author(),
		Status:      string(f.Status()),
		Tags:        tagRefs(f.Tags()),
		Created:     f.Created(),
		Updated:     f.Updated(),
		Version:     f.Version(),
		Votes:       f.Votes(),
		Comments:    f.Comments(),
		Importance:  f.Importance(),
		Region:      f.Region(),
	}
}

func tagRefs(tags []fact.Tag) []index.TagRef {
	if len(tags) == 0 {
		return nil
	}
	out := make([]index.TagRef, len(tags))
	for i, t := range tags {
		out[i] = index.TagRef{Name: t.Name, Category: string(t.Category)}
	}
	return out
}

func domainTags(refs []index.TagRef) []fact.Tag {
	if len(refs) == 0 {
		return nil
	}
	out := make([]fact.Tag, len(refs))
	for i, r := range refs {
		out[i] = fact.Tag{Name: r.Name, Category: fact.Category(r.Category)}
	}
	return out
}

func contentHashOf(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
