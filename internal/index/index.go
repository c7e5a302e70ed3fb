// Package index maintains the derived, rebuildable in-memory search index
// over fact metadata. The primary table (id -> Record) is canonical within
// the index; the keyword/tag/author/status multi-maps are redundant views
// rebuilt deterministically from it.
package index

import (
	"sort"
	"sync"
	"time"

	"github.com/nocap-labs/factstore/internal/domain/fact"
	"github.com/nocap-labs/factstore/internal/domain/search"
)

// TagRef is the serialized form of a fact tag.
type TagRef struct {
	Name     string `json:"name"`
	Category string `json:"category"`
}

// Record is the indexed metadata for one fact: everything search results
// display, plus the blob address resolving to the full document.
type Record struct {
	ID          string    `json:"id"`
	BlobID      string    `json:"blob_id"`
	ContentHash string    `json:"content_hash,omitempty"`
	Title       string    `json:"title"`
	Summary     string    `json:"summary"`
	Author      string    `json:"author"`
	Status      string    `json:"status"`
	Tags        []TagRef  `json:"tags,omitempty"`
	Keywords    []string  `json:"keywords,omitempty"`
	Created     time.Time `json:"created"`
	Updated     time.Time `json:"updated"`
	Version     int       `json:"version"`
	Votes       int       `json:"votes"`
	Comments    int       `json:"comments"`
	Importance  float64   `json:"importance,omitempty"`
	Region      string    `json:"region,omitempty"`
}

// SearchResult is a page of matching records with the pre-pagination total.
type SearchResult struct {
	Records []Record
	Total   int
	Took    time.Duration
}

// Stats summarizes index contents.
type Stats struct {
	Facts     int
	Keywords  int
	Tags      int
	Authors   int
	SizeBytes int
}

type idSet map[string]struct{}

// Index is the in-memory multi-map fact index. All methods are safe for
// concurrent use; each mutation updates every map under one lock so readers
// never observe a partially indexed fact.
type Index struct {
	mu        sync.RWMutex
	records   map[string]Record
	byKeyword map[string]idSet
	byTag     map[string]idSet
	byAuthor  map[string]idSet
	byStatus  map[string]idSet
}

// New creates an empty index.
func New() *Index {
	return &Index{
		records:   make(map[string]Record),
		byKeyword: make(map[string]idSet),
		byTag:     make(map[string]idSet),
		byAuthor:  make(map[string]idSet),
		byStatus:  make(map[string]idSet),
	}
}

// Put indexes a record, replacing any previous entry for the same id.
// Keywords are extracted from title+summary and unioned with rec.Keywords.
func (ix *Index) Put(rec Record) {
	keys := indexKeys(rec)
	rec.Keywords = keys.keywords

	ix.mu.Lock()
	defer ix.mu.Unlock()

	if old, ok := ix.records[rec.ID]; ok {
		ix.removeLocked(old)
	}
	ix.records[rec.ID] = rec
	for _, k := range keys.keywords {
		addTo(ix.byKeyword, k, rec.ID)
	}
	for _, t := range keys.tags {
		addTo(ix.byTag, t, rec.ID)
	}
	if keys.author != "" {
		addTo(ix.byAuthor, keys.author, rec.ID)
	}
	addTo(ix.byStatus, rec.Status, rec.ID)
}

// Remove deletes all index entries for id. Returns false if id is unknown.
func (ix *Index) Remove(id string) bool {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	rec, ok := ix.records[id]
	if !ok {
		return false
	}
	ix.removeLocked(rec)
	return true
}

// removeLocked removes rec from every map, deleting emptied buckets so key
// churn does not grow the maps without bound.
func (ix *Index) removeLocked(rec Record) {
	delete(ix.records, rec.ID)
	keys := indexKeys(rec)
	for _, k := range keys.keywords {
		removeFrom(ix.byKeyword, k, rec.ID)
	}
	for _, t := range keys.tags {
		removeFrom(ix.byTag, t, rec.ID)
	}
	if keys.author != "" {
		removeFrom(ix.byAuthor, keys.author, rec.ID)
	}
	removeFrom(ix.byStatus, rec.Status, rec.ID)
}

// Get returns the record for id.
func (ix *Index) Get(id string) (Record, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	rec, ok := ix.records[id]
	return rec, ok
}

// BlobID resolves a fact id to its current blob address.
func (ix *Index) BlobID(id string) (string, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	rec, ok := ix.records[id]
	if !ok {
		return "", false
	}
	return rec.BlobID, true
}

// Len returns the number of indexed facts.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.records)
}

// AllIDs returns every indexed fact id in unspecified order.
func (ix *Index) AllIDs() []string {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	ids := make([]string, 0, len(ix.records))
	for id := range ix.records {
		ids = append(ids, id)
	}
	return ids
}

// Search evaluates a query: keywords intersect, the other dimensions union
// within themselves and intersect across, date bounds are inclusive. Results
// are ordered by creation time descending, then paginated.
func (ix *Index) Search(q *search.Query) SearchResult {
	start := time.Now()

	ix.mu.RLock()
	var candidates idSet
	restricted := false

	for _, kw := range q.Keywords() {
		bucket := ix.byKeyword[kw]
		if len(bucket) == 0 {
			// A keyword nobody matches empties the result, it is not ignored.
			candidates, restricted = idSet{}, true
			break
		}
		candidates = intersect(candidates, bucket, restricted)
		restricted = true
	}

	for _, dim := range []struct {
		terms  []string
		bucket map[string]idSet
	}{
		{q.Tags(), ix.byTag},
		{statusTerms(q.Statuses()), ix.byStatus},
		{q.Authors(), ix.byAuthor},
	} {
		if len(dim.terms) == 0 {
			continue
		}
		union := idSet{}
		for _, t := range dim.terms {
			for id := range dim.bucket[t] {
				union[id] = struct{}{}
			}
		}
		candidates = intersect(candidates, union, restricted)
		restricted = true
	}

	if !restricted {
		candidates = idSet{}
		for id := range ix.records {
			candidates[id] = struct{}{}
		}
	}

	matched := make([]Record, 0, len(candidates))
	for id := range candidates {
		rec := ix.records[id]
		if q.From() != nil && rec.Created.Before(*q.From()) {
			continue
		}
		if q.To() != nil && rec.Created.After(*q.To()) {
			continue
		}
		matched = append(matched, rec)
	}
	ix.mu.RUnlock()

	sortByRecency(matched)
	total := len(matched)
	page := paginate(matched, q.Limit(), q.Offset())

	return SearchResult{Records: page, Total: total, Took: time.Since(start)}
}

// List returns all facts ordered by creation time descending, paginated.
// limit 0 means no limit.
func (ix *Index) List(limit, offset int) SearchResult {
	start := time.Now()

	ix.mu.RLock()
	all := make([]Record, 0, len(ix.records))
	for _, rec := range ix.records {
		all = append(all, rec)
	}
	ix.mu.RUnlock()

	sortByRecency(all)
	total := len(all)
	page := paginate(all, limit, offset)

	return SearchResult{Records: page, Total: total, Took: time.Since(start)}
}

// Stats returns index size counters and a byte-size estimate of the
// serialized primary table.
func (ix *Index) Stats() Stats {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	size := 0
	for _, rec := range ix.records {
		size += recordSizeEstimate(rec)
	}
	return Stats{
		Facts:     len(ix.records),
		Keywords:  len(ix.byKeyword),
		Tags:      len(ix.byTag),
		Authors:   len(ix.byAuthor),
		SizeBytes: size,
	}
}

// indexedKeys holds the normalized keys one record contributes to each map.
type indexedKeys struct {
	keywords []string
	tags     []string
	author   string
}

func indexKeys(rec Record) indexedKeys {
	tagNames := make([]string, 0, len(rec.Tags))
	for _, t := range rec.Tags {
		tagNames = append(tagNames, normalizeTerm(t.Name))
	}
	return indexedKeys{
		keywords: ExtractKeywords(rec.Title, rec.Summary, rec.Keywords),
		tags:     dedupe(tagNames),
		author:   normalizeTerm(rec.Author),
	}
}

func statusTerms(statuses []fact.Status) []string {
	out := make([]string, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, string(s))
	}
	return out
}

func addTo(m map[string]idSet, key, id string) {
	set, ok := m[key]
	if !ok {
		set = idSet{}
		m[key] = set
	}
	set[id] = struct{}{}
}

func removeFrom(m map[string]idSet, key, id string) {
	set, ok := m[key]
	if !ok {
		return
	}
	delete(set, id)
	if len(set) == 0 {
		delete(m, key)
	}
}

// intersect narrows the running candidate set by next. When the running set
// is still the implicit universe (restricted=false), next becomes the set.
func intersect(running, next idSet, restricted bool) idSet {
	if !restricted {
		out := make(idSet, len(next))
		for id := range next {
			out[id] = struct{}{}
		}
		return out
	}
	out := idSet{}
	for id := range running {
		if _, ok := next[id]; ok {
			out[id] = struct{}{}
		}
	}
	return out
}

// sortByRecency orders most recent first; ties break on id for a stable
// order across paginated calls.
func sortByRecency(recs []Record) {
	sort.Slice(recs, func(i, j int) bool {
		if !recs[i].Created.Equal(recs[j].Created) {
			return recs[i].Created.After(recs[j].Created)
		}
		return recs[i].ID < recs[j].ID
	})
}

func paginate(recs []Record, limit, offset int) []Record {
	if offset >= len(recs) {
		return []Record{}
	}
	recs = recs[offset:]
	if limit > 0 && limit < len(recs) {
		recs = recs[:limit]
	}
	out := make([]Record, len(recs))
	copy(out, recs)
	return out
}

// recordSizeEstimate approximates the serialized size of one record without
// marshaling it.
func recordSizeEstimate(rec Record) int {
	n := len(rec.ID) + len(rec.BlobID) + len(rec.Title) + len(rec.Summary) +
		len(rec.Author) + len(rec.Status) + len(rec.Region) + 96
	for _, t := range rec.Tags {
		n += len(t.Name) + len(t.Category) + 8
	}
	for _, k := range rec.Keywords {
		n += len(k) + 4
	}
	return n
}
