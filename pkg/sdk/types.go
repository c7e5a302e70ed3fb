package sdk

import "time"

// Tag is a categorized label attached to a fact.
type Tag struct {
	Name     string `json:"name"`
	Category string `json:"category"`
}

// CreateFactRequest is the body of POST /api/v1/facts.
type CreateFactRequest struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Summary     string   `json:"summary,omitempty"`
	FullContent string   `json:"full_content,omitempty"`
	Sources     []string `json:"sources,omitempty"`
	Author      string   `json:"author,omitempty"`
	Tags        []Tag    `json:"tags,omitempty"`
	Importance  float64  `json:"importance,omitempty"`
	Region      string   `json:"region,omitempty"`
	Status      string   `json:"status,omitempty"`
}

// PatchFactRequest is the body of PATCH /api/v1/facts/{id}. Absent fields
// are unchanged; sources and tags replace the whole list when present.
type PatchFactRequest struct {
	Title       *string  `json:"title,omitempty"`
	Summary     *string  `json:"summary,omitempty"`
	FullContent *string  `json:"full_content,omitempty"`
	Sources     []string `json:"sources,omitempty"`
	Status      *string  `json:"status,omitempty"`
	Tags        *[]Tag   `json:"tags,omitempty"`
	Importance  *float64 `json:"importance,omitempty"`
	Region      *string  `json:"region,omitempty"`
	Votes       *int     `json:"votes,omitempty"`
	Comments    *int     `json:"comments,omitempty"`
}

// SearchRequest is the body of POST /api/v1/facts/search.
type SearchRequest struct {
	Keywords []string   `json:"keywords,omitempty"`
	Tags     []string   `json:"tags,omitempty"`
	Authors  []string   `json:"authors,omitempty"`
	Statuses []string   `json:"statuses,omitempty"`
	From     *time.Time `json:"from,omitempty"`
	To       *time.Time `json:"to,omitempty"`
	Limit    int        `json:"limit,omitempty"`
	Offset   int        `json:"offset,omitempty"`
}

// Fact is the full materialized fact document.
type Fact struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Summary     string    `json:"summary,omitempty"`
	FullContent string    `json:"full_content,omitempty"`
	Sources     []string  `json:"sources,omitempty"`
	Author      string    `json:"author,omitempty"`
	Tags        []Tag     `json:"tags,omitempty"`
	Importance  float64   `json:"importance,omitempty"`
	Region      string    `json:"region,omitempty"`
	Status      string    `json:"status"`
	Votes       int       `json:"votes"`
	Comments    int       `json:"comments"`
	Version     int       `json:"version"`
	Created     time.Time `json:"created"`
	Updated     time.Time `json:"updated"`
	BlobID      string    `json:"blob_id,omitempty"`
	ContentHash string    `json:"content_hash,omitempty"`
}

// Receipt describes where one fact version landed.
type Receipt struct {
	BlobID  string `json:"blob_id"`
	Size    int    `json:"size"`
	Version int    `json:"version"`
	Source  string `json:"source"`
}

// CreatedFact pairs a created fact with its storage receipt.
type CreatedFact struct {
	Fact    Fact    `json:"fact"`
	Receipt Receipt `json:"receipt"`
}

// Record is the index projection returned by search and list.
type Record struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Summary    string    `json:"summary,omitempty"`
	Author     string    `json:"author,omitempty"`
	Status     string    `json:"status"`
	Tags       []Tag     `json:"tags,omitempty"`
	Importance float64   `json:"importance,omitempty"`
	Region     string    `json:"region,omitempty"`
	Votes      int       `json:"votes"`
	Comments   int       `json:"comments"`
	Version    int       `json:"version"`
	Created    time.Time `json:"created"`
	Updated    time.Time `json:"updated"`
	BlobID     string    `json:"blob_id"`
}

// SearchPage is a page of index records.
type SearchPage struct {
	Items  []Record `json:"items"`
	Total  int      `json:"total"`
	Limit  int      `json:"limit"`
	Offset int      `json:"offset"`
	TookMs int64    `json:"took_ms"`
}

// BatchItem is one outcome of a batch retrieve. Exactly one of Fact and
// Error is set.
type BatchItem struct {
	ID    string    `json:"id"`
	Fact  *Fact     `json:"fact,omitempty"`
	Error *APIError `json:"error,omitempty"`
}

// BatchPage aggregates batch retrieve outcomes.
type BatchPage struct {
	Items     []BatchItem `json:"items"`
	Succeeded int         `json:"succeeded"`
	Failed    int         `json:"failed"`
}

// Stats summarizes index and storage contents.
type Stats struct {
	Facts        int    `json:"facts"`
	Keywords     int    `json:"keywords"`
	Tags         int    `json:"tags"`
	Authors      int    `json:"authors"`
	SizeBytes    int    `json:"size_bytes"`
	StorageState string `json:"storage_state"`
	LocalBlobs   int    `json:"local_blobs"`
}

// Health is the body of GET /health.
type Health struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
	Facts  int               `json:"facts"`
}
