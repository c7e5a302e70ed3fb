package chi

import (
	"time"

	"github.com/nocap-labs/factstore/internal/domain/fact"
	"github.com/nocap-labs/factstore/internal/index"
	factsuc "github.com/nocap-labs/factstore/internal/usecase/facts"
)

// ErrorCode identifies a machine-readable API error class.
type ErrorCode string

const (
	ErrorCodeBadRequest         ErrorCode = "bad_request"
	ErrorCodeValidationFailed   ErrorCode = "validation_failed"
	ErrorCodeFactNotFound       ErrorCode = "fact_not_found"
	ErrorCodeBlobNotFound       ErrorCode = "blob_not_found"
	ErrorCodeBlobTooLarge       ErrorCode = "blob_too_large"
	ErrorCodeBlobUnavailable    ErrorCode = "blob_unavailable"
	ErrorCodeStorageUnavailable ErrorCode = "storage_unavailable"
	ErrorCodeIntegrityFailed    ErrorCode = "integrity_check_failed"
	ErrorCodeNetworkError       ErrorCode = "network_error"
	ErrorCodeInternalError      ErrorCode = "internal_error"
)

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// TagPayload carries one fact tag on the wire.
type TagPayload struct {
	Name     string `json:"name"`
	Category string `json:"category"`
}

// CreateFactRequest is the body of POST /facts.
type CreateFactRequest struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Summary     string       `json:"summary,omitempty"`
	FullContent string       `json:"full_content,omitempty"`
	Sources     []string     `json:"sources,omitempty"`
	Author      string       `json:"author,omitempty"`
	Tags        []TagPayload `json:"tags,omitempty"`
	Importance  float64      `json:"importance,omitempty"`
	Region      string       `json:"region,omitempty"`
	Status      string       `json:"status,omitempty"`
}

// PatchFactRequest is the body of PATCH /facts/{id}. Absent fields are
// unchanged; sources and tags replace the whole list when present.
type PatchFactRequest struct {
	Title       *string       `json:"title,omitempty"`
	Summary     *string       `json:"summary,omitempty"`
	FullContent *string       `json:"full_content,omitempty"`
	Sources     []string      `json:"sources,omitempty"`
	Status      *string       `json:"status,omitempty"`
	Tags        *[]TagPayload `json:"tags,omitempty"`
	Importance  *float64      `json:"importance,omitempty"`
	Region      *string       `json:"region,omitempty"`
	Votes       *int          `json:"votes,omitempty"`
	Comments    *int          `json:"comments,omitempty"`
}

// SearchFactsRequest is the body of POST /facts/search.
type SearchFactsRequest struct {
	Keywords []string   `json:"keywords,omitempty"`
	Tags     []string   `json:"tags,omitempty"`
	Authors  []string   `json:"authors,omitempty"`
	Statuses []string   `json:"statuses,omitempty"`
	From     *time.Time `json:"from,omitempty"`
	To       *time.Time `json:"to,omitempty"`
	Limit    int        `json:"limit,omitempty"`
	Offset   int        `json:"offset,omitempty"`
}

// BatchRetrieveRequest is the body of POST /facts/batch/retrieve.
type BatchRetrieveRequest struct {
	IDs []string `json:"ids"`
}

// FactResponse is the full materialized fact.
type FactResponse struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Summary     string       `json:"summary,omitempty"`
	FullContent string       `json:"full_content,omitempty"`
	Sources     []string     `json:"sources,omitempty"`
	Author      string       `json:"author,omitempty"`
	Tags        []TagPayload `json:"tags,omitempty"`
	Importance  float64      `json:"importance,omitempty"`
	Region      string       `json:"region,omitempty"`
	Status      string       `json:"status"`
	Votes       int          `json:"votes"`
	Comments    int          `json:"comments"`
	Version     int          `json:"version"`
	Created     time.Time    `json:"created"`
	Updated     time.Time    `json:"updated"`
	BlobID      string       `json:"blob_id,omitempty"`
	ContentHash string       `json:"content_hash,omitempty"`
}

// CreateFactResponse adds the storage receipt to the created fact.
type CreateFactResponse struct {
	Fact    FactResponse    `json:"fact"`
	Receipt ReceiptResponse `json:"receipt"`
}

// ReceiptResponse describes where one fact version landed.
type ReceiptResponse struct {
	BlobID  string `json:"blob_id"`
	Size    int    `json:"size"`
	Version int    `json:"version"`
	Source  string `json:"source"`
}

// RecordResponse is the index projection returned by search and list.
type RecordResponse struct {
	ID         string       `json:"id"`
	Title      string       `json:"title"`
	Summary    string       `json:"summary,omitempty"`
	Author     string       `json:"author,omitempty"`
	Status     string       `json:"status"`
	Tags       []TagPayload `json:"tags,omitempty"`
	Importance float64      `json:"importance,omitempty"`
	Region     string       `json:"region,omitempty"`
	Votes      int          `json:"votes"`
	Comments   int          `json:"comments"`
	Version    int          `json:"version"`
	Created    time.Time    `json:"created"`
	Updated    time.Time    `json:"updated"`
	BlobID     string       `json:"blob_id"`
}

// SearchFactsResponse is a page of index records.
type SearchFactsResponse struct {
	Items  []RecordResponse `json:"items"`
	Total  int              `json:"total"`
	Limit  int              `json:"limit"`
	Offset int              `json:"offset"`
	TookMs int64            `json:"took_ms"`
}

// BatchResultItem is one outcome of a batch retrieve.
type BatchResultItem struct {
	ID    string         `json:"id"`
	Fact  *FactResponse  `json:"fact,omitempty"`
	Error *ErrorResponse `json:"error,omitempty"`
}

// BatchRetrieveResponse aggregates batch retrieve outcomes.
type BatchRetrieveResponse struct {
	Items     []BatchResultItem `json:"items"`
	Succeeded int               `json:"succeeded"`
	Failed    int               `json:"failed"`
}

// StatsResponse summarizes index and storage contents.
type StatsResponse struct {
	Facts        int    `json:"facts"`
	Keywords     int    `json:"keywords"`
	Tags         int    `json:"tags"`
	Authors      int    `json:"authors"`
	SizeBytes    int    `json:"size_bytes"`
	StorageState string `json:"storage_state"`
	LocalBlobs   int    `json:"local_blobs"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
	Facts  int               `json:"facts"`
}

func tagsFromPayload(ts []TagPayload) []fact.Tag {
	if len(ts) == 0 {
		return nil
	}
	out := make([]fact.Tag, len(ts))
	for i, t := range ts {
		out[i] = fact.Tag{Name: t.Name, Category: fact.Category(t.Category)}
	}
	return out
}

func tagsToPayload(ts []fact.Tag) []TagPayload {
	if len(ts) == 0 {
		return nil
	}
	out := make([]TagPayload, len(ts))
	for i, t := range ts {
		out[i] = TagPayload{Name: t.Name, Category: string(t.Category)}
	}
	return out
}

func tagRefsToPayload(ts []index.TagRef) []TagPayload {
	if len(ts) == 0 {
		return nil
	}
	out := make([]TagPayload, len(ts))
	for i, t := range ts {
		out[i] = TagPayload{Name: t.Name, Category: t.Category}
	}
	return out
}

func factToResponse(f *fact.Fact) FactResponse {
	return FactResponse{
		ID:          f.ID(),
		Title:       f.Title(),
		Summary:     f.Summary(),
		FullContent: f.FullContent(),
		Sources:     f.Sources(),
		Author:      f.Author(),
		Tags:        tagsToPayload(f.Tags()),
		Importance:  f.Importance(),
		Region:      f.Region(),
		Status:      string(f.Status()),
		Votes:       f.Votes(),
		Comments:    f.Comments(),
		Version:     f.Version(),
		Created:     f.Created(),
		Updated:     f.Updated(),
		BlobID:      f.BlobID(),
		ContentHash: f.ContentHash(),
	}
}

func recordToResponse(rec index.Record) RecordResponse {
	return RecordResponse{
		ID:         rec.ID,
		Title:      rec.Title,
		Summary:    rec.Summary,
		Author:     rec.Author,
		Status:     rec.Status,
		Tags:       tagRefsToPayload(rec.Tags),
		Importance: rec.Importance,
		Region:     rec.Region,
		Votes:      rec.Votes,
		Comments:   rec.Comments,
		Version:    rec.Version,
		Created:    rec.Created,
		Updated:    rec.Updated,
		BlobID:     rec.BlobID,
	}
}

func receiptToResponse(r factsuc.StoreReceipt) ReceiptResponse {
	return ReceiptResponse{
		BlobID:  r.BlobID,
		Size:    r.Size,
		Version: r.Version,
		Source:  string(r.Source),
	}
}
