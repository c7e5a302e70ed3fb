package factstore

import (
	"time"

	"github.com/nocap-labs/factstore/internal/domain/fact"
	"github.com/nocap-labs/factstore/internal/index"
	"github.com/nocap-labs/factstore/internal/usecase/facts"
)

// Status is the moderation state of a fact.
type Status string

// Moderation status constants.
const (
	StatusVerified Status = "verified"
	StatusReview   Status = "review"
	StatusFlagged  Status = "flagged"
)

// TagCategory classifies a tag.
type TagCategory string

// Tag category constants.
const (
	CategoryTopic       TagCategory = "topic"
	CategoryRegion      TagCategory = "region"
	CategoryType        TagCategory = "type"
	CategoryMethodology TagCategory = "methodology"
	CategoryUrgency     TagCategory = "urgency"
)

// Tag is a categorized label attached to a fact.
type Tag struct {
	Name     string
	Category TagCategory
}

// Fact is a fact document as seen through the embedded client.
type Fact struct {
	ID          string
	Title       string
	Summary     string
	FullContent string
	Sources     []string
	Author      string
	Tags        []Tag
	Importance  float64
	Region      string
	Status      Status
	Votes       int
	Comments    int
	Version     int
	Created     time.Time
	Updated     time.Time
	BlobID      string
	ContentHash string
}

// Params creates a new fact.
type Params struct {
	ID          string
	Title       string
	Summary     string
	FullContent string
	Sources     []string
	Author      string
	Tags        []Tag
	Importance  float64
	Region      string
	Status      Status
}

// Patch is a partial fact update. Nil fields are unchanged; Sources and Tags
// replace the whole list when set.
type Patch struct {
	Title       *string
	Summary     *string
	FullContent *string
	Sources     []string
	Tags        []Tag
	Status      *Status
	Importance  *float64
	Region      *string
	Votes       *int
	Comments    *int
}

// Receipt is the outcome of persisting one fact version.
type Receipt struct {
	FactID  string
	BlobID  string
	Size    int
	Version int
	Source  string
}

// Hit is a single search result from the metadata index.
type Hit struct {
	ID         string
	Title      string
	Summary    string
	Author     string
	Status     Status
	Tags       []Tag
	Created    time.Time
	Updated    time.Time
	Version    int
	Votes      int
	Importance float64
	Region     string
}

// Page is a page of search hits with the pre-pagination total.
type Page struct {
	Hits  []Hit
	Total int
	Took  time.Duration
}

// Stats summarizes index size.
type Stats struct {
	Facts     int
	Keywords  int
	Tags      int
	Authors   int
	SizeBytes int
}

// BatchResult is the outcome of one item in a bulk retrieval.
type BatchResult struct {
	ID   string
	Fact Fact
	Err  error
}

// HealthStatus is the aggregated system health.
type HealthStatus struct {
	Status string            // "ok" or "degraded"
	Checks map[string]string // component -> "ok"/"error"
	Facts  int
}

// --- converters between facade and domain types ---

func toDomainTags(tags []Tag) []fact.Tag {
	if len(tags) == 0 {
		return nil
	}
	out := make([]fact.Tag, len(tags))
	for i, t := range tags {
		out[i] = fact.Tag{Name: t.Name, Category: fact.Category(t.Category)}
	}
	return out
}

func fromDomainTags(tags []fact.Tag) []Tag {
	if len(tags) == 0 {
		return nil
	}
	out := make([]Tag, len(tags))
	for i, t := range tags {
		out[i] = Tag{Name: t.Name, Category: TagCategory(t.Category)}
	}
	return out
}

func toDomainParams(p Params) fact.Params {
	return fact.Params{
		ID:          p.ID,
		Title:       p.Title,
		Summary:     p.Summary,
		FullContent: p.FullContent,
		Sources:     p.Sources,
		Author:      p.Author,
		Tags:        toDomainTags(p.Tags),
		Importance:  p.Importance,
		Region:      p.Region,
		Status:      fact.Status(p.Status),
	}
}

func toDomainPatch(p Patch) fact.Patch {
	dp := fact.Patch{
		Title:       p.Title,
		Summary:     p.Summary,
		FullContent: p.FullContent,
		Sources:     p.Sources,
		Importance:  p.Importance,
		Region:      p.Region,
		Votes:       p.Votes,
		Comments:    p.Comments,
	}
	if p.Tags != nil {
		// a non-nil empty list clears all tags
		dp.Tags = make([]fact.Tag, len(p.Tags))
		for i, t := range p.Tags {
			dp.Tags[i] = fact.Tag{Name: t.Name, Category: fact.Category(t.Category)}
		}
	}
	if p.Status != nil {
		s := fact.Status(*p.Status)
		dp.Status = &s
	}
	return dp
}

func fromDomainFact(f fact.Fact) Fact {
	return Fact{
		ID:          f.ID(),
		Title:       f.Title(),
		Summary:     f.Summary(),
		FullContent: f.FullContent(),
		Sources:     f.Sources(),
		Author:      f.Author(),
		Tags:        fromDomainTags(f.Tags()),
		Importance:  f.Importance(),
		Region:      f.Region(),
		Status:      Status(f.Status()),
		Votes:       f.Votes(),
		Comments:    f.Comments(),
		Version:     f.Version(),
		Created:     f.Created(),
		Updated:     f.Updated(),
		BlobID:      f.BlobID(),
		ContentHash: f.ContentHash(),
	}
}

func fromReceipt(r facts.StoreReceipt) Receipt {
	return Receipt{
		FactID:  r.FactID,
		BlobID:  r.BlobID,
		Size:    r.Size,
		Version: r.Version,
		Source:  string(r.Source),
	}
}

func fromRecord(rec index.Record) Hit {
	tags := make([]Tag, len(rec.Tags))
	for i, t := range rec.Tags {
		tags[i] = Tag{Name: t.Name, Category: TagCategory(t.Category)}
	}
	if len(tags) == 0 {
		tags = nil
	}
	return Hit{
		ID:         rec.ID,
		Title:      rec.Title,
		Summary:    rec.Summary,
		Author:     rec.Author,
		Status:     Status(rec.Status),
		Tags:       tags,
		Created:    rec.Created,
		Updated:    rec.Updated,
		Version:    rec.Version,
		Votes:      rec.Votes,
		Importance: rec.Importance,
		Region:     rec.Region,
	}
}

func fromSearchResult(res index.SearchResult) Page {
	hits := make([]Hit, len(res.Records))
	for i, rec := range res.Records {
		hits[i] = fromRecord(rec)
	}
	return Page{Hits: hits, Total: res.Total, Took: res.Took}
}
