package fact

import (
	"fmt"
	"regexp"
	"time"
)

var idRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// MaxTitleLength is the maximum fact title length in bytes.
const MaxTitleLength = 512

// Status is the moderation state of a fact, set by an external voting process.
type Status string

// Fact status values.
const (
	StatusVerified Status = "verified"
	StatusReview   Status = "review"
	StatusFlagged  Status = "flagged"
)

// IsValid reports whether the status is a known value.
func (s Status) IsValid() bool {
	switch s {
	case StatusVerified, StatusReview, StatusFlagged:
		return true
	}
	return false
}

// Category classifies a tag.
type Category string

// Tag categories.
const (
	CategoryTopic       Category = "topic"
	CategoryRegion      Category = "region"
	CategoryType        Category = "type"
	CategoryMethodology Category = "methodology"
	CategoryUrgency     Category = "urgency"
)

// IsValid reports whether the category is a known value.
func (c Category) IsValid() bool {
	switch c {
	case CategoryTopic, CategoryRegion, CategoryType, CategoryMethodology, CategoryUrgency:
		return true
	}
	return false
}

// Tag is a categorized label attached to a fact.
type Tag struct {
	Name     string
	Category Category
}

// Params carries the caller-supplied fields for a new fact.
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

// Fact is the core document aggregate (immutable value object).
// Content is immutable once written; status and engagement counters change
// through updates, which always produce a new version and a new blob.
type Fact struct {
	id          string
	title       string
	summary     string
	fullContent string
	sources     []string
	author      string
	created     time.Time
	updated     time.Time
	version     int
	tags        []Tag
	importance  float64
	region      string
	status      Status
	votes       int
	comments    int
	blobID      string
	contentHash string
}

// New validates and creates a Fact at version 1.
// ID: ^[a-zA-Z0-9_-]+$, 1-256 chars. Status defaults to review.
func New(p Params, now time.Time) (Fact, error) {
	if p.ID == "" {
		return Fact{}, fmt.Errorf("fact ID is required")
	}
	if len(p.ID) > 256 {
		return Fact{}, fmt.Errorf("fact ID too long (max 256)")
	}
	if !idRegex.MatchString(p.ID) {
		return Fact{}, fmt.Errorf("fact ID must be alphanumeric with underscores and hyphens")
	}
	if p.Title == "" {
		return Fact{}, fmt.Errorf("title is required")
	}
	if len(p.Title) > MaxTitleLength {
		return Fact{}, fmt.Errorf("title too long (max %d bytes)", MaxTitleLength)
	}
	status := p.Status
	if status == "" {
		status = StatusReview
	}
	if !status.IsValid() {
		return Fact{}, fmt.Errorf("invalid status %q", status)
	}
	for _, t := range p.Tags {
		if t.Name == "" {
			return Fact{}, fmt.Errorf("tag name is required")
		}
		if !t.Category.IsValid() {
			return Fact{}, fmt.Errorf("invalid tag category %q for tag %q", t.Category, t.Name)
		}
	}

	return Fact{
		id:          p.ID,
		title:       p.Title,
		summary:     p.Summary,
		fullContent: p.FullContent,
		sources:     cloneStrings(p.Sources),
		author:      p.Author,
		created:     now.UTC(),
		updated:     now.UTC(),
		version:     1,
		tags:        cloneTags(p.Tags),
		importance:  p.Importance,
		region:      p.Region,
		status:      status,
	}, nil
}

// Reconstruct creates a Fact without validation (storage hydration).
func Reconstruct(
	p Params, created, updated time.Time, version, votes, comments int,
	blobID, contentHash string,
) Fact {
	return Fact{
		id:          p.ID,
		title:       p.Title,
		summary:     p.Summary,
		fullContent: p.FullContent,
		sources:     p.Sources,
		author:      p.Author,
		created:     created,
		updated:     updated,
		version:     version,
		tags:        p.Tags,
		importance:  p.Importance,
		region:      p.Region,
		status:      p.Status,
		votes:       votes,
		comments:    comments,
		blobID:      blobID,
		contentHash: contentHash,
	}
}

// ID returns the stable application-level identifier.
func (f *Fact) ID() string { return f.id }

// Title returns the claim title.
func (f *Fact) Title() string { return f.title }

// Summary returns the short summary.
func (f *Fact) Summary() string { return f.summary }

// FullContent returns the optional long-form content.
func (f *Fact) FullContent() string { return f.fullContent }

// Sources returns the ordered citation URLs.
func (f *Fact) Sources() []string { return f.sources }

// Author returns the author handle.
func (f *Fact) Author() string { return f.author }

// Created returns the creation timestamp.
func (f *Fact) Created() time.Time { return f.created }

// Updated returns the last update timestamp.
func (f *Fact) Updated() time.Time { return f.updated }

// Version returns the monotonically increasing version number.
func (f *Fact) Version() int { return f.version }

// Tags returns the categorized tags.
func (f *Fact) Tags() []Tag { return f.tags }

// Importance returns the optional numeric rank.
func (f *Fact) Importance() float64 { return f.importance }

// Region returns the optional region string.
func (f *Fact) Region() string { return f.region }

// Status returns the moderation status.
func (f *Fact) Status() Status { return f.status }

// Votes returns the vote counter.
func (f *Fact) Votes() int { return f.votes }

// Comments returns the comment counter.
func (f *Fact) Comments() int { return f.comments }

// BlobID returns the storage address of the current version, empty until stored.
func (f *Fact) BlobID() string { return f.blobID }

// ContentHash returns the checksum of the serialized content.
func (f *Fact) ContentHash() string { return f.contentHash }

// WithStorage returns a copy carrying the blob address and content hash
// assigned when the serialized fact was written.
func (f *Fact) WithStorage(blobID, contentHash string) Fact {
	c := *f
	c.blobID = blobID
	c.contentHash = contentHash
	return c
}

// Apply merges a partial update into a copy of the fact, bumping the version
// and the updated timestamp. The id and created timestamp never change.
func (f *Fact) Apply(p Patch, now time.Time) (Fact, error) {
	c := *f
	if p.Title != nil {
		if *p.Title == "" {
			return Fact{}, fmt.Errorf("title cannot be cleared")
		}
		c.title = *p.Title
	}
	if p.Summary != nil {
		c.summary = *p.Summary
	}
	if p.FullContent != nil {
		c.fullContent = *p.FullContent
	}
	if p.Sources != nil {
		c.sources = cloneStrings(p.Sources)
	}
	if p.Status != nil {
		if !p.Status.IsValid() {
			return Fact{}, fmt.Errorf("invalid status %q", *p.Status)
		}
		c.status = *p.Status
	}
	if p.Tags != nil {
		for _, t := range p.Tags {
			if t.Name == "" || !t.Category.IsValid() {
				return Fact{}, fmt.Errorf("invalid tag %q/%q", t.Name, t.Category)
			}
		}
		c.tags = cloneTags(p.Tags)
	}
	if p.Importance != nil {
		c.importance = *p.Importance
	}
	if p.Region != nil {
		c.region = *p.Region
	}
	if p.Votes != nil {
		if *p.Votes < 0 || *p.Votes < f.votes {
			return Fact{}, fmt.Errorf("votes counter is monotonic (current %d, got %d)", f.votes, *p.Votes)
		}
		c.votes = *p.Votes
	}
	if p.Comments != nil {
		if *p.Comments < 0 || *p.Comments < f.comments {
			return Fact{}, fmt.Errorf("comments counter is monotonic (current %d, got %d)", f.comments, *p.Comments)
		}
		c.comments = *p.Comments
	}

	c.version = f.version + 1
	c.updated = now.UTC()
	// A new version means new bytes, so the old address no longer applies.
	c.blobID = ""
	c.contentHash = ""
	return c, nil
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	c := make([]string, len(s))
	copy(c, s)
	return c
}

func cloneTags(t []Tag) []Tag {
	if t == nil {
		return nil
	}
	c := make([]Tag, len(t))
	copy(c, t)
	return c
}
