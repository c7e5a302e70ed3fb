package search

import (
	"fmt"
	"strings"
	"time"

	"github.com/nocap-labs/factstore/internal/domain/fact"
)

// MaxTerms is the maximum number of terms accepted per filter dimension.
const MaxTerms = 32

// Query is a validated, normalized search query.
// Keywords are ANDed: a fact must match every keyword. Tags, authors and
// statuses are each ORed within their dimension and ANDed across dimensions.
// From/To bound the creation timestamp inclusively.
type Query struct {
	keywords []string
	tags     []string
	authors  []string
	statuses []fact.Status
	from     *time.Time
	to       *time.Time
	limit    int
	offset   int
}

// Params carries raw query parameters before validation.
type Params struct {
	Keywords []string
	Tags     []string
	Authors  []string
	Statuses []fact.Status
	From     *time.Time
	To       *time.Time
	Limit    int
	Offset   int
}

// New validates and normalizes search parameters. Terms are lower-cased and
// blank entries dropped. Limit 0 means no limit; offset defaults to 0.
func New(p Params) (Query, error) {
	for _, dim := range [][]string{p.Keywords, p.Tags, p.Authors} {
		if len(dim) > MaxTerms {
			return Query{}, fmt.Errorf("too many filter terms (max %d)", MaxTerms)
		}
	}
	for _, s := range p.Statuses {
		if !s.IsValid() {
			return Query{}, fmt.Errorf("invalid status filter %q", s)
		}
	}
	if p.Limit < 0 {
		return Query{}, fmt.Errorf("limit must be non-negative")
	}
	if p.Offset < 0 {
		return Query{}, fmt.Errorf("offset must be non-negative")
	}
	if p.From != nil && p.To != nil && p.To.Before(*p.From) {
		return Query{}, fmt.Errorf("date range end precedes start")
	}

	return Query{
		keywords: normalizeTerms(p.Keywords),
		tags:     normalizeTerms(p.Tags),
		authors:  normalizeTerms(p.Authors),
		statuses: p.Statuses,
		from:     p.From,
		to:       p.To,
		limit:    p.Limit,
		offset:   p.Offset,
	}, nil
}

// Keywords returns the AND-combined keyword terms.
func (q *Query) Keywords() []string { return q.keywords }

// Tags returns the OR-combined tag names.
func (q *Query) Tags() []string { return q.tags }

// Authors returns the OR-combined author handles.
func (q *Query) Authors() []string { return q.authors }

// Statuses returns the OR-combined status filters.
func (q *Query) Statuses() []fact.Status { return q.statuses }

// From returns the inclusive lower creation-time bound, or nil.
func (q *Query) From() *time.Time { return q.from }

// To returns the inclusive upper creation-time bound, or nil.
func (q *Query) To() *time.Time { return q.to }

// Limit returns the page size; 0 means all matches.
func (q *Query) Limit() int { return q.limit }

// Offset returns the pagination offset.
func (q *Query) Offset() int { return q.offset }

// IsUnfiltered reports whether the query has no filter dimensions at all.
func (q *Query) IsUnfiltered() bool {
	return len(q.keywords) == 0 && len(q.tags) == 0 && len(q.authors) == 0 &&
		len(q.statuses) == 0 && q.from == nil && q.to == nil
}

func normalizeTerms(terms []string) []string {
	if len(terms) == 0 {
		return nil
	}
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}
