package factstore

import (
	"context"
	"fmt"
	"time"

	"github.com/nocap-labs/factstore/internal/domain/fact"
	"github.com/nocap-labs/factstore/internal/domain/search"
)

// SearchBuilder is a fluent builder for index queries. Keywords are ANDed;
// tags, authors and statuses are each ORed within their dimension and ANDed
// across dimensions.
type SearchBuilder struct {
	client *Client

	keywords []string
	tags     []string
	authors  []string
	statuses []Status
	from     *time.Time
	to       *time.Time
	limit    int
	offset   int
}

// Search starts a new query.
func (c *Client) Search() *SearchBuilder {
	return &SearchBuilder{client: c}
}

// Keywords adds keyword terms; a fact must match every keyword.
func (b *SearchBuilder) Keywords(terms ...string) *SearchBuilder {
	b.keywords = append(b.keywords, terms...)
	return b
}

// Tags adds tag name filters; a fact carrying any of them matches.
func (b *SearchBuilder) Tags(names ...string) *SearchBuilder {
	b.tags = append(b.tags, names...)
	return b
}

// Authors adds author filters; a fact by any of them matches.
func (b *SearchBuilder) Authors(handles ...string) *SearchBuilder {
	b.authors = append(b.authors, handles...)
	return b
}

// Statuses adds moderation status filters; a fact in any of them matches.
func (b *SearchBuilder) Statuses(statuses ...Status) *SearchBuilder {
	b.statuses = append(b.statuses, statuses...)
	return b
}

// CreatedAfter bounds the creation timestamp from below, inclusive.
func (b *SearchBuilder) CreatedAfter(t time.Time) *SearchBuilder {
	b.from = &t
	return b
}

// CreatedBefore bounds the creation timestamp from above, inclusive.
func (b *SearchBuilder) CreatedBefore(t time.Time) *SearchBuilder {
	b.to = &t
	return b
}

// Limit caps the page size. Zero returns all matches.
func (b *SearchBuilder) Limit(n int) *SearchBuilder {
	b.limit = n
	return b
}

// Offset skips the first n matches.
func (b *SearchBuilder) Offset(n int) *SearchBuilder {
	b.offset = n
	return b
}

// Do validates and executes the query.
func (b *SearchBuilder) Do(ctx context.Context) (Page, error) {
	statuses := make([]fact.Status, len(b.statuses))
	for i, s := range b.statuses {
		statuses[i] = fact.Status(s)
	}
	if len(statuses) == 0 {
		statuses = nil
	}

	q, err := search.New(search.Params{
		Keywords: b.keywords,
		Tags:     b.tags,
		Authors:  b.authors,
		Statuses: statuses,
		From:     b.from,
		To:       b.to,
		Limit:    b.limit,
		Offset:   b.offset,
	})
	if err != nil {
		return Page{}, fmt.Errorf("search: %w: %w", ErrValidation, err)
	}

	return fromSearchResult(b.client.facts.SearchFacts(ctx, &q)), nil
}
