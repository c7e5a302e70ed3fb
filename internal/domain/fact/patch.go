package fact

import "fmt"

// Patch is a partial fact update. Nil fields are unchanged.
// Sources and Tags, when non-nil, replace the whole list.
type Patch struct {
	Title       *string
	Summary     *string
	FullContent *string
	Sources     []string
	Status      *Status
	Tags        []Tag
	Importance  *float64
	Region      *string
	Votes       *int
	Comments    *int
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p.Title == nil && p.Summary == nil && p.FullContent == nil &&
		p.Sources == nil && p.Status == nil && p.Tags == nil &&
		p.Importance == nil && p.Region == nil && p.Votes == nil && p.Comments == nil
}

// Validate checks that the patch carries at least one change.
func (p Patch) Validate() error {
	if p.IsEmpty() {
		return fmt.Errorf("at least one field must be provided")
	}
	return nil
}
