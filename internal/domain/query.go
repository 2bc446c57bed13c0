package domain

import (
	"fmt"
	"time"
)

// SortOrder picks the direction of the full (field, id) ordering. Desc
// reverses the ascending order of the whole key, not individual pages.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// ParseSortOrder parses a query-string sort order. Empty defaults to Desc,
// matching the history read surfaces.
func ParseSortOrder(s string) (SortOrder, error) {
	switch s {
	case "":
		return SortDesc, nil
	case string(SortAsc):
		return SortAsc, nil
	case string(SortDesc):
		return SortDesc, nil
	}
	return "", ErrValidation(fmt.Sprintf("invalid sort order %q", s))
}

// TimeRange is the optional from/to filter shared by the history surfaces.
// Nil bounds are unbounded.
type TimeRange struct {
	From *time.Time
	To   *time.Time
}

// Contains reports whether t falls inside the range.
func (r TimeRange) Contains(t time.Time) bool {
	if r.From != nil && t.Before(*r.From) {
		return false
	}
	if r.To != nil && !t.Before(*r.To) {
		return false
	}
	return true
}

// ParseTimeRange parses optional RFC 3339 from/to query parameters. Empty
// strings leave the corresponding bound open.
func ParseTimeRange(from, to string) (TimeRange, error) {
	var rng TimeRange
	if from != "" {
		t, err := time.Parse(time.RFC3339, from)
		if err != nil {
			return TimeRange{}, ErrValidation(fmt.Sprintf("invalid from timestamp %q", from))
		}
		rng.From = &t
	}
	if to != "" {
		t, err := time.Parse(time.RFC3339, to)
		if err != nil {
			return TimeRange{}, ErrValidation(fmt.Sprintf("invalid to timestamp %q", to))
		}
		rng.To = &t
	}
	if rng.From != nil && rng.To != nil && rng.To.Before(*rng.From) {
		return TimeRange{}, ErrValidation("to must not precede from")
	}
	return rng, nil
}
