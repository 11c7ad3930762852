package domain

import (
	"time"

	"github.com/cockroachdb/errors"
)

const DateLayout = "2006-01-02"

// ParseDate parses a calendar date, no time-of-day component.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, errors.Wrapf(ErrValidation, "invalid date %q, want YYYY-MM-DD", s)
	}
	return t.UTC(), nil
}

// Overlaps reports whether the half-open ranges [aStart,aEnd) and
// [bStart,bEnd) share at least one night. Touching endpoints do not overlap,
// so a stay ending on a date and one starting on the same date coexist.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

type DateRange struct {
	CheckIn  time.Time `json:"check_in"`
	CheckOut time.Time `json:"check_out"`
}
