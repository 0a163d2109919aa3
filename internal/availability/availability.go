// Package availability holds the pure date-range logic the resolver and
// the booking paths share.  All ranges are half-open [start, end): the
// check-out day is free to be someone else's check-in day.
package availability

import (
	"errors"
	"time"
)

// ErrInvalidRange is returned when a caller supplies a range whose start
// is not strictly before its end, or a date that does not parse.  This
// is a caller error, not an availability answer.
var ErrInvalidRange = errors.New("invalid date range")

// DateLayout is the wire and storage format for reservation dates.
const DateLayout = "2006-01-02"

// Overlaps reports whether the half-open ranges [s1,e1) and [s2,e2)
// share at least one instant.  The single inequality below is the whole
// resolver contract; touching ranges (e1 == s2) do not overlap.
func Overlaps(s1, e1, s2, e2 time.Time) bool {
	return s1.Before(e2) && s2.Before(e1)
}

// MinutesOverlap is Overlaps for hour ranges expressed as minutes of
// day.  Used when two hall reservations share a date and both carry an
// event time window.
func MinutesOverlap(s1, e1, s2, e2 int) bool {
	return s1 < e2 && s2 < e1
}

// ParseDateRange parses start and end in DateLayout (UTC) and enforces
// start < end.  Any failure maps to ErrInvalidRange so handlers can
// answer 400 uniformly.
func ParseDateRange(start, end string) (time.Time, time.Time, error) {
	s, err := time.ParseInLocation(DateLayout, start, time.UTC)
	if err != nil {
		return time.Time{}, time.Time{}, ErrInvalidRange
	}
	e, err := time.ParseInLocation(DateLayout, end, time.UTC)
	if err != nil {
		return time.Time{}, time.Time{}, ErrInvalidRange
	}
	if !s.Before(e) {
		return time.Time{}, time.Time{}, ErrInvalidRange
	}
	return s, e, nil
}

// Nights returns the number of occupied nights (or hall days) in
// [start, end).  Callers must have validated the range first.
func Nights(start, end time.Time) int {
	return int(end.Sub(start).Hours() / 24)
}

// ValidEventWindow reports whether an optional minutes-of-day window is
// well formed.  Both bounds must be present together, inside a single
// day, and strictly ordered.
func ValidEventWindow(startMin, endMin *int) bool {
	if startMin == nil && endMin == nil {
		return true
	}
	if startMin == nil || endMin == nil {
		return false
	}
	return *startMin >= 0 && *endMin <= 24*60 && *startMin < *endMin
}
