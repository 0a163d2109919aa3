package repository

import (
	"strings"
	"testing"
	"time"
)

// The read-side conflict queries and the conditional insert share
// overlapPredicate and overlapArgs, so both judge a request by the same
// date and hour-window rule.  These tests pin the placeholder contract
// that ties the two together.

func intPtr(n int) *int { return &n }

func TestOverlapArgsOrdering(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)

	t.Run("whole-day request carries nil window markers", func(t *testing.T) {
		args := overlapArgs(start, end, nil, nil)
		if len(args) != 5 {
			t.Fatalf("overlapArgs returned %d values, want 5", len(args))
		}
		// Date placeholders bind as end-then-start: starts_on < end AND
		// start < ends_on.
		if args[0] != "2024-01-03" || args[1] != "2024-01-01" {
			t.Errorf("date args = %v, %v; want end before start", args[0], args[1])
		}
		for i := 2; i < 5; i++ {
			if v, ok := args[i].(*int); !ok || v != nil {
				t.Errorf("arg %d = %v, want nil window marker", i, args[i])
			}
		}
	})

	t.Run("hour window binds start, end, start", func(t *testing.T) {
		evStart, evEnd := intPtr(1080), intPtr(1320)
		args := overlapArgs(start, end, evStart, evEnd)
		// Window placeholders, in predicate order: the IS NULL probe on
		// the request start, then event_start_min < evEnd, then
		// evStart < event_end_min.
		if args[2] != evStart || args[3] != evEnd || args[4] != evStart {
			t.Errorf("window args = %v, %v, %v; want evStart, evEnd, evStart", args[2], args[3], args[4])
		}
	})
}

func TestOverlapPredicateShape(t *testing.T) {
	// The predicate must exclude released reservations, compare dates
	// half-open, and fall back to whole-day blocking when either side
	// has no hour window.
	for _, fragment := range []string{
		"'PENDING'", "'CONFIRMED'",
		"starts_on < ?", "? < ends_on",
		"event_start_min IS NULL", "? IS NULL",
		"event_start_min < ?", "? < event_end_min",
	} {
		if !strings.Contains(overlapPredicate, fragment) {
			t.Errorf("overlapPredicate missing %q", fragment)
		}
	}
	if strings.Contains(overlapPredicate, "'CANCELLED'") || strings.Contains(overlapPredicate, "'COMPLETED'") {
		t.Error("released reservations must never block a range")
	}
}
