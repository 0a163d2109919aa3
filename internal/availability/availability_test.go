package availability

import (
	"testing"
	"time"
)

func day(s string) time.Time {
	t, err := time.ParseInLocation(DateLayout, s, time.UTC)
	if err != nil {
		panic(err)
	}
	return t
}

func TestOverlaps(t *testing.T) {
	tests := []struct {
		name           string
		s1, e1, s2, e2 string
		want           bool
	}{
		{"identical ranges", "2024-01-01", "2024-01-03", "2024-01-01", "2024-01-03", true},
		{"second starts inside first", "2024-01-01", "2024-01-03", "2024-01-02", "2024-01-04", true},
		{"second ends inside first", "2024-01-02", "2024-01-04", "2024-01-01", "2024-01-03", true},
		{"second spans first", "2024-01-02", "2024-01-03", "2024-01-01", "2024-01-05", true},
		{"first spans second", "2024-01-01", "2024-01-05", "2024-01-02", "2024-01-03", true},
		{"touching at boundary", "2024-01-01", "2024-01-03", "2024-01-03", "2024-01-05", false},
		{"touching the other way", "2024-01-03", "2024-01-05", "2024-01-01", "2024-01-03", false},
		{"fully disjoint", "2024-01-01", "2024-01-02", "2024-01-10", "2024-01-12", false},
		{"single night shared", "2024-01-01", "2024-01-03", "2024-01-02", "2024-01-04", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Overlaps(day(tt.s1), day(tt.e1), day(tt.s2), day(tt.e2))
			if got != tt.want {
				t.Errorf("Overlaps(%s,%s,%s,%s) = %v, want %v", tt.s1, tt.e1, tt.s2, tt.e2, got, tt.want)
			}
			// symmetry: swapping the ranges never changes the answer
			if sym := Overlaps(day(tt.s2), day(tt.e2), day(tt.s1), day(tt.e1)); sym != got {
				t.Errorf("Overlaps is not symmetric for %s", tt.name)
			}
		})
	}
}

func TestMinutesOverlap(t *testing.T) {
	tests := []struct {
		name           string
		s1, e1, s2, e2 int
		want           bool
	}{
		{"morning vs evening", 9 * 60, 12 * 60, 18 * 60, 22 * 60, false},
		{"back to back", 9 * 60, 12 * 60, 12 * 60, 15 * 60, false},
		{"one minute shared", 9 * 60, 12*60 + 1, 12 * 60, 15 * 60, true},
		{"nested", 10 * 60, 11 * 60, 9 * 60, 12 * 60, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MinutesOverlap(tt.s1, tt.e1, tt.s2, tt.e2); got != tt.want {
				t.Errorf("MinutesOverlap = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestBookingSequenceScenario walks the canonical three-step booking
// sequence against an in-memory set of active ranges, the same decision
// the repository predicate makes row by row: a stay is free iff no
// active range overlaps it.
func TestBookingSequenceScenario(t *testing.T) {
	type stay struct{ start, end time.Time }
	var booked []stay
	free := func(start, end time.Time) bool {
		for _, b := range booked {
			if Overlaps(b.start, b.end, start, end) {
				return false
			}
		}
		return true
	}

	// Guest A books Jan 1 to Jan 3.
	s, e, err := ParseDateRange("2024-01-01", "2024-01-03")
	if err != nil {
		t.Fatalf("ParseDateRange: %v", err)
	}
	if !free(s, e) {
		t.Fatal("empty calendar must accept the first booking")
	}
	booked = append(booked, stay{s, e})

	// Guest B asks for Jan 2 to Jan 4: shares the night of Jan 2, rejected.
	s, e, err = ParseDateRange("2024-01-02", "2024-01-04")
	if err != nil {
		t.Fatalf("ParseDateRange: %v", err)
	}
	if free(s, e) {
		t.Error("Jan 2 to Jan 4 shares a night with Jan 1 to Jan 3 and must conflict")
	}

	// Guest B retries with Jan 3 to Jan 5: checkout day is B's check-in
	// day, so the ranges only touch and the booking goes through.
	s, e, err = ParseDateRange("2024-01-03", "2024-01-05")
	if err != nil {
		t.Fatalf("ParseDateRange: %v", err)
	}
	if !free(s, e) {
		t.Error("Jan 3 to Jan 5 only touches Jan 1 to Jan 3 and must be accepted")
	}
	booked = append(booked, stay{s, e})

	// A third guest can still take the untouched week after.
	s, e, err = ParseDateRange("2024-01-05", "2024-01-08")
	if err != nil {
		t.Fatalf("ParseDateRange: %v", err)
	}
	if !free(s, e) {
		t.Error("Jan 5 to Jan 8 touches the second stay and must be accepted")
	}
}

func TestParseDateRange(t *testing.T) {
	tests := []struct {
		name       string
		start, end string
		wantErr    bool
	}{
		{"valid", "2024-01-01", "2024-01-03", false},
		{"start equals end", "2024-01-01", "2024-01-01", true},
		{"start after end", "2024-01-05", "2024-01-01", true},
		{"garbage start", "not-a-date", "2024-01-01", true},
		{"garbage end", "2024-01-01", "01/02/2024", true},
		{"empty", "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, e, err := ParseDateRange(tt.start, tt.end)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseDateRange(%q,%q) error = %v, wantErr %v", tt.start, tt.end, err, tt.wantErr)
			}
			if err == nil && !s.Before(e) {
				t.Errorf("parsed range not ordered: %v .. %v", s, e)
			}
		})
	}
}

func TestNights(t *testing.T) {
	if n := Nights(day("2024-01-01"), day("2024-01-03")); n != 2 {
		t.Errorf("Nights two-night stay = %d, want 2", n)
	}
	if n := Nights(day("2024-01-01"), day("2024-01-02")); n != 1 {
		t.Errorf("Nights one-night stay = %d, want 1", n)
	}
}

func TestValidEventWindow(t *testing.T) {
	min := func(v int) *int { return &v }
	tests := []struct {
		name       string
		start, end *int
		want       bool
	}{
		{"absent", nil, nil, true},
		{"only start", min(600), nil, false},
		{"only end", nil, min(720), false},
		{"ordered", min(600), min(720), true},
		{"reversed", min(720), min(600), false},
		{"past midnight", min(600), min(25 * 60), false},
		{"negative start", min(-10), min(600), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidEventWindow(tt.start, tt.end); got != tt.want {
				t.Errorf("ValidEventWindow = %v, want %v", got, tt.want)
			}
		})
	}
}
