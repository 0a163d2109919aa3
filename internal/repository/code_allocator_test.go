package repository

import (
	"context"
	"regexp"
	"testing"
	"time"
)

func TestFormatCode(t *testing.T) {
	tests := []struct {
		prefix string
		day    string
		n      int64
		want   string
	}{
		{PrefixReservation, "20240101", 7, "RES-20240101-0007"},
		{PrefixReservation, "20240101", 1234, "RES-20240101-1234"},
		{PrefixPackage, "20241231", 1, "PKG-20241231-0001"},
		{PrefixReservation, "20240101", 123456, "RES-20240101-123456"},
	}
	for _, tt := range tests {
		if got := FormatCode(tt.prefix, tt.day, tt.n); got != tt.want {
			t.Errorf("FormatCode(%q,%q,%d) = %q, want %q", tt.prefix, tt.day, tt.n, got, tt.want)
		}
	}
}

func TestRandomSuffix(t *testing.T) {
	seen := make(map[string]bool)
	hexUpper := regexp.MustCompile(`^[0-9A-F]{8}$`)
	for i := 0; i < 100; i++ {
		s, err := randomSuffix(4)
		if err != nil {
			t.Fatalf("randomSuffix: %v", err)
		}
		if !hexUpper.MatchString(s) {
			t.Fatalf("suffix %q is not 8 upper hex chars", s)
		}
		seen[s] = true
	}
	if len(seen) < 95 {
		t.Errorf("suspicious clustering: only %d distinct suffixes in 100 draws", len(seen))
	}
}

// Without Redis the allocator must still produce well-formed codes.
func TestNextFallsBackWithoutRedis(t *testing.T) {
	a := NewCodeAllocator(nil)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	code, err := a.Next(context.Background(), PrefixReservation, now)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	want := regexp.MustCompile(`^RES-20240101-[0-9A-F]{8}$`)
	if !want.MatchString(code) {
		t.Errorf("code %q does not match fallback shape", code)
	}
}
