package policy

import (
	"testing"
	"time"

	"github.com/iliyamo/hotel-booking-engine/internal/model"
)

var checkin = time.Date(2024, 3, 10, 14, 0, 0, 0, time.UTC)

func TestTierBoundaries(t *testing.T) {
	tests := []struct {
		name        string
		hoursBefore time.Duration
		wantPct     int
	}{
		{"exactly 48h", 48 * time.Hour, 0},
		{"just over 48h", 48*time.Hour + time.Minute, 0},
		{"47.99h", 48*time.Hour - 36*time.Second, 50},
		{"exactly 24h", 24 * time.Hour, 50},
		{"23.99h", 24*time.Hour - 36*time.Second, 100},
		{"one hour before", time.Hour, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			now := checkin.Add(-tt.hoursBefore)
			out := Evaluate(model.StatusConfirmed, checkin, 100000, now, true)
			if out.TierPercent != tt.wantPct {
				t.Errorf("TierPercent = %d, want %d (hours=%.4f)", out.TierPercent, tt.wantPct, out.HoursBeforeCheckin)
			}
			if !out.Allowed {
				t.Errorf("acknowledged cancellation should be allowed, got denial %q", out.DeniedReason)
			}
		})
	}
}

func TestStateGates(t *testing.T) {
	now := checkin.Add(-72 * time.Hour)
	tests := []struct {
		name       string
		status     string
		now        time.Time
		wantReason string
	}{
		{"already cancelled", model.StatusCancelled, now, ReasonAlreadyCancelled},
		{"completed", model.StatusCompleted, now, ReasonCompleted},
		{"at check-in instant", model.StatusConfirmed, checkin, ReasonCheckinPassed},
		{"after check-in", model.StatusConfirmed, checkin.Add(time.Hour), ReasonCheckinPassed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Evaluate(tt.status, checkin, 100000, tt.now, true)
			if out.Allowed {
				t.Fatal("expected denial")
			}
			if out.DeniedReason != tt.wantReason {
				t.Errorf("DeniedReason = %q, want %q", out.DeniedReason, tt.wantReason)
			}
		})
	}
}

// A 357000 reservation cancelled 30 hours out costs half.  Without the
// acknowledgement flag the caller gets the figures but no transition;
// with it the cancellation is allowed.
func TestAcknowledgeProtocol(t *testing.T) {
	now := checkin.Add(-30 * time.Hour)

	first := Evaluate(model.StatusConfirmed, checkin, 357000, now, false)
	if first.Allowed {
		t.Fatal("unacknowledged 50 percent penalty cancellation must be denied")
	}
	if first.DeniedReason != ReasonNeedsAck {
		t.Errorf("DeniedReason = %q, want %q", first.DeniedReason, ReasonNeedsAck)
	}
	if first.PenaltyCents != 178500 || first.RefundCents != 178500 {
		t.Errorf("figures = %d/%d, want 178500/178500", first.PenaltyCents, first.RefundCents)
	}

	second := Evaluate(model.StatusConfirmed, checkin, 357000, now, true)
	if !second.Allowed {
		t.Fatalf("acknowledged cancellation denied: %q", second.DeniedReason)
	}
	if second.PenaltyCents != first.PenaltyCents || second.RefundCents != first.RefundCents {
		t.Error("figures changed between evaluation and acknowledgement")
	}
}

// Free cancellations never need the acknowledgement flag.
func TestFreeCancellationNeedsNoAck(t *testing.T) {
	now := checkin.Add(-100 * time.Hour)
	out := Evaluate(model.StatusConfirmed, checkin, 357000, now, false)
	if !out.Allowed {
		t.Fatalf("free cancellation denied: %q", out.DeniedReason)
	}
	if out.PenaltyCents != 0 || out.RefundCents != 357000 {
		t.Errorf("figures = %d/%d, want 0/357000", out.PenaltyCents, out.RefundCents)
	}
}

func TestPenaltyRounding(t *testing.T) {
	tests := []struct {
		total   int64
		pct     int
		penalty int64
	}{
		{357000, 50, 178500},
		{100001, 50, 50001}, // half-up on the odd cent
		{99, 50, 50},
		{357000, 0, 0},
		{357000, 100, 357000},
	}
	for _, tt := range tests {
		if got := PenaltyCents(tt.total, tt.pct); got != tt.penalty {
			t.Errorf("PenaltyCents(%d, %d) = %d, want %d", tt.total, tt.pct, got, tt.penalty)
		}
	}
}
