// Package policy implements the cancellation penalty engine.  It is a
// pure function of (reservation state, check-in, total, now); the HTTP
// and storage layers decide what to do with the outcome.
package policy

import (
	"time"

	"github.com/iliyamo/hotel-booking-engine/internal/model"
)

// Denial reasons returned in Outcome.DeniedReason.
const (
	ReasonAlreadyCancelled = "already_cancelled"
	ReasonCompleted        = "completed"
	ReasonCheckinPassed    = "checkin_passed"
	ReasonNeedsAck         = "penalty_requires_acknowledgement"
)

// Penalty tiers by hours remaining until check-in.  The boundaries are
// inclusive on the left: exactly 48h before check-in is still free.
const (
	FreeCancelHours  = 48.0
	HalfPenaltyHours = 24.0
)

// Outcome carries the full result of evaluating a cancellation request.
// When Allowed is false the figures are still populated so callers can
// show the guest what a confirmed cancellation would cost (the two-step
// acknowledge protocol).
type Outcome struct {
	Allowed            bool
	DeniedReason       string
	TierPercent        int
	PenaltyCents       int64
	RefundCents        int64
	HoursBeforeCheckin float64
}

// TierPercent returns the penalty percentage for a cancellation taking
// place hours before check-in.
func TierPercent(hours float64) int {
	switch {
	case hours >= FreeCancelHours:
		return 0
	case hours >= HalfPenaltyHours:
		return 50
	default:
		return 100
	}
}

// PenaltyCents rounds half-up on cents.
func PenaltyCents(totalCents int64, percent int) int64 {
	return (totalCents*int64(percent) + 50) / 100
}

// Evaluate applies the state gates and the penalty tiers.
//
// Gates, in order: a CANCELLED reservation cannot be cancelled again; a
// COMPLETED one cannot be cancelled at all; once now is at or past the
// check-in instant the window has closed.  Otherwise the tier is picked
// from the hours remaining, and when a non-zero penalty applies the
// caller must have set acknowledged, or the outcome is a denial that
// still carries the computed figures.
func Evaluate(status string, startsOn time.Time, totalCents int64, now time.Time, acknowledged bool) Outcome {
	switch status {
	case model.StatusCancelled:
		return Outcome{DeniedReason: ReasonAlreadyCancelled}
	case model.StatusCompleted:
		return Outcome{DeniedReason: ReasonCompleted}
	}
	if !now.Before(startsOn) {
		return Outcome{DeniedReason: ReasonCheckinPassed}
	}
	hours := startsOn.Sub(now).Hours()
	pct := TierPercent(hours)
	penalty := PenaltyCents(totalCents, pct)
	out := Outcome{
		Allowed:            true,
		TierPercent:        pct,
		PenaltyCents:       penalty,
		RefundCents:        totalCents - penalty,
		HoursBeforeCheckin: hours,
	}
	if penalty > 0 && !acknowledged {
		out.Allowed = false
		out.DeniedReason = ReasonNeedsAck
	}
	return out
}
