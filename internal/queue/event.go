// Package queue defines message payloads exchanged over the message broker
// and the publish/consume plumbing around them.
package queue

// Event types carried in ReservationEvent.Type.
const (
	EventReservationConfirmed = "reservation.confirmed"
	EventReservationCancelled = "reservation.cancelled"
	EventPackageConfirmed     = "package.confirmed"
)

// ReservationEvent is published after a reservation is confirmed or
// cancelled, and once per confirmed package.  It contains enough
// information for downstream consumers to log, notify, or trigger
// analytics without querying the primary database.
type ReservationEvent struct {
	Type          string `json:"type"`
	ReservationID uint64 `json:"reservation_id"`
	Code          string `json:"code"`
	PackageCode   string `json:"package_code,omitempty"`
	ResourceType  string `json:"resource_type"`
	ResourceID    uint64 `json:"resource_id"`
	HotelID       uint64 `json:"hotel_id"`
	GuestName     string `json:"guest_name"`
	GuestEmail    string `json:"guest_email"`
	StartsOn      string `json:"starts_on"`
	EndsOn        string `json:"ends_on"`
	TotalCents    int64  `json:"total_cents"`
	PenaltyCents  int64  `json:"penalty_cents,omitempty"`
	RefundCents   int64  `json:"refund_cents,omitempty"`
	OccurredAt    string `json:"occurred_at"`
}
