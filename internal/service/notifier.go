// Package notifier is the fire-and-forget boundary between the booking
// paths and the external notification collaborator.  Every method
// returns immediately; publishing happens on a goroutine with its own
// timeout, and a failed publish is recorded as an incident on the
// reservation instead of surfacing to the HTTP caller.
package notifier

import (
	"context"
	"log"
	"time"

	"github.com/iliyamo/hotel-booking-engine/internal/model"
	"github.com/iliyamo/hotel-booking-engine/internal/queue"
	"github.com/iliyamo/hotel-booking-engine/internal/repository"
)

// publishTimeout bounds each detached publish attempt.
const publishTimeout = 10 * time.Second

// recordTimeout bounds the incident insert.  It is a separate budget:
// a publish that dies by exhausting its own deadline must not take the
// incident record down with it.
const recordTimeout = 5 * time.Second

// incidentRecorder is the slice of IncidentRepo the notifier needs.
type incidentRecorder interface {
	Record(ctx context.Context, reservationID uint64, eventType, detail string) (string, error)
}

// Notifier publishes reservation lifecycle events.  The incident
// recorder may be nil in tests, in which case failures are only logged.
type Notifier struct {
	incidents incidentRecorder
	publish   func(ctx context.Context, ev queue.ReservationEvent) error
	timeout   time.Duration
}

// New constructs a Notifier recording failures through the given
// incident repository.
func New(incidents *repository.IncidentRepo) *Notifier {
	n := &Notifier{publish: queue.Publish, timeout: publishTimeout}
	if incidents != nil {
		n.incidents = incidents
	}
	return n
}

// ReservationConfirmed emits a reservation.confirmed event.
func (n *Notifier) ReservationConfirmed(res *model.Reservation) {
	n.dispatch(eventFor(queue.EventReservationConfirmed, res))
}

// ReservationCancelled emits a reservation.cancelled event carrying the
// penalty figures.
func (n *Notifier) ReservationCancelled(res *model.Reservation, rec model.Cancellation) {
	ev := eventFor(queue.EventReservationCancelled, res)
	ev.PenaltyCents = rec.PenaltyCents
	ev.RefundCents = rec.RefundCents
	n.dispatch(ev)
}

// PackageConfirmed emits a package.confirmed event for the parent
// reservation; children are covered by their own confirmed events.
func (n *Notifier) PackageConfirmed(parent *model.Reservation, totalCents int64) {
	ev := eventFor(queue.EventPackageConfirmed, parent)
	ev.TotalCents = totalCents
	n.dispatch(ev)
}

func eventFor(eventType string, res *model.Reservation) queue.ReservationEvent {
	ev := queue.ReservationEvent{
		Type:          eventType,
		ReservationID: res.ID,
		Code:          res.Code,
		ResourceType:  res.ResourceType,
		ResourceID:    res.ResourceID,
		HotelID:       res.HotelID,
		GuestName:     res.GuestName,
		GuestEmail:    res.GuestEmail,
		StartsOn:      repository.FormatDate(res.StartsOn),
		EndsOn:        repository.FormatDate(res.EndsOn),
		TotalCents:    res.TotalCents,
		OccurredAt:    time.Now().UTC().Format(time.RFC3339),
	}
	if res.PackageCode != nil {
		ev.PackageCode = *res.PackageCode
	}
	return ev
}

// dispatch publishes on a detached goroutine.  The request context is
// deliberately not inherited: the HTTP response must not wait for, or
// be cancelled along with, the notification attempt.  The incident
// record runs under its own fresh context, because the most common
// publish failure is a hung broker burning the whole publish deadline.
func (n *Notifier) dispatch(ev queue.ReservationEvent) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), n.timeout)
		defer cancel()
		err := n.publish(ctx, ev)
		if err == nil {
			return
		}
		log.Printf("notifier: publish %s for reservation %d failed: %v", ev.Type, ev.ReservationID, err)
		if n.incidents == nil {
			return
		}
		recCtx, recCancel := context.WithTimeout(context.Background(), recordTimeout)
		defer recCancel()
		if _, recErr := n.incidents.Record(recCtx, ev.ReservationID, ev.Type, err.Error()); recErr != nil {
			log.Printf("notifier: record incident for reservation %d failed: %v", ev.ReservationID, recErr)
		}
	}()
}
