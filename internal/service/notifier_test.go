package notifier

import (
	"context"
	"testing"
	"time"

	"github.com/iliyamo/hotel-booking-engine/internal/model"
	"github.com/iliyamo/hotel-booking-engine/internal/queue"
)

// recorderStub captures the context state at the moment Record runs.
type recorderStub struct {
	done chan error
}

func (s *recorderStub) Record(ctx context.Context, reservationID uint64, eventType, detail string) (string, error) {
	s.done <- ctx.Err()
	return "incident-1", nil
}

func sampleReservation() *model.Reservation {
	return &model.Reservation{
		ID:           7,
		Code:         "RES-20240101-0007",
		ResourceType: model.ResourceRoom,
		ResourceID:   3,
		HotelID:      1,
		GuestName:    "Ana",
		GuestEmail:   "ana@example.com",
		StartsOn:     time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		EndsOn:       time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC),
		TotalCents:   357000,
	}
}

func TestIncidentRecordedAfterPublishTimeout(t *testing.T) {
	rec := &recorderStub{done: make(chan error, 1)}
	n := &Notifier{
		incidents: rec,
		timeout:   10 * time.Millisecond,
		// a hung broker burns the entire publish budget before failing
		publish: func(ctx context.Context, ev queue.ReservationEvent) error {
			<-ctx.Done()
			return ctx.Err()
		},
	}

	n.ReservationConfirmed(sampleReservation())

	select {
	case ctxErr := <-rec.done:
		if ctxErr != nil {
			t.Errorf("incident recorded under an expired context: %v", ctxErr)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("incident was never recorded after a publish timeout")
	}
}

func TestNoIncidentOnSuccessfulPublish(t *testing.T) {
	rec := &recorderStub{done: make(chan error, 1)}
	published := make(chan queue.ReservationEvent, 1)
	n := &Notifier{
		incidents: rec,
		timeout:   time.Second,
		publish: func(ctx context.Context, ev queue.ReservationEvent) error {
			published <- ev
			return nil
		},
	}

	n.ReservationConfirmed(sampleReservation())

	select {
	case ev := <-published:
		if ev.Type != queue.EventReservationConfirmed {
			t.Errorf("published event type = %q, want %q", ev.Type, queue.EventReservationConfirmed)
		}
		if ev.Code != "RES-20240101-0007" {
			t.Errorf("published event code = %q", ev.Code)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("event was never published")
	}
	select {
	case <-rec.done:
		t.Error("no incident should be recorded for a successful publish")
	case <-time.After(50 * time.Millisecond):
	}
}
