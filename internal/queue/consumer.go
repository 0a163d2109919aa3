// The background consumer listens to the reservation.events queue and
// writes structured lines to logs/booking.log.  It stands in for the
// external notification service: delivery failures on the publishing
// side are recorded as incidents, and this consumer drains whatever
// made it onto the queue.
package queue

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// StartReservationConsumer connects to RabbitMQ, declares the
// reservation.events queue (durable), and starts consuming messages.
// Each message is appended to logs/booking.log in a single-line,
// human-friendly format.  The function runs a reconnect loop with
// exponential backoff and keeps running across broker restarts; any
// processing error is logged and the offending message rejected so the
// server continues operating.
func StartReservationConsumer() error {
	url := brokerURL()

	backoff := time.Second
	for {
		conn, err := amqp.Dial(url)
		if err != nil {
			log.Printf("reservation-consumer: failed to dial broker: %v; retrying in %s", err, backoff)
			time.Sleep(backoff)
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second // reset after successful connect

		if err := consumeLoop(conn); err != nil {
			log.Printf("reservation-consumer: consume loop ended: %v; reconnecting", err)
			// Sleep briefly before reconnect
			time.Sleep(2 * time.Second)
			continue
		}
	}
}

func consumeLoop(conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		log.Printf("reservation-consumer: set QoS failed: %v", err)
	}

	_, err = ch.QueueDeclare(reservationQueueName, true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}

	msgs, err := ch.Consume(reservationQueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for d := range msgs {
		if err := handleMessage(d.Body); err != nil {
			log.Printf("reservation-consumer: handle message failed: %v", err)
			_ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
			continue
		}
		_ = d.Ack(false)
	}
	return errors.New("deliveries channel closed")
}

func handleMessage(body []byte) error {
	var ev ReservationEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	// Ensure logs directory exists
	if err := os.MkdirAll("logs", 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	fpath := filepath.Join("logs", "booking.log")
	f, err := os.OpenFile(fpath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	line := formatEventLine(ev)
	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

func formatEventLine(ev ReservationEvent) string {
	pkg := ""
	if ev.PackageCode != "" {
		pkg = fmt.Sprintf(" | package=%s", ev.PackageCode)
	}
	switch ev.Type {
	case EventReservationCancelled:
		return fmt.Sprintf("[%s] Reservation cancelled | code=%s | %s %d | hotel=%d | penalty=%d cents | refund=%d cents%s\n",
			ev.OccurredAt, ev.Code, ev.ResourceType, ev.ResourceID, ev.HotelID, ev.PenaltyCents, ev.RefundCents, pkg)
	case EventPackageConfirmed:
		return fmt.Sprintf("[%s] Package confirmed | package=%s | hall=%d | hotel=%d | guest=\"%s\" | %s..%s | total=%d cents\n",
			ev.OccurredAt, ev.PackageCode, ev.ResourceID, ev.HotelID, ev.GuestName, ev.StartsOn, ev.EndsOn, ev.TotalCents)
	default:
		return fmt.Sprintf("[%s] Reservation confirmed | code=%s | %s %d | hotel=%d | guest=\"%s\" | %s..%s | total=%d cents%s\n",
			ev.OccurredAt, ev.Code, ev.ResourceType, ev.ResourceID, ev.HotelID, ev.GuestName, ev.StartsOn, ev.EndsOn, ev.TotalCents, pkg)
	}
}
