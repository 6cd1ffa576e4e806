// Package bus wraps the AMQP 0-9-1 message bus: a slot.freed nudge with no
// expiry, and TTL-delayed confirmation/conference-start timers that
// dead-letter into their "expired"/"starts" routing keys once a booking's
// confirmation window, or a conference's start time, arrives.
package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"seatline/pkg/logger"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	RoutingSlotFreed            = "slot.freed"
	RoutingConfirmationTimer    = "confirmation.timer"
	RoutingConfirmationExpired  = "confirmation.expired"
	RoutingConferenceStartTimer = "conference.start.timer"
	RoutingConferenceStarts     = "conference.starts"
)

const dlxSuffix = ".dlx"

// Bus owns the AMQP connection, channel, and topology for the booking core's
// asynchronous side: slot.freed nudges and timer-driven waitlist cycling.
type Bus struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
	log      *logger.Logger
}

// Connect dials the broker, opens a channel, and declares the exchange, DLX,
// and queues the booking core depends on.
func Connect(url, exchange string) (*Bus, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to message bus: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}
	if err := ch.Qos(10, 0, false); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to set channel qos: %w", err)
	}

	b := &Bus{conn: conn, ch: ch, exchange: exchange, log: logger.GetDefault()}
	if err := b.declareTopology(); err != nil {
		conn.Close()
		return nil, err
	}
	return b, nil
}

func (b *Bus) declareTopology() error {
	dlx := b.exchange + dlxSuffix

	if err := b.ch.ExchangeDeclare(b.exchange, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare exchange: %w", err)
	}
	if err := b.ch.ExchangeDeclare(dlx, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare dead-letter exchange: %w", err)
	}

	if _, err := b.ch.QueueDeclare(RoutingSlotFreed, true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare %s queue: %w", RoutingSlotFreed, err)
	}
	if err := b.ch.QueueBind(RoutingSlotFreed, RoutingSlotFreed, b.exchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind %s queue: %w", RoutingSlotFreed, err)
	}

	if err := b.declareTimerQueue(dlx, RoutingConfirmationTimer, RoutingConfirmationExpired); err != nil {
		return err
	}
	if err := b.declareTimerQueue(dlx, RoutingConferenceStartTimer, RoutingConferenceStarts); err != nil {
		return err
	}

	return nil
}

// declareTimerQueue declares a timer queue bound to the main exchange under
// routingIn, configured so rejected/TTL-expired messages dead-letter to
// routingOut on dlx; and declares the routingOut queue bound to dlx.
func (b *Bus) declareTimerQueue(dlx, routingIn, routingOut string) error {
	args := amqp.Table{
		"x-dead-letter-exchange":    dlx,
		"x-dead-letter-routing-key": routingOut,
	}
	if _, err := b.ch.QueueDeclare(routingIn, true, false, false, false, args); err != nil {
		return fmt.Errorf("failed to declare %s queue: %w", routingIn, err)
	}
	if err := b.ch.QueueBind(routingIn, routingIn, b.exchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind %s queue: %w", routingIn, err)
	}

	if _, err := b.ch.QueueDeclare(routingOut, true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare %s queue: %w", routingOut, err)
	}
	if err := b.ch.QueueBind(routingOut, routingOut, dlx, false, nil); err != nil {
		return fmt.Errorf("failed to bind %s queue: %w", routingOut, err)
	}
	return nil
}

// Close tears down the channel and connection.
func (b *Bus) Close() error {
	if err := b.ch.Close(); err != nil {
		return err
	}
	return b.conn.Close()
}

type slotFreedMessage struct {
	ConferenceID string `json:"conference_id"`
}

type timerMessage struct {
	BookingID string `json:"booking_id"`
}

// PublishSlotFreed nudges that confID has a free slot. It implements
// bookings.Publisher.
func (b *Bus) PublishSlotFreed(ctx context.Context, confID uuid.UUID) error {
	body, err := json.Marshal(slotFreedMessage{ConferenceID: confID.String()})
	if err != nil {
		return fmt.Errorf("failed to marshal slot.freed message: %w", err)
	}
	return b.publish(ctx, RoutingSlotFreed, body, "")
}

// PublishConfirmationTimer schedules a confirmation.expired delivery for
// bookingID after ttl elapses. It implements bookings.Publisher.
func (b *Bus) PublishConfirmationTimer(ctx context.Context, bookingID uuid.UUID, ttl time.Duration) error {
	body, err := json.Marshal(timerMessage{BookingID: bookingID.String()})
	if err != nil {
		return fmt.Errorf("failed to marshal confirmation.timer message: %w", err)
	}
	return b.publish(ctx, RoutingConfirmationTimer, body, expirationMillis(ttl))
}

type confStartMessage struct {
	ConferenceID string `json:"conference_id"`
}

// PublishConferenceStartTimer schedules a conference.starts delivery for
// confID once its start_ts arrives.
func (b *Bus) PublishConferenceStartTimer(ctx context.Context, confID uuid.UUID, ttl time.Duration) error {
	body, err := json.Marshal(confStartMessage{ConferenceID: confID.String()})
	if err != nil {
		return fmt.Errorf("failed to marshal conference.start.timer message: %w", err)
	}
	return b.publish(ctx, RoutingConferenceStartTimer, body, expirationMillis(ttl))
}

func expirationMillis(ttl time.Duration) string {
	if ttl < 0 {
		ttl = 0
	}
	return strconv.FormatInt(ttl.Milliseconds(), 10)
}

func (b *Bus) publish(ctx context.Context, routingKey string, body []byte, expiration string) error {
	return b.ch.PublishWithContext(ctx, b.exchange, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		Expiration:   expiration,
		DeliveryMode: amqp.Persistent,
	})
}

// Channel exposes the underlying AMQP channel for the workers package to
// register consumers on.
func (b *Bus) Channel() *amqp.Channel {
	return b.ch
}
