// Package workers wires AMQP deliveries to the booking core's asynchronous
// operations: the Promotion Engine, the Confirmation Window's expiry path,
// and the conference-start sweep.
package workers

import (
	"context"
	"encoding/json"

	"seatline/internal/bookings"
	"seatline/internal/bus"
	"seatline/pkg/logger"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// Runner consumes the three timer/nudge queues declared by bus.Bus and
// drives the corresponding bookings.Service method for every delivery.
type Runner struct {
	ch       *amqp.Channel
	bookings *bookings.Service
	log      *logger.Logger
}

func NewRunner(b *bus.Bus, bookingService *bookings.Service) *Runner {
	return &Runner{ch: b.Channel(), bookings: bookingService, log: logger.GetDefault()}
}

// Run starts one consumer goroutine per queue and blocks until ctx is
// canceled.
func (r *Runner) Run(ctx context.Context) error {
	if err := r.consume(ctx, bus.RoutingSlotFreed, r.handleSlotFreed); err != nil {
		return err
	}
	if err := r.consume(ctx, bus.RoutingConfirmationExpired, r.handleConfirmationExpired); err != nil {
		return err
	}
	if err := r.consume(ctx, bus.RoutingConferenceStarts, r.handleConferenceStarts); err != nil {
		return err
	}
	<-ctx.Done()
	return nil
}

func (r *Runner) consume(ctx context.Context, queue string, handle func(context.Context, amqp.Delivery) error) error {
	deliveries, err := r.ch.Consume(queue, "", false, false, false, false, nil)
	if err != nil {
		return err
	}
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					return
				}
				if err := handle(ctx, d); err != nil {
					r.log.ErrorWithContext(ctx, "worker delivery failed, requeueing", err, map[string]interface{}{"queue": queue})
					d.Nack(false, true)
					continue
				}
				d.Ack(false)
			}
		}
	}()
	return nil
}

type conferenceMessage struct {
	ConferenceID string `json:"conference_id"`
}

type bookingMessage struct {
	BookingID string `json:"booking_id"`
}

func (r *Runner) handleSlotFreed(ctx context.Context, d amqp.Delivery) error {
	var msg conferenceMessage
	if err := json.Unmarshal(d.Body, &msg); err != nil {
		return err
	}
	confID, err := uuid.Parse(msg.ConferenceID)
	if err != nil {
		return err
	}
	return r.bookings.PromoteNext(ctx, confID)
}

func (r *Runner) handleConfirmationExpired(ctx context.Context, d amqp.Delivery) error {
	var msg bookingMessage
	if err := json.Unmarshal(d.Body, &msg); err != nil {
		return err
	}
	bookingID, err := uuid.Parse(msg.BookingID)
	if err != nil {
		return err
	}
	return r.bookings.CycleExpired(ctx, bookingID)
}

func (r *Runner) handleConferenceStarts(ctx context.Context, d amqp.Delivery) error {
	var msg conferenceMessage
	if err := json.Unmarshal(d.Body, &msg); err != nil {
		return err
	}
	confID, err := uuid.Parse(msg.ConferenceID)
	if err != nil {
		return err
	}
	return r.bookings.SweepConferenceStart(ctx, confID)
}
