package bookings

import (
	"context"
	"time"

	"seatline/internal/apperr"

	"github.com/google/uuid"
)

// Confirm accepts a ConfirmationPending offer before its deadline. Owner
// access control is checked before any state check, so a non-owner can't
// infer a booking's state from which error comes back.
func (s *Service) Confirm(ctx context.Context, bookingID uuid.UUID, userID string) error {
	var cycled bool
	var confID uuid.UUID

	err := s.store.transaction(ctx, func(tx storeTx) error {
		b, err := tx.getBookingByID(bookingID)
		if err != nil {
			return err
		}
		confID = b.ConferenceID

		if err := tx.lockConference(b.ConferenceID); err != nil {
			return err
		}
		b, err = tx.getBookingByID(bookingID)
		if err != nil {
			return err
		}

		if b.UserID != userID {
			return apperr.NewAccessDenied("booking does not belong to this user")
		}
		if b.Status != StatusConfirmationPending {
			return apperr.NewInvalidState("booking is not awaiting confirmation")
		}

		conf, err := tx.getConferenceByID(b.ConferenceID)
		if err != nil {
			return err
		}
		now := time.Now()
		if !now.Before(conf.StartTS) {
			return apperr.NewConferenceStarted("conference has already started")
		}

		if b.ConfirmationDeadline == nil || now.After(*b.ConfirmationDeadline) {
			// Expired but not yet cycled by the confirmation.expired consumer:
			// cycle inline so the caller gets a consistent Expired result
			// rather than silently confirming a lapsed offer.
			// The closure returns nil so the cycle commits; the Expired
			// error is returned to the caller after the transaction.
			if err := s.cycleExpiredTx(tx, b); err != nil {
				return err
			}
			cycled = true
			return nil
		}

		if err := tx.updateBooking(b.ID, map[string]interface{}{
			"status":                StatusConfirmed,
			"can_confirm":           false,
			"confirmation_deadline": nil,
		}); err != nil {
			return apperr.NewInternal("failed to confirm booking", err)
		}

		return s.cancelOverlappingWaitlisted(tx, b.UserID, conf.StartTS, conf.EndTS, b.ID)
	})

	if cycled && err == nil {
		if err2 := s.runPromotion(ctx, confID); err2 != nil {
			s.log.ErrorWithContext(ctx, "promotion after inline cycle failed", err2, nil)
		}
		return apperr.NewExpired("confirmation window has elapsed")
	}
	if err == nil {
		s.log.LogBookingConfirmed(ctx, bookingID.String(), confID.String(), userID)
		if s.cache != nil {
			s.cache.InvalidateBooking(ctx, bookingID)
			s.cache.InvalidateConference(ctx, confID)
		}
	}
	return err
}

// Cancel moves a booking to Canceled. Confirmed and ConfirmationPending
// bookings release their held slot; Waitlisted bookings just drop off the
// queue.
func (s *Service) Cancel(ctx context.Context, bookingID uuid.UUID) error {
	var freedSlot bool
	var confID uuid.UUID

	err := s.store.transaction(ctx, func(tx storeTx) error {
		b, err := tx.getBookingByID(bookingID)
		if err != nil {
			return err
		}
		confID = b.ConferenceID

		if err := tx.lockConference(b.ConferenceID); err != nil {
			return err
		}
		b, err = tx.getBookingByID(bookingID)
		if err != nil {
			return err
		}

		if b.Status == StatusCanceled {
			return apperr.New(apperr.InvalidState, "booking is already canceled", nil)
		}

		now := time.Now()
		switch b.Status {
		case StatusConfirmed, StatusConfirmationPending:
			if err := tx.updateBooking(b.ID, map[string]interface{}{
				"status":                StatusCanceled,
				"canceled_at":           now,
				"can_confirm":           false,
				"confirmation_deadline": nil,
			}); err != nil {
				return apperr.NewInternal("failed to cancel booking", err)
			}
			if err := tx.adjustAvailableSlots(b.ConferenceID, 1); err != nil {
				return apperr.NewInternal("failed to release slot", err)
			}
			freedSlot = true
		case StatusWaitlisted:
			if err := tx.updateBooking(b.ID, map[string]interface{}{
				"status":            StatusCanceled,
				"canceled_at":       now,
				"waitlist_position": nil,
			}); err != nil {
				return apperr.NewInternal("failed to cancel booking", err)
			}
		}

		return nil
	})
	if err != nil {
		return err
	}

	s.log.LogBookingCancelled(ctx, bookingID.String(), confID.String(), "")
	if s.cache != nil {
		s.cache.InvalidateBooking(ctx, bookingID)
		s.cache.InvalidateConference(ctx, confID)
	}

	if freedSlot && s.bus != nil {
		if err := s.bus.PublishSlotFreed(ctx, confID); err != nil {
			s.log.ErrorWithContext(ctx, "failed to publish slot.freed", err, nil)
		}
	}
	return nil
}

// PromoteNext offers the next waiter a slot, triggered by a slot.freed
// nudge. It is safe to call with no slot actually free: the availability
// check no-ops.
func (s *Service) PromoteNext(ctx context.Context, confID uuid.UUID) error {
	return s.runPromotion(ctx, confID)
}

func (s *Service) runPromotion(ctx context.Context, confID uuid.UUID) error {
	var promoted *Booking

	err := s.store.transaction(ctx, func(tx storeTx) error {
		if err := tx.lockConference(confID); err != nil {
			return err
		}

		conf, err := tx.getConferenceByID(confID)
		if err != nil {
			return err
		}
		if conf.AvailableSlots <= 0 {
			return nil
		}

		waiter, err := tx.nextWaiter(confID)
		if err != nil {
			return apperr.NewInternal("failed to find next waiter", err)
		}
		if waiter == nil {
			return nil
		}

		deadline := time.Now().Add(s.w)
		if err := tx.updateBooking(waiter.ID, map[string]interface{}{
			"status":                StatusConfirmationPending,
			"can_confirm":           true,
			"confirmation_deadline": deadline,
			"waitlist_position":     nil,
		}); err != nil {
			return apperr.NewInternal("failed to promote waiter", err)
		}
		if err := tx.adjustAvailableSlots(confID, -1); err != nil {
			return apperr.NewInternal("failed to reserve slot for offer", err)
		}

		waiter.Status = StatusConfirmationPending
		waiter.ConfirmationDeadline = &deadline
		promoted = waiter
		return s.cancelOverlappingWaitlisted(tx, waiter.UserID, conf.StartTS, conf.EndTS, waiter.ID)
	})
	if err != nil {
		return err
	}
	if promoted == nil {
		return nil
	}

	s.log.LogBookingPromoted(ctx, promoted.ID.String(), confID.String(), *promoted.ConfirmationDeadline)
	if s.cache != nil {
		s.cache.InvalidateConference(ctx, confID)
	}
	if s.bus != nil {
		if err := s.bus.PublishConfirmationTimer(ctx, promoted.ID, s.w); err != nil {
			s.log.ErrorWithContext(ctx, "failed to publish confirmation.timer", err, nil)
		}
	}
	return nil
}

// CycleExpired moves a lapsed ConfirmationPending offer back to the tail of
// the waitlist, triggered by a confirmation.expired delivery. It re-reads
// state first so redelivery and an inline cycle from Confirm are both safe
// no-ops once the booking has moved on.
func (s *Service) CycleExpired(ctx context.Context, bookingID uuid.UUID) error {
	var confID uuid.UUID
	var didCycle bool

	err := s.store.transaction(ctx, func(tx storeTx) error {
		b, err := tx.getBookingByID(bookingID)
		if err != nil {
			return err
		}
		confID = b.ConferenceID

		if err := tx.lockConference(b.ConferenceID); err != nil {
			return err
		}
		b, err = tx.getBookingByID(bookingID)
		if err != nil {
			return err
		}

		if b.Status != StatusConfirmationPending {
			// Already Confirmed or Canceled: no-op, ack.
			return nil
		}

		if err := s.cycleExpiredTx(tx, b); err != nil {
			return err
		}
		didCycle = true
		return nil
	})
	if err != nil {
		return err
	}
	if !didCycle {
		return nil
	}

	s.log.LogBookingExpired(ctx, bookingID.String(), confID.String())
	if s.cache != nil {
		s.cache.InvalidateConference(ctx, confID)
	}
	return s.runPromotion(ctx, confID)
}

// cycleExpiredTx moves b to the tail of the waitlist and releases its
// reserved slot, within an already-open, already-locked tx.
func (s *Service) cycleExpiredTx(tx storeTx, b *Booking) error {
	maxPos, err := tx.maxWaitlistPosition(b.ConferenceID)
	if err != nil {
		return apperr.NewInternal("failed to compute waitlist position", err)
	}
	pos := maxPos + 1

	if err := tx.updateBooking(b.ID, map[string]interface{}{
		"status":                StatusWaitlisted,
		"can_confirm":           false,
		"confirmation_deadline": nil,
		"waitlist_position":     pos,
	}); err != nil {
		return apperr.NewInternal("failed to cycle expired booking", err)
	}
	if err := tx.adjustAvailableSlots(b.ConferenceID, 1); err != nil {
		return apperr.NewInternal("failed to release slot for cycled offer", err)
	}
	return nil
}

// SweepConferenceStart cancels every Waitlisted or ConfirmationPending
// booking of confID once its start time has arrived; they can never be
// fulfilled after that point.
func (s *Service) SweepConferenceStart(ctx context.Context, confID uuid.UUID) error {
	err := s.store.transaction(ctx, func(tx storeTx) error {
		if err := tx.lockConference(confID); err != nil {
			return err
		}

		now := time.Now()
		return tx.bulkCancelBookings(confID, []Status{StatusWaitlisted, StatusConfirmationPending}, map[string]interface{}{
			"status":                StatusCanceled,
			"canceled_at":           now,
			"waitlist_position":     nil,
			"confirmation_deadline": nil,
			"can_confirm":           false,
		})
	})
	if err != nil {
		return err
	}

	if s.cache != nil {
		s.cache.InvalidateConference(ctx, confID)
	}
	return nil
}

// cancelOverlappingWaitlisted cancels a user's Waitlisted bookings whose
// conference interval overlaps [start, end) as a side effect of promotion/
// confirmation, keeping a user from holding both a live booking and a
// stale waitlisted spot on the same time window.
func (s *Service) cancelOverlappingWaitlisted(tx storeTx, userID string, start, end time.Time, excludeBookingID uuid.UUID) error {
	overlapping, err := tx.overlappingWaitlisted(userID, start, end, excludeBookingID)
	if err != nil {
		return apperr.NewInternal("failed to find overlapping waitlisted bookings", err)
	}
	now := time.Now()
	for _, ob := range overlapping {
		if err := tx.updateBooking(ob.ID, map[string]interface{}{
			"status":            StatusCanceled,
			"canceled_at":       now,
			"waitlist_position": nil,
		}); err != nil {
			return apperr.NewInternal("failed to cancel overlapping waitlisted booking", err)
		}
	}
	return nil
}
