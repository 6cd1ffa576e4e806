package bookings

import (
	"context"
	"time"

	"seatline/internal/apperr"
	"seatline/pkg/logger"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Publisher is the subset of the Message Bus the booking core needs: a nudge
// that a slot was freed, and a TTL-delayed confirmation-expiry message keyed
// by booking_id. The bookings package depends only on this
// interface so it never imports the AMQP transport directly.
type Publisher interface {
	PublishSlotFreed(ctx context.Context, confID uuid.UUID) error
	PublishConfirmationTimer(ctx context.Context, bookingID uuid.UUID, ttl time.Duration) error
}

// Cache is the cache-aside read cache the service reads through and
// invalidates on write.
type Cache interface {
	GetBooking(ctx context.Context, id uuid.UUID, dest interface{}) error
	SetBooking(ctx context.Context, id uuid.UUID, value interface{})
	GetConferenceBookings(ctx context.Context, confID uuid.UUID, dest interface{}) error
	SetConferenceBookings(ctx context.Context, confID uuid.UUID, value interface{})
	InvalidateBooking(ctx context.Context, bookingID uuid.UUID)
	InvalidateConference(ctx context.Context, confID uuid.UUID)
}

// Service implements the Admission Decider, Promotion Engine, Confirmation
// Window & Cycling, Cancellation Handler, Conference-Start Sweeper, and
// confirmation API.
type Service struct {
	store store
	bus   Publisher
	cache Cache
	log   *logger.Logger
	w     time.Duration
}

func NewService(db *gorm.DB, bus Publisher, cache Cache, confirmationWindow time.Duration) *Service {
	return newService(newGormStore(db), bus, cache, confirmationWindow)
}

// newService wires a Service against an arbitrary store, letting tests
// substitute an in-memory fake for the Postgres-backed one NewService uses.
func newService(st store, bus Publisher, cache Cache, confirmationWindow time.Duration) *Service {
	return &Service{
		store: st,
		bus:   bus,
		cache: cache,
		log:   logger.GetDefault(),
		w:     confirmationWindow,
	}
}

// Book runs the admission decision for (userID, confName).
func (s *Service) Book(ctx context.Context, userID, confName string) (*Booking, error) {
	var result *Booking

	err := s.store.transaction(ctx, func(tx storeTx) error {
		conf, err := tx.getConferenceByName(confName)
		if err != nil {
			return err
		}

		if err := tx.lockConference(conf.ID); err != nil {
			return err
		}

		// Re-read after acquiring the lock: another tx may have mutated slots.
		conf, err = tx.getConferenceByName(confName)
		if err != nil {
			return err
		}

		now := time.Now()
		if !now.Before(conf.StartTS) {
			return apperr.NewConferenceStarted("conference has already started")
		}

		exists, err := tx.nonCanceledBookingExists(conf.ID, userID)
		if err != nil {
			return apperr.NewInternal("failed to check existing booking", err)
		}
		if exists {
			return apperr.NewDuplicate("user already has a booking for this conference", nil)
		}

		blocked, err := tx.overlappingBlockerExists(userID, conf.StartTS, conf.EndTS, conf.ID)
		if err != nil {
			return apperr.NewInternal("failed to check overlapping bookings", err)
		}
		if blocked {
			return apperr.NewOverlap("user has a conflicting booking in this time window")
		}

		pendingExists, err := tx.hasStatus(conf.ID, StatusConfirmationPending)
		if err != nil {
			return apperr.NewInternal("failed to check pending offers", err)
		}
		waitlistedExists, err := tx.hasStatus(conf.ID, StatusWaitlisted)
		if err != nil {
			return apperr.NewInternal("failed to check waitlist", err)
		}

		if conf.AvailableSlots > 0 && !pendingExists && !waitlistedExists {
			b := &Booking{
				ConferenceID: conf.ID,
				UserID:       userID,
				Status:       StatusConfirmed,
			}
			if err := tx.createBooking(b); err != nil {
				return err
			}
			if err := tx.adjustAvailableSlots(conf.ID, -1); err != nil {
				return apperr.NewInternal("failed to decrement available slots", err)
			}
			result = b
			return nil
		}

		maxPos, err := tx.maxWaitlistPosition(conf.ID)
		if err != nil {
			return apperr.NewInternal("failed to compute waitlist position", err)
		}
		pos := maxPos + 1
		b := &Booking{
			ConferenceID:     conf.ID,
			UserID:           userID,
			Status:           StatusWaitlisted,
			WaitlistPosition: &pos,
			CanConfirm:       false,
		}
		if err := tx.createBooking(b); err != nil {
			return err
		}
		result = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Status == StatusConfirmed {
		s.log.LogBookingConfirmed(ctx, result.ID.String(), result.ConferenceID.String(), userID)
	} else {
		s.log.LogBookingWaitlisted(ctx, result.ID.String(), result.ConferenceID.String(), int(*result.WaitlistPosition))
	}
	if s.cache != nil {
		s.cache.InvalidateConference(ctx, result.ConferenceID)
	}

	return result, nil
}

// GetByID returns a booking and its conference's name for GET /booking/{id},
// reading through the cache.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*Booking, string, error) {
	var b *Booking
	if s.cache != nil {
		var cached Booking
		if err := s.cache.GetBooking(ctx, id, &cached); err == nil {
			b = &cached
		}
	}

	if b == nil {
		fetched, err := s.store.getBookingByID(ctx, id)
		if err != nil {
			return nil, "", err
		}
		b = fetched
		if s.cache != nil {
			s.cache.SetBooking(ctx, id, b)
		}
	}

	conf, err := s.store.getConferenceByID(ctx, b.ConferenceID)
	if err != nil {
		return nil, "", err
	}
	return b, conf.Name, nil
}

// ListByConferenceName returns every booking of the named conference for
// GET /conference/{name}/bookings, reading through the cache.
func (s *Service) ListByConferenceName(ctx context.Context, name string) ([]Booking, error) {
	conf, err := s.store.getConferenceByName(ctx, name)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		var cached []Booking
		if err := s.cache.GetConferenceBookings(ctx, conf.ID, &cached); err == nil {
			return cached, nil
		}
	}

	rows, err := s.store.listBookingsByConference(ctx, conf.ID)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.SetConferenceBookings(ctx, conf.ID, rows)
	}
	return rows, nil
}
