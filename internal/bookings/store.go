package bookings

import (
	"context"
	"time"

	"seatline/internal/conferences"

	"github.com/google/uuid"
)

// store is the persistence seam the Admission Decider, Promotion Engine,
// Confirmation Window, Cancellation Handler, and Conference-Start Sweeper are
// built against. The production implementation (gormStore) backs it with
// Postgres; tests back it with an in-memory fake so the state machine can
// run without a database.
type store interface {
	// transaction runs fn against a single transactional handle. Every
	// mutating operation opens exactly one transaction and does all of its
	// reads and writes through the storeTx it receives.
	transaction(ctx context.Context, fn func(storeTx) error) error

	getBookingByID(ctx context.Context, id uuid.UUID) (*Booking, error)
	getConferenceByID(ctx context.Context, id uuid.UUID) (*conferences.Conference, error)
	getConferenceByName(ctx context.Context, name string) (*conferences.Conference, error)
	listBookingsByConference(ctx context.Context, confID uuid.UUID) ([]Booking, error)
}

// storeTx is the transaction-scoped surface a single state-machine operation
// composes into its decision. lockConference must be called before any read
// that the decision depends on staying stable for the rest of the
// transaction.
type storeTx interface {
	lockConference(confID uuid.UUID) error

	getConferenceByID(id uuid.UUID) (*conferences.Conference, error)
	getConferenceByName(name string) (*conferences.Conference, error)
	getBookingByID(id uuid.UUID) (*Booking, error)

	createBooking(b *Booking) error
	updateBooking(id uuid.UUID, fields map[string]interface{}) error
	bulkCancelBookings(confID uuid.UUID, statuses []Status, fields map[string]interface{}) error
	adjustAvailableSlots(confID uuid.UUID, delta int) error

	nonCanceledBookingExists(confID uuid.UUID, userID string) (bool, error)
	overlappingBlockerExists(userID string, start, end time.Time, excludeConfID uuid.UUID) (bool, error)
	overlappingWaitlisted(userID string, start, end time.Time, excludeBookingID uuid.UUID) ([]Booking, error)
	maxWaitlistPosition(confID uuid.UUID) (int64, error)
	nextWaiter(confID uuid.UUID) (*Booking, error)
	hasStatus(confID uuid.UUID, status Status) (bool, error)
}
