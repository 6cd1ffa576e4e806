package bookings

import (
	"context"
	"time"

	"seatline/internal/apperr"
	"seatline/internal/conferences"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// gormStore is the production store, backed by Postgres via GORM.
type gormStore struct {
	db *gorm.DB
}

func newGormStore(db *gorm.DB) *gormStore {
	return &gormStore{db: db}
}

func (s *gormStore) transaction(ctx context.Context, fn func(storeTx) error) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		return fn(&gormTx{ctx: ctx, tx: tx})
	})
}

func (s *gormStore) getBookingByID(ctx context.Context, id uuid.UUID) (*Booking, error) {
	return getBookingByID(s.db.WithContext(ctx), id)
}

func (s *gormStore) getConferenceByID(ctx context.Context, id uuid.UUID) (*conferences.Conference, error) {
	return conferences.GetByID(ctx, s.db, id)
}

func (s *gormStore) getConferenceByName(ctx context.Context, name string) (*conferences.Conference, error) {
	return getConferenceByName(s.db.WithContext(ctx), name)
}

func (s *gormStore) listBookingsByConference(ctx context.Context, confID uuid.UUID) ([]Booking, error) {
	var rows []Booking
	err := s.db.WithContext(ctx).Where("conference_id = ?", confID).Order("created_at ASC").Find(&rows).Error
	if err != nil {
		return nil, apperr.NewInternal("failed to list conference bookings", err)
	}
	return rows, nil
}

// gormTx is the transaction-scoped storeTx implementation every mutating
// operation runs its reads and writes through.
type gormTx struct {
	ctx context.Context
	tx  *gorm.DB
}

func (g *gormTx) lockConference(confID uuid.UUID) error {
	if err := conferences.LockForUpdate(g.ctx, g.tx, confID); err != nil {
		return apperr.NewInternal("failed to acquire conference lock", err)
	}
	return nil
}

func (g *gormTx) getConferenceByID(id uuid.UUID) (*conferences.Conference, error) {
	return conferences.GetByID(g.ctx, g.tx, id)
}

func (g *gormTx) getConferenceByName(name string) (*conferences.Conference, error) {
	return getConferenceByName(g.tx.WithContext(g.ctx), name)
}

func (g *gormTx) getBookingByID(id uuid.UUID) (*Booking, error) {
	return getBookingByID(g.tx.WithContext(g.ctx), id)
}

func (g *gormTx) createBooking(b *Booking) error {
	if err := g.tx.WithContext(g.ctx).Create(b).Error; err != nil {
		return apperr.NewInternal("failed to create booking", err)
	}
	return nil
}

func (g *gormTx) updateBooking(id uuid.UUID, fields map[string]interface{}) error {
	return g.tx.WithContext(g.ctx).Model(&Booking{}).Where("id = ?", id).Updates(fields).Error
}

func (g *gormTx) bulkCancelBookings(confID uuid.UUID, statuses []Status, fields map[string]interface{}) error {
	return g.tx.WithContext(g.ctx).Model(&Booking{}).
		Where("conference_id = ? AND status IN ?", confID, statuses).
		Updates(fields).Error
}

func (g *gormTx) adjustAvailableSlots(confID uuid.UUID, delta int) error {
	return g.tx.WithContext(g.ctx).Model(&conferences.Conference{}).
		Where("id = ?", confID).
		Update("available_slots", gorm.Expr("available_slots + ?", delta)).Error
}

func (g *gormTx) nonCanceledBookingExists(confID uuid.UUID, userID string) (bool, error) {
	var count int64
	err := g.tx.WithContext(g.ctx).Model(&Booking{}).
		Where("conference_id = ? AND user_id = ? AND status <> ?", confID, userID, StatusCanceled).
		Count(&count).Error
	return count > 0, err
}

// overlappingBlockerExists reports whether userID holds a Confirmed or
// ConfirmationPending booking whose conference interval intersects
// [start, end), excluding bookings on the conference excludeConfID.
func (g *gormTx) overlappingBlockerExists(userID string, start, end time.Time, excludeConfID uuid.UUID) (bool, error) {
	var count int64
	err := g.tx.WithContext(g.ctx).Table("bookings").
		Joins("JOIN conferences ON conferences.id = bookings.conference_id").
		Where("bookings.user_id = ?", userID).
		Where("bookings.status IN ?", []Status{StatusConfirmed, StatusConfirmationPending}).
		Where("conferences.id <> ?", excludeConfID).
		Where("conferences.start_ts < ? AND conferences.end_ts > ?", end, start).
		Count(&count).Error
	return count > 0, err
}

// overlappingWaitlisted returns the user's Waitlisted bookings whose
// conference interval intersects [start, end), for cancel-as-side-effect on
// promotion/confirm.
func (g *gormTx) overlappingWaitlisted(userID string, start, end time.Time, excludeBookingID uuid.UUID) ([]Booking, error) {
	var rows []Booking
	err := g.tx.WithContext(g.ctx).Table("bookings").
		Joins("JOIN conferences ON conferences.id = bookings.conference_id").
		Where("bookings.user_id = ? AND bookings.status = ?", userID, StatusWaitlisted).
		Where("bookings.id <> ?", excludeBookingID).
		Where("conferences.start_ts < ? AND conferences.end_ts > ?", end, start).
		Select("bookings.*").
		Find(&rows).Error
	return rows, err
}

func (g *gormTx) maxWaitlistPosition(confID uuid.UUID) (int64, error) {
	var max *int64
	err := g.tx.WithContext(g.ctx).Model(&Booking{}).
		Where("conference_id = ? AND status = ?", confID, StatusWaitlisted).
		Select("MAX(waitlist_position)").
		Scan(&max).Error
	if err != nil {
		return 0, err
	}
	if max == nil {
		return 0, nil
	}
	return *max, nil
}

// nextWaiter returns the Waitlisted booking with the smallest position for
// confID (the FIFO head), or nil if none exists.
func (g *gormTx) nextWaiter(confID uuid.UUID) (*Booking, error) {
	var b Booking
	err := g.tx.WithContext(g.ctx).Where("conference_id = ? AND status = ?", confID, StatusWaitlisted).
		Order("waitlist_position ASC").
		Limit(1).
		First(&b).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (g *gormTx) hasStatus(confID uuid.UUID, status Status) (bool, error) {
	var count int64
	err := g.tx.WithContext(g.ctx).Model(&Booking{}).Where("conference_id = ? AND status = ?", confID, status).Count(&count).Error
	return count > 0, err
}

func getBookingByID(db *gorm.DB, id uuid.UUID) (*Booking, error) {
	var b Booking
	err := db.Where("id = ?", id).First(&b).Error
	if err == gorm.ErrRecordNotFound {
		return nil, apperr.NewNotFound("booking not found", nil)
	}
	if err != nil {
		return nil, apperr.NewInternal("failed to look up booking", err)
	}
	return &b, nil
}

func getConferenceByName(db *gorm.DB, name string) (*conferences.Conference, error) {
	var conf conferences.Conference
	err := db.Where("name = ?", name).First(&conf).Error
	if err == gorm.ErrRecordNotFound {
		return nil, apperr.NewNotFound("conference not found", nil)
	}
	if err != nil {
		return nil, apperr.NewInternal("failed to look up conference", err)
	}
	return &conf, nil
}
