package bookings

import (
	"context"
	"sync"
	"time"

	"seatline/internal/apperr"
	"seatline/internal/conferences"

	"github.com/google/uuid"
)

// fakeStore is an in-memory store used to drive the state machine in tests
// without a database. It serializes every transaction behind a single mutex,
// which stands in for the real advisory lock: lockConference is a no-op
// against it because the mutex already gives the whole transaction
// exclusivity.
type fakeStore struct {
	mu    sync.Mutex
	confs map[uuid.UUID]*conferences.Conference
	books map[uuid.UUID]*Booking
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		confs: make(map[uuid.UUID]*conferences.Conference),
		books: make(map[uuid.UUID]*Booking),
	}
}

// putConference seeds a conference directly into the fake, bypassing the
// conferences package entirely.
func (f *fakeStore) putConference(c *conferences.Conference) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *c
	f.confs[c.ID] = &cp
}

func (f *fakeStore) booking(id uuid.UUID) *Booking {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.books[id]
	if !ok {
		return nil
	}
	cp := *b
	return &cp
}

func (f *fakeStore) transaction(_ context.Context, fn func(storeTx) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return fn(&fakeTx{f: f})
}

func (f *fakeStore) getBookingByID(_ context.Context, id uuid.UUID) (*Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lockedGetBooking(id)
}

func (f *fakeStore) getConferenceByID(_ context.Context, id uuid.UUID) (*conferences.Conference, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lockedGetConferenceByID(id)
}

func (f *fakeStore) getConferenceByName(_ context.Context, name string) (*conferences.Conference, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lockedGetConferenceByName(name)
}

func (f *fakeStore) listBookingsByConference(_ context.Context, confID uuid.UUID) ([]Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Booking
	for _, b := range f.books {
		if b.ConferenceID == confID {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (f *fakeStore) lockedGetBooking(id uuid.UUID) (*Booking, error) {
	b, ok := f.books[id]
	if !ok {
		return nil, apperr.NewNotFound("booking not found", nil)
	}
	cp := *b
	return &cp, nil
}

func (f *fakeStore) lockedGetConferenceByID(id uuid.UUID) (*conferences.Conference, error) {
	c, ok := f.confs[id]
	if !ok {
		return nil, apperr.NewNotFound("conference not found", nil)
	}
	cp := *c
	return &cp, nil
}

func (f *fakeStore) lockedGetConferenceByName(name string) (*conferences.Conference, error) {
	for _, c := range f.confs {
		if c.Name == name {
			cp := *c
			return &cp, nil
		}
	}
	return nil, apperr.NewNotFound("conference not found", nil)
}

// fakeTx is the transaction-scoped handle bound to a held fakeStore lock.
type fakeTx struct {
	f *fakeStore
}

func (t *fakeTx) lockConference(uuid.UUID) error { return nil }

func (t *fakeTx) getConferenceByID(id uuid.UUID) (*conferences.Conference, error) {
	return t.f.lockedGetConferenceByID(id)
}

func (t *fakeTx) getConferenceByName(name string) (*conferences.Conference, error) {
	return t.f.lockedGetConferenceByName(name)
}

func (t *fakeTx) getBookingByID(id uuid.UUID) (*Booking, error) {
	return t.f.lockedGetBooking(id)
}

func (t *fakeTx) createBooking(b *Booking) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	b.CreatedAt = time.Now()
	b.UpdatedAt = b.CreatedAt
	cp := *b
	t.f.books[b.ID] = &cp
	return nil
}

func (t *fakeTx) updateBooking(id uuid.UUID, fields map[string]interface{}) error {
	b, ok := t.f.books[id]
	if !ok {
		return apperr.NewNotFound("booking not found", nil)
	}
	applyBookingFields(b, fields)
	return nil
}

func (t *fakeTx) bulkCancelBookings(confID uuid.UUID, statuses []Status, fields map[string]interface{}) error {
	want := make(map[Status]bool, len(statuses))
	for _, s := range statuses {
		want[s] = true
	}
	for _, b := range t.f.books {
		if b.ConferenceID == confID && want[b.Status] {
			applyBookingFields(b, fields)
		}
	}
	return nil
}

func (t *fakeTx) adjustAvailableSlots(confID uuid.UUID, delta int) error {
	c, ok := t.f.confs[confID]
	if !ok {
		return apperr.NewNotFound("conference not found", nil)
	}
	c.AvailableSlots += delta
	return nil
}

func (t *fakeTx) nonCanceledBookingExists(confID uuid.UUID, userID string) (bool, error) {
	for _, b := range t.f.books {
		if b.ConferenceID == confID && b.UserID == userID && b.Status != StatusCanceled {
			return true, nil
		}
	}
	return false, nil
}

func (t *fakeTx) overlappingBlockerExists(userID string, start, end time.Time, excludeConfID uuid.UUID) (bool, error) {
	for _, b := range t.f.books {
		if b.UserID != userID || !b.Status.Blocks() || b.ConferenceID == excludeConfID {
			continue
		}
		conf, ok := t.f.confs[b.ConferenceID]
		if !ok {
			continue
		}
		if conf.StartTS.Before(end) && conf.EndTS.After(start) {
			return true, nil
		}
	}
	return false, nil
}

func (t *fakeTx) overlappingWaitlisted(userID string, start, end time.Time, excludeBookingID uuid.UUID) ([]Booking, error) {
	var out []Booking
	for _, b := range t.f.books {
		if b.UserID != userID || b.Status != StatusWaitlisted || b.ID == excludeBookingID {
			continue
		}
		conf, ok := t.f.confs[b.ConferenceID]
		if !ok {
			continue
		}
		if conf.StartTS.Before(end) && conf.EndTS.After(start) {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (t *fakeTx) maxWaitlistPosition(confID uuid.UUID) (int64, error) {
	var max int64
	for _, b := range t.f.books {
		if b.ConferenceID == confID && b.Status == StatusWaitlisted && b.WaitlistPosition != nil && *b.WaitlistPosition > max {
			max = *b.WaitlistPosition
		}
	}
	return max, nil
}

func (t *fakeTx) nextWaiter(confID uuid.UUID) (*Booking, error) {
	var best *Booking
	for _, b := range t.f.books {
		if b.ConferenceID != confID || b.Status != StatusWaitlisted {
			continue
		}
		if best == nil || (b.WaitlistPosition != nil && *b.WaitlistPosition < *best.WaitlistPosition) {
			best = b
		}
	}
	if best == nil {
		return nil, nil
	}
	cp := *best
	return &cp, nil
}

func (t *fakeTx) hasStatus(confID uuid.UUID, status Status) (bool, error) {
	for _, b := range t.f.books {
		if b.ConferenceID == confID && b.Status == status {
			return true, nil
		}
	}
	return false, nil
}

// applyBookingFields mutates b in place using the same field names the
// gorm-backed store's Updates(map[string]interface{}) calls use.
func applyBookingFields(b *Booking, fields map[string]interface{}) {
	for k, v := range fields {
		switch k {
		case "status":
			b.Status = v.(Status)
		case "can_confirm":
			b.CanConfirm = v.(bool)
		case "confirmation_deadline":
			if v == nil {
				b.ConfirmationDeadline = nil
			} else {
				t := v.(time.Time)
				b.ConfirmationDeadline = &t
			}
		case "waitlist_position":
			if v == nil {
				b.WaitlistPosition = nil
			} else {
				p := v.(int64)
				b.WaitlistPosition = &p
			}
		case "canceled_at":
			t := v.(time.Time)
			b.CanceledAt = &t
		}
	}
	b.UpdatedAt = time.Now()
}
