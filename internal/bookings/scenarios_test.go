package bookings

import (
	"context"
	"testing"
	"time"

	"seatline/internal/apperr"
	"seatline/internal/conferences"

	"github.com/google/uuid"
)

const testWindow = 15 * time.Minute

func newTestService() (*Service, *fakeStore) {
	fs := newFakeStore()
	return newService(fs, nil, nil, testWindow), fs
}

func seedConference(fs *fakeStore, name string, start, end time.Time, slots int) *conferences.Conference {
	c := &conferences.Conference{
		ID:             uuid.New(),
		Name:           name,
		StartTS:        start,
		EndTS:          end,
		TotalSlots:     slots,
		AvailableSlots: slots,
		CreatedAt:      time.Now(),
	}
	fs.putConference(c)
	return c
}

func future(d time.Duration) time.Time { return time.Now().Add(d) }

// Scenario 1: a booking made while slots are free and no one is waiting is
// confirmed outright.
func TestBook_HappyPath(t *testing.T) {
	svc, fs := newTestService()
	conf := seedConference(fs, "GopherCon", future(time.Hour), future(2*time.Hour), 2)

	b, err := svc.Book(context.Background(), "alice", conf.Name)
	if err != nil {
		t.Fatalf("Book() error = %v", err)
	}
	if b.Status != StatusConfirmed {
		t.Fatalf("Status = %s, want %s", b.Status, StatusConfirmed)
	}
	if b.WaitlistPosition != nil {
		t.Fatalf("WaitlistPosition = %v, want nil", b.WaitlistPosition)
	}

	got, err := fs.lockedGetConferenceByID(conf.ID)
	if err != nil {
		t.Fatalf("lockedGetConferenceByID() error = %v", err)
	}
	if got.AvailableSlots != 1 {
		t.Fatalf("AvailableSlots = %d, want 1", got.AvailableSlots)
	}
}

// Scenario 2: once the only slot is full, a new booking waitlists; canceling
// the confirmed booking frees the slot, a promotion nudge offers it to the
// waiter, and the waiter can then confirm it.
func TestBook_PromotionAndConfirm(t *testing.T) {
	ctx := context.Background()
	svc, fs := newTestService()
	conf := seedConference(fs, "GopherCon", future(time.Hour), future(2*time.Hour), 1)

	first, err := svc.Book(ctx, "alice", conf.Name)
	if err != nil {
		t.Fatalf("Book(alice) error = %v", err)
	}
	if first.Status != StatusConfirmed {
		t.Fatalf("first.Status = %s, want %s", first.Status, StatusConfirmed)
	}

	second, err := svc.Book(ctx, "bob", conf.Name)
	if err != nil {
		t.Fatalf("Book(bob) error = %v", err)
	}
	if second.Status != StatusWaitlisted {
		t.Fatalf("second.Status = %s, want %s", second.Status, StatusWaitlisted)
	}
	if second.WaitlistPosition == nil || *second.WaitlistPosition != 1 {
		t.Fatalf("second.WaitlistPosition = %v, want 1", second.WaitlistPosition)
	}

	if err := svc.Cancel(ctx, first.ID); err != nil {
		t.Fatalf("Cancel(first) error = %v", err)
	}

	if err := svc.PromoteNext(ctx, conf.ID); err != nil {
		t.Fatalf("PromoteNext() error = %v", err)
	}

	promoted := fs.booking(second.ID)
	if promoted.Status != StatusConfirmationPending {
		t.Fatalf("promoted.Status = %s, want %s", promoted.Status, StatusConfirmationPending)
	}
	if !promoted.CanConfirm {
		t.Fatalf("promoted.CanConfirm = false, want true")
	}
	if promoted.ConfirmationDeadline == nil {
		t.Fatalf("promoted.ConfirmationDeadline = nil, want set")
	}
	if promoted.WaitlistPosition != nil {
		t.Fatalf("promoted.WaitlistPosition = %v, want nil", promoted.WaitlistPosition)
	}

	if err := svc.Confirm(ctx, second.ID, "bob"); err != nil {
		t.Fatalf("Confirm() error = %v", err)
	}
	confirmed := fs.booking(second.ID)
	if confirmed.Status != StatusConfirmed {
		t.Fatalf("confirmed.Status = %s, want %s", confirmed.Status, StatusConfirmed)
	}
	if confirmed.CanConfirm {
		t.Fatalf("confirmed.CanConfirm = true, want false")
	}
}

// Scenario 3: a ConfirmationPending offer whose deadline lapses cycles back
// onto the tail of the waitlist and frees its reserved slot, which the
// following promotion run can then offer to the next waiter in line.
func TestCycleExpired_ReturnsToWaitlistTailAndPromotesNext(t *testing.T) {
	ctx := context.Background()
	svc, fs := newTestService()
	conf := seedConference(fs, "GopherCon", future(time.Hour), future(2*time.Hour), 1)

	_, err := svc.Book(ctx, "alice", conf.Name)
	if err != nil {
		t.Fatalf("Book(alice) error = %v", err)
	}
	bob, err := svc.Book(ctx, "bob", conf.Name)
	if err != nil {
		t.Fatalf("Book(bob) error = %v", err)
	}
	carol, err := svc.Book(ctx, "carol", conf.Name)
	if err != nil {
		t.Fatalf("Book(carol) error = %v", err)
	}

	// Cancel alice's confirmed booking to free the slot and promote bob.
	alice := mustFindBooking(fs, conf.ID, "alice")
	if err := svc.Cancel(ctx, alice.ID); err != nil {
		t.Fatalf("Cancel(alice) error = %v", err)
	}
	if err := svc.PromoteNext(ctx, conf.ID); err != nil {
		t.Fatalf("PromoteNext() error = %v", err)
	}

	promotedBob := fs.booking(bob.ID)
	if promotedBob.Status != StatusConfirmationPending {
		t.Fatalf("bob.Status = %s, want %s", promotedBob.Status, StatusConfirmationPending)
	}

	// Force the deadline into the past to simulate an elapsed window.
	expired := time.Now().Add(-time.Minute)
	fs.mu.Lock()
	fs.books[bob.ID].ConfirmationDeadline = &expired
	fs.mu.Unlock()

	if err := svc.CycleExpired(ctx, bob.ID); err != nil {
		t.Fatalf("CycleExpired() error = %v", err)
	}

	cycledBob := fs.booking(bob.ID)
	if cycledBob.Status != StatusWaitlisted {
		t.Fatalf("bob.Status after cycle = %s, want %s", cycledBob.Status, StatusWaitlisted)
	}
	if cycledBob.WaitlistPosition == nil || *cycledBob.WaitlistPosition <= 1 {
		t.Fatalf("bob.WaitlistPosition = %v, want > 1 (tail)", cycledBob.WaitlistPosition)
	}

	// CycleExpired runs a promotion of its own; since the freed slot is
	// immediately available again, carol (the remaining waiter) should now
	// be the one offered it.
	promotedCarol := fs.booking(carol.ID)
	if promotedCarol.Status != StatusConfirmationPending {
		t.Fatalf("carol.Status = %s, want %s", promotedCarol.Status, StatusConfirmationPending)
	}

	// Replaying CycleExpired against bob's now-Waitlisted booking must be a
	// harmless no-op, not a second cycle.
	posBefore := *cycledBob.WaitlistPosition
	if err := svc.CycleExpired(ctx, bob.ID); err != nil {
		t.Fatalf("CycleExpired() replay error = %v", err)
	}
	afterReplay := fs.booking(bob.ID)
	if afterReplay.Status != StatusWaitlisted || *afterReplay.WaitlistPosition != posBefore {
		t.Fatalf("replayed CycleExpired mutated bob's booking: %+v", afterReplay)
	}
}

// Scenario 4: admission must not bypass an existing queue. Even with a free
// slot, a conference that already has a ConfirmationPending offer or a
// Waitlisted booking outstanding waitlists the new arrival instead of
// confirming it out of order.
func TestBook_BypassProtection(t *testing.T) {
	ctx := context.Background()
	svc, fs := newTestService()
	conf := seedConference(fs, "GopherCon", future(time.Hour), future(2*time.Hour), 2)

	if _, err := svc.Book(ctx, "alice", conf.Name); err != nil {
		t.Fatalf("Book(alice) error = %v", err)
	}
	if _, err := svc.Book(ctx, "bob", conf.Name); err != nil {
		t.Fatalf("Book(bob) error = %v", err)
	}
	carol, err := svc.Book(ctx, "carol", conf.Name)
	if err != nil {
		t.Fatalf("Book(carol) error = %v", err)
	}
	if carol.Status != StatusWaitlisted {
		t.Fatalf("carol.Status = %s, want %s", carol.Status, StatusWaitlisted)
	}

	alice := mustFindBooking(fs, conf.ID, "alice")
	if err := svc.Cancel(ctx, alice.ID); err != nil {
		t.Fatalf("Cancel(alice) error = %v", err)
	}
	// available_slots is back to 1, but carol is still waiting (not yet
	// promoted): a new arrival must not cut the line just because a seat
	// happens to be free.

	dave, err := svc.Book(ctx, "dave", conf.Name)
	if err != nil {
		t.Fatalf("Book(dave) error = %v", err)
	}
	if dave.Status != StatusWaitlisted {
		t.Fatalf("dave.Status = %s, want %s (bypass protection failed)", dave.Status, StatusWaitlisted)
	}
	if dave.WaitlistPosition == nil || *dave.WaitlistPosition <= *carol.WaitlistPosition {
		t.Fatalf("dave.WaitlistPosition = %v, want after carol's %v", dave.WaitlistPosition, carol.WaitlistPosition)
	}
}

// Scenario 5: confirming a booking under someone else's identity is denied
// before any state check runs, and the booking is left untouched.
func TestConfirm_AccessControl(t *testing.T) {
	ctx := context.Background()
	svc, fs := newTestService()
	conf := seedConference(fs, "GopherCon", future(time.Hour), future(2*time.Hour), 1)

	_, err := svc.Book(ctx, "alice", conf.Name)
	if err != nil {
		t.Fatalf("Book(alice) error = %v", err)
	}
	bob, err := svc.Book(ctx, "bob", conf.Name)
	if err != nil {
		t.Fatalf("Book(bob) error = %v", err)
	}

	alice := mustFindBooking(fs, conf.ID, "alice")
	if err := svc.Cancel(ctx, alice.ID); err != nil {
		t.Fatalf("Cancel(alice) error = %v", err)
	}
	if err := svc.PromoteNext(ctx, conf.ID); err != nil {
		t.Fatalf("PromoteNext() error = %v", err)
	}

	err = svc.Confirm(ctx, bob.ID, "mallory")
	if apperr.KindOf(err) != apperr.AccessDenied {
		t.Fatalf("Confirm() error kind = %v, want %v", apperr.KindOf(err), apperr.AccessDenied)
	}

	untouched := fs.booking(bob.ID)
	if untouched.Status != StatusConfirmationPending {
		t.Fatalf("bob.Status = %s, want unchanged %s", untouched.Status, StatusConfirmationPending)
	}
}

// Scenario 6: once a conference's start time has arrived, every Waitlisted
// or ConfirmationPending booking on it is canceled; Confirmed bookings are
// untouched.
func TestSweepConferenceStart_CancelsUnfulfilledBookings(t *testing.T) {
	ctx := context.Background()
	svc, fs := newTestService()
	conf := seedConference(fs, "GopherCon", future(time.Hour), future(2*time.Hour), 1)

	alice, err := svc.Book(ctx, "alice", conf.Name)
	if err != nil {
		t.Fatalf("Book(alice) error = %v", err)
	}
	bob, err := svc.Book(ctx, "bob", conf.Name)
	if err != nil {
		t.Fatalf("Book(bob) error = %v", err)
	}

	if err := svc.SweepConferenceStart(ctx, conf.ID); err != nil {
		t.Fatalf("SweepConferenceStart() error = %v", err)
	}

	stillConfirmed := fs.booking(alice.ID)
	if stillConfirmed.Status != StatusConfirmed {
		t.Fatalf("alice.Status = %s, want %s (sweep must not touch Confirmed)", stillConfirmed.Status, StatusConfirmed)
	}
	sweptBob := fs.booking(bob.ID)
	if sweptBob.Status != StatusCanceled {
		t.Fatalf("bob.Status = %s, want %s", sweptBob.Status, StatusCanceled)
	}
	if sweptBob.WaitlistPosition != nil {
		t.Fatalf("bob.WaitlistPosition = %v, want nil after sweep", sweptBob.WaitlistPosition)
	}
}

// Scenario 7: a user holding a live (Confirmed or ConfirmationPending)
// booking on one conference cannot book a second conference whose interval
// overlaps the first.
func TestBook_OverlapRejected(t *testing.T) {
	ctx := context.Background()
	svc, fs := newTestService()
	start := future(time.Hour)
	end := future(3 * time.Hour)
	confA := seedConference(fs, "GopherCon", start, end, 2)
	confB := seedConference(fs, "KubeCon", start.Add(30*time.Minute), end.Add(30*time.Minute), 2)

	if _, err := svc.Book(ctx, "alice", confA.Name); err != nil {
		t.Fatalf("Book(confA) error = %v", err)
	}

	_, err := svc.Book(ctx, "alice", confB.Name)
	if apperr.KindOf(err) != apperr.Overlap {
		t.Fatalf("Book(confB) error kind = %v, want %v", apperr.KindOf(err), apperr.Overlap)
	}
}

// Scenario 8: a user cannot hold two simultaneous non-canceled bookings for
// the same conference.
func TestBook_DuplicateRejected(t *testing.T) {
	ctx := context.Background()
	svc, fs := newTestService()
	conf := seedConference(fs, "GopherCon", future(time.Hour), future(2*time.Hour), 2)

	if _, err := svc.Book(ctx, "alice", conf.Name); err != nil {
		t.Fatalf("first Book() error = %v", err)
	}
	_, err := svc.Book(ctx, "alice", conf.Name)
	if apperr.KindOf(err) != apperr.Duplicate {
		t.Fatalf("second Book() error kind = %v, want %v", apperr.KindOf(err), apperr.Duplicate)
	}
}

// Property: available_slots plus the count of slot-holding bookings never
// exceeds total_slots, across a sequence of admissions, a cancellation, and
// a promotion.
func TestProperty_CapacityNeverOversold(t *testing.T) {
	ctx := context.Background()
	svc, fs := newTestService()
	conf := seedConference(fs, "GopherCon", future(time.Hour), future(2*time.Hour), 1)

	a, err := svc.Book(ctx, "alice", conf.Name)
	if err != nil {
		t.Fatalf("Book(alice) error = %v", err)
	}
	if _, err := svc.Book(ctx, "bob", conf.Name); err != nil {
		t.Fatalf("Book(bob) error = %v", err)
	}

	assertCapacityHolds(t, fs, conf.ID)

	if err := svc.Cancel(ctx, a.ID); err != nil {
		t.Fatalf("Cancel(alice) error = %v", err)
	}
	assertCapacityHolds(t, fs, conf.ID)

	if err := svc.PromoteNext(ctx, conf.ID); err != nil {
		t.Fatalf("PromoteNext() error = %v", err)
	}
	assertCapacityHolds(t, fs, conf.ID)
}

func assertCapacityHolds(t *testing.T, fs *fakeStore, confID uuid.UUID) {
	t.Helper()
	conf, err := fs.lockedGetConferenceByID(confID)
	if err != nil {
		t.Fatalf("lockedGetConferenceByID() error = %v", err)
	}
	held := 0
	for _, b := range fs.books {
		if b.ConferenceID == confID && b.Status.HoldsSlot() {
			held++
		}
	}
	if conf.AvailableSlots+held != conf.TotalSlots {
		t.Fatalf("available_slots (%d) + held (%d) = %d, want total_slots (%d)",
			conf.AvailableSlots, held, conf.AvailableSlots+held, conf.TotalSlots)
	}
}

// Property: can_confirm is true if and only if a booking is
// ConfirmationPending.
func TestProperty_CanConfirmMatchesStatus(t *testing.T) {
	ctx := context.Background()
	svc, fs := newTestService()
	conf := seedConference(fs, "GopherCon", future(time.Hour), future(2*time.Hour), 1)

	a, err := svc.Book(ctx, "alice", conf.Name)
	if err != nil {
		t.Fatalf("Book(alice) error = %v", err)
	}
	if a.CanConfirm {
		t.Fatalf("freshly Confirmed booking has CanConfirm = true, want false")
	}

	b, err := svc.Book(ctx, "bob", conf.Name)
	if err != nil {
		t.Fatalf("Book(bob) error = %v", err)
	}
	if b.CanConfirm {
		t.Fatalf("freshly Waitlisted booking has CanConfirm = true, want false")
	}

	if err := svc.Cancel(ctx, a.ID); err != nil {
		t.Fatalf("Cancel(alice) error = %v", err)
	}
	if err := svc.PromoteNext(ctx, conf.ID); err != nil {
		t.Fatalf("PromoteNext() error = %v", err)
	}
	promoted := fs.booking(b.ID)
	if !promoted.CanConfirm {
		t.Fatalf("ConfirmationPending booking has CanConfirm = false, want true")
	}

	if err := svc.Confirm(ctx, b.ID, "bob"); err != nil {
		t.Fatalf("Confirm() error = %v", err)
	}
	confirmed := fs.booking(b.ID)
	if confirmed.CanConfirm {
		t.Fatalf("Confirmed booking has CanConfirm = true, want false")
	}
}

// Property: FIFO ordering. Promotions are offered to waiters strictly in the
// order they joined the waitlist.
func TestProperty_PromotionIsFIFO(t *testing.T) {
	ctx := context.Background()
	svc, fs := newTestService()
	conf := seedConference(fs, "GopherCon", future(time.Hour), future(2*time.Hour), 1)

	if _, err := svc.Book(ctx, "alice", conf.Name); err != nil {
		t.Fatalf("Book(alice) error = %v", err)
	}
	bob, err := svc.Book(ctx, "bob", conf.Name)
	if err != nil {
		t.Fatalf("Book(bob) error = %v", err)
	}
	carol, err := svc.Book(ctx, "carol", conf.Name)
	if err != nil {
		t.Fatalf("Book(carol) error = %v", err)
	}

	alice := mustFindBooking(fs, conf.ID, "alice")
	if err := svc.Cancel(ctx, alice.ID); err != nil {
		t.Fatalf("Cancel(alice) error = %v", err)
	}
	if err := svc.PromoteNext(ctx, conf.ID); err != nil {
		t.Fatalf("PromoteNext() error = %v", err)
	}

	if fs.booking(bob.ID).Status != StatusConfirmationPending {
		t.Fatalf("bob should be promoted first (FIFO), got %s", fs.booking(bob.ID).Status)
	}
	if fs.booking(carol.ID).Status != StatusWaitlisted {
		t.Fatalf("carol should still be waiting, got %s", fs.booking(carol.ID).Status)
	}
}

// Property: cancellation cannot be replayed. Canceling an already-canceled
// booking is rejected rather than silently double-releasing its slot.
func TestProperty_CancelIsNotReplayable(t *testing.T) {
	ctx := context.Background()
	svc, fs := newTestService()
	conf := seedConference(fs, "GopherCon", future(time.Hour), future(2*time.Hour), 1)

	a, err := svc.Book(ctx, "alice", conf.Name)
	if err != nil {
		t.Fatalf("Book(alice) error = %v", err)
	}
	if err := svc.Cancel(ctx, a.ID); err != nil {
		t.Fatalf("first Cancel() error = %v", err)
	}

	err = svc.Cancel(ctx, a.ID)
	if apperr.KindOf(err) != apperr.InvalidState {
		t.Fatalf("replayed Cancel() error kind = %v, want %v", apperr.KindOf(err), apperr.InvalidState)
	}

	conf2, err := fs.lockedGetConferenceByID(conf.ID)
	if err != nil {
		t.Fatalf("lockedGetConferenceByID() error = %v", err)
	}
	if conf2.AvailableSlots != conf.TotalSlots {
		t.Fatalf("AvailableSlots = %d after double-cancel, want %d (slot released only once)", conf2.AvailableSlots, conf.TotalSlots)
	}
}

// mustFindBooking is a test-only helper: the fake has no by-(user,
// conference) index, so scenario tests that need to act on "the booking
// alice just got back" scan for it directly.
func mustFindBooking(fs *fakeStore, confID uuid.UUID, userID string) *Booking {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	for _, b := range fs.books {
		if b.ConferenceID == confID && b.UserID == userID && b.Status != StatusCanceled {
			cp := *b
			return &cp
		}
	}
	return nil
}
