package facility

import (
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerrad567/smart-office/internal/clock"
	"github.com/nerrad567/smart-office/internal/notify"
)

var epoch = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

// eventLog records every event it receives.
type eventLog struct {
	mu     sync.Mutex
	events []notify.Event
}

func (l *eventLog) OnOccupancyChanged(roomID int, occupied bool, occupantCount int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, notify.Event{RoomID: roomID, Occupied: occupied, OccupantCount: occupantCount})
	return nil
}

func (l *eventLog) snapshot() []notify.Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]notify.Event(nil), l.events...)
}

type erroringSubscriber struct{}

func (erroringSubscriber) OnOccupancyChanged(int, bool, int) error {
	return errors.New("actuator offline")
}

type panickingSubscriber struct{}

func (panickingSubscriber) OnOccupancyChanged(int, bool, int) error {
	panic("boom")
}

// releaseLog records auto-released bookings.
type releaseLog struct {
	mu       sync.Mutex
	released []Booking
}

func (l *releaseLog) hook(_ int, b Booking) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.released = append(l.released, b)
}

func (l *releaseLog) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.released)
}

func newTestRoom(t *testing.T) (*Room, *clock.FakeClock, *eventLog, *releaseLog) {
	t.Helper()
	clk := clock.Fake(epoch)
	releases := &releaseLog{}
	r := newRoom(1, roomDeps{clock: clk, onRelease: releases.hook})
	events := &eventLog{}
	r.Subscribe(events)
	t.Cleanup(r.Close)
	return r, clk, events, releases
}

var nineToTen = Booking{Start: 9 * 60, DurationMinutes: 60}

// assertInvariants checks the room's composite state.
func assertInvariants(t *testing.T, r *Room) {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()

	assert.Equal(t, r.occupantCount >= OccupancyThreshold, r.occupied, "occupied flag out of sync with count")
	if r.release != nil {
		assert.NotNil(t, r.booking, "release pending without booking")
		assert.False(t, r.occupied, "release pending on occupied room")
	}
	if r.booking != nil && !r.occupied && !r.closed {
		assert.NotNil(t, r.release, "booked unoccupied room without pending release")
	}
}

func TestRoomDefaults(t *testing.T) {
	r, _, _, _ := newTestRoom(t)

	s := r.Status()
	assert.Equal(t, 1, s.RoomID)
	assert.Equal(t, DefaultMaxCapacity, s.MaxCapacity)
	assert.Zero(t, s.OccupantCount)
	assert.False(t, s.Occupied)
	assert.False(t, s.Booked)
	assert.Nil(t, s.Booking)
	assert.False(t, s.ReleasePending())
}

func TestRoomSetMaxCapacity(t *testing.T) {
	r, _, _, _ := newTestRoom(t)

	require.NoError(t, r.SetMaxCapacity(4))
	assert.Equal(t, 4, r.MaxCapacity())

	assert.ErrorIs(t, r.SetMaxCapacity(0), ErrInvalidCapacity)
	assert.ErrorIs(t, r.SetMaxCapacity(-3), ErrInvalidCapacity)
	assert.Equal(t, 4, r.MaxCapacity())
}

func TestRoomDoubleBookRejected(t *testing.T) {
	r, clk, _, _ := newTestRoom(t)

	require.True(t, r.Book(nineToTen))
	deadline, ok := r.ReleaseDeadline()
	require.True(t, ok)

	clk.Advance(time.Minute)
	other := Booking{Start: 14 * 60, DurationMinutes: 30}
	assert.False(t, r.Book(other), "second booking must be rejected regardless of window")

	got, ok := r.Booking()
	require.True(t, ok)
	assert.Equal(t, nineToTen, got)

	again, ok := r.ReleaseDeadline()
	require.True(t, ok)
	assert.Equal(t, deadline, again, "rejected booking must not re-arm")
	assertInvariants(t, r)
}

func TestRoomCancel(t *testing.T) {
	r, clk, _, releases := newTestRoom(t)

	_, ok := r.Cancel()
	assert.False(t, ok, "cancel on a free room")

	require.True(t, r.Book(nineToTen))
	require.Equal(t, 1, clk.PendingCount())

	cancelled, ok := r.Cancel()
	require.True(t, ok)
	assert.Equal(t, nineToTen, cancelled)
	assert.Zero(t, clk.PendingCount(), "cancel must disarm")

	clk.Advance(AutoReleaseDelay * 2)
	assert.Zero(t, releases.count())
	assertInvariants(t, r)
}

func TestRoomBookWhileOccupiedDoesNotArm(t *testing.T) {
	r, clk, _, _ := newTestRoom(t)

	_, err := r.UpdateOccupancy(3)
	require.NoError(t, err)
	require.True(t, r.Book(nineToTen))

	_, pending := r.ReleaseDeadline()
	assert.False(t, pending)
	assert.Zero(t, clk.PendingCount())
	assertInvariants(t, r)
}

func TestRoomOccupancySequence(t *testing.T) {
	r, _, events, _ := newTestRoom(t)
	require.True(t, r.Book(nineToTen))

	steps := []struct {
		count       int
		wantStatus  OccupancyStatus
		wantChanged bool
		wantPending bool
	}{
		{0, StatusUnoccupied, false, true},
		{1, StatusBelowThreshold, false, true},
		{2, StatusOccupied, true, false},
		{0, StatusUnoccupied, true, true},
	}

	for _, step := range steps {
		update, err := r.UpdateOccupancy(step.count)
		require.NoError(t, err)
		assert.Equal(t, step.wantStatus, update.Status, "count %d", step.count)
		assert.Equal(t, step.wantChanged, update.Changed, "count %d", step.count)
		_, pending := r.ReleaseDeadline()
		assert.Equal(t, step.wantPending, pending, "count %d", step.count)
		assertInvariants(t, r)
	}

	assert.Equal(t, []notify.Event{
		{RoomID: 1, Occupied: false, OccupantCount: 0},
		{RoomID: 1, Occupied: false, OccupantCount: 1},
		{RoomID: 1, Occupied: true, OccupantCount: 2},
		{RoomID: 1, Occupied: false, OccupantCount: 0},
	}, events.snapshot(), "every update is published, changed or not")
}

func TestRoomRejectsNegativeCount(t *testing.T) {
	r, _, events, _ := newTestRoom(t)
	_, err := r.UpdateOccupancy(3)
	require.NoError(t, err)

	_, err = r.UpdateOccupancy(-1)
	assert.ErrorIs(t, err, ErrInvalidOccupantCount)
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, 3, r.OccupantCount())
	assert.Len(t, events.snapshot(), 1)
}

func TestRoomOccupancyAboveCapacityAccepted(t *testing.T) {
	r, _, _, _ := newTestRoom(t)
	require.NoError(t, r.SetMaxCapacity(4))

	update, err := r.UpdateOccupancy(9)
	require.NoError(t, err)
	assert.Equal(t, StatusOccupied, update.Status)
	assert.Equal(t, 9, r.OccupantCount())
}

func TestRoomAutoRelease(t *testing.T) {
	r, clk, events, releases := newTestRoom(t)

	require.True(t, r.Book(nineToTen))
	_, err := r.UpdateOccupancy(0)
	require.NoError(t, err)
	before := len(events.snapshot())

	clk.Advance(AutoReleaseDelay - time.Second)
	_, booked := r.Booking()
	assert.True(t, booked, "released too early")

	clk.Advance(time.Second)
	_, booked = r.Booking()
	assert.False(t, booked, "booking should be released")
	assert.Equal(t, 1, releases.count())
	assert.Len(t, events.snapshot(), before, "release must not publish an occupancy event")
	assert.Zero(t, clk.PendingCount())
	assertInvariants(t, r)
}

func TestRoomOccupiedBeforeDeadlineKeepsBooking(t *testing.T) {
	r, clk, _, releases := newTestRoom(t)

	require.True(t, r.Book(nineToTen))
	clk.Advance(4 * time.Minute)

	_, err := r.UpdateOccupancy(2)
	require.NoError(t, err)
	clk.Advance(time.Hour)

	_, booked := r.Booking()
	assert.True(t, booked)
	assert.Zero(t, releases.count())
	assertInvariants(t, r)
}

func TestRoomUnoccupiedUpdateDoesNotResetTimer(t *testing.T) {
	r, clk, _, releases := newTestRoom(t)

	require.True(t, r.Book(nineToTen))
	armed, _ := r.ReleaseDeadline()

	clk.Advance(3 * time.Minute)
	update, err := r.UpdateOccupancy(1)
	require.NoError(t, err)
	assert.False(t, update.ReleaseArmed)

	still, ok := r.ReleaseDeadline()
	require.True(t, ok)
	assert.Equal(t, armed, still)

	clk.Advance(2 * time.Minute)
	assert.Equal(t, 1, releases.count(), "original deadline still applies")
}

func TestRoomLeavingRearmsFreshTimer(t *testing.T) {
	r, clk, _, releases := newTestRoom(t)

	require.True(t, r.Book(nineToTen))
	_, err := r.UpdateOccupancy(2)
	require.NoError(t, err)

	clk.Advance(10 * time.Minute)
	update, err := r.UpdateOccupancy(0)
	require.NoError(t, err)
	assert.True(t, update.ReleaseArmed)

	deadline, ok := r.ReleaseDeadline()
	require.True(t, ok)
	assert.Equal(t, epoch.Add(10*time.Minute+AutoReleaseDelay), deadline)

	clk.Advance(AutoReleaseDelay - time.Second)
	assert.Zero(t, releases.count())
	clk.Advance(time.Second)
	assert.Equal(t, 1, releases.count())
}

func TestRoomStaleReleaseIsNoop(t *testing.T) {
	r, _, _, releases := newTestRoom(t)

	require.True(t, r.Book(nineToTen))
	r.mu.Lock()
	stale := r.generation - 1
	r.mu.Unlock()

	r.fireRelease(stale)

	_, booked := r.Booking()
	assert.True(t, booked)
	_, pending := r.ReleaseDeadline()
	assert.True(t, pending)
	assert.Zero(t, releases.count())
}

func TestRoomReleaseWithInconsistentStateDisarms(t *testing.T) {
	r, _, _, releases := newTestRoom(t)

	require.True(t, r.Book(nineToTen))

	// Force a state the public API cannot produce.
	r.mu.Lock()
	gen := r.generation
	r.occupied = true
	r.occupantCount = 5
	r.mu.Unlock()

	r.fireRelease(gen)

	_, booked := r.Booking()
	assert.True(t, booked, "inconsistent state must be left untouched")
	_, pending := r.ReleaseDeadline()
	assert.False(t, pending)
	assert.Zero(t, releases.count())
}

func TestRoomSubscriberIsolation(t *testing.T) {
	r, _, events, _ := newTestRoom(t)

	r.Unsubscribe(events)
	r.Subscribe(erroringSubscriber{})
	r.Subscribe(panickingSubscriber{})
	r.Subscribe(events)

	update, err := r.UpdateOccupancy(2)
	require.NoError(t, err)
	assert.Equal(t, StatusOccupied, update.Status)
	assert.Len(t, events.snapshot(), 1, "subscriber after failing ones still notified")
	assert.True(t, r.Occupied())
}

// blockingSubscriber blocks its first delivery until released.
type blockingSubscriber struct {
	entered chan struct{}
	release chan struct{}
	once    sync.Once
	log     eventLog
}

func (b *blockingSubscriber) OnOccupancyChanged(roomID int, occupied bool, occupantCount int) error {
	first := false
	b.once.Do(func() { first = true })
	if first {
		close(b.entered)
		<-b.release
	}
	return b.log.OnOccupancyChanged(roomID, occupied, occupantCount)
}

func TestRoomDeliveryOrderedOutsideLock(t *testing.T) {
	r, _, _, _ := newTestRoom(t)
	sub := &blockingSubscriber{entered: make(chan struct{}), release: make(chan struct{})}
	r.Subscribe(sub)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _ = r.UpdateOccupancy(2)
	}()
	<-sub.entered

	// State is readable while a subscriber is mid-delivery.
	assert.True(t, r.Occupied())

	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _ = r.UpdateOccupancy(0)
	}()
	require.Eventually(t, func() bool { return r.OccupantCount() == 0 }, time.Second, time.Millisecond)

	close(sub.release)
	wg.Wait()

	assert.Equal(t, []notify.Event{
		{RoomID: 1, Occupied: true, OccupantCount: 2},
		{RoomID: 1, Occupied: false, OccupantCount: 0},
	}, sub.log.snapshot())
}

func TestRoomCloseDisarmsAndDropsSubscribers(t *testing.T) {
	r, clk, events, releases := newTestRoom(t)

	require.True(t, r.Book(nineToTen))
	r.Close()

	assert.Zero(t, clk.PendingCount())
	clk.Advance(AutoReleaseDelay)
	assert.Zero(t, releases.count())

	_, err := r.UpdateOccupancy(0)
	require.NoError(t, err)
	assert.Empty(t, events.snapshot())
	_, pending := r.ReleaseDeadline()
	assert.False(t, pending, "closed room never arms")
}

func TestRoomRandomizedSequenceHoldsInvariants(t *testing.T) {
	r, clk, _, _ := newTestRoom(t)
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 2000; i++ {
		switch rng.Intn(4) {
		case 0:
			r.Book(Booking{Start: TimeOfDay(rng.Intn(minutesPerDay)), DurationMinutes: 1 + rng.Intn(240)})
		case 1:
			r.Cancel()
		case 2:
			_, err := r.UpdateOccupancy(rng.Intn(5))
			require.NoError(t, err)
		case 3:
			clk.Advance(time.Duration(rng.Intn(7)) * time.Minute)
		}
		assertInvariants(t, r)
		if t.Failed() {
			t.Fatalf("invariant broken at step %d", i)
		}
	}
}

func TestRoomConcurrentUpdatesAgainstTimer(t *testing.T) {
	r, clk, _, _ := newTestRoom(t)
	require.True(t, r.Book(nineToTen))

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(seed uint64) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(int64(seed)))
			for i := 0; i < 300; i++ {
				switch rng.Intn(3) {
				case 0:
					_, _ = r.UpdateOccupancy(rng.Intn(4))
				case 1:
					r.Book(nineToTen)
				default:
					r.Cancel()
				}
			}
		}(uint64(w))
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 300; i++ {
			clk.Advance(time.Minute)
		}
	}()
	wg.Wait()

	assertInvariants(t, r)
}

// capper trims the room back to its cap whenever it sees more occupants,
// and records the status it reads inside the callback.
type capper struct {
	room *Room
	limit int

	mu   sync.Mutex
	seen []int
	errs []error
}

func (c *capper) OnOccupancyChanged(_ int, _ bool, occupantCount int) error {
	status := c.room.Status()
	c.mu.Lock()
	c.seen = append(c.seen, status.OccupantCount)
	c.mu.Unlock()
	if occupantCount > c.limit {
		if _, err := c.room.UpdateOccupancy(c.limit); err != nil {
			c.mu.Lock()
			c.errs = append(c.errs, err)
			c.mu.Unlock()
		}
	}
	return nil
}

func TestRoomSubscriberUpdatesSameRoomThroughAsync(t *testing.T) {
	r, _, events, _ := newTestRoom(t)
	c := &capper{room: r, limit: 2}
	mailbox := notify.Async(c, nil)
	t.Cleanup(mailbox.Close)
	require.True(t, r.Subscribe(mailbox))

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := r.UpdateOccupancy(5)
		assert.NoError(t, err)
		mailbox.Flush()
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("update from inside a subscriber did not complete")
	}

	assert.Equal(t, 2, r.OccupantCount())
	assert.Empty(t, c.errs)
	assert.Equal(t, []notify.Event{
		{RoomID: 1, Occupied: true, OccupantCount: 5},
		{RoomID: 1, Occupied: true, OccupantCount: 2},
	}, events.snapshot())
	c.mu.Lock()
	defer c.mu.Unlock()
	require.Len(t, c.seen, 2)
	assert.Equal(t, 2, c.seen[1])
	assertInvariants(t, r)
}

func TestRoomSubscriberReadsStateDuringDelivery(t *testing.T) {
	r, _, _, _ := newTestRoom(t)
	c := &capper{room: r, limit: 100}
	require.True(t, r.Subscribe(c))

	_, err := r.UpdateOccupancy(3)
	require.NoError(t, err)
	_, err = r.UpdateOccupancy(0)
	require.NoError(t, err)

	c.mu.Lock()
	defer c.mu.Unlock()
	assert.Equal(t, []int{3, 0}, c.seen)
}
