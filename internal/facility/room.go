package facility

import (
	"fmt"
	"sync"
	"time"

	"github.com/nerrad567/smart-office/internal/clock"
	"github.com/nerrad567/smart-office/internal/notify"
)

// ReleaseHook is called after a booking has been auto-released. It runs
// on the timer goroutine, outside the room lock.
type ReleaseHook func(roomID int, released Booking)

// pendingRelease is the handle of an armed auto-release.
type pendingRelease struct {
	generation uint64
	timer      *clock.Timer
	deadline   time.Time
}

// roomDeps carries the collaborators a Registry hands to each room.
type roomDeps struct {
	clock     clock.Clock
	logger    Logger
	onRelease ReleaseHook
}

// Room is a single meeting room.
//
// Invariants, held whenever mu is not held:
//   - occupied == (occupantCount >= OccupancyThreshold)
//   - release != nil implies booking != nil and !occupied
type Room struct {
	id        int
	clock     clock.Clock
	logger    Logger
	onRelease ReleaseHook
	bus       *notify.Bus

	mu            sync.Mutex
	maxCapacity   int
	occupantCount int
	occupied      bool
	booking       *Booking
	release       *pendingRelease
	generation    uint64
	nextTicket    uint64
	closed        bool

	// Delivery ordering. Tickets are issued under mu and served in order.
	deliverMu   sync.Mutex
	deliverCond *sync.Cond
	serving     uint64
}

func newRoom(id int, deps roomDeps) *Room {
	if deps.clock == nil {
		deps.clock = clock.Real()
	}
	if deps.logger == nil {
		deps.logger = noopLogger{}
	}
	r := &Room{
		id:          id,
		clock:       deps.clock,
		logger:      deps.logger,
		onRelease:   deps.onRelease,
		bus:         notify.NewBus(deps.logger),
		maxCapacity: DefaultMaxCapacity,
	}
	r.deliverCond = sync.NewCond(&r.deliverMu)
	return r
}

// ID returns the room id.
func (r *Room) ID() int { return r.id }

// Subscribe adds s to the room's subscribers. Returns false if already present.
func (r *Room) Subscribe(s notify.Subscriber) bool { return r.bus.Subscribe(s) }

// Unsubscribe removes s from the room's subscribers. Returns false if absent.
func (r *Room) Unsubscribe(s notify.Subscriber) bool { return r.bus.Unsubscribe(s) }

// SetMaxCapacity changes the room's maximum capacity.
func (r *Room) SetMaxCapacity(capacity int) error {
	if capacity <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidCapacity, capacity)
	}
	r.mu.Lock()
	r.maxCapacity = capacity
	r.mu.Unlock()
	return nil
}

// Book places a booking on the room. It returns false, leaving the room
// untouched, if the room already has a booking; time windows are not
// compared. A booking on an unoccupied room arms the auto-release.
func (r *Room) Book(b Booking) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.booking != nil {
		return false
	}
	r.booking = &b
	if !r.occupied {
		r.armLocked()
	}
	r.logger.Debug("room booked", "room_id", r.id, "booking", b.String())
	return true
}

// Cancel clears the room's booking and disarms any pending release.
// It returns the cancelled booking, or false if the room was not booked.
func (r *Room) Cancel() (Booking, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.booking == nil {
		return Booking{}, false
	}
	cancelled := *r.booking
	r.booking = nil
	r.disarmLocked()
	r.logger.Debug("booking cancelled", "room_id", r.id)
	return cancelled, true
}

// UpdateOccupancy sets the number of people in the room.
//
// Becoming occupied disarms a pending release. Becoming unoccupied while
// booked arms a fresh one, as does an unoccupied update on a booked room
// that has none pending. An unoccupied update never resets a timer that
// is already running.
//
// Every accepted update is published to the subscribers, even when the
// occupied flag did not change. Delivery happens on the calling goroutine
// and updates to one room are delivered in order, so a subscriber must not
// call UpdateOccupancy on the same room from inside its callback.
func (r *Room) UpdateOccupancy(count int) (OccupancyUpdate, error) {
	if count < 0 {
		return OccupancyUpdate{}, fmt.Errorf("%w: %d", ErrInvalidOccupantCount, count)
	}

	r.mu.Lock()
	was := r.occupied
	now := count >= OccupancyThreshold

	update := OccupancyUpdate{
		RoomID:   r.id,
		Previous: r.occupantCount,
		Current:  count,
		Status:   classifyOccupancy(count),
		Changed:  was != now,
	}

	r.occupantCount = count
	r.occupied = now

	switch {
	case now:
		r.disarmLocked()
	case r.booking != nil && (was || r.release == nil):
		r.armLocked()
		update.ReleaseArmed = r.release != nil
	}

	evt := notify.Event{RoomID: r.id, Occupied: now, OccupantCount: count}
	ticket := r.nextTicket
	r.nextTicket++
	r.mu.Unlock()

	r.deliver(ticket, evt)
	return update, nil
}

// deliver publishes evt once every earlier ticket has been delivered.
func (r *Room) deliver(ticket uint64, evt notify.Event) {
	r.deliverMu.Lock()
	for r.serving != ticket {
		r.deliverCond.Wait()
	}
	r.deliverMu.Unlock()

	r.bus.Publish(evt)

	r.deliverMu.Lock()
	r.serving++
	r.deliverCond.Broadcast()
	r.deliverMu.Unlock()
}

// armLocked replaces any pending release with a fresh one. Caller holds mu.
func (r *Room) armLocked() {
	r.disarmLocked()
	if r.closed {
		return
	}
	r.generation++
	gen := r.generation
	p := &pendingRelease{
		generation: gen,
		deadline:   r.clock.Now().Add(AutoReleaseDelay),
	}
	r.release = p
	p.timer = r.clock.AfterFunc(AutoReleaseDelay, func() { r.fireRelease(gen) })
	r.logger.Debug("auto-release armed", "room_id", r.id, "deadline", p.deadline)
}

// disarmLocked cancels the pending release, if any. Caller holds mu.
// A callback that already started will see a stale generation.
func (r *Room) disarmLocked() {
	if r.release == nil {
		return
	}
	r.release.timer.Stop()
	r.release = nil
}

// fireRelease runs when a release timer expires.
func (r *Room) fireRelease(gen uint64) {
	r.mu.Lock()
	p := r.release
	if p == nil || p.generation != gen {
		r.mu.Unlock()
		r.logger.Debug("stale auto-release ignored", "room_id", r.id, "generation", gen)
		return
	}
	r.release = nil

	if r.booking == nil || r.occupied {
		occupied, booked := r.occupied, r.booking != nil
		r.mu.Unlock()
		r.logger.Error("auto-release found inconsistent room state",
			"room_id", r.id,
			"occupied", occupied,
			"booked", booked,
		)
		return
	}

	released := *r.booking
	r.booking = nil
	hook := r.onRelease
	r.mu.Unlock()

	r.logger.Info("booking auto-released",
		"room_id", r.id,
		"booking", released.String(),
		"idle_for", AutoReleaseDelay.String(),
	)
	if hook != nil {
		hook(r.id, released)
	}
}

// MaxCapacity returns the room's maximum capacity.
func (r *Room) MaxCapacity() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.maxCapacity
}

// OccupantCount returns the last reported occupant count.
func (r *Room) OccupantCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.occupantCount
}

// Occupied reports whether the room counts as occupied.
func (r *Room) Occupied() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.occupied
}

// Booking returns the current booking, if any.
func (r *Room) Booking() (Booking, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.booking == nil {
		return Booking{}, false
	}
	return *r.booking, true
}

// ReleaseDeadline returns when the pending auto-release will fire.
func (r *Room) ReleaseDeadline() (time.Time, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.release == nil {
		return time.Time{}, false
	}
	return r.release.deadline, true
}

// Status returns a consistent snapshot of the room.
func (r *Room) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := Status{
		RoomID:        r.id,
		OccupantCount: r.occupantCount,
		MaxCapacity:   r.maxCapacity,
		Occupied:      r.occupied,
		Booked:        r.booking != nil,
	}
	if r.booking != nil {
		b := *r.booking
		s.Booking = &b
	}
	if r.release != nil {
		s.ReleaseAt = r.release.deadline
	}
	return s
}

// Close disarms any pending release and drops all subscribers. The room
// keeps answering queries but will not arm again.
func (r *Room) Close() {
	r.mu.Lock()
	r.closed = true
	r.disarmLocked()
	r.mu.Unlock()
	r.bus.Clear()
}
