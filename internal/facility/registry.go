package facility

import (
	"fmt"
	"slices"
	"sync"

	"github.com/nerrad567/smart-office/internal/clock"
	"github.com/nerrad567/smart-office/internal/notify"
)

// Logger defines the logging interface used by the facility package.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Option configures a Registry.
type Option func(*Registry)

// WithClock sets the clock used for auto-release timers.
func WithClock(c clock.Clock) Option {
	return func(g *Registry) {
		if c != nil {
			g.clock = c
		}
	}
}

// WithLogger sets the logger used by the registry and its rooms.
func WithLogger(l Logger) Option {
	return func(g *Registry) {
		if l != nil {
			g.logger = l
		}
	}
}

// WithSubscribers registers subscribers that are attached, in order, to
// every room created by Configure.
func WithSubscribers(subs ...notify.Subscriber) Option {
	return func(g *Registry) {
		g.subscribers = append(g.subscribers, subs...)
	}
}

// WithReleaseHook sets a callback invoked after any room auto-releases
// its booking.
func WithReleaseHook(h ReleaseHook) Option {
	return func(g *Registry) {
		g.releaseHook = h
	}
}

// Registry owns the set of rooms and routes operations to them by id.
type Registry struct {
	clock       clock.Clock
	logger      Logger
	subscribers []notify.Subscriber
	releaseHook ReleaseHook

	mu         sync.RWMutex
	rooms      map[int]*Room
	configured bool
}

// NewRegistry creates an unconfigured registry.
func NewRegistry(opts ...Option) *Registry {
	g := &Registry{
		clock:  clock.Real(),
		logger: noopLogger{},
		rooms:  make(map[int]*Room),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Configure replaces the room set with rooms 1..count. Rooms from a
// previous configuration are closed, which disarms their release timers.
// On error the existing configuration is left untouched.
func (g *Registry) Configure(count int) ([]int, error) {
	if count <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidRoomCount, count)
	}

	deps := roomDeps{clock: g.clock, logger: g.logger, onRelease: g.releaseHook}
	rooms := make(map[int]*Room, count)
	ids := make([]int, 0, count)
	for id := 1; id <= count; id++ {
		r := newRoom(id, deps)
		for _, s := range g.subscribers {
			r.Subscribe(s)
		}
		rooms[id] = r
		ids = append(ids, id)
	}

	g.mu.Lock()
	old := g.rooms
	g.rooms = rooms
	g.configured = true
	g.mu.Unlock()

	for _, r := range old {
		r.Close()
	}

	g.logger.Info("facility configured", "rooms", count, "replaced", len(old))
	return ids, nil
}

// Configured reports whether Configure has succeeded at least once.
func (g *Registry) Configured() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.configured
}

// RoomCount returns the number of configured rooms.
func (g *Registry) RoomCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.rooms)
}

// RoomIDs returns the configured room ids in ascending order.
func (g *Registry) RoomIDs() []int {
	g.mu.RLock()
	ids := make([]int, 0, len(g.rooms))
	for id := range g.rooms {
		ids = append(ids, id)
	}
	g.mu.RUnlock()
	slices.Sort(ids)
	return ids
}

// Room returns the room with the given id.
func (g *Registry) Room(id int) (*Room, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if !g.configured {
		return nil, ErrNotConfigured
	}
	r, ok := g.rooms[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrRoomNotFound, id)
	}
	return r, nil
}

// SetCapacity changes a room's maximum capacity.
func (g *Registry) SetCapacity(id, capacity int) error {
	r, err := g.Room(id)
	if err != nil {
		return err
	}
	if err := r.SetMaxCapacity(capacity); err != nil {
		return err
	}
	g.logger.Info("room capacity set", "room_id", id, "capacity", capacity)
	return nil
}

// Book books a room for the given window.
func (g *Registry) Book(id int, b Booking) error {
	if err := b.Validate(); err != nil {
		return err
	}
	r, err := g.Room(id)
	if err != nil {
		return err
	}
	if !r.Book(b) {
		return fmt.Errorf("room %d: %w", id, ErrAlreadyBooked)
	}
	g.logger.Info("room booked", "room_id", id, "booking", b.String())
	return nil
}

// Cancel cancels a room's booking and returns it.
func (g *Registry) Cancel(id int) (Booking, error) {
	r, err := g.Room(id)
	if err != nil {
		return Booking{}, err
	}
	b, ok := r.Cancel()
	if !ok {
		return Booking{}, fmt.Errorf("room %d: %w", id, ErrNotBooked)
	}
	g.logger.Info("booking cancelled", "room_id", id, "booking", b.String())
	return b, nil
}

// SetOccupancy reports the number of people in a room. Subscribers are
// notified before it returns; see Room.UpdateOccupancy.
func (g *Registry) SetOccupancy(id, count int) (OccupancyUpdate, error) {
	r, err := g.Room(id)
	if err != nil {
		return OccupancyUpdate{}, err
	}
	update, err := r.UpdateOccupancy(count)
	if err != nil {
		return OccupancyUpdate{}, err
	}
	if update.Changed {
		g.logger.Info("room occupancy changed",
			"room_id", id,
			"occupied", update.Status.Occupied(),
			"occupants", count,
		)
	}
	return update, nil
}

// Status returns a snapshot of one room.
func (g *Registry) Status(id int) (Status, error) {
	r, err := g.Room(id)
	if err != nil {
		return Status{}, err
	}
	return r.Status(), nil
}

// StatusAll returns a snapshot of every room, ordered by id.
func (g *Registry) StatusAll() ([]Status, error) {
	g.mu.RLock()
	if !g.configured {
		g.mu.RUnlock()
		return nil, ErrNotConfigured
	}
	rooms := make([]*Room, 0, len(g.rooms))
	for _, r := range g.rooms {
		rooms = append(rooms, r)
	}
	g.mu.RUnlock()

	slices.SortFunc(rooms, func(a, b *Room) int { return a.id - b.id })
	out := make([]Status, 0, len(rooms))
	for _, r := range rooms {
		out = append(out, r.Status())
	}
	return out, nil
}

// Close closes every room. The registry stays configured; a later
// Configure builds a fresh room set.
func (g *Registry) Close() {
	g.mu.RLock()
	rooms := make([]*Room, 0, len(g.rooms))
	for _, r := range g.rooms {
		rooms = append(rooms, r)
	}
	g.mu.RUnlock()

	for _, r := range rooms {
		r.Close()
	}
}
