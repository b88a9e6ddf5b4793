package notify

import (
	"fmt"
	"sync"
)

// Event is a room occupancy snapshot handed to subscribers.
type Event struct {
	RoomID        int
	Occupied      bool
	OccupantCount int
}

// Subscriber receives occupancy events for the rooms it is registered on.
//
// Implementations must tolerate repeated events with the same Occupied
// value: turning on something that is already on is a no-op.
//
// OnOccupancyChanged runs on the goroutine that updated the room, after
// the room's lock is released. It may read the room's state, but must not
// synchronously update the same room: that update waits for the current
// delivery to finish and deadlocks. Wrap such a subscriber with Async, or
// hand the update to another goroutine.
type Subscriber interface {
	OnOccupancyChanged(roomID int, occupied bool, occupantCount int) error
}

// Interest is an optional capability a Subscriber can implement to skip
// events it has no use for. Subscribers without it receive every event.
type Interest interface {
	Interested(evt Event) bool
}

// Logger defines the logging interface used by the bus.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Bus fans occupancy events out to an ordered set of subscribers.
type Bus struct {
	mu     sync.RWMutex
	subs   []Subscriber
	logger Logger
}

// NewBus creates an empty bus. A nil logger discards log output.
func NewBus(logger Logger) *Bus {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Bus{logger: logger}
}

// Subscribe appends s to the subscriber list. Subscribing a subscriber
// that is already present is a no-op. Reports whether s was added.
func (b *Bus) Subscribe(s Subscriber) bool {
	if s == nil {
		return false
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	for _, existing := range b.subs {
		if existing == s {
			return false
		}
	}
	b.subs = append(b.subs, s)
	return true
}

// Unsubscribe removes s. Removing a subscriber that is not present is a
// no-op. Reports whether s was removed.
func (b *Bus) Unsubscribe(s Subscriber) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, existing := range b.subs {
		if existing == s {
			// Copy so snapshots taken by in-flight Publish calls stay intact.
			next := make([]Subscriber, 0, len(b.subs)-1)
			next = append(next, b.subs[:i]...)
			next = append(next, b.subs[i+1:]...)
			b.subs = next
			return true
		}
	}
	return false
}

// Clear removes every subscriber.
func (b *Bus) Clear() {
	b.mu.Lock()
	b.subs = nil
	b.mu.Unlock()
}

// Len returns the number of subscribers.
func (b *Bus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Publish delivers evt to every interested subscriber in registration
// order and returns how many deliveries succeeded.
func (b *Bus) Publish(evt Event) int {
	b.mu.RLock()
	subs := b.subs
	b.mu.RUnlock()

	delivered := 0
	for _, s := range subs {
		if !interested(s, evt) {
			continue
		}
		if err := deliver(s, evt); err != nil {
			b.logger.Warn("occupancy subscriber failed",
				"room_id", evt.RoomID,
				"subscriber", fmt.Sprintf("%T", s),
				"error", err,
			)
			continue
		}
		delivered++
	}
	return delivered
}

// interested evaluates the optional Interest capability. A panicking
// predicate counts as interested so the failure surfaces in deliver.
func interested(s Subscriber, evt Event) (ok bool) {
	in, has := s.(Interest)
	if !has {
		return true
	}
	defer func() {
		if r := recover(); r != nil {
			ok = true
		}
	}()
	return in.Interested(evt)
}

// deliver calls s and converts a panic into an error.
func deliver(s Subscriber, evt Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrSubscriberPanic, r)
		}
	}()
	return s.OnOccupancyChanged(evt.RoomID, evt.Occupied, evt.OccupantCount)
}
