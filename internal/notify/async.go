package notify

import (
	"fmt"
	"sync"
)

// AsyncSubscriber decouples a slow subscriber from the publisher. Events
// are queued in an unbounded FIFO mailbox and delivered by a single
// worker goroutine, so the wrapped subscriber sees them in publish order.
type AsyncSubscriber struct {
	next   Subscriber
	logger Logger

	mu      sync.Mutex
	cond    *sync.Cond
	queue   []Event
	busy    bool
	closed  bool
	stopped chan struct{}
}

var _ Subscriber = (*AsyncSubscriber)(nil)

// Async wraps next and starts its delivery worker. Call Close to drain
// the mailbox and stop the worker.
func Async(next Subscriber, logger Logger) *AsyncSubscriber {
	if logger == nil {
		logger = noopLogger{}
	}
	a := &AsyncSubscriber{
		next:    next,
		logger:  logger,
		stopped: make(chan struct{}),
	}
	a.cond = sync.NewCond(&a.mu)
	go a.run()
	return a
}

// OnOccupancyChanged queues the event and returns immediately.
func (a *AsyncSubscriber) OnOccupancyChanged(roomID int, occupied bool, occupantCount int) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return ErrClosed
	}
	a.queue = append(a.queue, Event{RoomID: roomID, Occupied: occupied, OccupantCount: occupantCount})
	a.cond.Broadcast()
	return nil
}

// Flush blocks until every queued event has been delivered.
func (a *AsyncSubscriber) Flush() {
	a.mu.Lock()
	defer a.mu.Unlock()
	for len(a.queue) > 0 || a.busy {
		a.cond.Wait()
	}
}

// Close stops accepting events, delivers what is already queued, and
// waits for the worker to exit. Safe to call more than once.
func (a *AsyncSubscriber) Close() {
	a.mu.Lock()
	if !a.closed {
		a.closed = true
		a.cond.Broadcast()
	}
	a.mu.Unlock()
	<-a.stopped
}

// Pending returns the number of events waiting in the mailbox.
func (a *AsyncSubscriber) Pending() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.queue)
}

func (a *AsyncSubscriber) run() {
	defer close(a.stopped)

	for {
		a.mu.Lock()
		for len(a.queue) == 0 && !a.closed {
			a.cond.Wait()
		}
		if len(a.queue) == 0 && a.closed {
			a.mu.Unlock()
			return
		}
		evt := a.queue[0]
		a.queue = a.queue[1:]
		a.busy = true
		a.mu.Unlock()

		// Interest is evaluated here, against the state the wrapped
		// subscriber has after all earlier events.
		if interested(a.next, evt) {
			if err := deliver(a.next, evt); err != nil {
				a.logger.Warn("async occupancy subscriber failed",
					"room_id", evt.RoomID,
					"subscriber", fmt.Sprintf("%T", a.next),
					"error", err,
				)
			}
		}

		a.mu.Lock()
		a.busy = false
		a.cond.Broadcast()
		a.mu.Unlock()
	}
}
