package notify

import "errors"

var (
	// ErrClosed is returned when an event is offered to an AsyncSubscriber
	// after Close.
	ErrClosed = errors.New("notify: subscriber closed")

	// ErrSubscriberPanic wraps a recovered panic from a subscriber.
	ErrSubscriberPanic = errors.New("notify: subscriber panicked")
)
