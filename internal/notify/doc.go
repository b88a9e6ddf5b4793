// Package notify delivers room occupancy events to environmental-control
// subscribers (air conditioning, lighting, telemetry).
//
// A Bus holds an ordered set of subscribers. Publish calls each one in
// registration order; a subscriber that returns an error or panics is
// logged and skipped, and delivery continues with the next one. Nothing
// a subscriber does propagates back to the publisher.
//
// Subscribers may implement Interest to declare which events they care
// about; the bus consults it before dispatch.
//
// Slow subscribers can be wrapped with Async, which gives them their own
// FIFO mailbox and worker goroutine so the publisher never waits on them.
//
// # Thread Safety
//
// Bus and AsyncSubscriber are safe for concurrent use. Subscribers are
// compared by identity, so they must be comparable (pointer types).
package notify
