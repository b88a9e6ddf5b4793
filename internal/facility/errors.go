package facility

import (
	"errors"
	"fmt"
)

// Error classes. Every error returned by this package wraps exactly one
// of them, so callers can tell a malformed request from one that is
// merely impossible right now:
//
//	if errors.Is(err, facility.ErrConflict) {
//	    // e.g. room already booked
//	}
var (
	// ErrValidation marks malformed or out-of-range input.
	ErrValidation = errors.New("facility: invalid request")

	// ErrConflict marks a request that is inconsistent with the current state.
	ErrConflict = errors.New("facility: state conflict")
)

// Validation errors.
var (
	// ErrNotConfigured is returned before the first successful Configure.
	ErrNotConfigured = fmt.Errorf("%w: facility not configured", ErrValidation)

	// ErrRoomNotFound is returned for a room id outside the configured set.
	ErrRoomNotFound = fmt.Errorf("%w: room not found", ErrValidation)

	// ErrInvalidRoomCount is returned when configuring zero or fewer rooms.
	ErrInvalidRoomCount = fmt.Errorf("%w: room count must be positive", ErrValidation)

	// ErrInvalidCapacity is returned for a non-positive maximum capacity.
	ErrInvalidCapacity = fmt.Errorf("%w: capacity must be positive", ErrValidation)

	// ErrInvalidDuration is returned for a non-positive booking duration.
	ErrInvalidDuration = fmt.Errorf("%w: duration must be positive", ErrValidation)

	// ErrInvalidOccupantCount is returned for a negative occupant count.
	ErrInvalidOccupantCount = fmt.Errorf("%w: occupant count cannot be negative", ErrValidation)

	// ErrInvalidTime is returned when a start time is not a valid HH:MM.
	ErrInvalidTime = fmt.Errorf("%w: time must be HH:MM", ErrValidation)
)

// Conflict errors.
var (
	// ErrAlreadyBooked is returned when booking a room that already has a booking.
	ErrAlreadyBooked = fmt.Errorf("%w: room already booked", ErrConflict)

	// ErrNotBooked is returned when cancelling a room without a booking.
	ErrNotBooked = fmt.Errorf("%w: room not booked", ErrConflict)
)
