package facility

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	// OccupancyThreshold is the minimum number of occupants for a room to
	// count as occupied.
	OccupancyThreshold = 2

	// AutoReleaseDelay is how long a booked room may stay unoccupied
	// before its booking is released. Measured from the last arming.
	AutoReleaseDelay = 5 * time.Minute

	// DefaultMaxCapacity is the capacity every room starts with.
	DefaultMaxCapacity = 10

	minutesPerDay = 24 * 60
)

// TimeOfDay is a wall-clock time expressed as minutes since midnight.
type TimeOfDay int

// NewTimeOfDay returns the time of day for hour:minute.
func NewTimeOfDay(hour, minute int) (TimeOfDay, error) {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("%w: %02d:%02d", ErrInvalidTime, hour, minute)
	}
	return TimeOfDay(hour*60 + minute), nil
}

// ParseTimeOfDay parses "HH:MM" (24-hour clock, leading zero optional
// on the hour).
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	h, m, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok || len(h) < 1 || len(h) > 2 || len(m) != 2 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	hour, err := strconv.Atoi(h)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	minute, err := strconv.Atoi(m)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	return NewTimeOfDay(hour, minute)
}

// MustParseTimeOfDay is ParseTimeOfDay for constants; it panics on error.
func MustParseTimeOfDay(s string) TimeOfDay {
	t, err := ParseTimeOfDay(s)
	if err != nil {
		panic(err)
	}
	return t
}

// Hour returns the hour component.
func (t TimeOfDay) Hour() int { return int(t) / 60 }

// Minute returns the minute component.
func (t TimeOfDay) Minute() int { return int(t) % 60 }

// AddMinutes returns t shifted by m minutes, wrapping around midnight.
func (t TimeOfDay) AddMinutes(m int) TimeOfDay {
	v := (int(t) + m) % minutesPerDay
	if v < 0 {
		v += minutesPerDay
	}
	return TimeOfDay(v)
}

// String formats t as HH:MM.
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

// Booking is a single reservation of a room.
type Booking struct {
	Start           TimeOfDay
	DurationMinutes int
}

// NewBooking validates and returns a booking.
func NewBooking(start TimeOfDay, durationMinutes int) (Booking, error) {
	b := Booking{Start: start, DurationMinutes: durationMinutes}
	if err := b.Validate(); err != nil {
		return Booking{}, err
	}
	return b, nil
}

// Validate checks the booking fields.
func (b Booking) Validate() error {
	if b.DurationMinutes <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidDuration, b.DurationMinutes)
	}
	if b.Start < 0 || b.Start >= minutesPerDay {
		return fmt.Errorf("%w: %d minutes", ErrInvalidTime, int(b.Start))
	}
	return nil
}

// End returns the clock time the booking ends at.
func (b Booking) End() TimeOfDay {
	return b.Start.AddMinutes(b.DurationMinutes)
}

// String formats the booking window, e.g. "09:00-10:00 (60 min)".
func (b Booking) String() string {
	return fmt.Sprintf("%s-%s (%d min)", b.Start, b.End(), b.DurationMinutes)
}

// OccupancyStatus classifies an occupant count for caller messaging.
type OccupancyStatus int

const (
	// StatusUnknown is the zero value; never returned for a valid count.
	StatusUnknown OccupancyStatus = iota

	// StatusUnoccupied means nobody is in the room.
	StatusUnoccupied

	// StatusBelowThreshold means someone is present but fewer than
	// OccupancyThreshold people; the room still counts as unoccupied.
	StatusBelowThreshold

	// StatusOccupied means at least OccupancyThreshold people are present.
	StatusOccupied
)

// String returns the string representation of the status.
func (s OccupancyStatus) String() string {
	switch s {
	case StatusUnoccupied:
		return "unoccupied"
	case StatusBelowThreshold:
		return "below_threshold"
	case StatusOccupied:
		return "occupied"
	default:
		return "unknown"
	}
}

// Occupied reports whether the status counts as occupied.
func (s OccupancyStatus) Occupied() bool {
	return s == StatusOccupied
}

// classifyOccupancy maps a non-negative occupant count to a status.
func classifyOccupancy(count int) OccupancyStatus {
	switch {
	case count >= OccupancyThreshold:
		return StatusOccupied
	case count > 0:
		return StatusBelowThreshold
	default:
		return StatusUnoccupied
	}
}

// OccupancyUpdate describes the outcome of a single occupancy update.
type OccupancyUpdate struct {
	RoomID   int
	Previous int
	Current  int
	Status   OccupancyStatus

	// Changed is true when the update flipped the occupied flag.
	Changed bool

	// ReleaseArmed is true when the update armed a fresh auto-release.
	ReleaseArmed bool
}

// Status is a point-in-time snapshot of a room.
type Status struct {
	RoomID        int       `json:"room_id"`
	OccupantCount int       `json:"occupant_count"`
	MaxCapacity   int       `json:"max_capacity"`
	Occupied      bool      `json:"occupied"`
	Booked        bool      `json:"booked"`
	Booking       *Booking  `json:"booking,omitempty"`
	ReleaseAt     time.Time `json:"release_at,omitzero"`
}

// ReleasePending reports whether an auto-release is armed.
func (s Status) ReleasePending() bool {
	return !s.ReleaseAt.IsZero()
}

// String renders the status the way the console shows it.
func (s Status) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Room %d: Occupants: %d/%d, Occupied: %s, Booked: %s",
		s.RoomID, s.OccupantCount, s.MaxCapacity, yesNo(s.Occupied), yesNo(s.Booked))
	if s.Booking != nil {
		fmt.Fprintf(&b, " (%s)", s.Booking)
	}
	return b.String()
}

func yesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}
