package command

import (
	"fmt"
	"strings"

	"github.com/nerrad567/smart-office/internal/facility"
)

// Facility is the subset of facility.Registry the commands drive.
type Facility interface {
	Configure(count int) ([]int, error)
	Configured() bool
	RoomCount() int
	SetCapacity(id, capacity int) error
	Book(id int, b facility.Booking) error
	Cancel(id int) (facility.Booking, error)
	SetOccupancy(id, count int) (facility.OccupancyUpdate, error)
	Status(id int) (facility.Status, error)
}

var _ Facility = (*facility.Registry)(nil)

// Command is a single undoable facility operation. Execute and Undo
// return a human-readable outcome on success.
type Command interface {
	Execute() (string, error)
	Undo() (string, error)
	Description() string
}

// Configure sets up the office with a number of rooms.
type Configure struct {
	fac   Facility
	count int

	executed  bool
	prevCount int
}

// NewConfigure returns a command configuring count rooms.
func NewConfigure(fac Facility, count int) *Configure {
	return &Configure{fac: fac, count: count}
}

// Execute implements Command.
func (c *Configure) Execute() (string, error) {
	prev := 0
	if c.fac.Configured() {
		prev = c.fac.RoomCount()
	}
	ids, err := c.fac.Configure(c.count)
	if err != nil {
		return "", err
	}
	c.executed = true
	c.prevCount = prev

	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = fmt.Sprintf("Room %d", id)
	}
	return fmt.Sprintf("Office configured with %d meeting rooms: %s.", c.count, strings.Join(names, ", ")), nil
}

// Undo rebuilds the previous room count. Bookings and occupancy of the
// replaced rooms are not restored.
func (c *Configure) Undo() (string, error) {
	if !c.executed {
		return "", ErrNotExecuted
	}
	if c.prevCount == 0 {
		return "", fmt.Errorf("%w: office was not configured before", ErrNotUndoable)
	}
	if _, err := c.fac.Configure(c.prevCount); err != nil {
		return "", err
	}
	c.executed = false
	return fmt.Sprintf("Office configuration restored to %d meeting rooms (undo).", c.prevCount), nil
}

// Description implements Command.
func (c *Configure) Description() string {
	return fmt.Sprintf("Configure office with %d meeting rooms", c.count)
}

// SetCapacity changes a room's maximum capacity.
type SetCapacity struct {
	fac      Facility
	roomID   int
	capacity int

	executed bool
	previous int
}

// NewSetCapacity returns a command setting a room's maximum capacity.
func NewSetCapacity(fac Facility, roomID, capacity int) *SetCapacity {
	return &SetCapacity{fac: fac, roomID: roomID, capacity: capacity}
}

// Execute implements Command.
func (c *SetCapacity) Execute() (string, error) {
	st, err := c.fac.Status(c.roomID)
	if err != nil {
		return "", err
	}
	if err := c.fac.SetCapacity(c.roomID, c.capacity); err != nil {
		return "", err
	}
	c.executed = true
	c.previous = st.MaxCapacity
	return fmt.Sprintf("Room %d maximum capacity set to %d.", c.roomID, c.capacity), nil
}

// Undo implements Command.
func (c *SetCapacity) Undo() (string, error) {
	if !c.executed {
		return "", ErrNotExecuted
	}
	if err := c.fac.SetCapacity(c.roomID, c.previous); err != nil {
		return "", err
	}
	c.executed = false
	return fmt.Sprintf("Room %d maximum capacity restored to %d (undo).", c.roomID, c.previous), nil
}

// Description implements Command.
func (c *SetCapacity) Description() string {
	return fmt.Sprintf("Set Room %d maximum capacity to %d", c.roomID, c.capacity)
}

// Book books a room.
type Book struct {
	fac     Facility
	roomID  int
	booking facility.Booking

	executed bool
}

// NewBook returns a command booking a room.
func NewBook(fac Facility, roomID int, booking facility.Booking) *Book {
	return &Book{fac: fac, roomID: roomID, booking: booking}
}

// Execute implements Command.
func (c *Book) Execute() (string, error) {
	if err := c.fac.Book(c.roomID, c.booking); err != nil {
		return "", err
	}
	c.executed = true
	return fmt.Sprintf("Room %d booked from %s for %d minutes.",
		c.roomID, c.booking.Start, c.booking.DurationMinutes), nil
}

// Undo cancels the booking this command placed.
func (c *Book) Undo() (string, error) {
	if !c.executed {
		return "", ErrNotExecuted
	}
	if _, err := c.fac.Cancel(c.roomID); err != nil {
		return "", fmt.Errorf("no booking to undo for room %d: %w", c.roomID, err)
	}
	c.executed = false
	return fmt.Sprintf("Booking for Room %d cancelled (undo).", c.roomID), nil
}

// Description implements Command.
func (c *Book) Description() string {
	return fmt.Sprintf("Book Room %d from %s for %d minutes",
		c.roomID, c.booking.Start, c.booking.DurationMinutes)
}

// Cancel cancels a room's booking.
type Cancel struct {
	fac    Facility
	roomID int

	executed  bool
	cancelled facility.Booking
}

// NewCancel returns a command cancelling a room's booking.
func NewCancel(fac Facility, roomID int) *Cancel {
	return &Cancel{fac: fac, roomID: roomID}
}

// Execute implements Command.
func (c *Cancel) Execute() (string, error) {
	b, err := c.fac.Cancel(c.roomID)
	if err != nil {
		return "", err
	}
	c.executed = true
	c.cancelled = b
	return fmt.Sprintf("Booking for Room %d cancelled successfully.", c.roomID), nil
}

// Undo books the cancelled window again.
func (c *Cancel) Undo() (string, error) {
	if !c.executed {
		return "", ErrNotExecuted
	}
	if err := c.fac.Book(c.roomID, c.cancelled); err != nil {
		return "", fmt.Errorf("could not restore booking for room %d: %w", c.roomID, err)
	}
	c.executed = false
	return fmt.Sprintf("Booking for Room %d restored (undo cancellation).", c.roomID), nil
}

// Description implements Command.
func (c *Cancel) Description() string {
	return fmt.Sprintf("Cancel booking for Room %d", c.roomID)
}

// SetOccupancy reports the number of people in a room.
type SetOccupancy struct {
	fac    Facility
	roomID int
	count  int

	executed bool
	previous int
}

// NewSetOccupancy returns a command setting a room's occupant count.
func NewSetOccupancy(fac Facility, roomID, count int) *SetOccupancy {
	return &SetOccupancy{fac: fac, roomID: roomID, count: count}
}

// Execute implements Command.
func (c *SetOccupancy) Execute() (string, error) {
	update, err := c.fac.SetOccupancy(c.roomID, c.count)
	if err != nil {
		return "", err
	}
	c.executed = true
	c.previous = update.Previous
	return OccupancyMessage(update), nil
}

// Undo restores the previous occupant count.
func (c *SetOccupancy) Undo() (string, error) {
	if !c.executed {
		return "", ErrNotExecuted
	}
	if _, err := c.fac.SetOccupancy(c.roomID, c.previous); err != nil {
		return "", err
	}
	c.executed = false
	return fmt.Sprintf("Occupancy for Room %d restored to %d (undo).", c.roomID, c.previous), nil
}

// Description implements Command.
func (c *SetOccupancy) Description() string {
	return fmt.Sprintf("Set Room %d occupancy to %d persons", c.roomID, c.count)
}

// OccupancyMessage renders the outcome of an occupancy update.
func OccupancyMessage(u facility.OccupancyUpdate) string {
	switch u.Status {
	case facility.StatusOccupied:
		return fmt.Sprintf("Room %d is now occupied by %d persons. AC and lights turned on.", u.RoomID, u.Current)
	case facility.StatusBelowThreshold:
		return fmt.Sprintf("Room %d occupancy insufficient to mark as occupied.", u.RoomID)
	default:
		return fmt.Sprintf("Room %d is now unoccupied. AC and lights turned off.", u.RoomID)
	}
}
