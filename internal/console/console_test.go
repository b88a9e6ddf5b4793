package console

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerrad567/smart-office/internal/clock"
	"github.com/nerrad567/smart-office/internal/command"
	"github.com/nerrad567/smart-office/internal/facility"
)

func newConsole(t *testing.T) (*Console, *facility.Registry, *clock.FakeClock) {
	t.Helper()
	clk := clock.Fake(time.Date(2026, 3, 2, 8, 55, 0, 0, time.UTC))
	reg := facility.NewRegistry(facility.WithClock(clk))
	t.Cleanup(reg.Close)
	return New(reg, command.NewInvoker(clk, nil)), reg, clk
}

// run feeds lines to the console and returns the last reply.
func run(t *testing.T, c *Console, lines ...string) string {
	t.Helper()
	var reply string
	for _, line := range lines {
		var exit bool
		reply, exit = c.Handle(line)
		require.False(t, exit, "unexpected exit on %q", line)
	}
	return reply
}

func TestHandle_Session(t *testing.T) {
	c, reg, _ := newConsole(t)

	tests := []struct {
		line string
		want string
	}{
		{"status", "Office not configured. Please configure rooms first."},
		{"config room count 3", "Office configured with 3 meeting rooms: Room 1, Room 2, Room 3."},
		{"config room max capacity 1 8", "Room 1 maximum capacity set to 8."},
		{"block room 1 09:00 60", "Room 1 booked from 09:00 for 60 minutes."},
		{"block room 1 10:00 30", "Room 1 is already booked during this time. Cannot book."},
		{"add occupant 1 2", "Room 1 is now occupied by 2 persons. AC and lights turned on."},
		{"add occupant 2 1", "Room 2 occupancy insufficient to mark as occupied."},
		{"add occupant 1 0", "Room 1 is now unoccupied. AC and lights turned off."},
		{"cancel room 2", "Room 2 is not booked. Cannot cancel booking."},
		{"cancel room 1", "Booking for Room 1 cancelled successfully."},
		{"status 4", "Room 4 does not exist."},
		{"status 1", "Room 1: Occupants: 0/8, Occupied: No, Booked: No"},
	}

	for _, tt := range tests {
		got, exit := c.Handle(tt.line)
		assert.False(t, exit)
		assert.Equal(t, tt.want, got, "input %q", tt.line)
	}

	st, err := reg.Status(2)
	require.NoError(t, err)
	assert.Equal(t, 1, st.OccupantCount)
}

func TestHandle_Rejections(t *testing.T) {
	c, _, _ := newConsole(t)
	run(t, c, "config room count 2")

	tests := []struct {
		line string
		want string
	}{
		{"", ""},
		{"fly away", "Unknown command: fly. Type 'help' for available commands."},
		{"config", "Invalid config command. Usage: config room count <number> OR config room max capacity <room> <capacity>"},
		{"config room count", "Invalid command. Usage: config room count <number>"},
		{"config room count many", "Invalid room count. Please enter a valid positive number."},
		{"config room count 0", "Room count must be positive."},
		{"config room max capacity 1", "Invalid command. Usage: config room max capacity <room> <capacity>"},
		{"config room max capacity 1 0", "Invalid capacity. Please enter a valid positive number."},
		{"config room max capacity 7 4", "Room 7 does not exist."},
		{"block room 1 09:00", "Invalid command. Usage: block room <number> <start_time> <duration>"},
		{"block room x 09:00 60", "Invalid room number. Please enter a valid room number."},
		{"block room 1 25:00 60", "Invalid time format. Please use HH:mm format (e.g., 09:00)."},
		{"block room 1 09:00 soon", "Invalid duration. Please enter a valid positive number."},
		{"block room 1 09:00 0", "Invalid duration. Duration must be positive."},
		{"block room 5 09:00 30", "Room 5 does not exist."},
		{"cancel 1", "Invalid command. Usage: cancel room <number>"},
		{"add occupant 1", "Invalid command. Usage: add occupant <room> <count>"},
		{"add occupant 1 -3", "Invalid occupant count. Count cannot be negative."},
		{"add occupant 1 two", "Invalid occupant count. Please enter a valid non-negative number."},
		{"status 1 2", "Invalid command. Usage: status OR status <room_number>"},
		{"status one", "Invalid room number. Please enter a valid number."},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, exit := c.Handle(tt.line)
			assert.False(t, exit)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHandle_StatusAll(t *testing.T) {
	c, _, _ := newConsole(t)
	got := run(t, c, "config room count 2", "block room 2 14:30 45", "status")

	lines := strings.Split(got, "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "=== Room Status Summary ===", lines[0])
	assert.Equal(t, "Room 1: Occupants: 0/10, Occupied: No, Booked: No", lines[1])
	assert.Equal(t, "Room 2: Occupants: 0/10, Occupied: No, Booked: Yes (14:30-15:15 (45 min))", lines[2])
}

func TestHandle_HistoryAndUndo(t *testing.T) {
	c, reg, _ := newConsole(t)

	assert.Equal(t, "=== Command History ===\nNo commands executed yet.", run(t, c, "history"))
	assert.Equal(t, "No command to undo.", run(t, c, "undo"))

	run(t, c, "config room count 2", "block room 1 09:00 60", "cancel room 1")
	assert.Equal(t, "Booking for Room 1 restored (undo cancellation).", run(t, c, "undo"))

	st, err := reg.Status(1)
	require.NoError(t, err)
	assert.True(t, st.Booked)

	assert.Equal(t,
		"=== Command History ===\n"+
			"1. Configure office with 2 meeting rooms\n"+
			"2. Book Room 1 from 09:00 for 60 minutes\n"+
			"3. Cancel booking for Room 1 (undone)",
		run(t, c, "history"))

	assert.Equal(t, "Booking for Room 1 cancelled (undo).", run(t, c, "undo"))
	assert.True(t, strings.HasPrefix(run(t, c, "undo"), "Undo failed:"), "first configure cannot be undone")
	assert.Equal(t, "No command to undo.", run(t, c, "undo"))
}

func TestHandle_AutoReleaseVisibleInStatus(t *testing.T) {
	c, _, clk := newConsole(t)
	run(t, c, "config room count 1", "block room 1 09:00 60")

	clk.Advance(facility.AutoReleaseDelay)

	assert.Equal(t, "Room 1: Occupants: 0/10, Occupied: No, Booked: No", run(t, c, "status 1"))
}

func TestHandle_Exit(t *testing.T) {
	c, _, _ := newConsole(t)
	for _, line := range []string{"exit", "quit", "  QUIT  "} {
		got, exit := c.Handle(line)
		assert.True(t, exit, line)
		assert.Equal(t, "Goodbye!", got)
	}
}

func TestHandle_Help(t *testing.T) {
	c, _, _ := newConsole(t)
	got := run(t, c, "help")
	assert.Contains(t, got, "config room count <number>")
	assert.Contains(t, got, "add occupant <room> <count>")
}
