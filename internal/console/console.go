// Package console provides the interactive text interface of the facility.
//
// Each input line is parsed into a command object and run through the
// invoker, so every change made at the console can be listed with
// "history" and reversed with "undo".
package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/chzyer/readline"

	"github.com/nerrad567/smart-office/internal/command"
	"github.com/nerrad567/smart-office/internal/facility"
)

// Facility is what the console needs from the registry.
type Facility interface {
	command.Facility
	StatusAll() ([]facility.Status, error)
}

var _ Facility = (*facility.Registry)(nil)

const (
	msgNotConfigured = "Office not configured. Please configure rooms first."
	msgGoodbye       = "Goodbye!"
)

// Console reads commands and prints their outcome.
type Console struct {
	fac Facility
	inv *command.Invoker
	rl  *readline.Instance
}

// New creates a console driving fac through inv.
func New(fac Facility, inv *command.Invoker) *Console {
	return &Console{fac: fac, inv: inv}
}

// Run starts the interactive loop. It returns when the user exits, input
// ends, or ctx is cancelled.
func (c *Console) Run(ctx context.Context) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "office> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("creating readline: %w", err)
	}
	c.rl = rl
	defer rl.Close()

	// Readline blocks on stdin; closing the instance unblocks it.
	stop := context.AfterFunc(ctx, func() { rl.Close() })
	defer stop()

	out := rl.Stdout()
	fmt.Fprintln(out, "=== Smart Office Facility Management System ===")
	fmt.Fprintln(out, helpText)

	for {
		line, err := rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				continue
			}
			fmt.Fprintln(out, "Exiting...")
			return nil
		}

		reply, exit := c.Handle(line)
		if reply != "" {
			fmt.Fprintln(out, reply)
		}
		if exit {
			return nil
		}
	}
}

// Stdout returns a writer that does not interfere with the prompt. It is
// only valid while Run is active.
func (c *Console) Stdout() io.Writer {
	if c.rl == nil {
		return io.Discard
	}
	return c.rl.Stdout()
}

// Handle executes one input line and returns the text to show. The bool
// is true when the user asked to exit.
func (c *Console) Handle(line string) (string, bool) {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return "", false
	}

	cmd := strings.ToLower(parts[0])
	switch cmd {
	case "config":
		return c.cmdConfig(parts), false
	case "block":
		return c.cmdBlock(parts), false
	case "cancel":
		return c.cmdCancel(parts), false
	case "add":
		return c.cmdAddOccupant(parts), false
	case "status":
		return c.cmdStatus(parts), false
	case "history":
		return c.cmdHistory(), false
	case "undo":
		return c.cmdUndo(), false
	case "help", "?":
		return helpText, false
	case "exit", "quit":
		return msgGoodbye, true
	default:
		return fmt.Sprintf("Unknown command: %s. Type 'help' for available commands.", cmd), false
	}
}

func (c *Console) cmdConfig(parts []string) string {
	const usage = "Invalid config command. Usage: config room count <number> OR config room max capacity <room> <capacity>"
	if len(parts) < 3 || parts[1] != "room" {
		return usage
	}

	switch {
	case parts[2] == "count":
		if len(parts) != 4 {
			return "Invalid command. Usage: config room count <number>"
		}
		n, err := strconv.Atoi(parts[3])
		if err != nil {
			return "Invalid room count. Please enter a valid positive number."
		}
		return c.execute(command.NewConfigure(c.fac, n), 0)

	case parts[2] == "max" && len(parts) >= 4 && parts[3] == "capacity":
		if len(parts) != 6 {
			return "Invalid command. Usage: config room max capacity <room> <capacity>"
		}
		room, err1 := strconv.Atoi(parts[4])
		capacity, err2 := strconv.Atoi(parts[5])
		if err1 != nil || err2 != nil {
			return "Invalid room number or capacity. Please enter valid numbers."
		}
		return c.execute(command.NewSetCapacity(c.fac, room, capacity), room)

	default:
		return usage
	}
}

func (c *Console) cmdBlock(parts []string) string {
	if len(parts) != 5 || parts[1] != "room" {
		return "Invalid command. Usage: block room <number> <start_time> <duration>"
	}
	room, ok := parseRoom(parts[2])
	if !ok {
		return "Invalid room number. Please enter a valid room number."
	}
	start, err := facility.ParseTimeOfDay(parts[3])
	if err != nil {
		return describe(err, room)
	}
	duration, err := strconv.Atoi(parts[4])
	if err != nil {
		return "Invalid duration. Please enter a valid positive number."
	}

	booking, err := facility.NewBooking(start, duration)
	if err != nil {
		return describe(err, room)
	}
	return c.execute(command.NewBook(c.fac, room, booking), room)
}

func (c *Console) cmdCancel(parts []string) string {
	if len(parts) != 3 || parts[1] != "room" {
		return "Invalid command. Usage: cancel room <number>"
	}
	room, ok := parseRoom(parts[2])
	if !ok {
		return "Invalid room number. Please enter a valid room number."
	}
	return c.execute(command.NewCancel(c.fac, room), room)
}

func (c *Console) cmdAddOccupant(parts []string) string {
	if len(parts) != 4 || parts[1] != "occupant" {
		return "Invalid command. Usage: add occupant <room> <count>"
	}
	room, ok := parseRoom(parts[2])
	if !ok {
		return "Invalid room number. Please enter a valid room number."
	}
	count, err := strconv.Atoi(parts[3])
	if err != nil {
		return "Invalid occupant count. Please enter a valid non-negative number."
	}
	return c.execute(command.NewSetOccupancy(c.fac, room, count), room)
}

func (c *Console) cmdStatus(parts []string) string {
	switch len(parts) {
	case 1:
		all, err := c.fac.StatusAll()
		if err != nil {
			return describe(err, 0)
		}
		var b strings.Builder
		b.WriteString("=== Room Status Summary ===")
		for _, st := range all {
			b.WriteString("\n")
			b.WriteString(st.String())
		}
		return b.String()

	case 2:
		room, err := strconv.Atoi(parts[1])
		if err != nil {
			return "Invalid room number. Please enter a valid number."
		}
		st, err := c.fac.Status(room)
		if err != nil {
			return describe(err, room)
		}
		return st.String()

	default:
		return "Invalid command. Usage: status OR status <room_number>"
	}
}

func (c *Console) cmdHistory() string {
	var b strings.Builder
	b.WriteString("=== Command History ===")

	entries := c.inv.History()
	if len(entries) == 0 {
		b.WriteString("\nNo commands executed yet.")
		return b.String()
	}
	for i, e := range entries {
		fmt.Fprintf(&b, "\n%d. %s", i+1, e.Description)
		if e.Undone {
			b.WriteString(" (undone)")
		}
	}
	return b.String()
}

func (c *Console) cmdUndo() string {
	msg, err := c.inv.Undo()
	switch {
	case errors.Is(err, command.ErrNothingToUndo):
		return "No command to undo."
	case err != nil:
		return fmt.Sprintf("Undo failed: %v", err)
	}
	return msg
}

func (c *Console) execute(cmd command.Command, room int) string {
	msg, err := c.inv.Execute(cmd)
	if err != nil {
		return describe(err, room)
	}
	return msg
}

// parseRoom accepts a non-negative decimal room number. Zero parses and is
// then rejected by the registry as an unknown room.
func parseRoom(s string) (int, bool) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// describe turns an error into the message shown to the user.
func describe(err error, room int) string {
	switch {
	case errors.Is(err, facility.ErrNotConfigured):
		return msgNotConfigured
	case errors.Is(err, facility.ErrRoomNotFound):
		return fmt.Sprintf("Room %d does not exist.", room)
	case errors.Is(err, facility.ErrAlreadyBooked):
		return fmt.Sprintf("Room %d is already booked during this time. Cannot book.", room)
	case errors.Is(err, facility.ErrNotBooked):
		return fmt.Sprintf("Room %d is not booked. Cannot cancel booking.", room)
	case errors.Is(err, facility.ErrInvalidRoomCount):
		return "Room count must be positive."
	case errors.Is(err, facility.ErrInvalidCapacity):
		return "Invalid capacity. Please enter a valid positive number."
	case errors.Is(err, facility.ErrInvalidDuration):
		return "Invalid duration. Duration must be positive."
	case errors.Is(err, facility.ErrInvalidOccupantCount):
		return "Invalid occupant count. Count cannot be negative."
	case errors.Is(err, facility.ErrInvalidTime):
		return "Invalid time format. Please use HH:mm format (e.g., 09:00)."
	default:
		return fmt.Sprintf("Error: %v", err)
	}
}

const helpText = `Available Commands:

Configuration:
  config room count <number>                    - Configure office with N meeting rooms
  config room max capacity <room> <capacity>    - Set maximum capacity for a room

Booking Operations:
  block room <number> <start_time> <duration>   - Book a room (time: HH:MM, duration: minutes)
  cancel room <number>                          - Cancel room booking

Occupancy Management:
  add occupant <room> <count>                   - Set room occupancy (simulates sensor)

Information:
  status                                        - Show all rooms status
  status <room_number>                          - Show specific room status
  history                                       - Show command history
  undo                                          - Undo last command

System:
  help                                          - Show this help message
  exit/quit                                     - Exit the application

Examples:
  config room count 3
  config room max capacity 1 10
  block room 1 09:00 60
  add occupant 1 2
  cancel room 1`
