package command

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/smart-office/internal/clock"
)

// Logger defines the logging interface used by the invoker.
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

// Entry is one line of command history.
type Entry struct {
	ID          string    `json:"id"`
	Description string    `json:"description"`
	ExecutedAt  time.Time `json:"executed_at"`
	Undone      bool      `json:"undone"`
}

type record struct {
	id  string
	cmd Command
	at  time.Time

	// roomSet is the room generation the command acted on.
	roomSet int
}

// rebuildsRooms reports whether cmd replaces the whole room set.
func rebuildsRooms(cmd Command) bool {
	_, ok := cmd.(*Configure)
	return ok
}

// Invoker executes commands and keeps the history needed to undo them.
//
// Only commands that succeed enter the history. Undo steps a cursor
// backwards; undone entries stay visible in History until the next
// successful Execute drops them.
//
// Configuring the office replaces every room, so commands recorded
// before the latest Configure (or its undo) are no longer undoable.
type Invoker struct {
	clock  clock.Clock
	logger Logger

	mu      sync.Mutex
	history []record
	cursor  int // number of entries not undone
	roomSet int // bumped whenever the room set is rebuilt
}

// NewInvoker creates an invoker with an empty history.
func NewInvoker(clk clock.Clock, logger Logger) *Invoker {
	if clk == nil {
		clk = clock.Real()
	}
	if logger == nil {
		logger = noopLogger{}
	}
	return &Invoker{clock: clk, logger: logger}
}

// Execute runs cmd and records it if it succeeds.
func (inv *Invoker) Execute(cmd Command) (string, error) {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	msg, err := cmd.Execute()
	if err != nil {
		inv.logger.Debug("command rejected", "command", cmd.Description(), "error", err)
		return "", err
	}

	if rebuildsRooms(cmd) {
		inv.roomSet++
	}
	rec := record{id: uuid.New().String(), cmd: cmd, at: inv.clock.Now(), roomSet: inv.roomSet}
	inv.history = append(inv.history[:inv.cursor], rec)
	inv.cursor = len(inv.history)

	inv.logger.Info("command executed", "id", rec.id, "command", cmd.Description())
	return msg, nil
}

// Undo reverses the most recent command that has not been undone. The
// cursor moves back even if the command fails to undo, so a command that
// cannot be reversed does not block older ones.
func (inv *Invoker) Undo() (string, error) {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	if inv.cursor == 0 {
		return "", ErrNothingToUndo
	}
	inv.cursor--
	rec := inv.history[inv.cursor]

	if !rebuildsRooms(rec.cmd) && rec.roomSet != inv.roomSet {
		err := fmt.Errorf("%w: %q predates the current room configuration", ErrNotUndoable, rec.cmd.Description())
		inv.logger.Warn("undo refused", "id", rec.id, "command", rec.cmd.Description())
		return "", err
	}

	msg, err := rec.cmd.Undo()
	if err != nil {
		inv.logger.Warn("undo failed", "id", rec.id, "command", rec.cmd.Description(), "error", err)
		return "", err
	}
	if rebuildsRooms(rec.cmd) {
		inv.roomSet++
	}
	inv.logger.Info("command undone", "id", rec.id, "command", rec.cmd.Description())
	return msg, nil
}

// History returns every recorded command, oldest first.
func (inv *Invoker) History() []Entry {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	out := make([]Entry, len(inv.history))
	for i, rec := range inv.history {
		out[i] = Entry{
			ID:          rec.id,
			Description: rec.cmd.Description(),
			ExecutedAt:  rec.at,
			Undone:      i >= inv.cursor,
		}
	}
	return out
}

// Len returns the number of recorded commands, undone ones included.
func (inv *Invoker) Len() int {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	return len(inv.history)
}

// Clear drops the whole history.
func (inv *Invoker) Clear() {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	inv.history = nil
	inv.cursor = 0
}
