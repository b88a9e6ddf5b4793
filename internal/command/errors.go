package command

import "errors"

// Domain errors for command execution.
var (
	// ErrNothingToUndo is returned by Undo when no executed command remains.
	ErrNothingToUndo = errors.New("command: nothing to undo")

	// ErrNotExecuted is returned when undoing a command that never succeeded.
	ErrNotExecuted = errors.New("command: not executed")

	// ErrNotUndoable is returned when a command cannot restore the prior state.
	ErrNotUndoable = errors.New("command: cannot be undone")
)
