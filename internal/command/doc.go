// Package command wraps facility operations in undoable command objects.
//
// Each command records whatever it needs to reverse itself while it
// executes: the previous occupant count, the cancelled booking, the
// previous capacity. The Invoker keeps the history of successful commands
// and walks it backwards on Undo. Executing a new command after an undo
// discards the undone tail.
//
// Undo is best-effort. It restores field values through the same facility
// operations a user would call, so it can itself be rejected (for example
// when the room was booked again in the meantime) and it does not replay
// earlier notifications.
package command
