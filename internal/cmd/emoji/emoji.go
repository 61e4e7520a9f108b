// Package emoji provides symbol constants for CLI output.
package emoji

// Status symbols shared by all commands.
const (
	// Success marks a completed step or a saved log.
	Success = "✓"

	// Error marks a failed step.
	Error = "✗"

	// Warning marks a non-fatal condition such as an empty snapshot.
	Warning = "!"

	// Info marks informational lines.
	Info = "i"

	// Unavailable marks an answer with no backing data.
	Unavailable = "?"
)

// Change type markers used in tables.
const (
	Added   = "+"
	Removed = "-"
	Changed = "~"
)

// Status returns Success or Error for ok.
func Status(ok bool) string {
	if ok {
		return Success
	}
	return Error
}
