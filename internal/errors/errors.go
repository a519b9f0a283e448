package errors

import (
	stderrors "errors"
	"fmt"
	"os"

	"github.com/julianstephens/cadence/internal/logger"
)

// Error kinds surfaced by the engine. Match with errors.Is.
var (
	ErrNotFound      = stderrors.New("not found")
	ErrNoActiveTimer = stderrors.New("no active timer")
	ErrInvalidInput  = stderrors.New("invalid input")
)

// NotFound reports a missing record of the given kind.
func NotFound(kind, id string) error {
	return fmt.Errorf("%s %q: %w", kind, id, ErrNotFound)
}

// NoActiveTimer reports a stop request for a habit that is not being timed.
func NoActiveTimer(habitID string) error {
	return fmt.Errorf("habit %q: %w", habitID, ErrNoActiveTimer)
}

// InvalidInput reports a caller-side validation failure.
func InvalidInput(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// Format formats an error message with a consistent "Error: " prefix
func Format(err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Error: %v", err)
}

// Formatf formats an error message with a consistent "Error: " prefix using a format string
func Formatf(format string, args ...interface{}) string {
	return fmt.Sprintf("Error: "+format, args...)
}

// ExitCode maps an error to the process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case stderrors.Is(err, ErrInvalidInput):
		return 2
	case stderrors.Is(err, ErrNotFound), stderrors.Is(err, ErrNoActiveTimer):
		return 3
	default:
		return 1
	}
}

// Fatal logs an error and exits the program with a status derived from its kind
func Fatal(err error) {
	if err != nil {
		logger.Error("Command execution failed", "error", err)
		fmt.Fprintf(os.Stderr, "%s\n", Format(err))
		os.Exit(ExitCode(err))
	}
}
