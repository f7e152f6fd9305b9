package pgrenew

import (
	"errors"
	"strings"
)

// Sentinel errors for the failure scenarios the renewal layer distinguishes.
// These enable callers (and the closed-state classifier) to identify error
// types using errors.Is().
var (
	// ErrCursorClosed indicates an operation hit a cursor that was already
	// closed. The renewal layer heals this by rebuilding the cursor.
	ErrCursorClosed = errors.New("cursor already closed")

	// ErrConnectionClosed indicates an operation hit a connection that was
	// already closed. The renewal layer heals this by reconnecting and
	// rebuilding the cursor.
	ErrConnectionClosed = errors.New("connection already closed")

	// ErrInvalidSpec indicates a ConnSpec is missing required fields.
	ErrInvalidSpec = errors.New("invalid connection spec")

	// ErrConnectionFailed indicates dialing the database failed after all
	// reconnect attempts.
	ErrConnectionFailed = errors.New("connection failed")

	// ErrExecutionFailed indicates a SQL statement failed for a reason the
	// renewal layer does not heal, or failed again on the retry.
	ErrExecutionFailed = errors.New("sql execution failed")
)

// Exit codes for semantic error classification, following Unix/GNU
// conventions: 0 success, 1 general error, 2 CLI usage error, 3+ specific.
const (
	ExitSuccess         = 0  // Command completed successfully
	ExitGeneralError    = 1  // Unknown or unclassified error
	ExitUsageError      = 2  // CLI usage error (missing args, invalid flags)
	ExitPanic           = 3  // Internal panic (unexpected crash)
	ExitConfigError     = 10 // Invalid configuration or spec
	ExitConnectionError = 11 // Failed to connect to database
	ExitExecutionFailed = 13 // SQL execution failed
)

// ExitCodeForError returns the appropriate exit code for an error.
func ExitCodeForError(err error) int {
	if err == nil {
		return ExitSuccess
	}

	// Connection failures win over the execution wrapper: a statement that
	// failed because renewal could not re-dial is a connectivity problem.
	switch {
	case errors.Is(err, ErrInvalidSpec):
		return ExitConfigError
	case errors.Is(err, ErrConnectionFailed):
		return ExitConnectionError
	case errors.Is(err, ErrExecutionFailed):
		return ExitExecutionFailed
	}

	errStr := err.Error()
	if strings.Contains(errStr, "failed to connect") ||
		strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "no such host") {
		return ExitConnectionError
	}

	// Cobra reports flag and argument problems as plain errors.
	if strings.Contains(errStr, "unknown flag") ||
		strings.Contains(errStr, "unknown shorthand flag") ||
		strings.Contains(errStr, "unknown command") ||
		strings.Contains(errStr, "invalid argument") ||
		strings.Contains(errStr, "required flag") ||
		strings.Contains(errStr, "accepts ") ||
		strings.Contains(errStr, "requires at least") {
		return ExitUsageError
	}

	return ExitGeneralError
}
