package pgrenew

import "time"

// ClosedState is the classification of an error raised from an in-flight
// driver call, limited to the two closed-handle conditions the renewal layer
// knows how to heal.
type ClosedState int

const (
	// StateOpen means the error is not a closed-handle condition. It is
	// propagated to the caller verbatim and never retried.
	StateOpen ClosedState = iota

	// StateCursorClosed means the cursor was closed while its connection
	// remains usable.
	StateCursorClosed

	// StateConnectionClosed means the underlying connection was closed,
	// for example by an idle timeout or a server-side kill.
	StateConnectionClosed
)

// String returns the classification name for log messages.
func (s ClosedState) String() string {
	switch s {
	case StateCursorClosed:
		return "cursor closed"
	case StateConnectionClosed:
		return "connection closed"
	default:
		return "open"
	}
}

// StateClassifier maps driver errors onto the closed-handle states the
// renewal layer heals. Anything it reports as StateOpen surfaces unchanged.
type StateClassifier interface {
	ClassifyClosed(err error) ClosedState
}

// ErrorClassifier determines whether an error is transient (retryable) or
// fatal. Used while reconstructing a connection during renewal.
type ErrorClassifier interface {
	// IsTransient returns true if the error is temporary and the operation
	// should be retried.
	IsTransient(err error) bool
}

// BackoffStrategy calculates the delay before the next retry attempt.
type BackoffStrategy interface {
	// NextDelay returns the duration to wait before the next attempt.
	// attempt is zero-indexed (0 = first retry, 1 = second retry, etc.)
	NextDelay(attempt int) time.Duration

	// MaxAttempts returns the maximum number of retry attempts
	// (0 = no retries, -1 = unlimited).
	MaxAttempts() int
}
