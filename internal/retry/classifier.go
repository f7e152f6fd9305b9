package retry

import (
	"errors"
	"net"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vvka-141/pgrenew/pkg/pgrenew"
)

// PostgreSQL error codes.
// See: https://www.postgresql.org/docs/current/errcodes-appendix.html
const (
	// Class 34 - Invalid Cursor Name
	pgCodeInvalidCursorName = "34000"

	// Class 40 - Transaction Rollback
	pgCodeSerializationFailure = "40001"
	pgCodeDeadlockDetected     = "40P01"

	// Class 55 - Object Not In Prerequisite State
	pgCodeLockNotAvailable = "55P03"
)

// ClosedStateClassifier implements pgrenew.StateClassifier for PostgreSQL.
// It maps driver errors onto the two closed-handle conditions the renewal
// layer knows how to heal.
type ClosedStateClassifier struct{}

// NewClosedStateClassifier creates a new closed-state classifier.
func NewClosedStateClassifier() *ClosedStateClassifier {
	return &ClosedStateClassifier{}
}

// ClassifyClosed reports whether err signals a closed cursor, a closed
// connection, or neither. Unrecognized errors classify as StateOpen and are
// never retried.
func (c *ClosedStateClassifier) ClassifyClosed(err error) pgrenew.ClosedState {
	if err == nil {
		return pgrenew.StateOpen
	}

	// Sentinels raised by driver adapters.
	if errors.Is(err, pgrenew.ErrCursorClosed) {
		return pgrenew.StateCursorClosed
	}
	if errors.Is(err, pgrenew.ErrConnectionClosed) {
		return pgrenew.StateConnectionClosed
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// Class 08 - Connection Exception
		if strings.HasPrefix(pgErr.Code, "08") {
			return pgrenew.StateConnectionClosed
		}
		// Class 57 - Operator Intervention (admin shutdown, crash shutdown)
		// kills the connection underneath the call.
		if strings.HasPrefix(pgErr.Code, "57") {
			return pgrenew.StateConnectionClosed
		}
		if pgErr.Code == pgCodeInvalidCursorName {
			return pgrenew.StateCursorClosed
		}
		return pgrenew.StateOpen
	}

	msg := strings.ToLower(err.Error())

	switch {
	case strings.Contains(msg, "cursor already closed"),
		strings.Contains(msg, "cursor is closed"):
		return pgrenew.StateCursorClosed

	case strings.Contains(msg, "connection already closed"),
		strings.Contains(msg, "conn closed"),
		strings.Contains(msg, "connection is closed"),
		strings.Contains(msg, "server closed the connection"),
		strings.Contains(msg, "unexpected eof"),
		strings.Contains(msg, "broken pipe"),
		strings.Contains(msg, "connection reset by peer"),
		errors.Is(err, net.ErrClosed):
		return pgrenew.StateConnectionClosed
	}

	return pgrenew.StateOpen
}

// TransientClassifier implements pgrenew.ErrorClassifier for PostgreSQL dial
// failures. It is consulted while a renewal reconstructs a connection.
type TransientClassifier struct{}

// NewTransientClassifier creates a new transient-error classifier.
func NewTransientClassifier() *TransientClassifier {
	return &TransientClassifier{}
}

// IsTransient determines if an error is temporary and the dial should be
// retried.
func (c *TransientClassifier) IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return isTransientPgCode(pgErr.Code)
	}

	if isNetworkError(err) {
		return true
	}

	return hasTransientPattern(err.Error())
}

// isTransientPgCode checks PostgreSQL error codes for transient conditions.
func isTransientPgCode(code string) bool {
	// Class 08 - Connection Exception, Class 53 - Insufficient Resources,
	// Class 57 - Operator Intervention.
	if strings.HasPrefix(code, "08") ||
		strings.HasPrefix(code, "53") ||
		strings.HasPrefix(code, "57") {
		return true
	}

	switch code {
	case pgCodeSerializationFailure, pgCodeDeadlockDetected, pgCodeLockNotAvailable:
		return true
	}

	return false
}

// isNetworkError checks for network-level errors underneath the driver.
func isNetworkError(err error) bool {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return dnsErr.Temporary() || dnsErr.Timeout()
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		if opErr.Temporary() || opErr.Timeout() {
			return true
		}
		if opErr.Err != nil {
			return errors.Is(opErr.Err, syscall.ECONNREFUSED) ||
				errors.Is(opErr.Err, syscall.ECONNRESET) ||
				errors.Is(opErr.Err, syscall.ENETUNREACH) ||
				errors.Is(opErr.Err, syscall.EHOSTUNREACH)
		}
	}

	return false
}

// hasTransientPattern matches common connection error messages that reach us
// as plain strings.
func hasTransientPattern(errMsg string) bool {
	transientPatterns := []string{
		"connection refused",
		"connection reset",
		"connection timeout",
		"connection failure",
		"no such host",
		"network is unreachable",
		"i/o timeout",
		"broken pipe",
		"too many connections",
		"server closed the connection",
		"unexpected eof",
	}

	msg := strings.ToLower(errMsg)
	for _, pattern := range transientPatterns {
		if strings.Contains(msg, pattern) {
			return true
		}
	}

	return false
}
