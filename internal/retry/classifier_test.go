package retry

import (
	"errors"
	"fmt"
	"net"
	"syscall"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vvka-141/pgrenew/pkg/pgrenew"
)

func TestClosedStateClassifier_Sentinels(t *testing.T) {
	c := NewClosedStateClassifier()

	tests := []struct {
		name string
		err  error
		want pgrenew.ClosedState
	}{
		{"nil", nil, pgrenew.StateOpen},
		{"cursor sentinel", pgrenew.ErrCursorClosed, pgrenew.StateCursorClosed},
		{"wrapped cursor sentinel", fmt.Errorf("execute: %w", pgrenew.ErrCursorClosed), pgrenew.StateCursorClosed},
		{"connection sentinel", pgrenew.ErrConnectionClosed, pgrenew.StateConnectionClosed},
		{"wrapped connection sentinel", fmt.Errorf("execute: %w", pgrenew.ErrConnectionClosed), pgrenew.StateConnectionClosed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.ClassifyClosed(tt.err); got != tt.want {
				t.Errorf("ClassifyClosed(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestClosedStateClassifier_PgErrorCodes(t *testing.T) {
	c := NewClosedStateClassifier()

	tests := []struct {
		code string
		want pgrenew.ClosedState
	}{
		{"08000", pgrenew.StateConnectionClosed}, // connection_exception
		{"08003", pgrenew.StateConnectionClosed}, // connection_does_not_exist
		{"08006", pgrenew.StateConnectionClosed}, // connection_failure
		{"57P01", pgrenew.StateConnectionClosed}, // admin_shutdown
		{"34000", pgrenew.StateCursorClosed},     // invalid_cursor_name
		{"42601", pgrenew.StateOpen},             // syntax_error
		{"23505", pgrenew.StateOpen},             // unique_violation
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			err := &pgconn.PgError{Code: tt.code, Message: "test"}
			if got := c.ClassifyClosed(err); got != tt.want {
				t.Errorf("ClassifyClosed(code %s) = %v, want %v", tt.code, got, tt.want)
			}
		})
	}
}

func TestClosedStateClassifier_Messages(t *testing.T) {
	c := NewClosedStateClassifier()

	tests := []struct {
		msg  string
		want pgrenew.ClosedState
	}{
		{"cursor already closed", pgrenew.StateCursorClosed},
		{"conn closed", pgrenew.StateConnectionClosed},
		{"connection already closed", pgrenew.StateConnectionClosed},
		{"server closed the connection unexpectedly", pgrenew.StateConnectionClosed},
		{"write tcp 1.2.3.4:5432: broken pipe", pgrenew.StateConnectionClosed},
		{"unexpected EOF", pgrenew.StateConnectionClosed},
		{"division by zero", pgrenew.StateOpen},
	}

	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			if got := c.ClassifyClosed(errors.New(tt.msg)); got != tt.want {
				t.Errorf("ClassifyClosed(%q) = %v, want %v", tt.msg, got, tt.want)
			}
		})
	}
}

func TestClosedStateClassifier_NetErrClosed(t *testing.T) {
	c := NewClosedStateClassifier()

	err := fmt.Errorf("read: %w", net.ErrClosed)
	if got := c.ClassifyClosed(err); got != pgrenew.StateConnectionClosed {
		t.Errorf("ClassifyClosed(net.ErrClosed) = %v, want StateConnectionClosed", got)
	}
}

func TestTransientClassifier_PgErrors(t *testing.T) {
	c := NewTransientClassifier()

	tests := []struct {
		code string
		want bool
	}{
		{"08006", true}, // connection_failure
		{"53300", true}, // too_many_connections
		{"57P03", true}, // cannot_connect_now
		{"40001", true}, // serialization_failure
		{"40P01", true}, // deadlock_detected
		{"55P03", true}, // lock_not_available
		{"42601", false},
		{"23505", false},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			err := &pgconn.PgError{Code: tt.code, Message: "test"}
			if got := c.IsTransient(err); got != tt.want {
				t.Errorf("IsTransient(code %s) = %v, want %v", tt.code, got, tt.want)
			}
		})
	}
}

func TestTransientClassifier_NetworkErrors(t *testing.T) {
	c := NewTransientClassifier()

	refused := &net.OpError{Op: "dial", Err: syscall.ECONNREFUSED}
	if !c.IsTransient(refused) {
		t.Error("connection refused should be transient")
	}

	if !c.IsTransient(errors.New("dial tcp: connection refused")) {
		t.Error("connection refused message should be transient")
	}

	if c.IsTransient(errors.New("password authentication failed")) {
		t.Error("auth failure must not be transient")
	}

	if c.IsTransient(nil) {
		t.Error("nil error must not be transient")
	}
}
