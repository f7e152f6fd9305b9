package renew

import (
	"context"

	"github.com/vvka-141/pgrenew/internal/logging"
	"github.com/vvka-141/pgrenew/internal/retry"
	"github.com/vvka-141/pgrenew/pkg/pgrenew"
)

// CursorFactory builds a logical cursor around a freshly constructed physical
// cursor. The construction spec is stored on the returned cursor by the
// caller, immediately after the factory returns.
type CursorFactory func(owner *Connection, cur pgrenew.DriverCursor) *Cursor

// Option configures a logical Connection.
type Option func(*Connection)

// WithLogger sets the logger used for renewal events and misuse warnings.
func WithLogger(log pgrenew.Logger) Option {
	return func(c *Connection) {
		c.log = log
	}
}

// WithStateClassifier overrides how driver errors are mapped onto
// closed-handle states.
func WithStateClassifier(state pgrenew.StateClassifier) Option {
	return func(c *Connection) {
		c.state = state
	}
}

// WithReconnect overrides the retry policy applied while a renewal
// reconstructs the physical connection.
func WithReconnect(executor *retry.Executor) Option {
	return func(c *Connection) {
		c.reconnect = executor
	}
}

// WithDefaultCursorFactory sets the cursor factory used when Cursor() is
// called without a per-call factory.
func WithDefaultCursorFactory(factory CursorFactory) Option {
	return func(c *Connection) {
		c.factory = factory
	}
}

// CursorOption configures a single Cursor() call.
type CursorOption func(*cursorSettings)

type cursorSettings struct {
	factory CursorFactory
}

// WithFactory sets the cursor factory for this call only. It takes precedence
// over the connection's default factory.
func WithFactory(factory CursorFactory) CursorOption {
	return func(s *cursorSettings) {
		s.factory = factory
	}
}

// Renew replaces the handle's physical object with a freshly constructed one.
//
// For a *Cursor, the owning connection is reconnected first when it reports
// closed, then a new physical cursor is built from the cursor's stored spec.
// For a *Connection, a new physical connection is dialed from its stored
// spec. Either way the displaced physical handle is closed before the
// replacement is attached, so the chain never grows beyond the single slot.
//
// Requesting renewal on anything else is a usage error: it is logged and no
// action is taken, so the caller's next use of the handle fails with
// whatever the driver raises.
func Renew(ctx context.Context, log pgrenew.Logger, handle any) error {
	if log == nil {
		log = logging.NewNullLogger()
	}

	switch h := handle.(type) {
	case *Cursor:
		return h.renewCursor(ctx)
	case *Connection:
		return h.renewConnection(ctx)
	default:
		log.Error("cannot renew handle of type %T: not a connection or cursor", handle)
		return nil
	}
}
