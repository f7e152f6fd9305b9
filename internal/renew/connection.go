package renew

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/vvka-141/pgrenew/internal/logging"
	"github.com/vvka-141/pgrenew/internal/retry"
	"github.com/vvka-141/pgrenew/pkg/pgrenew"
)

// Connection is a logical connection handle. It owns the current physical
// connection and rebuilds it from the stored ConnSpec when it is found
// closed, so callers keep using one handle across disconnects.
type Connection struct {
	id        uuid.UUID
	driver    pgrenew.Driver
	spec      pgrenew.ConnSpec
	factory   CursorFactory
	state     pgrenew.StateClassifier
	log       pgrenew.Logger
	reconnect *retry.Executor

	// conn is the current physical connection. Renewal replaces it in
	// place; the displaced handle is closed first.
	conn pgrenew.DriverConn
}

// Connect dials the initial physical connection and wraps it in a logical
// handle. The spec is captured as-is and reused verbatim by every renewal.
func Connect(ctx context.Context, driver pgrenew.Driver, spec pgrenew.ConnSpec, opts ...Option) (*Connection, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	c := &Connection{
		id:        uuid.New(),
		driver:    driver,
		spec:      spec,
		state:     retry.NewClosedStateClassifier(),
		log:       logging.NewNullLogger(),
		reconnect: retry.NewDefaultExecutor(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.factory == nil {
		c.factory = NewCursor
	}

	conn, err := c.dial(ctx)
	if err != nil {
		return nil, err
	}
	c.conn = conn

	c.log.Verbose("connection %s established (%s)", c.id, c.spec.Redacted())
	return c, nil
}

// Cursor creates a logical cursor on this connection.
//
// The effective cursor factory is the per-call option if given, else the
// connection's default, else NewCursor. If the connection reports closed it
// is renewed first, so Cursor itself never surfaces a closed-handle error.
func (c *Connection) Cursor(ctx context.Context, spec pgrenew.CursorSpec, opts ...CursorOption) (*Cursor, error) {
	var settings cursorSettings
	for _, opt := range opts {
		opt(&settings)
	}
	factory := settings.factory
	if factory == nil {
		factory = c.factory
	}

	if c.Closed() {
		c.log.Verbose("connection %s: closed while creating cursor, renewing", c.id)
		if err := Renew(ctx, c.log, c); err != nil {
			return nil, err
		}
	}

	driverCur, err := c.conn.Cursor(ctx, spec)
	if err != nil {
		return nil, err
	}

	cur := factory(c, driverCur)
	// The factory does not receive the construction arguments; store them on
	// the returned cursor now or future renewals rebuild it incorrectly.
	cur.setSpec(spec)
	return cur, nil
}

// Close releases the current physical connection. The physical handle is
// closed first, then the logical handle simply reports closed through it.
// Calling Close more than once is a no-op.
func (c *Connection) Close(ctx context.Context) error {
	if c.conn == nil || c.conn.Closed() {
		return nil
	}
	return c.conn.Close(ctx)
}

// Closed reports whether the current physical connection is unusable.
func (c *Connection) Closed() bool {
	return c.conn == nil || c.conn.Closed()
}

// Active returns the current physical connection.
func (c *Connection) Active() pgrenew.DriverConn {
	return c.conn
}

// Spec returns the stored construction spec.
func (c *Connection) Spec() pgrenew.ConnSpec {
	return c.spec
}

// ID identifies this logical handle in log output.
func (c *Connection) ID() uuid.UUID {
	return c.id
}

// renewConnection closes the displaced physical connection and dials a
// replacement from the stored spec.
func (c *Connection) renewConnection(ctx context.Context) error {
	if c.conn != nil && !c.conn.Closed() {
		if err := c.conn.Close(ctx); err != nil {
			c.log.Verbose("connection %s: closing displaced handle: %v", c.id, err)
		}
	}

	next, err := c.dial(ctx)
	if err != nil {
		return err
	}

	c.conn = next
	c.log.Verbose("connection %s renewed (%s)", c.id, c.spec.Redacted())
	return nil
}

// dial constructs a physical connection, retrying transient failures per the
// reconnect policy.
func (c *Connection) dial(ctx context.Context) (pgrenew.DriverConn, error) {
	var next pgrenew.DriverConn

	err := c.reconnect.Execute(ctx, func(ctx context.Context) error {
		conn, err := c.driver.Connect(ctx, c.spec)
		if err != nil {
			return err
		}
		next = conn
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", pgrenew.ErrConnectionFailed, err)
	}

	return next, nil
}
