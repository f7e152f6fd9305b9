// Package pgxdriver implements the pgrenew driver capability interfaces on
// top of pgx. Each DriverConn is a single *pgx.Conn; pooling is deliberately
// out of scope, the renewal layer manages one physical connection per
// logical handle.
package pgxdriver

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/vvka-141/pgrenew/internal/logging"
	"github.com/vvka-141/pgrenew/pkg/pgrenew"
)

// Driver implements pgrenew.Driver.
type Driver struct {
	log pgrenew.Logger
}

// New creates a pgx-backed driver. A nil logger disables logging.
func New(log pgrenew.Logger) *Driver {
	if log == nil {
		log = logging.NewNullLogger()
	}
	return &Driver{log: log}
}

// Connect dials a physical connection from the spec. When the spec carries a
// credential provider, the password is resolved through it first, so
// reconnects keep working after a short-lived token expired.
func (d *Driver) Connect(ctx context.Context, spec pgrenew.ConnSpec) (pgrenew.DriverConn, error) {
	if spec.Credentials != nil {
		password, expiresOn, err := spec.Credentials.Password(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to acquire credential from %s: %w", spec.Credentials, err)
		}
		if !expiresOn.IsZero() && time.Until(expiresOn) < pgrenew.CredentialExpiryWarning {
			d.log.Info("warning: credential from %s expires in %v",
				spec.Credentials, time.Until(expiresOn).Round(time.Second))
		}
		spec.Password = password
	}

	cfg, err := pgx.ParseConfig(spec.ConnString())
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection config: %w", err)
	}

	conn, err := pgx.ConnectConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", spec.Redacted(), err)
	}

	return &Conn{conn: conn}, nil
}

// Conn implements pgrenew.DriverConn over a single *pgx.Conn.
type Conn struct {
	conn *pgx.Conn
}

// Closed reports whether the underlying pgx connection is closed.
func (c *Conn) Closed() bool {
	return c.conn.IsClosed()
}

// Cursor creates a buffered cursor on this connection.
func (c *Conn) Cursor(ctx context.Context, spec pgrenew.CursorSpec) (pgrenew.DriverCursor, error) {
	if c.conn.IsClosed() {
		return nil, pgrenew.ErrConnectionClosed
	}
	return &Cursor{conn: c, name: spec.Name}, nil
}

// Close releases the connection. Closing an already-closed connection
// returns nil.
func (c *Conn) Close(ctx context.Context) error {
	if c.conn.IsClosed() {
		return nil
	}
	return c.conn.Close(ctx)
}

// Raw exposes the underlying pgx connection for operations outside the
// cursor model, such as server-side session inspection in tests.
func (c *Conn) Raw() *pgx.Conn {
	return c.conn
}

var _ pgrenew.Driver = (*Driver)(nil)
var _ pgrenew.DriverConn = (*Conn)(nil)
