package pgxdriver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/vvka-141/pgrenew/pkg/pgrenew"
)

// Cursor implements pgrenew.DriverCursor. Execute runs the statement and
// buffers the full result set; FetchOne and FetchAll read from the buffer.
// This mirrors a client-side database cursor: results survive until the next
// Execute, and fetching never touches the wire.
type Cursor struct {
	conn   *Conn
	name   string
	closed bool

	fields []string
	rows   [][]any
	pos    int
}

// Execute runs a statement and buffers its result set, replacing any
// previous buffer. Errors caused by the cursor or connection being closed
// underneath the call carry the matching sentinel so the renewal layer can
// classify them.
func (cu *Cursor) Execute(ctx context.Context, sql string, args ...any) error {
	if cu.closed {
		return fmt.Errorf("execute: %w", pgrenew.ErrCursorClosed)
	}
	if cu.conn.Closed() {
		return fmt.Errorf("execute: %w", pgrenew.ErrConnectionClosed)
	}

	rows, err := cu.conn.conn.Query(ctx, sql, args...)
	if err != nil {
		return normalizeErr(err)
	}
	defer rows.Close()

	cu.fields = nil
	for _, fd := range rows.FieldDescriptions() {
		cu.fields = append(cu.fields, fd.Name)
	}

	cu.rows = nil
	cu.pos = 0
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return normalizeErr(err)
		}
		cu.rows = append(cu.rows, values)
	}

	if err := rows.Err(); err != nil {
		return normalizeErr(err)
	}
	return nil
}

// FetchOne returns the next buffered row, or nil when the buffer is
// exhausted.
func (cu *Cursor) FetchOne() ([]any, error) {
	if cu.closed {
		return nil, fmt.Errorf("fetchone: %w", pgrenew.ErrCursorClosed)
	}
	if cu.pos >= len(cu.rows) {
		return nil, nil
	}
	row := cu.rows[cu.pos]
	cu.pos++
	return row, nil
}

// FetchAll returns all remaining buffered rows.
func (cu *Cursor) FetchAll() ([][]any, error) {
	if cu.closed {
		return nil, fmt.Errorf("fetchall: %w", pgrenew.ErrCursorClosed)
	}
	remaining := cu.rows[cu.pos:]
	cu.pos = len(cu.rows)
	return remaining, nil
}

// Fields returns the column names of the buffered result set.
func (cu *Cursor) Fields() []string {
	return cu.fields
}

// Connection returns the physical connection that owns this cursor.
func (cu *Cursor) Connection() pgrenew.DriverConn {
	return cu.conn
}

// Closed reports whether the cursor was closed.
func (cu *Cursor) Closed() bool {
	return cu.closed
}

// Close releases the cursor and drops its buffer. Closing twice returns nil.
func (cu *Cursor) Close() error {
	cu.closed = true
	cu.rows = nil
	cu.pos = 0
	return nil
}

var _ pgrenew.DriverCursor = (*Cursor)(nil)

// normalizeErr tags errors that mean the connection died underneath an
// in-flight call with the closed-connection sentinel. Anything else is
// returned verbatim so the caller sees the original error identity.
func normalizeErr(err error) error {
	if err == nil {
		return nil
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "conn closed") ||
		strings.Contains(msg, "server closed the connection") ||
		errors.Is(err, net.ErrClosed) {
		return fmt.Errorf("%w: %w", pgrenew.ErrConnectionClosed, err)
	}
	return err
}
