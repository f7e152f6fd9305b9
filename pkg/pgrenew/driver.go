package pgrenew

import "context"

// Driver constructs physical database connections from a stored ConnSpec.
// The renewal layer calls Connect both for the initial dial and every time a
// logical connection has to be rebuilt after its physical connection closed.
type Driver interface {
	// Connect dials a new physical connection described by spec.
	Connect(ctx context.Context, spec ConnSpec) (DriverConn, error)
}

// DriverConn is the connection capability consumed from the underlying driver.
//
// Thread-Safety: implementations follow their underlying connection's
// guarantees. The renewal layer itself assumes a single goroutine drives a
// given connection/cursor chain at a time.
type DriverConn interface {
	// Closed reports whether the physical connection is no longer usable.
	Closed() bool

	// Cursor creates a new physical cursor on this connection.
	Cursor(ctx context.Context, spec CursorSpec) (DriverCursor, error)

	// Close releases the physical connection. Closing an already-closed
	// connection must not return an error.
	Close(ctx context.Context) error
}

// DriverCursor is the cursor capability consumed from the underlying driver.
// Execute runs a statement and buffers its result set; FetchOne and FetchAll
// read from that buffer.
type DriverCursor interface {
	// Closed reports whether the physical cursor is no longer usable.
	Closed() bool

	// Connection returns the physical connection that owns this cursor.
	Connection() DriverConn

	// Execute runs a statement. When the cursor or its connection was closed
	// underneath the call, the returned error must classify as
	// StateCursorClosed or StateConnectionClosed (see StateClassifier).
	Execute(ctx context.Context, sql string, args ...any) error

	// FetchOne returns the next buffered row, or nil when exhausted.
	FetchOne() ([]any, error)

	// FetchAll returns all remaining buffered rows.
	FetchAll() ([][]any, error)

	// Close releases the physical cursor. Closing twice must not error.
	Close() error
}
