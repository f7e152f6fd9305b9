package renew

import (
	"context"

	"github.com/google/uuid"

	"github.com/vvka-141/pgrenew/pkg/pgrenew"
)

// Cursor is a logical cursor handle. Execute detects closed-handle failures
// on itself or its owning connection, rebuilds the affected handles, and
// retries the statement exactly once.
type Cursor struct {
	id    uuid.UUID
	owner *Connection
	log   pgrenew.Logger
	state pgrenew.StateClassifier

	// spec holds the construction arguments; assigned exactly once,
	// immediately after the cursor factory returns.
	spec pgrenew.CursorSpec

	// cur is the current physical cursor. Renewal replaces it in place.
	cur pgrenew.DriverCursor
}

// NewCursor is the default cursor factory.
func NewCursor(owner *Connection, cur pgrenew.DriverCursor) *Cursor {
	return &Cursor{
		id:    uuid.New(),
		owner: owner,
		log:   owner.log,
		state: owner.state,
		cur:   cur,
	}
}

// Execute runs a statement, healing across a closed cursor or closed
// connection.
//
// The flow is: renew up front if a handle already reports closed, attempt
// the statement, and on a closed-handle error close the stale handle, renew,
// and retry once. A failure on the retry, or any error that is not a
// closed-handle condition, propagates to the caller unchanged.
func (cu *Cursor) Execute(ctx context.Context, sql string, args ...any) error {
	renewed := false
	if cu.owner.Closed() {
		cu.log.Verbose("cursor %s: owning connection closed, renewing", cu.id)
		if err := Renew(ctx, cu.log, cu); err != nil {
			return err
		}
		renewed = true
	}
	// The renewal above already replaced this cursor; don't rebuild it a
	// second time for one pre-check.
	if !renewed && cu.Closed() {
		cu.log.Verbose("cursor %s: already closed, renewing", cu.id)
		if err := Renew(ctx, cu.log, cu); err != nil {
			return err
		}
	}

	err := cu.cur.Execute(ctx, sql, args...)
	if err == nil {
		return nil
	}

	switch cu.state.ClassifyClosed(err) {
	case pgrenew.StateCursorClosed:
		// Close only the stale physical cursor; the connection stays up.
		if cerr := cu.cur.Close(); cerr != nil {
			cu.log.Verbose("cursor %s: closing stale cursor: %v", cu.id, cerr)
		}
		cu.log.Verbose("cursor %s: closed underneath execute, renewing", cu.id)
		if rerr := Renew(ctx, cu.log, cu); rerr != nil {
			return rerr
		}

	case pgrenew.StateConnectionClosed:
		if cerr := cu.owner.Close(ctx); cerr != nil {
			cu.log.Verbose("cursor %s: closing dead connection: %v", cu.id, cerr)
		}
		cu.log.Verbose("cursor %s: connection closed underneath execute, renewing", cu.id)
		if rerr := Renew(ctx, cu.log, cu); rerr != nil {
			return rerr
		}

	default:
		return err
	}

	// Exactly one retry; a second failure of any kind propagates.
	return cu.cur.Execute(ctx, sql, args...)
}

// FetchOne returns the next row from the current physical cursor.
func (cu *Cursor) FetchOne() ([]any, error) {
	return cu.cur.FetchOne()
}

// FetchAll returns all remaining rows from the current physical cursor.
func (cu *Cursor) FetchAll() ([][]any, error) {
	return cu.cur.FetchAll()
}

// Connection returns the physical connection backing the current cursor.
// After a renewal this is the replacement connection, not the original.
func (cu *Cursor) Connection() pgrenew.DriverConn {
	return cu.cur.Connection()
}

// Closed reports whether the current physical cursor is unusable.
func (cu *Cursor) Closed() bool {
	return cu.cur == nil || cu.cur.Closed()
}

// Close releases the current physical cursor. Calling Close more than once
// is a no-op.
func (cu *Cursor) Close() error {
	if cu.cur == nil || cu.cur.Closed() {
		return nil
	}
	return cu.cur.Close()
}

// Active returns the current physical cursor.
func (cu *Cursor) Active() pgrenew.DriverCursor {
	return cu.cur
}

// Owner returns the logical connection this cursor was created from.
func (cu *Cursor) Owner() *Connection {
	return cu.owner
}

// Spec returns the stored construction spec.
func (cu *Cursor) Spec() pgrenew.CursorSpec {
	return cu.spec
}

// ID identifies this logical handle in log output.
func (cu *Cursor) ID() uuid.UUID {
	return cu.id
}

// setSpec stores the construction arguments. Called exactly once per
// construction event, right after the factory returns.
func (cu *Cursor) setSpec(spec pgrenew.CursorSpec) {
	cu.spec = spec
}

// renewCursor rebuilds the physical cursor from the stored spec, renewing
// the owning connection first when it reports closed. The displaced cursor
// is closed, if still open, before the replacement is attached.
func (cu *Cursor) renewCursor(ctx context.Context) error {
	if cu.owner.Closed() {
		if err := cu.owner.renewConnection(ctx); err != nil {
			return err
		}
	}

	next, err := cu.owner.Active().Cursor(ctx, cu.spec)
	if err != nil {
		return err
	}

	if cu.cur != nil && !cu.cur.Closed() {
		if cerr := cu.cur.Close(); cerr != nil {
			cu.log.Verbose("cursor %s: closing displaced cursor: %v", cu.id, cerr)
		}
	}

	cu.cur = next
	cu.log.Verbose("cursor %s renewed", cu.id)
	return nil
}
