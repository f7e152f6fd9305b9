package renew

import (
	"context"
	"fmt"
	"sync"

	"github.com/vvka-141/pgrenew/pkg/pgrenew"
)

// fakeDriver records every dial and hands out fakeConns. failDials makes the
// next N Connect calls fail with dialErr.
type fakeDriver struct {
	dials     int
	specs     []pgrenew.ConnSpec
	conns     []*fakeConn
	failDials int
	dialErr   error
}

func (d *fakeDriver) Connect(_ context.Context, spec pgrenew.ConnSpec) (pgrenew.DriverConn, error) {
	d.dials++
	d.specs = append(d.specs, spec)

	if d.failDials > 0 {
		d.failDials--
		if d.dialErr != nil {
			return nil, d.dialErr
		}
		return nil, fmt.Errorf("dial tcp: connection refused")
	}

	conn := &fakeConn{}
	d.conns = append(d.conns, conn)
	return conn, nil
}

// fakeConn is a scriptable physical connection.
type fakeConn struct {
	closed     bool
	closeCalls int
	cursorErr  error
	cursors    []*fakeCursor
	specs      []pgrenew.CursorSpec

	// nextExecErrs seeds the failure script of the next cursor this
	// connection creates, then resets.
	nextExecErrs []error
}

func (c *fakeConn) Closed() bool {
	return c.closed
}

func (c *fakeConn) Cursor(_ context.Context, spec pgrenew.CursorSpec) (pgrenew.DriverCursor, error) {
	if c.cursorErr != nil {
		return nil, c.cursorErr
	}
	cur := &fakeCursor{conn: c, execErrs: c.nextExecErrs}
	c.nextExecErrs = nil
	c.cursors = append(c.cursors, cur)
	c.specs = append(c.specs, spec)
	return cur, nil
}

func (c *fakeConn) Close(_ context.Context) error {
	c.closeCalls++
	c.closed = true
	return nil
}

// execCall records one Execute invocation.
type execCall struct {
	sql  string
	args []any
}

// fakeCursor is a scriptable physical cursor. execErrs are consumed one per
// Execute call; a nil entry (or an exhausted script) means success.
type fakeCursor struct {
	conn       *fakeConn
	closed     bool
	closeCalls int
	execErrs   []error
	execCalls  []execCall
	rows       [][]any
	pos        int
}

func (cu *fakeCursor) Execute(_ context.Context, sql string, args ...any) error {
	cu.execCalls = append(cu.execCalls, execCall{sql: sql, args: args})

	if cu.closed {
		return pgrenew.ErrCursorClosed
	}
	if cu.conn.closed {
		return pgrenew.ErrConnectionClosed
	}

	if len(cu.execErrs) > 0 {
		err := cu.execErrs[0]
		cu.execErrs = cu.execErrs[1:]
		if err != nil {
			return err
		}
	}
	return nil
}

func (cu *fakeCursor) FetchOne() ([]any, error) {
	if cu.pos >= len(cu.rows) {
		return nil, nil
	}
	row := cu.rows[cu.pos]
	cu.pos++
	return row, nil
}

func (cu *fakeCursor) FetchAll() ([][]any, error) {
	remaining := cu.rows[cu.pos:]
	cu.pos = len(cu.rows)
	return remaining, nil
}

func (cu *fakeCursor) Connection() pgrenew.DriverConn {
	return cu.conn
}

func (cu *fakeCursor) Closed() bool {
	return cu.closed
}

func (cu *fakeCursor) Close() error {
	cu.closeCalls++
	cu.closed = true
	return nil
}

func testCursorSpec() pgrenew.CursorSpec {
	return pgrenew.CursorSpec{Name: "main"}
}

// recordingLogger captures formatted log lines per level.
type recordingLogger struct {
	mu      sync.Mutex
	verbose []string
	info    []string
	errors  []string
}

func (l *recordingLogger) Verbose(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.verbose = append(l.verbose, fmt.Sprintf(format, args...))
}

func (l *recordingLogger) Info(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.info = append(l.info, fmt.Sprintf(format, args...))
}

func (l *recordingLogger) Error(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errors = append(l.errors, fmt.Sprintf(format, args...))
}
