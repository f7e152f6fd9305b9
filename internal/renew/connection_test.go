package renew

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vvka-141/pgrenew/internal/retry"
	"github.com/vvka-141/pgrenew/pkg/pgrenew"
)

func testSpec() pgrenew.ConnSpec {
	return pgrenew.ConnSpec{
		Host:     "db.internal",
		Port:     5432,
		Database: "app",
		Username: "svc",
	}
}

// fastExecutor keeps reconnect backoff out of test runtime.
func fastExecutor() *retry.Executor {
	return retry.NewExecutor(
		retry.NewTransientClassifier(),
		retry.NewExponentialBackoff(3,
			retry.WithInitialDelay(time.Millisecond),
			retry.WithJitter(0),
		),
	)
}

func newTestConnection(t *testing.T, driver *fakeDriver, opts ...Option) *Connection {
	t.Helper()
	opts = append([]Option{WithReconnect(fastExecutor())}, opts...)
	conn, err := Connect(context.Background(), driver, testSpec(), opts...)
	require.NoError(t, err)
	return conn
}

func TestConnect_DialsOnce(t *testing.T) {
	driver := &fakeDriver{}

	conn := newTestConnection(t, driver)

	assert.Equal(t, 1, driver.dials)
	assert.False(t, conn.Closed())
	assert.Same(t, driver.conns[0], conn.Active())
}

func TestConnect_InvalidSpec(t *testing.T) {
	driver := &fakeDriver{}

	_, err := Connect(context.Background(), driver, pgrenew.ConnSpec{}, WithReconnect(fastExecutor()))

	require.Error(t, err)
	assert.ErrorIs(t, err, pgrenew.ErrInvalidSpec)
	assert.Zero(t, driver.dials, "invalid spec must not dial")
}

func TestConnect_RetriesTransientDialFailures(t *testing.T) {
	driver := &fakeDriver{failDials: 2}

	conn := newTestConnection(t, driver)

	assert.Equal(t, 3, driver.dials)
	assert.False(t, conn.Closed())
}

func TestConnect_FatalDialFailure(t *testing.T) {
	driver := &fakeDriver{failDials: 99, dialErr: errors.New("password authentication failed")}

	_, err := Connect(context.Background(), driver, testSpec(), WithReconnect(fastExecutor()))

	require.Error(t, err)
	assert.ErrorIs(t, err, pgrenew.ErrConnectionFailed)
	assert.Equal(t, 1, driver.dials, "fatal dial errors are not retried")
}

func TestConnection_CursorStoresConstructionSpec(t *testing.T) {
	driver := &fakeDriver{}
	conn := newTestConnection(t, driver)

	spec := pgrenew.CursorSpec{Name: "events"}
	cur, err := conn.Cursor(context.Background(), spec)
	require.NoError(t, err)

	assert.Equal(t, spec, cur.Spec())
	require.Len(t, driver.conns[0].specs, 1)
	assert.Equal(t, spec, driver.conns[0].specs[0])
}

func TestConnection_CursorRenewsClosedConnection(t *testing.T) {
	driver := &fakeDriver{}
	conn := newTestConnection(t, driver)

	driver.conns[0].closed = true

	cur, err := conn.Cursor(context.Background(), pgrenew.CursorSpec{})
	require.NoError(t, err)

	assert.Equal(t, 2, driver.dials, "closed connection is renewed before creating the cursor")
	assert.Same(t, driver.conns[1], conn.Active())
	assert.Same(t, driver.conns[1], cur.Connection())
}

func TestConnection_CursorFactoryPrecedence(t *testing.T) {
	driver := &fakeDriver{}

	var defaultCalls, perCallCalls int
	defaultFactory := func(owner *Connection, cur pgrenew.DriverCursor) *Cursor {
		defaultCalls++
		return NewCursor(owner, cur)
	}
	perCallFactory := func(owner *Connection, cur pgrenew.DriverCursor) *Cursor {
		perCallCalls++
		return NewCursor(owner, cur)
	}

	conn := newTestConnection(t, driver, WithDefaultCursorFactory(defaultFactory))

	_, err := conn.Cursor(context.Background(), pgrenew.CursorSpec{})
	require.NoError(t, err)
	assert.Equal(t, 1, defaultCalls)

	_, err = conn.Cursor(context.Background(), pgrenew.CursorSpec{}, WithFactory(perCallFactory))
	require.NoError(t, err)
	assert.Equal(t, 1, perCallCalls)
	assert.Equal(t, 1, defaultCalls, "per-call factory overrides the connection default")
}

// P6: Close releases the physical handle first; a second Close is a no-op.
func TestConnection_CloseIsIdempotent(t *testing.T) {
	driver := &fakeDriver{}
	conn := newTestConnection(t, driver)

	require.NoError(t, conn.Close(context.Background()))
	assert.Equal(t, 1, driver.conns[0].closeCalls)
	assert.True(t, conn.Closed())

	require.NoError(t, conn.Close(context.Background()))
	assert.Equal(t, 1, driver.conns[0].closeCalls, "second close must not touch the driver")
}

func TestConnection_RenewClosesDisplacedHandle(t *testing.T) {
	driver := &fakeDriver{}
	conn := newTestConnection(t, driver)

	// Physical connection still open when renewal is forced.
	require.NoError(t, Renew(context.Background(), nil, conn))

	assert.Equal(t, 2, driver.dials)
	assert.Equal(t, 1, driver.conns[0].closeCalls, "displaced handle is closed before replacement")
	assert.Same(t, driver.conns[1], conn.Active())
}

func TestConnection_RenewReusesStoredSpec(t *testing.T) {
	driver := &fakeDriver{}
	conn := newTestConnection(t, driver)

	driver.conns[0].closed = true
	require.NoError(t, Renew(context.Background(), nil, conn))

	require.Len(t, driver.specs, 2)
	assert.Equal(t, driver.specs[0], driver.specs[1], "renewal dials with the original construction spec")
	assert.Equal(t, testSpec().Host, driver.specs[1].Host)
}
