package pgrenew

import "time"

const (
	// DefaultPort is used when a ConnSpec does not name one.
	DefaultPort = 5432

	// DefaultReconnectInitialDelay is the default initial delay before the
	// first reconnect retry while renewing a connection.
	DefaultReconnectInitialDelay = 100 * time.Millisecond

	// DefaultReconnectMaxDelay is the default maximum delay between
	// reconnect attempts.
	DefaultReconnectMaxDelay = 30 * time.Second

	// DefaultReconnectMaxAttempts is the default maximum number of
	// reconnect retry attempts during a renewal.
	DefaultReconnectMaxAttempts = 3

	// CredentialExpiryWarning is how close to expiry a credential may be
	// before a warning is logged at connect time.
	CredentialExpiryWarning = 5 * time.Minute
)
