package pgrenew

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"
)

// ConnSpec holds everything needed to construct a physical connection, so a
// logical connection can be rebuilt identically after a disconnect. It is
// captured once at creation time and never mutated by the renewal layer.
type ConnSpec struct {
	Host     string
	Port     int
	Database string
	Username string
	Password string
	SSLMode  string

	// AppName is reported to the server as application_name.
	AppName string

	// ConnectTimeout bounds each dial attempt. Zero means driver default.
	ConnectTimeout time.Duration

	// Params are additional connection string parameters.
	Params map[string]string

	// Credentials, when set, supplies the password for every (re)connect
	// instead of the static Password field. This keeps renewal working with
	// short-lived tokens (AWS IAM, Azure Entra ID) that expire between the
	// original dial and the reconnect.
	Credentials CredentialProvider
}

// CredentialProvider supplies a password (or short-lived token used as one)
// at connect time.
type CredentialProvider interface {
	// Password returns the credential and its expiry time. A zero expiry
	// means the credential does not expire.
	Password(ctx context.Context) (password string, expiresOn time.Time, err error)

	// String returns a description for logging. Must not include secrets.
	String() string
}

// Validate checks the spec for the fields every dial needs.
func (s *ConnSpec) Validate() error {
	var errs []error

	if s.Host == "" {
		errs = append(errs, fmt.Errorf("host is required: %w", ErrInvalidSpec))
	}
	if s.Port < 0 || s.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range: %w", s.Port, ErrInvalidSpec))
	}
	if s.Database == "" {
		errs = append(errs, fmt.Errorf("database is required: %w", ErrInvalidSpec))
	}

	return errors.Join(errs...)
}

// ConnString renders the spec as a PostgreSQL URI.
// The Credentials provider is intentionally not consulted here; callers that
// support token authentication resolve the password first and set it on a
// copy of the spec.
func (s *ConnSpec) ConnString() string {
	port := s.Port
	if port == 0 {
		port = DefaultPort
	}

	u := &url.URL{
		Scheme: "postgresql",
		Host:   fmt.Sprintf("%s:%d", s.Host, port),
		Path:   "/" + s.Database,
	}

	if s.Username != "" {
		if s.Password != "" {
			u.User = url.UserPassword(s.Username, s.Password)
		} else {
			u.User = url.User(s.Username)
		}
	}

	query := url.Values{}
	if s.SSLMode != "" {
		query.Set("sslmode", s.SSLMode)
	}
	if s.AppName != "" {
		query.Set("application_name", s.AppName)
	}
	if s.ConnectTimeout > 0 {
		query.Set("connect_timeout", strconv.Itoa(int(s.ConnectTimeout.Seconds())))
	}
	for key, value := range s.Params {
		query.Set(key, value)
	}

	u.RawQuery = query.Encode()
	return u.String()
}

// Redacted returns a copy of the connection string safe for logging.
func (s *ConnSpec) Redacted() string {
	copy := *s
	if copy.Password != "" {
		copy.Password = "xxxxx"
	}
	return copy.ConnString()
}

// CursorSpec holds the construction arguments for a cursor, so the cursor can
// be rebuilt from its owning connection after a renewal.
type CursorSpec struct {
	// Name is the cursor name, for drivers that support named (server-side)
	// cursors. Empty means a plain client-side cursor.
	Name string

	// Params are driver-specific cursor options.
	Params map[string]string
}
