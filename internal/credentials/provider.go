// Package credentials provides pgrenew.CredentialProvider implementations.
//
// Connection renewal re-dials with the stored construction spec, which makes
// credential freshness part of the resilience story: a password captured
// hours ago may be a long-expired IAM token. Providers here resolve the
// effective password at every (re)connect.
package credentials

import (
	"context"
	"sync"
	"time"

	"github.com/vvka-141/pgrenew/pkg/pgrenew"
)

// Static returns the same password forever. This is the plain
// username/password case.
type Static struct {
	password string
}

// NewStatic creates a provider for a fixed password.
func NewStatic(password string) *Static {
	return &Static{password: password}
}

// Password returns the stored password with no expiry.
func (p *Static) Password(_ context.Context) (string, time.Time, error) {
	return p.password, time.Time{}, nil
}

func (p *Static) String() string {
	return "Static"
}

// Cached wraps another provider and reuses its credential until close to
// expiry, so a renewal burst does not hammer the token endpoint.
// Safe for concurrent use.
type Cached struct {
	inner  pgrenew.CredentialProvider
	margin time.Duration

	mu        sync.Mutex
	password  string
	expiresOn time.Time
}

// NewCached wraps inner, refreshing the credential once it is within margin
// of its expiry.
func NewCached(inner pgrenew.CredentialProvider, margin time.Duration) *Cached {
	return &Cached{inner: inner, margin: margin}
}

// Password returns the cached credential, refreshing it through the inner
// provider when stale. Credentials without an expiry are never refreshed.
func (p *Cached) Password(ctx context.Context) (string, time.Time, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.password != "" {
		if p.expiresOn.IsZero() || time.Until(p.expiresOn) > p.margin {
			return p.password, p.expiresOn, nil
		}
	}

	password, expiresOn, err := p.inner.Password(ctx)
	if err != nil {
		return "", time.Time{}, err
	}
	p.password = password
	p.expiresOn = expiresOn
	return password, expiresOn, nil
}

func (p *Cached) String() string {
	return "Cached(" + p.inner.String() + ")"
}
