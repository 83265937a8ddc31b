// Package gcp manages Google Cloud credentials shared by the provider
// adapters in the same provider family.
package gcp

import (
	"context"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/anzclass/anzclass/internal/metrics"
	"github.com/anzclass/anzclass/internal/models"
)

// cloudPlatformScope covers both the embedding and generation endpoints.
const cloudPlatformScope = "https://www.googleapis.com/auth/cloud-platform"

// TokenManager caches a bearer token for the provider family. The cache is
// single-writer/many-reader: refresh happens under a mutex with a
// double-checked re-read so concurrent callers observe at most one in-flight
// refresh. A 401 from any adapter invalidates the cache; the next caller
// refreshes.
type TokenManager struct {
	source oauth2.TokenSource

	mu     sync.Mutex
	cached *oauth2.Token
}

// NewTokenManager resolves Application Default Credentials once and wraps
// them in a TokenManager.
func NewTokenManager(ctx context.Context) (*TokenManager, error) {
	creds, err := google.FindDefaultCredentials(ctx, cloudPlatformScope)
	if err != nil {
		return nil, models.AuthError(err, "resolving application default credentials")
	}

	return NewTokenManagerFromSource(creds.TokenSource), nil
}

// NewTokenManagerFromSource wraps an explicit token source.
func NewTokenManagerFromSource(source oauth2.TokenSource) *TokenManager {
	return &TokenManager{source: source}
}

// Token returns the cached bearer token, refreshing it when absent, expired,
// or invalidated.
func (m *TokenManager) Token(_ context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Re-check under the lock: a concurrent caller may have refreshed while
	// this one waited.
	if m.cached.Valid() {
		return m.cached.AccessToken, nil
	}

	tok, err := m.source.Token()
	if err != nil {
		return "", models.AuthError(err, "refreshing provider token")
	}

	metrics.TokenRefreshes.Inc()
	m.cached = tok

	return tok.AccessToken, nil
}

// Invalidate discards the cached token. Adapters call this on a 401 before
// their single retry.
func (m *TokenManager) Invalidate() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.cached = nil
}
