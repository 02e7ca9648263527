package transcribe

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/oauth2"
)

// TokenSource supplies bearer tokens for the remote AI endpoint. The
// processor tries CurrentToken first, falls back to one RefreshToken call,
// and finally to the configured anonymous key.
type TokenSource interface {
	CurrentToken(ctx context.Context) (string, error)
	RefreshToken(ctx context.Context) (string, error)
}

// StaticTokenSource returns a fixed token for both calls.
type StaticTokenSource string

// CurrentToken returns the static token.
func (s StaticTokenSource) CurrentToken(_ context.Context) (string, error) {
	if s == "" {
		return "", fmt.Errorf("no static token configured")
	}
	return string(s), nil
}

// RefreshToken returns the static token.
func (s StaticTokenSource) RefreshToken(ctx context.Context) (string, error) {
	return s.CurrentToken(ctx)
}

// OAuthTokenSource adapts an oauth2.TokenSource to the session-token
// contract: CurrentToken serves the cached token while it is valid and
// RefreshToken forces a fetch from the underlying source.
type OAuthTokenSource struct {
	src oauth2.TokenSource

	mu     sync.Mutex
	cached *oauth2.Token
}

// NewOAuthTokenSource wraps an oauth2 token source.
func NewOAuthTokenSource(src oauth2.TokenSource) *OAuthTokenSource {
	return &OAuthTokenSource{src: src}
}

// CurrentToken returns the cached session token if still valid.
func (o *OAuthTokenSource) CurrentToken(_ context.Context) (string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.cached.Valid() {
		return o.cached.AccessToken, nil
	}
	return "", fmt.Errorf("no valid session token")
}

// RefreshToken fetches a fresh token from the underlying source and caches it.
func (o *OAuthTokenSource) RefreshToken(_ context.Context) (string, error) {
	token, err := o.src.Token()
	if err != nil {
		return "", fmt.Errorf("token refresh failed: %w", err)
	}

	o.mu.Lock()
	o.cached = token
	o.mu.Unlock()
	return token.AccessToken, nil
}
