package auth

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/oauth2"
)

// refreshBuffer is how long before expiry a token is replaced
const refreshBuffer = 60 * time.Second

// TokenSource is an oauth2.TokenSource that refreshes early and hands
// every new token to a persist callback before using it
type TokenSource struct {
	config  *oauth2.Config
	persist func(*oauth2.Token) error

	mu      sync.Mutex
	current *oauth2.Token
}

// NewTokenSource starts from token. persist may be nil.
func NewTokenSource(cfg *oauth2.Config, token *oauth2.Token, persist func(*oauth2.Token) error) *TokenSource {
	return &TokenSource{
		config:  cfg,
		persist: persist,
		current: token,
	}
}

// NeedsRefresh reports whether the next Token call will hit the token endpoint
func (ts *TokenSource) NeedsRefresh() bool {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return ts.stale()
}

func (ts *TokenSource) stale() bool {
	return ts.current.AccessToken == "" || time.Until(ts.current.Expiry) <= refreshBuffer
}

// Token returns the current token, refreshing it when close to expiry
func (ts *TokenSource) Token() (*oauth2.Token, error) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	if !ts.stale() {
		return ts.current, nil
	}

	// A token without an access token is always refreshed by oauth2
	seed := &oauth2.Token{RefreshToken: ts.current.RefreshToken}
	fresh, err := ts.config.TokenSource(context.Background(), seed).Token()
	if err != nil {
		return nil, fmt.Errorf("refreshing strava token: %w", err)
	}
	if fresh.RefreshToken == "" {
		fresh.RefreshToken = ts.current.RefreshToken
	}

	if ts.persist != nil {
		if err := ts.persist(fresh); err != nil {
			return nil, fmt.Errorf("saving refreshed token: %w", err)
		}
	}
	slog.Debug("auth: refreshed strava token", "expires", fresh.Expiry)

	ts.current = fresh
	return fresh, nil
}
