package auth

import (
	"context"
	"errors"
	"fmt"
	"io"

	"golang.org/x/oauth2"

	"racepredictor/internal/store"
)

// Connect returns a token source for the stored Strava session. When no
// session is stored it runs the browser flow first, writing instructions
// to prompt. Refreshed tokens are saved back to db.
func Connect(ctx context.Context, cfg Config, db *store.DB, prompt io.Writer) (*TokenSource, error) {
	oauthCfg := NewOAuthConfig(cfg)

	stored, err := db.GetAuth()
	if errors.Is(err, store.ErrNoAuth) {
		result, err := Authenticate(ctx, oauthCfg, prompt)
		if err != nil {
			return nil, err
		}
		stored = &store.Auth{
			AthleteID:    result.AthleteID,
			AccessToken:  result.Token.AccessToken,
			RefreshToken: result.Token.RefreshToken,
			ExpiresAt:    result.Token.Expiry,
		}
		if err := db.SaveAuth(stored); err != nil {
			return nil, fmt.Errorf("saving auth: %w", err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("loading stored auth: %w", err)
	}

	token := &oauth2.Token{
		AccessToken:  stored.AccessToken,
		RefreshToken: stored.RefreshToken,
		TokenType:    "Bearer",
		Expiry:       stored.ExpiresAt,
	}

	return NewTokenSource(oauthCfg, token, func(t *oauth2.Token) error {
		return db.UpdateTokens(t.AccessToken, t.RefreshToken, t.Expiry)
	}), nil
}
