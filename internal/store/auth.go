package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrNoAuth is returned when no Strava session is stored
var ErrNoAuth = errors.New("no authentication stored")

// The auth table holds at most one row, id 1
const upsertAuth = `
	INSERT INTO auth (id, athlete_id, access_token, refresh_token, expires_at, updated_at)
	VALUES (1, ?, ?, ?, ?, CURRENT_TIMESTAMP)
	ON CONFLICT(id) DO UPDATE SET
		athlete_id    = excluded.athlete_id,
		access_token  = excluded.access_token,
		refresh_token = excluded.refresh_token,
		expires_at    = excluded.expires_at,
		updated_at    = CURRENT_TIMESTAMP`

// GetAuth returns the stored Strava session, or ErrNoAuth
func (db *DB) GetAuth() (*Auth, error) {
	var (
		a       Auth
		expires int64
	)
	err := db.QueryRow(`SELECT athlete_id, access_token, refresh_token, expires_at FROM auth WHERE id = 1`).
		Scan(&a.AthleteID, &a.AccessToken, &a.RefreshToken, &expires)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, ErrNoAuth
	case err != nil:
		return nil, fmt.Errorf("reading auth: %w", err)
	}

	a.ExpiresAt = time.Unix(expires, 0)
	return &a, nil
}

// SaveAuth replaces the stored session
func (db *DB) SaveAuth(a *Auth) error {
	if _, err := db.Exec(upsertAuth, a.AthleteID, a.AccessToken, a.RefreshToken, a.ExpiresAt.Unix()); err != nil {
		return fmt.Errorf("saving auth: %w", err)
	}
	return nil
}

// UpdateTokens stores refreshed tokens for the existing session.
// Returns ErrNoAuth when there is no session to update.
func (db *DB) UpdateTokens(accessToken, refreshToken string, expiresAt time.Time) error {
	res, err := db.Exec(`UPDATE auth SET access_token = ?, refresh_token = ?, expires_at = ?, updated_at = CURRENT_TIMESTAMP WHERE id = 1`,
		accessToken, refreshToken, expiresAt.Unix())
	if err != nil {
		return fmt.Errorf("updating tokens: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return ErrNoAuth
	}
	return nil
}

// DeleteAuth forgets the stored session. Deleting nothing is not an error.
func (db *DB) DeleteAuth() error {
	if _, err := db.Exec(`DELETE FROM auth`); err != nil {
		return fmt.Errorf("deleting auth: %w", err)
	}
	return nil
}
