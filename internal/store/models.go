package store

import "time"

// Auth represents OAuth tokens for Strava API access
type Auth struct {
	AthleteID    int64     `db:"athlete_id"`
	AccessToken  string    `db:"access_token"`
	RefreshToken string    `db:"refresh_token"`
	ExpiresAt    time.Time `db:"expires_at"`
}

// EventRecord is one stored usage event
type EventRecord struct {
	ID         int64          `db:"id"`
	Name       string         `db:"name"`
	Category   string         `db:"category"`
	Label      string         `db:"label"`
	Params     map[string]any `db:"params"` // stored as JSON
	SessionID  string         `db:"session_id"`
	OccurredAt time.Time      `db:"occurred_at"`
}

// EventCount is the number of stored events per name and category
type EventCount struct {
	Name     string
	Category string
	Count    int
}
