package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// timeLayout is fixed width so stored timestamps sort lexically
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// RecordEvent appends an event to the log
func (db *DB) RecordEvent(e *EventRecord) error {
	var params sql.NullString
	if len(e.Params) > 0 {
		data, err := json.Marshal(e.Params)
		if err != nil {
			return fmt.Errorf("encoding event params: %w", err)
		}
		params = sql.NullString{String: string(data), Valid: true}
	}

	occurredAt := e.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now()
	}

	result, err := db.Exec(`
		INSERT INTO events (name, category, label, params, session_id, occurred_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, e.Name, e.Category, e.Label, params, e.SessionID, occurredAt.UTC().Format(timeLayout))
	if err != nil {
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	e.ID = id
	return nil
}

// RecentEvents returns up to limit events, newest first
func (db *DB) RecentEvents(limit int) ([]EventRecord, error) {
	rows, err := db.Query(`
		SELECT id, name, category, label, params, session_id, occurred_at
		FROM events
		ORDER BY occurred_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []EventRecord
	for rows.Next() {
		var e EventRecord
		var label, params sql.NullString
		var occurredAt string
		if err := rows.Scan(&e.ID, &e.Name, &e.Category, &label, &params, &e.SessionID, &occurredAt); err != nil {
			return nil, err
		}

		e.Label = label.String
		if params.Valid && params.String != "" {
			if err := json.Unmarshal([]byte(params.String), &e.Params); err != nil {
				return nil, fmt.Errorf("decoding params for event %d: %w", e.ID, err)
			}
		}
		if e.OccurredAt, err = time.Parse(timeLayout, occurredAt); err != nil {
			return nil, fmt.Errorf("parsing time for event %d: %w", e.ID, err)
		}

		events = append(events, e)
	}

	return events, rows.Err()
}

// EventCounts returns how many times each event was recorded, most frequent first
func (db *DB) EventCounts() ([]EventCount, error) {
	rows, err := db.Query(`
		SELECT name, category, COUNT(*) AS n
		FROM events
		GROUP BY name, category
		ORDER BY n DESC, name, category
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var counts []EventCount
	for rows.Next() {
		var c EventCount
		if err := rows.Scan(&c.Name, &c.Category, &c.Count); err != nil {
			return nil, err
		}
		counts = append(counts, c)
	}

	return counts, rows.Err()
}
