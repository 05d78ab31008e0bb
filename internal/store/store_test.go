package store

import (
	"errors"
	"path/filepath"
	"testing"
	"time"
)

// setupTestDB creates an in-memory database for testing
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := OpenMemory()
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return db
}

func TestOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "data.db")

	db, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer db.Close()

	// Migrations are idempotent
	if err := migrate(db.DB); err != nil {
		t.Errorf("second migrate() error = %v", err)
	}
}

func TestAuth(t *testing.T) {
	db := setupTestDB(t)

	if _, err := db.GetAuth(); !errors.Is(err, ErrNoAuth) {
		t.Fatalf("GetAuth() on empty db error = %v, want ErrNoAuth", err)
	}
	if err := db.UpdateTokens("a", "r", time.Now()); !errors.Is(err, ErrNoAuth) {
		t.Errorf("UpdateTokens() on empty db error = %v, want ErrNoAuth", err)
	}

	expires := time.Now().Add(time.Hour).Truncate(time.Second)
	err := db.SaveAuth(&Auth{
		AthleteID:    42,
		AccessToken:  "access",
		RefreshToken: "refresh",
		ExpiresAt:    expires,
	})
	if err != nil {
		t.Fatalf("SaveAuth() error = %v", err)
	}

	newExpiry := expires.Add(6 * time.Hour)
	if err := db.UpdateTokens("access2", "refresh2", newExpiry); err != nil {
		t.Fatalf("UpdateTokens() error = %v", err)
	}

	got, err := db.GetAuth()
	if err != nil {
		t.Fatalf("GetAuth() error = %v", err)
	}
	if got.AthleteID != 42 || got.AccessToken != "access2" || got.RefreshToken != "refresh2" {
		t.Errorf("GetAuth() = %+v", got)
	}
	if !got.ExpiresAt.Equal(newExpiry) {
		t.Errorf("ExpiresAt = %v, want %v", got.ExpiresAt, newExpiry)
	}

	if err := db.DeleteAuth(); err != nil {
		t.Fatal(err)
	}
	if _, err := db.GetAuth(); !errors.Is(err, ErrNoAuth) {
		t.Errorf("GetAuth() after delete error = %v, want ErrNoAuth", err)
	}
}

func TestEvents(t *testing.T) {
	db := setupTestDB(t)

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	events := []EventRecord{
		{Name: "select_distance", Category: "engagement", Label: "5K", SessionID: "s1", OccurredAt: base},
		{Name: "calculate_prediction", Category: "calculator", Label: "5K", SessionID: "s1", OccurredAt: base.Add(time.Second),
			Params: map[string]any{"vdot": 50.0, "input_time_seconds": 1197.0}},
		{Name: "calculation_error", Category: "error", Label: "validation", SessionID: "s1", OccurredAt: base.Add(2 * time.Second)},
		{Name: "select_distance", Category: "engagement", Label: "M", SessionID: "s2", OccurredAt: base.Add(3 * time.Second)},
	}
	for i := range events {
		if err := db.RecordEvent(&events[i]); err != nil {
			t.Fatalf("RecordEvent() error = %v", err)
		}
		if events[i].ID == 0 {
			t.Errorf("event %d ID not set", i)
		}
	}

	t.Run("RecentEvents returns newest first", func(t *testing.T) {
		got, err := db.RecentEvents(2)
		if err != nil {
			t.Fatalf("RecentEvents() error = %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("got %d events, want 2", len(got))
		}
		if got[0].Label != "M" || got[1].Name != "calculation_error" {
			t.Errorf("order = %s/%s, %s/%s", got[0].Name, got[0].Label, got[1].Name, got[1].Label)
		}
		if !got[0].OccurredAt.Equal(base.Add(3 * time.Second)) {
			t.Errorf("OccurredAt = %v", got[0].OccurredAt)
		}
	})

	t.Run("params round trip", func(t *testing.T) {
		got, err := db.RecentEvents(10)
		if err != nil {
			t.Fatal(err)
		}
		calc := got[2]
		if calc.Name != "calculate_prediction" {
			t.Fatalf("got[2] = %s", calc.Name)
		}
		if calc.Params["vdot"] != 50.0 {
			t.Errorf("Params[vdot] = %v, want 50", calc.Params["vdot"])
		}
		if got[0].Params != nil {
			t.Errorf("event without params decoded as %v", got[0].Params)
		}
	})

	t.Run("EventCounts groups by name and category", func(t *testing.T) {
		counts, err := db.EventCounts()
		if err != nil {
			t.Fatalf("EventCounts() error = %v", err)
		}
		if len(counts) != 3 {
			t.Fatalf("got %d counts, want 3", len(counts))
		}
		if counts[0].Name != "select_distance" || counts[0].Count != 2 {
			t.Errorf("counts[0] = %+v, want select_distance x2", counts[0])
		}
	})
}

func TestSyncState(t *testing.T) {
	db := setupTestDB(t)

	got, err := db.GetSyncState(KeyLastRaceImport)
	if err != nil || got != "" {
		t.Fatalf("GetSyncState() = %q, %v, want empty", got, err)
	}

	if err := db.SetSyncState(KeyLastRaceImport, "123"); err != nil {
		t.Fatal(err)
	}
	if err := db.SetSyncState(KeyLastRaceImport, "456"); err != nil {
		t.Fatal(err)
	}

	got, err = db.GetSyncState(KeyLastRaceImport)
	if err != nil || got != "456" {
		t.Errorf("GetSyncState() = %q, %v, want 456", got, err)
	}
}
