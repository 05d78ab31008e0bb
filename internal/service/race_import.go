package service

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"racepredictor/internal/analysis"
	"racepredictor/internal/analytics"
	"racepredictor/internal/store"
	"racepredictor/internal/strava"
)

// ActivityLister pages through an athlete's activities, newest first
type ActivityLister interface {
	GetActivities(ctx context.Context, before time.Time, page, perPage int) ([]strava.Activity, error)
}

// ImportedRace is a Strava run mapped onto a catalog distance
type ImportedRace struct {
	ActivityID int64
	Name       string
	Date       time.Time
	Distance   analysis.Distance
	Meters     float64
	Seconds    int
	Race       bool // tagged as a race on Strava
}

// Request converts the race into a prediction request
func (r ImportedRace) Request() Request {
	return Request{
		Hours:    float64(r.Seconds / 3600),
		Minutes:  float64(r.Seconds % 3600 / 60),
		Seconds:  float64(r.Seconds % 60),
		Distance: string(r.Distance),
	}
}

// RaceImporter finds recent race efforts on Strava
type RaceImporter struct {
	client  ActivityLister
	catalog analysis.Catalog
	db      *store.DB
	tracker *analytics.Tracker
}

// NewRaceImporter creates an importer. db and tracker may be nil.
func NewRaceImporter(client ActivityLister, catalog analysis.Catalog, db *store.DB, tracker *analytics.Tracker) *RaceImporter {
	if len(catalog) == 0 {
		catalog = analysis.CanonicalCatalog
	}
	return &RaceImporter{
		client:  client,
		catalog: catalog,
		db:      db,
		tracker: tracker,
	}
}

// RecentRaces returns up to limit recent runs whose distance matches a
// catalog distance within tolerance, newest first. Runs tagged as races
// that match no catalog distance are skipped.
func (r *RaceImporter) RecentRaces(ctx context.Context, limit int) ([]ImportedRace, error) {
	if limit <= 0 {
		limit = DefaultRaceLimit
	}

	var races []ImportedRace
	for page := 1; page <= MaxRacePages && len(races) < limit; page++ {
		activities, err := r.client.GetActivities(ctx, time.Time{}, page, RacePageSize)
		if err != nil {
			return races, fmt.Errorf("fetching page %d: %w", page, err)
		}

		for _, a := range activities {
			race, ok := r.match(a)
			if !ok {
				continue
			}
			races = append(races, race)
			if len(races) == limit {
				break
			}
		}

		if len(activities) < RacePageSize {
			break // Last page
		}
	}

	slog.Debug("strava: matched recent races", "count", len(races))
	return races, nil
}

func (r *RaceImporter) match(a strava.Activity) (ImportedRace, bool) {
	if !a.IsRun() || a.ElapsedTime <= 0 {
		return ImportedRace{}, false
	}

	distance, ok := r.catalog.MatchDistance(a.Distance)
	if !ok {
		return ImportedRace{}, false
	}

	return ImportedRace{
		ActivityID: a.ID,
		Name:       a.Name,
		Date:       a.StartDateLocal,
		Distance:   distance,
		Meters:     a.Distance,
		Seconds:    a.ElapsedTime,
		Race:       a.IsWorkoutType(RaceWorkoutType),
	}, true
}

// Best picks the most recent tagged race, falling back to the most recent match
func Best(races []ImportedRace) (ImportedRace, bool) {
	for _, race := range races {
		if race.Race {
			return race, true
		}
	}
	if len(races) > 0 {
		return races[0], true
	}
	return ImportedRace{}, false
}

// MarkImported remembers race as the last one used for a prediction
func (r *RaceImporter) MarkImported(race ImportedRace) error {
	r.tracker.TrackImport(string(race.Distance), race.Seconds)
	if r.db == nil {
		return nil
	}
	if err := r.db.SetSyncState(store.KeyLastRaceImport, strconv.FormatInt(race.ActivityID, 10)); err != nil {
		return fmt.Errorf("saving last import: %w", err)
	}
	return nil
}

// LastImported returns the activity ID of the last imported race, or 0
func (r *RaceImporter) LastImported() (int64, error) {
	if r.db == nil {
		return 0, nil
	}
	value, err := r.db.GetSyncState(store.KeyLastRaceImport)
	if err != nil || value == "" {
		return 0, err
	}
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing last import %q: %w", value, err)
	}
	return id, nil
}
