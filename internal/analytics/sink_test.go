package analytics

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/common/expfmt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"racepredictor/internal/store"
)

func TestLogSink(t *testing.T) {
	var buf bytes.Buffer
	sink := LogSink{Logger: slog.New(slog.NewTextHandler(&buf, nil))}

	err := sink.Record(context.Background(), Event{
		Name:      EventSelectDistance,
		Category:  CategoryEngagement,
		Label:     "10K",
		SessionID: "abc",
	})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "analytics: event")
	assert.Contains(t, out, "event=select_distance")
	assert.Contains(t, out, "label=10K")
	assert.NotContains(t, out, "params=")
}

func TestStoreSink(t *testing.T) {
	db, err := store.OpenMemory()
	require.NoError(t, err)
	defer db.Close()

	tracker := NewTracker(0, StoreSink{DB: db})
	tracker.TrackCalculation("M", 14400, 38)
	tracker.TrackResultsView("M", 6)
	require.NoError(t, tracker.Close(context.Background()))

	events, err := db.RecentEvents(10)
	require.NoError(t, err)
	require.Len(t, events, 2)

	byName := map[string]store.EventRecord{}
	for _, e := range events {
		byName[e.Name] = e
	}
	calc := byName[EventCalculate]
	assert.Equal(t, "M", calc.Label)
	assert.Equal(t, tracker.SessionID(), calc.SessionID)
	assert.Equal(t, 38.0, calc.Params["vdot"])
	assert.Equal(t, 14400.0, calc.Params["time_seconds"])
}

func TestMetricsSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "textfile", "racepredictor.prom")

	sink, err := NewMetricsSink(path)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, sink.Record(ctx, Event{Name: EventSelectDistance, Category: CategoryEngagement}))
	require.NoError(t, sink.Record(ctx, Event{Name: EventSelectDistance, Category: CategoryEngagement}))
	require.NoError(t, sink.Record(ctx, Event{Name: EventError, Category: CategoryError}))

	assert.Equal(t, 2.0, sink.Count(EventSelectDistance, CategoryEngagement))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, "# TYPE racepredictor_events_total counter")
	assert.Contains(t, text, `racepredictor_events_total{category="engagement",event="select_distance"} 2`)

	var parser expfmt.TextParser
	families, err := parser.TextToMetricFamilies(strings.NewReader(text))
	require.NoError(t, err)
	require.Contains(t, families, MetricName)
	assert.Len(t, families[MetricName].GetMetric(), 2)
}

func TestMetricsSink_CarriesCountsForward(t *testing.T) {
	path := filepath.Join(t.TempDir(), "racepredictor.prom")

	first, err := NewMetricsSink(path)
	require.NoError(t, err)
	require.NoError(t, first.Record(context.Background(), Event{Name: EventReset, Category: CategoryEngagement}))

	second, err := NewMetricsSink(path)
	require.NoError(t, err)
	require.NoError(t, second.Record(context.Background(), Event{Name: EventReset, Category: CategoryEngagement}))

	assert.Equal(t, 2.0, second.Count(EventReset, CategoryEngagement))
}

func TestMetricsSink_UnreadableFileStartsFresh(t *testing.T) {
	path := filepath.Join(t.TempDir(), "racepredictor.prom")
	require.NoError(t, os.WriteFile(path, []byte("not { a metric"), 0644))

	sink, err := NewMetricsSink(path)
	require.NoError(t, err)
	assert.Zero(t, sink.Count(EventReset, CategoryEngagement))
}

func TestMetricsSink_ViaTracker(t *testing.T) {
	path := filepath.Join(t.TempDir(), "racepredictor.prom")
	sink, err := NewMetricsSink(path)
	require.NoError(t, err)

	tracker := NewTracker(0, sink)
	for i := 0; i < 5; i++ {
		tracker.TrackDistanceSelection("5K")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, tracker.Close(ctx))

	assert.Equal(t, 5.0, sink.Count(EventSelectDistance, CategoryEngagement))
}
