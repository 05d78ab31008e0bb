// Package analytics records usage events from the prediction flow.
// Events are queued and fanned out to sinks on a single goroutine;
// tracking never blocks a calculation.
package analytics

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Event names
const (
	EventSelectDistance = "select_distance"
	EventCalculate      = "calculate_prediction"
	EventError          = "calculation_error"
	EventReset          = "form_reset"
	EventBackToForm     = "back_to_form"
	EventViewResults    = "view_predictions"
	EventImportRace     = "import_race"
	EventTableLoad      = "table_load"
)

// Event categories
const (
	CategoryEngagement  = "engagement"
	CategoryConversion  = "conversion"
	CategoryError       = "error"
	CategoryPerformance = "performance"
)

// DefaultQueueSize is the number of events buffered before new ones are dropped
const DefaultQueueSize = 64

// Event is a single tracked interaction
type Event struct {
	Name      string
	Category  string
	Label     string
	Params    map[string]any
	SessionID string
	At        time.Time
}

// Sink receives events from the tracker's worker goroutine
type Sink interface {
	Record(ctx context.Context, e Event) error
}

// SinkFunc adapts a function to the Sink interface
type SinkFunc func(ctx context.Context, e Event) error

// Record calls f(ctx, e)
func (f SinkFunc) Record(ctx context.Context, e Event) error {
	return f(ctx, e)
}

// Tracker queues events for delivery to its sinks.
// A nil *Tracker is valid and discards everything.
type Tracker struct {
	sessionID string
	sinks     []Sink
	now       func() time.Time

	mu      sync.RWMutex
	closed  bool
	queue   chan Event
	done    chan struct{}
	dropped atomic.Int64
}

// NewTracker starts a tracker with a fresh session ID.
// queueSize <= 0 uses DefaultQueueSize.
func NewTracker(queueSize int, sinks ...Sink) *Tracker {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}

	t := &Tracker{
		sessionID: uuid.NewString(),
		sinks:     sinks,
		now:       time.Now,
		queue:     make(chan Event, queueSize),
		done:      make(chan struct{}),
	}
	go t.run()
	return t
}

func (t *Tracker) run() {
	defer close(t.done)

	ctx := context.Background()
	for e := range t.queue {
		for _, s := range t.sinks {
			if err := s.Record(ctx, e); err != nil {
				slog.Debug("analytics: sink failed", "event", e.Name, "err", err)
			}
		}
	}
}

// SessionID identifies this process's events
func (t *Tracker) SessionID() string {
	if t == nil {
		return ""
	}
	return t.sessionID
}

// Dropped returns how many events were discarded because the queue was full
func (t *Tracker) Dropped() int64 {
	if t == nil {
		return 0
	}
	return t.dropped.Load()
}

// Track enqueues e without blocking. SessionID and At are filled in when empty.
func (t *Tracker) Track(e Event) {
	if t == nil {
		return
	}
	if e.SessionID == "" {
		e.SessionID = t.sessionID
	}
	if e.At.IsZero() {
		e.At = t.now()
	}

	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.closed {
		return
	}

	select {
	case t.queue <- e:
	default:
		t.dropped.Add(1)
	}
}

// Close stops accepting events and waits for queued ones to be delivered,
// or for ctx to end
func (t *Tracker) Close(ctx context.Context) error {
	if t == nil {
		return nil
	}

	t.mu.Lock()
	if !t.closed {
		t.closed = true
		close(t.queue)
	}
	t.mu.Unlock()

	select {
	case <-t.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TrackDistanceSelection records the race distance picked on the form
func (t *Tracker) TrackDistanceSelection(distance string) {
	t.Track(Event{
		Name:     EventSelectDistance,
		Category: CategoryEngagement,
		Label:    distance,
		Params:   map[string]any{"distance": distance},
	})
}

// TrackCalculation records a successful VDOT calculation
func (t *Tracker) TrackCalculation(distance string, timeInSeconds int, vdot float64) {
	t.Track(Event{
		Name:     EventCalculate,
		Category: CategoryConversion,
		Label:    distance,
		Params: map[string]any{
			"distance":     distance,
			"time_seconds": timeInSeconds,
			"vdot":         vdot,
		},
	})
}

// TrackError records a failed calculation. errorType is one of the
// categories returned by service.ErrorCategory.
func (t *Tracker) TrackError(errorType, message string) {
	t.Track(Event{
		Name:     EventError,
		Category: CategoryError,
		Label:    errorType,
		Params: map[string]any{
			"error_type":    errorType,
			"error_message": message,
		},
	})
}

// TrackReset records a form reset
func (t *Tracker) TrackReset() {
	t.Track(Event{Name: EventReset, Category: CategoryEngagement, Label: "reset_button"})
}

// TrackBackToForm records leaving the results screen
func (t *Tracker) TrackBackToForm() {
	t.Track(Event{Name: EventBackToForm, Category: CategoryEngagement, Label: "back_button"})
}

// TrackResultsView records the results screen being shown
func (t *Tracker) TrackResultsView(inputDistance string, predictionsCount int) {
	t.Track(Event{
		Name:     EventViewResults,
		Category: CategoryEngagement,
		Label:    inputDistance,
		Params: map[string]any{
			"input_distance":    inputDistance,
			"predictions_count": predictionsCount,
		},
	})
}

// TrackImport records a race imported from Strava
func (t *Tracker) TrackImport(distance string, timeInSeconds int) {
	t.Track(Event{
		Name:     EventImportRace,
		Category: CategoryConversion,
		Label:    distance,
		Params: map[string]any{
			"distance":     distance,
			"time_seconds": timeInSeconds,
		},
	})
}

// TrackTableLoad records how long the VDOT table took to load
func (t *Tracker) TrackTableLoad(source string, d time.Duration) {
	t.Track(Event{
		Name:     EventTableLoad,
		Category: CategoryPerformance,
		Label:    source,
		Params:   map[string]any{"value_ms": d.Milliseconds()},
	})
}
