package analytics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"google.golang.org/protobuf/proto"

	"racepredictor/internal/store"
)

// LogSink writes each event to a structured logger
type LogSink struct {
	Logger *slog.Logger // nil uses slog.Default()
}

// Record logs e at info level
func (s LogSink) Record(ctx context.Context, e Event) error {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}

	attrs := []any{
		"event", e.Name,
		"category", e.Category,
		"label", e.Label,
		"session", e.SessionID,
	}
	if len(e.Params) > 0 {
		attrs = append(attrs, "params", e.Params)
	}
	logger.InfoContext(ctx, "analytics: event", attrs...)
	return nil
}

// StoreSink appends events to the sqlite event log
type StoreSink struct {
	DB *store.DB
}

// Record stores e
func (s StoreSink) Record(_ context.Context, e Event) error {
	return s.DB.RecordEvent(&store.EventRecord{
		Name:       e.Name,
		Category:   e.Category,
		Label:      e.Label,
		Params:     e.Params,
		SessionID:  e.SessionID,
		OccurredAt: e.At,
	})
}

// MetricName is the counter written by MetricsSink
const MetricName = "racepredictor_events_total"

type counterKey struct {
	event    string
	category string
}

// MetricsSink keeps per-event counters and rewrites them to a Prometheus
// textfile after every event, for node_exporter's textfile collector
type MetricsSink struct {
	path string

	mu     sync.Mutex
	counts map[counterKey]float64
}

// NewMetricsSink creates a sink writing to path. Counters already present
// in an existing file are carried forward.
func NewMetricsSink(path string) (*MetricsSink, error) {
	s := &MetricsSink{
		path:   path,
		counts: make(map[counterKey]float64),
	}

	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening metrics file: %w", err)
	}
	defer f.Close()

	var parser expfmt.TextParser
	families, err := parser.TextToMetricFamilies(f)
	if err != nil {
		slog.Warn("analytics: ignoring unreadable metrics file", "path", path, "err", err)
		return s, nil
	}

	if mf, ok := families[MetricName]; ok {
		for _, m := range mf.GetMetric() {
			var key counterKey
			for _, lp := range m.GetLabel() {
				switch lp.GetName() {
				case "event":
					key.event = lp.GetValue()
				case "category":
					key.category = lp.GetValue()
				}
			}
			s.counts[key] = m.GetCounter().GetValue()
		}
	}

	return s, nil
}

// Record increments the counter for e and rewrites the textfile
func (s *MetricsSink) Record(_ context.Context, e Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.counts[counterKey{event: e.Name, category: e.Category}]++
	return s.write()
}

// Count returns the current counter value for an event and category
func (s *MetricsSink) Count(event, category string) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counts[counterKey{event: event, category: category}]
}

func (s *MetricsSink) family() *dto.MetricFamily {
	keys := make([]counterKey, 0, len(s.counts))
	for k := range s.counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].event != keys[j].event {
			return keys[i].event < keys[j].event
		}
		return keys[i].category < keys[j].category
	})

	mf := &dto.MetricFamily{
		Name: proto.String(MetricName),
		Help: proto.String("Usage events recorded by the race predictor."),
		Type: dto.MetricType_COUNTER.Enum(),
	}
	for _, k := range keys {
		mf.Metric = append(mf.Metric, &dto.Metric{
			Label: []*dto.LabelPair{
				{Name: proto.String("category"), Value: proto.String(k.category)},
				{Name: proto.String("event"), Value: proto.String(k.event)},
			},
			Counter: &dto.Counter{Value: proto.Float64(s.counts[k])},
		})
	}
	return mf
}

// write replaces the textfile atomically
func (s *MetricsSink) write() error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating metrics directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".racepredictor-metrics-*")
	if err != nil {
		return fmt.Errorf("creating metrics temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := expfmt.MetricFamilyToText(tmp, s.family()); err != nil {
		tmp.Close()
		return fmt.Errorf("encoding metrics: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing metrics temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replacing metrics file: %w", err)
	}
	return nil
}
