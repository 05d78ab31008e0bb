package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"racepredictor/internal/analysis"
	"racepredictor/internal/analytics"
)

// ErrNotWatchable is returned by Watch for embedded and remote sources
var ErrNotWatchable = errors.New("table source is not a local file")

// TableStatus describes the currently installed table
type TableStatus struct {
	Source    string
	Loaded    bool
	MinVDOT   int
	MaxVDOT   int
	Distances []analysis.Distance
	LoadedAt  time.Time
	Reloads   int
	LastError error
}

// TableSource loads the VDOT table from the bundled asset, a file, or a URL
// and hands out the installed table to callers
type TableSource struct {
	source  string
	client  *http.Client
	tracker *analytics.Tracker

	table atomic.Pointer[analysis.Table]

	mu       sync.Mutex
	lastErr  error
	loadedAt time.Time
	loads    int
}

// NewTableSource creates a source. An empty source means the bundled table.
func NewTableSource(source string, tracker *analytics.Tracker) *TableSource {
	return &TableSource{
		source:  strings.TrimSpace(source),
		client:  &http.Client{Timeout: TableFetchTimeout},
		tracker: tracker,
	}
}

// Describe returns a short name for the source
func (s *TableSource) Describe() string {
	if s.source == "" {
		return "embedded"
	}
	return s.source
}

func (s *TableSource) isRemote() bool {
	return strings.HasPrefix(s.source, "http://") || strings.HasPrefix(s.source, "https://")
}

// Load reads, parses and validates the table, then installs it.
// On failure the previously installed table, if any, stays in place.
func (s *TableSource) Load(ctx context.Context) (*analysis.Table, error) {
	start := time.Now()

	table, err := s.read(ctx)
	if err != nil {
		err = fmt.Errorf("loading table from %s: %w", s.Describe(), err)
		s.mu.Lock()
		s.lastErr = err
		s.mu.Unlock()
		return nil, err
	}

	s.table.Store(table)
	s.mu.Lock()
	s.lastErr = nil
	s.loadedAt = time.Now()
	s.loads++
	s.mu.Unlock()

	elapsed := time.Since(start)
	slog.Info("table: loaded",
		"source", s.Describe(),
		"min_vdot", table.MinVDOT(),
		"max_vdot", table.MaxVDOT(),
		"duration", elapsed)
	s.tracker.TrackTableLoad(s.Describe(), elapsed)

	return table, nil
}

func (s *TableSource) read(ctx context.Context) (*analysis.Table, error) {
	switch {
	case s.source == "":
		return analysis.DefaultTable()
	case s.isRemote():
		data, err := s.fetch(ctx)
		if err != nil {
			return nil, err
		}
		name := s.source
		if u, err := url.Parse(s.source); err == nil {
			name = u.Path
		}
		return analysis.ParseTableFile(name, data)
	default:
		data, err := os.ReadFile(s.source)
		if err != nil {
			return nil, fmt.Errorf("reading table file: %w", err)
		}
		return analysis.ParseTableFile(s.source, data)
	}
}

func (s *TableSource) fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.source, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json, application/yaml")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching table: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching table: unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxTableBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading table body: %w", err)
	}
	if len(data) > MaxTableBytes {
		return nil, fmt.Errorf("table larger than %d bytes", MaxTableBytes)
	}
	return data, nil
}

// Table returns the installed table. Before the first successful load it
// returns an error matching analysis.ErrDataNotLoaded, wrapping the last
// load failure when there is one.
func (s *TableSource) Table() (*analysis.Table, error) {
	if t := s.table.Load(); t != nil {
		return t, nil
	}

	s.mu.Lock()
	lastErr := s.lastErr
	s.mu.Unlock()

	if lastErr != nil {
		return nil, fmt.Errorf("%w: %w", analysis.ErrDataNotLoaded, lastErr)
	}
	return nil, analysis.ErrDataNotLoaded
}

// Status reports what is installed and the most recent load error
func (s *TableSource) Status() TableStatus {
	s.mu.Lock()
	st := TableStatus{
		Source:    s.Describe(),
		LoadedAt:  s.loadedAt,
		LastError: s.lastErr,
	}
	if s.loads > 0 {
		st.Reloads = s.loads - 1
	}
	s.mu.Unlock()

	if t := s.table.Load(); t != nil {
		st.Loaded = true
		st.MinVDOT = t.MinVDOT()
		st.MaxVDOT = t.MaxVDOT()
		st.Distances = t.Distances()
	}
	return st
}

// Watch reloads a file source whenever it is written or replaced and
// calls onReload with each new table. A failed reload keeps the previous
// table active and calls onReload with a nil table and the load error.
// Watch runs until ctx is cancelled.
func (s *TableSource) Watch(ctx context.Context, onReload func(*analysis.Table, error)) error {
	if s.source == "" || s.isRemote() {
		return ErrNotWatchable
	}

	path, err := filepath.Abs(s.source)
	if err != nil {
		return fmt.Errorf("resolving table path: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	// Watch the directory; editors often save by renaming over the file
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return err
	}

	slog.Info("table: watching for changes", "path", path)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			table, err := s.Load(ctx)
			if err != nil {
				slog.Error("table: reload failed, keeping previous table", "path", path, "err", err)
			} else {
				slog.Info("table: reloaded", "path", path)
			}
			if onReload != nil {
				onReload(table, err)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Error("table: watcher error", "err", err)
		}
	}
}
