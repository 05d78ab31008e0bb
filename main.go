package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"racepredictor/internal/analysis"
	"racepredictor/internal/analytics"
	"racepredictor/internal/config"
	"racepredictor/internal/service"
	"racepredictor/internal/store"
	"racepredictor/internal/tui"
)

const logFileName = "racepredictor.log"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		log.Fatal(err)
	}
}

// options are the persistent flags shared by every command
type options struct {
	configPath string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	var distance, clock string

	cmd := &cobra.Command{
		Use:           "racepredictor",
		Short:         "Predict race times from a recent result using VDOT",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			var prefill *service.Request
			if distance != "" || clock != "" {
				req, err := parseRequest(distance, clock)
				if err != nil {
					return err
				}
				prefill = &req
			}
			return runTUI(cmd.Context(), opts, prefill)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default ~/.racepredictor/config.json)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "info", "log level: debug, info, warn or error")
	cmd.Flags().StringVarP(&distance, "distance", "d", "", "prefill the race distance (1500, Mile, 5K, 10K, 15K, HM, M)")
	cmd.Flags().StringVarP(&clock, "time", "t", "", "prefill the race time as HH:MM:SS, MM:SS or SS")

	cmd.AddCommand(
		newPredictCmd(opts),
		newTableCmd(opts),
		newStravaCmd(opts),
		newEventsCmd(opts),
		newConfigCmd(opts),
	)

	return cmd
}

// env holds everything a command needs once config is loaded
type env struct {
	cfg       *config.Config
	db        *store.DB
	tracker   *analytics.Tracker
	source    *service.TableSource
	predictor *service.Predictor
	catalog   analysis.Catalog
	closeLog  func() error
	closed    bool
}

// setup loads config, configures logging and builds the services.
// logTo is nil for the TUI, which logs to a file instead.
func setup(opts *options, logTo io.Writer) (_ *env, err error) {
	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	e := &env{cfg: cfg, closeLog: func() error { return nil }}
	defer func() {
		if err != nil {
			e.Close()
		}
	}()

	level, err := parseLevel(opts.logLevel)
	if err != nil {
		return nil, err
	}
	if logTo != nil {
		slog.SetDefault(slog.New(slog.NewTextHandler(logTo, &slog.HandlerOptions{Level: level})))
	} else {
		f, err := openLogFile()
		if err != nil {
			return nil, err
		}
		e.closeLog = f.Close
		slog.SetDefault(slog.New(slog.NewJSONHandler(f, &slog.HandlerOptions{Level: level})))
	}

	dbPath, err := cfg.DatabasePath()
	if err != nil {
		return nil, err
	}
	e.db, err = store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	var sinks []analytics.Sink
	if cfg.Analytics.Enabled {
		sinks = append(sinks, analytics.StoreSink{DB: e.db})
		if cfg.Analytics.LogEvents {
			sinks = append(sinks, analytics.LogSink{})
		}
		if cfg.Analytics.MetricsFile != "" {
			metrics, err := analytics.NewMetricsSink(cfg.Analytics.MetricsFile)
			if err != nil {
				return nil, err
			}
			sinks = append(sinks, metrics)
		}
		e.tracker = analytics.NewTracker(analytics.DefaultQueueSize, sinks...)
	}

	strategy, err := analysis.ParseStrategy(cfg.Prediction.Strategy)
	if err != nil {
		return nil, err
	}

	e.catalog = analysis.CanonicalCatalog
	if cfg.Prediction.ExtendedDistances {
		e.catalog = analysis.ExtendedCatalog
	}

	e.source = service.NewTableSource(cfg.Table.Source, e.tracker)
	e.predictor = service.NewPredictor(e.source, service.PredictorConfig{
		Strategy: strategy,
		Catalog:  e.catalog,
		Tracker:  e.tracker,
	})

	return e, nil
}

// Close flushes pending events and releases the database. Safe to call twice.
func (e *env) Close() {
	if e.closed {
		return
	}
	e.closed = true

	ctx, cancel := context.WithTimeout(context.Background(), service.TableFetchTimeout)
	defer cancel()

	if err := e.tracker.Close(ctx); err != nil {
		slog.Warn("analytics: flushing events", "err", err)
	}
	if e.db != nil {
		e.db.Close()
	}
	e.closeLog()
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Load()
	}
	cfg, err := config.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("invalid --log-level %q", s)
	}
	return level, nil
}

func openLogFile() (*os.File, error) {
	dir, err := config.GetConfigDir()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(dir, logFileName), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	return f, nil
}

// parseRequest turns --distance and --time flags into a request
func parseRequest(distance, clock string) (service.Request, error) {
	h, m, s, err := analysis.ParseClock(clock)
	if err != nil {
		return service.Request{}, fmt.Errorf("--time: %w", err)
	}
	return service.Request{
		Hours:    float64(h),
		Minutes:  float64(m),
		Seconds:  float64(s),
		Distance: normalizeDistance(distance),
	}, nil
}

// normalizeDistance accepts distance keys case-insensitively
func normalizeDistance(s string) string {
	s = strings.TrimSpace(s)
	for _, d := range analysis.ExtendedCatalog {
		if strings.EqualFold(string(d), s) {
			return string(d)
		}
	}
	return s
}

func runTUI(ctx context.Context, opts *options, prefill *service.Request) error {
	e, err := setup(opts, nil)
	if err != nil {
		return err
	}
	defer e.Close()

	app := tui.NewApp(tui.AppConfig{
		Tables:      e.source,
		Predictor:   e.predictor,
		Tracker:     e.tracker,
		Units:       tui.NewUnits(e.cfg.Display),
		ResultDelay: e.cfg.ResultDelay(),
		Prefill:     prefill,
	})
	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx))

	if e.cfg.Table.Watch {
		watchCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		go func() {
			err := e.source.Watch(watchCtx, func(t *analysis.Table, err error) {
				p.Send(tui.TableReloadedMsg{Table: t, Err: err})
			})
			if err != nil {
				slog.Error("table: watch stopped", "err", err)
			}
		}()
	}

	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("running TUI: %w", err)
	}
	return nil
}
