package main

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"racepredictor/internal/analysis"
	"racepredictor/internal/auth"
	"racepredictor/internal/config"
	"racepredictor/internal/service"
	"racepredictor/internal/store"
	"racepredictor/internal/strava"
	"racepredictor/internal/tui"
)

func newPredictCmd(opts *options) *cobra.Command {
	var distance, clock string

	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Predict times for every other distance from one race result",
		Example: "  racepredictor predict --distance 5K --time 19:57\n" +
			"  racepredictor predict -d M -t 3:29:30",
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := parseRequest(distance, clock)
			if err != nil {
				return err
			}

			e, err := setup(opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer e.Close()

			if _, err := e.source.Load(cmd.Context()); err != nil {
				return err
			}
			return printPrediction(cmd, e, req)
		},
	}

	cmd.Flags().StringVarP(&distance, "distance", "d", "", "race distance (1500, Mile, 5K, 10K, 15K, HM, M)")
	cmd.Flags().StringVarP(&clock, "time", "t", "", "race time as HH:MM:SS, MM:SS or SS")
	cmd.MarkFlagRequired("distance")
	cmd.MarkFlagRequired("time")

	return cmd
}

func printPrediction(cmd *cobra.Command, e *env, req service.Request) error {
	result, err := e.predictor.Predict(req)
	var validationErr *service.ValidationError
	if errors.As(err, &validationErr) {
		for _, msg := range validationErr.Messages {
			fmt.Fprintln(cmd.ErrOrStderr(), "  -", msg)
		}
		return errors.New("invalid race result")
	}
	if err != nil {
		return err
	}

	units := tui.NewUnits(e.cfg.Display)
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, tui.RenderSummary(result, units))
	fmt.Fprintln(out)
	fmt.Fprint(out, tui.RenderPredictionTable(result, units))
	return nil
}

func newTableCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "table [source]",
		Short: "Load and check a VDOT table (embedded, file path or URL)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer e.Close()

			source := e.source
			if len(args) == 1 {
				source = service.NewTableSource(args[0], e.tracker)
			}

			_, loadErr := source.Load(cmd.Context())
			st := source.Status()

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "Source:\t%s\n", st.Source)
			if st.Loaded {
				fmt.Fprintf(w, "VDOT range:\t%d - %d\n", st.MinVDOT, st.MaxVDOT)
				fmt.Fprintf(w, "Distances:\t%s\n", joinDistances(st.Distances))
				fmt.Fprintf(w, "Loaded:\t%s\n", humanize.Time(st.LoadedAt))
			}
			if st.LastError != nil {
				fmt.Fprintf(w, "Error:\t%v\n", st.LastError)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			return loadErr
		},
	}
}

func joinDistances(ds []analysis.Distance) string {
	parts := make([]string, len(ds))
	for i, d := range ds {
		parts[i] = string(d)
	}
	return strings.Join(parts, ", ")
}

func newStravaCmd(opts *options) *cobra.Command {
	var limit int
	var interactive bool

	cmd := &cobra.Command{
		Use:   "strava",
		Short: "Predict from your most recent race on Strava",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer e.Close()

			if err := e.cfg.ValidateStrava(); err != nil {
				path, _ := config.GetConfigDir()
				return fmt.Errorf("%w (edit %s/config.json)", err, path)
			}

			ctx := cmd.Context()
			ts, err := auth.Connect(ctx, auth.Config{
				ClientID:     e.cfg.Strava.ClientID,
				ClientSecret: e.cfg.Strava.ClientSecret,
			}, e.db, cmd.ErrOrStderr())
			if err != nil {
				return fmt.Errorf("connecting to Strava: %w", err)
			}

			importer := service.NewRaceImporter(strava.NewClient(ts), e.catalog, e.db, e.tracker)
			races, err := importer.RecentRaces(ctx, limit)
			if err != nil {
				return err
			}

			race, ok := service.Best(races)
			if !ok {
				return fmt.Errorf("no recent runs match a supported distance (%s)", joinDistances(e.catalog))
			}

			printRaces(cmd, races, race.ActivityID)

			last, err := importer.LastImported()
			if err != nil {
				slog.Warn("strava: reading last import", "err", err)
			} else if last == race.ActivityID {
				fmt.Fprintln(cmd.OutOrStdout(), "\nNo new race since the last import.")
			}

			if err := importer.MarkImported(race); err != nil {
				return err
			}

			req := race.Request()
			if interactive {
				e.Close()
				return runTUI(ctx, opts, &req)
			}

			if _, err := e.source.Load(ctx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout())
			return printPrediction(cmd, e, req)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", service.DefaultRaceLimit, "number of recent matching runs to list")
	cmd.Flags().BoolVar(&interactive, "tui", false, "open the interactive predictor with the race filled in")

	cmd.AddCommand(&cobra.Command{
		Use:   "logout",
		Short: "Forget the stored Strava session",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer e.Close()

			if err := e.db.DeleteAuth(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Strava session removed.")
			return nil
		},
	})

	return cmd
}

func printRaces(cmd *cobra.Command, races []service.ImportedRace, chosen int64) {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "\tDate\tName\tDistance\tTime\tRace")
	for _, r := range races {
		marker := ""
		if r.ActivityID == chosen {
			marker = "*"
		}
		tagged := ""
		if r.Race {
			tagged = "yes"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			marker,
			humanize.Time(r.Date),
			r.Name,
			r.Distance.Label(),
			analysis.FormatSeconds(r.Seconds),
			tagged,
		)
	}
	w.Flush()
}

func newEventsCmd(opts *options) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "events",
		Short: "Show recorded usage events",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer e.Close()

			counts, err := e.db.EventCounts()
			if err != nil {
				return err
			}
			events, err := e.db.RecentEvents(limit)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "Event\tCategory\tCount")
			for _, c := range counts {
				fmt.Fprintf(w, "%s\t%s\t%s\n", c.Name, c.Category, humanize.Comma(int64(c.Count)))
			}
			fmt.Fprintln(w)
			fmt.Fprintln(w, "When\tEvent\tLabel\tParams")
			for _, ev := range events {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", humanize.Time(ev.OccurredAt), ev.Name, ev.Label, formatParams(ev))
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of recent events to show")

	return cmd
}

func formatParams(ev store.EventRecord) string {
	if len(ev.Params) == 0 {
		return ""
	}
	parts := make([]string, 0, len(ev.Params))
	for k, v := range ev.Params {
		parts = append(parts, fmt.Sprintf("%s=%v", k, v))
	}
	slices.Sort(parts)
	return strings.Join(parts, " ")
}

func newConfigCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the config file",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Write an example config to ~/.racepredictor/config.json",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, created, err := config.CreateExample()
			if err != nil {
				return fmt.Errorf("creating example config: %w", err)
			}
			if !created {
				fmt.Fprintf(cmd.OutOrStdout(), "Config already exists at:\n  %s\n", path)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created example config at:\n  %s\n\n", path)
			fmt.Fprintln(cmd.OutOrStdout(), "Add your Strava API credentials to import races.")
			fmt.Fprintln(cmd.OutOrStdout(), "Get them from: https://www.strava.com/settings/api")
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "check",
		Short: "Validate the config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts.configPath)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Config OK (strategy %s, table %s)\n",
				cfg.Prediction.Strategy, service.NewTableSource(cfg.Table.Source, nil).Describe())
			if err := cfg.ValidateStrava(); err != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "Strava import disabled: %v\n", err)
			}
			return nil
		},
	})

	return cmd
}
