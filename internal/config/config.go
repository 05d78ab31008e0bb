package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Config represents the application configuration
type Config struct {
	Table      TableConfig      `json:"table"`
	Prediction PredictionConfig `json:"prediction"`
	Display    DisplayConfig    `json:"display"`
	Analytics  AnalyticsConfig  `json:"analytics"`
	Strava     StravaConfig     `json:"strava"`
}

// TableConfig selects where the VDOT table comes from
type TableConfig struct {
	// Source is empty for the bundled table, or a file path or http(s) URL
	Source string `json:"source"`
	Watch  bool   `json:"watch"`
}

// PredictionConfig holds prediction behavior settings
type PredictionConfig struct {
	Strategy          string `json:"strategy"`
	ExtendedDistances bool   `json:"extended_distances"`
	ResultDelayMS     int    `json:"result_delay_ms"`
}

// DisplayConfig holds display preferences
type DisplayConfig struct {
	DistanceUnit string `json:"distance_unit"`
	PaceUnit     string `json:"pace_unit"`
}

// AnalyticsConfig controls the local usage event log
type AnalyticsConfig struct {
	Enabled     bool   `json:"enabled"`
	Database    string `json:"database"`
	MetricsFile string `json:"metrics_file"`
	LogEvents   bool   `json:"log_events"`
}

// StravaConfig holds Strava API credentials
type StravaConfig struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
}

// ErrNoConfig is returned when the config file doesn't exist
var ErrNoConfig = errors.New("config file not found")

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		Prediction: PredictionConfig{
			Strategy:      "nearest",
			ResultDelayMS: 2000,
		},
		Display: DisplayConfig{
			DistanceUnit: "km",
			PaceUnit:     "min/km",
		},
		Analytics: AnalyticsConfig{
			Enabled: true,
		},
	}
}

// ResultDelay returns the simulated delay shown before results
func (c *Config) ResultDelay() time.Duration {
	return time.Duration(c.Prediction.ResultDelayMS) * time.Millisecond
}

// DatabasePath returns the sqlite path for the event log and Strava tokens
func (c *Config) DatabasePath() (string, error) {
	if c.Analytics.Database != "" {
		return c.Analytics.Database, nil
	}
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "data.db"), nil
}

// Load reads the configuration from ~/.racepredictor/config.json.
// A missing file yields the defaults.
func Load() (*Config, error) {
	path, err := getConfigPath()
	if err != nil {
		return nil, err
	}

	cfg, err := LoadFile(path)
	if errors.Is(err, ErrNoConfig) {
		defaults := DefaultConfig()
		return &defaults, nil
	}
	return cfg, err
}

// LoadFile reads the configuration from path, returning ErrNoConfig if
// the file doesn't exist
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, ErrNoConfig
	}
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Decode over the defaults so omitted booleans keep their default
	cfg := DefaultConfig()
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Apply defaults for values explicitly left empty
	defaults := DefaultConfig()
	if cfg.Prediction.Strategy == "" {
		cfg.Prediction.Strategy = defaults.Prediction.Strategy
	}
	if cfg.Display.DistanceUnit == "" {
		cfg.Display.DistanceUnit = defaults.Display.DistanceUnit
	}
	if cfg.Display.PaceUnit == "" {
		cfg.Display.PaceUnit = defaults.Display.PaceUnit
	}

	return &cfg, nil
}

// Save writes the configuration to ~/.racepredictor/config.json
func Save(cfg *Config) error {
	path, err := getConfigPath()
	if err != nil {
		return err
	}
	return SaveFile(path, cfg)
}

// SaveFile writes the configuration to path
func SaveFile(path string, cfg *Config) error {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// CreateExample creates an example config file if none exists.
// Returns the path and whether a new file was written.
func CreateExample() (string, bool, error) {
	path, err := getConfigPath()
	if err != nil {
		return "", false, err
	}

	// Check if config already exists
	if _, err := os.Stat(path); err == nil {
		return path, false, nil // Config exists, don't overwrite
	}

	example := DefaultConfig()
	example.Strava = StravaConfig{
		ClientID:     "YOUR_CLIENT_ID",
		ClientSecret: "YOUR_CLIENT_SECRET",
	}

	if err := SaveFile(path, &example); err != nil {
		return "", false, err
	}
	return path, true, nil
}

// Validate checks the prediction and display settings
func (c *Config) Validate() error {
	switch c.Prediction.Strategy {
	case "", "nearest", "fractional":
	default:
		return fmt.Errorf("prediction.strategy must be \"nearest\" or \"fractional\", got %q", c.Prediction.Strategy)
	}
	if c.Prediction.ResultDelayMS < 0 {
		return fmt.Errorf("prediction.result_delay_ms must not be negative, got %d", c.Prediction.ResultDelayMS)
	}

	// Validate display units
	if c.Display.DistanceUnit != "" && c.Display.DistanceUnit != "km" && c.Display.DistanceUnit != "mi" {
		return fmt.Errorf("display.distance_unit must be \"km\" or \"mi\", got %q", c.Display.DistanceUnit)
	}
	if c.Display.PaceUnit != "" && c.Display.PaceUnit != "min/km" && c.Display.PaceUnit != "min/mi" {
		return fmt.Errorf("display.pace_unit must be \"min/km\" or \"min/mi\", got %q", c.Display.PaceUnit)
	}

	if src := c.Table.Source; c.Table.Watch && (src == "" || isURL(src)) {
		return errors.New("table.watch requires table.source to be a file path")
	}

	return nil
}

// ValidateStrava checks the credentials needed for race import
func (c *Config) ValidateStrava() error {
	if c.Strava.ClientID == "" || c.Strava.ClientID == "YOUR_CLIENT_ID" {
		return errors.New("strava.client_id is required - get it from https://www.strava.com/settings/api")
	}
	if c.Strava.ClientSecret == "" || c.Strava.ClientSecret == "YOUR_CLIENT_SECRET" {
		return errors.New("strava.client_secret is required - get it from https://www.strava.com/settings/api")
	}
	return nil
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// getConfigPath returns the path to the config file
func getConfigPath() (string, error) {
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// GetConfigDir returns the path to the config directory
func GetConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".racepredictor"), nil
}
