package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/cleared-dev/reconcile/internal/match"
)

// FileName is the config file at the workspace root.
const FileName = "reconcile.yaml"

// Config represents the top-level reconcile.yaml configuration.
type Config struct {
	Matching MatchingConfig `yaml:"matching"`
	Output   OutputConfig   `yaml:"output"`
	Logging  LoggingConfig  `yaml:"logging"`
	Git      GitConfig      `yaml:"git"`
}

// MatchingConfig tunes the proximity and amount strategies.
type MatchingConfig struct {
	DateWindowDays  int     `yaml:"date_window_days"`
	AmountTolerance float64 `yaml:"amount_tolerance"`
	MinScore        float64 `yaml:"min_score"`
}

// OutputConfig controls where match files are written.
type OutputConfig struct {
	Dir string `yaml:"dir"` // relative to the workspace root
}

// LoggingConfig selects the slog level and handler.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
}

// GitConfig controls committing run output when the workspace is a git repo.
type GitConfig struct {
	AutoCommit  bool   `yaml:"auto_commit"`
	AuthorName  string `yaml:"author_name"`
	AuthorEmail string `yaml:"author_email"`
}

// Load reads a reconcile.yaml file from disk. Keys absent from the file keep
// their default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// LoadOrDefault is Load, except that a missing file yields Default.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with the matcher's standard settings.
func Default() *Config {
	opts := match.DefaultOptions()
	tol, _ := opts.Tolerance.Float64()
	return &Config{
		Matching: MatchingConfig{
			DateWindowDays:  opts.DateWindowDays,
			AmountTolerance: tol,
			MinScore:        opts.MinScore,
		},
		Output: OutputConfig{
			Dir: "results",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Git: GitConfig{
			AutoCommit:  true,
			AuthorName:  "Reconcile",
			AuthorEmail: "reconcile@cleared.dev",
		},
	}
}

// Validate rejects settings the matcher cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.Matching.DateWindowDays < 0:
		return fmt.Errorf("matching.date_window_days must not be negative, got %d", c.Matching.DateWindowDays)
	case c.Matching.AmountTolerance < 0:
		return fmt.Errorf("matching.amount_tolerance must not be negative, got %g", c.Matching.AmountTolerance)
	case c.Matching.MinScore < 0:
		return fmt.Errorf("matching.min_score must not be negative, got %g", c.Matching.MinScore)
	case c.Output.Dir == "":
		return errors.New("output.dir is required")
	}
	return nil
}

// MatchOptions converts the matching section into matcher options.
func (c *Config) MatchOptions() match.Options {
	return match.Options{
		DateWindowDays: c.Matching.DateWindowDays,
		Tolerance:      decimal.NewFromFloat(c.Matching.AmountTolerance),
		MinScore:       c.Matching.MinScore,
	}
}
