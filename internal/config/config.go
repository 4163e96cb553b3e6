//-------------------------------------------------------------------------
//
// pgEdge Portfolio ETL
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package config handles configuration management for pgedge-portfolio-etl.
// Configuration is loaded from config files, then environment variables,
// then CLI flags; later sources take precedence.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/pgEdge/pgedge-portfolio-etl/internal/db"
	"github.com/pgEdge/pgedge-portfolio-etl/internal/portfolio"
)

// DateLayout is the layout of every date in configuration and flat files.
const DateLayout = "2006-01-02"

// EnvPrefix prefixes environment variable overrides, e.g.
// PMETL_WAREHOUSE_HOST for warehouse.host.
const EnvPrefix = "PMETL"

// Config holds all configuration for pgedge-portfolio-etl.
type Config struct {
	// Connection is a PostgreSQL connection URL or DSN. When set it takes
	// precedence over Warehouse.
	Connection string `mapstructure:"connection"`

	// Warehouse describes the warehouse connection field by field.
	Warehouse db.Descriptor `mapstructure:"warehouse"`

	// DataDir is the directory holding the generated flat files.
	DataDir string `mapstructure:"data_dir"`

	// LogLevel controls logging verbosity (debug, info, warn, error).
	LogLevel string `mapstructure:"log_level"`

	// Generate holds configuration for the generate subcommand.
	Generate GenerateConfig `mapstructure:"generate"`

	// Dates holds the date dimension backfill range.
	Dates DatesConfig `mapstructure:"dates"`

	// Audit holds run audit settings.
	Audit AuditConfig `mapstructure:"audit"`
}

// GenerateConfig holds configuration for synthetic data generation.
type GenerateConfig struct {
	// Seed makes generation reproducible. Must be non-zero.
	Seed uint64 `mapstructure:"seed"`

	// Portfolios is the number of portfolios to generate.
	Portfolios int `mapstructure:"portfolios"`

	// StartDate and EndDate bound the price history (inclusive, YYYY-MM-DD).
	StartDate string `mapstructure:"start_date"`
	EndDate   string `mapstructure:"end_date"`

	// HoldingsMin and HoldingsMax bound the holdings per portfolio.
	HoldingsMin int `mapstructure:"holdings_min"`
	HoldingsMax int `mapstructure:"holdings_max"`
}

// DatesConfig holds the date dimension range.
type DatesConfig struct {
	StartDate string `mapstructure:"start_date"`
	EndDate   string `mapstructure:"end_date"`
}

// AuditConfig holds run audit settings.
type AuditConfig struct {
	// StaleAfter is how long a run may stay RUNNING before it is reaped.
	StaleAfter time.Duration `mapstructure:"stale_after"`

	// ReapOnStart reaps stale runs before each pipeline run.
	ReapOnStart bool `mapstructure:"reap_on_start"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		DataDir:  filepath.Join("data", "raw"),
		Warehouse: db.Descriptor{
			Host:     "localhost",
			Port:     5432,
			Database: "portfolio_dw",
			AuthMode: db.AuthTrusted,
			SSLMode:  "prefer",
		},
		Generate: GenerateConfig{
			Seed:        42,
			Portfolios:  2000,
			StartDate:   "2024-01-01",
			EndDate:     "2026-02-20",
			HoldingsMin: 5,
			HoldingsMax: 12,
		},
		Dates: DatesConfig{
			StartDate: "2024-01-01",
			EndDate:   "2026-02-20",
		},
		Audit: AuditConfig{
			StaleAfter:  6 * time.Hour,
			ReapOnStart: true,
		},
	}
}

// envKeys are the configuration keys that may be overridden from the
// environment. DB_SERVER and DB_NAME are accepted for the warehouse host
// and database as well.
var envKeys = map[string][]string{
	"connection":            nil,
	"data_dir":              nil,
	"log_level":             nil,
	"warehouse.host":        {"DB_SERVER"},
	"warehouse.port":        nil,
	"warehouse.database":    {"DB_NAME"},
	"warehouse.user":        nil,
	"warehouse.password":    nil,
	"warehouse.auth_mode":   nil,
	"warehouse.sslmode":     nil,
	"generate.seed":         nil,
	"generate.portfolios":   nil,
	"generate.start_date":   nil,
	"generate.end_date":     nil,
	"generate.holdings_min": nil,
	"generate.holdings_max": nil,
	"dates.start_date":      nil,
	"dates.end_date":        nil,
	"audit.stale_after":     nil,
	"audit.reap_on_start":   nil,
}

// Load reads configuration from config files and the environment.
// Config file locations (in order of precedence):
// 1. Path specified by configFile parameter
// 2. ./pgedge-portfolio-etl.yaml
// 3. ~/.config/pgedge-portfolio-etl/config.yaml
func Load(configFile string) (*Config, error) {
	v := viper.New()

	// Set config name and type
	v.SetConfigName("pgedge-portfolio-etl")
	v.SetConfigType("yaml")

	// Add config paths
	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", "pgedge-portfolio-etl"))
	}

	// Use specific config file if provided
	if configFile != "" {
		v.SetConfigFile(configFile)
	}

	// Read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	if err := bindEnv(v); err != nil {
		return nil, err
	}

	// Start with defaults
	cfg := DefaultConfig()

	// Unmarshal config file and environment values
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	return cfg, nil
}

func bindEnv(v *viper.Viper) error {
	for key, aliases := range envKeys {
		name := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		args := append([]string{key, name}, aliases...)
		if err := v.BindEnv(args...); err != nil {
			return fmt.Errorf("error binding environment for %s: %w", key, err)
		}
	}
	return nil
}

// ConnString returns the warehouse connection string, preferring
// Connection over the Warehouse descriptor.
func (c *Config) ConnString() (string, error) {
	if c.Connection != "" {
		return db.NormalizeConnString(c.Connection)
	}
	return c.Warehouse.ConnString()
}

// ValidateWarehouse checks configuration required to reach the warehouse.
func (c *Config) ValidateWarehouse() error {
	if c.Connection != "" {
		return nil
	}
	return c.Warehouse.Validate()
}

// ValidateGenerate checks configuration required for generate command.
func (c *Config) ValidateGenerate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}
	if c.Generate.Seed == 0 {
		return fmt.Errorf("seed must be non-zero")
	}
	if c.Generate.Portfolios < 1 {
		return fmt.Errorf("portfolios must be at least 1")
	}
	if c.Generate.HoldingsMin < 2 {
		return fmt.Errorf("holdings_min must be at least 2")
	}
	if c.Generate.HoldingsMax < c.Generate.HoldingsMin {
		return fmt.Errorf("holdings_max must be >= holdings_min")
	}
	if c.Generate.HoldingsMax > portfolio.MaxHoldings {
		return fmt.Errorf("holdings_max must be <= %d", portfolio.MaxHoldings)
	}
	if _, _, err := c.GenerateRange(); err != nil {
		return err
	}
	return nil
}

// ValidateLoad checks configuration required for load and run commands.
func (c *Config) ValidateLoad() error {
	if err := c.ValidateWarehouse(); err != nil {
		return err
	}
	if c.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}
	if _, _, err := c.DateRange(); err != nil {
		return err
	}
	if c.Audit.StaleAfter <= 0 {
		return fmt.Errorf("audit.stale_after must be positive")
	}
	return nil
}

// GenerateRange returns the parsed price history range.
func (c *Config) GenerateRange() (time.Time, time.Time, error) {
	return parseRange("generate", c.Generate.StartDate, c.Generate.EndDate)
}

// DateRange returns the parsed date dimension range.
func (c *Config) DateRange() (time.Time, time.Time, error) {
	return parseRange("dates", c.Dates.StartDate, c.Dates.EndDate)
}

func parseRange(section, startStr, endStr string) (time.Time, time.Time, error) {
	start, err := time.Parse(DateLayout, startStr)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid %s.start_date %q: %w", section, startStr, err)
	}
	end, err := time.Parse(DateLayout, endStr)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid %s.end_date %q: %w", section, endStr, err)
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("%s.end_date must not be before start_date", section)
	}
	return start, end, nil
}
