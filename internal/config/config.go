package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v9"
)

// Overdue sweep policies.
const (
	PolicyFail       = "fail"
	PolicyReactivate = "reactivate"
)

// Config keeps runtime settings for the tracker.
type Config struct {
	DatabaseURL   string        `env:"DATABASE_URL" envDefault:"tasktracker.db"`
	HTTPAddr      string        `env:"HTTP_ADDR" envDefault:":8080"`
	Timezone      string        `env:"TIMEZONE" envDefault:"Local"`
	SweepInterval time.Duration `env:"SWEEP_INTERVAL" envDefault:"5m"`
	OverduePolicy string        `env:"OVERDUE_POLICY" envDefault:"fail"`
	RolloverTime  string        `env:"ROLLOVER_TIME" envDefault:"00:05"`
	LogLevel      string        `env:"LOG_LEVEL" envDefault:"info"`
}

// Load reads configuration from environment variables with sane defaults.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}

	switch cfg.OverduePolicy {
	case PolicyFail, PolicyReactivate:
	default:
		return cfg, fmt.Errorf("OVERDUE_POLICY must be %q or %q, got %q", PolicyFail, PolicyReactivate, cfg.OverduePolicy)
	}

	if cfg.RolloverTime != "" {
		if err := checkClockTime(cfg.RolloverTime); err != nil {
			return cfg, fmt.Errorf("ROLLOVER_TIME: %w", err)
		}
	}

	if _, err := cfg.Location(); err != nil {
		return cfg, fmt.Errorf("TIMEZONE: %w", err)
	}

	return cfg, nil
}

// Location resolves the configured time zone used for local-day windows.
func (c Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}

func checkClockTime(raw string) error {
	parts := strings.Split(raw, ":")
	if len(parts) != 2 {
		return fmt.Errorf("invalid time %q, expected HH:MM", raw)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return fmt.Errorf("invalid hour in %q", raw)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return fmt.Errorf("invalid minute in %q", raw)
	}
	return nil
}
