package application

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Package-level validator instance for configuration validation.
// Uses go-playground/validator v10 for struct tag-based validation.
var validate = validator.New()

// Config defines the host-facing configuration for running the contest
// engine: where state and roster data live, where metrics are served, and
// how aggressively mutating operations may be invoked.
type Config struct {
	// DataFile is the path of the persisted engine state snapshot: a
	// JSON file for the file backend, a database file for sqlite.
	DataFile string `yaml:"data_file" validate:"required"`

	// Backend selects the persistence gateway implementation.
	Backend string `yaml:"backend" validate:"omitempty,oneof=file sqlite"`

	// RosterFile is the path of the entity roster file.
	RosterFile string `yaml:"roster_file" validate:"required"`

	// MetricsAddr is the listen address for the Prometheus endpoint in
	// serve mode, e.g. ":9090". Empty disables the endpoint.
	MetricsAddr string `yaml:"metrics_addr" validate:"omitempty,hostname_port"`

	// Throttle bounds the rate of mutating operations when the hosting
	// environment is concurrent.
	Throttle ThrottleConfig `yaml:"throttle"`

	// LogLevel selects the zap logging level.
	LogLevel string `yaml:"log_level" validate:"omitempty,oneof=debug info warn error"`
}

// ThrottleConfig bounds the sustained rate and burst of mutating
// operations. The zero value disables throttling.
type ThrottleConfig struct {
	// PerSecond is the sustained number of mutating operations allowed
	// per second. Zero disables throttling.
	PerSecond float64 `yaml:"per_second" validate:"min=0,max=1000"`

	// Burst allows temporary spikes above the sustained rate.
	Burst int `yaml:"burst" validate:"min=0,max=1000"`
}

// DefaultConfig returns a Config with working local-file defaults.
func DefaultConfig() Config {
	return Config{
		DataFile:   "podium_state.json",
		Backend:    "file",
		RosterFile: "roster.yaml",
		LogLevel:   "info",
	}
}

// LoadConfig reads and validates a YAML configuration file. Fields absent
// from the file keep their DefaultConfig values.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := validate.Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}
