// Package config loads the decomposition engine's YAML configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/TomaszSorobka/CSRP-graphs/pkg/solver"
	"github.com/TomaszSorobka/CSRP-graphs/pkg/source"
	"github.com/TomaszSorobka/CSRP-graphs/pkg/split"
	"github.com/TomaszSorobka/CSRP-graphs/pkg/validation"
)

// Optimizer kinds.
const (
	OptimizerCapacity = "capacity"
	OptimizerRemote   = "remote"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the root of the YAML document.
type Config struct {
	Split     SplitConfig     `yaml:"split"`
	Driver    DriverConfig    `yaml:"driver"`
	Optimizer OptimizerConfig `yaml:"optimizer"`
	Source    source.S3Config `yaml:"source"`
	Logging   LoggingConfig   `yaml:"logging"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// SplitConfig tunes split search and its cost function.
type SplitConfig struct {
	MaxDeletions     int     `yaml:"max_deletions" validate:"min=1,max=8"`
	Alpha            float64 `yaml:"alpha" validate:"gt=0,lt=0.5"`
	PenaltyWeight    float64 `yaml:"penalty_weight" validate:"min=0"`
	RepetitionWeight float64 `yaml:"repetition_weight" validate:"min=0"`
	Workers          int     `yaml:"workers" validate:"min=1"`
	Strategy         string  `yaml:"strategy" validate:"oneof=exhaustive greedy"`
}

// DriverConfig bounds the solve-or-split loop.
type DriverConfig struct {
	MaxIterations   int           `yaml:"max_iterations" validate:"min=1"`
	EscalationLimit int           `yaml:"escalation_limit" validate:"min=0"`
	SolveTimeout    time.Duration `yaml:"solve_timeout"`
}

// OptimizerConfig selects the downstream optimizer.
type OptimizerConfig struct {
	Kind        string        `yaml:"kind" validate:"oneof=capacity remote"`
	Dimensions  int           `yaml:"dimensions"`
	MaxEntities int           `yaml:"max_entities"`
	Address     string        `yaml:"address"`
	Timeout     time.Duration `yaml:"timeout"`
}

// LoggingConfig sets the log level name (debug, info, warn, error).
type LoggingConfig struct {
	Level string `yaml:"level" validate:"oneof=debug info warn error DEBUG INFO WARN ERROR"`
}

// MetricsConfig exposes Prometheus metrics on Addr when Enabled.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// Default returns the built-in configuration.
func Default() *Config {
	so := split.DefaultOptions()
	return &Config{
		Split: SplitConfig{
			MaxDeletions:     3,
			Alpha:            so.Alpha,
			PenaltyWeight:    so.PenaltyWeight,
			RepetitionWeight: so.RepetitionWeight,
			Workers:          runtime.GOMAXPROCS(0),
			Strategy:         split.StrategyExhaustive,
		},
		Driver: DriverConfig{
			MaxIterations:   10000,
			EscalationLimit: 2,
		},
		Optimizer: OptimizerConfig{
			Kind:       OptimizerCapacity,
			Dimensions: 4,
			Timeout:    solver.DefaultTimeout,
		},
		Logging: LoggingConfig{Level: "info"},
		Metrics: MetricsConfig{Addr: ":9090"},
	}
}

// Load reads path over the defaults; fields missing from the file keep their
// default values. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, cfg.Validate()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := Parse(data, cfg); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML into cfg and validates the result.
func Parse(data []byte, cfg *Config) error {
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return cfg.Validate()
}

// Validate checks field ranges and cross-field rules.
func (c *Config) Validate() error {
	if err := validation.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	v := validation.NewConfigValidator("Config")
	v.OpenRangeFloat("split.alpha", c.Split.Alpha, 0, 0.5).
		RangeInt("split.max_deletions", c.Split.MaxDeletions, 1, 8).
		NonNegative("driver.escalation_limit", c.Driver.EscalationLimit).
		NonNegativeDuration("driver.solve_timeout", c.Driver.SolveTimeout)

	v.When(c.Optimizer.Kind == OptimizerCapacity, func(cv *validation.ConfigValidator) {
		cv.Positive("optimizer.dimensions", c.Optimizer.Dimensions).
			NonNegative("optimizer.max_entities", c.Optimizer.MaxEntities)
	})
	v.When(c.Optimizer.Kind == OptimizerRemote, func(cv *validation.ConfigValidator) {
		cv.Required("optimizer.address", c.Optimizer.Address).
			NonNegativeDuration("optimizer.timeout", c.Optimizer.Timeout)
	})
	v.When(c.Metrics.Enabled, func(cv *validation.ConfigValidator) {
		cv.Required("metrics.addr", c.Metrics.Addr)
	})

	if err := v.Validate(); err != nil {
		return errors.Join(ErrInvalidConfig, err)
	}
	return nil
}

// SplitOptions converts the split section to search options. Logger and
// Metrics are left for the caller.
func (c *Config) SplitOptions() split.Options {
	return split.Options{
		Alpha:            c.Split.Alpha,
		PenaltyWeight:    c.Split.PenaltyWeight,
		RepetitionWeight: c.Split.RepetitionWeight,
		Workers:          c.Split.Workers,
		Strategy:         c.Split.Strategy,
	}
}
