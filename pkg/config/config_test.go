package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TomaszSorobka/CSRP-graphs/pkg/split"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 3, cfg.Split.MaxDeletions)
	assert.InDelta(t, 1.0/3, cfg.Split.Alpha, 1e-12)
	assert.Equal(t, 10.0, cfg.Split.PenaltyWeight)
	assert.Equal(t, 20.0, cfg.Split.RepetitionWeight)
	assert.Equal(t, 10000, cfg.Driver.MaxIterations)
	assert.Equal(t, 2, cfg.Driver.EscalationLimit)
	assert.Equal(t, OptimizerCapacity, cfg.Optimizer.Kind)
	assert.Equal(t, 4, cfg.Optimizer.Dimensions)
	assert.Equal(t, 30*time.Second, cfg.Optimizer.Timeout)
	assert.False(t, cfg.Metrics.Enabled)
}

func TestLoadKeepsDefaultsForMissingFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "decompose.yaml")
	data := `
split:
  max_deletions: 2
  strategy: greedy
optimizer:
  kind: remote
  address: tcp://127.0.0.1:5555
  timeout: 5s
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Split.MaxDeletions)
	assert.Equal(t, split.StrategyGreedy, cfg.Split.Strategy)
	assert.InDelta(t, 1.0/3, cfg.Split.Alpha, 1e-12)
	assert.Equal(t, OptimizerRemote, cfg.Optimizer.Kind)
	assert.Equal(t, 5*time.Second, cfg.Optimizer.Timeout)
	assert.Equal(t, 2, cfg.Driver.EscalationLimit)

	opts := cfg.SplitOptions()
	assert.Equal(t, split.StrategyGreedy, opts.Strategy)
	assert.NoError(t, opts.Validate())
}

func TestLoadEmptyPath(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default().Split, cfg.Split)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"alpha zero", func(c *Config) { c.Split.Alpha = 0 }},
		{"alpha half", func(c *Config) { c.Split.Alpha = 0.5 }},
		{"no deletions", func(c *Config) { c.Split.MaxDeletions = 0 }},
		{"too many deletions", func(c *Config) { c.Split.MaxDeletions = 9 }},
		{"negative escalation", func(c *Config) { c.Driver.EscalationLimit = -1 }},
		{"unknown strategy", func(c *Config) { c.Split.Strategy = "random" }},
		{"unknown optimizer", func(c *Config) { c.Optimizer.Kind = "lp" }},
		{"remote without address", func(c *Config) { c.Optimizer.Kind = OptimizerRemote }},
		{"capacity without dimensions", func(c *Config) { c.Optimizer.Dimensions = 0 }},
		{"metrics without addr", func(c *Config) { c.Metrics.Enabled = true; c.Metrics.Addr = "" }},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}
}

func TestParseRejectsBadYAML(t *testing.T) {
	err := Parse([]byte("split: [1, 2"), Default())
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
