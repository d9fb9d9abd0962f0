package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit(t *testing.T) {
	// Create a temporary config file
	tmpDir := t.TempDir()
	configFile := filepath.Join(tmpDir, "config.yaml")

	configContent := `
training:
  actors: 8
  batch_size: 64
  learning_rate: 0.001
  objective: margin
checkpoint:
  path: /tmp/run.ckpt
  interval: 60
server:
  enabled: true
  addr: ":9000"
`

	err := os.WriteFile(configFile, []byte(configContent), 0644)
	require.NoError(t, err)

	// Reset global state
	cfg = nil
	v = nil

	// Initialize config
	err = Init(configFile)
	require.NoError(t, err)

	// Test loaded values
	c := Get()
	assert.Equal(t, 8, c.Training.Actors)
	assert.Equal(t, 64, c.Training.BatchSize)
	assert.Equal(t, 0.001, c.Training.LearningRate)
	assert.Equal(t, "margin", c.Training.Objective)
	assert.Equal(t, "/tmp/run.ckpt", c.Checkpoint.Path)
	assert.Equal(t, 60, c.Checkpoint.Interval)
	assert.True(t, c.Server.Enabled)
	assert.Equal(t, ":9000", c.Server.Addr)
}

func TestInitWithDefaults(t *testing.T) {
	// Reset global state
	cfg = nil
	v = nil

	// Initialize with non-existent config (should use defaults)
	err := Init("/non/existent/path/config.yaml")
	require.NoError(t, err)

	c := Get()
	assert.Equal(t, 4, c.Training.Actors)
	assert.Equal(t, 32, c.Training.BatchSize)
	assert.Equal(t, 50, c.Training.BufferBatches)
	assert.Equal(t, "winloss", c.Training.Objective)
	assert.Equal(t, 0.9, c.Training.Momentum)
	assert.Equal(t, "checkpoints/trainer.ckpt", c.Checkpoint.Path)
	assert.False(t, c.Stats.Enabled)
	assert.Equal(t, "info", c.Logging.Level)
}

func TestEnvironmentVariables(t *testing.T) {
	// Reset global state
	cfg = nil
	v = nil

	os.Setenv("LLRL_TRAINING_ACTORS", "16")
	os.Setenv("LLRL_SERVER_ADDR", ":7070")
	defer os.Unsetenv("LLRL_TRAINING_ACTORS")
	defer os.Unsetenv("LLRL_SERVER_ADDR")

	err := Init("/non/existent/path/config.yaml")
	require.NoError(t, err)

	c := Get()
	assert.Equal(t, 16, c.Training.Actors)
	assert.Equal(t, ":7070", c.Server.Addr)
}

func TestValidateRejectsBadValues(t *testing.T) {
	base := func() *Config {
		cfg = nil
		v = nil
		require.NoError(t, Init("/non/existent/path/config.yaml"))
		return Get()
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero actors", func(c *Config) { c.Training.Actors = 0 }},
		{"negative batch", func(c *Config) { c.Training.BatchSize = -1 }},
		{"zero buffer batches", func(c *Config) { c.Training.BufferBatches = 0 }},
		{"zero learning rate", func(c *Config) { c.Training.LearningRate = 0 }},
		{"momentum of one", func(c *Config) { c.Training.Momentum = 1.0 }},
		{"epsilon above one", func(c *Config) { c.Training.Epsilon = 1.5 }},
		{"unknown objective", func(c *Config) { c.Training.Objective = "elo" }},
		{"zero skips", func(c *Config) { c.Training.MaxConsecutiveSkips = 0 }},
		{"negative stall timeout", func(c *Config) { c.Training.PushStallTimeout = -1 }},
		{"zero checkpoint interval", func(c *Config) { c.Checkpoint.Interval = 0 }},
		{"stats without dsn env", func(c *Config) { c.Stats.Enabled = true; c.Stats.DSNEnv = "" }},
		{"server without addr", func(c *Config) { c.Server.Enabled = true; c.Server.Addr = "" }},
		{"unknown log level", func(c *Config) { c.Logging.Level = "loud" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base()
			tt.mutate(c)
			assert.Error(t, Validate(c))
		})
	}
}

func TestDurationHelpers(t *testing.T) {
	cfg = nil
	v = nil
	require.NoError(t, Init("/non/existent/path/config.yaml"))

	c := Get()
	assert.Equal(t, "1m0s", c.Training.PushStallTimeoutDuration().String())
	assert.Equal(t, "5m0s", c.Checkpoint.IntervalDuration().String())
	assert.Equal(t, "30s", c.Stats.IntervalDuration().String())
}

func TestSetUpdatesStruct(t *testing.T) {
	cfg = nil
	v = nil
	require.NoError(t, Init("/non/existent/path/config.yaml"))

	Set("training.epsilon", 0.25)
	assert.Equal(t, 0.25, Get().Training.Epsilon)
}
