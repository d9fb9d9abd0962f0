package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Config holds all configuration for the trainer
type Config struct {
	Training   TrainingConfig   `mapstructure:"training"`
	Checkpoint CheckpointConfig `mapstructure:"checkpoint"`
	Stats      StatsConfig      `mapstructure:"stats"`
	Server     ServerConfig     `mapstructure:"server"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// TrainingConfig holds actor/learner pipeline settings
type TrainingConfig struct {
	Actors              int     `mapstructure:"actors"`
	BatchSize           int     `mapstructure:"batch_size"`
	BufferBatches       int     `mapstructure:"buffer_batches"`
	LearningRate        float64 `mapstructure:"learning_rate"`
	Momentum            float64 `mapstructure:"momentum"`
	Epsilon             float64 `mapstructure:"epsilon"`
	Objective           string  `mapstructure:"objective"`
	TotalFrames         uint64  `mapstructure:"total_frames"`
	MaxConsecutiveSkips int     `mapstructure:"max_consecutive_skips"`
	PushStallTimeout    int     `mapstructure:"push_stall_timeout"`
	Seed                int64   `mapstructure:"seed"`
}

// CheckpointConfig holds checkpoint persistence settings
type CheckpointConfig struct {
	Path     string `mapstructure:"path"`
	Interval int    `mapstructure:"interval"`
}

// StatsConfig holds training statistics database settings
type StatsConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	DSNEnv   string `mapstructure:"dsn_env"`
	Interval int    `mapstructure:"interval"`
	RunName  string `mapstructure:"run_name"`
}

// ServerConfig holds status endpoint settings
type ServerConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

// LoggingConfig holds log output settings
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

var (
	// Global config instance
	cfg *Config
	v   *viper.Viper
)

// setViperDefaults sets all default values using Viper's SetDefault
func setViperDefaults(v *viper.Viper) {
	// Training defaults
	v.SetDefault("training.actors", 4)
	v.SetDefault("training.batch_size", 32)
	v.SetDefault("training.buffer_batches", 50)
	v.SetDefault("training.learning_rate", 0.0001)
	v.SetDefault("training.momentum", 0.9)
	v.SetDefault("training.epsilon", 0.01)
	v.SetDefault("training.objective", "winloss")
	v.SetDefault("training.total_frames", 0)
	v.SetDefault("training.max_consecutive_skips", 100)
	v.SetDefault("training.push_stall_timeout", 60)
	v.SetDefault("training.seed", 0)

	// Checkpoint defaults
	v.SetDefault("checkpoint.path", "checkpoints/trainer.ckpt")
	v.SetDefault("checkpoint.interval", 300)

	// Stats defaults
	v.SetDefault("stats.enabled", false)
	v.SetDefault("stats.dsn_env", "DATABASE_URL")
	v.SetDefault("stats.interval", 30)
	v.SetDefault("stats.run_name", "")

	// Status server defaults
	v.SetDefault("server.enabled", false)
	v.SetDefault("server.addr", ":8090")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
}

// Init initializes the configuration
func Init(configPath string) error {
	v = viper.New()

	// Set defaults before loading any config
	setViperDefaults(v)

	// Set config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Default config locations
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/landlord-rl")
	}

	// Set environment variable prefix
	v.SetEnvPrefix("LLRL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		// If we have a specific config path and it doesn't exist, that's ok - use defaults
		if configPath != "" {
			// Specific file requested but not found - that's ok, use defaults
		} else if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			// For default locations, only ignore ConfigFileNotFoundError
			return fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; use defaults
	}

	// Unmarshal into config struct
	cfg = &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("unable to decode config into struct: %w", err)
	}

	// Validate configuration
	if err := Validate(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	return nil
}

// Get returns the global config instance
func Get() *Config {
	if cfg == nil {
		// Initialize with defaults if not already initialized
		if err := Init(""); err != nil {
			panic("failed to initialize config with defaults: " + err.Error())
		}
	}
	return cfg
}

// GetViper returns the viper instance for advanced usage
func GetViper() *viper.Viper {
	if v == nil {
		panic("config not initialized - call Init() first")
	}
	return v
}

// Set allows runtime config updates
func Set(key string, value interface{}) {
	v.Set(key, value)
	// Re-unmarshal to update struct
	v.Unmarshal(cfg)
}

// ConfigFilePath returns the path of the loaded config file
func ConfigFilePath() string {
	return v.ConfigFileUsed()
}

// WatchConfig enables hot-reloading of config file
func WatchConfig(onChange func()) {
	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		// Re-unmarshal on change
		v.Unmarshal(cfg)
		if onChange != nil {
			onChange()
		}
	})
}

// Validate validates the configuration values
func Validate(c *Config) error {
	if c.Training.Actors <= 0 {
		return fmt.Errorf("training.actors must be positive")
	}
	if c.Training.BatchSize <= 0 {
		return fmt.Errorf("training.batch_size must be positive")
	}
	if c.Training.BufferBatches <= 0 {
		return fmt.Errorf("training.buffer_batches must be positive")
	}
	if c.Training.LearningRate <= 0 {
		return fmt.Errorf("training.learning_rate must be positive")
	}
	if c.Training.Momentum < 0 || c.Training.Momentum >= 1 {
		return fmt.Errorf("training.momentum must be in [0, 1)")
	}
	if c.Training.Epsilon < 0 || c.Training.Epsilon > 1 {
		return fmt.Errorf("training.epsilon must be in [0, 1]")
	}
	if c.Training.Objective != "winloss" && c.Training.Objective != "margin" {
		return fmt.Errorf("training.objective must be winloss or margin, got %q", c.Training.Objective)
	}
	if c.Training.MaxConsecutiveSkips <= 0 {
		return fmt.Errorf("training.max_consecutive_skips must be positive")
	}
	if c.Training.PushStallTimeout < 0 {
		return fmt.Errorf("training.push_stall_timeout must be non-negative")
	}
	if c.Checkpoint.Interval <= 0 {
		return fmt.Errorf("checkpoint.interval must be positive")
	}
	if c.Stats.Enabled {
		if c.Stats.DSNEnv == "" {
			return fmt.Errorf("stats.dsn_env must be set when stats are enabled")
		}
		if c.Stats.Interval <= 0 {
			return fmt.Errorf("stats.interval must be positive")
		}
	}
	if c.Server.Enabled && c.Server.Addr == "" {
		return fmt.Errorf("server.addr must be set when the status server is enabled")
	}
	switch c.Logging.Level {
	case "trace", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of trace, debug, info, warn, error")
	}
	return nil
}

// PushStallTimeoutDuration returns the push stall timeout as a duration.
// Zero disables the stall watchdog.
func (t TrainingConfig) PushStallTimeoutDuration() time.Duration {
	return time.Duration(t.PushStallTimeout) * time.Second
}

// IntervalDuration returns the checkpoint cadence as a duration.
func (c CheckpointConfig) IntervalDuration() time.Duration {
	return time.Duration(c.Interval) * time.Second
}

// IntervalDuration returns the stats recording cadence as a duration.
func (s StatsConfig) IntervalDuration() time.Duration {
	return time.Duration(s.Interval) * time.Second
}
