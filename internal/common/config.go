package common

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Environment string           `toml:"environment"` // "development" or "production"
	Server      ServerConfig     `toml:"server"`
	Storage     StorageConfig    `toml:"storage"`
	Logging     LoggingConfig    `toml:"logging"`
	Jobs        JobsConfig       `toml:"jobs"`
	Monitoring  MonitoringConfig `toml:"monitoring"`
}

type ServerConfig struct {
	Port int    `toml:"port"`
	Host string `toml:"host"`
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path"`             // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup for clean test runs
}

type LoggingConfig struct {
	Level      string   `toml:"level"`       // "debug", "info", "warn", "error"
	Output     []string `toml:"output"`      // "stdout", "file"
	TimeFormat string   `toml:"time_format"` // Time format for logs
}

// JobsConfig contains configuration for job definitions and parameter storage
type JobsConfig struct {
	DefinitionsDir string `toml:"definitions_dir"` // Directory containing job definition files (TOML)

	// ExternalParameterStorage enables the parameter set store. Job types
	// declaring external parameters fail at creation when this is off.
	ExternalParameterStorage bool `toml:"external_parameter_storage"`
}

// MonitoringConfig contains configuration for status aggregation
type MonitoringConfig struct {
	BatchProgressTimeout string  `toml:"batch_progress_timeout"` // e.g. "5s" - time box for batch progress queries
	EngineReadRate       float64 `toml:"engine_read_rate"`       // engine reads per second during chain/progress fan-out (0 = unlimited)
	EngineReadBurst      int     `toml:"engine_read_burst"`      // burst size for engine read throttling
}

// BatchProgressTimeoutDuration parses the configured time box, defaulting to 5s.
func (m *MonitoringConfig) BatchProgressTimeoutDuration() time.Duration {
	d, err := time.ParseDuration(m.BatchProgressTimeout)
	if err != nil || d <= 0 {
		return 5 * time.Second
	}
	return d
}

// NewDefaultConfig returns a config with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port: 8085,
			Host: "localhost",
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data/jobctl",
			},
		},
		Logging: LoggingConfig{
			Level:      "info",
			Output:     []string{"stdout"},
			TimeFormat: "15:04:05",
		},
		Jobs: JobsConfig{
			DefinitionsDir:           "./definitions",
			ExternalParameterStorage: true,
		},
		Monitoring: MonitoringConfig{
			BatchProgressTimeout: "5s",
			EngineReadRate:       0,
			EngineReadBurst:      1,
		},
	}
}

// LoadFromFiles loads configuration with priority: defaults -> file1 -> file2 -> ... -> env.
// Later files override earlier files.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("JOBCTL_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	if port := os.Getenv("JOBCTL_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("JOBCTL_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}

	if path := os.Getenv("JOBCTL_BADGER_PATH"); path != "" {
		config.Storage.Badger.Path = path
	}

	if level := os.Getenv("JOBCTL_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if dir := os.Getenv("JOBCTL_DEFINITIONS_DIR"); dir != "" {
		config.Jobs.DefinitionsDir = dir
	}

	if timeout := os.Getenv("JOBCTL_BATCH_PROGRESS_TIMEOUT"); timeout != "" {
		config.Monitoring.BatchProgressTimeout = timeout
	}
}

// ApplyFlagOverrides applies command-line flag overrides to config
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port > 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}
