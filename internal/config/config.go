package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/livespiff/livespiffd/internal/run"
)

// Config holds daemon settings. Values come from the YAML config file (if
// present) and can be overridden with LIVESPIFF_* environment variables.
type Config struct {
	// Listen is the RPC endpoint, either "unix:///path/to.sock" or
	// "tcp://host:port".
	Listen string `yaml:"listen"`

	// RunFile, if set, is a run definition loaded at startup. A load failure
	// keeps the built-in default run and is not fatal.
	RunFile string `yaml:"run_file"`

	// StreamIntervalMs is the push interval for the websocket state stream.
	StreamIntervalMs int `yaml:"stream_interval_ms"`

	LogLevel string `yaml:"log_level"`
}

// DefaultSocketPath returns the well-known endpoint the front-end expects,
// preferring the user's runtime directory.
func DefaultSocketPath() string {
	base := os.Getenv("XDG_RUNTIME_DIR")
	if base == "" {
		base = os.TempDir()
	}
	return filepath.Join(base, "livespiff", "livespiffd.sock")
}

// DefaultPath returns the default config file location
// (~/.config/livespiff/daemon.yaml).
func DefaultPath() string {
	dir, err := run.ConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "daemon.yaml")
}

func defaults() *Config {
	return &Config{
		Listen:           "unix://" + DefaultSocketPath(),
		StreamIntervalMs: 100,
		LogLevel:         "info",
	}
}

// Load reads the config file at path (the default location when path is
// empty), then applies environment overrides. A missing file is fine; a
// malformed one is an error.
func Load(path string) (*Config, error) {
	cfg := defaults()

	if path == "" {
		path = DefaultPath()
	}
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// No config file, defaults apply.
		case err != nil:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	cfg.Listen = getEnv("LIVESPIFF_LISTEN", cfg.Listen)
	cfg.RunFile = getEnv("LIVESPIFF_RUN_FILE", cfg.RunFile)
	cfg.StreamIntervalMs = getEnvAsInt("LIVESPIFF_STREAM_INTERVAL_MS", cfg.StreamIntervalMs)
	cfg.LogLevel = getEnv("LIVESPIFF_LOG_LEVEL", cfg.LogLevel)

	if cfg.StreamIntervalMs < 1 {
		cfg.StreamIntervalMs = 100
	}
	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
