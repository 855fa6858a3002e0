// Package config loads the optional TOML configuration file. Command line flags
// override the values read from it.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Data      DataConfig      `toml:"data"`      // Index data files
	Server    ServerConfig    `toml:"server"`    // HTTP server settings
	Remote    RemoteConfig    `toml:"remote"`    // Remote airports service used for place lookups
	Telemetry TelemetryConfig `toml:"telemetry"` // OpenTelemetry export
	Logging   LoggingConfig   `toml:"logging"`   // Application logging settings
}

type DataConfig struct {
	Airports string `toml:"airports"` // Airport locations file, optionally .zst compressed
	Cities   string `toml:"cities"`   // Fixed-width places file, optionally .zst compressed
	Progress bool   `toml:"progress"` // Show a progress bar while loading
}

type ServerConfig struct {
	Listen string `toml:"listen"` // Address to listen on, e.g. ":8080"
}

type RemoteConfig struct {
	Airports string        `toml:"airports"` // Base URL of another instance serving airports
	Timeout  time.Duration `toml:"timeout"`  // Request timeout, e.g. "2s"
}

type TelemetryConfig struct {
	Endpoint string `toml:"endpoint"` // OTLP http endpoint, empty uses OTEL_* environment variables
}

type LoggingConfig struct {
	Level string `toml:"level"` // "debug", "info", "warn" or "error"
}

func Default() Config {
	return Config{
		Server:  ServerConfig{Listen: ":8080"},
		Remote:  RemoteConfig{Timeout: 5 * time.Second},
		Logging: LoggingConfig{Level: "info"},
	}
}

// Load reads the config file at path over the defaults.
func Load(path string) (*Config, error) {
	config := Default()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", path)
	}

	md, err := toml.DecodeFile(path, &config)
	if err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("unknown config keys: %s", strings.Join(keys, ", "))
	}

	return &config, nil
}

// Validate checks the settings needed to serve queries.
func (c *Config) Validate() error {
	if c.Data.Airports == "" && c.Data.Cities == "" {
		return errors.New("at least one of data.airports or data.cities is required")
	}
	if c.Data.Airports != "" && c.Remote.Airports != "" {
		return errors.New("data.airports and remote.airports are mutually exclusive")
	}
	if c.Remote.Airports != "" && c.Data.Cities == "" {
		return errors.New("remote.airports requires data.cities")
	}
	if c.Remote.Timeout <= 0 {
		return fmt.Errorf("remote.timeout must be positive, got %s", c.Remote.Timeout)
	}
	if _, err := c.Logging.SlogLevel(); err != nil {
		return err
	}
	return nil
}

func (c LoggingConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Level)); err != nil {
		return level, fmt.Errorf("invalid logging.level %q: %w", c.Level, err)
	}
	return level, nil
}
