package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, data string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
[data]
cities = "places.txt.zst"
progress = true

[remote]
airports = "http://airports:8080"
timeout = "2s"

[logging]
level = "debug"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Data.Cities != "places.txt.zst" || !cfg.Data.Progress {
		t.Fatalf("unexpected data config %+v", cfg.Data)
	}
	// defaults are kept for missing keys
	if cfg.Server.Listen != ":8080" {
		t.Fatalf("expected default listen address, got %q", cfg.Server.Listen)
	}
	if cfg.Remote.Timeout != 2*time.Second {
		t.Fatalf("unexpected timeout %s", cfg.Remote.Timeout)
	}
	if level, err := cfg.Logging.SlogLevel(); err != nil || level != slog.LevelDebug {
		t.Fatalf("unexpected level %s, %v", level, err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected validation error: %v", err)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Fatal("expected error for missing file")
	}

	if _, err := Load(writeConfig(t, "[data\nairports = 1")); err == nil {
		t.Fatal("expected decode error")
	}

	_, err := Load(writeConfig(t, "[data]\nairport = \"typo.txt\"\n"))
	if err == nil || !strings.Contains(err.Error(), "data.airport") {
		t.Fatalf("expected unknown key error, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		ok     bool
	}{
		{"airports only", func(c *Config) { c.Data.Airports = "a.txt" }, true},
		{"cities only", func(c *Config) { c.Data.Cities = "c.txt" }, true},
		{"nothing", func(c *Config) {}, false},
		{"remote and local", func(c *Config) {
			c.Data.Airports = "a.txt"
			c.Data.Cities = "c.txt"
			c.Remote.Airports = "http://remote"
		}, false},
		{"remote without cities", func(c *Config) {
			c.Data.Airports = ""
			c.Remote.Airports = "http://remote"
		}, false},
		{"bad level", func(c *Config) {
			c.Data.Airports = "a.txt"
			c.Logging.Level = "loud"
		}, false},
		{"bad timeout", func(c *Config) {
			c.Data.Airports = "a.txt"
			c.Remote.Timeout = 0
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(&cfg)
			err := cfg.Validate()
			if (err == nil) != tt.ok {
				t.Fatalf("expected ok=%v, got %v", tt.ok, err)
			}
		})
	}
}
