package core

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "anima.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	def := DefaultConfig()
	if cfg.Window.Width != def.Window.Width || cfg.Window.Height != def.Window.Height {
		t.Fatalf("window size: got %dx%d", cfg.Window.Width, cfg.Window.Height)
	}
	if cfg.Shaders.Vertex != def.Shaders.Vertex {
		t.Fatalf("vertex shader: got %q", cfg.Shaders.Vertex)
	}
}

func TestLoadConfigOverlay(t *testing.T) {
	path := writeConfig(t, `
[window]
width = 1280
height = 720

[renderer]
present_modes = ["fifo"]
acquire_timeout = "250ms"
recreate_on_suboptimal = true

[log]
level = "debug"
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Window.Width != 1280 || cfg.Window.Height != 720 {
		t.Fatalf("window size: got %dx%d", cfg.Window.Width, cfg.Window.Height)
	}
	if len(cfg.Renderer.PresentModes) != 1 || cfg.Renderer.PresentModes[0] != "fifo" {
		t.Fatalf("present modes: got %v", cfg.Renderer.PresentModes)
	}
	if !cfg.Renderer.RecreateOnSuboptimal {
		t.Fatal("recreate_on_suboptimal not decoded")
	}
	// untouched sections keep their defaults
	if cfg.Application.Name != "Anima" {
		t.Fatalf("application name: got %q", cfg.Application.Name)
	}
	timeout, err := cfg.AcquireTimeout()
	if err != nil {
		t.Fatal(err)
	}
	if timeout != 250_000_000 {
		t.Fatalf("acquire timeout: got %d", timeout)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero width", func(c *Config) { c.Window.Width = 0 }},
		{"zero height", func(c *Config) { c.Window.Height = 0 }},
		{"no vertex shader", func(c *Config) { c.Shaders.Vertex = "" }},
		{"no fragment shader", func(c *Config) { c.Shaders.Fragment = "" }},
		{"bad log level", func(c *Config) { c.Log.Level = "chatty" }},
		{"bad timeout", func(c *Config) { c.Renderer.AcquireTimeout = "soon" }},
		{"negative timeout", func(c *Config) { c.Renderer.AcquireTimeout = "-1s" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("got %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestLoadConfigRejectsMalformedFile(t *testing.T) {
	path := writeConfig(t, "[window\nwidth = ")
	if _, err := LoadConfig(path); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("got %v, want ErrInvalidConfig", err)
	}
}

func TestAcquireTimeoutUnbounded(t *testing.T) {
	cfg := DefaultConfig()
	timeout, err := cfg.AcquireTimeout()
	if err != nil {
		t.Fatal(err)
	}
	if timeout != math.MaxUint64 {
		t.Fatalf("got %d, want MaxUint64", timeout)
	}
}

func TestParseLogLevel(t *testing.T) {
	for in, want := range map[string]LogLevel{
		"debug":   DebugLevel,
		"INFO":    InfoLevel,
		"":        InfoLevel,
		"warning": WarnLevel,
		"error":   ErrorLevel,
	} {
		got, err := ParseLogLevel(in)
		if err != nil {
			t.Fatalf("ParseLogLevel(%q): %v", in, err)
		}
		if got != want {
			t.Fatalf("ParseLogLevel(%q) = %d, want %d", in, got, want)
		}
	}
}
