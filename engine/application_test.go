package engine

import (
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/spaghettifunk/anima/engine/core"
	"github.com/spaghettifunk/anima/engine/renderer/gpu"
)

func TestNewApplicationConfig(t *testing.T) {
	cfg := core.DefaultConfig()
	cfg.Application.Name = "test"
	cfg.Window.Width, cfg.Window.Height = 1024, 768
	cfg.Renderer.PresentModes = []string{"immediate", "FIFO"}
	cfg.Renderer.AcquireTimeout = "250ms"
	cfg.Renderer.RecreateOnSuboptimal = true
	cfg.Shaders.Watch = true
	cfg.Log.Level = "debug"

	app, err := NewApplicationConfig(cfg)
	if err != nil {
		t.Fatalf("NewApplicationConfig: %v", err)
	}
	if app.Name != "test" || app.StartWidth != 1024 || app.StartHeight != 768 {
		t.Fatalf("window settings not carried over: %+v", app)
	}
	if app.LogLevel != core.DebugLevel {
		t.Fatalf("log level: got %v", app.LogLevel)
	}
	if !app.WatchShaders {
		t.Fatal("shader watching not carried over")
	}
	want := []gpu.PresentMode{gpu.PresentModeImmediate, gpu.PresentModeFifo}
	if !reflect.DeepEqual(app.Renderer.PresentModes, want) {
		t.Fatalf("present modes: got %v, want %v", app.Renderer.PresentModes, want)
	}
	if app.Renderer.AcquireTimeout != 250_000_000 {
		t.Fatalf("acquire timeout: got %d", app.Renderer.AcquireTimeout)
	}
	if !app.Renderer.RecreateOnSuboptimal {
		t.Fatal("suboptimal policy not carried over")
	}
	if app.Renderer.VertexShader != cfg.Shaders.Vertex || app.Renderer.FragmentShader != cfg.Shaders.Fragment {
		t.Fatalf("shader paths not carried over: %+v", app.Renderer)
	}
}

func TestNewApplicationConfigUnboundedTimeout(t *testing.T) {
	app, err := NewApplicationConfig(core.DefaultConfig())
	if err != nil {
		t.Fatalf("NewApplicationConfig: %v", err)
	}
	if app.Renderer.AcquireTimeout != math.MaxUint64 {
		t.Fatalf("acquire timeout: got %d, want unbounded", app.Renderer.AcquireTimeout)
	}
}

func TestNewApplicationConfigRejects(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*core.Config)
	}{
		{"unknown present mode", func(c *core.Config) { c.Renderer.PresentModes = []string{"vsync"} }},
		{"bad timeout", func(c *core.Config) { c.Renderer.AcquireTimeout = "soon" }},
		{"bad log level", func(c *core.Config) { c.Log.Level = "loud" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := core.DefaultConfig()
			tt.modify(cfg)
			if _, err := NewApplicationConfig(cfg); !errors.Is(err, core.ErrInvalidConfig) {
				t.Fatalf("got %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestNewRequiresApplicationConfig(t *testing.T) {
	if _, err := New(nil); err == nil {
		t.Fatal("New(nil) succeeded")
	}
	if _, err := New(&Game{}); err == nil {
		t.Fatal("New without application config succeeded")
	}
}
