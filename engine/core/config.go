package core

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"runtime"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// DefaultConfigPath is the file looked up when no path is given.
const DefaultConfigPath = "anima.toml"

type Config struct {
	Application ApplicationSection `toml:"application"`
	Window      WindowSection      `toml:"window"`
	Renderer    RendererSection    `toml:"renderer"`
	Shaders     ShaderSection      `toml:"shaders"`
	Log         LogSection         `toml:"log"`
}

type ApplicationSection struct {
	// The application name used in windowing and as the Vulkan application name.
	Name string `toml:"name"`
}

type WindowSection struct {
	Width  uint32 `toml:"width"`
	Height uint32 `toml:"height"`
	PosX   int    `toml:"pos_x"`
	PosY   int    `toml:"pos_y"`
	// Forces X11/XWayland on linux so no compositor specific flags are needed.
	ForceX11 bool `toml:"force_x11"`
}

type RendererSection struct {
	// Present modes in order of preference. FIFO is always used as the last resort.
	PresentModes []string `toml:"present_modes"`
	// Upper bound for the in-flight fence wait and image acquisition.
	// Empty means unbounded.
	AcquireTimeout string `toml:"acquire_timeout"`
	// Rebuild the swapchain when presentation reports a suboptimal swapchain
	// instead of accepting the degraded presentation.
	RecreateOnSuboptimal bool       `toml:"recreate_on_suboptimal"`
	Validation           bool       `toml:"validation"`
	ClearColor           [4]float32 `toml:"clear_color"`
}

type ShaderSection struct {
	Vertex   string `toml:"vertex"`
	Fragment string `toml:"fragment"`
	// Rebuild the pipeline when one of the shader files changes on disk.
	Watch bool `toml:"watch"`
}

type LogSection struct {
	Level string `toml:"level"`
}

func DefaultConfig() *Config {
	return &Config{
		Application: ApplicationSection{
			Name: "Anima",
		},
		Window: WindowSection{
			Width:    800,
			Height:   600,
			PosX:     100,
			PosY:     100,
			ForceX11: runtime.GOOS == "linux",
		},
		Renderer: RendererSection{
			PresentModes: []string{"mailbox", "fifo"},
			ClearColor:   [4]float32{0.1, 0.1, 0.1, 1.0},
		},
		Shaders: ShaderSection{
			Vertex:   "shaders/shader.vert.spv",
			Fragment: "shaders/shader.frag.spv",
		},
		Log: LogSection{
			Level: "info",
		},
	}
}

// LoadConfig reads the TOML file at path on top of the defaults.
// A missing file is not an error: the defaults are returned.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		path = DefaultConfigPath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			LogInfo("config file `%s` not found, using defaults", path)
			return cfg, cfg.Validate()
		}
		return nil, err
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidConfig, path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Window.Width == 0 || c.Window.Height == 0 {
		return fmt.Errorf("%w: window size must be non-zero, got %dx%d", ErrInvalidConfig, c.Window.Width, c.Window.Height)
	}
	if c.Shaders.Vertex == "" || c.Shaders.Fragment == "" {
		return fmt.Errorf("%w: both vertex and fragment shader paths are required", ErrInvalidConfig)
	}
	if _, err := ParseLogLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if _, err := c.AcquireTimeout(); err != nil {
		return fmt.Errorf("%w: acquire_timeout: %w", ErrInvalidConfig, err)
	}
	return nil
}

// AcquireTimeout returns the configured timeout in nanoseconds,
// math.MaxUint64 when unbounded.
func (c *Config) AcquireTimeout() (uint64, error) {
	if c.Renderer.AcquireTimeout == "" {
		return ^uint64(0), nil
	}
	d, err := time.ParseDuration(c.Renderer.AcquireTimeout)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("must be positive, got %s", d)
	}
	return uint64(d.Nanoseconds()), nil
}
