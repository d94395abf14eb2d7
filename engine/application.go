package engine

import (
	"fmt"

	"github.com/spaghettifunk/anima/engine/core"
	"github.com/spaghettifunk/anima/engine/renderer"
	"github.com/spaghettifunk/anima/engine/renderer/gpu"
)

type ApplicationConfig struct {
	// Window starting position x axis, if applicable.
	StartPosX int
	// Window starting position y axis, if applicable.
	StartPosY int
	// Window starting width, if applicable.
	StartWidth uint32
	// Window starting height, if applicable.
	StartHeight uint32
	// The application name used in windowing, if applicable.
	Name     string
	LogLevel core.LogLevel
	// Enables the Vulkan validation layer and routes its messages to the log.
	Validation bool
	// Rebuild the pipeline when the shader files change on disk.
	WatchShaders bool
	Renderer     renderer.Options
}

// NewApplicationConfig derives the application settings from a validated
// configuration file.
func NewApplicationConfig(cfg *core.Config) (*ApplicationConfig, error) {
	level, err := core.ParseLogLevel(cfg.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrInvalidConfig, err)
	}
	timeout, err := cfg.AcquireTimeout()
	if err != nil {
		return nil, fmt.Errorf("%w: acquire_timeout: %w", core.ErrInvalidConfig, err)
	}

	modes := make([]gpu.PresentMode, 0, len(cfg.Renderer.PresentModes))
	for _, name := range cfg.Renderer.PresentModes {
		mode, err := gpu.ParsePresentMode(name)
		if err != nil {
			return nil, fmt.Errorf("%w: present_modes: %w", core.ErrInvalidConfig, err)
		}
		modes = append(modes, mode)
	}

	return &ApplicationConfig{
		StartPosX:    cfg.Window.PosX,
		StartPosY:    cfg.Window.PosY,
		StartWidth:   cfg.Window.Width,
		StartHeight:  cfg.Window.Height,
		Name:         cfg.Application.Name,
		LogLevel:     level,
		Validation:   cfg.Renderer.Validation,
		WatchShaders: cfg.Shaders.Watch,
		Renderer: renderer.Options{
			VertexShader:         cfg.Shaders.Vertex,
			FragmentShader:       cfg.Shaders.Fragment,
			PresentModes:         modes,
			AcquireTimeout:       timeout,
			RecreateOnSuboptimal: cfg.Renderer.RecreateOnSuboptimal,
			ClearColor:           cfg.Renderer.ClearColor,
		},
	}, nil
}
