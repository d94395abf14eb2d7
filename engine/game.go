package engine

import "github.com/spaghettifunk/anima/engine/renderer/model"

// Game is what an application hands to the engine: its settings, the vertices
// drawn every frame and the hooks called from the frame loop.
type Game struct {
	ApplicationConfig *ApplicationConfig
	Vertices          []model.Vertex
	State             interface{}
	FnInitialize      Initialize
	FnUpdate          Update
	FnOnResize        OnResize
	FnShutdown        Shutdown
}

type Initialize func() error
type Update func(deltaTime float64) error
type OnResize func(width uint32, height uint32) error
type Shutdown func() error
