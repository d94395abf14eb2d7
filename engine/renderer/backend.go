package renderer

import "github.com/spaghettifunk/anima/engine/renderer/gpu"

// SurfaceOwner is the window owning the presentation surface.
//
// The resize flag is written by the windowing callbacks and read and cleared
// by the frame loop. Both run on the main thread; the flag is not safe for
// use from other goroutines.
type SurfaceOwner interface {
	FramebufferSize() gpu.Extent
	// WaitEvents blocks until the windowing system delivers at least one event.
	WaitEvents()
	WasResized() bool
	ResetResizedFlag()
	// RecreateSurface destroys the current surface and creates a new one. No
	// swapchain may reference the old surface when it is called.
	RecreateSurface() error
}

// Drawable is vertex data recorded into every frame.
type Drawable interface {
	Bind(cb gpu.CommandBuffer)
	Draw(cb gpu.CommandBuffer)
}
