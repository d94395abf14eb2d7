package engine

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/spaghettifunk/anima/engine/assets"
	"github.com/spaghettifunk/anima/engine/core"
	"github.com/spaghettifunk/anima/engine/platform"
	"github.com/spaghettifunk/anima/engine/renderer"
	"github.com/spaghettifunk/anima/engine/renderer/model"
	"github.com/spaghettifunk/anima/engine/renderer/vulkan"
)

type Stage uint8

const (
	// Engine is in an uninitialized state
	EngineStageUninitialized Stage = iota
	// Engine is currently initializing
	EngineStageInitializing
	// Engine initialization is complete
	EngineStageInitialized
	// Engine is currently running
	EngineStageRunning
	// Engine is in the process of shutting down
	EngineStageShuttingDown
	// Everything has been released
	EngineStageStopped
)

type Engine struct {
	currentStage Stage
	gameInstance *Game
	isRunning    atomic.Bool
	isSuspended  bool

	platform *platform.Platform
	backend  *vulkan.Backend
	model    *model.Model
	renderer *renderer.Renderer
	watcher  *assets.ShaderWatcher

	width    uint32
	height   uint32
	clock    *core.Clock
	metrics  *core.Metrics
	lastTime float64
}

func New(g *Game) (*Engine, error) {
	if g == nil || g.ApplicationConfig == nil {
		return nil, errors.New("the game and its application config are required")
	}
	return &Engine{
		currentStage: EngineStageUninitialized,
		gameInstance: g,
		platform:     platform.New(),
		clock:        core.NewClock(),
		metrics:      core.NewMetrics(),
		width:        g.ApplicationConfig.StartWidth,
		height:       g.ApplicationConfig.StartHeight,
	}, nil
}

// Initialize opens the window and builds the Vulkan backend, the model and
// the renderer. Everything created so far is released on failure.
func (e *Engine) Initialize() error {
	e.currentStage = EngineStageInitializing
	config := e.gameInstance.ApplicationConfig

	if err := e.platform.Startup(config.Name, config.StartPosX, config.StartPosY, config.StartWidth, config.StartHeight); err != nil {
		return err
	}

	backend, err := vulkan.NewBackend(config.Name, e.platform, config.Validation)
	if err != nil {
		e.release()
		return err
	}
	e.backend = backend

	m, err := model.New(backend.Device(), e.gameInstance.Vertices)
	if err != nil {
		e.release()
		return err
	}
	e.model = m

	r, err := renderer.New(backend.Device(), e.platform, m, config.Renderer)
	if err != nil {
		e.release()
		return err
	}
	e.renderer = r

	if config.WatchShaders {
		w, err := assets.NewShaderWatcher(func(path string) {
			core.LogInfo("shader `%s` changed, reloading the pipeline", path)
			r.RequestPipelineReload()
		}, config.Renderer.VertexShader, config.Renderer.FragmentShader)
		if err != nil {
			// not fatal, the renderer works without hot reload
			core.LogWarn("shader watcher disabled: %s", err)
		} else {
			e.watcher = w
		}
	}

	if e.gameInstance.FnInitialize != nil {
		if err := e.gameInstance.FnInitialize(); err != nil {
			e.release()
			return fmt.Errorf("game initialization failed: %w", err)
		}
	}

	e.isRunning.Store(true)
	e.currentStage = EngineStageInitialized
	core.LogInfo("engine initialized")
	return nil
}

// Run drives the frame loop until the window closes or Shutdown is called,
// then releases every resource. A returned error is fatal.
func (e *Engine) Run() error {
	if e.currentStage != EngineStageInitialized {
		return fmt.Errorf("engine is not initialized")
	}
	e.currentStage = EngineStageRunning
	defer e.release()

	e.clock.Start()
	e.clock.Update()
	e.lastTime = e.clock.Elapsed()

	for e.isRunning.Load() && !e.platform.ShouldClose() {
		e.platform.PollEvents()

		size := e.platform.FramebufferSize()
		if size.IsZero() {
			if !e.isSuspended {
				core.LogInfo("window minimized, suspending the frame loop")
				e.isSuspended = true
			}
			e.platform.WaitEvents()
			continue
		}
		if e.isSuspended {
			core.LogInfo("window restored, resuming the frame loop")
			e.isSuspended = false
		}
		if size.Width != e.width || size.Height != e.height {
			e.width, e.height = size.Width, size.Height
			if e.gameInstance.FnOnResize != nil {
				if err := e.gameInstance.FnOnResize(e.width, e.height); err != nil {
					return fmt.Errorf("game resize failed: %w", err)
				}
			}
		}

		// Update clock and get delta time.
		e.clock.Update()
		currentTime := e.clock.Elapsed()
		delta := currentTime - e.lastTime
		frameStartTime := time.Now()

		if e.gameInstance.FnUpdate != nil {
			if err := e.gameInstance.FnUpdate(delta); err != nil {
				return fmt.Errorf("game update failed: %w", err)
			}
		}

		if err := e.renderer.DrawFrame(); err != nil {
			core.LogError("drawing frame %d: %s", e.renderer.FrameNumber(), err)
			return err
		}

		if e.metrics.Update(time.Since(frameStartTime).Seconds()) {
			fps, frameMS := e.metrics.Frame()
			core.LogDebug("%.0f fps, %.3f ms/frame, %d frames presented", fps, frameMS, e.renderer.FrameNumber())
		}
		e.lastTime = currentTime
	}
	core.LogInfo("frame loop stopped after %d frames", e.renderer.FrameNumber())
	return nil
}

// Shutdown asks the frame loop to stop. It is safe to call from any goroutine;
// resources are released by Run on the main thread.
func (e *Engine) Shutdown() {
	if e.isRunning.CompareAndSwap(true, false) {
		core.LogInfo("shutdown requested")
		e.platform.Wake()
	}
}

func (e *Engine) Stage() Stage {
	return e.currentStage
}

// GetFramebufferSize returns the width and height (in this order)
// of the application Framebuffer
func (e *Engine) GetFramebufferSize() (uint32, uint32) {
	return e.width, e.height
}

// release tears down in reverse creation order. The renderer waits for the
// device to go idle before anything else is destroyed.
func (e *Engine) release() {
	if e.currentStage == EngineStageStopped {
		return
	}
	e.currentStage = EngineStageShuttingDown

	if e.watcher != nil {
		if err := e.watcher.Close(); err != nil {
			core.LogWarn("closing shader watcher: %s", err)
		}
		e.watcher = nil
	}
	if e.renderer != nil {
		e.renderer.Shutdown()
		e.renderer = nil
	}
	if e.gameInstance.FnShutdown != nil {
		if err := e.gameInstance.FnShutdown(); err != nil {
			core.LogWarn("game shutdown: %s", err)
		}
	}
	if e.model != nil {
		e.model.Destroy()
		e.model = nil
	}
	if e.backend != nil {
		e.backend.Shutdown()
		e.backend = nil
	}
	e.platform.Shutdown()
	e.currentStage = EngineStageStopped
}
