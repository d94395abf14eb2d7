// Package renderer drives the per-frame protocol: acquire an image, record the
// draw, submit and present it, and rebuild the swapchain and everything built
// on top of it when the surface changes.
package renderer

import (
	"errors"
	"fmt"
	"math"
	"sync/atomic"

	"github.com/spaghettifunk/anima/engine/core"
	"github.com/spaghettifunk/anima/engine/renderer/gpu"
	"github.com/spaghettifunk/anima/engine/renderer/model"
	"github.com/spaghettifunk/anima/engine/renderer/pipeline"
	"github.com/spaghettifunk/anima/engine/renderer/swapchain"
)

var DefaultClearColor = [4]float32{0.1, 0.1, 0.1, 1.0}

type Options struct {
	VertexShader   string
	FragmentShader string
	// Present modes in order of preference.
	PresentModes []gpu.PresentMode
	// Nanoseconds; zero means unbounded.
	AcquireTimeout uint64
	// Rebuild on a suboptimal present instead of accepting it.
	RecreateOnSuboptimal bool
	ClearColor           [4]float32
}

type Renderer struct {
	device   gpu.Device
	surface  SurfaceOwner
	drawable Drawable
	opts     Options

	swapChain      *swapchain.SwapChain
	layout         gpu.PipelineLayout
	pipeline       *pipeline.Pipeline
	commandBuffers []gpu.CommandBuffer

	state           FrameState
	frameNumber     uint64
	reloadRequested atomic.Bool
}

// New builds the swapchain, the pipeline and one command buffer per swapchain
// image for the current framebuffer size.
func New(device gpu.Device, surface SurfaceOwner, drawable Drawable, opts Options) (*Renderer, error) {
	if opts.AcquireTimeout == 0 {
		opts.AcquireTimeout = math.MaxUint64
	}
	if opts.ClearColor == [4]float32{} {
		opts.ClearColor = DefaultClearColor
	}

	r := &Renderer{
		device:   device,
		surface:  surface,
		drawable: drawable,
		opts:     opts,
	}

	layout, err := pipeline.NewLayout(device)
	if err != nil {
		core.LogError(err.Error())
		return nil, err
	}
	r.layout = layout

	extent := r.waitForFramebuffer()
	sc, err := swapchain.New(device, extent, swapchain.WithPresentModes(opts.PresentModes...))
	if err != nil {
		r.Shutdown()
		return nil, err
	}
	r.swapChain = sc

	if err := r.createPipeline(); err != nil {
		r.Shutdown()
		return nil, err
	}
	if err := r.createCommandBuffers(); err != nil {
		r.Shutdown()
		return nil, err
	}
	return r, nil
}

func (r *Renderer) State() FrameState {
	return r.state
}

// FrameNumber counts the frames presented so far.
func (r *Renderer) FrameNumber() uint64 {
	return r.frameNumber
}

func (r *Renderer) SwapChain() *swapchain.SwapChain {
	return r.swapChain
}

func (r *Renderer) Pipeline() *pipeline.Pipeline {
	return r.pipeline
}

func (r *Renderer) CommandBuffers() []gpu.CommandBuffer {
	return r.commandBuffers
}

// RequestPipelineReload asks for the pipeline to be rebuilt before the next
// frame starts. Safe to call from any goroutine.
func (r *Renderer) RequestPipelineReload() {
	r.reloadRequested.Store(true)
}

// DrawFrame renders and presents one frame. Transient presentation problems
// are handled here; a returned error is fatal.
func (r *Renderer) DrawFrame() error {
	if r.reloadRequested.Swap(false) {
		if err := r.reloadPipeline(); err != nil {
			return err
		}
	}

	r.state = StateAcquiring
	imageIndex, result := r.swapChain.AcquireNextImage(r.opts.AcquireTimeout)
	switch action := acquireAction(result); action {
	case actionRecreateSurface, actionRecreate:
		core.LogDebug("acquire returned %s, recreating", result)
		return r.Recreate(action == actionRecreateSurface)
	case actionSkip:
		core.LogDebug("acquire returned %s, skipping frame", result)
		r.state = StateIdle
		return nil
	case actionReport:
		core.LogError("failed to acquire swapchain image: %s", result)
		r.state = StateIdle
		return nil
	}

	r.state = StateRecording
	if err := r.recordCommandBuffer(imageIndex); err != nil {
		e := fmt.Errorf("%w: %w", core.ErrRecording, err)
		core.LogError(e.Error())
		return e
	}

	r.state = StateSubmitting
	result, err := r.swapChain.SubmitCommandBuffers(r.commandBuffers[imageIndex], imageIndex)
	if err != nil {
		return err
	}

	r.state = StatePresenting
	if result.Usable() {
		r.frameNumber++
	}
	resized := r.surface.WasResized()
	switch action := presentAction(result, resized, r.opts.RecreateOnSuboptimal); action {
	case actionRecreateSurface, actionRecreate:
		core.LogDebug("present returned %s (resized: %t), recreating", result, resized)
		return r.Recreate(action == actionRecreateSurface)
	case actionReport:
		core.LogError("failed to present swapchain image: %s", result)
	}

	r.state = StateIdle
	return nil
}

func (r *Renderer) recordCommandBuffer(imageIndex uint32) error {
	// The buffer of this image may still be executing for an older frame.
	if result := r.swapChain.WaitForImage(imageIndex); result.Status != gpu.StatusSuccess {
		return fmt.Errorf("waiting for image %d: %s", imageIndex, result)
	}

	cb := r.commandBuffers[imageIndex]
	if err := cb.Begin(); err != nil {
		return fmt.Errorf("begin command buffer: %w", err)
	}
	cb.BeginRenderPass(r.swapChain.RenderPass(), r.swapChain.Framebuffer(int(imageIndex)), r.swapChain.Extent(), gpu.ClearValues{
		Color:   r.opts.ClearColor,
		Depth:   1.0,
		Stencil: 0,
	})
	r.pipeline.Bind(cb)
	r.drawable.Bind(cb)
	r.drawable.Draw(cb)
	cb.EndRenderPass()
	if err := cb.End(); err != nil {
		return fmt.Errorf("end command buffer: %w", err)
	}
	return nil
}

// Recreate rebuilds the swapchain, the pipeline and the command buffers. It
// blocks while the framebuffer has no area and waits for the device to go
// idle first. With surfaceLost the surface is recreated before anything that
// depends on it. Any pending resize is consumed: the new swapchain is built
// for the current framebuffer size.
func (r *Renderer) Recreate(surfaceLost bool) error {
	r.state = StateRecreating
	defer func() {
		r.state = StateIdle
	}()

	extent := r.waitForFramebuffer()
	r.surface.ResetResizedFlag()
	if err := r.device.WaitIdle(); err != nil {
		return fmt.Errorf("waiting for device idle: %w", err)
	}

	if surfaceLost {
		return r.rebuildSurface(extent)
	}

	sc, err := swapchain.New(r.device, extent,
		swapchain.WithPrevious(r.swapChain),
		swapchain.WithPresentModes(r.opts.PresentModes...))
	if errors.Is(err, core.ErrSurfaceLost) {
		core.LogWarn("surface lost while recreating the swapchain")
		return r.rebuildSurface(extent)
	}
	if err != nil {
		return err
	}
	r.swapChain = sc

	if err := r.createPipeline(); err != nil {
		return err
	}
	r.freeCommandBuffers()
	return r.createCommandBuffers()
}

// rebuildSurface tears down everything referencing the surface, replaces the
// surface and builds a fresh swapchain without migration.
func (r *Renderer) rebuildSurface(extent gpu.Extent) error {
	r.freeCommandBuffers()
	if r.pipeline != nil {
		r.pipeline.Destroy()
		r.pipeline = nil
	}
	if r.swapChain != nil {
		r.swapChain.Destroy()
		r.swapChain = nil
	}

	if err := r.surface.RecreateSurface(); err != nil {
		e := fmt.Errorf("%w: %w", core.ErrSurfaceCreate, err)
		core.LogError(e.Error())
		return e
	}

	sc, err := swapchain.New(r.device, extent, swapchain.WithPresentModes(r.opts.PresentModes...))
	if err != nil {
		return err
	}
	r.swapChain = sc

	if err := r.createPipeline(); err != nil {
		return err
	}
	return r.createCommandBuffers()
}

// waitForFramebuffer blocks on window events while the window is minimized.
func (r *Renderer) waitForFramebuffer() gpu.Extent {
	extent := r.surface.FramebufferSize()
	for extent.IsZero() {
		r.surface.WaitEvents()
		extent = r.surface.FramebufferSize()
	}
	return extent
}

// createPipeline builds a pipeline against the current render pass and
// replaces the previous one.
func (r *Renderer) createPipeline() error {
	extent := r.swapChain.Extent()
	cfg := pipeline.DefaultConfigInfo(extent.Width, extent.Height)
	cfg.RenderPass = r.swapChain.RenderPass()
	cfg.Layout = r.layout
	cfg.Bindings = model.BindingDescriptions()
	cfg.Attributes = model.AttributeDescriptions()

	p, err := pipeline.New(r.device, r.opts.VertexShader, r.opts.FragmentShader, cfg)
	if err != nil {
		return err
	}
	if r.pipeline != nil {
		r.pipeline.Destroy()
	}
	r.pipeline = p
	return nil
}

// reloadPipeline rebuilds the pipeline from the shaders on disk. A shader
// that fails to build keeps the current pipeline in use.
func (r *Renderer) reloadPipeline() error {
	if err := r.device.WaitIdle(); err != nil {
		return fmt.Errorf("waiting for device idle: %w", err)
	}
	if err := r.createPipeline(); err != nil {
		if errors.Is(err, core.ErrShaderLoad) || errors.Is(err, core.ErrPipelineCreate) {
			core.LogWarn("shader reload failed, keeping the current pipeline: %s", err)
			return nil
		}
		return err
	}
	core.LogInfo("pipeline reloaded")
	return nil
}

func (r *Renderer) createCommandBuffers() error {
	cbs, err := r.device.AllocateCommandBuffers(r.swapChain.ImageCount())
	if err != nil {
		e := fmt.Errorf("%w: allocating %d command buffers: %w", core.ErrCommandBuffer, r.swapChain.ImageCount(), err)
		core.LogError(e.Error())
		return e
	}
	r.commandBuffers = cbs
	return nil
}

func (r *Renderer) freeCommandBuffers() {
	if len(r.commandBuffers) > 0 {
		r.device.FreeCommandBuffers(r.commandBuffers)
	}
	r.commandBuffers = nil
}

// Shutdown waits for the device to go idle and destroys everything the
// renderer owns. The drawable is left to its owner.
func (r *Renderer) Shutdown() {
	if err := r.device.WaitIdle(); err != nil {
		core.LogError("waiting for device idle on shutdown: %s", err)
	}
	r.freeCommandBuffers()
	if r.pipeline != nil {
		r.pipeline.Destroy()
		r.pipeline = nil
	}
	if r.layout != nil {
		r.layout.Destroy()
		r.layout = nil
	}
	if r.swapChain != nil {
		r.swapChain.Destroy()
		r.swapChain = nil
	}
	r.state = StateIdle
}
