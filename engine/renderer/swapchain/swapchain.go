// Package swapchain owns the presentable images of a surface, everything that
// is built per image on top of them and the synchronization objects of the
// frames in flight.
package swapchain

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spaghettifunk/anima/engine/core"
	"github.com/spaghettifunk/anima/engine/renderer/gpu"
)

// MaxFramesInFlight bounds how many frames the CPU may submit before waiting
// on the GPU.
const MaxFramesInFlight = 2

type options struct {
	previous     *SwapChain
	presentModes []gpu.PresentMode
}

type Option func(*options)

// WithPrevious hands the swapchain being replaced to New. Its handle is
// passed to the driver for migration and it is destroyed once the new
// swapchain is fully built. On failure it is left untouched.
func WithPrevious(old *SwapChain) Option {
	return func(o *options) {
		o.previous = old
	}
}

// WithPresentModes sets the present mode preference order.
func WithPresentModes(modes ...gpu.PresentMode) Option {
	return func(o *options) {
		if len(modes) > 0 {
			o.presentModes = modes
		}
	}
}

// resources is everything that depends on the surface extent and format.
type resources struct {
	handle       gpu.Swapchain
	images       []gpu.Image
	views        []gpu.ImageView
	depthImages  []gpu.Image
	depthViews   []gpu.ImageView
	renderPass   gpu.RenderPass
	framebuffers []gpu.Framebuffer

	extent      gpu.Extent
	format      gpu.SurfaceFormat
	presentMode gpu.PresentMode
	depthFormat gpu.Format
}

type SwapChain struct {
	id           uuid.UUID
	device       gpu.Device
	windowExtent gpu.Extent
	presentModes []gpu.PresentMode

	res            resources
	frames         [MaxFramesInFlight]frameSlot
	imagesInFlight []gpu.Fence
	currentFrame   int
	destroyed      bool
}

func New(device gpu.Device, windowExtent gpu.Extent, opts ...Option) (*SwapChain, error) {
	o := options{presentModes: DefaultPresentModes}
	for _, opt := range opts {
		opt(&o)
	}

	if windowExtent.IsZero() {
		return nil, fmt.Errorf("%w: %w: window extent is %v", core.ErrSwapchainCreate, core.ErrZeroExtent, windowExtent)
	}

	sc := &SwapChain{
		id:           uuid.New(),
		device:       device,
		windowExtent: windowExtent,
		presentModes: o.presentModes,
	}

	var old gpu.Swapchain
	if o.previous != nil && !o.previous.destroyed {
		old = o.previous.res.handle
	}

	res, err := createResources(device, windowExtent, o.presentModes, old)
	if err != nil {
		return nil, err
	}
	sc.res = res
	if err := sc.createSyncObjects(); err != nil {
		sc.destroySyncObjects()
		sc.res.destroy()
		return nil, err
	}
	sc.imagesInFlight = make([]gpu.Fence, len(res.images))

	if o.previous != nil {
		o.previous.Destroy()
	}

	core.LogInfo("swapchain %s created: %d images, %v, %v, %s", sc.id, len(res.images), res.extent, res.format.Format, res.presentMode)
	return sc, nil
}

// Recreate rebuilds every per-image and render pass dependent resource in
// place, using the current handle as migration hint. The previous resources
// are released only once the new ones exist. Synchronization objects are kept.
// The caller must make sure the device is idle.
func (sc *SwapChain) Recreate() error {
	if sc.destroyed {
		return fmt.Errorf("%w: swapchain %s is destroyed", core.ErrSwapchainCreate, sc.id)
	}
	res, err := createResources(sc.device, sc.windowExtent, sc.presentModes, sc.res.handle)
	if err != nil {
		return err
	}
	old := sc.res
	sc.res = res
	old.destroy()

	if err := sc.createSyncObjects(); err != nil {
		return err
	}
	sc.imagesInFlight = make([]gpu.Fence, len(res.images))

	core.LogInfo("swapchain %s recreated: %d images, %v", sc.id, len(res.images), res.extent)
	return nil
}

// Destroy releases all resources. Calling it again has no effect.
func (sc *SwapChain) Destroy() {
	if sc.destroyed {
		return
	}
	sc.destroyed = true
	sc.res.destroy()
	sc.destroySyncObjects()
	sc.imagesInFlight = nil
	core.LogDebug("swapchain %s destroyed", sc.id)
}

func createResources(device gpu.Device, windowExtent gpu.Extent, presentModes []gpu.PresentMode, old gpu.Swapchain) (res resources, err error) {
	support, err := device.SurfaceSupport()
	if err != nil {
		return res, creationError("querying surface support", err)
	}
	if len(support.Formats) == 0 {
		return res, creationError("querying surface support", fmt.Errorf("surface reports no formats"))
	}

	res.format = chooseSurfaceFormat(support.Formats)
	res.presentMode = choosePresentMode(support.PresentModes, presentModes)
	res.extent = chooseExtent(support.Capabilities, windowExtent)
	if res.extent.IsZero() {
		return res, creationError("choosing extent", core.ErrZeroExtent)
	}
	res.depthFormat, err = findDepthFormat(device)
	if err != nil {
		core.LogError(err.Error())
		return res, err
	}

	// Release whatever was created if any later step fails.
	defer func() {
		if err != nil {
			res.destroy()
			res = resources{}
		}
	}()

	res.handle, err = device.CreateSwapchain(gpu.SwapchainInfo{
		Format:      res.format,
		PresentMode: res.presentMode,
		Extent:      res.extent,
		ImageCount:  chooseImageCount(support.Capabilities),
		Old:         old,
	})
	if err != nil {
		return res, creationError("creating swapchain", err)
	}
	res.images = res.handle.Images()

	res.views = make([]gpu.ImageView, 0, len(res.images))
	for _, image := range res.images {
		view, err := device.CreateImageView(image, res.format.Format, gpu.ImageAspectColor)
		if err != nil {
			return res, creationError("creating image view", err)
		}
		res.views = append(res.views, view)
	}

	res.depthImages = make([]gpu.Image, 0, len(res.images))
	res.depthViews = make([]gpu.ImageView, 0, len(res.images))
	for range res.images {
		image, err := device.CreateDepthImage(res.extent, res.depthFormat)
		if err != nil {
			return res, creationError("creating depth image", err)
		}
		res.depthImages = append(res.depthImages, image)

		view, err := device.CreateImageView(image, res.depthFormat, gpu.ImageAspectDepth)
		if err != nil {
			return res, creationError("creating depth image view", err)
		}
		res.depthViews = append(res.depthViews, view)
	}

	res.renderPass, err = device.CreateRenderPass(gpu.RenderPassInfo{
		ColorFormat: res.format.Format,
		DepthFormat: res.depthFormat,
	})
	if err != nil {
		return res, creationError("creating render pass", err)
	}

	res.framebuffers = make([]gpu.Framebuffer, 0, len(res.images))
	for i := range res.images {
		fb, err := device.CreateFramebuffer(res.renderPass, []gpu.ImageView{res.views[i], res.depthViews[i]}, res.extent)
		if err != nil {
			return res, creationError("creating framebuffer", err)
		}
		res.framebuffers = append(res.framebuffers, fb)
	}

	return res, nil
}

// destroy releases views and framebuffers before the images they reference.
// Swapchain images are owned by the handle.
func (r *resources) destroy() {
	for _, fb := range r.framebuffers {
		fb.Destroy()
	}
	r.framebuffers = nil
	if r.renderPass != nil {
		r.renderPass.Destroy()
		r.renderPass = nil
	}
	for _, view := range r.depthViews {
		view.Destroy()
	}
	r.depthViews = nil
	for _, image := range r.depthImages {
		image.Destroy()
	}
	r.depthImages = nil
	for _, view := range r.views {
		view.Destroy()
	}
	r.views = nil
	if r.handle != nil {
		r.handle.Destroy()
		r.handle = nil
	}
	r.images = nil
}

func creationError(step string, err error) error {
	e := fmt.Errorf("%w: %s: %w", core.ErrSwapchainCreate, step, err)
	core.LogError(e.Error())
	return e
}

func (sc *SwapChain) ID() uuid.UUID {
	return sc.id
}

func (sc *SwapChain) Handle() gpu.Swapchain {
	return sc.res.handle
}

func (sc *SwapChain) ImageCount() int {
	return len(sc.res.images)
}

func (sc *SwapChain) Framebuffer(index int) gpu.Framebuffer {
	return sc.res.framebuffers[index]
}

func (sc *SwapChain) ImageView(index int) gpu.ImageView {
	return sc.res.views[index]
}

func (sc *SwapChain) DepthImageView(index int) gpu.ImageView {
	return sc.res.depthViews[index]
}

func (sc *SwapChain) RenderPass() gpu.RenderPass {
	return sc.res.renderPass
}

func (sc *SwapChain) Extent() gpu.Extent {
	return sc.res.extent
}

// ExtentAspectRatio is width over height. The extent is never zero.
func (sc *SwapChain) ExtentAspectRatio() float32 {
	return float32(sc.res.extent.Width) / float32(sc.res.extent.Height)
}

func (sc *SwapChain) ImageFormat() gpu.Format {
	return sc.res.format.Format
}

func (sc *SwapChain) DepthFormat() gpu.Format {
	return sc.res.depthFormat
}

func (sc *SwapChain) PresentMode() gpu.PresentMode {
	return sc.res.presentMode
}

// CurrentFrame is the index of the frame slot used by the next acquire.
func (sc *SwapChain) CurrentFrame() int {
	return sc.currentFrame
}

// CompatibleWith reports whether pipelines built for other's render pass
// formats can be rebuilt unchanged against this swapchain.
func (sc *SwapChain) CompatibleWith(other *SwapChain) bool {
	return sc.res.format.Format == other.res.format.Format && sc.res.depthFormat == other.res.depthFormat
}
