package gputest

import (
	"errors"
	"fmt"
	"sync"

	"github.com/spaghettifunk/anima/engine/core"
	"github.com/spaghettifunk/anima/engine/renderer/gpu"
)

// Operation names accepted by Device.Fail.
const (
	OpCreateSwapchain        = "create_swapchain"
	OpCreateImageView        = "create_image_view"
	OpCreateDepthImage       = "create_depth_image"
	OpCreateRenderPass       = "create_render_pass"
	OpCreateFramebuffer      = "create_framebuffer"
	OpCreateSemaphore        = "create_semaphore"
	OpCreateFence            = "create_fence"
	OpSubmit                 = "submit"
	OpWaitIdle               = "wait_idle"
	OpWaitFence              = "wait_fence"
	OpAllocateCommandBuffers = "allocate_command_buffers"
	OpCreateShaderModule     = "create_shader_module"
	OpCreatePipelineLayout   = "create_pipeline_layout"
	OpCreateGraphicsPipeline = "create_graphics_pipeline"
	OpCreateVertexBuffer     = "create_vertex_buffer"
	OpBeginCommandBuffer     = "begin_command_buffer"
	OpEndCommandBuffer       = "end_command_buffer"
)

// ErrInjected is returned by operations scheduled to fail with a nil error.
var ErrInjected = errors.New("gputest: injected failure")

type failure struct {
	remaining int
	err       error
}

// Device is a deterministic gpu.Device. Submitted work completes immediately
// unless manual fences are enabled. Use of a destroyed handle never panics:
// it is recorded and reported by Violations.
type Device struct {
	Journal *Journal

	mu             sync.Mutex
	support        gpu.SurfaceSupport
	depthFormats   map[gpu.Format]bool
	surfaceLost    bool
	acquireResults []gpu.Result
	presentResults []gpu.Result
	manualFences   bool
	pending        []*Fence
	failures       map[string]*failure
	violations     []string
	nextID         int
	live           map[int]string
	swapchains     []*Swapchain
	commandBuffers []*CommandBuffer
	pipelines      []*Pipeline
}

var _ gpu.Device = (*Device)(nil)

// NewDevice returns a device whose surface is 800x600, supports the sRGB
// surface format, FIFO and mailbox presentation and a D32 depth format.
func NewDevice() *Device {
	return &Device{
		Journal: &Journal{},
		support: gpu.SurfaceSupport{
			Capabilities: gpu.SurfaceCapabilities{
				MinImageCount:  2,
				MaxImageCount:  8,
				CurrentExtent:  gpu.Extent{Width: 800, Height: 600},
				MinImageExtent: gpu.Extent{Width: 1, Height: 1},
				MaxImageExtent: gpu.Extent{Width: 4096, Height: 4096},
			},
			Formats: []gpu.SurfaceFormat{
				{Format: gpu.FormatB8G8R8A8Unorm, ColorSpace: gpu.ColorSpaceSrgbNonlinear},
				{Format: gpu.FormatB8G8R8A8Srgb, ColorSpace: gpu.ColorSpaceSrgbNonlinear},
			},
			PresentModes: []gpu.PresentMode{gpu.PresentModeFifo, gpu.PresentModeMailbox},
		},
		depthFormats: map[gpu.Format]bool{gpu.FormatD32Sfloat: true},
		failures:     make(map[string]*failure),
		live:         make(map[int]string),
	}
}

// SetSupport replaces the reported surface support.
func (d *Device) SetSupport(support gpu.SurfaceSupport) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.support = support
}

// SetCurrentExtent changes the surface size reported by the capabilities.
func (d *Device) SetCurrentExtent(extent gpu.Extent) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.support.Capabilities.CurrentExtent = extent
}

// SetDepthFormats replaces the formats usable as depth attachments.
func (d *Device) SetDepthFormats(formats ...gpu.Format) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.depthFormats = make(map[gpu.Format]bool, len(formats))
	for _, f := range formats {
		d.depthFormats[f] = true
	}
}

// SetSurfaceLost makes the capability query fail until the surface is recreated.
func (d *Device) SetSurfaceLost(lost bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.surfaceLost = lost
}

// QueueAcquireResults scripts the results of the next acquires. Once the queue
// is drained acquires succeed.
func (d *Device) QueueAcquireResults(results ...gpu.Result) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.acquireResults = append(d.acquireResults, results...)
}

// QueuePresentResults scripts the results of the next presents.
func (d *Device) QueuePresentResults(results ...gpu.Result) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.presentResults = append(d.presentResults, results...)
}

// SetManualFences leaves submission fences unsignalled until SignalNext or
// SignalAll is called.
func (d *Device) SetManualFences(manual bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.manualFences = manual
}

// SignalNext completes the oldest pending submission. It reports false when
// nothing is pending.
func (d *Device) SignalNext() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.pending) == 0 {
		return false
	}
	d.pending[0].signalLocked()
	d.pending = d.pending[1:]
	return true
}

// SignalAll completes every pending submission.
func (d *Device) SignalAll() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, f := range d.pending {
		f.signalLocked()
	}
	d.pending = nil
}

// Pending is the number of submissions whose fence is not signalled yet.
func (d *Device) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

// Fail makes the nth next call of op fail with err (ErrInjected when nil).
func (d *Device) Fail(op string, nth int, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err == nil {
		err = ErrInjected
	}
	d.failures[op] = &failure{remaining: nth, err: err}
}

// Violations lists every misuse observed so far: use or destruction of a
// destroyed handle, foreign handles, submits with a signalled fence.
func (d *Device) Violations() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.violations...)
}

// Live is the number of objects created and not destroyed yet.
func (d *Device) Live() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.live)
}

// LiveOf is the number of live objects of the given kind.
func (d *Device) LiveOf(kind string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, k := range d.live {
		if k == kind {
			n++
		}
	}
	return n
}

// Swapchains returns every swapchain created, oldest first.
func (d *Device) Swapchains() []*Swapchain {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]*Swapchain(nil), d.swapchains...)
}

// Pipelines returns every graphics pipeline created, oldest first.
func (d *Device) Pipelines() []*Pipeline {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]*Pipeline(nil), d.pipelines...)
}

// CommandBuffers returns every command buffer allocated, oldest first.
func (d *Device) CommandBuffers() []*CommandBuffer {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]*CommandBuffer(nil), d.commandBuffers...)
}

func (d *Device) SurfaceSupport() (gpu.SurfaceSupport, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Journal.Record("surface_support")
	if d.surfaceLost {
		return gpu.SurfaceSupport{}, fmt.Errorf("querying surface capabilities: %w", core.ErrSurfaceLost)
	}
	support := d.support
	support.Formats = append([]gpu.SurfaceFormat(nil), d.support.Formats...)
	support.PresentModes = append([]gpu.PresentMode(nil), d.support.PresentModes...)
	return support, nil
}

func (d *Device) SupportsDepthAttachment(format gpu.Format) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.depthFormats[format]
}

func (d *Device) WaitIdle() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Journal.Record("wait_idle")
	if err := d.failureLocked(OpWaitIdle); err != nil {
		return err
	}
	// an idle device has no outstanding work
	for _, f := range d.pending {
		f.signalLocked()
	}
	d.pending = nil
	return nil
}

func (d *Device) CreateSwapchain(info gpu.SwapchainInfo) (gpu.Swapchain, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.failureLocked(OpCreateSwapchain); err != nil {
		return nil, err
	}
	if d.surfaceLost {
		return nil, fmt.Errorf("creating swapchain: %w", core.ErrSurfaceLost)
	}
	if info.Extent.IsZero() {
		d.violateLocked("swapchain created with zero extent %v", info.Extent)
	}
	if info.Old != nil {
		d.useLocked("migrate swapchain", info.Old)
	}
	sc := &Swapchain{object: d.newObjectLocked("swapchain"), Info: info}
	for i := uint32(0); i < info.ImageCount; i++ {
		img := &Image{object: d.newObjectLocked("swapchain_image"), swapchain: sc}
		sc.images = append(sc.images, img)
	}
	d.swapchains = append(d.swapchains, sc)
	if old, ok := info.Old.(*Swapchain); ok {
		d.Journal.Record("create %s old=%s", &sc.object, &old.object)
	} else {
		d.Journal.Record("create %s", &sc.object)
	}
	return sc, nil
}

func (d *Device) CreateImageView(image gpu.Image, format gpu.Format, aspect gpu.ImageAspect) (gpu.ImageView, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.useLocked("create image view", image)
	if err := d.failureLocked(OpCreateImageView); err != nil {
		return nil, err
	}
	img, _ := image.(*Image)
	return &ImageView{object: d.newObjectLocked("image_view"), Image: img, Aspect: aspect}, nil
}

func (d *Device) CreateDepthImage(extent gpu.Extent, format gpu.Format) (gpu.Image, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.failureLocked(OpCreateDepthImage); err != nil {
		return nil, err
	}
	if extent.IsZero() {
		d.violateLocked("depth image created with zero extent %v", extent)
	}
	return &Image{object: d.newObjectLocked("depth_image")}, nil
}

func (d *Device) CreateRenderPass(info gpu.RenderPassInfo) (gpu.RenderPass, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.failureLocked(OpCreateRenderPass); err != nil {
		return nil, err
	}
	rp := &RenderPass{object: d.newObjectLocked("render_pass"), Info: info}
	d.Journal.Record("create %s", &rp.object)
	return rp, nil
}

func (d *Device) CreateFramebuffer(pass gpu.RenderPass, attachments []gpu.ImageView, extent gpu.Extent) (gpu.Framebuffer, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.useLocked("create framebuffer", pass)
	for _, a := range attachments {
		d.useLocked("create framebuffer", a)
	}
	if err := d.failureLocked(OpCreateFramebuffer); err != nil {
		return nil, err
	}
	if extent.IsZero() {
		d.violateLocked("framebuffer created with zero extent %v", extent)
	}
	rp, _ := pass.(*RenderPass)
	return &Framebuffer{
		object:      d.newObjectLocked("framebuffer"),
		Pass:        rp,
		Attachments: append([]gpu.ImageView(nil), attachments...),
		Extent:      extent,
	}, nil
}

func (d *Device) CreateSemaphore() (gpu.Semaphore, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.failureLocked(OpCreateSemaphore); err != nil {
		return nil, err
	}
	return &Semaphore{object: d.newObjectLocked("semaphore")}, nil
}

func (d *Device) CreateFence(signaled bool) (gpu.Fence, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.failureLocked(OpCreateFence); err != nil {
		return nil, err
	}
	f := &Fence{object: d.newObjectLocked("fence"), done: make(chan struct{})}
	if signaled {
		close(f.done)
	}
	return f, nil
}

func (d *Device) AcquireNextImage(swapchain gpu.Swapchain, timeout uint64, signal gpu.Semaphore) (uint32, gpu.Result) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.useLocked("acquire", swapchain, signal)

	result := gpu.Success()
	if len(d.acquireResults) > 0 {
		result = d.acquireResults[0]
		d.acquireResults = d.acquireResults[1:]
	}
	sc, ok := swapchain.(*Swapchain)
	if !ok || len(sc.images) == 0 || !result.Usable() {
		d.Journal.Record("acquire %s", result)
		return 0, result
	}
	index := sc.next
	sc.next = (sc.next + 1) % uint32(len(sc.images))
	d.Journal.Record("acquire %s image=%d %s", &sc.object, index, result)
	return index, result
}

func (d *Device) Submit(info gpu.SubmitInfo) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.useLocked("submit", info.CommandBuffer, info.Wait, info.Signal, info.Fence)
	if err := d.failureLocked(OpSubmit); err != nil {
		return err
	}
	if cb, ok := info.CommandBuffer.(*CommandBuffer); ok && cb.recording {
		d.violateLocked("submit of %s while recording", &cb.object)
	}
	fence, ok := info.Fence.(*Fence)
	if !ok {
		return nil
	}
	if fence.signaledLocked() {
		d.violateLocked("submit with signalled %s", &fence.object)
	}
	if cb, ok := info.CommandBuffer.(*CommandBuffer); ok {
		d.Journal.Record("submit %s", &cb.object)
	}
	if d.manualFences {
		d.pending = append(d.pending, fence)
	} else {
		fence.signalLocked()
	}
	return nil
}

func (d *Device) Present(info gpu.PresentInfo) gpu.Result {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.useLocked("present", info.Swapchain, info.Wait)

	result := gpu.Success()
	if len(d.presentResults) > 0 {
		result = d.presentResults[0]
		d.presentResults = d.presentResults[1:]
	}
	if sc, ok := info.Swapchain.(*Swapchain); ok {
		d.Journal.Record("present %s image=%d %s", &sc.object, info.ImageIndex, result)
	}
	return result
}

func (d *Device) AllocateCommandBuffers(count int) ([]gpu.CommandBuffer, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.failureLocked(OpAllocateCommandBuffers); err != nil {
		return nil, err
	}
	d.Journal.Record("allocate_command_buffers %d", count)
	buffers := make([]gpu.CommandBuffer, count)
	for i := range buffers {
		cb := &CommandBuffer{object: d.newObjectLocked("command_buffer")}
		d.commandBuffers = append(d.commandBuffers, cb)
		buffers[i] = cb
	}
	return buffers, nil
}

func (d *Device) FreeCommandBuffers(buffers []gpu.CommandBuffer) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Journal.Record("free_command_buffers %d", len(buffers))
	for _, b := range buffers {
		if t, ok := b.(tracked); ok {
			d.destroyLocked(t.base())
		} else {
			d.violateLocked("free of foreign command buffer %T", b)
		}
	}
}

func (d *Device) CreateShaderModule(code []uint32) (gpu.ShaderModule, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.failureLocked(OpCreateShaderModule); err != nil {
		return nil, err
	}
	if len(code) == 0 {
		return nil, errors.New("gputest: empty shader code")
	}
	return &ShaderModule{object: d.newObjectLocked("shader_module"), Code: code}, nil
}

func (d *Device) CreatePipelineLayout() (gpu.PipelineLayout, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.failureLocked(OpCreatePipelineLayout); err != nil {
		return nil, err
	}
	return &PipelineLayout{object: d.newObjectLocked("pipeline_layout")}, nil
}

func (d *Device) CreateGraphicsPipeline(info gpu.GraphicsPipelineInfo) (gpu.Pipeline, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.useLocked("create graphics pipeline", info.VertexShader, info.FragmentShader, info.Layout, info.RenderPass)
	if err := d.failureLocked(OpCreateGraphicsPipeline); err != nil {
		return nil, err
	}
	p := &Pipeline{object: d.newObjectLocked("pipeline"), Info: info}
	d.pipelines = append(d.pipelines, p)
	d.Journal.Record("create %s", &p.object)
	return p, nil
}

func (d *Device) CreateVertexBuffer(data []byte) (gpu.Buffer, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.failureLocked(OpCreateVertexBuffer); err != nil {
		return nil, err
	}
	return &Buffer{object: d.newObjectLocked("buffer"), Data: append([]byte(nil), data...)}, nil
}

func (d *Device) newObjectLocked(kind string) object {
	d.nextID++
	d.live[d.nextID] = kind
	return object{dev: d, kind: kind, id: d.nextID}
}

func (d *Device) destroyLocked(o *object) {
	if o.destroyed {
		d.violateLocked("double destroy of %s", o)
		return
	}
	o.destroyed = true
	delete(d.live, o.id)
	if o.kind == "swapchain" || o.kind == "render_pass" || o.kind == "pipeline" {
		d.Journal.Record("destroy %s", o)
	}
}

func (d *Device) useLocked(op string, handles ...interface{}) {
	for _, h := range handles {
		t, ok := h.(tracked)
		if !ok {
			d.violateLocked("%s: foreign or nil handle %T", op, h)
			continue
		}
		o := t.base()
		if o.dev != d {
			d.violateLocked("%s: %s belongs to another device", op, o)
		}
		if o.destroyed {
			d.violateLocked("%s: use of destroyed %s", op, o)
		}
	}
}

func (d *Device) failureLocked(op string) error {
	f, ok := d.failures[op]
	if !ok {
		return nil
	}
	f.remaining--
	if f.remaining > 0 {
		return nil
	}
	delete(d.failures, op)
	return f.err
}

func (d *Device) violateLocked(format string, args ...interface{}) {
	d.violations = append(d.violations, fmt.Sprintf(format, args...))
}
