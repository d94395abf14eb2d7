package gputest

import (
	"math"
	"strconv"
	"time"

	"github.com/spaghettifunk/anima/engine/renderer/gpu"
)

// resultErrorDeviceLost is the driver code reported by a fence wait scheduled
// to fail.
const resultErrorDeviceLost int32 = -4

// object is the bookkeeping shared by every fake handle. destroyed is guarded
// by the owning device's mutex.
type object struct {
	dev       *Device
	kind      string
	id        int
	destroyed bool
}

type tracked interface {
	base() *object
}

func (o *object) base() *object { return o }

func (o *object) ID() int { return o.id }

func (o *object) Destroyed() bool {
	o.dev.mu.Lock()
	defer o.dev.mu.Unlock()
	return o.destroyed
}

func (o *object) Destroy() {
	o.dev.mu.Lock()
	defer o.dev.mu.Unlock()
	o.dev.destroyLocked(o)
}

func (o *object) String() string {
	return o.kind + "#" + strconv.Itoa(o.id)
}

type Semaphore struct{ object }

type Image struct {
	object
	// set for images owned by a swapchain
	swapchain *Swapchain
}

func (i *Image) Destroy() {
	i.dev.mu.Lock()
	defer i.dev.mu.Unlock()
	if i.swapchain != nil {
		i.dev.violateLocked("destroy of swapchain owned %s", &i.object)
		return
	}
	i.dev.destroyLocked(&i.object)
}

type ImageView struct {
	object
	Image  *Image
	Aspect gpu.ImageAspect
}

type Swapchain struct {
	object
	Info   gpu.SwapchainInfo
	images []gpu.Image
	next   uint32
}

func (s *Swapchain) Images() []gpu.Image {
	return s.images
}

func (s *Swapchain) Destroy() {
	s.dev.mu.Lock()
	defer s.dev.mu.Unlock()
	s.dev.destroyLocked(&s.object)
	for _, img := range s.images {
		s.dev.destroyLocked(&img.(*Image).object)
	}
}

type RenderPass struct {
	object
	Info gpu.RenderPassInfo
}

type Framebuffer struct {
	object
	Pass        *RenderPass
	Attachments []gpu.ImageView
	Extent      gpu.Extent
}

type ShaderModule struct {
	object
	Code []uint32
}

type PipelineLayout struct{ object }

type Pipeline struct {
	object
	Info gpu.GraphicsPipelineInfo
}

type Buffer struct {
	object
	Data []byte
}

func (b *Buffer) Size() uint64 { return uint64(len(b.Data)) }

// Fence is signalled by the fake queue when the submission it guards
// completes. With manual fences the test decides when that happens.
type Fence struct {
	object
	done chan struct{}
}

func (f *Fence) Wait(timeout uint64) gpu.Result {
	f.dev.mu.Lock()
	f.dev.useLocked("wait fence", f)
	failed := f.dev.failureLocked(OpWaitFence) != nil
	done := f.done
	f.dev.mu.Unlock()

	if failed {
		return gpu.Failure(resultErrorDeviceLost)
	}

	select {
	case <-done:
		return gpu.Success()
	default:
	}
	if timeout >= math.MaxInt64 {
		<-done
		return gpu.Success()
	}
	timer := time.NewTimer(time.Duration(timeout))
	defer timer.Stop()
	select {
	case <-done:
		return gpu.Success()
	case <-timer.C:
		return gpu.Timeout()
	}
}

func (f *Fence) Reset() error {
	f.dev.mu.Lock()
	defer f.dev.mu.Unlock()
	f.dev.useLocked("reset fence", f)
	if f.signaledLocked() {
		f.done = make(chan struct{})
	}
	return nil
}

// Signaled reports the current fence state.
func (f *Fence) Signaled() bool {
	f.dev.mu.Lock()
	defer f.dev.mu.Unlock()
	return f.signaledLocked()
}

func (f *Fence) signaledLocked() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

func (f *Fence) signalLocked() {
	if !f.signaledLocked() {
		close(f.done)
	}
}

// CommandBuffer keeps the commands of its last recording.
type CommandBuffer struct {
	object
	recording bool
	inPass    bool
	commands  []string
	clear     gpu.ClearValues
	target    *Framebuffer
}

func (c *CommandBuffer) Begin() error {
	c.dev.mu.Lock()
	defer c.dev.mu.Unlock()
	c.dev.useLocked("begin command buffer", c)
	if err := c.dev.failureLocked(OpBeginCommandBuffer); err != nil {
		return err
	}
	if c.recording {
		c.dev.violateLocked("begin of %s while recording", &c.object)
	}
	c.recording = true
	c.commands = nil
	c.target = nil
	return nil
}

func (c *CommandBuffer) End() error {
	c.dev.mu.Lock()
	defer c.dev.mu.Unlock()
	c.dev.useLocked("end command buffer", c)
	if err := c.dev.failureLocked(OpEndCommandBuffer); err != nil {
		return err
	}
	if !c.recording || c.inPass {
		c.dev.violateLocked("end of %s outside of a clean recording", &c.object)
	}
	c.recording = false
	return nil
}

func (c *CommandBuffer) BeginRenderPass(pass gpu.RenderPass, framebuffer gpu.Framebuffer, area gpu.Extent, clear gpu.ClearValues) {
	c.dev.mu.Lock()
	defer c.dev.mu.Unlock()
	c.dev.useLocked("begin render pass", c, pass, framebuffer)
	c.requireRecordingLocked("begin render pass")
	c.inPass = true
	c.clear = clear
	c.target, _ = framebuffer.(*Framebuffer)
	c.commands = append(c.commands, "begin_render_pass")
}

func (c *CommandBuffer) EndRenderPass() {
	c.dev.mu.Lock()
	defer c.dev.mu.Unlock()
	c.requireRecordingLocked("end render pass")
	c.inPass = false
	c.commands = append(c.commands, "end_render_pass")
}

func (c *CommandBuffer) BindPipeline(pipeline gpu.Pipeline) {
	c.dev.mu.Lock()
	defer c.dev.mu.Unlock()
	c.dev.useLocked("bind pipeline", c, pipeline)
	c.requireRecordingLocked("bind pipeline")
	c.commands = append(c.commands, "bind_pipeline")
}

func (c *CommandBuffer) BindVertexBuffer(buffer gpu.Buffer, offset uint64) {
	c.dev.mu.Lock()
	defer c.dev.mu.Unlock()
	c.dev.useLocked("bind vertex buffer", c, buffer)
	c.requireRecordingLocked("bind vertex buffer")
	c.commands = append(c.commands, "bind_vertex_buffer")
}

func (c *CommandBuffer) Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	c.dev.mu.Lock()
	defer c.dev.mu.Unlock()
	c.requireRecordingLocked("draw")
	if !c.inPass {
		c.dev.violateLocked("draw outside of a render pass on %s", &c.object)
	}
	c.commands = append(c.commands, "draw "+strconv.Itoa(int(vertexCount)))
}

// Commands returns the commands of the last recording, in order.
func (c *CommandBuffer) Commands() []string {
	c.dev.mu.Lock()
	defer c.dev.mu.Unlock()
	return append([]string(nil), c.commands...)
}

// Clear returns the clear values of the last render pass begun.
func (c *CommandBuffer) Clear() gpu.ClearValues {
	c.dev.mu.Lock()
	defer c.dev.mu.Unlock()
	return c.clear
}

// Target returns the framebuffer of the last render pass begun.
func (c *CommandBuffer) Target() *Framebuffer {
	c.dev.mu.Lock()
	defer c.dev.mu.Unlock()
	return c.target
}

func (c *CommandBuffer) requireRecordingLocked(op string) {
	if !c.recording {
		c.dev.violateLocked("%s on %s while not recording", op, &c.object)
	}
}
