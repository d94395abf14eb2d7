package gpu

// Every object created by a Device is released with Destroy. Destroy is only
// valid once no submitted GPU work references the object.

type Semaphore interface {
	Destroy()
}

type Fence interface {
	// Wait blocks until the fence is signalled or timeout nanoseconds elapse,
	// in which case the result is StatusTimeout.
	Wait(timeout uint64) Result
	Reset() error
	Destroy()
}

type Image interface {
	Destroy()
}

type ImageView interface {
	Destroy()
}

type Swapchain interface {
	// Images are owned by the swapchain and released with it.
	Images() []Image
	Destroy()
}

type RenderPass interface {
	Destroy()
}

type Framebuffer interface {
	Destroy()
}

type ShaderModule interface {
	Destroy()
}

type PipelineLayout interface {
	Destroy()
}

type Pipeline interface {
	Destroy()
}

type Buffer interface {
	Size() uint64
	Destroy()
}

// CommandBuffer records commands for one frame. Commands recorded outside of
// Begin/End are invalid.
type CommandBuffer interface {
	Begin() error
	End() error
	BeginRenderPass(pass RenderPass, framebuffer Framebuffer, area Extent, clear ClearValues)
	EndRenderPass()
	BindPipeline(pipeline Pipeline)
	BindVertexBuffer(buffer Buffer, offset uint64)
	Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32)
}

type SwapchainInfo struct {
	Format      SurfaceFormat
	PresentMode PresentMode
	Extent      Extent
	ImageCount  uint32
	// Old is passed to the driver as a migration hint; it stays owned by the
	// caller and must still be destroyed after the new swapchain exists.
	Old Swapchain
}

type RenderPassInfo struct {
	ColorFormat Format
	DepthFormat Format
}

type SubmitInfo struct {
	CommandBuffer CommandBuffer
	Wait          Semaphore
	WaitStage     PipelineStage
	Signal        Semaphore
	Fence         Fence
}

type PresentInfo struct {
	Swapchain  Swapchain
	ImageIndex uint32
	Wait       Semaphore
}

// Device is the logical device together with its graphics/present queue,
// its command pool and the presentation surface it was created for.
type Device interface {
	// SurfaceSupport queries capabilities, formats and present modes.
	// It returns an error wrapping core.ErrSurfaceLost if the surface is gone.
	SurfaceSupport() (SurfaceSupport, error)
	// SupportsDepthAttachment reports whether format can be used as an optimal
	// tiling depth/stencil attachment.
	SupportsDepthAttachment(format Format) bool
	WaitIdle() error

	CreateSwapchain(info SwapchainInfo) (Swapchain, error)
	CreateImageView(image Image, format Format, aspect ImageAspect) (ImageView, error)
	CreateDepthImage(extent Extent, format Format) (Image, error)
	CreateRenderPass(info RenderPassInfo) (RenderPass, error)
	CreateFramebuffer(pass RenderPass, attachments []ImageView, extent Extent) (Framebuffer, error)
	CreateSemaphore() (Semaphore, error)
	CreateFence(signaled bool) (Fence, error)

	// AcquireNextImage signals the semaphore once the returned image is ready.
	AcquireNextImage(swapchain Swapchain, timeout uint64, signal Semaphore) (uint32, Result)
	Submit(info SubmitInfo) error
	Present(info PresentInfo) Result

	AllocateCommandBuffers(count int) ([]CommandBuffer, error)
	FreeCommandBuffers(buffers []CommandBuffer)

	CreateShaderModule(code []uint32) (ShaderModule, error)
	CreatePipelineLayout() (PipelineLayout, error)
	CreateGraphicsPipeline(info GraphicsPipelineInfo) (Pipeline, error)
	// CreateVertexBuffer uploads data into device local memory.
	CreateVertexBuffer(data []byte) (Buffer, error)
}
