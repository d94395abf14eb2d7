package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/anima/engine/core"
	"github.com/spaghettifunk/anima/engine/renderer/gpu"
)

type commandBufferState int

const (
	commandBufferReady commandBufferState = iota
	commandBufferRecording
	commandBufferInRenderPass
	commandBufferRecordingEnded
	commandBufferSubmitted
	commandBufferNotAllocated
)

func (s commandBufferState) String() string {
	switch s {
	case commandBufferReady:
		return "ready"
	case commandBufferRecording:
		return "recording"
	case commandBufferInRenderPass:
		return "in render pass"
	case commandBufferRecordingEnded:
		return "recording ended"
	case commandBufferSubmitted:
		return "submitted"
	case commandBufferNotAllocated:
		return "not allocated"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

type commandBuffer struct {
	handle vk.CommandBuffer
	state  commandBufferState
}

var _ gpu.CommandBuffer = (*commandBuffer)(nil)

func (d *Device) AllocateCommandBuffers(count int) ([]gpu.CommandBuffer, error) {
	allocateInfo := vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        d.GraphicsCommandPool,
		Level:              vk.CommandBufferLevelPrimary,
		CommandBufferCount: uint32(count),
	}
	handles := make([]vk.CommandBuffer, count)
	if res := vk.AllocateCommandBuffers(d.LogicalDevice, &allocateInfo, handles); res != vk.Success {
		return nil, vulkanError("vkAllocateCommandBuffers", res)
	}

	buffers := make([]gpu.CommandBuffer, count)
	for i, h := range handles {
		buffers[i] = &commandBuffer{handle: h, state: commandBufferReady}
	}
	return buffers, nil
}

func (d *Device) FreeCommandBuffers(buffers []gpu.CommandBuffer) {
	if len(buffers) == 0 {
		return
	}
	handles := make([]vk.CommandBuffer, 0, len(buffers))
	for _, b := range buffers {
		cb := b.(*commandBuffer)
		if cb.state == commandBufferNotAllocated {
			continue
		}
		handles = append(handles, cb.handle)
		cb.handle = nil
		cb.state = commandBufferNotAllocated
	}
	if len(handles) > 0 {
		vk.FreeCommandBuffers(d.LogicalDevice, d.GraphicsCommandPool, uint32(len(handles)), handles)
	}
}

func (d *Device) Submit(info gpu.SubmitInfo) error {
	cb := info.CommandBuffer.(*commandBuffer)
	if cb.state != commandBufferRecordingEnded {
		return fmt.Errorf("submitting command buffer in state %s", cb.state)
	}

	submitInfo := vk.SubmitInfo{
		SType:                vk.StructureTypeSubmitInfo,
		WaitSemaphoreCount:   1,
		PWaitSemaphores:      []vk.Semaphore{info.Wait.(*semaphore).handle},
		PWaitDstStageMask:    []vk.PipelineStageFlags{vk.PipelineStageFlags(info.WaitStage)},
		CommandBufferCount:   1,
		PCommandBuffers:      []vk.CommandBuffer{cb.handle},
		SignalSemaphoreCount: 1,
		PSignalSemaphores:    []vk.Semaphore{info.Signal.(*semaphore).handle},
	}
	if res := vk.QueueSubmit(d.GraphicsQueue, 1, []vk.SubmitInfo{submitInfo}, info.Fence.(*fence).handle); res != vk.Success {
		return vulkanError("vkQueueSubmit", res)
	}
	cb.state = commandBufferSubmitted
	return nil
}

// Begin resets the buffer implicitly; the pool is created with the reset
// command buffer flag.
func (c *commandBuffer) Begin() error {
	return c.begin(false)
}

func (c *commandBuffer) begin(singleUse bool) error {
	beginInfo := vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
	}
	if singleUse {
		beginInfo.Flags |= vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit)
	}
	if res := vk.BeginCommandBuffer(c.handle, &beginInfo); res != vk.Success {
		return vulkanError("vkBeginCommandBuffer", res)
	}
	c.state = commandBufferRecording
	return nil
}

func (c *commandBuffer) End() error {
	if res := vk.EndCommandBuffer(c.handle); res != vk.Success {
		return vulkanError("vkEndCommandBuffer", res)
	}
	c.state = commandBufferRecordingEnded
	return nil
}

func (c *commandBuffer) BeginRenderPass(pass gpu.RenderPass, fb gpu.Framebuffer, area gpu.Extent, clear gpu.ClearValues) {
	if c.state != commandBufferRecording {
		core.LogWarn("beginning a render pass on a command buffer in state %s", c.state)
	}

	clearValues := make([]vk.ClearValue, 2)
	clearValues[0].SetColor(clear.Color[:])
	clearValues[1].SetDepthStencil(clear.Depth, clear.Stencil)

	beginInfo := vk.RenderPassBeginInfo{
		SType:       vk.StructureTypeRenderPassBeginInfo,
		RenderPass:  pass.(*renderPass).handle,
		Framebuffer: fb.(*framebuffer).handle,
		RenderArea: vk.Rect2D{
			Offset: vk.Offset2D{X: 0, Y: 0},
			Extent: toExtent(area),
		},
		ClearValueCount: uint32(len(clearValues)),
		PClearValues:    clearValues,
	}
	vk.CmdBeginRenderPass(c.handle, &beginInfo, vk.SubpassContentsInline)
	c.state = commandBufferInRenderPass
}

func (c *commandBuffer) EndRenderPass() {
	vk.CmdEndRenderPass(c.handle)
	c.state = commandBufferRecording
}

func (c *commandBuffer) BindPipeline(p gpu.Pipeline) {
	vk.CmdBindPipeline(c.handle, vk.PipelineBindPointGraphics, p.(*pipeline).handle)
}

func (c *commandBuffer) BindVertexBuffer(b gpu.Buffer, offset uint64) {
	vk.CmdBindVertexBuffers(c.handle, 0, 1, []vk.Buffer{b.(*buffer).handle}, []vk.DeviceSize{vk.DeviceSize(offset)})
}

func (c *commandBuffer) Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	vk.CmdDraw(c.handle, vertexCount, instanceCount, firstVertex, firstInstance)
}

// beginSingleUse allocates a command buffer and begins recording to it.
func (d *Device) beginSingleUse() (*commandBuffer, error) {
	buffers, err := d.AllocateCommandBuffers(1)
	if err != nil {
		return nil, err
	}
	cb := buffers[0].(*commandBuffer)
	if err := cb.begin(true); err != nil {
		d.FreeCommandBuffers(buffers)
		return nil, err
	}
	return cb, nil
}

// endSingleUse ends recording, submits to the graphics queue, waits for it to
// finish and frees the command buffer.
func (d *Device) endSingleUse(cb *commandBuffer) error {
	defer d.FreeCommandBuffers([]gpu.CommandBuffer{cb})

	if err := cb.End(); err != nil {
		return err
	}
	submitInfo := vk.SubmitInfo{
		SType:              vk.StructureTypeSubmitInfo,
		CommandBufferCount: 1,
		PCommandBuffers:    []vk.CommandBuffer{cb.handle},
	}
	if res := vk.QueueSubmit(d.GraphicsQueue, 1, []vk.SubmitInfo{submitInfo}, vk.NullFence); res != vk.Success {
		return vulkanError("vkQueueSubmit", res)
	}
	if res := vk.QueueWaitIdle(d.GraphicsQueue); res != vk.Success {
		return vulkanError("vkQueueWaitIdle", res)
	}
	return nil
}
