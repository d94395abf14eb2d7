package swapchain

import (
	"fmt"
	"math"

	"github.com/spaghettifunk/anima/engine/core"
	"github.com/spaghettifunk/anima/engine/renderer/gpu"
)

// frameSlot holds the synchronization objects of one frame in flight.
type frameSlot struct {
	imageAvailable gpu.Semaphore
	renderFinished gpu.Semaphore
	inFlight       gpu.Fence
}

// createSyncObjects fills the slots that have no objects yet. Fences start
// signalled so the first wait on each slot returns immediately.
func (sc *SwapChain) createSyncObjects() error {
	for i := range sc.frames {
		slot := &sc.frames[i]
		var err error
		if slot.imageAvailable == nil {
			if slot.imageAvailable, err = sc.device.CreateSemaphore(); err != nil {
				return creationError("creating image available semaphore", err)
			}
		}
		if slot.renderFinished == nil {
			if slot.renderFinished, err = sc.device.CreateSemaphore(); err != nil {
				return creationError("creating render finished semaphore", err)
			}
		}
		if slot.inFlight == nil {
			if slot.inFlight, err = sc.device.CreateFence(true); err != nil {
				return creationError("creating in flight fence", err)
			}
		}
	}
	return nil
}

func (sc *SwapChain) destroySyncObjects() {
	for i := range sc.frames {
		slot := &sc.frames[i]
		if slot.imageAvailable != nil {
			slot.imageAvailable.Destroy()
		}
		if slot.renderFinished != nil {
			slot.renderFinished.Destroy()
		}
		if slot.inFlight != nil {
			slot.inFlight.Destroy()
		}
		*slot = frameSlot{}
	}
}

// AcquireNextImage waits until the current frame slot is free, then asks for
// the next presentable image. The result is returned as reported; acting on
// out of date or lost surfaces is up to the caller.
func (sc *SwapChain) AcquireNextImage(timeout uint64) (uint32, gpu.Result) {
	slot := &sc.frames[sc.currentFrame]
	if result := slot.inFlight.Wait(timeout); result.Status != gpu.StatusSuccess {
		return 0, result
	}
	return sc.device.AcquireNextImage(sc.res.handle, timeout, slot.imageAvailable)
}

// WaitForImage blocks until the last submission that rendered to the image
// has completed, so its command buffer can be recorded again.
func (sc *SwapChain) WaitForImage(imageIndex uint32) gpu.Result {
	if int(imageIndex) >= len(sc.imagesInFlight) {
		return gpu.Failure(0)
	}
	if fence := sc.imagesInFlight[imageIndex]; fence != nil {
		return fence.Wait(math.MaxUint64)
	}
	return gpu.Success()
}

// SubmitCommandBuffers submits cb for the acquired image and presents it.
// The present result is returned as reported. An error means the submission
// itself failed.
func (sc *SwapChain) SubmitCommandBuffers(cb gpu.CommandBuffer, imageIndex uint32) (gpu.Result, error) {
	if int(imageIndex) >= len(sc.imagesInFlight) {
		return gpu.Failure(0), fmt.Errorf("%w: image index %d out of range [0, %d)", core.ErrCommandBuffer, imageIndex, len(sc.imagesInFlight))
	}

	// An older frame from another slot may still be rendering to this image.
	if fence := sc.imagesInFlight[imageIndex]; fence != nil {
		if result := fence.Wait(math.MaxUint64); result.Status != gpu.StatusSuccess {
			e := fmt.Errorf("%w: waiting for image %d: %s", core.ErrCommandBuffer, imageIndex, result)
			core.LogError(e.Error())
			return result, e
		}
	}

	slot := &sc.frames[sc.currentFrame]
	sc.imagesInFlight[imageIndex] = slot.inFlight

	if err := slot.inFlight.Reset(); err != nil {
		return gpu.Failure(0), fmt.Errorf("%w: resetting in flight fence: %w", core.ErrCommandBuffer, err)
	}

	err := sc.device.Submit(gpu.SubmitInfo{
		CommandBuffer: cb,
		Wait:          slot.imageAvailable,
		WaitStage:     gpu.PipelineStageColorAttachmentOutput,
		Signal:        slot.renderFinished,
		Fence:         slot.inFlight,
	})
	if err != nil {
		e := fmt.Errorf("%w: submitting draw command buffer: %w", core.ErrCommandBuffer, err)
		core.LogError(e.Error())
		return gpu.Failure(0), e
	}

	result := sc.device.Present(gpu.PresentInfo{
		Swapchain:  sc.res.handle,
		ImageIndex: imageIndex,
		Wait:       slot.renderFinished,
	})

	sc.currentFrame = (sc.currentFrame + 1) % MaxFramesInFlight
	return result, nil
}
