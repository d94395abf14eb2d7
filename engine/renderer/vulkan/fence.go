package vulkan

import (
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/anima/engine/core"
	"github.com/spaghettifunk/anima/engine/renderer/gpu"
)

type fence struct {
	device *Device
	handle vk.Fence
}

func (d *Device) CreateFence(signaled bool) (gpu.Fence, error) {
	createInfo := vk.FenceCreateInfo{
		SType: vk.StructureTypeFenceCreateInfo,
	}
	// Make sure to signal the fence if required.
	if signaled {
		createInfo.Flags = vk.FenceCreateFlags(vk.FenceCreateSignaledBit)
	}

	var handle vk.Fence
	if res := vk.CreateFence(d.LogicalDevice, &createInfo, nil, &handle); res != vk.Success {
		return nil, vulkanError("vkCreateFence", res)
	}
	return &fence{device: d, handle: handle}, nil
}

func (f *fence) Wait(timeout uint64) gpu.Result {
	res := vk.WaitForFences(f.device.LogicalDevice, 1, []vk.Fence{f.handle}, vk.True, timeout)
	switch res {
	case vk.Success, vk.Timeout:
	case vk.ErrorDeviceLost:
		core.LogError("vkWaitForFences - VK_ERROR_DEVICE_LOST.")
	default:
		core.LogError("vkWaitForFences - %s.", VulkanResultString(res))
	}
	return toResult(res)
}

func (f *fence) Reset() error {
	if res := vk.ResetFences(f.device.LogicalDevice, 1, []vk.Fence{f.handle}); res != vk.Success {
		return vulkanError("vkResetFences", res)
	}
	return nil
}

func (f *fence) Destroy() {
	if f.handle != vk.NullFence {
		vk.DestroyFence(f.device.LogicalDevice, f.handle, nil)
		f.handle = vk.NullFence
	}
}

type semaphore struct {
	device *Device
	handle vk.Semaphore
}

func (d *Device) CreateSemaphore() (gpu.Semaphore, error) {
	createInfo := vk.SemaphoreCreateInfo{
		SType: vk.StructureTypeSemaphoreCreateInfo,
	}
	var handle vk.Semaphore
	if res := vk.CreateSemaphore(d.LogicalDevice, &createInfo, nil, &handle); res != vk.Success {
		return nil, vulkanError("vkCreateSemaphore", res)
	}
	return &semaphore{device: d, handle: handle}, nil
}

func (s *semaphore) Destroy() {
	if s.handle != vk.NullSemaphore {
		vk.DestroySemaphore(s.device.LogicalDevice, s.handle, nil)
		s.handle = vk.NullSemaphore
	}
}
