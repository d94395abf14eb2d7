package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/anima/engine/core"
	"github.com/spaghettifunk/anima/engine/renderer/gpu"
)

type swapchain struct {
	device *Device
	handle vk.Swapchain
	images []gpu.Image
}

// swapchainImage is owned by the presentation engine and released together
// with its swapchain.
type swapchainImage struct {
	handle vk.Image
}

func (swapchainImage) Destroy() {}

func (s *swapchain) Images() []gpu.Image {
	return s.images
}

func (s *swapchain) Destroy() {
	if s.handle != vk.NullSwapchain {
		vk.DestroySwapchain(s.device.LogicalDevice, s.handle, nil)
		s.handle = vk.NullSwapchain
	}
	s.images = nil
}

func (d *Device) CreateSwapchain(info gpu.SwapchainInfo) (gpu.Swapchain, error) {
	var capabilities vk.SurfaceCapabilities
	if res := vk.GetPhysicalDeviceSurfaceCapabilities(d.PhysicalDevice, d.surface.Surface(), &capabilities); res != vk.Success {
		return nil, vulkanError("vkGetPhysicalDeviceSurfaceCapabilitiesKHR", res)
	}
	capabilities.Deref()

	createInfo := vk.SwapchainCreateInfo{
		SType:            vk.StructureTypeSwapchainCreateInfo,
		Surface:          d.surface.Surface(),
		MinImageCount:    info.ImageCount,
		ImageFormat:      vk.Format(info.Format.Format),
		ImageColorSpace:  vk.ColorSpace(info.Format.ColorSpace),
		ImageExtent:      toExtent(info.Extent),
		ImageArrayLayers: 1,
		ImageUsage:       vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit),
		PreTransform:     capabilities.CurrentTransform,
		CompositeAlpha:   vk.CompositeAlphaOpaqueBit,
		PresentMode:      vk.PresentMode(info.PresentMode),
		Clipped:          vk.True,
		OldSwapchain:     vk.NullSwapchain,
	}

	// Setup the queue family indices
	if d.families.GraphicsFamilyIndex != d.families.PresentFamilyIndex {
		createInfo.ImageSharingMode = vk.SharingModeConcurrent
		createInfo.QueueFamilyIndexCount = 2
		createInfo.PQueueFamilyIndices = []uint32{
			d.families.GraphicsFamilyIndex,
			d.families.PresentFamilyIndex,
		}
	} else {
		createInfo.ImageSharingMode = vk.SharingModeExclusive
	}

	if old, ok := info.Old.(*swapchain); ok && old != nil {
		createInfo.OldSwapchain = old.handle
	}

	var handle vk.Swapchain
	if res := vk.CreateSwapchain(d.LogicalDevice, &createInfo, nil, &handle); res != vk.Success {
		return nil, vulkanError("vkCreateSwapchainKHR", res)
	}

	var imageCount uint32
	if res := vk.GetSwapchainImages(d.LogicalDevice, handle, &imageCount, nil); res != vk.Success {
		vk.DestroySwapchain(d.LogicalDevice, handle, nil)
		return nil, vulkanError("vkGetSwapchainImagesKHR", res)
	}
	handles := make([]vk.Image, imageCount)
	if res := vk.GetSwapchainImages(d.LogicalDevice, handle, &imageCount, handles); res != vk.Success {
		vk.DestroySwapchain(d.LogicalDevice, handle, nil)
		return nil, vulkanError("vkGetSwapchainImagesKHR", res)
	}

	sc := &swapchain{device: d, handle: handle, images: make([]gpu.Image, imageCount)}
	for i, h := range handles {
		sc.images[i] = swapchainImage{handle: h}
	}
	core.LogDebug("Swapchain created with %d images.", imageCount)
	return sc, nil
}

func (d *Device) AcquireNextImage(sc gpu.Swapchain, timeout uint64, signal gpu.Semaphore) (uint32, gpu.Result) {
	var index uint32
	res := vk.AcquireNextImage(
		d.LogicalDevice,
		sc.(*swapchain).handle,
		timeout,
		signal.(*semaphore).handle,
		vk.NullFence,
		&index,
	)
	return index, toResult(res)
}

func (d *Device) Present(info gpu.PresentInfo) gpu.Result {
	presentInfo := vk.PresentInfo{
		SType:              vk.StructureTypePresentInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{info.Wait.(*semaphore).handle},
		SwapchainCount:     1,
		PSwapchains:        []vk.Swapchain{info.Swapchain.(*swapchain).handle},
		PImageIndices:      []uint32{info.ImageIndex},
	}
	return toResult(vk.QueuePresent(d.PresentQueue, &presentInfo))
}

func imageHandle(image gpu.Image) (vk.Image, error) {
	switch img := image.(type) {
	case swapchainImage:
		return img.handle, nil
	case *depthImage:
		return img.handle, nil
	}
	return vk.NullImage, fmt.Errorf("unsupported image type %T", image)
}
