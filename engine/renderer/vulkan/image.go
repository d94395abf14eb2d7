package vulkan

import (
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/anima/engine/renderer/gpu"
)

// depthImage is a device local image with its own memory, used as the depth
// attachment of one swapchain image.
type depthImage struct {
	device *Device
	handle vk.Image
	memory vk.DeviceMemory
}

func (i *depthImage) Destroy() {
	if i.handle != vk.NullImage {
		vk.DestroyImage(i.device.LogicalDevice, i.handle, nil)
		i.handle = vk.NullImage
	}
	if i.memory != vk.NullDeviceMemory {
		vk.FreeMemory(i.device.LogicalDevice, i.memory, nil)
		i.memory = vk.NullDeviceMemory
	}
}

func (d *Device) CreateDepthImage(extent gpu.Extent, format gpu.Format) (gpu.Image, error) {
	imageInfo := vk.ImageCreateInfo{
		SType:     vk.StructureTypeImageCreateInfo,
		ImageType: vk.ImageType2d,
		Extent: vk.Extent3D{
			Width:  extent.Width,
			Height: extent.Height,
			Depth:  1,
		},
		MipLevels:     1,
		ArrayLayers:   1,
		Format:        vk.Format(format),
		Tiling:        vk.ImageTilingOptimal,
		InitialLayout: vk.ImageLayoutUndefined,
		Usage:         vk.ImageUsageFlags(vk.ImageUsageDepthStencilAttachmentBit),
		SharingMode:   vk.SharingModeExclusive,
		Samples:       vk.SampleCount1Bit,
	}

	img := &depthImage{device: d}
	if res := vk.CreateImage(d.LogicalDevice, &imageInfo, nil, &img.handle); res != vk.Success {
		return nil, vulkanError("vkCreateImage", res)
	}

	var requirements vk.MemoryRequirements
	vk.GetImageMemoryRequirements(d.LogicalDevice, img.handle, &requirements)
	requirements.Deref()

	memoryType, err := d.findMemoryIndex(requirements.MemoryTypeBits, vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit))
	if err != nil {
		img.Destroy()
		return nil, err
	}
	allocateInfo := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  requirements.Size,
		MemoryTypeIndex: memoryType,
	}
	if res := vk.AllocateMemory(d.LogicalDevice, &allocateInfo, nil, &img.memory); res != vk.Success {
		img.Destroy()
		return nil, vulkanError("vkAllocateMemory", res)
	}
	if res := vk.BindImageMemory(d.LogicalDevice, img.handle, img.memory, 0); res != vk.Success {
		img.Destroy()
		return nil, vulkanError("vkBindImageMemory", res)
	}
	return img, nil
}

type imageView struct {
	device *Device
	handle vk.ImageView
}

func (v *imageView) Destroy() {
	if v.handle != vk.NullImageView {
		vk.DestroyImageView(v.device.LogicalDevice, v.handle, nil)
		v.handle = vk.NullImageView
	}
}

func (d *Device) CreateImageView(image gpu.Image, format gpu.Format, aspect gpu.ImageAspect) (gpu.ImageView, error) {
	handle, err := imageHandle(image)
	if err != nil {
		return nil, err
	}
	createInfo := vk.ImageViewCreateInfo{
		SType:    vk.StructureTypeImageViewCreateInfo,
		Image:    handle,
		ViewType: vk.ImageViewType2d,
		Format:   vk.Format(format),
		Components: vk.ComponentMapping{
			R: vk.ComponentSwizzleIdentity,
			G: vk.ComponentSwizzleIdentity,
			B: vk.ComponentSwizzleIdentity,
			A: vk.ComponentSwizzleIdentity,
		},
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask:     vk.ImageAspectFlags(aspect),
			BaseMipLevel:   0,
			LevelCount:     1,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
	}

	view := &imageView{device: d}
	if res := vk.CreateImageView(d.LogicalDevice, &createInfo, nil, &view.handle); res != vk.Success {
		return nil, vulkanError("vkCreateImageView", res)
	}
	return view, nil
}
