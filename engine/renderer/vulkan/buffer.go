package vulkan

import (
	"fmt"
	"unsafe"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/anima/engine/core"
	"github.com/spaghettifunk/anima/engine/renderer/gpu"
)

type buffer struct {
	device *Device
	handle vk.Buffer
	memory vk.DeviceMemory
	size   uint64
}

func (b *buffer) Size() uint64 {
	return b.size
}

func (b *buffer) Destroy() {
	if b.handle != vk.NullBuffer {
		vk.DestroyBuffer(b.device.LogicalDevice, b.handle, nil)
		b.handle = vk.NullBuffer
	}
	if b.memory != vk.NullDeviceMemory {
		vk.FreeMemory(b.device.LogicalDevice, b.memory, nil)
		b.memory = vk.NullDeviceMemory
	}
	b.size = 0
}

func (d *Device) createBuffer(size uint64, usage vk.BufferUsageFlags, properties vk.MemoryPropertyFlags) (*buffer, error) {
	createInfo := vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        vk.DeviceSize(size),
		Usage:       usage,
		SharingMode: vk.SharingModeExclusive, // NOTE: Only used in one queue.
	}

	b := &buffer{device: d, size: size}
	if res := vk.CreateBuffer(d.LogicalDevice, &createInfo, nil, &b.handle); res != vk.Success {
		return nil, vulkanError("vkCreateBuffer", res)
	}

	var requirements vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(d.LogicalDevice, b.handle, &requirements)
	requirements.Deref()

	memoryType, err := d.findMemoryIndex(requirements.MemoryTypeBits, properties)
	if err != nil {
		b.Destroy()
		return nil, err
	}
	allocateInfo := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  requirements.Size,
		MemoryTypeIndex: memoryType,
	}
	if res := vk.AllocateMemory(d.LogicalDevice, &allocateInfo, nil, &b.memory); res != vk.Success {
		b.Destroy()
		return nil, vulkanError("vkAllocateMemory", res)
	}
	if res := vk.BindBufferMemory(d.LogicalDevice, b.handle, b.memory, 0); res != vk.Success {
		b.Destroy()
		return nil, vulkanError("vkBindBufferMemory", res)
	}
	return b, nil
}

// CreateVertexBuffer copies data through a host visible staging buffer into
// a device local vertex buffer.
func (d *Device) CreateVertexBuffer(data []byte) (gpu.Buffer, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: vertex data is empty", core.ErrBufferCreate)
	}
	size := uint64(len(data))

	staging, err := d.createBuffer(
		size,
		vk.BufferUsageFlags(vk.BufferUsageTransferSrcBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit)|vk.MemoryPropertyFlags(vk.MemoryPropertyHostCoherentBit),
	)
	if err != nil {
		return nil, fmt.Errorf("creating the staging buffer: %w", err)
	}
	defer staging.Destroy()

	var mapped unsafe.Pointer
	if res := vk.MapMemory(d.LogicalDevice, staging.memory, 0, vk.DeviceSize(size), 0, &mapped); res != vk.Success {
		return nil, vulkanError("vkMapMemory", res)
	}
	vk.Memcopy(mapped, data)
	vk.UnmapMemory(d.LogicalDevice, staging.memory)

	vertex, err := d.createBuffer(
		size,
		vk.BufferUsageFlags(vk.BufferUsageTransferDstBit)|vk.BufferUsageFlags(vk.BufferUsageVertexBufferBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit),
	)
	if err != nil {
		return nil, fmt.Errorf("creating the vertex buffer: %w", err)
	}

	cb, err := d.beginSingleUse()
	if err != nil {
		vertex.Destroy()
		return nil, err
	}
	vk.CmdCopyBuffer(cb.handle, staging.handle, vertex.handle, 1, []vk.BufferCopy{{
		SrcOffset: 0,
		DstOffset: 0,
		Size:      vk.DeviceSize(size),
	}})
	if err := d.endSingleUse(cb); err != nil {
		vertex.Destroy()
		return nil, fmt.Errorf("copying the staging buffer: %w", err)
	}
	return vertex, nil
}
