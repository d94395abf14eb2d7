package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/anima/engine/core"
	"github.com/spaghettifunk/anima/engine/renderer/gpu"
)

const portabilitySubsetExtensionName = "VK_KHR_portability_subset"

type physicalDeviceRequirements struct {
	Graphics             bool
	Present              bool
	DeviceExtensionNames []string
}

type queueFamilyInfo struct {
	GraphicsFamilyIndex uint32
	PresentFamilyIndex  uint32
	hasGraphics         bool
	hasPresent          bool
}

// Device implements gpu.Device on a Vulkan logical device with one graphics
// and one present queue.
type Device struct {
	PhysicalDevice vk.PhysicalDevice
	LogicalDevice  vk.Device

	surface  SurfaceProvider
	families queueFamilyInfo

	GraphicsQueue       vk.Queue
	PresentQueue        vk.Queue
	GraphicsCommandPool vk.CommandPool

	Properties vk.PhysicalDeviceProperties
	Memory     vk.PhysicalDeviceMemoryProperties
}

var _ gpu.Device = (*Device)(nil)

// NewDevice selects a physical device able to render to and present on the
// window surface and creates the logical device, its queues and the graphics
// command pool.
func NewDevice(instance vk.Instance, surface SurfaceProvider) (*Device, error) {
	d := &Device{surface: surface}
	if err := d.selectPhysicalDevice(instance); err != nil {
		e := fmt.Errorf("%w: %w", core.ErrDeviceCreate, err)
		core.LogError(e.Error())
		return nil, e
	}
	if err := d.createLogicalDevice(); err != nil {
		e := fmt.Errorf("%w: %w", core.ErrDeviceCreate, err)
		core.LogError(e.Error())
		d.Destroy()
		return nil, e
	}
	return d, nil
}

func (d *Device) selectPhysicalDevice(instance vk.Instance) error {
	var count uint32
	if res := vk.EnumeratePhysicalDevices(instance, &count, nil); res != vk.Success {
		return vulkanError("vkEnumeratePhysicalDevices", res)
	}
	if count == 0 {
		return fmt.Errorf("no devices which support Vulkan were found")
	}
	physicalDevices := make([]vk.PhysicalDevice, count)
	if res := vk.EnumeratePhysicalDevices(instance, &count, physicalDevices); res != vk.Success {
		return vulkanError("vkEnumeratePhysicalDevices", res)
	}

	requirements := physicalDeviceRequirements{
		Graphics:             true,
		Present:              true,
		DeviceExtensionNames: []string{vk.KhrSwapchainExtensionName},
	}

	// Prefer a discrete GPU but settle for any device that qualifies.
	var fallback vk.PhysicalDevice
	var fallbackInfo queueFamilyInfo
	var fallbackProperties vk.PhysicalDeviceProperties
	for _, candidate := range physicalDevices {
		var properties vk.PhysicalDeviceProperties
		vk.GetPhysicalDeviceProperties(candidate, &properties)
		properties.Deref()

		queueInfo, ok := d.meetsRequirements(candidate, &properties, &requirements)
		if !ok {
			continue
		}
		if properties.DeviceType == vk.PhysicalDeviceTypeDiscreteGpu {
			d.use(candidate, queueInfo, properties)
			return nil
		}
		if fallback == nil {
			fallback, fallbackInfo, fallbackProperties = candidate, queueInfo, properties
		}
	}
	if fallback == nil {
		return fmt.Errorf("no physical devices were found which meet the requirements")
	}
	d.use(fallback, fallbackInfo, fallbackProperties)
	return nil
}

func (d *Device) use(physical vk.PhysicalDevice, queueInfo queueFamilyInfo, properties vk.PhysicalDeviceProperties) {
	d.PhysicalDevice = physical
	d.families = queueInfo
	d.Properties = properties
	vk.GetPhysicalDeviceMemoryProperties(physical, &d.Memory)
	d.Memory.Deref()

	core.LogInfo("Selected device: '%s'.", nameString(properties.DeviceName[:]))
	switch properties.DeviceType {
	case vk.PhysicalDeviceTypeIntegratedGpu:
		core.LogInfo("GPU type is Integrated.")
	case vk.PhysicalDeviceTypeDiscreteGpu:
		core.LogInfo("GPU type is Discrete.")
	case vk.PhysicalDeviceTypeVirtualGpu:
		core.LogInfo("GPU type is Virtual.")
	case vk.PhysicalDeviceTypeCpu:
		core.LogInfo("GPU type is CPU.")
	default:
		core.LogInfo("GPU type is Unknown.")
	}
	core.LogInfo(
		"Vulkan API version: %d.%d.%d",
		vk.Version.Major(vk.Version(properties.ApiVersion)),
		vk.Version.Minor(vk.Version(properties.ApiVersion)),
		vk.Version.Patch(vk.Version(properties.ApiVersion)),
	)
}

func (d *Device) meetsRequirements(device vk.PhysicalDevice, properties *vk.PhysicalDeviceProperties, requirements *physicalDeviceRequirements) (queueFamilyInfo, bool) {
	name := nameString(properties.DeviceName[:])
	info := queueFamilyInfo{}

	var familyCount uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(device, &familyCount, nil)
	families := make([]vk.QueueFamilyProperties, familyCount)
	vk.GetPhysicalDeviceQueueFamilyProperties(device, &familyCount, families)

	for i := range families {
		families[i].Deref()
		if !info.hasGraphics && families[i].QueueFlags&vk.QueueFlags(vk.QueueGraphicsBit) != 0 {
			info.GraphicsFamilyIndex = uint32(i)
			info.hasGraphics = true
		}
		var supportsPresent vk.Bool32
		if res := vk.GetPhysicalDeviceSurfaceSupport(device, uint32(i), d.surface.Surface(), &supportsPresent); res != vk.Success {
			core.LogWarn("querying present support of queue family %d on '%s': %s", i, name, VulkanResultString(res))
			continue
		}
		// A family doing both keeps the swapchain images exclusive.
		if supportsPresent == vk.True && (!info.hasPresent || uint32(i) == info.GraphicsFamilyIndex) {
			info.PresentFamilyIndex = uint32(i)
			info.hasPresent = true
		}
	}

	if (requirements.Graphics && !info.hasGraphics) || (requirements.Present && !info.hasPresent) {
		core.LogInfo("Device '%s' lacks the required queues, skipping.", name)
		return info, false
	}
	core.LogDebug("Graphics Family Index: %d", info.GraphicsFamilyIndex)
	core.LogDebug("Present Family Index:  %d", info.PresentFamilyIndex)

	available, err := deviceExtensions(device)
	if err != nil {
		core.LogWarn("skipping '%s': %s", name, err)
		return info, false
	}
	for _, required := range requirements.DeviceExtensionNames {
		if !available[required] {
			core.LogInfo("Required extension not found: '%s', skipping device '%s'.", required, name)
			return info, false
		}
	}

	support, err := querySurfaceSupport(device, d.surface.Surface())
	if err != nil || len(support.Formats) == 0 || len(support.PresentModes) == 0 {
		core.LogInfo("Required swapchain support not present, skipping device '%s'.", name)
		return info, false
	}
	return info, true
}

func deviceExtensions(device vk.PhysicalDevice) (map[string]bool, error) {
	var count uint32
	if res := vk.EnumerateDeviceExtensionProperties(device, "", &count, nil); res != vk.Success {
		return nil, vulkanError("vkEnumerateDeviceExtensionProperties", res)
	}
	properties := make([]vk.ExtensionProperties, count)
	if res := vk.EnumerateDeviceExtensionProperties(device, "", &count, properties); res != vk.Success {
		return nil, vulkanError("vkEnumerateDeviceExtensionProperties", res)
	}
	names := make(map[string]bool, count)
	for i := range properties {
		properties[i].Deref()
		names[nameString(properties[i].ExtensionName[:])] = true
	}
	return names, nil
}

func (d *Device) createLogicalDevice() error {
	core.LogInfo("Creating logical device...")

	// NOTE: Do not create additional queues for shared indices.
	indices := []uint32{d.families.GraphicsFamilyIndex}
	if d.families.PresentFamilyIndex != d.families.GraphicsFamilyIndex {
		indices = append(indices, d.families.PresentFamilyIndex)
	}
	queueCreateInfos := make([]vk.DeviceQueueCreateInfo, len(indices))
	for i, index := range indices {
		queueCreateInfos[i] = vk.DeviceQueueCreateInfo{
			SType:            vk.StructureTypeDeviceQueueCreateInfo,
			QueueFamilyIndex: index,
			QueueCount:       1,
			PQueuePriorities: []float32{1.0},
		}
	}

	available, err := deviceExtensions(d.PhysicalDevice)
	if err != nil {
		return err
	}
	extensionNames := []string{vk.KhrSwapchainExtensionName}
	if available[portabilitySubsetExtensionName] {
		core.LogInfo("Adding required extension '%s'.", portabilitySubsetExtensionName)
		extensionNames = append(extensionNames, portabilitySubsetExtensionName)
	}

	deviceCreateInfo := vk.DeviceCreateInfo{
		SType:                   vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount:    uint32(len(queueCreateInfos)),
		PQueueCreateInfos:       queueCreateInfos,
		PEnabledFeatures:        []vk.PhysicalDeviceFeatures{{}},
		EnabledExtensionCount:   uint32(len(extensionNames)),
		PpEnabledExtensionNames: VulkanSafeStrings(extensionNames),
	}
	if res := vk.CreateDevice(d.PhysicalDevice, &deviceCreateInfo, nil, &d.LogicalDevice); res != vk.Success {
		return vulkanError("vkCreateDevice", res)
	}
	core.LogInfo("Logical device created.")

	vk.GetDeviceQueue(d.LogicalDevice, d.families.GraphicsFamilyIndex, 0, &d.GraphicsQueue)
	vk.GetDeviceQueue(d.LogicalDevice, d.families.PresentFamilyIndex, 0, &d.PresentQueue)
	core.LogInfo("Queues obtained.")

	poolCreateInfo := vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		QueueFamilyIndex: d.families.GraphicsFamilyIndex,
		Flags:            vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit),
	}
	if res := vk.CreateCommandPool(d.LogicalDevice, &poolCreateInfo, nil, &d.GraphicsCommandPool); res != vk.Success {
		return vulkanError("vkCreateCommandPool", res)
	}
	core.LogInfo("Graphics command pool created.")
	return nil
}

// Destroy releases the command pool and the logical device. Physical devices
// are not destroyed.
func (d *Device) Destroy() {
	if d.LogicalDevice == nil {
		return
	}
	if d.GraphicsCommandPool != nil {
		core.LogInfo("Destroying command pools...")
		vk.DestroyCommandPool(d.LogicalDevice, d.GraphicsCommandPool, nil)
		d.GraphicsCommandPool = nil
	}
	core.LogInfo("Destroying logical device...")
	vk.DestroyDevice(d.LogicalDevice, nil)
	d.LogicalDevice = nil
	d.GraphicsQueue = nil
	d.PresentQueue = nil
}

func (d *Device) SurfaceSupport() (gpu.SurfaceSupport, error) {
	return querySurfaceSupport(d.PhysicalDevice, d.surface.Surface())
}

func querySurfaceSupport(physicalDevice vk.PhysicalDevice, surface vk.Surface) (gpu.SurfaceSupport, error) {
	var support gpu.SurfaceSupport

	var capabilities vk.SurfaceCapabilities
	if res := vk.GetPhysicalDeviceSurfaceCapabilities(physicalDevice, surface, &capabilities); res != vk.Success {
		return support, vulkanError("vkGetPhysicalDeviceSurfaceCapabilitiesKHR", res)
	}
	capabilities.Deref()
	capabilities.CurrentExtent.Deref()
	capabilities.MinImageExtent.Deref()
	capabilities.MaxImageExtent.Deref()
	support.Capabilities = gpu.SurfaceCapabilities{
		MinImageCount:  capabilities.MinImageCount,
		MaxImageCount:  capabilities.MaxImageCount,
		CurrentExtent:  fromExtent(capabilities.CurrentExtent),
		MinImageExtent: fromExtent(capabilities.MinImageExtent),
		MaxImageExtent: fromExtent(capabilities.MaxImageExtent),
	}

	var formatCount uint32
	if res := vk.GetPhysicalDeviceSurfaceFormats(physicalDevice, surface, &formatCount, nil); res != vk.Success {
		return support, vulkanError("vkGetPhysicalDeviceSurfaceFormatsKHR", res)
	}
	if formatCount != 0 {
		formats := make([]vk.SurfaceFormat, formatCount)
		if res := vk.GetPhysicalDeviceSurfaceFormats(physicalDevice, surface, &formatCount, formats); res != vk.Success {
			return support, vulkanError("vkGetPhysicalDeviceSurfaceFormatsKHR", res)
		}
		for _, f := range formats {
			f.Deref()
			support.Formats = append(support.Formats, gpu.SurfaceFormat{
				Format:     gpu.Format(f.Format),
				ColorSpace: gpu.ColorSpace(f.ColorSpace),
			})
		}
	}

	var modeCount uint32
	if res := vk.GetPhysicalDeviceSurfacePresentModes(physicalDevice, surface, &modeCount, nil); res != vk.Success {
		return support, vulkanError("vkGetPhysicalDeviceSurfacePresentModesKHR", res)
	}
	if modeCount != 0 {
		modes := make([]vk.PresentMode, modeCount)
		if res := vk.GetPhysicalDeviceSurfacePresentModes(physicalDevice, surface, &modeCount, modes); res != vk.Success {
			return support, vulkanError("vkGetPhysicalDeviceSurfacePresentModesKHR", res)
		}
		for _, m := range modes {
			support.PresentModes = append(support.PresentModes, gpu.PresentMode(m))
		}
	}
	return support, nil
}

func (d *Device) SupportsDepthAttachment(format gpu.Format) bool {
	var properties vk.FormatProperties
	vk.GetPhysicalDeviceFormatProperties(d.PhysicalDevice, vk.Format(format), &properties)
	properties.Deref()
	flags := vk.FormatFeatureFlags(vk.FormatFeatureDepthStencilAttachmentBit)
	return properties.OptimalTilingFeatures&flags == flags
}

func (d *Device) WaitIdle() error {
	if res := vk.DeviceWaitIdle(d.LogicalDevice); res != vk.Success {
		return vulkanError("vkDeviceWaitIdle", res)
	}
	return nil
}

// findMemoryIndex returns the first memory type allowed by typeFilter that
// has all the requested property flags.
func (d *Device) findMemoryIndex(typeFilter uint32, propertyFlags vk.MemoryPropertyFlags) (uint32, error) {
	for i := uint32(0); i < d.Memory.MemoryTypeCount; i++ {
		memoryType := d.Memory.MemoryTypes[i]
		memoryType.Deref()
		if typeFilter&(1<<i) != 0 && memoryType.PropertyFlags&propertyFlags == propertyFlags {
			return i, nil
		}
	}
	return 0, fmt.Errorf("unable to find a suitable memory type")
}

func fromExtent(e vk.Extent2D) gpu.Extent {
	return gpu.Extent{Width: e.Width, Height: e.Height}
}

func toExtent(e gpu.Extent) vk.Extent2D {
	return vk.Extent2D{Width: e.Width, Height: e.Height}
}
