package vulkan

import (
	"fmt"

	"github.com/go-gl/glfw/v3.3/glfw"
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/anima/engine/core"
)

// SurfaceProvider is the window side of presentation: it owns the surface
// and can be asked to replace it after it was lost.
type SurfaceProvider interface {
	RequiredInstanceExtensions() []string
	CreateSurface(instance vk.Instance) error
	// Surface returns the current surface; it changes after a recreation.
	Surface() vk.Surface
	DestroySurface()
}

// Backend owns the instance, the window surface and the device built on them.
type Backend struct {
	instance *Instance
	window   SurfaceProvider
	device   *Device
}

func NewBackend(appName string, window SurfaceProvider, validation bool) (*Backend, error) {
	procAddr := glfw.GetVulkanGetInstanceProcAddress()
	if procAddr == nil {
		err := fmt.Errorf("%w: GetInstanceProcAddress is nil", core.ErrDeviceCreate)
		core.LogError(err.Error())
		return nil, err
	}
	vk.SetGetInstanceProcAddr(procAddr)
	if err := vk.Init(); err != nil {
		e := fmt.Errorf("%w: failed to initialize vk: %w", core.ErrDeviceCreate, err)
		core.LogError(e.Error())
		return nil, e
	}

	instance, err := NewInstance(appName, window.RequiredInstanceExtensions(), validation)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrDeviceCreate, err)
	}
	b := &Backend{instance: instance, window: window}

	core.LogDebug("Creating Vulkan surface...")
	if err := window.CreateSurface(instance.Handle()); err != nil {
		b.Shutdown()
		e := fmt.Errorf("%w: %w", core.ErrSurfaceCreate, err)
		core.LogError(e.Error())
		return nil, e
	}

	device, err := NewDevice(instance.Handle(), window)
	if err != nil {
		b.Shutdown()
		return nil, err
	}
	b.device = device

	core.LogInfo("Vulkan backend initialized successfully.")
	return b, nil
}

func (b *Backend) Device() *Device {
	return b.device
}

// Shutdown releases the device, the surface and the instance, in this order.
// Everything created from the device must be destroyed before.
func (b *Backend) Shutdown() {
	if b.device != nil {
		core.LogDebug("Destroying Vulkan device...")
		b.device.Destroy()
		b.device = nil
	}
	core.LogDebug("Destroying Vulkan surface...")
	b.window.DestroySurface()
	if b.instance != nil {
		core.LogDebug("Destroying Vulkan instance...")
		b.instance.Destroy()
		b.instance = nil
	}
}
