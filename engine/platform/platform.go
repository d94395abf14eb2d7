package platform

import (
	"fmt"
	"os"
	"runtime"

	"github.com/go-gl/glfw/v3.3/glfw"
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/anima/engine/core"
	"github.com/spaghettifunk/anima/engine/renderer/gpu"
)

func init() {
	// GLFW event handling must run on the main OS thread
	runtime.LockOSThread()
}

// ForceX11 makes GLFW and any toolkit pick X11 (or XWayland) on linux. It has
// to run before Startup.
func ForceX11() {
	if runtime.GOOS != "linux" {
		return
	}
	os.Unsetenv("WAYLAND_DISPLAY")
	os.Setenv("XDG_SESSION_TYPE", "x11")
	os.Setenv("GDK_BACKEND", "x11")
	core.LogDebug("forcing the X11 windowing backend")
}

// Platform owns the GLFW window and the Vulkan surface created for it.
type Platform struct {
	Window *glfw.Window

	instance vk.Instance
	surface  vk.Surface
	resized  bool
}

func New() *Platform {
	return &Platform{surface: vk.NullSurface}
}

func (p *Platform) Startup(applicationName string, x, y int, width, height uint32) error {
	if err := glfw.Init(); err != nil {
		e := fmt.Errorf("failed to initialize glfw: %w", err)
		core.LogError(e.Error())
		return e
	}

	glfw.WindowHint(glfw.Visible, glfw.False)
	glfw.WindowHint(glfw.Resizable, glfw.True)
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI) // Required for Vulkan.

	window, err := glfw.CreateWindow(int(width), int(height), applicationName, nil, nil)
	if err != nil {
		e := fmt.Errorf("failed to create window: %w", err)
		core.LogError(e.Error())
		glfw.Terminate()
		return e
	}
	p.Window = window

	p.Window.SetKeyCallback(keyCallback)
	p.Window.SetFramebufferSizeCallback(p.framebufferSizeCallback)
	p.Window.SetPos(x, y)
	p.Window.Show()
	return nil
}

func (p *Platform) Shutdown() {
	p.DestroySurface()
	if p.Window != nil {
		p.Window.Destroy()
		p.Window = nil
	}
	glfw.Terminate()
}

func (p *Platform) PollEvents() {
	glfw.PollEvents()
}

func (p *Platform) WaitEvents() {
	glfw.WaitEvents()
}

// Wake unblocks WaitEvents. Safe to call from any goroutine.
func (p *Platform) Wake() {
	glfw.PostEmptyEvent()
}

func (p *Platform) ShouldClose() bool {
	return p.Window.ShouldClose()
}

func (p *Platform) FramebufferSize() gpu.Extent {
	w, h := p.Window.GetFramebufferSize()
	if w < 0 || h < 0 {
		return gpu.Extent{}
	}
	return gpu.Extent{Width: uint32(w), Height: uint32(h)}
}

func (p *Platform) WasResized() bool {
	return p.resized
}

func (p *Platform) ResetResizedFlag() {
	p.resized = false
}

func (p *Platform) RequiredInstanceExtensions() []string {
	return p.Window.GetRequiredInstanceExtensions()
}

// CreateSurface creates the window surface for instance. The instance is kept
// so the surface can be recreated after it is lost.
func (p *Platform) CreateSurface(instance vk.Instance) error {
	ptr, err := p.Window.CreateWindowSurface(instance, nil)
	if err != nil {
		return fmt.Errorf("cannot create surface within GLFW window: %w", err)
	}
	p.instance = instance
	p.surface = vk.SurfaceFromPointer(ptr)
	return nil
}

func (p *Platform) Surface() vk.Surface {
	return p.surface
}

func (p *Platform) RecreateSurface() error {
	if p.instance == nil {
		return fmt.Errorf("%w: no instance to recreate the surface with", core.ErrSurfaceCreate)
	}
	core.LogInfo("recreating the window surface")
	p.DestroySurface()
	if err := p.CreateSurface(p.instance); err != nil {
		return fmt.Errorf("%w: %w", core.ErrSurfaceCreate, err)
	}
	return nil
}

func (p *Platform) DestroySurface() {
	if p.surface != vk.NullSurface {
		vk.DestroySurface(p.instance, p.surface, nil)
		p.surface = vk.NullSurface
	}
}

func keyCallback(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
	if key == glfw.KeyEscape && action == glfw.Press {
		w.SetShouldClose(true)
	}
}

func (p *Platform) framebufferSizeCallback(w *glfw.Window, width, height int) {
	core.LogDebug("framebuffer resized to %dx%d", width, height)
	p.resized = true
}
