package gputest

import (
	"sync"

	"github.com/spaghettifunk/anima/engine/renderer/gpu"
)

// maxIdleWaits bounds WaitEvents calls on a minimized window with nothing
// queued, so a broken wait loop fails the test instead of hanging it.
const maxIdleWaits = 1000

// Window is a fake surface owner bound to a fake Device: resizing it changes
// the surface extent the device reports.
type Window struct {
	Journal *Journal

	mu        sync.Mutex
	dev       *Device
	size      gpu.Extent
	queued    []gpu.Extent
	resized   bool
	idleWaits int
	surfaces  int
}

func NewWindow(dev *Device, size gpu.Extent) *Window {
	dev.SetCurrentExtent(size)
	return &Window{Journal: dev.Journal, dev: dev, size: size, surfaces: 1}
}

func (w *Window) FramebufferSize() gpu.Extent {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.size
}

// WaitEvents applies the next queued size, if any.
func (w *Window) WaitEvents() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.Journal.Record("wait_events")
	if len(w.queued) == 0 {
		w.idleWaits++
		if w.idleWaits > maxIdleWaits {
			panic("gputest: WaitEvents called on a window that never becomes visible")
		}
		return
	}
	w.resizeLocked(w.queued[0])
	w.queued = w.queued[1:]
}

func (w *Window) WasResized() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.resized
}

func (w *Window) ResetResizedFlag() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.resized = false
}

// RecreateSurface replaces the surface and clears a lost surface condition.
func (w *Window) RecreateSurface() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.Journal.Record("recreate_surface")
	w.surfaces++
	w.dev.SetSurfaceLost(false)
	return nil
}

// Surfaces is the number of surfaces created so far.
func (w *Window) Surfaces() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.surfaces
}

// Resize changes the framebuffer size immediately and raises the resize flag.
func (w *Window) Resize(size gpu.Extent) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.resizeLocked(size)
}

// QueueSizes schedules sizes applied by successive WaitEvents calls.
func (w *Window) QueueSizes(sizes ...gpu.Extent) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.queued = append(w.queued, sizes...)
}

func (w *Window) resizeLocked(size gpu.Extent) {
	w.size = size
	w.resized = true
	w.dev.SetCurrentExtent(size)
}
