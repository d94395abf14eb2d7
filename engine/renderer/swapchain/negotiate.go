package swapchain

import (
	"fmt"

	"github.com/spaghettifunk/anima/engine/core"
	"github.com/spaghettifunk/anima/engine/renderer/gpu"
	"golang.org/x/exp/constraints"
)

var preferredSurfaceFormat = gpu.SurfaceFormat{
	Format:     gpu.FormatB8G8R8A8Srgb,
	ColorSpace: gpu.ColorSpaceSrgbNonlinear,
}

// DefaultPresentModes is the preference order used when none is configured.
var DefaultPresentModes = []gpu.PresentMode{gpu.PresentModeMailbox}

// depthFormatCandidates are probed in order for depth attachment support.
var depthFormatCandidates = []gpu.Format{
	gpu.FormatD32Sfloat,
	gpu.FormatD32SfloatS8Uint,
	gpu.FormatD24UnormS8Uint,
}

func clamp[T constraints.Ordered](value, min, max T) T {
	if value <= min {
		return min
	}
	if value >= max {
		return max
	}
	return value
}

func chooseSurfaceFormat(available []gpu.SurfaceFormat) gpu.SurfaceFormat {
	for _, f := range available {
		if f == preferredSurfaceFormat {
			return f
		}
	}
	return available[0]
}

// choosePresentMode returns the first preferred mode the surface supports.
// FIFO is always available and is the fallback.
func choosePresentMode(available []gpu.PresentMode, preferred []gpu.PresentMode) gpu.PresentMode {
	for _, want := range preferred {
		for _, mode := range available {
			if mode == want {
				return mode
			}
		}
	}
	return gpu.PresentModeFifo
}

func chooseExtent(caps gpu.SurfaceCapabilities, window gpu.Extent) gpu.Extent {
	extent := window
	if caps.CurrentExtent.Width != gpu.UndefinedExtent {
		extent = caps.CurrentExtent
	}
	// Clamp to the value allowed by the GPU.
	extent.Width = clamp(extent.Width, caps.MinImageExtent.Width, caps.MaxImageExtent.Width)
	extent.Height = clamp(extent.Height, caps.MinImageExtent.Height, caps.MaxImageExtent.Height)
	return extent
}

func chooseImageCount(caps gpu.SurfaceCapabilities) uint32 {
	count := caps.MinImageCount + 1
	if caps.MaxImageCount > 0 && count > caps.MaxImageCount {
		count = caps.MaxImageCount
	}
	return count
}

func findDepthFormat(device gpu.Device) (gpu.Format, error) {
	for _, f := range depthFormatCandidates {
		if device.SupportsDepthAttachment(f) {
			return f, nil
		}
	}
	return gpu.FormatUndefined, fmt.Errorf("%w: no supported depth format", core.ErrSwapchainCreate)
}
