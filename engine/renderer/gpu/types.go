// Package gpu is the boundary between the frame-rendering core and the
// graphics API. Enumerations keep the numeric values of their Vulkan
// counterparts so a backend can convert them with a plain cast.
package gpu

import (
	"fmt"
	"math"
	"strings"
)

// UndefinedExtent in SurfaceCapabilities.CurrentExtent means the surface size
// is determined by the swapchain extent.
const UndefinedExtent uint32 = math.MaxUint32

type Format int32

const (
	FormatUndefined       Format = 0
	FormatB8G8R8A8Unorm   Format = 44
	FormatB8G8R8A8Srgb    Format = 50
	FormatR32G32Sfloat    Format = 103
	FormatR32G32B32Sfloat Format = 106
	FormatD32Sfloat       Format = 126
	FormatD24UnormS8Uint  Format = 129
	FormatD32SfloatS8Uint Format = 130
)

func (f Format) String() string {
	switch f {
	case FormatUndefined:
		return "undefined"
	case FormatB8G8R8A8Unorm:
		return "B8G8R8A8_UNORM"
	case FormatB8G8R8A8Srgb:
		return "B8G8R8A8_SRGB"
	case FormatR32G32Sfloat:
		return "R32G32_SFLOAT"
	case FormatR32G32B32Sfloat:
		return "R32G32B32_SFLOAT"
	case FormatD32Sfloat:
		return "D32_SFLOAT"
	case FormatD24UnormS8Uint:
		return "D24_UNORM_S8_UINT"
	case FormatD32SfloatS8Uint:
		return "D32_SFLOAT_S8_UINT"
	}
	return fmt.Sprintf("format(%d)", int32(f))
}

// HasStencil reports whether a depth format carries a stencil component.
func (f Format) HasStencil() bool {
	return f == FormatD24UnormS8Uint || f == FormatD32SfloatS8Uint
}

type ColorSpace int32

const ColorSpaceSrgbNonlinear ColorSpace = 0

type PresentMode int32

const (
	PresentModeImmediate   PresentMode = 0
	PresentModeMailbox     PresentMode = 1
	PresentModeFifo        PresentMode = 2
	PresentModeFifoRelaxed PresentMode = 3
)

var presentModeNames = map[PresentMode]string{
	PresentModeImmediate:   "immediate",
	PresentModeMailbox:     "mailbox",
	PresentModeFifo:        "fifo",
	PresentModeFifoRelaxed: "fifo_relaxed",
}

func (m PresentMode) String() string {
	if s, ok := presentModeNames[m]; ok {
		return s
	}
	return fmt.Sprintf("present_mode(%d)", int32(m))
}

// ParsePresentMode maps the names used in the configuration file.
func ParsePresentMode(s string) (PresentMode, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for m, n := range presentModeNames {
		if n == name {
			return m, nil
		}
	}
	return PresentModeFifo, fmt.Errorf("unknown present mode `%s`", s)
}

type Extent struct {
	Width  uint32
	Height uint32
}

// IsZero reports whether either dimension is zero, as for a minimized window.
func (e Extent) IsZero() bool {
	return e.Width == 0 || e.Height == 0
}

func (e Extent) String() string {
	return fmt.Sprintf("%dx%d", e.Width, e.Height)
}

type SurfaceFormat struct {
	Format     Format
	ColorSpace ColorSpace
}

type SurfaceCapabilities struct {
	MinImageCount  uint32
	// Zero means there is no upper bound.
	MaxImageCount  uint32
	CurrentExtent  Extent
	MinImageExtent Extent
	MaxImageExtent Extent
}

// SurfaceSupport is the result of the surface capability query.
type SurfaceSupport struct {
	Capabilities SurfaceCapabilities
	Formats      []SurfaceFormat
	PresentModes []PresentMode
}

type ImageAspect uint32

const (
	ImageAspectColor ImageAspect = 0x1
	ImageAspectDepth ImageAspect = 0x2
)

type PipelineStage uint32

const PipelineStageColorAttachmentOutput PipelineStage = 0x400

type Viewport struct {
	X, Y          float32
	Width, Height float32
	MinDepth      float32
	MaxDepth      float32
}

type Rect2D struct {
	X, Y   int32
	Extent Extent
}

// ClearValues used when a render pass begins: one colour and one depth/stencil
// value, matching the attachments built by the swapchain.
type ClearValues struct {
	Color   [4]float32
	Depth   float32
	Stencil uint32
}
