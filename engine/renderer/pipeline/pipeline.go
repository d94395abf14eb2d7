// Package pipeline builds the graphics pipeline the frame loop draws with.
package pipeline

import (
	"errors"
	"fmt"

	"github.com/spaghettifunk/anima/engine/assets"
	"github.com/spaghettifunk/anima/engine/core"
	"github.com/spaghettifunk/anima/engine/renderer/gpu"
)

// ErrIncompleteConfig is returned when a ConfigInfo lacks its render pass or
// layout.
var ErrIncompleteConfig = errors.New("pipeline config is missing its render pass or layout")

/**
 * @brief Fixed function state of a graphics pipeline. Obtained from
 * DefaultConfigInfo; RenderPass and Layout must be set before use.
 */
type ConfigInfo struct {
	/** @brief The viewport, fixed at pipeline creation. */
	Viewport gpu.Viewport
	/** @brief The scissor, fixed at pipeline creation. */
	Scissor              gpu.Rect2D
	InputAssembly        gpu.InputAssemblyState
	Rasterization        gpu.RasterizationState
	Multisample          gpu.MultisampleState
	ColorBlendAttachment gpu.ColorBlendAttachment
	DepthStencil         gpu.DepthStencilState
	/** @brief Vertex buffer bindings consumed by the vertex stage. */
	Bindings []gpu.VertexBinding
	/** @brief Vertex attributes consumed by the vertex stage. */
	Attributes []gpu.VertexAttribute
	/** @brief The layout the pipeline is created with. Required. */
	Layout gpu.PipelineLayout
	/** @brief The render pass the pipeline is compatible with. Required. */
	RenderPass gpu.RenderPass
	Subpass    uint32
}

// DefaultConfigInfo is a single subpass, triangle list, no blending
// configuration covering a width x height target. Depth testing is off.
func DefaultConfigInfo(width, height uint32) ConfigInfo {
	return ConfigInfo{
		Viewport: gpu.Viewport{
			X:        0,
			Y:        0,
			Width:    float32(width),
			Height:   float32(height),
			MinDepth: 0.0,
			MaxDepth: 1.0,
		},
		Scissor: gpu.Rect2D{
			Extent: gpu.Extent{Width: width, Height: height},
		},
		InputAssembly: gpu.InputAssemblyState{
			Topology:               gpu.TopologyTriangleList,
			PrimitiveRestartEnable: false,
		},
		Rasterization: gpu.RasterizationState{
			PolygonMode: gpu.PolygonModeFill,
			LineWidth:   1.0,
			CullMode:    gpu.CullModeNone,
			FrontFace:   gpu.FrontFaceClockwise,
		},
		Multisample: gpu.MultisampleState{
			Samples:          1,
			MinSampleShading: 1.0,
		},
		ColorBlendAttachment: gpu.ColorBlendAttachment{
			BlendEnable:         false,
			SrcColorBlendFactor: gpu.BlendFactorOne,
			DstColorBlendFactor: gpu.BlendFactorZero,
			ColorBlendOp:        gpu.BlendOpAdd,
			SrcAlphaBlendFactor: gpu.BlendFactorOne,
			DstAlphaBlendFactor: gpu.BlendFactorZero,
			AlphaBlendOp:        gpu.BlendOpAdd,
			ColorWriteMask:      gpu.ColorComponentAll,
		},
		DepthStencil: gpu.DepthStencilState{
			DepthCompareOp: gpu.CompareOpAlways,
		},
		Subpass: 0,
	}
}

// EnableDepthTest turns on depth testing and writing with a less-than compare.
func (c *ConfigInfo) EnableDepthTest() {
	c.DepthStencil.DepthTestEnable = true
	c.DepthStencil.DepthWriteEnable = true
	c.DepthStencil.DepthCompareOp = gpu.CompareOpLess
}

type Pipeline struct {
	handle gpu.Pipeline
	layout gpu.PipelineLayout
}

// New loads both SPIR-V stages and builds the pipeline. Shader modules only
// live for the duration of the call.
func New(device gpu.Device, vertPath, fragPath string, cfg ConfigInfo) (*Pipeline, error) {
	if cfg.RenderPass == nil || cfg.Layout == nil {
		return nil, ErrIncompleteConfig
	}

	vert, err := createShaderModule(device, vertPath)
	if err != nil {
		return nil, err
	}
	defer vert.Destroy()

	frag, err := createShaderModule(device, fragPath)
	if err != nil {
		return nil, err
	}
	defer frag.Destroy()

	handle, err := device.CreateGraphicsPipeline(gpu.GraphicsPipelineInfo{
		VertexShader:   vert,
		FragmentShader: frag,
		Bindings:       cfg.Bindings,
		Attributes:     cfg.Attributes,
		InputAssembly:  cfg.InputAssembly,
		Viewport:       cfg.Viewport,
		Scissor:        cfg.Scissor,
		Rasterization:  cfg.Rasterization,
		Multisample:    cfg.Multisample,
		ColorBlend:     cfg.ColorBlendAttachment,
		DepthStencil:   cfg.DepthStencil,
		Layout:         cfg.Layout,
		RenderPass:     cfg.RenderPass,
		Subpass:        cfg.Subpass,
	})
	if err != nil {
		e := fmt.Errorf("%w: %w", core.ErrPipelineCreate, err)
		core.LogError(e.Error())
		return nil, e
	}

	core.LogDebug("graphics pipeline created from `%s` and `%s`", vertPath, fragPath)
	return &Pipeline{handle: handle, layout: cfg.Layout}, nil
}

func createShaderModule(device gpu.Device, path string) (gpu.ShaderModule, error) {
	code, err := assets.LoadShader(path)
	if err != nil {
		core.LogError(err.Error())
		return nil, err
	}
	module, err := device.CreateShaderModule(code)
	if err != nil {
		e := fmt.Errorf("%w: shader module for `%s`: %w", core.ErrPipelineCreate, path, err)
		core.LogError(e.Error())
		return nil, e
	}
	return module, nil
}

// NewLayout creates an empty pipeline layout: no descriptor sets, no push
// constants.
func NewLayout(device gpu.Device) (gpu.PipelineLayout, error) {
	layout, err := device.CreatePipelineLayout()
	if err != nil {
		return nil, fmt.Errorf("%w: pipeline layout: %w", core.ErrPipelineCreate, err)
	}
	return layout, nil
}

func (p *Pipeline) Bind(cb gpu.CommandBuffer) {
	cb.BindPipeline(p.handle)
}

func (p *Pipeline) Handle() gpu.Pipeline {
	return p.handle
}

// Layout is the layout the pipeline was built with; it is not owned.
func (p *Pipeline) Layout() gpu.PipelineLayout {
	return p.layout
}

func (p *Pipeline) Destroy() {
	if p.handle != nil {
		p.handle.Destroy()
		p.handle = nil
	}
}
