package gpu

type PrimitiveTopology int32

const (
	TopologyPointList     PrimitiveTopology = 0
	TopologyLineList      PrimitiveTopology = 1
	TopologyTriangleList  PrimitiveTopology = 3
	TopologyTriangleStrip PrimitiveTopology = 4
)

type PolygonMode int32

const (
	PolygonModeFill PolygonMode = 0
	PolygonModeLine PolygonMode = 1
)

type CullMode uint32

const (
	CullModeNone  CullMode = 0
	CullModeFront CullMode = 1
	CullModeBack  CullMode = 2
)

type FrontFace int32

const (
	FrontFaceCounterClockwise FrontFace = 0
	FrontFaceClockwise        FrontFace = 1
)

type CompareOp int32

const (
	CompareOpNever       CompareOp = 0
	CompareOpLess        CompareOp = 1
	CompareOpLessOrEqual CompareOp = 3
	CompareOpAlways      CompareOp = 7
)

type BlendFactor int32

const (
	BlendFactorZero             BlendFactor = 0
	BlendFactorOne              BlendFactor = 1
	BlendFactorSrcAlpha         BlendFactor = 6
	BlendFactorOneMinusSrcAlpha BlendFactor = 7
)

type BlendOp int32

const BlendOpAdd BlendOp = 0

type ColorComponent uint32

const (
	ColorComponentR ColorComponent = 0x1
	ColorComponentG ColorComponent = 0x2
	ColorComponentB ColorComponent = 0x4
	ColorComponentA ColorComponent = 0x8
)

const ColorComponentAll = ColorComponentR | ColorComponentG | ColorComponentB | ColorComponentA

type VertexInputRate int32

const (
	VertexInputRateVertex   VertexInputRate = 0
	VertexInputRateInstance VertexInputRate = 1
)

type VertexBinding struct {
	Binding   uint32
	Stride    uint32
	InputRate VertexInputRate
}

type VertexAttribute struct {
	Location uint32
	Binding  uint32
	Format   Format
	Offset   uint32
}

type InputAssemblyState struct {
	Topology               PrimitiveTopology
	PrimitiveRestartEnable bool
}

type RasterizationState struct {
	DepthClampEnable        bool
	RasterizerDiscardEnable bool
	PolygonMode             PolygonMode
	LineWidth               float32
	CullMode                CullMode
	FrontFace               FrontFace
	DepthBiasEnable         bool
}

type MultisampleState struct {
	// Sample count per pixel, 1 disables multisampling.
	Samples             uint32
	SampleShadingEnable bool
	MinSampleShading    float32
}

type ColorBlendAttachment struct {
	BlendEnable         bool
	SrcColorBlendFactor BlendFactor
	DstColorBlendFactor BlendFactor
	ColorBlendOp        BlendOp
	SrcAlphaBlendFactor BlendFactor
	DstAlphaBlendFactor BlendFactor
	AlphaBlendOp        BlendOp
	ColorWriteMask      ColorComponent
}

type DepthStencilState struct {
	DepthTestEnable       bool
	DepthWriteEnable      bool
	DepthCompareOp        CompareOp
	DepthBoundsTestEnable bool
	StencilTestEnable     bool
}

// GraphicsPipelineInfo describes a single-subpass graphics pipeline with one
// vertex and one fragment stage.
type GraphicsPipelineInfo struct {
	VertexShader   ShaderModule
	FragmentShader ShaderModule
	Bindings       []VertexBinding
	Attributes     []VertexAttribute
	InputAssembly  InputAssemblyState
	Viewport       Viewport
	Scissor        Rect2D
	Rasterization  RasterizationState
	Multisample    MultisampleState
	ColorBlend     ColorBlendAttachment
	DepthStencil   DepthStencilState
	Layout         PipelineLayout
	RenderPass     RenderPass
	Subpass        uint32
}
