package vulkan

import (
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/anima/engine/renderer/gpu"
)

const shaderEntryPoint = "main\x00"

type shaderModule struct {
	device *Device
	handle vk.ShaderModule
}

func (s *shaderModule) Destroy() {
	if s.handle != vk.NullShaderModule {
		vk.DestroyShaderModule(s.device.LogicalDevice, s.handle, nil)
		s.handle = vk.NullShaderModule
	}
}

func (d *Device) CreateShaderModule(code []uint32) (gpu.ShaderModule, error) {
	createInfo := vk.ShaderModuleCreateInfo{
		SType:    vk.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint64(len(code) * 4),
		PCode:    code,
	}
	module := &shaderModule{device: d}
	if res := vk.CreateShaderModule(d.LogicalDevice, &createInfo, nil, &module.handle); res != vk.Success {
		return nil, vulkanError("vkCreateShaderModule", res)
	}
	return module, nil
}

type pipelineLayout struct {
	device *Device
	handle vk.PipelineLayout
}

func (l *pipelineLayout) Destroy() {
	if l.handle != vk.NullPipelineLayout {
		vk.DestroyPipelineLayout(l.device.LogicalDevice, l.handle, nil)
		l.handle = vk.NullPipelineLayout
	}
}

// CreatePipelineLayout creates a layout without descriptor sets or push
// constants.
func (d *Device) CreatePipelineLayout() (gpu.PipelineLayout, error) {
	createInfo := vk.PipelineLayoutCreateInfo{
		SType: vk.StructureTypePipelineLayoutCreateInfo,
	}
	layout := &pipelineLayout{device: d}
	if res := vk.CreatePipelineLayout(d.LogicalDevice, &createInfo, nil, &layout.handle); res != vk.Success {
		return nil, vulkanError("vkCreatePipelineLayout", res)
	}
	return layout, nil
}

type pipeline struct {
	device *Device
	handle vk.Pipeline
}

func (p *pipeline) Destroy() {
	if p.handle != vk.NullPipeline {
		vk.DestroyPipeline(p.device.LogicalDevice, p.handle, nil)
		p.handle = vk.NullPipeline
	}
}

// CreateGraphicsPipeline translates info into a pipeline with a static
// viewport and scissor. The pipeline is rebuilt whenever the swapchain is.
func (d *Device) CreateGraphicsPipeline(info gpu.GraphicsPipelineInfo) (gpu.Pipeline, error) {
	stages := []vk.PipelineShaderStageCreateInfo{
		{
			SType:  vk.StructureTypePipelineShaderStageCreateInfo,
			Stage:  vk.ShaderStageVertexBit,
			Module: info.VertexShader.(*shaderModule).handle,
			PName:  shaderEntryPoint,
		},
		{
			SType:  vk.StructureTypePipelineShaderStageCreateInfo,
			Stage:  vk.ShaderStageFragmentBit,
			Module: info.FragmentShader.(*shaderModule).handle,
			PName:  shaderEntryPoint,
		},
	}

	bindings := make([]vk.VertexInputBindingDescription, len(info.Bindings))
	for i, b := range info.Bindings {
		bindings[i] = vk.VertexInputBindingDescription{
			Binding:   b.Binding,
			Stride:    b.Stride,
			InputRate: vk.VertexInputRate(b.InputRate),
		}
	}
	attributes := make([]vk.VertexInputAttributeDescription, len(info.Attributes))
	for i, a := range info.Attributes {
		attributes[i] = vk.VertexInputAttributeDescription{
			Location: a.Location,
			Binding:  a.Binding,
			Format:   vk.Format(a.Format),
			Offset:   a.Offset,
		}
	}
	vertexInput := vk.PipelineVertexInputStateCreateInfo{
		SType:                           vk.StructureTypePipelineVertexInputStateCreateInfo,
		VertexBindingDescriptionCount:   uint32(len(bindings)),
		PVertexBindingDescriptions:      bindings,
		VertexAttributeDescriptionCount: uint32(len(attributes)),
		PVertexAttributeDescriptions:    attributes,
	}

	inputAssembly := vk.PipelineInputAssemblyStateCreateInfo{
		SType:                  vk.StructureTypePipelineInputAssemblyStateCreateInfo,
		Topology:               vk.PrimitiveTopology(info.InputAssembly.Topology),
		PrimitiveRestartEnable: vkBool(info.InputAssembly.PrimitiveRestartEnable),
	}

	viewport := vk.Viewport{
		X:        info.Viewport.X,
		Y:        info.Viewport.Y,
		Width:    info.Viewport.Width,
		Height:   info.Viewport.Height,
		MinDepth: info.Viewport.MinDepth,
		MaxDepth: info.Viewport.MaxDepth,
	}
	scissor := vk.Rect2D{
		Offset: vk.Offset2D{X: info.Scissor.X, Y: info.Scissor.Y},
		Extent: toExtent(info.Scissor.Extent),
	}
	viewportState := vk.PipelineViewportStateCreateInfo{
		SType:         vk.StructureTypePipelineViewportStateCreateInfo,
		ViewportCount: 1,
		PViewports:    []vk.Viewport{viewport},
		ScissorCount:  1,
		PScissors:     []vk.Rect2D{scissor},
	}

	// Rasterizer
	r := info.Rasterization
	rasterizer := vk.PipelineRasterizationStateCreateInfo{
		SType:                   vk.StructureTypePipelineRasterizationStateCreateInfo,
		DepthClampEnable:        vkBool(r.DepthClampEnable),
		RasterizerDiscardEnable: vkBool(r.RasterizerDiscardEnable),
		PolygonMode:             vk.PolygonMode(r.PolygonMode),
		LineWidth:               r.LineWidth,
		CullMode:                vk.CullModeFlags(r.CullMode),
		FrontFace:               vk.FrontFace(r.FrontFace),
		DepthBiasEnable:         vkBool(r.DepthBiasEnable),
	}

	// Multisampling.
	samples := info.Multisample.Samples
	if samples == 0 {
		samples = 1
	}
	multisampling := vk.PipelineMultisampleStateCreateInfo{
		SType:                 vk.StructureTypePipelineMultisampleStateCreateInfo,
		RasterizationSamples:  vk.SampleCountFlagBits(samples),
		SampleShadingEnable:   vkBool(info.Multisample.SampleShadingEnable),
		MinSampleShading:      info.Multisample.MinSampleShading,
		AlphaToCoverageEnable: vk.False,
		AlphaToOneEnable:      vk.False,
	}

	// Depth and stencil testing.
	ds := info.DepthStencil
	depthStencil := vk.PipelineDepthStencilStateCreateInfo{
		SType:                 vk.StructureTypePipelineDepthStencilStateCreateInfo,
		DepthTestEnable:       vkBool(ds.DepthTestEnable),
		DepthWriteEnable:      vkBool(ds.DepthWriteEnable),
		DepthCompareOp:        vk.CompareOp(ds.DepthCompareOp),
		DepthBoundsTestEnable: vkBool(ds.DepthBoundsTestEnable),
		StencilTestEnable:     vkBool(ds.StencilTestEnable),
	}

	cb := info.ColorBlend
	colorBlendAttachment := vk.PipelineColorBlendAttachmentState{
		BlendEnable:         vkBool(cb.BlendEnable),
		SrcColorBlendFactor: vk.BlendFactor(cb.SrcColorBlendFactor),
		DstColorBlendFactor: vk.BlendFactor(cb.DstColorBlendFactor),
		ColorBlendOp:        vk.BlendOp(cb.ColorBlendOp),
		SrcAlphaBlendFactor: vk.BlendFactor(cb.SrcAlphaBlendFactor),
		DstAlphaBlendFactor: vk.BlendFactor(cb.DstAlphaBlendFactor),
		AlphaBlendOp:        vk.BlendOp(cb.AlphaBlendOp),
		ColorWriteMask:      vk.ColorComponentFlags(cb.ColorWriteMask),
	}
	colorBlend := vk.PipelineColorBlendStateCreateInfo{
		SType:           vk.StructureTypePipelineColorBlendStateCreateInfo,
		LogicOpEnable:   vk.False,
		LogicOp:         vk.LogicOpCopy,
		AttachmentCount: 1,
		PAttachments:    []vk.PipelineColorBlendAttachmentState{colorBlendAttachment},
	}

	pipelineInfo := vk.GraphicsPipelineCreateInfo{
		SType:               vk.StructureTypeGraphicsPipelineCreateInfo,
		StageCount:          uint32(len(stages)),
		PStages:             stages,
		PVertexInputState:   &vertexInput,
		PInputAssemblyState: &inputAssembly,
		PViewportState:      &viewportState,
		PRasterizationState: &rasterizer,
		PMultisampleState:   &multisampling,
		PDepthStencilState:  &depthStencil,
		PColorBlendState:    &colorBlend,
		Layout:              info.Layout.(*pipelineLayout).handle,
		RenderPass:          info.RenderPass.(*renderPass).handle,
		Subpass:             info.Subpass,
		BasePipelineHandle:  vk.NullPipeline,
		BasePipelineIndex:   -1,
	}

	pipelines := make([]vk.Pipeline, 1)
	if res := vk.CreateGraphicsPipelines(d.LogicalDevice, vk.NullPipelineCache, 1, []vk.GraphicsPipelineCreateInfo{pipelineInfo}, nil, pipelines); res != vk.Success {
		return nil, vulkanError("vkCreateGraphicsPipelines", res)
	}
	return &pipeline{device: d, handle: pipelines[0]}, nil
}
