package renderer

import (
	"log"
	"slices"

	com "rt_renderer/common"
	"rt_renderer/model"
	"rt_renderer/shaders"
	vm "rt_renderer/vector_math"

	vk "github.com/goki/vulkan"
)

// PipelineKey identifies the attachments a pipeline renders into. One PipelineObject exists per key in use.
type PipelineKey struct {
	ColorFormat vk.Format
	DepthFormat vk.Format
	Samples     vk.SampleCountFlagBits
}

func (k PipelineKey) multisampled() bool {
	return k.Samples > vk.SampleCount1Bit
}

// PipelineObject is the fixed Phong pipeline together with everything derived from the shader interface: set
// layouts, the push constant range and a render pass matching its key. It is immutable after creation.
type PipelineObject struct {
	Handle     vk.Pipeline
	Layout     vk.PipelineLayout
	SetLayouts []vk.DescriptorSetLayout
	RenderPass vk.RenderPass
	Key        PipelineKey
	PushRange  vk.PushConstantRange
	// Bindings lists the uniform buffers of both stages ordered by set and binding.
	Bindings []shaders.Binding
}

func NewPipelineObject(dev *com.Device, vs shaders.Stage, fs shaders.Stage, key PipelineKey) *PipelineObject {
	// Both stages declare the same push block. Catch a mismatch before the driver does.
	assertPushConstantsMatch(vs, fs)

	po := &PipelineObject{
		Key:       key,
		PushRange: pushConstantRange(vs, fs),
		Bindings:  stageBindings(vs, fs),
	}
	po.createRenderPass(dev.D)
	po.createSetLayouts(dev.D, setLayoutBindings(vs, fs))
	po.createPipelineLayout(dev.D)
	po.createGraphicsPipeline(dev.D, vs, fs)
	log.Printf("Successfully created pipeline for %+v", key)
	return po
}

func (po *PipelineObject) Destroy(d vk.Device) {
	vk.DestroyPipeline(d, po.Handle, nil)
	vk.DestroyPipelineLayout(d, po.Layout, nil)
	for _, l := range po.SetLayouts {
		vk.DestroyDescriptorSetLayout(d, l, nil)
	}
	vk.DestroyRenderPass(d, po.RenderPass, nil)
}

func assertPushConstantsMatch(vs shaders.Stage, fs shaders.Stage) {
	if vs.PushConstantSize != fs.PushConstantSize {
		log.Panicf(
			"Push constant size differs between vertex (%d Byte) and fragment (%d Byte) stage",
			vs.PushConstantSize, fs.PushConstantSize,
		)
	}
	if vs.PushConstantSize != model.PushConstantsSize {
		log.Panicf(
			"Push constant block of %d Byte does not match the %d Byte pushed per draw",
			vs.PushConstantSize, model.PushConstantsSize,
		)
	}
}

func pushConstantRange(vs shaders.Stage, fs shaders.Stage) vk.PushConstantRange {
	return vk.PushConstantRange{
		StageFlags: vk.ShaderStageFlags(vs.Flag | fs.Flag),
		Offset:     0,
		Size:       vs.PushConstantSize,
	}
}

func stageBindings(vs shaders.Stage, fs shaders.Stage) []shaders.Binding {
	bindings := slices.Concat(vs.Bindings, fs.Bindings)
	slices.SortFunc(bindings, func(a, b shaders.Binding) int {
		if a.Set != b.Set {
			return int(a.Set) - int(b.Set)
		}
		return int(a.Binding) - int(b.Binding)
	})
	return bindings
}

// setLayoutBindings groups the uniform buffers of both stages by set index. The result has one entry per set from
// 0 up to the highest set used; a binding read by both stages gets both stage flags.
func setLayoutBindings(vs shaders.Stage, fs shaders.Stage) [][]vk.DescriptorSetLayoutBinding {
	var sets [][]vk.DescriptorSetLayoutBinding
	for _, stage := range []shaders.Stage{vs, fs} {
		for _, b := range stage.Bindings {
			for uint32(len(sets)) <= b.Set {
				sets = append(sets, nil)
			}
			idx := slices.IndexFunc(sets[b.Set], func(l vk.DescriptorSetLayoutBinding) bool {
				return l.Binding == b.Binding
			})
			if idx >= 0 {
				sets[b.Set][idx].StageFlags |= vk.ShaderStageFlags(stage.Flag)
				continue
			}
			sets[b.Set] = append(sets[b.Set], vk.DescriptorSetLayoutBinding{
				Binding:            b.Binding,
				DescriptorType:     vk.DescriptorTypeUniformBuffer,
				DescriptorCount:    1,
				StageFlags:         vk.ShaderStageFlags(stage.Flag),
				PImmutableSamplers: nil,
			})
		}
	}
	for _, set := range sets {
		slices.SortFunc(set, func(a, b vk.DescriptorSetLayoutBinding) int {
			return int(a.Binding) - int(b.Binding)
		})
	}
	return sets
}

func (po *PipelineObject) createSetLayouts(d vk.Device, sets [][]vk.DescriptorSetLayoutBinding) {
	po.SetLayouts = make([]vk.DescriptorSetLayout, len(sets))
	for i, bindings := range sets {
		layoutInfo := vk.DescriptorSetLayoutCreateInfo{
			SType:        vk.StructureTypeDescriptorSetLayoutCreateInfo,
			PNext:        nil,
			Flags:        0,
			BindingCount: uint32(len(bindings)),
			PBindings:    bindings,
		}
		dsl, err := com.VkCreateDescriptorSetLayout(d, &layoutInfo, nil)
		if err != nil {
			log.Panicf("Failed to create descriptor set layout %d: %v", i, err)
		}
		po.SetLayouts[i] = dsl
	}
}

// renderPassAttachments describes the attachments in framebuffer order: color, depth and, when multisampled, the
// single sample resolve target. The presented image is always the last color target written.
func renderPassAttachments(key PipelineKey) []vk.AttachmentDescription {
	color := vk.AttachmentDescription{
		Flags:          0,
		Format:         key.ColorFormat,
		Samples:        key.Samples,
		LoadOp:         vk.AttachmentLoadOpClear,
		StoreOp:        vk.AttachmentStoreOpStore,
		StencilLoadOp:  vk.AttachmentLoadOpDontCare,
		StencilStoreOp: vk.AttachmentStoreOpDontCare,
		InitialLayout:  vk.ImageLayoutUndefined,
		FinalLayout:    vk.ImageLayoutPresentSrc,
	}
	depth := vk.AttachmentDescription{
		Flags:          0,
		Format:         key.DepthFormat,
		Samples:        key.Samples,
		LoadOp:         vk.AttachmentLoadOpClear,
		StoreOp:        vk.AttachmentStoreOpDontCare,
		StencilLoadOp:  vk.AttachmentLoadOpDontCare,
		StencilStoreOp: vk.AttachmentStoreOpDontCare,
		InitialLayout:  vk.ImageLayoutUndefined,
		FinalLayout:    vk.ImageLayoutDepthStencilAttachmentOptimal,
	}
	if !key.multisampled() {
		return []vk.AttachmentDescription{color, depth}
	}

	// The multisampled color is only needed until it is resolved
	color.StoreOp = vk.AttachmentStoreOpDontCare
	color.FinalLayout = vk.ImageLayoutColorAttachmentOptimal
	resolve := vk.AttachmentDescription{
		Flags:          0,
		Format:         key.ColorFormat,
		Samples:        vk.SampleCount1Bit,
		LoadOp:         vk.AttachmentLoadOpDontCare,
		StoreOp:        vk.AttachmentStoreOpStore,
		StencilLoadOp:  vk.AttachmentLoadOpDontCare,
		StencilStoreOp: vk.AttachmentStoreOpDontCare,
		InitialLayout:  vk.ImageLayoutUndefined,
		FinalLayout:    vk.ImageLayoutPresentSrc,
	}
	return []vk.AttachmentDescription{color, depth, resolve}
}

func (po *PipelineObject) createRenderPass(d vk.Device) {
	attachments := renderPassAttachments(po.Key)
	colorAttachmentRef := vk.AttachmentReference{
		Attachment: 0,
		Layout:     vk.ImageLayoutColorAttachmentOptimal,
	}
	depthAttachmentRef := vk.AttachmentReference{
		Attachment: 1,
		Layout:     vk.ImageLayoutDepthStencilAttachmentOptimal,
	}
	subpass := vk.SubpassDescription{
		Flags:                   0,
		PipelineBindPoint:       vk.PipelineBindPointGraphics,
		InputAttachmentCount:    0,
		PInputAttachments:       nil,
		ColorAttachmentCount:    1,
		PColorAttachments:       []vk.AttachmentReference{colorAttachmentRef},
		PResolveAttachments:     nil,
		PDepthStencilAttachment: &depthAttachmentRef,
		PreserveAttachmentCount: 0,
		PPreserveAttachments:    nil,
	}
	if po.Key.multisampled() {
		subpass.PResolveAttachments = []vk.AttachmentReference{{
			Attachment: 2,
			Layout:     vk.ImageLayoutColorAttachmentOptimal,
		}}
	}
	dependency := vk.SubpassDependency{
		SrcSubpass:      vk.SubpassExternal,
		DstSubpass:      0,
		SrcStageMask:    vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit | vk.PipelineStageEarlyFragmentTestsBit),
		DstStageMask:    vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit | vk.PipelineStageEarlyFragmentTestsBit),
		SrcAccessMask:   0,
		DstAccessMask:   vk.AccessFlags(vk.AccessColorAttachmentWriteBit | vk.AccessDepthStencilAttachmentWriteBit),
		DependencyFlags: 0,
	}
	renderPassInfo := vk.RenderPassCreateInfo{
		SType:           vk.StructureTypeRenderPassCreateInfo,
		PNext:           nil,
		Flags:           0,
		AttachmentCount: uint32(len(attachments)),
		PAttachments:    attachments,
		SubpassCount:    1,
		PSubpasses:      []vk.SubpassDescription{subpass},
		DependencyCount: 1,
		PDependencies:   []vk.SubpassDependency{dependency},
	}
	renderPass, err := com.VkCreateRenderPass(d, &renderPassInfo, nil)
	if err != nil {
		log.Panicf("Failed to create render pass: %v", err)
	}
	po.RenderPass = renderPass
}

func (po *PipelineObject) createPipelineLayout(d vk.Device) {
	pipelineLayoutInfo := vk.PipelineLayoutCreateInfo{
		SType:                  vk.StructureTypePipelineLayoutCreateInfo,
		PNext:                  nil,
		Flags:                  0,
		SetLayoutCount:         uint32(len(po.SetLayouts)),
		PSetLayouts:            po.SetLayouts,
		PushConstantRangeCount: 1,
		PPushConstantRanges:    []vk.PushConstantRange{po.PushRange},
	}
	layout, err := com.VkCreatePipelineLayout(d, &pipelineLayoutInfo, nil)
	if err != nil {
		log.Panicf("Failed to create pipeline layout: %v", err)
	}
	po.Layout = layout
}

func (po *PipelineObject) createGraphicsPipeline(d vk.Device, vs shaders.Stage, fs shaders.Stage) {
	// Shader modules can go right after pipeline creation
	vertShaderMod, vertStageInfo := LoadStage(d, vs)
	defer DeleteShaderMod(d, vertShaderMod)
	fragShaderMod, fragStageInfo := LoadStage(d, fs)
	defer DeleteShaderMod(d, fragShaderMod)
	shaderStages := []vk.PipelineShaderStageCreateInfo{vertStageInfo, fragStageInfo}

	// Viewport and scissor follow the swapchain extent, a resize never rebuilds the pipeline
	dynamicStates := []vk.DynamicState{
		vk.DynamicStateViewport,
		vk.DynamicStateScissor,
	}
	dynamicStateCreateInfo := vk.PipelineDynamicStateCreateInfo{
		SType:             vk.StructureTypePipelineDynamicStateCreateInfo,
		PNext:             nil,
		Flags:             0,
		DynamicStateCount: uint32(len(dynamicStates)),
		PDynamicStates:    dynamicStates,
	}
	bindingDesc := []vk.VertexInputBindingDescription{vm.GetVertexBindingDescription()}
	attributeDesc := vm.GetVertexAttributeDescriptions()
	vertexInputInfo := vk.PipelineVertexInputStateCreateInfo{
		SType:                           vk.StructureTypePipelineVertexInputStateCreateInfo,
		PNext:                           nil,
		Flags:                           0,
		VertexBindingDescriptionCount:   uint32(len(bindingDesc)),
		PVertexBindingDescriptions:      bindingDesc,
		VertexAttributeDescriptionCount: uint32(len(attributeDesc)),
		PVertexAttributeDescriptions:    attributeDesc,
	}
	inputAssemblyInfo := vk.PipelineInputAssemblyStateCreateInfo{
		SType:                  vk.StructureTypePipelineInputAssemblyStateCreateInfo,
		PNext:                  nil,
		Flags:                  0,
		Topology:               vk.PrimitiveTopologyTriangleList,
		PrimitiveRestartEnable: vk.False,
	}
	viewportStateInfo := vk.PipelineViewportStateCreateInfo{
		SType:         vk.StructureTypePipelineViewportStateCreateInfo,
		PNext:         nil,
		Flags:         0,
		ViewportCount: 1,
		PViewports:    nil,
		ScissorCount:  1,
		PScissors:     nil,
	}
	rasterizerInfo := vk.PipelineRasterizationStateCreateInfo{
		SType:                   vk.StructureTypePipelineRasterizationStateCreateInfo,
		PNext:                   nil,
		Flags:                   0,
		DepthClampEnable:        vk.False,
		RasterizerDiscardEnable: vk.False,
		PolygonMode:             vk.PolygonModeFill,
		CullMode:                vk.CullModeFlags(vk.CullModeBackBit),
		FrontFace:               vk.FrontFaceCounterClockwise,
		DepthBiasEnable:         vk.False,
		DepthBiasConstantFactor: 0,
		DepthBiasClamp:          0,
		DepthBiasSlopeFactor:    0,
		LineWidth:               1.0,
	}
	multisamplingInfo := vk.PipelineMultisampleStateCreateInfo{
		SType:                 vk.StructureTypePipelineMultisampleStateCreateInfo,
		PNext:                 nil,
		Flags:                 0,
		RasterizationSamples:  po.Key.Samples,
		SampleShadingEnable:   vk.False,
		MinSampleShading:      1.0,
		PSampleMask:           nil,
		AlphaToCoverageEnable: vk.False,
		AlphaToOneEnable:      vk.False,
	}
	colorBlendAttachmentInfo := vk.PipelineColorBlendAttachmentState{
		BlendEnable:         vk.False,
		SrcColorBlendFactor: vk.BlendFactorOne,
		DstColorBlendFactor: vk.BlendFactorZero,
		ColorBlendOp:        vk.BlendOpAdd,
		SrcAlphaBlendFactor: vk.BlendFactorOne,
		DstAlphaBlendFactor: vk.BlendFactorZero,
		AlphaBlendOp:        vk.BlendOpAdd,
		ColorWriteMask:      vk.ColorComponentFlags(vk.ColorComponentRBit | vk.ColorComponentGBit | vk.ColorComponentBBit | vk.ColorComponentABit),
	}
	colorBlendingInfo := vk.PipelineColorBlendStateCreateInfo{
		SType:           vk.StructureTypePipelineColorBlendStateCreateInfo,
		PNext:           nil,
		Flags:           0,
		LogicOpEnable:   vk.False,
		LogicOp:         vk.LogicOpCopy,
		AttachmentCount: 1,
		PAttachments:    []vk.PipelineColorBlendAttachmentState{colorBlendAttachmentInfo},
		BlendConstants:  [4]float32{0, 0, 0, 0},
	}
	depthStencil := vk.PipelineDepthStencilStateCreateInfo{
		SType:                 vk.StructureTypePipelineDepthStencilStateCreateInfo,
		PNext:                 nil,
		Flags:                 0,
		DepthTestEnable:       vk.True,
		DepthWriteEnable:      vk.True,
		DepthCompareOp:        vk.CompareOpLess,
		DepthBoundsTestEnable: vk.False,
		StencilTestEnable:     vk.False,
		Front:                 vk.StencilOpState{},
		Back:                  vk.StencilOpState{},
		MinDepthBounds:        0,
		MaxDepthBounds:        1,
	}

	pipelineInfo := vk.GraphicsPipelineCreateInfo{
		SType:               vk.StructureTypeGraphicsPipelineCreateInfo,
		PNext:               nil,
		Flags:               0,
		StageCount:          uint32(len(shaderStages)),
		PStages:             shaderStages,
		PVertexInputState:   &vertexInputInfo,
		PInputAssemblyState: &inputAssemblyInfo,
		PTessellationState:  nil,
		PViewportState:      &viewportStateInfo,
		PRasterizationState: &rasterizerInfo,
		PMultisampleState:   &multisamplingInfo,
		PDepthStencilState:  &depthStencil,
		PColorBlendState:    &colorBlendingInfo,
		PDynamicState:       &dynamicStateCreateInfo,
		Layout:              po.Layout,
		RenderPass:          po.RenderPass,
		Subpass:             0,
		BasePipelineHandle:  nil,
		BasePipelineIndex:   -1,
	}
	pipelines, err := com.VkCreateGraphicsPipelines(d, nil, 1, []vk.GraphicsPipelineCreateInfo{pipelineInfo}, nil)
	if err != nil {
		log.Panicf("Failed to create graphics pipeline: %v", err)
	}
	po.Handle = pipelines[0]
}
