package renderer

import (
	"os"
	"path/filepath"
	"testing"

	com "rt_renderer/common"
	"rt_renderer/model"
	"rt_renderer/shaders"
	"rt_renderer/shaders/spirvtest"

	vk "github.com/goki/vulkan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPushConstantMismatchPanicsBeforeDeviceUse(t *testing.T) {
	vs, fs := shaders.SceneInterface()
	fs.PushConstantSize = 128

	assert.Panics(t, func() { assertPushConstantsMatch(vs, fs) })
	// a zero device would crash on first use, the assertion has to fire before that
	assert.Panics(t, func() {
		NewPipelineObject(&com.Device{}, vs, fs, PipelineKey{Samples: vk.SampleCount1Bit})
	})
}

func TestPushConstantMismatchInLoadedShadersPanics(t *testing.T) {
	write := func(dir string, vert, frag []uint32) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "scene.vert.spv"), spirvtest.Bytes(vert), 0o644))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "scene.frag.spv"), spirvtest.Bytes(frag), 0o644))
	}

	matching := t.TempDir()
	write(matching, spirvtest.SceneBlock(), spirvtest.SceneBlock())
	prog, err := shaders.LoadScene(matching)
	require.NoError(t, err)
	assert.NotPanics(t, func() { assertPushConstantsMatch(prog.Vertex, prog.Fragment) })

	// fragment block without camera_pos
	differing := t.TempDir()
	write(differing, spirvtest.SceneBlock(), spirvtest.PushBlock(spirvtest.Mat4, spirvtest.Mat4))
	prog, err = shaders.LoadScene(differing)
	require.NoError(t, err)
	assert.Panics(t, func() {
		NewPipelineObject(&com.Device{}, prog.Vertex, prog.Fragment, PipelineKey{Samples: vk.SampleCount1Bit})
	})

	// both stages agree but declare less than a draw pushes
	short := t.TempDir()
	write(short, spirvtest.PushBlock(spirvtest.Mat4, spirvtest.Mat4), spirvtest.PushBlock(spirvtest.Mat4, spirvtest.Mat4))
	prog, err = shaders.LoadScene(short)
	require.NoError(t, err)
	assert.Panics(t, func() { assertPushConstantsMatch(prog.Vertex, prog.Fragment) })
}

func TestPushConstantRangeCoversBothStages(t *testing.T) {
	vs, fs := shaders.SceneInterface()
	assert.NotPanics(t, func() { assertPushConstantsMatch(vs, fs) })

	r := pushConstantRange(vs, fs)
	assert.Equal(t, uint32(0), r.Offset)
	assert.Equal(t, uint32(model.PushConstantsSize), r.Size)
	assert.Equal(t, vk.ShaderStageFlags(vk.ShaderStageVertexBit|vk.ShaderStageFragmentBit), r.StageFlags)
}

func TestSetLayoutBindingsGroupsBySet(t *testing.T) {
	vs, fs := shaders.SceneInterface()
	sets := setLayoutBindings(vs, fs)
	require.Len(t, sets, 2)

	require.Len(t, sets[0], 1)
	assert.Equal(t, uint32(0), sets[0][0].Binding)
	assert.Equal(t, vk.DescriptorTypeUniformBuffer, sets[0][0].DescriptorType)
	assert.Equal(t, vk.ShaderStageFlags(vk.ShaderStageVertexBit), sets[0][0].StageFlags)

	require.Len(t, sets[1], 2)
	for i, b := range sets[1] {
		assert.Equal(t, uint32(i), b.Binding)
		assert.Equal(t, uint32(1), b.DescriptorCount)
		assert.Equal(t, vk.ShaderStageFlags(vk.ShaderStageFragmentBit), b.StageFlags)
	}
}

func TestSetLayoutBindingsMergesSharedBinding(t *testing.T) {
	vs, fs := shaders.SceneInterface()
	fs.Bindings = append(fs.Bindings, shaders.Binding{Set: 0, Binding: 0, Size: 64})

	sets := setLayoutBindings(vs, fs)
	require.Len(t, sets[0], 1)
	assert.Equal(t, vk.ShaderStageFlags(vk.ShaderStageVertexBit|vk.ShaderStageFragmentBit), sets[0][0].StageFlags)
}

func TestRenderPassAttachmentsSingleSample(t *testing.T) {
	key := PipelineKey{ColorFormat: vk.FormatB8g8r8a8Unorm, DepthFormat: vk.FormatD32Sfloat, Samples: vk.SampleCount1Bit}
	att := renderPassAttachments(key)
	require.Len(t, att, 2)

	color, depth := att[0], att[1]
	assert.Equal(t, vk.AttachmentLoadOpClear, color.LoadOp)
	assert.Equal(t, vk.AttachmentStoreOpStore, color.StoreOp)
	assert.Equal(t, vk.ImageLayoutPresentSrc, color.FinalLayout)
	assert.Equal(t, vk.AttachmentLoadOpClear, depth.LoadOp)
	assert.Equal(t, vk.AttachmentStoreOpDontCare, depth.StoreOp)
	assert.Equal(t, vk.FormatD32Sfloat, depth.Format)
}

func TestRenderPassAttachmentsMultisampled(t *testing.T) {
	key := PipelineKey{ColorFormat: vk.FormatR16g16b16a16Sfloat, DepthFormat: vk.FormatD32Sfloat, Samples: vk.SampleCount4Bit}
	att := renderPassAttachments(key)
	require.Len(t, att, 3)

	color, depth, resolve := att[0], att[1], att[2]
	assert.Equal(t, vk.SampleCount4Bit, color.Samples)
	assert.Equal(t, vk.AttachmentLoadOpClear, color.LoadOp)
	assert.Equal(t, vk.AttachmentStoreOpDontCare, color.StoreOp)
	assert.Equal(t, vk.SampleCount4Bit, depth.Samples)
	assert.Equal(t, vk.AttachmentStoreOpDontCare, depth.StoreOp)

	assert.Equal(t, vk.SampleCount1Bit, resolve.Samples)
	assert.Equal(t, vk.FormatR16g16b16a16Sfloat, resolve.Format)
	assert.Equal(t, vk.AttachmentStoreOpStore, resolve.StoreOp)
	assert.Equal(t, vk.ImageLayoutPresentSrc, resolve.FinalLayout)
}

func TestFramebufferViewsWithoutMultisampling(t *testing.T) {
	var none vk.ImageView
	views := framebufferViews(none, none, none)
	assert.Len(t, views, 2)
}

func TestBindingPlanMatchesShaderInterface(t *testing.T) {
	scene := model.NewScene(model.NewCubeModel("cube"))
	plan, err := bindingPlan(scene, testPipeline().Bindings)
	require.NoError(t, err)
	require.Len(t, plan, 3)

	assert.Equal(t, [2]uint32{0, 0}, [2]uint32{plan[0].Set, plan[0].Binding})
	assert.Len(t, plan[0].Data, model.ModelUniformSize)
	assert.Equal(t, [2]uint32{1, 0}, [2]uint32{plan[1].Set, plan[1].Binding})
	assert.Len(t, plan[1].Data, model.MaterialSize)
	assert.Equal(t, [2]uint32{1, 1}, [2]uint32{plan[2].Set, plan[2].Binding})
	assert.Len(t, plan[2].Data, model.LightSize)
}

func TestBindingPlanRejectsSizeMismatch(t *testing.T) {
	scene := model.NewScene(model.NewCubeModel("cube"))
	bindings := testPipeline().Bindings
	bindings[2].Size = 80

	_, err := bindingPlan(scene, bindings)
	assert.ErrorContains(t, err, "light")
}

func TestBindingPlanRejectsMissingBinding(t *testing.T) {
	scene := model.NewScene(model.NewCubeModel("cube"))
	bindings := testPipeline().Bindings
	bindings[1].Binding = 5

	_, err := bindingPlan(scene, bindings)
	assert.ErrorContains(t, err, "material")

	_, err = bindingPlan(scene, bindings[:2])
	assert.Error(t, err)
}
