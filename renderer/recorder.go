package renderer

import (
	"rt_renderer/model"

	vk "github.com/goki/vulkan"
)

// CommandRecorder is the subset of command buffer recording the frame renderer uses. The Vulkan implementation
// forwards to a primary command buffer, tests record into a list.
type CommandRecorder interface {
	Begin() error
	BeginRenderPass(pass vk.RenderPass, fb vk.Framebuffer, extent vk.Extent2D, clears []vk.ClearValue)
	SetViewport(vp vk.Viewport)
	SetScissor(rect vk.Rect2D)
	BindPipeline(p vk.Pipeline)
	BindVertexBuffer(buf vk.Buffer)
	BindIndexBuffer(buf vk.Buffer)
	BindDescriptorSets(layout vk.PipelineLayout, firstSet uint32, sets []vk.DescriptorSet)
	PushConstants(layout vk.PipelineLayout, stages vk.ShaderStageFlags, pc *model.PushConstants)
	DrawIndexed(indexCount uint32, instanceCount uint32, firstIndex uint32, vertexOffset int32, firstInstance uint32)
	Draw(vertexCount uint32, instanceCount uint32, firstVertex uint32, firstInstance uint32)
	EndRenderPass()
	End() error
}

type vkRecorder struct {
	cmd vk.CommandBuffer
}

func (r *vkRecorder) Begin() error {
	beginInfo := vk.CommandBufferBeginInfo{
		SType:            vk.StructureTypeCommandBufferBeginInfo,
		PNext:            nil,
		Flags:            vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit),
		PInheritanceInfo: nil,
	}
	return vk.Error(vk.BeginCommandBuffer(r.cmd, &beginInfo))
}

func (r *vkRecorder) BeginRenderPass(pass vk.RenderPass, fb vk.Framebuffer, extent vk.Extent2D, clears []vk.ClearValue) {
	renderPassInfo := vk.RenderPassBeginInfo{
		SType:       vk.StructureTypeRenderPassBeginInfo,
		PNext:       nil,
		RenderPass:  pass,
		Framebuffer: fb,
		RenderArea: vk.Rect2D{
			Offset: vk.Offset2D{X: 0, Y: 0},
			Extent: extent,
		},
		ClearValueCount: uint32(len(clears)),
		PClearValues:    clears,
	}
	vk.CmdBeginRenderPass(r.cmd, &renderPassInfo, vk.SubpassContentsInline)
}

func (r *vkRecorder) SetViewport(vp vk.Viewport) {
	vk.CmdSetViewport(r.cmd, 0, 1, []vk.Viewport{vp})
}

func (r *vkRecorder) SetScissor(rect vk.Rect2D) {
	vk.CmdSetScissor(r.cmd, 0, 1, []vk.Rect2D{rect})
}

func (r *vkRecorder) BindPipeline(p vk.Pipeline) {
	vk.CmdBindPipeline(r.cmd, vk.PipelineBindPointGraphics, p)
}

func (r *vkRecorder) BindVertexBuffer(buf vk.Buffer) {
	vk.CmdBindVertexBuffers(r.cmd, 0, 1, []vk.Buffer{buf}, []vk.DeviceSize{0})
}

func (r *vkRecorder) BindIndexBuffer(buf vk.Buffer) {
	vk.CmdBindIndexBuffer(r.cmd, buf, 0, vk.IndexTypeUint32)
}

func (r *vkRecorder) BindDescriptorSets(layout vk.PipelineLayout, firstSet uint32, sets []vk.DescriptorSet) {
	vk.CmdBindDescriptorSets(r.cmd, vk.PipelineBindPointGraphics, layout, firstSet, uint32(len(sets)), sets, 0, nil)
}

func (r *vkRecorder) PushConstants(layout vk.PipelineLayout, stages vk.ShaderStageFlags, pc *model.PushConstants) {
	vk.CmdPushConstants(r.cmd, layout, stages, 0, model.PushConstantsSize, pc.Pointer())
}

func (r *vkRecorder) DrawIndexed(indexCount uint32, instanceCount uint32, firstIndex uint32, vertexOffset int32, firstInstance uint32) {
	vk.CmdDrawIndexed(r.cmd, indexCount, instanceCount, firstIndex, vertexOffset, firstInstance)
}

func (r *vkRecorder) Draw(vertexCount uint32, instanceCount uint32, firstVertex uint32, firstInstance uint32) {
	vk.CmdDraw(r.cmd, vertexCount, instanceCount, firstVertex, firstInstance)
}

func (r *vkRecorder) EndRenderPass() {
	vk.CmdEndRenderPass(r.cmd)
}

func (r *vkRecorder) End() error {
	return vk.Error(vk.EndCommandBuffer(r.cmd))
}
