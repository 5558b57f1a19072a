package renderer

import (
	"errors"
	"fmt"

	"rt_renderer/model"
	vm "rt_renderer/vector_math"

	vk "github.com/goki/vulkan"
)

var ErrIncompleteDraw = errors.New("draw command is missing pipeline, geometry or bindings")

// FrameTarget is what one frame renders into. The swapchain view changes every frame, depth and multisample
// views persist until the swapchain is recreated.
type FrameTarget struct {
	ImageIndex  uint32
	Extent      vk.Extent2D
	RenderPass  vk.RenderPass
	Framebuffer vk.Framebuffer
	ColorView   vk.ImageView
	DepthView   vk.ImageView
	MsaaView    vk.ImageView
}

// DrawCommand draws one model with the pipeline and the descriptor sets of its scene.
type DrawCommand struct {
	Pipeline *PipelineObject
	Model    *GpuModel
	Bindings *SceneBindings
}

// CommandSubmitter hands out recorders for a target and submits the finished recording after before.
type CommandSubmitter interface {
	Recorder(target FrameTarget) (CommandRecorder, error)
	Submit(rec CommandRecorder, before GpuFuture) (GpuFuture, error)
}

type FrameRenderer struct {
	submitter  CommandSubmitter
	clearColor [4]float32
}

func NewFrameRenderer(submitter CommandSubmitter, clearColor [4]float32) *FrameRenderer {
	return &FrameRenderer{
		submitter:  submitter,
		clearColor: clearColor,
	}
}

// Record writes one frame: clear color and depth, full target viewport and scissor, then per draw the pipeline,
// vertex buffer, both descriptor sets and the push constants, followed by an indexed or plain draw.
func (fr *FrameRenderer) Record(rec CommandRecorder, target FrameTarget, cam vm.CameraState, draws []DrawCommand) error {
	for i, d := range draws {
		if d.Pipeline == nil || d.Model == nil || d.Model.VertexBuffer == nil || d.Bindings == nil {
			return fmt.Errorf("draw %d: %w", i, ErrIncompleteDraw)
		}
	}

	if err := rec.Begin(); err != nil {
		return fmt.Errorf("begin command buffer: %w", err)
	}
	clearValues := []vk.ClearValue{
		vk.NewClearValue(fr.clearColor[:]),
		vk.NewClearDepthStencil(1, 0),
	}
	rec.BeginRenderPass(target.RenderPass, target.Framebuffer, target.Extent, clearValues)
	rec.SetViewport(vk.Viewport{
		X:        0,
		Y:        0,
		Width:    float32(target.Extent.Width),
		Height:   float32(target.Extent.Height),
		MinDepth: 0,
		MaxDepth: 1.0,
	})
	rec.SetScissor(vk.Rect2D{
		Offset: vk.Offset2D{X: 0, Y: 0},
		Extent: target.Extent,
	})

	pc := model.NewPushConstants(cam)
	for _, d := range draws {
		rec.BindPipeline(d.Pipeline.Handle)
		rec.BindVertexBuffer(d.Model.VertexBuffer.Handle)
		rec.BindDescriptorSets(d.Pipeline.Layout, 0, d.Bindings.Sets)
		rec.PushConstants(d.Pipeline.Layout, d.Pipeline.PushRange.StageFlags, &pc)
		if d.Model.IsIndexed() {
			rec.BindIndexBuffer(d.Model.IndexBuffer.Handle)
			rec.DrawIndexed(d.Model.IndexCount, 1, 0, 0, 0)
		} else {
			rec.Draw(d.Model.VertexCount, 1, 0, 0)
		}
	}

	rec.EndRenderPass()
	if err := rec.End(); err != nil {
		return fmt.Errorf("end command buffer: %w", err)
	}
	return nil
}

// Render records the frame and submits it after before. The returned future is chained after before and only
// signals once before has signaled.
func (fr *FrameRenderer) Render(before GpuFuture, target FrameTarget, cam vm.CameraState, draws []DrawCommand) (GpuFuture, error) {
	rec, err := fr.submitter.Recorder(target)
	if err != nil {
		return nil, err
	}
	if err = fr.Record(rec, target, cam, draws); err != nil {
		return nil, err
	}
	return fr.submitter.Submit(rec, before)
}
