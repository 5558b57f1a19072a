package renderer

import (
	"fmt"
	"time"

	com "rt_renderer/common"
	"rt_renderer/model"
	"rt_renderer/shaders"

	vk "github.com/goki/vulkan"
)

type fakeFence struct {
	signaled bool
	waits    int
	err      error
}

func (f *fakeFence) Signaled() (bool, error) {
	return f.signaled, f.err
}

func (f *fakeFence) Wait() error {
	f.waits++
	if f.err != nil {
		return f.err
	}
	f.signaled = true
	return nil
}

// fakeRecorder keeps a readable log of every command.
type fakeRecorder struct {
	calls     []string
	pushes    []model.PushConstants
	viewports []vk.Viewport
	scissors  []vk.Rect2D
	clears    int
	beginErr  error
}

func (r *fakeRecorder) log(format string, args ...any) {
	r.calls = append(r.calls, fmt.Sprintf(format, args...))
}

func (r *fakeRecorder) Begin() error {
	r.log("Begin")
	return r.beginErr
}

func (r *fakeRecorder) BeginRenderPass(_ vk.RenderPass, _ vk.Framebuffer, extent vk.Extent2D, clears []vk.ClearValue) {
	r.clears = len(clears)
	r.log("BeginRenderPass(%dx%d)", extent.Width, extent.Height)
}

func (r *fakeRecorder) SetViewport(vp vk.Viewport) {
	r.viewports = append(r.viewports, vp)
	r.log("SetViewport")
}

func (r *fakeRecorder) SetScissor(rect vk.Rect2D) {
	r.scissors = append(r.scissors, rect)
	r.log("SetScissor")
}

func (r *fakeRecorder) BindPipeline(vk.Pipeline) {
	r.log("BindPipeline")
}

func (r *fakeRecorder) BindVertexBuffer(vk.Buffer) {
	r.log("BindVertexBuffer")
}

func (r *fakeRecorder) BindIndexBuffer(vk.Buffer) {
	r.log("BindIndexBuffer")
}

func (r *fakeRecorder) BindDescriptorSets(_ vk.PipelineLayout, firstSet uint32, sets []vk.DescriptorSet) {
	r.log("BindDescriptorSets(%d,%d)", firstSet, len(sets))
}

func (r *fakeRecorder) PushConstants(_ vk.PipelineLayout, stages vk.ShaderStageFlags, pc *model.PushConstants) {
	r.pushes = append(r.pushes, *pc)
	r.log("PushConstants(%d)", stages)
}

func (r *fakeRecorder) DrawIndexed(indexCount uint32, instanceCount uint32, firstIndex uint32, vertexOffset int32, firstInstance uint32) {
	r.log("DrawIndexed(%d,%d,%d,%d,%d)", indexCount, instanceCount, firstIndex, vertexOffset, firstInstance)
}

func (r *fakeRecorder) Draw(vertexCount uint32, instanceCount uint32, firstVertex uint32, firstInstance uint32) {
	r.log("Draw(%d,%d,%d,%d)", vertexCount, instanceCount, firstVertex, firstInstance)
}

func (r *fakeRecorder) EndRenderPass() {
	r.log("EndRenderPass")
}

func (r *fakeRecorder) End() error {
	r.log("End")
	return nil
}

// fakeSubmitter signals every submission right away unless holdFences is set.
type fakeSubmitter struct {
	recorders  []*fakeRecorder
	fences     []*fakeFence
	holdFences bool
}

func (s *fakeSubmitter) Recorder(FrameTarget) (CommandRecorder, error) {
	rec := &fakeRecorder{}
	s.recorders = append(s.recorders, rec)
	return rec, nil
}

func (s *fakeSubmitter) Submit(rec CommandRecorder, before GpuFuture) (GpuFuture, error) {
	before.takeWaitSemaphores()
	f := &fakeFence{signaled: !s.holdFences}
	s.fences = append(s.fences, f)
	return newExecFuture(before, f, vk.NullSemaphore), nil
}

type fakePresenter struct {
	extent      vk.Extent2D
	acquireErrs []error
	presentErrs []error
	recreateErr error

	acquires  int
	presents  int
	recreates int
}

func (p *fakePresenter) Extent() vk.Extent2D {
	return p.extent
}

func (p *fakePresenter) Acquire(before GpuFuture) (FrameTarget, GpuFuture, error) {
	p.acquires++
	if len(p.acquireErrs) > 0 {
		err := p.acquireErrs[0]
		p.acquireErrs = p.acquireErrs[1:]
		if err != nil {
			return FrameTarget{}, nil, err
		}
	}
	return FrameTarget{ImageIndex: uint32(p.acquires % 3), Extent: p.extent}, newAcquireFuture(before, vk.NullSemaphore), nil
}

func (p *fakePresenter) Present(_ FrameTarget, rendered GpuFuture) error {
	p.presents++
	rendered.takeWaitSemaphores()
	if len(p.presentErrs) > 0 {
		err := p.presentErrs[0]
		p.presentErrs = p.presentErrs[1:]
		return err
	}
	return nil
}

func (p *fakePresenter) Recreate() error {
	p.recreates++
	return p.recreateErr
}

// scriptedEvents replays one batch per poll and behaves like the window afterwards: a pending redraw request comes
// after the batch and every poll ends with AboutToWait. Once the script is used up the window gets closed.
type scriptedEvents struct {
	batches        [][]com.Event
	redraw         bool
	redrawRequests int
	seen           []com.EventKind
}

func (s *scriptedEvents) PollEvents(handle func(com.Event)) {
	emit := func(e com.Event) {
		s.seen = append(s.seen, e.Kind)
		handle(e)
	}
	if len(s.batches) == 0 {
		emit(com.Event{Kind: com.EventCloseRequested})
		return
	}
	batch := s.batches[0]
	s.batches = s.batches[1:]
	for _, e := range batch {
		emit(e)
	}
	if s.redraw {
		s.redraw = false
		emit(com.Event{Kind: com.EventRedrawRequested})
	}
	emit(com.Event{Kind: com.EventAboutToWait})
}

func (s *scriptedEvents) RequestRedraw() {
	s.redraw = true
	s.redrawRequests++
}

func emptyBatches(n int) [][]com.Event {
	return make([][]com.Event, n)
}

type fakeUploader struct {
	uploads   []string
	destroyed int
	failAt    int
	live      int
}

func (u *fakeUploader) UploadBuffer(name string, usage vk.BufferUsageFlags, payload []byte) (*com.Buffer, error) {
	u.uploads = append(u.uploads, fmt.Sprintf("%s/%d/%d", name, usage, len(payload)))
	if u.failAt > 0 && len(u.uploads) == u.failAt {
		return nil, fmt.Errorf("device out of memory")
	}
	u.live++
	return &com.Buffer{Size: vk.DeviceSize(len(payload)), Usage: usage}, nil
}

func (u *fakeUploader) DestroyBuffer(*com.Buffer) {
	u.destroyed++
	u.live--
}

func steppingClock(step time.Duration) func() time.Time {
	t := time.Unix(0, 0)
	return func() time.Time {
		t = t.Add(step)
		return t
	}
}

func testPipeline() *PipelineObject {
	vs, fs := shaders.SceneInterface()
	return &PipelineObject{
		PushRange: pushConstantRange(vs, fs),
		Bindings:  stageBindings(vs, fs),
	}
}

func testBindings() *SceneBindings {
	return &SceneBindings{Sets: make([]vk.DescriptorSet, 2)}
}

func indexedModel() *GpuModel {
	return &GpuModel{
		Name:         "cube",
		VertexBuffer: &com.Buffer{},
		IndexBuffer:  &com.Buffer{},
		VertexCount:  24,
		IndexCount:   36,
	}
}

func plainModel() *GpuModel {
	return &GpuModel{
		Name:         "triangle",
		VertexBuffer: &com.Buffer{},
		VertexCount:  3,
	}
}
