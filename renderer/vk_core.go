package renderer

import (
	"fmt"
	"log"

	com "rt_renderer/common"
	"rt_renderer/shaders"

	vk "github.com/goki/vulkan"
)

// DEFAULT_FRAMES_IN_FLIGHT is used when Settings leave the number of frame slots open.
const DEFAULT_FRAMES_IN_FLIGHT = 3

// Settings are the parts of the configuration the render core consumes.
type Settings struct {
	Window         com.WindowConfig
	Samples        vk.SampleCountFlagBits
	VSync          bool
	FramesInFlight int
}

func (s Settings) framesInFlight() int {
	if s.FramesInFlight < 1 {
		return DEFAULT_FRAMES_IN_FLIGHT
	}
	return s.FramesInFlight
}

type frameSlot struct {
	cmd            vk.CommandBuffer
	imageAvailable vk.Semaphore
	renderFinished vk.Semaphore
	inFlight       vk.Fence
	// pending is the last submission made with this slot. It must finish before the slot is reused.
	pending GpuFuture
}

// Core owns every Vulkan object with a lifetime longer than a frame: window, device, swapchain, pipelines and the
// frames in flight. It presents, submits and uploads for the renderer.
type Core struct {
	// OS/Window level
	Win    *com.Window
	device *com.Device

	// Target level
	swapChain   *com.SwapChain
	prefs       com.SwapChainPrefs
	depthFormat vk.Format
	samples     vk.SampleCountFlagBits
	attachments *Attachments

	// Drawing infrastructure level
	program     *shaders.Program
	pipelines   map[PipelineKey]*PipelineObject
	commandPool vk.CommandPool
	uploadPool  vk.CommandPool

	// Frame level
	slots           []frameSlot
	currentFrameIdx int
	acquiredImage   uint32
	imagesInFlight  []GpuFuture

	liveBuffers int
}

func NewRenderCore(settings Settings, program *shaders.Program) *Core {
	c := &Core{
		program:   program,
		prefs:     com.HdrPrefs(settings.VSync),
		pipelines: map[PipelineKey]*PipelineObject{},
		slots:     make([]frameSlot, settings.framesInFlight()),
	}
	c.Win = com.NewWindow(settings.Window)
	c.device = com.NewDevice(c.Win, settings.Window.ValidationLayers)

	var err error
	c.swapChain, err = com.NewSwapChain(c.device, c.Win, c.prefs, nil)
	if err != nil {
		log.Panicf("Failed to create swap chain: %v", err)
	}
	c.depthFormat, err = c.device.FindDepthFormat()
	if err != nil {
		log.Panicf("Failed to find a depth format: %v", err)
	}
	c.samples = c.device.MaxUsableSampleCount(settings.Samples)
	if c.samples != settings.Samples {
		log.Printf("Requested %d samples, device supports %d", settings.Samples, c.samples)
	}

	c.createAttachments()
	c.createCommandPools()
	c.createFrameSlots()
	return c
}

func (c *Core) Device() *com.Device {
	return c.device
}

// Pipeline returns the pipeline matching the current swapchain, creating it on first use.
func (c *Core) Pipeline() *PipelineObject {
	key := PipelineKey{
		ColorFormat: c.swapChain.Format.Format,
		DepthFormat: c.depthFormat,
		Samples:     c.samples,
	}
	po, ok := c.pipelines[key]
	if !ok {
		po = NewPipelineObject(c.device, c.program.Vertex, c.program.Fragment, key)
		c.pipelines[key] = po
	}
	return po
}

// DrawCommands draws every model with the current pipeline and the given scene bindings.
func (c *Core) DrawCommands(models []*GpuModel, bindings *SceneBindings) []DrawCommand {
	po := c.Pipeline()
	draws := make([]DrawCommand, len(models))
	for i, m := range models {
		draws[i] = DrawCommand{Pipeline: po, Model: m, Bindings: bindings}
	}
	return draws
}

func (c *Core) WaitIdle() {
	c.device.WaitIdle()
}

func (c *Core) Destroy() {
	// We need to wait for the last asynchronous call to finish before tear down
	c.device.WaitIdle()
	if c.liveBuffers > 0 {
		log.Printf("Leftover buffers in render core!: %v", c.liveBuffers)
	}

	for i := range c.slots {
		vk.DestroySemaphore(c.device.D, c.slots[i].imageAvailable, nil)
		vk.DestroySemaphore(c.device.D, c.slots[i].renderFinished, nil)
		vk.DestroyFence(c.device.D, c.slots[i].inFlight, nil)
	}
	vk.DestroyCommandPool(c.device.D, c.commandPool, nil)
	vk.DestroyCommandPool(c.device.D, c.uploadPool, nil)

	if c.attachments != nil {
		c.attachments.Destroy(c.device)
	}
	for _, po := range c.pipelines {
		po.Destroy(c.device.D)
	}
	c.swapChain.Destroy(c.device)

	c.device.Destroy()
	c.Win.Destroy()
}

func (c *Core) createAttachments() {
	var err error
	c.attachments, err = NewAttachments(c.device, c.swapChain, c.Pipeline())
	if err != nil {
		log.Panicf("Failed to create attachments: %v", err)
	}
	c.imagesInFlight = make([]GpuFuture, len(c.swapChain.Images))
}

func (c *Core) createCommandPools() {
	var err error
	c.commandPool, err = com.VKSCreateCommandPool(
		c.device.D,
		vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit),
		*c.device.QFamilies.GraphicsFamily,
	)
	if err != nil {
		log.Panicf("Failed to create command pool: %v", err)
	}
	c.uploadPool, err = com.VKSCreateCommandPool(
		c.device.D,
		vk.CommandPoolCreateFlags(vk.CommandPoolCreateTransientBit),
		*c.device.QFamilies.GraphicsFamily,
	)
	if err != nil {
		log.Panicf("Failed to create upload command pool: %v", err)
	}
	log.Printf("Successfully created command pools")
}

func (c *Core) createFrameSlots() {
	buffers, err := com.VKSAllocateCommandBuffers(c.device.D, &vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        c.commandPool,
		Level:              vk.CommandBufferLevelPrimary,
		CommandBufferCount: uint32(len(c.slots)),
	})
	if err != nil {
		log.Panicf("Failed to allocate command buffers: %v", err)
	}
	for i := range c.slots {
		s := &c.slots[i]
		s.cmd = buffers[i]
		s.pending = Now()
		if s.imageAvailable, err = com.VKSCreateSemaphore(c.device.D); err != nil {
			log.Panicf("Failed to create sync objects: %v", err)
		}
		if s.renderFinished, err = com.VKSCreateSemaphore(c.device.D); err != nil {
			log.Panicf("Failed to create sync objects: %v", err)
		}
		if s.inFlight, err = com.VKSCreateFence(c.device.D, true); err != nil {
			log.Panicf("Failed to create sync objects: %v", err)
		}
	}
	log.Printf("Successfully created %d frame slots", len(c.slots))
}

// Extent is zero while the window is minimized.
func (c *Core) Extent() vk.Extent2D {
	if c.Win.IsMinimized() {
		return vk.Extent2D{}
	}
	w, h := c.Win.DrawableSize()
	return vk.Extent2D{Width: uint32(max(w, 0)), Height: uint32(max(h, 0))}
}

func (c *Core) Acquire(before GpuFuture) (FrameTarget, GpuFuture, error) {
	slot := &c.slots[c.currentFrameIdx]
	// Wait for the slot to be free again - its last submission signals the fence
	if err := slot.pending.Wait(); err != nil {
		return FrameTarget{}, nil, err
	}

	var imgIdx uint32
	res := vk.AcquireNextImage(c.device.D, c.swapChain.Handle, vk.MaxUint64, slot.imageAvailable, vk.NullFence, &imgIdx)
	switch res {
	case vk.Success, vk.Suboptimal:
	case vk.ErrorOutOfDate:
		return FrameTarget{}, nil, ErrOutOfDate
	default:
		return FrameTarget{}, nil, fmt.Errorf("AcquireNextImage(...) result code %d: %w", res, vk.Error(res))
	}

	// The image may still be rendered to by a frame of another slot
	if prev := c.imagesInFlight[imgIdx]; prev != nil {
		if err := prev.Wait(); err != nil {
			return FrameTarget{}, nil, err
		}
	}
	c.acquiredImage = imgIdx
	return c.attachments.Target(c.swapChain, c.Pipeline(), imgIdx), newAcquireFuture(before, slot.imageAvailable), nil
}

func (c *Core) Recorder(target FrameTarget) (CommandRecorder, error) {
	slot := &c.slots[c.currentFrameIdx]
	if err := vk.Error(vk.ResetCommandBuffer(slot.cmd, 0)); err != nil {
		return nil, fmt.Errorf("reset command buffer: %w", err)
	}
	return &vkRecorder{cmd: slot.cmd}, nil
}

func (c *Core) Submit(rec CommandRecorder, before GpuFuture) (GpuFuture, error) {
	vr, ok := rec.(*vkRecorder)
	if !ok {
		return nil, fmt.Errorf("can not submit recorder of type %T", rec)
	}
	slot := &c.slots[c.currentFrameIdx]

	waits := before.takeWaitSemaphores()
	waitSems := make([]vk.Semaphore, len(waits))
	waitStages := make([]vk.PipelineStageFlags, len(waits))
	for i, w := range waits {
		waitSems[i], waitStages[i] = w.Sem, w.Stage
	}

	// Reset the fence only now that work putting it into the signalled state is submitted for sure
	if err := vk.Error(vk.ResetFences(c.device.D, 1, []vk.Fence{slot.inFlight})); err != nil {
		return nil, fmt.Errorf("reset fence: %w", err)
	}
	submitInfo := vk.SubmitInfo{
		SType:                vk.StructureTypeSubmitInfo,
		PNext:                nil,
		WaitSemaphoreCount:   uint32(len(waitSems)),
		PWaitSemaphores:      waitSems,
		PWaitDstStageMask:    waitStages,
		CommandBufferCount:   1,
		PCommandBuffers:      []vk.CommandBuffer{vr.cmd},
		SignalSemaphoreCount: 1,
		PSignalSemaphores:    []vk.Semaphore{slot.renderFinished},
	}
	if err := vk.Error(vk.QueueSubmit(c.device.GraphicsQ, 1, []vk.SubmitInfo{submitInfo}, slot.inFlight)); err != nil {
		return nil, fmt.Errorf("submit command buffer: %w", err)
	}

	fut := newExecFuture(before, vkFence{device: c.device.D, handle: slot.inFlight}, slot.renderFinished)
	slot.pending = fut
	c.imagesInFlight[c.acquiredImage] = fut
	return fut, nil
}

func (c *Core) Present(target FrameTarget, rendered GpuFuture) error {
	waits := rendered.takeWaitSemaphores()
	waitSems := make([]vk.Semaphore, len(waits))
	for i, w := range waits {
		waitSems[i] = w.Sem
	}
	presentInfo := vk.PresentInfo{
		SType:              vk.StructureTypePresentInfo,
		PNext:              nil,
		WaitSemaphoreCount: uint32(len(waitSems)),
		PWaitSemaphores:    waitSems,
		SwapchainCount:     1,
		PSwapchains:        []vk.Swapchain{c.swapChain.Handle},
		PImageIndices:      []uint32{target.ImageIndex},
		PResults:           nil,
	}
	res := vk.QueuePresent(c.device.PresentQ, &presentInfo)
	c.currentFrameIdx = nextSlot(c.currentFrameIdx, len(c.slots))

	switch res {
	case vk.Success:
		return nil
	case vk.ErrorOutOfDate, vk.Suboptimal:
		return ErrOutOfDate
	}
	return fmt.Errorf("QueuePresent(...) result code %d: %w", res, vk.Error(res))
}

func nextSlot(current int, slots int) int {
	return (current + 1) % slots
}

// Recreate replaces the swapchain and everything sized after it. The pipeline is only replaced when the surface
// format changed.
func (c *Core) Recreate() error {
	c.device.WaitIdle()
	sc, err := com.NewSwapChain(c.device, c.Win, c.prefs, c.swapChain.Handle)
	if err != nil {
		return err
	}
	if c.attachments != nil {
		c.attachments.Destroy(c.device)
		c.attachments = nil
	}
	c.swapChain.Destroy(c.device)
	c.swapChain = sc

	c.attachments, err = NewAttachments(c.device, c.swapChain, c.Pipeline())
	if err != nil {
		return fmt.Errorf("recreate attachments: %w", err)
	}
	c.imagesInFlight = make([]GpuFuture, len(c.swapChain.Images))
	log.Printf("Recreated swap chain (%dx%d)", sc.Extent.Width, sc.Extent.Height)
	return nil
}
