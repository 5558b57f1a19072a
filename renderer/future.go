package renderer

import (
	"fmt"
	"log"

	vk "github.com/goki/vulkan"
)

// Completion tokens for GPU work. A future reports signaled once the GPU work it stands for and everything
// it was chained after has finished. Futures are owned by the single loop thread and are not safe for
// concurrent use.

// Fence is the host visible part of a submission.
type Fence interface {
	Signaled() (bool, error)
	Wait() error
}

// waitSemaphore is a semaphore the next queue operation has to wait on, together with the stage that waits.
type waitSemaphore struct {
	Sem   vk.Semaphore
	Stage vk.PipelineStageFlags
}

type GpuFuture interface {
	Signaled() bool
	Wait() error
	// CleanupFinished drops references to predecessors that have signaled, keeping the chain short.
	CleanupFinished()
	// takeWaitSemaphores hands the pending semaphores to the next queue operation. Binary semaphores can only be
	// waited on once, so a second call returns nothing.
	takeWaitSemaphores() []waitSemaphore
}

type nowFuture struct{}

// Now returns a future that is already signaled.
func Now() GpuFuture {
	return nowFuture{}
}

func (nowFuture) Signaled() bool                      { return true }
func (nowFuture) Wait() error                         { return nil }
func (nowFuture) CleanupFinished()                    {}
func (nowFuture) takeWaitSemaphores() []waitSemaphore { return nil }

// acquireFuture stands for a swapchain image that becomes available once sem signals. The host cannot observe
// the semaphore so the future counts as signaled as soon as its predecessor is.
type acquireFuture struct {
	prev  GpuFuture
	sem   vk.Semaphore
	taken bool
}

func newAcquireFuture(prev GpuFuture, sem vk.Semaphore) *acquireFuture {
	if prev == nil {
		prev = Now()
	}
	return &acquireFuture{prev: prev, sem: sem}
}

func (f *acquireFuture) Signaled() bool {
	return f.prev.Signaled()
}

func (f *acquireFuture) Wait() error {
	return f.prev.Wait()
}

func (f *acquireFuture) CleanupFinished() {
	f.prev.CleanupFinished()
}

func (f *acquireFuture) takeWaitSemaphores() []waitSemaphore {
	sems := f.prev.takeWaitSemaphores()
	if !f.taken {
		f.taken = true
		sems = append(sems, waitSemaphore{
			Sem:   f.sem,
			Stage: vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		})
	}
	return sems
}

type joinFuture struct {
	a, b GpuFuture
}

// Join returns a future that signals when both a and b have signaled.
func Join(a GpuFuture, b GpuFuture) GpuFuture {
	return &joinFuture{a: a, b: b}
}

func (f *joinFuture) Signaled() bool {
	return f.a.Signaled() && f.b.Signaled()
}

func (f *joinFuture) Wait() error {
	if err := f.a.Wait(); err != nil {
		return err
	}
	return f.b.Wait()
}

func (f *joinFuture) CleanupFinished() {
	f.a.CleanupFinished()
	f.b.CleanupFinished()
}

func (f *joinFuture) takeWaitSemaphores() []waitSemaphore {
	return append(f.a.takeWaitSemaphores(), f.b.takeWaitSemaphores()...)
}

// execFuture is a queue submission chained after prev. It signals only once its own fence and prev have
// signaled, so a later frame never reports completion before an earlier one.
type execFuture struct {
	prev     GpuFuture
	fence    Fence
	finished vk.Semaphore
	taken    bool
	signaled bool
}

func newExecFuture(prev GpuFuture, fence Fence, finished vk.Semaphore) *execFuture {
	if prev == nil {
		prev = Now()
	}
	return &execFuture{prev: prev, fence: fence, finished: finished}
}

func (f *execFuture) Signaled() bool {
	if f.signaled {
		return true
	}
	if f.prev != nil && !f.prev.Signaled() {
		return false
	}
	ok, err := f.fence.Signaled()
	if err != nil {
		log.Printf("Failed to query fence status: %v", err)
		return false
	}
	f.signaled = ok
	return ok
}

func (f *execFuture) Wait() error {
	if f.signaled {
		return nil
	}
	if f.prev != nil {
		if err := f.prev.Wait(); err != nil {
			return err
		}
	}
	if err := f.fence.Wait(); err != nil {
		return fmt.Errorf("wait for submission: %w", err)
	}
	f.signaled = true
	return nil
}

func (f *execFuture) CleanupFinished() {
	if f.prev == nil {
		return
	}
	f.prev.CleanupFinished()
	if f.prev.Signaled() {
		f.prev = nil
	}
}

func (f *execFuture) takeWaitSemaphores() []waitSemaphore {
	var sems []waitSemaphore
	if f.prev != nil {
		sems = f.prev.takeWaitSemaphores()
	}
	if !f.taken {
		f.taken = true
		sems = append(sems, waitSemaphore{
			Sem:   f.finished,
			Stage: vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		})
	}
	return sems
}

type vkFence struct {
	device vk.Device
	handle vk.Fence
}

func (f vkFence) Signaled() (bool, error) {
	switch res := vk.GetFenceStatus(f.device, f.handle); res {
	case vk.Success:
		return true, nil
	case vk.NotReady:
		return false, nil
	default:
		return false, vk.Error(res)
	}
}

func (f vkFence) Wait() error {
	return vk.Error(vk.WaitForFences(f.device, 1, []vk.Fence{f.handle}, vk.True, vk.MaxUint64))
}
