package renderer

import (
	"errors"
	"testing"

	vk "github.com/goki/vulkan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chainLength(f GpuFuture) int {
	switch v := f.(type) {
	case *execFuture:
		if v.prev == nil {
			return 1
		}
		return 1 + chainLength(v.prev)
	case *acquireFuture:
		return 1 + chainLength(v.prev)
	case *joinFuture:
		return 1 + max(chainLength(v.a), chainLength(v.b))
	}
	return 1
}

func TestNowIsSignaled(t *testing.T) {
	f := Now()
	assert.True(t, f.Signaled())
	assert.NoError(t, f.Wait())
	assert.Empty(t, f.takeWaitSemaphores())
}

func TestLaterFrameNeverSignalsBeforeEarlierOne(t *testing.T) {
	first := &fakeFence{}
	second := &fakeFence{signaled: true}

	f1 := newExecFuture(Now(), first, vk.NullSemaphore)
	f2 := newExecFuture(newAcquireFuture(f1, vk.NullSemaphore), second, vk.NullSemaphore)

	assert.False(t, f1.Signaled())
	assert.False(t, f2.Signaled(), "frame 2 finished on the GPU but frame 1 did not")

	first.signaled = true
	assert.True(t, f1.Signaled())
	assert.True(t, f2.Signaled())
}

func TestWaitWaitsForPredecessors(t *testing.T) {
	first := &fakeFence{}
	second := &fakeFence{}
	f1 := newExecFuture(Now(), first, vk.NullSemaphore)
	f2 := newExecFuture(f1, second, vk.NullSemaphore)

	require.NoError(t, f2.Wait())
	assert.Equal(t, 1, first.waits)
	assert.Equal(t, 1, second.waits)
	assert.True(t, f1.Signaled())

	// signaled futures do not touch their fence again
	require.NoError(t, f2.Wait())
	assert.Equal(t, 1, second.waits)
}

func TestWaitReportsFenceErrors(t *testing.T) {
	boom := errors.New("device lost")
	f := newExecFuture(Now(), &fakeFence{err: boom}, vk.NullSemaphore)
	assert.ErrorIs(t, f.Wait(), boom)
	assert.False(t, f.Signaled())
}

func TestCleanupKeepsChainBounded(t *testing.T) {
	var prev GpuFuture = Now()
	fences := make([]*fakeFence, 0, 10)
	for i := 0; i < 10; i++ {
		fence := &fakeFence{}
		fences = append(fences, fence)
		prev = newExecFuture(newAcquireFuture(prev, vk.NullSemaphore), fence, vk.NullSemaphore)
	}
	assert.Equal(t, 21, chainLength(prev))

	prev.CleanupFinished()
	assert.Equal(t, 19, chainLength(prev), "only the signaled start of the chain may be dropped")

	for _, f := range fences[:9] {
		f.signaled = true
	}
	prev.CleanupFinished()
	assert.Equal(t, 1, chainLength(prev))
	assert.False(t, prev.Signaled())
}

func TestWaitSemaphoresAreHandedOverOnce(t *testing.T) {
	f1 := newExecFuture(Now(), &fakeFence{}, vk.NullSemaphore)
	acquired := newAcquireFuture(f1, vk.NullSemaphore)

	// present consumes the render finished semaphore of frame 1
	assert.Len(t, f1.takeWaitSemaphores(), 1)
	// the next submission only waits for the image
	sems := acquired.takeWaitSemaphores()
	require.Len(t, sems, 1)
	assert.Equal(t, vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit), sems[0].Stage)
	assert.Empty(t, acquired.takeWaitSemaphores())
}

func TestJoin(t *testing.T) {
	a := &fakeFence{signaled: true}
	b := &fakeFence{}
	j := Join(newExecFuture(Now(), a, vk.NullSemaphore), newExecFuture(Now(), b, vk.NullSemaphore))

	assert.False(t, j.Signaled())
	assert.Len(t, j.takeWaitSemaphores(), 2)
	require.NoError(t, j.Wait())
	assert.True(t, j.Signaled())
}
