package renderer

import (
	"errors"
	"fmt"
	"testing"
	"time"

	com "rt_renderer/common"
	vm "rt_renderer/vector_math"

	vk "github.com/goki/vulkan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type loopFixture struct {
	events    *scriptedEvents
	presenter *fakePresenter
	submitter *fakeSubmitter
	loop      *FrameLoop
}

func newLoopFixture(batches [][]com.Event) *loopFixture {
	f := &loopFixture{
		events:    &scriptedEvents{batches: batches},
		presenter: &fakePresenter{extent: vk.Extent2D{Width: 1280, Height: 720}},
		submitter: &fakeSubmitter{},
	}
	draws := func() []DrawCommand {
		return []DrawCommand{{Pipeline: testPipeline(), Model: indexedModel(), Bindings: testBindings()}}
	}
	f.loop = NewFrameLoop(f.events, f.presenter, NewFrameRenderer(f.submitter, [4]float32{0, 0, 0, 1}), draws, vm.DefaultOrbitCamera())
	f.loop.Clock = steppingClock(16 * time.Millisecond)
	return f
}

func TestLoopRendersOneFramePerRedrawRequest(t *testing.T) {
	f := newLoopFixture(emptyBatches(4))
	assert.Equal(t, LoopUninitialized, f.loop.State())

	require.NoError(t, f.loop.Run())

	// the first poll only requests a redraw, each following poll renders
	assert.Equal(t, 3, f.loop.Frames())
	assert.Equal(t, 3, f.presenter.acquires)
	assert.Equal(t, 3, f.presenter.presents)
	assert.Equal(t, 4, f.events.redrawRequests)
	assert.Equal(t, LoopShuttingDown, f.loop.State())
}

func TestLoopStartsOnlyOnce(t *testing.T) {
	f := newLoopFixture(nil)
	require.NoError(t, f.loop.Run())
	assert.Error(t, f.loop.Run())
}

func TestCloseRequestStopsBeforeFurtherRedraws(t *testing.T) {
	f := newLoopFixture([][]com.Event{
		{},
		{{Kind: com.EventCloseRequested}},
	})
	require.NoError(t, f.loop.Run())
	assert.Equal(t, 0, f.loop.Frames(), "the pending redraw comes after the close request")
	assert.Equal(t, LoopShuttingDown, f.loop.State())
}

func TestShutdownWaitsForLastFrame(t *testing.T) {
	f := newLoopFixture(emptyBatches(2))
	f.submitter.holdFences = true

	require.NoError(t, f.loop.Run())
	require.Len(t, f.submitter.fences, 1)
	assert.Equal(t, 1, f.submitter.fences[0].waits)
	assert.True(t, f.submitter.fences[0].signaled)
}

func TestResizeMarksStaleAndRecreatesBeforeNextFrame(t *testing.T) {
	f := newLoopFixture([][]com.Event{
		{},
		{{Kind: com.EventResized, Width: 800, Height: 600}},
		{{Kind: com.EventScaleFactorChanged}},
	})
	require.NoError(t, f.loop.Run())

	// the resize and the redraw arrive in the same poll, the stale flag is handled right away
	assert.Equal(t, 2, f.presenter.recreates)
	assert.Equal(t, 2, f.loop.Frames())
	assert.False(t, f.loop.Stale())
}

func TestRestoreAfterMinimizeRecreates(t *testing.T) {
	f := newLoopFixture([][]com.Event{
		{},
		{{Kind: com.EventMinimized}},
		{{Kind: com.EventRestored}},
	})
	require.NoError(t, f.loop.Run())

	assert.Equal(t, 2, f.presenter.recreates, "both state changes mark the swapchain stale")
	assert.Equal(t, 2, f.loop.Frames())
	assert.False(t, f.loop.Stale())
}

func TestOutOfDateAcquireRecreatesAndRetries(t *testing.T) {
	f := newLoopFixture(emptyBatches(2))
	f.presenter.acquireErrs = []error{ErrOutOfDate, fmt.Errorf("acquire: %w", ErrOutOfDate)}

	require.NoError(t, f.loop.Run())
	assert.Equal(t, 3, f.presenter.acquires)
	assert.Equal(t, 2, f.presenter.recreates)
	assert.Equal(t, 1, f.loop.Frames())
	assert.False(t, f.loop.Stale())
}

func TestPersistentOutOfDateSkipsFrame(t *testing.T) {
	f := newLoopFixture(emptyBatches(2))
	f.loop.AcquireRetries = 2
	f.presenter.acquireErrs = []error{ErrOutOfDate, ErrOutOfDate, ErrOutOfDate, ErrOutOfDate}

	require.NoError(t, f.loop.Run())
	assert.Equal(t, 3, f.presenter.acquires)
	assert.Equal(t, 0, f.loop.Frames())
	assert.True(t, f.loop.Stale())
}

func TestOutOfDatePresentMarksStale(t *testing.T) {
	f := newLoopFixture(emptyBatches(2))
	f.presenter.presentErrs = []error{ErrOutOfDate}

	require.NoError(t, f.loop.Run())
	assert.Equal(t, 1, f.loop.Frames())
	assert.True(t, f.loop.Stale())
	assert.Equal(t, 0, f.presenter.recreates)
}

func TestZeroExtentSkipsRedraw(t *testing.T) {
	f := newLoopFixture(emptyBatches(3))
	f.presenter.extent = vk.Extent2D{Width: 1280, Height: 0}

	require.NoError(t, f.loop.Run())
	assert.Equal(t, 0, f.presenter.acquires)
	assert.Equal(t, 0, f.loop.Frames())
	assert.Equal(t, 3, f.events.redrawRequests, "poll mode keeps asking for redraws while minimized")
}

func TestZeroExtentRecreateKeepsStale(t *testing.T) {
	f := newLoopFixture([][]com.Event{{}, {{Kind: com.EventResized}}})
	f.presenter.recreateErr = com.ErrZeroExtent

	require.NoError(t, f.loop.Run())
	assert.Equal(t, 1, f.presenter.recreates)
	assert.Equal(t, 0, f.presenter.acquires)
	assert.True(t, f.loop.Stale())
}

func TestOtherErrorsAreFatal(t *testing.T) {
	boom := errors.New("device lost")

	f := newLoopFixture(emptyBatches(5))
	f.presenter.acquireErrs = []error{boom}
	err := f.loop.Run()
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, LoopShuttingDown, f.loop.State())
	assert.Equal(t, 1, f.presenter.acquires)

	f = newLoopFixture(emptyBatches(5))
	f.presenter.presentErrs = []error{boom}
	assert.ErrorIs(t, f.loop.Run(), boom)
	assert.Equal(t, 1, f.presenter.presents)

	f = newLoopFixture([][]com.Event{{}, {{Kind: com.EventResized}}})
	f.presenter.recreateErr = boom
	assert.ErrorIs(t, f.loop.Run(), boom)
}

func TestAboutToWaitRequestsRedraw(t *testing.T) {
	f := newLoopFixture(emptyBatches(1))
	require.NoError(t, f.loop.Run())
	assert.Equal(t, []com.EventKind{com.EventAboutToWait, com.EventCloseRequested}, f.events.seen)
	assert.Equal(t, 1, f.events.redrawRequests)
}

func TestCameraFollowsLoopClock(t *testing.T) {
	f := newLoopFixture(emptyBatches(2))
	require.NoError(t, f.loop.Run())

	require.Len(t, f.submitter.recorders, 1)
	pushes := f.submitter.recorders[0].pushes
	require.Len(t, pushes, 1)

	// the clock advances 16ms per call: start, then the frame
	want := vm.DefaultOrbitCamera().At(0.016, 1280.0/720.0)
	assert.InDelta(t, want.Position.X, pushes[0].CameraPos[0], 1e-5)
	assert.InDelta(t, want.Position.Y, pushes[0].CameraPos[1], 1e-5)
	assert.InDelta(t, want.Position.Z, pushes[0].CameraPos[2], 1e-5)
	assert.InDelta(t, want.Proj[0][0], pushes[0].Proj[0][0], 1e-5)
}
