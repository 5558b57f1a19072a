package renderer

import (
	"errors"
	"fmt"
	"log"
	"time"

	com "rt_renderer/common"
	vm "rt_renderer/vector_math"

	vk "github.com/goki/vulkan"
)

// ErrOutOfDate reports that the swapchain no longer matches the surface and has to be recreated.
var ErrOutOfDate = errors.New("swapchain out of date")

const DefaultAcquireRetries = 3

type LoopState int

const (
	LoopUninitialized LoopState = iota
	LoopRunning
	LoopShuttingDown
)

func (s LoopState) String() string {
	switch s {
	case LoopUninitialized:
		return "Uninitialized"
	case LoopRunning:
		return "Running"
	case LoopShuttingDown:
		return "ShuttingDown"
	}
	return "Unknown"
}

// Presenter owns the swapchain. Acquire and Present return ErrOutOfDate (wrapped or not) when the swapchain has
// to be recreated; Recreate returns com.ErrZeroExtent while there is nothing to render to.
type Presenter interface {
	Extent() vk.Extent2D
	Acquire(before GpuFuture) (FrameTarget, GpuFuture, error)
	Present(target FrameTarget, rendered GpuFuture) error
	Recreate() error
}

type EventSource interface {
	PollEvents(handle func(com.Event))
	RequestRedraw()
}

// DrawSource produces the draws of a frame. It is asked every frame since a recreated swapchain may come with
// a different pipeline.
type DrawSource func() []DrawCommand

// FrameLoop drives rendering in poll mode: every batch of events ends with a redraw request, redraws render one
// frame each. Errors other than an out of date swapchain end the loop.
type FrameLoop struct {
	events    EventSource
	presenter Presenter
	renderer  *FrameRenderer
	draws     DrawSource
	camera    vm.OrbitCamera

	state    LoopState
	stale    bool
	previous GpuFuture

	// Clock is used for the camera animation and the frame rate summary.
	Clock          func() time.Time
	AcquireRetries int

	start  time.Time
	frames int
}

func NewFrameLoop(events EventSource, presenter Presenter, renderer *FrameRenderer, draws DrawSource, camera vm.OrbitCamera) *FrameLoop {
	return &FrameLoop{
		events:         events,
		presenter:      presenter,
		renderer:       renderer,
		draws:          draws,
		camera:         camera,
		state:          LoopUninitialized,
		previous:       Now(),
		Clock:          time.Now,
		AcquireRetries: DefaultAcquireRetries,
	}
}

func (l *FrameLoop) State() LoopState {
	return l.state
}

// Stale reports whether the swapchain gets recreated before the next frame.
func (l *FrameLoop) Stale() bool {
	return l.stale
}

func (l *FrameLoop) Frames() int {
	return l.frames
}

// Run loops until the window is closed or a frame fails. Before returning it waits for the last submitted frame.
func (l *FrameLoop) Run() error {
	if l.state != LoopUninitialized {
		return fmt.Errorf("frame loop can not be started in state %v", l.state)
	}
	l.state = LoopRunning
	l.start = l.Clock()

	var runErr error
	for l.state == LoopRunning {
		l.events.PollEvents(func(ev com.Event) {
			if runErr != nil || l.state != LoopRunning {
				return
			}
			runErr = l.handle(ev)
		})
		if runErr != nil {
			l.state = LoopShuttingDown
		}
	}

	if err := l.previous.Wait(); err != nil && runErr == nil {
		runErr = fmt.Errorf("wait for last frame: %w", err)
	}
	dt := l.Clock().Sub(l.start)
	if dt > 0 {
		log.Printf("Elapsed: %v, rough avg fps: %v fps", dt, float64(l.frames)/dt.Seconds())
	}
	return runErr
}

func (l *FrameLoop) handle(ev com.Event) error {
	switch ev.Kind {
	case com.EventCloseRequested:
		l.state = LoopShuttingDown
	case com.EventResized, com.EventScaleFactorChanged, com.EventMinimized, com.EventRestored:
		// the surface may come back at another size after minimizing
		l.stale = true
	case com.EventAboutToWait:
		l.events.RequestRedraw()
	case com.EventRedrawRequested:
		return l.redraw()
	}
	return nil
}

func (l *FrameLoop) redraw() error {
	ext := l.presenter.Extent()
	if ext.Width == 0 || ext.Height == 0 {
		return nil
	}
	if l.stale {
		skip, err := l.recreate()
		if err != nil || skip {
			return err
		}
	}
	l.previous.CleanupFinished()

	target, acquired, ok, err := l.acquire()
	if err != nil || !ok {
		return err
	}

	t := float32(l.Clock().Sub(l.start).Seconds())
	aspect := float32(target.Extent.Width) / float32(target.Extent.Height)
	cam := l.camera.At(t, aspect)

	rendered, err := l.renderer.Render(acquired, target, cam, l.draws())
	if err != nil {
		return fmt.Errorf("render frame: %w", err)
	}
	l.previous = rendered
	l.frames++

	err = l.presenter.Present(target, rendered)
	if errors.Is(err, ErrOutOfDate) {
		l.stale = true
		return nil
	}
	if err != nil {
		return fmt.Errorf("present frame: %w", err)
	}
	return nil
}

// recreate rebuilds the swapchain. skip is set when the surface has no area, the loop stays stale then.
func (l *FrameLoop) recreate() (skip bool, err error) {
	err = l.presenter.Recreate()
	if errors.Is(err, com.ErrZeroExtent) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("recreate swapchain: %w", err)
	}
	l.stale = false
	return false, nil
}

// acquire retries an out of date acquire after recreating the swapchain. ok is false when the frame is skipped.
func (l *FrameLoop) acquire() (FrameTarget, GpuFuture, bool, error) {
	for attempt := 0; attempt <= l.AcquireRetries; attempt++ {
		target, acquired, err := l.presenter.Acquire(l.previous)
		if err == nil {
			return target, acquired, true, nil
		}
		if !errors.Is(err, ErrOutOfDate) {
			return FrameTarget{}, nil, false, fmt.Errorf("acquire image: %w", err)
		}
		l.stale = true
		skip, err := l.recreate()
		if err != nil || skip {
			return FrameTarget{}, nil, false, err
		}
	}
	log.Printf("Swapchain still out of date after %d attempts, skipping frame", l.AcquireRetries+1)
	l.stale = true
	return FrameTarget{}, nil, false, nil
}
