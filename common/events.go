package common

import "github.com/veandco/go-sdl2/sdl"

type EventKind int

const (
	EventCloseRequested EventKind = iota
	EventResized
	EventScaleFactorChanged
	EventMinimized
	EventRestored
	EventRedrawRequested
	// EventAboutToWait ends every batch of polled events.
	EventAboutToWait
)

func (k EventKind) String() string {
	switch k {
	case EventCloseRequested:
		return "CloseRequested"
	case EventResized:
		return "Resized"
	case EventScaleFactorChanged:
		return "ScaleFactorChanged"
	case EventMinimized:
		return "Minimized"
	case EventRestored:
		return "Restored"
	case EventRedrawRequested:
		return "RedrawRequested"
	case EventAboutToWait:
		return "AboutToWait"
	}
	return "Unknown"
}

// Event is the window system event as the frame loop sees it. Width and Height are only set for size changes.
type Event struct {
	Kind   EventKind
	Width  int32
	Height int32
}

// TranslateSdlEvent maps the SDL events relevant to the frame loop. Everything else is dropped.
func TranslateSdlEvent(ev sdl.Event) (Event, bool) {
	switch e := ev.(type) {
	case *sdl.QuitEvent:
		return Event{Kind: EventCloseRequested}, true
	case *sdl.WindowEvent:
		switch e.Event {
		case sdl.WINDOWEVENT_CLOSE:
			return Event{Kind: EventCloseRequested}, true
		case sdl.WINDOWEVENT_RESIZED:
			return Event{Kind: EventResized, Width: e.Data1, Height: e.Data2}, true
		case sdl.WINDOWEVENT_SIZE_CHANGED:
			// also fires when the pixel density changes without a resize
			return Event{Kind: EventScaleFactorChanged, Width: e.Data1, Height: e.Data2}, true
		case sdl.WINDOWEVENT_MINIMIZED:
			return Event{Kind: EventMinimized}, true
		case sdl.WINDOWEVENT_RESTORED:
			return Event{Kind: EventRestored}, true
		}
	}
	return Event{}, false
}

// RequestRedraw makes the next PollEvents emit EventRedrawRequested.
func (w *Window) RequestRedraw() {
	w.redrawRequested = true
}

// PollEvents drains the SDL queue without blocking and hands every relevant event to handle. A pending redraw
// request follows, EventAboutToWait is always last.
func (w *Window) PollEvents(handle func(Event)) {
	for ev := sdl.PollEvent(); ev != nil; ev = sdl.PollEvent() {
		if e, ok := TranslateSdlEvent(ev); ok {
			handle(e)
		}
	}
	if w.redrawRequested {
		w.redrawRequested = false
		handle(Event{Kind: EventRedrawRequested})
	}
	handle(Event{Kind: EventAboutToWait})
}
