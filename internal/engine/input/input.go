// Package input turns SDL2 events into viewer events and camera movement.
package input

import (
	"github.com/veandco/go-sdl2/sdl"

	"github.com/Faultbox/midgard-terrain/internal/engine/camera"
)

// EventType identifies a processed event.
type EventType int

const (
	EventNone EventType = iota
	EventQuit
	EventWindowResize
	EventKeyDown
	EventKeyUp
	EventMouseMove
	EventMouseDown
	EventMouseUp
)

// Event represents a processed input event.
type Event struct {
	Type   EventType
	Key    sdl.Scancode
	Width  int
	Height int
	MouseX int
	MouseY int
	// DX and DY are relative motion, valid for EventMouseMove.
	DX     int
	DY     int
	Button uint8
}

// movementKeys maps held keys to fly camera movement.
var movementKeys = map[sdl.Scancode]camera.Movement{
	sdl.SCANCODE_W:      camera.MoveForward,
	sdl.SCANCODE_S:      camera.MoveBackward,
	sdl.SCANCODE_A:      camera.MoveLeft,
	sdl.SCANCODE_D:      camera.MoveRight,
	sdl.SCANCODE_SPACE:  camera.MoveUp,
	sdl.SCANCODE_LCTRL:  camera.MoveDown,
	sdl.SCANCODE_LSHIFT: camera.MoveFast,
}

// Input handles all input processing.
type Input struct {
	events []Event
	held   map[sdl.Scancode]bool
	look   bool // right mouse button held
	dx, dy int
}

// New creates a new input handler.
func New() *Input {
	return &Input{
		events: make([]Event, 0, 16),
		held:   make(map[sdl.Scancode]bool),
	}
}

// Update polls SDL events. It returns true if the viewer should quit.
func (i *Input) Update() bool {
	i.events = i.events[:0]
	i.dx, i.dy = 0, 0

	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		switch e := event.(type) {
		case *sdl.QuitEvent:
			i.events = append(i.events, Event{Type: EventQuit})
			return true

		case *sdl.WindowEvent:
			if e.Event == sdl.WINDOWEVENT_RESIZED {
				i.events = append(i.events, Event{
					Type:   EventWindowResize,
					Width:  int(e.Data1),
					Height: int(e.Data2),
				})
			}

		case *sdl.KeyboardEvent:
			sc := e.Keysym.Scancode
			if e.Type == sdl.KEYDOWN {
				if e.Repeat == 0 {
					i.events = append(i.events, Event{Type: EventKeyDown, Key: sc})
				}
				i.held[sc] = true
			} else if e.Type == sdl.KEYUP {
				i.events = append(i.events, Event{Type: EventKeyUp, Key: sc})
				delete(i.held, sc)
			}

		case *sdl.MouseMotionEvent:
			i.events = append(i.events, Event{
				Type:   EventMouseMove,
				MouseX: int(e.X),
				MouseY: int(e.Y),
				DX:     int(e.XRel),
				DY:     int(e.YRel),
			})
			if i.look {
				i.dx += int(e.XRel)
				i.dy += int(e.YRel)
			}

		case *sdl.MouseButtonEvent:
			t := EventMouseDown
			if e.Type == sdl.MOUSEBUTTONUP {
				t = EventMouseUp
			}
			if e.Button == sdl.BUTTON_RIGHT {
				i.look = t == EventMouseDown
			}
			i.events = append(i.events, Event{
				Type:   t,
				MouseX: int(e.X),
				MouseY: int(e.Y),
				Button: e.Button,
			})
		}
	}

	return false
}

// Events returns the events from the last Update.
func (i *Input) Events() []Event {
	return i.events
}

// IsKeyPressed reports whether scancode went down this frame.
func (i *Input) IsKeyPressed(scancode sdl.Scancode) bool {
	for _, e := range i.events {
		if e.Type == EventKeyDown && e.Key == scancode {
			return true
		}
	}
	return false
}

// Movement returns the camera movement for the keys currently held.
func (i *Input) Movement() camera.Movement {
	var m camera.Movement
	for sc := range i.held {
		m |= movementKeys[sc]
	}
	return m
}

// Looking reports whether the look button is held.
func (i *Input) Looking() bool { return i.look }

// MouseDelta returns the relative mouse motion accumulated while looking.
func (i *Input) MouseDelta() (dx, dy int) { return i.dx, i.dy }
