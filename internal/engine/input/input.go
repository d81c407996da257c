// Package input handles SDL2 input events.
package input

import (
	"github.com/veandco/go-sdl2/sdl"
)

// EventType classifies a processed event.
type EventType int

const (
	EventNone EventType = iota
	EventQuit
	EventWindowResize
	EventKeyDown
)

// Action is what a key press asks the preview to do.
type Action int

const (
	ActionNone Action = iota
	ActionQuit
	ActionSnapshot
	ActionCycleMode
	ActionToggleStats
	ActionToggleFullscreen
)

// Event represents a processed input event.
type Event struct {
	Type   EventType
	Key    sdl.Scancode
	Action Action
	Width  int
	Height int
}

// Keymap binds keys to actions.
var Keymap = map[sdl.Scancode]Action{
	sdl.SCANCODE_ESCAPE: ActionQuit,
	sdl.SCANCODE_Q:      ActionQuit,
	sdl.SCANCODE_S:      ActionSnapshot,
	sdl.SCANCODE_M:      ActionCycleMode,
	sdl.SCANCODE_F:      ActionToggleStats,
	sdl.SCANCODE_F11:    ActionToggleFullscreen,
}

// ActionFor returns the action bound to key.
func ActionFor(key sdl.Scancode) Action {
	return Keymap[key]
}

// Input handles all input processing.
type Input struct {
	events []Event
}

// New creates a new input handler.
func New() *Input {
	return &Input{
		events: make([]Event, 0, 16),
	}
}

// Update polls SDL events. Returns true if the preview should quit.
func (i *Input) Update() bool {
	i.events = i.events[:0]

	quit := false
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		ev, ok := translate(event)
		if !ok {
			continue
		}
		i.events = append(i.events, ev)
		if ev.Type == EventQuit || ev.Action == ActionQuit {
			quit = true
		}
	}
	return quit
}

func translate(event sdl.Event) (Event, bool) {
	switch e := event.(type) {
	case *sdl.QuitEvent:
		return Event{Type: EventQuit}, true

	case *sdl.WindowEvent:
		if e.Event == sdl.WINDOWEVENT_SIZE_CHANGED || e.Event == sdl.WINDOWEVENT_RESIZED {
			return Event{Type: EventWindowResize, Width: int(e.Data1), Height: int(e.Data2)}, true
		}

	case *sdl.KeyboardEvent:
		if e.Type == sdl.KEYDOWN && e.Repeat == 0 {
			key := e.Keysym.Scancode
			return Event{Type: EventKeyDown, Key: key, Action: ActionFor(key)}, true
		}
	}
	return Event{}, false
}

// Events returns the events from the last Update.
func (i *Input) Events() []Event {
	return i.events
}

// Actions returns the key actions from the last Update in order.
func (i *Input) Actions() []Action {
	var out []Action
	for _, e := range i.events {
		if e.Action != ActionNone {
			out = append(out, e.Action)
		}
	}
	return out
}

// Resized returns the last window size reported by the last Update.
func (i *Input) Resized() (w, h int, ok bool) {
	for _, e := range i.events {
		if e.Type == EventWindowResize {
			w, h, ok = e.Width, e.Height, true
		}
	}
	return w, h, ok
}

// IsKeyPressed checks if a specific key was pressed this frame.
func (i *Input) IsKeyPressed(scancode sdl.Scancode) bool {
	for _, e := range i.events {
		if e.Type == EventKeyDown && e.Key == scancode {
			return true
		}
	}
	return false
}
