// Package input keeps per-frame keyboard and pointer state for systems. A Source
// is polled by an early system, and the per-frame edges are cleared by a late one.
package input

import (
	"github.com/plus3/kiln/ecs"
)

// Key names a keyboard key, e.g. "Space" or "ArrowLeft".
type Key string

// Button is a pointer button index; 0 is the primary button.
type Button int

// Snapshot is what a Source reports each frame.
type Snapshot struct {
	Keys     []Key
	Buttons  []Button
	PointerX float64
	PointerY float64
}

// Source reports the devices' current state. Implementations append into dst's
// slices after truncating them.
type Source interface {
	Poll(dst *Snapshot)
}

// State holds which keys and buttons are held and which changed this frame.
type State struct {
	held     map[Key]bool
	pressed  map[Key]bool
	released map[Key]bool

	buttons        map[Button]bool
	buttonPressed  map[Button]bool
	buttonReleased map[Button]bool

	PointerX float64
	PointerY float64

	snap Snapshot
}

// NewState creates an empty state.
func NewState() *State {
	return &State{
		held:           make(map[Key]bool),
		pressed:        make(map[Key]bool),
		released:       make(map[Key]bool),
		buttons:        make(map[Button]bool),
		buttonPressed:  make(map[Button]bool),
		buttonReleased: make(map[Button]bool),
	}
}

// Press records k going down. Repeated presses while held are ignored.
func (s *State) Press(k Key) {
	if s.held[k] {
		return
	}
	s.held[k] = true
	s.pressed[k] = true
}

// Release records k going up.
func (s *State) Release(k Key) {
	if !s.held[k] {
		return
	}
	delete(s.held, k)
	s.released[k] = true
}

// PressButton records b going down.
func (s *State) PressButton(b Button) {
	if s.buttons[b] {
		return
	}
	s.buttons[b] = true
	s.buttonPressed[b] = true
}

// ReleaseButton records b going up.
func (s *State) ReleaseButton(b Button) {
	if !s.buttons[b] {
		return
	}
	delete(s.buttons, b)
	s.buttonReleased[b] = true
}

// Held reports whether k is down.
func (s *State) Held(k Key) bool { return s.held[k] }

// Pressed reports whether k went down this frame.
func (s *State) Pressed(k Key) bool { return s.pressed[k] }

// Released reports whether k went up this frame.
func (s *State) Released(k Key) bool { return s.released[k] }

// ButtonHeld reports whether b is down.
func (s *State) ButtonHeld(b Button) bool { return s.buttons[b] }

// ButtonPressed reports whether b went down this frame.
func (s *State) ButtonPressed(b Button) bool { return s.buttonPressed[b] }

// ButtonReleased reports whether b went up this frame.
func (s *State) ButtonReleased(b Button) bool { return s.buttonReleased[b] }

// Axis returns -1, 0 or 1 from a pair of opposing keys.
func (s *State) Axis(negative, positive Key) float32 {
	var v float32
	if s.held[negative] {
		v--
	}
	if s.held[positive] {
		v++
	}
	return v
}

// Apply diffs a snapshot against the held sets, recording presses and releases.
func (s *State) Apply(snap *Snapshot) {
	now := make(map[Key]bool, len(snap.Keys))
	for _, k := range snap.Keys {
		now[k] = true
		s.Press(k)
	}
	for k := range s.held {
		if !now[k] {
			s.Release(k)
		}
	}

	buttons := make(map[Button]bool, len(snap.Buttons))
	for _, b := range snap.Buttons {
		buttons[b] = true
		s.PressButton(b)
	}
	for b := range s.buttons {
		if !buttons[b] {
			s.ReleaseButton(b)
		}
	}

	s.PointerX = snap.PointerX
	s.PointerY = snap.PointerY
}

// EndFrame clears the per-frame edges.
func (s *State) EndFrame() {
	clear(s.pressed)
	clear(s.released)
	clear(s.buttonPressed)
	clear(s.buttonReleased)
}

// UpdateSystem polls source into state before any other early system runs.
func UpdateSystem(state *State, source Source) ecs.System {
	return ecs.System{
		Name:     "input/update",
		Priority: ecs.PriorityEarly - 1,
		AfterAll: func(*ecs.UpdateFrame) error {
			state.snap.Keys = state.snap.Keys[:0]
			state.snap.Buttons = state.snap.Buttons[:0]
			source.Poll(&state.snap)
			state.Apply(&state.snap)
			return nil
		},
	}
}

// ResetSystem clears the frame's edges after every late system has run.
func ResetSystem(state *State) ecs.System {
	return ecs.System{
		Name:     "input/reset",
		Priority: ecs.PriorityLate + 1,
		AfterAll: func(*ecs.UpdateFrame) error {
			state.EndFrame()
			return nil
		},
	}
}

// Register adds the update and reset systems for state to scheduler.
func Register(scheduler *ecs.Scheduler, state *State, source Source) {
	scheduler.Add(UpdateSystem(state, source))
	scheduler.Add(ResetSystem(state))
}
