// Package debugui provides immediate-mode GUI integration for ECS applications using Dear ImGui.
// Panels are ImguiItem components; ImguiSystem defers their render functions to the
// end of the frame so they observe the frame's final state.
package debugui

import (
	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/plus3/kiln/clock"
	"github.com/plus3/kiln/ecs"
	"github.com/plus3/kiln/render"
)

// ImguiItem is a component that holds a Dear ImGui render function.
// Attach this to entities that should render ImGui widgets each frame.
type ImguiItem struct {
	Render func()
}

// InputState tracks whether Dear ImGui is consuming mouse or keyboard input. Game
// input handling should ignore events while the matching flag is set.
type InputState struct {
	WantCaptureMouse    bool
	WantCaptureKeyboard bool
}

// CaptureFunc reports ImGui's current input capture.
type CaptureFunc func() (mouse, keyboard bool)

// ImguiCapture reads the capture flags from the current ImGui context.
func ImguiCapture() (mouse, keyboard bool) {
	io := imgui.CurrentIO()
	return io.WantCaptureMouse(), io.WantCaptureKeyboard()
}

// ImguiSystem queues the render function of every ImguiItem and refreshes state from
// capture once per frame. A nil capture uses ImguiCapture.
func ImguiSystem(kind ecs.ComponentKind[ImguiItem], state *InputState, capture CaptureFunc) ecs.System {
	if capture == nil {
		capture = ImguiCapture
	}
	return ecs.System{
		Name:     "debugui/imgui",
		Query:    []ecs.Kind{kind},
		Priority: ecs.PriorityLate,
		BeforeAll: func(frame *ecs.UpdateFrame, rows []ecs.Row) ([]ecs.Row, error) {
			if state != nil {
				state.WantCaptureMouse, state.WantCaptureKeyboard = capture()
			}
			return rows, nil
		},
		Run: func(frame *ecs.UpdateFrame, row ecs.Row) error {
			item := ecs.Field(row, kind)
			if item.Render != nil {
				frame.Commands.Defer(item.Render)
			}
			return nil
		},
	}
}

// Context is what the built-in panels inspect. Fields other than Storage may be nil;
// panels depending on them render a placeholder.
type Context struct {
	Storage   *ecs.Storage
	Scheduler *ecs.Scheduler
	Time      *clock.Time
	Pipelines render.Stack

	// Selected is the entity picked in the entity browser and shown by the
	// component inspector.
	Selected ecs.EntityId
}

func (c *Context) selectedAlive() bool {
	return c.Selected != 0 && c.Storage.Alive(c.Selected)
}
