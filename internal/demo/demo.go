// Package demo holds the gameplay systems of kiln-demo. They depend only on the
// engine packages so they run headless in tests.
package demo

import (
	"github.com/plus3/kiln/ecs"
	"github.com/plus3/kiln/ecs/debugui"
	"github.com/plus3/kiln/input"
	"github.com/plus3/kiln/physics"
	"github.com/plus3/kiln/render"
	"github.com/plus3/kiln/sprite"
	"go.uber.org/zap"
)

// Key bindings.
const (
	KeyPause   input.Key = "P"
	KeyOverlay input.Key = "F1"
	KeyClear   input.Key = "C"

	ButtonSpawn input.Button = 0
)

// CrateSize is the edge length of spawned crates in pixels.
const CrateSize = 24

// Crate marks entities spawned by Controls.
type Crate struct{}

// Kinds are the component kinds the demo uses.
type Kinds struct {
	Sprite sprite.Kinds
	Crate  ecs.ComponentKind[Crate]
}

func RegisterKinds(r *ecs.ComponentRegistry) Kinds {
	return Kinds{
		Sprite: sprite.RegisterKinds(r),
		Crate:  ecs.RegisterComponent[Crate](r),
	}
}

// FPSGuard disables the given systems once the frame rate is below minFPS after
// warmup seconds of scaled time, then removes itself. It never fires before the
// warmup, so the guard ignores start-up hitches.
func FPSGuard(minFPS int, warmup float64, logger *zap.Logger, handles ...*ecs.SystemHandle) ecs.System {
	if logger == nil {
		logger = zap.NewNop()
	}
	return ecs.System{
		Name:     "demo/fps-guard",
		Priority: ecs.PriorityLate,
		AfterAll: func(frame *ecs.UpdateFrame) error {
			if frame.Time == nil || frame.Time.TimeInSeconds() < warmup {
				return nil
			}
			if fps := frame.Time.FPS(); fps < minFPS {
				names := make([]string, 0, len(handles))
				for _, h := range handles {
					h.Disable()
					names = append(names, h.Name())
				}
				logger.Warn("frame rate too low, disabling systems",
					zap.Int("fps", fps),
					zap.Int("min_fps", minFPS),
					zap.Strings("systems", names))
				frame.System.Remove()
			}
			return nil
		},
	}
}

// Controls turns input into game actions: clicking drops a crate, the pause key
// freezes scaled time, the overlay key toggles the debug UI and the clear key
// removes every crate.
type Controls struct {
	Input *input.State
	// Capture, when set, suppresses pointer actions while the overlay owns the
	// mouse.
	Capture *debugui.InputState
	World   *physics.World
	Kinds   Kinds
	Crate   *render.Renderable
	Layer   int
	// OnOverlay is called when the overlay key is pressed.
	OnOverlay func()

	pausedScale float64
	paused      bool
}

func (c *Controls) System() ecs.System {
	return ecs.System{
		Name:     "demo/controls",
		Priority: ecs.PriorityEarly,
		AfterAll: c.update,
	}
}

func (c *Controls) update(frame *ecs.UpdateFrame) error {
	if c.Input.Pressed(KeyPause) && frame.Time != nil {
		if c.paused {
			frame.Time.SetTimeScale(c.pausedScale)
		} else {
			c.pausedScale = frame.Time.TimeScale()
			frame.Time.SetTimeScale(0)
		}
		c.paused = !c.paused
	}

	if c.Input.Pressed(KeyOverlay) && c.OnOverlay != nil {
		c.OnOverlay()
	}

	if c.Input.Pressed(KeyClear) {
		for e := range ecs.NewQuery(frame.Storage, c.Kinds.Crate).Iter() {
			c.despawn(frame, e)
		}
	}

	if c.Input.ButtonPressed(ButtonSpawn) && (c.Capture == nil || !c.Capture.WantCaptureMouse) {
		c.spawnCrate(frame, c.Input.PointerX, c.Input.PointerY)
	}
	return nil
}

// Paused reports whether the pause key has frozen time.
func (c *Controls) Paused() bool {
	return c.paused
}

func (c *Controls) spawnCrate(frame *ecs.UpdateFrame, x, y float64) {
	body := c.World.AddBox(x, y, CrateSize, CrateSize, 1)
	frame.Commands.Spawn(
		ecs.With(c.Kinds.Sprite.Position, sprite.Position{X: float32(x), Y: float32(y)}),
		ecs.With(c.Kinds.Sprite.Rotation, sprite.Rotation{}),
		ecs.With(c.Kinds.Sprite.Sprite, sprite.Sprite{
			Renderable: c.Crate,
			Layer:      c.Layer,
			Width:      CrateSize,
			Height:     CrateSize,
			PivotX:     0.5,
			PivotY:     0.5,
		}),
		ecs.With(c.World.Body, physics.Body{Body: body}),
		ecs.With(c.Kinds.Crate, Crate{}),
	)
}

func (c *Controls) despawn(frame *ecs.UpdateFrame, e ecs.EntityId) {
	if b, ok := ecs.Get(frame.Storage, e, c.World.Body); ok && b.Body != nil {
		c.World.Remove(b.Body)
		b.Body = nil
	}
	frame.Commands.Delete(e)
}

// CullSystem deletes crates that fell below floor, removing their bodies from the
// space.
func (c *Controls) CullSystem(floor float32) ecs.System {
	return ecs.System{
		Name:  "demo/cull",
		Query: []ecs.Kind{c.Kinds.Crate, c.Kinds.Sprite.Position},
		Run: func(frame *ecs.UpdateFrame, row ecs.Row) error {
			if ecs.Field(row, c.Kinds.Sprite.Position).Y > floor {
				c.despawn(frame, row.Entity)
			}
			return nil
		},
	}
}
