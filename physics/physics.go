// Package physics steps a chipmunk space once per frame and copies body state
// back into sprite positions and rotations.
package physics

import (
	"github.com/jakecoffman/cp"
	"github.com/plus3/kiln/ecs"
	"github.com/plus3/kiln/sprite"
)

// Body attaches a chipmunk body to an entity.
type Body struct {
	Body *cp.Body
}

// World owns the chipmunk space and the body kind.
type World struct {
	Space *cp.Space
	Body  ecs.ComponentKind[Body]
	// MaxStep caps one simulation step in seconds; longer frames are split.
	MaxStep float64

	// attached holds the bodies seen on an entity during the last step.
	attached map[*cp.Body]bool
}

// NewWorld creates a space with the given gravity and registers the Body kind.
func NewWorld(registry *ecs.ComponentRegistry, gravityX, gravityY float64) *World {
	space := cp.NewSpace()
	space.SetGravity(cp.Vector{X: gravityX, Y: gravityY})
	return &World{
		Space:   space,
		Body:    ecs.RegisterComponent[Body](registry),
		MaxStep: 1.0 / 30,

		attached: make(map[*cp.Body]bool),
	}
}

// AddBox creates a dynamic box body at (x, y) and adds it and its shape to the
// space.
func (w *World) AddBox(x, y, width, height, mass float64) *cp.Body {
	body := cp.NewBody(mass, cp.MomentForBox(mass, width, height))
	body.SetPosition(cp.Vector{X: x, Y: y})
	w.Space.AddBody(body)
	w.Space.AddShape(cp.NewBox(body, width, height, 0))
	return body
}

// AddCircle creates a dynamic circle body at (x, y).
func (w *World) AddCircle(x, y, radius, mass float64) *cp.Body {
	body := cp.NewBody(mass, cp.MomentForCircle(mass, 0, radius, cp.Vector{}))
	body.SetPosition(cp.Vector{X: x, Y: y})
	w.Space.AddBody(body)
	w.Space.AddShape(cp.NewCircle(body, radius, cp.Vector{}))
	return body
}

// AddStaticSegment adds a static segment, typically ground or walls.
func (w *World) AddStaticSegment(ax, ay, bx, by, radius float64) *cp.Shape {
	shape := cp.NewSegment(w.Space.StaticBody, cp.Vector{X: ax, Y: ay}, cp.Vector{X: bx, Y: by}, radius)
	w.Space.AddShape(shape)
	return shape
}

// Remove takes a body and its shapes out of the space.
func (w *World) Remove(body *cp.Body) {
	delete(w.attached, body)
	body.EachShape(func(s *cp.Shape) {
		w.Space.RemoveShape(s)
	})
	w.Space.RemoveBody(body)
}

// reconcile removes bodies that were attached to an entity last step but no
// longer are, e.g. because the entity was deleted. Bodies that were never
// attached are left alone so they can be added before their entity spawns.
func (w *World) reconcile(rows []ecs.Row) {
	seen := make(map[*cp.Body]bool, len(rows))
	for _, row := range rows {
		if b := ecs.Field(row, w.Body); b != nil && b.Body != nil {
			seen[b.Body] = true
		}
	}
	for body := range w.attached {
		if !seen[body] {
			w.Remove(body)
		}
	}
	w.attached = seen
}

func (w *World) step(dt float64) {
	if dt <= 0 {
		return
	}
	for dt > w.MaxStep && w.MaxStep > 0 {
		w.Space.Step(w.MaxStep)
		dt -= w.MaxStep
	}
	if dt > 0 {
		w.Space.Step(dt)
	}
}

// StepSystem steps the space by the scaled delta before iterating, then writes
// each body's position and angle into the entity's Position and Rotation.
// Rotation is optional. Bodies whose entity went away since the last step are
// removed from the space first.
func StepSystem(w *World, sk sprite.Kinds) ecs.System {
	return ecs.System{
		Name:     "physics/step",
		Query:    []ecs.Kind{w.Body, sk.Position},
		Priority: ecs.PriorityEarly,
		BeforeAll: func(frame *ecs.UpdateFrame, rows []ecs.Row) ([]ecs.Row, error) {
			w.reconcile(rows)
			w.step(frame.DeltaTime())
			return rows, nil
		},
		Run: func(frame *ecs.UpdateFrame, row ecs.Row) error {
			b := ecs.Field(row, w.Body)
			if b.Body == nil {
				return nil
			}
			p := b.Body.Position()
			pos := ecs.Field(row, sk.Position)
			pos.X = float32(p.X)
			pos.Y = float32(p.Y)
			if rot, ok := ecs.Get(frame.Storage, row.Entity, sk.Rotation); ok {
				rot.Radians = float32(b.Body.Angle())
			}
			return nil
		},
	}
}
