// Package sprite holds the sprite components, their instance layout and the
// populators and systems that feed them to the render pipeline.
package sprite

import (
	"github.com/plus3/kiln/ecs"
	"github.com/plus3/kiln/fsm"
	"github.com/plus3/kiln/render"
)

type Position struct {
	X, Y float32
}

type Rotation struct {
	Radians float32
}

type Scale struct {
	X, Y float32
}

// Sprite marks an entity as drawable. Width and Height are in world units; the
// pivot is a fraction of the size, (0.5, 0.5) being the centre.
type Sprite struct {
	Renderable *render.Renderable
	Layer      int
	Disabled   bool
	Width      float32
	Height     float32
	PivotX     float32
	PivotY     float32
}

// Frame is a texture rectangle in normalized texture coordinates.
type Frame struct {
	U, V, W, H float32
}

// FullTexture covers the whole texture.
var FullTexture = Frame{U: 0, V: 0, W: 1, H: 1}

// Clip is a named sequence of frames played at a fixed rate.
type Clip struct {
	Frames []Frame
	// FrameDuration is in seconds.
	FrameDuration float64
	Loop          bool
}

// Animation plays one of its clips.
type Animation struct {
	Clips   map[string]Clip
	Clip    string
	Frame   int
	Elapsed float64
	Playing bool
}

// Play switches to the named clip from its first frame. Playing the current clip
// again is a no-op.
func (a *Animation) Play(name string) {
	if a.Clip == name && a.Playing {
		return
	}
	a.Clip = name
	a.Frame = 0
	a.Elapsed = 0
	a.Playing = true
}

// Current returns the texture rectangle of the current frame, or the full
// texture when the clip is unknown or empty.
func (a *Animation) Current() Frame {
	clip, ok := a.Clips[a.Clip]
	if !ok || len(clip.Frames) == 0 {
		return FullTexture
	}
	i := a.Frame
	if i < 0 || i >= len(clip.Frames) {
		i = 0
	}
	return clip.Frames[i]
}

// AnimationState drives an Animation from a state machine: the machine's current
// state names the clip to play.
type AnimationState struct {
	Machine *fsm.Machine[string, string]
}

// Kinds holds the component kinds of the sprite package.
type Kinds struct {
	Position       ecs.ComponentKind[Position]
	Rotation       ecs.ComponentKind[Rotation]
	Scale          ecs.ComponentKind[Scale]
	Sprite         ecs.ComponentKind[Sprite]
	Animation      ecs.ComponentKind[Animation]
	AnimationState ecs.ComponentKind[AnimationState]
}

// RegisterKinds registers the sprite components on r.
func RegisterKinds(r *ecs.ComponentRegistry) Kinds {
	return Kinds{
		Position:       ecs.RegisterComponent[Position](r),
		Rotation:       ecs.RegisterComponent[Rotation](r),
		Scale:          ecs.RegisterComponent[Scale](r),
		Sprite:         ecs.RegisterComponent[Sprite](r),
		Animation:      ecs.RegisterComponent[Animation](r),
		AnimationState: ecs.RegisterComponent[AnimationState](r),
	}
}

// GridFrames cuts a texture into cols×rows equal cells and returns the cells at the
// given indices, counted left to right, top to bottom.
func GridFrames(cols, rows int, indices ...int) []Frame {
	w := 1 / float32(cols)
	h := 1 / float32(rows)
	frames := make([]Frame, len(indices))
	for i, idx := range indices {
		frames[i] = Frame{
			U: float32(idx%cols) * w,
			V: float32(idx/cols) * h,
			W: w,
			H: h,
		}
	}
	return frames
}
