package sprite

import (
	"github.com/plus3/kiln/ecs"
)

// AnimationSystem advances every playing Animation by the scaled frame delta.
// Entities with an AnimationState switch to the clip named by the machine's
// current state first. Non-looping clips stop on their last frame.
func AnimationSystem(kinds Kinds) ecs.System {
	return ecs.System{
		Name:     "sprite/animation",
		Query:    []ecs.Kind{kinds.Animation},
		Priority: ecs.PriorityNormal,
		Run: func(frame *ecs.UpdateFrame, row ecs.Row) error {
			anim := ecs.Field(row, kinds.Animation)

			if state, ok := ecs.Get(frame.Storage, row.Entity, kinds.AnimationState); ok && state.Machine != nil {
				if current := state.Machine.Current(); current != anim.Clip {
					anim.Play(current)
				}
			}

			advance(anim, frame.DeltaTime())
			return nil
		},
	}
}

func advance(anim *Animation, dt float64) {
	if !anim.Playing {
		return
	}
	clip, ok := anim.Clips[anim.Clip]
	if !ok || len(clip.Frames) == 0 || clip.FrameDuration <= 0 {
		return
	}

	anim.Elapsed += dt
	for anim.Elapsed >= clip.FrameDuration {
		anim.Elapsed -= clip.FrameDuration
		if anim.Frame+1 < len(clip.Frames) {
			anim.Frame++
			continue
		}
		if clip.Loop {
			anim.Frame = 0
			continue
		}
		anim.Playing = false
		anim.Elapsed = 0
		return
	}
}
