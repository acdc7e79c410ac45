// Package scene reads entity descriptions from YAML and spawns them into a
// storage. A Watcher reports edits so scenes can be rebuilt while running.
package scene

import (
	"errors"
	"fmt"
	"os"

	"github.com/plus3/kiln/ecs"
	"github.com/plus3/kiln/particles"
	"github.com/plus3/kiln/render"
	"github.com/plus3/kiln/sprite"
	"gopkg.in/yaml.v3"
)

type Spec struct {
	Name     string       `yaml:"name"`
	Entities []EntitySpec `yaml:"entities"`
}

type EntitySpec struct {
	Name string `yaml:"name"`
	// Count spawns several copies, each offset by Step from the previous.
	Count     int            `yaml:"count"`
	Step      *Vec2          `yaml:"step"`
	Position  *Vec2          `yaml:"position"`
	Rotation  *float32       `yaml:"rotation"`
	Scale     *Vec2          `yaml:"scale"`
	Sprite    *SpriteSpec    `yaml:"sprite"`
	Animation *AnimationSpec `yaml:"animation"`
	Emitter   *EmitterSpec   `yaml:"emitter"`
}

type Vec2 struct {
	X float32 `yaml:"x"`
	Y float32 `yaml:"y"`
}

type SpriteSpec struct {
	Texture  string  `yaml:"texture"`
	Layer    int     `yaml:"layer"`
	Width    float32 `yaml:"width"`
	Height   float32 `yaml:"height"`
	Pivot    *Vec2   `yaml:"pivot"`
	Disabled bool    `yaml:"disabled"`
}

type AnimationSpec struct {
	Clip  string              `yaml:"clip"`
	Clips map[string]ClipSpec `yaml:"clips"`
}

type ClipSpec struct {
	Columns       int     `yaml:"columns"`
	Rows          int     `yaml:"rows"`
	Frames        []int   `yaml:"frames"`
	FrameDuration float64 `yaml:"frame_duration"`
	Loop          bool    `yaml:"loop"`
}

type EmitterSpec struct {
	particles.EmitterConfig `yaml:",inline"`
	Texture                 string `yaml:"texture"`
	Layer                   int    `yaml:"layer"`
}

// Kinds are the component kinds a scene may spawn.
type Kinds struct {
	Sprite    sprite.Kinds
	Particles particles.Kinds
}

// Resolver turns a texture name into the renderable entities using it share.
type Resolver func(texture string) (*render.Renderable, error)

// Load reads and decodes a scene file.
func Load(path string) (*Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("scene: read %s: %w", path, err)
	}
	spec, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("scene: %s: %w", path, err)
	}
	return spec, nil
}

// Parse decodes scene YAML.
func Parse(data []byte) (*Spec, error) {
	var spec Spec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("unmarshal: %w", err)
	}
	return &spec, nil
}

// Build spawns every entity of the scene. On error nothing stays spawned.
func (s *Spec) Build(storage *ecs.Storage, kinds Kinds, resolve Resolver) ([]ecs.EntityId, error) {
	var spawned []ecs.EntityId
	fail := func(err error) ([]ecs.EntityId, error) {
		for _, e := range spawned {
			storage.Delete(e)
		}
		return nil, err
	}

	for i, es := range s.Entities {
		values, err := es.components(kinds, resolve)
		if err != nil {
			return fail(fmt.Errorf("entity %d (%s): %w", i, es.Name, err))
		}

		count := es.Count
		if count <= 0 {
			count = 1
		}
		var pos, step Vec2
		if es.Position != nil {
			pos = *es.Position
		}
		if es.Step != nil {
			step = *es.Step
		}

		for n := 0; n < count; n++ {
			at := sprite.Position{X: pos.X + float32(n)*step.X, Y: pos.Y + float32(n)*step.Y}
			e, err := storage.Spawn(append(values, ecs.With(kinds.Sprite.Position, at))...)
			if err != nil {
				return fail(fmt.Errorf("entity %d (%s): %w", i, es.Name, err))
			}
			spawned = append(spawned, e)
		}
	}
	return spawned, nil
}

func (es *EntitySpec) components(kinds Kinds, resolve Resolver) ([]ecs.ComponentValue, error) {
	var values []ecs.ComponentValue

	if es.Rotation != nil {
		values = append(values, ecs.With(kinds.Sprite.Rotation, sprite.Rotation{Radians: *es.Rotation}))
	}
	if es.Scale != nil {
		values = append(values, ecs.With(kinds.Sprite.Scale, sprite.Scale{X: es.Scale.X, Y: es.Scale.Y}))
	}

	if sp := es.Sprite; sp != nil {
		r, err := resolveTexture(resolve, sp.Texture)
		if err != nil {
			return nil, err
		}
		s := sprite.Sprite{
			Renderable: r,
			Layer:      sp.Layer,
			Disabled:   sp.Disabled,
			Width:      sp.Width,
			Height:     sp.Height,
			PivotX:     0.5,
			PivotY:     0.5,
		}
		if sp.Pivot != nil {
			s.PivotX, s.PivotY = sp.Pivot.X, sp.Pivot.Y
		}
		values = append(values, ecs.With(kinds.Sprite.Sprite, s))
	}

	if an := es.Animation; an != nil {
		anim, err := an.build()
		if err != nil {
			return nil, err
		}
		values = append(values, ecs.With(kinds.Sprite.Animation, anim))
	}

	if em := es.Emitter; em != nil {
		if err := em.Validate(); err != nil {
			return nil, err
		}
		r, err := resolveTexture(resolve, em.Texture)
		if err != nil {
			return nil, err
		}
		values = append(values, ecs.With(kinds.Particles.Emitter, particles.Emitter{
			Config:     em.EmitterConfig,
			Renderable: r,
			Layer:      em.Layer,
		}))
	}
	return values, nil
}

func resolveTexture(resolve Resolver, texture string) (*render.Renderable, error) {
	if texture == "" {
		return nil, errors.New("texture is required")
	}
	if resolve == nil {
		return nil, fmt.Errorf("no resolver for texture %q", texture)
	}
	r, err := resolve(texture)
	if err != nil {
		return nil, fmt.Errorf("texture %q: %w", texture, err)
	}
	return r, nil
}

func (an *AnimationSpec) build() (sprite.Animation, error) {
	clips := make(map[string]sprite.Clip, len(an.Clips))
	for name, c := range an.Clips {
		if c.Columns <= 0 || c.Rows <= 0 {
			return sprite.Animation{}, fmt.Errorf("clip %s: grid must be at least 1x1", name)
		}
		for _, f := range c.Frames {
			if f < 0 || f >= c.Columns*c.Rows {
				return sprite.Animation{}, fmt.Errorf("clip %s: frame %d outside %dx%d grid", name, f, c.Columns, c.Rows)
			}
		}
		clips[name] = sprite.Clip{
			Frames:        sprite.GridFrames(c.Columns, c.Rows, c.Frames...),
			FrameDuration: c.FrameDuration,
			Loop:          c.Loop,
		}
	}
	if _, ok := clips[an.Clip]; an.Clip != "" && !ok {
		return sprite.Animation{}, fmt.Errorf("unknown clip %q", an.Clip)
	}
	return sprite.Animation{Clips: clips, Clip: an.Clip, Playing: an.Clip != ""}, nil
}
