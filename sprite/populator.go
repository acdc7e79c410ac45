package sprite

import (
	"github.com/plus3/kiln/ecs"
	"github.com/plus3/kiln/render"
)

// Populator writes plain sprites: the texture rectangle is always the full texture.
// Rotation and Scale are optional and default to 0 and (1, 1).
type Populator struct {
	kinds Kinds
}

// NewPopulator creates a populator for plain sprites.
func NewPopulator(kinds Kinds) *Populator {
	return &Populator{kinds: kinds}
}

func (p *Populator) Layout() *render.Layout {
	return Layout
}

func (p *Populator) Kinds() []ecs.Kind {
	return []ecs.Kind{p.kinds.Position, p.kinds.Sprite}
}

func (p *Populator) Populate(storage *ecs.Storage, e ecs.EntityId, dst []float32) error {
	return Fill(storage, e, p.kinds, dst, FullTexture)
}

// AnimatedPopulator writes sprites whose texture rectangle comes from the current
// frame of their Animation. Entities without one get the full texture.
type AnimatedPopulator struct {
	kinds Kinds
}

// NewAnimatedPopulator creates a populator for animated sprites.
func NewAnimatedPopulator(kinds Kinds) *AnimatedPopulator {
	return &AnimatedPopulator{kinds: kinds}
}

func (p *AnimatedPopulator) Layout() *render.Layout {
	return Layout
}

func (p *AnimatedPopulator) Kinds() []ecs.Kind {
	return []ecs.Kind{p.kinds.Position, p.kinds.Sprite}
}

func (p *AnimatedPopulator) Populate(storage *ecs.Storage, e ecs.EntityId, dst []float32) error {
	return Fill(storage, e, p.kinds, dst, p.texture(storage, e))
}

func (p *AnimatedPopulator) texture(storage *ecs.Storage, e ecs.EntityId) Frame {
	if anim, ok := ecs.Get(storage, e, p.kinds.Animation); ok {
		return anim.Current()
	}
	return FullTexture
}

// Fill reads the shared sprite state of e and writes it with Write. Populators
// of extended layouts call it before writing their own attributes.
func Fill(storage *ecs.Storage, e ecs.EntityId, kinds Kinds, dst []float32, tex Frame) error {
	pos, err := ecs.Require(storage, e, kinds.Position)
	if err != nil {
		return err
	}
	s, err := ecs.Require(storage, e, kinds.Sprite)
	if err != nil {
		return err
	}

	var rot Rotation
	if r, ok := ecs.Get(storage, e, kinds.Rotation); ok {
		rot = *r
	}
	scale := Scale{X: 1, Y: 1}
	if sc, ok := ecs.Get(storage, e, kinds.Scale); ok {
		scale = *sc
	}

	Write(dst, *pos, rot, scale, s, tex)
	return nil
}

// Select is the render.Selector for entities carrying a Sprite. The pipeline's
// query must include kinds.Sprite.
func Select(kinds Kinds) render.Selector {
	return func(row ecs.Row) (*render.Renderable, int, bool) {
		s := ecs.Field(row, kinds.Sprite)
		if s == nil {
			return nil, 0, false
		}
		return s.Renderable, s.Layer, !s.Disabled && s.Renderable != nil
	}
}

// NewPipeline builds a render pipeline for sprites on layer using populator. cfg
// may carry growth and logging settings; its layer, query, selector and populator
// are overwritten.
func NewPipeline(kinds Kinds, layer int, populator render.InstanceDataPopulator, cfg render.PipelineConfig) (*render.Pipeline, error) {
	cfg.Layer = layer
	cfg.Query = []ecs.Kind{kinds.Sprite}
	cfg.Select = Select(kinds)
	cfg.Populator = populator
	return render.NewPipeline(cfg)
}
