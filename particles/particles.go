package particles

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/plus3/kiln/ecs"
	"github.com/plus3/kiln/render"
	"github.com/plus3/kiln/sprite"
)

// Emitter spawns particles at its entity's Position.
type Emitter struct {
	Config     EmitterConfig
	Renderable *render.Renderable
	Layer      int
	Disabled   bool

	pending float64
	live    int
}

// Live returns the number of particles the emitter owns. It is recounted from the
// storage each time EmitterSystem runs, so particles deleted by other means free
// their slots.
func (e *Emitter) Live() int {
	return e.live
}

// Particle is the per-particle simulation and draw state. Alpha fades from 1 to 0
// over the lifetime. Particles carry no sprite.Sprite, so sprite pipelines never
// draw them; only the particle pipeline of their layer does.
type Particle struct {
	Age      float32
	Lifetime float32
	Alpha    float32
	VX, VY   float32
	Emitter  ecs.EntityId

	Renderable *render.Renderable
	Layer      int
	Size       float32
}

// Kinds holds the particle component kinds.
type Kinds struct {
	Emitter  ecs.ComponentKind[Emitter]
	Particle ecs.ComponentKind[Particle]
}

// RegisterKinds registers the particle components on r.
func RegisterKinds(r *ecs.ComponentRegistry) Kinds {
	return Kinds{
		Emitter:  ecs.RegisterComponent[Emitter](r),
		Particle: ecs.RegisterComponent[Particle](r),
	}
}

// EmitterSystem spawns particles through the frame's command buffer, so new
// particles appear from the next frame. The seed makes emission reproducible.
func EmitterSystem(kinds Kinds, sk sprite.Kinds, seed uint64) ecs.System {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	owned := make(map[ecs.EntityId]int)

	return ecs.System{
		Name:  "particles/emit",
		Query: []ecs.Kind{kinds.Emitter, sk.Position},
		BeforeAll: func(frame *ecs.UpdateFrame, rows []ecs.Row) ([]ecs.Row, error) {
			clear(owned)
			for _, row := range ecs.NewQuery(frame.Storage, kinds.Particle).Iter() {
				owned[ecs.Field(row, kinds.Particle).Emitter]++
			}
			for _, row := range rows {
				ecs.Field(row, kinds.Emitter).live = owned[row.Entity]
			}
			return rows, nil
		},
		Run: func(frame *ecs.UpdateFrame, row ecs.Row) error {
			em := ecs.Field(row, kinds.Emitter)
			if em.Disabled {
				return nil
			}
			pos := *ecs.Field(row, sk.Position)

			em.pending += em.Config.Rate * frame.DeltaTime()
			for em.pending >= 1 {
				em.pending--
				n := 1
				if em.Config.Burst > 0 && rng.Float64() < float64(em.Config.Burst) {
					n = 2
				}
				for ; n > 0; n-- {
					if em.Config.Max > 0 && em.live >= em.Config.Max {
						em.pending = 0
						return nil
					}
					em.live++
					frame.Commands.Spawn(spawn(rng, row.Entity, em, pos, kinds, sk)...)
				}
			}
			return nil
		},
	}
}

func spawn(rng *rand.Rand, owner ecs.EntityId, em *Emitter, pos sprite.Position, kinds Kinds, sk sprite.Kinds) []ecs.ComponentValue {
	cfg := em.Config
	speed := cfg.Speed.Sample(rng)
	angle := cfg.Angle.Sample(rng)
	size := float32(cfg.Size.Sample(rng))

	return []ecs.ComponentValue{
		ecs.With(sk.Position, pos),
		ecs.With(kinds.Particle, Particle{
			Lifetime:   float32(cfg.Lifetime.Sample(rng)),
			Alpha:      1,
			VX:         float32(math.Cos(angle) * speed),
			VY:         float32(math.Sin(angle) * speed),
			Emitter:    owner,
			Renderable: em.Renderable,
			Layer:      em.Layer,
			Size:       size,
		}),
	}
}

// LifetimeSystem moves and ages particles, fading their alpha, and deletes those
// past their lifetime.
func LifetimeSystem(kinds Kinds, sk sprite.Kinds) ecs.System {
	return ecs.System{
		Name:  "particles/lifetime",
		Query: []ecs.Kind{kinds.Particle, sk.Position},
		Run: func(frame *ecs.UpdateFrame, row ecs.Row) error {
			p := ecs.Field(row, kinds.Particle)
			pos := ecs.Field(row, sk.Position)
			dt := float32(frame.DeltaTime())

			p.Age += dt
			pos.X += p.VX * dt
			pos.Y += p.VY * dt

			if p.Age >= p.Lifetime {
				frame.Commands.Delete(row.Entity)
				// runs only when the frame's commands are applied
				owner := p.Emitter
				frame.Commands.Defer(func() {
					if em, ok := ecs.Get(frame.Storage, owner, kinds.Emitter); ok && em.live > 0 {
						em.live--
					}
				})
				return nil
			}
			p.Alpha = 1 - p.Age/p.Lifetime
			return nil
		},
	}
}

// Layout is the sprite layout followed by one alpha float.
var Layout = sprite.Layout.Extend(render.AttributeSpec{Name: render.AttrAlpha, NumComponents: 1})

var (
	OffsetAlpha = Layout.MustOffset(render.AttrAlpha)
	Stride      = Layout.Stride()
)

// Select is the render.Selector for particles. The pipeline's query must include
// kinds.Particle.
func Select(kinds Kinds) render.Selector {
	return func(row ecs.Row) (*render.Renderable, int, bool) {
		p := ecs.Field(row, kinds.Particle)
		if p == nil {
			return nil, 0, false
		}
		return p.Renderable, p.Layer, p.Renderable != nil
	}
}

// Populator writes particles with the sprite layout plus alpha.
type Populator struct {
	kinds Kinds
	sk    sprite.Kinds
}

// NewPopulator creates a particle populator.
func NewPopulator(kinds Kinds, sk sprite.Kinds) *Populator {
	return &Populator{kinds: kinds, sk: sk}
}

func (p *Populator) Layout() *render.Layout {
	return Layout
}

func (p *Populator) Kinds() []ecs.Kind {
	return []ecs.Kind{p.kinds.Particle, p.sk.Position}
}

func (p *Populator) Populate(storage *ecs.Storage, e ecs.EntityId, dst []float32) error {
	part, err := ecs.Require(storage, e, p.kinds.Particle)
	if err != nil {
		return err
	}
	pos, err := ecs.Require(storage, e, p.sk.Position)
	if err != nil {
		return err
	}
	s := sprite.Sprite{Width: part.Size, Height: part.Size, PivotX: 0.5, PivotY: 0.5}
	sprite.Write(dst, *pos, sprite.Rotation{}, sprite.Scale{X: 1, Y: 1}, &s, sprite.FullTexture)
	dst[OffsetAlpha] = part.Alpha
	return nil
}

// NewPipeline builds a render pipeline drawing the particles on layer. Emitters
// must use the same layer for their particles to be picked up.
func NewPipeline(kinds Kinds, sk sprite.Kinds, layer int, cfg render.PipelineConfig) (*render.Pipeline, error) {
	if cfg.Name == "" {
		cfg.Name = fmt.Sprintf("render/particles/%d", layer)
	}
	cfg.Layer = layer
	cfg.Query = []ecs.Kind{kinds.Particle}
	cfg.Select = Select(kinds)
	cfg.Populator = NewPopulator(kinds, sk)
	return render.NewPipeline(cfg)
}
