package particles_test

import (
	"errors"
	"math"
	"testing"

	"github.com/plus3/kiln/clock"
	"github.com/plus3/kiln/ecs"
	"github.com/plus3/kiln/particles"
	"github.com/plus3/kiln/render"
	"github.com/plus3/kiln/sprite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() particles.EmitterConfig {
	return particles.EmitterConfig{
		Rate:     10,
		Lifetime: particles.Fixed(0.5),
		Speed:    particles.Range{Min: 10, Max: 20},
		Angle:    particles.Range{Min: 0, Max: math.Pi},
		Size:     particles.Range{Min: 1, Max: 2},
	}
}

func TestEmitterConfigValidate(t *testing.T) {
	require.NoError(t, validConfig().Validate())

	tests := []struct {
		name   string
		mutate func(c *particles.EmitterConfig)
		field  string
	}{
		{"min above max", func(c *particles.EmitterConfig) { c.Speed = particles.Range{Min: 5, Max: 1} }, "speed"},
		{"NaN bound", func(c *particles.EmitterConfig) { c.Angle.Max = math.NaN() }, "angle"},
		{"infinite bound", func(c *particles.EmitterConfig) { c.Size.Max = math.Inf(1) }, "size"},
		{"percentage above one", func(c *particles.EmitterConfig) { c.Burst = 1.5 }, "burst"},
		{"negative percentage", func(c *particles.EmitterConfig) { c.Burst = -0.1 }, "burst"},
		{"zero rate", func(c *particles.EmitterConfig) { c.Rate = 0 }, "rate"},
		{"zero lifetime", func(c *particles.EmitterConfig) { c.Lifetime = particles.Fixed(0) }, "lifetime"},
		{"negative size", func(c *particles.EmitterConfig) { c.Size = particles.Range{Min: -1, Max: 1} }, "size"},
		{"negative cap", func(c *particles.EmitterConfig) { c.Max = -1 }, "max"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			var invalid *particles.InvalidRangeError
			require.True(t, errors.As(err, &invalid), "got %v", err)
			assert.Equal(t, tt.field, invalid.Field)
		})
	}

	edges := validConfig()
	edges.Burst = 1
	assert.NoError(t, edges.Validate(), "percentage bounds are inclusive")
}

type world struct {
	storage   *ecs.Storage
	scheduler *ecs.Scheduler
	kinds     particles.Kinds
	sk        sprite.Kinds
	time      *clock.Time
	now       float64
}

func newWorld(seed uint64) *world {
	registry := ecs.NewComponentRegistry()
	w := &world{
		kinds: particles.RegisterKinds(registry),
		sk:    sprite.RegisterKinds(registry),
		time:  clock.NewAt(0),
	}
	w.storage = ecs.NewStorage(registry)
	w.scheduler = ecs.NewScheduler(w.storage)
	w.scheduler.Add(particles.EmitterSystem(w.kinds, w.sk, seed))
	w.scheduler.Add(particles.LifetimeSystem(w.kinds, w.sk))
	return w
}

func (w *world) step(t *testing.T, ms float64) {
	w.now += ms
	w.time.Update(w.now)
	require.NoError(t, w.scheduler.Once(w.time))
}

func (w *world) particles() []particles.Particle {
	var out []particles.Particle
	for _, row := range ecs.NewQuery(w.storage, w.kinds.Particle).Iter() {
		out = append(out, *ecs.Field(row, w.kinds.Particle))
	}
	return out
}

func TestEmitterSpawnsAtRate(t *testing.T) {
	w := newWorld(1)
	w.storage.MustSpawn(
		ecs.With(w.sk.Position, sprite.Position{X: 5, Y: 5}),
		ecs.With(w.kinds.Emitter, particles.Emitter{Config: validConfig()}),
	)

	// 10/s for 0.25s: two whole particles, half of one pending
	w.step(t, 250)
	assert.Len(t, w.particles(), 2)

	w.step(t, 250)
	assert.Len(t, w.particles(), 5)

	for _, p := range w.particles() {
		speed := math.Hypot(float64(p.VX), float64(p.VY))
		assert.GreaterOrEqual(t, speed, 10-1e-3)
		assert.LessOrEqual(t, speed, 20+1e-3)
		assert.GreaterOrEqual(t, p.VY, float32(-1e-3), "angle range is the upper half plane")
	}
}

func TestEmitterIsDeterministicForSeed(t *testing.T) {
	run := func(seed uint64) []particles.Particle {
		w := newWorld(seed)
		w.storage.MustSpawn(
			ecs.With(w.sk.Position, sprite.Position{}),
			ecs.With(w.kinds.Emitter, particles.Emitter{Config: validConfig()}),
		)
		w.step(t, 300)
		w.step(t, 100)
		return w.particles()
	}

	assert.Equal(t, run(42), run(42))
	assert.NotEqual(t, run(42), run(7))
}

func TestEmitterCap(t *testing.T) {
	w := newWorld(3)
	cfg := validConfig()
	cfg.Max = 3
	cfg.Lifetime = particles.Fixed(100)
	w.storage.MustSpawn(
		ecs.With(w.sk.Position, sprite.Position{}),
		ecs.With(w.kinds.Emitter, particles.Emitter{Config: cfg}),
	)

	w.step(t, 1000)
	w.step(t, 1000)
	assert.Len(t, w.particles(), 3)
}

func TestLifetimeFadesAndDeletes(t *testing.T) {
	w := newWorld(1)
	cfg := validConfig()
	emitter := w.storage.MustSpawn(
		ecs.With(w.sk.Position, sprite.Position{}),
		ecs.With(w.kinds.Emitter, particles.Emitter{Config: cfg}),
	)

	w.step(t, 100)
	require.Len(t, w.particles(), 1)
	ecs.MustGet(w.storage, emitter, w.kinds.Emitter).Disabled = true

	w.step(t, 250)
	ps := w.particles()
	require.Len(t, ps, 1)
	assert.InDelta(t, 0.5, ps[0].Alpha, 1e-5)

	w.step(t, 250)
	assert.Empty(t, w.particles())
	assert.Equal(t, 0, ecs.MustGet(w.storage, emitter, w.kinds.Emitter).Live())
}

func TestLayoutExtendsSpriteLayout(t *testing.T) {
	assert.Equal(t, sprite.Stride+1, particles.Stride)
	assert.Equal(t, sprite.Stride, particles.OffsetAlpha)
	for _, a := range sprite.Layout.Attributes() {
		assert.Equal(t, a.Offset, particles.Layout.MustOffset(a.Name), a.Name)
	}
}

func TestPopulatorLayout(t *testing.T) {
	assert.Equal(t, 14, particles.Layout.Stride())
	off, ok := particles.Layout.Offset(render.AttrAlpha)
	require.True(t, ok)
	assert.Equal(t, particles.OffsetAlpha, off)
	assert.Equal(t, sprite.Layout.Attributes(), particles.Layout.Attributes()[:7])

	registry := ecs.NewComponentRegistry()
	kinds := particles.RegisterKinds(registry)
	sk := sprite.RegisterKinds(registry)
	storage := ecs.NewStorage(registry)

	r := render.NewRenderable(render.Quad(), &render.Material{Name: "spark"})
	e := storage.MustSpawn(
		ecs.With(sk.Position, sprite.Position{X: 3, Y: 4}),
		ecs.With(kinds.Particle, particles.Particle{Alpha: 0.25, Renderable: r, Size: 2}),
	)

	dst := make([]float32, particles.Stride)
	require.NoError(t, particles.NewPopulator(kinds, sk).Populate(storage, e, dst))
	assert.Equal(t, float32(3), dst[sprite.OffsetPosition])
	assert.Equal(t, float32(4), dst[sprite.OffsetPosition+1])
	assert.Equal(t, []float32{2, 2}, dst[sprite.OffsetSize:sprite.OffsetSize+2])
	assert.Equal(t, []float32{1, 1}, dst[sprite.OffsetScale:sprite.OffsetScale+2])
	assert.Equal(t, float32(0.25), dst[particles.OffsetAlpha])
}

func TestSpriteAndParticlePipelinesShareALayer(t *testing.T) {
	w := newWorld(5)
	spark := render.NewRenderable(render.Quad(), &render.Material{Name: "spark"})
	w.storage.MustSpawn(
		ecs.With(w.sk.Position, sprite.Position{}),
		ecs.With(w.kinds.Emitter, particles.Emitter{Config: validConfig(), Renderable: spark, Layer: 1}),
	)
	// a plain sprite on the same layer, sharing the texture
	w.storage.MustSpawn(
		ecs.With(w.sk.Position, sprite.Position{}),
		ecs.With(w.sk.Sprite, sprite.Sprite{Renderable: spark, Layer: 1, Width: 4, Height: 4}),
	)

	sprites, err := sprite.NewPipeline(w.sk, 1, sprite.NewPopulator(w.sk), render.PipelineConfig{})
	require.NoError(t, err)
	parts, err := particles.NewPipeline(w.kinds, w.sk, 1, render.PipelineConfig{})
	require.NoError(t, err)
	assert.Equal(t, "render/particles/1", parts.Name())
	assert.Equal(t, particles.Stride, parts.Layout().Stride())
	render.Stack{sprites, parts}.Register(w.scheduler)

	w.step(t, 250)
	w.step(t, 10)
	require.Len(t, w.particles(), 2)

	require.Len(t, sprites.Batches(), 1)
	assert.Equal(t, 1, sprites.Batches()[0].Instances(), "particles are not drawn as sprites")
	require.Len(t, parts.Batches(), 1)
	assert.Equal(t, 2, parts.Batches()[0].Instances())
}

func TestEmitterRefillsAfterParticlesDeletedElsewhere(t *testing.T) {
	w := newWorld(9)
	cfg := validConfig()
	cfg.Max = 2
	cfg.Lifetime = particles.Fixed(100)
	emitter := w.storage.MustSpawn(
		ecs.With(w.sk.Position, sprite.Position{}),
		ecs.With(w.kinds.Emitter, particles.Emitter{Config: cfg}),
	)

	w.step(t, 1000)
	require.Len(t, w.particles(), 2)

	for e := range ecs.NewQuery(w.storage, w.kinds.Particle).Iter() {
		w.storage.Delete(e)
	}
	require.Empty(t, w.particles())

	w.step(t, 1000)
	assert.Len(t, w.particles(), 2)
	assert.Equal(t, 2, ecs.MustGet(w.storage, emitter, w.kinds.Emitter).Live())
}

func TestAbortedFrameKeepsLiveCount(t *testing.T) {
	w := newWorld(1)
	fail := false
	w.scheduler.Add(ecs.System{
		Name:     "failing",
		Priority: ecs.PriorityLate,
		AfterAll: func(*ecs.UpdateFrame) error {
			if fail {
				return errors.New("boom")
			}
			return nil
		},
	})
	emitter := w.storage.MustSpawn(
		ecs.With(w.sk.Position, sprite.Position{}),
		ecs.With(w.kinds.Emitter, particles.Emitter{Config: validConfig()}),
	)
	live := func() int { return ecs.MustGet(w.storage, emitter, w.kinds.Emitter).Live() }

	w.step(t, 100)
	require.Len(t, w.particles(), 1)
	ecs.MustGet(w.storage, emitter, w.kinds.Emitter).Disabled = true
	w.step(t, 250)

	// the particle expires in a frame that fails, so its delete is dropped
	fail = true
	w.now += 300
	w.time.Update(w.now)
	require.Error(t, w.scheduler.Once(w.time))
	assert.Len(t, w.particles(), 1)
	assert.Equal(t, 1, live())

	fail = false
	w.step(t, 10)
	assert.Empty(t, w.particles())
	assert.Equal(t, 0, live())
}
