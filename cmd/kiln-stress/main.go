package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"math"
	"math/rand/v2"
	"os"
	"runtime"
	"time"

	"github.com/pkg/profile"
	"github.com/plus3/kiln/clock"
	"github.com/plus3/kiln/config"
	"github.com/plus3/kiln/ecs"
	"github.com/plus3/kiln/particles"
	"github.com/plus3/kiln/render"
	"github.com/plus3/kiln/sprite"
	"go.uber.org/zap"
)

// Drift moves a sprite at a constant velocity and spin.
type Drift struct {
	DX, DY float32
	Spin   float32
}

type world struct {
	storage   *ecs.Storage
	scheduler *ecs.Scheduler
	sprites   sprite.Kinds
	particles particles.Kinds
	drift     ecs.ComponentKind[Drift]
	stack     render.Stack
}

// options are the command line settings of one stress run.
type options struct {
	Duration       time.Duration
	Entities       int
	Textures       int
	Emitters       int
	Seed           uint64
	ConfigPath     string
	Profile        string
	GCPauseMetrics bool
}

func main() {
	var opts options
	flag.DurationVar(&opts.Duration, "duration", 10*time.Second, "The total duration the test should run for.")
	flag.IntVar(&opts.Entities, "entities", 10000, "The initial number of sprites to create.")
	flag.IntVar(&opts.Textures, "textures", 1, "The number of distinct renderables the sprites share.")
	flag.IntVar(&opts.Emitters, "emitters", 0, "The number of particle emitters to add.")
	flag.Uint64Var(&opts.Seed, "seed", 1, "Seed for entity placement and particle emission.")
	flag.StringVar(&opts.ConfigPath, "config", "", "Optional TOML config for batching and logging.")
	flag.StringVar(&opts.Profile, "profile", "", "Write a cpu or mem profile to the current directory.")
	flag.BoolVar(&opts.GCPauseMetrics, "gc-pause-metrics", false, "Enable detailed GC pause metrics in the report.")
	flag.Parse()

	if err := run(opts, os.Stdout); err != nil {
		log.Fatalf("kiln-stress: %v", err)
	}
}

// run executes one stress test and writes the report to out.
func run(opts options, out io.Writer) error {
	cfg := config.Defaults()
	if opts.ConfigPath != "" {
		var err error
		if cfg, err = config.Load(opts.ConfigPath); err != nil {
			return fmt.Errorf("load config: %w", err)
		}
	}

	logger, err := config.NewLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer logger.Sync()

	switch opts.Profile {
	case "":
	case "cpu":
		defer profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.NoShutdownHook).Stop()
	case "mem":
		defer profile.Start(profile.MemProfileAllocs, profile.ProfilePath("."), profile.NoShutdownHook).Stop()
	default:
		return fmt.Errorf("unknown profile mode %q", opts.Profile)
	}

	if opts.Textures < 1 {
		return fmt.Errorf("at least one texture is required, got %d", opts.Textures)
	}

	logger.Info("starting stress test",
		zap.Int("entities", opts.Entities),
		zap.Int("textures", opts.Textures),
		zap.Int("emitters", opts.Emitters),
		zap.Duration("duration", opts.Duration))

	// 1. Setup registry, storage, scheduler and the sprite pipeline
	w, err := newWorld(cfg, logger, opts.Seed)
	if err != nil {
		return fmt.Errorf("build world: %w", err)
	}

	// 2. Populate storage
	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15))
	renderables := make([]*render.Renderable, opts.Textures)
	for i := range renderables {
		renderables[i] = render.NewRenderable(render.Quad(), &render.Material{Name: fmt.Sprintf("texture-%d", i)})
	}
	for i := 0; i < opts.Entities; i++ {
		w.spawnSprite(rng, renderables[i%len(renderables)])
	}
	for i := 0; i < opts.Emitters; i++ {
		if err := w.spawnEmitter(rng, renderables[i%len(renderables)]); err != nil {
			return fmt.Errorf("spawn emitter: %w", err)
		}
	}
	logger.Info("population complete", zap.Int("entities", w.storage.EntityCount()))

	// 3. Run the simulation loop
	report := &Report{
		Duration:       opts.Duration,
		Entities:       opts.Entities,
		Textures:       opts.Textures,
		Emitters:       opts.Emitters,
		GrowthFactor:   cfg.Batching.GrowthFactor,
		GCPauseMetrics: opts.GCPauseMetrics,
	}

	runtime.ReadMemStats(&report.MemStatsStart)

	ctx, cancel := context.WithTimeout(context.Background(), opts.Duration)
	defer cancel()

	backend := &nullBackend{}
	t := clock.New()
	source := clock.NewWall()
	startTime := time.Now()

Loop:
	for {
		select {
		case <-ctx.Done():
			break Loop
		default:
			t.Update(source.NowMilliseconds())

			updateStart := time.Now()
			if err := w.scheduler.Once(t); err != nil {
				return fmt.Errorf("frame %d: %w", t.Frame(), err)
			}
			report.UpdateTime.Samples = append(report.UpdateTime.Samples, time.Since(updateStart))

			submitStart := time.Now()
			if err := w.stack.Submit(backend); err != nil {
				return fmt.Errorf("submit frame %d: %w", t.Frame(), err)
			}
			report.SubmitTime.Samples = append(report.SubmitTime.Samples, time.Since(submitStart))
			report.TotalUpdates++
		}
	}

	report.TotalTime = time.Since(startTime)
	report.UpdateTime.Finalize()
	report.SubmitTime.Finalize()
	report.Scheduler = w.scheduler.GetStats()
	report.Storage = w.storage.CollectStats()
	for _, p := range w.stack {
		report.Pipelines = append(report.Pipelines, p.Stats())
	}
	report.DrawCalls = backend.draws
	report.DrawnInstances = backend.instances
	runtime.ReadMemStats(&report.MemStatsEnd)

	logger.Info("simulation finished", zap.Int64("updates", report.TotalUpdates))

	// 4. Generate report
	fmt.Fprintln(out, "\n\n--- Stress Test Report ---")
	if err := report.Generate(out); err != nil {
		return fmt.Errorf("generate report: %w", err)
	}
	fmt.Fprintln(out, "--- End of Report ---")
	return nil
}

func newWorld(cfg *config.Config, logger *zap.Logger, seed uint64) (*world, error) {
	registry := ecs.NewComponentRegistry()
	w := &world{
		sprites:   sprite.RegisterKinds(registry),
		particles: particles.RegisterKinds(registry),
		drift:     ecs.RegisterComponent[Drift](registry),
	}
	w.storage = ecs.NewStorage(registry)
	w.scheduler = ecs.NewScheduler(w.storage, ecs.WithLogger(logger))

	batching := render.PipelineConfig{
		GrowthFactor:     cfg.Batching.GrowthFactor,
		InitialInstances: cfg.Batching.InitialInstances,
		RetainFrames:     cfg.Batching.RetainFrames,
		Logger:           logger,
	}

	sprites, err := sprite.NewPipeline(w.sprites, 0, sprite.NewPopulator(w.sprites), batching)
	if err != nil {
		return nil, err
	}

	particlePipeline, err := particles.NewPipeline(w.particles, w.sprites, 1, batching)
	if err != nil {
		return nil, err
	}
	w.stack = render.Stack{sprites, particlePipeline}

	w.scheduler.Add(w.driftSystem())
	w.scheduler.Add(particles.EmitterSystem(w.particles, w.sprites, seed))
	w.scheduler.Add(particles.LifetimeSystem(w.particles, w.sprites))
	w.stack.Register(w.scheduler)
	return w, nil
}

func (w *world) driftSystem() ecs.System {
	return ecs.System{
		Name:  "stress/drift",
		Query: []ecs.Kind{w.drift, w.sprites.Position, w.sprites.Rotation},
		Run: func(frame *ecs.UpdateFrame, row ecs.Row) error {
			dt := float32(frame.DeltaTime())
			d := ecs.Field(row, w.drift)
			pos := ecs.Field(row, w.sprites.Position)
			rot := ecs.Field(row, w.sprites.Rotation)

			pos.X += d.DX * dt
			pos.Y += d.DY * dt
			// wrap inside a 1000x1000 field
			pos.X = float32(math.Mod(float64(pos.X)+1000, 1000))
			pos.Y = float32(math.Mod(float64(pos.Y)+1000, 1000))
			rot.Radians += d.Spin * dt
			return nil
		},
	}
}

func (w *world) spawnSprite(rng *rand.Rand, r *render.Renderable) {
	w.storage.MustSpawn(
		ecs.With(w.sprites.Position, sprite.Position{X: rng.Float32() * 1000, Y: rng.Float32() * 1000}),
		ecs.With(w.sprites.Rotation, sprite.Rotation{}),
		ecs.With(w.sprites.Scale, sprite.Scale{X: 1, Y: 1}),
		ecs.With(w.sprites.Sprite, sprite.Sprite{
			Renderable: r,
			Width:      8,
			Height:     8,
			PivotX:     0.5,
			PivotY:     0.5,
		}),
		ecs.With(w.drift, Drift{
			DX:   rng.Float32()*100 - 50,
			DY:   rng.Float32()*100 - 50,
			Spin: rng.Float32()*2 - 1,
		}),
	)
}

func (w *world) spawnEmitter(rng *rand.Rand, r *render.Renderable) error {
	em := particles.EmitterConfig{
		Rate:     200,
		Lifetime: particles.Range{Min: 0.5, Max: 1.5},
		Speed:    particles.Range{Min: 20, Max: 80},
		Angle:    particles.Range{Min: 0, Max: 2 * math.Pi},
		Size:     particles.Range{Min: 2, Max: 4},
		Burst:    0.1,
		Max:      500,
	}
	if err := em.Validate(); err != nil {
		return err
	}
	_, err := w.storage.Spawn(
		ecs.With(w.sprites.Position, sprite.Position{X: rng.Float32() * 1000, Y: rng.Float32() * 1000}),
		ecs.With(w.particles.Emitter, particles.Emitter{Config: em, Renderable: r, Layer: 1}),
	)
	return err
}

// nullBackend counts what would be drawn.
type nullBackend struct {
	draws     int64
	instances int64
}

func (b *nullBackend) DrawInstanced(r *render.Renderable, data []float32, attrs []render.Attribute, instances int) error {
	b.draws++
	b.instances += int64(instances)
	return nil
}
