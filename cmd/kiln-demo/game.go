package main

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/plus3/kiln/asset"
	"github.com/plus3/kiln/clock"
	"github.com/plus3/kiln/config"
	"github.com/plus3/kiln/ecs"
	"github.com/plus3/kiln/ecs/debugui"
	imguiebiten "github.com/plus3/kiln/ecs/debugui/ebiten"
	"github.com/plus3/kiln/input"
	"github.com/plus3/kiln/input/ebiteninput"
	"github.com/plus3/kiln/internal/demo"
	"github.com/plus3/kiln/particles"
	"github.com/plus3/kiln/physics"
	"github.com/plus3/kiln/render"
	"github.com/plus3/kiln/render/ebitenbackend"
	"github.com/plus3/kiln/scene"
	"github.com/plus3/kiln/sprite"
	"go.uber.org/zap"
)

// Layers, back to front.
const (
	layerBackground = 0
	layerActors     = 1
	layerParticles  = 2
)

// gravity in pixels per second squared
const gravity = 400

type game struct {
	cfg    *config.Config
	logger *zap.Logger

	storage   *ecs.Storage
	scheduler *ecs.Scheduler
	time      *clock.Time
	source    *clock.Wall

	stack    render.Stack
	backend  *ebitenbackend.Backend
	textures *ebitenbackend.Textures

	scene   *scene.Instance
	watcher *scene.Watcher

	imgui   *imguiebiten.ImguiBackend
	overlay *ecs.SystemHandle
}

func newGame(cfg *config.Config, logger *zap.Logger, assets fs.FS) (*game, error) {
	registry := ecs.NewComponentRegistry()
	demoKinds := demo.RegisterKinds(registry)
	particleKinds := particles.RegisterKinds(registry)
	uiKinds := debugui.RegisterKinds(registry)
	world := physics.NewWorld(registry, 0, gravity)

	g := &game{
		cfg:     cfg,
		logger:  logger,
		time:    clock.New(),
		source:  clock.NewWall(),
		backend: ebitenbackend.New(),
	}
	g.storage = ecs.NewStorage(registry)
	g.scheduler = ecs.NewScheduler(g.storage, ecs.WithLogger(logger))
	g.time.SetTimeScale(cfg.Loop.TimeScale)

	g.textures = ebitenbackend.NewTextures(asset.NewCache(ebitenbackend.ImageLoader(assets)), render.Quad())
	registerTextures(g.textures)
	crate, err := g.textures.Resolve(textureCrate)
	if err != nil {
		return nil, err
	}

	if err := g.buildPipelines(demoKinds.Sprite, particleKinds); err != nil {
		return nil, err
	}

	state := input.NewState()
	input.Register(g.scheduler, state, ebiteninput.New())

	// floor and walls
	w, h := float64(cfg.Window.Width), float64(cfg.Window.Height)
	world.AddStaticSegment(0, h-8, w, h-8, 4)
	world.AddStaticSegment(0, 0, 0, h, 4)
	world.AddStaticSegment(w, 0, w, h, 4)

	g.scheduler.Add(physics.StepSystem(world, demoKinds.Sprite))
	animation := g.scheduler.Add(sprite.AnimationSystem(demoKinds.Sprite))
	emitters := g.scheduler.Add(particles.EmitterSystem(particleKinds, demoKinds.Sprite, cfg.Scene.Seed))
	g.scheduler.Add(particles.LifetimeSystem(particleKinds, demoKinds.Sprite))

	capture := &debugui.InputState{}
	g.overlay = g.scheduler.Add(debugui.ImguiSystem(uiKinds.Item, capture, debugui.ImguiCapture))
	if !cfg.Debug.Overlay {
		g.overlay.Disable()
	}

	controls := &demo.Controls{
		Input:     state,
		Capture:   capture,
		World:     world,
		Kinds:     demoKinds,
		Crate:     crate,
		Layer:     layerActors,
		OnOverlay: g.toggleOverlay,
	}
	g.scheduler.Add(controls.System())
	g.scheduler.Add(controls.CullSystem(float32(h) + demo.CrateSize))

	if cfg.Loop.MinFPS > 0 {
		g.scheduler.Add(demo.FPSGuard(cfg.Loop.MinFPS, cfg.Loop.MinFPSAfter.Seconds(), logger, emitters, animation))
	}

	kinds := scene.Kinds{Sprite: demoKinds.Sprite, Particles: particleKinds}
	g.scene, err = scene.Spawn(cfg.Scene.Path, g.storage, kinds, g.textures.Resolve, logger)
	if err != nil {
		return nil, err
	}
	if cfg.Scene.Watch {
		g.watcher, err = scene.NewWatcher(logger, filepath.Dir(cfg.Scene.Path))
		if err != nil {
			return nil, fmt.Errorf("watch scenes: %w", err)
		}
	}

	ctx := &debugui.Context{
		Storage:   g.storage,
		Scheduler: g.scheduler,
		Time:      g.time,
		Pipelines: g.stack,
	}
	if _, _, err := debugui.SpawnDebugUI(g.storage, uiKinds, ctx); err != nil {
		return nil, err
	}
	g.imgui = imguiebiten.New(cfg.Window.Title, cfg.Window.Width, cfg.Window.Height)

	return g, nil
}

func (g *game) buildPipelines(sk sprite.Kinds, pk particles.Kinds) error {
	batching := render.PipelineConfig{
		GrowthFactor:     g.cfg.Batching.GrowthFactor,
		InitialInstances: g.cfg.Batching.InitialInstances,
		RetainFrames:     g.cfg.Batching.RetainFrames,
		Logger:           g.logger,
	}

	for _, layer := range []int{layerBackground, layerActors} {
		p, err := sprite.NewPipeline(sk, layer, sprite.NewAnimatedPopulator(sk), batching)
		if err != nil {
			return err
		}
		g.stack = append(g.stack, p)
	}
	p, err := particles.NewPipeline(pk, sk, layerParticles, batching)
	if err != nil {
		return err
	}
	g.stack = append(g.stack, p)
	g.stack.Register(g.scheduler)
	return nil
}

func (g *game) toggleOverlay() {
	if g.overlay.Enabled() {
		g.overlay.Disable()
	} else {
		g.overlay.Enable()
	}
}

func (g *game) Update() error {
	g.reloadScenes()
	return g.imgui.Update(g.step)
}

func (g *game) step() error {
	g.time.Update(g.source.NowMilliseconds())
	err := g.scheduler.Once(g.time)
	if err != nil && g.cfg.Loop.SkipFailedFrames {
		g.logger.Warn("frame skipped", zap.Uint64("frame", g.time.Frame()), zap.Error(err))
		return nil
	}
	return err
}

// reloadScenes applies pending file changes without blocking the frame.
func (g *game) reloadScenes() {
	if g.watcher == nil {
		return
	}
	for {
		select {
		case changed, ok := <-g.watcher.Events:
			if !ok {
				g.watcher = nil
				return
			}
			if g.scene.Matches(changed) {
				// a failed reload keeps the previous entities and is logged
				_ = g.scene.Reload()
			}
		case err, ok := <-g.watcher.Errors:
			if !ok {
				g.watcher = nil
				return
			}
			g.logger.Warn("scene watcher", zap.Error(err))
		default:
			return
		}
	}
}

func (g *game) Draw(screen *ebiten.Image) {
	g.backend.Target = screen
	g.backend.ResetStats()
	if err := g.stack.Submit(g.backend); err != nil {
		g.logger.Error("submit failed", zap.Error(err))
	}
	if g.overlay.Enabled() {
		g.imgui.Overlay(screen)
	}
}

func (g *game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return g.cfg.Window.Width, g.cfg.Window.Height
}

func (g *game) Close() {
	if g.watcher != nil {
		if err := g.watcher.Close(); err != nil && !errors.Is(err, fs.ErrClosed) {
			g.logger.Warn("close scene watcher", zap.Error(err))
		}
	}
}
