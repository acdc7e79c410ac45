package demo_test

import (
	"testing"

	"github.com/jakecoffman/cp"
	"github.com/plus3/kiln/clock"
	"github.com/plus3/kiln/ecs"
	"github.com/plus3/kiln/ecs/debugui"
	"github.com/plus3/kiln/input"
	"github.com/plus3/kiln/internal/demo"
	"github.com/plus3/kiln/physics"
	"github.com/plus3/kiln/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFPSGuardDisablesAfterWarmup(t *testing.T) {
	storage := ecs.NewStorage(ecs.NewComponentRegistry())
	scheduler := ecs.NewScheduler(storage)
	optional := scheduler.Add(ecs.System{Name: "optional"})
	scheduler.Add(demo.FPSGuard(30, 1, nil, optional))

	tm := clock.New()
	// ten frames a second
	for i := 1; i <= 9; i++ {
		tm.Update(float64(i) * 100)
		require.NoError(t, scheduler.Once(tm))
	}
	assert.True(t, optional.Enabled(), "warmup not over")
	assert.Len(t, scheduler.Systems(), 2)

	tm.Update(1000)
	require.NoError(t, scheduler.Once(tm))
	assert.False(t, optional.Enabled())
	assert.Len(t, scheduler.Systems(), 1, "guard removes itself")
}

func TestFPSGuardKeepsFastLoops(t *testing.T) {
	storage := ecs.NewStorage(ecs.NewComponentRegistry())
	scheduler := ecs.NewScheduler(storage)
	optional := scheduler.Add(ecs.System{Name: "optional"})
	scheduler.Add(demo.FPSGuard(30, 1, nil, optional))

	tm := clock.New()
	for i := 1; i <= 200; i++ {
		tm.Update(float64(i) * 10)
		require.NoError(t, scheduler.Once(tm))
	}
	assert.True(t, optional.Enabled())
	assert.Len(t, scheduler.Systems(), 2)
}

type controlsFixture struct {
	storage   *ecs.Storage
	scheduler *ecs.Scheduler
	world     *physics.World
	kinds     demo.Kinds
	state     *input.State
	capture   *debugui.InputState
	controls  *demo.Controls
	time      *clock.Time
	now       float64
	overlays  int
}

func newControlsFixture() *controlsFixture {
	registry := ecs.NewComponentRegistry()
	f := &controlsFixture{
		kinds:   demo.RegisterKinds(registry),
		world:   physics.NewWorld(registry, 0, 100),
		state:   input.NewState(),
		capture: &debugui.InputState{},
		time:    clock.New(),
	}
	f.storage = ecs.NewStorage(registry)
	f.scheduler = ecs.NewScheduler(f.storage)
	f.controls = &demo.Controls{
		Input:     f.state,
		Capture:   f.capture,
		World:     f.world,
		Kinds:     f.kinds,
		Crate:     render.NewRenderable(render.Quad(), &render.Material{Name: "crate"}),
		OnOverlay: func() { f.overlays++ },
	}
	f.scheduler.Add(f.controls.System())
	f.scheduler.Add(physics.StepSystem(f.world, f.kinds.Sprite))
	return f
}

func (f *controlsFixture) frame(t *testing.T) {
	f.now += 16
	f.time.Update(f.now)
	require.NoError(t, f.scheduler.Once(f.time))
	f.state.EndFrame()
}

func (f *controlsFixture) crates() int {
	return ecs.NewQuery(f.storage, f.kinds.Crate).Count()
}

func (f *controlsFixture) bodies() int {
	n := 0
	f.world.Space.EachBody(func(*cp.Body) { n++ })
	return n
}

func (f *controlsFixture) click(t *testing.T, x, y float64) {
	f.state.PointerX, f.state.PointerY = x, y
	f.state.PressButton(demo.ButtonSpawn)
	f.frame(t)
	f.state.ReleaseButton(demo.ButtonSpawn)
	f.frame(t)
}

func (f *controlsFixture) tap(t *testing.T, k input.Key) {
	f.state.Press(k)
	f.frame(t)
	f.state.Release(k)
	f.frame(t)
}

func TestControlsSpawnCrates(t *testing.T) {
	f := newControlsFixture()

	f.click(t, 40, 50)
	require.Equal(t, 1, f.crates())
	assert.Equal(t, 1, f.bodies())

	for e, row := range ecs.NewQuery(f.storage, f.kinds.Crate, f.kinds.Sprite.Sprite).Iter() {
		s := ecs.Field(row, f.kinds.Sprite.Sprite)
		assert.Equal(t, float32(demo.CrateSize), s.Width)
		assert.Equal(t, "crate", s.Renderable.Material.Name)
		pos := ecs.MustGet(f.storage, e, f.kinds.Sprite.Position)
		assert.InDelta(t, 40, pos.X, 0.001)
		assert.Greater(t, pos.Y, float32(50), "gravity pulls the crate down")
	}

	f.capture.WantCaptureMouse = true
	f.click(t, 10, 10)
	assert.Equal(t, 1, f.crates(), "clicks on the overlay are ignored")

	f.capture.WantCaptureMouse = false
	f.click(t, 10, 10)
	assert.Equal(t, 2, f.crates())

	f.tap(t, demo.KeyClear)
	assert.Equal(t, 0, f.crates())
	assert.Equal(t, 0, f.bodies())
}

func TestDeletedCrateLeavesTheSpace(t *testing.T) {
	f := newControlsFixture()

	f.click(t, 40, 50)
	f.click(t, 60, 50)
	require.Equal(t, 2, f.crates())
	require.Equal(t, 2, f.bodies())

	var victim ecs.EntityId
	for e := range ecs.NewQuery(f.storage, f.kinds.Crate).Iter() {
		victim = e
		break
	}
	require.True(t, f.storage.Delete(victim))

	f.frame(t)
	assert.Equal(t, 1, f.crates())
	assert.Equal(t, 1, f.bodies())
}

func TestControlsPauseAndOverlay(t *testing.T) {
	f := newControlsFixture()
	f.time.SetTimeScale(0.5)

	f.tap(t, demo.KeyPause)
	assert.True(t, f.controls.Paused())
	assert.Equal(t, 0.0, f.time.TimeScale())

	before := f.time.TimeInMilliseconds()
	f.frame(t)
	assert.Equal(t, before, f.time.TimeInMilliseconds(), "scaled time is frozen")

	f.tap(t, demo.KeyPause)
	assert.False(t, f.controls.Paused())
	assert.Equal(t, 0.5, f.time.TimeScale())

	f.tap(t, demo.KeyOverlay)
	assert.Equal(t, 1, f.overlays)
}

func TestCullSystemRemovesFallenCrates(t *testing.T) {
	f := newControlsFixture()
	f.scheduler.Add(f.controls.CullSystem(100))

	f.click(t, 10, 90)
	require.Equal(t, 1, f.crates())

	for i := 0; i < 120 && f.crates() > 0; i++ {
		f.frame(t)
	}
	assert.Equal(t, 0, f.crates())
	assert.Equal(t, 0, f.bodies())
}
