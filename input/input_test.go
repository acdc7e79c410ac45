package input_test

import (
	"testing"

	"github.com/plus3/kiln/clock"
	"github.com/plus3/kiln/ecs"
	"github.com/plus3/kiln/input"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scripted struct {
	frames []input.Snapshot
	i      int
}

func (s *scripted) Poll(dst *input.Snapshot) {
	if s.i >= len(s.frames) {
		return
	}
	f := s.frames[s.i]
	s.i++
	dst.Keys = append(dst.Keys, f.Keys...)
	dst.Buttons = append(dst.Buttons, f.Buttons...)
	dst.PointerX, dst.PointerY = f.PointerX, f.PointerY
}

func TestStateEdges(t *testing.T) {
	s := input.NewState()

	s.Press("Space")
	s.Press("Space")
	assert.True(t, s.Held("Space"))
	assert.True(t, s.Pressed("Space"))

	s.EndFrame()
	assert.True(t, s.Held("Space"))
	assert.False(t, s.Pressed("Space"))

	s.Release("Space")
	assert.False(t, s.Held("Space"))
	assert.True(t, s.Released("Space"))

	s.EndFrame()
	assert.False(t, s.Released("Space"))
}

func TestStateAxis(t *testing.T) {
	s := input.NewState()
	assert.Equal(t, float32(0), s.Axis("Left", "Right"))
	s.Press("Right")
	assert.Equal(t, float32(1), s.Axis("Left", "Right"))
	s.Press("Left")
	assert.Equal(t, float32(0), s.Axis("Left", "Right"))
}

func TestSystemsBracketTheFrame(t *testing.T) {
	registry := ecs.NewComponentRegistry()
	storage := ecs.NewStorage(registry)
	scheduler := ecs.NewScheduler(storage)
	state := input.NewState()

	source := &scripted{frames: []input.Snapshot{
		{Keys: []input.Key{"Space"}, Buttons: []input.Button{0}, PointerX: 10, PointerY: 20},
		{Keys: []input.Key{"Space"}},
		{},
	}}

	type seen struct {
		pressed, held, released, click bool
		x                               float64
	}
	var log []seen

	// registered before input so only priorities decide the order
	scheduler.Add(ecs.System{
		Name:     "gameplay-early",
		Priority: ecs.PriorityEarly,
		AfterAll: func(*ecs.UpdateFrame) error {
			log = append(log, seen{
				pressed:  state.Pressed("Space"),
				held:     state.Held("Space"),
				released: state.Released("Space"),
				click:    state.ButtonPressed(0),
				x:        state.PointerX,
			})
			return nil
		},
	})
	input.Register(scheduler, state, source)

	tm := clock.New()
	for i := 0; i < 3; i++ {
		require.NoError(t, scheduler.Once(tm))
	}

	assert.Equal(t, []seen{
		{pressed: true, held: true, click: true, x: 10},
		{held: true},
		{released: true},
	}, log)

	names := make([]string, 0, 3)
	for _, h := range scheduler.Systems() {
		names = append(names, h.Name())
	}
	assert.Equal(t, []string{"input/update", "gameplay-early", "input/reset"}, names)
}
