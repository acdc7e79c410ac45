package main

import (
	"bytes"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/plus3/kiln/clock"
	"github.com/plus3/kiln/config"
	"github.com/plus3/kiln/ecs"
	"github.com/plus3/kiln/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestStatsFinalize(t *testing.T) {
	s := Stats{}
	for i := 100; i >= 1; i-- {
		s.Samples = append(s.Samples, time.Duration(i)*time.Millisecond)
	}
	s.Finalize()

	assert.Equal(t, time.Millisecond, s.Min)
	assert.Equal(t, 100*time.Millisecond, s.Max)
	assert.Equal(t, 50500*time.Microsecond, s.Avg)
	assert.Equal(t, 99*time.Millisecond, s.P99)
	assert.Equal(t, 100*time.Millisecond, s.Samples[0], "samples keep their order")
}

func TestReportGenerate(t *testing.T) {
	r := &Report{
		Duration:     time.Second,
		Entities:     10,
		Textures:     2,
		GrowthFactor: 1.2,
		TotalUpdates: 60,
		TotalTime:    2 * time.Second,
		Scheduler: &ecs.SchedulerStats{Systems: []ecs.SystemStats{
			{Name: "stress/drift", Priority: ecs.PriorityNormal, ExecutionCount: 60},
		}},
		Pipelines: []render.PipelineStats{{Name: "render/0", Batches: 2, Instances: 10}},
	}

	var buf bytes.Buffer
	require.NoError(t, r.Generate(&buf))
	out := buf.String()
	assert.Contains(t, out, "**Initial Sprites:** 10")
	assert.Contains(t, out, "(30.0 frames/s)")
	assert.Contains(t, out, "- stress/drift (priority 10000): 60 runs")
	assert.Contains(t, out, "- render/0: 2 batches, 10 instances")
	assert.NotContains(t, out, "GC Pause Durations")
}

func TestWorldBatchesSharedTexture(t *testing.T) {
	w, err := newWorld(config.Defaults(), zap.NewNop(), 1)
	require.NoError(t, err)

	r := render.NewRenderable(render.Quad(), &render.Material{Name: "shared"})
	rng := rand.New(rand.NewPCG(1, 2))
	for i := 0; i < 50; i++ {
		w.spawnSprite(rng, r)
	}
	require.NoError(t, w.spawnEmitter(rng, r))

	backend := &nullBackend{}
	tm := clock.New()
	for i := 1; i <= 3; i++ {
		tm.Update(float64(i) * 16)
		require.NoError(t, w.scheduler.Once(tm))
		require.NoError(t, w.stack.Submit(backend))
	}

	sprites := w.stack[0].Stats()
	assert.Equal(t, 1, sprites.Batches)
	assert.Equal(t, 50, sprites.Instances)
	assert.Positive(t, w.stack[1].Stats().Instances, "emitter produced particles")
}
