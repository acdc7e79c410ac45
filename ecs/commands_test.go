package ecs_test

import (
	"testing"

	"github.com/plus3/kiln/ecs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandsSpawn(t *testing.T) {
	storage, k := newTestStorage()
	cmds := &ecs.Commands{}

	var spawned ecs.EntityId
	cmds.Spawn(ecs.With(k.Position, Position{X: 1, Y: 2}), ecs.With(k.Velocity, Velocity{DX: 0.5}))
	cmds.SpawnThen(func(e ecs.EntityId) { spawned = e }, ecs.With(k.Position, Position{X: 3, Y: 4}))
	assert.Equal(t, 2, cmds.Len())
	assert.Equal(t, 0, storage.EntityCount(), "nothing applied before flush")

	require.NoError(t, cmds.Flush(storage))
	assert.Equal(t, 2, storage.EntityCount())
	assert.Equal(t, 0, cmds.Len())

	pos, ok := ecs.Get(storage, spawned, k.Position)
	require.True(t, ok)
	assert.Equal(t, Position{X: 3, Y: 4}, *pos)
}

func TestCommandsDeleteDropsTargetedChanges(t *testing.T) {
	storage, k := newTestStorage()
	e := storage.MustSpawn(ecs.With(k.Position, Position{}))
	cmds := &ecs.Commands{}

	cmds.Add(e, ecs.With(k.Velocity, Velocity{DX: 1}))
	cmds.Delete(e)
	require.NoError(t, cmds.Flush(storage))

	assert.False(t, storage.Alive(e))
	assert.Equal(t, 0, ecs.NewQuery(storage, k.Velocity).Count())
}

func TestCommandsAddRemove(t *testing.T) {
	storage, k := newTestStorage()
	e := storage.MustSpawn(ecs.With(k.Position, Position{}), ecs.With(k.Velocity, Velocity{}))
	cmds := &ecs.Commands{}

	cmds.Remove(e, k.Velocity)
	cmds.Add(e, ecs.With(k.Health, Health{Current: 5, Max: 5}))
	require.NoError(t, cmds.Flush(storage))

	assert.False(t, ecs.Has(storage, e, k.Velocity))
	h, ok := ecs.Get(storage, e, k.Health)
	require.True(t, ok)
	assert.Equal(t, 5, h.Current)
}

func TestCommandsFlushOrder(t *testing.T) {
	storage, k := newTestStorage()
	e := storage.MustSpawn(ecs.With(k.Score, Score(1)))
	cmds := &ecs.Commands{}

	var seen []string
	cmds.Defer(func() {
		seen = append(seen, "defer")
		assert.False(t, storage.Alive(e), "deletes land before defers")
		assert.Equal(t, 1, storage.EntityCount(), "spawns land before defers")
	})
	cmds.SpawnThen(func(ecs.EntityId) { seen = append(seen, "spawn") }, ecs.With(k.Score, Score(2)))
	cmds.Delete(e)

	require.NoError(t, cmds.Flush(storage))
	assert.Equal(t, []string{"spawn", "defer"}, seen)
}

func TestCommandsFlushCollectsErrors(t *testing.T) {
	storage, k := newTestStorage()
	dead := storage.CreateEntity()
	storage.Delete(dead)
	cmds := &ecs.Commands{}

	cmds.Add(dead, ecs.With(k.Position, Position{}))
	cmds.Spawn(ecs.With(ecs.ComponentKind[Position]{}, Position{}))
	cmds.Spawn(ecs.With(k.Position, Position{X: 1}))

	err := cmds.Flush(storage)
	assert.ErrorIs(t, err, ecs.ErrEntityNotAlive)
	assert.ErrorIs(t, err, ecs.ErrInvalidComponentKind)
	assert.Equal(t, 1, storage.EntityCount(), "valid spawns still apply")
}

func TestCommandsReset(t *testing.T) {
	storage, k := newTestStorage()
	cmds := &ecs.Commands{}

	cmds.Spawn(ecs.With(k.Name, Name{"ghost"}))
	cmds.Defer(func() { t.Fatal("reset commands must not run") })
	cmds.Reset()

	require.NoError(t, cmds.Flush(storage))
	assert.Equal(t, 0, storage.EntityCount())
}
