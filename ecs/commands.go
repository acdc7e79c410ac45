package ecs

import "errors"

// Commands provides a buffer for deferred ECS operations that are executed at the end of a frame.
// Systems use it for structural changes that other systems must not observe until
// the next frame.
type Commands struct {
	spawns  []spawnCommand
	deletes []EntityId
	adds    []addComponentCommand
	removes []removeComponentCommand
	defers  []deferCommand
}

func newCommands() *Commands {
	return &Commands{}
}

type deferCommand struct {
	fn func()
}

type spawnCommand struct {
	components []ComponentValue
	then       func(EntityId)
}

type addComponentCommand struct {
	entity EntityId
	value  ComponentValue
}

type removeComponentCommand struct {
	entity EntityId
	kind   ComponentId
}

// Defer queues a function execution operation.
func (c *Commands) Defer(fn func()) {
	c.defers = append(c.defers, deferCommand{fn: fn})
}

// Spawn queues an entity spawn operation with the given components.
func (c *Commands) Spawn(components ...ComponentValue) {
	c.spawns = append(c.spawns, spawnCommand{components: components})
}

// SpawnThen queues a spawn and calls then with the new entity once it exists.
func (c *Commands) SpawnThen(then func(EntityId), components ...ComponentValue) {
	c.spawns = append(c.spawns, spawnCommand{components: components, then: then})
}

// Delete queues an entity deletion operation.
func (c *Commands) Delete(entity EntityId) {
	c.deletes = append(c.deletes, entity)
}

// Add queues a component addition operation.
func (c *Commands) Add(entity EntityId, value ComponentValue) {
	c.adds = append(c.adds, addComponentCommand{
		entity: entity,
		value:  value,
	})
}

// Remove queues a component removal operation.
func (c *Commands) Remove(entity EntityId, kind Kind) {
	c.removes = append(c.removes, removeComponentCommand{
		entity: entity,
		kind:   kind.Id(),
	})
}

// Len returns the number of queued operations.
func (c *Commands) Len() int {
	return len(c.spawns) + len(c.deletes) + len(c.adds) + len(c.removes) + len(c.defers)
}

// Flush applies all commands to the provided storage in the order deletes, removes,
// adds, spawns, defers, and resets the buffer. Adds and removes targeting an entity
// deleted in the same flush are dropped.
func (c *Commands) Flush(storage *Storage) error {
	deletedEntities := make(map[EntityId]bool, len(c.deletes))
	var errs []error

	for _, cmd := range c.deletes {
		storage.Delete(cmd)
		deletedEntities[cmd] = true
	}

	for _, cmd := range c.removes {
		if !deletedEntities[cmd.entity] {
			storage.RemoveComponent(cmd.entity, cmd.kind)
		}
	}

	for _, cmd := range c.adds {
		if !deletedEntities[cmd.entity] {
			if err := cmd.value.addTo(storage, cmd.entity); err != nil {
				errs = append(errs, err)
			}
		}
	}

	for _, cmd := range c.spawns {
		e, err := storage.Spawn(cmd.components...)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if cmd.then != nil {
			cmd.then(e)
		}
	}

	for _, df := range c.defers {
		df.fn()
	}

	c.Reset()
	return errors.Join(errs...)
}

// Reset drops every queued command.
func (c *Commands) Reset() {
	c.spawns = c.spawns[:0]
	c.deletes = c.deletes[:0]
	c.adds = c.adds[:0]
	c.removes = c.removes[:0]
	c.defers = c.defers[:0]
}
