package ecs_test

import (
	"fmt"

	"github.com/plus3/kiln/ecs"
)

// ExampleQuery demonstrates iterating the entities that hold a set of components.
// Rows come back in the order entities received the first listed kind.
func ExampleQuery() {
	registry := ecs.NewComponentRegistry()
	position := ecs.RegisterComponent[Position](registry)
	velocity := ecs.RegisterComponent[Velocity](registry)
	health := ecs.RegisterComponent[Health](registry)
	storage := ecs.NewStorage(registry)

	storage.MustSpawn(ecs.With(position, Position{X: 0, Y: 0}), ecs.With(velocity, Velocity{DX: 1, DY: 0}))
	storage.MustSpawn(
		ecs.With(position, Position{X: 10, Y: 10}),
		ecs.With(velocity, Velocity{DX: 0, DY: 1}),
		ecs.With(health, Health{Current: 100, Max: 100}),
	)
	storage.MustSpawn(ecs.With(position, Position{X: 5, Y: 5}))
	storage.MustSpawn(ecs.With(position, Position{X: 20, Y: 20}), ecs.With(velocity, Velocity{DX: -1, DY: -1}))

	query := ecs.NewQuery(storage, position, velocity)

	fmt.Println("Moving entities:")
	for _, row := range query.Iter() {
		pos := ecs.Field(row, position)
		vel := ecs.Field(row, velocity)
		fmt.Printf("Position (%.0f, %.0f) -> (%.0f, %.0f)\n", pos.X, pos.Y, pos.X+vel.DX, pos.Y+vel.DY)
	}

	// Output:
	// Moving entities:
	// Position (0, 0) -> (1, 0)
	// Position (10, 10) -> (10, 11)
	// Position (20, 20) -> (19, 19)
}
