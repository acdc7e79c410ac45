package ecs_test

import "github.com/plus3/kiln/ecs"

// Common test component types
type Position struct {
	X, Y float32
}

type Velocity struct {
	DX, DY float32
}

type Name struct {
	Value string
}

type Health struct {
	Current int
	Max     int
}

type PlayerController struct{}

// Custom primitive types for testing non-struct components
type Score int32

type testKinds struct {
	Position         ecs.ComponentKind[Position]
	Velocity         ecs.ComponentKind[Velocity]
	Name             ecs.ComponentKind[Name]
	Health           ecs.ComponentKind[Health]
	PlayerController ecs.ComponentKind[PlayerController]
	Score            ecs.ComponentKind[Score]
}

func newTestStorage() (*ecs.Storage, testKinds) {
	registry := ecs.NewComponentRegistry()
	kinds := testKinds{
		Position:         ecs.RegisterComponent[Position](registry),
		Velocity:         ecs.RegisterComponent[Velocity](registry),
		Name:             ecs.RegisterComponent[Name](registry),
		Health:           ecs.RegisterComponent[Health](registry),
		PlayerController: ecs.RegisterComponent[PlayerController](registry),
		Score:            ecs.RegisterComponent[Score](registry),
	}
	return ecs.NewStorage(registry), kinds
}
