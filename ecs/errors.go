package ecs

import (
	"errors"
	"fmt"
)

var (
	// ErrEntityNotAlive is returned when writing to a destroyed or never created entity.
	ErrEntityNotAlive = errors.New("ecs: entity not alive")
	// ErrInvalidComponentKind is returned when a zero ComponentKind, or one issued by
	// another registry than the storage's, is used.
	ErrInvalidComponentKind = errors.New("ecs: invalid component kind")
	// ErrSkipRemaining may be returned by a system's Run to stop iterating the rest of
	// its rows for the current frame. It is not treated as a failure.
	ErrSkipRemaining = errors.New("ecs: skip remaining entities")
)

// MissingComponentError reports a component a caller required but the entity lacks.
type MissingComponentError struct {
	Entity EntityId
	Kind   string
}

func (e *MissingComponentError) Error() string {
	return fmt.Sprintf("ecs: entity %s is missing component %s", e.Entity, e.Kind)
}
