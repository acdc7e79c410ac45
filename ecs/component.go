package ecs

import (
	"reflect"
)

// ComponentId identifies a component kind within a ComponentRegistry. The zero id
// is never assigned.
type ComponentId uint32

// Kind is implemented by every ComponentKind and is what queries are built from.
type Kind interface {
	Id() ComponentId
	Name() string
	// Registry is the registry that issued the id. Ids are only meaningful there.
	Registry() *ComponentRegistry
}

// ComponentKind is an opaque typed token for a component kind. Tokens are created by
// a ComponentRegistry and only address storages built on that registry; the zero
// value is an unregistered kind.
type ComponentKind[T any] struct {
	id       ComponentId
	name     string
	registry *ComponentRegistry
}

// Id returns the kind's identity.
func (k ComponentKind[T]) Id() ComponentId {
	return k.id
}

// Name returns the kind's diagnostic name.
func (k ComponentKind[T]) Name() string {
	if k.id == 0 {
		return "<unregistered>"
	}
	return k.name
}

// Registry returns the registry that created the kind, nil for the zero kind.
func (k ComponentKind[T]) Registry() *ComponentRegistry {
	return k.registry
}

// Valid reports whether the kind was created by a registry.
func (k ComponentKind[T]) Valid() bool {
	return k.id != 0
}

func (k ComponentKind[T]) newColumn() iColumn {
	return newColumn[T](k.id)
}

type kindInfo struct {
	name string
	typ  reflect.Type
}

// ComponentRegistry assigns identities to component kinds. Each Storage is built on
// a registry, and several storages may share one so their kinds agree.
type ComponentRegistry struct {
	kinds  []kindInfo
	byType map[reflect.Type]ComponentId
}

// NewComponentRegistry creates an empty registry.
func NewComponentRegistry() *ComponentRegistry {
	return &ComponentRegistry{
		// index 0 is reserved for the unregistered kind
		kinds:  make([]kindInfo, 1, 32),
		byType: make(map[reflect.Type]ComponentId),
	}
}

// RegisterComponent returns the kind for T, registering it on first use. Every call
// with the same T on the same registry returns the same token.
func RegisterComponent[T any](r *ComponentRegistry) ComponentKind[T] {
	t := reflect.TypeFor[T]()
	if id, ok := r.byType[t]; ok {
		return ComponentKind[T]{id: id, name: r.kinds[id].name, registry: r}
	}
	kind := NewComponentKind[T](r, t.String())
	r.byType[t] = kind.id
	return kind
}

// NewComponentKind declares a new kind holding values of T. Unlike RegisterComponent
// it always creates a distinct identity, so several kinds may share a Go type:
//
//	depth := ecs.NewComponentKind[float32](registry, "Depth")
//	alpha := ecs.NewComponentKind[float32](registry, "Alpha")
func NewComponentKind[T any](r *ComponentRegistry, name string) ComponentKind[T] {
	id := ComponentId(len(r.kinds))
	r.kinds = append(r.kinds, kindInfo{name: name, typ: reflect.TypeFor[T]()})
	return ComponentKind[T]{id: id, name: name, registry: r}
}

// Name returns the name a kind was registered with, or "" if id is unknown.
func (r *ComponentRegistry) Name(id ComponentId) string {
	if id == 0 || int(id) >= len(r.kinds) {
		return ""
	}
	return r.kinds[id].name
}

// Type returns the Go type stored by the kind, or nil if id is unknown.
func (r *ComponentRegistry) Type(id ComponentId) reflect.Type {
	if id == 0 || int(id) >= len(r.kinds) {
		return nil
	}
	return r.kinds[id].typ
}

// Len returns the number of registered kinds.
func (r *ComponentRegistry) Len() int {
	return len(r.kinds) - 1
}

// Kinds returns all registered ids in registration order.
func (r *ComponentRegistry) Kinds() []ComponentId {
	ids := make([]ComponentId, 0, r.Len())
	for i := 1; i < len(r.kinds); i++ {
		ids = append(ids, ComponentId(i))
	}
	return ids
}
