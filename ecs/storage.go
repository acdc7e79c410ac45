package ecs

import (
	"fmt"
	"iter"
)

// compactRatio is the hole fraction (1/n) above which Maintain compacts a column.
const compactRatio = 4

// Storage owns entities and their components, one sparse-set column per kind.
type Storage struct {
	registry *ComponentRegistry
	entities entityPool
	columns  []iColumn
}

// NewStorage creates a new ECS storage on the given component registry
func NewStorage(registry *ComponentRegistry) *Storage {
	return &Storage{
		registry: registry,
		columns:  make([]iColumn, registry.Len()+1),
	}
}

// Registry returns the registry the storage was created with.
func (s *Storage) Registry() *ComponentRegistry {
	return s.registry
}

// CreateEntity allocates a fresh entity with no components.
func (s *Storage) CreateEntity() EntityId {
	return s.entities.create()
}

// Alive reports whether e refers to a live entity.
func (s *Storage) Alive(e EntityId) bool {
	return s.entities.isAlive(e)
}

// EntityCount returns the number of live entities.
func (s *Storage) EntityCount() int {
	return s.entities.count
}

// Delete removes all components of e and frees its id. Deleting a dead entity is a
// no-op. It reports whether e was alive.
func (s *Storage) Delete(e EntityId) bool {
	if !s.entities.isAlive(e) {
		return false
	}
	for _, col := range s.columns {
		if col != nil {
			col.remove(e)
		}
	}
	return s.entities.destroy(e)
}

// HasComponent checks if an entity has a component of the given kind.
func (s *Storage) HasComponent(e EntityId, id ComponentId) bool {
	col := s.column(id)
	return col != nil && col.has(e)
}

// GetComponent returns a pointer to the component as an any, or nil if absent.
func (s *Storage) GetComponent(e EntityId, id ComponentId) any {
	col := s.column(id)
	if col == nil {
		return nil
	}
	return col.getAny(e)
}

// RemoveComponent removes the component of the given kind. Removing an absent
// component is a no-op.
func (s *Storage) RemoveComponent(e EntityId, id ComponentId) bool {
	col := s.column(id)
	if col == nil {
		return false
	}
	return col.remove(e)
}

// Components returns the kinds e currently holds, in registration order.
func (s *Storage) Components(e EntityId) []ComponentId {
	var ids []ComponentId
	for _, col := range s.columns {
		if col != nil && col.has(e) {
			ids = append(ids, col.kindId())
		}
	}
	return ids
}

// Entities yields every live entity in ascending slot index.
func (s *Storage) Entities() iter.Seq[EntityId] {
	return s.entities.each
}

// Compact squeezes every hole out of every column. Component pointers obtained
// before the call are invalid afterwards.
func (s *Storage) Compact() {
	for _, col := range s.columns {
		if col != nil {
			col.compact()
		}
	}
}

// Maintain compacts the columns whose hole ratio makes iteration wasteful. The
// scheduler calls it at the end of every frame.
func (s *Storage) Maintain() {
	for _, col := range s.columns {
		if col == nil {
			continue
		}
		if h := col.holes(); h > 0 && h*compactRatio >= col.slots() {
			col.compact()
		}
	}
}

func (s *Storage) column(id ComponentId) iColumn {
	if int(id) >= len(s.columns) {
		return nil
	}
	return s.columns[id]
}

// owns reports whether kind was issued by the storage's registry.
func (s *Storage) owns(kind Kind) bool {
	return kind.Registry() == s.registry
}

func columnFor[T any](s *Storage, kind ComponentKind[T]) *column[T] {
	id := kind.id
	if int(id) >= len(s.columns) {
		grown := make([]iColumn, max(int(id), s.registry.Len())+1)
		copy(grown, s.columns)
		s.columns = grown
	}
	if s.columns[id] == nil {
		s.columns[id] = kind.newColumn()
	}
	return s.columns[id].(*column[T])
}

func typedColumn[T any](s *Storage, kind ComponentKind[T]) *column[T] {
	if !s.owns(kind) {
		return nil
	}
	col := s.column(kind.id)
	if col == nil {
		return nil
	}
	return col.(*column[T])
}

// Add attaches value to e under kind, overwriting any existing value of that kind.
func Add[T any](s *Storage, e EntityId, kind ComponentKind[T], value T) error {
	if !kind.Valid() {
		return ErrInvalidComponentKind
	}
	if !s.owns(kind) {
		return fmt.Errorf("add %s: kind belongs to another registry: %w", kind.Name(), ErrInvalidComponentKind)
	}
	if !s.entities.isAlive(e) {
		return fmt.Errorf("add %s to %s: %w", kind.Name(), e, ErrEntityNotAlive)
	}
	columnFor(s, kind).set(e, value)
	return nil
}

// Get returns the component of kind on e, or false if it is absent.
func Get[T any](s *Storage, e EntityId, kind ComponentKind[T]) (*T, bool) {
	col := typedColumn(s, kind)
	if col == nil {
		return nil, false
	}
	ptr := col.get(e)
	return ptr, ptr != nil
}

// Require returns the component of kind on e or a *MissingComponentError.
func Require[T any](s *Storage, e EntityId, kind ComponentKind[T]) (*T, error) {
	if ptr, ok := Get(s, e, kind); ok {
		return ptr, nil
	}
	return nil, &MissingComponentError{Entity: e, Kind: kind.Name()}
}

// MustGet is like Require but panics when the component is missing.
func MustGet[T any](s *Storage, e EntityId, kind ComponentKind[T]) *T {
	ptr, err := Require(s, e, kind)
	if err != nil {
		panic(err)
	}
	return ptr
}

// Has reports whether e holds a component of kind.
func Has[T any](s *Storage, e EntityId, kind ComponentKind[T]) bool {
	col := typedColumn(s, kind)
	return col != nil && col.has(e)
}

// Remove detaches the component of kind from e. It is a no-op when absent.
func Remove[T any](s *Storage, e EntityId, kind ComponentKind[T]) bool {
	if !s.owns(kind) {
		return false
	}
	return s.RemoveComponent(e, kind.id)
}

// ComponentValue pairs a kind with a value for Spawn.
type ComponentValue interface {
	addTo(s *Storage, e EntityId) error
}

type componentValue[T any] struct {
	kind  ComponentKind[T]
	value T
}

func (c componentValue[T]) addTo(s *Storage, e EntityId) error {
	return Add(s, e, c.kind, c.value)
}

// With binds a value to its kind for Spawn.
func With[T any](kind ComponentKind[T], value T) ComponentValue {
	return componentValue[T]{kind: kind, value: value}
}

// Spawn creates an entity holding the given components. On error the partially
// built entity is deleted.
func (s *Storage) Spawn(components ...ComponentValue) (EntityId, error) {
	e := s.CreateEntity()
	for _, c := range components {
		if err := c.addTo(s, e); err != nil {
			s.Delete(e)
			return 0, err
		}
	}
	return e, nil
}

// MustSpawn is like Spawn but panics on error.
func (s *Storage) MustSpawn(components ...ComponentValue) EntityId {
	e, err := s.Spawn(components...)
	if err != nil {
		panic(err)
	}
	return e
}
