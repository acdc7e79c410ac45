package ecs

import (
	"iter"
)

// Row is one query match: the entity and pointers to its components, in the order
// the query listed the kinds. Rows are borrows valid until the query executes again
// or the storage is compacted.
type Row struct {
	Entity     EntityId
	registry   *ComponentRegistry
	kinds      []ComponentId
	components []any
}

// Len returns the number of components in the row.
func (r Row) Len() int {
	return len(r.components)
}

// At returns the i-th component pointer as an any.
func (r Row) At(i int) any {
	return r.components[i]
}

// Field returns the row's component of the given kind, or nil if the query did not
// list that kind.
func Field[T any](r Row, kind ComponentKind[T]) *T {
	if kind.registry != r.registry {
		return nil
	}
	for i, id := range r.kinds {
		if id == kind.id {
			return r.components[i].(*T)
		}
	}
	return nil
}

// Query matches entities holding every listed component kind. Results are ordered by
// the insertion order of the first kind's column; an empty kind list matches every
// live entity in slot order.
type Query struct {
	storage *Storage
	kinds   []ComponentId
	// foreign is set when a kind was issued by another registry; nothing matches.
	foreign bool

	rows   []Row
	starts []int
	values []any
}

// NewQuery creates a query over storage for the given kinds.
func NewQuery(storage *Storage, kinds ...Kind) *Query {
	q := &Query{
		storage: storage,
		kinds:   make([]ComponentId, len(kinds)),
	}
	for i, k := range kinds {
		q.kinds[i] = k.Id()
		if !storage.owns(k) {
			q.foreign = true
		}
	}
	return q
}

// Kinds returns the component kinds the query requires.
func (q *Query) Kinds() []ComponentId {
	return q.kinds
}

// Matches reports whether e is alive and holds every required kind.
func (q *Query) Matches(e EntityId) bool {
	if q.foreign || !q.storage.Alive(e) {
		return false
	}
	for _, id := range q.kinds {
		if !q.storage.HasComponent(e, id) {
			return false
		}
	}
	return true
}

// Execute evaluates the query against the current storage state and returns the
// matching rows. The returned slice is reused by the next Execute.
func (q *Query) Execute() []Row {
	q.rows = q.rows[:0]
	q.starts = q.starts[:0]
	q.values = q.values[:0]

	if q.foreign {
		return q.rows
	}
	registry := q.storage.registry
	if len(q.kinds) == 0 {
		for e := range q.storage.Entities() {
			q.rows = append(q.rows, Row{Entity: e, registry: registry, kinds: q.kinds})
		}
		return q.rows
	}

	first := q.storage.column(q.kinds[0])
	if first == nil || first.live() == 0 {
		return q.rows
	}
	others := make([]iColumn, 0, len(q.kinds)-1)
	for _, id := range q.kinds[1:] {
		col := q.storage.column(id)
		if col == nil || col.live() == 0 {
			return q.rows
		}
		others = append(others, col)
	}

	width := len(q.kinds)
	for slot := 0; slot < first.slots(); slot++ {
		owner := first.ownerAt(slot)
		if owner == 0 {
			continue
		}

		start := len(q.values)
		q.values = append(q.values, first.anyAt(slot))
		matched := true
		for _, col := range others {
			ptr := col.getAny(owner)
			if ptr == nil {
				matched = false
				break
			}
			q.values = append(q.values, ptr)
		}
		if !matched {
			q.values = q.values[:start]
			continue
		}

		q.rows = append(q.rows, Row{Entity: owner, registry: registry, kinds: q.kinds})
		q.starts = append(q.starts, start)
	}

	// values may have been reallocated while appending; slice it once at the end
	for i, start := range q.starts {
		q.rows[i].components = q.values[start : start+width : start+width]
	}
	return q.rows
}

// Rows returns the rows of the last Execute.
func (q *Query) Rows() []Row {
	return q.rows
}

// Count executes the query and returns the number of matches.
func (q *Query) Count() int {
	return len(q.Execute())
}

// Iter executes the query and yields each match.
func (q *Query) Iter() iter.Seq2[EntityId, Row] {
	rows := q.Execute()
	return func(yield func(EntityId, Row) bool) {
		for _, row := range rows {
			if !yield(row.Entity, row) {
				return
			}
		}
	}
}
