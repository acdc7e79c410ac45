package ecs

import "github.com/kamstrup/intmap"

const columnBlockSize = 64

// iColumn is the type-erased view of a component column used by Storage and Query.
type iColumn interface {
	kindId() ComponentId
	has(e EntityId) bool
	getAny(e EntityId) any
	remove(e EntityId) bool
	live() int
	slots() int
	holes() int
	ownerAt(slot int) EntityId
	anyAt(slot int) any
	compact()
}

// column is a sparse set for one component kind. Values live in fixed-size blocks so
// pointers handed out stay valid while the column grows. Removal leaves a hole that
// keeps the insertion order of the remaining slots; compact squeezes holes out.
type column[T any] struct {
	id     ComponentId
	blocks []*[columnBlockSize]T
	owners []EntityId
	index  *intmap.Map[uint32, int32]
	count  int
}

func newColumn[T any](id ComponentId) *column[T] {
	return &column[T]{
		id:    id,
		index: intmap.New[uint32, int32](64),
	}
}

func (c *column[T]) kindId() ComponentId {
	return c.id
}

func (c *column[T]) slotOf(e EntityId) (int, bool) {
	slot, ok := c.index.Get(e.Index())
	if !ok || c.owners[slot] != e {
		return 0, false
	}
	return int(slot), true
}

func (c *column[T]) at(slot int) *T {
	return &c.blocks[slot/columnBlockSize][slot%columnBlockSize]
}

// set stores v for e, overwriting in place when e already has a value.
func (c *column[T]) set(e EntityId, v T) *T {
	if slot, ok := c.slotOf(e); ok {
		ptr := c.at(slot)
		*ptr = v
		return ptr
	}

	// a stale entry for a recycled index may still be present
	if slot, ok := c.index.Get(e.Index()); ok && c.owners[slot] != e {
		c.index.Del(e.Index())
	}

	slot := len(c.owners)
	if slot/columnBlockSize >= len(c.blocks) {
		c.blocks = append(c.blocks, new([columnBlockSize]T))
	}
	c.owners = append(c.owners, e)
	c.index.Put(e.Index(), int32(slot))
	c.count++

	ptr := c.at(slot)
	*ptr = v
	return ptr
}

func (c *column[T]) get(e EntityId) *T {
	slot, ok := c.slotOf(e)
	if !ok {
		return nil
	}
	return c.at(slot)
}

func (c *column[T]) has(e EntityId) bool {
	_, ok := c.slotOf(e)
	return ok
}

func (c *column[T]) getAny(e EntityId) any {
	slot, ok := c.slotOf(e)
	if !ok {
		return nil
	}
	return c.at(slot)
}

func (c *column[T]) remove(e EntityId) bool {
	slot, ok := c.slotOf(e)
	if !ok {
		return false
	}
	var zero T
	*c.at(slot) = zero
	c.owners[slot] = 0
	c.index.Del(e.Index())
	c.count--
	return true
}

func (c *column[T]) live() int {
	return c.count
}

func (c *column[T]) slots() int {
	return len(c.owners)
}

func (c *column[T]) holes() int {
	return len(c.owners) - c.count
}

func (c *column[T]) ownerAt(slot int) EntityId {
	return c.owners[slot]
}

func (c *column[T]) anyAt(slot int) any {
	return c.at(slot)
}

// compact moves live values down over holes, preserving their order. Pointers
// previously returned for this column are invalid afterwards.
func (c *column[T]) compact() {
	if c.holes() == 0 {
		return
	}

	write := 0
	for read, owner := range c.owners {
		if owner == 0 {
			continue
		}
		if read != write {
			*c.at(write) = *c.at(read)
			c.owners[write] = owner
			c.index.Put(owner.Index(), int32(write))
		}
		write++
	}

	var zero T
	for slot := write; slot < len(c.owners); slot++ {
		*c.at(slot) = zero
	}
	c.owners = c.owners[:write]

	needBlocks := (write + columnBlockSize - 1) / columnBlockSize
	for i := needBlocks; i < len(c.blocks); i++ {
		c.blocks[i] = nil
	}
	c.blocks = c.blocks[:needBlocks]
}
