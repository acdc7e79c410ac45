package ecs

import "fmt"

// EntityId encodes the entity slot index (lower 32 bits) and its generation
// (upper 32 bits). Generations start at 1, so the zero EntityId is never alive.
type EntityId uint64

// NewEntityId creates an EntityId from a slot index and a generation
func NewEntityId(index uint32, generation uint32) EntityId {
	return EntityId(uint64(generation)<<32 | uint64(index))
}

// Index extracts the slot index from the entity ID
func (e EntityId) Index() uint32 {
	return uint32(e & 0xFFFFFFFF)
}

// Generation extracts the generation from the entity ID
func (e EntityId) Generation() uint32 {
	return uint32(e >> 32)
}

func (e EntityId) String() string {
	return fmt.Sprintf("%d:%d", e.Index(), e.Generation())
}

// entityPool hands out entity ids, recycling freed slots with a bumped generation.
type entityPool struct {
	generations []uint32
	alive       []bool
	free        []uint32
	count       int
}

func (p *entityPool) create() EntityId {
	var idx uint32
	if n := len(p.free); n > 0 {
		idx = p.free[n-1]
		p.free = p.free[:n-1]
	} else {
		idx = uint32(len(p.generations))
		p.generations = append(p.generations, 1)
		p.alive = append(p.alive, false)
	}
	p.alive[idx] = true
	p.count++
	return NewEntityId(idx, p.generations[idx])
}

func (p *entityPool) isAlive(e EntityId) bool {
	idx := e.Index()
	if int(idx) >= len(p.generations) {
		return false
	}
	return p.alive[idx] && p.generations[idx] == e.Generation()
}

func (p *entityPool) destroy(e EntityId) bool {
	if !p.isAlive(e) {
		return false
	}
	idx := e.Index()
	p.alive[idx] = false
	p.generations[idx]++
	if p.generations[idx] == 0 {
		// wrapped; skip the reserved zero generation
		p.generations[idx] = 1
	}
	p.free = append(p.free, idx)
	p.count--
	return true
}

// each yields live entities in ascending slot index.
func (p *entityPool) each(yield func(EntityId) bool) {
	for idx, ok := range p.alive {
		if !ok {
			continue
		}
		if !yield(NewEntityId(uint32(idx), p.generations[idx])) {
			return
		}
	}
}
