package render

import (
	"math"

	"github.com/plus3/kiln/ecs"
)

// DefaultGrowthFactor is the headroom a batch buffer grows by when it runs out.
const DefaultGrowthFactor = 1.2

// Batch collects the entities sharing one Renderable on one layer and holds the
// instance buffer they are packed into. The buffer is reused across frames and
// only replaced when the instance count outgrows it.
type Batch struct {
	renderable *Renderable
	stride     int
	growth     float64

	entities []ecs.EntityId
	data     []float32

	grows    int
	lastSeen uint64
}

func newBatch(r *Renderable, stride int, growth float64, initial int) *Batch {
	b := &Batch{
		renderable: r,
		stride:     stride,
		growth:     growth,
	}
	if initial > 0 {
		b.data = make([]float32, initial*stride)
	}
	return b
}

// Renderable returns the batch key.
func (b *Batch) Renderable() *Renderable {
	return b.renderable
}

// Entities returns the entities in the batch in instance order.
func (b *Batch) Entities() []ecs.EntityId {
	return b.entities
}

// Instances returns the number of instances this frame.
func (b *Batch) Instances() int {
	return len(b.entities)
}

// InstanceData returns the populated floats, Instances()×stride long.
func (b *Batch) InstanceData() []float32 {
	return b.data[:len(b.entities)*b.stride]
}

// Buffer returns the whole backing buffer, including unused capacity.
func (b *Batch) Buffer() []float32 {
	return b.data
}

// Capacity returns how many instances fit in the current buffer.
func (b *Batch) Capacity() int {
	if b.stride == 0 {
		return 0
	}
	return len(b.data) / b.stride
}

// Grows returns how many times the buffer has been replaced.
func (b *Batch) Grows() int {
	return b.grows
}

func (b *Batch) reset() {
	b.entities = b.entities[:0]
}

func (b *Batch) add(e ecs.EntityId) {
	b.entities = append(b.entities, e)
}

// ensureCapacity makes room for n instances. A short buffer is replaced once,
// directly by one sized to n×growth instances. It reports whether it grew.
func (b *Batch) ensureCapacity(n int) bool {
	if n <= b.Capacity() {
		return false
	}
	instances := int(math.Ceil(float64(n) * b.growth))
	if instances <= n {
		instances = n + 1
	}
	b.data = make([]float32, instances*b.stride)
	b.grows++
	return true
}
