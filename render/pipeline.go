package render

import (
	"errors"
	"fmt"

	"github.com/plus3/kiln/ecs"
	"go.uber.org/zap"
)

// ErrInvalidGrowthFactor is returned for a growth factor outside (1, 2].
var ErrInvalidGrowthFactor = errors.New("render: growth factor must be in (1, 2]")

// DefaultRetainFrames is how many frames an unused batch keeps its buffer.
const DefaultRetainFrames = 120

// InstanceDataPopulator writes one entity's per-instance floats. dst is exactly
// Layout().Stride() long. Kinds lists the components Populate requires.
type InstanceDataPopulator interface {
	Layout() *Layout
	Kinds() []ecs.Kind
	Populate(storage *ecs.Storage, entity ecs.EntityId, dst []float32) error
}

// Selector reads the batching key from a row: the renderable, the layer it draws
// on and whether it is visible. Rows whose selector reports false are excluded
// before grouping.
type Selector func(row ecs.Row) (r *Renderable, layer int, visible bool)

// PipelineConfig configures a Pipeline.
type PipelineConfig struct {
	// Name defaults to "render/<layer>".
	Name string
	// Layer is the layer this pipeline batches.
	Layer int
	// Query lists the kinds Select reads. The populator's kinds are appended.
	Query []ecs.Kind
	// Select extracts the batching key from a row.
	Select    Selector
	Populator InstanceDataPopulator
	// Priority defaults to ecs.PriorityLate.
	Priority ecs.Priority
	// GrowthFactor defaults to DefaultGrowthFactor.
	GrowthFactor float64
	// InitialInstances preallocates each new batch.
	InitialInstances int
	// RetainFrames defaults to DefaultRetainFrames.
	RetainFrames int
	Logger       *zap.Logger
}

// PipelineStats summarizes the last frame of a pipeline.
type PipelineStats struct {
	Name      string
	Layer     int
	Batches   int
	Instances int
	// BufferFloats is the total backing capacity across batches.
	BufferFloats int
	Grows        int
}

// Pipeline batches one layer per frame. Its System clears the previous frame's
// batches, groups the visible rows by renderable and populates each batch buffer.
// Submit then hands the batches to a Backend.
type Pipeline struct {
	cfg       PipelineConfig
	layout    *Layout
	batches   map[*Renderable]*Batch
	active    []*Batch
	frame     uint64
	logger    *zap.Logger
	totalGrow int
}

// NewPipeline validates cfg and creates a pipeline.
func NewPipeline(cfg PipelineConfig) (*Pipeline, error) {
	if cfg.Populator == nil {
		return nil, errors.New("render: pipeline needs a populator")
	}
	if cfg.Select == nil {
		return nil, errors.New("render: pipeline needs a selector")
	}
	if cfg.GrowthFactor == 0 {
		cfg.GrowthFactor = DefaultGrowthFactor
	}
	if !(cfg.GrowthFactor > 1 && cfg.GrowthFactor <= 2) {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidGrowthFactor, cfg.GrowthFactor)
	}
	if cfg.InitialInstances < 0 {
		return nil, fmt.Errorf("render: negative initial instances %d", cfg.InitialInstances)
	}
	if cfg.Name == "" {
		cfg.Name = fmt.Sprintf("render/%d", cfg.Layer)
	}
	if cfg.Priority == 0 {
		cfg.Priority = ecs.PriorityLate
	}
	if cfg.RetainFrames <= 0 {
		cfg.RetainFrames = DefaultRetainFrames
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Pipeline{
		cfg:     cfg,
		layout:  cfg.Populator.Layout(),
		batches: make(map[*Renderable]*Batch),
		logger:  logger.With(zap.String("pipeline", cfg.Name)),
	}, nil
}

// Layout returns the instance layout of the populator.
func (p *Pipeline) Layout() *Layout {
	return p.layout
}

// Name returns the pipeline's system name.
func (p *Pipeline) Name() string {
	return p.cfg.Name
}

// Layer returns the layer the pipeline batches.
func (p *Pipeline) Layer() int {
	return p.cfg.Layer
}

// System returns the system that rebuilds the batches each frame.
func (p *Pipeline) System() ecs.System {
	query := make([]ecs.Kind, 0, len(p.cfg.Query)+len(p.cfg.Populator.Kinds()))
	seen := make(map[ecs.ComponentId]bool)
	for _, k := range append(append([]ecs.Kind{}, p.cfg.Query...), p.cfg.Populator.Kinds()...) {
		if !seen[k.Id()] {
			seen[k.Id()] = true
			query = append(query, k)
		}
	}

	return ecs.System{
		Name:      p.cfg.Name,
		Query:     query,
		Priority:  p.cfg.Priority,
		BeforeAll: p.beforeAll,
		Run:       p.group,
		AfterAll:  p.populate,
	}
}

func (p *Pipeline) beforeAll(frame *ecs.UpdateFrame, rows []ecs.Row) ([]ecs.Row, error) {
	p.frame++
	for _, b := range p.active {
		b.reset()
	}
	p.active = p.active[:0]

	kept := rows[:0]
	for _, row := range rows {
		if _, layer, visible := p.cfg.Select(row); visible && layer == p.cfg.Layer {
			kept = append(kept, row)
		}
	}
	return kept, nil
}

func (p *Pipeline) group(frame *ecs.UpdateFrame, row ecs.Row) error {
	r, _, _ := p.cfg.Select(row)
	b, ok := p.batches[r]
	if !ok {
		b = newBatch(r, p.layout.Stride(), p.cfg.GrowthFactor, p.cfg.InitialInstances)
		p.batches[r] = b
	}
	if b.lastSeen != p.frame {
		b.lastSeen = p.frame
		p.active = append(p.active, b)
	}
	b.add(row.Entity)
	return nil
}

func (p *Pipeline) populate(frame *ecs.UpdateFrame) error {
	stride := p.layout.Stride()
	for _, b := range p.active {
		if b.ensureCapacity(b.Instances()) {
			p.totalGrow++
			p.logger.Debug("instance buffer grown",
				zap.String("renderable", b.renderable.Name()),
				zap.Int("instances", b.Instances()),
				zap.Int("capacity", b.Capacity()))
		}
		data := b.data
		for i, e := range b.entities {
			if err := p.cfg.Populator.Populate(frame.Storage, e, data[i*stride:(i+1)*stride]); err != nil {
				return fmt.Errorf("populate %s: %w", b.renderable.Name(), err)
			}
		}
	}
	p.evict()
	return nil
}

func (p *Pipeline) evict() {
	for r, b := range p.batches {
		if p.frame-b.lastSeen > uint64(p.cfg.RetainFrames) {
			delete(p.batches, r)
		}
	}
}

// Batches returns the non-empty batches of the last frame the system ran, in the
// order their renderables were first seen.
func (p *Pipeline) Batches() []*Batch {
	return p.active
}

// Submit hands every batch to the backend in order.
func (p *Pipeline) Submit(backend Backend) error {
	attrs := p.layout.Attributes()
	for _, b := range p.active {
		if err := backend.DrawInstanced(b.renderable, b.InstanceData(), attrs, b.Instances()); err != nil {
			return fmt.Errorf("draw %s: %w", b.renderable.Name(), err)
		}
	}
	return nil
}

// Stats summarizes the current batches.
func (p *Pipeline) Stats() PipelineStats {
	st := PipelineStats{
		Name:    p.cfg.Name,
		Layer:   p.cfg.Layer,
		Batches: len(p.active),
		Grows:   p.totalGrow,
	}
	for _, b := range p.active {
		st.Instances += b.Instances()
		st.BufferFloats += len(b.data)
	}
	return st
}

// Stack is an ordered set of pipelines, typically one per layer, submitted back to
// front.
type Stack []*Pipeline

// Register adds every pipeline's system to the scheduler.
func (s Stack) Register(scheduler *ecs.Scheduler) []*ecs.SystemHandle {
	handles := make([]*ecs.SystemHandle, len(s))
	for i, p := range s {
		handles[i] = scheduler.Add(p.System())
	}
	return handles
}

// Submit submits each pipeline in order and stops at the first error.
func (s Stack) Submit(backend Backend) error {
	for _, p := range s {
		if err := p.Submit(backend); err != nil {
			return err
		}
	}
	return nil
}
