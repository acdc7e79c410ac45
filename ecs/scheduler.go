package ecs

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/plus3/kiln/clock"
	"go.uber.org/zap"
)

// SchedulerStats provides statistics about scheduler execution.
type SchedulerStats struct {
	SystemCount     int
	TotalExecutions int64
	Systems         []SystemStats
}

// SystemStats provides execution statistics for a single system.
type SystemStats struct {
	Name           string
	Priority       Priority
	Enabled        bool
	ExecutionCount int64
	MinDuration    time.Duration
	MaxDuration    time.Duration
	AvgDuration    time.Duration
	LastDuration   time.Duration
	TotalDuration  time.Duration
}

type systemStatsInternal struct {
	executionCount int64
	minDuration    time.Duration
	maxDuration    time.Duration
	totalDuration  time.Duration
	lastDuration   time.Duration
}

func (st *systemStatsInternal) record(d time.Duration) {
	st.executionCount++
	st.lastDuration = d
	st.totalDuration += d
	if d < st.minDuration {
		st.minDuration = d
	}
	if d > st.maxDuration {
		st.maxDuration = d
	}
}

// SystemHandle refers to a system added to a Scheduler.
type SystemHandle struct {
	system    System
	query     *Query
	scheduler *Scheduler
	enabled   bool
	removed   bool
	stats     systemStatsInternal
}

// Name returns the system's name.
func (h *SystemHandle) Name() string {
	return h.system.Name
}

// Priority returns the system's effective priority.
func (h *SystemHandle) Priority() Priority {
	return h.system.priority()
}

// Enabled reports whether the system will run.
func (h *SystemHandle) Enabled() bool {
	return h.enabled && !h.removed
}

// Enable lets a disabled system run again from its next turn.
func (h *SystemHandle) Enable() {
	h.enabled = true
}

// Disable skips the system until Enable is called. A system disabling itself
// inside Run stops iterating its remaining rows.
func (h *SystemHandle) Disable() {
	h.enabled = false
}

// Remove unregisters the system. It is safe to call from the system's own hooks.
func (h *SystemHandle) Remove() {
	if h.removed {
		return
	}
	h.removed = true
	h.scheduler.systemRemoved(h)
}

// Query returns the query the system iterates.
func (h *SystemHandle) Query() *Query {
	return h.query
}

func (h *SystemHandle) execute(frame *UpdateFrame) error {
	sys := &h.system

	var rows []Row
	if sys.BeforeAll != nil || sys.Run != nil {
		rows = h.query.Execute()
	}

	if sys.BeforeAll != nil {
		var err error
		if rows, err = sys.BeforeAll(frame, rows); err != nil {
			return err
		}
	}

	if sys.Run != nil {
		for _, row := range rows {
			if !h.Enabled() {
				return nil
			}
			// an earlier row may have deleted this entity or stripped a component
			if !h.query.Matches(row.Entity) {
				continue
			}
			if err := sys.Run(frame, row); err != nil {
				if errors.Is(err, ErrSkipRemaining) {
					break
				}
				return err
			}
		}
	}

	if sys.AfterAll != nil && h.Enabled() {
		return sys.AfterAll(frame)
	}
	return nil
}

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler)

// WithLogger sets the logger used for system lifecycle and frame failures.
func WithLogger(logger *zap.Logger) SchedulerOption {
	return func(s *Scheduler) {
		s.logger = logger
	}
}

// WithFrameErrorHandler sets the policy Run applies to a failed frame. Returning nil
// skips the frame and keeps the loop going; returning an error stops Run.
func WithFrameErrorHandler(fn func(error) error) SchedulerOption {
	return func(s *Scheduler) {
		s.onFrameError = fn
	}
}

// Scheduler manages and executes systems in priority order.
type Scheduler struct {
	storage      *Storage
	systems      []*SystemHandle
	pending      []*SystemHandle
	running      bool
	dirty        bool
	logger       *zap.Logger
	onFrameError func(error) error
}

// NewScheduler creates a new scheduler for the given storage.
func NewScheduler(storage *Storage, opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		storage: storage,
		systems: make([]*SystemHandle, 0),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Add registers a system. Systems added while a frame runs take part from the next
// frame.
func (s *Scheduler) Add(system System) *SystemHandle {
	h := &SystemHandle{
		system:    system,
		query:     NewQuery(s.storage, system.Query...),
		scheduler: s,
		enabled:   !system.Disabled,
		stats: systemStatsInternal{
			minDuration: time.Duration(1<<63 - 1),
		},
	}

	if s.running {
		s.pending = append(s.pending, h)
	} else {
		s.insert(h)
	}

	s.logger.Debug("system added",
		zap.String("system", system.Name),
		zap.Int("priority", int(system.priority())))
	return h
}

func (s *Scheduler) insert(h *SystemHandle) {
	p := h.Priority()
	i := sort.Search(len(s.systems), func(i int) bool {
		return s.systems[i].Priority() > p
	})
	s.systems = append(s.systems, nil)
	copy(s.systems[i+1:], s.systems[i:])
	s.systems[i] = h
}

func (s *Scheduler) systemRemoved(h *SystemHandle) {
	s.logger.Debug("system removed", zap.String("system", h.Name()))
	if s.running {
		s.dirty = true
		return
	}
	s.prune()
}

func (s *Scheduler) prune() {
	kept := s.systems[:0]
	for _, h := range s.systems {
		if !h.removed {
			kept = append(kept, h)
		}
	}
	for i := len(kept); i < len(s.systems); i++ {
		s.systems[i] = nil
	}
	s.systems = kept
	s.dirty = false
}

func (s *Scheduler) settle() {
	s.running = false
	if s.dirty {
		s.prune()
	}
	for _, h := range s.pending {
		if !h.removed {
			s.insert(h)
		}
	}
	s.pending = s.pending[:0]
}

// Systems returns the registered systems in execution order.
func (s *Scheduler) Systems() []*SystemHandle {
	out := make([]*SystemHandle, 0, len(s.systems))
	for _, h := range s.systems {
		if !h.removed {
			out = append(out, h)
		}
	}
	return out
}

// Once executes every enabled system once against the given time. The first
// failing system aborts the frame: its error is returned and the frame's pending
// commands are dropped. On success the commands are flushed and the storage is
// maintained.
func (s *Scheduler) Once(t *clock.Time) error {
	frame := newUpdateFrame(t, s.storage)

	s.running = true
	defer s.settle()

	for _, h := range s.systems {
		if !h.Enabled() {
			continue
		}
		frame.System = h

		start := time.Now()
		err := h.execute(frame)
		h.stats.record(time.Since(start))

		if err != nil {
			frame.Commands.Reset()
			s.logger.Warn("frame aborted",
				zap.String("system", h.Name()),
				zap.Uint64("frame", frameNumber(t)),
				zap.Error(err))
			return fmt.Errorf("system %s: %w", h.Name(), err)
		}
	}
	frame.System = nil

	if err := frame.Commands.Flush(s.storage); err != nil {
		return fmt.Errorf("flush commands: %w", err)
	}
	s.storage.Maintain()
	return nil
}

func frameNumber(t *clock.Time) uint64 {
	if t == nil {
		return 0
	}
	return t.Frame()
}

// Run advances t from source and executes all systems at the given interval until
// the context is cancelled or a frame fails and the frame error handler (if any)
// does not absorb the failure.
func (s *Scheduler) Run(ctx context.Context, interval time.Duration, t *clock.Time, source clock.Source) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			t.Update(source.NowMilliseconds())
			if err := s.Once(t); err != nil {
				if s.onFrameError == nil {
					return err
				}
				if err = s.onFrameError(err); err != nil {
					return err
				}
			}
		}
	}
}

// GetStats returns statistics about system execution.
func (s *Scheduler) GetStats() *SchedulerStats {
	systems := s.Systems()
	stats := &SchedulerStats{
		SystemCount: len(systems),
		Systems:     make([]SystemStats, len(systems)),
	}

	var totalExecs int64
	for i, h := range systems {
		internal := h.stats
		avgDuration := time.Duration(0)
		if internal.executionCount > 0 {
			avgDuration = internal.totalDuration / time.Duration(internal.executionCount)
		}

		stats.Systems[i] = SystemStats{
			Name:           h.Name(),
			Priority:       h.Priority(),
			Enabled:        h.Enabled(),
			ExecutionCount: internal.executionCount,
			MinDuration:    internal.minDuration,
			MaxDuration:    internal.maxDuration,
			AvgDuration:    avgDuration,
			LastDuration:   internal.lastDuration,
			TotalDuration:  internal.totalDuration,
		}
		totalExecs += internal.executionCount
	}

	stats.TotalExecutions = totalExecs
	return stats
}
