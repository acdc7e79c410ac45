// Package clock tracks frame time for a game loop: the last frame delta, a scaled
// simulation time and an empirical frames-per-second count over a trailing window.
//
// Timestamps passed to Update are milliseconds measured from process start (the way
// a browser's performance.now or Source implementations in this package report them).
// A Time that has never been updated treats the previous timestamp as zero, so the
// first delta equals the first timestamp. Use NewAt to seed the previous timestamp
// when feeding relative timestamps.
package clock

import "time"

// fpsWindow is the trailing window used for the FPS count, in milliseconds.
const fpsWindow = 1000.0

// Time is the per-loop time state. It is not safe for concurrent use; the driving
// loop mutates it once per frame and systems read it.
type Time struct {
	timeMs      float64
	deltaMs     float64
	rawDeltaMs  float64
	previousRaw float64
	timeScale   float64
	frame       uint64

	// frames holds the retained timestamps; frames[head:] is live.
	frames []float64
	head   int
}

// New creates a Time with a time scale of 1.
func New() *Time {
	return &Time{timeScale: 1}
}

// NewAt creates a Time whose previous timestamp is startMs, so that the first
// Update computes its delta relative to startMs instead of zero.
func NewAt(startMs float64) *Time {
	t := New()
	t.previousRaw = startMs
	return t
}

// Update advances the clock to nowMs. It must be called exactly once per frame
// with a non-decreasing timestamp; a timestamp older than the newest one seen
// yields a zero delta and does not move the clock back.
func (t *Time) Update(nowMs float64) {
	raw := nowMs - t.previousRaw
	if raw < 0 {
		raw = 0
	} else {
		t.previousRaw = nowMs
	}
	t.rawDeltaMs = raw
	t.deltaMs = raw * t.timeScale
	t.timeMs += t.deltaMs
	t.frame++

	// The window stays sorted: a stale timestamp counts at the newest one seen.
	latest := t.previousRaw
	t.frames = append(t.frames, latest)
	for t.head < len(t.frames) && latest-t.frames[t.head] > fpsWindow {
		t.head++
	}

	// Reclaim the evicted prefix once it dominates the backing array.
	if t.head > 64 && t.head*2 > len(t.frames) {
		n := copy(t.frames, t.frames[t.head:])
		t.frames = t.frames[:n]
		t.head = 0
	}
}

// FPS returns the number of frames observed in the trailing one second window.
func (t *Time) FPS() int {
	return len(t.frames) - t.head
}

// TimeScale returns the multiplier applied to raw deltas.
func (t *Time) TimeScale() float64 {
	return t.timeScale
}

// SetTimeScale sets the multiplier applied by the next Update. Past deltas are
// not rescaled.
func (t *Time) SetTimeScale(scale float64) {
	t.timeScale = scale
}

// DeltaTimeInMilliseconds returns the scaled delta of the last frame.
func (t *Time) DeltaTimeInMilliseconds() float64 {
	return t.deltaMs
}

// DeltaTimeInSeconds returns the scaled delta of the last frame in seconds.
func (t *Time) DeltaTimeInSeconds() float64 {
	return t.deltaMs / 1000
}

// RawDeltaTimeInMilliseconds returns the unscaled delta of the last frame.
func (t *Time) RawDeltaTimeInMilliseconds() float64 {
	return t.rawDeltaMs
}

// TimeInMilliseconds returns the accumulated scaled time.
func (t *Time) TimeInMilliseconds() float64 {
	return t.timeMs
}

// TimeInSeconds returns the accumulated scaled time in seconds.
func (t *Time) TimeInSeconds() float64 {
	return t.timeMs / 1000
}

// Frame returns the number of Update calls so far.
func (t *Time) Frame() uint64 {
	return t.frame
}

// Source reports the current timestamp in milliseconds.
type Source interface {
	NowMilliseconds() float64
}

// Wall is a Source backed by the monotonic wall clock, measured from its creation.
type Wall struct {
	start time.Time
}

// NewWall creates a Wall source starting at zero now.
func NewWall() *Wall {
	return &Wall{start: time.Now()}
}

// NowMilliseconds returns milliseconds elapsed since the Wall was created.
func (w *Wall) NowMilliseconds() float64 {
	return float64(time.Since(w.start)) / float64(time.Millisecond)
}

// Manual is a Source whose time only moves when told to. Useful in tests and for
// fixed-step replays.
type Manual struct {
	Now float64
}

// NowMilliseconds returns the current manual timestamp.
func (m *Manual) NowMilliseconds() float64 {
	return m.Now
}

// Advance moves the manual clock forward by ms.
func (m *Manual) Advance(ms float64) {
	m.Now += ms
}
