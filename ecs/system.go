package ecs

// Priority orders systems within a frame; lower runs first. Systems with equal
// priority run in the order they were added.
type Priority int

// Default priority bands. Cross-cutting systems pin themselves just outside a band
// (for example PriorityEarly-1) without knowing the order of every other system.
const (
	PriorityEarly  Priority = 5000
	PriorityNormal Priority = 10000
	PriorityLate   Priority = 15000
)

// System is a unit of per-frame behavior bound to a query.
//
// Each frame an enabled system's query is evaluated, BeforeAll may filter or
// transform the rows, Run is called once per row in query order, and AfterAll runs
// once at the end. Every hook is optional. Returning ErrSkipRemaining from Run stops
// the iteration for this frame; any other error aborts the frame.
type System struct {
	Name     string
	Query    []Kind
	Priority Priority
	// Disabled systems are registered but skipped until enabled.
	Disabled bool

	BeforeAll func(frame *UpdateFrame, rows []Row) ([]Row, error)
	Run       func(frame *UpdateFrame, row Row) error
	AfterAll  func(frame *UpdateFrame) error
}

func (s System) priority() Priority {
	if s.Priority == 0 {
		return PriorityNormal
	}
	return s.Priority
}
