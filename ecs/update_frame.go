package ecs

import "github.com/plus3/kiln/clock"

// UpdateFrame is handed to every system hook during a frame.
type UpdateFrame struct {
	Time     *clock.Time
	Commands *Commands
	Storage  *Storage
	// System is the handle of the system currently executing; a system may disable
	// or remove itself through it.
	System *SystemHandle
}

func newUpdateFrame(t *clock.Time, storage *Storage) *UpdateFrame {
	return &UpdateFrame{
		Time:     t,
		Commands: newCommands(),
		Storage:  storage,
	}
}

// DeltaTime returns the scaled frame delta in seconds.
func (f *UpdateFrame) DeltaTime() float64 {
	if f.Time == nil {
		return 0
	}
	return f.Time.DeltaTimeInSeconds()
}
