package trajectory

import (
	"go.uber.org/atomic"
)

// Holder is the shared handle through which evaluators read the current
// target trajectory. The solver's reference-management layer swaps the
// trajectory between solves via Set; during a solve the held trajectory is
// read-only and may be read concurrently from any number of clones.
type Holder struct {
	current atomic.Pointer[Trajectory]
}

// NewHolder returns a holder initially pointing at the given trajectory.
func NewHolder(traj *Trajectory) *Holder {
	h := &Holder{}
	h.current.Store(traj)
	return h
}

// Get returns the current target trajectory.
func (h *Holder) Get() *Trajectory {
	return h.current.Load()
}

// Set replaces the target trajectory. Only to be called between solves.
func (h *Holder) Set(traj *Trajectory) {
	h.current.Store(traj)
}
