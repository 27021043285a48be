package topology

import (
	"github.com/flowvis/gotopo/integrate"
)

// State captures the integration parameters in effect and the progress
// made, so that a computation can be reconstructed from a Result.
type State struct {
	Method            integrate.Method
	Timestep          float32
	MaxError          float32
	FinalPositionOnly bool
	StepsPerformed    int
}

// Result is an immutable, self-contained snapshot of a computation at a
// round boundary. Vertices are the seed positions and index into every
// per-vertex slice; Indices is the triangle list of the refined domain.
// A Result is sufficient to resume the computation it was taken from.
type Result struct {
	Vertices []float32
	Indices  []int32

	PositionsForward  []float32
	PositionsBackward []float32

	LabelsForward  []int32
	LabelsBackward []int32

	DistancesForward  []float32
	DistancesBackward []float32

	TerminationsForward  []integrate.Termination
	TerminationsBackward []integrate.Termination

	Finished bool
	State    State
}

// Len returns the number of vertices in the snapshot.
func (r *Result) Len() int { return len(r.Vertices) / 2 }
