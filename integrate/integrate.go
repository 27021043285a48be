/*package integrate advects single particles through a vector field using
either a fixed-step 4th-order Runge-Kutta scheme or an adaptive Runge-Kutta
4-5 scheme with Cash-Karp coefficients. Every committed step classifies the
particle's fate against the field's convergence structures.
*/
package integrate

import (
	"github.com/chewxy/math32"

	"github.com/flowvis/gotopo/field"
)

// Method selects the integration scheme.
type Method int32

const (
	// RK4 is the fixed-step 4th-order Runge-Kutta scheme.
	RK4 Method = iota
	// RK45 is the adaptive Runge-Kutta 4-5 scheme with Cash-Karp
	// coefficients and embedded error estimation.
	RK45
)

// Direction gives the sign of the integration time step.
type Direction int32

const (
	Forward  Direction = +1
	Backward Direction = -1
)

// Termination encodes why a particle stopped advecting.
type Termination int32

const (
	// Active particles continue in the next round.
	Active Termination = iota
	// ExitedDomain particles left the domain rectangle.
	ExitedDomain
	// Stagnated particles stopped moving away from any structure.
	Stagnated
	// NearStructure particles stagnated within half a cell diagonal of a
	// convergence structure.
	NearStructure
)

// Unresolved is the label of a particle that has not yet come near any
// convergence structure.
const Unresolved int32 = -1

// maxRejections bounds the adaptive integrator's step-shrink retry loop.
// A particle that cannot push its error estimate below the threshold
// within this many rejections is classified as stagnated rather than
// stalling the rest of the batch.
const maxRejections = 25

// Params are the integration parameters fixed for the lifetime of a
// computation.
type Params struct {
	Method   Method
	Timestep float32
	// FinalPositionOnly defers the label/distance update to the end of
	// the batch instead of evaluating it after every committed step.
	FinalPositionOnly bool
}

// State is the mutable per-particle record: current position, the label
// and distance of the nearest convergence structure seen so far, and the
// reason for termination.
type State struct {
	X, Y  float32
	Label int32
	Dist  float32
	Term  Termination
}

// NewState returns the round-zero state of a seed particle.
func NewState(x, y float32) State {
	return State{X: x, Y: y, Label: Unresolved, Dist: math32.Inf(1), Term: Active}
}

// Advance advects one particle for at most the given number of committed
// steps, updating position, label, distance and termination in place.
// Terminated particles are left untouched.
func Advance(c *field.Context, s *State, steps int, dir Direction, p Params) {
	if s.Term != Active {
		return
	}

	h := c.Hint(s.X, s.Y) * p.Timestep

	for i := 0; i < steps; i++ {
		var nx, ny float32

		if p.Method == RK45 {
			var ok bool
			nx, ny, h, ok = stepRK45(c, s.X, s.Y, h, dir)
			if !ok {
				s.Term = Stagnated
				updateNearest(c, s)
				break
			}
		} else {
			nx, ny = stepRK4(c, s.X, s.Y, c.Hint(s.X, s.Y)*p.Timestep, dir)
		}

		if nx == s.X && ny == s.Y {
			updateNearest(c, s)
			// Classification uses the distance at the stagnation point,
			// not the monotone minimum seen along the way.
			if _, d := c.Nearest(s.X, s.Y); d <= 0.5*c.CellDiag() {
				s.Term = NearStructure
			} else {
				s.Term = Stagnated
			}
			break
		}

		s.X, s.Y = nx, ny

		if !p.FinalPositionOnly {
			updateNearest(c, s)
		}

		if !c.Inside(s.X, s.Y) {
			s.Term = ExitedDomain
			break
		}
	}

	if p.FinalPositionOnly {
		updateNearest(c, s)
	}
}

// updateNearest records the closest structure seen so far. The stored
// distance is monotone: it is only overwritten when the new distance is
// strictly smaller.
func updateNearest(c *field.Context, s *State) {
	if label, d := c.Nearest(s.X, s.Y); d < s.Dist {
		s.Dist, s.Label = d, label
	}
}

func vel(c *field.Context, x, y float32, dir Direction) (vx, vy float32) {
	vx, vy = c.Velocity(x, y)
	if dir == Backward {
		return -vx, -vy
	}
	return vx, vy
}
