/*package advect partitions the live particle set into fixed-size batches
and hands them to a parallel advection backend. Particles are independent
of each other, so batch size controls memory footprint only and never the
result.
*/
package advect

import (
	"fmt"

	"github.com/chewxy/math32"

	"github.com/flowvis/gotopo/field"
	"github.com/flowvis/gotopo/integrate"
)

// Particles is the live struct-of-arrays state for one integration
// direction: positions (2 per particle), labels, distances and
// termination codes. It is mutated in place across rounds and only ever
// appended to.
type Particles struct {
	Pos    []float32
	Labels []int32
	Dists  []float32
	Terms  []integrate.Termination
}

// NewParticles returns round-zero particle state for the given seed
// positions (2 floats per seed).
func NewParticles(seeds []float32) *Particles {
	n := len(seeds) / 2
	ps := &Particles{
		Pos:    append([]float32(nil), seeds...),
		Labels: make([]int32, n),
		Dists:  make([]float32, n),
		Terms:  make([]integrate.Termination, n),
	}
	for i := 0; i < n; i++ {
		ps.Labels[i] = integrate.Unresolved
		ps.Dists[i] = math32.Inf(1)
	}
	return ps
}

// Len returns the number of particles.
func (ps *Particles) Len() int { return len(ps.Labels) }

// Append adds one seed in round-zero state: unresolved label, infinite
// distance, active.
func (ps *Particles) Append(x, y float32) {
	ps.Pos = append(ps.Pos, x, y)
	ps.Labels = append(ps.Labels, integrate.Unresolved)
	ps.Dists = append(ps.Dists, math32.Inf(1))
	ps.Terms = append(ps.Terms, integrate.Active)
}

// Active returns the number of particles that have not terminated.
func (ps *Particles) Active() int {
	n := 0
	for _, term := range ps.Terms {
		if term == integrate.Active {
			n++
		}
	}
	return n
}

// Batch is the transient buffer handed to a backend. Dispatch copies
// particle state in before the kernel runs and back out afterwards,
// mirroring a host/device transfer.
type Batch struct {
	Pos    []float32
	Labels []int32
	Dists  []float32
	Terms  []integrate.Termination
}

// Len returns the number of particles in the batch.
func (b *Batch) Len() int { return len(b.Labels) }

// Backend advects every particle of a batch independently for at most the
// given number of committed steps, skipping particles that have already
// terminated. Implementations must not introduce cross-particle
// dependencies. An error is fatal to the whole round.
type Backend interface {
	Advect(c *field.Context, b *Batch, steps int, dir integrate.Direction,
		p integrate.Params) error
}

// Dispatch processes the particles in consecutive chunks of at most
// batchSize, invoking the backend once per chunk. A backend failure aborts
// the round and propagates; nothing is retried.
func Dispatch(bk Backend, c *field.Context, ps *Particles, steps, batchSize int,
	dir integrate.Direction, p integrate.Params) error {

	if batchSize <= 0 {
		return fmt.Errorf("advect: batch size %d, must be positive", batchSize)
	}

	for lo := 0; lo < ps.Len(); lo += batchSize {
		hi := lo + batchSize
		if hi > ps.Len() {
			hi = ps.Len()
		}

		b := &Batch{
			Pos:    append([]float32(nil), ps.Pos[2*lo:2*hi]...),
			Labels: append([]int32(nil), ps.Labels[lo:hi]...),
			Dists:  append([]float32(nil), ps.Dists[lo:hi]...),
			Terms:  append([]integrate.Termination(nil), ps.Terms[lo:hi]...),
		}

		if err := bk.Advect(c, b, steps, dir, p); err != nil {
			return fmt.Errorf("advect: batch [%d, %d): %w", lo, hi, err)
		}

		copy(ps.Pos[2*lo:2*hi], b.Pos)
		copy(ps.Labels[lo:hi], b.Labels)
		copy(ps.Dists[lo:hi], b.Dists)
		copy(ps.Terms[lo:hi], b.Terms)
	}

	return nil
}
