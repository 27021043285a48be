/*package field stores an immutable 2D vector field, the convergence
structures embedded in it, and the precomputed constants needed to advect
particles through it.
*/
package field

import (
	"fmt"

	"github.com/chewxy/math32"
)

// Field is a regular grid of 2D vectors over a rectangular domain. Node
// (i, j) lives at index 2*(j*Nx + i) in Vectors. The field is read-only for
// the lifetime of a computation.
type Field struct {
	Nx, Ny  int
	Bounds  [4]float32 // xmin, ymin, xmax, ymax
	Vectors []float32
}

// Structures holds the labeled convergence structures that terminate
// streamline search: points (2 floats each) and line segments (4 floats
// each), with parallel label slices.
type Structures struct {
	Points   []float32
	PointIDs []int32
	Lines    []float32
	LineIDs  []int32
}

func (f *Field) validate() error {
	if f.Nx < 2 || f.Ny < 2 {
		return fmt.Errorf("field: resolution %dx%d, need at least 2x2", f.Nx, f.Ny)
	}
	if f.Bounds[2] <= f.Bounds[0] || f.Bounds[3] <= f.Bounds[1] {
		return fmt.Errorf(
			"field: empty domain [%g, %g] x [%g, %g]",
			f.Bounds[0], f.Bounds[2], f.Bounds[1], f.Bounds[3],
		)
	}
	if len(f.Vectors) != 2*f.Nx*f.Ny {
		return fmt.Errorf(
			"field: %d vector components for %dx%d nodes, need %d",
			len(f.Vectors), f.Nx, f.Ny, 2*f.Nx*f.Ny,
		)
	}
	return nil
}

func (s *Structures) validate() error {
	if len(s.Points)%2 != 0 {
		return fmt.Errorf("field: %d point components, need a multiple of 2", len(s.Points))
	}
	if len(s.Lines)%4 != 0 {
		return fmt.Errorf("field: %d line components, need a multiple of 4", len(s.Lines))
	}
	if len(s.PointIDs) != len(s.Points)/2 {
		return fmt.Errorf(
			"field: %d point ids for %d points", len(s.PointIDs), len(s.Points)/2,
		)
	}
	if len(s.LineIDs) != len(s.Lines)/4 {
		return fmt.Errorf(
			"field: %d line ids for %d lines", len(s.LineIDs), len(s.Lines)/4,
		)
	}
	if len(s.PointIDs)+len(s.LineIDs) == 0 {
		return fmt.Errorf("field: no convergence structures given")
	}
	return nil
}

// Nodes returns the flattened domain positions of every grid node, in the
// same order as Vectors. These double as the initial seed positions of a
// computation.
func (f *Field) Nodes() []float32 {
	out := make([]float32, 0, 2*f.Nx*f.Ny)
	dx := (f.Bounds[2] - f.Bounds[0]) / float32(f.Nx-1)
	dy := (f.Bounds[3] - f.Bounds[1]) / float32(f.Ny-1)
	for j := 0; j < f.Ny; j++ {
		for i := 0; i < f.Nx; i++ {
			out = append(out, f.Bounds[0]+float32(i)*dx, f.Bounds[1]+float32(j)*dy)
		}
	}
	return out
}

func maxSpeed(vs []float32) float32 {
	max := float32(0)
	for i := 0; i < len(vs); i += 2 {
		speed := math32.Hypot(vs[i], vs[i+1])
		if speed > max {
			max = speed
		}
	}
	return max
}
