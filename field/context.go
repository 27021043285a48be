package field

import (
	"github.com/chewxy/math32"
)

// Eps is the smallest speed treated as nonzero when normalizing
// integration errors.
const Eps = 1e-6

// Context bundles a vector field with every constant the integration
// kernels need: domain transforms, cell geometry, per-node step-size hints
// and the convergence structures. It is immutable after construction and
// passed explicitly to every kernel invocation.
type Context struct {
	nx, ny int

	offset    [2]float32 // domain minimum
	scale     [2]float32 // domain -> unit square
	gridScale [2]float32 // unit square -> grid coordinates

	cellSize  [2]float32
	cellDiag  float32
	timeScale float32
	maxError  float32

	vectors []float32
	hints   []float32

	points   []float32
	pointIDs []int32
	lines    []float32
	lineIDs  []int32
}

// NewContext validates the inputs and precomputes the constants. Errors
// here are input errors: the computation object is not usable.
func NewContext(f Field, s Structures, maxError float32) (*Context, error) {
	if err := f.validate(); err != nil {
		return nil, err
	}
	if err := s.validate(); err != nil {
		return nil, err
	}

	c := &Context{
		nx: f.Nx, ny: f.Ny,
		offset: [2]float32{f.Bounds[0], f.Bounds[1]},
		scale: [2]float32{
			1 / (f.Bounds[2] - f.Bounds[0]),
			1 / (f.Bounds[3] - f.Bounds[1]),
		},
		gridScale: [2]float32{float32(f.Nx - 1), float32(f.Ny - 1)},
		cellSize: [2]float32{
			(f.Bounds[2] - f.Bounds[0]) / float32(f.Nx-1),
			(f.Bounds[3] - f.Bounds[1]) / float32(f.Ny-1),
		},
		maxError: maxError,

		vectors: f.Vectors,

		points: s.Points, pointIDs: s.PointIDs,
		lines: s.Lines, lineIDs: s.LineIDs,
	}

	c.cellDiag = math32.Hypot(c.cellSize[0], c.cellSize[1])

	// The hint buffer is uniform for a regular grid, but kernels look it
	// up per node so that rectilinear grids only need a different
	// constructor.
	c.hints = make([]float32, f.Nx*f.Ny)
	for i := range c.hints {
		c.hints[i] = c.cellDiag
	}

	if max := maxSpeed(f.Vectors); max > Eps {
		c.timeScale = 1 / max
	} else {
		c.timeScale = 1
	}

	return c, nil
}

// PosToUnit maps a domain position onto the unit square. Positions inside
// the domain land in [0, 1]^2.
func (c *Context) PosToUnit(x, y float32) (u, v float32) {
	return (x - c.offset[0]) * c.scale[0], (y - c.offset[1]) * c.scale[1]
}

// PosToGrid maps a domain position onto continuous grid coordinates in
// [0, nx-1] x [0, ny-1], clamped to the grid.
func (c *Context) PosToGrid(x, y float32) (gx, gy float32) {
	u, v := c.PosToUnit(x, y)
	return clamp(u, 0, 1) * c.gridScale[0], clamp(v, 0, 1) * c.gridScale[1]
}

// Inside reports whether the position lies inside the domain.
func (c *Context) Inside(x, y float32) bool {
	u, v := c.PosToUnit(x, y)
	return u >= 0 && u <= 1 && v >= 0 && v <= 1
}

// Velocity bilinearly interpolates the vector field at a domain position
// and applies the global time scale, so the returned speed never exceeds
// one.
func (c *Context) Velocity(x, y float32) (vx, vy float32) {
	i0, j0, i1, j1, fx, fy := c.cell(x, y)

	v00x, v00y := c.node(i0, j0)
	v10x, v10y := c.node(i1, j0)
	v01x, v01y := c.node(i0, j1)
	v11x, v11y := c.node(i1, j1)

	vx = lerp(lerp(v00x, v10x, fx), lerp(v01x, v11x, fx), fy)
	vy = lerp(lerp(v00y, v10y, fx), lerp(v01y, v11y, fx), fy)
	return vx * c.timeScale, vy * c.timeScale
}

// Hint bilinearly interpolates the characteristic step-size hint at a
// domain position. It seeds the time step of the adaptive integrator and
// fixes the step scale of the non-adaptive one.
func (c *Context) Hint(x, y float32) float32 {
	i0, j0, i1, j1, fx, fy := c.cell(x, y)

	h00 := c.hints[j0*c.nx+i0]
	h10 := c.hints[j0*c.nx+i1]
	h01 := c.hints[j1*c.nx+i0]
	h11 := c.hints[j1*c.nx+i1]

	return lerp(lerp(h00, h10, fx), lerp(h01, h11, fx), fy)
}

// CellDiag returns the diagonal length of one grid cell in domain units.
func (c *Context) CellDiag() float32 { return c.cellDiag }

// MaxError returns the configured maximum integration error.
func (c *Context) MaxError() float32 { return c.maxError }

// TimeScale returns the global velocity normalization factor.
func (c *Context) TimeScale() float32 { return c.timeScale }

func (c *Context) cell(x, y float32) (i0, j0, i1, j1 int, fx, fy float32) {
	gx, gy := c.PosToGrid(x, y)

	i0 = int(gx)
	j0 = int(gy)
	if i0 > c.nx-2 {
		i0 = c.nx - 2
	}
	if j0 > c.ny-2 {
		j0 = c.ny - 2
	}

	return i0, j0, i0 + 1, j0 + 1, gx - float32(i0), gy - float32(j0)
}

func (c *Context) node(i, j int) (vx, vy float32) {
	idx := 2 * (j*c.nx + i)
	return c.vectors[idx], c.vectors[idx+1]
}

func lerp(a, b, t float32) float32 { return a + (b-a)*t }

func clamp(x, lo, hi float32) float32 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
