package advect

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/flowvis/gotopo/field"
	"github.com/flowvis/gotopo/integrate"
)

func testContext(t *testing.T) *field.Context {
	nx, ny := 17, 17
	vs := make([]float32, 0, 2*nx*ny)
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			x := float32(i) / float32(nx-1)
			y := float32(j) / float32(ny-1)
			vs = append(vs, 1-y, x*x)
		}
	}
	f := field.Field{Nx: nx, Ny: ny, Bounds: [4]float32{0, 0, 1, 1}, Vectors: vs}
	s := field.Structures{
		Points:   []float32{0.8, 0.8},
		PointIDs: []int32{2},
		Lines:    []float32{0, 0, 1, 0},
		LineIDs:  []int32{5},
	}
	c, err := field.NewContext(f, s, 1e-5)
	assert.NoError(t, err)
	return c
}

func seedGrid(n int) []float32 {
	seeds := make([]float32, 0, 2*n*n)
	for j := 0; j < n; j++ {
		for i := 0; i < n; i++ {
			seeds = append(seeds,
				float32(i)/float32(n-1), float32(j)/float32(n-1))
		}
	}
	return seeds
}

func TestDispatchRejectsBadBatchSize(t *testing.T) {
	c := testContext(t)
	ps := NewParticles(seedGrid(4))
	err := Dispatch(CPU{}, c, ps, 10, 0, integrate.Forward,
		integrate.Params{Method: integrate.RK4, Timestep: 0.1})
	assert.Error(t, err)
}

func TestBatchSizeInvariance(t *testing.T) {
	p := integrate.Params{Method: integrate.RK45, Timestep: 0.1}

	for _, dir := range []integrate.Direction{integrate.Forward, integrate.Backward} {
		c := testContext(t)

		small := NewParticles(seedGrid(12))
		big := NewParticles(seedGrid(12))

		assert.NoError(t, Dispatch(CPU{}, c, small, 50, 7, dir, p))
		assert.NoError(t, Dispatch(CPU{}, c, big, 50, 10000, dir, p))

		assert.Equal(t, big.Pos, small.Pos, fmt.Sprintf("positions, dir %d", dir))
		assert.Equal(t, big.Labels, small.Labels)
		assert.Equal(t, big.Dists, small.Dists)
		assert.Equal(t, big.Terms, small.Terms)
	}
}

func TestWorkerCountInvariance(t *testing.T) {
	p := integrate.Params{Method: integrate.RK4, Timestep: 0.1}

	c := testContext(t)
	one := NewParticles(seedGrid(9))
	many := NewParticles(seedGrid(9))

	defer func(n int) { NumCores = n }(NumCores)

	NumCores = 1
	assert.NoError(t, Dispatch(CPU{}, c, one, 30, 1000, integrate.Forward, p))
	NumCores = 8
	assert.NoError(t, Dispatch(CPU{}, c, many, 30, 1000, integrate.Forward, p))

	assert.Equal(t, one.Pos, many.Pos)
	assert.Equal(t, one.Terms, many.Terms)
}

func TestTerminatedParticlesStayPut(t *testing.T) {
	c := testContext(t)
	ps := NewParticles(seedGrid(3))

	ps.Terms[4] = integrate.ExitedDomain
	x, y := ps.Pos[8], ps.Pos[9]

	assert.NoError(t, Dispatch(CPU{}, c, ps, 20, 4, integrate.Forward,
		integrate.Params{Method: integrate.RK4, Timestep: 0.1}))

	assert.Equal(t, x, ps.Pos[8])
	assert.Equal(t, y, ps.Pos[9])
	assert.Equal(t, integrate.ExitedDomain, ps.Terms[4])
}

func TestAppendStartsUnresolved(t *testing.T) {
	ps := NewParticles(seedGrid(2))
	ps.Terms[0] = integrate.Stagnated

	ps.Append(0.5, 0.5)

	assert.Equal(t, 5, ps.Len())
	assert.Equal(t, 3, ps.Active())
	assert.Equal(t, integrate.Unresolved, ps.Labels[4])
	assert.True(t, ps.Dists[4] > 1e30)
	assert.Equal(t, integrate.Active, ps.Terms[4])
}

func BenchmarkDispatchRK4(b *testing.B) {
	nx, ny := 17, 17
	vs := make([]float32, 2*nx*ny)
	for i := 0; i < len(vs); i += 2 {
		vs[i] = 1
	}
	f := field.Field{Nx: nx, Ny: ny, Bounds: [4]float32{0, 0, 1, 1}, Vectors: vs}
	c, _ := field.NewContext(f, field.Structures{
		Points: []float32{1, 0.5}, PointIDs: []int32{1},
	}, 1e-5)

	p := integrate.Params{Method: integrate.RK4, Timestep: 0.1}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ps := NewParticles(seedGrid(32))
		Dispatch(CPU{}, c, ps, 100, 256, integrate.Forward, p)
	}
}
