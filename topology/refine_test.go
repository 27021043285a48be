package topology

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/flowvis/gotopo/integrate"
)

func triangleComputation(t *testing.T) *Computation {
	c, err := New(nil, nil, uniformField(1, 0),
		[]float32{0, 0, 1, 0, 0, 1}, onePoint(1, 0.5, 7), rk4Params())
	assert.NoError(t, err)
	return c
}

func TestRefineAtLabelDisagreement(t *testing.T) {
	c := triangleComputation(t)

	// Vertex 0 ended up at a different structure than vertices 1 and 2;
	// distances agree so only the label criterion fires.
	c.fwd.Labels = []int32{1, 2, 2}
	c.bwd.Labels = []int32{3, 3, 3}
	c.fwd.Dists = []float32{0, 0, 0}
	c.bwd.Dists = []float32{0, 0, 0}

	opts := defaultOptions()
	opts.RefinementThreshold = 0.1
	opts.DistanceDifferenceThreshold = 1e9

	added := c.refineGrid(opts)
	assert.Equal(t, 2, added, "one midpoint per disagreeing edge")

	verts := c.seeds
	assert.Equal(t, 10, len(verts))

	mids := map[[2]float32]bool{
		{verts[6], verts[7]}: true,
		{verts[8], verts[9]}: true,
	}
	assert.True(t, mids[[2]float32{0.5, 0}], "midpoint of edge 0-1")
	assert.True(t, mids[[2]float32{0, 0.5}], "midpoint of edge 0-2")

	// The new seeds are in round-zero state in both directions.
	assert.Equal(t, integrate.Unresolved, c.fwd.Labels[3])
	assert.Equal(t, integrate.Unresolved, c.bwd.Labels[4])
	assert.Equal(t, integrate.Active, c.fwd.Terms[3])
}

func TestRefineAtDistanceGradient(t *testing.T) {
	c := triangleComputation(t)

	c.fwd.Labels = []int32{5, 5, 5}
	c.bwd.Labels = []int32{5, 5, 5}
	c.fwd.Dists = []float32{0, 0.3, 0}
	c.bwd.Dists = []float32{0, 0, 0}

	opts := defaultOptions()
	opts.RefinementThreshold = 0.1
	opts.RefineAtLabels = true // labels agree, must not fire
	opts.DistanceDifferenceThreshold = 0.2

	added := c.refineGrid(opts)
	assert.Equal(t, 2, added, "edges 0-1 and 1-2 jump by 0.3")
}

func TestRefinementRespectsEdgeLengthFloor(t *testing.T) {
	c := triangleComputation(t)

	c.fwd.Labels = []int32{1, 2, 3}
	c.fwd.Dists = []float32{0, 0, 0}
	c.bwd.Dists = []float32{0, 0, 0}

	opts := defaultOptions()
	opts.RefinementThreshold = 2 // longer than every edge
	opts.DistanceDifferenceThreshold = 1e9

	assert.Equal(t, 0, c.refineGrid(opts), "edges at or below the floor never split")
}

func TestUnresolvedPairsDoNotRefineOnDistance(t *testing.T) {
	c := triangleComputation(t)

	// Fresh seeds carry +Inf distances; Inf-Inf compares as NaN and must
	// not trigger the gradient criterion.
	opts := defaultOptions()
	opts.RefineAtLabels = false
	opts.RefinementThreshold = 0.1
	opts.DistanceDifferenceThreshold = 0.1

	assert.Equal(t, 0, c.refineGrid(opts))
}

func TestPathologicalFieldRefinementTerminates(t *testing.T) {
	// A tiny distance threshold flags essentially every edge, so only
	// the edge-length floor keeps refinement finite. The run must end by
	// exhausting its step budget, never by looping forever.
	f := uniformField(1, 0)
	seeds := f.Nodes()

	c, err := New(nil, nil, f, seeds, onePoint(1, 0.5, 7), rk4Params())
	assert.NoError(t, err)

	opts := StartOptions{
		TotalSteps:                  500,
		RefinementThreshold:         0.06,
		RefineAtLabels:              true,
		DistanceDifferenceThreshold: 1e-9,
		ParticlesPerBatch:           10000,
		StepsPerBatch:               100,
	}
	assert.NoError(t, c.Start(opts))
	r := finalResult(t, c)

	assert.True(t, r.Finished)
	assert.True(t, r.State.StepsPerformed <= 500)
	assert.True(t, r.State.StepsPerformed > 0)

	// 11x11 nodes with a 0.06 floor on a 0.1-pitch grid: each original
	// edge splits at most once, so the vertex count stays far below the
	// worst case of unchecked refinement.
	assert.True(t, r.Len() > len(seeds)/2, "refinement must have added seeds")
	assert.True(t, r.Len() < 4000, "edge-length floor bounds refinement")
}
