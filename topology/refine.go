package topology

import (
	"github.com/chewxy/math32"
)

// refineGrid inspects every triangulation edge and emits one new seed at
// the midpoint of each edge whose endpoints disagree, either through
// different combined forward/backward labels (when enabled) or a distance
// jump above the threshold, provided the edge is still longer than the
// refinement threshold. The length floor guarantees that refinement terminates. New
// seeds enter the particle set in round-zero state. Returns the number of
// seeds added.
func (c *Computation) refineGrid(opts StartOptions) int {
	// Guard against re-emitting a midpoint that coincides with an
	// existing vertex or with the midpoint of another flagged edge.
	seen := make(map[[2]float32]bool, c.domain.Len())
	for i := 0; i+1 < len(c.seeds); i += 2 {
		seen[[2]float32{c.seeds[i], c.seeds[i+1]}] = true
	}

	var added []float32

	for _, e := range c.domain.Edges() {
		ax, ay := c.domain.Vertex(e.A)
		bx, by := c.domain.Vertex(e.B)

		if math32.Hypot(ax-bx, ay-by) <= opts.RefinementThreshold {
			continue
		}
		if !c.edgeNeedsRefinement(int(e.A), int(e.B), opts) {
			continue
		}

		mid := [2]float32{0.5 * (ax + bx), 0.5 * (ay + by)}
		if seen[mid] {
			continue
		}
		seen[mid] = true
		added = append(added, mid[0], mid[1])
	}

	for i := 0; i+1 < len(added); i += 2 {
		c.fwd.Append(added[i], added[i+1])
		c.bwd.Append(added[i], added[i+1])
	}
	c.seeds = append(c.seeds, added...)
	c.domain.Insert(added)

	return len(added) / 2
}

func (c *Computation) edgeNeedsRefinement(a, b int, opts StartOptions) bool {
	if opts.RefineAtLabels &&
		(c.fwd.Labels[a] != c.fwd.Labels[b] || c.bwd.Labels[a] != c.bwd.Labels[b]) {
		return true
	}

	// Unresolved endpoints carry an infinite distance; a finite/infinite
	// pair exceeds any threshold, an infinite/infinite pair compares as
	// NaN and never refines.
	return math32.Abs(c.fwd.Dists[a]-c.fwd.Dists[b]) > opts.DistanceDifferenceThreshold ||
		math32.Abs(c.bwd.Dists[a]-c.bwd.Dists[b]) > opts.DistanceDifferenceThreshold
}
