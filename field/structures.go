package field

import (
	"github.com/chewxy/math32"
)

// Nearest returns the label of the convergence structure closest to the
// given position and the exact distance to it. Points use the Euclidean
// distance, line segments the point-to-segment distance. When no structure
// is closer than +Inf the label is -1.
func (c *Context) Nearest(x, y float32) (label int32, dist float32) {
	label, dist = int32(-1), math32.Inf(1)

	for i := range c.pointIDs {
		d := math32.Hypot(x-c.points[2*i], y-c.points[2*i+1])
		if d < dist {
			dist, label = d, c.pointIDs[i]
		}
	}

	for i := range c.lineIDs {
		d := segmentDist(x, y,
			c.lines[4*i], c.lines[4*i+1], c.lines[4*i+2], c.lines[4*i+3])
		if d < dist {
			dist, label = d, c.lineIDs[i]
		}
	}

	return label, dist
}

func segmentDist(px, py, x0, y0, x1, y1 float32) float32 {
	dx, dy := x1-x0, y1-y0
	l2 := dx*dx + dy*dy
	if l2 == 0 {
		return math32.Hypot(px-x0, py-y0)
	}

	t := clamp(((px-x0)*dx+(py-y0)*dy)/l2, 0, 1)
	return math32.Hypot(px-(x0+t*dx), py-(y0+t*dy))
}
