package field

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNearestPoint(t *testing.T) {
	f := uniformField(4, 4, [4]float32{0, 0, 1, 1}, 1, 0)
	s := Structures{
		Points:   []float32{0, 0, 1, 1},
		PointIDs: []int32{3, 8},
	}
	c, err := NewContext(f, s, 1e-6)
	assert.NoError(t, err)

	label, dist := c.Nearest(0.1, 0)
	assert.Equal(t, int32(3), label)
	assert.InDelta(t, 0.1, dist, 1e-6)

	label, dist = c.Nearest(0.9, 1)
	assert.Equal(t, int32(8), label)
	assert.InDelta(t, 0.1, dist, 1e-6)
}

func TestNearestSegment(t *testing.T) {
	f := uniformField(4, 4, [4]float32{0, 0, 1, 1}, 1, 0)
	s := Structures{
		Points:   []float32{1, 1},
		PointIDs: []int32{4},
		Lines:    []float32{0, 0, 0, 1},
		LineIDs:  []int32{7},
	}
	c, err := NewContext(f, s, 1e-6)
	assert.NoError(t, err)

	// Projection onto the interior of the segment.
	label, dist := c.Nearest(0.2, 0.5)
	assert.Equal(t, int32(7), label)
	assert.InDelta(t, 0.2, dist, 1e-6)

	// Beyond the endpoint the distance is to the endpoint itself.
	label, dist = c.Nearest(0, -0.3)
	assert.Equal(t, int32(7), label)
	assert.InDelta(t, 0.3, dist, 1e-6)

	// The point structure wins where it is closer.
	label, _ = c.Nearest(0.95, 0.95)
	assert.Equal(t, int32(4), label)
}

func TestDegenerateSegmentIsAPoint(t *testing.T) {
	assert.InDelta(t, 5.0, float64(segmentDist(3, 4, 0, 0, 0, 0)), 1e-6)
}
