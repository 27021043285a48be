package io

import (
	"fmt"

	"github.com/phil-mansfield/table"

	"github.com/flowvis/gotopo/field"
)

// ReadVectorField reads a sampled vector field from a two-column text
// table (vx vy), one grid node per row in row-major order.
func ReadVectorField(
	fname string, nx, ny int, bounds [4]float32,
) (field.Field, error) {
	cols, err := table.ReadTable(fname, []int{0, 1}, nil)
	if err != nil {
		return field.Field{}, err
	}

	vxs, vys := cols[0], cols[1]
	if len(vxs) != nx*ny {
		return field.Field{}, fmt.Errorf(
			"Field file '%s' has %d rows, but resolution %dx%d needs %d.",
			fname, len(vxs), nx, ny, nx*ny,
		)
	}

	vecs := make([]float32, 2*nx*ny)
	for i := range vxs {
		vecs[2*i] = float32(vxs[i])
		vecs[2*i+1] = float32(vys[i])
	}

	return field.Field{Nx: nx, Ny: ny, Bounds: bounds, Vectors: vecs}, nil
}

const (
	structurePoint = 0
	structureLine  = 1
)

// ReadStructures reads labeled convergence structures from a six-column
// text table (kind id x0 y0 x1 y1). kind 0 rows are points, kind 1 rows
// are line segments.
func ReadStructures(fname string) (field.Structures, error) {
	cols, err := table.ReadTable(fname, []int{0, 1, 2, 3, 4, 5}, nil)
	if err != nil {
		return field.Structures{}, err
	}

	kinds, ids := cols[0], cols[1]
	x0s, y0s, x1s, y1s := cols[2], cols[3], cols[4], cols[5]

	s := field.Structures{}
	for i := range kinds {
		switch int(kinds[i]) {
		case structurePoint:
			s.Points = append(s.Points, float32(x0s[i]), float32(y0s[i]))
			s.PointIDs = append(s.PointIDs, int32(ids[i]))
		case structureLine:
			s.Lines = append(s.Lines,
				float32(x0s[i]), float32(y0s[i]),
				float32(x1s[i]), float32(y1s[i]),
			)
			s.LineIDs = append(s.LineIDs, int32(ids[i]))
		default:
			return field.Structures{}, fmt.Errorf(
				"Row %d of structures file '%s' has kind %g, but only "+
					"0 (point) and 1 (line) are recognized.",
				i, fname, kinds[i],
			)
		}
	}

	return s, nil
}
