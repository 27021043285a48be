/*package mesh maintains a 2D Delaunay triangulation over the particle seed
positions. Vertices are append-only; each insertion batch retriangulates,
so the triangulation is valid whenever the refinement engine inspects it.
*/
package mesh

import (
	"github.com/fogleman/delaunay"
)

// Mesh is a Delaunay triangulation whose vertices are exactly the seed
// positions, in insertion order.
type Mesh struct {
	points    []delaunay.Point
	triangles []int32
	halfedges []int32
}

// Edge is one unique triangulation edge between two vertex indices.
type Edge struct {
	A, B int32
}

// New returns an empty mesh.
func New() *Mesh {
	return &Mesh{}
}

// FromVertices builds a mesh from flattened seed positions (2 floats per
// vertex).
func FromVertices(verts []float32) *Mesh {
	m := New()
	m.Insert(verts)
	return m
}

// Insert appends a batch of vertices (2 floats each) and retriangulates.
// Degenerate vertex sets (fewer than three points, or all collinear) leave
// the mesh without triangles instead of failing, so sparse early rounds
// still run.
func (m *Mesh) Insert(verts []float32) {
	for i := 0; i+1 < len(verts); i += 2 {
		m.points = append(m.points, delaunay.Point{
			X: float64(verts[i]), Y: float64(verts[i+1]),
		})
	}

	m.triangles = m.triangles[:0]
	m.halfedges = m.halfedges[:0]

	if len(m.points) < 3 {
		return
	}

	t, err := delaunay.Triangulate(m.points)
	if err != nil {
		return
	}

	for _, idx := range t.Triangles {
		m.triangles = append(m.triangles, int32(idx))
	}
	for _, he := range t.Halfedges {
		m.halfedges = append(m.halfedges, int32(he))
	}
}

// Len returns the number of vertices.
func (m *Mesh) Len() int { return len(m.points) }

// Vertex returns the position of vertex i.
func (m *Mesh) Vertex(i int32) (x, y float32) {
	return float32(m.points[i].X), float32(m.points[i].Y)
}

// Vertices returns the flattened vertex positions (2 floats per vertex).
func (m *Mesh) Vertices() []float32 {
	out := make([]float32, 0, 2*len(m.points))
	for _, p := range m.points {
		out = append(out, float32(p.X), float32(p.Y))
	}
	return out
}

// Triangles returns the flattened triangle vertex indices (3 per
// triangle).
func (m *Mesh) Triangles() []int32 {
	return append([]int32(nil), m.triangles...)
}

// Edges returns every triangulation edge exactly once. Interior edges are
// shared by two triangles but reported a single time.
func (m *Mesh) Edges() []Edge {
	edges := make([]Edge, 0, len(m.triangles))
	for e := 0; e < len(m.triangles); e++ {
		// A halfedge owns its edge if its twin has a smaller index or
		// does not exist (hull edges).
		if int32(e) > m.halfedges[e] {
			edges = append(edges, Edge{
				A: m.triangles[e],
				B: m.triangles[next(e)],
			})
		}
	}
	return edges
}

// next steps to the following halfedge of the same triangle.
func next(e int) int {
	if e%3 == 2 {
		return e - 2
	}
	return e + 1
}
