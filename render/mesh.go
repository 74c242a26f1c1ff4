package render

import (
	"github.com/hajimehoshi/ebiten/v2"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/phanxgames/photosphere"
)

// Sphere is the panorama mesh: (segments+1) × (rings+1) vertices laid out
// on the texture grid, two triangles per cell. The seam column is
// duplicated so that texture coordinates never wrap inside a triangle.
type Sphere struct {
	segments int
	rings    int

	points  []r3.Vec
	verts   []ebiten.Vertex // SrcX/SrcY filled, DstX/DstY rewritten per frame
	indices []uint32

	// Per-frame scratch, grown to the high-water mark and never shrunk.
	front []bool
	out   []uint32
}

// NewSphere builds the mesh with the given subdivisions. Values below 3 are
// raised to 3.
func NewSphere(segments, rings int) *Sphere {
	segments = max(segments, 3)
	rings = max(rings, 3)
	rc := photosphere.NewRaycaster()

	cols := segments + 1
	n := cols * (rings + 1)
	s := &Sphere{
		segments: segments,
		rings:    rings,
		points:   make([]r3.Vec, 0, n),
		verts:    make([]ebiten.Vertex, n),
		indices:  make([]uint32, 0, segments*rings*6),
		front:    make([]bool, n),
	}

	for i := 0; i <= rings; i++ {
		v := float64(i) / float64(rings)
		for j := 0; j <= segments; j++ {
			u := float64(j) / float64(segments)
			s.points = append(s.points, rc.TexturePoint(u, v))
		}
	}
	for i := range s.verts {
		s.verts[i].ColorR = 1
		s.verts[i].ColorG = 1
		s.verts[i].ColorB = 1
		s.verts[i].ColorA = 1
	}

	for i := 0; i < rings; i++ {
		for j := 0; j < segments; j++ {
			a := uint32(i*cols + j)
			b := a + 1
			c := a + uint32(cols)
			d := c + 1
			s.indices = append(s.indices, a, c, b, b, c, d)
		}
	}
	return s
}

// Segments returns the number of horizontal subdivisions.
func (s *Sphere) Segments() int { return s.segments }

// Rings returns the number of vertical subdivisions.
func (s *Sphere) Rings() int { return s.rings }

// VertexCount returns the number of mesh vertices.
func (s *Sphere) VertexCount() int { return len(s.points) }

// TriangleCount returns the number of mesh triangles.
func (s *Sphere) TriangleCount() int { return len(s.indices) / 3 }

// SetTextureSize maps the texture grid onto a w×h image.
func (s *Sphere) SetTextureSize(w, h int) {
	cols := s.segments + 1
	for i := 0; i <= s.rings; i++ {
		v := float32(i) / float32(s.rings)
		for j := 0; j <= s.segments; j++ {
			u := float32(j) / float32(s.segments)
			vert := &s.verts[i*cols+j]
			vert.SrcX = u * float32(w)
			vert.SrcY = v * float32(h)
		}
	}
}

// Project writes the screen position of every vertex for view inside
// viewport and returns the vertices with the indices of the triangles that
// lie entirely in front of the eye. The returned slices are reused by the
// next call.
func (s *Sphere) Project(view photosphere.CameraView, viewport photosphere.Rect) ([]ebiten.Vertex, []uint32) {
	for i, p := range s.points {
		ndcX, ndcY, ok := view.Project(p)
		s.front[i] = ok
		if !ok {
			continue
		}
		px, py := photosphere.Pixel(ndcX, ndcY, viewport)
		s.verts[i].DstX = float32(px)
		s.verts[i].DstY = float32(py)
	}

	s.out = s.out[:0]
	for t := 0; t < len(s.indices); t += 3 {
		a, b, c := s.indices[t], s.indices[t+1], s.indices[t+2]
		if s.front[a] && s.front[b] && s.front[c] {
			s.out = append(s.out, a, b, c)
		}
	}
	return s.verts, s.out
}

// Draw projects the mesh for view and draws it onto dst with img as the
// texture. viewport is expressed in dst coordinates.
func (s *Sphere) Draw(dst, img *ebiten.Image, view photosphere.CameraView, viewport photosphere.Rect) {
	verts, inds := s.Project(view, viewport)
	if len(inds) == 0 {
		return
	}
	var op ebiten.DrawTrianglesOptions
	op.Filter = ebiten.FilterLinear
	dst.DrawTriangles32(verts, inds, img, &op)
}
