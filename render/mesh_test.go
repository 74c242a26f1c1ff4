package render

import (
	"math"
	"testing"

	"github.com/phanxgames/photosphere"
)

func approxEqual(a, b, eps float64) bool {
	return math.Abs(a-b) <= eps
}

func TestNewSphereCounts(t *testing.T) {
	tests := []struct {
		segments, rings int
		wantVerts       int
		wantTris        int
	}{
		{8, 4, 9 * 5, 8 * 4 * 2},
		{200, 100, 201 * 101, 200 * 100 * 2},
		{1, 2, 4 * 4, 3 * 3 * 2},
	}
	for _, tt := range tests {
		s := NewSphere(tt.segments, tt.rings)
		if s.VertexCount() != tt.wantVerts || s.TriangleCount() != tt.wantTris {
			t.Errorf("NewSphere(%d, %d) = %d verts %d tris, want %d %d",
				tt.segments, tt.rings, s.VertexCount(), s.TriangleCount(), tt.wantVerts, tt.wantTris)
		}
		for _, i := range s.indices {
			if int(i) >= s.VertexCount() {
				t.Fatalf("index %d out of range", i)
			}
		}
	}
}

func TestSphereTextureCoordinates(t *testing.T) {
	s := NewSphere(8, 4)
	s.SetTextureSize(2000, 1000)

	first := s.verts[0]
	last := s.verts[len(s.verts)-1]
	if first.SrcX != 0 || first.SrcY != 0 {
		t.Errorf("first vertex src = (%v, %v)", first.SrcX, first.SrcY)
	}
	if last.SrcX != 2000 || last.SrcY != 1000 {
		t.Errorf("last vertex src = (%v, %v)", last.SrcX, last.SrcY)
	}
	if v := s.verts[20]; v.SrcX != 500 || v.SrcY != 500 {
		t.Errorf("vertex 20 src = (%v, %v), want (500, 500)", v.SrcX, v.SrcY)
	}
}

func TestSphereProjectCenter(t *testing.T) {
	s := NewSphere(8, 4)
	view := photosphere.CameraView{Fov: 90, Aspect: 800.0 / 600.0}
	viewport := photosphere.Rect{Width: 800, Height: 600}

	verts, inds := s.Project(view, viewport)
	// Column 2 of 8, row 2 of 4 is texture (0.25, 0.5): straight ahead.
	c := verts[2*9+2]
	if !approxEqual(float64(c.DstX), 400, 1e-3) || !approxEqual(float64(c.DstY), 300, 1e-3) {
		t.Errorf("center vertex at (%v, %v), want (400, 300)", c.DstX, c.DstY)
	}

	if len(inds) == 0 || len(inds) >= len(s.indices) {
		t.Errorf("%d of %d indices kept, want the front half", len(inds), len(s.indices))
	}
	if len(inds)%3 != 0 {
		t.Errorf("index count %d is not a multiple of 3", len(inds))
	}
	for _, i := range inds {
		if !s.front[i] {
			t.Fatalf("vertex %d behind the eye was kept", i)
		}
	}
}

func TestSphereProjectMatchesRaycast(t *testing.T) {
	s := NewSphere(16, 8)
	s.SetTextureSize(1600, 800)
	view := photosphere.CameraView{Longitude: 0.7, Latitude: 0.2, Fov: 75, Aspect: 1}
	viewport := photosphere.Rect{Width: 600, Height: 600}
	verts, _ := s.Project(view, viewport)
	rc := photosphere.NewRaycaster()

	for i, v := range verts {
		if !s.front[i] || v.DstX < 0 || v.DstX > 600 || v.DstY < 0 || v.DstY > 600 {
			continue
		}
		hit, err := rc.CastPixel(view, float64(v.DstX), float64(v.DstY), viewport)
		if err != nil {
			t.Fatalf("vertex %d: %v", i, err)
		}
		px := hit.TexturePixel(1600, 800)
		dx := math.Mod(math.Abs(px.X-float64(v.SrcX)), 1600)
		if min(dx, 1600-dx) > 0.5 || !approxEqual(px.Y, float64(v.SrcY), 0.5) {
			t.Errorf("vertex %d: raycast texel (%v, %v), mesh texel (%v, %v)",
				i, px.X, px.Y, v.SrcX, v.SrcY)
		}
	}
}
