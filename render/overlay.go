package render

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/phanxgames/photosphere"
)

// edgeSteps is the number of straight pieces per box edge. Edges follow the
// sphere surface, so a single segment would cut through it.
const edgeSteps = 16

var (
	regionColor  = color.RGBA{R: 0x30, G: 0xe0, B: 0x60, A: 0xff}
	previewColor = color.RGBA{R: 0xff, G: 0xd0, B: 0x20, A: 0xff}
)

// Segment is a screen-space line.
type Segment struct {
	X0, Y0, X1, Y1 float32
}

// OutlineSegments returns the screen lines that draw box for view. Pieces
// with an end behind the eye are skipped.
func OutlineSegments(view photosphere.CameraView, viewport photosphere.Rect, b photosphere.Box) []Segment {
	corners := b.Corners()
	var segs []Segment
	for i := range corners {
		a, c := corners[i], corners[(i+1)%len(corners)]
		radius := r3.Norm(a)
		if radius == 0 {
			continue
		}

		prevX, prevY, prevOK := projectPixel(view, viewport, a)
		for k := 1; k <= edgeSteps; k++ {
			p := c
			if k < edgeSteps {
				t := float64(k) / edgeSteps
				p = r3.Add(r3.Scale(1-t, a), r3.Scale(t, c))
				if n := r3.Norm(p); n > 0 {
					p = r3.Scale(radius/n, p)
				}
			}
			x, y, ok := projectPixel(view, viewport, p)
			if ok && prevOK {
				segs = append(segs, Segment{X0: prevX, Y0: prevY, X1: x, Y1: y})
			}
			prevX, prevY, prevOK = x, y, ok
		}
	}
	return segs
}

func projectPixel(view photosphere.CameraView, viewport photosphere.Rect, p r3.Vec) (float32, float32, bool) {
	ndcX, ndcY, ok := view.Project(p)
	if !ok {
		return 0, 0, false
	}
	x, y := photosphere.Pixel(ndcX, ndcY, viewport)
	return float32(x), float32(y), true
}

// drawBoxes strokes every stored region outline and the live preview.
func drawBoxes(dst *ebiten.Image, s *photosphere.Session, view photosphere.CameraView, viewport photosphere.Rect) {
	for _, b := range s.Outlines() {
		strokeSegments(dst, OutlineSegments(view, viewport, b), regionColor)
	}
	if b, ok := s.Preview(); ok {
		strokeSegments(dst, OutlineSegments(view, viewport, b), previewColor)
	}
}

func strokeSegments(dst *ebiten.Image, segs []Segment, clr color.Color) {
	for _, sg := range segs {
		vector.StrokeLine(dst, sg.X0, sg.Y0, sg.X1, sg.Y1, 2, clr, true)
	}
}
