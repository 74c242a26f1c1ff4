package render

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/phanxgames/photosphere"
)

var background = color.RGBA{A: 0xff}

// Renderer draws a viewer: the textured sphere, region outlines and, in
// stereo mode, one view per screen half.
type Renderer struct {
	// ScreenshotDir receives the files queued with Screenshot.
	ScreenshotDir string

	viewer  *photosphere.Viewer
	sphere  *Sphere
	texture *ebiten.Image
	gen     int

	eyes  [2]*ebiten.Image
	shots []string
}

// NewRenderer builds the sphere mesh from the viewer configuration.
func NewRenderer(v *photosphere.Viewer) *Renderer {
	cfg := v.Config()
	return &Renderer{
		ScreenshotDir: "screenshots",
		viewer:        v,
		sphere:        NewSphere(cfg.Segments, cfg.Rings),
	}
}

// Sphere returns the mesh.
func (r *Renderer) Sphere() *Sphere { return r.sphere }

// syncTexture uploads the viewer texture when it has changed.
func (r *Renderer) syncTexture() bool {
	tex := r.viewer.Texture()
	if tex == nil {
		return false
	}
	if r.texture == nil || r.gen != r.viewer.TextureGeneration() {
		if r.texture != nil {
			r.texture.Deallocate()
		}
		r.texture = ebiten.NewImageFromImage(tex.Image)
		r.gen = r.viewer.TextureGeneration()
		w, h := tex.Size()
		r.sphere.SetTextureSize(w, h)
	}
	return true
}

// Draw renders the current frame onto screen.
func (r *Renderer) Draw(screen *ebiten.Image) {
	screen.Fill(background)
	if !r.syncTexture() {
		r.flushScreenshots(screen)
		return
	}

	b := screen.Bounds()
	w, h := b.Dx(), b.Dy()
	if r.viewer.Controller().Stereo() {
		r.drawStereo(screen, w, h)
	} else {
		view := r.viewer.Camera().View(float64(w) / float64(h))
		r.drawView(screen, view, photosphere.Rect{Width: float64(w), Height: float64(h)})
	}
	r.flushScreenshots(screen)
}

func (r *Renderer) drawView(dst *ebiten.Image, view photosphere.CameraView, viewport photosphere.Rect) {
	r.sphere.Draw(dst, r.texture, view, viewport)
	drawBoxes(dst, r.viewer.Session(), view, viewport)
}

func (r *Renderer) drawStereo(screen *ebiten.Image, w, h int) {
	half := w / 2
	if half == 0 || h == 0 {
		return
	}
	view := r.viewer.Camera().View(float64(half) / float64(h))
	viewport := photosphere.Rect{Width: float64(half), Height: float64(h)}
	for i, eye := range EyeViews(view, r.viewer.EyesOffset()) {
		img := r.eye(i, half, h)
		img.Fill(background)
		r.drawView(img, eye, viewport)

		var op ebiten.DrawImageOptions
		op.GeoM.Translate(float64(i*half), 0)
		screen.DrawImage(img, &op)
	}
}

// eye returns the offscreen image of eye i, reallocated on resize.
func (r *Renderer) eye(i, w, h int) *ebiten.Image {
	img := r.eyes[i]
	if img != nil {
		if b := img.Bounds(); b.Dx() == w && b.Dy() == h {
			return img
		}
		img.Deallocate()
	}
	r.eyes[i] = ebiten.NewImage(w, h)
	return r.eyes[i]
}

// EyeViews returns the left and right eye views, shifted by ∓offset/2 along
// the camera's right axis.
func EyeViews(view photosphere.CameraView, offset float64) [2]photosphere.CameraView {
	_, right, _ := view.Basis()
	left, rightEye := view, view
	left.Eye = r3.Add(view.Eye, r3.Scale(-offset/2, right))
	rightEye.Eye = r3.Add(view.Eye, r3.Scale(offset/2, right))
	return [2]photosphere.CameraView{left, rightEye}
}
