package photosphere

import (
	"errors"
	"fmt"
	"image"
	"math"
)

// DefaultMaxTextureSize is the texture width ceiling used when the renderer
// does not report one.
const DefaultMaxTextureSize = 4096

// geomEpsilon absorbs float noise when checking crop placement.
const geomEpsilon = 1e-6

// ErrInvalidGeometry is returned when a panorama's size cannot be resolved
// into a usable texture canvas. It is fatal to the load pipeline.
var ErrInvalidGeometry = errors.New("photosphere: panorama geometry invalid")

// PanoramaGeometry places a (possibly cropped) image inside the full
// equirectangular canvas. All values are in source-pixel units.
type PanoramaGeometry struct {
	FullWidth     float64
	FullHeight    float64
	CroppedWidth  float64
	CroppedHeight float64
	CropX         float64
	CropY         float64
}

// CanvasSize returns the integer size of the texture canvas.
func (g PanoramaGeometry) CanvasSize() (w, h int) {
	return int(math.Round(g.FullWidth)), int(math.Round(g.FullHeight))
}

// CropRect returns the canvas rectangle the decoded image is painted into.
// Everything outside it stays transparent.
func (g PanoramaGeometry) CropRect() image.Rectangle {
	x0 := int(math.Round(g.CropX))
	y0 := int(math.Round(g.CropY))
	return image.Rect(x0, y0,
		x0+int(math.Round(g.CroppedWidth)),
		y0+int(math.Round(g.CroppedHeight)))
}

// CropSpec holds user-supplied or metadata-supplied geometry. Nil fields are
// filled from the decoded image.
type CropSpec struct {
	FullWidth     *float64 `yaml:"full_width,omitempty"`
	FullHeight    *float64 `yaml:"full_height,omitempty"`
	CroppedWidth  *float64 `yaml:"cropped_width,omitempty"`
	CroppedHeight *float64 `yaml:"cropped_height,omitempty"`
	CropX         *float64 `yaml:"cropped_x,omitempty"`
	CropY         *float64 `yaml:"cropped_y,omitempty"`
}

// IsEmpty reports whether no field was supplied.
func (c CropSpec) IsEmpty() bool {
	return c.FullWidth == nil && c.FullHeight == nil &&
		c.CroppedWidth == nil && c.CroppedHeight == nil &&
		c.CropX == nil && c.CropY == nil
}

// CapturedView is the real angular extent covered by the photograph.
type CapturedView struct {
	HorizontalFov float64 `yaml:"horizontal_fov"`
	VerticalFov   float64 `yaml:"vertical_fov"`
}

// FullSphere is the captured view of a complete equirectangular panorama.
var FullSphere = CapturedView{HorizontalFov: 360, VerticalFov: 180}

// IsFullSphere reports whether the view covers 360°×180°. A zero value is
// treated as a full sphere.
func (v CapturedView) IsFullSphere() bool {
	h, vv := v.orDefault()
	return h == 360 && vv == 180
}

func (v CapturedView) orDefault() (h, vv float64) {
	h, vv = v.HorizontalFov, v.VerticalFov
	if h == 0 {
		h = 360
	}
	if vv == 0 {
		vv = 180
	}
	return h, vv
}

func (v CapturedView) validate() error {
	h, vv := v.orDefault()
	if !(h > 0 && h <= 360) {
		return fmt.Errorf("captured_view.horizontal_fov must be in (0, 360], got %g", h)
	}
	if !(vv > 0 && vv <= 180) {
		return fmt.Errorf("captured_view.vertical_fov must be in (0, 180], got %g", vv)
	}
	return nil
}

// GeometryOptions are the inputs of ResolveGeometry besides the decoded
// image size.
type GeometryOptions struct {
	Crop CropSpec
	View CapturedView
	// Recalculate rescales an explicit crop onto the decoded pixels. It is
	// set when the crop comes from embedded metadata rather than the caller.
	Recalculate bool
	// MaxTextureWidth bounds the canvas width. Zero means
	// DefaultMaxTextureSize.
	MaxTextureWidth int
}

// ResolveGeometry computes the full canvas size and the crop placement for a
// decoded image of imgW×imgH pixels.
func ResolveGeometry(imgW, imgH int, opts GeometryOptions) (PanoramaGeometry, error) {
	if imgW <= 0 || imgH <= 0 {
		return PanoramaGeometry{}, fmt.Errorf("%w: image size %dx%d", ErrInvalidGeometry, imgW, imgH)
	}
	if err := opts.View.validate(); err != nil {
		return PanoramaGeometry{}, fmt.Errorf("%w: %v", ErrInvalidGeometry, err)
	}

	w, h := float64(imgW), float64(imgH)
	g := PanoramaGeometry{
		FullWidth:     w,
		FullHeight:    h,
		CroppedWidth:  w,
		CroppedHeight: h,
	}
	var cropX, cropY *float64

	if !opts.View.IsFullSphere() {
		// The decoded image is exactly the captured region.
		hFov, vFov := opts.View.orDefault()
		if hFov != 360 {
			g.FullWidth = g.CroppedWidth / (hFov / 360)
		}
		if vFov != 180 {
			g.FullHeight = g.CroppedHeight / (vFov / 180)
		}
	} else {
		c := opts.Crop
		g.FullWidth = valueOr(c.FullWidth, w)
		g.FullHeight = valueOr(c.FullHeight, h)
		g.CroppedWidth = valueOr(c.CroppedWidth, w)
		g.CroppedHeight = valueOr(c.CroppedHeight, h)
		cropX, cropY = c.CropX, c.CropY

		if opts.Recalculate {
			if g.CroppedWidth != w && g.CroppedWidth > 0 {
				rx := w / g.CroppedWidth
				g.CroppedWidth = w
				g.FullWidth *= rx
				cropX = scaled(cropX, rx)
			}
			if g.CroppedHeight != h && g.CroppedHeight > 0 {
				ry := h / g.CroppedHeight
				g.CroppedHeight = h
				g.FullHeight *= ry
				cropY = scaled(cropY, ry)
			}
		}
	}

	if cropX != nil {
		g.CropX = *cropX
	} else {
		g.CropX = (g.FullWidth - g.CroppedWidth) / 2
	}
	if cropY != nil {
		g.CropY = *cropY
	} else {
		g.CropY = (g.FullHeight - g.CroppedHeight) / 2
	}

	if err := g.check(); err != nil {
		return PanoramaGeometry{}, err
	}

	maxW := opts.MaxTextureWidth
	if maxW <= 0 {
		maxW = DefaultMaxTextureSize
	}
	newWidth := math.Min(g.FullWidth, float64(maxW))
	r := newWidth / g.FullWidth
	g.FullWidth = newWidth
	g.CroppedWidth *= r
	g.CropX *= r
	g.FullHeight *= r
	g.CroppedHeight *= r
	g.CropY *= r

	return g, g.check()
}

// check validates the geometry invariants.
func (g PanoramaGeometry) check() error {
	for _, v := range []float64{g.FullWidth, g.FullHeight, g.CroppedWidth, g.CroppedHeight, g.CropX, g.CropY} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: non-finite value in %+v", ErrInvalidGeometry, g)
		}
	}
	if g.FullWidth <= 0 || g.FullHeight <= 0 || g.CroppedWidth <= 0 || g.CroppedHeight <= 0 {
		return fmt.Errorf("%w: non-positive size in %+v", ErrInvalidGeometry, g)
	}
	if g.CroppedWidth > g.FullWidth+geomEpsilon || g.CroppedHeight > g.FullHeight+geomEpsilon {
		return fmt.Errorf("%w: crop larger than panorama in %+v", ErrInvalidGeometry, g)
	}
	if g.CropX < -geomEpsilon || g.CropX > g.FullWidth-g.CroppedWidth+geomEpsilon ||
		g.CropY < -geomEpsilon || g.CropY > g.FullHeight-g.CroppedHeight+geomEpsilon {
		return fmt.Errorf("%w: crop offset outside panorama in %+v", ErrInvalidGeometry, g)
	}
	return nil
}

func valueOr(p *float64, def float64) float64 {
	if p == nil {
		return def
	}
	return *p
}

func scaled(p *float64, r float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p * r
	return &v
}

// Pixels returns a pointer to v, for filling CropSpec literals.
func Pixels(v float64) *float64 {
	return &v
}
