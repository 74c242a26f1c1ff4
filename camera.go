package photosphere

import (
	"math"

	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// ViewLimits bounds the camera. Longitudes and tilts are in radians, fields
// of view in degrees. TiltDownMax is negative or zero.
type ViewLimits struct {
	MinLongitude float64
	MaxLongitude float64
	TiltUpMax    float64
	TiltDownMax  float64
	MinFov       float64
	MaxFov       float64
}

// DefaultViewLimits allows a full turn, a full tilt and a 30°-90° zoom range.
var DefaultViewLimits = ViewLimits{
	TiltUpMax:   math.Pi / 2,
	TiltDownMax: -math.Pi / 2,
	MinFov:      30,
	MaxFov:      90,
}

// WholeCircle reports whether longitude is unrestricted.
func (l ViewLimits) WholeCircle() bool {
	return l.MinLongitude == l.MaxLongitude
}

// orientAnim holds an active AnimateTo tween.
type orientAnim struct {
	tweenLon *gween.Tween
	tweenLat *gween.Tween
	doneLon  bool
	doneLat  bool
}

// Camera owns the view orientation and zoom of the panorama and enforces
// the view limits on every change.
type Camera struct {
	lon, lat  float64
	zoomLevel int
	fov       float64
	limits    ViewLimits

	events *handlerRegistry
	anim   *orientAnim
}

// NewCamera creates a camera looking at longitude 0 on the horizon at zoom
// level 0.
func NewCamera(limits ViewLimits) *Camera {
	return newCamera(limits, &handlerRegistry{})
}

func newCamera(limits ViewLimits, events *handlerRegistry) *Camera {
	return &Camera{
		limits: limits,
		fov:    limits.MaxFov,
		events: events,
	}
}

// OnPositionUpdated registers a callback for orientation changes.
func (c *Camera) OnPositionUpdated(fn func(Position)) CallbackHandle {
	return c.events.OnPositionUpdated(fn)
}

// OnZoomUpdated registers a callback for zoom changes.
func (c *Camera) OnZoomUpdated(fn func(ZoomEvent)) CallbackHandle {
	return c.events.OnZoomUpdated(fn)
}

// Limits returns the camera's view limits.
func (c *Camera) Limits() ViewLimits { return c.limits }

// Position returns the current orientation in radians.
func (c *Camera) Position() Position {
	return Position{Longitude: c.lon, Latitude: c.lat}
}

// ZoomLevel returns the zoom level in [0, 100].
func (c *Camera) ZoomLevel() int { return c.zoomLevel }

// Fov returns the vertical field of view in degrees.
func (c *Camera) Fov() float64 { return c.fov }

// SetOrientation points the camera at (lon, lat).
//
// Clamp before normalize: for a partial panorama the raw longitude is
// clamped to [MinLongitude, MaxLongitude] first, so a move that overshoots
// an edge stops at that edge instead of wrapping to the opposite side.
// Whole-circle panoramas skip the clamp and wrap through the 0/2π seam.
func (c *Camera) SetOrientation(lon, lat float64) {
	if !c.limits.WholeCircle() {
		lon = Clamp(lon, c.limits.MinLongitude, c.limits.MaxLongitude)
	}
	c.lon = NormalizeAngle(lon, true)
	c.lat = Clamp(lat, c.limits.TiltDownMax, c.limits.TiltUpMax)

	fire(c.events.position, c.Position())
}

// DeltaMove rotates the camera by (dlon, dlat) from its current orientation.
func (c *Camera) DeltaMove(dlon, dlat float64) {
	c.SetOrientation(c.lon+dlon, c.lat+dlat)
}

// SetZoom sets the zoom level. level is rounded and clamped to [0, 100];
// 0 is the widest field of view.
func (c *Camera) SetZoom(level float64) {
	if math.IsNaN(level) {
		level = float64(c.zoomLevel)
	}
	c.zoomLevel = int(Clamp(math.Round(level), 0, 100))
	c.fov = c.limits.MaxFov + float64(c.zoomLevel)/100*(c.limits.MinFov-c.limits.MaxFov)

	fire(c.events.zoom, ZoomEvent{Level: c.zoomLevel, Fov: c.fov})
}

// ZoomIn raises the zoom level by one.
func (c *Camera) ZoomIn() {
	if c.zoomLevel < 100 {
		c.SetZoom(float64(c.zoomLevel + 1))
	}
}

// ZoomOut lowers the zoom level by one.
func (c *Camera) ZoomOut() {
	if c.zoomLevel > 0 {
		c.SetZoom(float64(c.zoomLevel - 1))
	}
}

// AnimateTo eases the camera to (lon, lat) over duration seconds. On a
// whole-circle panorama the shorter way around is taken. A non-positive
// duration snaps immediately.
func (c *Camera) AnimateTo(lon, lat float64, duration float32, easeFn ease.TweenFunc) {
	if duration <= 0 {
		c.anim = nil
		c.SetOrientation(lon, lat)
		return
	}
	if easeFn == nil {
		easeFn = ease.InOutQuad
	}
	to := lon
	if c.limits.WholeCircle() {
		d := NormalizeAngle(lon-c.lon, false)
		if d > math.Pi {
			d -= twoPi
		}
		to = c.lon + d
	}
	c.anim = &orientAnim{
		tweenLon: gween.New(float32(c.lon), float32(to), duration, easeFn),
		tweenLat: gween.New(float32(c.lat), float32(lat), duration, easeFn),
	}
}

// Animating reports whether an AnimateTo tween is running.
func (c *Camera) Animating() bool { return c.anim != nil }

// StopAnimation cancels a running AnimateTo at its current orientation.
func (c *Camera) StopAnimation() { c.anim = nil }

// update advances a running AnimateTo by dt seconds.
func (c *Camera) update(dt float32) {
	if c.anim == nil {
		return
	}
	lon, lat := c.lon, c.lat
	if !c.anim.doneLon {
		val, done := c.anim.tweenLon.Update(dt)
		lon = float64(val)
		c.anim.doneLon = done
	}
	if !c.anim.doneLat {
		val, done := c.anim.tweenLat.Update(dt)
		lat = float64(val)
		c.anim.doneLat = done
	}
	if c.anim.doneLon && c.anim.doneLat {
		c.anim = nil
	}
	c.SetOrientation(lon, lat)
}

// View returns the projection snapshot used for rendering and raycasting.
func (c *Camera) View(aspect float64) CameraView {
	return CameraView{
		Longitude: c.lon,
		Latitude:  c.lat,
		Fov:       c.fov,
		Aspect:    aspect,
	}
}
