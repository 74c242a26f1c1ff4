package photosphere

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// ErrNoIntersection is returned when a ray does not hit the sphere. Callers
// treat it as a no-op for the event that produced it.
var ErrNoIntersection = errors.New("photosphere: ray does not intersect sphere")

// poleEpsilon is the cos(latitude) below which longitude is undefined.
const poleEpsilon = 1e-12

// CameraView is a snapshot of the projection parameters for one frame.
type CameraView struct {
	Longitude float64 // radians
	Latitude  float64 // radians
	Fov       float64 // vertical, degrees
	Aspect    float64 // width / height
	// Eye offsets the camera from the sphere center, for stereo rendering.
	Eye r3.Vec
}

// Direction returns the unit vector for (lon, lat) in the camera frame, the
// frame in which CameraView orientations are expressed.
func Direction(lon, lat float64) r3.Vec {
	cl := math.Cos(lat)
	return r3.Vec{
		X: cl * math.Sin(lon),
		Y: math.Sin(lat),
		Z: cl * math.Cos(lon),
	}
}

// Basis returns the forward, right and up unit vectors of the camera.
// Right stays horizontal at every latitude, so the basis is defined at the
// poles as well.
func (v CameraView) Basis() (forward, right, up r3.Vec) {
	forward = Direction(v.Longitude, v.Latitude)
	right = r3.Vec{X: -math.Cos(v.Longitude), Y: 0, Z: math.Sin(v.Longitude)}
	up = r3.Cross(right, forward)
	return forward, right, up
}

// tanHalf returns tan(fov/2) for the vertical field of view.
func (v CameraView) tanHalf() float64 {
	return math.Tan(v.Fov * math.Pi / 360)
}

// Ray returns the ray from the eye through the normalized device coordinate
// (ndcX, ndcY), both in [-1, 1] with +Y up. The direction is not normalized.
func (v CameraView) Ray(ndcX, ndcY float64) (origin, dir r3.Vec) {
	f, x, y := v.Basis()
	t := v.tanHalf()
	dir = r3.Add(f, r3.Add(r3.Scale(ndcX*t*v.Aspect, x), r3.Scale(ndcY*t, y)))
	return v.Eye, dir
}

// Project maps a world point onto normalized device coordinates. ok is false
// when the point lies behind the eye.
func (v CameraView) Project(p r3.Vec) (ndcX, ndcY float64, ok bool) {
	f, x, y := v.Basis()
	d := r3.Sub(p, v.Eye)
	z := r3.Dot(d, f)
	if z <= 0 {
		return 0, 0, false
	}
	t := v.tanHalf()
	return r3.Dot(d, x) / (z * t * v.Aspect), r3.Dot(d, y) / (z * t), true
}

// NDC converts a pixel inside viewport into normalized device coordinates.
func NDC(px, py float64, viewport Rect) (ndcX, ndcY float64) {
	ndcX = (px-viewport.X)/viewport.Width*2 - 1
	ndcY = -((py-viewport.Y)/viewport.Height*2 - 1)
	return ndcX, ndcY
}

// Pixel is the inverse of NDC.
func Pixel(ndcX, ndcY float64, viewport Rect) (px, py float64) {
	px = viewport.X + (ndcX+1)/2*viewport.Width
	py = viewport.Y + (1-ndcY)/2*viewport.Height
	return px, py
}

// Hit is a ray/sphere intersection.
type Hit struct {
	Point r3.Vec
	// View is the hit in the camera frame. Passing it to
	// Camera.SetOrientation centers the view on the hit.
	View Position
	// Texture is the hit in the texture frame: Longitude in [0, 2π) grows
	// with the panorama's x axis, Latitude is the colatitude in [0, π]
	// measured down from the zenith.
	Texture Position
}

// UV returns the texture coordinate of the hit in [0, 1]².
func (h Hit) UV() (u, v float64) {
	return h.Texture.Longitude / twoPi, h.Texture.Latitude / math.Pi
}

// TexturePixel returns the hit in texture pixels for a w×h panorama.
func (h Hit) TexturePixel(w, hgt float64) Vec2 {
	u, v := h.UV()
	return Vec2{X: u * w, Y: v * hgt}
}

// Raycaster intersects view rays with the panorama sphere.
type Raycaster struct {
	Radius float64
}

// NewRaycaster returns a raycaster for the standard sphere.
func NewRaycaster() Raycaster {
	return Raycaster{Radius: SphereRadius}
}

// Cast intersects the ray through (ndcX, ndcY) with the sphere.
func (rc Raycaster) Cast(view CameraView, ndcX, ndcY float64) (Hit, error) {
	origin, dir := view.Ray(ndcX, ndcY)
	p, err := rc.intersect(origin, dir)
	if err != nil {
		return Hit{}, err
	}
	return rc.hitAt(p), nil
}

// CastPixel is Cast for a pixel position inside viewport.
func (rc Raycaster) CastPixel(view CameraView, px, py float64, viewport Rect) (Hit, error) {
	if viewport.Width <= 0 || viewport.Height <= 0 {
		return Hit{}, ErrNoIntersection
	}
	x, y := NDC(px, py, viewport)
	return rc.Cast(view, x, y)
}

// intersect returns the nearest point in front of origin where the ray
// meets the sphere.
func (rc Raycaster) intersect(origin, dir r3.Vec) (r3.Vec, error) {
	a := r3.Dot(dir, dir)
	if !(a > 0) || math.IsInf(a, 0) {
		return r3.Vec{}, ErrNoIntersection
	}
	b := 2 * r3.Dot(origin, dir)
	c := r3.Dot(origin, origin) - rc.Radius*rc.Radius
	disc := b*b - 4*a*c
	if disc < 0 || math.IsNaN(disc) {
		return r3.Vec{}, ErrNoIntersection
	}
	sq := math.Sqrt(disc)
	t := (-b - sq) / (2 * a)
	if t <= 0 {
		t = (-b + sq) / (2 * a)
	}
	if t <= 0 {
		return r3.Vec{}, ErrNoIntersection
	}
	return r3.Add(origin, r3.Scale(t, dir)), nil
}

func (rc Raycaster) hitAt(p r3.Vec) Hit {
	view := rc.ViewPosition(p)
	return Hit{Point: p, View: view, Texture: TextureFrame(view)}
}

// ViewPosition returns the camera-frame longitude and latitude of a point on
// the sphere. Latitude comes from the height of the point, longitude is
// measured from +Z toward +X. Points at the poles get longitude 0.
func (rc Raycaster) ViewPosition(p r3.Vec) Position {
	lat := math.Asin(Clamp(p.Y/rc.Radius, -1, 1))
	var lon float64
	if math.Hypot(p.X, p.Z) > poleEpsilon*rc.Radius {
		lon = math.Atan2(p.X, p.Z)
	}
	return Position{Longitude: NormalizeAngle(lon, false), Latitude: lat}
}

// TextureFrame converts between the camera frame and the texture frame.
// The mapping is its own inverse: longitude becomes π/2 - lon (wrapped into
// [0, 2π)) and latitude becomes π/2 - lat.
func TextureFrame(p Position) Position {
	a, lat := p.Longitude, p.Latitude
	var lon float64
	if a <= math.Pi/2 && a >= 0 {
		lon = math.Pi/2 - a
	} else {
		lon = 5*math.Pi/2 - a
	}
	return Position{Longitude: NormalizeAngle(lon, false), Latitude: math.Pi/2 - lat}
}

// TexturePoint returns the sphere point that samples the texture at (u, v),
// both in [0, 1]. It is the mesh layout used by the renderer.
func (rc Raycaster) TexturePoint(u, v float64) r3.Vec {
	phi := u * twoPi
	theta := v * math.Pi
	st := math.Sin(theta)
	return r3.Vec{
		X: rc.Radius * st * math.Cos(phi),
		Y: rc.Radius * math.Cos(theta),
		Z: rc.Radius * st * math.Sin(phi),
	}
}
