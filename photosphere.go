package photosphere

import "math"

// SphereRadius is the radius of the panorama sphere in world units. The
// camera sits at its center.
const SphereRadius = 200.0

// Vec2 is a 2D vector used for screen positions and texture pixels.
type Vec2 struct {
	X, Y float64
}

// Rect is an axis-aligned rectangle. The coordinate system has its origin at
// the top-left, with Y increasing downward.
type Rect struct {
	X, Y, Width, Height float64
}

// Contains reports whether the point (x, y) lies inside the rectangle.
// Points on the edge are considered inside.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x <= r.X+r.Width &&
		y >= r.Y && y <= r.Y+r.Height
}

// Position is a camera orientation or a point on the sphere, in radians.
type Position struct {
	Longitude float64
	Latitude  float64
}

// Degrees returns p converted to degrees.
func (p Position) Degrees() Position {
	return Position{
		Longitude: p.Longitude * 180 / math.Pi,
		Latitude:  p.Latitude * 180 / math.Pi,
	}
}

// EventType identifies a kind of viewer notification.
type EventType uint8

const (
	EventPositionUpdated   EventType = iota // camera orientation changed
	EventZoomUpdated                        // zoom level changed
	EventAutorotate                         // autorotate started or stopped
	EventDeviceOrientation                  // device orientation started or stopped
	EventStereo                             // stereo effect started or stopped
	EventFullscreen                         // fullscreen entered or left
	EventLabelRequest                       // a box is waiting for its label
	EventRegionAdded                        // a labeled region was stored
	EventRegionRemoved                      // a labeled region was deleted
	EventReady                              // the first panorama is on screen
)

// Key identifies a logical key understood by the controller. Input adapters
// map physical keys onto these.
type Key uint8

const (
	KeyUnknown Key = iota
	KeyUp          // tilt up
	KeyDown        // tilt down
	KeyLeft        // pan left
	KeyRight       // pan right
	KeyZoomIn      // zoom in by 10 levels
	KeyZoomOut     // zoom out by 10 levels
	KeyLabel       // hold to draw a bounding box
	KeyTarget      // hold to snap the view onto the clicked point
)

// String returns the lower-case name of the key.
func (k Key) String() string {
	switch k {
	case KeyUp:
		return "up"
	case KeyDown:
		return "down"
	case KeyLeft:
		return "left"
	case KeyRight:
		return "right"
	case KeyZoomIn:
		return "zoomin"
	case KeyZoomOut:
		return "zoomout"
	case KeyLabel:
		return "label"
	case KeyTarget:
		return "target"
	default:
		return "unknown"
	}
}

// ParseKey is the inverse of Key.String.
func ParseKey(name string) Key {
	for k := KeyUp; k <= KeyTarget; k++ {
		if k.String() == name {
			return k
		}
	}
	return KeyUnknown
}
