package photosphere

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"
)

// ErrNoPendingPair is returned when a point or label arrives while no box is
// being drawn.
var ErrNoPendingPair = errors.New("photosphere: no bounding box in progress")

// PoseUnspecified is the pose written for every region.
const PoseUnspecified = "Unspecified"

// Sample is one raycast corner of a bounding box.
type Sample struct {
	// Pixel is the position in panorama texture pixels.
	Pixel Vec2
	// Spherical is the texture-frame longitude and colatitude in degrees.
	Spherical Position
	// Point is the hit on the sphere.
	Point r3.Vec
}

// SampleFromHit converts a raycast hit on a w×h panorama into a sample.
func SampleFromHit(hit Hit, w, h float64) Sample {
	return Sample{
		Pixel:     hit.TexturePixel(w, h),
		Spherical: hit.Texture.Degrees(),
		Point:     hit.Point,
	}
}

// Box is a quadrilateral on the sphere, drawn as a closed outline.
type Box struct {
	TL, TR, BR, BL r3.Vec
}

// Corners returns the box corners in drawing order.
func (b Box) Corners() [4]r3.Vec {
	return [4]r3.Vec{b.TL, b.TR, b.BR, b.BL}
}

// Region is one labeled bounding box in a single unit system.
type Region struct {
	Name      string
	XMin      int
	YMin      int
	XMax      int
	YMax      int
	Pose      string
	Truncated int
	Difficult int
}

// newRegion rounds both corners up to whole units and orders them so that
// XMin <= XMax and YMin <= YMax.
func newRegion(name string, a, b Vec2) Region {
	x0, y0 := int(math.Ceil(a.X)), int(math.Ceil(a.Y))
	x1, y1 := int(math.Ceil(b.X)), int(math.Ceil(b.Y))
	return Region{
		Name: name,
		XMin: min(x0, x1),
		YMin: min(y0, y1),
		XMax: max(x0, x1),
		YMax: max(y0, y1),
		Pose: PoseUnspecified,
	}
}

// RegionPair is a region in pixel units and the same region in spherical
// degrees, plus its outline on the sphere.
type RegionPair struct {
	Pixel     Region
	Spherical Region
	Outline   Box
}

// PendingPair is a drawn box waiting for its label.
type PendingPair struct {
	Samples [2]Sample
	Outline Box
}

// Session collects labeled regions. Pixel and spherical regions are kept in
// index-aligned lists.
type Session struct {
	pixel     []Region
	spherical []Region
	outlines  []Box

	open    bool
	samples []Sample
	preview *Box

	events *handlerRegistry
}

// NewSession creates an empty annotation session.
func NewSession() *Session {
	return newSession(&handlerRegistry{})
}

func newSession(events *handlerRegistry) *Session {
	return &Session{events: events}
}

// OnRegionAdded registers a callback fired after Finalize or Add stores a
// region.
func (s *Session) OnRegionAdded(fn func(RegionEvent)) CallbackHandle {
	return s.events.OnRegionAdded(fn)
}

// OnRegionRemoved registers a callback fired after Delete.
func (s *Session) OnRegionRemoved(fn func(RegionEvent)) CallbackHandle {
	return s.events.OnRegionRemoved(fn)
}

// BeginPair starts a new box, dropping any unfinished one.
func (s *Session) BeginPair() {
	s.open = true
	s.samples = s.samples[:0]
	s.preview = nil
}

// Drawing reports whether a box has been started and not yet finalized or
// cancelled.
func (s *Session) Drawing() bool { return s.open }

// AddPoint records a corner of the current box. At most two are accepted.
func (s *Session) AddPoint(sample Sample) error {
	if !s.open {
		return ErrNoPendingPair
	}
	if len(s.samples) >= 2 {
		return fmt.Errorf("%w: box already has two corners", ErrNoPendingPair)
	}
	s.samples = append(s.samples, sample)
	return nil
}

// SetPreview replaces the live outline of the current box.
func (s *Session) SetPreview(b Box) {
	s.preview = &b
}

// Preview returns the live outline of the current box.
func (s *Session) Preview() (Box, bool) {
	if s.preview == nil {
		return Box{}, false
	}
	return *s.preview, true
}

// Pending returns the current box once both corners are in.
func (s *Session) Pending() (PendingPair, bool) {
	if !s.open || len(s.samples) != 2 {
		return PendingPair{}, false
	}
	p := PendingPair{Samples: [2]Sample{s.samples[0], s.samples[1]}}
	if s.preview != nil {
		p.Outline = *s.preview
	} else {
		a, b := s.samples[0].Point, s.samples[1].Point
		p.Outline = Box{TL: a, TR: a, BR: b, BL: b}
	}
	return p, true
}

// Finalize labels the current box. An empty label discards the box, in which
// case index is -1 and stored is false.
func (s *Session) Finalize(label string) (index int, stored bool, err error) {
	p, ok := s.Pending()
	if !ok {
		return -1, false, ErrNoPendingPair
	}
	label = strings.TrimSpace(label)
	if label == "" {
		s.Cancel()
		return -1, false, nil
	}
	s.open = false
	s.samples = s.samples[:0]
	s.preview = nil

	a, b := p.Samples[0], p.Samples[1]
	pair := RegionPair{
		Pixel:     newRegion(label, a.Pixel, b.Pixel),
		Spherical: newRegion(label, a.Spherical.vec2(), b.Spherical.vec2()),
		Outline:   p.Outline,
	}
	return s.Add(pair), true, nil
}

// Cancel discards the current box and its preview.
func (s *Session) Cancel() {
	s.open = false
	s.samples = s.samples[:0]
	s.preview = nil
}

// Add appends a finished region pair and returns its index.
func (s *Session) Add(pair RegionPair) int {
	s.pixel = append(s.pixel, pair.Pixel)
	s.spherical = append(s.spherical, pair.Spherical)
	s.outlines = append(s.outlines, pair.Outline)
	i := len(s.pixel) - 1
	fire(s.events.regionAdded, RegionEvent{Index: i, Region: pair})
	return i
}

// Delete removes region i from both lists.
func (s *Session) Delete(i int) error {
	if i < 0 || i >= len(s.pixel) {
		return fmt.Errorf("delete region %d: index out of range [0,%d)", i, len(s.pixel))
	}
	pair := s.Region(i)
	s.pixel = append(s.pixel[:i], s.pixel[i+1:]...)
	s.spherical = append(s.spherical[:i], s.spherical[i+1:]...)
	s.outlines = append(s.outlines[:i], s.outlines[i+1:]...)
	fire(s.events.regionRemoved, RegionEvent{Index: i, Region: pair})
	return nil
}

// Len returns the number of stored regions.
func (s *Session) Len() int { return len(s.pixel) }

// Region returns region pair i.
func (s *Session) Region(i int) RegionPair {
	return RegionPair{Pixel: s.pixel[i], Spherical: s.spherical[i], Outline: s.outlines[i]}
}

// Regions returns every stored pair in insertion order.
func (s *Session) Regions() []RegionPair {
	out := make([]RegionPair, len(s.pixel))
	for i := range s.pixel {
		out[i] = s.Region(i)
	}
	return out
}

// PixelRegions returns a copy of the pixel-space list.
func (s *Session) PixelRegions() []Region {
	return append([]Region(nil), s.pixel...)
}

// SphericalRegions returns a copy of the spherical-space list.
func (s *Session) SphericalRegions() []Region {
	return append([]Region(nil), s.spherical...)
}

// Outlines returns the outlines of every stored region.
func (s *Session) Outlines() []Box {
	return append([]Box(nil), s.outlines...)
}

func (p Position) vec2() Vec2 {
	return Vec2{X: p.Longitude, Y: p.Latitude}
}
