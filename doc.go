// Package photosphere is an equirectangular panorama viewer and annotator.
//
// The panorama is mapped onto the inside of a sphere of radius
// [SphereRadius]. A [Camera] at its center looks along a longitude and a
// latitude with a vertical field of view driven by a zoom level in [0, 100].
// A [Controller] routes pointer, touch, wheel, keyboard and sensor input to
// the camera or to an annotation [Session] that turns two raycast corners
// into a labeled region, stored both in texture pixels and in spherical
// degrees.
//
// # Quick start
//
// [Viewer] wires everything together from a [Config]:
//
//	cfg := photosphere.DefaultConfig()
//	cfg.Panorama = "pano.jpg"
//	v, err := photosphere.NewViewer(cfg)
//	if err != nil {
//		log.Fatal(err)
//	}
//	v.OnReady(func() { log.Println("ready") })
//	v.Load(ctx, "")
//
// Call [Viewer.Update] once per frame from the render goroutine. The render
// subpackage provides an Ebitengine game that does this and draws the sphere.
//
// # Coordinate frames
//
// Camera longitudes grow to the left when looking from the center; a
// longitude of 0 looks down +Z. Annotation samples use the texture frame of
// [TextureFrame], where longitude grows with the texture x coordinate and
// latitude is the colatitude measured from the top row.
//
// # Limits
//
// [ViewLimits] bound the tilt and the field of view. When MinLongitude
// equals MaxLongitude the panorama is a whole circle and longitude wraps
// freely. Otherwise a requested longitude is clamped before it is
// normalized, so a partial panorama stops at its edges.
//
// # Notifications
//
// Each state change has a typed registration method (OnPositionUpdated,
// OnZoomUpdated, OnAutorotate, ...) returning a [CallbackHandle] whose
// Remove method unregisters it. Handlers run synchronously on the goroutine
// that caused the change.
package photosphere
