package photosphere

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"
)

// Viewer ties a camera, a controller, an annotation session and a
// panorama loader together. Every method must be called from the render
// goroutine.
type Viewer struct {
	*handlerRegistry

	cfg        Config
	set        settings
	camera     *Camera
	session    *Session
	controller *Controller
	loader     *Loader

	texture    *Texture
	textureGen int
	ready      bool

	sensors []<-chan Position

	debug  bool
	logger *log.Logger
}

// NewViewer validates cfg and builds a viewer. No panorama is loaded until
// Load is called.
func NewViewer(cfg Config) (*Viewer, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	set := cfg.resolve()
	reg := &handlerRegistry{}

	v := &Viewer{
		handlerRegistry: reg,
		cfg:             cfg,
		set:             set,
		camera:          newCamera(set.limits, reg),
		session:         newSession(reg),
		loader:          NewLoader(set.load),
		logger:          log.New(os.Stderr, "[photosphere] ", log.LstdFlags),
	}
	v.controller = newController(v.camera, v.session, reg, set.controller)
	v.camera.SetOrientation(set.start.Longitude, set.start.Latitude)
	v.SetDebugMode(cfg.Debug)

	if set.animErr != nil {
		v.logf("autorotate disabled: %v", set.animErr)
	}
	return v, nil
}

// SetDebugMode enables or disables diagnostic logging.
func (v *Viewer) SetDebugMode(enabled bool) {
	v.debug = enabled
	if enabled {
		v.controller.SetLogger(v.logger)
	} else {
		v.controller.SetLogger(nil)
	}
}

// SetLogger replaces the diagnostic logger.
func (v *Viewer) SetLogger(l *log.Logger) {
	if l == nil {
		l = log.New(os.Stderr, "[photosphere] ", log.LstdFlags)
	}
	v.logger = l
	v.SetDebugMode(v.debug)
}

func (v *Viewer) logf(format string, args ...any) {
	if v.debug {
		v.logger.Printf(format, args...)
	}
}

// Config returns the configuration the viewer was built with.
func (v *Viewer) Config() Config { return v.cfg }

// Camera returns the viewer camera.
func (v *Viewer) Camera() *Camera { return v.camera }

// Session returns the annotation session.
func (v *Viewer) Session() *Session { return v.session }

// Controller returns the input controller.
func (v *Viewer) Controller() *Controller { return v.controller }

// EyesOffset is the stereo eye separation in world units.
func (v *Viewer) EyesOffset() float64 { return v.set.eyesOffset }

// SetNavbar installs the navigation bar collaborator.
func (v *Viewer) SetNavbar(n Navbar) { v.controller.SetNavbar(n) }

// SetFullscreen installs the fullscreen collaborator.
func (v *Viewer) SetFullscreen(f Fullscreen) { v.controller.SetFullscreen(f) }

// AttachOrientation adds a sensor sample stream. Samples are drained by
// Update and applied only while device orientation is active.
func (v *Viewer) AttachOrientation(samples <-chan Position) {
	v.sensors = append(v.sensors, samples)
}

// --- Loading ---

// Load starts loading a panorama in the background. An empty source uses
// Config.Panorama. A load still in flight is abandoned.
func (v *Viewer) Load(ctx context.Context, source string) {
	if source == "" {
		source = v.cfg.Panorama
	}
	if v.loader.Pending() {
		v.logf("load superseded by %s", source)
	}
	v.logf("loading %s", source)
	v.loader.Start(ctx, source)
}

// Loading reports whether a panorama load is in flight.
func (v *Viewer) Loading() bool { return v.loader.Pending() }

// Texture returns the current panorama texture, or nil before the first
// load completes.
func (v *Viewer) Texture() *Texture { return v.texture }

// TextureGeneration increases each time a new texture is applied.
func (v *Viewer) TextureGeneration() int { return v.textureGen }

// Ready reports whether the first panorama has been applied.
func (v *Viewer) Ready() bool { return v.ready }

// Close cancels any load in flight.
func (v *Viewer) Close() { v.loader.Close() }

// Update applies a finished load, drains sensor samples and advances the
// controller by dt. A failed load is returned once; the previous panorama
// stays in place.
func (v *Viewer) Update(dt time.Duration) error {
	var loadErr error
	if res, ok := v.loader.Poll(); ok {
		if res.Err != nil {
			v.logf("load failed: %v", res.Err)
			loadErr = fmt.Errorf("load panorama: %w", res.Err)
		} else {
			v.applyTexture(res.Texture)
		}
	}

	for _, ch := range v.sensors {
		v.drain(ch)
	}

	v.controller.Update(dt)
	return loadErr
}

func (v *Viewer) drain(ch <-chan Position) {
	for {
		select {
		case p, ok := <-ch:
			if !ok {
				return
			}
			v.controller.OrientationSample(p)
		default:
			return
		}
	}
}

func (v *Viewer) applyTexture(tex *Texture) {
	g := tex.Geometry
	v.logf("loaded %s: full %.0fx%.0f, crop %.0fx%.0f at (%.0f, %.0f)",
		tex.Source, g.FullWidth, g.FullHeight, g.CroppedWidth, g.CroppedHeight, g.CropX, g.CropY)

	v.texture = tex
	v.textureGen++
	w, h := tex.Size()
	v.controller.SetTextureSize(float64(w), float64(h))

	if v.ready {
		return
	}
	v.ready = true
	fire(v.handlerRegistry.ready, struct{}{})
	if v.set.zoom > 0 {
		v.camera.SetZoom(v.set.zoom)
	}
	v.controller.ArmAutorotate()
}

// Resize sets the viewport to a w×h screen.
func (v *Viewer) Resize(w, h int) {
	v.controller.SetViewport(Rect{Width: float64(w), Height: float64(h)})
}

// --- Camera ---

// Position returns the orientation in radians.
func (v *Viewer) Position() Position { return v.camera.Position() }

// PositionDegrees returns the orientation in degrees.
func (v *Viewer) PositionDegrees() Position { return v.camera.Position().Degrees() }

// MoveTo points the camera at lon, lat. Each is a number of radians or a
// string with a deg or rad suffix.
func (v *Viewer) MoveTo(lon, lat any) error {
	l, err := ParseAngle(lon)
	if err != nil {
		return fmt.Errorf("longitude: %w", err)
	}
	t, err := ParseLatitude(lat)
	if err != nil {
		return fmt.Errorf("latitude: %w", err)
	}
	v.camera.SetOrientation(l, t)
	return nil
}

// Rotate turns the camera by dlon, dlat. Deltas above π are taken as
// negative turns.
func (v *Viewer) Rotate(dlon, dlat any) error {
	dl, err := ParseLatitude(dlon)
	if err != nil {
		return fmt.Errorf("longitude delta: %w", err)
	}
	dt, err := ParseLatitude(dlat)
	if err != nil {
		return fmt.Errorf("latitude delta: %w", err)
	}
	v.camera.DeltaMove(dl, dt)
	return nil
}

// Zoom sets the zoom level in [0, 100].
func (v *Viewer) Zoom(level float64) { v.camera.SetZoom(level) }

// ZoomIn raises the zoom level by one.
func (v *Viewer) ZoomIn() { v.camera.ZoomIn() }

// ZoomOut lowers the zoom level by one.
func (v *Viewer) ZoomOut() { v.camera.ZoomOut() }

// ZoomLevel returns the zoom level.
func (v *Viewer) ZoomLevel() int { return v.camera.ZoomLevel() }

// --- Modes ---

// ToggleAutorotate starts or stops autorotate.
func (v *Viewer) ToggleAutorotate() { v.controller.ToggleAutorotate() }

// ToggleDeviceOrientation starts or stops following sensor samples.
func (v *Viewer) ToggleDeviceOrientation() { v.controller.ToggleDeviceOrientation() }

// ToggleStereo starts or stops the split view.
func (v *Viewer) ToggleStereo() { v.controller.ToggleStereo() }

// ToggleFullscreen requests entering or leaving fullscreen.
func (v *Viewer) ToggleFullscreen() { v.controller.ToggleFullscreen() }

// FullscreenChanged reports a fullscreen mode change.
func (v *Viewer) FullscreenChanged(enabled bool) { v.controller.FullscreenChanged(enabled) }

// --- Annotation ---

// Label names the box waiting for a label. An empty name discards it.
func (v *Viewer) Label(name string) (index int, stored bool, err error) {
	index, stored, err = v.session.Finalize(name)
	switch {
	case err != nil:
		v.logf("label %q: %v", name, err)
	case stored:
		r := v.session.Region(index)
		v.logf("region %d %q: pixels (%d,%d)-(%d,%d)", index, r.Pixel.Name,
			r.Pixel.XMin, r.Pixel.YMin, r.Pixel.XMax, r.Pixel.YMax)
	default:
		v.logf("box discarded")
	}
	return index, stored, err
}

// CancelLabel discards the box waiting for a label.
func (v *Viewer) CancelLabel() {
	v.session.Cancel()
	v.logf("box discarded")
}

// Export writes the VOC files of the current panorama into dir.
func (v *Viewer) Export(dir string) (pixelPath, sphericalPath string, err error) {
	if v.texture == nil {
		return "", "", fmt.Errorf("export: no panorama loaded")
	}
	w, h := v.texture.Size()
	return v.session.Export(dir, v.texture.Source, w, h)
}
