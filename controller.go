package photosphere

import (
	"log"
	"math"
	"time"
)

// ControllerState is the interaction mode of a Controller.
type ControllerState uint8

const (
	StateIdle          ControllerState = iota // no gesture in progress
	StateDragging                             // one pointer is panning the view
	StatePinchZooming                         // two fingers are zooming
	StateLabeling                             // a bounding box is being drawn
	StateTargeting                            // the view is snapping to a clicked point
)

// String returns the state name.
func (s ControllerState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDragging:
		return "dragging"
	case StatePinchZooming:
		return "pinch"
	case StateLabeling:
		return "labeling"
	case StateTargeting:
		return "targeting"
	default:
		return "unknown"
	}
}

// Navbar is the navigation bar widget.
type Navbar interface {
	Show()
	MustBeHidden(hidden bool)
}

// Fullscreen requests and leaves fullscreen mode. The outcome is reported
// back through Controller.FullscreenChanged.
type Fullscreen interface {
	Enable()
	Disable()
	Enabled() bool
}

type noNavbar struct{}

func (noNavbar) Show()             {}
func (noNavbar) MustBeHidden(bool) {}

type noFullscreen struct{}

func (noFullscreen) Enable()       {}
func (noFullscreen) Disable()      {}
func (noFullscreen) Enabled() bool { return false }

// ControllerOptions tune the input response. Angles are radians.
type ControllerOptions struct {
	AllowUserInteractions bool
	AllowScrollToZoom     bool
	// SmoothMoves scales drag motion by the field of view. Otherwise
	// LongOffset and LatOffset are applied per pixel.
	SmoothMoves        bool
	LongOffset         float64
	LatOffset          float64
	KeyboardLongOffset float64
	KeyboardLatOffset  float64

	// Autorotate is false when the animation is unavailable, for example
	// because its speed could not be parsed.
	Autorotate bool
	// AnimDelay is the idle time before autorotate starts. Negative
	// disables the automatic start; ToggleAutorotate still works.
	AnimDelay time.Duration
	// AnimRearm restarts the idle timer after every interaction.
	AnimRearm   bool
	ReverseAnim bool
	// AnimLongOffset is the longitude step per frame.
	AnimLongOffset float64
	// AnimLatOffset is the easing factor toward AnimLatTarget per frame.
	AnimLatOffset float64
	AnimLatTarget float64

	// TargetAnim is the duration of the move onto a targeted point. Zero
	// snaps instantly.
	TargetAnim time.Duration
	// ShowNavbar shows the navbar when a pointer or finger goes down.
	ShowNavbar bool
}

// DefaultControllerOptions mirror DefaultConfig.
func DefaultControllerOptions() ControllerOptions {
	speed, _ := ParseAngularSpeed("2rpm")
	return ControllerOptions{
		AllowUserInteractions: true,
		AllowScrollToZoom:     true,
		SmoothMoves:           true,
		LongOffset:            math.Pi / 360,
		LatOffset:             math.Pi / 180,
		KeyboardLongOffset:    math.Pi / 60,
		KeyboardLatOffset:     math.Pi / 120,
		Autorotate:            true,
		AnimDelay:             2 * time.Second,
		ReverseAnim:           true,
		AnimLongOffset:        speed,
		AnimLatOffset:         speed,
	}
}

// Controller turns pointer, touch, keyboard, wheel and sensor input into
// camera moves and annotation samples. All methods must be called from the
// goroutine that owns the camera.
type Controller struct {
	cam     *Camera
	session *Session
	events  *handlerRegistry
	opts    ControllerOptions
	ray     Raycaster

	navbar     Navbar
	fullscreen Fullscreen
	logger     *log.Logger

	viewport   Rect
	texW, texH float64

	state        ControllerState
	lastX, lastY float64
	startX       float64
	startY       float64
	boxTL        Hit
	pinchDist    float64
	labelKey     bool
	targetKey    bool

	// Autorotate and device orientation.
	rotating      bool
	animLonOffset float64
	armed         bool
	idle          time.Duration
	frameAcc      time.Duration
	deviceOrient  bool
	stereo        bool
}

// NewController wires a controller to a camera and an annotation session.
// Both must have been created with the same registry when notifications are
// observed through a Viewer; standalone use with NewCamera and NewSession is
// fine too.
func NewController(cam *Camera, session *Session, opts ControllerOptions) *Controller {
	return newController(cam, session, cam.events, opts)
}

func newController(cam *Camera, session *Session, events *handlerRegistry, opts ControllerOptions) *Controller {
	return &Controller{
		cam:           cam,
		session:       session,
		events:        events,
		opts:          opts,
		ray:           NewRaycaster(),
		navbar:        noNavbar{},
		fullscreen:    noFullscreen{},
		animLonOffset: opts.AnimLongOffset,
		viewport:      Rect{Width: 1, Height: 1},
		texW:          1,
		texH:          1,
	}
}

// SetNavbar installs the navigation bar collaborator.
func (c *Controller) SetNavbar(n Navbar) {
	if n == nil {
		n = noNavbar{}
	}
	c.navbar = n
}

// SetFullscreen installs the fullscreen collaborator.
func (c *Controller) SetFullscreen(f Fullscreen) {
	if f == nil {
		f = noFullscreen{}
	}
	c.fullscreen = f
}

// SetLogger enables diagnostic output. nil disables it.
func (c *Controller) SetLogger(l *log.Logger) { c.logger = l }

func (c *Controller) logf(format string, args ...any) {
	if c.logger != nil {
		c.logger.Printf(format, args...)
	}
}

// SetViewport sets the screen rectangle the panorama is drawn into.
func (c *Controller) SetViewport(r Rect) {
	if r.Width > 0 && r.Height > 0 {
		c.viewport = r
	}
}

// Viewport returns the screen rectangle used for raycasting.
func (c *Controller) Viewport() Rect { return c.viewport }

// SetTextureSize sets the panorama size used for pixel-space regions.
func (c *Controller) SetTextureSize(w, h float64) {
	if w > 0 && h > 0 {
		c.texW, c.texH = w, h
	}
}

// State returns the current interaction mode.
func (c *Controller) State() ControllerState { return c.state }

// View returns the camera snapshot for the current viewport.
func (c *Controller) View() CameraView {
	return c.cam.View(c.viewport.Width / c.viewport.Height)
}

// Raycast returns the sphere hit under the screen pixel (x, y).
func (c *Controller) Raycast(x, y float64) (Hit, error) {
	return c.ray.CastPixel(c.View(), x, y, c.viewport)
}

// --- Pointer ---

// PointerDown starts a drag, a box or a target snap depending on the held
// modifier keys.
func (c *Controller) PointerDown(x, y float64) {
	if !c.opts.AllowUserInteractions {
		return
	}
	c.showNavbar()
	c.stopAutorotate()

	switch {
	case c.labelKey:
		hit, err := c.Raycast(x, y)
		if err != nil {
			c.logf("label start at (%.0f, %.0f): %v", x, y, err)
			return
		}
		c.session.BeginPair()
		if err := c.session.AddPoint(SampleFromHit(hit, c.texW, c.texH)); err != nil {
			c.logf("label start: %v", err)
			return
		}
		c.state = StateLabeling
		c.startX, c.startY = x, y
		c.boxTL = hit
	case c.targetKey:
		c.state = StateTargeting
		hit, err := c.Raycast(x, y)
		if err != nil {
			c.logf("target at (%.0f, %.0f): %v", x, y, err)
		} else {
			c.lookAt(hit.View)
		}
		c.state = StateIdle
	default:
		c.state = StateDragging
		c.lastX, c.lastY = x, y
	}
}

// PointerMove pans the view while dragging or updates the box preview while
// labeling.
func (c *Controller) PointerMove(x, y float64) {
	if !c.opts.AllowUserInteractions {
		return
	}
	switch c.state {
	case StateLabeling:
		if box, ok := c.boxTo(x, y); ok {
			c.session.SetPreview(box)
		}
	case StateDragging:
		c.move(x, y)
	}
}

// PointerUp ends the current gesture. A finished box is handed to the
// session and announced through OnLabelRequest.
func (c *Controller) PointerUp(x, y float64) {
	if !c.opts.AllowUserInteractions {
		return
	}
	if c.state == StateLabeling {
		c.finishBox(x, y)
	}
	c.state = StateIdle
	c.labelKey = false
	c.targetKey = false
	c.interacted()
}

func (c *Controller) finishBox(x, y float64) {
	hit, err := c.Raycast(x, y)
	if err != nil {
		c.logf("label end at (%.0f, %.0f): %v", x, y, err)
		c.session.Cancel()
		return
	}
	if box, ok := c.boxTo(x, y); ok {
		c.session.SetPreview(box)
	}
	if err := c.session.AddPoint(SampleFromHit(hit, c.texW, c.texH)); err != nil {
		c.logf("label end: %v", err)
		c.session.Cancel()
		return
	}
	if p, ok := c.session.Pending(); ok {
		fire(c.events.labelRequest, p)
	}
}

// boxTo raycasts the three remaining corners of the screen rectangle
// spanned by the box start and (x, y).
func (c *Controller) boxTo(x, y float64) (Box, bool) {
	br, err := c.Raycast(x, y)
	if err != nil {
		return Box{}, false
	}
	tr, err := c.Raycast(x, c.startY)
	if err != nil {
		return Box{}, false
	}
	bl, err := c.Raycast(c.startX, y)
	if err != nil {
		return Box{}, false
	}
	return Box{TL: c.boxTL.Point, TR: tr.Point, BR: br.Point, BL: bl.Point}, true
}

// move applies the drag from the last pointer sample to (x, y).
func (c *Controller) move(x, y float64) {
	dx, dy := x-c.lastX, y-c.lastY
	c.lastX, c.lastY = x, y
	if dx == 0 && dy == 0 {
		return
	}
	var dlon, dlat float64
	if c.opts.SmoothMoves {
		k := c.cam.Fov() * math.Pi / 180 / c.viewport.Height
		dlon, dlat = dx*k, dy*k
	} else {
		dlon, dlat = dx*c.opts.LongOffset, dy*c.opts.LatOffset
	}
	c.cam.DeltaMove(dlon, dlat)
}

func (c *Controller) lookAt(p Position) {
	if c.opts.TargetAnim > 0 {
		c.cam.AnimateTo(p.Longitude, p.Latitude, float32(c.opts.TargetAnim.Seconds()), nil)
		return
	}
	c.cam.SetOrientation(p.Longitude, p.Latitude)
}

// --- Touch ---

// TouchStart handles the fingers currently down. One finger drags, two
// fingers start a pinch and end any drag. A box being drawn is discarded.
func (c *Controller) TouchStart(touches []Vec2) {
	if !c.opts.AllowUserInteractions {
		return
	}
	if c.state == StateLabeling && len(touches) > 0 {
		c.session.Cancel()
	}
	switch len(touches) {
	case 1:
		c.stopAutorotate()
		c.state = StateDragging
		c.lastX, c.lastY = touches[0].X, touches[0].Y
	case 2:
		c.stopAutorotate()
		c.state = StatePinchZooming
		c.pinchDist = dist2(touches[0].X, touches[0].Y, touches[1].X, touches[1].Y)
	}
	c.showNavbar()
}

// TouchMove drags with one finger or zooms by one level per move with two.
// Only the direction of the distance change counts.
func (c *Controller) TouchMove(touches []Vec2) {
	if !c.opts.AllowUserInteractions {
		return
	}
	switch {
	case len(touches) == 1 && c.state == StateDragging:
		c.move(touches[0].X, touches[0].Y)
	case len(touches) == 2 && c.state == StatePinchZooming:
		d := dist2(touches[0].X, touches[0].Y, touches[1].X, touches[1].Y)
		diff := d - c.pinchDist
		if diff != 0 {
			c.cam.SetZoom(float64(c.cam.ZoomLevel()) + math.Copysign(1, diff))
			c.pinchDist = d
		}
	}
}

// TouchEnd ends the touch gesture.
func (c *Controller) TouchEnd() {
	if !c.opts.AllowUserInteractions {
		return
	}
	c.state = StateIdle
	c.interacted()
}

// --- Wheel and keyboard ---

// Wheel zooms by one level in the direction of delta. Positive is in.
func (c *Controller) Wheel(delta float64) {
	if !c.opts.AllowUserInteractions || !c.opts.AllowScrollToZoom {
		return
	}
	if delta == 0 || math.IsNaN(delta) {
		return
	}
	c.stopAutorotate()
	c.cam.SetZoom(float64(c.cam.ZoomLevel()) + math.Copysign(1, delta))
}

// KeyDown rotates or zooms for navigation keys and arms the label or target
// modifier.
func (c *Controller) KeyDown(k Key) {
	if !c.opts.AllowUserInteractions {
		return
	}
	var dlon, dlat float64
	switch k {
	case KeyUp:
		dlat = 2 * c.opts.KeyboardLatOffset
	case KeyDown:
		dlat = -2 * c.opts.KeyboardLatOffset
	case KeyLeft:
		dlon = 2 * c.opts.KeyboardLongOffset
	case KeyRight:
		dlon = -2 * c.opts.KeyboardLongOffset
	case KeyZoomIn:
		c.stopAutorotate()
		c.cam.SetZoom(float64(c.cam.ZoomLevel() + 10))
		return
	case KeyZoomOut:
		c.stopAutorotate()
		c.cam.SetZoom(float64(c.cam.ZoomLevel() - 10))
		return
	case KeyLabel:
		c.labelKey = true
		return
	case KeyTarget:
		c.targetKey = true
		return
	default:
		return
	}
	c.stopAutorotate()
	c.cam.DeltaMove(dlon, dlat)
}

// KeyUp releases the modifier bound to k. Other keys leave the modifiers
// armed.
func (c *Controller) KeyUp(k Key) {
	switch k {
	case KeyLabel:
		c.labelKey = false
	case KeyTarget:
		c.targetKey = false
	}
	if c.opts.AllowUserInteractions {
		c.interacted()
	}
}

// --- Device orientation ---

// OrientationSample points the camera at a sensor reading. It is ignored
// unless device orientation is active.
func (c *Controller) OrientationSample(p Position) {
	if !c.deviceOrient {
		return
	}
	if math.IsNaN(p.Longitude) || math.IsNaN(p.Latitude) {
		return
	}
	c.stopAutorotate()
	c.cam.SetOrientation(p.Longitude, p.Latitude)
}

// DeviceOrientation reports whether sensor samples drive the camera.
func (c *Controller) DeviceOrientation() bool { return c.deviceOrient }

// StartDeviceOrientation makes sensor samples drive the camera and stops
// autorotate.
func (c *Controller) StartDeviceOrientation() {
	if c.deviceOrient {
		return
	}
	c.stopAutorotate()
	c.deviceOrient = true
	fire(c.events.deviceOrientation, true)
}

// StopDeviceOrientation stops following sensor samples.
func (c *Controller) StopDeviceOrientation() {
	if !c.deviceOrient {
		return
	}
	c.deviceOrient = false
	fire(c.events.deviceOrientation, false)
}

// ToggleDeviceOrientation flips device orientation control.
func (c *Controller) ToggleDeviceOrientation() {
	if c.deviceOrient {
		c.StopDeviceOrientation()
	} else {
		c.StartDeviceOrientation()
	}
}

// --- Stereo and fullscreen ---

// Stereo reports whether the split view is active.
func (c *Controller) Stereo() bool { return c.stereo }

// ToggleStereo starts or stops the stereo effect. Starting enables device
// orientation, requests fullscreen and hides the navbar.
func (c *Controller) ToggleStereo() {
	if c.stereo {
		c.stereo = false
		c.navbar.MustBeHidden(false)
		fire(c.events.stereo, false)
		return
	}
	c.stereo = true
	c.StartDeviceOrientation()
	c.fullscreen.Enable()
	c.navbar.MustBeHidden(true)
	fire(c.events.stereo, true)
}

// ToggleFullscreen requests entering or leaving fullscreen.
func (c *Controller) ToggleFullscreen() {
	if c.fullscreen.Enabled() {
		c.fullscreen.Disable()
	} else {
		c.fullscreen.Enable()
	}
}

// FullscreenChanged is called by the fullscreen collaborator when the mode
// actually changed.
func (c *Controller) FullscreenChanged(enabled bool) {
	fire(c.events.fullscreen, enabled)
}

func (c *Controller) showNavbar() {
	if c.opts.ShowNavbar {
		c.navbar.Show()
	}
}

// --- Autorotate ---

// Autorotating reports whether the autorotate loop is running.
func (c *Controller) Autorotating() bool { return c.rotating }

// ArmAutorotate starts the idle timer that launches autorotate.
func (c *Controller) ArmAutorotate() {
	if !c.opts.Autorotate || c.opts.AnimDelay < 0 || c.rotating || c.deviceOrient {
		return
	}
	c.armed = true
	c.idle = 0
}

// StartAutorotate starts the autorotate loop, stopping device orientation.
func (c *Controller) StartAutorotate() {
	if !c.opts.Autorotate {
		c.logf("autorotate unavailable")
		return
	}
	if c.rotating {
		return
	}
	c.StopDeviceOrientation()
	c.armed = false
	c.rotating = true
	c.frameAcc = 0
	fire(c.events.autorotate, true)
}

// StopAutorotate stops the loop and the idle timer.
func (c *Controller) StopAutorotate() { c.stopAutorotate() }

// ToggleAutorotate flips the autorotate loop.
func (c *Controller) ToggleAutorotate() {
	c.armed = false
	if c.rotating {
		c.stopAutorotate()
	} else {
		c.StartAutorotate()
	}
}

func (c *Controller) stopAutorotate() {
	c.armed = false
	if !c.rotating {
		return
	}
	c.rotating = false
	fire(c.events.autorotate, false)
}

// interacted re-arms the idle timer when configured to.
func (c *Controller) interacted() {
	if c.opts.AnimRearm {
		c.ArmAutorotate()
	}
}

// autorotateStep advances the animation by one frame.
func (c *Controller) autorotateStep() {
	pos := c.cam.Position()
	lat := pos.Latitude - (pos.Latitude-c.opts.AnimLatTarget)*c.opts.AnimLatOffset
	lon := pos.Longitude + c.animLonOffset

	again := true
	if l := c.cam.Limits(); !l.WholeCircle() {
		lon = Clamp(lon, l.MinLongitude, l.MaxLongitude)
		if lon == l.MinLongitude || lon == l.MaxLongitude {
			if c.opts.ReverseAnim {
				c.animLonOffset = -c.animLonOffset
			} else {
				again = false
			}
		}
	}

	c.cam.SetOrientation(lon, lat)
	if !again {
		c.stopAutorotate()
	}
}

// Update advances the camera tween, the idle timer and the autorotate loop
// by dt. Autorotate steps at FrameInterval regardless of the caller's rate.
func (c *Controller) Update(dt time.Duration) {
	c.cam.update(float32(dt.Seconds()))

	switch {
	case c.rotating:
		c.frameAcc += dt
		for c.rotating && c.frameAcc >= FrameInterval {
			c.frameAcc -= FrameInterval
			c.autorotateStep()
		}
	case c.armed:
		c.idle += dt
		if c.idle >= c.opts.AnimDelay {
			c.StartAutorotate()
		}
	}
}
