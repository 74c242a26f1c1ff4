package render

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/phanxgames/photosphere"
)

// Key repeat, in ticks: first repeat after repeatDelay, then every
// repeatInterval.
const (
	repeatDelay    = 30
	repeatInterval = 3
)

// keyBindings maps physical keys onto controller keys. Arrows and WASD
// rotate, +/Q and -/E zoom, Ctrl or Alt draws a box, X snaps to a target.
var keyBindings = []struct {
	key ebiten.Key
	to  photosphere.Key
}{
	{ebiten.KeyArrowUp, photosphere.KeyUp},
	{ebiten.KeyW, photosphere.KeyUp},
	{ebiten.KeyArrowDown, photosphere.KeyDown},
	{ebiten.KeyS, photosphere.KeyDown},
	{ebiten.KeyArrowLeft, photosphere.KeyLeft},
	{ebiten.KeyA, photosphere.KeyLeft},
	{ebiten.KeyArrowRight, photosphere.KeyRight},
	{ebiten.KeyD, photosphere.KeyRight},
	{ebiten.KeyEqual, photosphere.KeyZoomIn},
	{ebiten.KeyNumpadAdd, photosphere.KeyZoomIn},
	{ebiten.KeyQ, photosphere.KeyZoomIn},
	{ebiten.KeyMinus, photosphere.KeyZoomOut},
	{ebiten.KeyNumpadSubtract, photosphere.KeyZoomOut},
	{ebiten.KeyE, photosphere.KeyZoomOut},
	{ebiten.KeyControlLeft, photosphere.KeyLabel},
	{ebiten.KeyControlRight, photosphere.KeyLabel},
	{ebiten.KeyAltLeft, photosphere.KeyLabel},
	{ebiten.KeyAltRight, photosphere.KeyLabel},
	{ebiten.KeyX, photosphere.KeyTarget},
}

// Frame is one tick of raw input.
type Frame struct {
	Cursor    photosphere.Vec2
	MouseDown bool
	Touches   []photosphere.Vec2
	Wheel     float64
	Pressed   []photosphere.Key // just pressed or auto-repeating
	Released  []photosphere.Key
}

// Input turns per-tick input snapshots into controller calls.
type Input struct {
	c *photosphere.Controller

	mouseDown   bool
	last        photosphere.Vec2
	touchCount  int
	lastTouches []photosphere.Vec2

	touchIDs []ebiten.TouchID
	frame    Frame
}

// NewInput returns an adapter driving c.
func NewInput(c *photosphere.Controller) *Input {
	return &Input{c: c}
}

// Update polls ebiten and applies the result. Call it once per tick.
func (in *Input) Update() {
	in.Apply(in.read())
}

// Apply feeds one frame to the controller. Keys go first so that a
// modifier pressed in the same tick as a click applies to it. Mouse input
// is ignored while fingers are down.
func (in *Input) Apply(f Frame) {
	for _, k := range f.Pressed {
		in.c.KeyDown(k)
	}
	for _, k := range f.Released {
		in.c.KeyUp(k)
	}

	if in.applyTouches(f.Touches) {
		return
	}

	switch {
	case f.MouseDown && !in.mouseDown:
		in.c.PointerDown(f.Cursor.X, f.Cursor.Y)
	case f.MouseDown && f.Cursor != in.last:
		in.c.PointerMove(f.Cursor.X, f.Cursor.Y)
	case !f.MouseDown && in.mouseDown:
		in.c.PointerUp(f.Cursor.X, f.Cursor.Y)
	}
	in.mouseDown = f.MouseDown
	in.last = f.Cursor

	if f.Wheel != 0 {
		in.c.Wheel(f.Wheel)
	}
}

// applyTouches reports whether touch input was handled this frame.
func (in *Input) applyTouches(touches []photosphere.Vec2) bool {
	n := len(touches)
	switch {
	case n != in.touchCount && n == 0:
		in.c.TouchEnd()
	case n != in.touchCount:
		in.c.TouchStart(touches)
	case n > 0 && !sameTouches(touches, in.lastTouches):
		in.c.TouchMove(touches)
	}
	handled := n > 0 || in.touchCount > 0
	in.touchCount = n
	in.lastTouches = append(in.lastTouches[:0], touches...)
	return handled
}

func sameTouches(a, b []photosphere.Vec2) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// read polls the ebiten input state.
func (in *Input) read() Frame {
	f := &in.frame
	mx, my := ebiten.CursorPosition()
	f.Cursor = photosphere.Vec2{X: float64(mx), Y: float64(my)}
	f.MouseDown = ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft)

	in.touchIDs = ebiten.AppendTouchIDs(in.touchIDs[:0])
	f.Touches = f.Touches[:0]
	for _, id := range in.touchIDs {
		x, y := ebiten.TouchPosition(id)
		f.Touches = append(f.Touches, photosphere.Vec2{X: float64(x), Y: float64(y)})
	}

	_, dy := ebiten.Wheel()
	f.Wheel = dy

	f.Pressed = f.Pressed[:0]
	f.Released = f.Released[:0]
	for _, b := range keyBindings {
		held := inpututil.KeyPressDuration(b.key)
		switch {
		case b.to == photosphere.KeyLabel || b.to == photosphere.KeyTarget:
			if held == 1 {
				f.Pressed = append(f.Pressed, b.to)
			}
		case repeating(held):
			f.Pressed = append(f.Pressed, b.to)
		}
		if inpututil.IsKeyJustReleased(b.key) {
			f.Released = append(f.Released, b.to)
		}
	}
	return *f
}

// repeating reports whether a key held for ticks ticks fires this tick.
func repeating(ticks int) bool {
	if ticks == 1 {
		return true
	}
	return ticks >= repeatDelay && (ticks-repeatDelay)%repeatInterval == 0
}
