package render

import "github.com/hajimehoshi/ebiten/v2"

// WindowFullscreen switches the ebiten window in and out of fullscreen and
// reports each change to a callback, usually Viewer.FullscreenChanged.
type WindowFullscreen struct {
	changed func(bool)
}

// NewWindowFullscreen returns a fullscreen switch reporting to changed.
func NewWindowFullscreen(changed func(bool)) *WindowFullscreen {
	return &WindowFullscreen{changed: changed}
}

// Enable enters fullscreen.
func (f *WindowFullscreen) Enable() { f.set(true) }

// Disable leaves fullscreen.
func (f *WindowFullscreen) Disable() { f.set(false) }

// Enabled reports whether the window is fullscreen.
func (f *WindowFullscreen) Enabled() bool { return ebiten.IsFullscreen() }

func (f *WindowFullscreen) set(on bool) {
	if ebiten.IsFullscreen() == on {
		return
	}
	ebiten.SetFullscreen(on)
	if f.changed != nil {
		f.changed(on)
	}
}
