package render

import (
	"fmt"
	"image/color"
	"strings"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/phanxgames/photosphere"
)

// navbarTimeout is how long the HUD stays up after the last Show.
const navbarTimeout = 3 * time.Second

// HUD is the on-screen status panel. It doubles as the viewer navbar: Show
// brings it up for a few seconds and MustBeHidden suppresses it while the
// stereo view is on.
type HUD struct {
	// Pinned keeps the panel visible regardless of Show calls.
	Pinned bool

	remaining time.Duration
	hidden    bool

	lastRefresh time.Duration
	fps, tps    float64
}

// NewHUD returns a hidden HUD.
func NewHUD() *HUD { return &HUD{} }

// Show makes the panel visible for a while.
func (h *HUD) Show() { h.remaining = navbarTimeout }

// MustBeHidden forces the panel off until released.
func (h *HUD) MustBeHidden(hidden bool) { h.hidden = hidden }

// Visible reports whether the panel is drawn this frame.
func (h *HUD) Visible() bool {
	if h.hidden {
		return false
	}
	return h.Pinned || h.remaining > 0
}

// Update advances the visibility timer. Frame rates are sampled every half
// second.
func (h *HUD) Update(dt time.Duration) {
	if h.remaining > 0 {
		h.remaining = max(h.remaining-dt, 0)
	}
	h.lastRefresh += dt
	if h.lastRefresh >= 500*time.Millisecond {
		h.lastRefresh = 0
		h.fps = ebiten.ActualFPS()
		h.tps = ebiten.ActualTPS()
	}
}

// Draw paints the panel in the top-left corner of dst.
func (h *HUD) Draw(dst *ebiten.Image, v *photosphere.Viewer, prompt *LabelPrompt) {
	if !h.Visible() && !prompt.Active() {
		return
	}
	text := statusText(v, h.fps, h.tps)
	if prompt.Active() {
		text += "\n" + prompt.String()
	}
	lines := strings.Count(text, "\n") + 1
	vector.DrawFilledRect(dst, 0, 0, 320, float32(lines*16+8), color.RGBA{A: 128}, false)
	ebitenutil.DebugPrintAt(dst, text, 4, 4)
}

func statusText(v *photosphere.Viewer, fps, tps float64) string {
	p := v.PositionDegrees()
	c := v.Controller()
	var b strings.Builder
	fmt.Fprintf(&b, "lon %.1f  lat %.1f  zoom %d  fov %.1f\n",
		p.Longitude, p.Latitude, v.ZoomLevel(), v.Camera().Fov())
	fmt.Fprintf(&b, "%s  regions %d", c.State(), v.Session().Len())
	if c.Autorotating() {
		b.WriteString("  autorotate")
	}
	if c.DeviceOrientation() {
		b.WriteString("  sensor")
	}
	if c.Stereo() {
		b.WriteString("  stereo")
	}
	fmt.Fprintf(&b, "\nFPS %.1f  TPS %.1f", fps, tps)
	if v.Loading() {
		b.WriteString("  loading")
	}
	return b.String()
}
