package render

import (
	"log"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/phanxgames/photosphere"
)

// Game runs a viewer inside an ebiten window.
type Game struct {
	Viewer   *photosphere.Viewer
	Renderer *Renderer
	Input    *Input
	HUD      *HUD
	Prompt   *LabelPrompt

	// Script, when set, replaces live input until it is done.
	Script *photosphere.Script

	hotkeys       map[ebiten.Key]func()
	width, height int
	scriptLogged  bool
}

// NewGame wires a renderer, input adapter, HUD navbar, label prompt and
// window fullscreen switch around v. Default hotkeys: F fullscreen, Space
// autorotate, O device orientation, V stereo, H pin the HUD, P screenshot.
func NewGame(v *photosphere.Viewer) *Game {
	g := &Game{
		Viewer:   v,
		Renderer: NewRenderer(v),
		Input:    NewInput(v.Controller()),
		HUD:      NewHUD(),
		Prompt:   NewLabelPrompt(v),
		hotkeys:  make(map[ebiten.Key]func()),
	}
	v.SetNavbar(g.HUD)
	v.SetFullscreen(NewWindowFullscreen(v.FullscreenChanged))

	g.Bind(ebiten.KeyF, v.ToggleFullscreen)
	g.Bind(ebiten.KeySpace, v.ToggleAutorotate)
	g.Bind(ebiten.KeyO, v.ToggleDeviceOrientation)
	g.Bind(ebiten.KeyV, v.ToggleStereo)
	g.Bind(ebiten.KeyH, func() { g.HUD.Pinned = !g.HUD.Pinned })
	g.Bind(ebiten.KeyP, func() { g.Renderer.Screenshot("view") })
	return g
}

// Bind runs fn when key is pressed outside of label entry. Binding a key
// again replaces its action.
func (g *Game) Bind(key ebiten.Key, fn func()) {
	g.hotkeys[key] = fn
}

// Update implements ebiten.Game.
func (g *Game) Update() error {
	dt := time.Second / time.Duration(ebiten.TPS())

	switch {
	case g.Script != nil && !g.Script.Done():
		g.Script.Step(g.Viewer.Controller())
	case g.Prompt.Active():
		g.Prompt.Update()
	default:
		g.logScript()
		g.Input.Update()
		for key, fn := range g.hotkeys {
			if inpututil.IsKeyJustPressed(key) {
				fn()
			}
		}
	}

	if err := g.Viewer.Update(dt); err != nil {
		log.Printf("viewer: %v", err)
	}
	g.HUD.Update(dt)
	return nil
}

func (g *Game) logScript() {
	if g.Script == nil || g.scriptLogged {
		return
	}
	g.scriptLogged = true
	if err := g.Script.Err(); err != nil {
		log.Printf("script: %v", err)
	}
}

// Draw implements ebiten.Game.
func (g *Game) Draw(screen *ebiten.Image) {
	g.Renderer.Draw(screen)
	g.HUD.Draw(screen, g.Viewer, g.Prompt)
}

// Layout implements ebiten.Game. The viewport follows the window size.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	if outsideWidth != g.width || outsideHeight != g.height {
		g.width, g.height = outsideWidth, outsideHeight
		g.Viewer.Resize(outsideWidth, outsideHeight)
	}
	return outsideWidth, outsideHeight
}
