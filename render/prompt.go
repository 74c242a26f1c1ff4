package render

import (
	"log"
	"unicode"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/phanxgames/photosphere"
)

// LabelPrompt collects the name of a drawn box from the keyboard. It opens
// on every label request and closes on Enter or Escape.
type LabelPrompt struct {
	// OnLabeled is called after a named region has been stored.
	OnLabeled func(index int)

	viewer *photosphere.Viewer
	handle photosphere.CallbackHandle
	active bool
	text   []rune
	chars  []rune
}

// NewLabelPrompt attaches a prompt to v.
func NewLabelPrompt(v *photosphere.Viewer) *LabelPrompt {
	p := &LabelPrompt{viewer: v}
	p.handle = v.OnLabelRequest(func(photosphere.PendingPair) {
		p.active = true
		p.text = p.text[:0]
	})
	return p
}

// Active reports whether a label is being typed. The prompt closes by
// itself once the box has been labeled or discarded elsewhere.
func (p *LabelPrompt) Active() bool {
	if p == nil || !p.active {
		return false
	}
	if _, ok := p.viewer.Session().Pending(); !ok {
		p.active = false
		p.text = p.text[:0]
	}
	return p.active
}

// Type appends printable runes to the label.
func (p *LabelPrompt) Type(rs []rune) {
	if !p.active {
		return
	}
	for _, r := range rs {
		if unicode.IsPrint(r) {
			p.text = append(p.text, r)
		}
	}
}

// Backspace removes the last rune.
func (p *LabelPrompt) Backspace() {
	if p.active && len(p.text) > 0 {
		p.text = p.text[:len(p.text)-1]
	}
}

// Submit stores the box under the typed name. An empty name discards it.
func (p *LabelPrompt) Submit() (index int, stored bool, err error) {
	if !p.active {
		return -1, false, photosphere.ErrNoPendingPair
	}
	p.active = false
	index, stored, err = p.viewer.Label(string(p.text))
	p.text = p.text[:0]
	if stored && p.OnLabeled != nil {
		p.OnLabeled(index)
	}
	return index, stored, err
}

// commit submits the typed name and logs a failure.
func (p *LabelPrompt) commit() {
	if _, _, err := p.Submit(); err != nil {
		log.Printf("label: %v", err)
	}
}

// Cancel discards the box.
func (p *LabelPrompt) Cancel() {
	if !p.active {
		return
	}
	p.active = false
	p.text = p.text[:0]
	p.viewer.CancelLabel()
}

// String renders the prompt line.
func (p *LabelPrompt) String() string {
	return "label: " + string(p.text) + "_"
}

// Update reads typed characters and the Enter, Escape and Backspace keys.
func (p *LabelPrompt) Update() {
	if !p.active {
		return
	}
	p.chars = ebiten.AppendInputChars(p.chars[:0])
	p.Type(p.chars)
	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeyEnter), inpututil.IsKeyJustPressed(ebiten.KeyNumpadEnter):
		p.commit()
	case inpututil.IsKeyJustPressed(ebiten.KeyEscape):
		p.Cancel()
	case repeating(inpututil.KeyPressDuration(ebiten.KeyBackspace)):
		p.Backspace()
	}
}

// Close detaches the prompt from the viewer.
func (p *LabelPrompt) Close() { p.handle.Remove() }
