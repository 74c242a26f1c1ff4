package photosphere

import (
	"encoding/json"
	"fmt"
)

// scriptStep is a single action in an input script.
type scriptStep struct {
	Action string  `json:"action"`
	X      float64 `json:"x,omitempty"`
	Y      float64 `json:"y,omitempty"`
	FromX  float64 `json:"fromX,omitempty"`
	FromY  float64 `json:"fromY,omitempty"`
	ToX    float64 `json:"toX,omitempty"`
	ToY    float64 `json:"toY,omitempty"`
	Frames int     `json:"frames,omitempty"`
	Key    string  `json:"key,omitempty"`
	Delta  float64 `json:"delta,omitempty"`
	Text   string  `json:"text,omitempty"`
}

type scriptFile struct {
	Steps []scriptStep `json:"steps"`
}

type injectKind uint8

const (
	injectPress injectKind = iota
	injectMove
	injectRelease
)

// injectedPointer is one queued synthetic pointer event in screen pixels.
type injectedPointer struct {
	kind injectKind
	x, y float64
}

// Script replays input against a Controller one event per frame. Steps are
// JSON objects with an action of press, move, release, drag, key, keyup,
// wheel, label or wait.
type Script struct {
	steps     []scriptStep
	cursor    int
	waitCount int
	queue     []injectedPointer
	done      bool
	err       error
}

// LoadScript parses a JSON input script.
func LoadScript(data []byte) (*Script, error) {
	var f scriptFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse input script: %w", err)
	}
	if len(f.Steps) == 0 {
		return nil, fmt.Errorf("parse input script: no steps")
	}
	for i, st := range f.Steps {
		switch st.Action {
		case "press", "move", "release", "drag", "wheel", "label", "wait":
		case "key", "keyup":
			if ParseKey(st.Key) == KeyUnknown {
				return nil, fmt.Errorf("parse input script: step %d: unknown key %q", i, st.Key)
			}
		default:
			return nil, fmt.Errorf("parse input script: step %d: unknown action %q", i, st.Action)
		}
	}
	return &Script{steps: f.Steps}, nil
}

// Done reports whether every step has been executed.
func (s *Script) Done() bool { return s.done }

// Err returns the first error a label step produced.
func (s *Script) Err() error { return s.err }

// Step advances the script by one frame.
func (s *Script) Step(c *Controller) {
	if s.done {
		return
	}
	if len(s.queue) > 0 {
		s.dispatch(c)
		s.checkDone()
		return
	}
	if s.waitCount > 0 {
		s.waitCount--
		return
	}
	if s.cursor >= len(s.steps) {
		s.done = true
		return
	}

	st := s.steps[s.cursor]
	s.cursor++

	switch st.Action {
	case "press":
		c.PointerDown(st.X, st.Y)
	case "move":
		c.PointerMove(st.X, st.Y)
	case "release":
		c.PointerUp(st.X, st.Y)
	case "drag":
		s.queueDrag(st.FromX, st.FromY, st.ToX, st.ToY, st.Frames)
		s.dispatch(c)
	case "key":
		c.KeyDown(ParseKey(st.Key))
	case "keyup":
		c.KeyUp(ParseKey(st.Key))
	case "wheel":
		c.Wheel(st.Delta)
	case "label":
		if _, _, err := c.session.Finalize(st.Text); err != nil && s.err == nil {
			s.err = fmt.Errorf("script step %d: %w", s.cursor-1, err)
		}
	case "wait":
		if st.Frames > 0 {
			s.waitCount = st.Frames - 1
		}
	}
	s.checkDone()
}

func (s *Script) checkDone() {
	if s.cursor >= len(s.steps) && s.waitCount == 0 && len(s.queue) == 0 {
		s.done = true
	}
}

// queueDrag queues a press at from, frames-2 interpolated moves and a
// release at to. The whole sequence consumes frames frames, at least two.
func (s *Script) queueDrag(fromX, fromY, toX, toY float64, frames int) {
	if frames < 2 {
		frames = 2
	}
	s.queue = append(s.queue, injectedPointer{kind: injectPress, x: fromX, y: fromY})
	steps := frames - 2
	for i := 1; i <= steps; i++ {
		t := float64(i) / float64(steps+1)
		s.queue = append(s.queue, injectedPointer{
			kind: injectMove,
			x:    fromX + (toX-fromX)*t,
			y:    fromY + (toY-fromY)*t,
		})
	}
	s.queue = append(s.queue, injectedPointer{kind: injectRelease, x: toX, y: toY})
}

func (s *Script) dispatch(c *Controller) {
	evt := s.queue[0]
	copy(s.queue, s.queue[1:])
	s.queue = s.queue[:len(s.queue)-1]

	switch evt.kind {
	case injectPress:
		c.PointerDown(evt.x, evt.y)
	case injectMove:
		c.PointerMove(evt.x, evt.y)
	case injectRelease:
		c.PointerUp(evt.x, evt.y)
	}
}
