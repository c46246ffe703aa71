package input

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-presence/common"
	"github.com/go-gl/mathgl/mgl32"
)

// DesktopSource turns window callbacks into control state. Register its methods on the window:
// KeyDown, KeyUp, MouseMove, MouseButton and Scroll.
type DesktopSource struct {
	mu *sync.Mutex

	sensitivity float32

	held        map[uint32]bool
	pressed     []uint32
	buttons     [3]bool
	pressEdge   bool
	releaseEdge bool

	cursor     mgl32.Vec2
	hasCursor  bool
	lastCursor mgl32.Vec2
	look       mgl32.Vec2
	scroll     float32
}

var _ Source = &DesktopSource{}

// NewDesktopSource creates a keyboard and mouse source.
//
// Parameters:
//   - sensitivity: radians of look per pixel of mouse motion while the right button is held
//
// Returns:
//   - *DesktopSource: the source
func NewDesktopSource(sensitivity float32) *DesktopSource {
	if sensitivity <= 0 {
		sensitivity = 0.003
	}
	return &DesktopSource{
		mu:          &sync.Mutex{},
		sensitivity: sensitivity,
		held:        make(map[uint32]bool),
	}
}

// KeyDown records a key press.
func (d *DesktopSource) KeyDown(key uint32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.held[key] {
		d.pressed = append(d.pressed, key)
	}
	d.held[key] = true
}

// KeyUp records a key release.
func (d *DesktopSource) KeyUp(key uint32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.held, key)
}

// MouseMove records the cursor position. Motion while the right button is held becomes look.
func (d *DesktopSource) MouseMove(x, y int32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	p := mgl32.Vec2{float32(x), float32(y)}
	if d.hasCursor && d.buttons[common.MouseRight] {
		delta := p.Sub(d.lastCursor)
		d.look = d.look.Add(mgl32.Vec2{-delta.X() * d.sensitivity, -delta.Y() * d.sensitivity})
	}
	d.cursor = p
	d.lastCursor = p
	d.hasCursor = true
}

// MouseButton records a button transition.
func (d *DesktopSource) MouseButton(button int, pressed bool, x, y int32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if button < 0 || button >= len(d.buttons) {
		return
	}
	d.cursor = mgl32.Vec2{float32(x), float32(y)}
	d.lastCursor = d.cursor
	d.hasCursor = true
	if button == common.MouseLeft {
		if pressed && !d.buttons[button] {
			d.pressEdge = true
		}
		if !pressed && d.buttons[button] {
			d.releaseEdge = true
		}
	}
	d.buttons[button] = pressed
}

// Scroll accumulates wheel motion.
func (d *DesktopSource) Scroll(delta float32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.scroll += delta
}

func (d *DesktopSource) Poll() ControlState {
	d.mu.Lock()
	defer d.mu.Unlock()

	axis := func(pos, neg, altPos, altNeg uint32) float32 {
		var v float32
		if d.held[pos] || d.held[altPos] {
			v++
		}
		if d.held[neg] || d.held[altNeg] {
			v--
		}
		return v
	}

	out := ControlState{
		Move: clampDisc(mgl32.Vec2{
			axis(common.KeyD, common.KeyA, common.KeyRight, common.KeyLeft),
			axis(common.KeyW, common.KeyS, common.KeyUp, common.KeyDown),
		}),
		Vertical:        axis(common.KeyE, common.KeyQ, common.KeySpace, common.KeySpace),
		Look:            d.look,
		Pointer:         d.cursor,
		HasPointer:      d.hasCursor,
		Primary:         d.buttons[common.MouseLeft],
		PrimaryPressed:  d.pressEdge,
		PrimaryReleased: d.releaseEdge,
		Secondary:       d.buttons[common.MouseRight],
		Scroll:          d.scroll,
		KeysPressed:     d.pressed,
		Ctrl:            d.held[common.KeyLeftControl] || d.held[common.KeyRightControl],
		Shift:           d.held[common.KeyLeftShift] || d.held[common.KeyRightShift],
	}
	d.look = mgl32.Vec2{}
	d.scroll = 0
	d.pressed = nil
	d.pressEdge = false
	d.releaseEdge = false
	return out
}
