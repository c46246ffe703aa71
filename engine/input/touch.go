package input

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-presence/common"
	"github.com/go-gl/mathgl/mgl32"
)

// TouchSource models the on-screen joystick, look-pad and taps of a touch device.
// The shell feeds it from whatever touch events the platform delivers.
type TouchSource struct {
	mu *sync.Mutex

	sensitivity float32

	joystick mgl32.Vec2
	look     mgl32.Vec2

	pointer    mgl32.Vec2
	hasPointer bool
	touching   bool
	pressEdge  bool
	release    bool
}

var _ Source = &TouchSource{}

// NewTouchSource creates a touch source.
//
// Parameters:
//   - sensitivity: radians of look per pixel dragged on the look-pad
//
// Returns:
//   - *TouchSource: the source
func NewTouchSource(sensitivity float32) *TouchSource {
	if sensitivity <= 0 {
		sensitivity = 0.005
	}
	return &TouchSource{mu: &sync.Mutex{}, sensitivity: sensitivity}
}

// SetJoystick sets the joystick vector. Vectors longer than 1 are clamped to the unit disc.
//
// Parameters:
//   - x: right-positive deflection
//   - y: forward-positive deflection
func (t *TouchSource) SetJoystick(x, y float32) {
	t.mu.Lock()
	defer t.mu.Unlock()
	cx, cy := common.ClampDisc(x, y)
	t.joystick = mgl32.Vec2{cx, cy}
}

// ReleaseJoystick centers the joystick.
func (t *TouchSource) ReleaseJoystick() {
	t.SetJoystick(0, 0)
}

// DragLook accumulates a look-pad drag in pixels.
func (t *TouchSource) DragLook(dx, dy float32) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.look = t.look.Add(mgl32.Vec2{-dx * t.sensitivity, -dy * t.sensitivity})
}

// TouchStart begins a tap at a screen position.
func (t *TouchSource) TouchStart(x, y float32) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pointer = mgl32.Vec2{x, y}
	t.hasPointer = true
	if !t.touching {
		t.pressEdge = true
	}
	t.touching = true
}

// TouchEnd ends the current tap.
func (t *TouchSource) TouchEnd() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.touching {
		t.release = true
	}
	t.touching = false
}

func (t *TouchSource) Poll() ControlState {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := ControlState{
		Move:            t.joystick,
		Look:            t.look,
		Pointer:         t.pointer,
		HasPointer:      t.hasPointer,
		Primary:         t.touching,
		PrimaryPressed:  t.pressEdge,
		PrimaryReleased: t.release,
	}
	t.look = mgl32.Vec2{}
	t.pressEdge = false
	t.release = false
	return out
}
