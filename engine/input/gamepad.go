package input

import (
	"sync"

	"github.com/go-gl/mathgl/mgl32"
)

// GamepadState mirrors window.GamepadState so the two convert directly.
type GamepadState struct {
	Buttons [15]bool
	Axes    [6]float32
}

// Standard-mapping indices, matching GLFW.
const (
	ButtonA           = 0
	ButtonB           = 1
	ButtonX           = 2
	ButtonY           = 3
	ButtonLeftBumper  = 4
	ButtonRightBumper = 5

	AxisLeftX        = 0
	AxisLeftY        = 1
	AxisRightX       = 2
	AxisRightY       = 3
	AxisLeftTrigger  = 4
	AxisRightTrigger = 5
)

// GamepadSource polls a gamepad each tick. Left stick moves, right stick looks (and drives
// snap-turn), the right trigger is primary, the right bumper is secondary and A teleports.
type GamepadSource struct {
	mu *sync.Mutex

	poll     func() (GamepadState, bool)
	deadzone float32
	lookRate float32

	prevTrigger bool
	prevA       bool
}

var _ Source = &GamepadSource{}

// NewGamepadSource wraps a polling function.
//
// Parameters:
//   - poll: returns the current gamepad state and whether one is connected
//   - lookRate: radians of look per tick at full right-stick deflection
//
// Returns:
//   - *GamepadSource: the source
func NewGamepadSource(poll func() (GamepadState, bool), lookRate float32) *GamepadSource {
	if lookRate <= 0 {
		lookRate = 0.04
	}
	return &GamepadSource{mu: &sync.Mutex{}, poll: poll, deadzone: 0.15, lookRate: lookRate}
}

func (g *GamepadSource) Poll() ControlState {
	g.mu.Lock()
	defer g.mu.Unlock()

	var out ControlState
	if g.poll == nil {
		return out
	}
	state, ok := g.poll()
	if !ok {
		g.prevTrigger = false
		g.prevA = false
		return out
	}

	dz := func(v float32) float32 {
		if mgl32.Abs(v) < g.deadzone {
			return 0
		}
		return v
	}
	// GLFW reports stick Y down-positive.
	out.Move = clampDisc(mgl32.Vec2{dz(state.Axes[AxisLeftX]), -dz(state.Axes[AxisLeftY])})
	rx, ry := dz(state.Axes[AxisRightX]), dz(state.Axes[AxisRightY])
	out.Turn = rx
	out.Look = mgl32.Vec2{-rx * g.lookRate, -ry * g.lookRate}

	// Triggers rest at -1.
	trigger := state.Axes[AxisRightTrigger] > 0.5
	out.Primary = trigger
	out.PrimaryPressed = trigger && !g.prevTrigger
	out.PrimaryReleased = !trigger && g.prevTrigger
	g.prevTrigger = trigger

	out.Secondary = state.Buttons[ButtonRightBumper]
	a := state.Buttons[ButtonA]
	out.Teleport = a && !g.prevA
	g.prevA = a
	return out
}
