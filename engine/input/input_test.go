package input

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-presence/common"
	"github.com/go-gl/mathgl/mgl32"
)

func TestDesktopMovementAndEdges(t *testing.T) {
	d := NewDesktopSource(0.01)
	d.KeyDown(common.KeyW)
	d.KeyDown(common.KeyD)
	d.MouseButton(common.MouseLeft, true, 10, 20)

	c := d.Poll()
	if c.Move.Len() > 1.0001 || c.Move.X() <= 0 || c.Move.Y() <= 0 {
		t.Fatalf("move = %v", c.Move)
	}
	if !c.PrimaryPressed || !c.Primary || !c.KeyPressed(common.KeyW) {
		t.Fatalf("edges missing: %+v", c)
	}
	if c.Pointer != (mgl32.Vec2{10, 20}) {
		t.Fatalf("pointer = %v", c.Pointer)
	}

	c = d.Poll()
	if c.PrimaryPressed || len(c.KeysPressed) != 0 {
		t.Fatalf("edges repeated on second poll")
	}
	if !c.Primary {
		t.Fatalf("held button lost")
	}
}

func TestDesktopLookOnlyWhileRightHeld(t *testing.T) {
	d := NewDesktopSource(0.01)
	d.MouseMove(100, 100)
	d.MouseMove(110, 100)
	if c := d.Poll(); c.Look != (mgl32.Vec2{}) {
		t.Fatalf("look without right button: %v", c.Look)
	}
	d.MouseButton(common.MouseRight, true, 110, 100)
	d.MouseMove(120, 95)
	c := d.Poll()
	if !mgl32.FloatEqualThreshold(c.Look.X(), -0.1, 1e-6) || !mgl32.FloatEqualThreshold(c.Look.Y(), 0.05, 1e-6) {
		t.Fatalf("look = %v", c.Look)
	}
}

func TestTouchJoystickClamped(t *testing.T) {
	ts := NewTouchSource(0)
	ts.SetJoystick(3, 4)
	c := ts.Poll()
	if !mgl32.FloatEqualThreshold(c.Move.Len(), 1, 1e-5) {
		t.Fatalf("joystick magnitude = %v", c.Move.Len())
	}
	ts.TouchStart(5, 5)
	ts.TouchEnd()
	c = ts.Poll()
	if !c.PrimaryPressed || !c.PrimaryReleased {
		t.Fatalf("tap edges = %+v", c)
	}
}

func TestGamepadTriggerEdges(t *testing.T) {
	var state GamepadState
	state.Axes[AxisRightTrigger] = -1
	g := NewGamepadSource(func() (GamepadState, bool) { return state, true }, 0)

	if c := g.Poll(); c.Primary {
		t.Fatalf("trigger at rest reported held")
	}
	state.Axes[AxisRightTrigger] = 1
	state.Buttons[ButtonA] = true
	c := g.Poll()
	if !c.PrimaryPressed || !c.Teleport {
		t.Fatalf("press edges = %+v", c)
	}
	c = g.Poll()
	if c.PrimaryPressed || c.Teleport {
		t.Fatalf("edges repeated")
	}
	state.Axes[AxisRightTrigger] = -1
	if c := g.Poll(); !c.PrimaryReleased {
		t.Fatalf("release edge missing")
	}
}

func TestMergeClampsAndPrefersFirstPointer(t *testing.T) {
	a := NewTouchSource(0)
	b := NewTouchSource(0)
	a.SetJoystick(1, 0)
	b.SetJoystick(0, 1)
	a.TouchStart(1, 1)
	b.TouchStart(9, 9)
	c := Merge(a, b).Poll()
	if c.Move.Len() > 1.0001 {
		t.Fatalf("merged move not clamped: %v", c.Move)
	}
	if c.Pointer != (mgl32.Vec2{1, 1}) {
		t.Fatalf("pointer = %v", c.Pointer)
	}
}
