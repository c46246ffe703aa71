// Package input normalizes keyboard, mouse, touch and gamepad events into a single
// ControlState that the engine polls once per tick.
package input

import "github.com/go-gl/mathgl/mgl32"

// ControlState is everything the interaction and movement layers read in one tick.
// Edge fields (Pressed, Released, KeysPressed, Teleport) are true for exactly one poll.
type ControlState struct {
	// Move is the planar movement intent: X strafes right, Y moves forward. Length <= 1.
	Move mgl32.Vec2
	// Vertical is the up/down intent in [-1, 1].
	Vertical float32
	// Look is the yaw and pitch delta in radians accumulated since the last poll.
	// Positive X turns left, positive Y looks up.
	Look mgl32.Vec2
	// Turn is the raw horizontal axis used for snap-turn in [-1, 1].
	Turn float32

	// Pointer is the cursor or touch position in pixels, valid when HasPointer is set.
	Pointer    mgl32.Vec2
	HasPointer bool

	// Primary is held while the left button, a tap or the trigger is down.
	Primary         bool
	PrimaryPressed  bool
	PrimaryReleased bool

	// Secondary is held while the right button or the grip is down.
	Secondary bool

	// Teleport is a one-shot teleport request.
	Teleport bool

	// Scroll is the wheel delta accumulated since the last poll.
	Scroll float32

	// KeysPressed lists key codes that went down since the last poll.
	KeysPressed []uint32
	// Ctrl is set while either control key is held.
	Ctrl bool
	// Shift is set while either shift key is held.
	Shift bool
}

// KeyPressed reports whether key went down since the last poll.
func (c ControlState) KeyPressed(key uint32) bool {
	for _, k := range c.KeysPressed {
		if k == key {
			return true
		}
	}
	return false
}

// Source is one input modality.
type Source interface {
	// Poll returns the current state and resets accumulated deltas and edges.
	Poll() ControlState
}

// Merge combines several sources into one. Axes are summed and clamped, flags are OR-ed and
// the pointer comes from the first source that has one.
//
// Parameters:
//   - sources: the sources to poll, in priority order
//
// Returns:
//   - Source: the combined source
func Merge(sources ...Source) Source {
	return merged(sources)
}

type merged []Source

func (m merged) Poll() ControlState {
	var out ControlState
	for _, s := range m {
		if s == nil {
			continue
		}
		c := s.Poll()
		out.Move = out.Move.Add(c.Move)
		out.Vertical += c.Vertical
		out.Look = out.Look.Add(c.Look)
		out.Turn += c.Turn
		if c.HasPointer && !out.HasPointer {
			out.Pointer = c.Pointer
			out.HasPointer = true
		}
		out.Primary = out.Primary || c.Primary
		out.PrimaryPressed = out.PrimaryPressed || c.PrimaryPressed
		out.PrimaryReleased = out.PrimaryReleased || c.PrimaryReleased
		out.Secondary = out.Secondary || c.Secondary
		out.Teleport = out.Teleport || c.Teleport
		out.Scroll += c.Scroll
		out.KeysPressed = append(out.KeysPressed, c.KeysPressed...)
		out.Ctrl = out.Ctrl || c.Ctrl
		out.Shift = out.Shift || c.Shift
	}
	out.Move = clampDisc(out.Move)
	out.Vertical = mgl32.Clamp(out.Vertical, -1, 1)
	out.Turn = mgl32.Clamp(out.Turn, -1, 1)
	return out
}

func clampDisc(v mgl32.Vec2) mgl32.Vec2 {
	if l := v.Len(); l > 1 {
		return v.Mul(1 / l)
	}
	return v
}
