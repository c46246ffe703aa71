package movement

import (
	"fmt"
	"strings"
)

// Mode is a combination of locomotion features. It is chosen once per session.
type Mode uint8

const (
	// FreeFly moves along the full camera forward and right vectors with vertical keys.
	FreeFly Mode = 1 << iota
	// Joystick moves on the ground plane from a touch joystick and turns from the look-pad.
	Joystick
	// Teleport casts a parabolic arc and jumps to its landing point on request.
	Teleport
	// Smooth moves on the ground plane from a thumbstick.
	Smooth
	// SnapTurn rotates in fixed steps from the secondary stick's horizontal axis.
	SnapTurn
)

// Presets for the supported platforms.
const (
	ModeDesktop    = FreeFly
	ModeTouch      = Joystick
	ModeVRTeleport = Teleport | SnapTurn
	ModeVRSmooth   = Smooth | SnapTurn
	ModeVRHybrid   = Teleport | Smooth | SnapTurn
)

// Has reports whether every feature in f is enabled.
func (m Mode) Has(f Mode) bool {
	return m&f == f
}

// VR reports whether the mode drives a headset rig.
func (m Mode) VR() bool {
	return m&(Teleport|Smooth|SnapTurn) != 0
}

func (m Mode) String() string {
	switch m {
	case ModeDesktop:
		return "desktop"
	case ModeTouch:
		return "touch"
	case ModeVRTeleport:
		return "vr-teleport"
	case ModeVRSmooth:
		return "vr-smooth"
	case ModeVRHybrid:
		return "vr-hybrid"
	}
	return fmt.Sprintf("Mode(%d)", uint8(m))
}

// ParseMode maps a configuration name to a preset.
//
// Parameters:
//   - s: one of desktop, touch, vr-teleport, vr-smooth or vr-hybrid
//
// Returns:
//   - Mode: the preset
//   - error: if the name is unknown
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "desktop":
		return ModeDesktop, nil
	case "touch":
		return ModeTouch, nil
	case "vr-teleport", "teleport":
		return ModeVRTeleport, nil
	case "vr-smooth", "smooth":
		return ModeVRSmooth, nil
	case "vr-hybrid", "vr":
		return ModeVRHybrid, nil
	}
	return 0, fmt.Errorf("unknown movement mode %q", s)
}
