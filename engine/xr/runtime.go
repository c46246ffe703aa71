package xr

import (
	"context"
	"errors"
	"math"

	"github.com/Carmen-Shannon/oxy-presence/common"
	"github.com/go-gl/mathgl/mgl32"
)

// ErrUnsupported is returned when the runtime cannot provide the requested session mode.
var ErrUnsupported = errors.New("xr session mode not supported")

// Hand identifies a tracked controller.
type Hand int

const (
	HandLeft Hand = iota
	HandRight
)

func (h Hand) String() string {
	if h == HandLeft {
		return "left"
	}
	return "right"
}

// Pose is a controller transform relative to the head: position in meters and
// pitch/yaw/roll in radians.
type Pose struct {
	Position mgl32.Vec3
	Rotation mgl32.Vec3
}

// ControllerState is one tracked controller for one frame.
type ControllerState struct {
	Hand    Hand
	Pose    Pose
	Tracked bool
	Primary bool
}

// Runtime is the platform XR binding. The camera stands in for the tracked head,
// so runtimes report controller poses in head-relative space.
type Runtime interface {
	// Supports reports whether a session mode can be started.
	Supports(mode SessionMode) (bool, error)
	// Begin starts a session.
	Begin(ctx context.Context, mode SessionMode) error
	// End stops the running session.
	End() error
	// Controllers returns the controller states for the current frame.
	Controllers(headPitch float32) []ControllerState
	// HitTest intersects a world ray with real-world geometry.
	HitTest(ray common.Ray) (mgl32.Vec3, bool)
}

// NullRuntime supports nothing. Engines without an XR device run in desktop mode on it.
type NullRuntime struct{}

var _ Runtime = NullRuntime{}

func (NullRuntime) Supports(SessionMode) (bool, error)       { return false, nil }
func (NullRuntime) Begin(context.Context, SessionMode) error { return ErrUnsupported }
func (NullRuntime) End() error                               { return nil }
func (NullRuntime) Controllers(float32) []ControllerState    { return nil }
func (NullRuntime) HitTest(common.Ray) (mgl32.Vec3, bool)    { return mgl32.Vec3{}, false }

// SimulatedRuntime emulates a headset on a desktop: two controllers held in front of the
// camera that follow its pitch, and a hit-test against a horizontal floor plane.
type SimulatedRuntime struct {
	// FloorY is the height of the simulated real-world floor.
	FloorY float32
	// AR enables immersive-ar support.
	AR bool
}

var _ Runtime = &SimulatedRuntime{}

func (r *SimulatedRuntime) Supports(mode SessionMode) (bool, error) {
	switch mode {
	case ModeImmersiveVR:
		return true, nil
	case ModeImmersiveAR:
		return r.AR, nil
	}
	return mode == ModeInline, nil
}

func (r *SimulatedRuntime) Begin(_ context.Context, mode SessionMode) error {
	if ok, _ := r.Supports(mode); !ok {
		return ErrUnsupported
	}
	return nil
}

func (r *SimulatedRuntime) End() error { return nil }

func (r *SimulatedRuntime) Controllers(headPitch float32) []ControllerState {
	rot := mgl32.Vec3{-headPitch * 0.5, 0, 0}
	return []ControllerState{
		{Hand: HandLeft, Pose: Pose{Position: mgl32.Vec3{0.25, -0.4, 0.35}, Rotation: rot}, Tracked: true},
		{Hand: HandRight, Pose: Pose{Position: mgl32.Vec3{-0.25, -0.4, 0.35}, Rotation: rot}, Tracked: true, Primary: true},
	}
}

func (r *SimulatedRuntime) HitTest(ray common.Ray) (mgl32.Vec3, bool) {
	dy := ray.Direction.Y()
	if math.Abs(float64(dy)) < 1e-6 {
		return mgl32.Vec3{}, false
	}
	t := (r.FloorY - ray.Origin.Y()) / dy
	if t <= 0 {
		return mgl32.Vec3{}, false
	}
	return ray.At(t), true
}
