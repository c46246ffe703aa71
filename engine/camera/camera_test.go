package camera

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestFirstPersonDefaultsFaceForward(t *testing.T) {
	fp := NewFirstPersonController(WithEyePosition(mgl32.Vec3{0, 1.6, -10}))
	if got := fp.Forward(); !got.ApproxEqualThreshold(mgl32.Vec3{0, 0, 1}, 1e-5) {
		t.Fatalf("forward = %v, want +Z", got)
	}
	if got := fp.Target(); !got.ApproxEqualThreshold(mgl32.Vec3{0, 1.6, -9}, 1e-5) {
		t.Fatalf("target = %v", got)
	}
}

func TestFirstPersonPitchClamp(t *testing.T) {
	fp := NewFirstPersonController()
	fp.Rotate(0, 10)
	if fp.Pitch() > maxPitch+1e-6 {
		t.Fatalf("pitch %v exceeds clamp %v", fp.Pitch(), maxPitch)
	}
	fp.Rotate(0, -20)
	if fp.Pitch() < -maxPitch-1e-6 {
		t.Fatalf("pitch %v below clamp", fp.Pitch())
	}
	fp.ResetRotation()
	if fp.Yaw() != 0 || fp.Pitch() != 0 {
		t.Fatalf("reset left yaw=%v pitch=%v", fp.Yaw(), fp.Pitch())
	}
}

func TestFirstPersonSetTarget(t *testing.T) {
	fp := NewFirstPersonController()
	fp.SetTarget(mgl32.Vec3{5, 0, 0})
	if got := fp.Forward(); !got.ApproxEqualThreshold(mgl32.Vec3{1, 0, 0}, 1e-4) {
		t.Fatalf("forward = %v, want +X", got)
	}
	if math.Abs(float64(fp.Yaw())-math.Pi/2) > 1e-4 {
		t.Fatalf("yaw = %v", fp.Yaw())
	}
}

func TestOrientationMatchesForward(t *testing.T) {
	fp := NewFirstPersonController(WithYawPitch(0.7, 0.3))
	rotated := fp.Orientation().Rotate(mgl32.Vec3{0, 0, 1})
	if !rotated.ApproxEqualThreshold(fp.Forward(), 1e-4) {
		t.Fatalf("orientation*Z = %v, forward = %v", rotated, fp.Forward())
	}
}

func TestOrbitPanKeepsOffset(t *testing.T) {
	oc := NewOrbitController(WithTarget(mgl32.Vec3{1, 0, 1}), WithRadius(10))
	before := oc.Position().Sub(oc.Target())
	oc.PanRight(2)
	oc.PanForward(1)
	after := oc.Position().Sub(oc.Target())
	if !before.ApproxEqualThreshold(after, 1e-4) {
		t.Fatalf("pan changed orbit offset %v -> %v", before, after)
	}
}

func TestOrbitZoomClamps(t *testing.T) {
	oc := NewOrbitController(WithRadiusBounds(2, 5), WithRadius(4), WithZoomSpeed(1))
	oc.Zoom(100)
	if oc.Radius() != 2 {
		t.Fatalf("radius = %v, want 2", oc.Radius())
	}
	oc.Zoom(-100)
	if oc.Radius() != 5 {
		t.Fatalf("radius = %v, want 5", oc.Radius())
	}
}

func TestScreenRayCenterFollowsForward(t *testing.T) {
	fp := NewFirstPersonController(WithEyePosition(mgl32.Vec3{0, 1.6, 0}))
	cam := NewCamera(WithController(fp), WithAspect(1))
	ray := cam.ScreenRay(50, 50, 100, 100)
	if !ray.Origin.ApproxEqualThreshold(mgl32.Vec3{0, 1.6, 0}, 1e-5) {
		t.Fatalf("origin = %v", ray.Origin)
	}
	if !ray.Direction.ApproxEqualThreshold(mgl32.Vec3{0, 0, 1}, 1e-3) {
		t.Fatalf("direction = %v, want +Z", ray.Direction)
	}

	// Upper half of the viewport points upward.
	up := cam.ScreenRay(50, 10, 100, 100)
	if up.Direction.Y() <= 0 {
		t.Fatalf("top-of-screen ray points down: %v", up.Direction)
	}
}
