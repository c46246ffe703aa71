package common

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestClampDisc(t *testing.T) {
	x, y := ClampDisc(3, 4)
	if !mgl32.FloatEqualThreshold(x, 0.6, 1e-6) || !mgl32.FloatEqualThreshold(y, 0.8, 1e-6) {
		t.Fatalf("ClampDisc(3,4) = %v,%v", x, y)
	}
	x, y = ClampDisc(0.3, -0.2)
	if x != 0.3 || y != -0.2 {
		t.Fatalf("inside vector changed: %v,%v", x, y)
	}
}

func TestSnap(t *testing.T) {
	cases := []struct{ v, step, want float32 }{
		{0.74, 0.5, 0.5},
		{0.76, 0.5, 1},
		{-1.26, 0.25, -1.25},
		{3.3, 0, 3.3},
	}
	for _, tc := range cases {
		if got := Snap(tc.v, tc.step); !mgl32.FloatEqualThreshold(got, tc.want, 1e-6) {
			t.Fatalf("Snap(%v, %v) = %v, want %v", tc.v, tc.step, got, tc.want)
		}
	}
}

func TestWrapAngle(t *testing.T) {
	if got := WrapAngle(3 * math.Pi); !mgl32.FloatEqualThreshold(got, math.Pi, 1e-5) {
		t.Fatalf("WrapAngle(3pi) = %v", got)
	}
	if got := WrapAngle(-3 * math.Pi / 2); !mgl32.FloatEqualThreshold(got, math.Pi/2, 1e-5) {
		t.Fatalf("WrapAngle(-3pi/2) = %v", got)
	}
}

func TestBasisIsOrthonormal(t *testing.T) {
	fwd := ForwardFromYawPitch(0.4, 0.2)
	right, up := Basis(fwd)
	if mgl32.Abs(right.Dot(fwd)) > 1e-5 || mgl32.Abs(up.Dot(fwd)) > 1e-5 || mgl32.Abs(up.Dot(right)) > 1e-5 {
		t.Fatalf("basis not orthogonal: f=%v r=%v u=%v", fwd, right, up)
	}
	if up.Y() <= 0 {
		t.Fatalf("up points down: %v", up)
	}
}

func TestModelMatrixTranslatesAfterRotation(t *testing.T) {
	m := ModelMatrix(mgl32.Vec3{1, 2, 3}, mgl32.Vec3{0, math.Pi / 2, 0}, mgl32.Vec3{2, 2, 2})
	p := m.Mul4x1(mgl32.Vec4{0, 0, 1, 1}).Vec3()
	if !p.ApproxEqualThreshold(mgl32.Vec3{3, 2, 3}, 1e-5) {
		t.Fatalf("transformed point = %v", p)
	}
}
