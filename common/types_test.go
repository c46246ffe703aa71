package common

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestAABBIntersectRay(t *testing.T) {
	box := AABB{Min: mgl32.Vec3{-1, -1, -1}, Max: mgl32.Vec3{1, 1, 1}}
	cases := []struct {
		name string
		ray  Ray
		hit  bool
		dist float32
	}{
		{"front", Ray{mgl32.Vec3{0, 0, -5}, mgl32.Vec3{0, 0, 1}}, true, 4},
		{"miss", Ray{mgl32.Vec3{3, 0, -5}, mgl32.Vec3{0, 0, 1}}, false, 0},
		{"behind", Ray{mgl32.Vec3{0, 0, 5}, mgl32.Vec3{0, 0, 1}}, false, 0},
		{"inside", Ray{mgl32.Vec3{0, 0, 0}, mgl32.Vec3{1, 0, 0}}, true, 0},
	}
	for _, tc := range cases {
		d, ok := box.IntersectRay(tc.ray)
		if ok != tc.hit {
			t.Fatalf("%s: hit = %v, want %v", tc.name, ok, tc.hit)
		}
		if ok && !mgl32.FloatEqualThreshold(d, tc.dist, 1e-5) {
			t.Fatalf("%s: dist = %v, want %v", tc.name, d, tc.dist)
		}
	}
}

func TestAABBTransformed(t *testing.T) {
	box := AABB{Min: mgl32.Vec3{-1, 0, -1}, Max: mgl32.Vec3{1, 2, 1}}
	moved := box.Transformed(mgl32.Translate3D(5, 0, 0))
	if !moved.Min.ApproxEqual(mgl32.Vec3{4, 0, -1}) || !moved.Max.ApproxEqual(mgl32.Vec3{6, 2, 1}) {
		t.Fatalf("moved = %+v", moved)
	}
	if EmptyAABB().Valid() {
		t.Fatalf("empty box reported valid")
	}
}

func TestFrustumContainsSphere(t *testing.T) {
	proj := mgl32.Perspective(mgl32.DegToRad(60), 1, 0.1, 100)
	view := mgl32.LookAtV(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 0, 1}, WorldUp)
	f := ExtractFrustum(proj.Mul4(view))
	if !f.ContainsSphere(mgl32.Vec3{0, 0, 10}, 1) {
		t.Fatalf("sphere ahead culled")
	}
	if f.ContainsSphere(mgl32.Vec3{0, 0, -10}, 1) {
		t.Fatalf("sphere behind kept")
	}
	if f.ContainsSphere(mgl32.Vec3{0, 0, 200}, 1) {
		t.Fatalf("sphere past far plane kept")
	}
}
