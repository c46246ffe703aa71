// package common contains common types that are used throughout this engine. They are not interface-wrapped structs, just plain structs that express
// commonly used data-types.
package common

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Color is a linear RGBA color with components in the [0, 1] range.
type Color [4]float32

// RGB builds an opaque Color from three components.
func RGB(r, g, b float32) Color {
	return Color{r, g, b, 1}
}

// Scale returns the color with its RGB components multiplied by f. Alpha is preserved.
func (c Color) Scale(f float32) Color {
	return Color{c[0] * f, c[1] * f, c[2] * f, c[3]}
}

// Add returns the component-wise sum of the RGB components. Alpha is taken from c.
func (c Color) Add(o Color) Color {
	return Color{c[0] + o[0], c[1] + o[1], c[2] + o[2], c[3]}
}

// Transform holds the local position, Euler rotation (radians, applied Y*X*Z) and scale of a node.
type Transform struct {
	// Position is the translation relative to the parent node.
	Position mgl32.Vec3
	// Rotation holds Euler angles in radians: X is pitch, Y is yaw, Z is roll.
	Rotation mgl32.Vec3
	// Scale is the per-axis scale factor. A zero Scale is treated as (1, 1, 1) by NewTransform.
	Scale mgl32.Vec3
}

// NewTransform returns a Transform at the given position with no rotation and unit scale.
//
// Parameters:
//   - position: the translation of the transform
//
// Returns:
//   - Transform: the initialized transform
func NewTransform(position mgl32.Vec3) Transform {
	return Transform{
		Position: position,
		Scale:    mgl32.Vec3{1, 1, 1},
	}
}

// Matrix builds the column-major model matrix for the transform.
func (t Transform) Matrix() mgl32.Mat4 {
	return ModelMatrix(t.Position, t.Rotation, t.Scale)
}

// Quat returns the rotation of the transform as a quaternion.
func (t Transform) Quat() mgl32.Quat {
	return EulerToQuat(t.Rotation)
}

// Ray is a half-line used for picking, teleport arcs and hit tests.
type Ray struct {
	Origin    mgl32.Vec3
	Direction mgl32.Vec3
}

// At returns the point at distance t along the ray.
func (r Ray) At(t float32) mgl32.Vec3 {
	return r.Origin.Add(r.Direction.Mul(t))
}

// AABB is an axis-aligned bounding box.
type AABB struct {
	Min mgl32.Vec3
	Max mgl32.Vec3
}

// EmptyAABB returns an inverted box that any Extend call will replace.
func EmptyAABB() AABB {
	inf := float32(math.Inf(1))
	return AABB{
		Min: mgl32.Vec3{inf, inf, inf},
		Max: mgl32.Vec3{-inf, -inf, -inf},
	}
}

// Valid reports whether the box has been extended at least once.
func (b AABB) Valid() bool {
	return b.Min[0] <= b.Max[0] && b.Min[1] <= b.Max[1] && b.Min[2] <= b.Max[2]
}

// Extend grows the box to contain p.
func (b AABB) Extend(p mgl32.Vec3) AABB {
	for i := 0; i < 3; i++ {
		if p[i] < b.Min[i] {
			b.Min[i] = p[i]
		}
		if p[i] > b.Max[i] {
			b.Max[i] = p[i]
		}
	}
	return b
}

// Center returns the midpoint of the box.
func (b AABB) Center() mgl32.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Radius returns the radius of the sphere that encloses the box.
func (b AABB) Radius() float32 {
	return b.Max.Sub(b.Min).Len() * 0.5
}

// Transformed returns the axis-aligned box that contains the eight corners of b after applying m.
//
// Parameters:
//   - m: the world matrix to apply
//
// Returns:
//   - AABB: the world-space bounds
func (b AABB) Transformed(m mgl32.Mat4) AABB {
	out := EmptyAABB()
	for i := 0; i < 8; i++ {
		corner := mgl32.Vec3{b.Min[0], b.Min[1], b.Min[2]}
		if i&1 != 0 {
			corner[0] = b.Max[0]
		}
		if i&2 != 0 {
			corner[1] = b.Max[1]
		}
		if i&4 != 0 {
			corner[2] = b.Max[2]
		}
		out = out.Extend(m.Mul4x1(corner.Vec4(1)).Vec3())
	}
	return out
}

// IntersectRay performs the slab test against r.
//
// Parameters:
//   - r: the ray to test, its direction need not be normalized
//
// Returns:
//   - float32: the distance along the ray to the entry point (0 when the origin is inside)
//   - bool: true if the ray hits the box in front of its origin
func (b AABB) IntersectRay(r Ray) (float32, bool) {
	tMin := float32(math.Inf(-1))
	tMax := float32(math.Inf(1))
	for i := 0; i < 3; i++ {
		if mgl32.Abs(r.Direction[i]) < 1e-8 {
			if r.Origin[i] < b.Min[i] || r.Origin[i] > b.Max[i] {
				return 0, false
			}
			continue
		}
		inv := 1 / r.Direction[i]
		t1 := (b.Min[i] - r.Origin[i]) * inv
		t2 := (b.Max[i] - r.Origin[i]) * inv
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		if t1 > tMin {
			tMin = t1
		}
		if t2 < tMax {
			tMax = t2
		}
		if tMin > tMax {
			return 0, false
		}
	}
	if tMax < 0 {
		return 0, false
	}
	if tMin < 0 {
		return 0, true
	}
	return tMin, true
}
