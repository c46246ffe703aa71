package scene

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Box builds an axis-aligned box centered on the origin with flat per-face normals.
//
// Parameters:
//   - label: debug label for the geometry
//   - width, height, depth: full extents along X, Y and Z
//
// Returns:
//   - *Geometry: 24 vertices, 12 triangles
func Box(label string, width, height, depth float32) *Geometry {
	hx, hy, hz := width/2, height/2, depth/2
	faces := []struct {
		normal mgl32.Vec3
		corner [4]mgl32.Vec3
	}{
		{mgl32.Vec3{0, 0, 1}, [4]mgl32.Vec3{{-hx, -hy, hz}, {hx, -hy, hz}, {hx, hy, hz}, {-hx, hy, hz}}},
		{mgl32.Vec3{0, 0, -1}, [4]mgl32.Vec3{{hx, -hy, -hz}, {-hx, -hy, -hz}, {-hx, hy, -hz}, {hx, hy, -hz}}},
		{mgl32.Vec3{1, 0, 0}, [4]mgl32.Vec3{{hx, -hy, hz}, {hx, -hy, -hz}, {hx, hy, -hz}, {hx, hy, hz}}},
		{mgl32.Vec3{-1, 0, 0}, [4]mgl32.Vec3{{-hx, -hy, -hz}, {-hx, -hy, hz}, {-hx, hy, hz}, {-hx, hy, -hz}}},
		{mgl32.Vec3{0, 1, 0}, [4]mgl32.Vec3{{-hx, hy, hz}, {hx, hy, hz}, {hx, hy, -hz}, {-hx, hy, -hz}}},
		{mgl32.Vec3{0, -1, 0}, [4]mgl32.Vec3{{-hx, -hy, -hz}, {hx, -hy, -hz}, {hx, -hy, hz}, {-hx, -hy, hz}}},
	}

	positions := make([]mgl32.Vec3, 0, 24)
	normals := make([]mgl32.Vec3, 0, 24)
	indices := make([]uint32, 0, 36)
	for _, f := range faces {
		base := uint32(len(positions))
		for _, c := range f.corner {
			positions = append(positions, c)
			normals = append(normals, f.normal)
		}
		indices = append(indices, base, base+1, base+2, base, base+2, base+3)
	}
	return NewGeometry(label, positions, normals, indices)
}

// Plane builds a horizontal quad on the XZ plane facing +Y.
//
// Parameters:
//   - label: debug label for the geometry
//   - width, depth: full extents along X and Z
//
// Returns:
//   - *Geometry: 4 vertices, 2 triangles
func Plane(label string, width, depth float32) *Geometry {
	hx, hz := width/2, depth/2
	positions := []mgl32.Vec3{{-hx, 0, hz}, {hx, 0, hz}, {hx, 0, -hz}, {-hx, 0, -hz}}
	up := mgl32.Vec3{0, 1, 0}
	normals := []mgl32.Vec3{up, up, up, up}
	return NewGeometry(label, positions, normals, []uint32{0, 1, 2, 0, 2, 3})
}

// Quad builds a vertical quad on the XY plane facing +Z, used for labels and light shafts.
func Quad(label string, width, height float32) *Geometry {
	hx, hy := width/2, height/2
	positions := []mgl32.Vec3{{-hx, -hy, 0}, {hx, -hy, 0}, {hx, hy, 0}, {-hx, hy, 0}}
	n := mgl32.Vec3{0, 0, 1}
	normals := []mgl32.Vec3{n, n, n, n}
	return NewGeometry(label, positions, normals, []uint32{0, 1, 2, 0, 2, 3})
}

// Cylinder builds a capped cylinder along Y centered on the origin.
//
// Parameters:
//   - label: debug label for the geometry
//   - radius: radius of both caps
//   - height: full height along Y
//   - segments: number of radial segments (minimum 3)
//
// Returns:
//   - *Geometry: the cylinder geometry
func Cylinder(label string, radius, height float32, segments int) *Geometry {
	return Frustum(label, radius, radius, height, segments)
}

// Frustum builds a capped truncated cone along Y centered on the origin. A zero top radius
// produces a cone.
func Frustum(label string, bottomRadius, topRadius, height float32, segments int) *Geometry {
	if segments < 3 {
		segments = 3
	}
	hy := height / 2
	var positions, normals []mgl32.Vec3
	var indices []uint32

	slope := (bottomRadius - topRadius) / height
	for i := 0; i < segments; i++ {
		a0 := 2 * math.Pi * float64(i) / float64(segments)
		a1 := 2 * math.Pi * float64(i+1) / float64(segments)
		c0, s0 := float32(math.Cos(a0)), float32(math.Sin(a0))
		c1, s1 := float32(math.Cos(a1)), float32(math.Sin(a1))

		base := uint32(len(positions))
		positions = append(positions,
			mgl32.Vec3{bottomRadius * c0, -hy, bottomRadius * s0},
			mgl32.Vec3{bottomRadius * c1, -hy, bottomRadius * s1},
			mgl32.Vec3{topRadius * c1, hy, topRadius * s1},
			mgl32.Vec3{topRadius * c0, hy, topRadius * s0},
		)
		n0 := mgl32.Vec3{c0, slope, s0}.Normalize()
		n1 := mgl32.Vec3{c1, slope, s1}.Normalize()
		normals = append(normals, n0, n1, n1, n0)
		indices = append(indices, base, base+2, base+1, base, base+3, base+2)
	}

	addCap := func(y, r float32, normal mgl32.Vec3, flip bool) {
		if r <= 0 {
			return
		}
		center := uint32(len(positions))
		positions = append(positions, mgl32.Vec3{0, y, 0})
		normals = append(normals, normal)
		for i := 0; i <= segments; i++ {
			a := 2 * math.Pi * float64(i) / float64(segments)
			positions = append(positions, mgl32.Vec3{r * float32(math.Cos(a)), y, r * float32(math.Sin(a))})
			normals = append(normals, normal)
		}
		for i := 0; i < segments; i++ {
			a, b := center+1+uint32(i), center+2+uint32(i)
			if flip {
				indices = append(indices, center, a, b)
			} else {
				indices = append(indices, center, b, a)
			}
		}
	}
	addCap(hy, topRadius, mgl32.Vec3{0, 1, 0}, false)
	addCap(-hy, bottomRadius, mgl32.Vec3{0, -1, 0}, true)

	return NewGeometry(label, positions, normals, indices)
}

// Sphere builds a UV sphere centered on the origin.
//
// Parameters:
//   - label: debug label for the geometry
//   - radius: sphere radius
//   - rings: latitude subdivisions (minimum 2)
//   - segments: longitude subdivisions (minimum 3)
//
// Returns:
//   - *Geometry: the sphere geometry
func Sphere(label string, radius float32, rings, segments int) *Geometry {
	if rings < 2 {
		rings = 2
	}
	if segments < 3 {
		segments = 3
	}
	var positions, normals []mgl32.Vec3
	for r := 0; r <= rings; r++ {
		phi := math.Pi * float64(r) / float64(rings)
		for s := 0; s <= segments; s++ {
			theta := 2 * math.Pi * float64(s) / float64(segments)
			n := mgl32.Vec3{
				float32(math.Sin(phi) * math.Cos(theta)),
				float32(math.Cos(phi)),
				float32(math.Sin(phi) * math.Sin(theta)),
			}
			positions = append(positions, n.Mul(radius))
			normals = append(normals, n)
		}
	}
	var indices []uint32
	stride := uint32(segments + 1)
	for r := 0; r < rings; r++ {
		for s := 0; s < segments; s++ {
			a := uint32(r)*stride + uint32(s)
			b := a + stride
			indices = append(indices, a, a+1, b, a+1, b+1, b)
		}
	}
	return NewGeometry(label, positions, normals, indices)
}
