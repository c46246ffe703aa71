package renderer

import (
	"github.com/Carmen-Shannon/oxy-presence/common"
	"github.com/Carmen-Shannon/oxy-presence/engine/light"
	"github.com/Carmen-Shannon/oxy-presence/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
)

// Triangle is one world-space face with its shaded color.
type Triangle struct {
	A, B, C mgl32.Vec3
	Color   common.Color
}

// VisitTriangles walks every effectively visible mesh of s, skips meshes whose bounding sphere
// lies outside the frustum of viewProj, shades each face with flat lambert lighting and calls fn.
//
// Parameters:
//   - s: the scene to walk
//   - viewProj: projection * view of the active camera
//   - fn: called once per visible triangle
//
// Returns:
//   - FrameStats: meshes drawn, meshes culled and triangles emitted
func VisitTriangles(s scene.Scene, viewProj mgl32.Mat4, fn func(Triangle)) FrameStats {
	var stats FrameStats
	frustum := common.ExtractFrustum(viewProj)
	lights := s.Lights()
	ambient := s.Ambient()

	for _, n := range s.Meshes() {
		if !n.EffectivelyVisible() {
			continue
		}
		bounds := n.WorldBounds()
		if bounds.Valid() && !frustum.ContainsSphere(bounds.Center(), bounds.Radius()) {
			stats.Culled++
			continue
		}
		stats.Meshes++

		geo := n.Geometry()
		mat := n.Material()
		world := n.WorldMatrix()
		highlight, highlighted := n.Highlight()

		for i := 0; i+2 < len(geo.Indices); i += 3 {
			ia, ib, ic := geo.Indices[i], geo.Indices[i+1], geo.Indices[i+2]
			if int(ia) >= len(geo.Positions) || int(ib) >= len(geo.Positions) || int(ic) >= len(geo.Positions) {
				continue
			}
			a := world.Mul4x1(geo.Positions[ia].Vec4(1)).Vec3()
			b := world.Mul4x1(geo.Positions[ib].Vec4(1)).Vec3()
			c := world.Mul4x1(geo.Positions[ic].Vec4(1)).Vec3()

			normal := b.Sub(a).Cross(c.Sub(a))
			if normal.LenSqr() < 1e-12 {
				continue
			}
			normal = normal.Normalize()
			centroid := a.Add(b).Add(c).Mul(1.0 / 3.0)

			color := ShadeFace(mat, lights, ambient, centroid, normal)
			if highlighted {
				color = color.Add(highlight)
			}
			fn(Triangle{A: a, B: b, C: c, Color: clampColor(color)})
			stats.Triangles++
		}
	}
	return stats
}

// ShadeFace computes the flat color of one face. Faces are lit from both sides.
func ShadeFace(mat *scene.Material, lights []light.Light, ambient common.Color, point, normal mgl32.Vec3) common.Color {
	base := mat.Color
	if mat.Texture != nil {
		base = modulate(base, mat.Texture.Sample(point.X(), point.Z()))
	}
	if mat.Unlit {
		return base.Add(mat.Emissive)
	}
	lit := modulate(base, ambient)
	for _, l := range lights {
		c := l.Contribution(point, normal)
		back := l.Contribution(point, normal.Mul(-1))
		lit = lit.Add(modulate(base, c.Add(back)))
	}
	return lit.Add(mat.Emissive)
}

func modulate(a, b common.Color) common.Color {
	return common.Color{a[0] * b[0], a[1] * b[1], a[2] * b[2], a[3]}
}

func clampColor(c common.Color) common.Color {
	for i := range c {
		c[i] = mgl32.Clamp(c[i], 0, 1)
	}
	return c
}
