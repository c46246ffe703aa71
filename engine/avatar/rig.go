package avatar

import (
	"github.com/Carmen-Shannon/oxy-presence/common"
	"github.com/Carmen-Shannon/oxy-presence/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
)

// mouth tracks a smoothed mouth opening from a voice level.
type mouth struct {
	level float32
}

const (
	mouthGain    float32 = 6
	mouthAttack  float32 = 0.5
	mouthRelease float32 = 0.15
)

// step moves the opening toward the level implied by an RMS amplitude in [0, 1].
// Opening is fast and closing is slow so speech reads as continuous.
func (m *mouth) step(rms float32) float32 {
	target := mgl32.Clamp(rms*mouthGain, 0, 1)
	k := mouthRelease
	if target > m.level {
		k = mouthAttack
	}
	m.level += (target - m.level) * k
	return m.level
}

// materials shared by one avatar's parts.
type skin struct {
	skin   *scene.Material
	outfit *scene.Material
	hair   *scene.Material
	lips   *scene.Material
}

func newSkin(label string) skin {
	return skin{
		skin:   scene.NewMaterial(label+"-skin", common.RGB(0.85, 0.68, 0.55)),
		outfit: scene.NewMaterial(label+"-outfit", common.RGB(0.25, 0.35, 0.6)),
		hair:   scene.NewMaterial(label+"-hair", common.RGB(0.2, 0.13, 0.08)),
		lips:   scene.NewMaterial(label+"-mouth", common.RGB(0.35, 0.1, 0.1)),
	}
}

func part(name string, g *scene.Geometry, m *scene.Material) *scene.Node {
	return scene.NewMesh(name, g, m, scene.WithPickable(false))
}

// bone is a unit-length box along +Z, stretched by the node's Z scale.
func bone(label string) *scene.Geometry {
	return scene.Box(label, 0.09, 0.09, 1)
}

func placeBone(n *scene.Node, s Segment) {
	n.SetPosition(s.Center)
	n.SetRotation(s.Rotation)
	n.SetScale(mgl32.Vec3{1, 1, mgl32.Clamp(s.Length, 0.001, 10)})
}
