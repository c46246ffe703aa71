package avatar

import (
	"hash/fnv"
	"math"

	"github.com/Carmen-Shannon/oxy-presence/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	// Smoothing is the fraction of the remaining distance covered each frame.
	Smoothing float32 = 0.15

	pulseAmplitude float32 = 0.02
	pulseFreq      float32 = 0.5
)

// NetworkAvatar is a remote participant's simplified rig.
type NetworkAvatar struct {
	ID   string
	Name string

	Root  *scene.Node
	Body  *scene.Node
	Head  *scene.Node
	Mouth *scene.Node
	Label *scene.Node

	position mgl32.Vec3
	target   mgl32.Vec3
	rotation mgl32.Vec3
	phase    float32
	mouth    mouth
}

func newNetworkAvatar(id, name string, position, rotation mgl32.Vec3) *NetworkAvatar {
	sk := newSkin("net-" + id)
	a := &NetworkAvatar{
		ID:       id,
		Name:     name,
		Body:     part("body", scene.Cylinder("net-body", 0.2, 0.9, 12), sk.outfit),
		Head:     part("head", scene.Sphere("net-head", 0.13, 8, 12), sk.skin),
		Mouth:    part("mouth", scene.Box("net-mouth", 0.06, 0.02, 0.02), sk.lips),
		Label:    scene.NewMesh("label", scene.Quad("net-label", 0.6, 0.15), sk.hair, scene.WithPickable(false), scene.WithLabel(name)),
		position: position,
		target:   position,
		rotation: rotation,
		phase:    idPhase(id),
	}
	a.Body.SetPosition(mgl32.Vec3{0, -0.75, 0})
	a.Mouth.SetPosition(mgl32.Vec3{0, -0.05, 0.12})
	a.Label.SetPosition(mgl32.Vec3{0, 0.35, 0})
	a.Root = scene.NewNode("avatar-"+id,
		scene.WithPosition(position),
		scene.WithRotation(rotation),
		scene.WithTag("avatar", id),
		scene.WithLabel(name),
		scene.WithChildren(a.Body, a.Head, a.Mouth, a.Label),
	)
	return a
}

func idPhase(id string) float32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	return float32(h.Sum32()%1000) / 1000 * 2 * math.Pi
}

// Position returns the interpolated position.
func (a *NetworkAvatar) Position() mgl32.Vec3 {
	return a.position
}

// Target returns the latest received position.
func (a *NetworkAvatar) Target() mgl32.Vec3 {
	return a.target
}

// Rotation returns the latest received rotation.
func (a *NetworkAvatar) Rotation() mgl32.Vec3 {
	return a.rotation
}

// MouthOpening returns the smoothed lip-sync opening in [0, 1].
func (a *NetworkAvatar) MouthOpening() float32 {
	return a.mouth.level
}

func (a *NetworkAvatar) sample(position, rotation mgl32.Vec3) {
	a.target = position
	a.rotation = rotation
	a.Root.SetRotation(rotation)
}

// step advances interpolation and the idle pulse by one frame.
func (a *NetworkAvatar) step(elapsed float32) {
	a.position = a.position.Add(a.target.Sub(a.position).Mul(Smoothing))
	a.Root.SetPosition(a.position)
	pulse := 1 + pulseAmplitude*float32(math.Sin(float64(2*math.Pi*pulseFreq*elapsed+a.phase)))
	a.Body.SetScale(mgl32.Vec3{1, pulse, 1})
}

func (a *NetworkAvatar) setVoice(rms float32) {
	open := a.mouth.step(rms)
	a.Mouth.SetScale(mgl32.Vec3{1, 1 + open*3, 1})
}
