package avatar

import (
	"math"

	"github.com/Carmen-Shannon/oxy-presence/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
)

// LocalAvatar is the head-driven IK rig of the local participant.
type LocalAvatar struct {
	Root     *scene.Node
	Head     *scene.Node
	Hair     *scene.Node
	Mouth    *scene.Node
	Torso    *scene.Node
	LeftArm  *scene.Node
	RightArm *scene.Node
	LeftLeg  *scene.Node
	RightLeg *scene.Node

	skin  skin
	mouth mouth

	headPos mgl32.Vec3
	lastPos mgl32.Vec3
	hasLast bool
	speed   float32

	// LeftHand and RightHand are the last solved hand targets.
	LeftHand  mgl32.Vec3
	RightHand mgl32.Vec3
}

func newLocalAvatar() *LocalAvatar {
	sk := newSkin("local")
	limb := bone("local-limb")
	a := &LocalAvatar{
		Head:     part("head", scene.Sphere("local-head", 0.12, 8, 12), sk.skin),
		Hair:     part("hair", scene.Box("local-hair", 0.22, 0.06, 0.22), sk.hair),
		Mouth:    part("mouth", scene.Box("local-mouth", 0.06, 0.02, 0.02), sk.lips),
		Torso:    part("torso", scene.Box("local-torso", 0.4, torsoLength, 0.2), sk.outfit),
		LeftArm:  part("arm-left", limb, sk.outfit),
		RightArm: part("arm-right", limb, sk.outfit),
		LeftLeg:  part("leg-left", limb, sk.outfit),
		RightLeg: part("leg-right", limb, sk.outfit),
		skin:     sk,
	}
	a.Root = scene.NewNode("avatar-local", scene.WithTag("avatar", "local"), scene.WithChildren(
		a.Head, a.Hair, a.Mouth, a.Torso, a.LeftArm, a.RightArm, a.LeftLeg, a.RightLeg,
	))
	return a
}

// solve poses every part from the head pose.
func (a *LocalAvatar) solve(rotation mgl32.Quat, position mgl32.Vec3, elapsed, dt float32) {
	h := NewHeadFrame(rotation, position)

	if a.hasLast && dt > 0 {
		d := position.Sub(a.lastPos)
		d[1] = 0
		a.speed = d.Len() / dt
	}
	a.lastPos = position
	a.hasLast = true
	a.headPos = position

	a.Head.SetPosition(position)
	a.Head.SetRotation(mgl32.Vec3{-h.Pitch, h.Yaw, 0})
	a.Hair.SetPosition(position.Add(h.Up.Mul(0.11)))
	a.Hair.SetRotation(mgl32.Vec3{-h.Pitch, h.Yaw, 0})
	a.Mouth.SetPosition(position.Add(h.Forward.Mul(0.11)).Sub(h.Up.Mul(0.05)))
	a.Mouth.SetRotation(mgl32.Vec3{-h.Pitch, h.Yaw, 0})

	neck := position.Sub(mgl32.Vec3{0, neckDrop, 0})
	a.Torso.SetPosition(neck.Sub(mgl32.Vec3{0, torsoLength / 2, 0}))
	a.Torso.SetRotation(mgl32.Vec3{0, h.Yaw, 0})

	ls, rs := h.Shoulders()
	a.LeftHand, a.RightHand = h.HandTarget(ls), h.HandTarget(rs)
	placeBone(a.LeftArm, LookAt(ls, a.LeftHand))
	placeBone(a.RightArm, LookAt(rs, a.RightHand))

	lh, rh := h.Hips()
	placeBone(a.LeftLeg, LookAt(lh, h.FootTarget(lh, LegSwing(elapsed, a.speed, 0))))
	placeBone(a.RightLeg, LookAt(rh, h.FootTarget(rh, LegSwing(elapsed, a.speed, math.Pi))))
}

// Speed returns the last measured horizontal head speed.
func (a *LocalAvatar) Speed() float32 {
	return a.speed
}

// MouthOpening returns the smoothed lip-sync opening in [0, 1].
func (a *LocalAvatar) MouthOpening() float32 {
	return a.mouth.level
}

func (a *LocalAvatar) setVoice(rms float32) {
	open := a.mouth.step(rms)
	a.Mouth.SetScale(mgl32.Vec3{1, 1 + open*3, 1})
}
