package avatar

import (
	"math"

	"github.com/Carmen-Shannon/oxy-presence/common"
	"github.com/go-gl/mathgl/mgl32"
)

// Body proportions in meters, measured from the tracked head.
const (
	neckDrop       float32 = 0.3
	shoulderHalf   float32 = 0.22
	torsoLength    float32 = 0.6
	hipHalf        float32 = 0.1
	legLength      float32 = 0.85
	handReach      float32 = 0.35
	handDrop       float32 = 0.35
	strideFreq     float32 = 1.6
	strideMax      float32 = 0.5
	strideIdle     float32 = 0.03
	walkSpeedScale float32 = 0.35
)

// HeadFrame is the head pose broken into the vectors the solver needs.
type HeadFrame struct {
	Position    mgl32.Vec3
	Forward     mgl32.Vec3
	Up          mgl32.Vec3
	FlatForward mgl32.Vec3
	FlatRight   mgl32.Vec3
	Yaw, Pitch  float32
}

// NewHeadFrame derives the solver vectors from a head orientation. Yaw 0 faces +Z.
func NewHeadFrame(rotation mgl32.Quat, position mgl32.Vec3) HeadFrame {
	f := rotation.Rotate(mgl32.Vec3{0, 0, 1}).Normalize()
	up := rotation.Rotate(common.WorldUp).Normalize()
	yaw := float32(math.Atan2(float64(f.X()), float64(f.Z())))
	pitch := float32(math.Asin(float64(mgl32.Clamp(f.Y(), -1, 1))))
	flat := common.ForwardFromYawPitch(yaw, 0)
	right, _ := common.Basis(flat)
	return HeadFrame{Position: position, Forward: f, Up: up, FlatForward: flat, FlatRight: right, Yaw: yaw, Pitch: pitch}
}

// Shoulders returns the left and right shoulder anchors.
func (h HeadFrame) Shoulders() (left, right mgl32.Vec3) {
	neck := h.Position.Sub(mgl32.Vec3{0, neckDrop, 0})
	return neck.Sub(h.FlatRight.Mul(shoulderHalf)), neck.Add(h.FlatRight.Mul(shoulderHalf))
}

// HandTarget offsets a shoulder along the head's forward and down vectors.
func (h HeadFrame) HandTarget(shoulder mgl32.Vec3) mgl32.Vec3 {
	return shoulder.Add(h.Forward.Mul(handReach)).Sub(h.Up.Mul(handDrop))
}

// Hips returns the left and right hip joints.
func (h HeadFrame) Hips() (left, right mgl32.Vec3) {
	pelvis := h.Position.Sub(mgl32.Vec3{0, neckDrop + torsoLength, 0})
	return pelvis.Sub(h.FlatRight.Mul(hipHalf)), pelvis.Add(h.FlatRight.Mul(hipHalf))
}

// Segment is a bone stretched between two points.
type Segment struct {
	Center   mgl32.Vec3
	Rotation mgl32.Vec3
	Length   float32
}

// LookAt points a +Z-aligned bone from a to b.
func LookAt(a, b mgl32.Vec3) Segment {
	d := b.Sub(a)
	l := d.Len()
	if l < 1e-6 {
		return Segment{Center: a}
	}
	dir := d.Mul(1 / l)
	yaw := float32(math.Atan2(float64(dir.X()), float64(dir.Z())))
	// a positive X rotation tips +Z downward
	pitch := -float32(math.Asin(float64(mgl32.Clamp(dir.Y(), -1, 1))))
	return Segment{Center: common.LerpVec3(a, b, 0.5), Rotation: mgl32.Vec3{pitch, yaw, 0}, Length: l}
}

// Direction returns the unit vector the segment points along.
func (s Segment) Direction() mgl32.Vec3 {
	return common.EulerToQuat(s.Rotation).Rotate(mgl32.Vec3{0, 0, 1})
}

// LegSwing is the sinusoidal walk cycle. The two legs run half a period apart and the
// amplitude grows with ground speed.
//
// Parameters:
//   - elapsed: seconds since the avatar was created
//   - speed: horizontal speed in meters per second
//   - phase: 0 for the left leg, pi for the right
//
// Returns:
//   - float32: swing angle in radians, positive forward
func LegSwing(elapsed, speed, phase float32) float32 {
	amp := mgl32.Clamp(speed*walkSpeedScale, strideIdle, strideMax)
	return amp * float32(math.Sin(float64(2*math.Pi*strideFreq*elapsed+phase)))
}

// FootTarget swings a leg of fixed length from the hip.
func (h HeadFrame) FootTarget(hip mgl32.Vec3, swing float32) mgl32.Vec3 {
	s, c := float32(math.Sin(float64(swing))), float32(math.Cos(float64(swing)))
	dir := h.FlatForward.Mul(s).Sub(common.WorldUp.Mul(c))
	return hip.Add(dir.Mul(legLength))
}
