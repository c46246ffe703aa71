package camera

import (
	"math"
	"sync"

	"github.com/Carmen-Shannon/oxy-presence/common"
	"github.com/go-gl/mathgl/mgl32"
)

// maxPitch keeps the view just short of straight up or down so LookAt never degenerates.
const maxPitch = float32(89.0 * math.Pi / 180.0)

type firstPersonControllerImpl struct {
	mu *sync.Mutex

	position mgl32.Vec3
	yaw      float32
	pitch    float32
}

var _ FirstPersonController = &firstPersonControllerImpl{}

// NewFirstPersonController creates a yaw/pitch controller at the origin facing +Z.
//
// Parameters:
//   - options: functional options to configure the controller
//
// Returns:
//   - FirstPersonController: the newly created controller
func NewFirstPersonController(options ...FirstPersonControllerOption) FirstPersonController {
	fp := &firstPersonControllerImpl{
		mu: &sync.Mutex{},
	}
	for _, option := range options {
		option(fp)
	}
	fp.pitch = mgl32.Clamp(fp.pitch, -maxPitch, maxPitch)
	return fp
}

func (fp *firstPersonControllerImpl) Position() mgl32.Vec3 {
	fp.mu.Lock()
	defer fp.mu.Unlock()
	return fp.position
}

func (fp *firstPersonControllerImpl) SetPosition(p mgl32.Vec3) {
	fp.mu.Lock()
	defer fp.mu.Unlock()
	fp.position = p
}

func (fp *firstPersonControllerImpl) Target() mgl32.Vec3 {
	fp.mu.Lock()
	defer fp.mu.Unlock()
	return fp.position.Add(common.ForwardFromYawPitch(fp.yaw, fp.pitch))
}

// SetTarget turns the eye to look at t.
func (fp *firstPersonControllerImpl) SetTarget(t mgl32.Vec3) {
	fp.mu.Lock()
	defer fp.mu.Unlock()
	dir := t.Sub(fp.position)
	if dir.LenSqr() < 1e-12 {
		return
	}
	dir = dir.Normalize()
	fp.yaw = float32(math.Atan2(float64(dir.X()), float64(dir.Z())))
	fp.pitch = mgl32.Clamp(float32(math.Asin(float64(dir.Y()))), -maxPitch, maxPitch)
}

func (fp *firstPersonControllerImpl) Yaw() float32 {
	fp.mu.Lock()
	defer fp.mu.Unlock()
	return fp.yaw
}

func (fp *firstPersonControllerImpl) Pitch() float32 {
	fp.mu.Lock()
	defer fp.mu.Unlock()
	return fp.pitch
}

func (fp *firstPersonControllerImpl) SetYawPitch(yaw, pitch float32) {
	fp.mu.Lock()
	defer fp.mu.Unlock()
	fp.yaw = common.WrapAngle(yaw)
	fp.pitch = mgl32.Clamp(pitch, -maxPitch, maxPitch)
}

func (fp *firstPersonControllerImpl) Rotate(deltaYaw, deltaPitch float32) {
	fp.mu.Lock()
	defer fp.mu.Unlock()
	fp.yaw = common.WrapAngle(fp.yaw + deltaYaw)
	fp.pitch = mgl32.Clamp(fp.pitch+deltaPitch, -maxPitch, maxPitch)
}

func (fp *firstPersonControllerImpl) ResetRotation() {
	fp.mu.Lock()
	defer fp.mu.Unlock()
	fp.yaw = 0
	fp.pitch = 0
}

func (fp *firstPersonControllerImpl) Forward() mgl32.Vec3 {
	fp.mu.Lock()
	defer fp.mu.Unlock()
	return common.ForwardFromYawPitch(fp.yaw, fp.pitch)
}

func (fp *firstPersonControllerImpl) FlatForward() mgl32.Vec3 {
	fp.mu.Lock()
	defer fp.mu.Unlock()
	return common.ForwardFromYawPitch(fp.yaw, 0)
}

func (fp *firstPersonControllerImpl) Right() mgl32.Vec3 {
	fp.mu.Lock()
	defer fp.mu.Unlock()
	right, _ := common.Basis(common.ForwardFromYawPitch(fp.yaw, 0))
	return right
}

func (fp *firstPersonControllerImpl) Translate(offset mgl32.Vec3) {
	fp.mu.Lock()
	defer fp.mu.Unlock()
	fp.position = fp.position.Add(offset)
}

func (fp *firstPersonControllerImpl) Orientation() mgl32.Quat {
	fp.mu.Lock()
	defer fp.mu.Unlock()
	// pitch is negated: a positive X rotation tips +Z downward.
	return common.EulerToQuat(mgl32.Vec3{-fp.pitch, fp.yaw, 0})
}

// FirstPersonControllerOption is a functional option for configuring a FirstPersonController.
type FirstPersonControllerOption func(*firstPersonControllerImpl)

// WithEyePosition sets the initial eye position.
func WithEyePosition(p mgl32.Vec3) FirstPersonControllerOption {
	return func(fp *firstPersonControllerImpl) {
		fp.position = p
	}
}

// WithYawPitch sets the initial view angles in radians.
func WithYawPitch(yaw, pitch float32) FirstPersonControllerOption {
	return func(fp *firstPersonControllerImpl) {
		fp.yaw = yaw
		fp.pitch = pitch
	}
}
