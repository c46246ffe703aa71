package common

import (
	"math"
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
)

// EyeHeight is the default standing eye height in meters.
const EyeHeight float32 = 1.6

// WorldUp is the engine's up axis.
var WorldUp = mgl32.Vec3{0, 1, 0}

// SliceToBytes converts any slice to a byte slice for GPU buffer uploads.
// Uses unsafe pointer operations to create a view into the original data.
// WARNING: The returned slice shares memory with the input - do not modify.
//
// Parameters:
//   - data: source slice of any type
//
// Returns:
//   - []byte: byte slice view of the input data, or nil if input is empty
func SliceToBytes[T any](data []T) []byte {
	if len(data) == 0 {
		return nil
	}
	var zero T
	size := unsafe.Sizeof(zero)
	totalBytes := int(size) * len(data)
	return unsafe.Slice((*byte)(unsafe.Pointer(&data[0])), totalBytes)
}

// EulerToQuat converts Euler angles (radians) into a quaternion using the Y * X * Z order,
// i.e. yaw first, then pitch, then roll.
//
// Parameters:
//   - euler: pitch (X), yaw (Y) and roll (Z) in radians
//
// Returns:
//   - mgl32.Quat: the equivalent rotation
func EulerToQuat(euler mgl32.Vec3) mgl32.Quat {
	return mgl32.AnglesToQuat(euler[1], euler[0], euler[2], mgl32.YXZ)
}

// ModelMatrix constructs a 4x4 model matrix from position, Euler rotation, and scale.
// The rotation order is Y * X * Z (yaw-pitch-roll). All matrices are column-major.
//
// Parameters:
//   - position: translation in world space
//   - rotation: rotation angles in radians around each axis
//   - scale: scale factors along each axis
//
// Returns:
//   - mgl32.Mat4: T * R * S
func ModelMatrix(position, rotation, scale mgl32.Vec3) mgl32.Mat4 {
	t := mgl32.Translate3D(position[0], position[1], position[2])
	r := EulerToQuat(rotation).Mat4()
	s := mgl32.Scale3D(scale[0], scale[1], scale[2])
	return t.Mul4(r).Mul4(s)
}

// ForwardFromYawPitch returns the unit view direction for a yaw/pitch pair. Yaw 0 looks down +Z.
//
// Parameters:
//   - yaw: rotation about the world up axis in radians
//   - pitch: elevation in radians, positive looks up
//
// Returns:
//   - mgl32.Vec3: the normalized forward vector
func ForwardFromYawPitch(yaw, pitch float32) mgl32.Vec3 {
	cp := float32(math.Cos(float64(pitch)))
	return mgl32.Vec3{
		cp * float32(math.Sin(float64(yaw))),
		float32(math.Sin(float64(pitch))),
		cp * float32(math.Cos(float64(yaw))),
	}.Normalize()
}

// Basis returns the right and up vectors for a forward direction, using WorldUp as reference.
// When forward is parallel to WorldUp the +X axis is used as right.
func Basis(forward mgl32.Vec3) (right, up mgl32.Vec3) {
	right = forward.Cross(WorldUp)
	if right.LenSqr() < 1e-8 {
		right = mgl32.Vec3{1, 0, 0}
	}
	right = right.Normalize()
	up = right.Cross(forward).Normalize()
	return right, up
}

// Lerp linearly interpolates between a and b.
func Lerp(a, b, t float32) float32 {
	return a + (b-a)*t
}

// LerpVec3 linearly interpolates between two vectors.
func LerpVec3(a, b mgl32.Vec3, t float32) mgl32.Vec3 {
	return a.Add(b.Sub(a).Mul(t))
}

// WrapAngle folds an angle into the (-pi, pi] range.
func WrapAngle(a float32) float32 {
	for a > math.Pi {
		a -= 2 * math.Pi
	}
	for a <= -math.Pi {
		a += 2 * math.Pi
	}
	return a
}

// ClampDisc clamps a 2D vector to the unit disc, preserving its direction.
//
// Parameters:
//   - x, y: the raw stick or joystick vector
//
// Returns:
//   - float32, float32: the clamped vector with magnitude <= 1
func ClampDisc(x, y float32) (float32, float32) {
	mag := float32(math.Sqrt(float64(x*x + y*y)))
	if mag <= 1 || mag == 0 {
		return x, y
	}
	return x / mag, y / mag
}

// Snap rounds v to the nearest multiple of step. A non-positive step returns v unchanged.
func Snap(v, step float32) float32 {
	if step <= 0 {
		return v
	}
	return float32(math.Round(float64(v/step))) * step
}

// SnapVec3 snaps every component of v to the grid step.
func SnapVec3(v mgl32.Vec3, step float32) mgl32.Vec3 {
	return mgl32.Vec3{Snap(v[0], step), Snap(v[1], step), Snap(v[2], step)}
}
