package camera

import "github.com/go-gl/mathgl/mgl32"

// CameraController supplies the eye position and look target for a Camera.
// Cameras read them once per Update.
type CameraController interface {
	// Position returns the eye position in world space.
	Position() mgl32.Vec3

	// Target returns the point the camera looks at.
	Target() mgl32.Vec3

	// SetPosition moves the eye.
	SetPosition(p mgl32.Vec3)

	// SetTarget changes the look target.
	SetTarget(t mgl32.Vec3)
}

// OrbitController orbits a target on a sphere and pans target and eye together.
// The studio module uses it for its editing camera.
type OrbitController interface {
	CameraController
	orbitCameraController
	planarCameraController

	// Zoom moves the eye toward (positive) or away from (negative) the target.
	Zoom(delta float32)
}

// FirstPersonController is a yaw/pitch eye used for walking, flying and head tracking.
type FirstPersonController interface {
	CameraController

	// Yaw returns the heading in radians; 0 looks down +Z.
	Yaw() float32

	// Pitch returns the elevation in radians; positive looks up.
	Pitch() float32

	// SetYawPitch sets both angles, clamping pitch.
	SetYawPitch(yaw, pitch float32)

	// Rotate adds deltas to yaw and pitch, clamping pitch.
	Rotate(deltaYaw, deltaPitch float32)

	// ResetRotation faces +Z with zero pitch.
	ResetRotation()

	// Forward returns the view direction.
	Forward() mgl32.Vec3

	// FlatForward returns the view direction projected onto the ground plane.
	FlatForward() mgl32.Vec3

	// Right returns the horizontal right vector.
	Right() mgl32.Vec3

	// Translate moves the eye by a world-space offset.
	Translate(offset mgl32.Vec3)

	// Orientation returns the eye rotation as a quaternion.
	Orientation() mgl32.Quat
}

type orbitCameraController interface {
	// OrbitLeft rotates the camera left around the target by OrbitSpeed.
	OrbitLeft()

	// OrbitRight rotates the camera right around the target by OrbitSpeed.
	OrbitRight()

	// OrbitUp raises the camera elevation by OrbitSpeed, clamped to MaxElevation.
	OrbitUp()

	// OrbitDown lowers the camera elevation by OrbitSpeed, clamped to MinElevation.
	OrbitDown()

	// Radius returns the current distance from the target.
	Radius() float32

	// SetRadius sets the distance from the target, clamped to [MinRadius, MaxRadius].
	SetRadius(radius float32)

	// Azimuth returns the horizontal angle around the Y axis in radians.
	Azimuth() float32

	// SetAzimuth sets the horizontal angle in radians.
	SetAzimuth(azimuth float32)

	// Elevation returns the vertical angle from the horizontal plane in radians.
	Elevation() float32

	// SetElevation sets the vertical angle, clamped to [MinElevation, MaxElevation].
	SetElevation(elevation float32)

	// MouseSensitivity returns the radians-per-pixel factor for mouse drags.
	MouseSensitivity() float32
}

type planarCameraController interface {
	// PanRight translates eye and target along the camera's horizontal right axis.
	PanRight(delta float32)

	// PanUp translates eye and target along the camera's up axis.
	PanUp(delta float32)

	// PanForward translates eye and target along the view direction.
	PanForward(delta float32)
}
