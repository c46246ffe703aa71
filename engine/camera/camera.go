package camera

import (
	"math"
	"sync"

	"github.com/Carmen-Shannon/oxy-presence/common"
	"github.com/go-gl/mathgl/mgl32"
)

type cameraImpl struct {
	mu *sync.Mutex

	up mgl32.Vec3

	fov    float32
	aspect float32
	near   float32
	far    float32

	viewMatrix           mgl32.Mat4
	projectionMatrix     mgl32.Mat4
	viewProjectionMatrix mgl32.Mat4

	controller CameraController
}

// Camera defines the interface for the camera system.
// The camera holds perspective settings and computes view/projection matrices
// from an attached CameraController each frame via Update().
type Camera interface {
	// Up returns the camera's reference up vector.
	Up() mgl32.Vec3

	// Fov returns the vertical field of view in radians.
	Fov() float32

	// Aspect returns the aspect ratio (width / height).
	Aspect() float32

	// Near returns the near clipping plane distance.
	Near() float32

	// Far returns the far clipping plane distance.
	Far() float32

	// Position returns the eye position reported by the controller.
	Position() mgl32.Vec3

	// Forward returns the normalized view direction.
	Forward() mgl32.Vec3

	// Right returns the normalized right vector of the view.
	Right() mgl32.Vec3

	// ViewUp returns the normalized up vector of the view, orthogonal to Forward.
	ViewUp() mgl32.Vec3

	// ViewMatrix returns the current view matrix.
	ViewMatrix() mgl32.Mat4

	// ProjectionMatrix returns the current projection matrix.
	ProjectionMatrix() mgl32.Mat4

	// ViewProjectionMatrix returns projection * view.
	ViewProjectionMatrix() mgl32.Mat4

	// ScreenRay builds a world-space ray through a pixel.
	//
	// Parameters:
	//   - x, y: pixel coordinates with the origin in the top-left corner
	//   - width, height: viewport size in pixels
	//
	// Returns:
	//   - common.Ray: a ray starting at the eye with a normalized direction
	ScreenRay(x, y float32, width, height int) common.Ray

	// Controller returns the attached CameraController.
	// Returns nil if no controller is attached.
	Controller() CameraController

	// Update reads position/target from controller and recomputes matrices.
	// Should be called once per frame (typically in the tick callback).
	// If no controller is attached, this method does nothing.
	Update()

	// SetFov sets the field of view in radians and recomputes matrices.
	SetFov(fov float32)

	// SetAspect sets the aspect ratio (width / height) and recomputes matrices.
	SetAspect(aspect float32)

	// SetNear sets the near clipping plane distance and recomputes matrices.
	SetNear(near float32)

	// SetFar sets the far clipping plane distance and recomputes matrices.
	SetFar(far float32)

	// SetController attaches a CameraController to the camera.
	SetController(ctrl CameraController)
}

var _ Camera = &cameraImpl{}

// NewCamera creates a new Camera with default perspective settings.
// When no controller is supplied a first-person controller at the origin is attached.
//
// Parameters:
//   - options: functional options to configure the camera
//
// Returns:
//   - Camera: the newly created camera
func NewCamera(options ...CameraBuilderOption) Camera {
	c := &cameraImpl{
		mu:     &sync.Mutex{},
		up:     common.WorldUp,
		fov:    60.0 * (math.Pi / 180.0), // radians
		aspect: 16.0 / 9.0,
		near:   0.05,
		far:    500.0,
	}
	for _, option := range options {
		option(c)
	}
	if c.controller == nil {
		c.controller = NewFirstPersonController()
	}
	c.updateMatrices()
	return c
}

func (c *cameraImpl) Up() mgl32.Vec3 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.up
}

func (c *cameraImpl) Fov() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fov
}

func (c *cameraImpl) Aspect() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.aspect
}

func (c *cameraImpl) Near() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.near
}

func (c *cameraImpl) Far() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.far
}

func (c *cameraImpl) Position() mgl32.Vec3 {
	c.mu.Lock()
	ctrl := c.controller
	c.mu.Unlock()
	if ctrl == nil {
		return mgl32.Vec3{}
	}
	return ctrl.Position()
}

func (c *cameraImpl) Forward() mgl32.Vec3 {
	c.mu.Lock()
	ctrl := c.controller
	c.mu.Unlock()
	if ctrl == nil {
		return mgl32.Vec3{0, 0, 1}
	}
	f := ctrl.Target().Sub(ctrl.Position())
	if f.LenSqr() < 1e-12 {
		return mgl32.Vec3{0, 0, 1}
	}
	return f.Normalize()
}

func (c *cameraImpl) Right() mgl32.Vec3 {
	right, _ := common.Basis(c.Forward())
	return right
}

func (c *cameraImpl) ViewUp() mgl32.Vec3 {
	_, up := common.Basis(c.Forward())
	return up
}

func (c *cameraImpl) ViewMatrix() mgl32.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewMatrix
}

func (c *cameraImpl) ProjectionMatrix() mgl32.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.projectionMatrix
}

func (c *cameraImpl) ViewProjectionMatrix() mgl32.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewProjectionMatrix
}

func (c *cameraImpl) ScreenRay(x, y float32, width, height int) common.Ray {
	c.mu.Lock()
	c.updateMatrices()
	view := c.viewMatrix
	proj := c.projectionMatrix
	ctrl := c.controller
	c.mu.Unlock()

	eye := mgl32.Vec3{}
	if ctrl != nil {
		eye = ctrl.Position()
	}
	if width <= 0 || height <= 0 {
		return common.Ray{Origin: eye, Direction: c.Forward()}
	}

	// UnProject expects window coordinates with the origin in the bottom-left corner.
	winY := float32(height) - y
	far, err := mgl32.UnProject(mgl32.Vec3{x, winY, 1}, view, proj, 0, 0, width, height)
	if err != nil {
		return common.Ray{Origin: eye, Direction: c.Forward()}
	}
	dir := far.Sub(eye)
	if dir.LenSqr() < 1e-12 {
		return common.Ray{Origin: eye, Direction: c.Forward()}
	}
	return common.Ray{Origin: eye, Direction: dir.Normalize()}
}

func (c *cameraImpl) SetFov(fov float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fov = fov
	c.updateMatrices()
}

func (c *cameraImpl) SetAspect(aspect float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.aspect = aspect
	c.updateMatrices()
}

func (c *cameraImpl) SetNear(near float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.near = near
	c.updateMatrices()
}

func (c *cameraImpl) SetFar(far float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.far = far
	c.updateMatrices()
}

func (c *cameraImpl) Controller() CameraController {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.controller
}

func (c *cameraImpl) Update() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.controller == nil {
		return
	}
	c.updateMatrices()
}

func (c *cameraImpl) SetController(ctrl CameraController) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.controller = ctrl
	c.updateMatrices()
}

// updateMatrices recalculates the view, projection and view-projection matrices.
// It reads position and target from the attached controller. This is a no-op when the controller is nil.
// Caller must hold the mutex.
func (c *cameraImpl) updateMatrices() {
	if c.controller == nil {
		return
	}

	eye := c.controller.Position()
	target := c.controller.Target()
	if target.Sub(eye).LenSqr() < 1e-12 {
		target = eye.Add(mgl32.Vec3{0, 0, 1})
	}

	c.viewMatrix = mgl32.LookAtV(eye, target, c.up)
	c.projectionMatrix = mgl32.Perspective(c.fov, c.aspect, c.near, c.far)
	c.viewProjectionMatrix = c.projectionMatrix.Mul4(c.viewMatrix)
}
