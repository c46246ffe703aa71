package interaction

import (
	"github.com/Carmen-Shannon/oxy-presence/common"
	"github.com/Carmen-Shannon/oxy-presence/engine/camera"
	"github.com/Carmen-Shannon/oxy-presence/engine/input"
	"github.com/Carmen-Shannon/oxy-presence/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
)

// PointerKind distinguishes desktop pointers from tracked controllers.
type PointerKind int

const (
	// PointerNone casts no ray this tick.
	PointerNone PointerKind = iota
	// PointerDesktop is a mouse or touch point unprojected through the camera.
	PointerDesktop
	// PointerController is a tracked VR controller. Its node is the grab anchor.
	PointerController
)

// Pointer is the single ray the interaction layer casts in one tick.
type Pointer struct {
	Kind PointerKind
	Ray  common.Ray
	// Anchor is the controller node grabbed objects are reparented to.
	Anchor *scene.Node
}

// DesktopPointer unprojects the control state's pointer through the camera.
//
// Parameters:
//   - cam: the active camera
//   - ctl: this tick's control state
//   - width: viewport width in pixels
//   - height: viewport height in pixels
//
// Returns:
//   - Pointer: a desktop pointer, or PointerNone when there is no cursor
func DesktopPointer(cam camera.Camera, ctl input.ControlState, width, height int) Pointer {
	if cam == nil || !ctl.HasPointer || width <= 0 || height <= 0 {
		return Pointer{}
	}
	return Pointer{
		Kind: PointerDesktop,
		Ray:  cam.ScreenRay(ctl.Pointer.X(), ctl.Pointer.Y(), width, height),
	}
}

// ControllerPointer casts along the controller node's local +Z axis from its world position.
func ControllerPointer(controller *scene.Node) Pointer {
	if controller == nil || !controller.Attached() {
		return Pointer{}
	}
	world := controller.WorldMatrix()
	dir := world.Mul4x1(mgl32.Vec4{0, 0, 1, 0}).Vec3()
	if dir.Len() == 0 {
		return Pointer{}
	}
	return Pointer{
		Kind:   PointerController,
		Ray:    common.Ray{Origin: controller.WorldPosition(), Direction: dir.Normalize()},
		Anchor: controller,
	}
}
