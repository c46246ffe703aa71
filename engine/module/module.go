// Package module defines the unit of experience the engine core registers and switches
// between. A module owns its rooms and behaviour; the engine owns the adapter, scene,
// camera and the shared subsystems it hands to the module through Host.
package module

import (
	"context"
	"errors"
	"log"

	"github.com/Carmen-Shannon/oxy-presence/engine/audio"
	"github.com/Carmen-Shannon/oxy-presence/engine/avatar"
	"github.com/Carmen-Shannon/oxy-presence/engine/camera"
	"github.com/Carmen-Shannon/oxy-presence/engine/input"
	"github.com/Carmen-Shannon/oxy-presence/engine/interaction"
	"github.com/Carmen-Shannon/oxy-presence/engine/movement"
	"github.com/Carmen-Shannon/oxy-presence/engine/renderer"
	"github.com/Carmen-Shannon/oxy-presence/engine/room"
	"github.com/Carmen-Shannon/oxy-presence/engine/scene"
	"github.com/Carmen-Shannon/oxy-presence/engine/xr"
)

// ErrRoomSwitchUnsupported is returned when a room switch reaches a module that has no rooms.
var ErrRoomSwitchUnsupported = errors.New("module does not support room switching")

// Module is a registrable experience. Exactly one is active at a time.
type Module interface {
	// Name is the registration key.
	Name() string

	// RendererKind selects the adapter the engine instantiates when the module loads.
	RendererKind() renderer.Kind

	// Init binds the module to the scene and camera created for this load.
	//
	// Parameters:
	//   - s: the scene created by the module's adapter
	//   - cam: the camera created by the module's adapter
	//   - host: the engine core
	//
	// Returns:
	//   - error: the engine unloads the module again when Init fails
	Init(s scene.Scene, cam camera.Camera, host Host) error

	// Update runs once per tick after every engine subsystem.
	Update(delta float32)

	// Dispose releases what the module created itself. The engine disposes the scene,
	// rooms and adapter afterwards.
	Dispose() error

	// SupportsRoomSwitching reports whether RequestRoomSwitch is routed to this module.
	SupportsRoomSwitching() bool

	// IsStandalone reports whether the module renders itself. The engine skips its render
	// call for standalone modules.
	IsStandalone() bool

	// Rooms lists the rooms the module offers to the shell.
	Rooms() []string
}

// RoomSwitcher is implemented by modules that support room switching.
type RoomSwitcher interface {
	// SwitchRoom moves the module to the named room. It must not block the tick.
	SwitchRoom(name string) error
}

// Host is the engine as a module sees it. Every accessor returns the instance bound to the
// current module load; optional subsystems return nil when the engine runs without them.
type Host interface {
	Context() context.Context
	Logger() *log.Logger

	Adapter() renderer.Adapter
	Renderer() renderer.Renderer
	// Size returns the framebuffer size in pixels.
	Size() (width, height int)

	Rooms() room.Manager
	Interaction() interaction.Layer
	Movement() movement.Controller
	XR() xr.Session
	Avatars() avatar.Manager
	Audio() audio.Graph

	// Control returns the control state polled this tick.
	Control() input.ControlState

	// RequestRoomSwitch queues a room switch for the next tick.
	RequestRoomSwitch(name string) error
}
