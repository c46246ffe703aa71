package interaction

import "github.com/Carmen-Shannon/oxy-presence/engine/scene"

// Callbacks are the hooks an Interactable exposes. Any of them may be nil.
type Callbacks struct {
	// OnInteract fires on a desktop click or a VR trigger on a non-grabbable object.
	OnInteract func(n *scene.Node)
	// OnHover fires with true when the ray starts hitting the object and false when it stops.
	OnHover func(n *scene.Node, hovered bool)
	// OnGrab fires after the object has been reparented to the controller.
	OnGrab func(n *scene.Node)
	// OnRelease fires after the object has been returned to its original parent.
	OnRelease func(n *scene.Node)
}

// Interactable binds behavior to a mesh by node id.
type Interactable struct {
	MeshID    uint64
	Grabbable bool
	Callbacks Callbacks
}
