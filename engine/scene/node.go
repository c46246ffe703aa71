package scene

import (
	"github.com/Carmen-Shannon/oxy-presence/common"
	"github.com/go-gl/mathgl/mgl32"
)

// Node is one element of the scene graph. A node with geometry and material is a mesh;
// a node without them is a transform group.
//
// Nodes are created detached (ID 0) and receive an id when added to a Scene.
type Node struct {
	id       uint64
	name     string
	scene    *sceneImpl
	parent   *Node
	children []*Node

	transform common.Transform
	visible   bool
	pickable  bool

	geometry *Geometry
	material *Material

	highlight    common.Color
	hasHighlight bool

	label string
	tags  map[string]string
}

// NewNode creates a detached node with an identity transform.
//
// Parameters:
//   - name: debug name of the node
//   - options: functional options applied to the node
//
// Returns:
//   - *Node: the new node
func NewNode(name string, options ...NodeBuilderOption) *Node {
	n := &Node{
		name:      name,
		transform: common.NewTransform(mgl32.Vec3{}),
		visible:   true,
		pickable:  true,
	}
	for _, opt := range options {
		opt(n)
	}
	return n
}

// NewMesh creates a detached mesh node.
func NewMesh(name string, geometry *Geometry, material *Material, options ...NodeBuilderOption) *Node {
	n := NewNode(name, options...)
	n.geometry = geometry
	n.material = material
	return n
}

// ID returns the scene-unique id, or 0 when detached.
func (n *Node) ID() uint64 { return n.id }

// Name returns the debug name.
func (n *Node) Name() string { return n.name }

// Parent returns the parent node, or nil for the root and detached nodes.
func (n *Node) Parent() *Node { return n.parent }

// Children returns a copy of the child list.
func (n *Node) Children() []*Node {
	out := make([]*Node, len(n.children))
	copy(out, n.children)
	return out
}

// Attached reports whether the node is registered in a scene.
func (n *Node) Attached() bool { return n.scene != nil }

// Geometry returns the mesh geometry, or nil for group nodes.
func (n *Node) Geometry() *Geometry { return n.geometry }

// Material returns the mesh material, or nil for group nodes.
func (n *Node) Material() *Material { return n.material }

// IsMesh reports whether the node carries drawable geometry.
func (n *Node) IsMesh() bool { return n.geometry != nil && n.material != nil }

// Transform returns the local transform.
func (n *Node) Transform() common.Transform { return n.transform }

// SetTransform replaces the local transform.
func (n *Node) SetTransform(t common.Transform) { n.transform = t }

// Position returns the local position.
func (n *Node) Position() mgl32.Vec3 { return n.transform.Position }

// SetPosition sets the local position.
func (n *Node) SetPosition(p mgl32.Vec3) { n.transform.Position = p }

// Rotation returns the local Euler rotation in radians.
func (n *Node) Rotation() mgl32.Vec3 { return n.transform.Rotation }

// SetRotation sets the local Euler rotation in radians.
func (n *Node) SetRotation(r mgl32.Vec3) { n.transform.Rotation = r }

// Scale returns the local scale.
func (n *Node) Scale() mgl32.Vec3 { return n.transform.Scale }

// SetScale sets the local scale.
func (n *Node) SetScale(s mgl32.Vec3) { n.transform.Scale = s }

// Visible returns the node's own visibility flag.
func (n *Node) Visible() bool { return n.visible }

// SetVisible sets the node's own visibility flag. Children inherit hidden state.
func (n *Node) SetVisible(v bool) { n.visible = v }

// EffectivelyVisible reports whether the node and all of its ancestors are visible.
func (n *Node) EffectivelyVisible() bool {
	for cur := n; cur != nil; cur = cur.parent {
		if !cur.visible {
			return false
		}
	}
	return true
}

// Pickable reports whether raycasts may hit this node.
func (n *Node) Pickable() bool { return n.pickable }

// SetPickable toggles raycast participation.
func (n *Node) SetPickable(p bool) { n.pickable = p }

// Highlight returns the per-node emissive override and whether one is set.
func (n *Node) Highlight() (common.Color, bool) { return n.highlight, n.hasHighlight }

// SetHighlight sets a per-node emissive override. Shared materials are left untouched.
func (n *Node) SetHighlight(c common.Color) {
	n.highlight = c
	n.hasHighlight = true
}

// ClearHighlight removes the emissive override.
func (n *Node) ClearHighlight() {
	n.highlight = common.Color{}
	n.hasHighlight = false
}

// Label returns the text label attached to the node.
func (n *Node) Label() string { return n.label }

// SetLabel sets the text label attached to the node.
func (n *Node) SetLabel(l string) { n.label = l }

// Tag returns a tag value.
func (n *Node) Tag(key string) (string, bool) {
	v, ok := n.tags[key]
	return v, ok
}

// SetTag stores a tag value.
func (n *Node) SetTag(key, value string) {
	if n.tags == nil {
		n.tags = make(map[string]string)
	}
	n.tags[key] = value
}

// LocalMatrix returns the model matrix of the local transform.
func (n *Node) LocalMatrix() mgl32.Mat4 {
	return n.transform.Matrix()
}

// WorldMatrix composes the local matrices from the root down to this node.
func (n *Node) WorldMatrix() mgl32.Mat4 {
	m := n.LocalMatrix()
	for cur := n.parent; cur != nil; cur = cur.parent {
		m = cur.LocalMatrix().Mul4(m)
	}
	return m
}

// WorldPosition returns the translation component of the world matrix.
func (n *Node) WorldPosition() mgl32.Vec3 {
	return n.WorldMatrix().Col(3).Vec3()
}

// WorldBounds returns the world-space bounds of the node's geometry.
// Group nodes return an invalid box.
func (n *Node) WorldBounds() common.AABB {
	if n.geometry == nil {
		return common.EmptyAABB()
	}
	return n.geometry.Bounds.Transformed(n.WorldMatrix())
}

// Walk visits the node and its descendants depth first. Returning false stops descent into
// that node's children.
func (n *Node) Walk(fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	for _, c := range n.children {
		c.Walk(fn)
	}
}

// removeChild unlinks c from n's child list.
func (n *Node) removeChild(c *Node) {
	for i, child := range n.children {
		if child == c {
			n.children = append(n.children[:i], n.children[i+1:]...)
			return
		}
	}
}
