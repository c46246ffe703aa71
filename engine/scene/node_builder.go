package scene

import (
	"github.com/Carmen-Shannon/oxy-presence/common"
	"github.com/go-gl/mathgl/mgl32"
)

// NodeBuilderOption is a functional option for configuring a Node.
type NodeBuilderOption func(*Node)

// WithPosition sets the node's local position.
func WithPosition(p mgl32.Vec3) NodeBuilderOption {
	return func(n *Node) {
		n.transform.Position = p
	}
}

// WithRotation sets the node's local Euler rotation in radians.
func WithRotation(r mgl32.Vec3) NodeBuilderOption {
	return func(n *Node) {
		n.transform.Rotation = r
	}
}

// WithScale sets the node's local scale.
func WithScale(s mgl32.Vec3) NodeBuilderOption {
	return func(n *Node) {
		n.transform.Scale = s
	}
}

// WithTransform replaces the node's local transform.
func WithTransform(t common.Transform) NodeBuilderOption {
	return func(n *Node) {
		n.transform = t
	}
}

// WithVisible sets the initial visibility.
func WithVisible(v bool) NodeBuilderOption {
	return func(n *Node) {
		n.visible = v
	}
}

// WithPickable sets whether raycasts may hit the node.
func WithPickable(p bool) NodeBuilderOption {
	return func(n *Node) {
		n.pickable = p
	}
}

// WithLabel attaches a text label.
func WithLabel(l string) NodeBuilderOption {
	return func(n *Node) {
		n.label = l
	}
}

// WithTag attaches a tag.
func WithTag(key, value string) NodeBuilderOption {
	return func(n *Node) {
		if n.tags == nil {
			n.tags = make(map[string]string)
		}
		n.tags[key] = value
	}
}

// WithChildren attaches detached children to the node before it is added to a scene.
func WithChildren(children ...*Node) NodeBuilderOption {
	return func(n *Node) {
		for _, c := range children {
			c.parent = n
			n.children = append(n.children, c)
		}
	}
}
