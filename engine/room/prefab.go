package room

import (
	"fmt"
	"sort"

	"github.com/Carmen-Shannon/oxy-presence/common"
	"github.com/Carmen-Shannon/oxy-presence/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
)

// Tag keys set on generated nodes.
const (
	TagPrefab = "prefab"
	TagRole   = "role"

	RoleGround    = "ground"
	RoleWall      = "wall"
	RoleSeating   = "seating"
	RoleFurniture = "furniture"
	RoleEffect    = "effect"
)

// kit shares geometry and materials between the meshes of one build so a room uploads
// each distinct resource once.
type kit struct {
	geometry  map[string]*scene.Geometry
	materials map[string]*scene.Material
}

func newKit() *kit {
	return &kit{geometry: make(map[string]*scene.Geometry), materials: make(map[string]*scene.Material)}
}

func (k *kit) box(w, h, d float32) *scene.Geometry {
	key := fmt.Sprintf("box %.3f %.3f %.3f", w, h, d)
	if g, ok := k.geometry[key]; ok {
		return g
	}
	g := scene.Box(key, w, h, d)
	k.geometry[key] = g
	return g
}

func (k *kit) cylinder(r, h float32) *scene.Geometry {
	key := fmt.Sprintf("cylinder %.3f %.3f", r, h)
	if g, ok := k.geometry[key]; ok {
		return g
	}
	g := scene.Cylinder(key, r, h, 20)
	k.geometry[key] = g
	return g
}

func (k *kit) sphere(r float32) *scene.Geometry {
	key := fmt.Sprintf("sphere %.3f", r)
	if g, ok := k.geometry[key]; ok {
		return g
	}
	g := scene.Sphere(key, r, 8, 12)
	k.geometry[key] = g
	return g
}

func (k *kit) plane(w, d float32) *scene.Geometry {
	key := fmt.Sprintf("plane %.3f %.3f", w, d)
	if g, ok := k.geometry[key]; ok {
		return g
	}
	g := scene.Plane(key, w, d)
	k.geometry[key] = g
	return g
}

func (k *kit) quad(w, h float32) *scene.Geometry {
	key := fmt.Sprintf("quad %.3f %.3f", w, h)
	if g, ok := k.geometry[key]; ok {
		return g
	}
	g := scene.Quad(key, w, h)
	k.geometry[key] = g
	return g
}

var palette = map[string]common.Color{
	"wood":    common.RGB(0.45, 0.3, 0.18),
	"dark":    common.RGB(0.2, 0.16, 0.14),
	"stone":   common.RGB(0.6, 0.58, 0.55),
	"fabric":  common.RGB(0.5, 0.2, 0.25),
	"cushion": common.RGB(0.7, 0.5, 0.2),
	"metal":   common.RGB(0.55, 0.57, 0.6),
	"white":   common.RGB(0.92, 0.92, 0.9),
	"foam":    common.RGB(0.18, 0.18, 0.22),
	"leaf":    common.RGB(0.2, 0.5, 0.22),
	"water":   common.RGB(0.3, 0.5, 0.8),
	"gold":    common.RGB(0.85, 0.7, 0.3),
	"grass":   common.RGB(0.3, 0.55, 0.28),
	"floor":   common.RGB(0.4, 0.36, 0.32),
	"wall":    common.RGB(0.75, 0.72, 0.68),
	"glow":    common.RGB(1, 0.85, 0.55),
	"shaft":   common.RGB(1, 0.95, 0.8),
}

func (k *kit) material(name string) *scene.Material {
	if m, ok := k.materials[name]; ok {
		return m
	}
	c, ok := palette[name]
	if !ok {
		c = common.RGB(1, 0, 1)
	}
	m := scene.NewMaterial(name, c)
	switch name {
	case "glow":
		m.Emissive = common.RGB(0.8, 0.6, 0.3)
	case "shaft":
		m.Unlit = true
		m.Color[3] = 0.25
	case "water":
		m.Emissive = common.RGB(0.05, 0.1, 0.2)
	}
	k.materials[name] = m
	return m
}

func (k *kit) part(name string, g *scene.Geometry, mat string, pos mgl32.Vec3) *scene.Node {
	return scene.NewMesh(name, g, k.material(mat), scene.WithPosition(pos))
}

type prefabBuilder struct {
	role  string
	build func(k *kit) []*scene.Node
}

var prefabs = map[string]prefabBuilder{
	"chair": {RoleSeating, func(k *kit) []*scene.Node {
		return []*scene.Node{
			k.part("seat", k.box(0.5, 0.1, 0.5), "wood", mgl32.Vec3{0, 0.45, 0}),
			k.part("back", k.box(0.5, 0.6, 0.08), "wood", mgl32.Vec3{0, 0.8, -0.21}),
		}
	}},
	"bench": {RoleSeating, func(k *kit) []*scene.Node {
		return []*scene.Node{k.part("bench", k.box(1.8, 0.45, 0.45), "wood", mgl32.Vec3{0, 0.225, 0})}
	}},
	"pew": {RoleSeating, func(k *kit) []*scene.Node {
		return []*scene.Node{
			k.part("seat", k.box(3, 0.45, 0.5), "dark", mgl32.Vec3{0, 0.225, 0}),
			k.part("back", k.box(3, 0.6, 0.08), "dark", mgl32.Vec3{0, 0.75, -0.21}),
		}
	}},
	"cushion": {RoleSeating, func(k *kit) []*scene.Node {
		return []*scene.Node{k.part("cushion", k.cylinder(0.3, 0.12), "cushion", mgl32.Vec3{0, 0.06, 0})}
	}},
	"sofa": {RoleSeating, func(k *kit) []*scene.Node {
		return []*scene.Node{
			k.part("base", k.box(2, 0.45, 0.9), "fabric", mgl32.Vec3{0, 0.225, 0}),
			k.part("back", k.box(2, 0.5, 0.2), "fabric", mgl32.Vec3{0, 0.7, -0.35}),
		}
	}},
	"stool": {RoleSeating, func(k *kit) []*scene.Node {
		return []*scene.Node{k.part("stool", k.cylinder(0.2, 0.6), "metal", mgl32.Vec3{0, 0.3, 0})}
	}},
	"table": {RoleFurniture, func(k *kit) []*scene.Node {
		return []*scene.Node{
			k.part("top", k.box(1.2, 0.06, 0.8), "wood", mgl32.Vec3{0, 0.74, 0}),
			k.part("pedestal", k.cylinder(0.08, 0.7), "dark", mgl32.Vec3{0, 0.35, 0}),
		}
	}},
	"long-table": {RoleFurniture, func(k *kit) []*scene.Node {
		return []*scene.Node{
			k.part("top", k.box(6, 0.06, 1.2), "wood", mgl32.Vec3{0, 0.74, 0}),
			k.part("leg", k.box(0.1, 0.7, 1), "dark", mgl32.Vec3{-2.6, 0.35, 0}),
			k.part("leg", k.box(0.1, 0.7, 1), "dark", mgl32.Vec3{2.6, 0.35, 0}),
		}
	}},
	"coffee-table": {RoleFurniture, func(k *kit) []*scene.Node {
		return []*scene.Node{k.part("top", k.box(1, 0.4, 0.6), "dark", mgl32.Vec3{0, 0.2, 0})}
	}},
	"desk": {RoleFurniture, func(k *kit) []*scene.Node {
		return []*scene.Node{
			k.part("top", k.box(1.2, 0.05, 0.6), "wood", mgl32.Vec3{0, 0.72, 0}),
			k.part("side", k.box(0.05, 0.7, 0.6), "metal", mgl32.Vec3{-0.57, 0.35, 0}),
			k.part("side", k.box(0.05, 0.7, 0.6), "metal", mgl32.Vec3{0.57, 0.35, 0}),
		}
	}},
	"altar": {RoleFurniture, func(k *kit) []*scene.Node {
		return []*scene.Node{
			k.part("altar", k.box(2, 1, 1), "stone", mgl32.Vec3{0, 0.5, 0}),
			k.part("cloth", k.box(2.1, 0.02, 0.6), "gold", mgl32.Vec3{0, 1.01, 0}),
		}
	}},
	"stage": {RoleFurniture, func(k *kit) []*scene.Node {
		return []*scene.Node{k.part("stage", k.box(8, 0.5, 4), "dark", mgl32.Vec3{0, 0.25, 0})}
	}},
	"lectern": {RoleFurniture, func(k *kit) []*scene.Node {
		return []*scene.Node{k.part("lectern", k.box(0.6, 1.1, 0.5), "wood", mgl32.Vec3{0, 0.55, 0})}
	}},
	"board": {RoleFurniture, func(k *kit) []*scene.Node {
		return []*scene.Node{k.part("board", k.box(4, 1.8, 0.05), "white", mgl32.Vec3{0, 1.6, 0})}
	}},
	"booth-panel": {RoleFurniture, func(k *kit) []*scene.Node {
		return []*scene.Node{k.part("panel", k.box(2, 2.4, 0.1), "foam", mgl32.Vec3{0, 1.2, 0})}
	}},
	"mic-stand": {RoleFurniture, func(k *kit) []*scene.Node {
		return []*scene.Node{
			k.part("pole", k.cylinder(0.02, 1.5), "metal", mgl32.Vec3{0, 0.75, 0}),
			k.part("mic", k.sphere(0.06), "dark", mgl32.Vec3{0, 1.55, 0}),
		}
	}},
	"fountain": {RoleFurniture, func(k *kit) []*scene.Node {
		return []*scene.Node{
			k.part("basin", k.cylinder(1.6, 0.5), "stone", mgl32.Vec3{0, 0.25, 0}),
			k.part("water", k.cylinder(1.45, 0.05), "water", mgl32.Vec3{0, 0.47, 0}),
			k.part("spout", k.cylinder(0.25, 1.4), "stone", mgl32.Vec3{0, 0.7, 0}),
		}
	}},
	"tree": {RoleFurniture, func(k *kit) []*scene.Node {
		return []*scene.Node{
			k.part("trunk", k.cylinder(0.15, 2.4), "dark", mgl32.Vec3{0, 1.2, 0}),
			k.part("crown", k.sphere(1.1), "leaf", mgl32.Vec3{0, 3, 0}),
		}
	}},
	"plant": {RoleFurniture, func(k *kit) []*scene.Node {
		return []*scene.Node{
			k.part("pot", k.cylinder(0.2, 0.4), "stone", mgl32.Vec3{0, 0.2, 0}),
			k.part("leaves", k.sphere(0.35), "leaf", mgl32.Vec3{0, 0.7, 0}),
		}
	}},
	"lamp": {RoleFurniture, func(k *kit) []*scene.Node {
		return []*scene.Node{
			k.part("pole", k.cylinder(0.03, 1.5), "metal", mgl32.Vec3{0, 0.75, 0}),
			k.part("shade", k.sphere(0.2), "glow", mgl32.Vec3{0, 1.6, 0}),
		}
	}},
	"candle": {RoleFurniture, func(k *kit) []*scene.Node {
		return []*scene.Node{k.part("candle", k.cylinder(0.05, 0.3), "glow", mgl32.Vec3{0, 0.15, 0})}
	}},
	"pillar": {RoleFurniture, func(k *kit) []*scene.Node {
		return []*scene.Node{k.part("pillar", k.cylinder(0.4, 6), "stone", mgl32.Vec3{0, 3, 0})}
	}},
	"crate": {RoleFurniture, func(k *kit) []*scene.Node {
		return []*scene.Node{k.part("crate", k.box(1, 1, 1), "wood", mgl32.Vec3{0, 0.5, 0})}
	}},
}

// PrefabNames returns the catalog of placeable prefabs in sorted order.
func PrefabNames() []string {
	names := make([]string, 0, len(prefabs))
	for n := range prefabs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// NewPrefab instantiates a prefab as a detached node tree. The root is tagged with the
// prefab name and role.
//
// Parameters:
//   - name: the prefab name
//   - t: the root transform
//
// Returns:
//   - *scene.Node: the detached prefab root
//   - bool: false if the name is not in the catalog
func NewPrefab(name string, t common.Transform) (*scene.Node, bool) {
	return newKit().prefab(name, t)
}

func (k *kit) prefab(name string, t common.Transform) (*scene.Node, bool) {
	p, ok := prefabs[name]
	if !ok {
		return nil, false
	}
	root := scene.NewNode(name,
		scene.WithTransform(t),
		scene.WithTag(TagPrefab, name),
		scene.WithTag(TagRole, p.role),
		scene.WithChildren(p.build(k)...),
	)
	return root, true
}

// PrefabRoot walks up from a picked mesh to the prefab it belongs to.
func PrefabRoot(n *scene.Node) (*scene.Node, bool) {
	for cur := n; cur != nil; cur = cur.Parent() {
		if _, ok := cur.Tag(TagPrefab); ok {
			return cur, true
		}
	}
	return nil, false
}
