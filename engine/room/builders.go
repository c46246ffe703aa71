package room

import (
	"hash/fnv"
	"math"
	"math/rand"

	"github.com/Carmen-Shannon/oxy-presence/common"
	"github.com/Carmen-Shannon/oxy-presence/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
)

// Source records where a room's content came from.
type Source int

const (
	SourceProcedural Source = iota
	SourceAuthored
)

func (s Source) String() string {
	if s == SourceAuthored {
		return "authored"
	}
	return "procedural"
}

// Blueprint is a detached room tree ready to be added to a scene.
type Blueprint struct {
	Name      string
	Archetype Archetype
	Source    Source
	Root      *scene.Node
	Metadata  Metadata
	// Skipped lists authored prefab names missing from the catalog.
	Skipped []string
}

// Meshes returns the blueprint's mesh nodes in depth-first order.
func (b Blueprint) Meshes() []*scene.Node {
	var out []*scene.Node
	if b.Root == nil {
		return out
	}
	b.Root.Walk(func(n *scene.Node) bool {
		if n.IsMesh() {
			out = append(out, n)
		}
		return true
	})
	return out
}

type dims struct {
	width, depth, height float32
	ground               string
}

var archetypeDims = map[Archetype]dims{
	Sanctuary:      {24, 36, 8, "floor"},
	PrayerCircle:   {24, 24, 5, "floor"},
	Lounge:         {24, 24, 4, "floor"},
	Classroom:      {20, 24, 4, "floor"},
	RecordingBooth: {14, 24, 3.2, "floor"},
	BanquetHall:    {24, 36, 7, "floor"},
	Courtyard:      {32, 32, 1.2, "grass"},
}

type furnisher func(k *kit, d dims, rng *rand.Rand) []*scene.Node

var furnishers = map[Archetype]furnisher{
	Sanctuary:      furnishSanctuary,
	PrayerCircle:   furnishPrayerCircle,
	Lounge:         furnishLounge,
	Classroom:      furnishClassroom,
	RecordingBooth: furnishRecordingBooth,
	BanquetHall:    furnishBanquetHall,
	Courtyard:      furnishCourtyard,
}

// Generate deterministically builds a procedural room. The same name and seed always
// produce the same tree.
//
// Parameters:
//   - name: the room name, also the classifier input and random seed
//   - seed: optional metadata; its archetype hint and any set fields override the inferred ones
//
// Returns:
//   - Blueprint: the detached room
func Generate(name string, seed *Metadata) Blueprint {
	a := Classify(name, seed)
	meta := mergeMetadata(InferMetadata(a), seed)
	d := archetypeDims[a]
	k := newKit()
	rng := rand.New(rand.NewSource(seedFor(name)))

	children := shell(k, d)
	children = append(children, furnishers[a](k, d, rng)...)
	children = append(children, effect(k, d, meta.Atmosphere.Effect, rng)...)

	return Blueprint{
		Name:      name,
		Archetype: a,
		Source:    SourceProcedural,
		Root:      roomRoot(name, a, children),
		Metadata:  meta,
	}
}

// FromLayout builds an authored room: the archetype shell for the room name plus every
// placed prefab. Unknown prefabs are skipped and reported.
//
// Parameters:
//   - l: the layout document
//   - meta: authored metadata, may be nil
//
// Returns:
//   - Blueprint: the detached room
func FromLayout(l Layout, meta *Metadata) Blueprint {
	a := Classify(l.Name, meta)
	k := newKit()
	children := shell(k, archetypeDims[a])
	var skipped []string
	for _, o := range l.Objects {
		n, ok := k.prefab(o.PrefabName, o.Transform())
		if !ok {
			skipped = append(skipped, o.PrefabName)
			continue
		}
		children = append(children, n)
	}
	return Blueprint{
		Name:      l.Name,
		Archetype: a,
		Source:    SourceAuthored,
		Root:      roomRoot(l.Name, a, children),
		Metadata:  mergeMetadata(InferMetadata(a), meta),
		Skipped:   skipped,
	}
}

// Transform returns the object transform. A zero scaling means unit scale.
func (o LayoutObject) Transform() common.Transform {
	t := common.NewTransform(o.Position.Vec())
	t.Rotation = o.Rotation.Vec()
	if s := o.Scaling.Vec(); s != (mgl32.Vec3{}) {
		t.Scale = s
	}
	return t
}

func roomRoot(name string, a Archetype, children []*scene.Node) *scene.Node {
	return scene.NewNode("room:"+name,
		scene.WithTag("room", name),
		scene.WithTag("archetype", a.String()),
		scene.WithChildren(children...),
	)
}

func seedFor(name string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(name))
	return int64(h.Sum64() & math.MaxInt64)
}

// shell is the ground plane and four perimeter walls.
func shell(k *kit, d dims) []*scene.Node {
	ground := scene.NewMesh("ground", k.plane(d.width, d.depth), k.material(d.ground),
		scene.WithTag(TagRole, RoleGround))
	wall := "wall"
	if d.ground == "grass" {
		wall = "leaf"
	}
	y := d.height / 2
	mk := func(name string, w, h, dp float32, pos mgl32.Vec3) *scene.Node {
		return scene.NewMesh(name, k.box(w, h, dp), k.material(wall),
			scene.WithPosition(pos), scene.WithTag(TagRole, RoleWall))
	}
	return []*scene.Node{
		ground,
		mk("wall-north", d.width, d.height, 0.2, mgl32.Vec3{0, y, d.depth / 2}),
		mk("wall-south", d.width, d.height, 0.2, mgl32.Vec3{0, y, -d.depth / 2}),
		mk("wall-east", 0.2, d.height, d.depth, mgl32.Vec3{-d.width / 2, y, 0}),
		mk("wall-west", 0.2, d.height, d.depth, mgl32.Vec3{d.width / 2, y, 0}),
	}
}

func (k *kit) place(name string, pos mgl32.Vec3, yaw float32) *scene.Node {
	t := common.NewTransform(pos)
	t.Rotation = mgl32.Vec3{0, yaw, 0}
	n, _ := k.prefab(name, t)
	return n
}

func jitter(rng *rand.Rand, amount float32) float32 {
	return (rng.Float32()*2 - 1) * amount
}

func furnishSanctuary(k *kit, d dims, rng *rand.Rand) []*scene.Node {
	var out []*scene.Node
	for z := float32(-6); z <= 8; z += 2 {
		out = append(out, k.place("pew", mgl32.Vec3{-3, 0, z}, 0), k.place("pew", mgl32.Vec3{3, 0, z}, 0))
	}
	out = append(out,
		k.place("stage", mgl32.Vec3{0, 0, d.depth/2 - 4}, 0),
		k.place("altar", mgl32.Vec3{0, 0.5, d.depth/2 - 4}, 0),
	)
	for z := float32(-12); z <= 12; z += 6 {
		out = append(out, k.place("pillar", mgl32.Vec3{-d.width/2 + 2, 0, z}, 0), k.place("pillar", mgl32.Vec3{d.width/2 - 2, 0, z}, 0))
	}
	out = append(out, k.place("candle", mgl32.Vec3{-0.7 + jitter(rng, 0.05), 1.52, d.depth/2 - 4}, 0),
		k.place("candle", mgl32.Vec3{0.7 + jitter(rng, 0.05), 1.52, d.depth/2 - 4}, 0))
	return out
}

func furnishPrayerCircle(k *kit, d dims, rng *rand.Rand) []*scene.Node {
	var out []*scene.Node
	const seats = 12
	for i := 0; i < seats; i++ {
		a := float32(i) * 2 * math.Pi / seats
		pos := mgl32.Vec3{3 * float32(math.Sin(float64(a))), 0, 3 * float32(math.Cos(float64(a)))}
		out = append(out, k.place("cushion", pos, a+math.Pi))
	}
	out = append(out, k.place("candle", mgl32.Vec3{}, 0))
	for _, c := range corners(d, 2) {
		out = append(out, k.place("plant", c.Add(mgl32.Vec3{jitter(rng, 0.3), 0, jitter(rng, 0.3)}), 0))
	}
	return out
}

func furnishLounge(k *kit, d dims, rng *rand.Rand) []*scene.Node {
	var out []*scene.Node
	for _, c := range []mgl32.Vec3{{-5, 0, -4}, {5, 0, -4}, {-5, 0, 4}, {5, 0, 4}} {
		out = append(out,
			k.place("coffee-table", c, 0),
			k.place("sofa", c.Add(mgl32.Vec3{0, 0, -1.3}), 0),
			k.place("sofa", c.Add(mgl32.Vec3{0, 0, 1.3}), math.Pi),
		)
	}
	for _, c := range corners(d, 1.5) {
		out = append(out, k.place("plant", c, 0), k.place("lamp", c.Add(mgl32.Vec3{0, 0, jitter(rng, 1) + 1.5*sign(-c.Z())}), 0))
	}
	return out
}

func furnishClassroom(k *kit, d dims, _ *rand.Rand) []*scene.Node {
	var out []*scene.Node
	for row := 0; row < 4; row++ {
		for col := 0; col < 4; col++ {
			pos := mgl32.Vec3{-4.5 + float32(col)*3, 0, -4 + float32(row)*2.5}
			out = append(out,
				k.place("desk", pos, 0),
				k.place("chair", pos.Add(mgl32.Vec3{0, 0, -0.6}), 0),
			)
		}
	}
	out = append(out,
		k.place("board", mgl32.Vec3{0, 0, d.depth/2 - 0.3}, 0),
		k.place("lectern", mgl32.Vec3{2.5, 0, d.depth/2 - 2.5}, math.Pi),
	)
	return out
}

func furnishRecordingBooth(k *kit, _ dims, _ *rand.Rand) []*scene.Node {
	booth := mgl32.Vec3{0, 0, 6}
	return []*scene.Node{
		k.place("booth-panel", booth.Add(mgl32.Vec3{0, 0, 1}), 0),
		k.place("booth-panel", booth.Add(mgl32.Vec3{-1, 0, 0}), math.Pi/2),
		k.place("booth-panel", booth.Add(mgl32.Vec3{1, 0, 0}), math.Pi/2),
		k.place("stool", booth, 0),
		k.place("mic-stand", booth.Add(mgl32.Vec3{0, 0, 0.5}), 0),
		k.place("sofa", mgl32.Vec3{0, 0, -5}, 0),
		k.place("coffee-table", mgl32.Vec3{0, 0, -3.8}, 0),
		k.place("lamp", mgl32.Vec3{2, 0, -5}, 0),
	}
}

func furnishBanquetHall(k *kit, d dims, _ *rand.Rand) []*scene.Node {
	var out []*scene.Node
	for _, x := range []float32{-5, 5} {
		for _, z := range []float32{-8, -1, 6} {
			table := mgl32.Vec3{x, 0, z}
			out = append(out, k.place("long-table", table, 0))
			for i := 0; i < 4; i++ {
				off := -2.25 + float32(i)*1.5
				out = append(out,
					k.place("chair", table.Add(mgl32.Vec3{off, 0, -0.9}), 0),
					k.place("chair", table.Add(mgl32.Vec3{off, 0, 0.9}), math.Pi),
				)
			}
		}
	}
	out = append(out, k.place("stage", mgl32.Vec3{0, 0, d.depth/2 - 3}, 0))
	return out
}

func furnishCourtyard(k *kit, d dims, rng *rand.Rand) []*scene.Node {
	out := []*scene.Node{k.place("fountain", mgl32.Vec3{}, 0)}
	const benches = 8
	for i := 0; i < benches; i++ {
		a := float32(i) * 2 * math.Pi / benches
		pos := mgl32.Vec3{6 * float32(math.Sin(float64(a))), 0, 6 * float32(math.Cos(float64(a)))}
		out = append(out, k.place("bench", pos, a+math.Pi))
	}
	for _, c := range corners(d, 3) {
		out = append(out, k.place("tree", c.Add(mgl32.Vec3{jitter(rng, 0.8), 0, jitter(rng, 0.8)}), 0))
	}
	return out
}

// effect builds the ambient effect meshes. They are never pickable.
func effect(k *kit, d dims, name string, rng *rand.Rand) []*scene.Node {
	var out []*scene.Node
	switch name {
	case "motes":
		g := k.sphere(0.03)
		for i := 0; i < 40; i++ {
			pos := mgl32.Vec3{jitter(rng, d.width/2-1), 0.5 + rng.Float32()*2.5, jitter(rng, d.depth/2-1)}
			out = append(out, scene.NewMesh("mote", g, k.material("glow"),
				scene.WithPosition(pos), scene.WithPickable(false), scene.WithTag(TagRole, RoleEffect)))
		}
	case "light-shafts":
		g := k.quad(1.2, d.height-0.5)
		for i := 0; i < 5; i++ {
			z := -10 + float32(i)*5
			out = append(out, scene.NewMesh("light-shaft", g, k.material("shaft"),
				scene.WithPosition(mgl32.Vec3{jitter(rng, 1.5), d.height/2 - 0.25, z}),
				scene.WithRotation(mgl32.Vec3{0, 0, 0.25}),
				scene.WithPickable(false), scene.WithTag(TagRole, RoleEffect)))
		}
	}
	return out
}

func corners(d dims, inset float32) []mgl32.Vec3 {
	x, z := d.width/2-inset, d.depth/2-inset
	return []mgl32.Vec3{{-x, 0, -z}, {x, 0, -z}, {-x, 0, z}, {x, 0, z}}
}

func sign(v float32) float32 {
	if v < 0 {
		return -1
	}
	return 1
}
