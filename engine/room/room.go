package room

import (
	"time"

	"github.com/Carmen-Shannon/oxy-presence/engine/light"
	"github.com/Carmen-Shannon/oxy-presence/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
)

// Room is a loaded environment. Its meshes live under Root and are owned by the Manager.
type Room struct {
	Name      string
	Archetype Archetype
	Source    Source
	Root      *scene.Node
	Metadata  Metadata
	LoadedAt  time.Time

	meshes  []*scene.Node
	lights  []light.Light
	enabled bool
}

// Meshes returns the room's mesh nodes in build order.
func (r *Room) Meshes() []*scene.Node {
	return append([]*scene.Node(nil), r.meshes...)
}

// MeshIDs returns the scene ids of the room's meshes.
func (r *Room) MeshIDs() []uint64 {
	ids := make([]uint64, 0, len(r.meshes))
	for _, m := range r.meshes {
		ids = append(ids, m.ID())
	}
	return ids
}

// Enabled reports whether the room is the visible one.
func (r *Room) Enabled() bool {
	return r.enabled
}

// Spawn returns the first spawn point, or the default spawn when none is set.
func (r *Room) Spawn() SpawnPoint {
	if len(r.Metadata.SpawnPoints) == 0 {
		return SpawnPoint{Position: DefaultSpawn}
	}
	return r.Metadata.SpawnPoints[0]
}

// SpawnEye returns the camera position for the first spawn point.
func (r *Room) SpawnEye(eyeHeight float32) mgl32.Vec3 {
	return r.Spawn().Position.Add(mgl32.Vec3{0, eyeHeight, 0})
}

func (r *Room) setEnabled(v bool) {
	r.enabled = v
	r.Root.SetVisible(v)
	for _, l := range r.lights {
		l.SetEnabled(v)
	}
}

// Rescan refreshes the mesh list after the room's node tree was edited in place.
func (r *Room) Rescan() {
	r.meshes = Blueprint{Root: r.Root}.Meshes()
}

// Objects returns the prefab roots directly under the room root.
func (r *Room) Objects() []*scene.Node {
	var out []*scene.Node
	for _, c := range r.Root.Children() {
		if _, ok := c.Tag(TagPrefab); ok {
			out = append(out, c)
		}
	}
	return out
}

// Layout exports the room's prefabs in the room export format.
func (r *Room) Layout(now time.Time) Layout {
	l := Layout{Name: r.Name, CreatedAt: now.UTC(), Objects: []LayoutObject{}}
	for _, o := range r.Objects() {
		name, _ := o.Tag(TagPrefab)
		t := o.Transform()
		l.Objects = append(l.Objects, LayoutObject{
			PrefabName: name,
			Position:   ToVec3(t.Position),
			Rotation:   ToVec3(t.Rotation),
			Scaling:    ToVec3(t.Scale),
		})
	}
	return l
}
