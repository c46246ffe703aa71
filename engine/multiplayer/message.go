package multiplayer

import "github.com/go-gl/mathgl/mgl32"

// Message types on the multiplayer topic.
const (
	TypeMoved  = "player-moved"
	TypeJoined = "player-joined"
	TypeLeft   = "player-left"
)

// Vec3 is the wire form of a vector.
type Vec3 struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
	Z float32 `json:"z"`
}

func toWire(v mgl32.Vec3) Vec3 { return Vec3{v[0], v[1], v[2]} }

// Vec returns the vector.
func (v Vec3) Vec() mgl32.Vec3 { return mgl32.Vec3{v.X, v.Y, v.Z} }

// Update is one multiplayer event.
type Update struct {
	Type     string `json:"type"`
	ID       string `json:"id"`
	Name     string `json:"name,omitempty"`
	Position Vec3   `json:"position"`
	Rotation Vec3   `json:"rotation"`
}
