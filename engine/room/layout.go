package room

import (
	"time"

	"github.com/go-gl/mathgl/mgl32"
)

// Vec3 is the {x,y,z} object used by the export format.
type Vec3 struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
	Z float32 `json:"z"`
}

// ToVec3 converts an mgl32 vector.
func ToVec3(v mgl32.Vec3) Vec3 {
	return Vec3{X: v.X(), Y: v.Y(), Z: v.Z()}
}

// Vec returns the mgl32 form.
func (v Vec3) Vec() mgl32.Vec3 {
	return mgl32.Vec3{v.X, v.Y, v.Z}
}

// LayoutObject is one placed prefab.
type LayoutObject struct {
	PrefabName string `json:"prefabName"`
	Position   Vec3   `json:"position"`
	Rotation   Vec3   `json:"rotation"`
	Scaling    Vec3   `json:"scaling"`
}

// Layout is the room export document.
type Layout struct {
	Name      string         `json:"name"`
	Objects   []LayoutObject `json:"objects"`
	CreatedAt time.Time      `json:"createdAt"`
}
