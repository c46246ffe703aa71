package room

import (
	"github.com/Carmen-Shannon/oxy-presence/common"
	"github.com/Carmen-Shannon/oxy-presence/engine/light"
	"github.com/go-gl/mathgl/mgl32"
)

// DefaultSpawn is the floor position used when a room has no authored spawn points.
// The eye lands at DefaultSpawn plus the eye height, i.e. (0, 1.6, -10).
var DefaultSpawn = mgl32.Vec3{0, 0, -10}

// SpawnPoint is a floor position and a facing yaw in radians.
type SpawnPoint struct {
	Position mgl32.Vec3 `json:"position"`
	Rotation float32    `json:"rotation"`
}

// LightSpec describes one light in room metadata.
type LightSpec struct {
	Type      string       `json:"type"`
	Position  mgl32.Vec3   `json:"position"`
	Direction mgl32.Vec3   `json:"direction"`
	Color     common.Color `json:"color"`
	Intensity float32      `json:"intensity"`
	Range     float32      `json:"range,omitempty"`
}

// Build creates the light.
func (s LightSpec) Build() light.Light {
	return light.NewLight(light.ParseLightType(s.Type),
		light.WithPosition(s.Position),
		light.WithDirection(s.Direction),
		light.WithColor(s.Color),
		light.WithIntensity(s.Intensity),
		light.WithRange(s.Range),
	)
}

// Lighting is a room's ambient term and light list.
type Lighting struct {
	Ambient common.Color `json:"ambient"`
	Lights  []LightSpec  `json:"lights"`
}

// Atmosphere is a room's backdrop.
type Atmosphere struct {
	Background common.Color `json:"background"`
	// Effect names the ambient effect: "motes", "light-shafts" or empty.
	Effect string `json:"effect,omitempty"`
}

// Acoustics parameterizes the spatial audio rolloff for a room.
type Acoustics struct {
	RefDistance float32 `json:"refDistance"`
	MaxDistance float32 `json:"maxDistance"`
	Rolloff     float32 `json:"rolloff"`
	Reverb      float32 `json:"reverb"`
}

// Metadata is everything about a room besides its meshes.
type Metadata struct {
	// Archetype is an optional classifier hint.
	Archetype   string       `json:"archetype,omitempty"`
	Lighting    Lighting     `json:"lighting"`
	Atmosphere  Atmosphere   `json:"atmosphere"`
	Acoustics   Acoustics    `json:"acoustics"`
	SpawnPoints []SpawnPoint `json:"spawnPoints"`
}

// InferMetadata returns the metadata an archetype implies.
//
// Parameters:
//   - a: the archetype
//
// Returns:
//   - Metadata: lighting, atmosphere and acoustics for the archetype, with the default spawn
func InferMetadata(a Archetype) Metadata {
	m := Metadata{
		Archetype:   a.String(),
		SpawnPoints: []SpawnPoint{{Position: DefaultSpawn}},
		Acoustics:   Acoustics{RefDistance: 1, MaxDistance: 30, Rolloff: 1, Reverb: 0.2},
		Lighting: Lighting{
			Ambient: common.RGB(0.25, 0.25, 0.28),
			Lights: []LightSpec{{
				Type:      "directional",
				Direction: mgl32.Vec3{-0.3, -1, 0.4},
				Color:     common.RGB(1, 0.97, 0.9),
				Intensity: 0.9,
			}},
		},
		Atmosphere: Atmosphere{Background: common.RGB(0.08, 0.08, 0.1)},
	}
	switch a {
	case Sanctuary:
		m.Lighting.Ambient = common.RGB(0.18, 0.16, 0.2)
		m.Lighting.Lights = append(m.Lighting.Lights, LightSpec{
			Type: "spot", Position: mgl32.Vec3{0, 7, 14}, Direction: mgl32.Vec3{0, -1, 0},
			Color: common.RGB(1, 0.9, 0.7), Intensity: 1.2, Range: 20,
		})
		m.Atmosphere = Atmosphere{Background: common.RGB(0.05, 0.04, 0.08), Effect: "light-shafts"}
		m.Acoustics = Acoustics{RefDistance: 2, MaxDistance: 50, Rolloff: 0.8, Reverb: 0.7}
	case PrayerCircle:
		m.Lighting.Ambient = common.RGB(0.15, 0.12, 0.1)
		m.Lighting.Lights = []LightSpec{{
			Type: "point", Position: mgl32.Vec3{0, 1.5, 0}, Color: common.RGB(1, 0.75, 0.45),
			Intensity: 1.4, Range: 12,
		}}
		m.Atmosphere = Atmosphere{Background: common.RGB(0.03, 0.03, 0.05), Effect: "motes"}
		m.Acoustics = Acoustics{RefDistance: 1, MaxDistance: 16, Rolloff: 1.2, Reverb: 0.3}
	case Lounge:
		m.Lighting.Ambient = common.RGB(0.3, 0.28, 0.25)
	case Classroom:
		m.Lighting.Ambient = common.RGB(0.35, 0.35, 0.35)
		m.Acoustics = Acoustics{RefDistance: 1.5, MaxDistance: 24, Rolloff: 1, Reverb: 0.25}
	case RecordingBooth:
		m.Lighting.Ambient = common.RGB(0.2, 0.2, 0.22)
		m.Acoustics = Acoustics{RefDistance: 0.5, MaxDistance: 8, Rolloff: 1.5, Reverb: 0.02}
	case BanquetHall:
		m.Lighting.Ambient = common.RGB(0.3, 0.25, 0.2)
		m.Acoustics = Acoustics{RefDistance: 2, MaxDistance: 40, Rolloff: 0.9, Reverb: 0.5}
	case Courtyard:
		m.Lighting.Ambient = common.RGB(0.4, 0.42, 0.45)
		m.Lighting.Lights[0].Intensity = 1.1
		m.Atmosphere = Atmosphere{Background: common.RGB(0.5, 0.7, 0.9), Effect: "motes"}
		m.Acoustics = Acoustics{RefDistance: 2, MaxDistance: 60, Rolloff: 1, Reverb: 0.05}
	}
	return m
}

// mergeMetadata overlays the non-zero parts of seed on top of inferred.
func mergeMetadata(inferred Metadata, seed *Metadata) Metadata {
	if seed == nil {
		return inferred
	}
	out := inferred
	if seed.Archetype != "" {
		out.Archetype = seed.Archetype
	}
	if seed.Lighting.Ambient != (common.Color{}) {
		out.Lighting.Ambient = seed.Lighting.Ambient
	}
	if len(seed.Lighting.Lights) > 0 {
		out.Lighting.Lights = seed.Lighting.Lights
	}
	if seed.Atmosphere.Background != (common.Color{}) {
		out.Atmosphere.Background = seed.Atmosphere.Background
	}
	if seed.Atmosphere.Effect != "" {
		out.Atmosphere.Effect = seed.Atmosphere.Effect
	}
	if seed.Acoustics != (Acoustics{}) {
		out.Acoustics = seed.Acoustics
	}
	if len(seed.SpawnPoints) > 0 {
		out.SpawnPoints = seed.SpawnPoints
	}
	return out
}
