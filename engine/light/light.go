package light

import (
	"math"

	"github.com/Carmen-Shannon/oxy-presence/common"
	"github.com/go-gl/mathgl/mgl32"
)

// LightType represents the kind of light source.
type LightType int

const (
	// LightTypeDirectional is an infinitely distant light with parallel rays (e.g., sun).
	LightTypeDirectional LightType = iota

	// LightTypePoint is an omnidirectional light emitting from a single position.
	LightTypePoint

	// LightTypeSpot is a cone-shaped light emitting from a position in a direction.
	LightTypeSpot
)

// String returns the lowercase light type name used by room metadata.
func (t LightType) String() string {
	switch t {
	case LightTypeDirectional:
		return "directional"
	case LightTypePoint:
		return "point"
	case LightTypeSpot:
		return "spot"
	default:
		return "unknown"
	}
}

// ParseLightType maps a metadata string to a LightType. Unknown strings map to point lights.
func ParseLightType(s string) LightType {
	switch s {
	case "directional", "sun":
		return LightTypeDirectional
	case "spot":
		return LightTypeSpot
	default:
		return LightTypePoint
	}
}

type lightImpl struct {
	lightType  LightType
	position   mgl32.Vec3
	direction  mgl32.Vec3
	color      common.Color
	intensity  float32
	lightRange float32
	innerCone  float32 // stored as cos(angle in radians)
	outerCone  float32 // stored as cos(angle in radians)
	enabled    bool
}

// Light defines a light source owned by a scene. Rooms add their lights on load and
// remove them on teardown.
type Light interface {
	// Type returns the kind of light source (directional, point, or spot).
	Type() LightType

	// Position returns the world-space position. Ignored for directional lights.
	Position() mgl32.Vec3

	// Direction returns the normalized direction the light travels. Ignored for point lights.
	Direction() mgl32.Vec3

	// Color returns the light color.
	Color() common.Color

	// Intensity returns the scalar intensity multiplier.
	Intensity() float32

	// Range returns the distance at which point and spot lights fall to zero.
	Range() float32

	// Enabled returns whether the light contributes to shading.
	Enabled() bool

	// Contribution returns the diffuse light arriving at a surface point.
	//
	// Parameters:
	//   - point: world-space surface position
	//   - normal: normalized world-space surface normal
	//
	// Returns:
	//   - common.Color: the lambert-weighted light color, zero when disabled or facing away
	Contribution(point, normal mgl32.Vec3) common.Color

	// SetPosition sets the world-space position.
	SetPosition(p mgl32.Vec3)

	// SetDirection sets and normalizes the direction.
	SetDirection(d mgl32.Vec3)

	// SetColor sets the light color.
	SetColor(c common.Color)

	// SetIntensity sets the scalar intensity multiplier.
	SetIntensity(intensity float32)

	// SetRange sets the maximum attenuation distance.
	SetRange(lightRange float32)

	// SetSpotCone sets the inner and outer cone half-angles for spot lights.
	// Angles are specified in degrees and stored internally as cosines.
	//
	// Parameters:
	//   - innerDeg: inner cone half-angle in degrees
	//   - outerDeg: outer cone half-angle in degrees
	SetSpotCone(innerDeg, outerDeg float32)

	// SetEnabled enables or disables the light.
	SetEnabled(enabled bool)
}

var _ Light = &lightImpl{}

// NewLight creates a new Light of the specified type with sensible defaults and
// any provided options applied.
//
// Parameters:
//   - lightType: the kind of light to create (directional, point, or spot)
//   - opts: variadic list of LightBuilderOption functions to configure the light
//
// Returns:
//   - Light: a new Light instance
func NewLight(lightType LightType, opts ...LightBuilderOption) Light {
	l := &lightImpl{
		lightType:  lightType,
		direction:  mgl32.Vec3{0, -1, 0},
		color:      common.Color{1, 1, 1, 1},
		intensity:  1.0,
		lightRange: 10.0,
		innerCone:  0.9063, // cos(25°)
		outerCone:  0.8192, // cos(35°)
		enabled:    true,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *lightImpl) Type() LightType {
	return l.lightType
}

func (l *lightImpl) Position() mgl32.Vec3 {
	return l.position
}

func (l *lightImpl) Direction() mgl32.Vec3 {
	return l.direction
}

func (l *lightImpl) Color() common.Color {
	return l.color
}

func (l *lightImpl) Intensity() float32 {
	return l.intensity
}

func (l *lightImpl) Range() float32 {
	return l.lightRange
}

func (l *lightImpl) Enabled() bool {
	return l.enabled
}

func (l *lightImpl) Contribution(point, normal mgl32.Vec3) common.Color {
	if !l.enabled || l.intensity <= 0 {
		return common.Color{}
	}

	var toLight mgl32.Vec3
	attenuation := float32(1)

	switch l.lightType {
	case LightTypeDirectional:
		toLight = l.direction.Mul(-1)
	default:
		delta := l.position.Sub(point)
		dist := delta.Len()
		if dist < 1e-6 {
			return l.color.Scale(l.intensity)
		}
		if l.lightRange > 0 {
			if dist >= l.lightRange {
				return common.Color{}
			}
			falloff := 1 - dist/l.lightRange
			attenuation = falloff * falloff
		}
		toLight = delta.Mul(1 / dist)

		if l.lightType == LightTypeSpot {
			cosAngle := toLight.Mul(-1).Dot(l.direction)
			if cosAngle <= l.outerCone {
				return common.Color{}
			}
			if cosAngle < l.innerCone {
				attenuation *= (cosAngle - l.outerCone) / (l.innerCone - l.outerCone)
			}
		}
	}

	lambert := normal.Dot(toLight)
	if lambert <= 0 {
		return common.Color{}
	}
	return l.color.Scale(lambert * l.intensity * attenuation)
}

func (l *lightImpl) SetPosition(p mgl32.Vec3) {
	l.position = p
}

func (l *lightImpl) SetDirection(d mgl32.Vec3) {
	l.direction = normalize(d)
}

func (l *lightImpl) SetColor(c common.Color) {
	l.color = c
}

func (l *lightImpl) SetIntensity(intensity float32) {
	l.intensity = intensity
}

func (l *lightImpl) SetRange(lightRange float32) {
	l.lightRange = lightRange
}

func (l *lightImpl) SetSpotCone(innerDeg, outerDeg float32) {
	l.innerCone = cosDeg(innerDeg)
	l.outerCone = cosDeg(outerDeg)
}

func (l *lightImpl) SetEnabled(enabled bool) {
	l.enabled = enabled
}

// normalize returns a unit vector, or zero if the input has zero length.
func normalize(v mgl32.Vec3) mgl32.Vec3 {
	if v.LenSqr() == 0 {
		return mgl32.Vec3{}
	}
	return v.Normalize()
}

// cosDeg converts an angle in degrees to the cosine of that angle in radians.
func cosDeg(deg float32) float32 {
	return float32(math.Cos(float64(deg) * math.Pi / 180.0))
}
