package proxy

import (
	"math"

	"github.com/argon-engine/argon/common"
)

// LightType identifies the kind of light source.
type LightType int

const (
	// LightTypeDirectional represents a light with no position, only direction.
	// Affects all fragments uniformly with no distance attenuation.
	LightTypeDirectional LightType = iota

	// LightTypePoint represents a light that emits in all directions from a
	// position, attenuating with distance up to a configurable range.
	LightTypePoint

	// LightTypeSpot represents a light that emits in a cone from a position
	// along a direction, attenuating with both distance and angle from the
	// cone axis.
	LightTypeSpot

	// LightTypeArea represents a light emitted from a rectangular or disc
	// surface. Culled via a bounding sphere derived from its size and range.
	LightTypeArea
)

// AreaShape selects the emitting surface shape of an area light.
type AreaShape int

const (
	// AreaShapeRect is a rectangular emitter using both Size components.
	AreaShapeRect AreaShape = iota
	// AreaShapeDisc is a disc emitter using Size[0] as the radius.
	AreaShapeDisc
)

// NoShadow is the ShadowIndex value of a light with no shadow tile assigned.
const NoShadow int32 = -1

// LightProxy is the render-side state of one light source. Plain data; the
// culling and packing subsystems read it through handles resolved at point of
// use. Cross-references (ShadowIndex into the shadow atlas) are plain integers
// resolved through the owning subsystem, never pointers.
type LightProxy struct {
	Type      LightType
	Position  [3]float32
	Direction [3]float32 // normalized; cone axis for spot, travel direction for directional
	Color     [3]float32
	Intensity float32
	Range     float32

	// InnerConeAngle and OuterConeAngle are spot-cone half-angles in radians.
	// Stored as angles (not cosines) because the shadow pass derives its
	// perspective FOV from the outer angle; cosines are computed at pack time.
	InnerConeAngle float32
	OuterConeAngle float32

	AreaSize  [2]float32
	AreaShape AreaShape

	// ShadowIndex is the first shadow-atlas tile serving this light, or
	// NoShadow. Point lights own six consecutive records starting here.
	ShadowIndex      int32
	ShadowBias       float32
	ShadowNormalBias float32

	Enabled      bool
	CastsShadows bool
	LayerMask    uint32
}

// GetBoundingSphere returns the world-space sphere enclosing the light's
// influence. Directional lights return an infinite sphere so culling never
// rejects them; point and area lights a range sphere; spot lights the minimal
// sphere enclosing the cone.
//
// Returns:
//   - common.Sphere: the bounding sphere
func (l *LightProxy) GetBoundingSphere() common.Sphere {
	switch l.Type {
	case LightTypeDirectional:
		return common.InfiniteSphere()

	case LightTypeSpot:
		// Minimal enclosing sphere of a cone: for wide cones (> 45°) it is
		// anchored on the cone cap, for narrow cones it sits on the axis at
		// the circumscribed radius.
		angle := float64(l.OuterConeAngle)
		r := l.Range
		if angle > math.Pi/4 {
			radius := r * float32(math.Sin(angle))
			offset := r * float32(math.Cos(angle))
			return common.Sphere{
				Center: [3]float32{
					l.Position[0] + l.Direction[0]*offset,
					l.Position[1] + l.Direction[1]*offset,
					l.Position[2] + l.Direction[2]*offset,
				},
				Radius: radius,
			}
		}
		radius := r / (2 * float32(math.Cos(angle)))
		return common.Sphere{
			Center: [3]float32{
				l.Position[0] + l.Direction[0]*radius,
				l.Position[1] + l.Direction[1]*radius,
				l.Position[2] + l.Direction[2]*radius,
			},
			Radius: radius,
		}

	case LightTypeArea:
		// Half-diagonal of the emitting surface plus the range.
		halfDiag := float32(math.Sqrt(float64(l.AreaSize[0]*l.AreaSize[0]+l.AreaSize[1]*l.AreaSize[1]))) * 0.5
		return common.Sphere{Center: l.Position, Radius: l.Range + halfDiag}

	default:
		return common.Sphere{Center: l.Position, Radius: l.Range}
	}
}

// CosInnerCone returns the cosine of the inner cone half-angle, as consumed by
// the GPU light record.
//
// Returns:
//   - float32: cos(inner half-angle)
func (l *LightProxy) CosInnerCone() float32 {
	return float32(math.Cos(float64(l.InnerConeAngle)))
}

// CosOuterCone returns the cosine of the outer cone half-angle, as consumed by
// the GPU light record.
//
// Returns:
//   - float32: cos(outer half-angle)
func (l *LightProxy) CosOuterCone() float32 {
	return float32(math.Cos(float64(l.OuterConeAngle)))
}

// SetDirection sets the light direction, normalizing it.
//
// Parameters:
//   - x, y, z: direction components
func (l *LightProxy) SetDirection(x, y, z float32) {
	l.Direction = common.Normalize3(x, y, z)
}

// SetSpotCone sets the inner and outer cone half-angles from degrees.
//
// Parameters:
//   - innerDeg: inner cone half-angle in degrees
//   - outerDeg: outer cone half-angle in degrees
func (l *LightProxy) SetSpotCone(innerDeg, outerDeg float32) {
	l.InnerConeAngle = innerDeg * math.Pi / 180
	l.OuterConeAngle = outerDeg * math.Pi / 180
}
