package atmosphere

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// BodyType distinguishes the dominant light source. A moon is lit geometry
// with earthshine rather than an emitter.
type BodyType int

const (
	BodyStar BodyType = iota
	BodyMoon
)

// CelestialBody is the single dominant light, supplied once per frame by the
// light provider and referenced (not copied) by evaluation calls.
type CelestialBody struct {
	Forward       mgl64.Vec3 // unit direction the light travels (body -> scene)
	Color         mgl64.Vec3 // linear color x intensity
	AngularRadius float64    // radians
	FlareCosInner float64
	FlareCosOuter float64
	FlareFalloff  float64
	Type          BodyType

	// Moon-only data.
	Earthshine     float64
	SurfaceTexture *Texture
}

// DefaultSun returns a star with the solar angular radius, pointed by
// elevation (radians above the horizon) and azimuth (radians around +Y).
func DefaultSun(elevation, azimuth float64) CelestialBody {
	const angularRadius = 0.004675 // ~0.2678 degrees
	dirToSun := mgl64.Vec3{
		math.Cos(elevation) * math.Cos(azimuth),
		math.Sin(elevation),
		math.Cos(elevation) * math.Sin(azimuth),
	}
	return CelestialBody{
		Forward:       dirToSun.Mul(-1),
		Color:         mgl64.Vec3{1, 1, 1},
		AngularRadius: angularRadius,
		FlareCosInner: math.Cos(angularRadius),
		FlareCosOuter: math.Cos(angularRadius * 8),
		FlareFalloff:  4,
		Type:          BodyStar,
	}
}

// DirectionToLight is the unit vector from the scene toward the body.
func (b CelestialBody) DirectionToLight() mgl64.Vec3 {
	return b.Forward.Mul(-1)
}

// SolidAngle of the body's disk as seen from the scene.
func (b CelestialBody) SolidAngle() float64 {
	return 2 * math.Pi * (1 - math.Cos(b.AngularRadius))
}
