package atmosphere

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
)

// AtmosphereUniformBlock is the flat float32 snapshot of every runtime
// shader input, laid out as vec4-aligned rows for direct upload into a
// uniform/constant buffer. It is computed purely from the frame inputs;
// there is no hidden global state behind it.
type AtmosphereUniformBlock struct {
	PlanetRadius       float32
	AtmosphereRadius   float32
	AirScaleHeight     float32
	AerosolScaleHeight float32

	AirExtinction     mgl32.Vec3
	AerosolExtinction float32

	AirScattering mgl32.Vec3
	Anisotropy    float32

	AerosolScattering mgl32.Vec3
	OzoneMinAltitude  float32

	OzoneExtinction mgl32.Vec3
	OzoneWidth      float32

	GroundAlbedo mgl32.Vec3
	SkyIntensity float32

	SunDirection     mgl32.Vec3
	SunAngularRadius float32

	SunColor     mgl32.Vec3
	FlareFalloff float32

	HorizonTint     mgl32.Vec3
	ColorSaturation float32

	ZenithTint         mgl32.Vec3
	HorizonZenithShift float32

	FlareCosInner   float32
	FlareCosOuter   float32
	AlphaSaturation float32
	AlphaMultiplier float32
}

func vec3to32(v mgl64.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{float32(v[0]), float32(v[1]), float32(v[2])}
}

// BuildUniformBlock resolves the frame inputs into the uniform snapshot the
// GPU-facing evaluation stage consumes.
func BuildUniformBlock(p AtmosphereParameters, body CelestialBody, skyIntensity float64) AtmosphereUniformBlock {
	c := p.Derive()
	o := p.Overrides
	return AtmosphereUniformBlock{
		PlanetRadius:       float32(c.PlanetRadius),
		AtmosphereRadius:   float32(c.AtmosphereRadius),
		AirScaleHeight:     float32(c.AirScaleHeight),
		AerosolScaleHeight: float32(c.AerosolScaleHeight),

		AirExtinction:     vec3to32(c.AirExtinction),
		AerosolExtinction: float32(c.AerosolExtinction),

		AirScattering: vec3to32(c.AirScattering),
		Anisotropy:    float32(c.Anisotropy),

		AerosolScattering: vec3to32(c.AerosolScattering),
		OzoneMinAltitude:  float32(c.OzoneMinAltitude),

		OzoneExtinction: vec3to32(c.OzoneExtinction),
		OzoneWidth:      float32(c.OzoneWidth),

		GroundAlbedo: vec3to32(c.GroundAlbedo),
		SkyIntensity: float32(skyIntensity),

		SunDirection:     vec3to32(body.DirectionToLight()),
		SunAngularRadius: float32(body.AngularRadius),

		SunColor:     vec3to32(body.Color),
		FlareFalloff: float32(body.FlareFalloff),

		HorizonTint:     vec3to32(o.HorizonTint),
		ColorSaturation: float32(o.ColorSaturation),

		ZenithTint:         vec3to32(o.ZenithTint),
		HorizonZenithShift: float32(o.HorizonZenithShift),

		FlareCosInner:   float32(body.FlareCosInner),
		FlareCosOuter:   float32(body.FlareCosOuter),
		AlphaSaturation: float32(o.AlphaSaturation),
		AlphaMultiplier: float32(o.AlphaMultiplier),
	}
}
