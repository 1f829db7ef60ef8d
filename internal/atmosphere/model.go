package atmosphere

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// ModelType selects which set of derivation formulas produce the physical
// coefficients. EarthSimple and EarthAdvanced use fixed measured values,
// Custom derives everything from the zenith-opacity sliders.
type ModelType int

const (
	ModelEarthSimple ModelType = iota
	ModelEarthAdvanced
	ModelCustom
)

const (
	// EarthRadius is the mean radius of the planet in meters.
	EarthRadius = 6378100.0

	// Density falls to 1/1000 of its sea-level value at the top of a layer,
	// so layerDepth = scaleHeight * ln(1000).
	layerDepthFromScaleHeight = 6.907755278982137

	// Ceiling applied to zenith-opacity sliders so ln(1-opacity) stays finite.
	maxZenithOpacity = 0.999999

	// Minimum scale height accepted by the derivation, in meters. Keeps every
	// downstream division well defined.
	minScaleHeight = 1.0
)

// Sea-level coefficients for the Earth presets, per meter.
var (
	earthAirScattering     = mgl64.Vec3{5.802e-6, 13.558e-6, 33.1e-6}
	earthAerosolExtinction = 4.44e-6
	earthAerosolAlbedo     = 0.9
	earthOzoneExtinction   = mgl64.Vec3{6.5e-7, 1.881e-6, 8.5e-8}
)

// ArtisticOverrides are non-physical grading controls applied after the table
// lookups. None of them affect the baked integrals, so they are excluded from
// the precomputation parameter hash.
type ArtisticOverrides struct {
	ColorSaturation    float64    `json:"colorSaturation"`
	AlphaSaturation    float64    `json:"alphaSaturation"`
	AlphaMultiplier    float64    `json:"alphaMultiplier"`
	HorizonTint        mgl64.Vec3 `json:"horizonTint"`
	ZenithTint         mgl64.Vec3 `json:"zenithTint"`
	HorizonZenithShift float64    `json:"horizonZenithShift"`
}

// AtmosphereParameters is the immutable-per-frame snapshot of the
// configuration surface. All fields are pre-clamped by the owner; the only
// validation performed here is the zenith-opacity ceiling.
type AtmosphereParameters struct {
	Model        ModelType `json:"model"`
	PlanetRadius float64   `json:"planetRadius"` // meters

	// Air (Rayleigh) layer. Opacity fields are only used by ModelCustom.
	AirZenithOpacity mgl64.Vec3 `json:"airZenithOpacity"`
	AirAlbedoTint    mgl64.Vec3 `json:"airAlbedoTint"`
	AirScaleHeight   float64    `json:"airScaleHeight"` // meters

	// Aerosol (Mie) layer.
	AerosolZenithOpacity float64    `json:"aerosolZenithOpacity"`
	AerosolTint          mgl64.Vec3 `json:"aerosolTint"`
	AerosolScaleHeight   float64    `json:"aerosolScaleHeight"` // meters
	AerosolAnisotropy    float64    `json:"aerosolAnisotropy"`  // g in [-1,1]

	// Ozone band.
	OzoneDensity     float64 `json:"ozoneDensity"` // multiplier on the preset extinction
	OzoneMinAltitude float64 `json:"ozoneMinAltitude"`
	OzoneWidth       float64 `json:"ozoneWidth"`

	// Ground sphere.
	GroundAlbedo             mgl64.Vec3 `json:"groundAlbedo"`
	GroundAlbedoTexture      *Texture   `json:"-"` // optional lat-long map
	GroundEmissionTexture    *Texture   `json:"-"` // optional lat-long map
	GroundEmissionMultiplier float64    `json:"groundEmissionMultiplier"`
	GroundRotation           float64    `json:"groundRotation"` // radians about +Y

	Overrides ArtisticOverrides `json:"overrides"`
}

// DefaultEarthAtmosphere returns the EarthAdvanced preset: measured Rayleigh
// and ozone coefficients, a light aerosol haze, and neutral grading. The
// alpha overrides default to a curve that keeps the daytime sky visually
// opaque when composited over a space background.
func DefaultEarthAtmosphere() AtmosphereParameters {
	return AtmosphereParameters{
		Model:        ModelEarthAdvanced,
		PlanetRadius: EarthRadius,

		AirAlbedoTint:  mgl64.Vec3{1, 1, 1},
		AirScaleHeight: 8000,

		AerosolTint:        mgl64.Vec3{earthAerosolAlbedo, earthAerosolAlbedo, earthAerosolAlbedo},
		AerosolScaleHeight: 1200,
		AerosolAnisotropy:  0.76,

		OzoneDensity:     1,
		OzoneMinAltitude: 10000,
		OzoneWidth:       30000,

		GroundAlbedo:             mgl64.Vec3{0.25, 0.25, 0.25},
		GroundEmissionMultiplier: 1,

		Overrides: ArtisticOverrides{
			ColorSaturation:    1,
			AlphaSaturation:    0.5,
			AlphaMultiplier:    2,
			HorizonTint:        mgl64.Vec3{1, 1, 1},
			ZenithTint:         mgl64.Vec3{1, 1, 1},
			HorizonZenithShift: 1,
		},
	}
}

// ExtinctionFromZenithOpacityAndScaleHeight converts a zenith-opacity slider
// into a sea-level extinction coefficient. The total optical depth of an
// exponential layer seen from sea level to space is extinction*scaleHeight,
// so opacity = 1 - exp(-extinction*scaleHeight).
func ExtinctionFromZenithOpacityAndScaleHeight(opacity, scaleHeight float64) float64 {
	opacity = math.Min(opacity, maxZenithOpacity)
	if opacity < 0 {
		opacity = 0
	}
	h := math.Max(scaleHeight, minScaleHeight)
	return -math.Log(1-opacity) / h
}

// ZenithOpacityFromExtinctionAndScaleHeight is the inverse mapping, used by
// the configuration surface to display preset models in slider terms.
func ZenithOpacityFromExtinctionAndScaleHeight(extinction, scaleHeight float64) float64 {
	h := math.Max(scaleHeight, minScaleHeight)
	return 1 - math.Exp(-extinction*h)
}

// AirExtinctionCoefficient returns the per-channel sea-level air extinction.
func (p AtmosphereParameters) AirExtinctionCoefficient() mgl64.Vec3 {
	if p.Model != ModelCustom {
		return earthAirScattering // air albedo ~1: extinction == scattering
	}
	h := math.Max(p.AirScaleHeight, minScaleHeight)
	return mgl64.Vec3{
		ExtinctionFromZenithOpacityAndScaleHeight(p.AirZenithOpacity[0], h),
		ExtinctionFromZenithOpacityAndScaleHeight(p.AirZenithOpacity[1], h),
		ExtinctionFromZenithOpacityAndScaleHeight(p.AirZenithOpacity[2], h),
	}
}

// AirScatteringCoefficient is extinction scaled by the single-scattering
// albedo tint.
func (p AtmosphereParameters) AirScatteringCoefficient() mgl64.Vec3 {
	ext := p.AirExtinctionCoefficient()
	return mulVec3(ext, p.AirAlbedoTint)
}

// AerosolExtinctionCoefficient returns the scalar sea-level aerosol
// extinction.
func (p AtmosphereParameters) AerosolExtinctionCoefficient() float64 {
	if p.Model != ModelCustom {
		return earthAerosolExtinction
	}
	return ExtinctionFromZenithOpacityAndScaleHeight(p.AerosolZenithOpacity, p.AerosolScaleHeight)
}

// AerosolScatteringCoefficient is the scalar extinction times the aerosol
// tint.
func (p AtmosphereParameters) AerosolScatteringCoefficient() mgl64.Vec3 {
	ext := p.AerosolExtinctionCoefficient()
	return p.AerosolTint.Mul(ext)
}

// OzoneExtinctionCoefficient returns the per-channel ozone extinction at the
// center of the ozone band. EarthSimple has no ozone.
func (p AtmosphereParameters) OzoneExtinctionCoefficient() mgl64.Vec3 {
	switch p.Model {
	case ModelEarthSimple:
		return mgl64.Vec3{}
	case ModelEarthAdvanced:
		return earthOzoneExtinction
	default:
		return earthOzoneExtinction.Mul(p.OzoneDensity)
	}
}

// OzoneLayerBounds returns the minimum altitude and width of the ozone band.
func (p AtmosphereParameters) OzoneLayerBounds() (minAltitude, width float64) {
	return p.OzoneMinAltitude, p.OzoneWidth
}

// MaximumAtmosphereAltitude is the larger of the air and aerosol layer
// depths; above it both densities are treated as zero.
func (p AtmosphereParameters) MaximumAtmosphereAltitude() float64 {
	airDepth := math.Max(p.AirScaleHeight, minScaleHeight) * layerDepthFromScaleHeight
	aerosolDepth := math.Max(p.AerosolScaleHeight, minScaleHeight) * layerDepthFromScaleHeight
	return math.Max(airDepth, aerosolDepth)
}

// Coefficients is the derived physical parameter set consumed by the optical
// depth math and the table bakes. Derive it once per frame.
type Coefficients struct {
	PlanetRadius     float64
	AtmosphereRadius float64
	MaxAltitude      float64

	AirScaleHeight float64
	AirExtinction  mgl64.Vec3
	AirScattering  mgl64.Vec3

	AerosolScaleHeight float64
	AerosolExtinction  float64
	AerosolScattering  mgl64.Vec3
	Anisotropy         float64

	OzoneExtinction  mgl64.Vec3
	OzoneMinAltitude float64
	OzoneWidth       float64

	GroundAlbedo mgl64.Vec3
}

// Derive resolves the user-facing parameters into physical coefficients.
// Scale heights are floored and the radius clamped so every downstream
// function stays total.
func (p AtmosphereParameters) Derive() Coefficients {
	radius := math.Max(p.PlanetRadius, 1)
	maxAlt := p.MaximumAtmosphereAltitude()
	return Coefficients{
		PlanetRadius:     radius,
		AtmosphereRadius: radius + maxAlt,
		MaxAltitude:      maxAlt,

		AirScaleHeight: math.Max(p.AirScaleHeight, minScaleHeight),
		AirExtinction:  p.AirExtinctionCoefficient(),
		AirScattering:  p.AirScatteringCoefficient(),

		AerosolScaleHeight: math.Max(p.AerosolScaleHeight, minScaleHeight),
		AerosolExtinction:  p.AerosolExtinctionCoefficient(),
		AerosolScattering:  p.AerosolScatteringCoefficient(),
		Anisotropy:         clamp(p.AerosolAnisotropy, -1, 1),

		OzoneExtinction:  p.OzoneExtinctionCoefficient(),
		OzoneMinAltitude: math.Max(p.OzoneMinAltitude, 0),
		OzoneWidth:       math.Max(p.OzoneWidth, 1),

		GroundAlbedo: p.GroundAlbedo,
	}
}
