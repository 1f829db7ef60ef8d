package atmosphere

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// FogColorMode selects where the height fog gets its color.
type FogColorMode int

const (
	FogColorConstant FogColorMode = iota
	FogColorSky // sample the baked sky along the view direction
)

// FogParameters describe the analytic exponential height fog layered on top
// of the aerial perspective.
type FogParameters struct {
	Enabled          bool         `json:"enabled"`
	MaxFogDistance   float64      `json:"maxFogDistance"`
	ColorMode        FogColorMode `json:"colorMode"`
	Color            mgl64.Vec3   `json:"color"`
	BaseHeight       float64      `json:"baseHeight"`    // full density at and below
	MaximumHeight    float64      `json:"maximumHeight"` // density ~0 above
	MeanFreePath     float64      `json:"meanFreePath"`  // meters
	UnderwaterHeight float64      `json:"underwaterHeight"`
}

// DefaultFog returns a light sky-colored ground haze.
func DefaultFog() FogParameters {
	return FogParameters{
		Enabled:          true,
		MaxFogDistance:   5000,
		ColorMode:        FogColorSky,
		Color:            mgl64.Vec3{0.5, 0.6, 0.7},
		BaseHeight:       0,
		MaximumHeight:    1000,
		MeanFreePath:     400,
		UnderwaterHeight: -math.MaxFloat64,
	}
}

// scaleHeight derives the fog density scale height from the base/maximum
// band: density falls to 1/1000 at MaximumHeight.
func (f FogParameters) scaleHeight() float64 {
	return math.Max(f.MaximumHeight-f.BaseHeight, 1) / layerDepthFromScaleHeight
}

// opticalDepth integrates the exponential fog density (clamped to 1 below
// BaseHeight) along a ray from height h0 with vertical slope dy over
// distance d.
func (f FogParameters) opticalDepth(h0, dy, d float64) float64 {
	sigma := 1 / math.Max(f.MeanFreePath, 1)
	H := f.scaleHeight()
	density := func(h float64) float64 {
		return math.Exp(-math.Max(h-f.BaseHeight, 0) / H)
	}
	if math.Abs(dy) < 1e-5 {
		return sigma * density(h0) * d
	}
	h1 := h0 + dy*d
	// Split at the base height where the clamped profile changes.
	lo, hi := h0, h1
	if lo > hi {
		lo, hi = hi, lo
	}
	od := 0.0
	if lo < f.BaseHeight {
		// Constant-density span below the base.
		dense := math.Min(hi, f.BaseHeight) - lo
		od += sigma * dense / math.Abs(dy)
	}
	if hi > f.BaseHeight {
		a := math.Max(lo, f.BaseHeight)
		od += sigma * H / math.Abs(dy) * (density(a) - density(hi))
	}
	return od
}

// EvaluateAtmosphericScattering composes the local height fog with the
// far-range aerial perspective. The two are blended with a shallow "over"
// operator rather than true deep compositing; this is a deliberate,
// performance-motivated approximation whose look the system depends on.
func (e *Evaluator) EvaluateAtmosphericScattering(fog FogParameters, cameraPS, viewDir mgl64.Vec3, fragmentDistance float64) (mgl64.Vec3, float64) {
	atmoColor, atmoOpacity := e.EvaluateAerialPerspective(cameraPS, viewDir, fragmentDistance)
	if !fog.Enabled {
		return atmoColor, atmoOpacity
	}

	h0 := cameraPS.Len() - e.Coef.PlanetRadius
	if h0 < fog.UnderwaterHeight {
		return atmoColor, atmoOpacity // no fog below the water line
	}

	f := e.frame(cameraPS, viewDir)
	d := clamp(fragmentDistance, 0, fog.MaxFogDistance)
	od := fog.opticalDepth(h0, f.cosChi, d)
	fogOpacity := 1 - math.Exp(-od)

	var fogColor mgl64.Vec3
	if fog.ColorMode == FogColorSky {
		fogColor = mulVec3(e.skyRadiance(f), e.Body.Color)
	} else {
		fogColor = fog.Color
	}
	fogColor = fogColor.Mul(fogOpacity) // premultiplied

	color := fogColor.Add(atmoColor.Mul(1 - fogOpacity))
	opacity := fogOpacity + atmoOpacity*(1-fogOpacity)
	return color, opacity
}
