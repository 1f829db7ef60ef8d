package atmosphere

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"gonum.org/v1/gonum/floats"
)

// SkyIntensityMode selects how the scalar sky intensity is derived.
type SkyIntensityMode int

const (
	IntensityExposure SkyIntensityMode = iota // EV100
	IntensityLux                              // ratio against the upper-hemisphere lux
	IntensityMultiplier
)

// EvaluatorConfig carries the capability flags and intensity settings the
// host resolves once at startup.
type EvaluatorConfig struct {
	EnableDynamicAmbientProbe bool             `json:"enableDynamicAmbientProbe"`
	IntensityMode             SkyIntensityMode `json:"intensityMode"`
	Exposure                  float64          `json:"exposure"` // EV100
	DesiredLux                float64          `json:"desiredLux"`
	Multiplier                float64          `json:"multiplier"`
	AmbientProbeSamples       int              `json:"ambientProbeSamples"`
	LuxSamples                int              `json:"luxSamples"`
}

// DefaultEvaluatorConfig enables the dynamic ambient probe and a neutral
// multiplier.
func DefaultEvaluatorConfig() EvaluatorConfig {
	return EvaluatorConfig{
		EnableDynamicAmbientProbe: true,
		IntensityMode:             IntensityMultiplier,
		Multiplier:                1,
		DesiredLux:                20000,
		AmbientProbeSamples:       16,
		LuxSamples:                64,
	}
}

// Evaluator is the per-pixel hot path: it turns the baked tables plus a ray
// into final color and opacity. It only reads the tables.
type Evaluator struct {
	Params AtmosphereParameters
	Coef   Coefficients
	Body   CelestialBody
	Tables *PrecomputedTables
	Config EvaluatorConfig
}

// NewEvaluator derives the physical coefficients once and binds the frame
// inputs together.
func NewEvaluator(p AtmosphereParameters, body CelestialBody, tables *PrecomputedTables, cfg EvaluatorConfig) *Evaluator {
	return &Evaluator{
		Params: p,
		Coef:   p.Derive(),
		Body:   body,
		Tables: tables,
		Config: cfg,
	}
}

// rayFrame is the observer-centered geometry shared by the evaluation
// functions.
type rayFrame struct {
	r        float64
	up       mgl64.Vec3
	cosChi   float64
	cosHoriz float64
	cosLight float64
	phi      float64 // light azimuth relative to the view direction
}

func (e *Evaluator) frame(originPS, viewDir mgl64.Vec3) rayFrame {
	r := originPS.Len()
	var up mgl64.Vec3
	if r < 1 {
		up = mgl64.Vec3{0, 1, 0}
		r = e.Coef.PlanetRadius
	} else {
		up = originPS.Mul(1 / r)
		r = math.Max(r, e.Coef.PlanetRadius)
	}
	sunDir := e.Body.DirectionToLight()
	return rayFrame{
		r:        r,
		up:       up,
		cosChi:   clamp(viewDir.Dot(up), -1, 1),
		cosHoriz: ComputeCosineOfHorizonAngle(r, e.Coef.PlanetRadius),
		cosLight: clamp(sunDir.Dot(up), -1, 1),
		phi:      azimuthBetween(viewDir, sunDir, up),
	}
}

// azimuthBetween returns the angle between the projections of a and b onto
// the plane perpendicular to up. Degenerate projections resolve to zero.
func azimuthBetween(a, b, up mgl64.Vec3) float64 {
	at := a.Sub(up.Mul(a.Dot(up)))
	bt := b.Sub(up.Mul(b.Dot(up)))
	la, lb := at.Len(), bt.Len()
	if la < 1e-9 || lb < 1e-9 {
		return 0
	}
	cosPhi := clamp(at.Dot(bt)/(la*lb), -1, 1)
	return math.Acos(cosPhi)
}

// skyRadiance looks up the in-scattered radiance for a ray that stays in
// the atmosphere, preferring the camera-space sky-view table when the
// observer matches its bake point.
func (e *Evaluator) skyRadiance(f rayFrame) mgl64.Vec3 {
	t := e.Tables
	if t.State() == TableValid && math.Abs(f.r-t.skyViewRadius) <= 1 {
		u := MapAzimuth(f.phi)
		v := MapCosineAroundPivot(f.cosChi, f.cosHoriz)
		return maxVec3(t.SkyView.Sample(u, v), 0)
	}
	return t.SampleInScatteredRadiance(e.Coef, f.r, f.cosChi, f.phi, f.cosLight)
}

// RenderSky shades one sky pixel: ground-sphere hits take the Lambertian
// branch, everything else samples the scattering tables, adds the sun disk
// and runs the artistic grade. The returned opacity is the coverage used to
// composite the dome over a space background.
func (e *Evaluator) RenderSky(rayOriginPS, viewDir mgl64.Vec3) (mgl64.Vec3, float64) {
	f := e.frame(rayOriginPS, viewDir)
	sunDir := e.Body.DirectionToLight()

	if f.cosChi < f.cosHoriz {
		// Ground branch.
		tGround, _ := IntersectSphere(e.Coef.PlanetRadius, f.cosChi, f.r)
		if tGround < 0 {
			tGround = 0
		}
		origin := f.up.Mul(f.r)
		if rayOriginPS.Len() >= 1 {
			origin = rayOriginPS
		}
		ground := origin.Add(viewDir.Mul(tGround))
		normal := ground.Normalize()

		albedo := e.Coef.GroundAlbedo
		if e.Params.GroundAlbedoTexture != nil {
			albedo = mulVec3(albedo, e.Params.GroundAlbedoTexture.SampleDirection(normal, e.Params.GroundRotation))
		}
		cosSun := clamp(normal.Dot(sunDir), -1, 1)
		irradiance := mulVec3(e.Tables.SampleGroundIrradiance(cosSun), e.Body.Color)
		color := mulVec3(albedo, irradiance).Mul(1 / math.Pi)
		if e.Params.GroundEmissionTexture != nil {
			color = color.Add(e.Params.GroundEmissionTexture.SampleDirection(normal, e.Params.GroundRotation).
				Mul(e.Params.GroundEmissionMultiplier))
		}

		inscatter, trans := e.segmentScattering(f, origin, viewDir, tGround)
		color = inscatter.Add(mulVec3(color, trans))
		return color, 1
	}

	radiance := mulVec3(e.skyRadiance(f), e.Body.Color)
	od := e.Coef.OpticalDepth(f.r, f.cosChi, false)
	trans := TransmittanceFromOpticalDepth(od)
	radiance = radiance.Add(e.RenderSunDisk(viewDir, trans))

	opacity := mgl64.Vec3{1 - trans[0], 1 - trans[1], 1 - trans[2]}
	return e.AtmosphereArtisticOverride(radiance, opacity, f.cosChi)
}

// RenderSunDisk shades the direct disk and the falloff-weighted flare halo,
// attenuated by the transmittance along the view ray.
func (e *Evaluator) RenderSunDisk(viewDir, transmittance mgl64.Vec3) mgl64.Vec3 {
	b := e.Body
	cosAngle := clamp(viewDir.Dot(b.DirectionToLight()), -1, 1)
	if cosAngle < b.FlareCosOuter {
		return mgl64.Vec3{}
	}
	solid := math.Max(b.SolidAngle(), 1e-12)
	disk := b.Color.Mul(1 / solid)
	if b.Type == BodyMoon {
		if b.SurfaceTexture != nil {
			disk = mulVec3(disk, b.SurfaceTexture.SampleDirection(viewDir, 0))
		}
		disk = disk.Add(b.Color.Mul(b.Earthshine))
	}
	if cosAngle < b.FlareCosInner {
		span := math.Max(b.FlareCosInner-b.FlareCosOuter, 1e-12)
		weight := (cosAngle - b.FlareCosOuter) / span
		disk = disk.Mul(math.Pow(saturate(weight), math.Max(b.FlareFalloff, 0)))
	}
	return mulVec3(disk, transmittance)
}

// segmentScattering returns premultiplied in-scattered radiance and the
// per-channel transmittance for the ray segment [0, dist]: the table lookup
// for the full remaining path minus the attenuated lookup at the far end.
func (e *Evaluator) segmentScattering(f rayFrame, originPS, viewDir mgl64.Vec3, dist float64) (mgl64.Vec3, mgl64.Vec3) {
	one := mgl64.Vec3{1, 1, 1}
	if dist <= 0 {
		return mgl64.Vec3{}, one
	}
	c := e.Coef
	near := e.Tables.SampleInScatteredRadiance(c, f.r, f.cosChi, f.phi, f.cosLight)

	end := originPS.Add(viewDir.Mul(dist))
	fEnd := e.frame(end, viewDir)

	odNear := c.OpticalDepth(f.r, f.cosChi, false)
	odFar := c.OpticalDepth(fEnd.r, fEnd.cosChi, false)
	odSeg := maxVec3(odNear.Sub(odFar), 0)
	trans := TransmittanceFromOpticalDepth(odSeg)

	far := e.Tables.SampleInScatteredRadiance(c, fEnd.r, fEnd.cosChi, fEnd.phi, fEnd.cosLight)
	inscatter := maxVec3(near.Sub(mulVec3(trans, far)), 0)
	return mulVec3(inscatter, e.Body.Color), trans
}

// EvaluateAerialPerspective produces the premultiplied fog color and scalar
// opacity for an opaque surface at the given distance, for compositing as
// finalColor = fogColor + sceneColor*(1-fogOpacity).
func (e *Evaluator) EvaluateAerialPerspective(cameraPS, viewDir mgl64.Vec3, fragmentDistance float64) (mgl64.Vec3, float64) {
	f := e.frame(cameraPS, viewDir)
	tExit, _ := e.Coef.DistanceToAtmosphereExit(f.r, f.cosChi)
	dist := math.Min(math.Max(fragmentDistance, 0), tExit)
	inscatter, trans := e.segmentScattering(f, cameraPS, viewDir, dist)
	opacity := mgl64.Vec3{1 - trans[0], 1 - trans[1], 1 - trans[2]}
	return inscatter, Luminance(opacity)
}

// AtmosphereArtisticOverride applies the non-physical grade: desaturation
// toward luma, the horizon/zenith tint ramp, and the alpha remap. Returns
// the graded color and the scalar opacity.
func (e *Evaluator) AtmosphereArtisticOverride(color, opacity mgl64.Vec3, cosChi float64) (mgl64.Vec3, float64) {
	o := e.Params.Overrides

	lum := Luminance(color)
	color = lerpVec3(mgl64.Vec3{lum, lum, lum}, color, saturate(o.ColorSaturation))

	blend := math.Pow(saturate(cosChi), math.Max(o.HorizonZenithShift, 1e-3))
	tint := lerpVec3(o.HorizonTint, o.ZenithTint, blend)
	color = mulVec3(color, tint)

	alphaSat := math.Max(o.AlphaSaturation, 1e-3)
	graded := mgl64.Vec3{
		saturate(math.Pow(opacity[0], alphaSat) * o.AlphaMultiplier),
		saturate(math.Pow(opacity[1], alphaSat) * o.AlphaMultiplier),
		saturate(math.Pow(opacity[2], alphaSat) * o.AlphaMultiplier),
	}
	return color, Luminance(graded)
}

// EvaluateAmbientProbe integrates sky radiance over the hemisphere around a
// surface normal, returning irradiance. Disabled probes return black so the
// host can fall back to its static probe.
func (e *Evaluator) EvaluateAmbientProbe(positionPS, normal mgl64.Vec3) mgl64.Vec3 {
	if !e.Config.EnableDynamicAmbientProbe {
		return mgl64.Vec3{}
	}
	n := e.Config.AmbientProbeSamples
	if n <= 0 {
		n = 16
	}
	t1, t2 := orthonormalBasis(normal)
	var acc mgl64.Vec3
	for i := 0; i < n; i++ {
		local := FibonacciHemisphereCosine(i, n)
		dir := t1.Mul(local[0]).Add(normal.Mul(local[1])).Add(t2.Mul(local[2]))
		f := e.frame(positionPS, dir)
		if f.cosChi < f.cosHoriz {
			continue // ground occludes this direction
		}
		acc = acc.Add(e.skyRadiance(f))
	}
	return mulVec3(acc.Mul(math.Pi/float64(n)), e.Body.Color)
}

// UpperHemisphereLux is the illuminance of the baked sky on an upward
// facing surface at the camera position, used as the reference for the Lux
// intensity mode.
func (e *Evaluator) UpperHemisphereLux(positionPS mgl64.Vec3) float64 {
	n := e.Config.LuxSamples
	if n <= 0 {
		n = 64
	}
	lums := make([]float64, n)
	up := mgl64.Vec3{0, 1, 0}
	if positionPS.Len() >= 1 {
		up = positionPS.Normalize()
	}
	t1, t2 := orthonormalBasis(up)
	for i := 0; i < n; i++ {
		local := FibonacciHemisphereCosine(i, n)
		dir := t1.Mul(local[0]).Add(up.Mul(local[1])).Add(t2.Mul(local[2]))
		f := e.frame(positionPS, dir)
		lums[i] = Luminance(mulVec3(e.skyRadiance(f), e.Body.Color))
	}
	return math.Pi * floats.Sum(lums) / float64(n)
}

// SkyIntensity resolves the configured intensity mode into one scalar
// multiplier for the sky and ambient outputs.
func (e *Evaluator) SkyIntensity(cameraPS mgl64.Vec3) float64 {
	switch e.Config.IntensityMode {
	case IntensityExposure:
		// EV100 to luminance: L = 2^(EV - 3).
		return math.Exp2(e.Config.Exposure - 3)
	case IntensityLux:
		ref := e.UpperHemisphereLux(cameraPS)
		if ref <= 1e-9 {
			return 1
		}
		return e.Config.DesiredLux / ref
	default:
		return math.Max(e.Config.Multiplier, 0)
	}
}
