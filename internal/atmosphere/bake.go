package atmosphere

import (
	"math"
	"runtime"
	"sync"
	"time"

	"GopherAtmos/internal/logger"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"
)

// Numeric integration of the four lookup tables. All radiance is baked for a
// unit sun color; the evaluator multiplies by the celestial body color at
// lookup time. The bake chain is strictly ordered: multiple scattering first
// (read by the single-scattering composite), then the single-scattering
// table, then ground irradiance and sky view which read the earlier tables.

// scatterEstimate accumulates one ray march. The air and aerosol fields
// exclude the scattering coefficient and phase function (both constant along
// a straight ray); transfer and ms carry full per-channel radiance terms.
type scatterEstimate struct {
	air      mgl64.Vec3 // sum of T * airDensity * sunTransmittance * dt
	aerosol  mgl64.Vec3
	transfer mgl64.Vec3 // sum of T * (scattering coefficient x density) * dt
	ms       mgl64.Vec3 // multiple-scattering composite radiance
	odTotal  mgl64.Vec3 // optical depth over the marched span
}

func (c Coefficients) densitiesAt(height float64) (air, aerosol, ozone float64) {
	h := math.Max(height, 0)
	air = math.Exp(-h / c.AirScaleHeight)
	aerosol = math.Exp(-h / c.AerosolScaleHeight)
	center := c.OzoneMinAltitude + 0.5*c.OzoneWidth
	ozone = saturate(1 - math.Abs(h-center)/math.Max(0.5*c.OzoneWidth, 1))
	return air, aerosol, ozone
}

// marchRay integrates along origin + dir*t over [0, tExit] with samples
// spaced quadratically: t = (i/N)^2 * tExit, biasing toward the ray origin
// where density is higher. When msTable is non-nil the multiple-scattering
// composite is accumulated as well.
func marchRay(c Coefficients, origin, dir, lightDir mgl64.Vec3, tExit float64, samples int, msTable *PrecomputedTables) scatterEstimate {
	var est scatterEstimate
	if tExit <= 0 || samples <= 0 {
		return est
	}
	var odAccum mgl64.Vec3
	prev := 0.0
	for i := 0; i < samples; i++ {
		s := float64(i+1) / float64(samples)
		tNext := s * s * tExit
		dt := tNext - prev
		tMid := 0.5 * (prev + tNext)
		prev = tNext

		pos := origin.Add(dir.Mul(tMid))
		r := math.Max(pos.Len(), c.PlanetRadius)
		airD, aeroD, ozoneD := c.densitiesAt(r - c.PlanetRadius)

		segOD := mgl64.Vec3{
			(c.AirExtinction[0]*airD + c.AerosolExtinction*aeroD + c.OzoneExtinction[0]*ozoneD) * dt,
			(c.AirExtinction[1]*airD + c.AerosolExtinction*aeroD + c.OzoneExtinction[1]*ozoneD) * dt,
			(c.AirExtinction[2]*airD + c.AerosolExtinction*aeroD + c.OzoneExtinction[2]*ozoneD) * dt,
		}
		trans := TransmittanceFromOpticalDepth(odAccum.Add(segOD.Mul(0.5)))
		odAccum = odAccum.Add(segOD)

		sunAtten := c.EvaluateSunColorAttenuation(pos, lightDir)

		est.air = est.air.Add(mulVec3(trans, sunAtten).Mul(airD * dt))
		est.aerosol = est.aerosol.Add(mulVec3(trans, sunAtten).Mul(aeroD * dt))

		scatterCoef := c.AirScattering.Mul(airD).Add(c.AerosolScattering.Mul(aeroD))
		est.transfer = est.transfer.Add(mulVec3(trans, scatterCoef).Mul(dt))

		if msTable != nil {
			cosLight := clamp(pos.Dot(lightDir)/r, -1, 1)
			ms := msTable.SampleMultipleScattering(c, r, cosLight)
			est.ms = est.ms.Add(mulVec3(mulVec3(trans, scatterCoef), ms).Mul(dt))
		}
	}
	est.odTotal = odAccum
	return est
}

// bakeMultipleScattering fills the infinite-order scattering table. Each
// cell Monte-Carlo-integrates a single-scatter estimate over uniformly
// distributed sphere directions, then closes the geometric series with
// MS = radiance / (1 - transfer).
func (t *PrecomputedTables) bakeMultipleScattering(c Coefficients) {
	lut := t.MultiScattering
	nDirs := t.Config.MultiScatterDirections
	if nDirs <= 0 {
		nDirs = 64
	}
	samples := t.Config.raySamples()

	parallelFor(lut.H, func(y int) {
		r := c.PlanetRadius + UnmapQuadraticHeight(texelToUnit(y, lut.H), c.MaxAltitude)
		origin := mgl64.Vec3{0, r, 0}
		for x := 0; x < lut.W; x++ {
			cosLight := UnmapLightZenith(texelToUnit(x, lut.W))
			sinLight := math.Sqrt(saturate(1 - cosLight*cosLight))
			lightDir := mgl64.Vec3{sinLight, cosLight, 0}

			var radiance, transfer mgl64.Vec3
			for i := 0; i < nDirs; i++ {
				u1, u2 := Hammersley2D(i, nDirs)
				dir := UniformSphereDirection(u1, u2)
				tExit, hitsGround := c.DistanceToAtmosphereExit(r, dir[1])
				est := marchRay(c, origin, dir, lightDir, tExit, samples, nil)

				radiance = radiance.Add(mulVec3(c.AirScattering, est.air))
				radiance = radiance.Add(mulVec3(c.AerosolScattering, est.aerosol))
				transfer = transfer.Add(est.transfer)

				if hitsGround {
					ground := origin.Add(dir.Mul(tExit))
					normal := ground.Normalize()
					e := mulVec3(c.EvaluateSunColorAttenuation(ground, lightDir),
						c.GroundAlbedo).Mul(saturate(normal.Dot(lightDir)) / math.Pi)
					radiance = radiance.Add(mulVec3(TransmittanceFromOpticalDepth(est.odTotal), e))
				}
			}
			// Uniform direction average: pdf 1/4pi against the isotropic
			// phase, so the weights collapse to 1/n.
			weight := 4 * math.Pi * IsotropicPhase() / float64(nDirs)
			radiance = radiance.Mul(weight)
			transfer = transfer.Mul(weight)

			ms := mgl64.Vec3{
				radiance[0] / (1 - math.Min(transfer[0], 0.999)),
				radiance[1] / (1 - math.Min(transfer[1], 0.999)),
				radiance[2] / (1 - math.Min(transfer[2], 0.999)),
			}
			lut.set(x, y, ms)
		}
	})
}

// bakeSingleScattering fills the packed 4D table: phase-weighted air and
// aerosol single scattering plus the multiple-scattering composite looked up
// from the table baked in the prior step.
func (t *PrecomputedTables) bakeSingleScattering(c Coefficients) {
	air := t.AirSingleScattering
	samples := t.Config.raySamples()

	parallelFor(air.W, func(w int) {
		cosLight := UnmapLightZenith(texelToUnit(w, air.W))
		sinLight := math.Sqrt(saturate(1 - cosLight*cosLight))
		for y := 0; y < air.Y; y++ {
			r := c.PlanetRadius + UnmapQuadraticHeight(texelToUnit(y, air.Y), c.MaxAltitude)
			origin := mgl64.Vec3{0, r, 0}
			cosHoriz := ComputeCosineOfHorizonAngle(r, c.PlanetRadius)
			for z := 0; z < air.Z; z++ {
				phi := UnmapAzimuth(texelToUnit(z, air.Z))
				lightDir := mgl64.Vec3{sinLight * math.Cos(phi), cosLight, sinLight * math.Sin(phi)}
				for x := 0; x < air.X; x++ {
					cosChi := UnmapCosineAroundPivot(texelToUnit(x, air.X), cosHoriz)
					sinChi := math.Sqrt(saturate(1 - cosChi*cosChi))
					viewDir := mgl64.Vec3{sinChi, cosChi, 0}

					tExit, _ := c.DistanceToAtmosphereExit(r, cosChi)
					est := marchRay(c, origin, viewDir, lightDir, tExit, samples, t)

					cosVL := clamp(viewDir.Dot(lightDir), -1, 1)
					t.AirSingleScattering.set(x, y, z, w,
						mulVec3(c.AirScattering, est.air).Mul(RayleighPhase(cosVL)))
					t.AerosolSingleScattering.set(x, y, z, w,
						mulVec3(c.AerosolScattering, est.aerosol).Mul(CornetteShanksPhase(c.Anisotropy, cosVL)))
					t.MultipleScatteringComposite.set(x, y, z, w, est.ms)
				}
			}
		}
	})
}

// bakeGroundIrradiance fills the 1D table: the direct transmitted term plus
// a cosine-weighted hemisphere integral of the single-scattering table.
func (t *PrecomputedTables) bakeGroundIrradiance(c Coefficients) {
	lut := t.GroundIrradiance
	nSamples := t.Config.GroundIrradianceSamples
	if nSamples <= 0 {
		nSamples = 8
	}
	surface := mgl64.Vec3{0, c.PlanetRadius, 0}

	for i := 0; i < lut.N; i++ {
		cosLight := UnmapLightZenith(texelToUnit(i, lut.N))
		sinLight := math.Sqrt(saturate(1 - cosLight*cosLight))
		lightDir := mgl64.Vec3{sinLight, cosLight, 0}

		direct := c.EvaluateSunColorAttenuation(surface, lightDir).Mul(saturate(cosLight))

		var sky mgl64.Vec3
		for s := 0; s < nSamples; s++ {
			dir := FibonacciHemisphereCosine(s, nSamples)
			phi := math.Atan2(dir[2], dir[0])
			sky = sky.Add(t.SampleInScatteredRadiance(c, c.PlanetRadius, dir[1], phi, cosLight))
		}
		// Cosine-weighted estimator: E = pi * average radiance.
		sky = sky.Mul(math.Pi / float64(nSamples))

		lut.set(i, direct.Add(sky))
	}
}

// bakeSkyView fills the camera-space 2D table for an observer at radius r
// with the light at zenith cosine up.L: the fast path for rays that never
// see the ground.
func (t *PrecomputedTables) bakeSkyView(c Coefficients, lightDir mgl64.Vec3, r float64) {
	lut := t.SkyView
	samples := t.Config.SkyViewSamples
	if samples <= 0 {
		samples = 4
	}
	r = clamp(r, c.PlanetRadius, c.AtmosphereRadius)
	cosLight := clamp(lightDir[1], -1, 1) // canonical frame: up = +Y
	sinLight := math.Sqrt(saturate(1 - cosLight*cosLight))
	frameLight := mgl64.Vec3{sinLight, cosLight, 0}
	origin := mgl64.Vec3{0, r, 0}
	cosHoriz := ComputeCosineOfHorizonAngle(r, c.PlanetRadius)

	parallelFor(lut.H, func(y int) {
		cosChi := UnmapCosineAroundPivot(texelToUnit(y, lut.H), cosHoriz)
		sinChi := math.Sqrt(saturate(1 - cosChi*cosChi))
		for x := 0; x < lut.W; x++ {
			phi := UnmapAzimuth(texelToUnit(x, lut.W))
			viewDir := mgl64.Vec3{sinChi * math.Cos(phi), cosChi, sinChi * math.Sin(phi)}

			tExit, _ := c.DistanceToAtmosphereExit(r, cosChi)
			est := marchRay(c, origin, viewDir, frameLight, tExit, samples, t)

			cosVL := clamp(viewDir.Dot(frameLight), -1, 1)
			radiance := mulVec3(c.AirScattering, est.air).Mul(RayleighPhase(cosVL))
			radiance = radiance.Add(mulVec3(c.AerosolScattering, est.aerosol).Mul(CornetteShanksPhase(c.Anisotropy, cosVL)))
			radiance = radiance.Add(est.ms)
			lut.set(x, y, radiance)
		}
	})
}

// EnsureBaked regenerates every stale table, in dependency order, within the
// current call. The stored hash is updated only after a successful bake, and
// the camera-space sky view is refreshed whenever the observer radius or the
// light direction moved. Returns whether the parameter-driven chain rebaked.
func (t *PrecomputedTables) EnsureBaked(p AtmosphereParameters, body CelestialBody, cameraPS mgl64.Vec3) bool {
	c := p.Derive()
	current := t.CurrentHash(p)
	rebaked := false

	if ShouldRebake(current, t.storedHash) {
		t.state = TableBaking
		start := time.Now()
		t.bakeMultipleScattering(c)
		t.bakeSingleScattering(c)
		t.bakeGroundIrradiance(c)
		t.storedHash = current
		rebaked = true
		if logger.Log != nil {
			logger.Log.Info("atmosphere tables baked",
				zap.Duration("elapsed", time.Since(start)),
				zap.Bool("halfResolution", t.Config.HalfResolution),
				zap.Uint32("hash", current))
		}
	}

	lightDir := body.DirectionToLight()
	r := math.Max(cameraPS.Len(), c.PlanetRadius)
	if rebaked || math.Abs(r-t.skyViewRadius) > 1 || lightDir.Sub(t.skyViewLight).Len() > 1e-6 {
		t.bakeSkyView(c, lightDir, r)
		t.skyViewRadius = r
		t.skyViewLight = lightDir
	}

	t.state = TableValid
	return rebaked
}

// parallelFor runs body(i) for i in [0,n) across the available cores and
// waits for completion. The bake stays synchronous from the caller's point
// of view.
func parallelFor(n int, body func(i int)) {
	workers := runtime.NumCPU()
	if workers > n {
		workers = n
	}
	if workers <= 1 {
		for i := 0; i < n; i++ {
			body(i)
		}
		return
	}
	var wg sync.WaitGroup
	jobs := make(chan int)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				body(i)
			}
		}()
	}
	for i := 0; i < n; i++ {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
}
