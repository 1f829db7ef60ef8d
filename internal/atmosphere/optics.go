package atmosphere

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Closed-form optical depth along straight rays through a spherically
// stratified exponential atmosphere. Everything here is a pure, total
// function: degenerate geometry resolves to a clamped value, never an error.

// Width of the cosine band over which direct sunlight fades out at the
// horizon, to avoid a hard terminator edge.
const penumbraBand = 0.0019

// ComputeCosineOfHorizonAngle returns the view-ray zenith cosine at which a
// ray from radius r grazes the sphere of radius R. Always <= 0 for r >= R.
func ComputeCosineOfHorizonAngle(r, R float64) float64 {
	s := R / math.Max(r, R)
	return -math.Sqrt(saturate(1 - s*s))
}

// ChapmanUpperApprox is a rational approximation of the Chapman function:
// the integral of exp(-h) density along a slant ray from reduced altitude z
// toward space, for zenith cosine cosTheta >= 0, relative to the density at
// the ray origin.
func ChapmanUpperApprox(z, cosTheta float64) float64 {
	c := cosTheta
	n := 0.761643 * ((1 + 2*z) - c*c*z)
	d := c*z + math.Sqrt(z*(1.47721+0.273828*c*c*z))
	return 0.5*c + n/d
}

// ChapmanHorizontal is the cosTheta = 0 limit of the Chapman function.
func ChapmanHorizontal(z float64) float64 {
	r := 1 / math.Sqrt(z)
	return 0.626657 * (r + 2*z*r)
}

// IntersectSphere intersects a ray against the sphere of the given radius,
// in the observer-centered frame: the observer sits at radius r from the
// planet center and the ray leaves it with zenith cosine cosChi. Returns the
// near and far ray parameters; when the ray misses, both components equal
// the (negative) discriminant.
func IntersectSphere(radius, cosChi, r float64) (tNear, tFar float64) {
	b := r * cosChi
	c := r*r - radius*radius
	disc := b*b - c
	if disc < 0 {
		return disc, disc
	}
	s := math.Sqrt(disc)
	return -b - s, -b + s
}

// distantPointRadius is the radius of the point t meters along a ray leaving
// radius r with zenith cosine cosChi.
func distantPointRadius(r, cosChi, t float64) float64 {
	return math.Sqrt(r*r + t*t + 2*r*cosChi*t)
}

// ComputeOzoneOpticalDepth integrates the tent-shaped ozone density along
// the ray by a 2-sample midpoint rule over up to two segments, bounded by
// the intersections with the inner and outer shells of the ozone band.
// The result is a plain density-times-distance integral; the caller scales
// it by the per-channel extinction.
func ComputeOzoneOpticalDepth(R, r, cosTheta, ozoneMinAltitude, ozoneWidth, tMax float64) float64 {
	innerRadius := R + ozoneMinAltitude
	outerRadius := innerRadius + ozoneWidth
	center := ozoneMinAltitude + 0.5*ozoneWidth
	halfWidth := math.Max(0.5*ozoneWidth, 1)

	outerNear, outerFar := IntersectSphere(outerRadius, cosTheta, r)
	if outerFar < 0 {
		return 0 // ray never enters the ozone shell
	}
	entry := math.Max(outerNear, 0)
	exit := math.Min(outerFar, tMax)
	if exit <= entry {
		return 0
	}

	// The inner shell splits the outer interval into as many as two segments.
	var segs [2][2]float64
	nSegs := 0
	innerNear, innerFar := IntersectSphere(innerRadius, cosTheta, r)
	if innerFar >= 0 && innerNear < exit && innerFar > entry {
		if innerNear > entry {
			segs[nSegs] = [2]float64{entry, math.Min(innerNear, exit)}
			nSegs++
		}
		if innerFar < exit {
			segs[nSegs] = [2]float64{innerFar, exit}
			nSegs++
		}
	} else {
		segs[nSegs] = [2]float64{entry, exit}
		nSegs++
	}

	od := 0.0
	for i := 0; i < nSegs; i++ {
		a, b := segs[i][0], segs[i][1]
		if b <= a {
			continue
		}
		half := 0.5 * (b - a)
		for j := 0; j < 2; j++ {
			tMid := a + half*(float64(j)+0.5) // midpoints of the two halves
			h := distantPointRadius(r, cosTheta, tMid) - R
			od += saturate(1-math.Abs(h-center)/halfWidth) * half
		}
	}
	return od
}

// ComputeAtmosphericOpticalDepth composes the Chapman evaluations for the
// air and aerosol layers with a sign correction for rays that dip below or
// re-emerge from the horizon, then adds the ozone band. Three regimes:
// strictly above the horizon in the upper hemisphere, below the horizon and
// terminating on the ground, and above the horizon but entering the lower
// hemisphere before re-emerging. r must be >= R and both scale heights must
// be strictly positive (the parameter derivation guarantees both).
func ComputeAtmosphericOpticalDepth(
	airScaleHeight, aerosolScaleHeight float64,
	airExtinction mgl64.Vec3, aerosolExtinction float64,
	ozoneMinAltitude, ozoneWidth float64, ozoneExtinction mgl64.Vec3,
	R, r, cosTheta float64, alwaysAboveHorizon bool,
) mgl64.Vec3 {
	nAir := 1 / airScaleHeight
	nAero := 1 / aerosolScaleHeight
	zAir, zAero := nAir*r, nAero*r
	ZAir, ZAero := nAir*R, nAero*R

	cosHoriz := ComputeCosineOfHorizonAngle(r, R)
	sinTheta := math.Sqrt(saturate(1 - cosTheta*cosTheta))
	absCos := math.Abs(cosTheta)

	chAir := ChapmanUpperApprox(zAir, absCos) * math.Exp(ZAir-zAir)
	chAero := ChapmanUpperApprox(zAero, absCos) * math.Exp(ZAero-zAero)

	belowHorizon := !alwaysAboveHorizon && cosTheta < cosHoriz
	tGround := math.Inf(1)
	switch {
	case belowHorizon:
		// The ray terminates on the ground. Evaluate the reversed ray from
		// the ground point (zenith cosine cosGamma, already at sea level so
		// no rescale) and subtract the part beyond the observer.
		sinGamma := (r / R) * sinTheta
		cosGamma := math.Sqrt(saturate(1 - sinGamma*sinGamma))
		chAir = ChapmanUpperApprox(ZAir, cosGamma) - chAir
		chAero = ChapmanUpperApprox(ZAero, cosGamma) - chAero
		tGround, _ = IntersectSphere(R, cosTheta, r)
		if tGround < 0 {
			tGround = 0
		}
	case cosTheta < 0:
		// Lower hemisphere but above the horizon: the ray descends to the
		// tangent radius r0 = r*sinTheta and climbs back out. Twice the
		// horizontal integral at the tangent point minus the part behind
		// the observer.
		z0Air := zAir * sinTheta
		z0Aero := zAero * sinTheta
		chAir = 2*ChapmanHorizontal(z0Air)*math.Exp(ZAir-z0Air) - chAir
		chAero = 2*ChapmanHorizontal(z0Aero)*math.Exp(ZAero-z0Aero) - chAero
	}

	odAir := chAir * airScaleHeight
	odAero := chAero * aerosolScaleHeight
	odOzone := ComputeOzoneOpticalDepth(R, r, cosTheta, ozoneMinAltitude, ozoneWidth, tGround)

	return mgl64.Vec3{
		airExtinction[0]*odAir + aerosolExtinction*odAero + ozoneExtinction[0]*odOzone,
		airExtinction[1]*odAir + aerosolExtinction*odAero + ozoneExtinction[1]*odOzone,
		airExtinction[2]*odAir + aerosolExtinction*odAero + ozoneExtinction[2]*odOzone,
	}
}

// OpticalDepth is the coefficient-bound form of
// ComputeAtmosphericOpticalDepth.
func (c Coefficients) OpticalDepth(r, cosTheta float64, alwaysAboveHorizon bool) mgl64.Vec3 {
	r = math.Max(r, c.PlanetRadius)
	return ComputeAtmosphericOpticalDepth(
		c.AirScaleHeight, c.AerosolScaleHeight,
		c.AirExtinction, c.AerosolExtinction,
		c.OzoneMinAltitude, c.OzoneWidth, c.OzoneExtinction,
		c.PlanetRadius, r, cosTheta, alwaysAboveHorizon,
	)
}

// EvaluateSunColorAttenuation returns the transmittance of direct sunlight
// from outer space to a point in planet space: zero below the horizon and
// smoothed across a narrow penumbra band at it.
func (c Coefficients) EvaluateSunColorAttenuation(positionPS, sunDirection mgl64.Vec3) mgl64.Vec3 {
	r := math.Max(positionPS.Len(), c.PlanetRadius)
	cosTheta := positionPS.Dot(sunDirection) / math.Max(positionPS.Len(), 1e-9)
	cosTheta = clamp(cosTheta, -1, 1)
	cosHoriz := ComputeCosineOfHorizonAngle(r, c.PlanetRadius)
	if cosTheta < cosHoriz {
		return mgl64.Vec3{}
	}
	od := c.OpticalDepth(r, cosTheta, true)
	penumbra := saturate((cosTheta - cosHoriz) / penumbraBand)
	return TransmittanceFromOpticalDepth(od).Mul(penumbra)
}

// DistanceToAtmosphereExit returns how far a ray travels before leaving the
// atmosphere or striking the ground, whichever comes first, plus whether it
// hits the ground.
func (c Coefficients) DistanceToAtmosphereExit(r, cosChi float64) (t float64, hitsGround bool) {
	r = math.Max(r, c.PlanetRadius)
	gNear, _ := IntersectSphere(c.PlanetRadius, cosChi, r)
	if gNear >= 0 {
		return gNear, true
	}
	_, aFar := IntersectSphere(c.AtmosphereRadius, cosChi, r)
	if aFar < 0 {
		return 0, false // outside the atmosphere, pointing away
	}
	return aFar, false
}
