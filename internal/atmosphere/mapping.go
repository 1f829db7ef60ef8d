package atmosphere

import (
	"math"
)

// Table parameterizations. Every map/unmap pair is bijective and stable at
// the poles (cosine near +/-1); the signed-sqrt warps concentrate texel
// density at the horizon, where the terminator needs the precision.

// MapQuadraticHeight maps an altitude in [0, maxAltitude] to [0,1] with more
// texels near the ground, where density is highest.
func MapQuadraticHeight(height, maxAltitude float64) float64 {
	return math.Sqrt(saturate(height / math.Max(maxAltitude, 1)))
}

// UnmapQuadraticHeight inverts MapQuadraticHeight.
func UnmapQuadraticHeight(u, maxAltitude float64) float64 {
	return u * u * math.Max(maxAltitude, 1)
}

// MapCosineAroundPivot maps a cosine in [-1,1] to [0,1] such that the pivot
// lands on 0.5 and texel density grows toward it. Used with the horizon
// cosine for view angles and with pivot 0 for light angles.
func MapCosineAroundPivot(c, pivot float64) float64 {
	c = clamp(c, -1, 1)
	pivot = clamp(pivot, -0.999999, 0.999999)
	if c >= pivot {
		return 0.5 + 0.5*math.Sqrt((c-pivot)/(1-pivot))
	}
	return 0.5 - 0.5*math.Sqrt((pivot-c)/(pivot+1))
}

// UnmapCosineAroundPivot inverts MapCosineAroundPivot.
func UnmapCosineAroundPivot(u, pivot float64) float64 {
	u = saturate(u)
	pivot = clamp(pivot, -0.999999, 0.999999)
	if u >= 0.5 {
		s := 2*u - 1
		return pivot + s*s*(1-pivot)
	}
	s := 1 - 2*u
	return pivot - s*s*(pivot+1)
}

// MapLightZenith maps the light-zenith cosine with the pivot at the
// horizontal.
func MapLightZenith(cosLight float64) float64 {
	return MapCosineAroundPivot(cosLight, 0)
}

// UnmapLightZenith inverts MapLightZenith.
func UnmapLightZenith(u float64) float64 {
	return UnmapCosineAroundPivot(u, 0)
}

// MapAzimuth maps an angle in radians to [0,1), wrapping.
func MapAzimuth(phi float64) float64 {
	u := phi / (2 * math.Pi)
	return u - math.Floor(u)
}

// UnmapAzimuth inverts MapAzimuth into [0, 2pi).
func UnmapAzimuth(u float64) float64 {
	return (u - math.Floor(u)) * 2 * math.Pi
}

// texelToUnit converts a texel index to the continuous coordinate at its
// center.
func texelToUnit(i, n int) float64 {
	return (float64(i) + 0.5) / float64(n)
}

// unitToTexel converts a continuous coordinate to a fractional texel
// position for filtering.
func unitToTexel(u float64, n int) float64 {
	return saturate(u)*float64(n) - 0.5
}
