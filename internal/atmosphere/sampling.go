package atmosphere

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Quasi-random direction sets and phase functions shared by the table bakes.

const goldenRatio = 1.618033988749895

// radicalInverse is the base-2 van der Corput sequence.
func radicalInverse(bits uint32) float64 {
	bits = (bits << 16) | (bits >> 16)
	bits = ((bits & 0x55555555) << 1) | ((bits & 0xAAAAAAAA) >> 1)
	bits = ((bits & 0x33333333) << 2) | ((bits & 0xCCCCCCCC) >> 2)
	bits = ((bits & 0x0F0F0F0F) << 4) | ((bits & 0xF0F0F0F0) >> 4)
	bits = ((bits & 0x00FF00FF) << 8) | ((bits & 0xFF00FF00) >> 8)
	return float64(bits) * 2.3283064365386963e-10 // / 2^32
}

// Hammersley2D returns the i-th point of an n-point Hammersley set in
// [0,1)^2.
func Hammersley2D(i, n int) (u1, u2 float64) {
	return float64(i) / float64(n), radicalInverse(uint32(i))
}

// UniformSphereDirection maps a 2D sample to a uniformly distributed unit
// direction.
func UniformSphereDirection(u1, u2 float64) mgl64.Vec3 {
	cosTheta := 1 - 2*u1
	sinTheta := math.Sqrt(saturate(1 - cosTheta*cosTheta))
	phi := 2 * math.Pi * u2
	return mgl64.Vec3{sinTheta * math.Cos(phi), cosTheta, sinTheta * math.Sin(phi)}
}

// FibonacciHemisphereCosine returns the i-th of n cosine-weighted directions
// in the +Y hemisphere, laid out on a Fibonacci spiral.
func FibonacciHemisphereCosine(i, n int) mgl64.Vec3 {
	u := (float64(i) + 0.5) / float64(n)
	phi := 2 * math.Pi * math.Mod(float64(i)/goldenRatio, 1)
	// Cosine weighting: sample the disk uniformly, project up.
	sinTheta := math.Sqrt(u)
	cosTheta := math.Sqrt(saturate(1 - u))
	return mgl64.Vec3{sinTheta * math.Cos(phi), cosTheta, sinTheta * math.Sin(phi)}
}

// RayleighPhase is the normalized molecular phase function.
func RayleighPhase(cosTheta float64) float64 {
	return 3.0 / (16.0 * math.Pi) * (1 + cosTheta*cosTheta)
}

// CornetteShanksPhase is the aerosol phase function for anisotropy g.
func CornetteShanksPhase(g, cosTheta float64) float64 {
	gg := g * g
	num := (1 - gg) * (1 + cosTheta*cosTheta)
	den := (2 + gg) * math.Pow(1+gg-2*g*cosTheta, 1.5)
	return 3.0 / (8.0 * math.Pi) * num / math.Max(den, 1e-12)
}

// IsotropicPhase is 1/4pi, used for the multiple-scattering estimate.
func IsotropicPhase() float64 {
	return 1.0 / (4.0 * math.Pi)
}

// orthonormalBasis builds two tangents for a unit vector, stable for any
// orientation.
func orthonormalBasis(n mgl64.Vec3) (t, b mgl64.Vec3) {
	s := math.Copysign(1, n[2])
	a := -1 / (s + n[2])
	bb := n[0] * n[1] * a
	t = mgl64.Vec3{1 + s*n[0]*n[0]*a, s * bb, -s * n[0]}
	b = mgl64.Vec3{bb, s + n[1]*n[1]*a, -n[1]}
	return t, b
}
