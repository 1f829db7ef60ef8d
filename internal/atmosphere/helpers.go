package atmosphere

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

func clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(x, hi))
}

// saturate clamps to [0,1], the shader idiom used throughout the optical
// math to keep trig domains safe.
func saturate(x float64) float64 {
	return clamp(x, 0, 1)
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

func lerpVec3(a, b mgl64.Vec3, t float64) mgl64.Vec3 {
	return mgl64.Vec3{lerp(a[0], b[0], t), lerp(a[1], b[1], t), lerp(a[2], b[2], t)}
}

func mulVec3(a, b mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{a[0] * b[0], a[1] * b[1], a[2] * b[2]}
}

func maxVec3(v mgl64.Vec3, x float64) mgl64.Vec3 {
	return mgl64.Vec3{math.Max(v[0], x), math.Max(v[1], x), math.Max(v[2], x)}
}

// Luminance returns the Rec.709 luma of a linear RGB color.
func Luminance(c mgl64.Vec3) float64 {
	return 0.2126*c[0] + 0.7152*c[1] + 0.0722*c[2]
}

// TransmittanceFromOpticalDepth is exp(-od) per channel.
func TransmittanceFromOpticalDepth(od mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{math.Exp(-od[0]), math.Exp(-od[1]), math.Exp(-od[2])}
}
