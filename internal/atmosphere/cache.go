package atmosphere

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Hash-based dirty tracking for the precomputed tables. The hash covers
// every field that affects a baked integral and nothing else: artistic
// overrides, textures and the ground rotation only change runtime shading,
// so editing them never triggers a rebake.

// hashSeed keeps an all-zero parameter set from colliding with the "never
// baked" sentinel.
const hashSeed uint32 = 17

func hashUint32(h, v uint32) uint32 {
	return h*23 + v
}

func hashFloat(h uint32, f float64) uint32 {
	return hashUint32(h, math.Float32bits(float32(f)))
}

func hashVec3(h uint32, v mgl64.Vec3) uint32 {
	h = hashFloat(h, v[0])
	h = hashFloat(h, v[1])
	return hashFloat(h, v[2])
}

// ComputeParameterHash folds every precomputation-affecting field of the
// parameter set into a 32-bit rolling hash.
func ComputeParameterHash(p AtmosphereParameters) uint32 {
	h := hashSeed
	h = hashUint32(h, uint32(p.Model))
	h = hashFloat(h, p.PlanetRadius)

	h = hashVec3(h, p.AirZenithOpacity)
	h = hashVec3(h, p.AirAlbedoTint)
	h = hashFloat(h, p.AirScaleHeight)

	h = hashFloat(h, p.AerosolZenithOpacity)
	h = hashVec3(h, p.AerosolTint)
	h = hashFloat(h, p.AerosolScaleHeight)
	h = hashFloat(h, p.AerosolAnisotropy)

	h = hashFloat(h, p.OzoneDensity)
	h = hashFloat(h, p.OzoneMinAltitude)
	h = hashFloat(h, p.OzoneWidth)

	h = hashVec3(h, p.GroundAlbedo)

	if h == 0 {
		h = hashSeed // never emit the sentinel
	}
	return h
}

// ShouldRebake reports whether the tables guarded by storedHash are stale.
// The zero sentinel forces an unconditional first bake.
func ShouldRebake(currentHash, storedHash uint32) bool {
	return currentHash != storedHash || storedHash == 0
}
