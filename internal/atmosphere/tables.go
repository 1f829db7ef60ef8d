package atmosphere

import (
	"math"

	"GopherAtmos/internal/logger"

	"github.com/go-gl/mathgl/mgl64"
)

// Full-resolution table dimensions. The half-resolution variant halves every
// axis; it exists to bound the worst-case per-frame bake cost when
// parameters change every frame during interactive editing.
const (
	MultiScatterSize = 32 // square: (light zenith, radial distance)

	InScatterSizeX = 128 // view-zenith cosine
	InScatterSizeY = 32  // height
	InScatterSizeZ = 16  // light azimuth
	InScatterSizeW = 64  // light-zenith cosine

	GroundIrradianceSize = 256

	SkyViewWidth  = 256
	SkyViewHeight = 144
)

// BakeConfig carries the table quality settings. The sample counts are
// empirically chosen defaults; they are exposed as configuration rather than
// hardcoded, but the defaults match the reference visual output.
type BakeConfig struct {
	HalfResolution          bool `json:"halfResolution"`
	SingleScatterSamples    int  `json:"singleScatterSamples"`    // ray samples, full resolution
	MultiScatterDirections  int  `json:"multiScatterDirections"`  // sphere directions
	SkyViewSamples          int  `json:"skyViewSamples"`          // ray samples
	GroundIrradianceSamples int  `json:"groundIrradianceSamples"` // hemisphere samples
}

// DefaultBakeConfig returns the reference sample counts.
func DefaultBakeConfig() BakeConfig {
	return BakeConfig{
		SingleScatterSamples:    16,
		MultiScatterDirections:  64,
		SkyViewSamples:          4,
		GroundIrradianceSamples: 8,
	}
}

func (c BakeConfig) resolutionDivisor() int {
	if c.HalfResolution {
		return 2
	}
	return 1
}

// raySamples is the per-ray sample count for the single-scattering bake:
// 16 at full resolution, 4 in half-resolution mode.
func (c BakeConfig) raySamples() int {
	n := c.SingleScatterSamples
	if n <= 0 {
		n = 16
	}
	if c.HalfResolution {
		n = (n + 3) / 4
	}
	return n
}

// TableState is the per-table lifecycle: stale tables are fully regenerated
// in one synchronous pass whenever the governing hash changes.
type TableState int

const (
	TableStale TableState = iota
	TableBaking
	TableValid
)

// Table1D is an RGB lookup table over one mapped coordinate.
type Table1D struct {
	N   int
	Pix []float32
}

func newTable1D(n int) *Table1D {
	return &Table1D{N: n, Pix: make([]float32, n*3)}
}

func (t *Table1D) set(i int, c mgl64.Vec3) {
	t.Pix[i*3+0] = float32(c[0])
	t.Pix[i*3+1] = float32(c[1])
	t.Pix[i*3+2] = float32(c[2])
}

func (t *Table1D) at(i int) mgl64.Vec3 {
	if i < 0 {
		i = 0
	}
	if i >= t.N {
		i = t.N - 1
	}
	return mgl64.Vec3{float64(t.Pix[i*3]), float64(t.Pix[i*3+1]), float64(t.Pix[i*3+2])}
}

// Sample fetches the table with linear filtering, clamping at the ends.
func (t *Table1D) Sample(u float64) mgl64.Vec3 {
	f := unitToTexel(u, t.N)
	i := int(math.Floor(f))
	return lerpVec3(t.at(i), t.at(i+1), f-float64(i))
}

// Table2D is an RGB lookup table over two mapped coordinates.
type Table2D struct {
	W, H int
	Pix  []float32
}

func newTable2D(w, h int) *Table2D {
	return &Table2D{W: w, H: h, Pix: make([]float32, w*h*3)}
}

func (t *Table2D) set(x, y int, c mgl64.Vec3) {
	i := (y*t.W + x) * 3
	t.Pix[i+0] = float32(c[0])
	t.Pix[i+1] = float32(c[1])
	t.Pix[i+2] = float32(c[2])
}

func (t *Table2D) at(x, y int) mgl64.Vec3 {
	if x < 0 {
		x = 0
	}
	if x >= t.W {
		x = t.W - 1
	}
	if y < 0 {
		y = 0
	}
	if y >= t.H {
		y = t.H - 1
	}
	i := (y*t.W + x) * 3
	return mgl64.Vec3{float64(t.Pix[i]), float64(t.Pix[i+1]), float64(t.Pix[i+2])}
}

// Sample fetches the table with bilinear filtering, clamping at the edges.
func (t *Table2D) Sample(u, v float64) mgl64.Vec3 {
	fx := unitToTexel(u, t.W)
	fy := unitToTexel(v, t.H)
	x0 := int(math.Floor(fx))
	y0 := int(math.Floor(fy))
	tx := fx - float64(x0)
	ty := fy - float64(y0)
	top := lerpVec3(t.at(x0, y0), t.at(x0+1, y0), tx)
	bot := lerpVec3(t.at(x0, y0+1), t.at(x0+1, y0+1), tx)
	return lerpVec3(top, bot, ty)
}

// Table4D is the logically 4D in-scattered radiance table, packed into 3D
// texture coordinates as (X, W, Y*Z): the Y and Z axes are swapped into the
// deep dimension so the GPU variant bakes with fewer draw calls. The CPU
// copy keeps the same layout so both sides share the unmap functions.
type Table4D struct {
	X, Y, Z, W int
	Pix        []float32
}

func newTable4D(x, y, z, w int) *Table4D {
	return &Table4D{X: x, Y: y, Z: z, W: w, Pix: make([]float32, x*y*z*w*3)}
}

func (t *Table4D) index(x, y, z, w int) int {
	// Packed 3D coords: (x, w, y*Z+z).
	slice := y*t.Z + z
	return ((slice*t.W+w)*t.X + x) * 3
}

func (t *Table4D) set(x, y, z, w int, c mgl64.Vec3) {
	i := t.index(x, y, z, w)
	t.Pix[i+0] = float32(c[0])
	t.Pix[i+1] = float32(c[1])
	t.Pix[i+2] = float32(c[2])
}

func (t *Table4D) at(x, y, z, w int) mgl64.Vec3 {
	x = clampIndex(x, t.X)
	y = clampIndex(y, t.Y)
	w = clampIndex(w, t.W)
	// Azimuth wraps.
	z = ((z % t.Z) + t.Z) % t.Z
	i := t.index(x, y, z, w)
	return mgl64.Vec3{float64(t.Pix[i]), float64(t.Pix[i+1]), float64(t.Pix[i+2])}
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

// Sample fetches the table with quadrilinear filtering. ux, uy, uw clamp;
// uz wraps (azimuth).
func (t *Table4D) Sample(ux, uy, uz, uw float64) mgl64.Vec3 {
	fx := unitToTexel(ux, t.X)
	fy := unitToTexel(uy, t.Y)
	fz := (uz-math.Floor(uz))*float64(t.Z) - 0.5
	fw := unitToTexel(uw, t.W)

	x0, y0, w0 := int(math.Floor(fx)), int(math.Floor(fy)), int(math.Floor(fw))
	z0 := int(math.Floor(fz))
	tx, ty, tz, tw := fx-float64(x0), fy-float64(y0), fz-float64(z0), fw-float64(w0)

	var acc mgl64.Vec3
	for dw := 0; dw < 2; dw++ {
		ww := tw
		if dw == 0 {
			ww = 1 - tw
		}
		for dz := 0; dz < 2; dz++ {
			wz := tz
			if dz == 0 {
				wz = 1 - tz
			}
			for dy := 0; dy < 2; dy++ {
				wy := ty
				if dy == 0 {
					wy = 1 - ty
				}
				for dx := 0; dx < 2; dx++ {
					wx := tx
					if dx == 0 {
						wx = 1 - tx
					}
					weight := wx * wy * wz * ww
					if weight == 0 {
						continue
					}
					acc = acc.Add(t.at(x0+dx, y0+dy, z0+dz, w0+dw).Mul(weight))
				}
			}
		}
	}
	return acc
}

// PrecomputedTables owns the four LUT resources. The bake stage is their
// only writer; the runtime evaluator samples them read-only, which the
// single-threaded record order guarantees is race free.
type PrecomputedTables struct {
	Config BakeConfig

	MultiScattering             *Table2D // (light zenith, radial distance)
	AirSingleScattering         *Table4D
	AerosolSingleScattering     *Table4D
	MultipleScatteringComposite *Table4D
	GroundIrradiance            *Table1D
	SkyView                     *Table2D

	state         TableState
	storedHash    uint32
	skyViewRadius float64
	skyViewLight  mgl64.Vec3
}

// NewPrecomputedTables allocates table storage for the requested quality.
func NewPrecomputedTables(cfg BakeConfig) *PrecomputedTables {
	logger.Init()
	d := cfg.resolutionDivisor()
	return &PrecomputedTables{
		Config:                      cfg,
		MultiScattering:             newTable2D(MultiScatterSize/d, MultiScatterSize/d),
		AirSingleScattering:         newTable4D(InScatterSizeX/d, InScatterSizeY/d, InScatterSizeZ/d, InScatterSizeW/d),
		AerosolSingleScattering:     newTable4D(InScatterSizeX/d, InScatterSizeY/d, InScatterSizeZ/d, InScatterSizeW/d),
		MultipleScatteringComposite: newTable4D(InScatterSizeX/d, InScatterSizeY/d, InScatterSizeZ/d, InScatterSizeW/d),
		GroundIrradiance:            newTable1D(GroundIrradianceSize / d),
		SkyView:                     newTable2D(SkyViewWidth/d, SkyViewHeight/d),
		state:                       TableStale,
	}
}

// State reports where the tables sit in the stale/baking/valid lifecycle.
func (t *PrecomputedTables) State() TableState {
	return t.state
}

// allocationHash folds the table resource identity (dimensions) into the
// rebake decision, so a resize or half-resolution toggle forces
// regeneration even with unchanged physical parameters.
func (t *PrecomputedTables) allocationHash() uint32 {
	h := hashSeed
	h = hashUint32(h, uint32(t.MultiScattering.W))
	h = hashUint32(h, uint32(t.AirSingleScattering.X))
	h = hashUint32(h, uint32(t.AirSingleScattering.Y))
	h = hashUint32(h, uint32(t.AirSingleScattering.Z))
	h = hashUint32(h, uint32(t.AirSingleScattering.W))
	h = hashUint32(h, uint32(t.GroundIrradiance.N))
	h = hashUint32(h, uint32(t.SkyView.W))
	return h
}

// CurrentHash is the governing hash for these tables under the given
// parameters.
func (t *PrecomputedTables) CurrentHash(p AtmosphereParameters) uint32 {
	h := hashUint32(ComputeParameterHash(p), t.allocationHash())
	if h == 0 {
		h = hashSeed
	}
	return h
}

// NeedsRebake reports whether EnsureBaked would regenerate the tables.
func (t *PrecomputedTables) NeedsRebake(p AtmosphereParameters) bool {
	return ShouldRebake(t.CurrentHash(p), t.storedHash)
}

// SampleInScatteredRadiance returns the combined in-scattered radiance
// (air + aerosol + multiple scattering, unit sun color) for a ray leaving
// radius r with view-zenith cosine cosChi, light azimuth phi and
// light-zenith cosine cosLight.
func (t *PrecomputedTables) SampleInScatteredRadiance(c Coefficients, r, cosChi, phi, cosLight float64) mgl64.Vec3 {
	ux := MapCosineAroundPivot(cosChi, ComputeCosineOfHorizonAngle(r, c.PlanetRadius))
	uy := MapQuadraticHeight(r-c.PlanetRadius, c.MaxAltitude)
	uz := MapAzimuth(phi)
	uw := MapLightZenith(cosLight)

	v := t.AirSingleScattering.Sample(ux, uy, uz, uw)
	v = v.Add(t.AerosolSingleScattering.Sample(ux, uy, uz, uw))
	v = v.Add(t.MultipleScatteringComposite.Sample(ux, uy, uz, uw))
	return maxVec3(v, 0)
}

// SampleMultipleScattering returns the isotropic infinite-order scattering
// radiance for a point at radius r and light-zenith cosine cosLight.
func (t *PrecomputedTables) SampleMultipleScattering(c Coefficients, r, cosLight float64) mgl64.Vec3 {
	u := MapLightZenith(cosLight)
	v := MapQuadraticHeight(r-c.PlanetRadius, c.MaxAltitude)
	return maxVec3(t.MultiScattering.Sample(u, v), 0)
}

// SampleGroundIrradiance returns the hemisphere irradiance reaching the
// ground for a sun-zenith cosine, unit sun color.
func (t *PrecomputedTables) SampleGroundIrradiance(cosLight float64) mgl64.Vec3 {
	return maxVec3(t.GroundIrradiance.Sample(MapLightZenith(cosLight)), 0)
}
