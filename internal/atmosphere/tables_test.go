package atmosphere

import (
	"math"
	"sync"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

// Baking is by far the most expensive thing the package does, so the table
// and evaluator tests share one half-resolution bake.
var (
	fixtureOnce   sync.Once
	fixtureTables *PrecomputedTables
	fixtureParams AtmosphereParameters
	fixtureBody   CelestialBody
	fixtureCamera mgl64.Vec3
)

func bakedFixture(t *testing.T) (*PrecomputedTables, AtmosphereParameters, CelestialBody, mgl64.Vec3) {
	t.Helper()
	fixtureOnce.Do(func() {
		fixtureParams = DefaultEarthAtmosphere()
		fixtureBody = DefaultSun(35*math.Pi/180, 0)
		fixtureCamera = mgl64.Vec3{0, fixtureParams.PlanetRadius + 2, 0}

		cfg := DefaultBakeConfig()
		cfg.HalfResolution = true
		fixtureTables = NewPrecomputedTables(cfg)
		fixtureTables.EnsureBaked(fixtureParams, fixtureBody, fixtureCamera)
	})
	return fixtureTables, fixtureParams, fixtureBody, fixtureCamera
}

func TestBakeLifecycle(t *testing.T) {
	cfg := DefaultBakeConfig()
	cfg.HalfResolution = true
	tables := NewPrecomputedTables(cfg)
	if tables.State() != TableStale {
		t.Fatalf("fresh tables state = %v, want TableStale", tables.State())
	}
	p := DefaultEarthAtmosphere()
	if !tables.NeedsRebake(p) {
		t.Fatal("fresh tables must need a bake")
	}
}

func TestEnsureBakedIdempotent(t *testing.T) {
	tables, p, body, camera := bakedFixture(t)
	if tables.State() != TableValid {
		t.Fatalf("baked tables state = %v, want TableValid", tables.State())
	}
	if tables.NeedsRebake(p) {
		t.Fatal("baked tables still report stale")
	}
	if tables.EnsureBaked(p, body, camera) {
		t.Error("EnsureBaked rebaked with unchanged parameters")
	}

	p.AerosolScaleHeight = 2500
	if !tables.NeedsRebake(p) {
		t.Error("physical parameter change not detected")
	}
}

func TestMultipleScatteringTableFinite(t *testing.T) {
	tables, _, _, _ := bakedFixture(t)
	for i, v := range tables.MultiScattering.Pix {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
			t.Fatalf("multiple-scattering texel %d = %v", i, f)
		}
	}
}

func TestInScatteredRadianceNonNegative(t *testing.T) {
	tables, p, _, _ := bakedFixture(t)
	c := p.Derive()
	for _, r := range []float64{c.PlanetRadius, c.PlanetRadius + 1000, c.PlanetRadius + 30000} {
		for _, cosChi := range []float64{-1, -0.1, 0, 0.4, 1} {
			for _, cosLight := range []float64{-0.5, 0, 0.6, 1} {
				v := tables.SampleInScatteredRadiance(c, r, cosChi, 0.7, cosLight)
				for i := 0; i < 3; i++ {
					if math.IsNaN(v[i]) || math.IsInf(v[i], 0) || v[i] < 0 {
						t.Fatalf("radiance(%v, %v, %v) = %v", r, cosChi, cosLight, v)
					}
				}
			}
		}
	}
}

func TestSkyBrighterTowardSun(t *testing.T) {
	tables, p, _, _ := bakedFixture(t)
	c := p.Derive()
	cosLight := math.Sin(35 * math.Pi / 180)
	r := c.PlanetRadius + 2
	toward := Luminance(tables.SampleInScatteredRadiance(c, r, 0.3, 0, cosLight))
	away := Luminance(tables.SampleInScatteredRadiance(c, r, 0.3, math.Pi, cosLight))
	if toward <= away {
		t.Errorf("sun-side radiance %v not brighter than anti-sun %v", toward, away)
	}
}

func TestGroundIrradianceFollowsSun(t *testing.T) {
	tables, _, _, _ := bakedFixture(t)
	high := Luminance(tables.SampleGroundIrradiance(0.9))
	low := Luminance(tables.SampleGroundIrradiance(0.3))
	night := Luminance(tables.SampleGroundIrradiance(-0.5))
	if !(high > low && low > night) {
		t.Errorf("irradiance not decreasing with sun zenith: %v, %v, %v", high, low, night)
	}
	if night > 0.01*high {
		t.Errorf("irradiance with the sun well below the horizon = %v, want near zero (noon %v)", night, high)
	}
}

func TestSkyViewFollowsCamera(t *testing.T) {
	tables, p, body, camera := bakedFixture(t)
	if math.Abs(tables.skyViewRadius-camera.Len()) > 1 {
		t.Fatalf("sky view baked for radius %v, camera at %v", tables.skyViewRadius, camera.Len())
	}

	moved := mgl64.Vec3{0, p.PlanetRadius + 5000, 0}
	if tables.EnsureBaked(p, body, moved) {
		t.Error("camera move triggered a full rebake")
	}
	if math.Abs(tables.skyViewRadius-moved.Len()) > 1 {
		t.Error("sky view did not follow the camera")
	}

	// Restore the shared fixture.
	tables.EnsureBaked(p, body, camera)
}

func TestTable4DPacking(t *testing.T) {
	lut := newTable4D(4, 3, 2, 5)
	value := func(x, y, z, w int) mgl64.Vec3 {
		return mgl64.Vec3{float64(x), float64(y*10 + z), float64(w)}
	}
	for w := 0; w < lut.W; w++ {
		for z := 0; z < lut.Z; z++ {
			for y := 0; y < lut.Y; y++ {
				for x := 0; x < lut.X; x++ {
					lut.set(x, y, z, w, value(x, y, z, w))
				}
			}
		}
	}
	for w := 0; w < lut.W; w++ {
		for z := 0; z < lut.Z; z++ {
			for y := 0; y < lut.Y; y++ {
				for x := 0; x < lut.X; x++ {
					if got := lut.at(x, y, z, w); got != value(x, y, z, w) {
						t.Fatalf("at(%d,%d,%d,%d) = %v, want %v", x, y, z, w, got, value(x, y, z, w))
					}
				}
			}
		}
	}

	// Azimuth wraps, the other axes clamp.
	if got := lut.at(1, 2, -1, 3); got != value(1, 2, 1, 3) {
		t.Errorf("negative azimuth index = %v, want wrap to %v", got, value(1, 2, 1, 3))
	}
	if got := lut.at(9, 2, 0, 3); got != value(3, 2, 0, 3) {
		t.Errorf("out-of-range x = %v, want clamp to %v", got, value(3, 2, 0, 3))
	}

	// Sampling at a texel center reproduces the texel.
	got := lut.Sample(texelToUnit(1, 4), texelToUnit(2, 3), texelToUnit(1, 2), texelToUnit(3, 5))
	want := value(1, 2, 1, 3)
	for i := 0; i < 3; i++ {
		assertClose(t, "texel-center sample", got[i], want[i], 1e-9)
	}
}

func TestTable2DSampleClamps(t *testing.T) {
	lut := newTable2D(4, 4)
	lut.set(0, 0, mgl64.Vec3{1, 2, 3})
	got := lut.Sample(-0.5, -0.5)
	if got != (mgl64.Vec3{1, 2, 3}) {
		t.Errorf("out-of-range sample = %v, want the corner texel", got)
	}
}

func TestHalfResolutionRaySamples(t *testing.T) {
	cfg := DefaultBakeConfig()
	if got := cfg.raySamples(); got != 16 {
		t.Errorf("full-resolution ray samples = %v, want 16", got)
	}
	cfg.HalfResolution = true
	if got := cfg.raySamples(); got != 4 {
		t.Errorf("half-resolution ray samples = %v, want 4", got)
	}
}

func TestHalfResolutionHalvesAllocations(t *testing.T) {
	cfg := DefaultBakeConfig()
	cfg.HalfResolution = true
	tables := NewPrecomputedTables(cfg)
	if tables.MultiScattering.W != MultiScatterSize/2 {
		t.Errorf("multi-scatter size %v, want %v", tables.MultiScattering.W, MultiScatterSize/2)
	}
	a := tables.AirSingleScattering
	if a.X != InScatterSizeX/2 || a.Y != InScatterSizeY/2 || a.Z != InScatterSizeZ/2 || a.W != InScatterSizeW/2 {
		t.Errorf("in-scatter dims (%d,%d,%d,%d), want all halved", a.X, a.Y, a.Z, a.W)
	}
	if tables.GroundIrradiance.N != GroundIrradianceSize/2 {
		t.Errorf("ground irradiance size %v, want %v", tables.GroundIrradiance.N, GroundIrradianceSize/2)
	}
	if tables.SkyView.W != SkyViewWidth/2 || tables.SkyView.H != SkyViewHeight/2 {
		t.Errorf("sky view dims (%d,%d), want halved", tables.SkyView.W, tables.SkyView.H)
	}
}
