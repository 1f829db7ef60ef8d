package atmosphere

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestZenithOpacityRoundTrip(t *testing.T) {
	for _, opacity := range []float64{0, 0.1, 0.5, 0.9, 0.99} {
		for _, h := range []float64{1200, 8000, 50000} {
			ext := ExtinctionFromZenithOpacityAndScaleHeight(opacity, h)
			back := ZenithOpacityFromExtinctionAndScaleHeight(ext, h)
			assertClose(t, "opacity round trip", back, opacity, 1e-4)
		}
	}
}

func TestZenithOpacityCeiling(t *testing.T) {
	ext := ExtinctionFromZenithOpacityAndScaleHeight(1, 8000)
	if math.IsInf(ext, 0) || math.IsNaN(ext) {
		t.Fatalf("extinction at full opacity = %v, want finite", ext)
	}
	capped := ExtinctionFromZenithOpacityAndScaleHeight(maxZenithOpacity, 8000)
	if ext != capped {
		t.Errorf("opacity 1 derived %v, want the ceiling value %v", ext, capped)
	}
	if got := ExtinctionFromZenithOpacityAndScaleHeight(-0.5, 8000); got != 0 {
		t.Errorf("negative opacity derived %v, want 0", got)
	}
}

func TestDefaultEarthAtmosphere(t *testing.T) {
	p := DefaultEarthAtmosphere()
	if p.Model != ModelEarthAdvanced {
		t.Errorf("default model = %v, want ModelEarthAdvanced", p.Model)
	}
	if p.PlanetRadius != EarthRadius {
		t.Errorf("default radius = %v, want %v", p.PlanetRadius, EarthRadius)
	}

	ext := p.AirExtinctionCoefficient()
	// Rayleigh: the blue channel must dominate.
	if !(ext[2] > ext[1] && ext[1] > ext[0]) {
		t.Errorf("air extinction %v not increasing toward blue", ext)
	}
	if got := p.AirScatteringCoefficient(); got != ext {
		t.Errorf("air scattering %v, want %v (unit albedo tint)", got, ext)
	}

	scat := p.AerosolScatteringCoefficient()
	assertClose(t, "aerosol albedo", scat[0]/p.AerosolExtinctionCoefficient(), 0.9, 1e-9)
}

func TestMaximumAtmosphereAltitude(t *testing.T) {
	p := DefaultEarthAtmosphere()
	// Deepest layer wins: 8000 * ln(1000).
	assertClose(t, "max altitude", p.MaximumAtmosphereAltitude(), 8000*math.Log(1000), 1e-9)

	p.AerosolScaleHeight = 20000
	assertClose(t, "max altitude with deep aerosols", p.MaximumAtmosphereAltitude(), 20000*math.Log(1000), 1e-9)
}

func TestCustomModelDerivation(t *testing.T) {
	p := DefaultEarthAtmosphere()
	p.Model = ModelCustom
	p.AirZenithOpacity = mgl64.Vec3{0.3, 0.5, 0.8}
	p.AirScaleHeight = 8000
	p.AerosolZenithOpacity = 0.2
	p.OzoneDensity = 2

	ext := p.AirExtinctionCoefficient()
	for i, want := range []float64{0.3, 0.5, 0.8} {
		back := ZenithOpacityFromExtinctionAndScaleHeight(ext[i], 8000)
		assertClose(t, "custom air channel opacity", back, want, 1e-9)
	}
	back := ZenithOpacityFromExtinctionAndScaleHeight(p.AerosolExtinctionCoefficient(), p.AerosolScaleHeight)
	assertClose(t, "custom aerosol opacity", back, 0.2, 1e-9)

	oz := p.OzoneExtinctionCoefficient()
	assertClose(t, "ozone density scaling", oz[1], 2*earthOzoneExtinction[1], 1e-12)
}

func TestEarthSimpleHasNoOzone(t *testing.T) {
	p := DefaultEarthAtmosphere()
	p.Model = ModelEarthSimple
	if got := p.OzoneExtinctionCoefficient(); got != (mgl64.Vec3{}) {
		t.Errorf("EarthSimple ozone extinction = %v, want zero", got)
	}
}

func TestDeriveClamps(t *testing.T) {
	p := DefaultEarthAtmosphere()
	p.PlanetRadius = -5
	p.AirScaleHeight = 0
	p.AerosolScaleHeight = -10
	p.AerosolAnisotropy = 3
	p.OzoneMinAltitude = -100
	p.OzoneWidth = 0

	c := p.Derive()
	if c.PlanetRadius < 1 {
		t.Errorf("derived radius %v, want >= 1", c.PlanetRadius)
	}
	if c.AirScaleHeight < minScaleHeight || c.AerosolScaleHeight < minScaleHeight {
		t.Errorf("derived scale heights (%v, %v), want >= %v", c.AirScaleHeight, c.AerosolScaleHeight, minScaleHeight)
	}
	if c.Anisotropy != 1 {
		t.Errorf("derived anisotropy %v, want clamped to 1", c.Anisotropy)
	}
	if c.OzoneMinAltitude != 0 || c.OzoneWidth < 1 {
		t.Errorf("derived ozone bounds (%v, %v), want floored", c.OzoneMinAltitude, c.OzoneWidth)
	}
	if c.AtmosphereRadius != c.PlanetRadius+c.MaxAltitude {
		t.Errorf("atmosphere radius %v, want planet radius plus max altitude", c.AtmosphereRadius)
	}
}
