package atmosphere

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
)

func TestBuildUniformBlock(t *testing.T) {
	p := DefaultEarthAtmosphere()
	p.Overrides.HorizonTint = mgl64.Vec3{1, 0.8, 0.6}
	body := DefaultSun(0.5, 1.2)
	blk := BuildUniformBlock(p, body, 2.5)

	c := p.Derive()
	if blk.PlanetRadius != float32(c.PlanetRadius) {
		t.Errorf("planet radius %v, want %v", blk.PlanetRadius, float32(c.PlanetRadius))
	}
	if blk.AtmosphereRadius != float32(c.AtmosphereRadius) {
		t.Errorf("atmosphere radius %v, want %v", blk.AtmosphereRadius, float32(c.AtmosphereRadius))
	}
	if blk.Anisotropy != float32(c.Anisotropy) {
		t.Errorf("anisotropy %v, want %v", blk.Anisotropy, float32(c.Anisotropy))
	}
	if blk.OzoneWidth != 30000 {
		t.Errorf("ozone width %v, want 30000", blk.OzoneWidth)
	}
	if blk.SkyIntensity != 2.5 {
		t.Errorf("sky intensity %v, want 2.5", blk.SkyIntensity)
	}
	if blk.SunDirection != vec3to32(body.DirectionToLight()) {
		t.Errorf("sun direction %v, want %v", blk.SunDirection, vec3to32(body.DirectionToLight()))
	}
	if blk.SunAngularRadius != float32(body.AngularRadius) {
		t.Errorf("sun angular radius %v, want %v", blk.SunAngularRadius, float32(body.AngularRadius))
	}
	if blk.HorizonTint != (mgl32.Vec3{1, 0.8, 0.6}) {
		t.Errorf("horizon tint %v, want the override", blk.HorizonTint)
	}
	if blk.AlphaMultiplier != 2 || blk.AlphaSaturation != 0.5 {
		t.Errorf("alpha grade (%v, %v), want defaults (2, 0.5)", blk.AlphaMultiplier, blk.AlphaSaturation)
	}
	if blk.FlareCosOuter >= blk.FlareCosInner {
		t.Errorf("flare cosines (%v, %v), want outer < inner", blk.FlareCosOuter, blk.FlareCosInner)
	}
}

func TestUniformBlockRayleighOrdering(t *testing.T) {
	blk := BuildUniformBlock(DefaultEarthAtmosphere(), DefaultSun(0.5, 0), 1)
	if !(blk.AirScattering[2] > blk.AirScattering[1] && blk.AirScattering[1] > blk.AirScattering[0]) {
		t.Errorf("air scattering %v not blue dominant", blk.AirScattering)
	}
	if math.Abs(float64(blk.AirScaleHeight)-8000) > 1e-3 {
		t.Errorf("air scale height %v, want 8000", blk.AirScaleHeight)
	}
}
