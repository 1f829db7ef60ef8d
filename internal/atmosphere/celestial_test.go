package atmosphere

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestDefaultSunOrientation(t *testing.T) {
	sun := DefaultSun(0.5, 1.2)
	toLight := sun.DirectionToLight()
	assertClose(t, "direction length", toLight.Len(), 1, 1e-12)
	assertClose(t, "elevation", toLight[1], math.Sin(0.5), 1e-12)
	assertClose(t, "azimuth", math.Atan2(toLight[2], toLight[0]), 1.2, 1e-12)
	if toLight.Add(sun.Forward) != (mgl64.Vec3{}) {
		t.Error("Forward must oppose DirectionToLight")
	}
}

func TestSunSolidAngle(t *testing.T) {
	sun := DefaultSun(0, 0)
	// Small-angle: 2pi(1-cos r) ~ pi r^2.
	assertClose(t, "solid angle", sun.SolidAngle(), math.Pi*sun.AngularRadius*sun.AngularRadius, 1e-4)
}

func TestDefaultSunFlareCone(t *testing.T) {
	sun := DefaultSun(0.3, 0)
	if !(sun.FlareCosOuter < sun.FlareCosInner && sun.FlareCosInner < 1) {
		t.Errorf("flare cone (%v, %v) not ordered", sun.FlareCosOuter, sun.FlareCosInner)
	}
	assertClose(t, "inner flare edge", sun.FlareCosInner, math.Cos(sun.AngularRadius), 1e-12)
}
