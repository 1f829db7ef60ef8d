// skyrender bakes the atmosphere tables and writes a lat-long panorama of
// the sky (and ground sphere) to a PNG, for visual inspection of the model.
package main

import (
	"flag"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"time"

	"GopherAtmos/internal/atmosphere"
	"GopherAtmos/internal/logger"

	"github.com/aquilax/go-perlin"
	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"
)

func main() {
	var (
		width     = flag.Int("width", 1024, "output width in pixels")
		height    = flag.Int("height", 512, "output height in pixels")
		out       = flag.String("o", "sky.png", "output file")
		elevation = flag.Float64("sun", 35, "sun elevation in degrees")
		altitude  = flag.Float64("altitude", 2, "camera altitude in meters")
		halfRes   = flag.Bool("half", false, "bake half-resolution tables")
		exposure  = flag.Float64("exposure", 0.05, "linear exposure applied before tonemapping")
	)
	flag.Parse()

	logger.Init()

	params := atmosphere.DefaultEarthAtmosphere()
	params.GroundAlbedoTexture = proceduralGround(512, 256)

	body := atmosphere.DefaultSun(*elevation*math.Pi/180, 0)
	body.Color = mgl64.Vec3{1, 0.96, 0.92}.Mul(120000) // rough solar illuminance

	cfg := atmosphere.DefaultBakeConfig()
	cfg.HalfResolution = *halfRes
	tables := atmosphere.NewPrecomputedTables(cfg)

	cameraPS := mgl64.Vec3{0, params.PlanetRadius + *altitude, 0}

	start := time.Now()
	tables.EnsureBaked(params, body, cameraPS)
	logger.Log.Info("bake finished", zap.Duration("elapsed", time.Since(start)))

	eval := atmosphere.NewEvaluator(params, body, tables, atmosphere.DefaultEvaluatorConfig())

	img := image.NewRGBA(image.Rect(0, 0, *width, *height))
	for y := 0; y < *height; y++ {
		// Latitude: +pi/2 at the top row down to -pi/2.
		lat := math.Pi/2 - math.Pi*(float64(y)+0.5)/float64(*height)
		for x := 0; x < *width; x++ {
			lon := 2*math.Pi*(float64(x)+0.5)/float64(*width) - math.Pi
			dir := mgl64.Vec3{
				math.Cos(lat) * math.Cos(lon),
				math.Sin(lat),
				math.Cos(lat) * math.Sin(lon),
			}
			c, _ := eval.RenderSky(cameraPS, dir)
			img.SetRGBA(x, y, tonemap(c.Mul(*exposure)))
		}
	}

	f, err := os.Create(*out)
	if err != nil {
		logger.Log.Fatal("create output", zap.Error(err))
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		logger.Log.Fatal("encode png", zap.Error(err))
	}
	logger.Log.Info("panorama written", zap.String("path", *out),
		zap.Int("width", *width), zap.Int("height", *height))
}

// proceduralGround builds a lat-long albedo texture from layered perlin
// noise: dark ocean below the threshold, green-brown land above it.
func proceduralGround(w, h int) *atmosphere.Texture {
	p := perlin.NewPerlin(2, 2, 3, 1234)
	tex := atmosphere.NewTexture(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			n := p.Noise2D(float64(x)/float64(w)*8, float64(y)/float64(h)*4)
			if n < 0.05 {
				tex.Set(x, y, mgl64.Vec3{0.02, 0.05, 0.1}) // ocean
				continue
			}
			t := (n - 0.05) / 0.4
			tex.Set(x, y, mgl64.Vec3{0.1 + 0.2*t, 0.25 - 0.1*t, 0.08})
		}
	}
	return tex
}

// tonemap applies a Reinhard curve and 2.2 gamma per channel.
func tonemap(c mgl64.Vec3) color.RGBA {
	enc := func(v float64) uint8 {
		v = math.Max(v, 0)
		v = v / (1 + v)
		v = math.Pow(v, 1/2.2)
		return uint8(math.Min(v*255+0.5, 255))
	}
	return color.RGBA{enc(c[0]), enc(c[1]), enc(c[2]), 255}
}
