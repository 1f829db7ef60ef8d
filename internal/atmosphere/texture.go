package atmosphere

import (
	"image"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Texture is a CPU-resident lat-long RGB map used for the optional ground
// albedo and emission inputs. U wraps around longitude, V clamps over
// latitude.
type Texture struct {
	Width  int
	Height int
	Pix    []float32 // RGB triplets, row major
}

// NewTexture allocates a black texture.
func NewTexture(width, height int) *Texture {
	return &Texture{Width: width, Height: height, Pix: make([]float32, width*height*3)}
}

// NewTextureFromImage converts an image to a linear RGB texture using a
// simple 2.2 gamma decode.
func NewTextureFromImage(img image.Image) *Texture {
	b := img.Bounds()
	t := NewTexture(b.Dx(), b.Dy())
	for y := 0; y < t.Height; y++ {
		for x := 0; x < t.Width; x++ {
			r, g, bb, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			t.Set(x, y, mgl64.Vec3{
				math.Pow(float64(r)/65535, 2.2),
				math.Pow(float64(g)/65535, 2.2),
				math.Pow(float64(bb)/65535, 2.2),
			})
		}
	}
	return t
}

// Set writes one texel.
func (t *Texture) Set(x, y int, c mgl64.Vec3) {
	i := (y*t.Width + x) * 3
	t.Pix[i+0] = float32(c[0])
	t.Pix[i+1] = float32(c[1])
	t.Pix[i+2] = float32(c[2])
}

func (t *Texture) at(x, y int) mgl64.Vec3 {
	if x < 0 {
		x += t.Width
	}
	if x >= t.Width {
		x -= t.Width
	}
	if y < 0 {
		y = 0
	}
	if y >= t.Height {
		y = t.Height - 1
	}
	i := (y*t.Width + x) * 3
	return mgl64.Vec3{float64(t.Pix[i]), float64(t.Pix[i+1]), float64(t.Pix[i+2])}
}

// Sample bilinearly fetches the texture at (u,v) in [0,1]^2.
func (t *Texture) Sample(u, v float64) mgl64.Vec3 {
	if t == nil || t.Width == 0 || t.Height == 0 {
		return mgl64.Vec3{}
	}
	u -= math.Floor(u) // wrap longitude
	v = saturate(v)
	fx := u*float64(t.Width) - 0.5
	fy := v*float64(t.Height) - 0.5
	x0 := int(math.Floor(fx))
	y0 := int(math.Floor(fy))
	tx := fx - float64(x0)
	ty := fy - float64(y0)
	top := lerpVec3(t.at(x0, y0), t.at(x0+1, y0), tx)
	bot := lerpVec3(t.at(x0, y0+1), t.at(x0+1, y0+1), tx)
	return lerpVec3(top, bot, ty)
}

// SampleDirection fetches the texture for a unit direction in planet space,
// with an extra rotation (radians) about +Y.
func (t *Texture) SampleDirection(dir mgl64.Vec3, rotation float64) mgl64.Vec3 {
	u := (math.Atan2(dir[2], dir[0])+rotation)/(2*math.Pi) + 0.5
	v := math.Acos(clamp(dir[1], -1, 1)) / math.Pi
	return t.Sample(u, v)
}
