package fog

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/png"
	"math"
	"os"
)

// DefaultFogColor is the flat fill used when the shader is disabled.
var DefaultFogColor = color.RGBA{R: 0x5a, G: 0x62, B: 0x6e, A: 0xff}

// ProceduralTexture renders an opaque, seamlessly tiling cloud pattern of
// size x size pixels.
func ProceduralTexture(size int) *image.RGBA {
	if size <= 0 {
		size = 128
	}
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	k := 2 * math.Pi / float64(size)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			v := math.Sin(k*float64(x))*math.Cos(k*float64(y)) +
				0.5*math.Sin(2*k*float64(x+y)) +
				0.25*math.Cos(3*k*float64(x-y))
			shade := 0x70 + int(v*0x18)
			img.SetRGBA(x, y, color.RGBA{
				R: uint8(shade),
				G: uint8(shade + 6),
				B: uint8(shade + 16),
				A: 0xff,
			})
		}
	}
	return img
}

// LoadTexture decodes a PNG tile from disk into an RGBA image.
func LoadTexture(path string) (*image.RGBA, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open texture: %w", err)
	}
	defer f.Close()

	src, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode texture %s: %w", path, err)
	}
	b := src.Bounds()
	if b.Empty() {
		return nil, fmt.Errorf("texture %s is empty", path)
	}
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return dst, nil
}

// clearDisc erases every pixel whose centre lies inside the disc. Erasing
// replaces the destination rather than blending over it.
func clearDisc(dst *image.RGBA, cx, cy, r float64) int {
	area := image.Rect(
		int(math.Floor(cx-r)), int(math.Floor(cy-r)),
		int(math.Ceil(cx+r))+1, int(math.Ceil(cy+r))+1,
	).Intersect(dst.Bounds())

	n := 0
	r2 := r * r
	for y := area.Min.Y; y < area.Max.Y; y++ {
		dy := float64(y) + 0.5 - cy
		for x := area.Min.X; x < area.Max.X; x++ {
			dx := float64(x) + 0.5 - cx
			if dx*dx+dy*dy > r2 {
				continue
			}
			i := dst.PixOffset(x, y)
			clear(dst.Pix[i : i+4])
			n++
		}
	}
	return n
}
