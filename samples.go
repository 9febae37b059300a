package huepalette

import (
	"fmt"
	"image"
	"image/color"

	"github.com/lucasb-eyer/go-colorful"
)

// ColorSample is one CIE L*a*b* (D65) color on the conventional scale:
// L in [0,100], a and b roughly in [-128,127].
type ColorSample struct {
	L, A, B float64
}

// PixelBuffer is a decoded image, interleaved row-major.
// The first three bytes of every pixel are 8-bit sRGB R, G, B; any further bytes
// (alpha, padding) are ignored.
type PixelBuffer struct {
	Width, Height int
	BytesPerPixel int
	Pix           []uint8 // len = Width*Height*BytesPerPixel
}

func pixOffset(w, bpp, x, y int) int {
	return (y*w + x) * bpp
}

// PixelBufferFromImage flattens img into a 3-byte-per-pixel buffer.
// Alpha is dropped: every pixel keeps its straight (non-premultiplied) color.
func PixelBufferFromImage(img image.Image) PixelBuffer {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	buf := PixelBuffer{
		Width:         w,
		Height:        h,
		BytesPerPixel: 3,
		Pix:           make([]uint8, w*h*3),
	}
	for y := range h {
		for x := range w {
			c := color.NRGBAModel.Convert(img.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.NRGBA)
			off := pixOffset(w, 3, x, y)
			buf.Pix[off] = c.R
			buf.Pix[off+1] = c.G
			buf.Pix[off+2] = c.B
		}
	}
	return buf
}

func (p PixelBuffer) validate() error {
	if p.Width < 0 || p.Height < 0 || p.BytesPerPixel < 3 {
		return fmt.Errorf("%w (%dx%d, %d bytes per pixel)", ErrMalformedBuffer, p.Width, p.Height, p.BytesPerPixel)
	}
	if want := p.Width * p.Height * p.BytesPerPixel; len(p.Pix) != want {
		return fmt.Errorf("%w (have %d bytes, want %d)", ErrMalformedBuffer, len(p.Pix), want)
	}
	if p.Width == 0 || p.Height == 0 {
		return ErrNoSamples
	}
	return nil
}

// ExtractSamples converts every pixel of p to Lab, in row-major order.
func ExtractSamples(p PixelBuffer) ([]ColorSample, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	samples := make([]ColorSample, 0, p.Width*p.Height)
	for y := range p.Height {
		for x := range p.Width {
			off := pixOffset(p.Width, p.BytesPerPixel, x, y)
			samples = append(samples, SampleFromRGB8(p.Pix[off], p.Pix[off+1], p.Pix[off+2]))
		}
	}
	return samples, nil
}

// SampleFromRGB8 converts one 8-bit sRGB triple to Lab.
func SampleFromRGB8(r, g, b uint8) ColorSample {
	c := colorful.Color{
		R: float64(r) / 255.0,
		G: float64(g) / 255.0,
		B: float64(b) / 255.0,
	}
	return SampleFromColor(c)
}

// go-colorful works on Lab divided by 100.
const labScale = 100.0

// SampleFromColor converts a go-colorful color to Lab.
func SampleFromColor(c colorful.Color) ColorSample {
	l, a, b := c.Lab()
	return ColorSample{L: l * labScale, A: a * labScale, B: b * labScale}
}

// Color returns the sRGB color for s. It may be outside the sRGB gamut.
func (s ColorSample) Color() colorful.Color {
	return colorful.Lab(s.L/labScale, s.A/labScale, s.B/labScale)
}

func (s ColorSample) vec() []float64 {
	return []float64{s.L, s.A, s.B}
}

func distanceSquared(a, b ColorSample) float64 {
	dL := a.L - b.L
	dA := a.A - b.A
	dB := a.B - b.B
	return dL*dL + dA*dA + dB*dB
}
