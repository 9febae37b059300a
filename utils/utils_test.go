package utils

import (
	"errors"
	"image"
	"image/color"
	"math"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"

	"github.com/setanarut/huepalette"
)

// twoToneImage fills the left half red and the right half blue.
func twoToneImage(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			c := color.NRGBA{R: 255, A: 255}
			if x >= w/2 {
				c = color.NRGBA{B: 255, A: 255}
			}
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func TestParsePaletteMethod(t *testing.T) {
	for _, m := range []PaletteMethod{PaletteMethodLab, PaletteMethodKMeans, PaletteMethodDominantColor} {
		got, err := ParsePaletteMethod(m.String())
		if err != nil || got != m {
			t.Errorf("ParsePaletteMethod(%q) = %v, %v; want %v", m.String(), got, err, m)
		}
	}
	if got, err := ParsePaletteMethod(""); err != nil || got != PaletteMethodLab {
		t.Errorf("ParsePaletteMethod(\"\") = %v, %v; want lab", got, err)
	}
	if _, err := ParsePaletteMethod("median"); err == nil {
		t.Error("ParsePaletteMethod(\"median\") should fail")
	}
}

func TestExtractPalette_AllMethods(t *testing.T) {
	img := twoToneImage(20, 10)
	opt := huepalette.DefaultOptions()
	opt.Seed = 1

	for _, m := range []PaletteMethod{PaletteMethodLab, PaletteMethodKMeans, PaletteMethodDominantColor} {
		t.Run(m.String(), func(t *testing.T) {
			palette, err := ExtractPalette(img, 2, m, opt)
			if err != nil {
				t.Fatalf("ExtractPalette() error = %v", err)
			}
			if len(palette) == 0 || len(palette) > 2 {
				t.Fatalf("len(palette) = %d, want 1..2", len(palette))
			}
			if sum := huepalette.TotalWeight(palette); math.Abs(sum-1) > 1e-6 {
				t.Errorf("weights sum to %v, want 1", sum)
			}
			for i := 1; i < len(palette); i++ {
				if palette[i].Weight > palette[i-1].Weight {
					t.Errorf("palette not sorted by weight: %+v", palette)
				}
			}
		})
	}
}

func TestExtractPalette_ZeroK(t *testing.T) {
	palette, err := ExtractPalette(twoToneImage(2, 2), 0, PaletteMethodLab, huepalette.DefaultOptions())
	if err != nil || palette != nil {
		t.Errorf("ExtractPalette(k=0) = %v, %v; want nil, nil", palette, err)
	}
}

func TestExtractKMeansPalette_InsufficientSamples(t *testing.T) {
	_, err := ExtractKMeansPalette(twoToneImage(2, 1), 3)
	if !errors.Is(err, huepalette.ErrInsufficientSamples) {
		t.Errorf("error = %v, want ErrInsufficientSamples", err)
	}
}

func TestExtractPalette_KMeansReturnsConfigurationErrors(t *testing.T) {
	palette, err := ExtractPalette(twoToneImage(2, 1), 3, PaletteMethodKMeans, huepalette.DefaultOptions())
	if !errors.Is(err, huepalette.ErrInsufficientSamples) {
		t.Errorf("ExtractPalette(kmeans, k=3) = %v, %v; want ErrInsufficientSamples", palette, err)
	}
}

func TestExtractKMeansPalette_TransparentPixelsKeepColor(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	for i, a := range []uint8{0, 64, 128, 255} {
		img.SetNRGBA(i%2, i/2, color.NRGBA{R: 255, A: a})
	}
	palette, err := ExtractKMeansPalette(img, 1)
	if err != nil {
		t.Fatalf("ExtractKMeansPalette() error = %v", err)
	}
	r, g, b := palette[0].Centroid.Color().Clamped().RGB255()
	if r != 255 || g != 0 || b != 0 {
		t.Errorf("centroid = (%d,%d,%d), want (255,0,0)", r, g, b)
	}
	if math.Abs(palette[0].Weight-1) > 1e-9 {
		t.Errorf("weight = %v, want 1", palette[0].Weight)
	}
}

func TestSelectDiverseWeightedColors(t *testing.T) {
	red := huepalette.SampleFromRGB8(255, 0, 0)
	nearRed := huepalette.SampleFromRGB8(250, 5, 5)
	blue := huepalette.SampleFromRGB8(0, 0, 255)
	cands := []huepalette.WeightedColor{
		{Centroid: nearRed, Weight: 0.3},
		{Centroid: red, Weight: 0.5},
		{Centroid: blue, Weight: 0.2},
	}

	got := SelectDiverseWeightedColors(cands, 2)
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].Centroid != red {
		t.Errorf("first pick = %+v, want heaviest (red)", got[0].Centroid)
	}
	if got[1].Centroid != blue {
		t.Errorf("second pick = %+v, want most distant (blue)", got[1].Centroid)
	}

	if got := SelectDiverseWeightedColors(cands, 10); len(got) != 3 {
		t.Errorf("k > candidates: len = %d, want 3", len(got))
	}
	if got := SelectDiverseWeightedColors(nil, 2); got != nil {
		t.Errorf("no candidates: got %v, want nil", got)
	}
}

func TestFitImage(t *testing.T) {
	img := twoToneImage(400, 200)
	fitted := FitImage(img, 5000)
	b := fitted.Bounds()
	if b.Dx()*b.Dy() > 5000 {
		t.Errorf("fitted to %dx%d, over budget", b.Dx(), b.Dy())
	}
	if b.Dx() != 2*b.Dy() {
		t.Errorf("aspect ratio lost: %dx%d", b.Dx(), b.Dy())
	}

	if FitImage(img, 0) != image.Image(img) {
		t.Error("maxPixels 0 should return the image unchanged")
	}
	if FitImage(img, 400*200) != image.Image(img) {
		t.Error("image within budget should be returned unchanged")
	}
}

func TestSavePaletteAndReadImage(t *testing.T) {
	palette := []huepalette.WeightedColor{
		{Centroid: huepalette.SampleFromRGB8(255, 0, 0), Weight: 0.6},
		{Centroid: huepalette.SampleFromRGB8(0, 0, 255), Weight: 0.4},
	}
	path := filepath.Join(t.TempDir(), "palette.png")
	if err := SavePalette(palette, 8, path); err != nil {
		t.Fatalf("SavePalette() error = %v", err)
	}

	img, err := ReadImage(path)
	if err != nil {
		t.Fatalf("ReadImage() error = %v", err)
	}
	if b := img.Bounds(); b.Dx() != 16 || b.Dy() != 8 {
		t.Fatalf("palette image is %dx%d, want 16x8", b.Dx(), b.Dy())
	}
	r, g, b, _ := img.At(2, 2).RGBA()
	if r>>8 != 255 || g>>8 != 0 || b>>8 != 0 {
		t.Errorf("first tile = (%d,%d,%d), want red", r>>8, g>>8, b>>8)
	}
	r, g, b, _ = img.At(12, 2).RGBA()
	if r>>8 != 0 || g>>8 != 0 || b>>8 != 255 {
		t.Errorf("second tile = (%d,%d,%d), want blue", r>>8, g>>8, b>>8)
	}

	if err := SavePalette(nil, 8, path); err == nil {
		t.Error("SavePalette(empty) should fail")
	}
}

func TestReadImage_Missing(t *testing.T) {
	_, err := ReadImage(filepath.Join(t.TempDir(), "missing.png"))
	if !errors.Is(err, huepalette.ErrInput) {
		t.Errorf("error = %v, want input error", err)
	}
}

func TestReadImage_FitRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "src.png")
	if err := imaging.Save(twoToneImage(64, 32), path); err != nil {
		t.Fatal(err)
	}
	img, err := ReadImage(path)
	if err != nil {
		t.Fatalf("ReadImage() error = %v", err)
	}
	buf := huepalette.PixelBufferFromImage(FitImage(img, 512))
	if buf.Width*buf.Height > 512 {
		t.Errorf("buffer %dx%d exceeds budget", buf.Width, buf.Height)
	}
}

func TestSortPaletteByBrightness(t *testing.T) {
	palette := []huepalette.WeightedColor{
		{Centroid: huepalette.ColorSample{L: 80}},
		{Centroid: huepalette.ColorSample{L: 10}},
		{Centroid: huepalette.ColorSample{L: 50}},
	}
	SortPaletteByBrightness(palette)
	if palette[0].Centroid.L != 10 || palette[1].Centroid.L != 50 || palette[2].Centroid.L != 80 {
		t.Errorf("unexpected order %+v", palette)
	}
}
