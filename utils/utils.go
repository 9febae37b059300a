package utils

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"
	"slices"

	"github.com/cenkalti/dominantcolor"
	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/muesli/clusters"
	"github.com/muesli/kmeans"
	"github.com/rs/zerolog/log"

	"github.com/setanarut/huepalette"
)

type PaletteMethod int

const (
	// Seeded multi-run Lab k-means; reproducible.
	PaletteMethodLab PaletteMethod = iota
	// muesli/kmeans over RGB; not seeded.
	PaletteMethodKMeans
	PaletteMethodDominantColor
)

func (m PaletteMethod) String() string {
	switch m {
	case PaletteMethodKMeans:
		return "kmeans"
	case PaletteMethodDominantColor:
		return "dominantcolor"
	default:
		return "lab"
	}
}

// ParsePaletteMethod accepts the names produced by String. Empty means lab.
func ParsePaletteMethod(s string) (PaletteMethod, error) {
	switch s {
	case "", "lab":
		return PaletteMethodLab, nil
	case "kmeans":
		return PaletteMethodKMeans, nil
	case "dominantcolor":
		return PaletteMethodDominantColor, nil
	default:
		return 0, fmt.Errorf("unknown palette method %q", s)
	}
}

// maxKMeansSamples keeps muesli/kmeans tractable on large images.
const maxKMeansSamples = 12000

// ExtractPalette returns a ranked palette of at most k colors for img.
func ExtractPalette(img image.Image, k int, method PaletteMethod, opt huepalette.Options) ([]huepalette.WeightedColor, error) {
	if k <= 0 {
		return nil, nil
	}
	switch method {
	case PaletteMethodKMeans:
		p, err := ExtractKMeansPalette(img, k)
		switch {
		case errors.Is(err, huepalette.ErrInput), errors.Is(err, huepalette.ErrConfiguration):
			return nil, err
		case err != nil:
			log.Warn().Err(err).Msg("kmeans failed, falling back to dominantcolor")
		case len(p) == 0:
			log.Warn().Msg("kmeans returned empty palette, falling back to dominantcolor")
		default:
			return p, nil
		}
		return ExtractDominantPalette(img, k)
	case PaletteMethodDominantColor:
		return ExtractDominantPalette(img, k)
	default:
		pb := huepalette.NewPaletteBuilder(huepalette.PixelBufferFromImage(img))
		if err := pb.Build(k, opt); err != nil {
			return nil, err
		}
		return pb.Palette, nil
	}
}

// ExtractDominantPalette picks k diverse colors out of the image's dominant
// colors. Weights are renormalized over the chosen colors.
func ExtractDominantPalette(img image.Image, k int) ([]huepalette.WeightedColor, error) {
	if k <= 0 {
		return nil, nil
	}

	nCandidates := max(24, k*8)
	candidates := dominantcolor.FindWeight(img, nCandidates)
	if len(candidates) == 0 {
		return nil, huepalette.ErrNoSamples
	}

	weighted := make([]huepalette.WeightedColor, 0, len(candidates))
	for _, c := range candidates {
		col, _ := colorful.MakeColor(c.RGBA)
		w := c.Weight
		if w <= 0 {
			w = 1e-6
		}
		weighted = append(weighted, huepalette.WeightedColor{
			Centroid: huepalette.SampleFromColor(col.Clamped()),
			Weight:   w,
		})
	}
	palette := SelectDiverseWeightedColors(weighted, k)
	huepalette.Normalize(palette)
	huepalette.SortByWeight(palette)
	return palette, nil
}

// SelectDiverseWeightedColors greedily picks k candidates, starting from the
// heaviest and then favoring colors far (in Lab) from everything picked so far,
// scaled by their weight.
func SelectDiverseWeightedColors(cands []huepalette.WeightedColor, k int) []huepalette.WeightedColor {
	if k <= 0 || len(cands) == 0 {
		return nil
	}
	k = min(k, len(cands))

	maxW := 0.0
	for _, c := range cands {
		maxW = max(maxW, c.Weight)
	}
	if maxW <= 0 {
		maxW = 1.0
	}

	selectedIdx := make([]int, 0, k)
	selected := make([]bool, len(cands))

	// Seed with strongest color to stay close to dominant tones.
	bestSeed := 0
	for i := 1; i < len(cands); i++ {
		if cands[i].Weight > cands[bestSeed].Weight {
			bestSeed = i
		}
	}
	selectedIdx = append(selectedIdx, bestSeed)
	selected[bestSeed] = true

	for len(selectedIdx) < k {
		bestIdx := -1
		bestScore := -1.0
		for i, c := range cands {
			if selected[i] {
				continue
			}
			minD2 := math.MaxFloat64
			for _, s := range selectedIdx {
				d0 := c.Centroid.L - cands[s].Centroid.L
				d1 := c.Centroid.A - cands[s].Centroid.A
				d2 := c.Centroid.B - cands[s].Centroid.B
				minD2 = min(minD2, d0*d0+d1*d1+d2*d2)
			}
			normW := c.Weight / maxW
			score := math.Sqrt(minD2) * (0.55 + 0.45*math.Sqrt(normW))
			if score > bestScore {
				bestScore = score
				bestIdx = i
			}
		}
		if bestIdx < 0 {
			break
		}
		selected[bestIdx] = true
		selectedIdx = append(selectedIdx, bestIdx)
	}

	out := make([]huepalette.WeightedColor, 0, len(selectedIdx))
	for _, idx := range selectedIdx {
		out = append(out, cands[idx])
	}
	return out
}

// ExtractKMeansPalette clusters a subsample of img in RGB with muesli/kmeans.
// The result is not reproducible between calls. Like the Lab path, it drops
// alpha and clusters straight colors.
func ExtractKMeansPalette(img image.Image, k int) ([]huepalette.WeightedColor, error) {
	if k <= 0 {
		return nil, nil
	}

	b := img.Bounds()
	width, height := b.Dx(), b.Dy()
	if width == 0 || height == 0 {
		return nil, huepalette.ErrNoSamples
	}

	step := 1
	if width*height > maxKMeansSamples {
		step = int(math.Sqrt(float64(width*height)/float64(maxKMeansSamples))) + 1
	}

	dataset := make(clusters.Observations, 0, min(width*height, maxKMeansSamples))
	for y := b.Min.Y; y < b.Max.Y; y += step {
		for x := b.Min.X; x < b.Max.X; x += step {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			dataset = append(dataset, clusters.Coordinates{
				float64(c.R) / 255.0,
				float64(c.G) / 255.0,
				float64(c.B) / 255.0,
			})
		}
	}
	if len(dataset) == 0 {
		return nil, huepalette.ErrNoSamples
	}
	if k > len(dataset) {
		return nil, fmt.Errorf("%w (k=%d, samples=%d)", huepalette.ErrInsufficientSamples, k, len(dataset))
	}

	cc, err := kmeans.New().Partition(dataset, k)
	if err != nil {
		return nil, fmt.Errorf("kmeans partition: %w", err)
	}

	palette := make([]huepalette.WeightedColor, 0, len(cc))
	for _, c := range cc {
		center := c.Center
		if len(center) < 3 {
			continue
		}
		col := colorful.Color{
			R: center[0],
			G: center[1],
			B: center[2],
		}.Clamped()
		palette = append(palette, huepalette.WeightedColor{
			Centroid: huepalette.SampleFromColor(col),
			Weight:   float64(len(c.Observations)),
		})
	}
	huepalette.Normalize(palette)
	huepalette.SortByWeight(palette)
	return palette, nil
}

// ReadImage decodes the image at path, honoring EXIF orientation.
func ReadImage(path string) (image.Image, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", huepalette.ErrInput, err)
	}
	return img, nil
}

// FitImage downscales img so it holds at most maxPixels pixels, keeping its
// aspect ratio. Smaller images and maxPixels <= 0 return img unchanged.
func FitImage(img image.Image, maxPixels int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if maxPixels <= 0 || w*h <= maxPixels {
		return img
	}
	scale := math.Sqrt(float64(maxPixels) / float64(w*h))
	fw := max(1, int(float64(w)*scale))
	fh := max(1, int(float64(h)*scale))
	return imaging.Fit(img, fw, fh, imaging.Box)
}

// SavePalette writes one tileSize square per palette entry, in palette order.
func SavePalette(palette []huepalette.WeightedColor, tileSize int, filename string) error {
	if len(palette) == 0 {
		return fmt.Errorf("empty palette")
	}
	if tileSize <= 0 {
		tileSize = 64
	}

	img := imaging.New(tileSize*len(palette), tileSize, color.NRGBA{})
	for i, c := range palette {
		r, g, b := c.Centroid.Color().Clamped().RGB255()
		tile := imaging.New(tileSize, tileSize, color.NRGBA{R: r, G: g, B: b, A: 255})
		img = imaging.Paste(img, tile, image.Pt(i*tileSize, 0))
	}
	return imaging.Save(img, filename)
}

// SortPaletteByBrightness orders colors from darkest to brightest.
func SortPaletteByBrightness(palette []huepalette.WeightedColor) {
	slices.SortStableFunc(palette, func(a, b huepalette.WeightedColor) int {
		if a.Centroid.L < b.Centroid.L {
			return -1
		}
		if a.Centroid.L > b.Centroid.L {
			return 1
		}
		return 0
	})
}
