package huepalette

import (
	"slices"

	"gonum.org/v1/gonum/floats"
)

// WeightedColor is a palette entry: a centroid and the fraction of samples
// assigned to it.
type WeightedColor struct {
	Centroid ColorSample
	Weight   float64
}

// Rank pairs every centroid of run with its coverage and orders the result by
// descending weight. Equal weights keep centroid order. No entry is dropped,
// including empty clusters (weight 0).
func Rank(run ClusterRun) []WeightedColor {
	if len(run.Centroids) == 0 {
		return nil
	}
	counts := run.Counts()
	total := float64(len(run.Indices))

	palette := make([]WeightedColor, len(run.Centroids))
	for i, c := range run.Centroids {
		w := 0.0
		if total > 0 {
			w = float64(counts[i]) / total
		}
		palette[i] = WeightedColor{Centroid: c, Weight: w}
	}
	SortByWeight(palette)
	return palette
}

// SortByWeight stable-sorts palette by descending weight.
func SortByWeight(palette []WeightedColor) {
	slices.SortStableFunc(palette, func(a, b WeightedColor) int {
		if a.Weight > b.Weight {
			return -1
		}
		if a.Weight < b.Weight {
			return 1
		}
		return 0
	})
}

// TotalWeight sums the weights of palette.
func TotalWeight(palette []WeightedColor) float64 {
	ws := make([]float64, len(palette))
	for i, c := range palette {
		ws[i] = c.Weight
	}
	return floats.Sum(ws)
}

// Normalize rescales the weights of palette so they sum to 1. A palette whose
// weights sum to zero is left unchanged.
func Normalize(palette []WeightedColor) {
	total := TotalWeight(palette)
	if total <= 0 {
		return
	}
	for i := range palette {
		palette[i].Weight /= total
	}
}
