package huepalette

import (
	"math"
	"testing"
)

func TestRank_WeightsAndOrder(t *testing.T) {
	c0 := ColorSample{L: 10}
	c1 := ColorSample{L: 20}
	c2 := ColorSample{L: 30}
	run := ClusterRun{
		Centroids: []ColorSample{c0, c1, c2},
		Indices:   []int{1, 2, 1, 1, 0, 2, 1, 2},
	}

	palette := Rank(run)
	want := []WeightedColor{
		{Centroid: c1, Weight: 4.0 / 8},
		{Centroid: c2, Weight: 3.0 / 8},
		{Centroid: c0, Weight: 1.0 / 8},
	}
	if len(palette) != len(want) {
		t.Fatalf("len(palette) = %d, want %d", len(palette), len(want))
	}
	for i := range want {
		if palette[i] != want[i] {
			t.Errorf("palette[%d] = %+v, want %+v", i, palette[i], want[i])
		}
	}
}

func TestRank_StableOnTies(t *testing.T) {
	cs := []ColorSample{{L: 1}, {L: 2}, {L: 3}, {L: 4}}
	run := ClusterRun{
		Centroids: cs,
		// c3 dominant, c0..c2 tied
		Indices: []int{3, 3, 0, 1, 2, 3},
	}
	palette := Rank(run)
	order := []ColorSample{cs[3], cs[0], cs[1], cs[2]}
	for i, c := range order {
		if palette[i].Centroid != c {
			t.Errorf("palette[%d] = %+v, want %+v", i, palette[i].Centroid, c)
		}
	}
}

func TestRank_KeepsEmptyClusters(t *testing.T) {
	run := ClusterRun{
		Centroids: []ColorSample{{L: 1}, {L: 2}, {L: 3}},
		Indices:   []int{2, 2, 2},
	}
	palette := Rank(run)
	if len(palette) != 3 {
		t.Fatalf("len(palette) = %d, want 3", len(palette))
	}
	if palette[0].Weight != 1 || palette[1].Weight != 0 || palette[2].Weight != 0 {
		t.Errorf("weights = %v, %v, %v; want 1, 0, 0", palette[0].Weight, palette[1].Weight, palette[2].Weight)
	}
	if palette[1].Centroid.L != 1 || palette[2].Centroid.L != 2 {
		t.Errorf("empty clusters out of centroid order: %+v", palette)
	}
}

func TestRank_Empty(t *testing.T) {
	if got := Rank(ClusterRun{}); len(got) != 0 {
		t.Errorf("Rank(empty) = %v, want empty", got)
	}
}

func TestRank_WeightsSumToOne(t *testing.T) {
	samples := randomSamples(997, 11)
	run, err := Cluster(samples, 7, testOptions())
	if err != nil {
		t.Fatalf("Cluster() error = %v", err)
	}
	palette := Rank(run)
	if len(palette) != 7 {
		t.Fatalf("len(palette) = %d, want 7", len(palette))
	}
	if sum := TotalWeight(palette); math.Abs(sum-1) > 1e-6 {
		t.Errorf("weights sum to %v, want 1", sum)
	}
	for i := 1; i < len(palette); i++ {
		if palette[i].Weight > palette[i-1].Weight {
			t.Errorf("palette not descending at %d: %v > %v", i, palette[i].Weight, palette[i-1].Weight)
		}
	}
}

func TestNormalize(t *testing.T) {
	palette := []WeightedColor{{Weight: 2}, {Weight: 6}}
	Normalize(palette)
	if palette[0].Weight != 0.25 || palette[1].Weight != 0.75 {
		t.Errorf("Normalize() = %v, %v; want 0.25, 0.75", palette[0].Weight, palette[1].Weight)
	}

	zero := []WeightedColor{{Weight: 0}}
	Normalize(zero)
	if zero[0].Weight != 0 {
		t.Errorf("Normalize(zero) changed weight to %v", zero[0].Weight)
	}
}
