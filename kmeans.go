package huepalette

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sync"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/floats"
)

// ClusterOptions controls one Cluster call.
type ClusterOptions struct {
	// Independent attempts; the lowest score wins.
	Runs int
	// Upper bound on assign/recenter rounds per attempt.
	MaxIterations int
	// An attempt stops early once the summed centroid displacement of a round
	// falls below this value (Lab units).
	Converge float64
	// Attempt i is seeded with Seed+i.
	Seed uint64
	// Emit per-iteration debug events. No effect on the result.
	Verbose bool
	// Goroutines used for attempts. Values < 1 mean one per attempt.
	Workers int
}

// ClusterRun is the outcome of one clustering attempt.
type ClusterRun struct {
	Attempt   int
	Seed      uint64
	Centroids []ColorSample
	// Indices[i] is the centroid index of samples[i].
	Indices    []int
	Score      float64
	Iterations int
}

// Counts returns the number of samples assigned to each centroid.
func (r ClusterRun) Counts() []int {
	counts := make([]int, len(r.Centroids))
	for _, ci := range r.Indices {
		counts[ci]++
	}
	return counts
}

// initDrawFactor bounds how many samples are drawn while looking for k
// distinct initial colors.
const initDrawFactor = 64

func (o ClusterOptions) validate() error {
	if o.Runs < 1 {
		return fmt.Errorf("%w: runs must be >= 1, got %d", ErrConfiguration, o.Runs)
	}
	if o.MaxIterations < 1 {
		return fmt.Errorf("%w: max iterations must be >= 1, got %d", ErrConfiguration, o.MaxIterations)
	}
	if !(o.Converge > 0) {
		return fmt.Errorf("%w: convergence threshold must be > 0, got %v", ErrConfiguration, o.Converge)
	}
	return nil
}

// Cluster partitions samples into k clusters, repeating the whole algorithm
// opt.Runs times and keeping the attempt with the lowest score.
func Cluster(samples []ColorSample, k int, opt ClusterOptions) (ClusterRun, error) {
	if err := opt.validate(); err != nil {
		return ClusterRun{}, err
	}
	if len(samples) == 0 {
		return ClusterRun{}, ErrNoSamples
	}
	if k < 1 {
		return ClusterRun{}, fmt.Errorf("%w: cluster count must be >= 1, got %d", ErrConfiguration, k)
	}
	if k > len(samples) {
		return ClusterRun{}, fmt.Errorf("%w (k=%d, samples=%d)", ErrInsufficientSamples, k, len(samples))
	}

	runs := make([]ClusterRun, opt.Runs)
	workers := opt.Workers
	if workers < 1 || workers > opt.Runs {
		workers = opt.Runs
	}

	if workers == 1 {
		for i := range runs {
			runs[i] = runOnce(samples, k, i, opt)
		}
	} else {
		attempts := make(chan int)
		var wg sync.WaitGroup
		for range workers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := range attempts {
					runs[i] = runOnce(samples, k, i, opt)
				}
			}()
		}
		for i := range runs {
			attempts <- i
		}
		close(attempts)
		wg.Wait()
	}

	best := runs[SelectBest(runs)]
	if opt.Verbose {
		log.Debug().
			Int("attempt", best.Attempt).
			Uint64("seed", best.Seed).
			Float64("score", best.Score).
			Int("runs", len(runs)).
			Msg("Selected clustering run")
	}
	return best, nil
}

// SelectBest returns the index of the run with the lowest score. A later run
// only replaces the current best on a strictly lower score, so the earliest of
// several equal minima wins. It returns -1 for an empty slice.
func SelectBest(runs []ClusterRun) int {
	best := -1
	bestScore := math.Inf(1)
	for i, r := range runs {
		if best < 0 || r.Score < bestScore {
			best = i
			bestScore = r.Score
		}
	}
	return best
}

func runOnce(samples []ColorSample, k, attempt int, opt ClusterOptions) ClusterRun {
	seed := opt.Seed + uint64(attempt)
	rng := rand.New(rand.NewPCG(seed, seed))

	centroids := initialCentroids(samples, k, rng)
	indices := make([]int, len(samples))
	sums := make([]ColorSample, k)
	counts := make([]int, k)

	iterations := 0
	for iterations < opt.MaxIterations {
		iterations++
		assign(samples, centroids, indices)

		clear(sums)
		clear(counts)
		for i, s := range samples {
			ci := indices[i]
			sums[ci].L += s.L
			sums[ci].A += s.A
			sums[ci].B += s.B
			counts[ci]++
		}

		moved := 0.0
		for ci := range centroids {
			if counts[ci] == 0 {
				// Empty clusters keep their previous position.
				continue
			}
			n := float64(counts[ci])
			next := ColorSample{L: sums[ci].L / n, A: sums[ci].A / n, B: sums[ci].B / n}
			moved += floats.Distance(centroids[ci].vec(), next.vec(), 2)
			centroids[ci] = next
		}

		if opt.Verbose {
			log.Debug().
				Int("attempt", attempt).
				Int("iteration", iterations).
				Float64("moved", moved).
				Msg("Clustering iteration")
		}
		if moved < opt.Converge {
			break
		}
	}

	score := assign(samples, centroids, indices)
	if opt.Verbose {
		log.Debug().
			Int("attempt", attempt).
			Uint64("seed", seed).
			Int("iterations", iterations).
			Float64("score", score).
			Msg("Clustering run finished")
	}

	return ClusterRun{
		Attempt:    attempt,
		Seed:       seed,
		Centroids:  centroids,
		Indices:    indices,
		Score:      score,
		Iterations: iterations,
	}
}

// assign writes the nearest centroid of every sample into indices and returns
// the summed squared distance. Ties go to the lower centroid index.
func assign(samples, centroids []ColorSample, indices []int) float64 {
	score := 0.0
	for i, s := range samples {
		best := 0
		bestD := distanceSquared(s, centroids[0])
		for ci := 1; ci < len(centroids); ci++ {
			if d := distanceSquared(s, centroids[ci]); d < bestD {
				best = ci
				bestD = d
			}
		}
		indices[i] = best
		score += bestD
	}
	return score
}

// initialCentroids picks k samples without replacement, preferring distinct
// colors. When the drawn samples hold fewer than k distinct colors the
// remainder is filled with repeats; those clusters stay empty.
func initialCentroids(samples []ColorSample, k int, rng *rand.Rand) []ColorSample {
	n := len(samples)
	draws := min(n, k*initDrawFactor)

	// Partial Fisher-Yates over the index space, tracking only swapped slots.
	swapped := make(map[int]int, draws)
	at := func(i int) int {
		if j, ok := swapped[i]; ok {
			return j
		}
		return i
	}

	centroids := make([]ColorSample, 0, k)
	seen := make(map[ColorSample]struct{}, k)
	var repeats []ColorSample
	for i := 0; i < draws && len(centroids) < k; i++ {
		j := i + rng.IntN(n-i)
		pick := at(j)
		swapped[j] = at(i)

		s := samples[pick]
		if _, ok := seen[s]; ok {
			if len(repeats) < k {
				repeats = append(repeats, s)
			}
			continue
		}
		seen[s] = struct{}{}
		centroids = append(centroids, s)
	}
	for i := 0; len(centroids) < k; i++ {
		centroids = append(centroids, repeats[i])
	}
	return centroids
}
