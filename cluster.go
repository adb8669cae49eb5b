package chromapath

import (
	"math"
	"math/rand"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// Clustering defaults. They mirror the knobs a caller is most likely to
// leave alone: 18 extracted colors, 10 independent restarts, and the
// conventional 300-iteration cap.
const (
	DefaultClusterColors   = 18
	DefaultClusterRestarts = 10
	DefaultMaxIterations   = 300
	CombinedRestarts       = 20

	// convergenceTolerance is the centroid movement below which an
	// iteration run is considered converged.
	convergenceTolerance = 0.01
)

// ColorClusterer partitions a pixel population into K representative
// colors with relative weights using K-means in RGB space. Each Fit
// runs Restarts independent initializations and keeps the
// lowest-inertia result; a nonzero Seed makes the restarts, and
// therefore the result, fully reproducible.
type ColorClusterer struct {
	Colors        int   // cluster count K
	Restarts      int   // independent K-means initializations
	MaxIterations int   // iteration cap per restart
	Seed          int64 // 0 seeds from the clock
}

// NewColorClusterer returns a clusterer for the given cluster count
// with default restart and iteration settings. A non-positive count
// falls back to DefaultClusterColors.
func NewColorClusterer(colors int) *ColorClusterer {
	if colors <= 0 {
		colors = DefaultClusterColors
	}
	return &ColorClusterer{
		Colors:        colors,
		Restarts:      DefaultClusterRestarts,
		MaxIterations: DefaultMaxIterations,
	}
}

// Fit clusters the pixel population into K weighted representative
// colors. The weight of cluster i is the count of pixels assigned to it
// divided by the total pixel count; a cluster that received no pixels
// keeps its initial centroid and weight 0.
//
// An empty pixel population yields an empty palette and no error: there
// is nothing to analyze. K larger than the population size is a caller
// error.
func (cc *ColorClusterer) Fit(pixels []RGB) (Palette, error) {
	palette, _, err := cc.fitLabels(pixels)
	return palette, err
}

// FitSorted is Fit with the result sorted by descending weight, ties
// broken by cluster index.
func (cc *ColorClusterer) FitSorted(pixels []RGB) (Palette, error) {
	palette, err := cc.Fit(pixels)
	if err != nil {
		return nil, err
	}
	return palette.Sorted(), nil
}

// fitLabels is the full clustering run: it also returns the per-pixel
// cluster label assignment of the winning restart, which the genetic
// optimizer uses as its fixed segmentation.
func (cc *ColorClusterer) fitLabels(pixels []RGB) (Palette, []int, error) {
	if len(pixels) == 0 {
		return Palette{}, nil, nil
	}
	k := cc.Colors
	if k > len(pixels) {
		return nil, nil, errors.Errorf(
			"cannot cluster %d pixels into %d colors", len(pixels), k)
	}

	restarts := cc.Restarts
	if restarts < 1 {
		restarts = 1
	}
	maxIter := cc.MaxIterations
	if maxIter < 1 {
		maxIter = DefaultMaxIterations
	}
	baseSeed := cc.Seed
	if baseSeed == 0 {
		baseSeed = time.Now().UnixNano()
	}

	// Restarts are independent; run them concurrently. Each derives
	// its own generator from the base seed and results are collected
	// by restart index, so the winner is identical to a sequential
	// run: lowest inertia, ties to the lowest restart index.
	results := make([]kmeansRun, restarts)
	var g errgroup.Group
	for i := 0; i < restarts; i++ {
		i := i
		g.Go(func() error {
			rng := rand.New(rand.NewSource(baseSeed + int64(i)))
			results[i] = runKMeans(pixels, k, maxIter, rng)
			return nil
		})
	}
	// Worker funcs never return errors; Wait only joins them.
	_ = g.Wait()

	best := 0
	for i := 1; i < restarts; i++ {
		if results[i].inertia < results[best].inertia {
			best = i
		}
	}
	winner := results[best]

	total := float64(len(pixels))
	palette := make(Palette, k)
	for i := 0; i < k; i++ {
		palette[i] = ColorCluster{
			Color:  winner.centroids[i],
			Weight: float64(winner.counts[i]) / total,
		}
	}
	return palette, winner.labels, nil
}

// ClusterCombined concatenates multiple pixel populations into one pool
// and clusters the pool, producing a shared palette for an image
// collection. Empty populations contribute nothing. The result is
// sorted by descending weight.
func ClusterCombined(populations [][]RGB, colors int) (Palette, error) {
	var total int
	for _, p := range populations {
		total += len(p)
	}
	combined := make([]RGB, 0, total)
	for _, p := range populations {
		combined = append(combined, p...)
	}

	clusterer := NewColorClusterer(colors)
	clusterer.Restarts = CombinedRestarts
	return clusterer.FitSorted(combined)
}

// kmeansRun is the outcome of one K-means initialization.
type kmeansRun struct {
	centroids []Centroid
	counts    []int
	labels    []int
	inertia   float64
}

// runKMeans performs one K-means run: random distinct initial centers
// drawn from the population, iterative assign/update until centroids
// stop moving or the iteration cap is reached, then a final assignment
// pass that produces labels, counts, and inertia (the sum of squared
// distances from each pixel to its centroid).
func runKMeans(pixels []RGB, k, maxIterations int, rng *rand.Rand) kmeansRun {
	centroids := make([]Centroid, k)
	used := make(map[int]bool, k)
	for i := 0; i < k; i++ {
		var idx int
		for {
			idx = rng.Intn(len(pixels))
			if !used[idx] {
				used[idx] = true
				break
			}
		}
		p := pixels[idx]
		centroids[i] = Centroid{R: float64(p.R), G: float64(p.G), B: float64(p.B)}
	}

	sums := make([][3]float64, k)
	counts := make([]int, k)
	for iter := 0; iter < maxIterations; iter++ {
		for i := range sums {
			sums[i] = [3]float64{}
			counts[i] = 0
		}
		for _, p := range pixels {
			c := nearestCentroid(centroids, p)
			sums[c][0] += float64(p.R)
			sums[c][1] += float64(p.G)
			sums[c][2] += float64(p.B)
			counts[c]++
		}

		converged := true
		for i := range centroids {
			if counts[i] == 0 {
				// Empty cluster keeps its centroid.
				continue
			}
			n := float64(counts[i])
			next := Centroid{
				R: sums[i][0] / n,
				G: sums[i][1] / n,
				B: sums[i][2] / n,
			}
			if centroids[i].moved(next) > convergenceTolerance {
				converged = false
			}
			centroids[i] = next
		}
		if converged {
			break
		}
	}

	labels := make([]int, len(pixels))
	for i := range counts {
		counts[i] = 0
	}
	var inertia float64
	for i, p := range pixels {
		c := nearestCentroid(centroids, p)
		labels[i] = c
		counts[c]++
		inertia += centroids[c].distanceSquaredTo(p)
	}

	return kmeansRun{
		centroids: centroids,
		counts:    counts,
		labels:    labels,
		inertia:   inertia,
	}
}

// nearestCentroid returns the index of the centroid closest to p, ties
// to the lowest index.
func nearestCentroid(centroids []Centroid, p RGB) int {
	best := 0
	bestDist := math.MaxFloat64
	for i, c := range centroids {
		if d := c.distanceSquaredTo(p); d < bestDist {
			bestDist = d
			best = i
		}
	}
	return best
}
