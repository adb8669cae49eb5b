package chromapath

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

// testPixels generates a reproducible pixel population drawn from a
// fixed set of base colors with small per-channel jitter.
func testPixels(t *testing.T, n int, seed int64) []RGB {
	t.Helper()
	bases := []RGB{
		{220, 40, 30},
		{30, 180, 60},
		{40, 60, 210},
		{240, 200, 40},
	}
	rng := rand.New(rand.NewSource(seed))
	pixels := make([]RGB, n)
	for i := range pixels {
		base := bases[rng.Intn(len(bases))]
		jitter := func(v uint8) uint8 {
			d := rng.Intn(11) - 5
			return uint8(clampChannel(float64(int(v) + d)))
		}
		pixels[i] = RGB{R: jitter(base.R), G: jitter(base.G), B: jitter(base.B)}
	}
	return pixels
}

func TestFitWeightConservation(t *testing.T) {
	pixels := testPixels(t, 500, 11)
	clusterer := NewColorClusterer(5)
	clusterer.Seed = 1

	palette, err := clusterer.Fit(pixels)
	require.NoError(t, err)
	require.Len(t, palette, 5)
	require.InDelta(t, 1.0, palette.TotalWeight(), 1e-9)
	for _, c := range palette {
		require.GreaterOrEqual(t, c.Weight, 0.0)
		require.LessOrEqual(t, c.Weight, 1.0)
	}
}

func TestFitEmptyInput(t *testing.T) {
	clusterer := NewColorClusterer(3)
	palette, err := clusterer.Fit(nil)
	require.NoError(t, err)
	require.Empty(t, palette)

	sorted, err := clusterer.FitSorted(nil)
	require.NoError(t, err)
	require.Empty(t, sorted)
}

func TestFitRejectsOversizedK(t *testing.T) {
	clusterer := NewColorClusterer(5)
	_, err := clusterer.Fit([]RGB{{1, 2, 3}, {4, 5, 6}})
	require.Error(t, err)
}

func TestFitSortedDescendingAndIdempotent(t *testing.T) {
	pixels := testPixels(t, 400, 3)
	clusterer := NewColorClusterer(4)
	clusterer.Seed = 2

	palette, err := clusterer.FitSorted(pixels)
	require.NoError(t, err)
	weights := palette.Weights()
	for i := 1; i < len(weights); i++ {
		require.LessOrEqual(t, weights[i], weights[i-1])
	}
	require.Equal(t, palette, palette.Sorted())
}

func TestFitSeedDeterminism(t *testing.T) {
	pixels := testPixels(t, 300, 5)

	run := func() Palette {
		clusterer := NewColorClusterer(4)
		clusterer.Seed = 42
		palette, err := clusterer.FitSorted(pixels)
		require.NoError(t, err)
		return palette
	}
	require.Equal(t, run(), run())
}

func TestRedBlueEndToEnd(t *testing.T) {
	pixels := make([]RGB, 0, 2000)
	for i := 0; i < 1000; i++ {
		pixels = append(pixels, RGB{255, 0, 0})
	}
	for i := 0; i < 1000; i++ {
		pixels = append(pixels, RGB{0, 0, 255})
	}

	clusterer := NewColorClusterer(2)
	clusterer.Seed = 7
	palette, err := clusterer.FitSorted(pixels)
	require.NoError(t, err)
	require.Len(t, palette, 2)

	for _, c := range palette {
		require.InDelta(t, 0.5, c.Weight, 1e-9)
	}
	colors := palette.Colors()
	require.ElementsMatch(t, []RGB{{255, 0, 0}, {0, 0, 255}}, colors)
}

func TestClusterCombined(t *testing.T) {
	reds := make([]RGB, 100)
	blues := make([]RGB, 100)
	for i := range reds {
		reds[i] = RGB{255, 0, 0}
		blues[i] = RGB{0, 0, 255}
	}

	palette, err := ClusterCombined([][]RGB{reds, nil, blues}, 2)
	require.NoError(t, err)
	require.Len(t, palette, 2)
	require.ElementsMatch(t, []RGB{{255, 0, 0}, {0, 0, 255}}, palette.Colors())
	require.InDelta(t, 1.0, palette.TotalWeight(), 1e-9)
}

func TestClusterCombinedAllEmpty(t *testing.T) {
	palette, err := ClusterCombined([][]RGB{nil, {}}, 3)
	require.NoError(t, err)
	require.Empty(t, palette)
}

func TestNearestCentroidTieGoesToLowestIndex(t *testing.T) {
	centroids := []Centroid{{R: 10}, {R: 10}, {R: 200}}
	require.Equal(t, 0, nearestCentroid(centroids, RGB{R: 10}))
}

func TestRunKMeansInertiaNonNegative(t *testing.T) {
	pixels := testPixels(t, 200, 9)
	run := runKMeans(pixels, 3, DefaultMaxIterations, rand.New(rand.NewSource(1)))
	require.GreaterOrEqual(t, run.inertia, 0.0)
	require.Len(t, run.labels, len(pixels))
	require.False(t, math.IsNaN(run.inertia))

	total := 0
	for _, c := range run.counts {
		total += c
	}
	require.Equal(t, len(pixels), total)
}
