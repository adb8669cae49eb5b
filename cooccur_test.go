package chromapath

import (
	"testing"

	"github.com/stretchr/testify/require"
)

var (
	red  = RGB{255, 0, 0}
	blue = RGB{0, 0, 255}
)

func TestIsPresent(t *testing.T) {
	engine := NewCooccurrenceEngine()
	pixels := []RGB{{10, 10, 10}, {254, 0, 0}}

	require.True(t, engine.IsPresent(pixels, RGB{254, 0, 0}))
	// Distance 1 is within the default threshold of 1.
	require.True(t, engine.IsPresent(pixels, red))
	require.False(t, engine.IsPresent(pixels, blue))
	require.False(t, engine.IsPresent(nil, red))
}

func TestAnyPresentIsLogicalOr(t *testing.T) {
	engine := NewCooccurrenceEngine()
	pixels := []RGB{red}

	require.True(t, engine.AnyPresent(pixels, []RGB{red, blue}))
	require.True(t, engine.AnyPresent(pixels, []RGB{blue, red}))
	require.False(t, engine.AnyPresent(pixels, []RGB{blue, {0, 255, 0}}))
}

// A corpus item containing only red must still credit the (red, blue)
// pair: presence-agreement counts "at least one of the pair observed",
// not joint presence.
func TestAnalyzeOrSemantics(t *testing.T) {
	engine := NewCooccurrenceEngine()
	corpus := [][]RGB{{red, red, red}}

	matrix := engine.Analyze(corpus, []RGB{red, blue}, nil)
	require.Equal(t, [][]float64{{0, 1}, {1, 0}}, matrix)
}

func TestAnalyzeSymmetryAndZeroDiagonal(t *testing.T) {
	engine := NewCooccurrenceEngine()
	colors := []RGB{red, blue, {0, 255, 0}, {255, 255, 0}}
	corpus := [][]RGB{
		{red, blue},
		{{0, 255, 0}},
		{red, {255, 255, 0}, blue},
		{{7, 7, 7}},
	}

	matrix := engine.Analyze(corpus, colors, nil)
	for i := range matrix {
		require.Zero(t, matrix[i][i])
		for j := range matrix[i] {
			require.Equal(t, matrix[j][i], matrix[i][j])
			require.GreaterOrEqual(t, matrix[i][j], 0.0)
			require.LessOrEqual(t, matrix[i][j], 1.0)
		}
	}
}

func TestAnalyzeSkipsEmptyItemsInDivisor(t *testing.T) {
	engine := NewCooccurrenceEngine()
	// One decodable item with red, one failed (empty) item. The
	// divisor must be 1, not 2.
	corpus := [][]RGB{{red}, nil, {}}

	matrix := engine.Analyze(corpus, []RGB{red, blue}, nil)
	require.Equal(t, 1.0, matrix[0][1])
	require.Equal(t, 1.0, matrix[1][0])
}

func TestAnalyzeNoProcessableItems(t *testing.T) {
	engine := NewCooccurrenceEngine()
	matrix := engine.Analyze([][]RGB{nil, {}}, []RGB{red, blue}, nil)
	require.Equal(t, [][]float64{{0, 0}, {0, 0}}, matrix)

	matrix = engine.Analyze(nil, []RGB{red, blue}, nil)
	require.Equal(t, [][]float64{{0, 0}, {0, 0}}, matrix)
}

func TestAnalyzeFrequencies(t *testing.T) {
	engine := NewCooccurrenceEngine()
	green := RGB{0, 255, 0}
	// red appears in 2 of 4 items, green in 1, blue never.
	corpus := [][]RGB{
		{red},
		{red, green},
		{{40, 40, 40}},
		{{80, 90, 100}},
	}

	matrix := engine.Analyze(corpus, []RGB{red, green, blue}, nil)
	// (red, green): credited in both red items and the green item.
	require.InDelta(t, 0.5, matrix[0][1], 1e-9)
	// (red, blue): credited wherever red is present.
	require.InDelta(t, 0.5, matrix[0][2], 1e-9)
	// (green, blue): credited only where green is present.
	require.InDelta(t, 0.25, matrix[1][2], 1e-9)
}

func TestAnalyzeProgressCallback(t *testing.T) {
	engine := NewCooccurrenceEngine()
	corpus := [][]RGB{{red}, {blue}, nil}

	var calls [][2]int
	engine.Analyze(corpus, []RGB{red, blue}, func(current, total int) {
		calls = append(calls, [2]int{current, total})
	})
	// The callback fires for every corpus item, skipped ones included.
	require.Equal(t, [][2]int{{0, 3}, {1, 3}, {2, 3}}, calls)
}

func TestAnalyzeThresholdWidensMatches(t *testing.T) {
	engine := NewCooccurrenceEngine()
	engine.Threshold = 50
	nearRed := RGB{230, 20, 10}

	require.True(t, engine.IsPresent([]RGB{nearRed}, red))
	engine.Threshold = 5
	require.False(t, engine.IsPresent([]RGB{nearRed}, red))
}

func TestFormatMatrix(t *testing.T) {
	matrix := [][]float64{{0, 0.5}, {0.5, 0}}
	formatted := FormatMatrix(matrix, 2)
	require.Equal(t, "[\n    [0.00, 0.50],\n    [0.50, 0.00],\n]", formatted)
}
