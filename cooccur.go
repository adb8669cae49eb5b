package chromapath

// DefaultPresenceThreshold is the Euclidean RGB distance within which a
// pixel counts as an observation of a color.
const DefaultPresenceThreshold = 1.0

// CooccurrenceEngine measures how frequently, across a collection of
// images, each pair of a caller-supplied color list is observed
// together in the same image.
//
// "Together" here is presence-agreement, not strict joint presence: a
// pair is credited whenever at least one of its two colors is detected
// in an image. Callers expecting joint-presence semantics should read
// the matrix accordingly; the behavior is deliberate and pinned by
// tests.
type CooccurrenceEngine struct {
	// Threshold is the Euclidean RGB distance within which a pixel
	// matches a color. Zero means exact matches only.
	Threshold float64
}

// NewCooccurrenceEngine returns an engine with the default presence
// threshold.
func NewCooccurrenceEngine() *CooccurrenceEngine {
	return &CooccurrenceEngine{Threshold: DefaultPresenceThreshold}
}

// IsPresent reports whether any pixel in the population lies within
// Threshold Euclidean distance of color.
func (e *CooccurrenceEngine) IsPresent(pixels []RGB, color RGB) bool {
	limit := e.Threshold * e.Threshold
	for _, p := range pixels {
		if p.distanceSquared(color) <= limit {
			return true
		}
	}
	return false
}

// AnyPresent reports whether IsPresent holds for any color in the list.
func (e *CooccurrenceEngine) AnyPresent(pixels []RGB, colors []RGB) bool {
	for _, c := range colors {
		if e.IsPresent(pixels, c) {
			return true
		}
	}
	return false
}

// Analyze computes the presence-agreement frequency matrix for the
// given colors over a corpus of pixel populations, one population per
// image. For each unordered pair (i, j), both matrix[i][j] and
// matrix[j][i] are incremented once per corpus item in which at least
// one of the two colors is detected. Each cell is then divided by the
// number of corpus items processed.
//
// A nil or empty population stands for an image that failed to decode
// or whose extraction produced nothing; such items are skipped and do
// not count toward the divisor. If no items are processed the matrix
// stays all-zero. The diagonal is always 0 and the matrix is symmetric
// by construction.
func (e *CooccurrenceEngine) Analyze(corpus [][]RGB, colors []RGB, progress ProgressFunc) [][]float64 {
	n := len(colors)
	matrix := make([][]float64, n)
	for i := range matrix {
		matrix[i] = make([]float64, n)
	}

	total := len(corpus)
	processed := 0
	for idx, pixels := range corpus {
		if progress != nil {
			progress(idx, total)
		}
		if len(pixels) == 0 {
			continue
		}
		processed++

		if !e.AnyPresent(pixels, colors) {
			continue
		}
		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				if e.AnyPresent(pixels, []RGB{colors[i], colors[j]}) {
					matrix[i][j]++
					matrix[j][i]++
				}
			}
		}
	}

	if processed > 0 {
		for i := range matrix {
			for j := range matrix[i] {
				matrix[i][j] /= float64(processed)
			}
		}
	}
	return matrix
}
