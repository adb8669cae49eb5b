// Package chromapath extracts, clusters, and recombines dominant colors
// from raster images. The core is three engines: a K-means color
// clusterer that reduces a pixel population to a weighted palette, a
// co-occurrence engine that measures pairwise color presence across an
// image collection, and a genetic optimizer that evolves discrete color
// schemes under externally supplied fitness scores.
//
// The core never performs image I/O; it consumes pixel populations
// produced by the imageutil package (or any other source of RGB
// triplets).
package chromapath

import (
	"fmt"
	"math"
)

// RGB represents a color in the RGB color space with 8-bit channels,
// where each channel ranges from 0 to 255. The RGB color space is
// additive, meaning that colors are created by adding together the
// red, green, and blue channels.
type RGB struct {
	R, G, B uint8
}

// Distance calculates the Euclidean distance between two RGB colors
// in the RGB color space. The function returns the distance as a
// floating-point number.
func (c RGB) Distance(other RGB) float64 {
	return math.Sqrt(c.distanceSquared(other))
}

// distanceSquared avoids the square root where only comparisons are
// needed (cluster assignment, presence thresholds).
func (c RGB) distanceSquared(other RGB) float64 {
	dr := int(c.R) - int(other.R)
	dg := int(c.G) - int(other.G)
	db := int(c.B) - int(other.B)
	return float64(dr*dr + dg*dg + db*db)
}

// GraySpread returns the difference between the largest and smallest
// channel. A spread of 0 is a pure gray; small spreads are near-gray.
func (c RGB) GraySpread() uint8 {
	maxc, minc := c.R, c.R
	for _, ch := range [2]uint8{c.G, c.B} {
		if ch > maxc {
			maxc = ch
		}
		if ch < minc {
			minc = ch
		}
	}
	return maxc - minc
}

// Hex returns the color as a #RRGGBB string.
func (c RGB) Hex() string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}

// Luminance returns the perceptual luminance of the color using the
// standard Rec. 601 weights.
func (c RGB) Luminance() float64 {
	return 0.299*float64(c.R) + 0.587*float64(c.G) + 0.114*float64(c.B)
}

// Centroid is a cluster mean in RGB space. Channels are fractional
// because the mean of 8-bit samples rarely lands on an integer.
type Centroid struct {
	R, G, B float64
}

// RGB rounds the centroid to the nearest representable 8-bit color.
func (c Centroid) RGB() RGB {
	return RGB{
		R: uint8(clampChannel(math.Round(c.R))),
		G: uint8(clampChannel(math.Round(c.G))),
		B: uint8(clampChannel(math.Round(c.B))),
	}
}

// distanceSquaredTo returns the squared Euclidean distance between the
// centroid and an 8-bit sample.
func (c Centroid) distanceSquaredTo(p RGB) float64 {
	dr := c.R - float64(p.R)
	dg := c.G - float64(p.G)
	db := c.B - float64(p.B)
	return dr*dr + dg*dg + db*db
}

func (c Centroid) moved(other Centroid) float64 {
	dr := c.R - other.R
	dg := c.G - other.G
	db := c.B - other.B
	return math.Sqrt(dr*dr + dg*dg + db*db)
}

// clampChannel clamps a channel value to the representable [0, 255]
// range.
func clampChannel(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return v
}

// ProgressFunc reports progress over a long-running operation. It is
// invoked with the zero-based index of the item about to be processed
// and the total item count. Progress reporting is a pass-through
// convenience for callers rendering progress bars and has no effect on
// results.
type ProgressFunc func(current, total int)
