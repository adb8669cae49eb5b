package chromapath

import (
	"fmt"
	"sort"
	"strings"
)

// ColorCluster pairs a cluster centroid with the fraction of input
// pixels assigned to it. Weights lie in [0, 1] and sum to 1 across the
// clusters of a single run, except that a cluster which received no
// pixels keeps its initial centroid and weight 0.
type ColorCluster struct {
	Color  Centroid
	Weight float64
}

// Palette is an ordered sequence of color clusters. Order is a
// presentation concern; Sorted produces the canonical descending-weight
// ordering.
type Palette []ColorCluster

// byWeight implements sort.Interface for Palette, ordering by
// descending weight. Used with sort.Stable so that equal weights keep
// their original cluster-index order.
type byWeight Palette

func (p byWeight) Len() int           { return len(p) }
func (p byWeight) Swap(i, j int)      { p[i], p[j] = p[j], p[i] }
func (p byWeight) Less(i, j int) bool { return p[i].Weight > p[j].Weight }

// Sorted returns a copy of the palette sorted by descending weight.
// Ties keep the original cluster-index order, so sorting an already
// sorted palette is a no-op.
func (p Palette) Sorted() Palette {
	sorted := make(Palette, len(p))
	copy(sorted, p)
	sort.Stable(byWeight(sorted))
	return sorted
}

// Colors returns the palette's centroids rounded to 8-bit colors, in
// palette order.
func (p Palette) Colors() []RGB {
	colors := make([]RGB, len(p))
	for i, c := range p {
		colors[i] = c.Color.RGB()
	}
	return colors
}

// Weights returns the palette's weights in palette order.
func (p Palette) Weights() []float64 {
	weights := make([]float64, len(p))
	for i, c := range p {
		weights[i] = c.Weight
	}
	return weights
}

// TotalWeight returns the sum of all cluster weights. For a palette
// derived from a single exhaustive clustering this is 1 within floating
// tolerance.
func (p Palette) TotalWeight() float64 {
	var total float64
	for _, c := range p {
		total += c.Weight
	}
	return total
}

// Format renders the palette as rows of "([r, g, b], weight)" in
// descending-weight order, with the given decimal precision for
// weights.
func (p Palette) Format(precision int) string {
	sorted := p.Sorted()
	var b strings.Builder
	b.WriteString("[\n")
	for _, c := range sorted {
		rgb := c.Color.RGB()
		fmt.Fprintf(&b, "    ([%d, %d, %d], %.*f),\n",
			rgb.R, rgb.G, rgb.B, precision, c.Weight)
	}
	b.WriteString("]")
	return b.String()
}

func (p Palette) String() string {
	return p.Format(4)
}

// FormatMatrix renders a square matrix as fixed-precision bracketed
// rows for display.
func FormatMatrix(matrix [][]float64, precision int) string {
	var b strings.Builder
	b.WriteString("[\n")
	for _, row := range matrix {
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = fmt.Sprintf("%.*f", precision, v)
		}
		fmt.Fprintf(&b, "    [%s],\n", strings.Join(cells, ", "))
	}
	b.WriteString("]")
	return b.String()
}
