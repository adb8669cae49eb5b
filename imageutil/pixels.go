package imageutil

import (
	"image"

	chromapath "github.com/CodeSoul-co/Chromapath"
)

// DefaultGrayThreshold is the channel spread below which a pixel is
// treated as near-gray and filtered out. The default of 1 removes only
// pure grays.
const DefaultGrayThreshold = 1

// LoadOptions controls how an image file becomes a pixel population.
type LoadOptions struct {
	// FilterGray drops near-gray pixels before analysis.
	FilterGray bool
	// GrayThreshold is the max-min channel spread below which a pixel
	// counts as gray. Zero selects DefaultGrayThreshold.
	GrayThreshold uint8
	// MaxDimension, when positive, downscales the image so neither
	// side exceeds it before pixels are extracted.
	MaxDimension int
}

func (o LoadOptions) grayThreshold() uint8 {
	if o.GrayThreshold == 0 {
		return DefaultGrayThreshold
	}
	return o.GrayThreshold
}

// ExtractPixels flattens an image into a pixel population in row-major
// order, optionally dropping near-gray pixels.
func ExtractPixels(img image.Image, filterGray bool, grayThreshold uint8) []chromapath.RGB {
	bounds := img.Bounds()
	pixels := make([]chromapath.RGB, 0, bounds.Dx()*bounds.Dy())

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			p := chromapath.RGB{
				R: uint8(r >> 8),
				G: uint8(g >> 8),
				B: uint8(b >> 8),
			}
			if filterGray && p.GraySpread() < grayThreshold {
				continue
			}
			pixels = append(pixels, p)
		}
	}
	return pixels
}

// FilterGrayPixels returns the pixels whose channel spread is at least
// threshold, removing grays and near-grays.
func FilterGrayPixels(pixels []chromapath.RGB, threshold uint8) []chromapath.RGB {
	filtered := make([]chromapath.RGB, 0, len(pixels))
	for _, p := range pixels {
		if p.GraySpread() >= threshold {
			filtered = append(filtered, p)
		}
	}
	return filtered
}

// LoadPixels loads an image file and extracts its pixel population
// according to opts.
func LoadPixels(path string, opts LoadOptions) ([]chromapath.RGB, error) {
	img, err := LoadImage(path)
	if err != nil {
		return nil, err
	}
	img = Downscale(img, opts.MaxDimension)
	return ExtractPixels(img, opts.FilterGray, opts.grayThreshold()), nil
}
