// Package imageutil is the pixel-corpus layer: it decodes images,
// flattens them into RGB pixel populations, and scans folders for
// analyzable files, so the analytical core never touches the
// filesystem itself.
package imageutil

import (
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"os"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"

	_ "github.com/gen2brain/avif"   // Register AVIF decoder
	_ "golang.org/x/image/bmp"      // Register BMP decoder
	_ "golang.org/x/image/tiff"     // Register TIFF decoder
	_ "golang.org/x/image/webp"     // Register WebP decoder
)

// LoadImage loads an image from the specified path.
// Supports PNG, JPEG, GIF, BMP, TIFF, WebP, and AVIF formats.
func LoadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open image")
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to decode image %s", path)
	}
	return img, nil
}

// Downscale resizes an image so that neither dimension exceeds maxDim,
// preserving aspect ratio. Images already within bounds are returned
// unchanged. Downscaling before clustering trades a little centroid
// precision for a much smaller pixel population.
func Downscale(img image.Image, maxDim int) image.Image {
	bounds := img.Bounds()
	if maxDim <= 0 || (bounds.Dx() <= maxDim && bounds.Dy() <= maxDim) {
		return img
	}
	return imaging.Fit(img, maxDim, maxDim, imaging.Lanczos)
}

// SavePNG saves an image as PNG to the specified path.
func SavePNG(img image.Image, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "failed to create file")
	}
	defer f.Close()

	return png.Encode(f, img)
}
