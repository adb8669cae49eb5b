package imageutil

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/require"

	chromapath "github.com/CodeSoul-co/Chromapath"
)

func testImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.SetRGBA(0, 0, color.RGBA{R: 255, A: 255})             // red
	img.SetRGBA(1, 0, color.RGBA{B: 255, A: 255})             // blue
	img.SetRGBA(0, 1, color.RGBA{R: 128, G: 128, B: 128, A: 255}) // pure gray
	img.SetRGBA(1, 1, color.RGBA{R: 100, G: 102, B: 101, A: 255}) // near gray
	return img
}

func TestExtractPixelsUnfiltered(t *testing.T) {
	pixels := ExtractPixels(testImage(), false, 0)
	require.Len(t, pixels, 4)
	// Row-major order.
	require.Equal(t, chromapath.RGB{R: 255}, pixels[0])
	require.Equal(t, chromapath.RGB{B: 255}, pixels[1])
}

func TestExtractPixelsFiltersGray(t *testing.T) {
	pixels := ExtractPixels(testImage(), true, 1)
	// Only the pure gray has spread 0.
	require.Len(t, pixels, 3)

	pixels = ExtractPixels(testImage(), true, 5)
	// The near gray (spread 2) goes too.
	require.Len(t, pixels, 2)
	require.ElementsMatch(t,
		[]chromapath.RGB{{R: 255}, {B: 255}}, pixels)
}

func TestFilterGrayPixels(t *testing.T) {
	pixels := []chromapath.RGB{
		{R: 50, G: 50, B: 50},
		{R: 255},
		{R: 10, G: 11, B: 10},
	}
	filtered := FilterGrayPixels(pixels, 2)
	require.Equal(t, []chromapath.RGB{{R: 255}}, filtered)

	// Threshold 0 keeps everything.
	require.Len(t, FilterGrayPixels(pixels, 0), 3)
}

func TestLoadOptionsGrayThresholdDefault(t *testing.T) {
	require.Equal(t, uint8(DefaultGrayThreshold), LoadOptions{}.grayThreshold())
	require.Equal(t, uint8(7), LoadOptions{GrayThreshold: 7}.grayThreshold())
}

func TestDownscale(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 100, 50))

	small := Downscale(img, 10)
	require.LessOrEqual(t, small.Bounds().Dx(), 10)
	require.LessOrEqual(t, small.Bounds().Dy(), 10)

	// Already within bounds, or disabled: unchanged.
	require.Equal(t, img.Bounds(), Downscale(img, 0).Bounds())
	require.Equal(t, img.Bounds(), Downscale(img, 200).Bounds())
}
