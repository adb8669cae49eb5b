// Package render turns core analysis results into plain raster
// images: proportional-width palette cards and recolored scheme
// previews. It is a presentation convenience over the numeric
// structures the core produces.
package render

import (
	"image"
	"image/color"
	"image/draw"
	"os"

	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"github.com/pkg/errors"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	chromapath "github.com/CodeSoul-co/Chromapath"
)

// Card geometry defaults.
const (
	DefaultCardHeight = 150
	DefaultWidthScale = 400

	// minLabelWidth is the swatch width below which a hex label would
	// not fit and is skipped.
	minLabelWidth = 58
)

// CardOptions controls palette card rendering.
type CardOptions struct {
	// Height of the card in pixels. Zero selects DefaultCardHeight.
	Height int
	// WidthScale scales swatch widths: a cluster of weight w is
	// int(w × WidthScale) pixels wide. Zero selects DefaultWidthScale.
	WidthScale int
	// NoLabels suppresses the hex label on each swatch.
	NoLabels bool
	// FontPath optionally names a TTF file for labels. When empty a
	// built-in bitmap face is used.
	FontPath string
	// FontSize is the TTF point size. Zero selects 12.
	FontSize float64
}

func (o CardOptions) withDefaults() CardOptions {
	if o.Height <= 0 {
		o.Height = DefaultCardHeight
	}
	if o.WidthScale <= 0 {
		o.WidthScale = DefaultWidthScale
	}
	if o.FontSize <= 0 {
		o.FontSize = 12
	}
	return o
}

// Card renders a palette as a horizontal color card: one swatch per
// cluster in descending-weight order, swatch width proportional to
// cluster weight. When every weight rounds to zero width the card
// falls back to equal-width swatches.
func Card(palette chromapath.Palette, opts CardOptions) (*image.RGBA, error) {
	if len(palette) == 0 {
		return nil, errors.New("cannot render an empty palette")
	}
	opts = opts.withDefaults()

	sorted := palette.Sorted()
	widths := make([]int, len(sorted))
	total := 0
	for i, c := range sorted {
		widths[i] = int(c.Weight * float64(opts.WidthScale))
		total += widths[i]
	}
	if total == 0 {
		total = opts.WidthScale
		for i := range widths {
			widths[i] = opts.WidthScale / len(sorted)
		}
	}

	card := image.NewRGBA(image.Rect(0, 0, total, opts.Height))
	start := 0
	for i, c := range sorted {
		rgb := c.Color.RGB()
		fill := color.RGBA{R: rgb.R, G: rgb.G, B: rgb.B, A: 255}
		rect := image.Rect(start, 0, start+widths[i], opts.Height)
		draw.Draw(card, rect, image.NewUniform(fill), image.Point{}, draw.Src)

		if !opts.NoLabels && widths[i] >= minLabelWidth {
			if err := drawLabel(card, rgb.Hex(), start+4, 16, labelColor(rgb), opts); err != nil {
				return nil, err
			}
		}
		start += widths[i]
	}
	return card, nil
}

// SchemeImage reshapes a recolored pixel sequence (the output of
// GeneticColorOptimizer.ApplyScheme) back into a width×height image in
// row-major order.
func SchemeImage(pixels []chromapath.RGB, width, height int) (*image.RGBA, error) {
	if width*height != len(pixels) {
		return nil, errors.Errorf(
			"%d pixels do not fill a %dx%d image", len(pixels), width, height)
	}
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for i, p := range pixels {
		img.SetRGBA(i%width, i/width, color.RGBA{R: p.R, G: p.G, B: p.B, A: 255})
	}
	return img, nil
}

// labelColor picks black or white for readability against a swatch.
func labelColor(bg chromapath.RGB) color.RGBA {
	if bg.Luminance() > 128 {
		return color.RGBA{A: 255}
	}
	return color.RGBA{R: 255, G: 255, B: 255, A: 255}
}

// drawLabel draws text at (x, y baseline). With a FontPath it renders
// through freetype; otherwise it falls back to the built-in 7x13
// bitmap face.
func drawLabel(dst *image.RGBA, text string, x, y int, c color.RGBA, opts CardOptions) error {
	if opts.FontPath == "" {
		d := font.Drawer{
			Dst:  dst,
			Src:  image.NewUniform(c),
			Face: basicfont.Face7x13,
			Dot:  fixed.P(x, y),
		}
		d.DrawString(text)
		return nil
	}

	ttf, err := loadFont(opts.FontPath)
	if err != nil {
		return err
	}
	ctx := freetype.NewContext()
	ctx.SetDPI(72)
	ctx.SetFont(ttf)
	ctx.SetFontSize(opts.FontSize)
	ctx.SetClip(dst.Bounds())
	ctx.SetDst(dst)
	ctx.SetSrc(image.NewUniform(c))
	ctx.SetHinting(font.HintingFull)
	_, err = ctx.DrawString(text, freetype.Pt(x, y))
	return errors.Wrap(err, "drawing label")
}

// loadFont parses a TTF file for label rendering.
func loadFont(path string) (*truetype.Font, error) {
	fontBytes, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading font %s", path)
	}
	ttf, err := freetype.ParseFont(fontBytes)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing font %s", path)
	}
	return ttf, nil
}
