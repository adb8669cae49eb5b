// Command chromapath is the front end for the color analysis core:
// palette extraction from single images or folders, presence-agreement
// analysis across an image collection, and an interactive genetic
// color scheme session.
package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	chromapath "github.com/CodeSoul-co/Chromapath"
	"github.com/CodeSoul-co/Chromapath/imageutil"
	"github.com/CodeSoul-co/Chromapath/render"
)

func main() {
	logger, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync()

	app := &cli.App{
		Name:  "chromapath",
		Usage: "extract, correlate, and evolve color palettes from images",
		Commands: []*cli.Command{
			paletteCommand(logger),
			folderCommand(logger),
			cooccurCommand(logger),
			evolveCommand(logger),
		},
	}
	if err := app.Run(os.Args); err != nil {
		logger.Fatal("command failed", zap.Error(err))
	}
}

func loadFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{Name: "colors", Aliases: []string{"k"}, Value: chromapath.DefaultClusterColors, Usage: "number of colors to extract"},
		&cli.IntFlag{Name: "restarts", Value: chromapath.DefaultClusterRestarts, Usage: "independent k-means restarts"},
		&cli.Int64Flag{Name: "seed", Usage: "random seed for reproducible clustering (0 = random)"},
		&cli.IntFlag{Name: "gray-threshold", Value: imageutil.DefaultGrayThreshold, Usage: "channel spread below which pixels count as gray"},
		&cli.BoolFlag{Name: "keep-gray", Usage: "keep near-gray pixels instead of filtering them"},
		&cli.IntFlag{Name: "max-dim", Value: 512, Usage: "downscale images so neither side exceeds this (0 = keep full size)"},
		&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "write a palette card PNG to this path"},
		&cli.StringFlag{Name: "font", Usage: "TTF font for card labels"},
	}
}

func loadOptions(c *cli.Context) imageutil.LoadOptions {
	return imageutil.LoadOptions{
		FilterGray:    !c.Bool("keep-gray"),
		GrayThreshold: uint8(c.Int("gray-threshold")),
		MaxDimension:  c.Int("max-dim"),
	}
}

func paletteCommand(logger *zap.Logger) *cli.Command {
	return &cli.Command{
		Name:      "palette",
		Usage:     "extract the dominant colors of one image",
		ArgsUsage: "<image>",
		Flags:     loadFlags(),
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return errors.New("expected exactly one image path")
			}
			pixels, err := imageutil.LoadPixels(c.Args().First(), loadOptions(c))
			if err != nil {
				return err
			}

			clusterer := chromapath.NewColorClusterer(c.Int("colors"))
			clusterer.Restarts = c.Int("restarts")
			clusterer.Seed = c.Int64("seed")
			palette, err := clusterer.FitSorted(pixels)
			if err != nil {
				return err
			}
			if len(palette) == 0 {
				logger.Warn("no pixels to analyze after filtering")
				return nil
			}
			return emitPalette(palette, c.String("out"), c.String("font"))
		},
	}
}

func folderCommand(logger *zap.Logger) *cli.Command {
	return &cli.Command{
		Name:      "folder",
		Usage:     "extract a shared palette across every image in a folder",
		ArgsUsage: "<dir>",
		Flags:     loadFlags(),
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return errors.New("expected exactly one folder path")
			}
			corpus, err := imageutil.LoadCorpus(
				c.Args().First(), loadOptions(c), logger, terminalProgress)
			if err != nil {
				return err
			}
			fmt.Println()

			palette, err := chromapath.ClusterCombined(corpus.NonEmpty(), c.Int("colors"))
			if err != nil {
				return err
			}
			if len(palette) == 0 {
				logger.Warn("no analyzable images in folder")
				return nil
			}
			return emitPalette(palette, c.String("out"), c.String("font"))
		},
	}
}

func cooccurCommand(logger *zap.Logger) *cli.Command {
	return &cli.Command{
		Name:      "cooccur",
		Usage:     "compute the presence-agreement matrix of a color list over a folder",
		ArgsUsage: "<dir>",
		Flags: append(loadFlags(),
			&cli.StringFlag{Name: "palette", Required: true, Usage: "semicolon-separated color list, e.g. '255,0,0;0,0,255'"},
			&cli.Float64Flag{Name: "threshold", Value: chromapath.DefaultPresenceThreshold, Usage: "presence distance threshold"},
			&cli.IntFlag{Name: "precision", Value: 2, Usage: "decimal places in the printed matrix"},
		),
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return errors.New("expected exactly one folder path")
			}
			colors, err := parseColorList(c.String("palette"))
			if err != nil {
				return err
			}

			opts := loadOptions(c)
			opts.FilterGray = false // presence checks see every pixel
			corpus, err := imageutil.LoadCorpus(c.Args().First(), opts, logger, terminalProgress)
			if err != nil {
				return err
			}
			fmt.Println()

			engine := chromapath.NewCooccurrenceEngine()
			engine.Threshold = c.Float64("threshold")
			matrix := engine.Analyze(corpus.Pixels, colors, nil)
			fmt.Println(chromapath.FormatMatrix(matrix, c.Int("precision")))
			return nil
		},
	}
}

func evolveCommand(logger *zap.Logger) *cli.Command {
	return &cli.Command{
		Name:      "evolve",
		Usage:     "interactively evolve color schemes for one image",
		ArgsUsage: "<image>",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "colors", Aliases: []string{"k"}, Value: 5, Usage: "scheme size (clusters in the segmentation)"},
			&cli.IntFlag{Name: "population", Value: chromapath.DefaultPopulationSize, Usage: "schemes per generation"},
			&cli.Float64Flag{Name: "mutation-rate", Value: chromapath.DefaultMutationRate, Usage: "fraction of offspring mutated"},
			&cli.Float64Flag{Name: "max-change", Value: chromapath.DefaultMaxMutationChange, Usage: "per-channel mutation bound"},
			&cli.Float64Flag{Name: "elite", Value: chromapath.DefaultEliteThreshold, Usage: "score at which a scheme survives unchanged"},
			&cli.Int64Flag{Name: "seed", Usage: "random seed for a reproducible session (0 = random)"},
			&cli.IntFlag{Name: "max-dim", Value: 256, Usage: "downscale the target so neither side exceeds this"},
			&cli.StringFlag{Name: "outdir", Value: "schemes", Usage: "directory for rendered scheme previews"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return errors.New("expected exactly one image path")
			}
			return runEvolveSession(c, logger)
		},
	}
}

// runEvolveSession drives the score-then-evolve loop: render every
// scheme of the generation, collect scores from stdin, evolve, repeat
// until the user quits.
func runEvolveSession(c *cli.Context, logger *zap.Logger) error {
	img, err := imageutil.LoadImage(c.Args().First())
	if err != nil {
		return err
	}
	// The segmentation must map one label per pixel, so the gray
	// filter stays off here.
	img = imageutil.Downscale(img, c.Int("max-dim"))
	width, height := img.Bounds().Dx(), img.Bounds().Dy()
	pixels := imageutil.ExtractPixels(img, false, 0)

	logger.Info("clustering target image",
		zap.Int("pixels", len(pixels)), zap.Int("colors", c.Int("colors")))
	optimizer, err := chromapath.NewGeneticColorOptimizer(pixels, c.Int("colors"), chromapath.GeneticConfig{
		PopulationSize:    c.Int("population"),
		MutationRate:      c.Float64("mutation-rate"),
		MaxMutationChange: c.Float64("max-change"),
		EliteThreshold:    c.Float64("elite"),
		Seed:              c.Int64("seed"),
	})
	if err != nil {
		return err
	}

	outdir := c.String("outdir")
	if err := os.MkdirAll(outdir, 0o755); err != nil {
		return errors.Wrap(err, "creating output directory")
	}

	scanner := bufio.NewScanner(os.Stdin)
	for {
		population := optimizer.Population()
		for i, ind := range population {
			recolored, err := optimizer.ApplyScheme(ind.Scheme)
			if err != nil {
				return err
			}
			preview, err := render.SchemeImage(recolored, width, height)
			if err != nil {
				return err
			}
			name := fmt.Sprintf("gen%03d_scheme%02d.png", optimizer.Generation(), i)
			if err := imageutil.SavePNG(preview, filepath.Join(outdir, name)); err != nil {
				return err
			}
		}
		fmt.Printf("generation %d rendered to %s\n", optimizer.Generation(), outdir)
		fmt.Printf("enter %d scores in [0,10] separated by spaces, or q to quit: ",
			len(population))

		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "q" || line == "quit" {
			break
		}
		scores, err := parseScores(line)
		if err != nil {
			fmt.Println(err)
			continue
		}
		if err := optimizer.SetScores(scores); err != nil {
			fmt.Println(err)
			continue
		}

		best, score := optimizer.BestScheme()
		printScheme("best this generation", best, score)

		if err := optimizer.Evolve(); err != nil {
			return err
		}
		stats := optimizer.History()
		last := stats[len(stats)-1]
		fmt.Printf("generation %d: average %.2f, best %.2f\n",
			len(stats), last.Average, last.Best)
	}
	return scanner.Err()
}

// emitPalette prints a palette to the terminal and optionally writes a
// card PNG.
func emitPalette(palette chromapath.Palette, outPath, fontPath string) error {
	for _, cluster := range palette.Sorted() {
		rgb := cluster.Color.RGB()
		color.BgRGB(int(rgb.R), int(rgb.G), int(rgb.B)).Print("      ")
		fmt.Printf("  %s  %5.2f%%\n", rgb.Hex(), cluster.Weight*100)
	}
	fmt.Println(palette.Format(4))

	if outPath == "" {
		return nil
	}
	card, err := render.Card(palette, render.CardOptions{FontPath: fontPath})
	if err != nil {
		return err
	}
	return imageutil.SavePNG(card, outPath)
}

func printScheme(label string, scheme chromapath.Scheme, score float64) {
	fmt.Printf("%s (%.1f): ", label, score)
	for _, rgb := range scheme {
		color.BgRGB(int(rgb.R), int(rgb.G), int(rgb.B)).Print("  ")
		fmt.Print(" ")
	}
	fmt.Println()
}

// terminalProgress writes a carriage-return progress line.
func terminalProgress(current, total int) {
	fmt.Printf("\rprocessing %d/%d", current+1, total)
}

// parseColorList parses "r,g,b;r,g,b;..." into colors.
func parseColorList(s string) ([]chromapath.RGB, error) {
	var colors []chromapath.RGB
	for _, part := range strings.Split(s, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		channels := strings.Split(part, ",")
		if len(channels) != 3 {
			return nil, errors.Errorf("invalid color %q: want r,g,b", part)
		}
		var rgb [3]uint8
		for i, ch := range channels {
			v, err := strconv.Atoi(strings.TrimSpace(ch))
			if err != nil || v < 0 || v > 255 {
				return nil, errors.Errorf("invalid channel %q in color %q", ch, part)
			}
			rgb[i] = uint8(v)
		}
		colors = append(colors, chromapath.RGB{R: rgb[0], G: rgb[1], B: rgb[2]})
	}
	if len(colors) < 2 {
		return nil, errors.New("need at least two colors for co-occurrence analysis")
	}
	return colors, nil
}

// parseScores parses a whitespace- or comma-separated score line.
func parseScores(line string) ([]float64, error) {
	fields := strings.FieldsFunc(line, func(r rune) bool {
		return r == ' ' || r == '\t' || r == ','
	})
	scores := make([]float64, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, errors.Errorf("invalid score %q", f)
		}
		scores = append(scores, v)
	}
	return scores, nil
}
