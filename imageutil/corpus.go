package imageutil

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	chromapath "github.com/CodeSoul-co/Chromapath"
)

// supportedExtensions are the file extensions the corpus loader treats
// as images.
var supportedExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".bmp":  true,
	".tiff": true,
	".webp": true,
	".avif": true,
}

// ImageFiles returns the sorted paths of all image files directly
// inside dir.
func ImageFiles(dir string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, errors.Wrap(err, "failed to stat folder")
	}
	if !info.IsDir() {
		return nil, errors.Errorf("not a directory: %s", dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read folder")
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if supportedExtensions[strings.ToLower(filepath.Ext(entry.Name()))] {
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

// Corpus is a collection of per-image pixel populations. Entries of
// Pixels may be empty where the source file could not be decoded or
// its extraction produced no pixels; the core's consumers skip such
// entries and exclude them from denominators.
type Corpus struct {
	Files  []string
	Pixels [][]chromapath.RGB
}

// LoadCorpus loads every image in dir into a pixel population. An
// unreadable or undecodable file is logged, left as an empty entry,
// and never aborts the traversal. The progress callback, when non-nil,
// is invoked before each file with (index, total).
func LoadCorpus(dir string, opts LoadOptions, logger *zap.Logger, progress chromapath.ProgressFunc) (*Corpus, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	files, err := ImageFiles(dir)
	if err != nil {
		return nil, err
	}

	corpus := &Corpus{
		Files:  files,
		Pixels: make([][]chromapath.RGB, len(files)),
	}
	for i, path := range files {
		if progress != nil {
			progress(i, len(files))
		}
		pixels, err := LoadPixels(path, opts)
		if err != nil {
			logger.Warn("skipping unreadable image",
				zap.String("path", path), zap.Error(err))
			continue
		}
		corpus.Pixels[i] = pixels
	}
	return corpus, nil
}

// NonEmpty returns the pixel populations that actually produced
// pixels, for consumers that want only the usable corpus items (e.g.
// combined clustering pools).
func (c *Corpus) NonEmpty() [][]chromapath.RGB {
	out := make([][]chromapath.RGB, 0, len(c.Pixels))
	for _, p := range c.Pixels {
		if len(p) > 0 {
			out = append(out, p)
		}
	}
	return out
}
