package gallery

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/teslashibe/go-follow/internal/log"
)

// Encoder turns a reference image into face descriptors, one per detected
// face, in detector order.
type Encoder interface {
	EncodeFile(path string) ([]Descriptor, error)
}

// EncoderFunc adapts a function to the Encoder interface.
type EncoderFunc func(path string) ([]Descriptor, error)

// EncodeFile calls f(path).
func (f EncoderFunc) EncodeFile(path string) ([]Descriptor, error) {
	return f(path)
}

// imageExts are the reference image suffixes picked up from a gallery
// directory. Matching is case-sensitive.
var imageExts = []string{".jpg", ".png"}

// LoadOptions configures LoadDir.
type LoadOptions struct {
	// Progress is called after each candidate file with the number of
	// files processed so far and the total.
	Progress func(done, total int)

	// Cache, when set, short-circuits encoding for unchanged files and is
	// saved after the load.
	Cache *Cache
}

// Option configures LoadDir.
type Option func(*LoadOptions)

// WithProgress reports per-file progress.
func WithProgress(fn func(done, total int)) Option {
	return func(o *LoadOptions) { o.Progress = fn }
}

// WithCache reuses descriptors from a descriptor cache.
func WithCache(c *Cache) Option {
	return func(o *LoadOptions) { o.Cache = c }
}

// LoadStats summarizes a directory load.
type LoadStats struct {
	Files    int // candidate image files
	Loaded   int // files that produced a descriptor
	Skipped  int // unreadable or faceless files
	Replaced int // files whose name collided with an earlier file
	Cached   int // descriptors served from the cache
}

// IsImageFile reports whether name carries a reference image suffix.
func IsImageFile(name string) bool {
	for _, ext := range imageExts {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}

// IdentityName derives the identity name from a reference image path:
// the file name with its extension removed.
func IdentityName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// LoadDir builds a gallery from the reference images in dir.
//
// Failures on individual files never fail the load: an unreadable or
// undecodable image, or one without a face, is logged and skipped. An image
// with several faces contributes its first descriptor. Files sharing a base
// name collapse into one identity holding the last file's descriptor.
// An empty directory yields an empty gallery.
func LoadDir(ctx context.Context, dir string, enc Encoder, opts ...Option) (*Gallery, LoadStats, error) {
	var o LoadOptions
	for _, opt := range opts {
		opt(&o)
	}

	logger := log.Component("gallery").With("dir", dir)

	files, err := listImages(dir)
	if err != nil {
		return nil, LoadStats{}, err
	}

	stats := LoadStats{Files: len(files)}
	g := New()

	for i, name := range files {
		if err := ctx.Err(); err != nil {
			return nil, stats, err
		}

		path := filepath.Join(dir, name)
		desc, fromCache, err := encodeOne(path, enc, o.Cache, logger)
		if o.Progress != nil {
			o.Progress(i+1, len(files))
		}
		if err != nil {
			stats.Skipped++
			logger.Warn("skipping reference image", "file", name, "error", err)
			continue
		}
		if fromCache {
			stats.Cached++
		}

		identity := IdentityName(name)
		if g.put(Entry{Name: identity, Descriptor: desc}) {
			stats.Replaced++
			logger.Debug("identity replaced by later file", "name", identity, "file", name)
		}
		stats.Loaded++
	}

	if o.Cache != nil {
		if n := o.Cache.retain(files); n > 0 {
			logger.Debug("pruned descriptor cache", "removed", n)
		}
		if err := o.Cache.Save(); err != nil {
			logger.Warn("failed to save descriptor cache", "error", err)
		}
	}

	logger.Info("gallery loaded",
		"identities", g.Len(),
		"files", stats.Files,
		"skipped", stats.Skipped,
		"cached", stats.Cached)

	return g, stats, nil
}

// listImages returns the reference image file names in dir, sorted.
func listImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if info, statErr := os.Stat(dir); statErr == nil && !info.IsDir() {
			return nil, fmt.Errorf("%w: %s", ErrNotDirectory, dir)
		}
		return nil, fmt.Errorf("read gallery dir: %w", err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !IsImageFile(e.Name()) {
			continue
		}
		files = append(files, e.Name())
	}
	sort.Strings(files)
	return files, nil
}

// encodeOne returns the first descriptor of path, consulting the cache.
func encodeOne(path string, enc Encoder, cache *Cache, logger *slog.Logger) (Descriptor, bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, false, err
	}

	if cache != nil {
		if desc, ok := cache.lookup(filepath.Base(path), info); ok {
			if len(desc) == 0 {
				return nil, true, ErrNoFace
			}
			return desc, true, nil
		}
	}

	descs, err := enc.EncodeFile(path)
	if err != nil {
		return nil, false, err
	}

	var first Descriptor
	switch {
	case len(descs) == 0:
	case len(descs[0]) == 0:
		return nil, false, ErrEmptyDescriptor
	default:
		first = descs[0]
		if len(descs) > 1 {
			logger.Debug("multiple faces in reference image, using the first",
				"file", filepath.Base(path), "faces", len(descs))
		}
	}

	if cache != nil {
		cache.store(filepath.Base(path), info, first)
	}
	if first == nil {
		return nil, false, ErrNoFace
	}
	return first, false, nil
}
