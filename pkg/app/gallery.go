package app

import (
	"context"
	"fmt"

	"github.com/teslashibe/go-follow/internal/config"
	"github.com/teslashibe/go-follow/internal/log"
	"github.com/teslashibe/go-follow/pkg/gallery"
)

// Encoder computes descriptors for enrolment images and names its backend
// so cached descriptors from another backend are never reused.
type Encoder interface {
	gallery.Encoder
	Name() string
}

// LoadGallery loads enrolled identities from postgres when a database URL
// is configured, otherwise from the faces directory through the
// descriptor cache.
func LoadGallery(ctx context.Context, cfg config.GalleryConfig, enc Encoder, progress func(done, total int)) (*gallery.Gallery, error) {
	logger := log.Component("gallery")

	if cfg.DatabaseURL != "" {
		store, err := gallery.NewPostgresStore(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		defer store.Close(ctx)

		g, err := store.Load(ctx)
		if err != nil {
			return nil, err
		}
		logger.Info("gallery loaded from database", "identities", g.Len())
		return g, nil
	}

	g, _, err := LoadGalleryDir(ctx, cfg, enc, progress)
	return g, err
}

// LoadGalleryDir loads the faces directory, using and refreshing the
// descriptor cache when one is configured.
func LoadGalleryDir(ctx context.Context, cfg config.GalleryConfig, enc Encoder, progress func(done, total int)) (*gallery.Gallery, gallery.LoadStats, error) {
	var opts []gallery.Option
	if progress != nil {
		opts = append(opts, gallery.WithProgress(progress))
	}
	if cfg.Cache != "" {
		opts = append(opts, gallery.WithCache(gallery.OpenCache(cfg.Cache, enc.Name())))
	}

	g, stats, err := gallery.LoadDir(ctx, cfg.Dir, enc, opts...)
	if err != nil {
		return nil, stats, fmt.Errorf("load %s: %w", cfg.Dir, err)
	}
	return g, stats, nil
}
