// Package app wires the follow controller together: gallery, recognizer,
// pursuit pipeline, drone, camera, frame loop and control surface.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/teslashibe/go-follow/internal/config"
	"github.com/teslashibe/go-follow/internal/log"
	"github.com/teslashibe/go-follow/pkg/drone"
	"github.com/teslashibe/go-follow/pkg/gallery"
	"github.com/teslashibe/go-follow/pkg/pilot"
	"github.com/teslashibe/go-follow/pkg/tracking"
	"github.com/teslashibe/go-follow/pkg/tracking/recognition"
	"github.com/teslashibe/go-follow/pkg/video"
	"github.com/teslashibe/go-follow/pkg/web"
)

// landTimeout bounds the landing performed during shutdown.
const landTimeout = 30 * time.Second

// App is the follow controller.
// Call New, then Init, then Run; Shutdown releases everything Init opened.
type App struct {
	cfg    config.Config
	logger *slog.Logger

	gallery    *gallery.Gallery
	recognizer *recognition.Recognizer
	lock       *tracking.LockManager
	pipeline   *tracking.Pipeline

	sink       drone.Sink
	platform   drone.Platform
	dispatcher *drone.Dispatcher
	flight     *drone.Flight
	manual     *drone.Manual

	capture *video.Capture
	pilot   *pilot.Pilot
	web     *web.Server

	// LoadProgress, when set, receives gallery load progress.
	LoadProgress func(done, total int)

	shutdownOnce sync.Once
}

// New validates cfg and configures logging.
func New(cfg config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log.Init(cfg.Log.Level)

	return &App{
		cfg:    cfg,
		logger: log.Component("app"),
	}, nil
}

// Init opens every component. On error, components opened so far are
// released by Shutdown.
func (a *App) Init(ctx context.Context) error {
	a.logger.Info("starting go-follow",
		"variant", a.cfg.Variant,
		"drone", a.cfg.Drone.Kind,
		"source", a.cfg.Camera.Source)

	rec, err := recognition.New(a.cfg.Recognizer)
	if err != nil {
		return fmt.Errorf("recognizer: %w", err)
	}
	a.recognizer = rec

	g, err := LoadGallery(ctx, a.cfg.Gallery, rec, a.LoadProgress)
	if err != nil {
		return fmt.Errorf("gallery: %w", err)
	}
	a.gallery = g
	rec.SetGallery(g)

	a.lock = tracking.NewLockManager(g)
	a.pipeline = tracking.NewPipeline(a.cfg.Tracking, a.lock)

	if err := a.initDrone(ctx); err != nil {
		return fmt.Errorf("drone: %w", err)
	}

	capture, err := video.Open(a.cfg.Camera)
	if err != nil {
		return fmt.Errorf("camera: %w", err)
	}
	a.capture = capture

	a.initSurface()
	return nil
}

func (a *App) initDrone(ctx context.Context) error {
	sink, platform, err := drone.Open(ctx, a.cfg.Drone)
	if err != nil {
		return err
	}
	a.sink = sink
	a.platform = platform
	a.dispatcher = drone.NewDispatcher(sink, a.cfg.Drone.HoldAfter)

	if platform != nil {
		a.flight = drone.NewFlight(platform, a.cfg.Drone.Tello.FlightTimeout)
		a.manual = drone.NewManual(platform, a.cfg.Drone.Tello.Speed)
	}
	return nil
}

// initSurface builds the frame loop and control surface, which publish to
// each other.
func (a *App) initSurface() {
	a.web = web.NewServer(a.cfg.Web, web.Controls{
		Gallery:    a.gallery,
		Lock:       a.lock,
		Pipeline:   a.pipeline,
		Flight:     a.flight,
		Manual:     a.manual,
		Dispatcher: a.dispatcher,
	})
	a.pilot = pilot.New(pilot.Deps{
		Source:     a.capture,
		Recognizer: a.recognizer,
		Pipeline:   a.pipeline,
		Dispatcher: a.dispatcher,
		Renderer:   video.NewRenderer(a.cfg.Camera),
		Publisher:  a.web,
	})
	a.web.SetFrameSource(a.pilot)
}

// Run serves the control surface and runs the frame loop until ctx is
// cancelled or either fails.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	errc := make(chan error, 2)

	wg.Add(1)
	go func() {
		defer wg.Done()
		a.dispatcher.Run()
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := a.web.Run(ctx); err != nil {
			errc <- fmt.Errorf("web: %w", err)
			cancel()
		}
	}()

	a.logger.Info("ready",
		"identities", a.gallery.Len(),
		"dashboard", "http://localhost:"+a.cfg.Web.Port)

	err := a.pilot.Run(ctx)
	cancel()
	a.dispatcher.Stop()
	wg.Wait()
	close(errc)

	if err != nil {
		return err
	}
	return <-errc
}

// Shutdown lands the drone when configured to and releases every
// component. Safe to call more than once and after a failed Init.
func (a *App) Shutdown() error {
	var errs []error
	a.shutdownOnce.Do(func() {
		a.logger.Info("shutting down")

		if a.flight != nil && a.cfg.Drone.LandOnExit {
			ctx, cancel := context.WithTimeout(context.Background(), landTimeout)
			if err := a.flight.LandNow(ctx); err != nil {
				errs = append(errs, fmt.Errorf("land: %w", err))
			}
			cancel()
		}
		if a.dispatcher != nil {
			a.dispatcher.Stop()
		}
		if a.capture != nil {
			if err := a.capture.Close(); err != nil {
				errs = append(errs, fmt.Errorf("camera: %w", err))
			}
		}
		if a.recognizer != nil {
			if err := a.recognizer.Close(); err != nil {
				errs = append(errs, fmt.Errorf("recognizer: %w", err))
			}
		}
		if a.platform != nil {
			if err := a.platform.Close(); err != nil {
				errs = append(errs, fmt.Errorf("drone: %w", err))
			}
		}
	})
	return errors.Join(errs...)
}

// Gallery returns the loaded gallery.
func (a *App) Gallery() *gallery.Gallery {
	return a.gallery
}
