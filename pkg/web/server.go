// Package web serves the control surface: a REST API for locking onto a
// target, flying and tuning, plus websocket feeds of annotated frames and
// frame events.
package web

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-follow/internal/log"
	"github.com/teslashibe/go-follow/pkg/drone"
	"github.com/teslashibe/go-follow/pkg/gallery"
	"github.com/teslashibe/go-follow/pkg/hub"
	"github.com/teslashibe/go-follow/pkg/pilot"
	"github.com/teslashibe/go-follow/pkg/tracking"
)

const maxLogs = 200

// Config holds web server configuration.
type Config struct {
	Port      string `yaml:"port" json:"port"`
	StaticDir string `yaml:"static_dir" json:"static_dir"`
	AccessLog bool   `yaml:"access_log" json:"access_log"` // log every request
}

// DefaultConfig returns the default listen port and dashboard directory.
func DefaultConfig() Config {
	return Config{Port: "8080", StaticDir: "./web"}
}

// FrameSource exposes frame loop state.
type FrameSource interface {
	Stats() pilot.Stats
	Snapshot() []byte
}

// DispatchSource exposes dispatcher counters.
type DispatchSource interface {
	Stats() drone.DispatchStats
}

// Controls are the collaborators the API drives. Pilot, Dispatcher,
// Flight and Manual may be nil; their endpoints then answer 503.
type Controls struct {
	Gallery    *gallery.Gallery
	Lock       *tracking.LockManager
	Pipeline   *tracking.Pipeline
	Flight     *drone.Flight
	Manual     *drone.Manual
	Pilot      FrameSource
	Dispatcher DispatchSource
}

// LogEntry is one control action shown on the dashboard.
type LogEntry struct {
	Time    string `json:"time"`
	Type    string `json:"type"` // lock, flight, manual, tuning
	Message string `json:"message"`
}

// Event is the envelope sent on /ws/events.
type Event struct {
	Type string `json:"type"` // frame or log
	Data any    `json:"data"`
}

// Server is the control surface.
type Server struct {
	app    *fiber.App
	cfg    Config
	ctl    Controls
	logger *slog.Logger

	logs   []LogEntry
	logsMu sync.RWMutex

	cameraHub *hub.Hub
	eventHub  *hub.Hub
}

// Verify Server implements pilot.Publisher
var _ pilot.Publisher = (*Server)(nil)

// NewServer creates the server and its routes.
func NewServer(cfg Config, ctl Controls) *Server {
	s := &Server{
		cfg:       cfg,
		ctl:       ctl,
		logger:    log.Component("web"),
		logs:      make([]LogEntry, 0, maxLogs),
		cameraHub: hub.New("camera"),
		eventHub:  hub.New("events"),
	}

	app := fiber.New(fiber.Config{
		AppName:               "go-follow",
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,OPTIONS",
		AllowHeaders: "Content-Type",
	}))
	if cfg.AccessLog {
		app.Use(logger.New())
	}

	if cfg.StaticDir != "" {
		app.Static("/", cfg.StaticDir)
	}

	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Get("/gallery", s.handleGallery)
	api.Post("/lock", s.handleLock)
	api.Post("/unlock", s.handleUnlock)
	api.Post("/selection", s.handleSelection)
	api.Post("/stop-following", s.handleUnlock)
	api.Post("/flight/toggle", s.handleFlightToggle)
	api.Get("/flight/tasks/:id", s.handleFlightTask)
	api.Post("/manual/:direction", s.handleManual)
	api.Get("/tuning", s.handleGetTuning)
	api.Put("/tuning", s.handleSetTuning)
	api.Get("/frame.jpg", s.handleFrame)
	api.Get("/logs", s.handleLogs)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/camera", websocket.New(func(c *websocket.Conn) { s.cameraHub.Serve(c) }))
	app.Get("/ws/events", websocket.New(func(c *websocket.Conn) { s.eventHub.Serve(c) }))

	s.app = app
	return s
}

// SetFrameSource attaches the frame loop once it exists; the loop itself
// publishes to the server, so it is built second.
func (s *Server) SetFrameSource(src FrameSource) {
	s.ctl.Pilot = src
}

// App returns the underlying fiber app.
func (s *Server) App() *fiber.App {
	return s.app
}

// Run starts the hubs and serves on the configured port until ctx is
// cancelled.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", ":"+s.cfg.Port)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	go s.cameraHub.Run(ctx)
	go s.eventHub.Run(ctx)

	errc := make(chan error, 1)
	go func() { errc <- s.app.Listener(ln) }()
	s.logger.Info("control surface listening", "addr", ln.Addr().String())

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	if err := s.app.ShutdownWithTimeout(5 * time.Second); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return <-errc
}

// PublishFrame sends an annotated JPEG to camera viewers.
func (s *Server) PublishFrame(jpeg []byte) {
	s.cameraHub.BroadcastBinary(jpeg)
}

// PublishEvent sends a frame summary to event viewers.
func (s *Server) PublishEvent(ev pilot.FrameEvent) {
	if err := s.eventHub.BroadcastJSON(Event{Type: "frame", Data: ev}); err != nil {
		s.logger.Warn("encode frame event", "error", err)
	}
}

// AddLog records a control action and broadcasts it to event viewers.
func (s *Server) AddLog(logType, message string) {
	entry := LogEntry{
		Time:    time.Now().Format("15:04:05"),
		Type:    logType,
		Message: message,
	}

	s.logsMu.Lock()
	s.logs = append(s.logs, entry)
	if len(s.logs) > maxLogs {
		s.logs = s.logs[1:]
	}
	s.logsMu.Unlock()

	s.eventHub.BroadcastJSON(Event{Type: "log", Data: entry})
}

// Logs returns a copy of the recent control actions.
func (s *Server) Logs() []LogEntry {
	s.logsMu.RLock()
	defer s.logsMu.RUnlock()
	return append([]LogEntry(nil), s.logs...)
}

// Viewers returns connected camera and event viewers.
func (s *Server) Viewers() (camera, events int) {
	return s.cameraHub.ClientCount(), s.eventHub.ClientCount()
}
