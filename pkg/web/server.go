// Package web serves live detection diagnostics over HTTP and websockets.
package web

import (
	"context"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-fiducial/pkg/hub"
	"github.com/teslashibe/go-fiducial/pkg/loop"
)

// Status is the snapshot served by GET /api/status
type Status struct {
	Session    string           `json:"session"`
	StartedAt  time.Time        `json:"started_at"`
	Iterations int              `json:"iterations"`
	Processed  int              `json:"processed"`
	FPS        float64          `json:"fps"`
	Window     int              `json:"window"`
	Size       [2]int           `json:"size"`
	LastFrame  time.Time        `json:"last_frame"`
	Detections []loop.Detection `json:"detections"`
	Clients    int              `json:"clients"`
}

// Event is one processed frame pushed on /ws/detections
type Event struct {
	Session    string           `json:"session"`
	Iteration  int              `json:"iteration"`
	Timestamp  time.Time        `json:"timestamp"`
	FPS        float64          `json:"fps"`
	Detections []loop.Detection `json:"detections"`
}

// Server is the diagnostics server
type Server struct {
	app     *fiber.App
	addr    string
	session string
	logger  *slog.Logger

	status   Status
	statusMu sync.RWMutex

	detectionHub *hub.Hub
	hubCtx       context.Context
	cancel       context.CancelFunc
}

// NewServer creates a server for one session
func NewServer(addr, session string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	hubCtx, cancel := context.WithCancel(context.Background())
	s := &Server{
		hubCtx:       hubCtx,
		cancel:       cancel,
		addr:         addr,
		session:      session,
		logger:       logger.With("component", "web"),
		status:       Status{Session: session, StartedAt: time.Now(), Detections: []loop.Detection{}},
		detectionHub: hub.New("detections", logger),
	}

	app := fiber.New(fiber.Config{
		AppName:               "go-fiducial",
		DisableStartupMessage: true,
	})
	app.Use(cors.New())

	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Get("/detections", s.handleDetections)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/detections", websocket.New(s.handleDetectionsWS))

	s.app = app
	return s
}

// App exposes the fiber app, mainly for tests
func (s *Server) App() *fiber.App {
	return s.app
}

// Session returns the session id
func (s *Server) Session() string {
	return s.session
}

// startHub runs the hub until Shutdown. After Shutdown the hub returns at once.
func (s *Server) startHub() {
	go s.detectionHub.Run(s.hubCtx)
}

// Start listens on the configured address and blocks
func (s *Server) Start() error {
	s.logger.Info("diagnostics listening", "addr", s.addr)
	s.startHub()
	return s.app.Listen(s.addr)
}

// Serve serves on an existing listener and blocks
func (s *Server) Serve(ln net.Listener) error {
	s.logger.Info("diagnostics listening", "addr", ln.Addr().String())
	s.startHub()
	return s.app.Listener(ln)
}

// StartAsync starts the server in a goroutine
func (s *Server) StartAsync() {
	go func() {
		if err := s.Start(); err != nil {
			s.logger.Warn("diagnostics server stopped", "error", err)
		}
	}()
}

// Observe records a processed frame and pushes it to subscribers. It is
// meant to be registered with loop.WithObserver.
func (s *Server) Observe(res loop.Result) {
	dets := res.Detections
	if dets == nil {
		dets = []loop.Detection{}
	}

	s.statusMu.Lock()
	s.status.Iterations = res.Iteration + 1
	s.status.Processed++
	s.status.FPS = res.FPS
	s.status.Window = res.Window
	s.status.Size = [2]int{res.Size.X, res.Size.Y}
	s.status.LastFrame = res.Timestamp
	s.status.Detections = dets
	s.statusMu.Unlock()

	if s.detectionHub.ClientCount() == 0 {
		return
	}
	err := s.detectionHub.BroadcastJSON(Event{
		Session:    s.session,
		Iteration:  res.Iteration,
		Timestamp:  res.Timestamp,
		FPS:        res.FPS,
		Detections: dets,
	})
	if err != nil {
		s.logger.Warn("encode detection event", "error", err)
	}
}

// Shutdown stops the server and its hub
func (s *Server) Shutdown() error {
	s.cancel()
	return s.app.Shutdown()
}
