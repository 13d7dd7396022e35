package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/teslashibe/go-fiducial/pkg/camera"
	"github.com/teslashibe/go-fiducial/pkg/debug"
	"github.com/teslashibe/go-fiducial/pkg/detection"
	"github.com/teslashibe/go-fiducial/pkg/display"
	"github.com/teslashibe/go-fiducial/pkg/frame"
	"github.com/teslashibe/go-fiducial/pkg/loop"
	"github.com/teslashibe/go-fiducial/pkg/pose"
	"github.com/teslashibe/go-fiducial/pkg/render"
	"github.com/teslashibe/go-fiducial/pkg/web"
)

// surface is what the loop presents to, plus lifecycle.
type surface interface {
	loop.Surface
	Close() error
}

// App owns every component for one run.
type App struct {
	config Config
	logger *slog.Logger

	sensor    frame.Source
	detector  detection.Detector
	estimator *pose.Estimator
	painter   *render.Painter
	surface   surface
	webServer *web.Server

	loop *loop.Loop
}

// New validates cfg and returns an uninitialised App.
func New(cfg Config, logger *slog.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	debug.Enabled = cfg.Debug
	debug.Detections = cfg.Debug

	return &App{
		config: cfg,
		logger: logger.With("session", cfg.Session),
	}, nil
}

// Init opens the sensor and surface and builds the detection stack.
// Call Shutdown even when Init fails.
func (a *App) Init() error {
	debug.Logln("🐛 Debug mode enabled")

	var err error

	if a.sensor, err = a.openSensor(); err != nil {
		return fmt.Errorf("sensor: %w", err)
	}

	det, err := detection.NewAruco(a.config.Detector)
	if err != nil {
		return fmt.Errorf("detector: %w", err)
	}
	a.detector = det
	a.logger.Info("detector ready",
		"family", a.config.Detector.Family,
		"margin_bits", a.config.Detector.MarginBits)

	if a.estimator, err = pose.NewEstimator(a.config.Intrinsics); err != nil {
		return fmt.Errorf("pose: %w", err)
	}
	if a.painter, err = render.NewPainter(a.config.Overlay); err != nil {
		return fmt.Errorf("overlay: %w", err)
	}

	if a.config.Headless {
		a.surface = display.NewHeadless(a.logger)
	} else {
		a.surface = display.NewWindow(a.config.Window)
	}

	opts := []loop.Option{
		loop.WithLogger(a.logger),
		loop.WithPainter(a.painter),
	}
	if a.config.HTTPAddr != "" {
		a.webServer = web.NewServer(a.config.HTTPAddr, a.config.Session, a.logger)
		opts = append(opts, loop.WithObserver(a.webServer.Observe))
	}

	a.loop = loop.New(a.config.Loop, a.sensor, a.detector, a.estimator, a.surface, opts...)
	return nil
}

func (a *App) openSensor() (frame.Source, error) {
	if a.config.Replay != "" {
		r, err := frame.NewReplay(a.config.Replay, a.config.ReplayLoop)
		if err != nil {
			return nil, err
		}
		a.logger.Info("replaying images", "dir", a.config.Replay, "images", r.Len())
		return r, nil
	}

	c, err := camera.Open(a.config.Camera)
	if err != nil {
		return nil, err
	}
	a.logger.Info("camera opened",
		"device", a.config.Camera.Device,
		"width", a.config.Camera.Width,
		"height", a.config.Camera.Height)
	return c, nil
}

// Run drives the loop until ctx is cancelled or a fatal error occurs.
func (a *App) Run(ctx context.Context) error {
	if a.loop == nil {
		return errors.New("app: Run called before Init")
	}
	if a.webServer != nil {
		a.webServer.StartAsync()
	}
	return a.loop.Run(ctx)
}

// Surface returns the presentation surface, nil before Init.
func (a *App) Surface() loop.Surface {
	if a.surface == nil {
		return nil
	}
	return a.surface
}

// Shutdown releases every component that was opened.
func (a *App) Shutdown() {
	if a.webServer != nil {
		if err := a.webServer.Shutdown(); err != nil {
			a.logger.Warn("web shutdown", "error", err)
		}
	}
	if a.surface != nil {
		if err := a.surface.Close(); err != nil {
			a.logger.Warn("surface close", "error", err)
		}
	}
	if a.detector != nil {
		if err := a.detector.Close(); err != nil {
			a.logger.Warn("detector close", "error", err)
		}
	}
	if a.sensor != nil {
		if err := a.sensor.Close(); err != nil {
			a.logger.Warn("sensor close", "error", err)
		}
	}
}
