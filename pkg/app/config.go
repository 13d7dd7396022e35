// Package app wires the camera, detector, pose estimator, display and
// diagnostics server into a running detection loop.
package app

import (
	"strings"

	"github.com/teslashibe/go-fiducial/internal/config"
	"github.com/teslashibe/go-fiducial/pkg/camera"
	"github.com/teslashibe/go-fiducial/pkg/detection"
	"github.com/teslashibe/go-fiducial/pkg/loop"
	"github.com/teslashibe/go-fiducial/pkg/render"
	"github.com/teslashibe/go-fiducial/pkg/tag"
)

// Config holds everything needed to start the application.
// Flag parsing is done in cmd/fiducial/main.go; this struct is data only.
type Config struct {
	// Debug enables per-detection dumps.
	Debug bool

	// Session identifies this run in logs and diagnostics.
	Session string

	// Sensor: a camera device, or a directory of images when Replay is set.
	Camera     camera.Config
	Replay     string
	ReplayLoop bool

	// Presentation.
	Window   string
	Headless bool

	Detector   detection.Config
	Intrinsics tag.Intrinsics
	Overlay    render.Style
	Loop       loop.Config

	// HTTPAddr enables the diagnostics server when non-empty.
	HTTPAddr string
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() Config {
	return FromFile(config.Default())
}

// FromFile converts a loaded configuration file.
func FromFile(f config.File) Config {
	return Config{
		Camera:     f.Camera,
		Replay:     f.Display.Replay,
		ReplayLoop: f.Display.ReplayLoop,
		Window:     f.Display.Window,
		Headless:   f.Display.Headless,
		Detector:   f.Detector,
		Intrinsics: f.Intrinsics,
		Overlay:    f.Overlay,
		Loop:       f.LoopConfig(),
		HTTPAddr:   f.Web.Addr,
	}
}

// Validate checks every section and reports all problems at once.
func (c *Config) Validate() error {
	var problems []string
	if c.Replay == "" {
		problems = append(problems, c.Camera.Validate()...)
	}
	if err := c.Detector.Validate(); err != nil {
		problems = append(problems, err.Error())
	}
	in := c.Intrinsics
	if in.TagSize <= 0 || in.Fx <= 0 || in.Fy <= 0 {
		problems = append(problems, "intrinsics: tag_size, fx and fy must be positive")
	}
	if _, err := render.NewPainter(c.Overlay); err != nil {
		problems = append(problems, err.Error())
	}
	if len(problems) > 0 {
		return &ConfigError{Problems: problems}
	}
	return nil
}

// ConfigError lists configuration problems.
type ConfigError struct {
	Problems []string
}

func (e *ConfigError) Error() string {
	return "invalid configuration: " + strings.Join(e.Problems, "; ")
}
