package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/teslashibe/go-fiducial/pkg/camera"
	"github.com/teslashibe/go-fiducial/pkg/detection"
	"github.com/teslashibe/go-fiducial/pkg/loop"
	"github.com/teslashibe/go-fiducial/pkg/render"
	"github.com/teslashibe/go-fiducial/pkg/tag"
)

// File is the optional YAML configuration. Zero sections keep defaults.
type File struct {
	Camera     camera.Config    `yaml:"camera"`
	Detector   detection.Config `yaml:"detector"`
	Intrinsics tag.Intrinsics   `yaml:"intrinsics"`
	Overlay    render.Style     `yaml:"overlay"`
	Loop       LoopSection      `yaml:"loop"`
	Web        WebSection       `yaml:"web"`
	Display    DisplaySection   `yaml:"display"`
}

// LoopSection configures loop timing.
type LoopSection struct {
	WarmupPause time.Duration `yaml:"warmup_pause"`
	KeyWait     time.Duration `yaml:"key_wait"`
}

// WebSection configures the diagnostics server.
type WebSection struct {
	Addr string `yaml:"addr"`
}

// DisplaySection configures presentation.
type DisplaySection struct {
	Window   string `yaml:"window"`
	Headless bool   `yaml:"headless"`
	Replay   string `yaml:"replay"`

	// ReplayLoop restarts the replay directory after its last image.
	// When false the sensor yields empty frames once the images run out.
	ReplayLoop bool `yaml:"replay_loop"`
}

// Default returns the built-in configuration.
func Default() File {
	lc := loop.DefaultConfig()
	return File{
		Camera:     camera.DefaultConfig(),
		Detector:   detection.DefaultConfig(),
		Intrinsics: tag.DefaultIntrinsics(),
		Overlay:    render.DefaultStyle(),
		Loop:       LoopSection{WarmupPause: lc.WarmupPause, KeyWait: lc.KeyWait},
		Display:    DisplaySection{Window: "fiducial", ReplayLoop: true},
	}
}

// Load reads path over the defaults. A missing path returns the defaults.
func Load(path string) (File, error) {
	f := Default()
	if path == "" {
		return f, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return f, nil
	}
	if err != nil {
		return f, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &f); err != nil {
		return f, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return f, nil
}

// LoopConfig converts the loop section.
func (f File) LoopConfig() loop.Config {
	return loop.Config{WarmupPause: f.Loop.WarmupPause, KeyWait: f.Loop.KeyWait}
}

// Validate returns every problem found.
func (f File) Validate() []string {
	var errs []string
	errs = append(errs, f.Camera.Validate()...)
	if err := f.Detector.Validate(); err != nil {
		errs = append(errs, err.Error())
	}
	in := f.Intrinsics
	if in.TagSize <= 0 || in.Fx <= 0 || in.Fy <= 0 {
		errs = append(errs, "intrinsics: tag_size, fx and fy must be positive")
	}
	if _, err := render.NewPainter(f.Overlay); err != nil {
		errs = append(errs, err.Error())
	}
	return errs
}
