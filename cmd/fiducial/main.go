// fiducial - live AprilTag/ArUco detection with pose and overlay preview
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"github.com/teslashibe/go-fiducial/internal/config"
	"github.com/teslashibe/go-fiducial/internal/log"
	"github.com/teslashibe/go-fiducial/pkg/app"
	"github.com/teslashibe/go-fiducial/pkg/camera"
	"github.com/teslashibe/go-fiducial/pkg/detection"
)

func main() {
	cfg, level, err := parseFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}

	log.Init(level)

	fmt.Println("🏷️  go-fiducial")
	fmt.Println("===============")

	// app.New tags every line with the session id.
	a, err := app.New(cfg, log.L())
	if err != nil {
		log.Error("configuration error", "error", err)
		os.Exit(1)
	}

	if err := a.Init(); err != nil {
		a.Shutdown()
		log.Error("initialization failed", "error", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	fmt.Println("🔄 Detecting (Ctrl+C to stop)")
	err = a.Run(ctx)
	a.Shutdown()
	if err != nil {
		log.Error("runtime error", "error", err)
		os.Exit(1)
	}
	fmt.Println("\n👋 Goodbye!")
}

// parseFlags merges defaults, the optional YAML file, environment variables
// and flags, in that order of precedence.
func parseFlags() (app.Config, string, error) {
	configPath := flag.String("config", "", "YAML configuration file")
	debug := flag.Bool("debug", false, "Print every detection with its pose")
	device := flag.Int("camera", -1, "Camera device index (overrides FIDUCIAL_CAMERA)")
	preset := flag.String("preset", "", fmt.Sprintf("Resolution preset: %v", camera.PresetNames()))
	width := flag.Int("width", 0, "Capture width in pixels")
	height := flag.Int("height", 0, "Capture height in pixels")
	family := flag.String("family", "", fmt.Sprintf("Tag family: %v", detection.Families()))
	replay := flag.String("replay", "", "Replay images from a directory instead of a camera")
	replayOnce := flag.Bool("replay-once", false, "Play the replay directory once instead of looping")
	headless := flag.Bool("headless", false, "Log overlays instead of opening a window")
	httpAddr := flag.String("http", "", "Diagnostics listen address, e.g. :8080 (overrides FIDUCIAL_HTTP_ADDR)")
	logLevel := flag.String("log-level", "", "Log level: debug, info, warn, error")

	// The file is not loaded yet, so intrinsics are seeded after parsing.
	tagParams := config.NewTagParams(config.Default().Intrinsics)
	flag.Var(tagParams, "tag-params", "Tag size and intrinsics as tagsize,fx,fy,cx,cy")

	flag.Parse()

	file, err := config.Load(*configPath)
	if err != nil {
		return app.Config{}, "", err
	}
	cfg := app.FromFile(file)
	cfg.Session = uuid.NewString()
	cfg.Debug = *debug

	cfg.Camera.Device = config.Camera(cfg.Camera.Device)
	if *device >= 0 {
		cfg.Camera.Device = *device
	}
	if *preset != "" {
		p := camera.GetPreset(*preset)
		if p == nil {
			return app.Config{}, "", fmt.Errorf("unknown preset %q (want one of %v)", *preset, camera.PresetNames())
		}
		p.Device = cfg.Camera.Device
		cfg.Camera = *p
	}
	if *width > 0 {
		cfg.Camera.Width = *width
	}
	if *height > 0 {
		cfg.Camera.Height = *height
	}
	if *family != "" {
		cfg.Detector.Family = *family
	}
	if tagParams.IsSet() {
		cfg.Intrinsics = tagParams.Intrinsics
	}
	if *replay != "" {
		cfg.Replay = *replay
	}
	if *replayOnce {
		cfg.ReplayLoop = false
	}
	if *headless {
		cfg.Headless = true
	}

	cfg.HTTPAddr = config.HTTPAddr(cfg.HTTPAddr)
	if *httpAddr != "" {
		cfg.HTTPAddr = *httpAddr
	}

	level := config.LogLevel("info")
	if *logLevel != "" {
		level = *logLevel
	}
	if *debug {
		level = "debug"
	}
	return cfg, level, nil
}
