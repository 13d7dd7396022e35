// Package loop runs the acquisition, detection, annotation and presentation
// cycle for one camera.
//
// Each Step reads a frame, detects fiducial tags in its luminance image,
// estimates a pose for every tag, builds the overlay commands and hands the
// annotated frame to the surface. State carried between steps lives in an
// explicit State record owned by the caller.
package loop

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"time"

	"github.com/teslashibe/go-fiducial/internal/timeutil"
	"github.com/teslashibe/go-fiducial/pkg/debug"
	"github.com/teslashibe/go-fiducial/pkg/frame"
	"github.com/teslashibe/go-fiducial/pkg/framerate"
	"github.com/teslashibe/go-fiducial/pkg/render"
	"github.com/teslashibe/go-fiducial/pkg/tag"
)

// Sentinel errors wrapped by Step for each fatal stage.
var (
	ErrSensor  = errors.New("loop: sensor read failed")
	ErrFrame   = errors.New("loop: frame unusable")
	ErrDetect  = errors.New("loop: detection failed")
	ErrPresent = errors.New("loop: presentation failed")
)

// Sensor produces frames. The loop closes every frame it reads.
type Sensor interface {
	Read() (frame.Frame, error)
}

// Detector finds tags in a luminance image.
type Detector interface {
	Detect(img *image.Gray) ([]tag.Observation, error)
}

// PoseEstimator solves a tag's pose. A false result means no solution.
type PoseEstimator interface {
	Estimate(obs tag.Observation) (*tag.Pose, bool)
}

// Surface shows annotated frames.
type Surface interface {
	Present(f frame.Frame, cmds []render.Command) error
	PollKey(wait time.Duration) int
}

// Observer receives every processed (non-skipped) Result.
type Observer func(Result)

// Config tunes loop timing.
type Config struct {
	// WarmupPause is how long to wait after an empty frame.
	WarmupPause time.Duration

	// KeyWait is how long the surface waits for a key press per frame.
	KeyWait time.Duration
}

// DefaultConfig returns the standard timings.
func DefaultConfig() Config {
	return Config{
		WarmupPause: 50 * time.Millisecond,
		KeyWait:     time.Millisecond,
	}
}

// Detection is one tag found in a frame.
type Detection struct {
	Observation tag.Observation `json:"observation"`
	Pose        *tag.Pose       `json:"pose,omitempty"`
	Overlay     tag.Overlay     `json:"overlay"`
}

// Result describes one Step.
type Result struct {
	Iteration  int              `json:"iteration"`
	Timestamp  time.Time        `json:"timestamp"`
	Skipped    bool             `json:"skipped"`
	Size       image.Point      `json:"size"`
	Detections []Detection      `json:"detections"`
	Commands   []render.Command `json:"-"`
	FPS        float64          `json:"fps"`
	Window     int              `json:"window"`
	Key        int              `json:"-"`
}

// State is the loop's carried state.
type State struct {
	Window     framerate.Window
	Started    bool
	Iterations int
	Skipped    int
}

// Option configures a Loop.
type Option func(*Loop)

// WithClock replaces the wall clock.
func WithClock(c timeutil.Clock) Option {
	return func(l *Loop) {
		l.clock = c
	}
}

// WithObserver registers a callback for processed frames.
func WithObserver(o Observer) Option {
	return func(l *Loop) {
		l.observers = append(l.observers, o)
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loop) {
		l.logger = logger
	}
}

// WithPainter sets the overlay painter.
func WithPainter(p *render.Painter) Option {
	return func(l *Loop) {
		l.painter = p
	}
}

// Loop owns the sensor and surface for the duration of Run.
type Loop struct {
	cfg       Config
	sensor    Sensor
	detector  Detector
	estimator PoseEstimator
	surface   Surface
	painter   *render.Painter
	clock     timeutil.Clock
	logger    *slog.Logger
	observers []Observer
}

// New builds a loop. Zero Config durations fall back to DefaultConfig.
func New(cfg Config, sensor Sensor, detector Detector, estimator PoseEstimator, surface Surface, opts ...Option) *Loop {
	def := DefaultConfig()
	if cfg.WarmupPause <= 0 {
		cfg.WarmupPause = def.WarmupPause
	}
	if cfg.KeyWait <= 0 {
		cfg.KeyWait = def.KeyWait
	}

	l := &Loop{
		cfg:       cfg,
		sensor:    sensor,
		detector:  detector,
		estimator: estimator,
		surface:   surface,
		clock:     timeutil.RealClock{},
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.painter == nil {
		// DefaultStyle always parses.
		l.painter, _ = render.NewPainter(render.DefaultStyle())
	}
	return l
}

// NewState returns a fresh state record.
func (l *Loop) NewState() *State {
	return &State{Window: framerate.New(l.clock.Now())}
}

// Run steps until ctx is cancelled or a fatal error occurs. Cancellation
// returns nil.
func (l *Loop) Run(ctx context.Context) error {
	st := l.NewState()
	l.logger.Info("loop started",
		"warmup_pause", l.cfg.WarmupPause,
		"window", framerate.Size)

	for {
		select {
		case <-ctx.Done():
			l.logger.Info("loop stopped",
				"iterations", st.Iterations,
				"skipped", st.Skipped)
			return nil
		default:
		}

		if _, err := l.Step(ctx, st); err != nil {
			return err
		}
	}
}

// Step runs one iteration.
func (l *Loop) Step(ctx context.Context, st *State) (Result, error) {
	res := Result{Iteration: st.Iterations, Key: -1}
	st.Iterations++

	f, err := l.sensor.Read()
	if err != nil {
		return res, fmt.Errorf("%w: %w", ErrSensor, err)
	}
	defer f.Close()

	size, err := f.Size()
	if err != nil {
		return res, fmt.Errorf("%w: size: %w", ErrFrame, err)
	}
	res.Size = size

	if size.X == 0 || size.Y == 0 {
		// Sensors deliver empty frames while warming up.
		st.Skipped++
		res.Skipped = true
		res.Timestamp = l.clock.Now()
		l.logger.Debug("empty frame, waiting", "pause", l.cfg.WarmupPause)
		l.clock.Sleep(l.cfg.WarmupPause)
		return res, nil
	}

	gray, err := f.Gray()
	if err != nil {
		return res, fmt.Errorf("%w: luminance: %w", ErrFrame, err)
	}

	observations, err := l.detector.Detect(gray)
	if err != nil {
		return res, fmt.Errorf("%w: %w", ErrDetect, err)
	}

	now := l.clock.Now()
	res.Timestamp = now
	if !st.Started {
		st.Window.Reset(now)
		st.Started = true
	}

	res.Detections = make([]Detection, 0, len(observations))
	cmds := make([]render.Command, 0, 6*len(observations))
	for _, obs := range observations {
		pose, ok := l.estimator.Estimate(obs)
		if !ok {
			pose = nil
			l.logger.Debug("no pose", "id", obs.ID)
		}
		dumpDetection(obs, pose)

		ov := tag.Extract(obs)
		cmds = l.painter.AppendOverlay(cmds, ov)
		res.Detections = append(res.Detections, Detection{
			Observation: obs,
			Pose:        pose,
			Overlay:     ov,
		})
	}
	res.Commands = cmds

	if st.Window.Count()+1 >= framerate.Size {
		// Report the window that is about to close.
		l.logger.Info("throughput",
			"fps", st.Window.Rate(now),
			"frames", st.Window.Count())
	}
	st.Window.Tick(now)
	res.FPS = st.Window.Rate(now)
	res.Window = st.Window.Count()
	l.logger.Debug("frame processed",
		"tags", len(observations),
		"fps", res.FPS,
		"window", res.Window)

	if err := l.surface.Present(f, cmds); err != nil {
		return res, fmt.Errorf("%w: %w", ErrPresent, err)
	}
	res.Key = l.surface.PollKey(l.cfg.KeyWait)
	if res.Key >= 0 {
		l.logger.Debug("key ignored", "key", res.Key)
	}

	for _, o := range l.observers {
		o(res)
	}
	return res, nil
}

func dumpDetection(obs tag.Observation, pose *tag.Pose) {
	for _, line := range formatDetection(obs, pose) {
		debug.DetectLog("%s\n", line)
	}
}

// formatDetection renders one detection for the verbose dump. Decode
// confidence is included only when the engine reported it.
func formatDetection(obs tag.Observation, pose *tag.Pose) []string {
	head := fmt.Sprintf("🏷️  %s id=%d", obs.Family, obs.ID)
	if obs.Reported() {
		head += fmt.Sprintf(" hamming=%d margin=%.2f", obs.Hamming, obs.DecisionMargin)
	}
	head += fmt.Sprintf(" center=(%.1f, %.1f)", obs.Center.X, obs.Center.Y)

	lines := []string{head}
	if pose == nil {
		return lines
	}
	t := pose.Translation
	lines = append(lines, fmt.Sprintf("   translation: [%.4f %.4f %.4f] err=%.4f", t[0], t[1], t[2], pose.Error))
	for _, row := range pose.Rotation {
		lines = append(lines, fmt.Sprintf("   rotation:    [%.4f %.4f %.4f]", row[0], row[1], row[2]))
	}
	return lines
}
