package loop

import (
	"bytes"
	"context"
	"errors"
	"image"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teslashibe/go-fiducial/internal/timeutil"
	"github.com/teslashibe/go-fiducial/pkg/detection"
	"github.com/teslashibe/go-fiducial/pkg/frame"
	"github.com/teslashibe/go-fiducial/pkg/render"
	"github.com/teslashibe/go-fiducial/pkg/tag"
)

type fakeSensor struct {
	next  func(n int) (frame.Frame, error)
	reads int
}

func (s *fakeSensor) Read() (frame.Frame, error) {
	s.reads++
	return s.next(s.reads)
}

func solidFrames() *fakeSensor {
	return &fakeSensor{next: func(int) (frame.Frame, error) {
		return frame.NewImageFrame(image.NewNRGBA(image.Rect(0, 0, 64, 48))), nil
	}}
}

type fakeEstimator struct {
	pose *tag.Pose
}

func (e fakeEstimator) Estimate(tag.Observation) (*tag.Pose, bool) {
	if e.pose == nil {
		return nil, false
	}
	p := *e.pose
	return &p, true
}

type fakeSurface struct {
	presented [][]render.Command
	keys      int
	key       int
	err       error
}

func (s *fakeSurface) Present(_ frame.Frame, cmds []render.Command) error {
	if s.err != nil {
		return s.err
	}
	s.presented = append(s.presented, cmds)
	return nil
}

func (s *fakeSurface) PollKey(time.Duration) int {
	s.keys++
	return s.key
}

func squareObservation() tag.Observation {
	c := [4]tag.Point{{X: 10, Y: 10}, {X: 50, Y: 10}, {X: 50, Y: 60}, {X: 10, Y: 60}}
	return tag.Observation{ID: 3, Family: "tag16h5", Corners: c, Center: tag.CenterOf(c)}
}

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func TestStep_EmptyFrameSkipsDetection(t *testing.T) {
	clock := timeutil.NewMockClock(epoch)
	sensor := &fakeSensor{next: func(int) (frame.Frame, error) {
		return frame.NewImageFrame(nil), nil
	}}
	det := detection.NewMock(squareObservation())
	surface := &fakeSurface{}

	l := New(DefaultConfig(), sensor, det, fakeEstimator{}, surface, WithClock(clock))
	st := l.NewState()

	res, err := l.Step(context.Background(), st)
	require.NoError(t, err)

	assert.True(t, res.Skipped)
	assert.Equal(t, 0, det.Calls())
	assert.Empty(t, surface.presented)
	assert.Equal(t, []time.Duration{50 * time.Millisecond}, clock.Sleeps())
	assert.False(t, st.Started)
	assert.Equal(t, 0, st.Window.Count())
	assert.Equal(t, 1, st.Skipped)
}

func TestStep_OneObservationDrawsOverlay(t *testing.T) {
	clock := timeutil.NewMockClock(epoch)
	det := detection.NewMock(squareObservation())
	surface := &fakeSurface{}
	est := fakeEstimator{pose: &tag.Pose{Translation: [3]float64{0, 0, 2}}}

	l := New(DefaultConfig(), solidFrames(), det, est, surface, WithClock(clock))
	st := l.NewState()

	res, err := l.Step(context.Background(), st)
	require.NoError(t, err)
	require.Len(t, surface.presented, 1)

	counts := render.Counts(surface.presented[0])
	assert.Equal(t, 1, counts[render.Rectangle])
	assert.Equal(t, 4, counts[render.Line])
	assert.Equal(t, 1, counts[render.Circle])
	assert.Len(t, surface.presented[0], 6)

	assert.Equal(t, 1, st.Window.Count())
	assert.Equal(t, 1, res.Window)
	require.Len(t, res.Detections, 1)
	require.NotNil(t, res.Detections[0].Pose)
	assert.Equal(t, 40, res.Detections[0].Overlay.Width)
	assert.Equal(t, 1, surface.keys)
}

func TestStep_OverlayOrder(t *testing.T) {
	det := detection.NewMock(squareObservation())
	surface := &fakeSurface{}

	l := New(DefaultConfig(), solidFrames(), det, fakeEstimator{}, surface)
	_, err := l.Step(context.Background(), l.NewState())
	require.NoError(t, err)

	var kinds []render.Kind
	for _, c := range surface.presented[0] {
		kinds = append(kinds, c.Kind)
	}
	want := []render.Kind{render.Rectangle, render.Line, render.Line, render.Line, render.Line, render.Circle}
	assert.Equal(t, want, kinds)
}

func TestStep_NilPoseStillDraws(t *testing.T) {
	det := detection.NewMock(squareObservation(), squareObservation())
	surface := &fakeSurface{}

	l := New(DefaultConfig(), solidFrames(), det, fakeEstimator{}, surface)
	res, err := l.Step(context.Background(), l.NewState())
	require.NoError(t, err)

	assert.Len(t, surface.presented[0], 12)
	for _, d := range res.Detections {
		assert.Nil(t, d.Pose)
	}
}

func TestStep_NoTags(t *testing.T) {
	surface := &fakeSurface{}
	l := New(DefaultConfig(), solidFrames(), detection.NewMock(), fakeEstimator{}, surface)
	st := l.NewState()

	res, err := l.Step(context.Background(), st)
	require.NoError(t, err)

	assert.Empty(t, res.Detections)
	require.Len(t, surface.presented, 1)
	assert.Empty(t, surface.presented[0])
	assert.Equal(t, 1, st.Window.Count())
}

func TestStep_FirstFrameResetsWindow(t *testing.T) {
	clock := timeutil.NewMockClock(epoch)
	sensor := &fakeSensor{next: func(n int) (frame.Frame, error) {
		if n == 1 {
			return frame.NewImageFrame(nil), nil
		}
		return frame.NewImageFrame(image.NewNRGBA(image.Rect(0, 0, 8, 8))), nil
	}}
	l := New(DefaultConfig(), sensor, detection.NewMock(), fakeEstimator{}, &fakeSurface{}, WithClock(clock))
	st := l.NewState()

	_, err := l.Step(context.Background(), st)
	require.NoError(t, err)
	assert.Equal(t, epoch, st.Window.Start())

	_, err = l.Step(context.Background(), st)
	require.NoError(t, err)
	assert.True(t, st.Started)
	assert.Equal(t, epoch.Add(50*time.Millisecond), st.Window.Start())
}

func TestStep_WindowWraps(t *testing.T) {
	clock := timeutil.NewMockClock(epoch)
	l := New(DefaultConfig(), solidFrames(), detection.NewMock(), fakeEstimator{}, &fakeSurface{}, WithClock(clock))
	st := l.NewState()

	for i := 1; i <= 9; i++ {
		clock.Advance(100 * time.Millisecond)
		_, err := l.Step(context.Background(), st)
		require.NoError(t, err)
		assert.Equal(t, i, st.Window.Count(), "step %d", i)
	}

	clock.Advance(100 * time.Millisecond)
	res, err := l.Step(context.Background(), st)
	require.NoError(t, err)
	assert.Equal(t, 1, st.Window.Count())
	assert.Equal(t, clock.Now(), st.Window.Start())
	assert.Equal(t, 0.0, res.FPS)
}

func TestStep_KeyPressIgnored(t *testing.T) {
	surface := &fakeSurface{key: 'q'}
	l := New(DefaultConfig(), solidFrames(), detection.NewMock(), fakeEstimator{}, surface)

	res, err := l.Step(context.Background(), l.NewState())
	require.NoError(t, err)
	assert.Equal(t, int('q'), res.Key)
}

func TestStep_FatalErrors(t *testing.T) {
	boom := errors.New("boom")

	tests := []struct {
		name    string
		sensor  Sensor
		det     Detector
		surface *fakeSurface
		want    error
	}{
		{
			name:    "sensor",
			sensor:  &fakeSensor{next: func(int) (frame.Frame, error) { return nil, boom }},
			det:     detection.NewMock(),
			surface: &fakeSurface{},
			want:    ErrSensor,
		},
		{
			name: "closed frame",
			sensor: &fakeSensor{next: func(int) (frame.Frame, error) {
				f := frame.NewImageFrame(image.NewNRGBA(image.Rect(0, 0, 4, 4)))
				_ = f.Close()
				return f, nil
			}},
			det:     detection.NewMock(),
			surface: &fakeSurface{},
			want:    ErrFrame,
		},
		{
			name:   "detector",
			sensor: solidFrames(),
			det: &detection.Mock{DetectFunc: func(*image.Gray) ([]tag.Observation, error) {
				return nil, boom
			}},
			surface: &fakeSurface{},
			want:    ErrDetect,
		},
		{
			name:    "surface",
			sensor:  solidFrames(),
			det:     detection.NewMock(),
			surface: &fakeSurface{err: boom},
			want:    ErrPresent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := New(DefaultConfig(), tt.sensor, tt.det, fakeEstimator{}, tt.surface)
			_, err := l.Step(context.Background(), l.NewState())
			if !errors.Is(err, tt.want) {
				t.Errorf("Step: got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestRun_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sensor := &fakeSensor{next: func(n int) (frame.Frame, error) {
		if n == 5 {
			cancel()
		}
		return frame.NewImageFrame(image.NewNRGBA(image.Rect(0, 0, 4, 4))), nil
	}}

	var observed []Result
	l := New(DefaultConfig(), sensor, detection.NewMock(), fakeEstimator{}, &fakeSurface{},
		WithObserver(func(r Result) { observed = append(observed, r) }))

	err := l.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, sensor.reads)
	assert.Len(t, observed, 5)
}

func TestRun_ReturnsFatalError(t *testing.T) {
	boom := errors.New("boom")
	sensor := &fakeSensor{next: func(n int) (frame.Frame, error) {
		if n == 3 {
			return nil, boom
		}
		return frame.NewImageFrame(image.NewNRGBA(image.Rect(0, 0, 4, 4))), nil
	}}

	l := New(DefaultConfig(), sensor, detection.NewMock(), fakeEstimator{}, &fakeSurface{})
	err := l.Run(context.Background())

	assert.ErrorIs(t, err, ErrSensor)
	assert.ErrorIs(t, err, boom)
}

func TestNew_Defaults(t *testing.T) {
	l := New(Config{}, solidFrames(), detection.NewMock(), fakeEstimator{}, &fakeSurface{})
	assert.Equal(t, DefaultConfig(), l.cfg)
	assert.NotNil(t, l.painter)
}

func TestStep_LogsThroughputOncePerWindow(t *testing.T) {
	clock := timeutil.NewMockClock(epoch)
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))

	l := New(DefaultConfig(), solidFrames(), detection.NewMock(), fakeEstimator{}, &fakeSurface{},
		WithClock(clock), WithLogger(logger))
	st := l.NewState()

	for i := 1; i <= 9; i++ {
		_, err := l.Step(context.Background(), st)
		require.NoError(t, err)
		clock.Advance(250 * time.Millisecond)
	}
	assert.NotContains(t, buf.String(), "throughput")

	// Nine frames since the reset at the first step, 2.25s ago.
	_, err := l.Step(context.Background(), st)
	require.NoError(t, err)

	out := buf.String()
	assert.Equal(t, 1, strings.Count(out, "msg=throughput"))
	assert.Contains(t, out, "fps=4")
	assert.Contains(t, out, "frames=9")
}

func TestFormatDetection(t *testing.T) {
	obs := squareObservation()

	lines := formatDetection(obs, nil)
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "id=3")
	assert.NotContains(t, lines[0], "hamming", "unreported confidence is omitted")

	obs.Hamming = 1
	obs.DecisionMargin = 37.5
	pose := &tag.Pose{Translation: [3]float64{0.1, 0.2, 3}}
	lines = formatDetection(obs, pose)
	require.Len(t, lines, 5)
	assert.Contains(t, lines[0], "hamming=1 margin=37.50")
	assert.Contains(t, lines[1], "[0.1000 0.2000 3.0000]")
}
