package config

import (
	"errors"
	"flag"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teslashibe/go-fiducial/pkg/tag"
)

func TestParseTagParams(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    tag.Intrinsics
		wantErr bool
	}{
		{"defaults", "1.0,2.1,2.2,4.0,5.0", tag.DefaultIntrinsics(), false},
		{"spaces", " 0.16, 600, 600 ,320,240", tag.Intrinsics{TagSize: 0.16, Fx: 600, Fy: 600, Cx: 320, Cy: 240}, false},
		{"too few", "1,2,3,4", tag.Intrinsics{}, true},
		{"too many", "1,2,3,4,5,6", tag.Intrinsics{}, true},
		{"not a number", "1,2,x,4,5", tag.Intrinsics{}, true},
		{"empty", "", tag.Intrinsics{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTagParams(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrTagParams) {
					t.Errorf("ParseTagParams(%q): got err %v, want ErrTagParams", tt.in, err)
				}
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTagParams_Flag(t *testing.T) {
	p := NewTagParams(tag.DefaultIntrinsics())
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.Var(p, "tag-params", "")

	assert.False(t, p.IsSet())
	require.NoError(t, fs.Parse([]string{"-tag-params", "0.5,100,110,32,24"}))

	assert.True(t, p.IsSet())
	assert.Equal(t, 0.5, p.TagSize)
	assert.Equal(t, "0.5,100,110,32,24", p.String())
}

func TestTagParams_StringDefaults(t *testing.T) {
	p := NewTagParams(tag.DefaultIntrinsics())
	assert.Equal(t, "1,2.1,2.2,4,5", p.String())
}

func TestEnv(t *testing.T) {
	t.Setenv(EnvCamera, "2")
	t.Setenv(EnvHTTPAddr, ":9000")
	t.Setenv(EnvLogLevel, "debug")

	assert.Equal(t, 2, Camera(0))
	assert.Equal(t, ":9000", HTTPAddr(""))
	assert.Equal(t, "debug", LogLevel("info"))

	t.Setenv(EnvCamera, "front")
	assert.Equal(t, 1, Camera(1), "non-numeric device falls back")

	t.Setenv(EnvHTTPAddr, "")
	assert.Equal(t, "", HTTPAddr(""))
}

func TestLoad_MissingFile(t *testing.T) {
	f, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), f)
	assert.Empty(t, f.Validate())
}

func TestLoad_OverridesSections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fiducial.yaml")
	data := `
camera:
  device: 1
  width: 640
  height: 480
detector:
  family: tag36h11
intrinsics:
  tag_size: 0.2
  fx: 600
  fy: 600
  cx: 320
  cy: 240
loop:
  warmup_pause: 20ms
web:
  addr: ":8080"
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	f, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 1, f.Camera.Device)
	assert.Equal(t, 640, f.Camera.Width)
	assert.Equal(t, "tag36h11", f.Detector.Family)
	assert.Equal(t, 1, f.Detector.MarginBits, "unset keys keep defaults")
	assert.Equal(t, 0.2, f.Intrinsics.TagSize)
	assert.Equal(t, 20*time.Millisecond, f.LoopConfig().WarmupPause)
	assert.Equal(t, time.Millisecond, f.LoopConfig().KeyWait)
	assert.Equal(t, ":8080", f.Web.Addr)
	assert.Equal(t, "#00ffff", f.Overlay.EdgeColor)
	assert.Empty(t, f.Validate())
}

func TestLoad_BadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("camera: [1, 2"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestFile_Validate(t *testing.T) {
	f := Default()
	f.Camera.Width = 0
	f.Detector.Family = "nope"
	f.Intrinsics.Fx = 0
	f.Overlay.BoxColor = "blue"

	errs := f.Validate()
	assert.GreaterOrEqual(t, len(errs), 4)
}

func TestLoad_ReplayLoop(t *testing.T) {
	assert.True(t, Default().Display.ReplayLoop, "replay loops by default")

	path := filepath.Join(t.TempDir(), "fiducial.yaml")
	data := `
display:
  replay: ./frames
  replay_loop: false
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	f, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "./frames", f.Display.Replay)
	assert.False(t, f.Display.ReplayLoop)
	assert.Equal(t, "fiducial", f.Display.Window)
}
