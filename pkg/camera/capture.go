package camera

import (
	"errors"
	"fmt"
	"image"
	"strings"
	"sync"

	"gocv.io/x/gocv"

	"github.com/teslashibe/go-fiducial/pkg/debug"
	"github.com/teslashibe/go-fiducial/pkg/frame"
)

// Sentinel errors for capture.
var (
	// ErrNotOpened is returned when the device cannot be opened.
	ErrNotOpened = errors.New("camera: device not opened")

	// ErrClosed is returned when reading from a closed capture.
	ErrClosed = errors.New("camera: capture closed")
)

// Capture reads frames from a local video device.
type Capture struct {
	cap    *gocv.VideoCapture
	config Config
	closed bool
	mu     sync.Mutex
}

// Open opens the device and requests the configured resolution.
func Open(cfg Config) (*Capture, error) {
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("camera: invalid config: %s", strings.Join(errs, "; "))
	}

	vc, err := gocv.OpenVideoCapture(cfg.Device)
	if err != nil {
		return nil, fmt.Errorf("%w: device %d: %v", ErrNotOpened, cfg.Device, err)
	}
	if !vc.IsOpened() {
		vc.Close()
		return nil, fmt.Errorf("%w: device %d", ErrNotOpened, cfg.Device)
	}

	vc.Set(gocv.VideoCaptureFrameWidth, float64(cfg.Width))
	vc.Set(gocv.VideoCaptureFrameHeight, float64(cfg.Height))
	debug.Log("📷 Camera %d: requested %dx%d, got %.0fx%.0f\n", cfg.Device, cfg.Width, cfg.Height,
		vc.Get(gocv.VideoCaptureFrameWidth), vc.Get(gocv.VideoCaptureFrameHeight))

	return &Capture{cap: vc, config: cfg}, nil
}

// Config returns the configuration the capture was opened with.
func (c *Capture) Config() Config {
	return c.config
}

// Read blocks for the next frame. A device that has nothing to deliver yet
// (warm-up) yields an empty frame rather than an error.
func (c *Capture) Read() (frame.Frame, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, ErrClosed
	}

	mat := gocv.NewMat()
	// Read returns false while the device warms up; mat stays empty.
	c.cap.Read(&mat)
	return &MatFrame{mat: mat}, nil
}

// Close releases the device.
func (c *Capture) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	return c.cap.Close()
}

// MatFrame is a Frame backed by an OpenCV Mat in BGR order.
type MatFrame struct {
	mat    gocv.Mat
	closed bool
}

// NewMatFrame wraps mat; the frame takes ownership.
func NewMatFrame(mat gocv.Mat) *MatFrame {
	return &MatFrame{mat: mat}
}

// Size returns the Mat dimensions.
func (f *MatFrame) Size() (image.Point, error) {
	if f.closed {
		return image.Point{}, frame.ErrClosed
	}
	return image.Pt(f.mat.Cols(), f.mat.Rows()), nil
}

// Gray converts the frame to an 8-bit luminance image.
func (f *MatFrame) Gray() (*image.Gray, error) {
	if f.closed {
		return nil, frame.ErrClosed
	}

	src := f.mat
	if f.mat.Channels() != 1 {
		gray := gocv.NewMat()
		defer gray.Close()
		code := gocv.ColorBGRToGray
		if f.mat.Channels() == 4 {
			code = gocv.ColorBGRAToGray
		}
		gocv.CvtColor(f.mat, &gray, code)
		src = gray
	}

	img, err := src.ToImage()
	if err != nil {
		return nil, fmt.Errorf("camera: luminance image: %w", err)
	}
	g, ok := img.(*image.Gray)
	if !ok {
		return nil, fmt.Errorf("camera: luminance image has type %T", img)
	}
	return g, nil
}

// Mat returns the underlying Mat for drawing. It stays owned by the frame.
func (f *MatFrame) Mat() *gocv.Mat {
	return &f.mat
}

// Close releases the Mat.
func (f *MatFrame) Close() error {
	if f.closed {
		return nil
	}
	f.closed = true
	return f.mat.Close()
}
