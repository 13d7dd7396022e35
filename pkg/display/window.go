// Package display presents annotated frames, either in an OpenCV window or
// headless through the logger.
package display

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"gocv.io/x/gocv"

	"github.com/teslashibe/go-fiducial/pkg/camera"
	"github.com/teslashibe/go-fiducial/pkg/frame"
	"github.com/teslashibe/go-fiducial/pkg/render"
)

// DefaultWindowName is the title of the preview window.
const DefaultWindowName = "fiducial"

// Sentinel errors for presentation.
var (
	// ErrEmptyFrame is returned when asked to present a frame with no pixels.
	ErrEmptyFrame = errors.New("display: empty frame")

	// ErrUnsupportedFrame is returned for frame types the window cannot show.
	ErrUnsupportedFrame = errors.New("display: unsupported frame type")

	// ErrClosed is returned when presenting to a closed window.
	ErrClosed = errors.New("display: window closed")
)

// NoKey is returned by PollKey when no key was pressed.
const NoKey = -1

// Window is a named OpenCV highgui window.
type Window struct {
	win    *gocv.Window
	name   string
	closed bool
	mu     sync.Mutex
}

// NewWindow creates the named window.
func NewWindow(name string) *Window {
	if name == "" {
		name = DefaultWindowName
	}
	return &Window{win: gocv.NewWindow(name), name: name}
}

// Name returns the window title.
func (w *Window) Name() string {
	return w.name
}

// Present draws cmds onto the frame and shows it.
func (w *Window) Present(f frame.Frame, cmds []render.Command) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrClosed
	}

	switch fr := f.(type) {
	case *camera.MatFrame:
		mat := fr.Mat()
		if mat.Empty() {
			return ErrEmptyFrame
		}
		Draw(mat, cmds)
		w.win.IMShow(*mat)
		return nil

	case *frame.ImageFrame:
		mat, err := gocv.ImageToMatRGB(fr.Image())
		if err != nil {
			return fmt.Errorf("display: convert frame: %w", err)
		}
		defer mat.Close()
		if mat.Empty() {
			return ErrEmptyFrame
		}
		Draw(&mat, cmds)
		w.win.IMShow(mat)
		return nil
	}

	return fmt.Errorf("%w: %T", ErrUnsupportedFrame, f)
}

// PollKey waits up to wait for a key press and returns its code, or NoKey.
func (w *Window) PollKey(wait time.Duration) int {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return NoKey
	}
	ms := int(wait / time.Millisecond)
	if ms < 1 {
		ms = 1
	}
	return w.win.WaitKey(ms)
}

// Close destroys the window.
func (w *Window) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	return w.win.Close()
}

// Draw renders cmds onto mat in order.
func Draw(mat *gocv.Mat, cmds []render.Command) {
	for _, c := range cmds {
		switch c.Kind {
		case render.Rectangle:
			gocv.Rectangle(mat, c.Rect, c.Color, c.Thickness)
		case render.Line:
			gocv.Line(mat, c.From, c.To, c.Color, c.Thickness)
		case render.Circle:
			gocv.Circle(mat, c.Center, c.Radius, c.Color, c.Thickness)
		}
	}
}
