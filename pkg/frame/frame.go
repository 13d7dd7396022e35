// Package frame defines the frames and frame sources the detection loop
// consumes, with a pure Go image-backed implementation.
package frame

import (
	"errors"
	"image"

	"github.com/anthonynsimon/bild/effect"
	"github.com/disintegration/imaging"
)

// ErrClosed is returned when using a frame after Close.
var ErrClosed = errors.New("frame: closed")

// Frame is one captured image, owned by its reader until Close.
type Frame interface {
	// Size returns width and height in pixels. A zero dimension means the
	// source had nothing to deliver yet.
	Size() (image.Point, error)

	// Gray returns a luminance copy of the frame.
	Gray() (*image.Gray, error)

	// Close releases the frame.
	Close() error
}

// Source delivers frames, blocking until one is available.
type Source interface {
	Read() (Frame, error)
	Close() error
}

// ImageFrame is a Frame backed by an in-memory image.
type ImageFrame struct {
	img    *image.NRGBA
	closed bool
}

// NewImageFrame copies img into a new frame. A nil image yields an empty frame.
func NewImageFrame(img image.Image) *ImageFrame {
	if img == nil {
		return &ImageFrame{img: image.NewNRGBA(image.Rectangle{})}
	}
	return &ImageFrame{img: imaging.Clone(img)}
}

// Size returns the image dimensions.
func (f *ImageFrame) Size() (image.Point, error) {
	if f.closed {
		return image.Point{}, ErrClosed
	}
	return f.img.Bounds().Size(), nil
}

// Gray converts the frame to luminance.
func (f *ImageFrame) Gray() (*image.Gray, error) {
	if f.closed {
		return nil, ErrClosed
	}
	return effect.Grayscale(f.img), nil
}

// Image returns the underlying pixels. Callers may draw on it.
func (f *ImageFrame) Image() *image.NRGBA {
	return f.img
}

// Close releases the frame.
func (f *ImageFrame) Close() error {
	f.closed = true
	return nil
}
