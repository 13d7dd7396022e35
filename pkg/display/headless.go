package display

import (
	"log/slog"
	"sync"
	"time"

	"github.com/teslashibe/go-fiducial/pkg/frame"
	"github.com/teslashibe/go-fiducial/pkg/render"
)

// Headless is a surface for machines without a display. It validates and
// counts presented frames and logs their overlays at debug level.
type Headless struct {
	logger *slog.Logger

	mu        sync.Mutex
	presented int
	last      []render.Command
	closed    bool
}

// NewHeadless returns a headless surface logging to logger (slog.Default
// when nil).
func NewHeadless(logger *slog.Logger) *Headless {
	if logger == nil {
		logger = slog.Default()
	}
	return &Headless{logger: logger}
}

// Present records the frame and its commands.
func (h *Headless) Present(f frame.Frame, cmds []render.Command) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return ErrClosed
	}
	size, err := f.Size()
	if err != nil {
		return err
	}
	if size.X == 0 || size.Y == 0 {
		return ErrEmptyFrame
	}

	h.presented++
	h.last = append(h.last[:0], cmds...)

	counts := render.Counts(cmds)
	h.logger.Debug("frame presented",
		"width", size.X,
		"height", size.Y,
		"rectangles", counts[render.Rectangle],
		"lines", counts[render.Line],
		"circles", counts[render.Circle])
	return nil
}

// PollKey never reports a key.
func (h *Headless) PollKey(time.Duration) int {
	return NoKey
}

// Presented returns how many frames were presented.
func (h *Headless) Presented() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.presented
}

// LastCommands returns a copy of the most recent frame's commands.
func (h *Headless) LastCommands() []render.Command {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]render.Command, len(h.last))
	copy(out, h.last)
	return out
}

// Close marks the surface closed.
func (h *Headless) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	return nil
}
