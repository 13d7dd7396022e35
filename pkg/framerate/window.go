// Package framerate tracks a rolling frame count and reports throughput.
package framerate

import "time"

// Size is the number of frames in one window.
const Size = 10

// Window counts frames since its last reset point. It is not safe for
// concurrent use; the loop that owns it is the only reader and writer.
type Window struct {
	count int
	start time.Time
}

// New returns an empty window starting at now.
func New(now time.Time) Window {
	return Window{start: now}
}

// Reset empties the window and restarts it at now.
func (w *Window) Reset(now time.Time) {
	w.count = 0
	w.start = now
}

// Tick records one processed frame. When the tick would bring the count to
// Size, the window is reset at now first, so the count after Tick is in
// [1, Size-1].
func (w *Window) Tick(now time.Time) {
	if w.count+1 >= Size {
		w.Reset(now)
	}
	w.count++
}

// Count returns the frames recorded since the window start.
func (w *Window) Count() int {
	return w.count
}

// Start returns the window start time.
func (w *Window) Start() time.Time {
	return w.start
}

// Rate returns frames per second since the window start, or 0 if no time
// has elapsed.
func (w *Window) Rate(now time.Time) float64 {
	elapsed := now.Sub(w.start).Seconds()
	if elapsed <= 0 {
		return 0
	}
	return float64(w.count) / elapsed
}
