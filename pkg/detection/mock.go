package detection

import (
	"image"
	"sync"

	"github.com/teslashibe/go-fiducial/pkg/tag"
)

// Mock implements Detector for testing.
type Mock struct {
	// DetectFunc is called when Detect is invoked.
	// If nil, no tags are found.
	DetectFunc func(img *image.Gray) ([]tag.Observation, error)

	mu     sync.Mutex
	calls  int
	closed bool
}

// NewMock creates a mock that reports the same observations for every frame.
func NewMock(obs ...tag.Observation) *Mock {
	return &Mock{
		DetectFunc: func(*image.Gray) ([]tag.Observation, error) {
			out := make([]tag.Observation, len(obs))
			copy(out, obs)
			return out, nil
		},
	}
}

// Detect calls DetectFunc and records the call.
func (m *Mock) Detect(img *image.Gray) ([]tag.Observation, error) {
	m.mu.Lock()
	m.calls++
	closed := m.closed
	fn := m.DetectFunc
	m.mu.Unlock()

	if closed {
		return nil, ErrClosed
	}
	if fn == nil {
		return []tag.Observation{}, nil
	}
	return fn(img)
}

// Calls returns how many times Detect was invoked.
func (m *Mock) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Close marks the mock closed.
func (m *Mock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
