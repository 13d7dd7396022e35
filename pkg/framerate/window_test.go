package framerate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var epoch = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func TestNew(t *testing.T) {
	w := New(epoch)

	assert.Equal(t, 0, w.Count())
	assert.Equal(t, epoch, w.Start())
}

func TestTick_CountsUpToNine(t *testing.T) {
	w := New(epoch)

	for i := 1; i <= Size-1; i++ {
		w.Tick(epoch.Add(time.Duration(i) * time.Millisecond))
		assert.Equal(t, i, w.Count(), "after tick %d", i)
		assert.Equal(t, epoch, w.Start(), "start must not move before the window fills")
	}
}

func TestTick_TenthCallResets(t *testing.T) {
	w := New(epoch)
	for i := 1; i <= Size-1; i++ {
		w.Tick(epoch.Add(time.Duration(i) * time.Millisecond))
	}

	tenth := epoch.Add(100 * time.Millisecond)
	w.Tick(tenth)

	assert.Equal(t, 1, w.Count(), "tenth tick resets then counts itself")
	assert.Equal(t, tenth, w.Start())
}

func TestTick_NeverExceedsNine(t *testing.T) {
	w := New(epoch)
	now := epoch

	for i := 0; i < 95; i++ {
		now = now.Add(33 * time.Millisecond)
		w.Tick(now)
		if w.Count() > Size-1 || w.Count() < 1 {
			t.Fatalf("tick %d: count = %d, want 1..%d", i+1, w.Count(), Size-1)
		}
	}
}

func TestReset(t *testing.T) {
	w := New(epoch)
	w.Tick(epoch.Add(time.Second))
	w.Tick(epoch.Add(2 * time.Second))

	later := epoch.Add(5 * time.Second)
	w.Reset(later)

	assert.Equal(t, 0, w.Count())
	assert.Equal(t, later, w.Start())
}

func TestRate(t *testing.T) {
	tests := []struct {
		name    string
		ticks   int
		elapsed time.Duration
		want    float64
	}{
		{"no time elapsed", 3, 0, 0},
		{"five frames in half a second", 5, 500 * time.Millisecond, 10},
		{"one frame per second", 4, 4 * time.Second, 1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := New(epoch)
			for i := 0; i < tc.ticks; i++ {
				w.Tick(epoch)
			}
			assert.InDelta(t, tc.want, w.Rate(epoch.Add(tc.elapsed)), 1e-9)
		})
	}
}
