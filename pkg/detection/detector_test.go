package detection

import (
	"errors"
	"image"
	"testing"

	"github.com/teslashibe/go-fiducial/pkg/tag"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Family != FamilyTag16h5 {
		t.Errorf("DefaultConfig: Family got %q, want %q", cfg.Family, FamilyTag16h5)
	}
	if cfg.MarginBits != 1 {
		t.Errorf("DefaultConfig: MarginBits got %d, want 1", cfg.MarginBits)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("DefaultConfig: Validate returned %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr error
	}{
		{"tag36h11", Config{Family: FamilyTag36h11, MarginBits: 1}, nil},
		{"wide margin", Config{Family: FamilyTag25h9, MarginBits: MaxMarginBits}, nil},
		{"unknown family", Config{Family: "tag99h1", MarginBits: 1}, ErrUnknownFamily},
		{"empty family", Config{MarginBits: 1}, ErrUnknownFamily},
		{"zero margin", Config{Family: FamilyTag16h5, MarginBits: 0}, ErrInvalidMarginBits},
		{"margin too wide", Config{Family: FamilyTag16h5, MarginBits: MaxMarginBits + 1}, ErrInvalidMarginBits},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if tc.wantErr == nil {
				if err != nil {
					t.Errorf("Validate: got %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("Validate: got %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	square := []tag.Point{tag.Pt(10, 10), tag.Pt(50, 10), tag.Pt(50, 60), tag.Pt(10, 60)}

	cands := []Candidate{
		{ID: 7, Corners: square},
		{ID: 8, Corners: square[:3]}, // malformed, dropped
		{ID: 2, Corners: square},
	}

	obs := Normalize(FamilyTag16h5, cands)

	if len(obs) != 2 {
		t.Fatalf("Normalize: got %d observations, want 2", len(obs))
	}
	if obs[0].ID != 7 || obs[1].ID != 2 {
		t.Errorf("Normalize: order got [%d %d], want [7 2]", obs[0].ID, obs[1].ID)
	}
	if obs[0].Family != FamilyTag16h5 {
		t.Errorf("Normalize: Family got %q", obs[0].Family)
	}
	if obs[0].Center != tag.Pt(30, 35) {
		t.Errorf("Normalize: Center got %+v, want {30 35}", obs[0].Center)
	}
	if obs[0].Corners[2] != tag.Pt(50, 60) {
		t.Errorf("Normalize: Corners[2] got %+v", obs[0].Corners[2])
	}
}

func TestNormalize_Empty(t *testing.T) {
	obs := Normalize(FamilyTag16h5, nil)

	if obs == nil {
		t.Fatal("Normalize: want empty slice, got nil")
	}
	if len(obs) != 0 {
		t.Errorf("Normalize: got %d observations, want 0", len(obs))
	}
}

func TestMock_NoMarkers(t *testing.T) {
	m := &Mock{}
	img := image.NewGray(image.Rect(0, 0, 64, 48))

	obs, err := m.Detect(img)
	if err != nil {
		t.Fatalf("Detect: unexpected error %v", err)
	}
	if obs == nil || len(obs) != 0 {
		t.Errorf("Detect: got %v, want empty slice", obs)
	}
	if m.Calls() != 1 {
		t.Errorf("Calls: got %d, want 1", m.Calls())
	}
}

func TestMock_ReturnsCopies(t *testing.T) {
	m := NewMock(tag.Observation{ID: 1}, tag.Observation{ID: 2})
	img := image.NewGray(image.Rect(0, 0, 8, 8))

	first, _ := m.Detect(img)
	first[0].ID = 99
	second, _ := m.Detect(img)

	if second[0].ID != 1 {
		t.Errorf("Detect: mutation leaked between calls, got ID %d", second[0].ID)
	}
}

func TestMock_Closed(t *testing.T) {
	m := NewMock()
	_ = m.Close()

	if _, err := m.Detect(image.NewGray(image.Rect(0, 0, 1, 1))); !errors.Is(err, ErrClosed) {
		t.Errorf("Detect after Close: got %v, want ErrClosed", err)
	}
}
