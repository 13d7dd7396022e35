// Package camera opens a local video device through OpenCV and delivers
// BGR frames to the detection loop.
// Settings follow the same Config/Validate/preset pattern as pkg/detection.
package camera

// Config holds all camera configuration parameters.
type Config struct {
	// Device is the OpenCV capture index (0 is the first camera).
	Device int `yaml:"device" json:"device"`

	// === Resolution ===
	Width  int `yaml:"width" json:"width"`   // Requested frame width in pixels
	Height int `yaml:"height" json:"height"` // Requested frame height in pixels
}

// Resolution limits accepted by Validate
const (
	MinWidth  = 160
	MinHeight = 120
	MaxWidth  = 4096
	MaxHeight = 2160
)

// DefaultConfig returns the first camera at 1280x720.
func DefaultConfig() Config {
	return HD720Config()
}

// Validate checks if the config values are within valid ranges.
// Returns a list of validation errors, or nil if valid.
func (c *Config) Validate() []string {
	var errors []string

	if c.Device < 0 {
		errors = append(errors, "device must be 0 or greater")
	}
	if c.Width < MinWidth || c.Width > MaxWidth {
		errors = append(errors, "width must be between 160 and 4096")
	}
	if c.Height < MinHeight || c.Height > MaxHeight {
		errors = append(errors, "height must be between 120 and 2160")
	}

	return errors
}
