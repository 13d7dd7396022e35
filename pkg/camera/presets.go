package camera

// Preset names for common configurations
const (
	PresetDefault = "default"
	Preset480p    = "480p"
	Preset720p    = "720p"
	Preset1080p   = "1080p"
)

// Presets returns all available preset configurations.
func Presets() map[string]Config {
	return map[string]Config{
		PresetDefault: DefaultConfig(),
		Preset480p:    VGAConfig(),
		Preset720p:    HD720Config(),
		Preset1080p:   HD1080Config(),
	}
}

// PresetNames returns the list of available preset names.
func PresetNames() []string {
	return []string{
		PresetDefault,
		Preset480p,
		Preset720p,
		Preset1080p,
	}
}

// GetPreset returns a preset config by name, or nil if not found.
func GetPreset(name string) *Config {
	presets := Presets()
	if cfg, ok := presets[name]; ok {
		return &cfg
	}
	return nil
}

// VGAConfig returns 640x480.
// Use this if the camera cannot keep up at 720p.
func VGAConfig() Config {
	return Config{Device: 0, Width: 640, Height: 480}
}

// HD720Config returns 720p HD configuration.
// Good balance of tag resolution and frame rate.
func HD720Config() Config {
	return Config{Device: 0, Width: 1280, Height: 720}
}

// HD1080Config returns 1080p Full HD configuration.
// Small or distant tags decode more reliably, at a lower frame rate.
func HD1080Config() Config {
	return Config{Device: 0, Width: 1920, Height: 1080}
}
