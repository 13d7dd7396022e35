// Package config provides configuration helpers for go-fiducial commands.
package config

import (
	"os"
	"strconv"
)

// Environment variable names.
const (
	EnvCamera   = "FIDUCIAL_CAMERA"
	EnvHTTPAddr = "FIDUCIAL_HTTP_ADDR"
	EnvLogLevel = "FIDUCIAL_LOG_LEVEL"
)

// Camera returns the capture device index from FIDUCIAL_CAMERA.
// Falls back to the provided default if unset or not a number.
func Camera(defaultDevice int) int {
	if v := os.Getenv(EnvCamera); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultDevice
}

// HTTPAddr returns the diagnostics listen address from FIDUCIAL_HTTP_ADDR.
// An empty result means the server is disabled.
func HTTPAddr(defaultAddr string) string {
	if addr := os.Getenv(EnvHTTPAddr); addr != "" {
		return addr
	}
	return defaultAddr
}

// LogLevel returns the log level from FIDUCIAL_LOG_LEVEL or the default.
func LogLevel(defaultLevel string) string {
	if lvl := os.Getenv(EnvLogLevel); lvl != "" {
		return lvl
	}
	return defaultLevel
}
