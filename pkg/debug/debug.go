// Package debug provides global debug logging flags
package debug

import "fmt"

// Enabled controls whether debug logging is active
var Enabled bool

// Detections controls whether every detection and pose is dumped.
// Set together with Enabled by the -debug flag.
var Detections bool

// Log prints a message only if debug mode is enabled
func Log(format string, args ...interface{}) {
	if Enabled {
		fmt.Printf(format, args...)
	}
}

// Logln prints a message with newline only if debug mode is enabled
func Logln(msg string) {
	if Enabled {
		fmt.Println(msg)
	}
}

// DetectLog prints a detection dump only if detection dumps are enabled
func DetectLog(format string, args ...interface{}) {
	if Detections {
		fmt.Printf(format, args...)
	}
}
