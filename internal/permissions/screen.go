//go:build darwin && cgo

// Package permissions checks macOS privacy permissions needed to read the
// display.
package permissions

/*
#cgo LDFLAGS: -framework CoreGraphics
#include <CoreGraphics/CoreGraphics.h>

// Available since macOS 10.15.
int hasScreenRecordingPermission() {
    return CGPreflightScreenCaptureAccess();
}

int requestScreenRecordingPermission() {
    return CGRequestScreenCaptureAccess();
}
*/
import "C"

// HasScreenRecording reports whether the process may capture the display.
func HasScreenRecording() bool {
	return C.hasScreenRecordingPermission() != 0
}

// RequestScreenRecording shows the system prompt when access is missing.
// The process must be restarted after the user grants access.
func RequestScreenRecording() bool {
	return C.requestScreenRecordingPermission() != 0
}
