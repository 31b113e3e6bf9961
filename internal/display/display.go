// Package display shows received frames in a desktop window for debugging.
package display

import "image"

// Display runs a window until it is closed.
type Display interface {
	Run() error
}

// FrameSink accepts decoded frames. It is safe to call from any goroutine.
type FrameSink interface {
	SetFrame(img *image.RGBA)
}
