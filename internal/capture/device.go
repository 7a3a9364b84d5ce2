// Package capture feeds the outbound half of a live session: it taps the
// microphone, samples camera frames at a fixed cadence and hands encoded
// chunks to a sink without ever blocking the devices.
package capture

import (
	"context"
	"errors"
	"image"
)

// ErrNoCamera is returned by Acquire when video capture is requested but no
// camera device is available.
var ErrNoCamera = errors.New("capture: no camera device available")

// Microphone is a capture device delivering normalized mono samples at the
// capture rate. The tap runs on the device goroutine and must not block.
type Microphone interface {
	Start(tap func(samples []float32)) error
	Stop()
}

// Camera delivers the most recent frame on demand. Frame returns false when
// no frame is available yet; the sampler skips that tick.
type Camera interface {
	Frame() (image.Image, bool)
	Stop()
}

// Devices acquires capture hardware for one session. When audioOnly is true
// the returned Camera is nil and no camera is opened.
type Devices interface {
	Acquire(ctx context.Context, audioOnly bool) (Microphone, Camera, error)
}
