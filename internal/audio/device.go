// Package audio owns the capture side of the session engine: the
// device abstraction and the recording controller.
package audio

import "fmt"

// CaptureStream is an open hardware input stream delivering fixed-size
// chunks of mono PCM16 frames. A stream is exclusively owned by its
// controller and never shared.
type CaptureStream interface {
	Start() error
	// Read blocks until a full chunk is available and copies it into
	// buf, which must hold exactly the configured chunk size.
	Read(buf []int16) error
	Stop() error
	Close() error
}

// PlaybackStream is an open hardware output stream accepting chunks of
// mono PCM16 frames.
type PlaybackStream interface {
	Start() error
	// Write blocks until buf has been handed to the device. A short
	// final chunk is padded with silence.
	Write(buf []int16) error
	Stop() error
	Close() error
}

// Device opens capture and playback streams on the local hardware.
type Device interface {
	OpenCapture(sampleRate, chunkFrames int) (CaptureStream, error)
	OpenPlayback(sampleRate, chunkFrames int) (PlaybackStream, error)
	Close() error
}

// DeviceError reports a hardware stream failure (open, read, write).
// Unlike state-machine precondition failures these are surfaced as
// errors, not boolean results.
type DeviceError struct {
	Op  string
	Err error
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("audio device: %s: %v", e.Op, e.Err)
}

func (e *DeviceError) Unwrap() error { return e.Err }
