package audio

import (
	"log/slog"

	"github.com/gordonklaus/portaudio"
)

// PortAudioDevice opens streams on the system default input and output
// devices through PortAudio.
type PortAudioDevice struct{}

// NewDevice initializes PortAudio and returns a device handle. Close
// must be called to release the library.
func NewDevice() (Device, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, &DeviceError{Op: "initialize", Err: err}
	}
	slog.Debug("PortAudio initialized")
	return &PortAudioDevice{}, nil
}

func (d *PortAudioDevice) OpenCapture(sampleRate, chunkFrames int) (CaptureStream, error) {
	buf := make([]int16, chunkFrames)
	stream, err := portaudio.OpenDefaultStream(1, 0, float64(sampleRate), chunkFrames, buf)
	if err != nil {
		return nil, &DeviceError{Op: "open capture", Err: err}
	}
	slog.Debug("Capture stream opened", "sample_rate", sampleRate, "chunk_frames", chunkFrames)
	return &paCaptureStream{stream: stream, buf: buf}, nil
}

func (d *PortAudioDevice) OpenPlayback(sampleRate, chunkFrames int) (PlaybackStream, error) {
	buf := make([]int16, chunkFrames)
	stream, err := portaudio.OpenDefaultStream(0, 1, float64(sampleRate), chunkFrames, buf)
	if err != nil {
		return nil, &DeviceError{Op: "open playback", Err: err}
	}
	slog.Debug("Playback stream opened", "sample_rate", sampleRate, "chunk_frames", chunkFrames)
	return &paPlaybackStream{stream: stream, buf: buf}, nil
}

func (d *PortAudioDevice) Close() error {
	if err := portaudio.Terminate(); err != nil {
		return &DeviceError{Op: "terminate", Err: err}
	}
	return nil
}

// paCaptureStream reads through the buffer registered with PortAudio.
type paCaptureStream struct {
	stream *portaudio.Stream
	buf    []int16
}

func (s *paCaptureStream) Start() error {
	if err := s.stream.Start(); err != nil {
		return &DeviceError{Op: "start capture", Err: err}
	}
	return nil
}

func (s *paCaptureStream) Read(dst []int16) error {
	if err := s.stream.Read(); err != nil {
		return &DeviceError{Op: "read", Err: err}
	}
	copy(dst, s.buf)
	return nil
}

func (s *paCaptureStream) Stop() error {
	if err := s.stream.Stop(); err != nil {
		return &DeviceError{Op: "stop capture", Err: err}
	}
	return nil
}

func (s *paCaptureStream) Close() error {
	if err := s.stream.Close(); err != nil {
		return &DeviceError{Op: "close capture", Err: err}
	}
	return nil
}

type paPlaybackStream struct {
	stream *portaudio.Stream
	buf    []int16
}

func (s *paPlaybackStream) Start() error {
	if err := s.stream.Start(); err != nil {
		return &DeviceError{Op: "start playback", Err: err}
	}
	return nil
}

func (s *paPlaybackStream) Write(src []int16) error {
	// The registered buffer is fixed-size; pad a short final chunk.
	n := copy(s.buf, src)
	for i := n; i < len(s.buf); i++ {
		s.buf[i] = 0
	}
	if err := s.stream.Write(); err != nil {
		return &DeviceError{Op: "write", Err: err}
	}
	return nil
}

func (s *paPlaybackStream) Stop() error {
	if err := s.stream.Stop(); err != nil {
		return &DeviceError{Op: "stop playback", Err: err}
	}
	return nil
}

func (s *paPlaybackStream) Close() error {
	if err := s.stream.Close(); err != nil {
		return &DeviceError{Op: "close playback", Err: err}
	}
	return nil
}
