package audio

import (
	"log/slog"
	"sync"
)

// Recorder is the recording controller: an Idle/Recording state
// machine driving a capture stream. At most one capture worker is
// alive at a time. Start and Stop return false, not an error, when the
// state machine is already in the requested state.
type Recorder struct {
	stream      CaptureStream
	chunkFrames int

	mu        sync.Mutex
	recording bool
	stopChan  chan struct{}
	done      chan struct{}

	// frames and readErr are owned by the worker until done is closed.
	frames  []int16
	readErr error
}

// NewRecorder creates an idle recording controller over stream.
func NewRecorder(stream CaptureStream, chunkFrames int) *Recorder {
	return &Recorder{stream: stream, chunkFrames: chunkFrames}
}

// Recording reports whether a capture session is active.
func (r *Recorder) Recording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.recording
}

// Start spawns the capture worker and returns immediately without
// waiting for any audio. It returns false if already recording.
func (r *Recorder) Start() (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.recording {
		return false, nil
	}
	if err := r.stream.Start(); err != nil {
		return false, err
	}

	r.frames = nil
	r.readErr = nil
	r.stopChan = make(chan struct{})
	r.done = make(chan struct{})
	r.recording = true
	go r.capture(r.stopChan, r.done)

	slog.Debug("Recording started")
	return true, nil
}

// Stop signals the worker, blocks until it has fully drained and
// exited, and returns the accumulated frames. It returns false if not
// recording. A device read failure that ended the session early is
// returned here.
func (r *Recorder) Stop() ([]int16, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.recording {
		return nil, false, nil
	}

	close(r.stopChan)
	<-r.done
	r.recording = false

	frames := r.frames
	r.frames = nil
	if r.readErr != nil {
		return nil, true, r.readErr
	}
	if err := r.stream.Stop(); err != nil {
		return nil, true, err
	}

	slog.Debug("Recording stopped", "frames", len(frames))
	return frames, true, nil
}

// capture accumulates fixed-size chunks until signalled. The stop
// signal is cooperative: a chunk mid-read always completes before the
// worker observes it.
func (r *Recorder) capture(stop, done chan struct{}) {
	defer close(done)

	buf := make([]int16, r.chunkFrames)
	for {
		select {
		case <-stop:
			return
		default:
		}

		if err := r.stream.Read(buf); err != nil {
			r.readErr = err
			r.stream.Stop()
			slog.Error("Capture read failed", "error", err)
			return
		}
		chunk := make([]int16, len(buf))
		copy(chunk, buf)
		r.frames = append(r.frames, chunk...)
	}
}
