// Package play holds the playback controller of the session engine.
package play

import (
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"sync"

	"github.com/audiolibrelab/takedeck/internal/audio"
	"github.com/audiolibrelab/takedeck/internal/wav"
)

// Player is the playback controller: an Idle/Playing state machine
// streaming the working-take asset to a playback stream in fixed-size
// chunks. Each chunk is read under the shared file lock so a reader
// never observes a partially written file. The session stays in the
// Playing state after the audio drains naturally until Stop is called,
// so a Start/Stop pair always balances.
type Player struct {
	stream      audio.PlaybackStream
	path        string
	fileMu      *sync.Mutex
	chunkFrames int

	mu        sync.Mutex
	playing   bool
	stopChan  chan struct{}
	done      chan struct{}
	streamErr error // owned by the worker until done is closed
}

// New creates an idle playback controller. path is the working-take
// asset and fileMu the lock shared with every other accessor of it.
func New(stream audio.PlaybackStream, path string, fileMu *sync.Mutex, chunkFrames int) *Player {
	return &Player{stream: stream, path: path, fileMu: fileMu, chunkFrames: chunkFrames}
}

// Playing reports whether a playback session is active.
func (p *Player) Playing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing
}

// Start spawns the playback worker and returns without waiting for the
// audio to finish. It returns false if already playing. A missing
// working take is not an error: the worker exits with no output.
func (p *Player) Start() (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.playing {
		return false, nil
	}
	if err := p.stream.Start(); err != nil {
		return false, err
	}

	p.streamErr = nil
	p.stopChan = make(chan struct{})
	p.done = make(chan struct{})
	p.playing = true
	go p.play(p.stopChan, p.done)

	slog.Debug("Playback started", "path", p.path)
	return true, nil
}

// Stop signals the worker, blocks until it has exited, and reports any
// device or storage failure that ended the session early. It returns
// false if not playing.
func (p *Player) Stop() (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.playing {
		return false, nil
	}

	close(p.stopChan)
	<-p.done
	p.playing = false

	if p.streamErr != nil {
		return true, p.streamErr
	}
	if err := p.stream.Stop(); err != nil {
		return true, err
	}

	slog.Debug("Playback stopped")
	return true, nil
}

// play streams the asset chunk by chunk. The stop signal is checked
// between chunks; a chunk mid-write always completes first.
func (p *Player) play(stop, done chan struct{}) {
	defer close(done)

	p.fileMu.Lock()
	r, err := wav.Open(p.path)
	p.fileMu.Unlock()
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			slog.Debug("No working take to play")
			return
		}
		p.streamErr = err
		slog.Error("Failed to open working take", "error", err)
		return
	}
	defer r.Close()

	buf := make([]int16, p.chunkFrames)
	for {
		select {
		case <-stop:
			return
		default:
		}

		p.fileMu.Lock()
		n, err := r.Read(buf)
		p.fileMu.Unlock()
		if err == io.EOF {
			return
		}
		if err != nil {
			p.streamErr = err
			slog.Error("Failed to read working take", "error", err)
			return
		}

		if err := p.stream.Write(buf[:n]); err != nil {
			p.streamErr = err
			slog.Error("Playback write failed", "error", err)
			return
		}
	}
}
