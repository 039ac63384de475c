// Package service wires the controllers, catalog and store into the
// audio session engine behind a single owned instance.
package service

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/audiolibrelab/takedeck/internal/audio"
	"github.com/audiolibrelab/takedeck/internal/config"
	"github.com/audiolibrelab/takedeck/internal/play"
	"github.com/audiolibrelab/takedeck/internal/take"
)

// Service is the audio session engine interface. Operations return
// false for precondition failures (wrong state, unknown name, name
// collision, no working take); those are caller-recoverable and never
// errors. A non-nil error means a device or storage failure.
type Service interface {
	// Recording operations
	StartRecording() (bool, error)
	StopRecording() (bool, error)

	// Playback operations
	StartPlaying() (bool, error)
	StopPlaying() (bool, error)

	// Catalog operations
	SaveCurrent(name string) (bool, error)
	SetAsCurrent(identifier string) (bool, error)
	Delete(name string) (bool, error)

	// Resource reads
	CatalogSnapshot() map[string]take.Metadata
	WorkingTakePath() string

	Close() error
}

// TakeService is the engine implementation. The working-take asset and
// the catalog document are the only shared mutable resources; fileMu
// serializes every access to both.
type TakeService struct {
	cfg      *config.Config
	device   audio.Device
	capture  audio.CaptureStream
	playback audio.PlaybackStream
	recorder *audio.Recorder
	player   *play.Player
	store    *take.Store
	catalog  *take.Catalog

	fileMu sync.Mutex
}

// New opens both device streams, loads the catalog, and returns a
// ready engine. A corrupt catalog document fails construction; callers
// must not serve operations in that case.
func New(cfg *config.Config, device audio.Device) (Service, error) {
	store, err := take.NewStore(cfg.Storage.Directory)
	if err != nil {
		return nil, err
	}
	catalog, err := take.LoadCatalog(store.CatalogPath())
	if err != nil {
		return nil, err
	}

	capture, err := device.OpenCapture(cfg.Audio.SampleRate, cfg.Audio.ChunkFrames)
	if err != nil {
		return nil, err
	}
	playback, err := device.OpenPlayback(cfg.Audio.SampleRate, cfg.Audio.ChunkFrames)
	if err != nil {
		capture.Close()
		return nil, err
	}

	s := &TakeService{
		cfg:      cfg,
		device:   device,
		capture:  capture,
		playback: playback,
		store:    store,
		catalog:  catalog,
	}
	s.recorder = audio.NewRecorder(capture, cfg.Audio.ChunkFrames)
	s.player = play.New(playback, store.WorkingPath(), &s.fileMu, cfg.Audio.ChunkFrames)

	slog.Info("Session engine ready", "directory", store.Dir(), "takes", len(catalog.Snapshot()))
	return s, nil
}

// Close stops any active sessions and releases the device streams.
func (s *TakeService) Close() error {
	if _, _, err := s.recorder.Stop(); err != nil {
		slog.Warn("Failed to stop recording during shutdown", "error", err)
	}
	if _, err := s.player.Stop(); err != nil {
		slog.Warn("Failed to stop playback during shutdown", "error", err)
	}

	var firstErr error
	for _, c := range []func() error{s.capture.Close, s.playback.Close, s.device.Close} {
		if err := c(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// StartRecording spawns the capture worker. False if already recording.
func (s *TakeService) StartRecording() (bool, error) {
	ok, err := s.recorder.Start()
	if err != nil {
		slog.Error("StartRecording failed", "error", err)
	}
	return ok, err
}

// StopRecording joins the capture worker, writes the accumulated
// frames as the working take, and commits the catalog's curr entry.
// False if not recording.
func (s *TakeService) StopRecording() (bool, error) {
	frames, ok, err := s.recorder.Stop()
	if !ok {
		return false, nil
	}
	if err != nil {
		slog.Error("StopRecording failed", "error", err)
		return false, err
	}

	s.fileMu.Lock()
	defer s.fileMu.Unlock()

	md, err := s.store.WriteWorking(frames, s.cfg.Audio.SampleRate)
	if err != nil {
		slog.Error("Failed to write working take", "error", err)
		return false, err
	}
	if err := s.catalog.Set(take.WorkingName, md); err != nil {
		slog.Error("Failed to persist catalog", "error", err)
		return false, err
	}

	slog.Info("Recording committed", "size", md.Size, "time", md.Time)
	return true, nil
}

// StartPlaying spawns the playback worker. False if already playing.
func (s *TakeService) StartPlaying() (bool, error) {
	ok, err := s.player.Start()
	if err != nil {
		slog.Error("StartPlaying failed", "error", err)
	}
	return ok, err
}

// StopPlaying joins the playback worker. False if not playing.
func (s *TakeService) StopPlaying() (bool, error) {
	ok, err := s.player.Stop()
	if err != nil {
		slog.Error("StopPlaying failed", "error", err)
	}
	return ok, err
}

// SaveCurrent copies the working take to a name-addressed asset and
// clones curr's metadata verbatim under name. False if there is no
// working take or name already exists.
func (s *TakeService) SaveCurrent(name string) (bool, error) {
	s.fileMu.Lock()
	defer s.fileMu.Unlock()

	md, ok := s.catalog.Get(take.WorkingName)
	if !ok || s.catalog.Has(name) {
		return false, nil
	}

	if err := s.store.Copy(s.store.WorkingPath(), s.store.AssetPath(name)); err != nil {
		slog.Error("Failed to copy working take", "name", name, "error", err)
		return false, err
	}
	if err := s.catalog.Set(name, md); err != nil {
		return false, err
	}

	slog.Info("Take saved", "name", name)
	return true, nil
}

// SetAsCurrent swaps an asset into the working slot. An existing .wav
// file path is copied in and its metadata recomputed from the file;
// otherwise identifier is resolved as a catalog name and the stored
// metadata is cloned without recomputation. False if neither resolves.
func (s *TakeService) SetAsCurrent(identifier string) (bool, error) {
	s.fileMu.Lock()
	defer s.fileMu.Unlock()

	if isWAVPath(identifier) {
		if err := s.store.Copy(identifier, s.store.WorkingPath()); err != nil {
			slog.Error("Failed to import file", "path", identifier, "error", err)
			return false, err
		}
		md, err := s.store.Describe(s.store.WorkingPath())
		if err != nil {
			slog.Error("Imported file is not a usable take", "path", identifier, "error", err)
			return false, err
		}
		if err := s.catalog.Set(take.WorkingName, md); err != nil {
			return false, err
		}
		slog.Info("Working take replaced from file", "path", identifier)
		return true, nil
	}

	md, ok := s.catalog.Get(identifier)
	if !ok {
		return false, nil
	}
	// The working take selected as itself: the copy would be a no-op.
	if identifier != take.WorkingName {
		if err := s.store.Copy(s.store.AssetPath(identifier), s.store.WorkingPath()); err != nil {
			slog.Error("Failed to copy take into working slot", "name", identifier, "error", err)
			return false, err
		}
	}
	if err := s.catalog.Set(take.WorkingName, md); err != nil {
		return false, err
	}

	slog.Info("Working take replaced from catalog", "name", identifier)
	return true, nil
}

// Delete removes a named take's asset and catalog entry together.
// False for the reserved working name or an unknown name.
func (s *TakeService) Delete(name string) (bool, error) {
	s.fileMu.Lock()
	defer s.fileMu.Unlock()

	if name == take.WorkingName || !s.catalog.Has(name) {
		return false, nil
	}

	if err := s.store.Remove(name); err != nil {
		slog.Error("Failed to remove asset", "name", name, "error", err)
		return false, err
	}
	if err := s.catalog.Remove(name); err != nil {
		return false, err
	}

	slog.Info("Take deleted", "name", name)
	return true, nil
}

// CatalogSnapshot returns a copy of the catalog for resource reads.
func (s *TakeService) CatalogSnapshot() map[string]take.Metadata {
	s.fileMu.Lock()
	defer s.fileMu.Unlock()
	return s.catalog.Snapshot()
}

// WorkingTakePath returns the absolute working-take asset location.
func (s *TakeService) WorkingTakePath() string {
	return s.store.WorkingPath()
}

// isWAVPath reports whether identifier names an existing regular .wav
// file rather than a catalog entry.
func isWAVPath(identifier string) bool {
	if !strings.EqualFold(filepath.Ext(identifier), ".wav") {
		return false
	}
	fi, err := os.Stat(identifier)
	return err == nil && fi.Mode().IsRegular()
}
