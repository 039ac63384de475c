package service

import (
	"math"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/audiolibrelab/takedeck/internal/audio"
	"github.com/audiolibrelab/takedeck/internal/config"
	"github.com/audiolibrelab/takedeck/internal/take"
	"github.com/audiolibrelab/takedeck/internal/wav"
)

// fakeDevice hands out in-memory streams in place of hardware.
type fakeDevice struct {
	capture  *fakeCapture
	playback *fakePlayback
}

func (d *fakeDevice) OpenCapture(sampleRate, chunkFrames int) (audio.CaptureStream, error) {
	return d.capture, nil
}

func (d *fakeDevice) OpenPlayback(sampleRate, chunkFrames int) (audio.PlaybackStream, error) {
	return d.playback, nil
}

func (d *fakeDevice) Close() error { return nil }

type fakeCapture struct {
	reads atomic.Int64
}

func (f *fakeCapture) Start() error { return nil }
func (f *fakeCapture) Stop() error  { return nil }
func (f *fakeCapture) Close() error { return nil }

func (f *fakeCapture) Read(buf []int16) error {
	time.Sleep(time.Millisecond)
	n := f.reads.Add(1)
	for i := range buf {
		buf[i] = int16(n)
	}
	return nil
}

type fakePlayback struct {
	mu      sync.Mutex
	samples int
}

func (f *fakePlayback) Start() error { return nil }
func (f *fakePlayback) Stop() error  { return nil }
func (f *fakePlayback) Close() error { return nil }

func (f *fakePlayback) Write(buf []int16) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.samples += len(buf)
	return nil
}

func (f *fakePlayback) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.samples
}

func newTestService(t *testing.T) (Service, *fakeDevice) {
	t.Helper()
	cfg := &config.Config{
		Storage: config.StorageConfig{Directory: t.TempDir()},
		Audio:   config.AudioConfig{SampleRate: 44100, ChunkFrames: 1024},
		Server:  config.ServerConfig{Transport: "http", Port: 8000},
	}
	dev := &fakeDevice{capture: &fakeCapture{}, playback: &fakePlayback{}}
	svc, err := New(cfg, dev)
	if err != nil {
		t.Fatalf("Failed to create service: %v", err)
	}
	t.Cleanup(func() { svc.Close() })
	return svc, dev
}

// record captures at least minChunks chunks and commits them.
func record(t *testing.T, svc Service, dev *fakeDevice, minChunks int64) {
	t.Helper()
	if ok, err := svc.StartRecording(); !ok || err != nil {
		t.Fatalf("StartRecording failed: ok=%v err=%v", ok, err)
	}
	target := dev.capture.reads.Load() + minChunks
	deadline := time.Now().Add(5 * time.Second)
	for dev.capture.reads.Load() < target {
		if time.Now().After(deadline) {
			t.Fatal("Timed out waiting for capture chunks")
		}
		time.Sleep(time.Millisecond)
	}
	if ok, err := svc.StopRecording(); !ok || err != nil {
		t.Fatalf("StopRecording failed: ok=%v err=%v", ok, err)
	}
}

func TestService_StopRecordingWhileIdle(t *testing.T) {
	svc, _ := newTestService(t)

	if ok, err := svc.StopRecording(); ok || err != nil {
		t.Errorf("Expected false from StopRecording while idle, got ok=%v err=%v", ok, err)
	}
}

func TestService_CommittedMetadataMatchesFile(t *testing.T) {
	svc, dev := newTestService(t)
	record(t, svc, dev, 5)

	snap := svc.CatalogSnapshot()
	md, ok := snap[take.WorkingName]
	if !ok {
		t.Fatal("Expected curr entry after StopRecording")
	}

	fi, err := os.Stat(svc.WorkingTakePath())
	if err != nil {
		t.Fatalf("Working take not on disk: %v", err)
	}
	if md.Size != fi.Size() {
		t.Errorf("Catalog size %d does not match file size %d", md.Size, fi.Size())
	}

	frames := (md.Size - 44) / 2
	want := float64(frames) / 44100
	if math.Abs(md.Time-want) > 1e-9 {
		t.Errorf("Catalog time %f does not match frame count (want %f)", md.Time, want)
	}
}

func TestService_SaveCurrent(t *testing.T) {
	svc, dev := newTestService(t)

	// Nothing recorded yet.
	if ok, err := svc.SaveCurrent("take1"); ok || err != nil {
		t.Errorf("Expected false saving with no working take, got ok=%v err=%v", ok, err)
	}

	record(t, svc, dev, 2)

	if ok, err := svc.SaveCurrent("take1"); !ok || err != nil {
		t.Fatalf("SaveCurrent failed: ok=%v err=%v", ok, err)
	}
	snap := svc.CatalogSnapshot()
	if snap["take1"] != snap[take.WorkingName] {
		t.Errorf("Saved metadata %+v differs from curr %+v", snap["take1"], snap[take.WorkingName])
	}

	// Name collision.
	if ok, err := svc.SaveCurrent("take1"); ok || err != nil {
		t.Errorf("Expected false for duplicate name, got ok=%v err=%v", ok, err)
	}
}

func TestService_SetAsCurrentClonesStoredMetadata(t *testing.T) {
	svc, dev := newTestService(t)

	record(t, svc, dev, 2)
	if ok, err := svc.SaveCurrent("take1"); !ok || err != nil {
		t.Fatalf("SaveCurrent failed: ok=%v err=%v", ok, err)
	}
	saved := svc.CatalogSnapshot()["take1"]

	// Diverge the asset bytes behind the catalog's back: the stored
	// metadata must be cloned verbatim, never recomputed from a re-read.
	ts := svc.(*TakeService)
	f, err := os.Create(ts.store.AssetPath("take1"))
	if err != nil {
		t.Fatalf("Failed to rewrite asset: %v", err)
	}
	if err := wav.Encode(f, make([]int16, 10*44100), 44100); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	f.Close()

	if ok, err := svc.SetAsCurrent("take1"); !ok || err != nil {
		t.Fatalf("SetAsCurrent failed: ok=%v err=%v", ok, err)
	}
	if got := svc.CatalogSnapshot()[take.WorkingName]; got != saved {
		t.Errorf("Expected curr to be an exact clone of take1's stored metadata: got %+v, want %+v", got, saved)
	}
}

func TestService_SetAsCurrentUnknownName(t *testing.T) {
	svc, _ := newTestService(t)

	if ok, err := svc.SetAsCurrent("nothere"); ok || err != nil {
		t.Errorf("Expected false for unknown identifier, got ok=%v err=%v", ok, err)
	}
}

func TestService_SetAsCurrentFromFile(t *testing.T) {
	svc, _ := newTestService(t)

	external := filepath.Join(t.TempDir(), "import.wav")
	f, err := os.Create(external)
	if err != nil {
		t.Fatalf("Failed to create external file: %v", err)
	}
	if err := wav.Encode(f, make([]int16, 44100), 44100); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	f.Close()

	if ok, err := svc.SetAsCurrent(external); !ok || err != nil {
		t.Fatalf("SetAsCurrent with file path failed: ok=%v err=%v", ok, err)
	}

	md := svc.CatalogSnapshot()[take.WorkingName]
	if md.Time != 1.0 {
		t.Errorf("Expected recomputed time 1.0, got %f", md.Time)
	}
	if md.Size != 44+2*44100 {
		t.Errorf("Expected recomputed size %d, got %d", 44+2*44100, md.Size)
	}
}

func TestService_DeleteCurrAlwaysFails(t *testing.T) {
	svc, dev := newTestService(t)

	if ok, _ := svc.Delete("curr"); ok {
		t.Error("delete(curr) must fail on an empty catalog")
	}
	record(t, svc, dev, 2)
	if ok, _ := svc.Delete("curr"); ok {
		t.Error("delete(curr) must fail even when curr exists")
	}
}

func TestService_Delete(t *testing.T) {
	svc, dev := newTestService(t)
	record(t, svc, dev, 2)

	if ok, err := svc.SaveCurrent("take1"); !ok || err != nil {
		t.Fatalf("SaveCurrent failed: ok=%v err=%v", ok, err)
	}
	if ok, err := svc.SaveCurrent("take2"); !ok || err != nil {
		t.Fatalf("SaveCurrent failed: ok=%v err=%v", ok, err)
	}

	if ok, err := svc.Delete("take1"); !ok || err != nil {
		t.Fatalf("Delete failed: ok=%v err=%v", ok, err)
	}

	snap := svc.CatalogSnapshot()
	if _, ok := snap["take1"]; ok {
		t.Error("Expected take1 absent from catalog")
	}
	if _, ok := snap["take2"]; !ok {
		t.Error("Expected take2 unchanged")
	}
	ts := svc.(*TakeService)
	if _, err := os.Stat(ts.store.AssetPath("take1")); !os.IsNotExist(err) {
		t.Error("Expected take1 asset removed from disk")
	}
	if _, err := os.Stat(ts.store.AssetPath("take2")); err != nil {
		t.Error("Expected take2 asset still on disk")
	}

	// Unknown name after deletion.
	if ok, _ := svc.Delete("take1"); ok {
		t.Error("Expected false deleting an already-deleted take")
	}
}

func TestService_PlaybackStreamsCommittedTake(t *testing.T) {
	svc, dev := newTestService(t)
	record(t, svc, dev, 3)

	md := svc.CatalogSnapshot()[take.WorkingName]
	frames := int((md.Size - 44) / 2)

	if ok, err := svc.StartPlaying(); !ok || err != nil {
		t.Fatalf("StartPlaying failed: ok=%v err=%v", ok, err)
	}
	deadline := time.Now().Add(5 * time.Second)
	for dev.playback.count() < frames {
		if time.Now().After(deadline) {
			t.Fatalf("Timed out: played %d of %d frames", dev.playback.count(), frames)
		}
		time.Sleep(time.Millisecond)
	}
	if ok, err := svc.StopPlaying(); !ok || err != nil {
		t.Fatalf("StopPlaying failed: ok=%v err=%v", ok, err)
	}
	if dev.playback.count() != frames {
		t.Errorf("Expected exactly %d frames played, got %d", frames, dev.playback.count())
	}
}

func TestService_StopPlayingWhileIdle(t *testing.T) {
	svc, _ := newTestService(t)

	if ok, err := svc.StopPlaying(); ok || err != nil {
		t.Errorf("Expected false from StopPlaying while idle, got ok=%v err=%v", ok, err)
	}
}

func TestService_ConcurrentStartRecording(t *testing.T) {
	svc, _ := newTestService(t)

	var wg sync.WaitGroup
	var successes atomic.Int64
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := svc.StartRecording(); ok {
				successes.Add(1)
			}
		}()
	}
	wg.Wait()

	if successes.Load() != 1 {
		t.Errorf("Expected exactly one StartRecording to succeed, got %d", successes.Load())
	}
	svc.StopRecording()
}

func TestService_CatalogSurvivesRestart(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{
		Storage: config.StorageConfig{Directory: dir},
		Audio:   config.AudioConfig{SampleRate: 44100, ChunkFrames: 1024},
		Server:  config.ServerConfig{Transport: "http", Port: 8000},
	}
	dev := &fakeDevice{capture: &fakeCapture{}, playback: &fakePlayback{}}

	svc, err := New(cfg, dev)
	if err != nil {
		t.Fatalf("Failed to create service: %v", err)
	}
	record(t, svc, dev, 2)
	if ok, err := svc.SaveCurrent("keeper"); !ok || err != nil {
		t.Fatalf("SaveCurrent failed: ok=%v err=%v", ok, err)
	}
	before := svc.CatalogSnapshot()
	svc.Close()

	svc2, err := New(cfg, dev)
	if err != nil {
		t.Fatalf("Failed to recreate service: %v", err)
	}
	defer svc2.Close()

	after := svc2.CatalogSnapshot()
	if len(after) != len(before) {
		t.Fatalf("Expected %d entries after restart, got %d", len(before), len(after))
	}
	if after["keeper"] != before["keeper"] {
		t.Errorf("keeper entry changed across restart: %+v vs %+v", after["keeper"], before["keeper"])
	}
}

func TestService_CorruptCatalogFailsStartup(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "takes.yaml"), []byte("{bad: [yaml"), 0644); err != nil {
		t.Fatalf("Failed to write corrupt catalog: %v", err)
	}
	cfg := &config.Config{
		Storage: config.StorageConfig{Directory: dir},
		Audio:   config.AudioConfig{SampleRate: 44100, ChunkFrames: 1024},
		Server:  config.ServerConfig{Transport: "http", Port: 8000},
	}
	dev := &fakeDevice{capture: &fakeCapture{}, playback: &fakePlayback{}}

	if _, err := New(cfg, dev); err == nil {
		t.Fatal("Expected startup failure with a corrupt catalog")
	}
}
