package take

import (
	"io"
	"os"
	"path/filepath"

	"github.com/audiolibrelab/takedeck/internal/wav"
)

const (
	workingFile = "curr.wav"
	catalogFile = "takes.yaml"
)

// Store performs the filesystem-level operations on WAV assets. It is
// a passive data holder; the service serializes access to the working
// take through its shared file lock.
type Store struct {
	dir string
}

// NewStore creates the asset directory if needed and returns a store
// rooted at its absolute path.
func NewStore(dir string) (*Store, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, &StorageError{Op: "resolve", Path: dir, Err: err}
	}
	if err := os.MkdirAll(abs, 0755); err != nil {
		return nil, &StorageError{Op: "mkdir", Path: abs, Err: err}
	}
	return &Store{dir: abs}, nil
}

// Dir returns the absolute asset directory.
func (s *Store) Dir() string { return s.dir }

// WorkingPath returns the absolute path of the working-take asset.
func (s *Store) WorkingPath() string { return filepath.Join(s.dir, workingFile) }

// CatalogPath returns the absolute path of the catalog document.
func (s *Store) CatalogPath() string { return filepath.Join(s.dir, catalogFile) }

// AssetPath returns the absolute path of a named take's asset.
func (s *Store) AssetPath(name string) string {
	return filepath.Join(s.dir, name+".wav")
}

// WriteWorking writes samples as the working-take asset and returns
// its metadata: size from the written file, time from the frame count.
func (s *Store) WriteWorking(samples []int16, sampleRate int) (Metadata, error) {
	path := s.WorkingPath()
	f, err := os.Create(path)
	if err != nil {
		return Metadata{}, &StorageError{Op: "create", Path: path, Err: err}
	}
	if err := wav.Encode(f, samples, sampleRate); err != nil {
		f.Close()
		return Metadata{}, &StorageError{Op: "write", Path: path, Err: err}
	}
	if err := f.Close(); err != nil {
		return Metadata{}, &StorageError{Op: "write", Path: path, Err: err}
	}

	fi, err := os.Stat(path)
	if err != nil {
		return Metadata{}, &StorageError{Op: "stat", Path: path, Err: err}
	}
	return Metadata{
		Size: fi.Size(),
		Time: float64(len(samples)) / float64(sampleRate),
	}, nil
}

// Copy duplicates an asset file byte for byte.
func (s *Store) Copy(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return &StorageError{Op: "open", Path: src, Err: err}
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return &StorageError{Op: "create", Path: dst, Err: err}
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return &StorageError{Op: "copy", Path: dst, Err: err}
	}
	if err := out.Close(); err != nil {
		return &StorageError{Op: "copy", Path: dst, Err: err}
	}
	return nil
}

// Remove deletes a named take's asset file.
func (s *Store) Remove(name string) error {
	path := s.AssetPath(name)
	if err := os.Remove(path); err != nil {
		return &StorageError{Op: "remove", Path: path, Err: err}
	}
	return nil
}

// Describe recomputes metadata from an asset file's header and size.
func (s *Store) Describe(path string) (Metadata, error) {
	info, err := wav.Probe(path)
	if err != nil {
		return Metadata{}, &StorageError{Op: "probe", Path: path, Err: err}
	}
	return Metadata{Size: info.Size, Time: info.Duration()}, nil
}
