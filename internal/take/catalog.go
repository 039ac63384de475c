package take

import (
	"bytes"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Catalog is the persistent mapping from take name to metadata. Every
// mutation rewrites the full document. The catalog performs no locking
// of its own; callers serialize access through the shared file lock
// that also guards the working-take asset.
type Catalog struct {
	path    string
	entries map[string]Metadata
}

// LoadCatalog reads the catalog document at path. A missing or empty
// document yields a valid empty catalog; a document that fails to
// parse yields a CatalogCorruptError.
func LoadCatalog(path string) (*Catalog, error) {
	c := &Catalog{path: path, entries: make(map[string]Metadata)}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return c, nil
		}
		return nil, &StorageError{Op: "read", Path: path, Err: err}
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return c, nil
	}

	var entries map[string]Metadata
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, &CatalogCorruptError{Path: path, Err: err}
	}
	if entries != nil {
		c.entries = entries
	}
	return c, nil
}

// Get returns the metadata stored under name.
func (c *Catalog) Get(name string) (Metadata, bool) {
	md, ok := c.entries[name]
	return md, ok
}

// Has reports whether name has a catalog entry.
func (c *Catalog) Has(name string) bool {
	_, ok := c.entries[name]
	return ok
}

// Set stores metadata under name and persists the document.
func (c *Catalog) Set(name string, md Metadata) error {
	c.entries[name] = md
	return c.persist()
}

// Remove deletes the entry for name and persists the document.
func (c *Catalog) Remove(name string) error {
	delete(c.entries, name)
	return c.persist()
}

// Snapshot returns a copy of all entries.
func (c *Catalog) Snapshot() map[string]Metadata {
	out := make(map[string]Metadata, len(c.entries))
	for name, md := range c.entries {
		out[name] = md
	}
	return out
}

// persist rewrites the document via a temp file and atomic rename so a
// crash mid-write cannot leave a corrupt catalog behind.
func (c *Catalog) persist() error {
	data, err := yaml.Marshal(c.entries)
	if err != nil {
		return &StorageError{Op: "encode", Path: c.path, Err: err}
	}

	tmp, err := os.CreateTemp(filepath.Dir(c.path), ".takes-*.yaml")
	if err != nil {
		return &StorageError{Op: "create", Path: c.path, Err: err}
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return &StorageError{Op: "write", Path: c.path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return &StorageError{Op: "write", Path: c.path, Err: err}
	}
	if err := os.Rename(tmp.Name(), c.path); err != nil {
		os.Remove(tmp.Name())
		return &StorageError{Op: "rename", Path: c.path, Err: err}
	}
	return nil
}
