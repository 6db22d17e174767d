// Package storage is the file-system abstraction over the output tree.
package storage

import "time"

// Entry describes one document in the output tree.
type Entry struct {
	Path      string
	Checksum  string
	UpdatedAt time.Time
}

// Provider is the interface for output tree file operations. All paths are
// slash-separated and relative to the tree root.
type Provider interface {
	// List returns every .md file under dir.
	List(dir string) ([]Entry, error)
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Write atomically writes content to path, creating parent directories.
	Write(path string, content []byte) error
	// Delete removes the file at path. A missing file yields an error
	// matching fs.ErrNotExist.
	Delete(path string) error
}
