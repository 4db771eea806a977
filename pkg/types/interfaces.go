package types

import (
	"io"
	"io/fs"
)

// FS abstracts filesystem operations for testing
type FS interface {
	// File operations
	Stat(name string) (fs.FileInfo, error)
	ReadFile(name string) ([]byte, error)
	WriteFile(name string, data []byte, perm fs.FileMode) error

	// Directory operations
	MkdirAll(path string, perm fs.FileMode) error
	ReadDir(name string) ([]fs.DirEntry, error)

	// Other operations
	Remove(name string) error
	Rename(oldpath, newpath string) error
	Chmod(name string, mode fs.FileMode) error

	// CreateTemp creates a new temporary file in dir, opened for writing.
	// Atomic replaces write through a temp file in the target's directory.
	CreateTemp(dir, pattern string) (File, error)
}

// File is the writable handle returned by FS.CreateTemp.
type File interface {
	io.Writer
	Sync() error
	Close() error
	Name() string
}
