package storage

import (
	"errors"
	"io"
	"io/fs"

	"upload-service/internal/models"
)

var (
	ErrNotFound        = errors.New("file not found")
	ErrNotAFile        = errors.New("path is not a regular file")
	ErrPathEscapesRoot = errors.New("path escapes upload root")
	ErrTooLarge        = errors.New("file exceeds size limit")
)

// Storage defines the interface for operations on the upload root.
// Folders and paths are always relative to the root and use forward slashes.
type Storage interface {
	// EnsureFolder creates the folder and any missing ancestors. Existing folders are not an error.
	EnsureFolder(folder string) error
	// Save writes body to <folder>/<name>, rejecting bodies longer than maxBytes (<= 0 means unlimited)
	Save(folder, name string, body io.Reader, maxBytes int64) (*models.StoredFile, error)
	// Delete removes a single stored file
	Delete(relPath string) error
	// List returns the regular files directly inside folder; a missing folder yields no entries
	List(folder string) ([]models.StoredFile, error)
	// Open opens a stored file for reading
	Open(relPath string) (File, fs.FileInfo, error)
	// Root returns the absolute upload root
	Root() string
}

// File is a readable, seekable stored file
type File interface {
	io.ReadSeekCloser
}
