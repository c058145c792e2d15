package storage

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"syscall"

	"upload-service/internal/models"
)

// tempPrefix marks in-flight uploads; List never reports them.
const tempPrefix = ".upload-"

// LocalStorage implements Storage interface using local filesystem
type LocalStorage struct {
	root string
}

// NewLocalStorage creates the upload root and the given folders beneath it
func NewLocalStorage(root string, folders ...string) (*LocalStorage, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve storage root: %w", err)
	}

	// Create base directory if it doesn't exist
	if err := os.MkdirAll(abs, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	ls := &LocalStorage{root: abs}
	for _, folder := range folders {
		if err := ls.EnsureFolder(folder); err != nil {
			return nil, err
		}
	}
	return ls, nil
}

// Root returns the absolute upload root
func (ls *LocalStorage) Root() string {
	return ls.root
}

// CleanRelative validates a caller-supplied root-relative path and returns it
// in canonical slash form. Absolute paths, ".." segments, backslashes and NUL
// bytes are rejected with ErrPathEscapesRoot.
func CleanRelative(rel string) (string, error) {
	if rel == "" {
		return "", ErrPathEscapesRoot
	}
	if strings.ContainsAny(rel, "\\\x00") || strings.HasPrefix(rel, "/") || filepath.IsAbs(rel) {
		return "", ErrPathEscapesRoot
	}
	for _, segment := range strings.Split(rel, "/") {
		if segment == ".." {
			return "", ErrPathEscapesRoot
		}
	}

	cleaned := path.Clean(rel)
	if cleaned == "." {
		return "", ErrPathEscapesRoot
	}
	return cleaned, nil
}

// resolve maps a root-relative path to an absolute path that is guaranteed to
// lie strictly beneath the root.
func (ls *LocalStorage) resolve(rel string) (string, string, error) {
	cleaned, err := CleanRelative(rel)
	if err != nil {
		return "", "", err
	}

	full := filepath.Join(ls.root, filepath.FromSlash(cleaned))
	within, err := filepath.Rel(ls.root, full)
	if err != nil || within == "." || within == ".." || strings.HasPrefix(within, ".."+string(filepath.Separator)) {
		return "", "", ErrPathEscapesRoot
	}
	return full, cleaned, nil
}

// EnsureFolder creates the folder and any missing ancestors
func (ls *LocalStorage) EnsureFolder(folder string) error {
	dir, _, err := ls.resolve(folder)
	if err != nil {
		return err
	}
	// MkdirAll treats an existing directory as success, so concurrent creators don't race
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	return nil
}

// Save writes the body to a temporary file in the destination folder and
// renames it into place once the whole body has been accepted.
func (ls *LocalStorage) Save(folder, name string, body io.Reader, maxBytes int64) (*models.StoredFile, error) {
	if name == "" || name != filepath.Base(name) || strings.ContainsAny(name, "/\\\x00") || name == "." || name == ".." {
		return nil, fmt.Errorf("invalid file name %q: %w", name, ErrPathEscapesRoot)
	}

	dir, cleanFolder, err := ls.resolve(folder)
	if err != nil {
		return nil, err
	}
	if err := ls.EnsureFolder(cleanFolder); err != nil {
		return nil, err
	}

	tmp, err := os.CreateTemp(dir, tempPrefix+"*")
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			tmp.Close()
			os.Remove(tmpName)
		}
	}()

	reader := body
	if maxBytes > 0 {
		reader = io.LimitReader(body, maxBytes+1)
	}
	written, err := io.Copy(tmp, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to write file: %w", err)
	}
	if maxBytes > 0 && written > maxBytes {
		return nil, ErrTooLarge
	}

	if err := tmp.Sync(); err != nil {
		return nil, fmt.Errorf("failed to sync file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("failed to close file: %w", err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		return nil, fmt.Errorf("failed to set file mode: %w", err)
	}

	finalPath := filepath.Join(dir, name)
	if err := os.Rename(tmpName, finalPath); err != nil {
		return nil, fmt.Errorf("failed to move file into place: %w", err)
	}
	committed = true

	info, err := os.Stat(finalPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	stored := storedFile(cleanFolder, info)
	return &stored, nil
}

// Delete removes a stored file by its root-relative path
func (ls *LocalStorage) Delete(relPath string) error {
	full, cleaned, err := ls.resolve(relPath)
	if err != nil {
		return err
	}
	if isTemp(cleaned) {
		return ErrNotFound
	}

	info, err := os.Lstat(full)
	if errors.Is(err, fs.ErrNotExist) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to stat file: %w", err)
	}
	if info.IsDir() {
		return ErrNotAFile
	}

	if err := os.Remove(full); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// List returns the regular files directly inside folder
func (ls *LocalStorage) List(folder string) ([]models.StoredFile, error) {
	dir, cleanFolder, err := ls.resolve(folder)
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) || errors.Is(err, syscall.ENOTDIR) {
		return []models.StoredFile{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	files := make([]models.StoredFile, 0, len(entries))
	for _, entry := range entries {
		if !entry.Type().IsRegular() || isTemp(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			// Removed between ReadDir and Info by a concurrent delete
			continue
		}
		files = append(files, storedFile(cleanFolder, info))
	}
	return files, nil
}

// Open opens a stored file for reading
func (ls *LocalStorage) Open(relPath string) (File, fs.FileInfo, error) {
	full, cleaned, err := ls.resolve(relPath)
	if err != nil {
		return nil, nil, err
	}
	if isTemp(cleaned) {
		return nil, nil, ErrNotFound
	}

	f, err := os.Open(full)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil, ErrNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open file: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("failed to stat file: %w", err)
	}
	if !info.Mode().IsRegular() {
		f.Close()
		return nil, nil, ErrNotFound
	}
	return f, info, nil
}

// isTemp reports whether the last element of p names an in-flight upload
func isTemp(p string) bool {
	return strings.HasPrefix(path.Base(p), tempPrefix)
}

// storedFile builds the metadata for a file inside folder. Stored files are
// written once and never modified, so the modification time doubles as the
// creation time.
func storedFile(folder string, info fs.FileInfo) models.StoredFile {
	return models.StoredFile{
		Folder:   folder,
		Name:     info.Name(),
		Path:     path.Join(folder, info.Name()),
		Size:     info.Size(),
		Created:  info.ModTime(),
		Modified: info.ModTime(),
	}
}
