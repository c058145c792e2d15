package storage

import (
	"io"
	"io/fs"

	"upload-service/internal/models"
)

// MockStorage is a mock implementation of Storage for testing
type MockStorage struct {
	EnsureFolderFunc func(folder string) error
	SaveFunc         func(folder, name string, body io.Reader, maxBytes int64) (*models.StoredFile, error)
	DeleteFunc       func(relPath string) error
	ListFunc         func(folder string) ([]models.StoredFile, error)
	OpenFunc         func(relPath string) (File, fs.FileInfo, error)
	RootFunc         func() string
}

func (m *MockStorage) EnsureFolder(folder string) error {
	if m.EnsureFolderFunc != nil {
		return m.EnsureFolderFunc(folder)
	}
	return nil
}

func (m *MockStorage) Save(folder, name string, body io.Reader, maxBytes int64) (*models.StoredFile, error) {
	if m.SaveFunc != nil {
		return m.SaveFunc(folder, name, body, maxBytes)
	}
	return &models.StoredFile{Folder: folder, Name: name, Path: folder + "/" + name}, nil
}

func (m *MockStorage) Delete(relPath string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(relPath)
	}
	return nil
}

func (m *MockStorage) List(folder string) ([]models.StoredFile, error) {
	if m.ListFunc != nil {
		return m.ListFunc(folder)
	}
	return []models.StoredFile{}, nil
}

func (m *MockStorage) Open(relPath string) (File, fs.FileInfo, error) {
	if m.OpenFunc != nil {
		return m.OpenFunc(relPath)
	}
	return nil, nil, ErrNotFound
}

func (m *MockStorage) Root() string {
	if m.RootFunc != nil {
		return m.RootFunc()
	}
	return ""
}
