package models

import "time"

// StoredFile describes a file persisted under the upload root.
// Its identity is (Folder, Name); Path is the root-relative "<folder>/<name>".
type StoredFile struct {
	Folder       string    `json:"folder"`
	Name         string    `json:"name"`
	OriginalName string    `json:"originalName,omitempty"`
	Path         string    `json:"path"`
	Size         int64     `json:"size"`
	Created      time.Time `json:"created"`
	Modified     time.Time `json:"modified"`
}

// UploadResponse represents the response after a successful upload
type UploadResponse struct {
	Success      bool   `json:"success"`
	FilePath     string `json:"filePath"`
	FileName     string `json:"fileName"`
	OriginalName string `json:"originalName"`
	Size         int64  `json:"size"`
	Folder       string `json:"folder"`
}

// DeleteRequest represents the request body for file deletion
type DeleteRequest struct {
	FilePath string `json:"filePath"`
}

// DeleteResponse represents the response after a successful delete
type DeleteResponse struct {
	Success bool `json:"success"`
}

// FileEntry is one item of a folder listing
type FileEntry struct {
	Name     string    `json:"name"`
	Path     string    `json:"path"`
	Size     int64     `json:"size"`
	Created  time.Time `json:"created"`
	Modified time.Time `json:"modified"`
}

// ListResponse represents a folder listing
type ListResponse struct {
	Files []FileEntry `json:"files"`
}

// HealthResponse represents the health check payload
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message"`
}

// FileEvent is published whenever a stored file is created or removed
type FileEvent struct {
	Type      string    `json:"type"` // "upload" or "delete"
	Folder    string    `json:"folder"`
	FileName  string    `json:"fileName"`
	Path      string    `json:"path"`
	Size      int64     `json:"size,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

const (
	EventUpload = "upload"
	EventDelete = "delete"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error     string `json:"error"`
	Kind      string `json:"kind,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// Entry converts a stored file into its listing form
func (f StoredFile) Entry() FileEntry {
	return FileEntry{
		Name:     f.Name,
		Path:     f.Path,
		Size:     f.Size,
		Created:  f.Created,
		Modified: f.Modified,
	}
}
