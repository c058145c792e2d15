package uploads

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"time"

	"upload-service/internal/models"
	"upload-service/internal/storage"
)

// DefaultFolder is used when a caller does not name a folder
const DefaultFolder = "uploads"

// EventPublisher receives a notification for every stored or deleted file
type EventPublisher interface {
	PublishEvent(ctx context.Context, event models.FileEvent) error
}

// UploadInput describes one file received from a client
type UploadInput struct {
	Folder       string
	OriginalName string
	ContentType  string
	// Size is the client-declared size; negative when unknown
	Size int64
	Body io.Reader
}

// Service implements upload, delete, list and health over a Storage
type Service struct {
	storage        storage.Storage
	events         EventPublisher
	maxUploadBytes int64
	logger         *slog.Logger
	now            func() time.Time
}

// NewService creates a new upload service. events may be nil.
func NewService(store storage.Storage, events EventPublisher, maxUploadBytes int64, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		storage:        store,
		events:         events,
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
		now:            time.Now,
	}
}

// MaxUploadBytes returns the configured size limit
func (s *Service) MaxUploadBytes() int64 {
	return s.maxUploadBytes
}

// Upload validates and stores a single image under a freshly generated name
func (s *Service) Upload(ctx context.Context, in UploadInput) (*models.StoredFile, error) {
	if in.Body == nil {
		return nil, missingFile()
	}
	if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(in.ContentType)), "image/") {
		return nil, invalidFileType(in.ContentType)
	}
	if s.maxUploadBytes > 0 && in.Size > s.maxUploadBytes {
		return nil, payloadTooLarge(s.maxUploadBytes)
	}

	folder := in.Folder
	if folder == "" {
		folder = DefaultFolder
	}
	if _, err := storage.CleanRelative(folder); err != nil {
		return nil, invalidPath(folder, err)
	}

	name := GenerateName(in.OriginalName, s.now())
	stored, err := s.storage.Save(folder, name, in.Body, s.maxUploadBytes)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrTooLarge):
			return nil, payloadTooLarge(s.maxUploadBytes)
		case errors.Is(err, storage.ErrPathEscapesRoot):
			return nil, invalidPath(folder, err)
		default:
			return nil, storageFailure("Failed to store file", err)
		}
	}
	stored.OriginalName = in.OriginalName

	s.logger.InfoContext(ctx, "file uploaded",
		"path", stored.Path,
		"original_name", in.OriginalName,
		"size", stored.Size)

	s.publish(ctx, models.FileEvent{
		Type:      models.EventUpload,
		Folder:    stored.Folder,
		FileName:  stored.Name,
		Path:      stored.Path,
		Size:      stored.Size,
		Timestamp: s.now(),
	})

	return stored, nil
}

// Delete removes the stored file at the root-relative path
func (s *Service) Delete(ctx context.Context, relPath string) error {
	if strings.TrimSpace(relPath) == "" {
		return missingPath()
	}

	cleaned, err := storage.CleanRelative(relPath)
	if err != nil {
		return invalidPath(relPath, err)
	}

	if err := s.storage.Delete(cleaned); err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFound):
			return notFound(cleaned)
		case errors.Is(err, storage.ErrPathEscapesRoot), errors.Is(err, storage.ErrNotAFile):
			return invalidPath(relPath, err)
		default:
			return storageFailure("Failed to delete file", err)
		}
	}

	s.logger.InfoContext(ctx, "file deleted", "path", cleaned)

	folder, name := splitPath(cleaned)
	s.publish(ctx, models.FileEvent{
		Type:      models.EventDelete,
		Folder:    folder,
		FileName:  name,
		Path:      cleaned,
		Timestamp: s.now(),
	})
	return nil
}

// List returns the stored files directly inside folder
func (s *Service) List(ctx context.Context, folder string) ([]models.StoredFile, error) {
	if folder == "" {
		folder = DefaultFolder
	}

	files, err := s.storage.List(folder)
	if err != nil {
		if errors.Is(err, storage.ErrPathEscapesRoot) {
			return nil, invalidPath(folder, err)
		}
		return nil, storageFailure("Failed to list files", err)
	}

	s.logger.DebugContext(ctx, "folder listed", "folder", folder, "count", len(files))
	return files, nil
}

// Health reports that the service is reachable
func (s *Service) Health() models.HealthResponse {
	return models.HealthResponse{
		Status:    "OK",
		Timestamp: s.now(),
		Message:   "Upload server is running",
	}
}

// publish forwards an event; failures are logged and never fail the caller
func (s *Service) publish(ctx context.Context, event models.FileEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishEvent(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to publish file event",
			"type", event.Type,
			"path", event.Path,
			"error", err)
	}
}

func splitPath(p string) (string, string) {
	i := strings.LastIndex(p, "/")
	if i < 0 {
		return "", p
	}
	return p[:i], p[i+1:]
}
