package uploads

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"upload-service/internal/logging"
	"upload-service/internal/models"
	"upload-service/internal/storage"
)

const testLimit = 1024

type recordingPublisher struct {
	mu     sync.Mutex
	events []models.FileEvent
	err    error
}

func (p *recordingPublisher) PublishEvent(_ context.Context, event models.FileEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func setupTestService(t *testing.T) (*Service, *storage.LocalStorage, *recordingPublisher) {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir(), "uploads", "uploads/logos", "uploads/gallery", "uploads/team")
	require.NoError(t, err)
	events := &recordingPublisher{}
	return NewService(store, events, testLimit, logging.Discard()), store, events
}

func imageInput(folder, name string, data []byte) UploadInput {
	return UploadInput{
		Folder:       folder,
		OriginalName: name,
		ContentType:  "image/png",
		Size:         int64(len(data)),
		Body:         bytes.NewReader(data),
	}
}

func TestService_Upload(t *testing.T) {
	svc, store, events := setupTestService(t)
	data := []byte("fake png bytes")

	stored, err := svc.Upload(context.Background(), imageInput("uploads/logos", "logo.png", data))
	require.NoError(t, err)

	assert.Equal(t, "uploads/logos", stored.Folder)
	assert.Equal(t, "logo.png", stored.OriginalName)
	assert.Equal(t, int64(len(data)), stored.Size)
	assert.Equal(t, "uploads/logos/"+stored.Name, stored.Path)
	assert.Regexp(t, `^logo_\d+_[0-9a-z]{10}\.png$`, stored.Name)

	onDisk, err := os.ReadFile(filepath.Join(store.Root(), filepath.FromSlash(stored.Path)))
	require.NoError(t, err)
	assert.Equal(t, data, onDisk)

	require.Len(t, events.events, 1)
	assert.Equal(t, models.EventUpload, events.events[0].Type)
	assert.Equal(t, stored.Path, events.events[0].Path)
}

func TestService_Upload_DefaultFolder(t *testing.T) {
	svc, _, _ := setupTestService(t)

	stored, err := svc.Upload(context.Background(), imageInput("", "a.png", []byte("a")))
	require.NoError(t, err)
	assert.Equal(t, DefaultFolder, stored.Folder)
	assert.True(t, strings.HasPrefix(stored.Path, "uploads/"))
}

func TestService_Upload_NotIdempotent(t *testing.T) {
	svc, _, _ := setupTestService(t)

	first, err := svc.Upload(context.Background(), imageInput("gallery", "a.png", []byte("same")))
	require.NoError(t, err)
	second, err := svc.Upload(context.Background(), imageInput("gallery", "a.png", []byte("same")))
	require.NoError(t, err)

	assert.NotEqual(t, first.Path, second.Path)
	files, err := svc.List(context.Background(), "gallery")
	require.NoError(t, err)
	assert.Len(t, files, 2)
}

func TestService_Upload_ConcurrentNamesDistinct(t *testing.T) {
	svc, _, _ := setupTestService(t)
	const n = 128

	var wg sync.WaitGroup
	paths := make([]string, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			stored, err := svc.Upload(context.Background(), imageInput("uploads/gallery", "photo.jpg", []byte(fmt.Sprintf("img-%d", i))))
			errs[i] = err
			if err == nil {
				paths[i] = stored.Path
			}
		}(i)
	}
	wg.Wait()

	seen := make(map[string]bool, n)
	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		assert.False(t, seen[paths[i]], "duplicate path %s", paths[i])
		seen[paths[i]] = true
	}

	files, err := svc.List(context.Background(), "uploads/gallery")
	require.NoError(t, err)
	assert.Len(t, files, n)
}

func TestService_Upload_ExtensionPreserved(t *testing.T) {
	svc, _, _ := setupTestService(t)

	stored, err := svc.Upload(context.Background(), imageInput("uploads", "photo.JPG", []byte("jpg")))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(stored.Name, ".JPG"), stored.Name)
}

func TestService_Upload_RejectsNonImage(t *testing.T) {
	svc, store, events := setupTestService(t)
	in := imageInput("uploads", "notes.txt", []byte("hello"))
	in.ContentType = "text/plain"

	_, err := svc.Upload(context.Background(), in)

	require.Error(t, err)
	assert.Equal(t, KindInvalidFileType, KindOf(err))
	entries, err := os.ReadDir(filepath.Join(store.Root(), "uploads"))
	require.NoError(t, err)
	for _, e := range entries {
		assert.True(t, e.IsDir(), "unexpected file %s", e.Name())
	}
	assert.Empty(t, events.events)
}

func TestService_Upload_MissingFile(t *testing.T) {
	svc, _, _ := setupTestService(t)

	_, err := svc.Upload(context.Background(), UploadInput{ContentType: "image/png"})
	assert.Equal(t, KindMissingFile, KindOf(err))
}

func TestService_Upload_TooLarge(t *testing.T) {
	svc, _, _ := setupTestService(t)
	big := make([]byte, testLimit+1)

	t.Run("declared size", func(t *testing.T) {
		_, err := svc.Upload(context.Background(), imageInput("team", "big.png", big))
		assert.Equal(t, KindPayloadTooLarge, KindOf(err))
	})

	t.Run("unknown size", func(t *testing.T) {
		in := imageInput("team", "big.png", big)
		in.Size = -1
		_, err := svc.Upload(context.Background(), in)
		assert.Equal(t, KindPayloadTooLarge, KindOf(err))
	})

	files, err := svc.List(context.Background(), "team")
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestService_List_MissingFolder(t *testing.T) {
	svc, _, _ := setupTestService(t)

	files, err := svc.List(context.Background(), "nonexistent")
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestService_Delete_NotFound(t *testing.T) {
	svc, _, events := setupTestService(t)

	err := svc.Delete(context.Background(), "uploads/doesnotexist.png")

	assert.Equal(t, KindNotFound, KindOf(err))
	assert.Empty(t, events.events)
}

func TestService_Delete_MissingPath(t *testing.T) {
	svc, _, _ := setupTestService(t)

	assert.Equal(t, KindMissingPath, KindOf(svc.Delete(context.Background(), "")))
	assert.Equal(t, KindMissingPath, KindOf(svc.Delete(context.Background(), "   ")))
}

func TestService_RoundTrip(t *testing.T) {
	svc, _, events := setupTestService(t)
	ctx := context.Background()
	data := []byte("team member photo")

	stored, err := svc.Upload(ctx, imageInput("team", "jane.png", data))
	require.NoError(t, err)

	files, err := svc.List(ctx, "team")
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, stored.Path, files[0].Path)
	assert.Equal(t, int64(len(data)), files[0].Size)

	require.NoError(t, svc.Delete(ctx, stored.Path))

	files, err = svc.List(ctx, "team")
	require.NoError(t, err)
	assert.Empty(t, files)

	require.Len(t, events.events, 2)
	assert.Equal(t, models.EventDelete, events.events[1].Type)
	assert.Equal(t, "team", events.events[1].Folder)
	assert.Equal(t, stored.Name, events.events[1].FileName)
}

func TestService_RejectsTraversal(t *testing.T) {
	svc, store, _ := setupTestService(t)
	ctx := context.Background()

	assert.Equal(t, KindInvalidPath, KindOf(svc.Delete(ctx, "../../etc/passwd")))
	assert.Equal(t, KindInvalidPath, KindOf(svc.Delete(ctx, "/etc/passwd")))

	_, err := svc.Upload(ctx, imageInput("../outside", "x.png", []byte("x")))
	assert.Equal(t, KindInvalidPath, KindOf(err))
	_, statErr := os.Stat(filepath.Join(filepath.Dir(store.Root()), "outside"))
	assert.True(t, os.IsNotExist(statErr))

	_, err = svc.List(ctx, "../")
	assert.Equal(t, KindInvalidPath, KindOf(err))
}

func TestService_DeleteDirectoryRejected(t *testing.T) {
	svc, _, _ := setupTestService(t)

	err := svc.Delete(context.Background(), "uploads/team")
	assert.Equal(t, KindInvalidPath, KindOf(err))
}

func TestService_StorageFailure(t *testing.T) {
	diskErr := errors.New("disk full")
	mock := &storage.MockStorage{
		SaveFunc: func(string, string, io.Reader, int64) (*models.StoredFile, error) {
			return nil, diskErr
		},
		DeleteFunc: func(string) error { return diskErr },
		ListFunc:   func(string) ([]models.StoredFile, error) { return nil, diskErr },
	}
	svc := NewService(mock, nil, testLimit, logging.Discard())
	ctx := context.Background()

	_, err := svc.Upload(ctx, imageInput("uploads", "a.png", []byte("a")))
	assert.Equal(t, KindStorageFailure, KindOf(err))
	assert.ErrorIs(t, err, diskErr)
	assert.Contains(t, err.Error(), "disk full")

	assert.Equal(t, KindStorageFailure, KindOf(svc.Delete(ctx, "uploads/a.png")))

	_, err = svc.List(ctx, "uploads")
	assert.Equal(t, KindStorageFailure, KindOf(err))
}

func TestService_PublishFailureDoesNotFailUpload(t *testing.T) {
	svc, _, events := setupTestService(t)
	events.err = errors.New("redis down")

	_, err := svc.Upload(context.Background(), imageInput("uploads", "a.png", []byte("a")))
	assert.NoError(t, err)
}

func TestService_Health(t *testing.T) {
	svc, _, _ := setupTestService(t)

	health := svc.Health()
	assert.Equal(t, "OK", health.Status)
	assert.NotEmpty(t, health.Message)
	assert.False(t, health.Timestamp.IsZero())
}

func TestKindOf_Unclassified(t *testing.T) {
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
	assert.Equal(t, KindNotFound, KindOf(fmt.Errorf("wrapped: %w", notFound("x"))))
}
