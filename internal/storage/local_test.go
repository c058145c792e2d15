package storage

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStorage(t *testing.T, folders ...string) *LocalStorage {
	t.Helper()
	storage, err := NewLocalStorage(t.TempDir(), folders...)
	require.NoError(t, err, "Failed to create storage")
	return storage
}

func TestNewLocalStorage_CreatesFolders(t *testing.T) {
	root := filepath.Join(t.TempDir(), "public")

	storage, err := NewLocalStorage(root, "uploads", "uploads/logos", "uploads/gallery", "uploads/team")
	require.NoError(t, err)

	assert.True(t, filepath.IsAbs(storage.Root()))
	for _, folder := range []string{"uploads", "uploads/logos", "uploads/gallery", "uploads/team"} {
		info, err := os.Stat(filepath.Join(root, filepath.FromSlash(folder)))
		require.NoError(t, err, "folder %s should exist", folder)
		assert.True(t, info.IsDir())
	}
}

func TestNewLocalStorage_RejectsEscapingFolder(t *testing.T) {
	_, err := NewLocalStorage(t.TempDir(), "../outside")
	assert.ErrorIs(t, err, ErrPathEscapesRoot)
}

func TestLocalStorage_Save(t *testing.T) {
	storage := newTestStorage(t)
	testData := []byte("test file content")

	stored, err := storage.Save("team", "alice_1_abc.png", bytes.NewReader(testData), 1024)
	require.NoError(t, err, "Save failed")

	assert.Equal(t, "team", stored.Folder)
	assert.Equal(t, "alice_1_abc.png", stored.Name)
	assert.Equal(t, "team/alice_1_abc.png", stored.Path)
	assert.Equal(t, int64(len(testData)), stored.Size)
	assert.False(t, stored.Modified.IsZero())

	data, err := os.ReadFile(filepath.Join(storage.Root(), "team", "alice_1_abc.png"))
	require.NoError(t, err)
	assert.Equal(t, testData, data)

	info, err := os.Stat(filepath.Join(storage.Root(), "team", "alice_1_abc.png"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0644), info.Mode().Perm())
}

func TestLocalStorage_Save_NestedFolder(t *testing.T) {
	storage := newTestStorage(t)

	stored, err := storage.Save("uploads/gallery/2024", "a.jpg", strings.NewReader("x"), 0)
	require.NoError(t, err)
	assert.Equal(t, "uploads/gallery/2024/a.jpg", stored.Path)
}

func TestLocalStorage_Save_TooLarge(t *testing.T) {
	storage := newTestStorage(t)

	_, err := storage.Save("uploads", "big.png", bytes.NewReader(make([]byte, 2048)), 1024)
	assert.ErrorIs(t, err, ErrTooLarge)

	entries, err := os.ReadDir(filepath.Join(storage.Root(), "uploads"))
	require.NoError(t, err)
	assert.Empty(t, entries, "no partial or temporary file may remain")
}

func TestLocalStorage_Save_ExactlyAtLimit(t *testing.T) {
	storage := newTestStorage(t)

	stored, err := storage.Save("uploads", "edge.png", bytes.NewReader(make([]byte, 1024)), 1024)
	require.NoError(t, err)
	assert.Equal(t, int64(1024), stored.Size)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, io.ErrUnexpectedEOF }

func TestLocalStorage_Save_ReadErrorLeavesNothing(t *testing.T) {
	storage := newTestStorage(t)

	_, err := storage.Save("uploads", "broken.png", failingReader{}, 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)

	entries, err := os.ReadDir(filepath.Join(storage.Root(), "uploads"))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestLocalStorage_Save_RejectsBadNames(t *testing.T) {
	storage := newTestStorage(t)

	for _, name := range []string{"", "..", "a/b.png", "..\\x.png"} {
		_, err := storage.Save("uploads", name, strings.NewReader("x"), 0)
		assert.ErrorIs(t, err, ErrPathEscapesRoot, "name %q", name)
	}
}

func TestLocalStorage_Delete(t *testing.T) {
	storage := newTestStorage(t)

	stored, err := storage.Save("logos", "logo.png", strings.NewReader("png"), 0)
	require.NoError(t, err)

	require.NoError(t, storage.Delete(stored.Path), "Delete failed")

	_, err = os.Stat(filepath.Join(storage.Root(), "logos", "logo.png"))
	assert.True(t, os.IsNotExist(err), "File still exists after delete")
}

func TestLocalStorage_Delete_Nonexistent(t *testing.T) {
	storage := newTestStorage(t)

	err := storage.Delete("uploads/doesnotexist.png")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLocalStorage_Delete_Directory(t *testing.T) {
	storage := newTestStorage(t, "uploads/team")

	err := storage.Delete("uploads/team")
	assert.ErrorIs(t, err, ErrNotAFile)

	_, statErr := os.Stat(filepath.Join(storage.Root(), "uploads", "team"))
	assert.NoError(t, statErr, "folders are never deleted")
}

func TestLocalStorage_List(t *testing.T) {
	storage := newTestStorage(t)

	_, err := storage.Save("gallery", "b.png", strings.NewReader("bb"), 0)
	require.NoError(t, err)
	_, err = storage.Save("gallery", "a.png", strings.NewReader("a"), 0)
	require.NoError(t, err)
	require.NoError(t, storage.EnsureFolder("gallery/nested"))
	require.NoError(t, os.WriteFile(filepath.Join(storage.Root(), "gallery", tempPrefix+"123"), []byte("partial"), 0600))

	files, err := storage.List("gallery")
	require.NoError(t, err)

	require.Len(t, files, 2, "directories and in-flight uploads are not listed")
	assert.Equal(t, "a.png", files[0].Name)
	assert.Equal(t, "gallery/a.png", files[0].Path)
	assert.Equal(t, int64(1), files[0].Size)
	assert.Equal(t, "b.png", files[1].Name)
	assert.Equal(t, int64(2), files[1].Size)
}

func TestLocalStorage_List_MissingFolder(t *testing.T) {
	storage := newTestStorage(t)

	files, err := storage.List("nonexistent")
	require.NoError(t, err)
	assert.NotNil(t, files)
	assert.Empty(t, files)
}

func TestLocalStorage_List_FolderIsFile(t *testing.T) {
	storage := newTestStorage(t, "uploads")
	_, err := storage.Save("uploads", "a.png", strings.NewReader("x"), 0)
	require.NoError(t, err)

	files, err := storage.List("uploads/a.png")
	require.NoError(t, err)
	assert.NotNil(t, files)
	assert.Empty(t, files)
}

func TestLocalStorage_Save_FolderIsFile(t *testing.T) {
	storage := newTestStorage(t, "uploads")
	_, err := storage.Save("uploads", "a.png", strings.NewReader("x"), 0)
	require.NoError(t, err)

	_, err = storage.Save("uploads/a.png", "b.png", strings.NewReader("y"), 0)
	assert.Error(t, err)

	info, err := os.Stat(filepath.Join(storage.Root(), "uploads", "a.png"))
	require.NoError(t, err)
	assert.False(t, info.IsDir())
}

func TestLocalStorage_InFlightUploadsHidden(t *testing.T) {
	storage := newTestStorage(t, "uploads")
	tmp := filepath.Join(storage.Root(), "uploads", tempPrefix+"123456")
	require.NoError(t, os.WriteFile(tmp, []byte("partial"), 0600))

	assert.ErrorIs(t, storage.Delete("uploads/"+tempPrefix+"123456"), ErrNotFound)
	_, _, err := storage.Open("uploads/" + tempPrefix + "123456")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = os.Stat(tmp)
	assert.NoError(t, err, "in-flight upload must survive a delete request")
}

func TestLocalStorage_Open(t *testing.T) {
	storage := newTestStorage(t)
	_, err := storage.Save("uploads", "a.png", strings.NewReader("image"), 0)
	require.NoError(t, err)

	f, info, err := storage.Open("uploads/a.png")
	require.NoError(t, err)
	defer f.Close()

	data, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, "image", string(data))
	assert.Equal(t, int64(5), info.Size())

	_, _, err = storage.Open("uploads")
	assert.ErrorIs(t, err, ErrNotFound)

	_, _, err = storage.Open("uploads/missing.png")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLocalStorage_RejectsTraversal(t *testing.T) {
	storage := newTestStorage(t)

	for _, rel := range []string{"../../etc/passwd", "/etc/passwd", "uploads/../../x", "..", ".", "", "a\\..\\b", "a\x00b"} {
		assert.ErrorIs(t, storage.Delete(rel), ErrPathEscapesRoot, "delete %q", rel)
		_, err := storage.List(rel)
		assert.ErrorIs(t, err, ErrPathEscapesRoot, "list %q", rel)
		_, err = storage.Save(rel, "x.png", strings.NewReader("x"), 0)
		assert.ErrorIs(t, err, ErrPathEscapesRoot, "save %q", rel)
	}
}

func TestCleanRelative(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"uploads", "uploads"},
		{"uploads/logos/", "uploads/logos"},
		{"uploads//team", "uploads/team"},
		{"./gallery", "gallery"},
	}
	for _, tt := range tests {
		got, err := CleanRelative(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestLocalStorage_EnsureFolder_Concurrent(t *testing.T) {
	storage := newTestStorage(t)

	var wg sync.WaitGroup
	errs := make(chan error, 50)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- storage.EnsureFolder("uploads/new/deep")
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
}
