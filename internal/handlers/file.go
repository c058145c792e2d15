package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"os"
	"path"
	"path/filepath"

	"github.com/gorilla/mux"

	"upload-service/internal/storage"
	"upload-service/internal/uploads"
)

// storedFileCSP keeps uploaded SVGs from running scripts when opened directly
const storedFileCSP = "default-src 'none'; img-src 'self'; style-src 'unsafe-inline'; sandbox"

// FileHandler serves stored files from the upload root
type FileHandler struct {
	responder
	storage storage.Storage
}

// NewFileHandler creates a new file handler
func NewFileHandler(store storage.Storage, production bool, logger *slog.Logger) *FileHandler {
	return &FileHandler{
		responder: responder{production: production, logger: logger},
		storage:   store,
	}
}

// HandleGetFile handles GET /files/{path} - streams a stored file
func (h *FileHandler) HandleGetFile(w http.ResponseWriter, r *http.Request) {
	relPath := mux.Vars(r)["path"]

	f, info, err := h.storage.Open(relPath)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrPathEscapesRoot):
			h.respondError(w, r, uploads.NewError(uploads.KindInvalidPath, "Invalid path", err))
		case errors.Is(err, storage.ErrNotFound):
			h.respondError(w, r, uploads.NewError(uploads.KindNotFound, "File not found", err))
		default:
			h.respondError(w, r, uploads.NewError(uploads.KindStorageFailure, "Failed to read file", err))
		}
		return
	}
	defer f.Close()

	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Content-Security-Policy", storedFileCSP)
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
}

// frontendHandler serves a built single-page frontend, answering unknown
// paths with index.html so client-side routes survive a reload.
type frontendHandler struct {
	dir        string
	fileServer http.Handler
}

func newFrontendHandler(dir string) *frontendHandler {
	return &frontendHandler{dir: dir, fileServer: http.FileServer(http.Dir(dir))}
}

func (h *frontendHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	clean := path.Clean("/" + r.URL.Path)
	info, err := os.Stat(filepath.Join(h.dir, filepath.FromSlash(clean)))
	if err == nil && !info.IsDir() {
		h.fileServer.ServeHTTP(w, r)
		return
	}
	http.ServeFile(w, r, filepath.Join(h.dir, "index.html"))
}
