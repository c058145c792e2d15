package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"upload-service/internal/models"
	"upload-service/internal/uploads"
)

const (
	// multipartMemory is the part of a form kept in memory; the rest spills to temp files
	multipartMemory = 32 << 20
	// multipartOverhead allows for boundaries and the folder field on top of the file itself
	multipartOverhead = 1 << 20
	maxDeleteBody     = 64 << 10
)

// UploadHandler serves the upload, delete, list and health endpoints
type UploadHandler struct {
	responder
	service *uploads.Service
}

// NewUploadHandler creates a new upload handler
func NewUploadHandler(service *uploads.Service, production bool, logger *slog.Logger) *UploadHandler {
	return &UploadHandler{
		responder: responder{production: production, logger: logger},
		service:   service,
	}
}

// HandleUpload handles POST /upload requests
func (h *UploadHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	limit := h.service.MaxUploadBytes()
	if limit > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, limit+multipartOverhead)
	}

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.respondError(w, r, uploads.NewError(uploads.KindPayloadTooLarge, "File exceeds the maximum upload size", err))
			return
		}
		h.respondError(w, r, uploads.NewError(uploads.KindMissingFile, "No file uploaded", err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		h.respondError(w, r, uploads.NewError(uploads.KindMissingFile, "No file uploaded", err))
		return
	}
	defer file.Close()

	stored, err := h.service.Upload(r.Context(), uploads.UploadInput{
		Folder:       r.FormValue("folder"),
		OriginalName: header.Filename,
		ContentType:  header.Header.Get("Content-Type"),
		Size:         header.Size,
		Body:         file,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, models.UploadResponse{
		Success:      true,
		FilePath:     stored.Path,
		FileName:     stored.Name,
		OriginalName: stored.OriginalName,
		Size:         stored.Size,
		Folder:       stored.Folder,
	})
}

// HandleDelete handles POST /delete requests with a JSON {"filePath": ...} body
func (h *UploadHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	var req models.DeleteRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxDeleteBody)).Decode(&req); err != nil {
		h.respondError(w, r, uploads.NewError(uploads.KindMissingPath, "File path is required", err))
		return
	}

	if err := h.service.Delete(r.Context(), req.FilePath); err != nil {
		h.respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, models.DeleteResponse{Success: true})
}

// HandleList handles GET /list and GET /list/{folder} requests
func (h *UploadHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	folder := mux.Vars(r)["folder"]

	files, err := h.service.List(r.Context(), folder)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	entries := make([]models.FileEntry, 0, len(files))
	for _, f := range files {
		entries = append(entries, f.Entry())
	}
	respondJSON(w, http.StatusOK, models.ListResponse{Files: entries})
}

// HandleHealth handles GET /health requests
func (h *UploadHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.service.Health())
}
