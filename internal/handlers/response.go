package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"upload-service/internal/models"
	"upload-service/internal/uploads"
)

const genericInternalMessage = "Internal server error"

var statusByKind = map[uploads.Kind]int{
	uploads.KindMissingFile:     http.StatusBadRequest,
	uploads.KindInvalidFileType: http.StatusBadRequest,
	uploads.KindMissingPath:     http.StatusBadRequest,
	uploads.KindInvalidPath:     http.StatusBadRequest,
	uploads.KindNotFound:        http.StatusNotFound,
	uploads.KindPayloadTooLarge: http.StatusRequestEntityTooLarge,
	uploads.KindStorageFailure:  http.StatusInternalServerError,
	uploads.KindInternal:        http.StatusInternalServerError,
}

// StatusForKind maps an error kind to its HTTP status code
func StatusForKind(kind uploads.Kind) int {
	if code, ok := statusByKind[kind]; ok {
		return code
	}
	return http.StatusInternalServerError
}

// responder renders JSON bodies. In production, messages of 5xx errors are
// replaced so filesystem layout does not leak to clients.
type responder struct {
	production bool
	logger     *slog.Logger
}

func respondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

func (rs responder) respondError(w http.ResponseWriter, r *http.Request, err error) {
	kind := uploads.KindOf(err)
	code := StatusForKind(kind)
	requestID := RequestIDFromContext(r.Context())

	message := err.Error()
	if code >= http.StatusInternalServerError {
		rs.logger.ErrorContext(r.Context(), "request failed",
			"request_id", requestID,
			"status", code,
			"kind", string(kind),
			"error", err)
		if rs.production {
			message = genericInternalMessage
		}
	} else {
		rs.logger.WarnContext(r.Context(), "client error",
			"request_id", requestID,
			"status", code,
			"kind", string(kind),
			"error", err)
	}

	respondJSON(w, code, models.ErrorResponse{
		Error:     message,
		Kind:      string(kind),
		RequestID: requestID,
	})
}

// respondStatus writes an error body for failures outside the service taxonomy (404 route, 405, 429)
func respondStatus(w http.ResponseWriter, r *http.Request, code int, message string) {
	respondJSON(w, code, models.ErrorResponse{
		Error:     message,
		RequestID: RequestIDFromContext(r.Context()),
	})
}
