package uploads

import (
	"errors"
	"fmt"
)

// Kind classifies a service failure
type Kind string

const (
	KindMissingFile     Kind = "MissingFile"
	KindInvalidFileType Kind = "InvalidFileType"
	KindPayloadTooLarge Kind = "PayloadTooLarge"
	KindMissingPath     Kind = "MissingPath"
	KindInvalidPath     Kind = "InvalidPath"
	KindNotFound        Kind = "NotFound"
	KindStorageFailure  Kind = "StorageFailure"
	KindInternal        Kind = "Internal"
)

// Error is returned by every Service operation that fails
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of err, or KindInternal for errors the service did not classify
func KindOf(err error) Kind {
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return svcErr.Kind
	}
	return KindInternal
}

// NewError builds a classified service error
func NewError(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

func missingFile() *Error {
	return NewError(KindMissingFile, "No file uploaded", nil)
}

func invalidFileType(contentType string) *Error {
	return NewError(KindInvalidFileType, fmt.Sprintf("Only image files are allowed, got %q", contentType), nil)
}

func payloadTooLarge(limit int64) *Error {
	return NewError(KindPayloadTooLarge, fmt.Sprintf("File exceeds the maximum upload size of %d bytes", limit), nil)
}

func missingPath() *Error {
	return NewError(KindMissingPath, "File path is required", nil)
}

func invalidPath(p string, err error) *Error {
	return NewError(KindInvalidPath, fmt.Sprintf("Invalid path %q", p), err)
}

func notFound(p string) *Error {
	return NewError(KindNotFound, fmt.Sprintf("File not found: %s", p), nil)
}

func storageFailure(msg string, err error) *Error {
	return NewError(KindStorageFailure, msg, err)
}
