package utils

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies an AppError independently of its message.
type ErrorKind string

const (
	KindValidation ErrorKind = "validation"
	KindAuth       ErrorKind = "auth"
	KindNetwork    ErrorKind = "network"
	KindFetch      ErrorKind = "fetch"
	KindRetrieval  ErrorKind = "retrieval"
	KindNotFound   ErrorKind = "not_found"
	KindConflict   ErrorKind = "conflict"
	KindScan       ErrorKind = "scan"
	KindInternal   ErrorKind = "internal"
)

// AppError is the error type returned across service and component boundaries.
// StatusCode is the HTTP status handlers respond with.
type AppError struct {
	Kind       ErrorKind
	StatusCode int
	Message    string
	Cause      error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is matches another AppError of the same kind. A target with a message only
// matches errors carrying that exact message.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	return t.Message == "" || t.Message == e.Message
}

var (
	ErrNoFileSelected      = &AppError{Kind: KindValidation, StatusCode: http.StatusBadRequest, Message: "No file selected"}
	ErrUnsupportedFileType = &AppError{Kind: KindValidation, StatusCode: http.StatusBadRequest, Message: "Unsupported file type"}
	ErrUnauthorized        = &AppError{Kind: KindAuth, StatusCode: http.StatusUnauthorized, Message: "Authentication required"}
	ErrScanInProgress      = &AppError{Kind: KindConflict, StatusCode: http.StatusConflict, Message: "A scan is already in progress"}
)

func NewBadRequestError(message string) *AppError {
	return &AppError{Kind: KindValidation, StatusCode: http.StatusBadRequest, Message: message}
}

func NewUnauthorizedError(message string) *AppError {
	return &AppError{Kind: KindAuth, StatusCode: http.StatusUnauthorized, Message: message}
}

func NewNotFoundError(message string) *AppError {
	return &AppError{Kind: KindNotFound, StatusCode: http.StatusNotFound, Message: message}
}

func NewConflictError(message string) *AppError {
	return &AppError{Kind: KindConflict, StatusCode: http.StatusConflict, Message: message}
}

func NewInternalError(message string) *AppError {
	return &AppError{Kind: KindInternal, StatusCode: http.StatusInternalServerError, Message: message}
}

func NewNetworkError(message string, cause error) *AppError {
	return &AppError{Kind: KindNetwork, StatusCode: http.StatusBadGateway, Message: message, Cause: cause}
}

func NewFetchError(message string, cause error) *AppError {
	return &AppError{Kind: KindFetch, StatusCode: http.StatusBadGateway, Message: message, Cause: cause}
}

func NewRetrievalError(message string, cause error) *AppError {
	return &AppError{Kind: KindRetrieval, StatusCode: http.StatusNotFound, Message: message, Cause: cause}
}

// NewScanError reports a file that was stored but could not be processed.
func NewScanError(message string, cause error) *AppError {
	return &AppError{Kind: KindScan, StatusCode: http.StatusUnprocessableEntity, Message: message, Cause: cause}
}

// KindOf reports the kind of the first AppError in err's chain, or
// KindInternal when there is none.
func KindOf(err error) ErrorKind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// UserMessage returns the message safe to show to an end user.
func UserMessage(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "Internal server error"
}
