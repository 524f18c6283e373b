package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType classifies failures raised below the HTTP layer
type ErrorType string

const (
	ErrTypeDataset    ErrorType = "DATASET"
	ErrTypeParsing    ErrorType = "PARSING"
	ErrTypeStorage    ErrorType = "STORAGE"
	ErrTypeValidation ErrorType = "VALIDATION"
	ErrTypeNotFound   ErrorType = "NOT_FOUND"
	ErrTypeConfig     ErrorType = "CONFIG"
)

// exposure describes how an ErrorType is reported to dashboard clients.
// Only public types reveal their message and context; the rest answer with
// a fixed detail.
type exposure struct {
	status      int
	problemType string
	title       string
	public      bool
	withCause   bool
	detail      string
}

var exposures = map[ErrorType]exposure{
	ErrTypeNotFound:   {status: http.StatusNotFound, problemType: TypeNotFound, title: "Resource Not Found", public: true},
	ErrTypeValidation: {status: http.StatusBadRequest, problemType: TypeValidation, title: "Validation Failed", public: true},
	ErrTypeDataset:    {status: http.StatusUnprocessableEntity, problemType: TypeDatasetCorrupted, title: "Dataset Unreadable", public: true, withCause: true},
	ErrTypeParsing:    {status: http.StatusUnprocessableEntity, problemType: TypeDatasetCorrupted, title: "Dataset Unreadable", public: true, withCause: true},
	ErrTypeConfig:     {status: http.StatusInternalServerError, problemType: TypeConfig, title: "Configuration Error", detail: "The server is misconfigured"},
}

var internalExposure = exposure{
	status:      http.StatusInternalServerError,
	problemType: TypeInternal,
	title:       "Internal Server Error",
	detail:      "An unexpected error occurred while processing your request",
}

func (t ErrorType) exposure() exposure {
	if e, ok := exposures[t]; ok {
		return e
	}
	return internalExposure
}

// AppError is a typed failure from the services. Context entries become
// problem extensions when the type is public.
type AppError struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]any
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

// WithContext records a key/value pair and returns e
func (e *AppError) WithContext(key string, value any) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// IsType reports whether err wraps an AppError of type t
func IsType(err error, t ErrorType) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Type == t
}

// NewAppError creates a new application error
func NewAppError(errType ErrorType, message string, cause error) *AppError {
	return &AppError{Type: errType, Message: message, Cause: cause}
}

// NewDatasetError reports a master dataset that exists but cannot be parsed
func NewDatasetError(name string, cause error) *AppError {
	return NewAppError(ErrTypeDataset, fmt.Sprintf("dataset %s could not be read", name), cause).
		WithContext("dataset", name)
}

func NewParsingError(message string, cause error) *AppError {
	return NewAppError(ErrTypeParsing, message, cause)
}

func NewStorageError(message string, cause error) *AppError {
	return NewAppError(ErrTypeStorage, message, cause)
}

// NewAppValidationError rejects service input that passed HTTP parsing
func NewAppValidationError(message string) *AppError {
	return NewAppError(ErrTypeValidation, message, nil)
}

func NewNotFoundError(resource string) *AppError {
	return NewAppError(ErrTypeNotFound, fmt.Sprintf("%s not found", resource), nil)
}

func NewConfigError(message string, cause error) *AppError {
	return NewAppError(ErrTypeConfig, message, cause)
}
