package errors

import (
	"fmt"
	"net/http"
)

// APIError is a request-level failure that already knows how it is
// reported: the HTTP status, the problem type URI and a stable code
// clients can switch on.
type APIError struct {
	Status  int
	Type    string
	Code    string
	Message string
	Details any
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// WithDetails returns a copy of e carrying details. Predefined errors are
// shared, so they are never mutated in place.
func (e *APIError) WithDetails(details any) *APIError {
	cp := *e
	cp.Details = details
	return &cp
}

func newAPIError(status int, problemType, code, message string) *APIError {
	return &APIError{Status: status, Type: problemType, Code: code, Message: message}
}

// FieldError names the query or path parameter that was rejected
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

var (
	ErrNotFound        = newAPIError(http.StatusNotFound, TypeNotFound, "NOT_FOUND", "Resource not found")
	ErrDatasetNotFound = newAPIError(http.StatusNotFound, TypeDatasetNotFound, "DATASET_NOT_FOUND", "Dataset not found")
	ErrNoPipelineRun   = newAPIError(http.StatusNotFound, TypeNoPipelineRun, "NO_PIPELINE_RUN", "No pipeline run has been recorded")
)

// ErrValidation rejects one request parameter
func ErrValidation(field, message string) *APIError {
	return newAPIError(http.StatusBadRequest, TypeValidation, "VALIDATION_FAILED", "Request validation failed").
		WithDetails(FieldError{Field: field, Message: message})
}
