package errors

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func decodeProblem(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestErrorHandler_HandleError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
	}{
		{"deadline exceeded", context.DeadlineExceeded, http.StatusGatewayTimeout, TypeTimeout},
		{"wrapped cancellation", fmt.Errorf("load: %w", context.Canceled), http.StatusGatewayTimeout, TypeTimeout},
		{"api validation", ErrValidation("limit", "must be positive"), http.StatusBadRequest, TypeValidation},
		{"api dataset not found", ErrDatasetNotFound, http.StatusNotFound, TypeDatasetNotFound},
		{"api no run", ErrNoPipelineRun, http.StatusNotFound, TypeNoPipelineRun},
		{"app not found", NewNotFoundError("dataset foo"), http.StatusNotFound, TypeNotFound},
		{"app dataset", NewDatasetError("customer_analytics", io.ErrUnexpectedEOF), http.StatusUnprocessableEntity, TypeDatasetCorrupted},
		{"app storage", NewStorageError("disk", io.ErrClosedPipe), http.StatusInternalServerError, TypeInternal},
		{"app config", NewConfigError("bad root", nil), http.StatusInternalServerError, TypeConfig},
		{"plain error", fmt.Errorf("boom"), http.StatusInternalServerError, TypeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewErrorHandler(quietLogger(), false)
			req := httptest.NewRequest(http.MethodGet, "/api/v1/datasets/x", nil)
			rec := httptest.NewRecorder()

			h.HandleError(rec, req, tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			body := decodeProblem(t, rec)
			assert.Equal(t, tt.wantType, body["type"])
			assert.Equal(t, float64(tt.wantStatus), body["status"])
			assert.Equal(t, "/api/v1/datasets/x", body["instance"])
			assert.Contains(t, body, "trace_id")
			assert.NotContains(t, body, "stack")
		})
	}
}

func TestErrorHandler_HandleError_Nil(t *testing.T) {
	h := NewErrorHandler(quietLogger(), false)
	rec := httptest.NewRecorder()
	h.HandleError(rec, httptest.NewRequest(http.MethodGet, "/", nil), nil)
	assert.Zero(t, rec.Body.Len())
}

func TestErrorHandler_TraceIDFromRequestID(t *testing.T) {
	h := NewErrorHandler(quietLogger(), true)
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req = req.WithContext(context.WithValue(req.Context(), middleware.RequestIDKey, "req-42"))
	rec := httptest.NewRecorder()

	h.HandleError(rec, req, ErrNotFound)

	body := decodeProblem(t, rec)
	assert.Equal(t, "req-42", body["trace_id"])
	assert.Equal(t, "NOT_FOUND", body["error_code"])
	assert.Contains(t, body, "stack")
}

func TestErrorHandler_AppErrorContext(t *testing.T) {
	h := NewErrorHandler(quietLogger(), false)
	req := httptest.NewRequest(http.MethodGet, "/x", nil)

	client := h.ErrorToProblem(NewNotFoundError("dataset").WithContext("dataset", "foo"), req)
	assert.Equal(t, "foo", client.Extensions["dataset"])
	assert.Equal(t, "NOT_FOUND", client.Extensions["error_type"])

	server := h.ErrorToProblem(NewStorageError("read", nil).WithContext("path", "/secret"), req)
	assert.NotContains(t, server.Extensions, "path")
}

func TestErrorHandler_NotFoundAndMethodNotAllowed(t *testing.T) {
	h := NewErrorHandler(quietLogger(), false)

	rec := httptest.NewRecorder()
	h.NotFound(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, TypeNotFound, decodeProblem(t, rec)["type"])

	rec = httptest.NewRecorder()
	h.MethodNotAllowed(rec, httptest.NewRequest(http.MethodDelete, "/api/v1/datasets", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Contains(t, decodeProblem(t, rec)["detail"], "DELETE")
}

func TestRecoveryMiddleware(t *testing.T) {
	h := NewErrorHandler(quietLogger(), false)
	panicking := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("kaboom")
	})

	rec := httptest.NewRecorder()
	RecoveryMiddleware(h)(panicking).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeProblem(t, rec)
	assert.Equal(t, TypeInternal, body["type"])
	assert.NotContains(t, body, "panic")
}

func TestProblemDetails_MarshalJSON(t *testing.T) {
	pd := NewProblemDetails(http.StatusTeapot, "/errors/teapot", "Teapot", "", "").
		WithExtension("retry_after", 5).
		WithExtension("status", 999)

	raw, err := json.Marshal(pd)
	require.NoError(t, err)

	var body map[string]any
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.Equal(t, float64(http.StatusTeapot), body["status"], "standard members win over extensions")
	assert.Equal(t, float64(5), body["retry_after"])
	assert.NotContains(t, body, "detail")
	assert.NotContains(t, body, "instance")
}

func TestWriteProblem(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteProblem(rec, NewProblemDetails(http.StatusTooManyRequests, TypeRateLimit, "Too Many Requests", "slow down", "/x"))

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "slow down", decodeProblem(t, rec)["detail"])
}

func TestAppError(t *testing.T) {
	err := NewDatasetError("payment_operations", io.ErrUnexpectedEOF)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	assert.Equal(t, "dataset payment_operations could not be read: unexpected EOF", err.Error())
	assert.Equal(t, "payment_operations", err.Context["dataset"])

	assert.Equal(t, "bad", NewAppValidationError("bad").Error())
	assert.True(t, IsType(fmt.Errorf("page: %w", NewParsingError("csv", nil)), ErrTypeParsing))
	assert.False(t, IsType(io.EOF, ErrTypeParsing))
}

func TestAPIError_WithDetailsCopies(t *testing.T) {
	detailed := ErrDatasetNotFound.WithDetails(FieldError{Field: "name", Message: "orders is not a master dataset"})

	assert.Nil(t, ErrDatasetNotFound.Details)
	assert.Equal(t, "DATASET_NOT_FOUND: Dataset not found", detailed.Error())

	h := NewErrorHandler(quietLogger(), false)
	problem := h.ErrorToProblem(detailed, httptest.NewRequest(http.MethodGet, "/api/v1/datasets/orders", nil))
	assert.Equal(t, TypeDatasetNotFound, problem.Type)
	assert.Equal(t, FieldError{Field: "name", Message: "orders is not a master dataset"}, problem.Extensions["details"])
}
