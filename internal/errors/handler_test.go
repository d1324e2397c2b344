package errors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"papertrack/internal/shared/testutil"
)

func TestErrorHandler_HandleError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
		wantTitle  string
	}{
		{
			name:       "context deadline exceeded",
			err:        context.DeadlineExceeded,
			wantStatus: http.StatusGatewayTimeout,
			wantType:   TypeTimeout,
			wantTitle:  "Request Timeout",
		},
		{
			name:       "unreadable workbook",
			err:        fmt.Errorf("load: %w", NewSourceUnreadableError("w.xlsx", errors.New("zip: not a valid zip file"))),
			wantStatus: http.StatusServiceUnavailable,
			wantType:   TypeSourceUnreadable,
			wantTitle:  "Workbook Unreadable",
		},
		{
			name:       "schema error",
			err:        NewSchemaError("duplicate column index 18"),
			wantStatus: http.StatusUnprocessableEntity,
			wantType:   TypeDataCorrupted,
			wantTitle:  "Workbook Layout Invalid",
		},
		{
			name:       "archive disabled",
			err:        NewUnavailableError("snapshot archive is not configured"),
			wantStatus: http.StatusServiceUnavailable,
			wantType:   TypeServiceDown,
			wantTitle:  "Service Unavailable",
		},
		{
			name:       "not found",
			err:        NewNotFoundError("snapshot"),
			wantStatus: http.StatusNotFound,
			wantType:   TypeNotFound,
			wantTitle:  "Resource Not Found",
		},
		{
			name:       "api error",
			err:        InvalidParameter("limit", "abc"),
			wantStatus: http.StatusBadRequest,
			wantType:   TypeValidation,
			wantTitle:  "Bad Request",
		},
		{
			name:       "unknown error",
			err:        errors.New("something odd"),
			wantStatus: http.StatusInternalServerError,
			wantType:   TypeInternal,
			wantTitle:  "Internal Server Error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, logs := testutil.NewTestLogger(t)
			h := NewErrorHandler(logger, false)

			req := httptest.NewRequest(http.MethodGet, "/api/papers", nil)
			rec := httptest.NewRecorder()

			h.HandleError(rec, req, tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)

			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantType, body["type"])
			assert.Equal(t, tt.wantTitle, body["title"])
			assert.Equal(t, float64(tt.wantStatus), body["status"])
			assert.Equal(t, "/api/papers", body["instance"])
			assert.NotContains(t, body, "stack")

			assert.True(t, logs.ContainsMessage("request failed"))
		})
	}
}

func TestErrorHandler_HandleErrorNil(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	h := NewErrorHandler(logger, false)

	rec := httptest.NewRecorder()
	h.HandleError(rec, httptest.NewRequest(http.MethodGet, "/", nil), nil)

	assert.Equal(t, 0, rec.Body.Len())
	assert.Equal(t, 0, logs.Count())
}

func TestErrorHandler_IncludeStack(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	h := NewErrorHandler(logger, true)

	rec := httptest.NewRecorder()
	h.HandleError(rec, httptest.NewRequest(http.MethodGet, "/api/summary", nil), errors.New("boom"))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body, "stack")
}

func TestErrorHandler_HandlePanic(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	h := NewErrorHandler(logger, false)

	rec := httptest.NewRecorder()
	h.HandlePanic(rec, httptest.NewRequest(http.MethodPost, "/api/refresh", nil), "nil map write")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	testutil.AssertLogContains(t, logs, slog.LevelError, "panic recovered")
}

func TestErrorHandler_NotFoundAndMethodNotAllowed(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	h := NewErrorHandler(logger, false)

	rec := httptest.NewRecorder()
	h.NotFound(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	h.MethodNotAllowed(rec, httptest.NewRequest(http.MethodDelete, "/api/papers", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Contains(t, rec.Body.String(), "Method DELETE is not allowed")
}

func TestProblemDetails_MarshalJSONFlattensExtensions(t *testing.T) {
	p := NewProblemDetails(http.StatusBadRequest, TypeValidation, "Validation Failed", "", "/api/papers").
		WithExtension("errors", []ValidationError{{Field: "author_query", Message: "max"}})

	data, err := json.Marshal(p)
	require.NoError(t, err)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &body))
	assert.Equal(t, TypeValidation, body["type"])
	assert.NotContains(t, body, "detail")
	assert.Contains(t, body, "errors")
}
