package errors

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	err := New(http.StatusBadRequest, "INVALID_REQUEST", "bad input")

	assert.Equal(t, http.StatusBadRequest, err.StatusCode)
	assert.Equal(t, "INVALID_REQUEST", err.ErrorCode)
	assert.Equal(t, "bad input", err.Message)
	assert.Nil(t, err.Details)
	assert.Equal(t, "bad input", err.Error())
}

func TestNewWithDetails(t *testing.T) {
	details := map[string]string{"currency": "usd"}
	err := NewWithDetails(http.StatusNotFound, "BATCH_NOT_FOUND", "no data", details)

	assert.Equal(t, http.StatusNotFound, err.StatusCode)
	assert.Equal(t, details, err.Details)
}

func TestErrValidation(t *testing.T) {
	err := ErrValidation("sort", "unknown sort key")

	assert.Equal(t, http.StatusBadRequest, err.StatusCode)
	assert.Equal(t, "VALIDATION_FAILED", err.ErrorCode)

	ve, ok := err.Details.(ValidationError)
	require.True(t, ok)
	assert.Equal(t, "sort", ve.Field)
	assert.Equal(t, "unknown sort key", ve.Message)
}

func TestUpstreamError(t *testing.T) {
	err := UpstreamError(assert.AnError)

	assert.Equal(t, http.StatusBadGateway, err.StatusCode)
	assert.Equal(t, "UPSTREAM_UNAVAILABLE", err.ErrorCode)
	assert.Equal(t, assert.AnError.Error(), err.Details)
}

func TestPredefinedErrors(t *testing.T) {
	tests := []struct {
		err        *APIError
		statusCode int
		errorCode  string
	}{
		{ErrInvalidRequest, http.StatusBadRequest, "INVALID_REQUEST"},
		{ErrValidationFailed, http.StatusBadRequest, "VALIDATION_FAILED"},
		{ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
		{ErrBatchNotFound, http.StatusNotFound, "BATCH_NOT_FOUND"},
		{ErrNothingToExport, http.StatusNotFound, "NOTHING_TO_EXPORT"},
		{ErrRateLimitExceeded, http.StatusTooManyRequests, "RATE_LIMIT_EXCEEDED"},
		{ErrInternalServer, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR"},
		{ErrUpstreamUnavailable, http.StatusBadGateway, "UPSTREAM_UNAVAILABLE"},
	}

	for _, tt := range tests {
		t.Run(tt.errorCode, func(t *testing.T) {
			assert.Equal(t, tt.statusCode, tt.err.StatusCode)
			assert.Equal(t, tt.errorCode, tt.err.ErrorCode)
			assert.NotEmpty(t, tt.err.Message)
		})
	}
}

func TestProblemDetailsMarshalJSON(t *testing.T) {
	problem := NewProblemDetails(
		http.StatusNotFound,
		TypeBatchNotFound,
		"Not Found",
		"No market data available for currency",
		"/api/market/records",
	).WithExtension("trace_id", "abc-123").
		WithExtension("currency", "eur")

	data, err := json.Marshal(problem)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, TypeBatchNotFound, decoded["type"])
	assert.Equal(t, "Not Found", decoded["title"])
	assert.Equal(t, float64(http.StatusNotFound), decoded["status"])
	assert.Equal(t, "No market data available for currency", decoded["detail"])
	assert.Equal(t, "/api/market/records", decoded["instance"])
	assert.Equal(t, "abc-123", decoded["trace_id"])
	assert.Equal(t, "eur", decoded["currency"])
}

func TestProblemDetailsOmitsEmptyFields(t *testing.T) {
	problem := NewProblemDetails(http.StatusInternalServerError, TypeInternal, "Internal Server Error", "", "")

	data, err := json.Marshal(problem)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))

	_, hasDetail := decoded["detail"]
	_, hasInstance := decoded["instance"]
	assert.False(t, hasDetail)
	assert.False(t, hasInstance)
}
