package apierr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/mindgym/internal/model"
)

func TestWriteErrorMapsSentinels(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"session not found", model.ErrSessionNotFound, http.StatusUnauthorized, CodeSessionNotFound},
		{"logged out", model.ErrNotAuthenticated, http.StatusUnauthorized, CodeNotAuthenticated},
		{"profile missing", model.ErrProfileNotFound, http.StatusNotFound, CodeProfileNotFound},
		{"wrapped invalid result", fmt.Errorf("%w: score must not be negative", model.ErrInvalidResult), http.StatusBadRequest, CodeInvalidResult},
		{"invalid request", NewInvalidRequestError("bad"), http.StatusBadRequest, CodeInvalidRequest},
		{"unauthorized", NewUnauthorizedError(), http.StatusUnauthorized, CodeUnauthorized},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, CodeInternalError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			WriteError(rec, tt.err)

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.status, StatusOf(tt.err))
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.code, resp.Error.Code)
			assert.NotEmpty(t, resp.Error.Message)
		})
	}
}

func TestInternalErrorsHideDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, errors.New("redis: connection refused"))

	assert.NotContains(t, rec.Body.String(), "redis")
}
