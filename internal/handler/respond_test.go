package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/readium/readium/internal/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespond_SuccessEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	respond(rec, http.StatusCreated, map[string]string{"id": "b1"}, "blog created")

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, http.StatusCreated, body.StatusCode)
	assert.Equal(t, "blog created", body.Message)
	assert.Empty(t, body.Errors)
	assert.NotNil(t, body.Data)
}

func TestRespondError_EnvelopeByKind(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{"validation", apperr.Validation("title is required"), http.StatusBadRequest, "title is required"},
		{"auth", apperr.Auth("invalid credentials"), http.StatusUnauthorized, "invalid credentials"},
		{"not found", apperr.NotFound("blog not found"), http.StatusNotFound, "blog not found"},
		{"conflict", apperr.Conflict("tag already exists"), http.StatusConflict, "tag already exists"},
		{"unclassified", errors.New("sql: connection reset"), http.StatusInternalServerError, "something went wrong"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/api/v1/blogs/b1", nil)
			respondError(rec, req, tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)

			var body envelope
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.False(t, body.Success)
			assert.Equal(t, tt.wantStatus, body.StatusCode)
			assert.Equal(t, tt.wantMsg, body.Message)
			assert.Equal(t, []string{tt.wantMsg}, body.Errors)
			assert.Nil(t, body.Data)
		})
	}
}

func TestDecodeJSON_InvalidBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/blogs", strings.NewReader("{not json"))

	var dst struct{ Title string }
	err := decodeJSON(req, &dst)
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, apperr.StatusCode(err))
}

func TestDecodeJSON_Valid(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/blogs", strings.NewReader(`{"Title":"hello"}`))

	var dst struct{ Title string }
	require.NoError(t, decodeJSON(req, &dst))
	assert.Equal(t, "hello", dst.Title)
}
