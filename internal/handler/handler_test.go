package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yaqa/yaqa/internal/repository"
	"github.com/yaqa/yaqa/internal/service"
	"github.com/yaqa/yaqa/internal/validation"
)

func TestWriteErrorStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{validation.Error("body is required"), http.StatusBadRequest},
		{fmt.Errorf("%w: %w", service.ErrNotFound, repository.ErrQuestionNotFound), http.StatusNotFound},
		{service.ErrInvalidImageID, http.StatusBadRequest},
		{service.ErrNotAnAuthor, http.StatusForbidden},
		{service.ErrUnauthenticated, http.StatusUnauthorized},
		{service.ErrInvalidCredentials, http.StatusUnauthorized},
		{service.ErrUsernameTaken, http.StatusConflict},
		{service.ErrRegistrationClosed, http.StatusForbidden},
		{errors.New("disk on fire"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeError(rec, httptest.NewRequest(http.MethodGet, "/", nil), tt.err)

			assert.Equal(t, tt.want, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.NotEmpty(t, body["error"])
			if tt.want == http.StatusInternalServerError {
				assert.NotContains(t, body["error"], "disk")
			}
		})
	}
}

func TestDecodeJSON(t *testing.T) {
	var v struct {
		Body string `json:"body"`
	}

	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"body":"hi"}`))
	require.NoError(t, decodeJSON(httptest.NewRecorder(), r, &v))
	assert.Equal(t, "hi", v.Body)

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))
	assert.ErrorAs(t, decodeJSON(httptest.NewRecorder(), r, &v), new(validation.Error))

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{"))
	assert.ErrorAs(t, decodeJSON(httptest.NewRecorder(), r, &v), new(validation.Error))
}

func TestPage(t *testing.T) {
	before, limit, err := page(httptest.NewRequest(http.MethodGet, "/api/questions", nil))
	require.NoError(t, err)
	assert.Zero(t, before)
	assert.Zero(t, limit)

	before, limit, err = page(httptest.NewRequest(http.MethodGet, "/api/questions?before=42&limit=5", nil))
	require.NoError(t, err)
	assert.EqualValues(t, 42, before)
	assert.Equal(t, 5, limit)

	for _, q := range []string{"before=x", "before=-1", "limit=0", "limit=abc"} {
		_, _, err = page(httptest.NewRequest(http.MethodGet, "/api/questions?"+q, nil))
		assert.Error(t, err, q)
	}
}

func TestPathID(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/api/questions/7", nil)
	r.SetPathValue("id", "7")
	id, err := pathID(r, "id")
	require.NoError(t, err)
	assert.EqualValues(t, 7, id)

	r.SetPathValue("id", "seven")
	_, err = pathID(r, "id")
	assert.ErrorAs(t, err, new(validation.Error))
}
