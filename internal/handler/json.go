package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/yaqa/yaqa/internal/logger"
	"github.com/yaqa/yaqa/internal/service"
	"github.com/yaqa/yaqa/internal/validation"
)

const maxJSONBody = 1 << 20 // 1MB

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeError maps service errors to status codes. Unknown errors are logged
// and answered with a generic 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var vErr validation.Error

	switch {
	case errors.As(err, &vErr):
		writeMessage(w, http.StatusBadRequest, vErr.Error())
	case errors.Is(err, service.ErrNotFound):
		writeMessage(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrInvalidImageID):
		writeMessage(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrNotAnAuthor):
		writeMessage(w, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrUnauthenticated), errors.Is(err, service.ErrInvalidCredentials):
		writeMessage(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrUsernameTaken):
		writeMessage(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrRegistrationClosed):
		writeMessage(w, http.StatusForbidden, err.Error())
	default:
		logger.FromContext(r.Context()).Error("request failed", "error", err)
		writeMessage(w, http.StatusInternalServerError, "internal server error")
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	body := http.MaxBytesReader(w, r.Body, maxJSONBody)

	err := json.NewDecoder(body).Decode(v)
	if errors.Is(err, io.EOF) {
		return validation.Error("request body is required")
	}
	if err != nil {
		return validation.Error("invalid JSON body")
	}

	return nil
}

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, validation.Error("invalid " + name)
	}
	return id, nil
}

// page reads the ?before= cursor and ?limit= size. Missing values are zero.
func page(r *http.Request) (before int64, limit int, err error) {
	q := r.URL.Query()

	if v := q.Get("before"); v != "" {
		before, err = strconv.ParseInt(v, 10, 64)
		if err != nil || before <= 0 {
			return 0, 0, validation.Error("invalid before cursor")
		}
	}

	if v := q.Get("limit"); v != "" {
		limit, err = strconv.Atoi(v)
		if err != nil || limit <= 0 {
			return 0, 0, validation.Error("invalid limit")
		}
	}

	return before, limit, nil
}

// NotFound answers unmatched routes.
func NotFound(w http.ResponseWriter, r *http.Request) {
	writeMessage(w, http.StatusNotFound, "not found")
}
