package handler

import (
	"net/http"

	"github.com/jmoiron/sqlx"
)

type healthHandler struct {
	db *sqlx.DB
}

func NewHealthHandler(db *sqlx.DB) *healthHandler {
	return &healthHandler{db: db}
}

func (h *healthHandler) Health(w http.ResponseWriter, r *http.Request) {
	err := h.db.PingContext(r.Context())
	if err != nil {
		writeMessage(w, http.StatusServiceUnavailable, "database unavailable")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
