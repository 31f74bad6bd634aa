package handler

import (
	"net/http"

	"github.com/yaqa/yaqa/internal/ctxkeys"
	"github.com/yaqa/yaqa/internal/service"
)

type userHandler struct {
	userService *service.UserService
}

func NewUserHandler(userService *service.UserService) *userHandler {
	return &userHandler{userService: userService}
}

func (h *userHandler) Me(w http.ResponseWriter, r *http.Request) {
	profile, err := h.userService.Profile(r.Context(), ctxkeys.User(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, profile)
}

func (h *userHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	var req service.UpdateProfileRequest
	err := decodeJSON(w, r, &req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	profile, err := h.userService.UpdateProfile(r.Context(), ctxkeys.User(r.Context()), req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, profile)
}

func (h *userHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	profile, err := h.userService.Subscribe(r.Context(), ctxkeys.User(r.Context()), r.PathValue("name"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, profile)
}

func (h *userHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	profile, err := h.userService.Unsubscribe(r.Context(), ctxkeys.User(r.Context()), r.PathValue("name"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, profile)
}
