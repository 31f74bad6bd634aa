package handler

import (
	"net/http"

	"github.com/yaqa/yaqa/internal/model"
	"github.com/yaqa/yaqa/internal/service"
)

type authHandler struct {
	authService *service.AuthService
	userService *service.UserService
}

func NewAuthHandler(authService *service.AuthService, userService *service.UserService) *authHandler {
	return &authHandler{
		authService: authService,
		userService: userService,
	}
}

type tokenResponse struct {
	Token string         `json:"token"`
	User  model.UserView `json:"user"`
}

func (h *authHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req service.RegisterRequest
	err := decodeJSON(w, r, &req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	user, err := h.userService.Register(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	h.issue(w, r, http.StatusCreated, user)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *authHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	err := decodeJSON(w, r, &req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	user, err := h.authService.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}

	h.issue(w, r, http.StatusOK, user)
}

func (h *authHandler) issue(w http.ResponseWriter, r *http.Request, status int, user *model.User) {
	token, expiry, err := h.authService.GenerateJWT(user)
	if err != nil {
		writeError(w, r, err)
		return
	}

	h.authService.SetJWTCookie(w, token, expiry)
	writeJSON(w, status, tokenResponse{Token: token, User: model.NewUserView(user)})
}

func (h *authHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.authService.ClearJWTCookie(w)
	w.WriteHeader(http.StatusNoContent)
}
