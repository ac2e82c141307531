package handlers

import (
	"errors"
	"net/http"

	"github.com/techbench/gradebook/internal/auth"
	"github.com/techbench/gradebook/internal/httpx"
	"github.com/techbench/gradebook/internal/logger"
	"github.com/techbench/gradebook/internal/services"
)

type AuthHandler struct {
	Users    *services.UserService
	Sessions *auth.Manager
}

func NewAuthHandler(users *services.UserService, sessions *auth.Manager) *AuthHandler {
	return &AuthHandler{Users: users, Sessions: sessions}
}

func (h *AuthHandler) LoginForm(w http.ResponseWriter, r *http.Request) {
	if currentSession(r) != nil {
		redirect(w, r, "/projects")
		return
	}
	render(w, r, http.StatusOK, "login.html", map[string]any{"UserName": ""})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	in, err := readInput(w, r)
	if err != nil {
		badRequest(w, r, err)
		return
	}
	userName := trimmed(in.str("user_name"))
	id, err := h.Users.Authenticate(r.Context(), userName, in.str("password"))
	if errors.Is(err, services.ErrInvalidCredentials) {
		logger.Ctx(r.Context()).Info().Str("user_name", userName).Msg("login failed")
		if jsonRequested(r) {
			httpx.JSONError(w, http.StatusUnauthorized, err.Error(), nil)
			return
		}
		render(w, r, http.StatusUnprocessableEntity, "login.html", map[string]any{
			"UserName": userName,
			"Error":    err.Error(),
		})
		return
	}
	if err != nil {
		serverError(w, r, err)
		return
	}
	if _, err := h.Sessions.Create(w, id); err != nil {
		serverError(w, r, err)
		return
	}
	logger.Ctx(r.Context()).Info().Uint("user_id", id.ID).Msg("login")
	if jsonRequested(r) {
		httpx.JSON(w, http.StatusOK, map[string]any{"user": id})
		return
	}
	redirect(w, r, "/projects")
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.Sessions.Clear(w)
	if jsonRequested(r) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	redirect(w, r, "/login")
}
