package handlers

import (
	"errors"
	"net/http"

	"github.com/techbench/gradebook/internal/gate"
	"github.com/techbench/gradebook/internal/httpx"
	"github.com/techbench/gradebook/internal/logger"
	"github.com/techbench/gradebook/internal/models"
	"github.com/techbench/gradebook/internal/services"
	"github.com/techbench/gradebook/internal/validation"
	"github.com/techbench/gradebook/internal/view"
)

// UserHandler manages accounts. Role and active changes invalidate the
// cached gate profile so they apply on the user's next request.
type UserHandler struct {
	Users    *services.UserService
	Profiles *gate.CachedResolver
}

func NewUserHandler(users *services.UserService, profiles *gate.CachedResolver) *UserHandler {
	return &UserHandler{Users: users, Profiles: profiles}
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, http.StatusOK, nil, nil)
}

func (h *UserHandler) list(w http.ResponseWriter, r *http.Request, status int, form map[string]string, errs validation.Violations) {
	users, err := h.Users.ListUsers(r.Context())
	if err != nil {
		serverError(w, r, err)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, status, map[string]any{"users": users})
		return
	}
	render(w, r, status, "users.html", map[string]any{
		"Users":  users,
		"Roles":  roles,
		"Form":   form,
		"Errors": errs,
	})
}

func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	in, err := readInput(w, r)
	if err != nil {
		badRequest(w, r, err)
		return
	}
	u, err := h.Users.CreateUser(r.Context(), in.str("user_name"), in.str("password"), in.str("role"))
	if err != nil {
		if !isFormError(err, services.ErrDuplicateUserName) {
			serverError(w, r, err)
			return
		}
		if jsonRequested(r) {
			formErrorJSON(w, err)
			return
		}
		errs := violationsOf(err)
		if errs == nil {
			errs = validation.Violations{"user_name": err.Error()}
		}
		h.list(w, r, http.StatusUnprocessableEntity, in.form(), errs)
		return
	}
	logger.Ctx(r.Context()).Info().Uint("user_id", u.ID).Str("role", string(u.Role)).Msg("user created")
	if jsonRequested(r) {
		httpx.JSON(w, http.StatusCreated, u)
		return
	}
	view.Flash(w, r, "user_created")
	redirect(w, r, "/admin/users")
}

func (h *UserHandler) SetActive(w http.ResponseWriter, r *http.Request) {
	h.update(w, r,
		func(in input) bool { return !in.flag("active") },
		func(in input, id uint) error { return h.Users.SetUserActive(r.Context(), id, in.flag("active")) })
}

func (h *UserHandler) SetRole(w http.ResponseWriter, r *http.Request) {
	h.update(w, r,
		func(in input) bool { return models.ParseRole(in.str("role")) != models.RoleAdmin },
		func(in input, id uint) error { return h.Users.SetUserRole(r.Context(), id, in.str("role")) })
}

// update applies a change to the user in the path. Changes for which
// locksOut holds are refused on the caller's own account.
func (h *UserHandler) update(w http.ResponseWriter, r *http.Request, locksOut func(input) bool, apply func(input, uint) error) {
	id, ok := pathID(r)
	if !ok {
		notFound(w, r)
		return
	}
	in, err := readInput(w, r)
	if err != nil {
		badRequest(w, r, err)
		return
	}
	if currentSession(r).UserID == id && locksOut(in) {
		if jsonRequested(r) {
			httpx.JSONError(w, http.StatusConflict, "cannot_change_self", nil)
			return
		}
		view.Flash(w, r, "cannot_change_self")
		redirect(w, r, "/admin/users")
		return
	}
	if err := apply(in, id); err != nil {
		if errors.Is(err, services.ErrNotFound) {
			notFound(w, r)
			return
		}
		serverError(w, r, err)
		return
	}
	h.Profiles.Invalidate(id)
	logger.Ctx(r.Context()).Info().Uint("user_id", id).Str("path", r.URL.Path).Msg("user updated")
	if jsonRequested(r) {
		httpx.JSON(w, http.StatusOK, map[string]any{"id": id})
		return
	}
	view.Flash(w, r, "user_updated")
	redirect(w, r, "/admin/users")
}
