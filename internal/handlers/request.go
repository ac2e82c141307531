package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/techbench/gradebook/internal/auth"
	"github.com/techbench/gradebook/internal/gate"
	"github.com/techbench/gradebook/internal/httpx"
	"github.com/techbench/gradebook/internal/logger"
	"github.com/techbench/gradebook/internal/models"
	"github.com/techbench/gradebook/internal/validation"
	"github.com/techbench/gradebook/internal/view"
)

// Option lists shared by the forms.
var (
	deviceTypes   = []string{string(models.DeviceLaptop), string(models.DeviceDesktop)}
	touchStatuses = []string{string(models.TouchYes), string(models.TouchNo), string(models.TouchBroken)}
	roles         = []string{string(models.RoleTech), string(models.RoleAdmin)}
)

const maxBodyBytes = 1 << 20

// input is a submitted form or JSON object. Form values are strings; JSON
// values keep their decoded type and are normalized on access.
type input map[string]any

func readInput(w http.ResponseWriter, r *http.Request) (input, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if httpx.SentJSON(r) {
		in := input{}
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}
		return in, nil
	}
	if err := r.ParseForm(); err != nil {
		return nil, err
	}
	in := make(input, len(r.PostForm))
	for k, v := range r.PostForm {
		if len(v) > 0 {
			in[k] = v[0]
		}
	}
	return in, nil
}

func (in input) str(key string) string {
	switch v := in[key].(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

func (in input) int(key string) int { return validation.NormalizeInt(in[key], 0) }

func (in input) id(key string) uint {
	if n := in.int(key); n > 0 {
		return uint(n)
	}
	return 0
}

func (in input) flag(key string) bool { return validation.NormalizeBool(in[key]) }

// form echoes the submission back into a re-rendered form.
func (in input) form() map[string]string {
	out := make(map[string]string, len(in))
	for k := range in {
		if k == "password" {
			continue
		}
		out[k] = in.str(k)
	}
	return out
}

func pathID(r *http.Request) (uint, bool) {
	n, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil || n == 0 {
		return 0, false
	}
	return uint(n), true
}

func currentSession(r *http.Request) *auth.Session {
	s, _ := auth.SessionFromContext(r.Context())
	return s
}

func identity(r *http.Request) *models.Identity {
	return currentSession(r).Identity()
}

// authorizedIdentity is the session user carrying the role the gate grants
// now, which differs from the cookie's after a role change.
func authorizedIdentity(r *http.Request, g *gate.Gate) *models.Identity {
	id := identity(r)
	if id == nil {
		return nil
	}
	id.Role = models.RoleTech
	if g.IsAdmin(r.Context(), id.ID) {
		id.Role = models.RoleAdmin
	}
	return id
}

func render(w http.ResponseWriter, r *http.Request, status int, page string, data map[string]any) {
	if err := view.RenderStatus(w, r, status, page, data); err != nil {
		logger.Ctx(r.Context()).Error().Err(err).Str("page", page).Msg("render failed")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// renderError answers with the JSON error body or the error page.
func renderError(w http.ResponseWriter, r *http.Request, status int, code string, err error) {
	if status >= 500 {
		logger.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg(code)
	}
	if httpx.WantsJSON(r) || httpx.SentJSON(r) {
		httpx.JSONError(w, status, code, nil)
		return
	}
	msg := ""
	if err != nil && status >= 500 {
		msg = err.Error()
	}
	render(w, r, status, "error.html", map[string]any{"Status": status, "Code": code, "Message": msg})
}

func badRequest(w http.ResponseWriter, r *http.Request, err error) {
	renderError(w, r, http.StatusBadRequest, "bad_request", err)
}

func notFound(w http.ResponseWriter, r *http.Request) {
	renderError(w, r, http.StatusNotFound, "not_found", nil)
}

func serverError(w http.ResponseWriter, r *http.Request, err error) {
	renderError(w, r, http.StatusInternalServerError, "internal_error", err)
}

func jsonRequested(r *http.Request) bool {
	return httpx.WantsJSON(r) || httpx.SentJSON(r)
}

func redirect(w http.ResponseWriter, r *http.Request, to string) {
	http.Redirect(w, r, to, http.StatusSeeOther)
}

// violationsOf extracts field violations, or nil for other errors.
func violationsOf(err error) validation.Violations {
	var verr *validation.Error
	if errors.As(err, &verr) {
		return verr.Violations
	}
	return nil
}

func isFormError(err error, codes ...error) bool {
	if violationsOf(err) != nil {
		return true
	}
	for _, c := range codes {
		if errors.Is(err, c) {
			return true
		}
	}
	return false
}

// formErrorJSON writes a 422 for violations and a 409 for domain conflicts.
func formErrorJSON(w http.ResponseWriter, err error) {
	if v := violationsOf(err); v != nil {
		httpx.JSONError(w, http.StatusUnprocessableEntity, "validation_failed", v)
		return
	}
	httpx.JSONError(w, http.StatusConflict, err.Error(), nil)
}

func trimmed(s string) string { return strings.TrimSpace(s) }
