package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/techbench/gradebook/internal/auth"
	"github.com/techbench/gradebook/internal/gate"
	"github.com/techbench/gradebook/internal/httpx"
	"github.com/techbench/gradebook/internal/logger"
	"github.com/techbench/gradebook/internal/services"
	"github.com/techbench/gradebook/internal/view"
)

type ProjectHandler struct {
	Projects *services.ProjectService
	Grades   *services.GradeService
	Sessions *auth.Manager
	Gate     *gate.Gate
}

func NewProjectHandler(projects *services.ProjectService, grades *services.GradeService, sessions *auth.Manager, g *gate.Gate) *ProjectHandler {
	return &ProjectHandler{Projects: projects, Grades: grades, Sessions: sessions, Gate: g}
}

// List shows every project to administrators and the open ones to
// technicians.
func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, http.StatusOK, nil)
}

func (h *ProjectHandler) list(w http.ResponseWriter, r *http.Request, status int, extra map[string]any) {
	s := currentSession(r)
	list := h.Projects.ListOpenProjects
	if h.Gate.IsAdmin(r.Context(), s.UserID) {
		list = h.Projects.ListProjects
	}
	projects, err := list(r.Context())
	if err != nil {
		serverError(w, r, err)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, status, map[string]any{"projects": projects, "current_project_id": s.ProjectID})
		return
	}
	data := map[string]any{
		"Projects":         projects,
		"DeviceTypes":      deviceTypes,
		"CurrentProjectID": s.ProjectID,
	}
	for k, v := range extra {
		data[k] = v
	}
	render(w, r, status, "projects.html", data)
}

func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	in, err := readInput(w, r)
	if err != nil {
		badRequest(w, r, err)
		return
	}
	p, err := h.Projects.CreateProject(r.Context(), identity(r), services.ProjectInput{
		Name:       in.str("name"),
		DeviceType: in.str("device_type"),
		Date:       in.str("date"),
	})
	if err != nil {
		if v := violationsOf(err); v != nil {
			if jsonRequested(r) {
				formErrorJSON(w, err)
				return
			}
			h.list(w, r, http.StatusUnprocessableEntity, map[string]any{"Errors": v, "Form": in.form()})
			return
		}
		serverError(w, r, err)
		return
	}
	logger.Ctx(r.Context()).Info().Uint("project_id", p.ID).Msg("project created")
	if jsonRequested(r) {
		httpx.JSON(w, http.StatusCreated, p)
		return
	}
	view.Flash(w, r, "project_created")
	redirect(w, r, "/projects")
}

// Select makes an open project the session's current project.
func (h *ProjectHandler) Select(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		notFound(w, r)
		return
	}
	p, err := h.Projects.GetOpenProject(r.Context(), id)
	if errors.Is(err, services.ErrProjectNotOpen) {
		if jsonRequested(r) {
			httpx.JSONError(w, http.StatusConflict, err.Error(), nil)
			return
		}
		view.Flash(w, r, err.Error())
		redirect(w, r, "/projects")
		return
	}
	if err != nil {
		serverError(w, r, err)
		return
	}
	if err := h.Sessions.SetProject(w, r, p.ID); err != nil {
		serverError(w, r, err)
		return
	}
	if jsonRequested(r) {
		httpx.JSON(w, http.StatusOK, p)
		return
	}
	redirect(w, r, "/grades/new")
}

// Close marks a project CLOSED. There is deliberately no reopen route.
func (h *ProjectHandler) Close(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		notFound(w, r)
		return
	}
	status, err := h.Projects.SetProjectStatus(r.Context(), id, "CLOSED")
	if errors.Is(err, services.ErrNotFound) {
		notFound(w, r)
		return
	}
	if err != nil {
		serverError(w, r, err)
		return
	}
	logger.Ctx(r.Context()).Info().Uint("project_id", id).Msg("project closed")
	if jsonRequested(r) {
		httpx.JSON(w, http.StatusOK, map[string]any{"id": id, "status": status})
		return
	}
	view.Flash(w, r, "project_closed")
	redirect(w, r, "/projects")
}

// Export streams the project's grades as CSV, oldest first.
func (h *ProjectHandler) Export(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		notFound(w, r)
		return
	}
	p, err := h.Projects.GetProject(r.Context(), id)
	if errors.Is(err, services.ErrNotFound) {
		notFound(w, r)
		return
	}
	if err != nil {
		serverError(w, r, err)
		return
	}
	rows, err := h.Grades.ListGradesForExport(r.Context(), p.ID)
	if err != nil {
		serverError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", services.ExportFileName(p)))
	if err := services.WriteGradesCSV(w, rows); err != nil {
		logger.Ctx(r.Context()).Error().Err(err).Uint("project_id", p.ID).Msg("csv export interrupted")
	}
}
