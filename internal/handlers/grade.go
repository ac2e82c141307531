package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/techbench/gradebook/internal/gate"
	"github.com/techbench/gradebook/internal/httpx"
	"github.com/techbench/gradebook/internal/logger"
	"github.com/techbench/gradebook/internal/models"
	"github.com/techbench/gradebook/internal/services"
	"github.com/techbench/gradebook/internal/validation"
	"github.com/techbench/gradebook/internal/view"
)

type GradeHandler struct {
	Grades   *services.GradeService
	Projects *services.ProjectService
	Presets  *services.PresetService
	Gate     *gate.Gate
}

func NewGradeHandler(grades *services.GradeService, projects *services.ProjectService, presets *services.PresetService, g *gate.Gate) *GradeHandler {
	return &GradeHandler{Grades: grades, Projects: projects, Presets: presets, Gate: g}
}

// currentProject loads the session's project. It answers the request itself
// and returns nil when no open project is selected.
func (h *GradeHandler) currentProject(w http.ResponseWriter, r *http.Request) *models.Project {
	s := currentSession(r)
	if s.ProjectID != 0 {
		p, err := h.Projects.GetOpenProject(r.Context(), s.ProjectID)
		if err == nil {
			return p
		}
		if !errors.Is(err, services.ErrProjectNotOpen) {
			serverError(w, r, err)
			return nil
		}
	}
	if jsonRequested(r) {
		httpx.JSONError(w, http.StatusConflict, "no_project_selected", nil)
		return nil
	}
	view.Flash(w, r, "no_project_selected")
	redirect(w, r, "/projects")
	return nil
}

func (h *GradeHandler) New(w http.ResponseWriter, r *http.Request) {
	p := h.currentProject(w, r)
	if p == nil {
		return
	}
	form, err := h.presetForm(r, p)
	if err != nil {
		serverError(w, r, err)
		return
	}
	h.form(w, r, p, http.StatusOK, form, nil)
}

// presetForm prefills the form from the active preset named by ?preset_id.
// Unknown, inactive or other-device presets leave the form empty.
func (h *GradeHandler) presetForm(r *http.Request, p *models.Project) (map[string]string, error) {
	id := parseID(r.URL.Query().Get("preset_id"))
	if id == 0 {
		return nil, nil
	}
	preset, err := h.Presets.GetPreset(r.Context(), id)
	if errors.Is(err, services.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !preset.Active || preset.DeviceType != p.DeviceType {
		return nil, nil
	}
	return map[string]string{
		"preset_id":    strconv.FormatUint(uint64(preset.ID), 10),
		"brand":        preset.Brand,
		"model":        preset.Model,
		"cpu":          preset.CPUDefault,
		"ram_gb":       strconv.Itoa(preset.RAMGBDefault),
		"ssd_gb":       strconv.Itoa(preset.SSDGBDefault),
		"touch_status": string(preset.TouchDefault),
		"observations": preset.ObservationsDefault,
	}, nil
}

func (h *GradeHandler) form(w http.ResponseWriter, r *http.Request, p *models.Project, status int, form map[string]string, errs validation.Violations) {
	ctx := r.Context()
	presets, err := h.Presets.ListPresetsFiltered(ctx, services.PresetFilter{DeviceType: string(p.DeviceType), OnlyActive: true})
	if err != nil {
		serverError(w, r, err)
		return
	}
	brands, err := h.Presets.ListPresetBrands(ctx)
	if err != nil {
		serverError(w, r, err)
		return
	}
	recent, err := h.Grades.ListGradesForProject(ctx, p.ID, services.GradeScope{OnlyMineToday: true, UserID: currentSession(r).UserID})
	if err != nil {
		serverError(w, r, err)
		return
	}
	render(w, r, status, "grades_new.html", map[string]any{
		"Project":       p,
		"Presets":       presets,
		"Brands":        brands,
		"TouchStatuses": touchStatuses,
		"Recent":        recent,
		"Form":          form,
		"Errors":        errs,
	})
}

func (h *GradeHandler) Create(w http.ResponseWriter, r *http.Request) {
	p := h.currentProject(w, r)
	if p == nil {
		return
	}
	in, err := readInput(w, r)
	if err != nil {
		badRequest(w, r, err)
		return
	}
	user := identity(r)
	g, err := h.Grades.CreateGrade(r.Context(), user, services.GradeInput{
		SerialNumber:         in.str("serial_number"),
		PresetID:             in.id("preset_id"),
		Brand:                in.str("brand"),
		BrandOther:           in.str("brand_other"),
		Model:                in.str("model"),
		CPU:                  in.str("cpu"),
		RAMGB:                in.int("ram_gb"),
		SSDGB:                in.int("ssd_gb"),
		TouchStatus:          in.str("touch_status"),
		Observations:         in.str("observations"),
		BatteryHealthPercent: in.str("battery_health_percent"),
	}, p)
	if err != nil {
		if !isFormError(err, services.ErrDuplicateSerial, services.ErrProjectNotOpen) {
			serverError(w, r, err)
			return
		}
		if jsonRequested(r) {
			formErrorJSON(w, err)
			return
		}
		errs := violationsOf(err)
		if errs == nil {
			errs = validation.Violations{"form": err.Error()}
			if errors.Is(err, services.ErrDuplicateSerial) {
				errs["serial_number"] = err.Error()
			}
		}
		h.form(w, r, p, http.StatusUnprocessableEntity, in.form(), errs)
		return
	}
	log := logger.Ctx(r.Context())
	log.Info().Uint("grade_id", g.ID).Uint("project_id", p.ID).Str("serial", g.SerialNumber).Msg("grade saved")

	if in.flag("save_as_preset") {
		preset, err := h.Presets.CreatePresetFromUnit(r.Context(), user, services.UnitInput{
			DeviceType:  string(p.DeviceType),
			Brand:       g.Brand,
			Model:       g.Model,
			CPU:         g.CPU,
			RAMGB:       g.RAMGB,
			SSDGB:       g.SSDGB,
			TouchStatus: string(g.TouchStatus),
		})
		if err != nil {
			log.Warn().Err(err).Uint("grade_id", g.ID).Msg("save as preset failed")
		} else {
			log.Info().Uint("preset_id", preset.ID).Msg("preset saved from unit")
		}
	}

	if jsonRequested(r) {
		httpx.JSON(w, http.StatusCreated, g)
		return
	}
	view.Flash(w, r, "grade_saved")
	redirect(w, r, "/grades/new")
}

// List shows administrators the filtered search and technicians their own
// grades.
func (h *GradeHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if user := authorizedIdentity(r, h.Gate); !user.IsAdmin() {
		rows, err := h.Grades.ListGradesForUser(ctx, user)
		if err != nil {
			serverError(w, r, err)
			return
		}
		if httpx.WantsJSON(r) {
			httpx.JSON(w, http.StatusOK, map[string]any{"grades": rows})
			return
		}
		render(w, r, http.StatusOK, "grades.html", map[string]any{"Rows": rows})
		return
	}

	q := r.URL.Query()
	filter := map[string]string{}
	for _, k := range []string{"project_id", "model", "model_exact", "from", "to", "technician", "preset_id", "device_type"} {
		filter[k] = q.Get(k)
	}
	f := services.GradeFilter{
		ProjectID:  parseID(filter["project_id"]),
		Model:      filter["model"],
		ModelExact: validation.NormalizeBool(filter["model_exact"]),
		Technician: filter["technician"],
		PresetID:   parseID(filter["preset_id"]),
	}
	if dt := filter["device_type"]; dt != "" {
		f.DeviceType = string(models.ParseDeviceType(dt))
	}
	errs := validation.Violations{}
	f.From = parseDate("from", filter["from"], errs)
	f.To = parseDate("to", filter["to"], errs)

	var rows []models.GradeRow
	status := http.StatusOK
	if errs.Empty() {
		var err error
		if rows, err = h.Grades.ListGradesAdminFiltered(ctx, f); err != nil {
			serverError(w, r, err)
			return
		}
	} else {
		status = http.StatusUnprocessableEntity
		if httpx.WantsJSON(r) {
			httpx.JSONError(w, status, "validation_failed", errs)
			return
		}
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, status, map[string]any{"grades": rows})
		return
	}
	projects, err := h.Projects.ListProjects(ctx)
	if err != nil {
		serverError(w, r, err)
		return
	}
	presets, err := h.Presets.ListPresets(ctx, false)
	if err != nil {
		serverError(w, r, err)
		return
	}
	render(w, r, status, "grades.html", map[string]any{
		"AdminView":   true,
		"Filter":      filter,
		"Projects":    projects,
		"Presets":     presets,
		"DeviceTypes": deviceTypes,
		"Rows":        rows,
		"Errors":      errs,
	})
}

func parseID(raw string) uint {
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0
	}
	return uint(n)
}

// parseDate reads a YYYY-MM-DD day in local time. Blank means unset.
func parseDate(field, raw string, errs validation.Violations) *time.Time {
	if raw == "" {
		return nil
	}
	t, err := time.ParseInLocation(services.DateLayout, raw, time.Local)
	if err != nil {
		errs[field] = "invalid_date"
		return nil
	}
	return &t
}
