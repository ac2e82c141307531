package handlers

import (
	"errors"
	"net/http"

	"github.com/techbench/gradebook/internal/httpx"
	"github.com/techbench/gradebook/internal/logger"
	"github.com/techbench/gradebook/internal/services"
	"github.com/techbench/gradebook/internal/validation"
	"github.com/techbench/gradebook/internal/view"
)

type PresetHandler struct {
	Presets *services.PresetService
}

func NewPresetHandler(presets *services.PresetService) *PresetHandler {
	return &PresetHandler{Presets: presets}
}

func (h *PresetHandler) List(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, http.StatusOK, nil, nil)
}

func (h *PresetHandler) list(w http.ResponseWriter, r *http.Request, status int, form map[string]string, errs validation.Violations) {
	q := r.URL.Query()
	filter := map[string]string{
		"device_type": q.Get("device_type"),
		"brand":       q.Get("brand"),
		"model":       q.Get("model"),
	}
	presets, err := h.Presets.ListPresetsDetailed(r.Context(), services.PresetFilter{
		DeviceType: filter["device_type"],
		Brand:      filter["brand"],
		Model:      filter["model"],
	})
	if err != nil {
		serverError(w, r, err)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, status, map[string]any{"presets": presets})
		return
	}
	brands, err := h.Presets.ListPresetBrands(r.Context())
	if err != nil {
		serverError(w, r, err)
		return
	}
	render(w, r, status, "presets.html", map[string]any{
		"Presets":       presets,
		"DeviceTypes":   deviceTypes,
		"Brands":        brands,
		"TouchStatuses": touchStatuses,
		"Filter":        filter,
		"Form":          form,
		"Errors":        errs,
	})
}

func (h *PresetHandler) Create(w http.ResponseWriter, r *http.Request) {
	in, err := readInput(w, r)
	if err != nil {
		badRequest(w, r, err)
		return
	}
	p, err := h.Presets.CreatePreset(r.Context(), identity(r), services.PresetInput{
		DeviceType:          in.str("device_type"),
		Brand:               in.str("brand"),
		BrandOther:          in.str("brand_other"),
		Model:               in.str("model"),
		Label:               in.str("label"),
		CPU:                 in.str("cpu"),
		RAMGB:               in.int("ram_gb"),
		SSDGB:               in.int("ssd_gb"),
		TouchDefault:        in.str("touch_default"),
		ObservationsDefault: in.str("observations_default"),
	})
	h.created(w, r, in, p, err)
}

// CreateFromUnit derives a preset from the hardware of a graded unit.
func (h *PresetHandler) CreateFromUnit(w http.ResponseWriter, r *http.Request) {
	in, err := readInput(w, r)
	if err != nil {
		badRequest(w, r, err)
		return
	}
	p, err := h.Presets.CreatePresetFromUnit(r.Context(), identity(r), services.UnitInput{
		DeviceType:  in.str("device_type"),
		Brand:       in.str("brand"),
		BrandOther:  in.str("brand_other"),
		Model:       in.str("model"),
		CPU:         in.str("cpu"),
		RAMGB:       in.int("ram_gb"),
		SSDGB:       in.int("ssd_gb"),
		TouchStatus: in.str("touch_status"),
	})
	h.created(w, r, in, p, err)
}

func (h *PresetHandler) created(w http.ResponseWriter, r *http.Request, in input, p any, err error) {
	if err != nil {
		v := violationsOf(err)
		if v == nil {
			serverError(w, r, err)
			return
		}
		if jsonRequested(r) {
			formErrorJSON(w, err)
			return
		}
		h.list(w, r, http.StatusUnprocessableEntity, in.form(), v)
		return
	}
	if jsonRequested(r) {
		httpx.JSON(w, http.StatusCreated, p)
		return
	}
	view.Flash(w, r, "preset_saved")
	redirect(w, r, "/presets")
}

func (h *PresetHandler) Activate(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, true)
}

func (h *PresetHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, false)
}

func (h *PresetHandler) setActive(w http.ResponseWriter, r *http.Request, active bool) {
	id, ok := pathID(r)
	if !ok {
		notFound(w, r)
		return
	}
	err := h.Presets.SetPresetActive(r.Context(), id, active)
	if errors.Is(err, services.ErrNotFound) {
		notFound(w, r)
		return
	}
	if err != nil {
		serverError(w, r, err)
		return
	}
	logger.Ctx(r.Context()).Info().Uint("preset_id", id).Bool("active", active).Msg("preset updated")
	if jsonRequested(r) {
		httpx.JSON(w, http.StatusOK, map[string]any{"id": id, "active": active})
		return
	}
	view.Flash(w, r, "preset_updated")
	redirect(w, r, "/presets")
}
