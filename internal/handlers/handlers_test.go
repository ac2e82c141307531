package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/techbench/gradebook/internal/models"
	"github.com/techbench/gradebook/internal/services"
)

func TestLogin(t *testing.T) {
	e := newEnv(t)
	h := NewAuthHandler(e.users, e.sessions)

	w := serve(h.Login, request(http.MethodPost, "/login", nil, url.Values{"user_name": {"alice"}, "password": {"secret123"}}))
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/projects", w.Header().Get("Location"))
	require.NotEmpty(t, w.Result().Cookies())

	w = serve(h.Login, request(http.MethodPost, "/login", nil, url.Values{"user_name": {"alice"}, "password": {"nope"}}))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid user name or password")
	assert.Contains(t, w.Body.String(), `value="alice"`)

	w = serve(h.Login, request(http.MethodPost, "/login", nil, `{"user_name":"alice","password":"nope"}`))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"invalid_credentials"}`, w.Body.String())
}

func TestLoginFormRedirectsWhenLoggedIn(t *testing.T) {
	e := newEnv(t)
	h := NewAuthHandler(e.users, e.sessions)

	w := serve(h.LoginForm, request(http.MethodGet, "/login", sessionFor(e.tech, 0), nil))
	assert.Equal(t, http.StatusSeeOther, w.Code)

	w = serve(h.LoginForm, request(http.MethodGet, "/login", nil, nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestLogout(t *testing.T) {
	e := newEnv(t)
	h := NewAuthHandler(e.users, e.sessions)
	w := serve(h.Logout, request(http.MethodPost, "/logout", sessionFor(e.tech, 0), nil))
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))
}

func TestProjectListByRole(t *testing.T) {
	e := newEnv(t)
	h := NewProjectHandler(e.projects, e.grades, e.sessions, e.gate)
	open := e.project(t, "Batch A")
	closed := e.project(t, "Batch B")
	_, err := e.projects.SetProjectStatus(context.Background(), closed.ID, "CLOSED")
	require.NoError(t, err)

	r := request(http.MethodGet, "/projects", sessionFor(e.tech, 0), nil)
	r.Header.Set("Accept", "application/json")
	w := serve(h.List, r)
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Projects []models.ProjectSummary `json:"projects"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Projects, 1)
	assert.Equal(t, open.ID, body.Projects[0].ID)

	r = request(http.MethodGet, "/projects", sessionFor(e.admin, 0), nil)
	r.Header.Set("Accept", "application/json")
	w = serve(h.List, r)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Len(t, body.Projects, 2)

	w = serve(h.List, request(http.MethodGet, "/projects", sessionFor(e.admin, 0), nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Batch B")
}

func TestProjectCreateValidation(t *testing.T) {
	e := newEnv(t)
	h := NewProjectHandler(e.projects, e.grades, e.sessions, e.gate)

	w := serve(h.Create, request(http.MethodPost, "/projects", sessionFor(e.admin, 0), url.Values{"name": {" "}}))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = serve(h.Create, request(http.MethodPost, "/projects", sessionFor(e.admin, 0), `{"name":""}`))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), `"error":"validation_failed"`)

	w = serve(h.Create, request(http.MethodPost, "/projects", sessionFor(e.admin, 0), url.Values{"name": {"Batch C"}, "device_type": {"DESKTOP"}}))
	assert.Equal(t, http.StatusSeeOther, w.Code)
}

func TestProjectSelectAndClose(t *testing.T) {
	e := newEnv(t)
	h := NewProjectHandler(e.projects, e.grades, e.sessions, e.gate)
	p := e.project(t, "Batch A")

	r := request(http.MethodPost, "/projects/x/select", sessionFor(e.tech, 0), nil)
	r.SetPathValue("id", fmt.Sprint(p.ID))
	w := serve(h.Select, r)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/grades/new", w.Header().Get("Location"))
	require.NotEmpty(t, w.Result().Cookies())

	r = request(http.MethodPost, "/projects/x/close", sessionFor(e.admin, 0), nil)
	r.SetPathValue("id", fmt.Sprint(p.ID))
	w = serve(h.Close, r)
	assert.Equal(t, http.StatusSeeOther, w.Code)

	r = request(http.MethodPost, "/projects/x/select", sessionFor(e.tech, 0), `{}`)
	r.SetPathValue("id", fmt.Sprint(p.ID))
	w = serve(h.Select, r)
	assert.Equal(t, http.StatusConflict, w.Code)

	r = request(http.MethodPost, "/projects/x/close", sessionFor(e.admin, 0), nil)
	r.SetPathValue("id", "999")
	w = serve(h.Close, r)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestProjectExport(t *testing.T) {
	e := newEnv(t)
	h := NewProjectHandler(e.projects, e.grades, e.sessions, e.gate)
	p := e.project(t, "Batch A")
	_, err := e.grades.CreateGrade(context.Background(), e.tech, services.GradeInput{
		SerialNumber: "SN1", Brand: "Dell", Model: "Latitude", CPU: "i5", RAMGB: 8, SSDGB: 256, Observations: "ok",
	}, p)
	require.NoError(t, err)

	r := request(http.MethodGet, "/projects/x/export.csv", sessionFor(e.admin, 0), nil)
	r.SetPathValue("id", fmt.Sprint(p.ID))
	w := serve(h.Export, r)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), services.ExportFileName(p))
	lines := strings.Split(strings.TrimRight(w.Body.String(), "\r\n"), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[1], `"SN1"`)
}

func TestGradeNewRequiresProject(t *testing.T) {
	e := newEnv(t)
	h := NewGradeHandler(e.grades, e.projects, e.presets, e.gate)

	w := serve(h.New, request(http.MethodGet, "/grades/new", sessionFor(e.tech, 0), nil))
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/projects", w.Header().Get("Location"))

	p := e.project(t, "Batch A")
	w = serve(h.New, request(http.MethodGet, "/grades/new", sessionFor(e.tech, p.ID), nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Batch A")
}

func TestGradeNewPrefillsFromPreset(t *testing.T) {
	e := newEnv(t)
	h := NewGradeHandler(e.grades, e.projects, e.presets, e.gate)
	p := e.project(t, "Batch A")
	preset, err := e.presets.CreatePreset(context.Background(), e.tech, services.PresetInput{
		DeviceType: "LAPTOP", Brand: "Dell", Model: "Latitude 5490", CPU: "i5-8350U", RAMGB: 8, SSDGB: 256,
		ObservationsDefault: "Minor scratches on lid",
	})
	require.NoError(t, err)
	s := sessionFor(e.tech, p.ID)

	w := serve(h.New, request(http.MethodGet, fmt.Sprintf("/grades/new?preset_id=%d", preset.ID), s, nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `value="i5-8350U"`)
	assert.Contains(t, w.Body.String(), "Minor scratches on lid")

	require.NoError(t, e.presets.DisablePreset(context.Background(), preset.ID))
	w = serve(h.New, request(http.MethodGet, fmt.Sprintf("/grades/new?preset_id=%d", preset.ID), s, nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), `value="i5-8350U"`)

	w = serve(h.New, request(http.MethodGet, "/grades/new?preset_id=999", s, nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGradeCreate(t *testing.T) {
	e := newEnv(t)
	h := NewGradeHandler(e.grades, e.projects, e.presets, e.gate)
	p := e.project(t, "Batch A")
	s := sessionFor(e.tech, p.ID)
	form := url.Values{
		"serial_number": {"SN100"}, "brand": {"OTHER"}, "brand_other": {"Framework"},
		"model": {"Laptop 13"}, "cpu": {"i7-1165G7"}, "ram_gb": {"16"}, "ssd_gb": {"512"},
		"observations": {"Clean"}, "battery_health_percent": {"91"}, "save_as_preset": {"1"},
	}

	w := serve(h.Create, request(http.MethodPost, "/grades", s, form))
	require.Equal(t, http.StatusSeeOther, w.Code)

	var g models.LaptopGrade
	require.NoError(t, e.db.Where("serial_number = ?", "SN100").First(&g).Error)
	assert.Equal(t, "Framework", g.Brand)
	require.NotNil(t, g.BatteryHealthPercent)
	assert.Equal(t, 91, *g.BatteryHealthPercent)

	var presets []models.ModelPreset
	require.NoError(t, e.db.Find(&presets).Error)
	require.Len(t, presets, 1)
	assert.Equal(t, "Framework Laptop 13 i7-1165G7 16/512", presets[0].Label)

	w = serve(h.Create, request(http.MethodPost, "/grades", s, form))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), `value="SN100"`)

	w = serve(h.Create, request(http.MethodPost, "/grades", s, `{"serial_number":"SN100","brand":"Dell","model":"X","cpu":"i5","ram_gb":8,"ssd_gb":256,"observations":"ok"}`))
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.JSONEq(t, `{"error":"duplicate_serial"}`, w.Body.String())

	w = serve(h.Create, request(http.MethodPost, "/grades", s, `{"serial_number":"SN200","battery_health_percent":"120"}`))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "battery_health_percent")
}

func TestGradeListScopes(t *testing.T) {
	e := newEnv(t)
	h := NewGradeHandler(e.grades, e.projects, e.presets, e.gate)
	p := e.project(t, "Batch A")
	bob := e.user(t, "bob", models.RoleTech)
	for i, u := range []*models.Identity{e.tech, bob} {
		_, err := e.grades.CreateGrade(context.Background(), u, services.GradeInput{
			SerialNumber: fmt.Sprintf("SN%d", i), Brand: "Dell", Model: "Latitude", CPU: "i5", RAMGB: 8, SSDGB: 256, Observations: "ok",
		}, p)
		require.NoError(t, err)
	}

	list := func(s *models.Identity, query string) (int, []models.GradeRow) {
		r := request(http.MethodGet, "/grades"+query, sessionFor(s, 0), nil)
		r.Header.Set("Accept", "application/json")
		w := serve(h.List, r)
		var body struct {
			Grades []models.GradeRow `json:"grades"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		return w.Code, body.Grades
	}

	_, rows := list(e.tech, "")
	require.Len(t, rows, 1)
	assert.Equal(t, "alice", rows[0].TechnicianName)

	_, rows = list(e.admin, "")
	assert.Len(t, rows, 2)

	_, rows = list(e.admin, "?technician=bob")
	require.Len(t, rows, 1)
	assert.Equal(t, "SN1", rows[0].SerialNumber)

	code, _ := list(e.admin, "?from=17/10/2026")
	assert.Equal(t, http.StatusUnprocessableEntity, code)

	w := serve(h.List, request(http.MethodGet, "/grades?to=nope", sessionFor(e.admin, 0), nil))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestGradeListFollowsCurrentRole(t *testing.T) {
	e := newEnv(t)
	h := NewGradeHandler(e.grades, e.projects, e.presets, e.gate)
	p := e.project(t, "Batch A")
	_, err := e.grades.CreateGrade(context.Background(), e.tech, services.GradeInput{
		SerialNumber: "SN1", Brand: "Dell", Model: "Latitude", CPU: "i5", RAMGB: 8, SSDGB: 256, Observations: "ok",
	}, p)
	require.NoError(t, err)

	// The cookie still says ADMIN after the demotion.
	s := sessionFor(e.admin, 0)
	require.NoError(t, e.users.SetUserRole(context.Background(), e.admin.ID, "TECH"))
	e.profiles.Invalidate(e.admin.ID)

	r := request(http.MethodGet, "/grades", s, nil)
	r.Header.Set("Accept", "application/json")
	w := serve(h.List, r)
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Grades []models.GradeRow `json:"grades"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Empty(t, body.Grades)
}

func TestPresetHandlers(t *testing.T) {
	e := newEnv(t)
	h := NewPresetHandler(e.presets)
	s := sessionFor(e.tech, 0)

	w := serve(h.Create, request(http.MethodPost, "/presets", s, url.Values{"brand": {"Dell"}}))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = serve(h.Create, request(http.MethodPost, "/presets", s, `{"device_type":"LAPTOP","brand":"Dell","model":"Latitude 7490","cpu":"i7-8650U","ram_gb":16,"ssd_gb":512}`))
	require.Equal(t, http.StatusCreated, w.Code)
	var p models.ModelPreset
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &p))
	assert.True(t, p.Active)

	w = serve(h.CreateFromUnit, request(http.MethodPost, "/presets/from-unit", s, url.Values{
		"device_type": {"DESKTOP"}, "brand": {"HP"}, "model": {"EliteDesk 800"}, "cpu": {"i5-9500"}, "ram_gb": {"16"}, "ssd_gb": {"512"},
	}))
	assert.Equal(t, http.StatusSeeOther, w.Code)

	r := request(http.MethodPost, "/presets/x/deactivate", sessionFor(e.admin, 0), nil)
	r.SetPathValue("id", fmt.Sprint(p.ID))
	w = serve(h.Deactivate, r)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	got, err := e.presets.GetPreset(context.Background(), p.ID)
	require.NoError(t, err)
	assert.False(t, got.Active)

	r = request(http.MethodPost, "/presets/x/activate", sessionFor(e.admin, 0), nil)
	r.SetPathValue("id", "999")
	w = serve(h.Activate, r)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = serve(h.List, request(http.MethodGet, "/presets?device_type=DESKTOP", s, nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "EliteDesk 800")
	assert.NotContains(t, w.Body.String(), "Latitude 7490")
}

func TestUserHandlers(t *testing.T) {
	e := newEnv(t)
	h := NewUserHandler(e.users, e.profiles)
	s := sessionFor(e.admin, 0)
	ctx := context.Background()

	w := serve(h.Create, request(http.MethodPost, "/admin/users", s, url.Values{"user_name": {"alice"}, "password": {"secret123"}}))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.NotContains(t, w.Body.String(), "secret123")

	w = serve(h.Create, request(http.MethodPost, "/admin/users", s, url.Values{"user_name": {"carol"}, "password": {"secret123"}, "role": {"TECH"}}))
	assert.Equal(t, http.StatusSeeOther, w.Code)

	// Promotion applies without a new login once the cached profile is dropped.
	assert.False(t, e.gate.IsAdmin(ctx, e.tech.ID))
	r := request(http.MethodPost, "/admin/users/x/role", s, url.Values{"role": {"ADMIN"}})
	r.SetPathValue("id", fmt.Sprint(e.tech.ID))
	w = serve(h.SetRole, r)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.True(t, e.gate.IsAdmin(ctx, e.tech.ID))

	r = request(http.MethodPost, "/admin/users/x/active", s, url.Values{"active": {"0"}})
	r.SetPathValue("id", fmt.Sprint(e.tech.ID))
	w = serve(h.SetActive, r)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	active, err := e.users.IsActive(ctx, e.tech.ID)
	require.NoError(t, err)
	assert.False(t, active)
	assert.False(t, e.gate.IsAdmin(ctx, e.tech.ID))

	r = request(http.MethodPost, "/admin/users/x/role", s, `{"role":"TECH"}`)
	r.SetPathValue("id", fmt.Sprint(e.admin.ID))
	w = serve(h.SetRole, r)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.JSONEq(t, `{"error":"cannot_change_self"}`, w.Body.String())

	r = request(http.MethodPost, "/admin/users/x/active", s, url.Values{"active": {"1"}})
	r.SetPathValue("id", "999")
	w = serve(h.SetActive, r)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
