package main

import (
	"context"
	"net/http"
	"time"

	"gorm.io/gorm"

	"github.com/techbench/gradebook/internal/auth"
	"github.com/techbench/gradebook/internal/config"
	"github.com/techbench/gradebook/internal/gate"
	"github.com/techbench/gradebook/internal/handlers"
	"github.com/techbench/gradebook/internal/httpx"
	"github.com/techbench/gradebook/internal/logger"
	"github.com/techbench/gradebook/internal/middleware"
	"github.com/techbench/gradebook/internal/services"
	"github.com/techbench/gradebook/internal/view"
)

// profileTTL bounds how long a role change can take to reach a user whose
// cached profile was not invalidated, e.g. after a direct database edit.
const profileTTL = 30 * time.Second

// App is the main application handler that sets up all routes.
type App struct {
	mux      *http.ServeMux
	handler  http.Handler
	db       *gorm.DB
	gate     *gate.Gate
	profiles *gate.CachedResolver
	sessions *auth.Manager

	auth     *handlers.AuthHandler
	projects *handlers.ProjectHandler
	grades   *handlers.GradeHandler
	presets  *handlers.PresetHandler
	users    *handlers.UserHandler
}

// NewApp wires services, handlers and middleware.
func NewApp(gdb *gorm.DB, cfg config.Config, log *logger.Logger) *App {
	userSvc := services.NewUserService(gdb)
	projectSvc := services.NewProjectService(gdb)
	presetSvc := services.NewPresetService(gdb)
	gradeSvc := services.NewGradeService(gdb)

	profiles := gate.NewCachedResolver(&gate.RoleResolver{
		Lookup:   userSvc.CurrentRole,
		NotFound: services.ErrNotFound,
	}, profileTTL)
	g := gate.New(profiles)

	sessions := auth.NewManager(cfg.Session.Secret, cfg.Session.MaxAge, cfg.Session.Idle)
	sessions.Secure = cfg.App.IsProduction()
	sessions.Verifier = func(ctx context.Context, uid uint) bool {
		ok, err := userSvc.IsActive(ctx, uid)
		if err != nil {
			logger.Ctx(ctx).Error().Err(err).Uint("user_id", uid).Msg("user check failed")
		}
		return ok
	}

	app := &App{
		mux:      http.NewServeMux(),
		db:       gdb,
		gate:     g,
		profiles: profiles,
		sessions: sessions,
		auth:     handlers.NewAuthHandler(userSvc, sessions),
		projects: handlers.NewProjectHandler(projectSvc, gradeSvc, sessions, g),
		grades:   handlers.NewGradeHandler(gradeSvc, projectSvc, presetSvc, g),
		presets:  handlers.NewPresetHandler(presetSvc),
		users:    handlers.NewUserHandler(userSvc, profiles),
	}

	view.SetLangResolver(middleware.LangFrom)
	view.SetIsAdminResolver(func(r *http.Request) bool {
		s, ok := auth.SessionFromContext(r.Context())
		return ok && g.IsAdmin(r.Context(), s.UserID)
	})
	view.SetCanResolver(func(r *http.Request, resource, action string) bool {
		s, ok := auth.SessionFromContext(r.Context())
		return ok && g.Can(r.Context(), s.UserID, gate.Action(action), resource)
	})

	app.setupRoutes()
	app.handler = middleware.Chain(app.mux,
		middleware.RequestLog(log),
		middleware.Recover,
		middleware.SecurityHeaders,
		middleware.Prefs,
		middleware.CSRF(cfg.Session.CSRFAuthKey(), cfg.App.IsProduction()),
		sessions.Middleware,
	)
	return app
}

// ServeHTTP implements http.Handler.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.handler.ServeHTTP(w, r)
}

// route registers h behind a session and, when resource is set, a permission.
func (a *App) route(pattern string, h http.HandlerFunc, action gate.Action, resource string) {
	var next http.Handler = h
	if resource != "" {
		next = auth.RequirePermission(a.gate, action, resource)(next)
	}
	a.mux.Handle(pattern, a.sessions.RequireAuth(next))
}

func (a *App) setupRoutes() {
	// Public
	a.mux.HandleFunc("GET /login", a.auth.LoginForm)
	a.mux.HandleFunc("POST /login", a.auth.Login)
	a.mux.HandleFunc("GET /logout", a.auth.Logout)
	a.mux.HandleFunc("POST /logout", a.auth.Logout)
	a.mux.HandleFunc("GET /healthz", a.healthz)
	a.mux.Handle("GET /static/", view.Static())

	// Any signed-in user
	a.route("GET /{$}", a.home, "", "")
	a.route("GET /projects", a.projects.List, gate.ActionList, gate.ResourceProject)
	a.route("POST /projects/{id}/select", a.projects.Select, gate.ActionView, gate.ResourceProject)
	a.route("GET /grades/new", a.grades.New, gate.ActionCreate, gate.ResourceGrade)
	a.route("POST /grades", a.grades.Create, gate.ActionCreate, gate.ResourceGrade)
	a.route("GET /grades", a.grades.List, gate.ActionList, gate.ResourceGrade)
	a.route("GET /presets", a.presets.List, gate.ActionList, gate.ResourcePreset)
	a.route("POST /presets", a.presets.Create, gate.ActionCreate, gate.ResourcePreset)
	a.route("POST /presets/from-unit", a.presets.CreateFromUnit, gate.ActionCreate, gate.ResourcePreset)

	// Administrators
	a.route("POST /projects", a.projects.Create, gate.ActionCreate, gate.ResourceProject)
	a.route("POST /projects/{id}/close", a.projects.Close, gate.ActionUpdate, gate.ResourceProject)
	a.route("GET /projects/{id}/export.csv", a.projects.Export, gate.ActionExport, gate.ResourceProject)
	a.route("POST /presets/{id}/activate", a.presets.Activate, gate.ActionUpdate, gate.ResourcePreset)
	a.route("POST /presets/{id}/deactivate", a.presets.Deactivate, gate.ActionUpdate, gate.ResourcePreset)
	a.route("GET /admin/users", a.users.List, gate.ActionList, gate.ResourceUser)
	a.route("POST /admin/users", a.users.Create, gate.ActionCreate, gate.ResourceUser)
	a.route("POST /admin/users/{id}/active", a.users.SetActive, gate.ActionUpdate, gate.ResourceUser)
	a.route("POST /admin/users/{id}/role", a.users.SetRole, gate.ActionUpdate, gate.ResourceUser)
}

func (a *App) home(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/projects", http.StatusSeeOther)
}

func (a *App) healthz(w http.ResponseWriter, r *http.Request) {
	sqlDB, err := a.db.DB()
	if err == nil {
		err = sqlDB.PingContext(r.Context())
	}
	if err != nil {
		logger.Ctx(r.Context()).Error().Err(err).Msg("health check failed")
		httpx.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
