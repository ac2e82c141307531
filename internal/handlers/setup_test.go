package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/techbench/gradebook/internal/auth"
	"github.com/techbench/gradebook/internal/gate"
	"github.com/techbench/gradebook/internal/models"
	"github.com/techbench/gradebook/internal/services"
)

type env struct {
	db       *gorm.DB
	users    *services.UserService
	projects *services.ProjectService
	presets  *services.PresetService
	grades   *services.GradeService
	profiles *gate.CachedResolver
	gate     *gate.Gate
	sessions *auth.Manager

	admin *models.Identity
	tech  *models.Identity
}

func newEnv(t *testing.T) *env {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared"), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models.All()...))

	e := &env{
		db:       db,
		users:    services.NewUserService(db),
		projects: services.NewProjectService(db),
		presets:  services.NewPresetService(db),
		grades:   services.NewGradeService(db),
		sessions: auth.NewManager("test-secret", time.Hour, time.Hour),
	}
	e.profiles = gate.NewCachedResolver(&gate.RoleResolver{Lookup: e.users.CurrentRole, NotFound: services.ErrNotFound}, time.Minute)
	e.gate = gate.New(e.profiles)
	e.admin = e.user(t, "boss", models.RoleAdmin)
	e.tech = e.user(t, "alice", models.RoleTech)
	return e
}

func (e *env) user(t *testing.T, name string, role models.Role) *models.Identity {
	t.Helper()
	u, err := e.users.CreateUser(context.Background(), name, "secret123", string(role))
	require.NoError(t, err)
	return &models.Identity{ID: u.ID, UserName: u.UserName, Role: u.Role}
}

func (e *env) project(t *testing.T, name string) *models.Project {
	t.Helper()
	p, err := e.projects.CreateProject(context.Background(), e.admin, services.ProjectInput{Name: name, DeviceType: "LAPTOP"})
	require.NoError(t, err)
	return p
}

func sessionFor(id *models.Identity, projectID uint) *auth.Session {
	return &auth.Session{UserID: id.ID, UserName: id.UserName, Role: id.Role, ProjectID: projectID}
}

// request builds a request carrying s. Bodies are form encoded unless the
// value is a JSON string.
func request(method, target string, s *auth.Session, body any) *http.Request {
	var r *http.Request
	switch b := body.(type) {
	case url.Values:
		r = httptest.NewRequest(method, target, strings.NewReader(b.Encode()))
		r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	case string:
		r = httptest.NewRequest(method, target, strings.NewReader(b))
		r.Header.Set("Content-Type", "application/json")
		r.Header.Set("Accept", "application/json")
	default:
		r = httptest.NewRequest(method, target, nil)
	}
	if s != nil {
		r = r.WithContext(auth.WithSession(r.Context(), s))
	}
	return r
}

func serve(h http.HandlerFunc, r *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h(w, r)
	return w
}
