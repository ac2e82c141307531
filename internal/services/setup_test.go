package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/techbench/gradebook/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	// Use a unique in-memory database per test to avoid cross-test collisions.
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

func seedUser(t *testing.T, db *gorm.DB, name string, role models.Role) *models.Identity {
	t.Helper()
	u := models.User{UserName: name, PasswordHash: "x", Role: role, Active: true}
	require.NoError(t, db.Create(&u).Error)
	return &models.Identity{ID: u.ID, UserName: u.UserName, Role: u.Role}
}

func seedProject(t *testing.T, db *gorm.DB, admin *models.Identity, name string, dt models.DeviceType) *models.Project {
	t.Helper()
	p, err := NewProjectService(db).CreateProject(context.Background(), admin, ProjectInput{Name: name, DeviceType: string(dt)})
	require.NoError(t, err)
	return p
}

func seedPreset(t *testing.T, db *gorm.DB, user *models.Identity) *models.ModelPreset {
	t.Helper()
	p, err := NewPresetService(db).CreatePreset(context.Background(), user, PresetInput{
		DeviceType:          "LAPTOP",
		Brand:               "Dell",
		Model:               "Latitude 5490",
		CPU:                 "i5-8350U",
		RAMGB:               8,
		SSDGB:               256,
		TouchDefault:        "TOUCH",
		ObservationsDefault: "Minor scratches on lid",
	})
	require.NoError(t, err)
	return p
}
