package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/techbench/gradebook/internal/models"
	"github.com/techbench/gradebook/internal/validation"
)

// Row caps for the grade listings.
const (
	projectGradeLimit = 1000
	userGradeLimit    = 500
	adminGradeLimit   = 2000
)

// GradeInput is the grade form after normalization. Zero values mean "not
// submitted" and fall back to the preset defaults.
type GradeInput struct {
	SerialNumber string
	PresetID     uint
	Brand        string
	BrandOther   string
	Model        string
	CPU          string
	RAMGB        int
	SSDGB        int
	TouchStatus  string
	Observations string
	// BatteryHealthPercent is kept raw: empty means not measured.
	BatteryHealthPercent string
}

// GradeScope restricts ListGradesForProject to one technician's grades of today.
type GradeScope struct {
	OnlyMineToday bool
	UserID        uint
}

// GradeFilter is the admin search form. Zero values do not filter.
type GradeFilter struct {
	ProjectID  uint
	Model      string
	ModelExact bool
	From       *time.Time
	To         *time.Time
	Technician string
	PresetID   uint
	DeviceType string
}

type GradeService struct {
	DB  *gorm.DB
	Now func() time.Time
}

func NewGradeService(db *gorm.DB) *GradeService {
	return &GradeService{DB: db, Now: time.Now}
}

// CreateGrade validates the submission against the project and the optional
// preset, materializes the preset defaults into the grade and inserts it.
// Nothing is written unless every check passes.
func (s *GradeService) CreateGrade(ctx context.Context, user *models.Identity, in GradeInput, project *models.Project) (*models.LaptopGrade, error) {
	if !project.IsOpen() {
		return nil, ErrProjectNotOpen
	}
	db := s.DB.WithContext(ctx)

	var defaults models.ModelPreset
	var presetID *uint
	if in.PresetID != 0 {
		var p models.ModelPreset
		err := db.First(&p, in.PresetID).Error
		switch {
		case err == nil:
			id := p.ID
			presetID = &id
			if p.Active {
				defaults = p
			}
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return nil, fmt.Errorf("load preset: %w", err)
		}
	}

	v := make(validation.Violations)
	serial := strings.TrimSpace(in.SerialNumber)
	validation.Required("serial_number", serial, v)
	if serial != "" {
		var count int64
		err := db.Model(&models.LaptopGrade{}).
			Where("project_id = ? AND serial_number = ?", project.ID, serial).
			Count(&count).Error
		if err != nil {
			return nil, err
		}
		if count > 0 {
			return nil, ErrDuplicateSerial
		}
	}

	g := models.LaptopGrade{
		ProjectID:    project.ID,
		SerialNumber: serial,
		Brand:        validation.ResolveString(resolveBrand(in.Brand, in.BrandOther), defaults.Brand),
		Model:        validation.ResolveString(in.Model, defaults.Model),
		CPU:          validation.ResolveString(in.CPU, defaults.CPUDefault),
		RAMGB:        validation.ResolveInt(in.RAMGB, defaults.RAMGBDefault),
		SSDGB:        validation.ResolveInt(in.SSDGB, defaults.SSDGBDefault),
		Observations: validation.ResolveString(in.Observations, defaults.ObservationsDefault),
		PresetID:     presetID,
		CreatedByID:  user.ID,
	}
	validation.Required("brand", g.Brand, v)
	validation.Required("model", g.Model, v)
	validation.Required("cpu", g.CPU, v)
	validation.PositiveInt("ram_gb", g.RAMGB, v)
	validation.PositiveInt("ssd_gb", g.SSDGB, v)
	validation.Required("observations", g.Observations, v)

	g.TouchStatus = resolveTouch(in.TouchStatus, defaults.TouchDefault)
	g.Touchscreen = g.TouchStatus == models.TouchYes

	if raw := strings.TrimSpace(in.BatteryHealthPercent); raw != "" {
		pct := validation.NormalizeInt(raw, -1)
		validation.RangeInt("battery_health_percent", pct, 0, 100, v)
		g.BatteryHealthPercent = &pct
	}

	if err := v.Err(); err != nil {
		return nil, err
	}
	if err := db.Create(&g).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateSerial
		}
		return nil, fmt.Errorf("create grade: %w", err)
	}
	return &g, nil
}

func resolveTouch(submitted string, fallback models.TouchStatus) models.TouchStatus {
	if strings.TrimSpace(submitted) != "" {
		return validation.NormalizeTouchStatus(submitted)
	}
	if fallback != "" {
		return fallback
	}
	return models.TouchNo
}

func (s *GradeService) rows(ctx context.Context) *gorm.DB {
	return s.DB.WithContext(ctx).Table("laptop_grades AS g").
		Select("g.*, u.user_name AS technician_name, p.name AS project_name, p.device_type AS project_device_type").
		Joins("JOIN users u ON u.id = g.created_by_id").
		Joins("JOIN projects p ON p.id = g.project_id")
}

// ListGradesForProject lists a project's grades, newest first. With
// OnlyMineToday only the given user's grades of the current local day are
// returned.
func (s *GradeService) ListGradesForProject(ctx context.Context, projectID uint, scope GradeScope) ([]models.GradeRow, error) {
	q := s.rows(ctx).Where("g.project_id = ?", projectID)
	if scope.OnlyMineToday {
		now := s.Now()
		q = q.Where("g.created_by_id = ?", scope.UserID).
			Where("g.created_at BETWEEN ? AND ?", startOfDay(now), endOfDay(now))
	}
	var out []models.GradeRow
	err := q.Order("g.created_at DESC, g.id DESC").Limit(projectGradeLimit).Scan(&out).Error
	return out, err
}

// ListGradesForUser returns every grade for admins and only the user's own
// grades otherwise.
func (s *GradeService) ListGradesForUser(ctx context.Context, user *models.Identity) ([]models.GradeRow, error) {
	q := s.rows(ctx)
	if !user.IsAdmin() {
		q = q.Where("g.created_by_id = ?", user.ID)
	}
	var out []models.GradeRow
	err := q.Order("g.created_at DESC, g.id DESC").Limit(userGradeLimit).Scan(&out).Error
	return out, err
}

// ListGradesAdminFiltered applies every non-zero filter field. From and To
// are whole days: From starts at 00:00, To ends at 23:59:59.999.
func (s *GradeService) ListGradesAdminFiltered(ctx context.Context, f GradeFilter) ([]models.GradeRow, error) {
	q := s.rows(ctx)
	if f.ProjectID != 0 {
		q = q.Where("g.project_id = ?", f.ProjectID)
	}
	if m := strings.TrimSpace(f.Model); m != "" {
		if f.ModelExact {
			q = q.Where("g.model = ?", m)
		} else {
			q = q.Where("LOWER(g.model) LIKE ?", "%"+strings.ToLower(m)+"%")
		}
	}
	switch {
	case f.From != nil && f.To != nil:
		q = q.Where("g.created_at BETWEEN ? AND ?", startOfDay(*f.From), endOfDay(*f.To))
	case f.From != nil:
		q = q.Where("g.created_at >= ?", startOfDay(*f.From))
	case f.To != nil:
		q = q.Where("g.created_at <= ?", endOfDay(*f.To))
	}
	if t := strings.TrimSpace(f.Technician); t != "" {
		q = q.Where("u.user_name = ?", t)
	}
	if f.PresetID != 0 {
		q = q.Where("g.preset_id = ?", f.PresetID)
	}
	if f.DeviceType != "" {
		q = q.Where("p.device_type = ?", f.DeviceType)
	}
	var out []models.GradeRow
	err := q.Order("g.created_at DESC, g.id DESC").Limit(adminGradeLimit).Scan(&out).Error
	return out, err
}

// ListGradesForExport returns a project's grades oldest first.
func (s *GradeService) ListGradesForExport(ctx context.Context, projectID uint) ([]models.GradeRow, error) {
	var out []models.GradeRow
	err := s.rows(ctx).Where("g.project_id = ?", projectID).
		Order("g.created_at ASC, g.id ASC").
		Scan(&out).Error
	return out, err
}
