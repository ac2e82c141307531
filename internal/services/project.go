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

// DateLayout is the format of date inputs in forms and filters.
const DateLayout = "2006-01-02"

type ProjectInput struct {
	Name       string
	DeviceType string
	Date       string // optional, DateLayout
}

type ProjectService struct {
	DB  *gorm.DB
	Now func() time.Time
}

func NewProjectService(db *gorm.DB) *ProjectService {
	return &ProjectService{DB: db, Now: time.Now}
}

// CreateProject opens a new project. The device type is DESKTOP only when
// exactly "DESKTOP"; the date defaults to today.
func (s *ProjectService) CreateProject(ctx context.Context, user *models.Identity, in ProjectInput) (*models.Project, error) {
	name := strings.TrimSpace(in.Name)
	v := make(validation.Violations)
	validation.Required("name", name, v)

	date := startOfDay(s.Now())
	if raw := strings.TrimSpace(in.Date); raw != "" {
		d, err := time.ParseInLocation(DateLayout, raw, time.Local)
		if err != nil {
			v["date"] = "invalid_date"
		} else {
			date = d
		}
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	p := models.Project{
		Name:        name,
		ProjectDate: date,
		DeviceType:  models.ParseDeviceType(in.DeviceType),
		Status:      models.ProjectOpen,
		CreatedByID: user.ID,
	}
	if err := s.DB.WithContext(ctx).Create(&p).Error; err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}
	return &p, nil
}

// ListProjects returns every project, newest first, with its grade count.
func (s *ProjectService) ListProjects(ctx context.Context) ([]models.ProjectSummary, error) {
	return s.listSummaries(ctx, "")
}

// ListOpenProjects is ListProjects restricted to OPEN projects.
func (s *ProjectService) ListOpenProjects(ctx context.Context) ([]models.ProjectSummary, error) {
	return s.listSummaries(ctx, models.ProjectOpen)
}

func (s *ProjectService) listSummaries(ctx context.Context, status models.ProjectStatus) ([]models.ProjectSummary, error) {
	var out []models.ProjectSummary
	q := s.DB.WithContext(ctx).Table("projects AS p").
		Select("p.*, COUNT(g.id) AS grade_count").
		Joins("LEFT JOIN laptop_grades g ON g.project_id = p.id")
	if status != "" {
		q = q.Where("p.status = ?", status)
	}
	err := q.Group("p.id").Order("p.created_at DESC, p.id DESC").Scan(&out).Error
	return out, err
}

func (s *ProjectService) GetProject(ctx context.Context, id uint) (*models.Project, error) {
	var p models.Project
	if err := s.DB.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

// GetOpenProject fails with ErrProjectNotOpen for missing and closed projects.
func (s *ProjectService) GetOpenProject(ctx context.Context, id uint) (*models.Project, error) {
	p, err := s.GetProject(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrProjectNotOpen
	}
	if err != nil {
		return nil, err
	}
	if !p.IsOpen() {
		return nil, ErrProjectNotOpen
	}
	return p, nil
}

// SetProjectStatus closes the project when raw is exactly "CLOSED" and
// otherwise sets it OPEN.
func (s *ProjectService) SetProjectStatus(ctx context.Context, id uint, raw string) (models.ProjectStatus, error) {
	status := models.ProjectOpen
	if raw == string(models.ProjectClosed) {
		status = models.ProjectClosed
	}
	res := s.DB.WithContext(ctx).Model(&models.Project{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return "", res.Error
	}
	if res.RowsAffected == 0 {
		return "", ErrNotFound
	}
	return status, nil
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	return startOfDay(t).AddDate(0, 0, 1).Add(-time.Millisecond)
}
