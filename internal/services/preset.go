package services

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/techbench/gradebook/internal/models"
	"github.com/techbench/gradebook/internal/validation"
)

// BrandOther is the brand <select> value that switches to the free-text field.
const BrandOther = "OTHER"

// PresetInput is the preset form after normalization.
type PresetInput struct {
	DeviceType          string
	Brand               string
	BrandOther          string
	Model               string
	Label               string
	CPU                 string
	RAMGB               int
	SSDGB               int
	TouchDefault        string
	ObservationsDefault string
}

// UnitInput carries the fields of an already graded unit that a preset can be
// derived from.
type UnitInput struct {
	DeviceType  string
	Brand       string
	BrandOther  string
	Model       string
	CPU         string
	RAMGB       int
	SSDGB       int
	TouchStatus string
}

// PresetFilter narrows preset listings. Empty strings match everything.
type PresetFilter struct {
	DeviceType string
	Brand      string
	Model      string
	OnlyActive bool
}

type PresetService struct{ DB *gorm.DB }

func NewPresetService(db *gorm.DB) *PresetService { return &PresetService{DB: db} }

func resolveBrand(brand, other string) string {
	brand = strings.TrimSpace(brand)
	if brand == BrandOther {
		return strings.TrimSpace(other)
	}
	return brand
}

func checkPresetFields(brand, model, cpu string, ram, ssd int) error {
	v := make(validation.Violations)
	validation.Required("brand", brand, v)
	validation.Required("model", model, v)
	validation.Required("cpu", cpu, v)
	validation.PositiveInt("ram_gb", ram, v)
	validation.PositiveInt("ssd_gb", ssd, v)
	return v.Err()
}

// CreatePreset stores a new active preset. Without an explicit label the
// label is "brand model ram/ssd".
func (s *PresetService) CreatePreset(ctx context.Context, user *models.Identity, in PresetInput) (*models.ModelPreset, error) {
	brand := resolveBrand(in.Brand, in.BrandOther)
	model := strings.TrimSpace(in.Model)
	cpu := strings.TrimSpace(in.CPU)
	if err := checkPresetFields(brand, model, cpu, in.RAMGB, in.SSDGB); err != nil {
		return nil, err
	}
	label := strings.TrimSpace(in.Label)
	if label == "" {
		label = fmt.Sprintf("%s %s %d/%d", brand, model, in.RAMGB, in.SSDGB)
	}
	p := models.ModelPreset{
		DeviceType:          models.ParseDeviceType(in.DeviceType),
		Brand:               brand,
		Model:               model,
		Label:               label,
		CPUDefault:          cpu,
		RAMGBDefault:        in.RAMGB,
		SSDGBDefault:        in.SSDGB,
		TouchDefault:        validation.NormalizeTouchStatus(in.TouchDefault),
		ObservationsDefault: strings.TrimSpace(in.ObservationsDefault),
		Active:              true,
		CreatedByID:         user.ID,
	}
	if err := s.DB.WithContext(ctx).Create(&p).Error; err != nil {
		return nil, fmt.Errorf("create preset: %w", err)
	}
	return &p, nil
}

// CreatePresetFromUnit turns the hardware fields of a graded unit into a
// reusable preset. Observations are unit specific and are not copied.
func (s *PresetService) CreatePresetFromUnit(ctx context.Context, user *models.Identity, in UnitInput) (*models.ModelPreset, error) {
	brand := resolveBrand(in.Brand, in.BrandOther)
	model := strings.TrimSpace(in.Model)
	cpu := strings.TrimSpace(in.CPU)
	if err := checkPresetFields(brand, model, cpu, in.RAMGB, in.SSDGB); err != nil {
		return nil, err
	}
	p := models.ModelPreset{
		DeviceType: models.ParseDeviceType(in.DeviceType),
		Brand:      brand,
		Model:      model,
		Label: validation.BuildPresetLabel(validation.LabelParts{
			Brand: brand, Model: model, CPU: cpu, RAMGB: in.RAMGB, SSDGB: in.SSDGB,
		}),
		CPUDefault:   cpu,
		RAMGBDefault: in.RAMGB,
		SSDGBDefault: in.SSDGB,
		TouchDefault: validation.NormalizeTouchStatus(in.TouchStatus),
		Active:       true,
		CreatedByID:  user.ID,
	}
	if err := s.DB.WithContext(ctx).Create(&p).Error; err != nil {
		return nil, fmt.Errorf("create preset from unit: %w", err)
	}
	return &p, nil
}

func (s *PresetService) GetPreset(ctx context.Context, id uint) (*models.ModelPreset, error) {
	var p models.ModelPreset
	if err := s.DB.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func (s *PresetService) ListPresets(ctx context.Context, onlyActive bool) ([]models.ModelPreset, error) {
	return s.ListPresetsFiltered(ctx, PresetFilter{OnlyActive: onlyActive})
}

func (s *PresetService) ListPresetsFiltered(ctx context.Context, f PresetFilter) ([]models.ModelPreset, error) {
	var out []models.ModelPreset
	q := applyPresetFilter(s.DB.WithContext(ctx).Model(&models.ModelPreset{}), "", f)
	err := q.Order("brand ASC, model ASC, label ASC").Find(&out).Error
	return out, err
}

// ListPresetsDetailed is ListPresetsFiltered with the creator's user name.
func (s *PresetService) ListPresetsDetailed(ctx context.Context, f PresetFilter) ([]models.PresetWithCreator, error) {
	var out []models.PresetWithCreator
	q := s.DB.WithContext(ctx).Table("model_presets AS mp").
		Select("mp.*, COALESCE(u.user_name, '') AS created_by_name").
		Joins("LEFT JOIN users u ON u.id = mp.created_by_id")
	q = applyPresetFilter(q, "mp.", f)
	err := q.Order("mp.brand ASC, mp.model ASC, mp.label ASC").Scan(&out).Error
	return out, err
}

func applyPresetFilter(q *gorm.DB, prefix string, f PresetFilter) *gorm.DB {
	if f.OnlyActive {
		q = q.Where(prefix+"active = ?", true)
	}
	if f.DeviceType != "" {
		q = q.Where(prefix+"device_type = ?", f.DeviceType)
	}
	if f.Brand != "" {
		q = q.Where(prefix+"brand = ?", f.Brand)
	}
	if f.Model != "" {
		q = q.Where(prefix+"model = ?", f.Model)
	}
	return q
}

// ListPresetBrands returns the distinct brands of active presets, sorted.
func (s *PresetService) ListPresetBrands(ctx context.Context) ([]string, error) {
	var brands []string
	err := s.DB.WithContext(ctx).Model(&models.ModelPreset{}).
		Where("active = ?", true).
		Distinct().
		Order("brand ASC").
		Pluck("brand", &brands).Error
	return brands, err
}

// SetPresetActive flips the soft-delete flag. Grades referencing the preset
// are not touched.
func (s *PresetService) SetPresetActive(ctx context.Context, id uint, active bool) error {
	res := s.DB.WithContext(ctx).Model(&models.ModelPreset{}).Where("id = ?", id).Update("active", active)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PresetService) DisablePreset(ctx context.Context, id uint) error {
	return s.SetPresetActive(ctx, id, false)
}
