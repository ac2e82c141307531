package models

import "time"

// LaptopGrade is one graded unit. Rows are immutable once inserted; the
// hardware fields are a snapshot taken from the submitted form and the preset
// defaults at creation time.
type LaptopGrade struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`

	ProjectID    uint   `gorm:"not null;uniqueIndex:idx_grade_project_serial" json:"project_id"`
	SerialNumber string `gorm:"size:100;not null;uniqueIndex:idx_grade_project_serial" json:"serial_number"`

	Brand string `gorm:"size:100;not null" json:"brand"`
	Model string `gorm:"size:150;not null;index" json:"model"`
	CPU   string `gorm:"size:150;not null" json:"cpu"`
	RAMGB int    `gorm:"column:ram_gb;not null" json:"ram_gb"`
	SSDGB int    `gorm:"column:ssd_gb;not null" json:"ssd_gb"`

	TouchStatus TouchStatus `gorm:"size:10;not null;default:'NO_TOUCH'" json:"touch_status"`
	// Touchscreen is kept for older reports; it mirrors TouchStatus == TOUCH.
	Touchscreen bool `gorm:"not null;default:false" json:"touchscreen"`

	BatteryHealthPercent *int   `json:"battery_health_percent,omitempty"`
	Observations         string `gorm:"type:text;not null" json:"observations"`

	PresetID    *uint        `gorm:"index" json:"preset_id,omitempty"`
	Preset      *ModelPreset `gorm:"foreignKey:PresetID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"-"`
	CreatedByID uint         `gorm:"index;not null" json:"created_by_id"`
	CreatedBy   *User        `gorm:"foreignKey:CreatedByID" json:"-"`
	Project     *Project     `gorm:"foreignKey:ProjectID" json:"-"`
}

// GradeRow is a grade joined with the names the list and export views show.
type GradeRow struct {
	LaptopGrade
	TechnicianName    string     `json:"technician_name"`
	ProjectName       string     `json:"project_name"`
	ProjectDeviceType DeviceType `json:"project_device_type"`
}

// All returns every model in foreign-key order, for migrations.
func All() []any {
	return []any{&User{}, &ModelPreset{}, &Project{}, &LaptopGrade{}}
}
