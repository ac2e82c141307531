package models

import "time"

// DeviceType distinguishes laptop and desktop units.
type DeviceType string

const (
	DeviceLaptop  DeviceType = "LAPTOP"
	DeviceDesktop DeviceType = "DESKTOP"
)

// ParseDeviceType returns DeviceDesktop only for the exact string "DESKTOP".
func ParseDeviceType(raw string) DeviceType {
	if raw == string(DeviceDesktop) {
		return DeviceDesktop
	}
	return DeviceLaptop
}

// TouchStatus records the state of a unit's touch panel.
type TouchStatus string

const (
	TouchYes    TouchStatus = "TOUCH"
	TouchNo     TouchStatus = "NO_TOUCH"
	TouchBroken TouchStatus = "BROKEN"
)

// ModelPreset holds reusable defaults for a device model.
// Presets are deactivated rather than deleted so that grades keep a valid reference.
type ModelPreset struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	DeviceType DeviceType `gorm:"size:10;not null;default:'LAPTOP';index" json:"device_type"`
	Brand      string     `gorm:"size:100;not null;index" json:"brand"`
	Model      string     `gorm:"size:150;not null" json:"model"`
	Label      string     `gorm:"size:255;not null" json:"label"`

	CPUDefault          string      `gorm:"size:150;not null" json:"cpu_default"`
	RAMGBDefault        int         `gorm:"column:ram_gb_default;not null" json:"ram_gb_default"`
	SSDGBDefault        int         `gorm:"column:ssd_gb_default;not null" json:"ssd_gb_default"`
	TouchDefault        TouchStatus `gorm:"size:10;not null;default:'NO_TOUCH'" json:"touch_default"`
	ObservationsDefault string      `gorm:"type:text" json:"observations_default,omitempty"`

	Active bool `gorm:"not null;default:true;index" json:"active"`

	// CreatedByID is a weak reference; no foreign key constraint is declared.
	CreatedByID uint `gorm:"index" json:"created_by_id"`
}

// TableName keeps the table name stable regardless of gorm's naming strategy.
func (ModelPreset) TableName() string {
	return "model_presets"
}

// PresetWithCreator is a preset row joined with its creator's user name.
type PresetWithCreator struct {
	ModelPreset
	CreatedByName string `json:"created_by_name"`
}
