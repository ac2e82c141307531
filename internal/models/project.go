package models

import "time"

// ProjectStatus is OPEN while technicians may record grades.
type ProjectStatus string

const (
	ProjectOpen   ProjectStatus = "OPEN"
	ProjectClosed ProjectStatus = "CLOSED"
)

// Project groups the grades of one batch of devices.
type Project struct {
	ID          uint          `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
	Name        string        `gorm:"size:255;not null" json:"name"`
	ProjectDate time.Time     `gorm:"not null" json:"project_date"`
	DeviceType  DeviceType    `gorm:"size:10;not null;default:'LAPTOP'" json:"device_type"`
	Status      ProjectStatus `gorm:"size:10;not null;default:'OPEN';index" json:"status"`
	CreatedByID uint          `gorm:"index;not null" json:"created_by_id"`
	CreatedBy   *User         `gorm:"foreignKey:CreatedByID" json:"-"`

	Grades []LaptopGrade `gorm:"foreignKey:ProjectID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
}

// IsOpen reports whether grades may still be recorded against the project.
func (p *Project) IsOpen() bool {
	return p != nil && p.Status == ProjectOpen
}

// ProjectSummary is a project annotated with its number of grades.
type ProjectSummary struct {
	Project
	GradeCount int64 `json:"grade_count"`
}
