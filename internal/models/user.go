package models

import "time"

// Role is one of the two fixed access levels.
type Role string

const (
	RoleTech  Role = "TECH"
	RoleAdmin Role = "ADMIN"
)

// ParseRole returns RoleAdmin only for the exact string "ADMIN".
func ParseRole(raw string) Role {
	if raw == string(RoleAdmin) {
		return RoleAdmin
	}
	return RoleTech
}

// User represents a technician or administrator account.
// Accounts are disabled through Active, never deleted.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	UserName     string    `gorm:"uniqueIndex;size:100;not null" json:"user_name"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"` // bcrypt, never exposed
	Role         Role      `gorm:"size:10;not null;default:'TECH'" json:"role"`
	Active       bool      `gorm:"not null;default:true" json:"active"`
}

// IsAdmin reports whether the user has the ADMIN role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Identity is what a successful login exposes about a user. The password hash
// never leaves the user service.
type Identity struct {
	ID       uint   `json:"id"`
	UserName string `json:"user_name"`
	Role     Role   `json:"role"`
}

func (i *Identity) IsAdmin() bool {
	return i != nil && i.Role == RoleAdmin
}
