package gate

import (
	"context"
	"errors"

	"github.com/techbench/gradebook/internal/models"
)

// Profile is a named set of permissions.
type Profile interface {
	Name() string
	HasPermission(permission Permission) bool
	Permissions() []Permission
}

// ProfileResolver maps a user to its current profile. A nil profile with a
// nil error means the user has no access at all.
type ProfileResolver interface {
	Resolve(ctx context.Context, userID uint) (Profile, error)
}

// StaticProfile is an in-memory profile.
type StaticProfile struct {
	name        string
	permissions map[Permission]bool
}

func NewStaticProfile(name string, permissions ...Permission) *StaticProfile {
	p := &StaticProfile{name: name, permissions: make(map[Permission]bool, len(permissions))}
	for _, perm := range permissions {
		p.permissions[perm] = true
	}
	return p
}

func (p *StaticProfile) Name() string { return p.name }

func (p *StaticProfile) Permissions() []Permission {
	perms := make([]Permission, 0, len(p.permissions))
	for perm := range p.permissions {
		perms = append(perms, perm)
	}
	return perms
}

func (p *StaticProfile) HasPermission(requested Permission) bool {
	for perm := range p.permissions {
		if perm.Matches(requested) {
			return true
		}
	}
	return false
}

// Built-in profiles for the two roles. Technicians grade units, manage their
// own presets and pick projects; administrators can do everything.
var (
	TechProfile = NewStaticProfile(string(models.RoleTech),
		NewPermission(ResourceGrade, ActionCreate),
		NewPermission(ResourceGrade, ActionList),
		NewPermission(ResourcePreset, ActionCreate),
		NewPermission(ResourcePreset, ActionList),
		NewPermission(ResourceProject, ActionList),
		NewPermission(ResourceProject, ActionView),
	)
	AdminProfile = NewStaticProfile(string(models.RoleAdmin), PermissionSuperAdmin)
)

// ProfileForRole returns the built-in profile of a role.
func ProfileForRole(role models.Role) Profile {
	if role == models.RoleAdmin {
		return AdminProfile
	}
	return TechProfile
}

// RoleLookup returns the stored role of an active user. It returns ErrNotFound
// (or any error wrapping it) for missing or disabled users.
type RoleLookup func(ctx context.Context, userID uint) (models.Role, error)

// RoleResolver resolves profiles from the role stored with the user, so role
// changes apply without a new login.
type RoleResolver struct {
	Lookup   RoleLookup
	NotFound error
}

func (r *RoleResolver) Resolve(ctx context.Context, userID uint) (Profile, error) {
	role, err := r.Lookup(ctx, userID)
	if err != nil {
		if r.NotFound != nil && errors.Is(err, r.NotFound) {
			return nil, nil
		}
		return nil, err
	}
	return ProfileForRole(role), nil
}
