// Package gate decides what an authenticated user may do. Each role maps to
// a profile of "resource:action" permissions; the profile is resolved from
// the user's stored role on every check.
package gate

import "context"

// Gate is the central authorization checkpoint.
type Gate struct {
	resolver ProfileResolver
}

func New(resolver ProfileResolver) *Gate {
	return &Gate{resolver: resolver}
}

// Authorize returns ErrUnauthorized unless the user's profile grants
// resourceType:action. Resolver failures are returned as is.
func (g *Gate) Authorize(ctx context.Context, userID uint, action Action, resourceType string) error {
	if userID == 0 {
		return ErrUnauthorized
	}
	profile, err := g.resolver.Resolve(ctx, userID)
	if err != nil {
		return err
	}
	if profile == nil || !profile.HasPermission(NewPermission(resourceType, action)) {
		return ErrUnauthorized
	}
	return nil
}

func (g *Gate) Can(ctx context.Context, userID uint, action Action, resourceType string) bool {
	return g.Authorize(ctx, userID, action, resourceType) == nil
}

// IsAdmin reports whether the user currently holds the super-admin permission.
func (g *Gate) IsAdmin(ctx context.Context, userID uint) bool {
	return g.Can(ctx, userID, WildcardAll, WildcardAll)
}
