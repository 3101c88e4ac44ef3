package service

import "reviewhub/internal/models"

// Actor identifies the authenticated user behind a request, as carried by
// the access token claims.
type Actor struct {
	ID       string
	Username string
	Role     string
}

// IsStaff reports whether the actor may act on content they do not own.
func (a Actor) IsStaff() bool {
	return a.Role == models.RoleModerator || a.Role == models.RoleAdmin
}
