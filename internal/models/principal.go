package models

import "strings"

// UserRole represents the roles known to the bus pass system.
type UserRole string

const (
	RoleUser    UserRole = "USER"
	RoleStudent UserRole = "STUDENT"
	RoleAdmin   UserRole = "ADMIN"
)

// ParseRole normalises a role string; unknown roles are rejected.
func ParseRole(raw string) (UserRole, bool) {
	switch role := UserRole(strings.ToUpper(strings.TrimSpace(raw))); role {
	case RoleUser, RoleStudent, RoleAdmin:
		return role, true
	default:
		return "", false
	}
}

// Principal is the authenticated actor on whose behalf the core operates.
// It is created once at login and never mutated afterwards.
type Principal struct {
	ID         ID       `json:"id"`
	Name       string   `json:"name"`
	Email      string   `json:"email"`
	Role       UserRole `json:"role"`
	Credential string   `json:"-"`
}

// IsAdmin reports whether the principal administers passes and alerts.
func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// CanRaiseSOS reports whether the emergency alert flow is exposed to the principal.
func (p Principal) CanRaiseSOS() bool {
	return p.ID != "" && !p.IsAdmin()
}

// Authenticated reports whether the principal carries an identity and credential.
func (p Principal) Authenticated() bool {
	return p.ID != "" && p.Credential != ""
}
