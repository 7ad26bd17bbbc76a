package domain

import "time"

// Principal is the authenticated identity attached to a request.
type Principal struct {
	UserID string
	Role   Role
}

// IsAdmin reports whether the principal holds the ADMIN role.
func (p *Principal) IsAdmin() bool {
	return p != nil && p.Role == RoleAdmin
}

// CanModify implements the owner-or-admin rule.
func (p *Principal) CanModify(ownerID string) bool {
	if p == nil {
		return false
	}
	return p.Role == RoleAdmin || p.UserID == ownerID
}

// Session is an issued session token and its metadata.
type Session struct {
	ID        string
	Token     string
	Principal Principal
	IssuedAt  time.Time
	ExpiresAt time.Time
}
