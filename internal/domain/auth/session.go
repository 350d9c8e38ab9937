package auth

import (
	"time"

	"leavestride/internal/domain/users"
)

// Session is the authenticated caller, resolved once per request and passed to services.
type Session struct {
	UserID     string
	Role       users.Role
	Department string
	Active     bool
	TokenID    string
	ExpiresAt  time.Time
}

func (s Session) Actor() users.Actor {
	return users.Actor{ID: s.UserID, Role: s.Role}
}

func (s Session) IsAdmin() bool { return s.Role == users.RoleAdmin }

func (s Session) IsManager() bool { return s.Role == users.RoleManager }

func NewSession(u users.User, claims *Claims) Session {
	s := Session{
		UserID:     u.ID,
		Role:       u.Role,
		Department: u.Department,
		Active:     u.IsActive,
	}
	if claims != nil {
		s.TokenID = claims.ID
		if claims.ExpiresAt != nil {
			s.ExpiresAt = claims.ExpiresAt.Time
		}
	}
	return s
}
