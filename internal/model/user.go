package model

import (
	"fmt"
	"time"
)

// Role is the account-level role. Roles are strictly ordered:
// admin > editor > viewer.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleEditor Role = "editor"
	RoleViewer Role = "viewer"
)

// ParseRole validates a role string against the closed enumeration.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleAdmin, RoleEditor, RoleViewer:
		return Role(s), nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleEditor || r == RoleViewer
}

// IsAdmin, CanEdit and CanView are the only place role comparison
// lives. Every authorization check in the service layer goes through
// these predicates.
func (r Role) IsAdmin() bool {
	return r == RoleAdmin
}

func (r Role) CanEdit() bool {
	return r == RoleAdmin || r == RoleEditor
}

func (r Role) CanView() bool {
	return r == RoleAdmin || r == RoleEditor || r == RoleViewer
}

type User struct {
	ID                string     `db:"id"`
	Username          string     `db:"username"`
	Email             string     `db:"email"`
	PasswordHash      string     `db:"password_hash"`
	Role              Role       `db:"role"`
	IsActive          bool       `db:"is_active"`
	ResetToken        *string    `db:"reset_token"`
	ResetTokenExpires *time.Time `db:"reset_token_expires"`
	CreatedAt         time.Time  `db:"created_at"`
	UpdatedAt         time.Time  `db:"updated_at"`
}

func (u *User) IsAdmin() bool {
	return u.Role.IsAdmin()
}

func (u *User) CanEdit() bool {
	return u.Role.CanEdit()
}

func (u *User) CanView() bool {
	return u.Role.CanView()
}

// HasValidResetToken reports whether token matches the stored reset
// token and the token has not expired.
func (u *User) HasValidResetToken(token string, now time.Time) bool {
	if u.ResetToken == nil || u.ResetTokenExpires == nil || token == "" {
		return false
	}
	return *u.ResetToken == token && now.Before(*u.ResetTokenExpires)
}
