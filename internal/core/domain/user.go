package domain

import (
	"context"
	"net/mail"
	"strings"
	"time"
)

type Role string

const (
	RoleOwner     Role = "owner"
	RoleManager   Role = "manager"
	RoleMechanic  Role = "mechanic"
	RoleAttendant Role = "attendant"
)

func (r Role) Valid() bool {
	switch r {
	case RoleOwner, RoleManager, RoleMechanic, RoleAttendant:
		return true
	}
	return false
}

type User struct {
	ID        string
	Name      string
	Email     string
	JobTitle  string
	Role      Role
	CreatedAt time.Time
}

// NormalizeEmail lowercases and trims so the unique index compares like for like.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (u User) Validate() error {
	if strings.TrimSpace(u.Name) == "" {
		return Invalid("name", "is required")
	}
	if _, err := mail.ParseAddress(u.Email); err != nil {
		return Invalid("email", "is not a valid address")
	}
	if !u.Role.Valid() {
		return Invalid("role", "unknown role "+string(u.Role))
	}
	return nil
}

// Session is the authenticated caller for one request. It is built by the
// transport layer and carried in the request context.
type Session struct {
	UserID    string
	Email     string
	Name      string
	Role      Role
	StartedAt time.Time
}

func HasRole(s Session, allowed ...Role) bool {
	for _, r := range allowed {
		if s.Role == r {
			return true
		}
	}
	return false
}

type sessionKey struct{}

func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

func SessionFrom(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(Session)
	return s, ok
}
