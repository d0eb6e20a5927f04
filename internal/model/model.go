package model

import (
	"fmt"
	"strings"
	"time"
)

// Role is the closed set of account types. It is stored as text in the
// users table and must round-trip through ParseRole.
type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
	RoleAdmin   Role = "admin"
)

func ParseRole(raw string) (Role, error) {
	switch Role(strings.TrimSpace(strings.ToLower(raw))) {
	case RoleStudent:
		return RoleStudent, nil
	case RoleTeacher:
		return RoleTeacher, nil
	case RoleAdmin:
		return RoleAdmin, nil
	default:
		return "", fmt.Errorf("unknown role %q", raw)
	}
}

func (r Role) String() string { return string(r) }

type User struct {
	ID             string
	Email          *string
	PasswordHash   *string
	Role           Role
	Active         bool
	FirstName      string
	LastName       string
	ClassID        *string
	VisualPassword []byte // raw JSON spec, students only
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Session is an opaque bearer token bound to one user. The token itself is
// the primary key; ip address and user agent are kept for audit only.
type Session struct {
	Token     string
	UserID    string
	CreatedAt time.Time
	ExpiresAt time.Time
	UpdatedAt time.Time
	IPAddress *string
	UserAgent *string
}

type Class struct {
	ID        string
	Name      string
	TeacherID string
	CreatedAt time.Time
	UpdatedAt time.Time
}
