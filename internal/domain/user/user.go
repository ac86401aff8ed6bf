package user

import (
	"context"
	"errors"
	"strings"
	"time"
)

var (
	ErrIDRequired    = errors.New("user: id is required")
	ErrEmailRequired = errors.New("user: email is required")
	ErrNameRequired  = errors.New("user: name is required")
	ErrInvalidRole   = errors.New("user: invalid role")
	ErrNotFound      = errors.New("user: not found")
)

type ID string

type Role string

const (
	RoleHomeowner    Role = "homeowner"
	RoleTradesperson Role = "tradesperson"
)

// User is an account record as held by the user directory. The directory is
// an external collaborator; this package only defines the shape the
// messaging core reads.
type User struct {
	ID        ID
	Email     string
	Name      string
	Role      Role
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Directory resolves accounts by id or email.
type Directory interface {
	ByID(ctx context.Context, id ID) (*User, error)
	ByEmail(ctx context.Context, email string) (*User, error)
}

type CreateParams struct {
	ID        ID
	Email     string
	Name      string
	Role      Role
	CreatedAt time.Time
}

func NewUser(params CreateParams) (*User, error) {
	id := strings.TrimSpace(string(params.ID))
	if id == "" {
		return nil, ErrIDRequired
	}
	email := NormalizeEmail(params.Email)
	if email == "" {
		return nil, ErrEmailRequired
	}
	name := strings.TrimSpace(params.Name)
	if name == "" {
		return nil, ErrNameRequired
	}
	role, err := normalizeRole(params.Role)
	if err != nil {
		return nil, err
	}

	now := params.CreatedAt
	if now.IsZero() {
		now = time.Now()
	}
	now = now.UTC()

	return &User{
		ID:        ID(id),
		Email:     email,
		Name:      name,
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (u *User) Is(role Role) bool {
	normalized, err := normalizeRole(role)
	if err != nil {
		return false
	}
	return u.Role == normalized
}

// NormalizeEmail lowercases and trims an address so equality checks do not
// depend on how the caller typed it.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func normalizeRole(role Role) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(string(role)))) {
	case RoleHomeowner:
		return RoleHomeowner, nil
	case RoleTradesperson:
		return RoleTradesperson, nil
	default:
		return "", ErrInvalidRole
	}
}
