package models

import "time"

// Role is the access level of a staff account.
type Role string

const (
	RoleOwner   Role = "owner"
	RoleManager Role = "manager"
	RoleWorker  Role = "worker"
)

// Roles lists every role from most to least privileged.
var Roles = []Role{RoleOwner, RoleManager, RoleWorker}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	for _, known := range Roles {
		if r == known {
			return true
		}
	}
	return false
}

// AtLeast reports whether r grants at least the privileges of min.
func (r Role) AtLeast(min Role) bool {
	return r.rank() >= min.rank()
}

func (r Role) rank() int {
	switch r {
	case RoleOwner:
		return 3
	case RoleManager:
		return 2
	case RoleWorker:
		return 1
	default:
		return 0
	}
}

// User is a venue staff account.
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FullName     string    `json:"full_name"`
	Role         Role      `json:"role"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}

// UserCreate is the registration payload.
type UserCreate struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	FullName string `json:"full_name" binding:"required"`
}

// UserUpdate carries the fields an owner may change on an account.
type UserUpdate struct {
	FullName *string `json:"full_name"`
	Role     *Role   `json:"role"`
	IsActive *bool   `json:"is_active"`
	Password *string `json:"password"`
}

// LoginRequest holds login credentials.
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// TokenResponse is returned by a successful login.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	User        *User  `json:"user"`
}
