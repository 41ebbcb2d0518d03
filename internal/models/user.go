package models

import "time"

// UserStatus is the lifecycle state of an account
type UserStatus string

const (
	UserStatusActive   UserStatus = "active"
	UserStatusDisabled UserStatus = "disabled"
)

// User represents an account that can sign in with email and password
type User struct {
	ID           string     `json:"id"` // UUID primary key
	Email        string     `json:"email"`
	Name         string     `json:"name"`
	PasswordHash string     `json:"-"`
	Status       UserStatus `json:"status"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// CanSignIn reports whether the account status allows a password login
func (u *User) CanSignIn() bool {
	return u.Status == UserStatusActive
}
