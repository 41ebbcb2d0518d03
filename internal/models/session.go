package models

// Credentials is the email/password pair submitted from the login screen
type Credentials struct {
	Email    string
	Password string
}

// Session represents an authenticated user session
type Session struct {
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	ExpiresAt int64  `json:"exp"`
	IssuedAt  int64  `json:"iat"`
	// Token is the signed session JWT. It travels in the response body for
	// non-browser clients and in an HttpOnly cookie for browsers.
	Token string `json:"-"`
}

// LoginRequest is the payload for a password login
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,max=128"`
}

// LoginResponse is returned after a login attempt
type LoginResponse struct {
	Success bool     `json:"success"`
	Session *Session `json:"session,omitempty"`
	Token   string   `json:"token,omitempty"`
	Error   string   `json:"error,omitempty"`
}

// RegisterRequest is the payload for creating an account
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email,max=255"`
	Name     string `json:"name" binding:"required,min=1,max=100"`
	Password string `json:"password" binding:"required,max=128"`
}

// RegisterResponse is returned after registration
type RegisterResponse struct {
	Success bool   `json:"success"`
	UserID  string `json:"user_id,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// LogoutResponse is returned after logout
type LogoutResponse struct {
	Success bool `json:"success"`
}
