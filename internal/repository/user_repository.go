package repository

import (
	"context"
	"strings"
	"time"

	"github.com/authmodule/authmodule-api/internal/models"
)

// UserRepositoryInterface defines the interface for user data access operations.
type UserRepositoryInterface interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	RecordLogin(ctx context.Context, id string, at time.Time) error
}

// UserRepository handles user data access
type UserRepository struct {
	source UserDataSource
}

// NewUserRepository creates a new user repository
func NewUserRepository(source UserDataSource) UserRepositoryInterface {
	return &UserRepository{source: source}
}

// NormalizeEmail is the canonical form emails are stored and looked up in
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// GetByEmail retrieves a user by email
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.source.GetUserByEmail(ctx, NormalizeEmail(email))
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.source.GetUserByID(ctx, id)
}

// Create stores a new user with a normalized email
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	user.Email = NormalizeEmail(user.Email)
	if user.Status == "" {
		user.Status = models.UserStatusActive
	}
	return r.source.CreateUser(ctx, user)
}

// RecordLogin stamps a successful login
func (r *UserRepository) RecordLogin(ctx context.Context, id string, at time.Time) error {
	return r.source.TouchLastLogin(ctx, id, at)
}
