package repository

import (
	"context"
	"time"

	"github.com/authmodule/authmodule-api/internal/models"
)

// UserDataSource defines the storage operations behind UserRepository
type UserDataSource interface {
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User) error
	TouchLastLogin(ctx context.Context, id string, at time.Time) error
}
