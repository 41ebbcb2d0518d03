package services_test

import (
	"context"
	"time"

	"github.com/authmodule/authmodule-api/internal/models"
	"github.com/stretchr/testify/mock"
)

// MockUserRepository is a mock implementation of UserRepositoryInterface
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) RecordLogin(ctx context.Context, id string, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

// MockLoginAttempts is a mock implementation of LoginAttemptsCacheInterface
type MockLoginAttempts struct {
	mock.Mock
}

func (m *MockLoginAttempts) IsLocked(email string) (bool, time.Duration) {
	args := m.Called(email)
	return args.Bool(0), args.Get(1).(time.Duration)
}

func (m *MockLoginAttempts) RegisterFailure(email string) bool {
	args := m.Called(email)
	return args.Bool(0)
}

func (m *MockLoginAttempts) Reset(email string) {
	m.Called(email)
}
