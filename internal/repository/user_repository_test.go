package repository

import (
	"context"
	"testing"
	"time"

	"github.com/authmodule/authmodule-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockUserDataSource struct {
	mock.Mock
}

func (m *mockUserDataSource) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *mockUserDataSource) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *mockUserDataSource) CreateUser(ctx context.Context, user *models.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *mockUserDataSource) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	return m.Called(ctx, id, at).Error(0)
}

func TestUserRepository_GetByEmailNormalizes(t *testing.T) {
	source := new(mockUserDataSource)
	repo := NewUserRepository(source)
	ctx := context.Background()

	expected := &models.User{ID: "u-1", Email: "a@b.com"}
	source.On("GetUserByEmail", ctx, "a@b.com").Return(expected, nil).Once()

	user, err := repo.GetByEmail(ctx, "  A@B.com ")
	require.NoError(t, err)
	assert.Equal(t, expected, user)
	source.AssertExpectations(t)
}

func TestUserRepository_CreateDefaultsStatus(t *testing.T) {
	source := new(mockUserDataSource)
	repo := NewUserRepository(source)
	ctx := context.Background()

	source.On("CreateUser", ctx, mock.MatchedBy(func(u *models.User) bool {
		return u.Email == "new@b.com" && u.Status == models.UserStatusActive
	})).Return(nil).Once()

	require.NoError(t, repo.Create(ctx, &models.User{ID: "u-2", Email: "New@B.com"}))
	source.AssertExpectations(t)
}
