package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/authmodule/authmodule-api/internal/models"
	apperrors "github.com/authmodule/authmodule-api/pkg/errors"
	"github.com/authmodule/authmodule-api/pkg/logger"
	"github.com/authmodule/authmodule-api/pkg/metrics"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

// uniqueViolation is the SQLSTATE for unique constraint violations
const uniqueViolation = "23505"

const userColumns = `id, email, name, password_hash, status, last_login_at, created_at, updated_at`

// GetUserByEmail fetches a user by email (case-insensitive)
func (c *Client) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	start := time.Now()
	operation := "getUserByEmail"

	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	user, err := scanUser(c.db.QueryRow(ctx, query, email))
	duration := metrics.MeasureDuration(start)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			recordMetrics(operation, "not_found", duration)
			return nil, apperrors.NotFoundError("user")
		}
		recordMetrics(operation, "error", duration)
		logger.LogAPICall("postgres", operation, "error", duration, zap.Error(err))
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	recordMetrics(operation, "success", duration)
	return user, nil
}

// GetUserByID fetches a user by primary key
func (c *Client) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	start := time.Now()
	operation := "getUserByID"

	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(c.db.QueryRow(ctx, query, id))
	duration := metrics.MeasureDuration(start)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			recordMetrics(operation, "not_found", duration)
			return nil, apperrors.NotFoundError("user")
		}
		recordMetrics(operation, "error", duration)
		logger.LogAPICall("postgres", operation, "error", duration, zap.Error(err))
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}

	recordMetrics(operation, "success", duration)
	return user, nil
}

// CreateUser inserts a new user. A duplicate email yields apperrors.ErrConflict.
func (c *Client) CreateUser(ctx context.Context, user *models.User) error {
	start := time.Now()
	operation := "createUser"

	query := `
		INSERT INTO users (id, email, name, password_hash, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at
	`

	err := c.db.QueryRow(ctx, query, user.ID, user.Email, user.Name, user.PasswordHash, string(user.Status)).
		Scan(&user.CreatedAt, &user.UpdatedAt)
	duration := metrics.MeasureDuration(start)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			recordMetrics(operation, "conflict", duration)
			return apperrors.ConflictError("user")
		}
		recordMetrics(operation, "error", duration)
		logger.LogAPICall("postgres", operation, "error", duration, zap.Error(err))
		return fmt.Errorf("failed to create user: %w", err)
	}

	recordMetrics(operation, "success", duration)
	logger.LogAPICall("postgres", operation, "success", duration, zap.String("user_id", user.ID))
	return nil
}

// TouchLastLogin stamps the user's last successful login
func (c *Client) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	start := time.Now()
	operation := "touchLastLogin"

	tag, err := c.db.Exec(ctx, `UPDATE users SET last_login_at = $2, updated_at = NOW() WHERE id = $1`, id, at)
	duration := metrics.MeasureDuration(start)
	if err != nil {
		recordMetrics(operation, "error", duration)
		logger.LogAPICall("postgres", operation, "error", duration, zap.Error(err))
		return fmt.Errorf("failed to update last login: %w", err)
	}
	if tag.RowsAffected() == 0 {
		recordMetrics(operation, "not_found", duration)
		return apperrors.NotFoundError("user")
	}

	recordMetrics(operation, "success", duration)
	return nil
}

func scanUser(row pgx.Row) (*models.User, error) {
	var (
		u      models.User
		status string
	)
	if err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &status,
		&u.LastLoginAt, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	u.Status = models.UserStatus(status)
	return &u, nil
}
