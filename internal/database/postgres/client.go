package postgres

import (
	"context"

	"github.com/authmodule/authmodule-api/pkg/metrics"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DBTX is the subset of pgxpool.Pool used by the client
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
}

// Client runs queries against the users schema with observability
type Client struct {
	db DBTX
}

// NewClient wraps an existing pool
func NewClient(pool *pgxpool.Pool) *Client {
	return &Client{db: pool}
}

// NewClientWithDB wraps any DBTX implementation
func NewClientWithDB(db DBTX) *Client {
	return &Client{db: db}
}

// Ping checks if the database connection is alive
func (c *Client) Ping(ctx context.Context) error {
	return c.db.Ping(ctx)
}

// recordMetrics records database operation metrics
func recordMetrics(operation, status string, duration float64) {
	metrics.DBRequestDuration.WithLabelValues(operation, status).Observe(duration)
	metrics.DBRequestTotal.WithLabelValues(operation, status).Inc()
}
