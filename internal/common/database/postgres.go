// internal/common/database/postgres.go
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"admission-checker/internal/common/config"

	_ "github.com/lib/pq"
)

const historyConnLifetime = 5 * time.Minute

// PostgresClient holds the pool behind the check history store.
type PostgresClient struct {
	db *sql.DB
}

// NewPostgres dials lib/pq with the configured DSN and pool limits.
func NewPostgres(ctx context.Context, cfg config.PostgresConfig) (*PostgresClient, error) {
	db, err := sql.Open("postgres", cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("open postgres %s:%d/%s: %w", cfg.Host, cfg.Port, cfg.Database, err)
	}
	return wrapPostgres(ctx, db, cfg)
}

// wrapPostgres applies pool limits to an opened handle and pings it. The
// handle is closed when the ping fails.
func wrapPostgres(ctx context.Context, db *sql.DB, cfg config.PostgresConfig) (*PostgresClient, error) {
	if cfg.MaxConnections > 0 {
		db.SetMaxOpenConns(cfg.MaxConnections)
	}
	if cfg.MaxIdle > 0 {
		db.SetMaxIdleConns(cfg.MaxIdle)
	}
	db.SetConnMaxLifetime(historyConnLifetime)

	c := &PostgresClient{db: db}
	if err := c.Ping(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return c, nil
}

// Ping backs the /ready check for postgres.
func (c *PostgresClient) Ping(ctx context.Context) error {
	if err := c.db.PingContext(ctx); err != nil {
		return fmt.Errorf("postgres ping failed: %w", err)
	}
	return nil
}

func (c *PostgresClient) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

func (c *PostgresClient) GetDB() *sql.DB {
	return c.db
}
