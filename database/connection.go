package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

// reservedConns stay free for API commands while the settlement worker
// holds one connection per parallel tick.
const reservedConns = 4

// DB is the shared pgx pool behind every unit of work
type DB struct {
	*pgxpool.Pool
}

// NewConnection opens a pool sized for tickConcurrency parallel wager ticks
// and verifies it with a ping.
func NewConnection(ctx context.Context, databaseURL string, tickConcurrency int) (*DB, error) {
	poolConfig, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}
	if want := int32(tickConcurrency + reservedConns); poolConfig.MaxConns < want {
		poolConfig.MaxConns = want
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.WithFields(log.Fields{
		"database": poolConfig.ConnConfig.Database,
		"maxConns": poolConfig.MaxConns,
	}).Debug("Database pool ready")
	return &DB{Pool: pool}, nil
}

// Close releases every pooled connection
func (db *DB) Close() {
	db.Pool.Close()
}
