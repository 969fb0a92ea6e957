// Package postgres persists characters in PostgreSQL using pgx v5.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/cultivation/internal/config"
)

// ErrSchemaMissing is returned by CheckSchema when the characters table has
// not been created; run cmd/migrate first.
var ErrSchemaMissing = errors.New("characters table missing")

// Pool owns the pgx connection pool shared by the repositories.
type Pool struct {
	pool *pgxpool.Pool
}

// NewPool connects to PostgreSQL.
//
// Precondition: cfg must contain valid database connection parameters.
// Postcondition: Returns a connected Pool or a non-nil error. No connections
// are held on error.
func NewPool(ctx context.Context, cfg config.DatabaseConfig) (*Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parsing database config: %w", err)
	}
	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return &Pool{pool: pool}, nil
}

// CheckSchema reports ErrSchemaMissing when migrations have not been applied.
func (p *Pool) CheckSchema(ctx context.Context) error {
	var present bool
	err := p.pool.QueryRow(ctx, `SELECT to_regclass('public.characters') IS NOT NULL`).Scan(&present)
	if err != nil {
		return fmt.Errorf("checking schema: %w", err)
	}
	if !present {
		return ErrSchemaMissing
	}
	return nil
}

// Characters returns a CharacterRepository over this pool.
func (p *Pool) Characters() *CharacterRepository {
	return NewCharacterRepository(p.pool)
}

// Close releases all pool resources.
func (p *Pool) Close() {
	p.pool.Close()
}

// DB returns the underlying pgxpool.Pool.
func (p *Pool) DB() *pgxpool.Pool {
	return p.pool
}
