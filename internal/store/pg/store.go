// Package pg implementa los repositorios de dominio sobre PostgreSQL (pgx).
package pg

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Store agrupa los repositorios Postgres sobre un pool compartido.
type Store struct {
	pool *pgxpool.Pool
}

// Options controla el pool de conexiones.
type Options struct {
	MaxConns        int
	ConnMaxLifetime time.Duration
}

// New abre el pool y verifica la conexión.
func New(ctx context.Context, dsn string, opts Options) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	if opts.MaxConns > 0 {
		cfg.MaxConns = int32(opts.MaxConns)
	}
	if opts.ConnMaxLifetime > 0 {
		cfg.MaxConnLifetime = opts.ConnMaxLifetime
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return &Store{pool: pool}, nil
}

// Consents retorna el ConsentRepository Postgres.
func (s *Store) Consents() *ConsentRepo { return &ConsentRepo{pool: s.pool} }

// Audit retorna el AuditRepository Postgres.
func (s *Store) Audit() *AuditRepo { return &AuditRepo{pool: s.pool} }

// Ping verifica la conexión.
func (s *Store) Ping(ctx context.Context) error { return s.pool.Ping(ctx) }

// Close cierra el pool.
func (s *Store) Close() { s.pool.Close() }
