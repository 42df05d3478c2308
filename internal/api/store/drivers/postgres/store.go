// Package postgres implements the store interfaces over PostgreSQL, which is
// what production deployments run. The sqlite driver remains the default for
// development and tests.
package postgres

import (
	"context"
	"errors"

	"github.com/devoptimist/builder/internal/api/store"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres "unique_violation" error code.
const pgUniqueViolation = "23505"

type Store struct {
	pool *pgxpool.Pool
	dsn  string
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool, dsn: dsn}, nil
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// Ping verifies the database connection is still alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Store) Accounts() store.Accounts         { return &accountsRepo{pool: s.pool} }
func (s *Store) AccessTokens() store.AccessTokens { return &accessTokensRepo{pool: s.pool} }

func mapNotFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}

func mapConstraint(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return store.ErrAlreadyExists
	}
	return err
}
