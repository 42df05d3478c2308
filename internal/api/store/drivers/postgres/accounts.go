package postgres

import (
	"context"
	"strings"
	"time"

	"github.com/devoptimist/builder/internal/api/domain"
	"github.com/devoptimist/builder/internal/api/store"

	"github.com/jackc/pgx/v5/pgxpool"
)

type accountsRepo struct {
	pool *pgxpool.Pool
}

func (r *accountsRepo) GetAccountByID(ctx context.Context, id string) (domain.Account, error) {
	var (
		a     domain.Account
		flags string
	)
	err := r.pool.QueryRow(ctx, `
		SELECT id, email, name, flags, created_at, updated_at
		FROM accounts
		WHERE id = $1
	`, id).Scan(&a.ID, &a.Email, &a.Name, &flags, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return domain.Account{}, mapNotFound(err)
	}
	a.Flags = splitFlags(flags)
	return a, nil
}

func (r *accountsRepo) CreateAccount(ctx context.Context, a domain.Account) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO accounts (id, email, name, flags, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, a.ID, a.Email, a.Name, joinFlags(a.Flags), a.CreatedAt, a.UpdatedAt)
	if err != nil {
		return mapConstraint(err)
	}
	return nil
}

func (r *accountsRepo) UpdateAccountEmail(ctx context.Context, accountID, email string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE accounts
		SET email = $1, updated_at = $2
		WHERE id = $3
	`, email, time.Now().UTC(), accountID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func joinFlags(flags []string) string {
	return strings.Join(flags, " ")
}

func splitFlags(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return strings.Fields(s)
}
