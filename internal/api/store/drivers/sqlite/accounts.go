package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/devoptimist/builder/internal/api/domain"
	"github.com/devoptimist/builder/internal/api/store"
)

type accountsRepo struct {
	db *sql.DB
}

func (r *accountsRepo) GetAccountByID(ctx context.Context, id string) (domain.Account, error) {
	var (
		a     domain.Account
		flags string
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, email, name, flags, created_at, updated_at
		FROM accounts
		WHERE id = ?
	`, id).Scan(&a.ID, &a.Email, &a.Name, &flags, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return domain.Account{}, mapNotFound(err)
	}
	a.Flags = splitFlags(flags)
	return a, nil
}

func (r *accountsRepo) CreateAccount(ctx context.Context, a domain.Account) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO accounts (id, email, name, flags, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, a.ID, a.Email, a.Name, joinFlags(a.Flags), a.CreatedAt, a.UpdatedAt)
	if err != nil {
		return mapConstraint(err)
	}
	return nil
}

func (r *accountsRepo) UpdateAccountEmail(ctx context.Context, accountID, email string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE accounts
		SET email = ?, updated_at = ?
		WHERE id = ?
	`, email, time.Now().UTC(), accountID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
