package sqlite

import (
	"context"
	"database/sql"

	"github.com/devoptimist/builder/internal/api/domain"
	"github.com/devoptimist/builder/internal/api/store"
)

type accessTokensRepo struct {
	db *sql.DB
}

func (r *accessTokensRepo) ListAccountTokens(
	ctx context.Context,
	accountID string,
) ([]domain.AccessToken, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, account_id, token, created_at
		FROM account_tokens
		WHERE account_id = ?
	`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tokens := []domain.AccessToken{}
	for rows.Next() {
		var t domain.AccessToken
		if err := rows.Scan(&t.ID, &t.AccountID, &t.Token, &t.CreatedAt); err != nil {
			return nil, err
		}
		tokens = append(tokens, t)
	}
	return tokens, rows.Err()
}

func (r *accessTokensRepo) CreateAccessToken(ctx context.Context, t domain.AccessToken) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO account_tokens (id, account_id, token, created_at)
		VALUES (?, ?, ?, ?)
	`, t.ID, t.AccountID, t.Token, t.CreatedAt)
	if err != nil {
		return mapConstraint(err)
	}
	return nil
}

func (r *accessTokensRepo) GetAccessTokenByToken(
	ctx context.Context,
	token string,
) (domain.AccessToken, error) {
	var t domain.AccessToken
	err := r.db.QueryRowContext(ctx, `
		SELECT id, account_id, token, created_at
		FROM account_tokens
		WHERE token = ?
	`, token).Scan(&t.ID, &t.AccountID, &t.Token, &t.CreatedAt)
	if err != nil {
		return domain.AccessToken{}, mapNotFound(err)
	}
	return t, nil
}

func (r *accessTokensRepo) DeleteAccessToken(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM account_tokens
		WHERE id = ?
	`, id)
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
