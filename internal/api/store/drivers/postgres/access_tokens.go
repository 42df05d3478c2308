package postgres

import (
	"context"

	"github.com/devoptimist/builder/internal/api/domain"
	"github.com/devoptimist/builder/internal/api/store"

	"github.com/jackc/pgx/v5/pgxpool"
)

type accessTokensRepo struct {
	pool *pgxpool.Pool
}

func (r *accessTokensRepo) ListAccountTokens(
	ctx context.Context,
	accountID string,
) ([]domain.AccessToken, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, account_id, token, created_at
		FROM account_tokens
		WHERE account_id = $1
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
	_, err := r.pool.Exec(ctx, `
		INSERT INTO account_tokens (id, account_id, token, created_at)
		VALUES ($1, $2, $3, $4)
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
	err := r.pool.QueryRow(ctx, `
		SELECT id, account_id, token, created_at
		FROM account_tokens
		WHERE token = $1
	`, token).Scan(&t.ID, &t.AccountID, &t.Token, &t.CreatedAt)
	if err != nil {
		return domain.AccessToken{}, mapNotFound(err)
	}
	return t, nil
}

func (r *accessTokensRepo) DeleteAccessToken(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM account_tokens
		WHERE id = $1
	`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}
