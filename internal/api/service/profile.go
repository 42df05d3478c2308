package service

import (
	"context"

	"github.com/devoptimist/builder/internal/api/domain"
	"github.com/devoptimist/builder/internal/api/store"
)

// ProfileService serves the account-profile surface: the account record and
// its token list. Token mutation lives in TokenIssuer/TokenRevoker.
type ProfileService struct {
	Store store.Store
}

func (s *ProfileService) GetAccount(ctx context.Context, accountID string) (domain.Account, error) {
	return s.Store.Accounts().GetAccountByID(ctx, accountID)
}

func (s *ProfileService) UpdateEmail(ctx context.Context, accountID, email string) error {
	return s.Store.Accounts().UpdateAccountEmail(ctx, accountID, email)
}

func (s *ProfileService) ListAccessTokens(
	ctx context.Context,
	accountID string,
) ([]domain.AccessToken, error) {
	return s.Store.AccessTokens().ListAccountTokens(ctx, accountID)
}
