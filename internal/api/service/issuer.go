package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/devoptimist/builder/internal/api/cache"
	"github.com/devoptimist/builder/internal/api/domain"
	"github.com/devoptimist/builder/internal/api/metrics"
	"github.com/devoptimist/builder/internal/api/store"
	"github.com/devoptimist/builder/pkg/cryptox"
	"github.com/devoptimist/builder/pkg/idx"
	"github.com/devoptimist/builder/pkg/slogx"
)

// TokenGenerator supplies new opaque token values bound to an account and its
// permission flags. Values must be unforgeable and unique; a failure is
// non-retriable for the request.
type TokenGenerator interface {
	Generate(accountID string, flags []string) (string, error)
}

// TokenIssuer mints and persists new access tokens for an account, then
// forces the account's previous sessions to re-validate against the store.
type TokenIssuer struct {
	Store     store.Store
	Cache     cache.SessionCache
	Generator TokenGenerator
	Metrics   *metrics.Metrics
}

// Issue creates a new access token for the authenticated caller.
//
// The steps run in a fixed order:
//
//  1. Snapshot the account's current tokens. This happens before the new
//     token exists, so the snapshot can never contain it.
//  2. Generate and persist the new token. If persistence fails the cache is
//     untouched and every prior token stays fully valid and cached.
//  3. Only after the new token is durable, evict the cached sessions for
//     every token in the snapshot. The new token was never in the snapshot,
//     so its (future) cache entry is untouched.
//
// The cache supports multiple live tokens, but to preserve legacy behavior
// prior tokens are purged from it after a new one is minted. The prior tokens
// themselves remain valid in the store; their next use is a cache miss that
// re-validates and repopulates.
//
// If the process dies between persist and evict the leftover entries are
// tolerated staleness, corrected by the next revoke or issue for the account.
func (s *TokenIssuer) Issue(ctx context.Context, auth domain.AuthContext) (domain.AccessToken, error) {
	l := slogx.FromContext(ctx)

	oldTokens, err := s.Store.AccessTokens().ListAccountTokens(ctx, auth.AccountID)
	if err != nil {
		return domain.AccessToken{}, infraErr("list account tokens", err)
	}

	token, err := s.Generator.Generate(auth.AccountID, auth.Flags)
	if err != nil {
		return domain.AccessToken{}, fmt.Errorf("generate access token: %w", err)
	}

	record := domain.AccessToken{
		ID:        idx.New().String(),
		AccountID: auth.AccountID,
		Token:     token,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.Store.AccessTokens().CreateAccessToken(ctx, record); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.AccessToken{}, fmt.Errorf("issue access token: %w", err)
		}
		return domain.AccessToken{}, infraErr("create access token", err)
	}

	for _, t := range oldTokens {
		if err := s.Cache.Delete(ctx, t.Token); err != nil {
			return domain.AccessToken{}, infraErr("evict cached session", err)
		}
	}

	s.Metrics.TokenIssued()
	l.Info("access token issued",
		"account_id", auth.AccountID,
		"token_id", record.ID,
		"token_fp", cryptox.FingerprintToken(token),
		"evicted", len(oldTokens),
	)
	return record, nil
}
