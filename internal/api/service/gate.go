package service

import (
	"context"
	"errors"

	"github.com/devoptimist/builder/internal/api/cache"
	"github.com/devoptimist/builder/internal/api/domain"
	"github.com/devoptimist/builder/internal/api/metrics"
	"github.com/devoptimist/builder/internal/api/store"
	"github.com/devoptimist/builder/pkg/cryptox"
	"github.com/devoptimist/builder/pkg/slogx"
)

// AuthorizationGate resolves inbound token values to sessions. It is the read
// path consulted on every authenticated request: cache first, store fallback
// on miss, repopulating the cache on the way out.
type AuthorizationGate struct {
	Store   store.Store
	Cache   cache.SessionCache
	Metrics *metrics.Metrics
}

// Authorize resolves a token value to a Session.
//
// Returns ErrUnauthorized when the token resolves to nothing, and an
// *InfrastructureError when the store or cache cannot be reached. The two are
// never conflated: callers must be able to tell "bad credential" from "could
// not check".
func (s *AuthorizationGate) Authorize(ctx context.Context, token string) (domain.Session, error) {
	l := slogx.FromContext(ctx)

	session, ok, err := s.Cache.Lookup(ctx, token)
	if err != nil {
		s.Metrics.Authorize(metrics.ResultError)
		return domain.Session{}, infraErr("session lookup", err)
	}
	if ok {
		s.Metrics.Authorize(metrics.ResultHit)
		return session, nil
	}

	record, err := s.Store.AccessTokens().GetAccessTokenByToken(ctx, token)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.Metrics.Authorize(metrics.ResultUnauthorized)
			l.Info("token rejected", "token_fp", cryptox.FingerprintToken(token))
			return domain.Session{}, ErrUnauthorized
		}
		s.Metrics.Authorize(metrics.ResultError)
		return domain.Session{}, infraErr("resolve access token", err)
	}

	// Flags come from the account record at resolution time, not from
	// whatever was current when the token was minted.
	account, err := s.Store.Accounts().GetAccountByID(ctx, record.AccountID)
	if err != nil {
		s.Metrics.Authorize(metrics.ResultError)
		return domain.Session{}, infraErr("load account", err)
	}

	session = domain.Session{AccountID: account.ID, Flags: account.Flags}
	if err := s.Cache.Put(ctx, token, session); err != nil {
		s.Metrics.Authorize(metrics.ResultError)
		return domain.Session{}, infraErr("cache session", err)
	}

	s.Metrics.Authorize(metrics.ResultFallback)
	return session, nil
}
