package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/devoptimist/builder/internal/api/domain"
	"github.com/devoptimist/builder/internal/api/metrics"
	"github.com/devoptimist/builder/internal/api/store"
	"github.com/devoptimist/builder/internal/api/store/drivers/sqlite"
	"github.com/devoptimist/builder/pkg/idx"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) store.Store {
	t.Helper()

	st, err := sqlite.NewStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, st.ApplyMigrations())
	t.Cleanup(func() { _ = st.Close() })

	return st
}

func newTestMetrics() *metrics.Metrics {
	return metrics.New(prometheus.NewRegistry())
}

func seedAccount(t *testing.T, st store.Store, flags ...string) domain.Account {
	t.Helper()

	now := time.Now().UTC()
	acct := domain.Account{
		ID:        idx.New().String(),
		Email:     "holder@example.com",
		Name:      "Token Holder",
		Flags:     flags,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, st.Accounts().CreateAccount(context.Background(), acct))

	return acct
}

// recordingCache is a deterministic in-memory SessionCache that logs every
// mutation, so tests can assert exactly which keys were touched.
type recordingCache struct {
	mu      sync.Mutex
	entries map[string]domain.Session
	deletes []string
}

func newRecordingCache() *recordingCache {
	return &recordingCache{entries: map[string]domain.Session{}}
}

func (c *recordingCache) Lookup(_ context.Context, token string) (domain.Session, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, ok := c.entries[token]
	return s, ok, nil
}

func (c *recordingCache) Put(_ context.Context, token string, session domain.Session) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[token] = session
	return nil
}

func (c *recordingCache) Delete(_ context.Context, token string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, token)
	c.deletes = append(c.deletes, token)
	return nil
}

func (c *recordingCache) Close() error { return nil }

func (c *recordingCache) has(token string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, ok := c.entries[token]
	return ok
}

func (c *recordingCache) deleteLog() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	return append([]string(nil), c.deletes...)
}

func (c *recordingCache) resetLog() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.deletes = nil
}

// failingCache simulates an unreachable cache backend.
type failingCache struct{}

var errCacheDown = errors.New("cache backend unreachable")

func (failingCache) Lookup(context.Context, string) (domain.Session, bool, error) {
	return domain.Session{}, false, errCacheDown
}
func (failingCache) Put(context.Context, string, domain.Session) error { return errCacheDown }
func (failingCache) Delete(context.Context, string) error              { return errCacheDown }
func (failingCache) Close() error                                      { return nil }

// stubGenerator hands out sequential token values, or a fixed value when
// collisions need forcing.
type stubGenerator struct {
	fixed string
	n     atomic.Int64
}

func (g *stubGenerator) Generate(accountID string, _ []string) (string, error) {
	if g.fixed != "" {
		return g.fixed, nil
	}
	return fmt.Sprintf("tok-%s-%d", accountID, g.n.Add(1)), nil
}

// countingStore wraps a Store and counts token resolutions, so tests can
// prove the cache-hit path never touches the database.
type countingStore struct {
	store.Store
	tokenGets atomic.Int64
}

func (s *countingStore) AccessTokens() store.AccessTokens {
	return &countingTokens{inner: s.Store.AccessTokens(), gets: &s.tokenGets}
}

type countingTokens struct {
	inner store.AccessTokens
	gets  *atomic.Int64
}

func (r *countingTokens) ListAccountTokens(ctx context.Context, accountID string) ([]domain.AccessToken, error) {
	return r.inner.ListAccountTokens(ctx, accountID)
}

func (r *countingTokens) CreateAccessToken(ctx context.Context, tok domain.AccessToken) error {
	return r.inner.CreateAccessToken(ctx, tok)
}

func (r *countingTokens) GetAccessTokenByToken(ctx context.Context, token string) (domain.AccessToken, error) {
	r.gets.Add(1)
	return r.inner.GetAccessTokenByToken(ctx, token)
}

func (r *countingTokens) DeleteAccessToken(ctx context.Context, id string) error {
	return r.inner.DeleteAccessToken(ctx, id)
}
