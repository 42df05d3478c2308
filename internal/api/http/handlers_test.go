package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/devoptimist/builder/internal/api/domain"
	httpapi "github.com/devoptimist/builder/internal/api/http"
	"github.com/devoptimist/builder/internal/api/metrics"
	"github.com/devoptimist/builder/internal/api/service"
	"github.com/devoptimist/builder/internal/api/store"
	"github.com/devoptimist/builder/internal/api/store/drivers/sqlite"
	"github.com/devoptimist/builder/pkg/accesstoken"
	"github.com/devoptimist/builder/pkg/idx"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

// mapCache is a deterministic SessionCache for handler tests.
type mapCache struct {
	mu      sync.Mutex
	entries map[string]domain.Session
}

func newMapCache() *mapCache {
	return &mapCache{entries: map[string]domain.Session{}}
}

func (c *mapCache) Lookup(_ context.Context, token string) (domain.Session, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.entries[token]
	return s, ok, nil
}

func (c *mapCache) Put(_ context.Context, token string, session domain.Session) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[token] = session
	return nil
}

func (c *mapCache) Delete(_ context.Context, token string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, token)
	return nil
}

func (c *mapCache) Close() error { return nil }

type testEnv struct {
	server *httptest.Server
	store  store.Store
	token  string
	acct   domain.Account
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dir := t.TempDir()
	st, err := sqlite.NewStore(filepath.Join(dir, "test.db"))
	require.NoError(t, err)
	require.NoError(t, st.ApplyMigrations())
	t.Cleanup(func() { _ = st.Close() })

	sessions := newMapCache()
	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	generator, err := accesstoken.NewGenerator(filepath.Join(dir, "signing.pem"), "builder-test")
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	router := httpapi.NewRouter("test", st, registry, logger)
	router.AuthorizationGate = &service.AuthorizationGate{Store: st, Cache: sessions, Metrics: m}
	router.TokenIssuer = &service.TokenIssuer{Store: st, Cache: sessions, Generator: generator, Metrics: m}
	router.TokenRevoker = &service.TokenRevoker{Store: st, Cache: sessions, Metrics: m}
	router.ProfileService = &service.ProfileService{Store: st}
	router.ApplyRoutes()

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	ctx := context.Background()
	now := time.Now().UTC()
	acct := domain.Account{
		ID:        idx.New().String(),
		Email:     "holder@example.com",
		Name:      "Token Holder",
		Flags:     []string{"early_access"},
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, st.Accounts().CreateAccount(ctx, acct))

	// Seed one valid credential directly so requests can authenticate
	token, err := generator.Generate(acct.ID, acct.Flags)
	require.NoError(t, err)
	require.NoError(t, st.AccessTokens().CreateAccessToken(ctx, domain.AccessToken{
		ID:        idx.New().String(),
		AccountID: acct.ID,
		Token:     token,
		CreatedAt: now,
	}))

	return &testEnv{server: server, store: st, token: token, acct: acct}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, e.server.URL+path, reader)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := e.server.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()

	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestGetProfile(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodGet, "/v1/profile", env.token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	account := decode[domain.Account](t, resp)
	require.Equal(t, env.acct.ID, account.ID)
	require.Equal(t, "holder@example.com", account.Email)
}

func TestUpdateProfile(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodPatch, "/v1/profile", env.token,
		httpapi.UpdateProfileRequest{Email: "new@example.com"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	account := decode[domain.Account](t, resp)
	require.Equal(t, "new@example.com", account.Email)

	// Empty email is rejected before the store is touched
	resp = env.do(t, http.MethodPatch, "/v1/profile", env.token,
		httpapi.UpdateProfileRequest{Email: "   "})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUnauthenticatedRequests(t *testing.T) {
	env := newTestEnv(t)

	// No Authorization header at all
	resp := env.do(t, http.MethodGet, "/v1/profile", "", nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.NotEmpty(t, resp.Header.Get("WWW-Authenticate"))

	// Well-formed header carrying a token that was never issued
	resp = env.do(t, http.MethodGet, "/v1/profile", "not-a-real-token", nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	body := decode[httpapi.ErrorResponse](t, resp)
	require.Equal(t, "invalid_token", body.Error)
}

func TestTokenLifecycleOverHTTP(t *testing.T) {
	env := newTestEnv(t)

	// List shows the seeded token
	resp := env.do(t, http.MethodGet, "/v1/profile/access-tokens", env.token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := decode[httpapi.TokenListResponse](t, resp)
	require.Len(t, list.Tokens, 1)

	// Mint a second token
	resp = env.do(t, http.MethodPost, "/v1/profile/access-tokens", env.token, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	minted := decode[domain.AccessToken](t, resp)
	require.NotEmpty(t, minted.Token)
	require.Equal(t, env.acct.ID, minted.AccountID)

	// The new token authenticates immediately
	resp = env.do(t, http.MethodGet, "/v1/profile", minted.Token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// The original token is still valid: it re-validates against the store
	resp = env.do(t, http.MethodGet, "/v1/profile", env.token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Revoke the minted token
	resp = env.do(t, http.MethodDelete, "/v1/profile/access-tokens/"+minted.ID, env.token, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	// The revoked credential is rejected on its next use
	resp = env.do(t, http.MethodGet, "/v1/profile", minted.Token, nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRevokeValidation(t *testing.T) {
	env := newTestEnv(t)

	// Malformed id never reaches the store
	resp := env.do(t, http.MethodDelete, "/v1/profile/access-tokens/not-a-ulid", env.token, nil)
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	body := decode[httpapi.ErrorResponse](t, resp)
	require.Equal(t, "invalid_token_id", body.Error)

	// Well-formed id with no record behind it
	resp = env.do(t, http.MethodDelete, "/v1/profile/access-tokens/"+idx.New().String(), env.token, nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHealthEndpoints(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodGet, "/livez", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	health := decode[httpapi.HealthResponse](t, resp)
	require.Equal(t, "ok", health.Status)

	resp = env.do(t, http.MethodGet, "/readyz", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	health = decode[httpapi.HealthResponse](t, resp)
	require.Equal(t, "ok", health.Status)
	require.NotNil(t, health.Checks)
	require.Equal(t, "ok", health.Checks.Database)
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t)

	// Generate some traffic so counters exist
	resp := env.do(t, http.MethodGet, "/v1/profile", env.token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(raw), "builder_authorize_requests_total")
}
