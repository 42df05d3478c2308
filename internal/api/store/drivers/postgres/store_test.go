package postgres_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/devoptimist/builder/internal/api/domain"
	"github.com/devoptimist/builder/internal/api/store"
	"github.com/devoptimist/builder/internal/api/store/drivers/postgres"
	"github.com/devoptimist/builder/pkg/idx"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// startPostgres spins up a throwaway PostgreSQL container and returns a
// migrated store against it. Requires a local Docker daemon; skipped in
// short mode.
func startPostgres(t *testing.T) *postgres.Store {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container-backed test in short mode")
	}

	ctx := context.Background()
	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "builder",
			"POSTGRES_PASSWORD": "builder",
			"POSTGRES_DB":       "builder_test",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	dsn := fmt.Sprintf(
		"postgres://builder:builder@%s:%s/builder_test?sslmode=disable",
		host, port.Port(),
	)

	st, err := postgres.NewStore(ctx, dsn)
	require.NoError(t, err)
	require.NoError(t, st.ApplyMigrations())
	t.Cleanup(func() { _ = st.Close() })

	return st
}

func TestPostgresTokenLifecycle(t *testing.T) {
	st := startPostgres(t)
	ctx := context.Background()

	now := time.Now().UTC()
	acct := domain.Account{
		ID:        idx.New().String(),
		Email:     "dev@example.com",
		Name:      "Dev Account",
		Flags:     []string{"early_access"},
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, st.Accounts().CreateAccount(ctx, acct))

	got, err := st.Accounts().GetAccountByID(ctx, acct.ID)
	require.NoError(t, err)
	require.Equal(t, []string{"early_access"}, got.Flags)

	tok := domain.AccessToken{
		ID:        idx.New().String(),
		AccountID: acct.ID,
		Token:     "pg-token-value",
		CreatedAt: now,
	}
	require.NoError(t, st.AccessTokens().CreateAccessToken(ctx, tok))

	// Duplicate token value maps onto the shared sentinel
	dup := tok
	dup.ID = idx.New().String()
	require.ErrorIs(t, st.AccessTokens().CreateAccessToken(ctx, dup), store.ErrAlreadyExists)

	resolved, err := st.AccessTokens().GetAccessTokenByToken(ctx, tok.Token)
	require.NoError(t, err)
	require.Equal(t, tok.ID, resolved.ID)

	tokens, err := st.AccessTokens().ListAccountTokens(ctx, acct.ID)
	require.NoError(t, err)
	require.Len(t, tokens, 1)

	require.NoError(t, st.AccessTokens().DeleteAccessToken(ctx, tok.ID))
	require.ErrorIs(t, st.AccessTokens().DeleteAccessToken(ctx, tok.ID), store.ErrNotFound)

	_, err = st.AccessTokens().GetAccessTokenByToken(ctx, tok.Token)
	require.ErrorIs(t, err, store.ErrNotFound)
}
