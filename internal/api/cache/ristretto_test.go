package cache_test

import (
	"context"
	"testing"

	"github.com/devoptimist/builder/internal/api/cache"
	"github.com/devoptimist/builder/internal/api/domain"
	"github.com/stretchr/testify/require"
)

func newCache(t *testing.T) *cache.Ristretto {
	t.Helper()

	c, err := cache.NewRistretto(1000)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	return c
}

func TestPutLookup(t *testing.T) {
	c := newCache(t)
	ctx := context.Background()

	session := domain.Session{AccountID: "acct-1", Flags: []string{"admin"}}
	require.NoError(t, c.Put(ctx, "token-1", session))

	got, ok, err := c.Lookup(ctx, "token-1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, session, got)
}

func TestLookupMissIsNotAnError(t *testing.T) {
	c := newCache(t)

	got, ok, err := c.Lookup(context.Background(), "never-stored")
	require.NoError(t, err)
	require.False(t, ok)
	require.Zero(t, got)
}

func TestDeleteIsIdempotent(t *testing.T) {
	c := newCache(t)
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, "token-1", domain.Session{AccountID: "acct-1"}))
	require.NoError(t, c.Delete(ctx, "token-1"))

	_, ok, err := c.Lookup(ctx, "token-1")
	require.NoError(t, err)
	require.False(t, ok)

	// Deleting again, or deleting a key that never existed, still succeeds
	require.NoError(t, c.Delete(ctx, "token-1"))
	require.NoError(t, c.Delete(ctx, "never-stored"))
}

func TestPutOverwrites(t *testing.T) {
	c := newCache(t)
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, "token-1", domain.Session{AccountID: "acct-1"}))
	require.NoError(t, c.Put(ctx, "token-1", domain.Session{AccountID: "acct-1", Flags: []string{"admin"}}))

	got, ok, err := c.Lookup(ctx, "token-1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []string{"admin"}, got.Flags)
}
