// Package cache holds the session cache consulted on the authorization hot
// path. Entries are a disposable projection of (token record, account); the
// store is always the source of truth, so an evicted or lost entry only costs
// the next caller a store round trip.
package cache

import (
	"context"

	"github.com/devoptimist/builder/internal/api/domain"
)

// SessionCache maps a token value to its resolved session. Implementations
// provide their own per-key atomicity; callers never wrap operations in
// additional locking. The cache is constructed once at startup and injected
// into the services that need it.
type SessionCache interface {
	// Lookup returns the cached session for a token value. A miss is
	// (zero, false, nil), never an error.
	Lookup(ctx context.Context, token string) (domain.Session, bool, error)

	// Put upserts the session for a token value.
	Put(ctx context.Context, token string, session domain.Session) error

	// Delete evicts the entry for a token value. Deleting a key that is not
	// present succeeds silently.
	Delete(ctx context.Context, token string) error

	// Close releases cache resources.
	Close() error
}
