package store

import (
	"context"
	"errors"

	"github.com/devoptimist/builder/internal/api/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite,
// postgres) implement this. It exposes sub-repositories to keep concerns tidy
// and testable.
type Store interface {
	Accounts() Accounts
	AccessTokens() AccessTokens

	ApplyMigrations() error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

type Accounts interface {
	// GetAccountByID returns an account by id.
	GetAccountByID(ctx context.Context, id string) (domain.Account, error)

	// CreateAccount inserts a new account (id is provided by the app via ULID).
	CreateAccount(ctx context.Context, a domain.Account) error

	// UpdateAccountEmail mutates the email and bumps updated_at.
	UpdateAccountEmail(ctx context.Context, accountID, email string) error
}

type AccessTokens interface {
	// ListAccountTokens returns every persisted token for the account,
	// order-irrelevant. An account with no tokens yields an empty slice,
	// not an error.
	ListAccountTokens(ctx context.Context, accountID string) ([]domain.AccessToken, error)

	// CreateAccessToken persists a new token record. The token value is
	// globally unique; a collision returns ErrAlreadyExists.
	CreateAccessToken(ctx context.Context, t domain.AccessToken) error

	// GetAccessTokenByToken resolves a token value back to its record.
	GetAccessTokenByToken(ctx context.Context, token string) (domain.AccessToken, error)

	// DeleteAccessToken removes a token record by id. Returns ErrNotFound if
	// the id does not exist; deletion is NOT idempotent by contract. The
	// caller owns any session-cache cleanup.
	DeleteAccessToken(ctx context.Context, id string) error
}
