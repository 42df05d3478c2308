package domain

import "time"

// AccessToken is the persisted record binding an opaque token value to an
// account. Records are append-only: the issuer creates them, nothing mutates
// them, and only an explicit revoke removes them. An account may hold any
// number of simultaneously valid tokens; validity is determined solely by
// presence in the store, never by cache state.
type AccessToken struct {
	ID        string    `json:"id"`
	AccountID string    `json:"account_id"`
	Token     string    `json:"token"`
	CreatedAt time.Time `json:"created_at"`
}

// Session is the cached resolution of a token value to an account and its
// permission flags. It is derived data, keyed by the token string that
// produced it. The store plus the account record can rebuild it at any time,
// so an evicted entry only costs the next caller a store round trip.
type Session struct {
	AccountID string
	Flags     []string
}

// AuthContext carries the authenticated caller's identity and permission
// flags through a request. The authn middleware produces it once per request
// and it is threaded explicitly into service calls.
type AuthContext struct {
	AccountID string
	Flags     []string
}
