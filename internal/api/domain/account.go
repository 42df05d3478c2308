package domain

import "time"

// Account is the owning principal for access tokens. Interactive sign-in
// happens against an external OAuth provider; this service only reads and
// updates the local account record.
type Account struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Flags     []string  `json:"flags"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
