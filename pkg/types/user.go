package types

import "time"

// User is an account that can authenticate and place orders
type User struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash []byte
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// AccessToken is an issued bearer token. Only the SHA-256 of the plaintext
// token is stored.
type AccessToken struct {
	ID         int64
	UserID     int64
	Name       string
	TokenHash  [32]byte
	LastUsedAt *time.Time // Nullable
	CreatedAt  time.Time
}
