package token

import (
	"context"
	"time"
)

// RefreshRecord tracks one outstanding refresh token. Only the token id
// (the jti claim) is stored, never the signed token itself, so a leaked
// ledger grants no replay capability.
type RefreshRecord struct {
	TokenID   string    `json:"token_id"`
	Subject   string    `json:"subject"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
	Revoked   bool      `json:"revoked"`
}

// Ledger tracks which refresh token ids are live. Implementations must
// be safe for concurrent use; Redeem must be atomic so that two racing
// redemptions of the same id produce exactly one success.
type Ledger interface {
	// Put records a freshly issued refresh token id as live.
	Put(ctx context.Context, rec RefreshRecord) error

	// Redeem marks the id revoked if and only if it is live. Returns
	// ErrRevoked when already rotated out or logged out, ErrUnknown
	// when the id was never issued or has been swept after expiry.
	Redeem(ctx context.Context, tokenID string) error

	// Revoke marks the id revoked. Idempotent: revoking an unknown or
	// already-revoked id is a no-op success.
	Revoke(ctx context.Context, tokenID string) error

	// RevokeAllForSubject revokes every live refresh token id issued
	// to the subject.
	RevokeAllForSubject(ctx context.Context, subject string) error
}
