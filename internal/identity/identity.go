package identity

import (
	"context"
	"errors"
	"strings"
	"time"
)

type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

var (
	ErrNotFound        = errors.New("identity not found")
	ErrEmailTaken      = errors.New("email already registered")
	ErrVersionConflict = errors.New("identity version conflict")
	ErrNoAuthPath      = errors.New("identity has no authentication path")
)

// Identity is the canonical user record. An identity always carries at
// least one authentication path: a password hash, a federated provider
// id, or both.
type Identity struct {
	ID             string
	Email          string
	Name           string
	PasswordHash   string // empty for accounts created via federated login
	Role           Role
	Provider       string // e.g. "google", "github"; empty for local-only accounts
	ProviderUserID string
	EmailVerified  bool
	Active         bool
	LastLoginAt    *time.Time
	Version        int64
	CreatedAt      time.Time
}

// HasPassword reports whether local email/password login is possible.
func (i *Identity) HasPassword() bool {
	return i.PasswordHash != ""
}

// Store owns identity records. Implementations must be safe for
// concurrent use.
type Store interface {
	GetByID(ctx context.Context, id string) (*Identity, error)
	GetByEmail(ctx context.Context, email string) (*Identity, error)
	GetByProvider(ctx context.Context, provider, providerUserID string) (*Identity, error)

	// Create inserts a new identity and fills in ID, Version and
	// CreatedAt. Fails with ErrEmailTaken when the email is already
	// registered (case-insensitive) and ErrNoAuthPath when the record
	// carries neither a password hash nor a provider id.
	Create(ctx context.Context, ident *Identity) error

	// Update persists mutable fields guarded by an optimistic version
	// check; ErrVersionConflict means a concurrent writer won.
	Update(ctx context.Context, ident *Identity) error

	// StampLastLogin records a login time without a version check.
	// Lost updates are tolerable here.
	StampLastLogin(ctx context.Context, id string, at time.Time) error
}

// NormalizeEmail canonicalizes an email for lookup and storage.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
