package resolver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/riiansmart/taskflow/internal/identity"
	"github.com/riiansmart/taskflow/internal/logger"
)

// StoreResolver resolves provider claims against the identity store.
// Resolution is idempotent: the same claims always land on the same
// identity, and re-linking an already-linked account is a normal path,
// never an error.
type StoreResolver struct {
	identities identity.Store
}

func NewStoreResolver(identities identity.Store) *StoreResolver {
	return &StoreResolver{identities: identities}
}

func (r *StoreResolver) Resolve(
	ctx context.Context,
	claims *identity.ProviderClaims,
) (*identity.Identity, error) {

	if claims == nil {
		return nil, errors.New("resolver: claims are nil")
	}

	ident, err := r.resolve(ctx, claims)
	if err != nil {
		return nil, err
	}

	// best effort; a lost stamp must not fail the login
	if err := r.identities.StampLastLogin(ctx, ident.ID, time.Now().UTC()); err != nil {
		logger.Warn("last login stamp failed", map[string]any{
			"user_id": ident.ID,
			"error":   err.Error(),
		})
	}

	return ident, nil
}

func (r *StoreResolver) resolve(
	ctx context.Context,
	claims *identity.ProviderClaims,
) (*identity.Identity, error) {

	// 1. Already linked: lookup by (provider, provider_user_id).
	ident, err := r.identities.GetByProvider(ctx, claims.Provider, claims.Subject)
	if err == nil {
		return ident, nil
	}
	if !errors.Is(err, identity.ErrNotFound) {
		return nil, fmt.Errorf("resolver: provider lookup failed: %w", err)
	}

	// 2. Existing local account with the same email: attach the
	// provider id, leaving the password hash untouched.
	ident, err = r.identities.GetByEmail(ctx, identity.NormalizeEmail(claims.Email))
	if err == nil {
		return r.link(ctx, ident, claims)
	}
	if !errors.Is(err, identity.ErrNotFound) {
		return nil, fmt.Errorf("resolver: email lookup failed: %w", err)
	}

	// 3. First login through this provider: create a password-less
	// account.
	ident = &identity.Identity{
		Email:          identity.NormalizeEmail(claims.Email),
		Name:           claims.Name,
		Role:           identity.RoleUser,
		Provider:       claims.Provider,
		ProviderUserID: claims.Subject,
		EmailVerified:  claims.EmailVerified,
		Active:         true,
	}

	err = r.identities.Create(ctx, ident)
	if errors.Is(err, identity.ErrEmailTaken) {
		// lost a create race against a concurrent callback; the row
		// exists now, resolve again
		return r.resolve(ctx, claims)
	}
	if err != nil {
		return nil, fmt.Errorf("resolver: create failed: %w", err)
	}

	return ident, nil
}

func (r *StoreResolver) link(
	ctx context.Context,
	ident *identity.Identity,
	claims *identity.ProviderClaims,
) (*identity.Identity, error) {

	ident.Provider = claims.Provider
	ident.ProviderUserID = claims.Subject
	if claims.EmailVerified {
		ident.EmailVerified = true
	}

	err := r.identities.Update(ctx, ident)
	if errors.Is(err, identity.ErrVersionConflict) {
		// a concurrent writer touched the row; re-read and retry once
		fresh, err := r.identities.GetByEmail(ctx, ident.Email)
		if err != nil {
			return nil, fmt.Errorf("resolver: re-read after conflict failed: %w", err)
		}
		if fresh.ProviderUserID == claims.Subject {
			return fresh, nil
		}
		return r.link(ctx, fresh, claims)
	}
	if err != nil {
		return nil, fmt.Errorf("resolver: link failed: %w", err)
	}

	return ident, nil
}
