package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/riiansmart/taskflow/internal/auth/credentials"
	"github.com/riiansmart/taskflow/internal/auth/onetime"
	"github.com/riiansmart/taskflow/internal/auth/resolver"
	"github.com/riiansmart/taskflow/internal/identity"
	"github.com/riiansmart/taskflow/internal/logger"
	"github.com/riiansmart/taskflow/internal/token"
)

// Service sequences the top-level authentication use cases: login,
// registration, token refresh, logout, email verification and password
// reset.
type Service struct {
	creds      *credentials.Service
	resolver   resolver.Resolver
	tokens     *token.Service
	onetime    *onetime.Store
	identities identity.Store

	verificationTTL  time.Duration
	passwordResetTTL time.Duration
}

func NewService(
	creds *credentials.Service,
	res resolver.Resolver,
	tokens *token.Service,
	ot *onetime.Store,
	identities identity.Store,
	verificationTTL time.Duration,
	passwordResetTTL time.Duration,
) *Service {
	return &Service{
		creds:            creds,
		resolver:         res,
		tokens:           tokens,
		onetime:          ot,
		identities:       identities,
		verificationTTL:  verificationTTL,
		passwordResetTTL: passwordResetTTL,
	}
}

func subject(ident *identity.Identity) token.Subject {
	return token.Subject{
		ID:       ident.ID,
		Email:    ident.Email,
		Role:     ident.Role,
		Provider: ident.Provider,
	}
}

// Login verifies local credentials and issues a token pair.
func (s *Service) Login(ctx context.Context, email, password string) (token.Pair, error) {
	ident, err := s.creds.Authenticate(ctx, email, password)
	if err != nil {
		return token.Pair{}, err
	}
	return s.tokens.IssuePair(ctx, subject(ident))
}

// Register creates a local account and issues an email verification
// token. The token is returned so a mail transport can deliver it;
// delivery itself is a collaborator concern.
func (s *Service) Register(ctx context.Context, name, email, password string) (string, error) {
	ident, err := s.creds.Register(ctx, name, email, password)
	if err != nil {
		return "", err
	}

	verification, err := s.onetime.Issue(ctx, onetime.PurposeVerifyEmail, ident.Email, s.verificationTTL)
	if err != nil {
		return "", fmt.Errorf("auth: verification token issue failed: %w", err)
	}

	logger.Info("verification token issued", map[string]any{
		"user_id": ident.ID,
		"email":   ident.Email,
	})

	return verification, nil
}

// VerifyEmail consumes a verification token and marks the bound
// identity verified. A consumed or expired token never verifies twice.
func (s *Service) VerifyEmail(ctx context.Context, rawToken string) error {
	email, err := s.onetime.Consume(ctx, onetime.PurposeVerifyEmail, rawToken)
	if err != nil {
		return err
	}

	ident, err := s.identities.GetByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("auth: verified identity lookup failed: %w", err)
	}

	if err := s.updateWithRetry(ctx, ident, func(i *identity.Identity) {
		i.EmailVerified = true
	}); err != nil {
		return fmt.Errorf("auth: verification update failed: %w", err)
	}

	return nil
}

// ResendVerification issues a fresh verification token, invalidating
// any prior one. An unknown email is a silent success so callers
// cannot enumerate accounts.
func (s *Service) ResendVerification(ctx context.Context, email string) (string, error) {
	normalized := identity.NormalizeEmail(email)

	ident, err := s.identities.GetByEmail(ctx, normalized)
	if errors.Is(err, identity.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("auth: identity lookup failed: %w", err)
	}

	verification, err := s.onetime.Issue(ctx, onetime.PurposeVerifyEmail, ident.Email, s.verificationTTL)
	if err != nil {
		return "", fmt.Errorf("auth: verification token issue failed: %w", err)
	}

	logger.Info("verification token reissued", map[string]any{
		"user_id": ident.ID,
		"email":   ident.Email,
	})

	return verification, nil
}

// Refresh rotates a refresh token for a new pair.
func (s *Service) Refresh(ctx context.Context, rawRefresh string) (token.Pair, error) {
	return s.tokens.RotateRefresh(ctx, rawRefresh)
}

// Logout revokes a refresh token. Never fails on invalid or unknown
// tokens.
func (s *Service) Logout(ctx context.Context, rawRefresh string) error {
	return s.tokens.Revoke(ctx, rawRefresh)
}

// RequestPasswordReset issues a reset token bound to the identity, or
// silently succeeds when the email is unknown.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	normalized := identity.NormalizeEmail(email)

	ident, err := s.identities.GetByEmail(ctx, normalized)
	if errors.Is(err, identity.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("auth: identity lookup failed: %w", err)
	}

	reset, err := s.onetime.Issue(ctx, onetime.PurposePasswordReset, ident.Email, s.passwordResetTTL)
	if err != nil {
		return "", fmt.Errorf("auth: reset token issue failed: %w", err)
	}

	logger.Info("password reset token issued", map[string]any{
		"user_id": ident.ID,
		"email":   ident.Email,
	})

	return reset, nil
}

// ResetPassword consumes a reset token, re-hashes the password and
// revokes every outstanding refresh token for the identity, forcing
// re-login everywhere.
func (s *Service) ResetPassword(ctx context.Context, rawToken, newPassword string) error {
	email, err := s.onetime.Consume(ctx, onetime.PurposePasswordReset, rawToken)
	if err != nil {
		return err
	}

	hash, err := credentials.HashPassword(newPassword)
	if err != nil {
		return err
	}

	ident, err := s.identities.GetByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("auth: reset identity lookup failed: %w", err)
	}

	if err := s.updateWithRetry(ctx, ident, func(i *identity.Identity) {
		i.PasswordHash = hash
	}); err != nil {
		return fmt.Errorf("auth: password update failed: %w", err)
	}

	if err := s.tokens.RevokeAllForSubject(ctx, ident.ID); err != nil {
		return fmt.Errorf("auth: refresh revocation failed: %w", err)
	}

	return nil
}

// FederatedLogin reconciles provider claims with a local identity and
// issues a token pair.
func (s *Service) FederatedLogin(ctx context.Context, claims *identity.ProviderClaims) (token.Pair, error) {
	ident, err := s.resolver.Resolve(ctx, claims)
	if err != nil {
		return token.Pair{}, err
	}
	return s.tokens.IssuePair(ctx, subject(ident))
}

// CurrentUser loads the profile behind a request principal.
func (s *Service) CurrentUser(ctx context.Context, principalID string) (*identity.Identity, error) {
	return s.identities.GetByID(ctx, principalID)
}

// updateWithRetry applies mutate under the store's optimistic version
// check, re-reading and retrying when a concurrent writer wins.
func (s *Service) updateWithRetry(
	ctx context.Context,
	ident *identity.Identity,
	mutate func(*identity.Identity),
) error {
	const attempts = 3

	for i := 0; i < attempts; i++ {
		mutate(ident)

		err := s.identities.Update(ctx, ident)
		if !errors.Is(err, identity.ErrVersionConflict) {
			return err
		}

		fresh, err := s.identities.GetByID(ctx, ident.ID)
		if err != nil {
			return err
		}
		ident = fresh
	}

	return identity.ErrVersionConflict
}
