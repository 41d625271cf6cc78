package token

import (
	"context"
	"time"

	"github.com/riiansmart/taskflow/internal/identity"
)

// Subject is the identity slice a token is minted for.
type Subject struct {
	ID       string
	Email    string
	Role     identity.Role
	Provider string // empty for local logins
}

// Pair is what a successful login, federated callback or rotation
// returns.
type Pair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Service issues, validates and rotates access/refresh token pairs.
type Service struct {
	codec      *Codec
	ledger     Ledger
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewService(codec *Codec, ledger Ledger, accessTTL, refreshTTL time.Duration) *Service {
	return &Service{
		codec:      codec,
		ledger:     ledger,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// IssuePair mints a short-lived access token and a long-lived refresh
// token, and records the refresh token id as live in the ledger.
func (s *Service) IssuePair(ctx context.Context, sub Subject) (Pair, error) {
	access, _, err := s.codec.Sign(sub, KindAccess, s.accessTTL)
	if err != nil {
		return Pair{}, err
	}

	refresh, claims, err := s.codec.Sign(sub, KindRefresh, s.refreshTTL)
	if err != nil {
		return Pair{}, err
	}

	rec := RefreshRecord{
		TokenID:   claims.ID,
		Subject:   sub.ID,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}
	if err := s.ledger.Put(ctx, rec); err != nil {
		return Pair{}, err
	}

	return Pair{AccessToken: access, RefreshToken: refresh}, nil
}

// ValidateAccess checks an access token and maps its claims to a
// request-scoped principal. Pure: no store access, no mutation.
// Access tokens are deliberately not checked against the ledger; only
// refresh tokens are revocable and access compromise is bounded by the
// short ttl.
func (s *Service) ValidateAccess(raw string) (*identity.Principal, error) {
	claims, err := s.codec.Verify(raw, KindAccess)
	if err != nil {
		return nil, err
	}

	kind := identity.PrincipalLocal
	if claims.Provider != "" {
		kind = identity.PrincipalFederated
	}

	return &identity.Principal{
		Kind:     kind,
		ID:       claims.Subject,
		Email:    claims.Email,
		Role:     claims.Role,
		Provider: claims.Provider,
	}, nil
}

// RotateRefresh redeems a refresh token for a brand-new pair. A given
// refresh token id can be redeemed at most once: the ledger flip is
// atomic, so a concurrent replay loses with ErrRevoked.
func (s *Service) RotateRefresh(ctx context.Context, raw string) (Pair, error) {
	claims, err := s.codec.Verify(raw, KindRefresh)
	if err != nil {
		return Pair{}, err
	}

	if err := s.ledger.Redeem(ctx, claims.ID); err != nil {
		return Pair{}, err
	}

	return s.IssuePair(ctx, Subject{
		ID:       claims.Subject,
		Email:    claims.Email,
		Role:     claims.Role,
		Provider: claims.Provider,
	})
}

// Revoke marks a refresh token id revoked (logout). Idempotent and
// deliberately quiet: malformed, expired, unknown and already-revoked
// tokens all succeed, so probing logout leaks nothing.
func (s *Service) Revoke(ctx context.Context, raw string) error {
	claims, err := s.codec.Verify(raw, KindRefresh)
	if err != nil {
		return nil
	}
	return s.ledger.Revoke(ctx, claims.ID)
}

// RevokeAllForSubject revokes every outstanding refresh token for a
// subject, forcing re-login everywhere. Used after password resets.
func (s *Service) RevokeAllForSubject(ctx context.Context, subjectID string) error {
	return s.ledger.RevokeAllForSubject(ctx, subjectID)
}
