package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riiansmart/taskflow/internal/auth/credentials"
	"github.com/riiansmart/taskflow/internal/auth/onetime"
	"github.com/riiansmart/taskflow/internal/auth/resolver"
	"github.com/riiansmart/taskflow/internal/identity"
	"github.com/riiansmart/taskflow/internal/token"
)

type fixture struct {
	svc    *Service
	store  *identity.MemoryStore
	tokens *token.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := identity.NewMemoryStore()
	tokens := token.NewService(
		token.NewCodec("test-secret"),
		token.NewRedisLedger(client),
		time.Minute,
		24*time.Hour,
	)

	svc := NewService(
		credentials.NewService(store),
		resolver.NewStoreResolver(store),
		tokens,
		onetime.NewStore(client),
		store,
		time.Hour,
		time.Hour,
	)

	return &fixture{svc: svc, store: store, tokens: tokens}
}

func TestRegisterLoginRefreshLogout(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Register(ctx, "Ada", "ada@example.com", "super secret pw")
	require.NoError(t, err)

	pair, err := f.svc.Login(ctx, "ada@example.com", "super secret pw")
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)

	principal, err := f.tokens.ValidateAccess(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", principal.Email)
	assert.Equal(t, identity.RoleUser, principal.Role)

	rotated, err := f.svc.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)

	// the redeemed refresh token is burned
	_, err = f.svc.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, token.ErrRevoked)

	// logout never fails, even repeated
	require.NoError(t, f.svc.Logout(ctx, rotated.RefreshToken))
	require.NoError(t, f.svc.Logout(ctx, rotated.RefreshToken))
	require.NoError(t, f.svc.Logout(ctx, "garbage"))

	_, err = f.svc.Refresh(ctx, rotated.RefreshToken)
	assert.ErrorIs(t, err, token.ErrRevoked)
}

func TestVerifyEmailFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	verification, err := f.svc.Register(ctx, "Ada", "ada@example.com", "super secret pw")
	require.NoError(t, err)
	require.NotEmpty(t, verification)

	require.NoError(t, f.svc.VerifyEmail(ctx, verification))

	ident, err := f.store.GetByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.True(t, ident.EmailVerified)

	// single use
	err = f.svc.VerifyEmail(ctx, verification)
	assert.ErrorIs(t, err, onetime.ErrAlreadyUsed)
}

func TestResendVerification_SupersedesAndStaysSilent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.svc.Register(ctx, "Ada", "ada@example.com", "super secret pw")
	require.NoError(t, err)

	second, err := f.svc.ResendVerification(ctx, "ada@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, second)

	// the earlier token no longer verifies
	assert.ErrorIs(t, f.svc.VerifyEmail(ctx, first), onetime.ErrUnknown)
	require.NoError(t, f.svc.VerifyEmail(ctx, second))

	// unknown email: silent success, no token
	tok, err := f.svc.ResendVerification(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.Empty(t, tok)
}

func TestPasswordResetFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Register(ctx, "Ada", "ada@example.com", "super secret pw")
	require.NoError(t, err)

	pair, err := f.svc.Login(ctx, "ada@example.com", "super secret pw")
	require.NoError(t, err)

	reset, err := f.svc.RequestPasswordReset(ctx, "ada@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, reset)

	require.NoError(t, f.svc.ResetPassword(ctx, reset, "brand new password"))

	// old password is gone, new one works
	_, err = f.svc.Login(ctx, "ada@example.com", "super secret pw")
	assert.ErrorIs(t, err, credentials.ErrInvalidCredentials)
	_, err = f.svc.Login(ctx, "ada@example.com", "brand new password")
	require.NoError(t, err)

	// every outstanding refresh token was revoked
	_, err = f.svc.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, token.ErrRevoked)

	// the reset token is single use
	err = f.svc.ResetPassword(ctx, reset, "yet another password")
	assert.ErrorIs(t, err, onetime.ErrAlreadyUsed)
}

func TestRequestPasswordReset_UnknownEmailIsSilent(t *testing.T) {
	f := newFixture(t)

	tok, err := f.svc.RequestPasswordReset(context.Background(), "nobody@example.com")
	require.NoError(t, err)
	assert.Empty(t, tok)
}

// contendedStore lets a test act as a concurrent writer: beforeUpdate
// runs right before every Update, after the caller has read the row.
type contendedStore struct {
	identity.Store
	beforeUpdate func()
}

func (s *contendedStore) Update(ctx context.Context, ident *identity.Identity) error {
	if s.beforeUpdate != nil {
		s.beforeUpdate()
	}
	return s.Store.Update(ctx, ident)
}

func newContendedFixture(t *testing.T) (*Service, *contendedStore, *identity.MemoryStore) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	mem := identity.NewMemoryStore()
	contended := &contendedStore{Store: mem}
	tokens := token.NewService(
		token.NewCodec("test-secret"),
		token.NewRedisLedger(client),
		time.Minute,
		24*time.Hour,
	)

	svc := NewService(
		credentials.NewService(contended),
		resolver.NewStoreResolver(contended),
		tokens,
		onetime.NewStore(client),
		contended,
		time.Hour,
		time.Hour,
	)

	return svc, contended, mem
}

func TestVerifyEmail_SurvivesVersionConflict(t *testing.T) {
	svc, contended, mem := newContendedFixture(t)
	ctx := context.Background()

	verification, err := svc.Register(ctx, "Ada", "ada@example.com", "super secret pw")
	require.NoError(t, err)

	conflicted := false
	contended.beforeUpdate = func() {
		if conflicted {
			return
		}
		conflicted = true
		racer, err := mem.GetByEmail(ctx, "ada@example.com")
		require.NoError(t, err)
		racer.Name = "Ada L."
		require.NoError(t, mem.Update(ctx, racer))
	}

	require.NoError(t, svc.VerifyEmail(ctx, verification))

	ident, err := mem.GetByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.True(t, ident.EmailVerified)
	assert.Equal(t, "Ada L.", ident.Name, "the concurrent write must not be lost")
}

func TestVerifyEmail_ConflictRetriesExhausted(t *testing.T) {
	svc, contended, mem := newContendedFixture(t)
	ctx := context.Background()

	verification, err := svc.Register(ctx, "Ada", "ada@example.com", "super secret pw")
	require.NoError(t, err)

	// a writer that always wins the race
	contended.beforeUpdate = func() {
		racer, err := mem.GetByEmail(ctx, "ada@example.com")
		require.NoError(t, err)
		racer.Name = racer.Name + "."
		require.NoError(t, mem.Update(ctx, racer))
	}

	err = svc.VerifyEmail(ctx, verification)
	assert.ErrorIs(t, err, identity.ErrVersionConflict)

	// the token was consumed before the update, so the failed attempt
	// burns it and the user must request a fresh one
	err = svc.VerifyEmail(ctx, verification)
	assert.ErrorIs(t, err, onetime.ErrAlreadyUsed)
}

func TestFederatedLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	claims := &identity.ProviderClaims{
		Provider:      "github",
		Subject:       "12345",
		Email:         "ada@example.com",
		Name:          "Ada Lovelace",
		EmailVerified: true,
	}

	pair, err := f.svc.FederatedLogin(ctx, claims)
	require.NoError(t, err)

	principal, err := f.tokens.ValidateAccess(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, identity.PrincipalFederated, principal.Kind)
	assert.Equal(t, "github", principal.Provider)

	// same claims land on the same identity
	again, err := f.svc.FederatedLogin(ctx, claims)
	require.NoError(t, err)

	p2, err := f.tokens.ValidateAccess(again.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, principal.ID, p2.ID)
}
