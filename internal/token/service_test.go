package token

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riiansmart/taskflow/internal/identity"
)

func newTestService(t *testing.T, accessTTL time.Duration) *Service {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewService(
		NewCodec("test-secret"),
		NewRedisLedger(client),
		accessTTL,
		24*time.Hour,
	)
}

func TestIssuePairThenValidateAccess(t *testing.T) {
	svc := newTestService(t, time.Minute)
	ctx := context.Background()

	pair, err := svc.IssuePair(ctx, testSubject)
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)

	principal, err := svc.ValidateAccess(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, testSubject.ID, principal.ID)
	assert.Equal(t, testSubject.Email, principal.Email)
	assert.Equal(t, testSubject.Role, principal.Role)
	assert.Equal(t, identity.PrincipalLocal, principal.Kind)
}

func TestValidateAccess_FederatedPrincipal(t *testing.T) {
	svc := newTestService(t, time.Minute)

	sub := testSubject
	sub.Provider = "github"

	pair, err := svc.IssuePair(context.Background(), sub)
	require.NoError(t, err)

	principal, err := svc.ValidateAccess(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, identity.PrincipalFederated, principal.Kind)
	assert.Equal(t, "github", principal.Provider)
}

func TestValidateAccess_Expired(t *testing.T) {
	svc := newTestService(t, -time.Minute)

	pair, err := svc.IssuePair(context.Background(), testSubject)
	require.NoError(t, err)

	_, err = svc.ValidateAccess(pair.AccessToken)
	assert.ErrorIs(t, err, ErrExpired)
}

func TestValidateAccess_RejectsRefreshToken(t *testing.T) {
	svc := newTestService(t, time.Minute)

	pair, err := svc.IssuePair(context.Background(), testSubject)
	require.NoError(t, err)

	_, err = svc.ValidateAccess(pair.RefreshToken)
	assert.ErrorIs(t, err, ErrKindMismatch)
}

func TestRotateRefresh_ReplayRejected(t *testing.T) {
	svc := newTestService(t, time.Minute)
	ctx := context.Background()

	pair, err := svc.IssuePair(ctx, testSubject)
	require.NoError(t, err)

	rotated, err := svc.RotateRefresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, pair.RefreshToken, rotated.RefreshToken)

	// the redeemed token is burned
	_, err = svc.RotateRefresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, ErrRevoked)

	// the replacement still works
	_, err = svc.RotateRefresh(ctx, rotated.RefreshToken)
	require.NoError(t, err)
}

func TestRotateRefresh_ForgedToken(t *testing.T) {
	svc := newTestService(t, time.Minute)
	ctx := context.Background()

	// well-signed but never recorded in the ledger
	forged, _, err := NewCodec("test-secret").Sign(testSubject, KindRefresh, time.Hour)
	require.NoError(t, err)

	_, err = svc.RotateRefresh(ctx, forged)
	assert.ErrorIs(t, err, ErrUnknown)

	_, err = svc.RotateRefresh(ctx, "garbage")
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestRotateRefresh_ConcurrentReplaySingleWinner(t *testing.T) {
	svc := newTestService(t, time.Minute)
	ctx := context.Background()

	pair, err := svc.IssuePair(ctx, testSubject)
	require.NoError(t, err)

	const racers = 8
	errs := make([]error, racers)

	var wg sync.WaitGroup
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.RotateRefresh(ctx, pair.RefreshToken)
		}(i)
	}
	wg.Wait()

	successes := 0
	for _, err := range errs {
		if err == nil {
			successes++
		} else {
			assert.ErrorIs(t, err, ErrRevoked)
		}
	}
	assert.Equal(t, 1, successes, "exactly one rotation may win")
}

func TestRevoke_Idempotent(t *testing.T) {
	svc := newTestService(t, time.Minute)
	ctx := context.Background()

	pair, err := svc.IssuePair(ctx, testSubject)
	require.NoError(t, err)

	require.NoError(t, svc.Revoke(ctx, pair.RefreshToken))
	require.NoError(t, svc.Revoke(ctx, pair.RefreshToken))
	require.NoError(t, svc.Revoke(ctx, "garbage"))

	_, err = svc.RotateRefresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, ErrRevoked)
}

func TestRevokeAllForSubject(t *testing.T) {
	svc := newTestService(t, time.Minute)
	ctx := context.Background()

	first, err := svc.IssuePair(ctx, testSubject)
	require.NoError(t, err)
	second, err := svc.IssuePair(ctx, testSubject)
	require.NoError(t, err)

	require.NoError(t, svc.RevokeAllForSubject(ctx, testSubject.ID))

	_, err = svc.RotateRefresh(ctx, first.RefreshToken)
	assert.ErrorIs(t, err, ErrRevoked)
	_, err = svc.RotateRefresh(ctx, second.RefreshToken)
	assert.ErrorIs(t, err, ErrRevoked)
}
