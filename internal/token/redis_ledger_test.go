package token

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLedger(t *testing.T) *RedisLedger {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedisLedger(client)
}

func liveRecord(tokenID, subject string) RefreshRecord {
	now := time.Now().UTC()
	return RefreshRecord{
		TokenID:   tokenID,
		Subject:   subject,
		IssuedAt:  now,
		ExpiresAt: now.Add(time.Hour),
	}
}

func TestLedger_RedeemOnce(t *testing.T) {
	ledger := newTestLedger(t)
	ctx := context.Background()

	require.NoError(t, ledger.Put(ctx, liveRecord("tok-1", "user-1")))

	require.NoError(t, ledger.Redeem(ctx, "tok-1"))
	assert.ErrorIs(t, ledger.Redeem(ctx, "tok-1"), ErrRevoked)
}

func TestLedger_RedeemUnknown(t *testing.T) {
	ledger := newTestLedger(t)

	assert.ErrorIs(t, ledger.Redeem(context.Background(), "never-issued"), ErrUnknown)
}

func TestLedger_RevokeIdempotent(t *testing.T) {
	ledger := newTestLedger(t)
	ctx := context.Background()

	require.NoError(t, ledger.Put(ctx, liveRecord("tok-1", "user-1")))

	require.NoError(t, ledger.Revoke(ctx, "tok-1"))
	require.NoError(t, ledger.Revoke(ctx, "tok-1"))
	require.NoError(t, ledger.Revoke(ctx, "never-issued"))

	assert.ErrorIs(t, ledger.Redeem(ctx, "tok-1"), ErrRevoked)
}

func TestLedger_RevokeAllForSubject(t *testing.T) {
	ledger := newTestLedger(t)
	ctx := context.Background()

	require.NoError(t, ledger.Put(ctx, liveRecord("tok-1", "user-1")))
	require.NoError(t, ledger.Put(ctx, liveRecord("tok-2", "user-1")))
	require.NoError(t, ledger.Put(ctx, liveRecord("tok-3", "user-2")))

	require.NoError(t, ledger.RevokeAllForSubject(ctx, "user-1"))

	assert.ErrorIs(t, ledger.Redeem(ctx, "tok-1"), ErrRevoked)
	assert.ErrorIs(t, ledger.Redeem(ctx, "tok-2"), ErrRevoked)
	require.NoError(t, ledger.Redeem(ctx, "tok-3"))
}

func TestLedger_RecordsExpireWithTokens(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	ledger := NewRedisLedger(client)
	ctx := context.Background()

	rec := liveRecord("tok-1", "user-1")
	rec.ExpiresAt = time.Now().Add(time.Second)
	require.NoError(t, ledger.Put(ctx, rec))

	mr.FastForward(2 * time.Second)

	assert.ErrorIs(t, ledger.Redeem(ctx, "tok-1"), ErrUnknown)
}
