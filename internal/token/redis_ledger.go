package token

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// redeemScript flips the revoked flag if and only if the record is
// still live. Running inside Redis makes the check-and-set atomic, so
// two concurrent rotations of one token id cannot both succeed.
var redeemScript = redis.NewScript(`
local raw = redis.call("GET", KEYS[1])
if not raw then
	return "unknown"
end
local rec = cjson.decode(raw)
if rec.revoked then
	return "revoked"
end
rec.revoked = true
redis.call("SET", KEYS[1], cjson.encode(rec), "KEEPTTL")
return "ok"
`)

// RedisLedger is the shared revocation ledger. Records expire with
// their tokens, so the ledger sweeps itself.
type RedisLedger struct {
	client *redis.Client
	prefix string
}

func NewRedisLedger(client *redis.Client) *RedisLedger {
	return &RedisLedger{
		client: client,
		prefix: "refresh:",
	}
}

func (l *RedisLedger) key(tokenID string) string {
	return l.prefix + tokenID
}

func (l *RedisLedger) subjectKey(subject string) string {
	return l.prefix + "subject:" + subject
}

func (l *RedisLedger) Put(ctx context.Context, rec RefreshRecord) error {
	if rec.TokenID == "" || rec.Subject == "" {
		return fmt.Errorf("ledger: missing token_id or subject")
	}

	ttl := time.Until(rec.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("ledger: expires_at must be in the future")
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("ledger: failed to marshal record: %w", err)
	}

	if err := l.client.Set(ctx, l.key(rec.TokenID), data, ttl).Err(); err != nil {
		return fmt.Errorf("ledger: put failed: %w", err)
	}

	// subject index for revoke-all; kept alive as long as the newest token
	pipe := l.client.Pipeline()
	pipe.SAdd(ctx, l.subjectKey(rec.Subject), rec.TokenID)
	pipe.Expire(ctx, l.subjectKey(rec.Subject), ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("ledger: subject index update failed: %w", err)
	}

	return nil
}

func (l *RedisLedger) redeem(ctx context.Context, tokenID string) (string, error) {
	res, err := redeemScript.Run(ctx, l.client, []string{l.key(tokenID)}).Text()
	if err != nil {
		return "", fmt.Errorf("ledger: redeem script failed: %w", err)
	}
	return res, nil
}

func (l *RedisLedger) Redeem(ctx context.Context, tokenID string) error {
	res, err := l.redeem(ctx, tokenID)
	if err != nil {
		return err
	}

	switch res {
	case "ok":
		return nil
	case "revoked":
		return ErrRevoked
	default:
		return ErrUnknown
	}
}

func (l *RedisLedger) Revoke(ctx context.Context, tokenID string) error {
	// same atomic flip; unknown and already-revoked are both fine
	_, err := l.redeem(ctx, tokenID)
	return err
}

func (l *RedisLedger) RevokeAllForSubject(ctx context.Context, subject string) error {
	ids, err := l.client.SMembers(ctx, l.subjectKey(subject)).Result()
	if err != nil {
		return fmt.Errorf("ledger: subject index read failed: %w", err)
	}

	for _, id := range ids {
		if _, err := l.redeem(ctx, id); err != nil {
			return err
		}
	}

	return nil
}
