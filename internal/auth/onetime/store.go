package onetime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/riiansmart/taskflow/internal/utils"
)

// Purpose scopes a single-use token to one flow, so a password-reset
// token can never pass as an email-verification token.
type Purpose string

const (
	PurposeVerifyEmail   Purpose = "verify-email"
	PurposePasswordReset Purpose = "password-reset"
)

var (
	ErrUnknown     = errors.New("one-time token unknown")
	ErrExpired     = errors.New("one-time token expired")
	ErrAlreadyUsed = errors.New("one-time token already used")
)

// records outlive their expiry by this much so that "expired" and
// "already used" stay distinguishable from "unknown"
const retentionGrace = 24 * time.Hour

type record struct {
	Email     string `json:"email"`
	ExpiresAt int64  `json:"expires_at"` // unix seconds
	Consumed  bool   `json:"consumed"`
}

// issueScript installs a fresh token and removes the prior outstanding
// one in a single step, so two racing issues can never leave two live
// tokens behind. KEYS[1] is the new token key, KEYS[2] the per-email
// index; ARGV[4] is the key prefix the prior token lives under.
var issueScript = redis.NewScript(`
local prev = redis.call("GET", KEYS[2])
if prev then
	redis.call("DEL", ARGV[4] .. prev)
end
redis.call("SET", KEYS[1], ARGV[1], "PX", ARGV[2])
redis.call("SET", KEYS[2], ARGV[3], "PX", ARGV[2])
return "ok"
`)

// consumeScript flips the consumed flag atomically, so a token can
// never verify twice. ARGV[1] is the current unix time.
var consumeScript = redis.NewScript(`
local raw = redis.call("GET", KEYS[1])
if not raw then
	return {"unknown", ""}
end
local rec = cjson.decode(raw)
if rec.consumed then
	return {"used", ""}
end
if tonumber(ARGV[1]) >= rec.expires_at then
	return {"expired", ""}
end
rec.consumed = true
redis.call("SET", KEYS[1], cjson.encode(rec), "KEEPTTL")
return {"ok", rec.email}
`)

// Store keeps single-use, time-boxed tokens bound to an email address.
type Store struct {
	client *redis.Client
	prefix string
}

func NewStore(client *redis.Client) *Store {
	return &Store{
		client: client,
		prefix: "onetime:",
	}
}

func (s *Store) key(purpose Purpose, token string) string {
	return s.prefix + string(purpose) + ":" + token
}

func (s *Store) indexKey(purpose Purpose, email string) string {
	return s.prefix + "index:" + string(purpose) + ":" + email
}

// Issue mints a fresh token for the email and invalidates any prior
// outstanding token of the same purpose.
func (s *Store) Issue(
	ctx context.Context,
	purpose Purpose,
	email string,
	ttl time.Duration,
) (string, error) {

	token, err := utils.RandomString(32)
	if err != nil {
		return "", err
	}

	rec := record{
		Email:     email,
		ExpiresAt: time.Now().Add(ttl).Unix(),
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("onetime: failed to marshal record: %w", err)
	}

	// a newly issued token supersedes the previous one
	retention := ttl + retentionGrace
	err = issueScript.Run(
		ctx,
		s.client,
		[]string{s.key(purpose, token), s.indexKey(purpose, email)},
		data,
		retention.Milliseconds(),
		token,
		s.prefix+string(purpose)+":",
	).Err()
	if err != nil {
		return "", fmt.Errorf("onetime: issue failed: %w", err)
	}

	return token, nil
}

// Consume redeems a token exactly once and returns the email it was
// bound to. Once consumed or expired, subsequent redemption fails.
func (s *Store) Consume(
	ctx context.Context,
	purpose Purpose,
	token string,
) (string, error) {

	res, err := consumeScript.Run(
		ctx,
		s.client,
		[]string{s.key(purpose, token)},
		time.Now().Unix(),
	).Slice()
	if err != nil {
		return "", fmt.Errorf("onetime: consume script failed: %w", err)
	}
	if len(res) != 2 {
		return "", fmt.Errorf("onetime: unexpected script reply")
	}

	status, _ := res[0].(string)
	email, _ := res[1].(string)

	switch status {
	case "ok":
		return email, nil
	case "used":
		return "", ErrAlreadyUsed
	case "expired":
		return "", ErrExpired
	default:
		return "", ErrUnknown
	}
}
