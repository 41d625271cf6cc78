package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/riiansmart/taskflow/internal/identity"
)

// Kind distinguishes the two signing contexts so an access token can
// never be replayed as a refresh token or vice versa.
type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

var (
	ErrMalformed    = errors.New("token malformed")
	ErrExpired      = errors.New("token expired")
	ErrKindMismatch = errors.New("token kind mismatch")
	ErrRevoked      = errors.New("token revoked")
	ErrUnknown      = errors.New("token unknown")
)

// Claims are the facts embedded in every signed token. The registered
// ID claim (jti) is the token id tracked by the revocation ledger.
type Claims struct {
	Email    string        `json:"email"`
	Role     identity.Role `json:"role"`
	Kind     Kind          `json:"kind"`
	Provider string        `json:"provider,omitempty"`
	jwt.RegisteredClaims
}

// Codec signs and verifies compact self-contained tokens with a
// process-held HMAC key. Stateless and safe for concurrent use.
type Codec struct {
	secret []byte
}

func NewCodec(secret string) *Codec {
	return &Codec{secret: []byte(secret)}
}

// Sign produces a token of the given kind carrying the subject facts,
// a fresh random token id and an expiry ttl from now. The embedded
// claims are returned alongside the signed token so callers can record
// the token id without re-parsing.
func (c *Codec) Sign(sub Subject, kind Kind, ttl time.Duration) (string, *Claims, error) {
	now := time.Now()

	claims := &Claims{
		Email:    sub.Email,
		Role:     sub.Role,
		Kind:     kind,
		Provider: sub.Provider,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub.ID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(c.secret)
	if err != nil {
		return "", nil, fmt.Errorf("token: signing failed: %w", err)
	}
	return signed, claims, nil
}

// Verify checks signature, expiry and kind. Failures are reported as
// ErrMalformed, ErrExpired or ErrKindMismatch.
func (c *Codec) Verify(raw string, kind Kind) (*Claims, error) {
	claims := &Claims{}

	_, err := jwt.ParseWithClaims(
		raw,
		claims,
		func(*jwt.Token) (any, error) { return c.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if errors.Is(err, jwt.ErrTokenExpired) {
		return nil, ErrExpired
	}
	if err != nil {
		return nil, ErrMalformed
	}

	if claims.Kind != kind {
		return nil, ErrKindMismatch
	}

	return claims, nil
}
