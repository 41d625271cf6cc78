package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/riiansmart/taskflow/internal/identity"
	"github.com/riiansmart/taskflow/internal/token"
)

// unexported, collision-proof context key
type principalContextKeyType struct{}

var principalKey = principalContextKeyType{}

// PrincipalFromContext extracts the authenticated principal from
// context. Downstream code receives the principal only this way, never
// from ambient state.
func PrincipalFromContext(ctx context.Context) (*identity.Principal, bool) {
	p, ok := ctx.Value(principalKey).(*identity.Principal)
	return p, ok
}

// AuthMiddleware is the request-time authorization gate. Protected
// routes pass through RequireAuth; public routes simply skip it.
type AuthMiddleware struct {
	Tokens *token.Service
}

func NewAuthMiddleware(tokens *token.Service) *AuthMiddleware {
	return &AuthMiddleware{Tokens: tokens}
}

func (a *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// 1. Extract bearer token
		raw := bearerToken(r)
		if raw == "" {
			unauthorized(w)
			return
		}

		// 2. Validate signature, expiry and kind. Local and CPU-bound:
		// access tokens are not checked against the revocation ledger.
		principal, err := a.Tokens.ValidateAccess(raw)
		if err != nil {
			unauthorized(w)
			return
		}

		// 3. Attach principal to context
		ctx := context.WithValue(r.Context(), principalKey, principal)

		// 4. Continue request
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}

	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}

	return strings.TrimSpace(strings.TrimPrefix(header, prefix))
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"message": "unauthorized",
	})
}
