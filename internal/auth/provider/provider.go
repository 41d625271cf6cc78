package provider

import (
	"context"

	"github.com/riiansmart/taskflow/internal/identity"
)

// OAuthProvider defines the contract every external auth provider
// must implement. Implementations return identity facts only and
// must not perform account creation, linking, or token issuance.
type OAuthProvider interface {
	// Name returns the provider identifier (e.g. "google", "github").
	Name() string

	// AuthCodeURL returns the OAuth authorization URL.
	// State and PKCE parameters are provided by the caller.
	AuthCodeURL(state string, codeChallenge string) string

	// ExchangeCode exchanges the authorization code for provider
	// credentials and returns normalized claims. No auth decisions are
	// made here.
	ExchangeCode(
		ctx context.Context,
		code string,
		codeVerifier string,
	) (*identity.ProviderClaims, error)
}
