package identity

// ProviderClaims is a normalized external identity as asserted by an
// OAuth provider. It contains facts only, no decisions.
type ProviderClaims struct {
	Provider      string // e.g. "google", "github"
	Subject       string // provider-scoped unique user identifier (sub)
	Email         string // email returned by the provider
	Name          string // display name returned by the provider
	EmailVerified bool   // whether the provider asserts email ownership
}
