package resolver

import (
	"context"

	"github.com/riiansmart/taskflow/internal/identity"
)

// Resolver determines which local identity a set of provider claims
// belongs to, creating or linking accounts as needed. It is the ONLY
// place where identity-to-account mapping logic lives.
type Resolver interface {
	Resolve(
		ctx context.Context,
		claims *identity.ProviderClaims,
	) (*identity.Identity, error)
}
