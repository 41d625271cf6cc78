package identity

type PrincipalKind string

const (
	PrincipalLocal     PrincipalKind = "local"
	PrincipalFederated PrincipalKind = "federated"
)

// Principal is the request-scoped authenticated identity handed to
// downstream handlers. It is built fresh per request from a validated
// access token and never persisted.
type Principal struct {
	Kind     PrincipalKind
	ID       string
	Email    string
	Role     Role
	Provider string // set only for federated principals
}
