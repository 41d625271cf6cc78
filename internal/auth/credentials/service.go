package credentials

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/riiansmart/taskflow/internal/identity"
	"github.com/riiansmart/taskflow/internal/logger"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAlreadyRegistered  = errors.New("email already registered")
)

// Service verifies local email/password logins and registers new
// password-backed accounts.
type Service struct {
	identities identity.Store
}

func NewService(identities identity.Store) *Service {
	return &Service{identities: identities}
}

// Authenticate verifies an email/password pair. Unknown email, inactive
// account, federated-only account and wrong password all collapse into
// ErrInvalidCredentials so callers cannot probe which accounts exist.
func (s *Service) Authenticate(
	ctx context.Context,
	email string,
	password string,
) (*identity.Identity, error) {

	ident, err := s.identities.GetByEmail(ctx, identity.NormalizeEmail(email))
	if errors.Is(err, identity.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("credentials: identity lookup failed: %w", err)
	}

	if !ident.Active || !ident.HasPassword() {
		return nil, ErrInvalidCredentials
	}

	if !VerifyPassword(ident.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	// best effort; a lost stamp must not fail the login
	if err := s.identities.StampLastLogin(ctx, ident.ID, time.Now().UTC()); err != nil {
		logger.Warn("last login stamp failed", map[string]any{
			"user_id": ident.ID,
			"error":   err.Error(),
		})
	}

	return ident, nil
}

// Register creates a new local account with role USER. The caller is
// responsible for issuing a verification token afterwards.
func (s *Service) Register(
	ctx context.Context,
	name string,
	email string,
	password string,
) (*identity.Identity, error) {

	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	ident := &identity.Identity{
		Email:        identity.NormalizeEmail(email),
		Name:         name,
		PasswordHash: hash,
		Role:         identity.RoleUser,
		Active:       true,
	}

	err = s.identities.Create(ctx, ident)
	if errors.Is(err, identity.ErrEmailTaken) {
		return nil, ErrAlreadyRegistered
	}
	if err != nil {
		return nil, fmt.Errorf("credentials: register failed: %w", err)
	}

	return ident, nil
}
