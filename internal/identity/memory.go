package identity

import (
	"context"
	"strconv"
	"sync"
	"time"
)

// MemoryStore is an in-memory Store used by tests and local
// experiments. It honors the same contracts as the Postgres store:
// case-insensitive email uniqueness, the auth-path invariant and
// optimistic version checks.
type MemoryStore struct {
	mu     sync.Mutex
	nextID int
	byID   map[string]*Identity
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byID: make(map[string]*Identity)}
}

func clone(i *Identity) *Identity {
	out := *i
	if i.LastLoginAt != nil {
		t := *i.LastLoginAt
		out.LastLoginAt = &t
	}
	return &out
}

func (s *MemoryStore) GetByID(_ context.Context, id string) (*Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ident, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(ident), nil
}

func (s *MemoryStore) GetByEmail(_ context.Context, email string) (*Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	normalized := NormalizeEmail(email)
	for _, ident := range s.byID {
		if ident.Email == normalized {
			return clone(ident), nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) GetByProvider(_ context.Context, provider, providerUserID string) (*Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, ident := range s.byID {
		if ident.Provider == provider && ident.ProviderUserID == providerUserID {
			return clone(ident), nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) Create(_ context.Context, ident *Identity) error {
	if ident.PasswordHash == "" && ident.ProviderUserID == "" {
		return ErrNoAuthPath
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	normalized := NormalizeEmail(ident.Email)
	for _, existing := range s.byID {
		if existing.Email == normalized {
			return ErrEmailTaken
		}
	}

	s.nextID++
	ident.ID = strconv.Itoa(s.nextID)
	ident.Email = normalized
	ident.Version = 1
	ident.CreatedAt = time.Now().UTC()

	s.byID[ident.ID] = clone(ident)
	return nil
}

func (s *MemoryStore) Update(_ context.Context, ident *Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.byID[ident.ID]
	if !ok {
		return ErrNotFound
	}
	if existing.Version != ident.Version {
		return ErrVersionConflict
	}

	ident.Version++
	stored := clone(ident)
	stored.LastLoginAt = existing.LastLoginAt
	s.byID[ident.ID] = stored
	return nil
}

func (s *MemoryStore) StampLastLogin(_ context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ident, ok := s.byID[id]
	if !ok {
		return ErrNotFound
	}
	ident.LastLoginAt = &at
	return nil
}
