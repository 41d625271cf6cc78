package identity

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/riiansmart/taskflow/internal/db"
)

const uniqueViolation = "23505"

// PostgresStore is the canonical identity store.
type PostgresStore struct {
	db *db.DB
}

func NewPostgresStore(db *db.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const identityColumns = `
	id, email, name, COALESCE(password_hash, ''), role,
	COALESCE(provider, ''), COALESCE(provider_user_id, ''),
	email_verified, active, last_login_at, version, created_at
`

func scanIdentity(row *sql.Row) (*Identity, error) {
	var (
		ident     Identity
		lastLogin sql.NullTime
	)

	err := row.Scan(
		&ident.ID,
		&ident.Email,
		&ident.Name,
		&ident.PasswordHash,
		&ident.Role,
		&ident.Provider,
		&ident.ProviderUserID,
		&ident.EmailVerified,
		&ident.Active,
		&lastLogin,
		&ident.Version,
		&ident.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("identity: scan failed: %w", err)
	}

	if lastLogin.Valid {
		t := lastLogin.Time
		ident.LastLoginAt = &t
	}

	return &ident, nil
}

func (s *PostgresStore) GetByID(ctx context.Context, id string) (*Identity, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+identityColumns+`
		FROM users
		WHERE id = $1
	`, id)
	return scanIdentity(row)
}

func (s *PostgresStore) GetByEmail(ctx context.Context, email string) (*Identity, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+identityColumns+`
		FROM users
		WHERE LOWER(email) = LOWER($1)
	`, email)
	return scanIdentity(row)
}

func (s *PostgresStore) GetByProvider(ctx context.Context, provider, providerUserID string) (*Identity, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+identityColumns+`
		FROM users
		WHERE provider = $1
		  AND provider_user_id = $2
	`, provider, providerUserID)
	return scanIdentity(row)
}

func (s *PostgresStore) Create(ctx context.Context, ident *Identity) error {
	if ident.PasswordHash == "" && ident.ProviderUserID == "" {
		return ErrNoAuthPath
	}

	err := s.db.QueryRowContext(ctx, `
		INSERT INTO users (
			email, name, password_hash, role,
			provider, provider_user_id, email_verified, active
		)
		VALUES ($1, $2, NULLIF($3, ''), $4, NULLIF($5, ''), NULLIF($6, ''), $7, $8)
		RETURNING id, version, created_at
	`,
		NormalizeEmail(ident.Email),
		ident.Name,
		ident.PasswordHash,
		ident.Role,
		ident.Provider,
		ident.ProviderUserID,
		ident.EmailVerified,
		ident.Active,
	).Scan(&ident.ID, &ident.Version, &ident.CreatedAt)

	if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == uniqueViolation {
		return ErrEmailTaken
	}
	if err != nil {
		return fmt.Errorf("identity: create failed: %w", err)
	}

	ident.Email = NormalizeEmail(ident.Email)
	return nil
}

func (s *PostgresStore) Update(ctx context.Context, ident *Identity) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE users
		SET name = $1,
		    password_hash = NULLIF($2, ''),
		    role = $3,
		    provider = NULLIF($4, ''),
		    provider_user_id = NULLIF($5, ''),
		    email_verified = $6,
		    active = $7,
		    version = version + 1,
		    updated_at = NOW()
		WHERE id = $8
		  AND version = $9
	`,
		ident.Name,
		ident.PasswordHash,
		ident.Role,
		ident.Provider,
		ident.ProviderUserID,
		ident.EmailVerified,
		ident.Active,
		ident.ID,
		ident.Version,
	)
	if err != nil {
		return fmt.Errorf("identity: update failed: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("identity: update failed: %w", err)
	}
	if affected == 0 {
		return ErrVersionConflict
	}

	ident.Version++
	return nil
}

func (s *PostgresStore) StampLastLogin(ctx context.Context, id string, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE users
		SET last_login_at = $1
		WHERE id = $2
	`, at, id)
	if err != nil {
		return fmt.Errorf("identity: last login stamp failed: %w", err)
	}
	return nil
}
